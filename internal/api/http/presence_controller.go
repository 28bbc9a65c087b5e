package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/api/http/converter"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/broadcast"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/domain"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/service"
	"github.com/immxrtalbeast/healthconnect_rtc/lib/logger/sl"
)

// PresenceController exposes the presence tracker: a websocket whose
// connect/disconnect doubles as the online/offline transition, plus REST
// queries over the current presence view.
type PresenceController struct {
	presence service.PresenceInteractor
	hub      *broadcast.Hub
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewPresenceController(presence service.PresenceInteractor, hub *broadcast.Hub, log *slog.Logger) *PresenceController {
	if log == nil {
		log = slog.Default()
	}
	return &PresenceController{
		presence: presence,
		hub:      hub,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

type presenceFrame struct {
	Action string `json:"action"`
	Status string `json:"status,omitempty"`
	ChatID string `json:"chatId,omitempty"`
}

// Connect upgrades the presence socket. Connecting marks the user online,
// a clean or silent disconnect marks them offline; frames in between carry
// status changes, typing transitions, heartbeats and chat subscriptions.
func (c *PresenceController) Connect(ctx *gin.Context) {
	userID := ctx.Query("user_id")
	if userID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	userName := ctx.Query("name")

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Error("failed to upgrade presence connection", sl.Err(err))
		return
	}

	client := c.hub.Register(userID, conn)
	c.hub.Subscribe(client, broadcast.PresenceTopic)

	// The request context dies with the handler; socket-lifetime operations
	// use a background context instead.
	reqCtx := context.Background()
	deviceInfo := ctx.Request.UserAgent()
	if _, err := c.presence.SetOnline(reqCtx, userID, userName, deviceInfo, ctx.ClientIP()); err != nil {
		c.log.Error("failed to set user online", slog.String("user_id", userID), sl.Err(err))
	}

	for {
		var frame presenceFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if err := c.presence.SetOffline(reqCtx, userID); err != nil {
				c.log.Error("failed to set user offline", slog.String("user_id", userID), sl.Err(err))
			}
			c.hub.Unregister(client)
			return
		}

		switch frame.Action {
		case "status":
			status := domain.PresenceStatus(strings.ToUpper(frame.Status))
			if _, err := c.presence.UpdateStatus(reqCtx, userID, status); err != nil {
				c.log.Error("failed to update status", slog.String("user_id", userID), sl.Err(err))
			}
		case "typing_start":
			if err := c.presence.StartTyping(reqCtx, userID, frame.ChatID); err != nil {
				c.log.Error("failed to start typing", slog.String("user_id", userID), sl.Err(err))
			}
		case "typing_stop":
			if err := c.presence.StopTyping(reqCtx, userID, frame.ChatID); err != nil {
				c.log.Error("failed to stop typing", slog.String("user_id", userID), sl.Err(err))
			}
		case "heartbeat":
			if err := c.presence.UpdateActivity(reqCtx, userID); err != nil {
				c.log.Error("failed to record activity", slog.String("user_id", userID), sl.Err(err))
			}
		case "subscribe_chat":
			if frame.ChatID != "" {
				c.hub.Subscribe(client, broadcast.TypingTopic(frame.ChatID))
				if err := c.presence.JoinChat(reqCtx, frame.ChatID, userID); err != nil {
					c.log.Error("failed to join chat roster", slog.String("chat_id", frame.ChatID), sl.Err(err))
				}
			}
		case "unsubscribe_chat":
			if frame.ChatID != "" {
				c.hub.Unsubscribe(client, broadcast.TypingTopic(frame.ChatID))
				if err := c.presence.LeaveChat(reqCtx, frame.ChatID, userID); err != nil {
					c.log.Error("failed to leave chat roster", slog.String("chat_id", frame.ChatID), sl.Err(err))
				}
			}
		default:
			c.log.Debug("unknown presence action", slog.String("action", frame.Action))
		}
	}
}

func (c *PresenceController) GetPresence(ctx *gin.Context) {
	record, err := c.presence.GetUserPresence(ctx.Request.Context(), ctx.Param("userID"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "presence not found"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"presence": converter.PresenceToApi(record)})
}

func (c *PresenceController) OnlineUsers(ctx *gin.Context) {
	records, err := c.presence.GetOnlineUsers(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"users": converter.PresencesToApi(records)})
}

func (c *PresenceController) OnlineCount(ctx *gin.Context) {
	count, err := c.presence.GetOnlineUserCount(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"count": count})
}

func (c *PresenceController) Heartbeat(ctx *gin.Context) {
	if err := c.presence.UpdateActivity(ctx.Request.Context(), ctx.Param("userID")); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *PresenceController) TypingInChat(ctx *gin.Context) {
	records, err := c.presence.GetTypingUsersInChat(ctx.Request.Context(), ctx.Param("chatID"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"typing": converter.PresencesToApi(records)})
}

func (c *PresenceController) ChatParticipants(ctx *gin.Context) {
	records, err := c.presence.GetChatParticipantsPresence(ctx.Request.Context(), ctx.Param("chatID"), ctx.Query("exclude"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"participants": converter.PresencesToApi(records)})
}
