package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/broadcast"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/domain"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/service"
	"github.com/immxrtalbeast/healthconnect_rtc/lib/logger/sl"
)

// SignalController exposes the signaling relay: a per-room websocket for
// live control traffic plus REST endpoints for session lifecycle and
// status. Authentication happens upstream; the resolved user id arrives as
// a query parameter.
type SignalController struct {
	signals     service.SignalInteractor
	hub         *broadcast.Hub
	log         *slog.Logger
	stunServers []string
	upgrader    websocket.Upgrader
}

func NewSignalController(signals service.SignalInteractor, hub *broadcast.Hub, log *slog.Logger, stunServers []string) *SignalController {
	if log == nil {
		log = slog.Default()
	}
	return &SignalController{
		signals:     signals,
		hub:         hub,
		log:         log,
		stunServers: stunServers,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (c *SignalController) CreateSession(ctx *gin.Context) {
	type request struct {
		RoomID string `json:"roomId" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	session := c.signals.CreateSession(req.RoomID)
	ctx.JSON(http.StatusCreated, gin.H{"session": session})
}

func (c *SignalController) EndSession(ctx *gin.Context) {
	outcome := c.signals.EndSession(ctx.Param("roomID"))
	ctx.JSON(http.StatusOK, gin.H{"applied": outcome.Applied()})
}

func (c *SignalController) RoomStatus(ctx *gin.Context) {
	status := c.signals.RoomStatus(ctx.Param("roomID"))
	ctx.JSON(http.StatusOK, gin.H{"room": status})
}

// IceConfig hands browsers the STUN servers to use for their peer
// connections. The relay itself never touches media.
func (c *SignalController) IceConfig(ctx *gin.Context) {
	servers := make([]gin.H, 0, len(c.stunServers))
	for _, url := range c.stunServers {
		servers = append(servers, gin.H{"urls": url})
	}
	ctx.JSON(http.StatusOK, gin.H{"iceServers": servers})
}

// JoinRoom upgrades the connection, attaches the user to the room and
// relays inbound control frames until the socket closes or the client
// sends a LEAVE frame. A vanished socket counts as a leave.
func (c *SignalController) JoinRoom(ctx *gin.Context) {
	roomID := ctx.Param("roomID")

	userID := ctx.Query("user_id")
	if userID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	userRole := ctx.Query("role")

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Error("failed to upgrade signaling connection", sl.Err(err))
		return
	}

	client := c.hub.Register(userID, conn)
	c.hub.Subscribe(client, broadcast.RoomTopic(roomID))

	peer := c.signals.Join(roomID, userID, userRole)

	// Tell the connection its own peer identity before any relayed
	// traffic references it.
	client.EnqueueJSON(domain.RoomMessage{
		Type:       domain.MessageUserJoined,
		FromPeerID: peer.PeerID,
		Data: map[string]any{
			"userId":   peer.UserID,
			"userRole": peer.UserRole,
			"self":     true,
		},
	})

	for {
		var msg domain.SignalMessage
		if err := conn.ReadJSON(&msg); err != nil {
			c.signals.Leave(roomID, userID)
			c.hub.Unregister(client)
			return
		}

		if msg.Type == "LEAVE" {
			c.signals.Leave(roomID, userID)
			c.hub.Unregister(client)
			return
		}

		if outcome := c.signals.Relay(roomID, userID, &msg); !outcome.Applied() {
			c.log.Debug("signal not applied",
				slog.String("room_id", roomID),
				slog.String("user_id", userID),
				slog.String("outcome", outcome.String()),
			)
		}
	}
}
