package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(signalController *SignalController, presenceController *PresenceController, allowOrigins []string) *gin.Engine {
	router := gin.Default()
	config := cors.DefaultConfig()
	config.AllowOrigins = allowOrigins
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	if signalController != nil {
		api.POST("/sessions", signalController.CreateSession)
		api.DELETE("/sessions/:roomID", signalController.EndSession)
		api.GET("/webrtc/config", signalController.IceConfig)

		rooms := api.Group("/rooms")
		rooms.GET("/:roomID/status", signalController.RoomStatus)
		rooms.GET("/:roomID/ws", signalController.JoinRoom)
	}

	if presenceController != nil {
		presence := api.Group("/presence")
		presence.GET("/ws", presenceController.Connect)
		presence.GET("/online", presenceController.OnlineUsers)
		presence.GET("/online/count", presenceController.OnlineCount)
		presence.GET("/users/:userID", presenceController.GetPresence)
		presence.POST("/users/:userID/heartbeat", presenceController.Heartbeat)

		chats := api.Group("/chats")
		chats.GET("/:chatID/typing", presenceController.TypingInChat)
		chats.GET("/:chatID/participants", presenceController.ChatParticipants)
	}

	return router
}
