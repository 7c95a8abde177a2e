package handlers

import (
	"github.com/gin-gonic/gin"
)

// Routes groups the handlers served to the local UI.
type Routes struct {
	Session   *SessionHandler
	Wizard    *WizardHandler
	Discovery *DiscoveryHandler
	Chat      *ChatHandler
	Timeline  gin.HandlerFunc
}

// Register mounts every route. auth guards everything except session management.
func Register(router gin.IRouter, routes Routes, auth gin.HandlerFunc) {
	router.POST("/session", routes.Session.Login)
	router.DELETE("/session", routes.Session.Logout)
	router.GET("/session", routes.Session.Current)

	private := router.Group("/", auth)

	w := private.Group("/wizard")
	w.GET("", routes.Wizard.State)
	w.PUT("/basic-info", routes.Wizard.SaveBasicInfo)
	w.GET("/location/search", routes.Wizard.SearchLocation)
	w.PUT("/location", routes.Wizard.SaveLocation)
	w.PUT("/media/cover", routes.Wizard.SetCover)
	w.POST("/media/gallery", routes.Wizard.AddGallery)
	w.DELETE("/media/gallery/:index", routes.Wizard.RemoveGallery)
	w.POST("/media", routes.Wizard.SaveMedia)
	w.POST("/tickets", routes.Wizard.AddTicket)
	w.DELETE("/tickets/:index", routes.Wizard.RemoveTicket)
	w.PUT("/tickets", routes.Wizard.SaveTickets)
	w.GET("/review", routes.Wizard.Review)
	w.PUT("/chat-group", routes.Wizard.SetCreateChatGroup)
	w.POST("/submit", routes.Wizard.Submit)

	private.GET("/events", routes.Discovery.ListEvents)
	private.GET("/events/:id", routes.Discovery.GetEvent)
	private.GET("/groups", routes.Discovery.ListGroups)
	private.GET("/profile/:type", routes.Discovery.GetProfile)
	private.PUT("/profile/:type/:field", routes.Discovery.UpdateProfileField)

	private.POST("/chats/:group_id/open", routes.Chat.Open)
	private.GET("/chats/:group_id/messages", routes.Chat.Messages)
	private.POST("/chats/:group_id/messages", routes.Chat.Send)
	private.DELETE("/chats/:group_id", routes.Chat.Leave)
	if routes.Timeline != nil {
		private.GET("/ws/chats/:group_id", routes.Timeline)
	}
}
