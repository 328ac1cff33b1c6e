package routes

import (
	"vela_server/controllers"
	"vela_server/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RegisterWebhookRoutes sets up the messaging platform callback endpoint.
func RegisterWebhookRoutes(r *mux.Router, conversations *services.ConversationService, logger *zap.Logger) {
	controller := controllers.NewWebhookController(conversations, logger)
	r.HandleFunc("/webhook", controller.HandleWebhook).Methods("POST")
}
