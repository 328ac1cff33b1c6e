package routes

import (
	"vela_server/controllers"
	"vela_server/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RegisterInteractionRoutes sets up routes for likes, passes, and blocks
// under /api/interactions.
func RegisterInteractionRoutes(r *mux.Router, interactions *services.InteractionService, logger *zap.Logger) {
	controller := controllers.NewInteractionController(interactions, logger)

	interactionRouter := r.PathPrefix("/api/interactions").Subrouter()
	interactionRouter.HandleFunc("/like", controller.HandleLike).Methods("POST")
	interactionRouter.HandleFunc("/pass", controller.HandlePass).Methods("POST")
	interactionRouter.HandleFunc("/block", controller.HandleBlock).Methods("POST")
}
