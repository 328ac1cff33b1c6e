package routes

import (
	"vela_server/controllers"
	"vela_server/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RegisterMatchRoutes sets up the match listing endpoint under /api/matches.
func RegisterMatchRoutes(r *mux.Router, relationships services.RelationshipStore, profiles services.ProfileStore, logger *zap.Logger) {
	controller := controllers.NewMatchController(relationships, profiles, logger)

	matchRouter := r.PathPrefix("/api/matches").Subrouter()
	matchRouter.HandleFunc("/{userId}", controller.GetMatches).Methods("GET")
}
