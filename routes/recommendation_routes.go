package routes

import (
	"vela_server/controllers"
	"vela_server/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RegisterRecommendationRoutes sets up the candidate queue endpoints under
// /api/recommendations.
func RegisterRecommendationRoutes(r *mux.Router, recommendations *services.RecommendationService, logger *zap.Logger) {
	controller := controllers.NewRecommendationController(recommendations, logger)

	recRouter := r.PathPrefix("/api/recommendations").Subrouter()
	recRouter.HandleFunc("/{userId}/next", controller.GetNext).Methods("GET")
	recRouter.HandleFunc("/{userId}/refresh", controller.Refresh).Methods("POST")
}
