package routes

import (
	"vela_server/controllers"
	"vela_server/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RegisterUserProfileRoutes sets up routes for user profile operations under
// /api/profiles.
func RegisterUserProfileRoutes(r *mux.Router, profiles services.ProfileStore, logger *zap.Logger) {
	controller := controllers.NewUserProfileController(profiles, logger)

	profileRouter := r.PathPrefix("/api/profiles").Subrouter()
	profileRouter.HandleFunc("", controller.SaveUserProfile).Methods("POST")
	profileRouter.HandleFunc("/{userId}", controller.GetUserProfileByID).Methods("GET")
	profileRouter.HandleFunc("/{userId}/preferences", controller.UpdatePreferences).Methods("PATCH")
	profileRouter.HandleFunc("/{userId}", controller.DeleteUserProfile).Methods("DELETE")
}
