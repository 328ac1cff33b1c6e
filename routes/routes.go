package routes

import (
	"vela_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up the application-level routes.
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods("GET")
}
