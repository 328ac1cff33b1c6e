package routes

import (
	"vela_server/controllers"
	"vela_server/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RegisterS3Routes sets up the presigned photo URL endpoints under /api/s3.
func RegisterS3Routes(r *mux.Router, photos *services.PhotoService, logger *zap.Logger) {
	controller := controllers.NewS3Controller(photos, logger)

	s3Router := r.PathPrefix("/api/s3").Subrouter()
	s3Router.HandleFunc("/upload-url", controller.GeneratePresignedURL).Methods("POST")
	s3Router.HandleFunc("/read-url", controller.GetPresignedReadURL).Methods("POST")
}
