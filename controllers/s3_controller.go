package controllers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"vela_server/services"
)

// S3Controller hands out presigned photo URLs.
type S3Controller struct {
	Photos *services.PhotoService
	Logger *zap.Logger
}

func NewS3Controller(photos *services.PhotoService, logger *zap.Logger) *S3Controller {
	return &S3Controller{Photos: photos, Logger: logger}
}

// GeneratePresignedURL returns an upload URL plus the object key the client
// reports back after uploading.
func (c *S3Controller) GeneratePresignedURL(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID   string `json:"userId"`
		FileName string `json:"fileName"`
		FileType string `json:"fileType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.UserID == "" || payload.FileName == "" || payload.FileType == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	url, key, err := c.Photos.GenerateUploadURL(r.Context(), payload.UserID, payload.FileName, payload.FileType)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url, "key": key})
}

// GetPresignedReadURL returns a read URL for a stored photo key.
func (c *S3Controller) GetPresignedReadURL(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Key == "" {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	url, err := c.Photos.GenerateReadURL(r.Context(), payload.Key)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
