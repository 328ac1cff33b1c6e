package controllers

import (
	"net/http"
)

// HealthCheckHandler reports process liveness.
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
