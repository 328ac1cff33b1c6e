package controllers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"vela_server/models"
	"vela_server/services"
)

// RecommendationController exposes the candidate queue.
type RecommendationController struct {
	Recommendations *services.RecommendationService
	Logger          *zap.Logger
}

func NewRecommendationController(recommendations *services.RecommendationService, logger *zap.Logger) *RecommendationController {
	return &RecommendationController{Recommendations: recommendations, Logger: logger}
}

// GetNext pops the next scored candidate for the user. An exhausted queue is
// a normal terminal signal, not an error status.
func (c *RecommendationController) GetNext(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	candidate, err := c.Recommendations.Next(r.Context(), userID)
	if errors.Is(err, models.ErrNoMoreCandidates) {
		writeJSON(w, http.StatusOK, map[string]bool{"noMoreCandidates": true})
		return
	}
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

// Refresh drops the cached queue and rebuilds it from durable state.
func (c *RecommendationController) Refresh(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	if err := c.Recommendations.Invalidate(r.Context(), userID); err != nil {
		writeError(w, c.Logger, err)
		return
	}
	queue, err := c.Recommendations.Generate(r.Context(), userID)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"queued": len(queue.Candidates)})
}
