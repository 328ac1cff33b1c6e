package controllers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"vela_server/services"
)

// InteractionController exposes the like/pass/block operations directly, for
// clients that bypass the conversational surface.
type InteractionController struct {
	Interactions *services.InteractionService
	Logger       *zap.Logger
}

func NewInteractionController(interactions *services.InteractionService, logger *zap.Logger) *InteractionController {
	return &InteractionController{Interactions: interactions, Logger: logger}
}

type interactionRequest struct {
	UserID       string `json:"userId"`
	TargetUserID string `json:"targetUserId"`
	Superlike    bool   `json:"superlike,omitempty"`
}

func decodeInteraction(w http.ResponseWriter, r *http.Request) (*interactionRequest, bool) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

// HandleLike records a like or superlike and reports the match outcome.
func (c *InteractionController) HandleLike(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeInteraction(w, r)
	if !ok {
		return
	}

	outcome, err := c.Interactions.Like(r.Context(), req.UserID, req.TargetUserID, req.Superlike)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (c *InteractionController) HandlePass(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeInteraction(w, r)
	if !ok {
		return
	}

	if err := c.Interactions.Pass(r.Context(), req.UserID, req.TargetUserID); err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Pass recorded"})
}

func (c *InteractionController) HandleBlock(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeInteraction(w, r)
	if !ok {
		return
	}

	if err := c.Interactions.Block(r.Context(), req.UserID, req.TargetUserID); err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Block recorded"})
}
