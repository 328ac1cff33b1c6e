package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"vela_server/models"
	"vela_server/services"
)

// MatchController exposes a user's confirmed matches.
type MatchController struct {
	Relationships services.RelationshipStore
	Profiles      services.ProfileStore
	Logger        *zap.Logger
}

func NewMatchController(relationships services.RelationshipStore, profiles services.ProfileStore, logger *zap.Logger) *MatchController {
	return &MatchController{Relationships: relationships, Profiles: profiles, Logger: logger}
}

// GetMatches lists the profiles of everyone the user has matched with.
func (c *MatchController) GetMatches(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	ids, err := c.Relationships.MatchedUserIDs(r.Context(), userID)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}

	matches := make([]models.ProfileSummary, 0, len(ids))
	for _, id := range ids {
		profile, err := c.Profiles.Get(r.Context(), id)
		if err != nil {
			c.Logger.Warn("skipping unloadable match profile", zap.String("matchId", id), zap.Error(err))
			continue
		}
		matches = append(matches, profile.Summary())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}
