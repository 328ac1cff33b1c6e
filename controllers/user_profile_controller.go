package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"vela_server/models"
	"vela_server/services"
)

// UserProfileController handles requests related to user profiles.
type UserProfileController struct {
	Profiles services.ProfileStore
	Logger   *zap.Logger
}

func NewUserProfileController(profiles services.ProfileStore, logger *zap.Logger) *UserProfileController {
	return &UserProfileController{Profiles: profiles, Logger: logger}
}

// SaveUserProfile creates or replaces a profile.
func (c *UserProfileController) SaveUserProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if profile.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	if err := c.Profiles.Save(r.Context(), &profile); err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile saved",
		"profile": profile,
	})
}

// UpdatePreferences replaces the candidate filters on an existing profile.
func (c *UserProfileController) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	var prefs models.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := c.Profiles.UpdatePreferences(r.Context(), userID, prefs); err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Preferences updated"})
}

// DeleteUserProfile removes a profile.
func (c *UserProfileController) DeleteUserProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	if err := c.Profiles.Delete(r.Context(), userID); err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile deleted"})
}

// GetUserProfileByID fetches a profile by its id.
func (c *UserProfileController) GetUserProfileByID(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	profile, err := c.Profiles.Get(r.Context(), userID)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
