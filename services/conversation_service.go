package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"vela_server/models"
	"vela_server/utils"
)

// PhotoStore resolves a platform image reference into a durable photo URL.
type PhotoStore interface {
	ResolvePhotoRef(ctx context.Context, userID, imageRef string) (string, error)
}

const (
	requiredPhotos   = 3
	maxCardInterests = 3
	maxCardOpeners   = 2
)

// ConversationService is the per-user state machine routing each inbound
// event to the right behavior. Per-user serialization is enforced through a
// compare-and-set on the ephemeral state document: a lost update is detected
// as a version conflict and the event is retried against fresh state.
type ConversationService struct {
	Profiles        ProfileStore
	State           EphemeralStore
	Photos          PhotoStore
	Recommendations *RecommendationService
	Interactions    *InteractionService
	Logger          *zap.Logger

	StateTTL     time.Duration
	StoreTimeout time.Duration
}

func stateKey(userID string) string {
	return "conversation:" + userID
}

// HandleEvent processes one inbound event and returns the responses to send
// back. Errors from delegated calls are converted into a generic failure
// response here; persisted state is never left corrupted.
func (s *ConversationService) HandleEvent(ctx context.Context, event *models.InboundEvent) []models.Response {
	if err := event.Validate(); err != nil {
		s.Logger.Debug("rejected event", zap.Error(err))
		return []models.Response{{ReplyToken: event.ReplyToken, Text: "Sorry, I didn't understand that."}}
	}

	// One retry on a version conflict: the concurrent writer won, re-read
	// its state and apply this event on top.
	for attempt := 0; attempt < 2; attempt++ {
		responses, err := s.handleOnce(ctx, event)
		if err == nil {
			return responses
		}
		if errors.Is(err, models.ErrStateConflict) && attempt == 0 {
			continue
		}
		return s.failureResponses(event, err)
	}
	return s.failureResponses(event, models.ErrStateConflict)
}

func (s *ConversationService) handleOnce(ctx context.Context, event *models.InboundEvent) ([]models.Response, error) {
	state, err := s.loadState(ctx, event.SourceUserID)
	if err != nil {
		return nil, err
	}

	var responses []models.Response
	switch state.Flow {
	case models.FlowOnboarding:
		responses, err = s.handleOnboarding(ctx, event, state)
	case models.FlowBrowsing:
		responses, err = s.handleBrowsing(ctx, event, state)
	case models.FlowMatching:
		responses, err = s.handleMatching(ctx, event, state)
	case models.FlowChatting:
		responses, err = s.handleChatting(ctx, event, state)
	case models.FlowSettings:
		responses, err = s.handleSettings(ctx, event, state)
	case models.FlowMainMenu:
		responses, err = s.handleMainMenu(ctx, event, state)
	default:
		// Unknown flow values from older cached state fall back to the menu.
		state.Flow = models.FlowMainMenu
		responses, err = s.handleMainMenu(ctx, event, state)
	}
	if err != nil {
		return nil, err
	}

	// Every transition persists the (possibly unchanged) state with a
	// refreshed TTL.
	if err := s.saveState(ctx, state); err != nil {
		return nil, err
	}
	return responses, nil
}

func (s *ConversationService) loadState(ctx context.Context, userID string) (*models.ConversationState, error) {
	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	var state models.ConversationState
	found, err := s.State.GetJSON(ctx, stateKey(userID), &state)
	if err != nil {
		return nil, err
	}
	if found {
		return &state, nil
	}

	exists, err := s.Profiles.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.NewConversationState(userID, exists), nil
}

func (s *ConversationService) saveState(ctx context.Context, state *models.ConversationState) error {
	expected := state.Version
	state.Version++

	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()
	return s.State.CompareAndSwapJSON(ctx, stateKey(state.UserID), state, expected, s.StateTTL)
}

// Reset drops the cached conversation state so the next event reseeds it
// from the durable profile.
func (s *ConversationService) Reset(ctx context.Context, userID string) error {
	return s.State.Delete(ctx, stateKey(userID))
}

// --- onboarding -----------------------------------------------------------

func (s *ConversationService) handleOnboarding(ctx context.Context, event *models.InboundEvent, state *models.ConversationState) ([]models.Response, error) {
	switch state.Step {
	case models.StepWelcome:
		state.Step++
		return []models.Response{{
			ReplyToken: event.ReplyToken,
			Text:       "Welcome to Vela! Let's set up your profile. Tell me about yourself: name, age, and a short bio.",
		}}, nil

	case models.StepProfile:
		if event.Kind != models.EventKindMessage || event.Message.Type != models.MessageTypeText {
			// Unexpected input mid-step: keep the state and re-prompt with a
			// short hint instead of staying silent.
			return s.repromptResponses(event, "Please send a short text introduction: name, age, and a bio."), nil
		}
		profile := parseProfileInput(event.SourceUserID, event.Message.Text)
		state.Data.Profile = profile
		state.Step++
		return []models.Response{{
			ReplyToken: event.ReplyToken,
			Text:       fmt.Sprintf("Nice to meet you, %s! Now send me 3 photos of yourself.", profile.Name),
		}}, nil

	case models.StepPhotos:
		if event.Kind != models.EventKindMessage || event.Message.Type != models.MessageTypeImage {
			return s.repromptResponses(event, fmt.Sprintf("Please send a photo (%d of %d).", len(state.Data.Photos)+1, requiredPhotos)), nil
		}
		photoURL, err := s.resolvePhoto(ctx, event.SourceUserID, event.Message.ImageRef)
		if err != nil {
			return nil, err
		}
		state.Data.Photos = append(state.Data.Photos, photoURL)
		if len(state.Data.Photos) < requiredPhotos {
			return []models.Response{{
				ReplyToken: event.ReplyToken,
				Text:       fmt.Sprintf("Looking good! %d more photo(s) to go.", requiredPhotos-len(state.Data.Photos)),
			}}, nil
		}
		state.Step++
		return []models.Response{{
			ReplyToken: event.ReplyToken,
			Text:       "Great photos! Next, pick a few interests.",
		}}, nil

	case models.StepInterests:
		payload, ok := s.postbackPayload(event)
		if !ok || len(payload.Interests) == 0 {
			return s.repromptResponses(event, "Please pick your interests from the list."), nil
		}
		state.Data.Interests = payload.Interests
		state.Step++
		return []models.Response{{
			ReplyToken: event.ReplyToken,
			Text:       "Almost done! Set your match preferences: age range and maximum distance.",
		}}, nil

	case models.StepPreferences:
		payload, ok := s.postbackPayload(event)
		if !ok || payload.Preferences == nil {
			return s.repromptResponses(event, "Please set your preferences from the form."), nil
		}
		state.Data.Preferences = payload.Preferences
		if err := s.completeOnboarding(ctx, event.SourceUserID, state); err != nil {
			return nil, err
		}
		state.Flow = models.FlowBrowsing
		state.Step = 0
		state.Data = models.OnboardingData{}
		return []models.Response{{
			ReplyToken: event.ReplyToken,
			Text:       "Your profile is live! Let's find you some matches.",
		}}, nil
	}

	// Step out of range: restart onboarding from the top.
	state.Step = models.StepWelcome
	return s.handleOnboarding(ctx, event, state)
}

func (s *ConversationService) completeOnboarding(ctx context.Context, userID string, state *models.ConversationState) error {
	profile := state.Data.Profile
	if profile == nil {
		profile = &models.UserProfile{UserID: userID}
	}
	profile.UserID = userID
	profile.Photos = state.Data.Photos
	profile.Interests = state.Data.Interests
	if state.Data.Preferences != nil {
		profile.Preferences = *state.Data.Preferences
	}

	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()
	return s.Profiles.Save(ctx, profile)
}

// parseProfileInput turns the free-text introduction into structured fields.
// Expected shape is "name, age, bio..."; missing pieces degrade gracefully.
func parseProfileInput(userID, text string) *models.UserProfile {
	profile := &models.UserProfile{UserID: userID}

	parts := strings.SplitN(text, ",", 3)
	if len(parts) > 0 {
		profile.Name = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 {
		if age, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			profile.Age = age
		}
	}
	if len(parts) > 2 {
		profile.Bio = strings.TrimSpace(parts[2])
	}
	if profile.Name == "" {
		profile.Name = strings.TrimSpace(text)
	}
	return profile
}

// --- browsing -------------------------------------------------------------

func (s *ConversationService) handleBrowsing(ctx context.Context, event *models.InboundEvent, state *models.ConversationState) ([]models.Response, error) {
	var responses []models.Response

	if payload, ok := s.postbackPayload(event); ok {
		actionResponses, err := s.handleBrowsingAction(ctx, event, state, payload)
		if err != nil {
			return nil, err
		}
		responses = append(responses, actionResponses...)
	}

	// Every browsing invocation also shows the next candidate.
	next, err := s.nextCandidateResponse(ctx, event)
	if err != nil {
		return nil, err
	}
	responses = append(responses, *next)
	return responses, nil
}

func (s *ConversationService) handleBrowsingAction(ctx context.Context, event *models.InboundEvent, state *models.ConversationState, payload *models.PostbackPayload) ([]models.Response, error) {
	userID := event.SourceUserID

	switch payload.Action {
	case models.ActionLike, models.ActionSuperlike:
		outcome, err := s.Interactions.Like(ctx, userID, payload.TargetUserID, payload.Action == models.ActionSuperlike)
		if errors.Is(err, models.ErrQuotaExceeded) {
			return []models.Response{{
				ReplyToken: event.ReplyToken,
				Text:       "You've used all your likes for today. Superlikes still work, or come back tomorrow!",
			}}, nil
		}
		if err != nil {
			return nil, err
		}
		if outcome.Matched {
			return []models.Response{{
				ReplyToken: event.ReplyToken,
				Text:       "It's a match! Say hi!",
				Matched:    true,
			}}, nil
		}
		return nil, nil

	case models.ActionPass:
		return nil, s.Interactions.Pass(ctx, userID, payload.TargetUserID)

	case models.ActionBlock:
		return nil, s.Interactions.Block(ctx, userID, payload.TargetUserID)

	case models.ActionViewMatches:
		state.Flow = models.FlowMatching
		matches, err := s.matchesResponse(ctx, event)
		if err != nil {
			return nil, err
		}
		return []models.Response{*matches}, nil

	case models.ActionSettings:
		state.Flow = models.FlowSettings
		settings, err := s.settingsResponse(ctx, event)
		if err != nil {
			return nil, err
		}
		return []models.Response{*settings}, nil
	}

	return nil, fmt.Errorf("%w: unsupported browsing action %q", models.ErrValidation, payload.Action)
}

func (s *ConversationService) nextCandidateResponse(ctx context.Context, event *models.InboundEvent) (*models.Response, error) {
	candidate, err := s.Recommendations.Next(ctx, event.SourceUserID)
	if errors.Is(err, models.ErrNoMoreCandidates) {
		return &models.Response{
			ReplyToken: event.ReplyToken,
			Text:       "No more candidates nearby for now. Check back later!",
			NoMore:     true,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	return &models.Response{
		ReplyToken: event.ReplyToken,
		Card:       buildCandidateCard(candidate),
	}, nil
}

// buildCandidateCard shapes the outbound card: profile summary, distance,
// score, up to 3 shared interests, up to 2 openers, and the three action
// targets carrying the candidate's identifier.
func buildCandidateCard(candidate *models.RecommendationCandidate) *models.CandidateCard {
	targetID := candidate.Profile.UserID
	return &models.CandidateCard{
		Profile:             candidate.Profile,
		DistanceKm:          candidate.DistanceKm,
		CompatibilityScore:  candidate.CompatibilityScore,
		SharedInterests:     utils.Head(candidate.SharedInterests, maxCardInterests),
		ConversationOpeners: utils.Head(candidate.ConversationOpeners, maxCardOpeners),
		Actions: []models.ActionTarget{
			{Action: models.ActionPass, TargetUserID: targetID},
			{Action: models.ActionLike, TargetUserID: targetID},
			{Action: models.ActionSuperlike, TargetUserID: targetID},
		},
	}
}

// --- matching / chatting / settings --------------------------------------

func (s *ConversationService) handleMatching(ctx context.Context, event *models.InboundEvent, state *models.ConversationState) ([]models.Response, error) {
	if payload, ok := s.postbackPayload(event); ok {
		switch payload.Action {
		case models.ActionStartChat:
			state.Flow = models.FlowChatting
			return []models.Response{{
				ReplyToken: event.ReplyToken,
				Text:       "Chat opened. Your messages go straight to your match.",
			}}, nil
		case models.ActionSettings:
			state.Flow = models.FlowSettings
			settings, err := s.settingsResponse(ctx, event)
			if err != nil {
				return nil, err
			}
			return []models.Response{*settings}, nil
		}
	}

	matches, err := s.matchesResponse(ctx, event)
	if err != nil {
		return nil, err
	}
	return []models.Response{*matches}, nil
}

func (s *ConversationService) handleChatting(ctx context.Context, event *models.InboundEvent, state *models.ConversationState) ([]models.Response, error) {
	if payload, ok := s.postbackPayload(event); ok && payload.Action == models.ActionViewMatches {
		state.Flow = models.FlowMatching
		matches, err := s.matchesResponse(ctx, event)
		if err != nil {
			return nil, err
		}
		return []models.Response{*matches}, nil
	}

	// Message relay belongs to the messaging platform; this flow only keeps
	// the user parked in the chat context.
	return []models.Response{{
		ReplyToken: event.ReplyToken,
		Text:       "Your message is on its way.",
	}}, nil
}

func (s *ConversationService) handleSettings(ctx context.Context, event *models.InboundEvent, state *models.ConversationState) ([]models.Response, error) {
	if payload, ok := s.postbackPayload(event); ok && payload.Preferences != nil {
		if err := s.Profiles.UpdatePreferences(ctx, event.SourceUserID, *payload.Preferences); err != nil {
			return nil, err
		}
		// Preference changes invalidate the cached queue.
		if err := s.Recommendations.Invalidate(ctx, event.SourceUserID); err != nil {
			s.Logger.Warn("queue invalidation failed", zap.String("userId", event.SourceUserID), zap.Error(err))
		}
		state.Flow = models.FlowBrowsing
		return []models.Response{{
			ReplyToken: event.ReplyToken,
			Text:       "Preferences updated. Back to browsing!",
		}}, nil
	}

	settings, err := s.settingsResponse(ctx, event)
	if err != nil {
		return nil, err
	}
	return []models.Response{*settings}, nil
}

func (s *ConversationService) handleMainMenu(ctx context.Context, event *models.InboundEvent, state *models.ConversationState) ([]models.Response, error) {
	if payload, ok := s.postbackPayload(event); ok {
		switch payload.Action {
		case models.ActionViewMatches:
			state.Flow = models.FlowMatching
			matches, err := s.matchesResponse(ctx, event)
			if err != nil {
				return nil, err
			}
			return []models.Response{*matches}, nil
		case models.ActionSettings:
			state.Flow = models.FlowSettings
			settings, err := s.settingsResponse(ctx, event)
			if err != nil {
				return nil, err
			}
			return []models.Response{*settings}, nil
		}
	}

	// Any other input drops the user into browsing.
	state.Flow = models.FlowBrowsing
	return s.handleBrowsing(ctx, event, state)
}

func (s *ConversationService) matchesResponse(ctx context.Context, event *models.InboundEvent) (*models.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	ids, err := s.Interactions.Relationships.MatchedUserIDs(ctx, event.SourceUserID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ProfileSummary, 0, len(ids))
	for _, id := range ids {
		profile, err := s.Profiles.Get(ctx, id)
		if err != nil {
			// A deleted profile should not break the whole list.
			s.Logger.Warn("skipping unloadable match profile", zap.String("matchId", id), zap.Error(err))
			continue
		}
		summaries = append(summaries, profile.Summary())
	}

	if len(summaries) == 0 {
		return &models.Response{ReplyToken: event.ReplyToken, Text: "No matches yet. Keep browsing!"}, nil
	}
	return &models.Response{ReplyToken: event.ReplyToken, Matches: summaries}, nil
}

func (s *ConversationService) settingsResponse(ctx context.Context, event *models.InboundEvent) (*models.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	profile, err := s.Profiles.Get(ctx, event.SourceUserID)
	if err != nil {
		return nil, err
	}

	prefs := profile.Preferences
	return &models.Response{
		ReplyToken: event.ReplyToken,
		Text: fmt.Sprintf("Your settings - age range: %d-%d, max distance: %.0fkm. Send new preferences to update them.",
			prefs.MinAge, prefs.MaxAge, prefs.MaxDistanceKm),
	}, nil
}

// --- helpers --------------------------------------------------------------

func (s *ConversationService) resolvePhoto(ctx context.Context, userID, imageRef string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	url, err := s.Photos.ResolvePhotoRef(ctx, userID, imageRef)
	if err != nil {
		return "", models.NewExternalServiceError("photo-store", err)
	}
	return url, nil
}

// postbackPayload decodes the event's postback payload when present and
// well-formed. Malformed payloads are logged and treated as absent, which
// lands the user on the re-prompt path instead of a hard failure.
func (s *ConversationService) postbackPayload(event *models.InboundEvent) (*models.PostbackPayload, bool) {
	if event.Kind != models.EventKindPostback {
		return nil, false
	}
	payload, err := models.ParsePostbackPayload(event.Postback)
	if err != nil {
		s.Logger.Debug("dropping malformed postback", zap.String("userId", event.SourceUserID), zap.Error(err))
		return nil, false
	}
	return payload, true
}

func (s *ConversationService) repromptResponses(event *models.InboundEvent, hint string) []models.Response {
	return []models.Response{{ReplyToken: event.ReplyToken, Text: hint}}
}

func (s *ConversationService) failureResponses(event *models.InboundEvent, err error) []models.Response {
	switch {
	case errors.Is(err, models.ErrStateConflict):
		s.Logger.Warn("state conflict", zap.String("userId", event.SourceUserID))
		return []models.Response{{ReplyToken: event.ReplyToken, Text: "That came in twice - please try again."}}
	case errors.Is(err, models.ErrQuotaExceeded):
		return []models.Response{{ReplyToken: event.ReplyToken, Text: "You've used all your likes for today."}}
	default:
		s.Logger.Error("event handling failed",
			zap.String("userId", event.SourceUserID),
			zap.String("flow", "conversation"),
			zap.Error(err),
		)
		return []models.Response{{ReplyToken: event.ReplyToken, Text: "Something went wrong on our side. Please try again."}}
	}
}
