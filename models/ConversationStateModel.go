package models

// Flow identifies which behavior handles the next inbound event for a user.
type Flow string

const (
	FlowOnboarding Flow = "ONBOARDING"
	FlowMainMenu   Flow = "MAIN_MENU"
	FlowBrowsing   Flow = "BROWSING"
	FlowMatching   Flow = "MATCHING"
	FlowChatting   Flow = "CHATTING"
	FlowSettings   Flow = "SETTINGS"
)

// Onboarding sub-steps, indexed by ConversationState.Step.
const (
	StepWelcome = iota
	StepProfile
	StepPhotos
	StepInterests
	StepPreferences
	StepComplete
)

// OnboardingData accumulates the pieces of a profile while the user walks
// through onboarding. It is merged into a UserProfile on completion.
type OnboardingData struct {
	Profile     *UserProfile `json:"profile,omitempty"`
	Photos      []string     `json:"photos,omitempty"`
	Interests   []string     `json:"interests,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// ConversationState is the ephemeral per-user flow position. It is mutated
// exclusively by the conversation service and persisted with a version so a
// stale read can never silently clobber a concurrent write.
type ConversationState struct {
	UserID  string         `json:"userId"`
	Flow    Flow           `json:"flow"`
	Step    int            `json:"step"`
	Data    OnboardingData `json:"data"`
	Version int64          `json:"version"`
}

// NewConversationState seeds the state for a user we have no cached state
// for: onboarding when no durable profile exists, main menu otherwise.
func NewConversationState(userID string, profileExists bool) *ConversationState {
	flow := FlowOnboarding
	if profileExists {
		flow = FlowMainMenu
	}
	return &ConversationState{UserID: userID, Flow: flow}
}
