package models

// Edge kinds for directed interaction edges between users
const (
	EdgeKindLikes   = "LIKES"
	EdgeKindPasses  = "PASSES"
	EdgeKindBlocks  = "BLOCKS"
	EdgeKindMatches = "MATCHES"
)

// Postback actions carried by browsing cards and menus
const (
	ActionLike        = "like"
	ActionSuperlike   = "superlike"
	ActionPass        = "pass"
	ActionBlock       = "block"
	ActionViewMatches = "viewMatches"
	ActionSettings    = "settings"
	ActionStartChat   = "startChat"

	// Onboarding form submissions
	ActionSubmitInterests   = "submitInterests"
	ActionSubmitPreferences = "submitPreferences"
)

// Inbound event kinds
const (
	EventKindMessage  = "message"
	EventKindPostback = "postback"
)

// Message types inside a message event
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
)

// PostbackSchemaVersion is the current version of the typed postback payload.
// Clients sending an older (or missing) version are rejected as malformed.
const PostbackSchemaVersion = 1
