package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// InboundMessage is the message part of a message event.
type InboundMessage struct {
	Type     string `json:"type"` // "text" or "image"
	Text     string `json:"text,omitempty"`
	ImageRef string `json:"imageRef,omitempty"` // platform reference to the uploaded image
}

// PostbackPayload is the versioned, explicitly typed action payload carried
// by postback events. Version must match PostbackSchemaVersion.
type PostbackPayload struct {
	V            int          `json:"v"`
	Action       string       `json:"action"`
	TargetUserID string       `json:"targetUserId,omitempty"` // like/superlike/pass/block
	Interests    []string     `json:"interests,omitempty"`
	Preferences  *Preferences `json:"preferences,omitempty"`
}

// ParsePostbackPayload decodes and validates a raw postback payload.
func ParsePostbackPayload(raw []byte) (*PostbackPayload, error) {
	var p PostbackPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: malformed postback payload: %v", ErrValidation, err)
	}
	if p.V != PostbackSchemaVersion {
		return nil, fmt.Errorf("%w: unsupported postback version %d", ErrValidation, p.V)
	}
	if strings.TrimSpace(p.Action) == "" {
		return nil, fmt.Errorf("%w: postback action is required", ErrValidation)
	}
	switch p.Action {
	case ActionLike, ActionSuperlike, ActionPass, ActionBlock, ActionStartChat:
		if strings.TrimSpace(p.TargetUserID) == "" {
			return nil, fmt.Errorf("%w: action %q requires a targetUserId", ErrValidation, p.Action)
		}
	}
	return &p, nil
}

// InboundEvent is one chat event delivered by the messaging platform.
type InboundEvent struct {
	Kind         string          `json:"kind"` // "message" or "postback"
	SourceUserID string          `json:"sourceUserId"`
	ReplyToken   string          `json:"replyToken"`
	Message      *InboundMessage `json:"message,omitempty"`
	Postback     json.RawMessage `json:"postback,omitempty"`
}

// Validate checks the event shape before it reaches the state machine.
func (e *InboundEvent) Validate() error {
	if strings.TrimSpace(e.SourceUserID) == "" {
		return fmt.Errorf("%w: sourceUserId is required", ErrValidation)
	}
	switch e.Kind {
	case EventKindMessage:
		if e.Message == nil {
			return fmt.Errorf("%w: message event without message body", ErrValidation)
		}
	case EventKindPostback:
		if len(e.Postback) == 0 {
			return fmt.Errorf("%w: postback event without payload", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown event kind %q", ErrValidation, e.Kind)
	}
	return nil
}

// ActionTarget is one button on a candidate card.
type ActionTarget struct {
	Action       string `json:"action"`
	TargetUserID string `json:"targetUserId"`
}

// CandidateCard is the outbound view of one recommendation.
type CandidateCard struct {
	Profile             ProfileSummary `json:"profile"`
	DistanceKm          float64        `json:"distanceKm"`
	CompatibilityScore  int            `json:"compatibilityScore"`
	SharedInterests     []string       `json:"sharedInterests,omitempty"`     // up to 3
	ConversationOpeners []string       `json:"conversationOpeners,omitempty"` // up to 2
	Actions             []ActionTarget `json:"actions"`
}

// Response is the payload sent back through the messaging platform for one
// handled event. Exactly one of the optional sections is typically set.
type Response struct {
	ReplyToken string           `json:"replyToken,omitempty"`
	Text       string           `json:"text,omitempty"`
	Card       *CandidateCard   `json:"card,omitempty"`
	Matches    []ProfileSummary `json:"matches,omitempty"`
	Matched    bool             `json:"matched,omitempty"`
	NoMore     bool             `json:"noMoreCandidates,omitempty"`
}
