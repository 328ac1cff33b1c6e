package services

import (
	"context"
	"time"

	"vela_server/models"
)

// ProfileStore is the durable profile store consumed by the engine.
type ProfileStore interface {
	Exists(ctx context.Context, userID string) (bool, error)
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	Save(ctx context.Context, profile *models.UserProfile) error
	// UpdatePreferences changes only the candidate filters, leaving the rest
	// of the profile untouched.
	UpdatePreferences(ctx context.Context, userID string, prefs models.Preferences) error
	Delete(ctx context.Context, userID string) error
}

// RelationshipStore owns interaction edges, match records and candidate
// discovery over the relationship graph.
type RelationshipStore interface {
	// FindCandidates returns eligible candidates for the user: not the user
	// themselves, not linked by LIKES/BLOCKS/MATCHES in either direction,
	// within the age and distance filters, pre-sorted by shared-interest
	// count descending then distance ascending and capped at limit.
	FindCandidates(ctx context.Context, user *models.UserProfile, limit int) ([]models.CandidateLead, error)
	// UpsertEdge records an edge, replacing any prior edge of the same kind
	// for the same ordered pair.
	UpsertEdge(ctx context.Context, edge *models.InteractionEdge) error
	EdgeExists(ctx context.Context, kind, sourceID, targetID string) (bool, error)
	// CreateMutualMatch creates the match record plus both MATCHES edges.
	// It is idempotent per unordered pair; created reports whether this call
	// won the creation.
	CreateMutualMatch(ctx context.Context, a, b string) (created bool, err error)
	// MatchedUserIDs lists the users the given user holds a MATCHES edge to.
	MatchedUserIDs(ctx context.Context, userID string) ([]string, error)
}

// EphemeralStore is the TTL-bound shared cache backing conversation state,
// recommendation queues and quota counters. Implementations must be safe for
// concurrent use from multiple service instances.
type EphemeralStore interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	// CompareAndSwapJSON writes value only if the stored document's version
	// field equals expectedVersion (0 for an absent key). A lost update
	// surfaces as models.ErrStateConflict.
	CompareAndSwapJSON(ctx context.Context, key string, value any, expectedVersion int64, ttl time.Duration) error
	// ReplaceList atomically replaces the list at key with items.
	ReplaceList(ctx context.Context, key string, items []string, ttl time.Duration) error
	// PopHead removes and returns the head of the list at key.
	PopHead(ctx context.Context, key string) (string, bool, error)
	// DecrementWithFloor atomically decrements the counter at key, seeding an
	// absent key with initial. ok is false when the counter is already at the
	// floor of zero, in which case nothing is written.
	DecrementWithFloor(ctx context.Context, key string, initial int, ttl time.Duration) (remaining int, ok bool, err error)
	// IncrementIfExists re-credits a still-live counter. Expired counters are
	// left alone.
	IncrementIfExists(ctx context.Context, key string, delta int) error
	Delete(ctx context.Context, key string) error
}

// CompatibilityScorer scores a (user, candidate) pair and suggests openers.
// Callers substitute the deterministic fallback on any error.
type CompatibilityScorer interface {
	Score(ctx context.Context, user *models.UserProfile, lead *models.CandidateLead) (*models.CompatibilityResult, error)
	SuggestOpeners(ctx context.Context, user *models.UserProfile, lead *models.CandidateLead) ([]string, error)
}

// NotificationSink delivers fire-and-forget notifications to users.
type NotificationSink interface {
	NotifyMatch(ctx context.Context, userID, otherUserID string) error
	NotifySuperlike(ctx context.Context, targetID, fromUserID string) error
}
