package models

// CandidateLead is what the relationship store returns for an eligible
// candidate before scoring: the profile plus the shared-attribute data.
type CandidateLead struct {
	Profile           UserProfile `json:"profile"`
	DistanceKm        float64     `json:"distanceKm"`
	SharedInterests   []string    `json:"sharedInterests"`
	SharedCommunities []string    `json:"sharedCommunities"`
}

// RecommendationCandidate is the scored, display-ready view of a candidate.
// It lives only inside a cached RecommendationQueue.
type RecommendationCandidate struct {
	Profile             ProfileSummary `json:"profile"`
	DistanceKm          float64        `json:"distanceKm"`
	SharedInterests     []string       `json:"sharedInterests,omitempty"`
	SharedCommunities   []string       `json:"sharedCommunities,omitempty"`
	CompatibilityScore  int            `json:"compatibilityScore"`
	CompatibilityReason []string       `json:"compatibilityReasons,omitempty"`
	ConversationOpeners []string       `json:"conversationOpeners,omitempty"`
}

// RecommendationQueue is the per-user pre-ranked candidate sequence cached in
// the ephemeral store. It is rebuilt idempotently from durable state and is
// never the source of truth.
type RecommendationQueue struct {
	UserID     string                    `json:"userId"`
	Candidates []RecommendationCandidate `json:"candidates"`
}

// CompatibilityResult is the scorer output for one (user, candidate) pair.
type CompatibilityResult struct {
	Score   int      `json:"score"` // 0-100
	Reasons []string `json:"reasons,omitempty"`
}
