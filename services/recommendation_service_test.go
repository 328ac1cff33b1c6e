package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vela_server/models"
)

func lead(userID string, distance float64, shared ...string) models.CandidateLead {
	return models.CandidateLead{
		Profile:         models.UserProfile{UserID: userID, Name: userID},
		DistanceKm:      distance,
		SharedInterests: shared,
	}
}

func newTestRecommendationService(rels *fakeRelationshipStore, store *fakeEphemeralStore, scorer CompatibilityScorer) *RecommendationService {
	return &RecommendationService{
		Profiles:          newFakeProfileStore(&models.UserProfile{UserID: "alice", Name: "Alice"}),
		Relationships:     rels,
		Scorer:            scorer,
		Cache:             store,
		Logger:            testLogger(),
		CandidateLimit:    50,
		ScorerConcurrency: 4,
		QueueTTL:          time.Hour,
		StoreTimeout:      time.Second,
	}
}

func TestGenerateOrdersByScoreDistanceThenID(t *testing.T) {
	rels := newFakeRelationshipStore()
	rels.candidates = []models.CandidateLead{
		lead("bob", 5),
		lead("carol", 2),
		lead("dave", 2),
		lead("erin", 9),
	}
	scorer := newFakeScorer()
	scorer.scores["bob"] = 80
	scorer.scores["carol"] = 90
	scorer.scores["dave"] = 90 // ties carol on score and distance, id breaks it
	scorer.scores["erin"] = 90

	svc := newTestRecommendationService(rels, newFakeEphemeralStore(), scorer)

	queue, err := svc.Generate(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, queue.Candidates, 4)

	got := make([]string, 0, 4)
	for _, c := range queue.Candidates {
		got = append(got, c.Profile.UserID)
	}
	// Score desc, then distance asc, then id asc.
	assert.Equal(t, []string{"carol", "dave", "erin", "bob"}, got)
}

func TestGenerateIsolatesScorerFailures(t *testing.T) {
	rels := newFakeRelationshipStore()
	rels.candidates = []models.CandidateLead{
		lead("bob", 1),
		lead("carol", 2),
	}
	scorer := newFakeScorer()
	scorer.scores["carol"] = 90
	scorer.failFor["bob"] = true

	svc := newTestRecommendationService(rels, newFakeEphemeralStore(), scorer)

	queue, err := svc.Generate(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, queue.Candidates, 2)

	assert.Equal(t, "carol", queue.Candidates[0].Profile.UserID)
	assert.Equal(t, 90, queue.Candidates[0].CompatibilityScore)

	// The failed candidate carries the deterministic fallback, not an error.
	fallback := queue.Candidates[1]
	assert.Equal(t, "bob", fallback.Profile.UserID)
	assert.Equal(t, DefaultCompatibility().Score, fallback.CompatibilityScore)
	assert.Equal(t, DefaultOpeners(), fallback.ConversationOpeners)
}

func TestNextConsumesQueueHeadAtomically(t *testing.T) {
	rels := newFakeRelationshipStore()
	rels.candidates = []models.CandidateLead{
		lead("bob", 1),
		lead("carol", 2),
	}
	scorer := newFakeScorer()
	scorer.scores["bob"] = 90
	scorer.scores["carol"] = 80

	store := newFakeEphemeralStore()
	svc := newTestRecommendationService(rels, store, scorer)

	first, err := svc.Next(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob", first.Profile.UserID)

	second, err := svc.Next(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "carol", second.Profile.UserID)
}

func TestNextRegeneratesWhenCacheEmpty(t *testing.T) {
	rels := newFakeRelationshipStore()
	rels.candidates = []models.CandidateLead{lead("bob", 1)}
	store := newFakeEphemeralStore()
	svc := newTestRecommendationService(rels, store, newFakeScorer())

	// First call builds the queue, consumes bob. Candidate pool replenishes
	// (pass-style resurfacing), so the next call regenerates and serves again.
	candidate, err := svc.Next(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob", candidate.Profile.UserID)

	candidate, err = svc.Next(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob", candidate.Profile.UserID)
}

func TestNextReportsExhaustedPool(t *testing.T) {
	rels := newFakeRelationshipStore() // no candidates at all
	svc := newTestRecommendationService(rels, newFakeEphemeralStore(), newFakeScorer())

	_, err := svc.Next(context.Background(), "alice")
	assert.ErrorIs(t, err, models.ErrNoMoreCandidates)
}

func TestNextSkipsCorruptCacheEntry(t *testing.T) {
	rels := newFakeRelationshipStore()
	rels.candidates = []models.CandidateLead{lead("bob", 1)}
	store := newFakeEphemeralStore()
	require.NoError(t, store.ReplaceList(context.Background(), queueKey("alice"), []string{"{not json"}, time.Hour))

	svc := newTestRecommendationService(rels, store, newFakeScorer())

	// The corrupt head is dropped and the queue regenerated from durable
	// state.
	candidate, err := svc.Next(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob", candidate.Profile.UserID)
}

func TestInvalidateDropsCachedQueue(t *testing.T) {
	rels := newFakeRelationshipStore()
	rels.candidates = []models.CandidateLead{lead("bob", 1)}
	store := newFakeEphemeralStore()
	svc := newTestRecommendationService(rels, store, newFakeScorer())

	_, err := svc.Generate(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, 1, store.listLen(queueKey("alice")))

	require.NoError(t, svc.Invalidate(context.Background(), "alice"))
	assert.Equal(t, 0, store.listLen(queueKey("alice")))
}

func TestGenerateUnknownUser(t *testing.T) {
	svc := newTestRecommendationService(newFakeRelationshipStore(), newFakeEphemeralStore(), newFakeScorer())

	_, err := svc.Generate(context.Background(), "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
