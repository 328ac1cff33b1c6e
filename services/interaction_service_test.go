package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vela_server/models"
)

func newTestInteractionService(rels *fakeRelationshipStore, store *fakeEphemeralStore, sink *fakeSink, allowance int) *InteractionService {
	logger := testLogger()
	return &InteractionService{
		Relationships: rels,
		Quota:         &QuotaService{Store: store, Allowance: allowance, Logger: logger},
		Notifier:      &NotificationService{Sink: sink, Retries: 1, Logger: logger},
		Logger:        logger,
		StoreTimeout:  time.Second,
	}
}

func TestLikeRecordsEdgeAndConsumesQuota(t *testing.T) {
	rels := newFakeRelationshipStore()
	svc := newTestInteractionService(rels, newFakeEphemeralStore(), &fakeSink{}, 20)

	outcome, err := svc.Like(context.Background(), "alice", "bob", false)
	require.NoError(t, err)
	assert.False(t, outcome.Matched)
	assert.Equal(t, 19, outcome.Remaining)

	exists, err := rels.EdgeExists(context.Background(), models.EdgeKindLikes, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLikeQuotaExhausted(t *testing.T) {
	svc := newTestInteractionService(newFakeRelationshipStore(), newFakeEphemeralStore(), &fakeSink{}, 1)

	_, err := svc.Like(context.Background(), "alice", "bob", false)
	require.NoError(t, err)

	_, err = svc.Like(context.Background(), "alice", "carol", false)
	assert.ErrorIs(t, err, models.ErrQuotaExceeded)
}

func TestConcurrentLikesNeverOverspendQuota(t *testing.T) {
	svc := newTestInteractionService(newFakeRelationshipStore(), newFakeEphemeralStore(), &fakeSink{}, 1)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Like(context.Background(), "alice", "bob", false)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, models.ErrQuotaExceeded)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestSuperlikeBypassesQuotaAndNotifiesTarget(t *testing.T) {
	sink := &fakeSink{}
	svc := newTestInteractionService(newFakeRelationshipStore(), newFakeEphemeralStore(), sink, 0)

	outcome, err := svc.Like(context.Background(), "alice", "bob", true)
	require.NoError(t, err)
	assert.Equal(t, -1, outcome.Remaining)
	assert.Equal(t, []string{"bob<-alice"}, sink.superlikes)
}

func TestLikeRefundsQuotaOnEdgeWriteFailure(t *testing.T) {
	rels := newFakeRelationshipStore()
	rels.upsertErr = errors.New("dynamo unavailable")
	store := newFakeEphemeralStore()
	svc := newTestInteractionService(rels, store, &fakeSink{}, 5)

	_, err := svc.Like(context.Background(), "alice", "bob", false)
	require.Error(t, err)

	// The failed attempt must not have cost a unit.
	rels.upsertErr = nil
	outcome, err := svc.Like(context.Background(), "alice", "bob", false)
	require.NoError(t, err)
	assert.Equal(t, 4, outcome.Remaining)
}

func TestMutualLikeCreatesMatchExactlyOnce(t *testing.T) {
	rels := newFakeRelationshipStore()
	sink := &fakeSink{}
	svc := newTestInteractionService(rels, newFakeEphemeralStore(), sink, 20)

	outcome, err := svc.Like(context.Background(), "alice", "bob", false)
	require.NoError(t, err)
	assert.False(t, outcome.Matched)

	outcome, err = svc.Like(context.Background(), "bob", "alice", false)
	require.NoError(t, err)
	assert.True(t, outcome.Matched)

	// Both users got exactly one match notification.
	assert.ElementsMatch(t, []string{"bob<-alice", "alice<-bob"}, sink.matches)

	// Re-liking reports the match but does not notify again.
	outcome, err = svc.Like(context.Background(), "bob", "alice", false)
	require.NoError(t, err)
	assert.True(t, outcome.Matched)
	assert.Equal(t, 2, sink.matchCount())

	ids, err := rels.MatchedUserIDs(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids)
}

func TestConcurrentMutualLikesNotifyOnce(t *testing.T) {
	rels := newFakeRelationshipStore()
	sink := &fakeSink{}
	svc := newTestInteractionService(rels, newFakeEphemeralStore(), sink, 20)

	// Seed both reverse edges so each direction sees a mutual like.
	require.NoError(t, rels.UpsertEdge(context.Background(), &models.InteractionEdge{
		SourceID: "alice", TargetID: "bob", Kind: models.EdgeKindLikes,
	}))
	require.NoError(t, rels.UpsertEdge(context.Background(), &models.InteractionEdge{
		SourceID: "bob", TargetID: "alice", Kind: models.EdgeKindLikes,
	}))

	var wg sync.WaitGroup
	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		wg.Add(1)
		go func(source, target string) {
			defer wg.Done()
			_, err := svc.Like(context.Background(), source, target, false)
			assert.NoError(t, err)
		}(pair[0], pair[1])
	}
	wg.Wait()

	assert.Equal(t, 2, sink.matchCount())
}

func TestPassDoesNotTouchQuotaOrMatches(t *testing.T) {
	rels := newFakeRelationshipStore()
	store := newFakeEphemeralStore()
	svc := newTestInteractionService(rels, store, &fakeSink{}, 1)

	require.NoError(t, svc.Pass(context.Background(), "alice", "bob"))

	exists, err := rels.EdgeExists(context.Background(), models.EdgeKindPasses, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, exists)

	// Quota untouched: a full-price like still succeeds.
	_, err = svc.Like(context.Background(), "alice", "carol", false)
	assert.NoError(t, err)
}

func TestSelfInteractionRejected(t *testing.T) {
	svc := newTestInteractionService(newFakeRelationshipStore(), newFakeEphemeralStore(), &fakeSink{}, 20)

	_, err := svc.Like(context.Background(), "alice", "alice", false)
	assert.ErrorIs(t, err, models.ErrValidation)

	err = svc.Block(context.Background(), "alice", "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestNotificationRetriesThenDelivers(t *testing.T) {
	sink := &fakeSink{failures: 1}
	svc := newTestInteractionService(newFakeRelationshipStore(), newFakeEphemeralStore(), sink, 20)

	_, err := svc.Like(context.Background(), "alice", "bob", true)
	require.NoError(t, err)
	assert.Len(t, sink.superlikes, 1)
}
