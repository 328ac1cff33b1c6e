package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"vela_server/models"
	"vela_server/utils"
)

// RecommendationService composes candidate discovery and compatibility
// scoring into a ranked, cached queue per user.
type RecommendationService struct {
	Profiles      ProfileStore
	Relationships RelationshipStore
	Scorer        CompatibilityScorer
	Cache         EphemeralStore
	Logger        *zap.Logger

	CandidateLimit    int
	ScorerConcurrency int
	QueueTTL          time.Duration
	StoreTimeout      time.Duration
}

func queueKey(userID string) string {
	return "recommendations:" + userID
}

// Generate rebuilds the user's recommendation queue from durable state and
// caches it. The scoring fan-out is bounded and failure-isolated: a scorer
// failure for one candidate substitutes the deterministic fallback for that
// candidate only.
func (s *RecommendationService) Generate(ctx context.Context, userID string) (*models.RecommendationQueue, error) {
	user, err := s.getProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	findCtx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	leads, err := s.Relationships.FindCandidates(findCtx, user, s.CandidateLimit)
	cancel()
	if err != nil {
		return nil, err
	}

	candidates := s.scoreAll(ctx, user, leads)

	// Final total order must be reproducible: score desc, then distance asc,
	// then candidate id asc.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CompatibilityScore != candidates[j].CompatibilityScore {
			return candidates[i].CompatibilityScore > candidates[j].CompatibilityScore
		}
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		return candidates[i].Profile.UserID < candidates[j].Profile.UserID
	})

	queue := &models.RecommendationQueue{UserID: userID, Candidates: candidates}
	if err := s.cacheQueue(ctx, queue); err != nil {
		return nil, err
	}

	s.Logger.Info("recommendation queue rebuilt",
		zap.String("userId", userID),
		zap.Int("candidates", len(candidates)),
	)
	return queue, nil
}

// Next pops the head of the cached queue, regenerating it once when the
// cache is empty or expired. An empty pool after regeneration is the
// terminal no-more-candidates signal, not an error to retry.
func (s *RecommendationService) Next(ctx context.Context, userID string) (*models.RecommendationCandidate, error) {
	candidate, ok, err := s.pop(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ok {
		return candidate, nil
	}

	if _, err := s.Generate(ctx, userID); err != nil {
		return nil, err
	}

	candidate, ok, err = s.pop(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrNoMoreCandidates
	}
	return candidate, nil
}

// Invalidate drops the cached queue so the next request rebuilds it.
func (s *RecommendationService) Invalidate(ctx context.Context, userID string) error {
	return s.Cache.Delete(ctx, queueKey(userID))
}

func (s *RecommendationService) getProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()
	return s.Profiles.Get(ctx, userID)
}

func (s *RecommendationService) scoreAll(ctx context.Context, user *models.UserProfile, leads []models.CandidateLead) []models.RecommendationCandidate {
	candidates := make([]models.RecommendationCandidate, len(leads))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.ScorerConcurrency)
	for i := range leads {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			candidates[i] = s.scoreOne(ctx, user, &leads[i])
		}(i)
	}
	wg.Wait()

	return candidates
}

func (s *RecommendationService) scoreOne(ctx context.Context, user *models.UserProfile, lead *models.CandidateLead) models.RecommendationCandidate {
	result, err := s.Scorer.Score(ctx, user, lead)
	if err != nil {
		s.Logger.Debug("scorer fallback",
			zap.String("candidateId", lead.Profile.UserID),
			zap.Error(err),
		)
		result = DefaultCompatibility()
	}

	openers, err := s.Scorer.SuggestOpeners(ctx, user, lead)
	if err != nil {
		openers = DefaultOpeners()
	}

	return models.RecommendationCandidate{
		Profile:             lead.Profile.Summary(),
		DistanceKm:          lead.DistanceKm,
		SharedInterests:     lead.SharedInterests,
		SharedCommunities:   lead.SharedCommunities,
		CompatibilityScore:  result.Score,
		CompatibilityReason: result.Reasons,
		ConversationOpeners: openers,
	}
}

func (s *RecommendationService) cacheQueue(ctx context.Context, queue *models.RecommendationQueue) error {
	items := make([]string, 0, len(queue.Candidates))
	for i := range queue.Candidates {
		raw, err := json.Marshal(&queue.Candidates[i])
		if err != nil {
			return fmt.Errorf("marshal candidate %s: %w", queue.Candidates[i].Profile.UserID, err)
		}
		items = append(items, string(raw))
	}

	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()
	return s.Cache.ReplaceList(ctx, queueKey(queue.UserID), items, s.QueueTTL)
}

func (s *RecommendationService) pop(ctx context.Context, userID string) (*models.RecommendationCandidate, bool, error) {
	popCtx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	raw, ok, err := s.Cache.PopHead(popCtx, queueKey(userID))
	cancel()
	if err != nil || !ok {
		return nil, false, err
	}

	var candidate models.RecommendationCandidate
	if err := json.Unmarshal([]byte(raw), &candidate); err != nil {
		s.Logger.Warn("corrupt cached candidate dropped",
			zap.String("userId", userID),
			zap.String("preview", utils.TruncateForLog(raw, maxPreviewLen)),
		)
		return nil, false, nil
	}
	return &candidate, true, nil
}
