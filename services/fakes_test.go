package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"vela_server/models"
)

// fakeProfileStore is an in-memory ProfileStore.
type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
	saveErr  error
}

func newFakeProfileStore(profiles ...*models.UserProfile) *fakeProfileStore {
	s := &fakeProfileStore{profiles: make(map[string]*models.UserProfile)}
	for _, p := range profiles {
		s.profiles[p.UserID] = p
	}
	return s
}

func (s *fakeProfileStore) Exists(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.profiles[userID]
	return ok, nil
}

func (s *fakeProfileStore) Get(_ context.Context, userID string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("%w: profile %s", models.ErrNotFound, userID)
	}
	copied := *p
	return &copied, nil
}

func (s *fakeProfileStore) Save(_ context.Context, profile *models.UserProfile) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *profile
	s.profiles[profile.UserID] = &copied
	return nil
}

func (s *fakeProfileStore) UpdatePreferences(_ context.Context, userID string, prefs models.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return fmt.Errorf("%w: profile %s", models.ErrNotFound, userID)
	}
	p.Preferences = prefs
	return nil
}

func (s *fakeProfileStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
	return nil
}

// fakeRelationshipStore keeps edges and matches in memory with the same
// once-per-pair match semantics as the DynamoDB conditional write.
type fakeRelationshipStore struct {
	mu         sync.Mutex
	edges      map[string]models.InteractionEdge // sourceId|edgeKey
	matches    map[string]bool                   // canonical pairId
	candidates []models.CandidateLead

	upsertErr error
	matchErr  error
}

func newFakeRelationshipStore() *fakeRelationshipStore {
	return &fakeRelationshipStore{
		edges:   make(map[string]models.InteractionEdge),
		matches: make(map[string]bool),
	}
}

func (s *fakeRelationshipStore) edgeID(sourceID, edgeKey string) string {
	return sourceID + "|" + edgeKey
}

func (s *fakeRelationshipStore) FindCandidates(_ context.Context, _ *models.UserProfile, limit int) ([]models.CandidateLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	leads := s.candidates
	if len(leads) > limit {
		leads = leads[:limit]
	}
	out := make([]models.CandidateLead, len(leads))
	copy(out, leads)
	return out, nil
}

func (s *fakeRelationshipStore) UpsertEdge(_ context.Context, edge *models.InteractionEdge) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	edge.EdgeKey = models.EdgeSortKey(edge.Kind, edge.TargetID)
	s.edges[s.edgeID(edge.SourceID, edge.EdgeKey)] = *edge
	return nil
}

func (s *fakeRelationshipStore) EdgeExists(_ context.Context, kind, sourceID, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.edges[s.edgeID(sourceID, models.EdgeSortKey(kind, targetID))]
	return ok, nil
}

func (s *fakeRelationshipStore) CreateMutualMatch(_ context.Context, a, b string) (bool, error) {
	if s.matchErr != nil {
		return false, s.matchErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pairID := models.PairKey(a, b)
	if s.matches[pairID] {
		return false, nil
	}
	s.matches[pairID] = true
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		key := models.EdgeSortKey(models.EdgeKindMatches, pair[1])
		s.edges[s.edgeID(pair[0], key)] = models.InteractionEdge{
			SourceID: pair[0],
			EdgeKey:  key,
			Kind:     models.EdgeKindMatches,
			TargetID: pair[1],
		}
	}
	return true, nil
}

func (s *fakeRelationshipStore) MatchedUserIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, edge := range s.edges {
		if edge.SourceID == userID && edge.Kind == models.EdgeKindMatches {
			ids = append(ids, edge.TargetID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *fakeRelationshipStore) edgeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.edges)
}

// fakeEphemeralStore mirrors the Redis semantics: versioned CAS documents,
// lists, counters with a zero floor. TTLs are accepted and ignored.
type fakeEphemeralStore struct {
	mu       sync.Mutex
	docs     map[string][]byte
	lists    map[string][]string
	counters map[string]int

	casErr error
}

func newFakeEphemeralStore() *fakeEphemeralStore {
	return &fakeEphemeralStore{
		docs:     make(map[string][]byte),
		lists:    make(map[string][]string),
		counters: make(map[string]int),
	}
}

func (s *fakeEphemeralStore) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.docs[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (s *fakeEphemeralStore) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = raw
	return nil
}

func (s *fakeEphemeralStore) CompareAndSwapJSON(_ context.Context, key string, value any, expectedVersion int64, _ time.Duration) error {
	if s.casErr != nil {
		return s.casErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if existing, ok := s.docs[key]; ok {
		var doc struct {
			Version int64 `json:"version"`
		}
		if err := json.Unmarshal(existing, &doc); err != nil {
			return err
		}
		current = doc.Version
	}
	if current != expectedVersion {
		return models.ErrStateConflict
	}
	s.docs[key] = raw
	return nil
}

func (s *fakeEphemeralStore) ReplaceList(_ context.Context, key string, items []string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]string, len(items))
	copy(copied, items)
	s.lists[key] = copied
	return nil
}

func (s *fakeEphemeralStore) PopHead(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.lists[key]
	if len(list) == 0 {
		return "", false, nil
	}
	head := list[0]
	s.lists[key] = list[1:]
	return head, true, nil
}

func (s *fakeEphemeralStore) DecrementWithFloor(_ context.Context, key string, initial int, _ time.Duration) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.counters[key]
	if !ok {
		cur = initial
	}
	if cur <= 0 {
		return 0, false, nil
	}
	cur--
	s.counters[key] = cur
	return cur, true, nil
}

func (s *fakeEphemeralStore) IncrementIfExists(_ context.Context, key string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.counters[key]; ok {
		s.counters[key] += delta
	}
	return nil
}

func (s *fakeEphemeralStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	delete(s.lists, key)
	delete(s.counters, key)
	return nil
}

func (s *fakeEphemeralStore) listLen(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lists[key])
}

// fakeScorer returns scripted results per candidate id.
type fakeScorer struct {
	mu      sync.Mutex
	scores  map[string]int
	openers map[string][]string
	failFor map[string]bool
	calls   int
}

func newFakeScorer() *fakeScorer {
	return &fakeScorer{
		scores:  make(map[string]int),
		openers: make(map[string][]string),
		failFor: make(map[string]bool),
	}
}

func (s *fakeScorer) Score(_ context.Context, _ *models.UserProfile, lead *models.CandidateLead) (*models.CompatibilityResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	id := lead.Profile.UserID
	if s.failFor[id] {
		return nil, errors.New("scorer unavailable")
	}
	score, ok := s.scores[id]
	if !ok {
		score = 50
	}
	return &models.CompatibilityResult{Score: score, Reasons: []string{"scripted"}}, nil
}

func (s *fakeScorer) SuggestOpeners(_ context.Context, _ *models.UserProfile, lead *models.CandidateLead) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := lead.Profile.UserID
	if s.failFor[id] {
		return nil, errors.New("scorer unavailable")
	}
	if openers, ok := s.openers[id]; ok {
		return openers, nil
	}
	return []string{"hello " + id}, nil
}

// fakeSink records notifications; the first failures-many deliveries of each
// kind can be made to fail to exercise the retry loop.
type fakeSink struct {
	mu         sync.Mutex
	matches    []string // "user<-other"
	superlikes []string // "target<-from"
	failures   int
}

func (s *fakeSink) NotifyMatch(_ context.Context, userID, otherUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("sink unavailable")
	}
	s.matches = append(s.matches, userID+"<-"+otherUserID)
	return nil
}

func (s *fakeSink) NotifySuperlike(_ context.Context, targetID, fromUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("sink unavailable")
	}
	s.superlikes = append(s.superlikes, targetID+"<-"+fromUserID)
	return nil
}

func (s *fakeSink) matchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
