package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"vela_server/models"
	"vela_server/utils"
)

// RelationshipService implements RelationshipStore on DynamoDB: interaction
// edges keyed by (sourceId, kind#targetId), match records keyed by the
// canonical unordered pair, and candidate discovery via a filtered scan of
// the profiles table.
type RelationshipService struct {
	Dynamo *DynamoService
	Logger *zap.Logger
}

var _ RelationshipStore = (*RelationshipService)(nil)

func (s *RelationshipService) UpsertEdge(ctx context.Context, edge *models.InteractionEdge) error {
	if edge.SourceID == "" || edge.TargetID == "" || edge.Kind == "" {
		return fmt.Errorf("%w: edge requires kind, source and target", models.ErrValidation)
	}
	edge.EdgeKey = models.EdgeSortKey(edge.Kind, edge.TargetID)
	if edge.CreatedAt == "" {
		edge.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	// PutItem on the (sourceId, edgeKey) key replaces a prior edge of the
	// same kind for the same ordered pair.
	if err := s.Dynamo.PutItem(ctx, models.InteractionEdgesTable, edge); err != nil {
		return models.NewExternalServiceError("relationship-store", err)
	}
	return nil
}

func (s *RelationshipService) EdgeExists(ctx context.Context, kind, sourceID, targetID string) (bool, error) {
	key := map[string]types.AttributeValue{
		"sourceId": &types.AttributeValueMemberS{Value: sourceID},
		"edgeKey":  &types.AttributeValueMemberS{Value: models.EdgeSortKey(kind, targetID)},
	}
	_, err := s.Dynamo.GetItem(ctx, models.InteractionEdgesTable, key)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, models.NewExternalServiceError("relationship-store", err)
	}
	return true, nil
}

// CreateMutualMatch writes the match record with a conditional put on the
// pair key, then both MATCHES edges. Two users liking each other in the same
// instant race on the conditional put; exactly one caller wins and only that
// caller writes the edges and reports created=true.
func (s *RelationshipService) CreateMutualMatch(ctx context.Context, a, b string) (bool, error) {
	record := models.MatchRecord{
		PairID:    models.PairKey(a, b),
		MatchID:   uuid.NewString(),
		UserA:     a,
		UserB:     b,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	err := s.Dynamo.PutItemIfAbsent(ctx, models.MatchRecordsTable, "pairId", record)
	if errors.Is(err, ErrConditionalCheckFailed) {
		return false, nil
	}
	if err != nil {
		return false, models.NewExternalServiceError("relationship-store", err)
	}

	for _, pair := range [][2]string{{a, b}, {b, a}} {
		edge := &models.InteractionEdge{
			SourceID:  pair[0],
			TargetID:  pair[1],
			Kind:      models.EdgeKindMatches,
			CreatedAt: record.CreatedAt,
		}
		if err := s.UpsertEdge(ctx, edge); err != nil {
			return false, err
		}
	}

	s.Logger.Info("match created",
		zap.String("pairId", record.PairID),
		zap.String("matchId", record.MatchID),
	)
	return true, nil
}

func (s *RelationshipService) MatchedUserIDs(ctx context.Context, userID string) ([]string, error) {
	keyCondition := "sourceId = :source AND begins_with(edgeKey, :prefix)"
	expressionValues := map[string]types.AttributeValue{
		":source": &types.AttributeValueMemberS{Value: userID},
		":prefix": &types.AttributeValueMemberS{Value: models.EdgeKindMatches + "#"},
	}

	items, err := s.Dynamo.QueryItems(ctx, models.InteractionEdgesTable, keyCondition, expressionValues, 100)
	if err != nil {
		return nil, models.NewExternalServiceError("relationship-store", err)
	}

	var edges []models.InteractionEdge
	if err := attributevalue.UnmarshalListOfMaps(items, &edges); err != nil {
		return nil, fmt.Errorf("unmarshal match edges for %s: %w", userID, err)
	}

	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		ids = append(ids, edge.TargetID)
	}
	return ids, nil
}

// FindCandidates loads the exclusion set from both edge directions, scans
// profiles, applies the age and distance filters, computes the shared
// interest and community sets, pre-sorts by shared-interest count descending
// then distance ascending, and caps the result.
func (s *RelationshipService) FindCandidates(ctx context.Context, user *models.UserProfile, limit int) ([]models.CandidateLead, error) {
	excluded, err := s.linkedUserIDs(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	excluded[user.UserID] = struct{}{}

	var profiles []models.UserProfile
	err = s.Dynamo.ScanWithFilter(ctx, models.UserProfilesTable, func(item map[string]types.AttributeValue) bool {
		if attr, ok := item["userId"]; ok {
			if id, ok := attr.(*types.AttributeValueMemberS); ok {
				_, skip := excluded[id.Value]
				return !skip
			}
		}
		return false
	}, nil, &profiles)
	if err != nil {
		return nil, models.NewExternalServiceError("relationship-store", err)
	}

	prefs := user.Preferences
	leads := make([]models.CandidateLead, 0, len(profiles))
	for _, candidate := range profiles {
		if candidate.Age < prefs.MinAge || candidate.Age > prefs.MaxAge {
			continue
		}
		distance := utils.HaversineKm(user.Latitude, user.Longitude, candidate.Latitude, candidate.Longitude)
		if prefs.MaxDistanceKm > 0 && distance > prefs.MaxDistanceKm {
			continue
		}
		leads = append(leads, models.CandidateLead{
			Profile:           candidate,
			DistanceKm:        distance,
			SharedInterests:   utils.Intersect(user.Interests, candidate.Interests),
			SharedCommunities: utils.Intersect(user.Communities, candidate.Communities),
		})
	}

	sort.SliceStable(leads, func(i, j int) bool {
		if len(leads[i].SharedInterests) != len(leads[j].SharedInterests) {
			return len(leads[i].SharedInterests) > len(leads[j].SharedInterests)
		}
		return leads[i].DistanceKm < leads[j].DistanceKm
	})

	if limit > 0 && len(leads) > limit {
		leads = leads[:limit]
	}

	s.Logger.Debug("candidate discovery",
		zap.String("userId", user.UserID),
		zap.Int("excluded", len(excluded)-1),
		zap.Int("candidates", len(leads)),
	)
	return leads, nil
}

// linkedUserIDs collects users linked to userID by LIKES, BLOCKS or MATCHES
// in either direction. PASSES edges do not exclude: a passed profile may
// resurface in a rebuilt queue.
func (s *RelationshipService) linkedUserIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	linked := make(map[string]struct{})

	outgoing, err := s.Dynamo.QueryItems(ctx, models.InteractionEdgesTable,
		"sourceId = :source",
		map[string]types.AttributeValue{
			":source": &types.AttributeValueMemberS{Value: userID},
		}, 1000)
	if err != nil {
		return nil, models.NewExternalServiceError("relationship-store", err)
	}

	incoming, err := s.Dynamo.QueryItemsWithIndex(ctx, models.InteractionEdgesTable, models.TargetIndex,
		"targetId = :target",
		map[string]types.AttributeValue{
			":target": &types.AttributeValueMemberS{Value: userID},
		}, 1000)
	if err != nil {
		return nil, models.NewExternalServiceError("relationship-store", err)
	}

	for _, items := range [][]map[string]types.AttributeValue{outgoing, incoming} {
		var edges []models.InteractionEdge
		if err := attributevalue.UnmarshalListOfMaps(items, &edges); err != nil {
			return nil, fmt.Errorf("unmarshal edges for %s: %w", userID, err)
		}
		for _, edge := range edges {
			if !excludingKind(edge.Kind) {
				continue
			}
			other := edge.TargetID
			if !strings.EqualFold(edge.SourceID, userID) {
				other = edge.SourceID
			}
			linked[other] = struct{}{}
		}
	}
	return linked, nil
}

func excludingKind(kind string) bool {
	switch kind {
	case models.EdgeKindLikes, models.EdgeKindBlocks, models.EdgeKindMatches:
		return true
	}
	return false
}
