package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"vela_server/models"
)

// UserProfileService implements ProfileStore on DynamoDB.
type UserProfileService struct {
	Dynamo *DynamoService
}

var _ ProfileStore = (*UserProfileService)(nil)

func profileKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
}

func (s *UserProfileService) Exists(ctx context.Context, userID string) (bool, error) {
	_, err := s.Dynamo.GetItem(ctx, models.UserProfilesTable, profileKey(userID))
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, models.NewExternalServiceError("profile-store", err)
	}
	return true, nil
}

func (s *UserProfileService) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	item, err := s.Dynamo.GetItem(ctx, models.UserProfilesTable, profileKey(userID))
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: profile %s", models.ErrNotFound, userID)
	}
	if err != nil {
		return nil, models.NewExternalServiceError("profile-store", err)
	}

	var profile models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile %s: %w", userID, err)
	}
	return &profile, nil
}

func (s *UserProfileService) Save(ctx context.Context, profile *models.UserProfile) error {
	if profile.UserID == "" {
		return fmt.Errorf("%w: profile userId is required", models.ErrValidation)
	}
	if profile.CreatedAt == "" {
		profile.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := s.Dynamo.PutItem(ctx, models.UserProfilesTable, profile); err != nil {
		return models.NewExternalServiceError("profile-store", err)
	}
	return nil
}

func (s *UserProfileService) UpdatePreferences(ctx context.Context, userID string, prefs models.Preferences) error {
	if userID == "" {
		return fmt.Errorf("%w: userId is required", models.ErrValidation)
	}
	err := s.Dynamo.UpdateItem(ctx, models.UserProfilesTable, profileKey(userID), map[string]interface{}{
		"preferences": prefs,
	})
	if err != nil {
		return models.NewExternalServiceError("profile-store", err)
	}
	return nil
}

func (s *UserProfileService) Delete(ctx context.Context, userID string) error {
	if err := s.Dynamo.DeleteItem(ctx, models.UserProfilesTable, profileKey(userID)); err != nil {
		return models.NewExternalServiceError("profile-store", err)
	}
	return nil
}
