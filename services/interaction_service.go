package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vela_server/models"
)

// InteractionService processes like/pass/superlike actions: quota
// enforcement, edge writes, mutual-match detection and notification
// triggering.
type InteractionService struct {
	Relationships RelationshipStore
	Quota         *QuotaService
	Notifier      *NotificationService
	Logger        *zap.Logger
	StoreTimeout  time.Duration
}

// LikeOutcome reports the result of a like transaction.
type LikeOutcome struct {
	Matched   bool `json:"matched"`
	Remaining int  `json:"remainingLikes"` // -1 for superlikes, which bypass quota
}

// Like records a LIKES edge from userID to targetID and evaluates the mutual
// condition. Non-superlike likes consume one unit of today's quota before
// the edge write; if that write then fails the unit is re-credited, so the
// quota is consumed only when the edge commits.
func (s *InteractionService) Like(ctx context.Context, userID, targetID string, superlike bool) (*LikeOutcome, error) {
	if err := validatePair(userID, targetID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	remaining := -1

	if !superlike {
		r, ok, err := s.Quota.CheckAndDecrement(ctx, userID, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, models.ErrQuotaExceeded
		}
		remaining = r
	}

	edge := &models.InteractionEdge{
		SourceID:  userID,
		TargetID:  targetID,
		Kind:      models.EdgeKindLikes,
		SuperLike: superlike,
		CreatedAt: now.Format(time.RFC3339),
	}
	if err := s.upsertEdge(ctx, edge); err != nil {
		if !superlike {
			if refundErr := s.Quota.Refund(ctx, userID, now); refundErr != nil {
				s.Logger.Error("quota refund failed after edge write failure",
					zap.String("userId", userID),
					zap.Error(refundErr),
				)
			}
		}
		return nil, err
	}

	matched, err := s.evaluateMutual(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}

	if superlike {
		s.Notifier.NotifySuperlike(ctx, targetID, userID)
	}

	return &LikeOutcome{Matched: matched, Remaining: remaining}, nil
}

// Pass records a PASSES edge. No quota interaction, no match evaluation.
func (s *InteractionService) Pass(ctx context.Context, userID, targetID string) error {
	if err := validatePair(userID, targetID); err != nil {
		return err
	}
	return s.upsertEdge(ctx, &models.InteractionEdge{
		SourceID: userID,
		TargetID: targetID,
		Kind:     models.EdgeKindPasses,
	})
}

// Block records a BLOCKS edge, removing the target from future discovery in
// both directions.
func (s *InteractionService) Block(ctx context.Context, userID, targetID string) error {
	if err := validatePair(userID, targetID); err != nil {
		return err
	}
	return s.upsertEdge(ctx, &models.InteractionEdge{
		SourceID: userID,
		TargetID: targetID,
		Kind:     models.EdgeKindBlocks,
	})
}

// evaluateMutual checks for the reverse LIKES edge and, when present,
// creates the match exactly once. Both sides liking each other in the same
// instant race on the idempotent creation; only the winner sends the match
// notifications, so each user hears about the match exactly once.
func (s *InteractionService) evaluateMutual(ctx context.Context, userID, targetID string) (bool, error) {
	checkCtx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	reverse, err := s.Relationships.EdgeExists(checkCtx, models.EdgeKindLikes, targetID, userID)
	cancel()
	if err != nil {
		return false, err
	}
	if !reverse {
		return false, nil
	}

	createCtx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	created, err := s.Relationships.CreateMutualMatch(createCtx, userID, targetID)
	cancel()
	if err != nil {
		return false, err
	}

	if created {
		s.Notifier.NotifyMatch(ctx, userID, targetID)
		s.Notifier.NotifyMatch(ctx, targetID, userID)
	}
	return true, nil
}

func (s *InteractionService) upsertEdge(ctx context.Context, edge *models.InteractionEdge) error {
	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()
	return s.Relationships.UpsertEdge(ctx, edge)
}

func validatePair(userID, targetID string) error {
	if userID == "" || targetID == "" {
		return fmt.Errorf("%w: userId and targetUserId are required", models.ErrValidation)
	}
	if userID == targetID {
		return fmt.Errorf("%w: cannot interact with yourself", models.ErrValidation)
	}
	return nil
}
