package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// QuotaService tracks the per-user, per-calendar-day allowance of
// non-superlike likes. The counter lives in the ephemeral store under a
// day-scoped key and expires at UTC day rollover, so an absent key implies a
// fresh allowance.
type QuotaService struct {
	Store     EphemeralStore
	Allowance int
	Logger    *zap.Logger
}

func quotaKey(userID string, day time.Time) string {
	return fmt.Sprintf("quota:%s:%s", userID, day.UTC().Format("2006-01-02"))
}

func untilDayRollover(now time.Time) time.Duration {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return midnight.Sub(now)
}

// CheckAndDecrement atomically consumes one unit of today's quota. The
// single-script decrement guarantees two concurrent calls can never both
// succeed on the last unit. ok is false when the allowance is exhausted.
func (s *QuotaService) CheckAndDecrement(ctx context.Context, userID string, now time.Time) (remaining int, ok bool, err error) {
	key := quotaKey(userID, now)
	remaining, ok, err = s.Store.DecrementWithFloor(ctx, key, s.Allowance, untilDayRollover(now))
	if err != nil {
		return 0, false, err
	}
	if !ok {
		s.Logger.Debug("quota exhausted", zap.String("userId", userID))
	}
	return remaining, ok, nil
}

// Refund re-credits one unit after a failed downstream write. A counter that
// expired in the meantime is left alone; the next day starts fresh anyway.
func (s *QuotaService) Refund(ctx context.Context, userID string, now time.Time) error {
	return s.Store.IncrementIfExists(ctx, quotaKey(userID, now), 1)
}
