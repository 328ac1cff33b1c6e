package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// NotificationService wraps a NotificationSink with the best-effort delivery
/// policy: a small bounded number of retries, failures logged and never
// surfaced to the caller.
type NotificationService struct {
	Sink    NotificationSink
	Retries int
	Logger  *zap.Logger
}

func (s *NotificationService) NotifyMatch(ctx context.Context, userID, otherUserID string) {
	s.deliver(ctx, "match", userID, otherUserID, func(ctx context.Context) error {
		return s.Sink.NotifyMatch(ctx, userID, otherUserID)
	})
}

func (s *NotificationService) NotifySuperlike(ctx context.Context, targetID, fromUserID string) {
	s.deliver(ctx, "superlike", targetID, fromUserID, func(ctx context.Context) error {
		return s.Sink.NotifySuperlike(ctx, targetID, fromUserID)
	})
}

func (s *NotificationService) deliver(ctx context.Context, kind, to, from string, push func(context.Context) error) {
	var err error
	for attempt := 0; attempt <= s.Retries; attempt++ {
		if err = push(ctx); err == nil {
			return
		}
		if ctx.Err() != nil {
			break
		}
		time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
	}
	s.Logger.Warn("notification delivery failed",
		zap.String("kind", kind),
		zap.String("to", to),
		zap.String("from", from),
		zap.Int("attempts", s.Retries+1),
		zap.Error(err),
	)
}
