package service

import (
	"context"

	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"go.uber.org/zap"
)

// ActivityPublisher receives an event after each successful write that
// appears in the admin activity feed. broker.ActivityBroker satisfies it.
type ActivityPublisher interface {
	Publish(ctx context.Context, event models.ActivityEvent) error
}

// publishActivity never fails the write it reports on.
func publishActivity(ctx context.Context, p ActivityPublisher, event models.ActivityEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.Log.Warn("Failed to publish activity event",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
