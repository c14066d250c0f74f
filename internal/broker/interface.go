package broker

import (
	"context"

	"github.com/recipenest/recipenest-api/internal/models"
)

// ActivityBroker fans activity events out to every API node so each node's
// websocket clients see the whole platform, not just local writes.
type ActivityBroker interface {
	Publish(ctx context.Context, event models.ActivityEvent) error
	// Subscribe returns a channel of events and a func that ends the
	// subscription. The channel is closed once the subscription ends.
	Subscribe(ctx context.Context) (<-chan models.ActivityEvent, func(), error)

	Close() error
}
