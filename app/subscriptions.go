package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/sweater-ventures/funnel/db"
)

// SubscriptionCache lazily bulk-loads the deliverable subscription set into
// memory. Deliverable covers both active and failing subscriptions: a failing
// endpoint keeps receiving events so a successful delivery can return it to
// active. The fan-out engine snapshots from the cache on every event; the
// subscription API calls Flush after any mutation so the next access reloads
// from the database.
type SubscriptionCache struct {
	mu          sync.RWMutex
	loaded      bool
	deliverable []db.WebhookSubscription
	db          db.Querier
}

func NewSubscriptionCache(querier db.Querier) *SubscriptionCache {
	return &SubscriptionCache{db: querier}
}

// load performs lazy bulk loading with double-checked locking.
func (c *SubscriptionCache) load(ctx context.Context) error {
	c.mu.RLock()
	if c.loaded {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.loaded {
		return nil
	}

	deliverable, err := c.db.ListDeliverableSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("loading deliverable subscriptions: %w", err)
	}

	c.deliverable = deliverable
	c.loaded = true
	return nil
}

// Deliverable returns a snapshot of the subscriptions that should receive
// events. The returned slice is shared; callers must not mutate it.
func (c *SubscriptionCache) Deliverable(ctx context.Context) ([]db.WebhookSubscription, error) {
	if err := c.load(ctx); err != nil {
		return nil, WrapError(KindTransientStore, "SUBSCRIPTION_LOAD_FAILED", "could not load subscriptions", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deliverable, nil
}

// Flush clears the cache. The next access will reload from the database.
func (c *SubscriptionCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.deliverable = nil
}
