package registry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultRefreshInterval is how often registered domains are re-verified
	// in the background.
	DefaultRefreshInterval = 30 * time.Minute

	refreshMaxRetries = 2
)

// Refresher periodically re-verifies every registered domain. Failures never
// surface to the user; a domain that cannot be refreshed keeps its previous
// record.
type Refresher struct {
	registry *Registry
	interval time.Duration
}

func NewRefresher(r *Registry, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{registry: r, interval: interval}
}

// Run blocks, refreshing all domains once per interval until the context is
// cancelled.
func (f *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.RefreshAll(ctx)
		}
	}
}

// RefreshAll re-verifies every registered domain, retrying transient
// failures with exponential backoff before giving up on a domain silently.
func (f *Refresher) RefreshAll(ctx context.Context) {
	for _, d := range f.registry.List() {
		operation := func() error {
			return f.registry.refreshRecord(ctx, d.URL, d)
		}

		policy := backoff.WithMaxRetries(backoff.WithContext(backoff.NewExponentialBackOff(), ctx), refreshMaxRetries)
		if err := backoff.Retry(operation, policy); err != nil {
			log.Debugf("refresh of %s gave up: %v", d.URL, err)
		}
	}
}
