package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/coverdesk/coverdesk/pkg/observability"
)

// Keepalive periodically extends the active session. Extension is
// fire-and-forget and idempotent: a lapsed session is never resurrected, so
// running it concurrently with reads is safe.
type Keepalive struct {
	store    *Store
	interval time.Duration
	logger   *observability.Logger

	cron *cron.Cron
}

// NewKeepalive creates a keepalive runner. interval defaults to the refresh
// threshold when zero.
func NewKeepalive(store *Store, interval time.Duration, logger *observability.Logger) *Keepalive {
	if interval <= 0 {
		interval = DefaultRefreshThreshold
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Keepalive{store: store, interval: interval, logger: logger}
}

// Start schedules the periodic extension. It returns an error only when the
// schedule cannot be registered.
func (k *Keepalive) Start(ctx context.Context) error {
	k.cron = cron.New()
	_, err := k.cron.AddFunc(fmt.Sprintf("@every %s", k.interval), func() {
		extended, err := k.store.ExtendSession(ctx)
		if err != nil {
			k.logger.WithField("error", err.Error()).Warn("session keepalive failed")
			return
		}
		if extended {
			k.logger.Debug("session extended")
		}
	})
	if err != nil {
		return fmt.Errorf("keepalive schedule: %w", err)
	}
	k.cron.Start()
	return nil
}

// Stop halts the schedule, waiting for an in-flight run to finish.
func (k *Keepalive) Stop() {
	if k.cron != nil {
		<-k.cron.Stop().Done()
	}
}

// ActivityExtender funnels user-activity events (pointer, keyboard, scroll)
// into session extension, throttled so bursts of events extend at most once
// per interval.
type ActivityExtender struct {
	store    *Store
	clock    Clock
	interval time.Duration

	mu         sync.Mutex
	lastExtend time.Time
}

// NewActivityExtender creates a throttled extender. interval defaults to
// the refresh threshold when zero.
func NewActivityExtender(store *Store, clock Clock, interval time.Duration) *ActivityExtender {
	if interval <= 0 {
		interval = DefaultRefreshThreshold
	}
	return &ActivityExtender{store: store, clock: clock, interval: interval}
}

// Touch records a user-activity event, extending the session when the
// throttle window has passed. It reports whether an extension happened.
func (a *ActivityExtender) Touch(ctx context.Context) (bool, error) {
	a.mu.Lock()
	now := a.clock.Now()
	if !a.lastExtend.IsZero() && now.Sub(a.lastExtend) < a.interval {
		a.mu.Unlock()
		return false, nil
	}
	a.lastExtend = now
	a.mu.Unlock()

	return a.store.ExtendSession(ctx)
}
