package app

import (
	"context"
	"time"

	"github.com/five82/pixgrab/internal/backend"
	"github.com/five82/pixgrab/internal/logger"
	"github.com/five82/pixgrab/internal/state"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// Pinger checks collaborator reachability. *backend.Client implements it.
type Pinger interface {
	Ping(ctx context.Context) (backend.HealthInfo, error)
}

// StartPoller launches a background goroutine that pings the collaborator
// and records the result in the store. After failures the delay doubles up to
// maxBackoff. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, pinger Pinger, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	go func() {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			failures := refresh(ctx, store, pinger, log)
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

// refresh pings once and returns the consecutive failure count.
func refresh(ctx context.Context, store *state.Store, pinger Pinger, log *logger.Logger) int {
	info, err := pinger.Ping(ctx)
	if err != nil && ctx.Err() != nil {
		return store.Snapshot().Health.ConsecutiveFailures
	}
	store.UpdateHealth(info, err)
	health := store.Snapshot().Health
	if err != nil {
		log.Debug().Err(err).Int("failures", health.ConsecutiveFailures).Msg("health ping failed")
	}
	return health.ConsecutiveFailures
}

// calculateBackoff doubles base for each consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
