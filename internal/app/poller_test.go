package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/five82/pixgrab/internal/backend"
	"github.com/five82/pixgrab/internal/logger"
	"github.com/five82/pixgrab/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type scriptedPinger struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (p *scriptedPinger) Ping(context.Context) (backend.HealthInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.calls < len(p.errs) {
		err = p.errs[p.calls]
	}
	p.calls++
	if err != nil {
		return backend.HealthInfo{}, err
	}
	return backend.HealthInfo{ServerIP: "10.0.0.7"}, nil
}

func TestRefresh_RecordsHealth(t *testing.T) {
	store := &state.Store{}
	pinger := &scriptedPinger{errs: []error{errors.New("down"), errors.New("down"), nil}}
	ctx := context.Background()

	if got := refresh(ctx, store, pinger, logger.Nop()); got != 1 {
		t.Fatalf("failures after first ping = %d, want 1", got)
	}
	if got := refresh(ctx, store, pinger, logger.Nop()); got != 2 {
		t.Fatalf("failures after second ping = %d, want 2", got)
	}
	if !store.Snapshot().Health.IsOffline() {
		t.Fatalf("IsOffline() = false after 2 failures")
	}
	if got := refresh(ctx, store, pinger, logger.Nop()); got != 0 {
		t.Fatalf("failures after success = %d, want 0", got)
	}
	h := store.Snapshot().Health
	if !h.Reachable || h.ServerIP != "10.0.0.7" {
		t.Fatalf("health = %#v, want reachable 10.0.0.7", h)
	}
}

func TestStartPoller_PingsUntilCancelled(t *testing.T) {
	store := &state.Store{}
	pinger := &scriptedPinger{}
	ctx, cancel := context.WithCancel(context.Background())

	StartPoller(ctx, store, pinger, 10*time.Millisecond, nil)

	deadline := time.Now().Add(2 * time.Second)
	for {
		pinger.mu.Lock()
		calls := pinger.calls
		pinger.mu.Unlock()
		if calls >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("poller made %d pings, want at least 2", calls)
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if !store.Snapshot().Health.Reachable {
		t.Fatalf("store not updated by poller")
	}
}
