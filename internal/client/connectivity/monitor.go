// Package connectivity observes backend reachability and reports the
// offline to online edge so sync can resume automatically.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	// DefaultInterval is the steady-state probe interval while online.
	DefaultInterval = 30 * time.Second

	// probeBase and probeCap bound the exponential backoff applied to
	// the probe while the backend stays unreachable.
	probeBase = 2 * time.Second
	probeCap  = time.Minute
)

// Monitor polls a reachability probe and tracks the online state.
// While unreachable the probe interval backs off exponentially with
// jitter and resets as soon as a probe succeeds.
type Monitor struct {
	probe     func(ctx context.Context) error
	logger    *slog.Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
	callbacks []func()
	interval  time.Duration
	mu        sync.Mutex
	online    bool
	started   bool
}

// NewMonitor creates a monitor around the given probe (typically the
// API client's Ping). interval <= 0 selects DefaultInterval.
func NewMonitor(probe func(ctx context.Context) error, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		probe:    probe,
		interval: interval,
		logger:   logger,
	}
}

// IsOnline reports the last observed reachability state.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnReconnect registers a callback fired on every offline to online
// edge. Callbacks run on the monitor goroutine and must not block.
func (m *Monitor) OnReconnect(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// SetOnline overrides the observed state. Used for forced-offline mode
// and in tests; the next probe may override it again.
func (m *Monitor) SetOnline(online bool) {
	m.transition(online)
}

// CheckNow probes immediately and returns the resulting state.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	err := m.probe(ctx)
	m.transition(err == nil)
	if err != nil {
		m.logger.Debug("connectivity probe failed", "error", err)
	}
	return err == nil
}

// Start launches the probe loop. It probes once synchronously so the
// initial state is known before Start returns.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	m.CheckNow(ctx)

	go m.loop(ctx)
}

// Stop terminates the probe loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	close(m.stopCh)
	done := m.doneCh
	m.mu.Unlock()

	<-done
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.doneCh)

	backoff := m.newBackoff()

	for {
		wait := m.interval
		if !m.IsOnline() {
			if next, stop := backoff.Next(); !stop {
				wait = next
			}
		} else {
			backoff = m.newBackoff()
		}

		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(wait):
			m.CheckNow(ctx)
		}
	}
}

// newBackoff builds the jittered exponential probe schedule.
func (m *Monitor) newBackoff() retry.Backoff {
	b := retry.NewExponential(probeBase)
	b = retry.WithCappedDuration(probeCap, b)
	b = retry.WithJitterPercent(10, b)
	return b
}

// transition updates the state and fires reconnect callbacks on the
// offline to online edge.
func (m *Monitor) transition(online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	var callbacks []func()
	if online && !wasOnline {
		callbacks = make([]func(), len(m.callbacks))
		copy(callbacks, m.callbacks)
	}
	m.mu.Unlock()

	if len(callbacks) > 0 {
		m.logger.Info("backend became reachable")
		for _, fn := range callbacks {
			fn()
		}
	}
}
