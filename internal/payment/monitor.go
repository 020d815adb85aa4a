package payment

import (
	"context"
	"log"
	"sync"
	"time"
)

// Monitor watches one payment reference and fires a callback exactly once
// when the provider first reports the payment as confirmed. The provider's
// own polling cadence is untrusted; the monitor's whole job is to debounce
// to a single transition-triggering event and make cancellation race-free.
//
// One monitor exists per job, owned by the lifecycle controller from job
// creation until the job reaches a terminal state.
type Monitor struct {
	provider Provider
	ref      string
	interval time.Duration

	cancel   context.CancelFunc
	fireOnce sync.Once
	stopOnce sync.Once
	done     chan struct{}
}

// NewMonitor creates a monitor for the given payment reference. Start must
// be called to begin polling.
func NewMonitor(provider Provider, blockchainIdentifier string, interval time.Duration) *Monitor {
	return &Monitor{
		provider: provider,
		ref:      blockchainIdentifier,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins polling the provider in the background. onConfirmed is
// invoked at most once, from the monitor's goroutine, the first time the
// provider reports a confirmed state. Status-check errors do not stop the
// loop; the provider may be temporarily unreachable.
func (m *Monitor) Start(onConfirmed func()) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	go m.poll(ctx, onConfirmed)
}

func (m *Monitor) poll(ctx context.Context, onConfirmed func()) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		attempt++
		status, err := m.provider.CheckStatus(ctx, m.ref)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[Payment] Poll #%d (ref=%s) — error: %v", attempt, m.ref, err)
			continue
		}

		if Confirmed(status) {
			m.fireOnce.Do(onConfirmed)
			return
		}
	}
}

// Stop cancels the subscription. It is idempotent and safe to call whether
// or not the callback ever fired; a notification already past the debounce
// point may still be in flight, and the controller's state check is the
// final guard against double execution.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		// Suppress any confirmation that has not fired yet.
		m.fireOnce.Do(func() {})
	})
}

// Done is closed when the poll goroutine has exited. Used by tests.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}
