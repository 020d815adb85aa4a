package payment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// scriptedProvider returns a fixed sequence of statuses, then repeats the
// last one forever.
type scriptedProvider struct {
	mu       sync.Mutex
	statuses []string
	errs     []error
	calls    int
}

func (p *scriptedProvider) CheckStatus(ctx context.Context, ref string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i >= len(p.statuses) {
		i = len(p.statuses) - 1
	}
	return p.statuses[i], nil
}

func (p *scriptedProvider) CreateRequest(ctx context.Context, in *CreateRequestInput) (*PaymentRequest, error) {
	return nil, errors.New("not implemented")
}

func (p *scriptedProvider) Settle(ctx context.Context, ref, resultText string) error {
	return errors.New("not implemented")
}

func waitDone(t *testing.T, m *Monitor) {
	t.Helper()
	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop in time")
	}
}

func TestMonitorFiresOnceOnConfirmation(t *testing.T) {
	p := &scriptedProvider{statuses: []string{
		StatusWaitingForExternal,
		StatusFundsLocked,
		StatusFundsLocked,
	}}

	var fired int32
	m := NewMonitor(p, "ref-1", time.Millisecond)
	m.Start(func() { atomic.AddInt32(&fired, 1) })
	waitDone(t, m)

	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Errorf("expected callback to fire once, fired %d times", got)
	}
}

func TestMonitorIgnoresStatusErrors(t *testing.T) {
	p := &scriptedProvider{
		statuses: []string{"", "", StatusFundsLocked},
		errs:     []error{errors.New("boom"), errors.New("boom")},
	}

	var fired int32
	m := NewMonitor(p, "ref-1", time.Millisecond)
	m.Start(func() { atomic.AddInt32(&fired, 1) })
	waitDone(t, m)

	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Errorf("expected callback despite transient errors, fired %d times", got)
	}
}

func TestMonitorStopBeforeConfirmation(t *testing.T) {
	p := &scriptedProvider{statuses: []string{StatusWaitingForExternal}}

	var fired int32
	m := NewMonitor(p, "ref-1", time.Millisecond)
	m.Start(func() { atomic.AddInt32(&fired, 1) })

	time.Sleep(10 * time.Millisecond)
	m.Stop()
	waitDone(t, m)

	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Errorf("callback fired %d times after stop", got)
	}
}

func TestMonitorStopIsIdempotent(t *testing.T) {
	p := &scriptedProvider{statuses: []string{StatusWaitingForExternal}}

	m := NewMonitor(p, "ref-1", time.Millisecond)
	m.Start(func() {})

	m.Stop()
	m.Stop() // second call must not panic or block
	waitDone(t, m)
}

func TestMonitorStopWithoutStart(t *testing.T) {
	p := &scriptedProvider{statuses: []string{StatusWaitingForExternal}}

	m := NewMonitor(p, "ref-1", time.Millisecond)
	m.Stop() // never started; must be a no-op
}

func TestMonitorStopAfterConfirmation(t *testing.T) {
	p := &scriptedProvider{statuses: []string{StatusFundsLocked}}

	var fired int32
	m := NewMonitor(p, "ref-1", time.Millisecond)
	m.Start(func() { atomic.AddInt32(&fired, 1) })
	waitDone(t, m)

	m.Stop()
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Errorf("expected exactly one callback, got %d", got)
	}
}

func TestConfirmedStatuses(t *testing.T) {
	cases := map[string]bool{
		StatusFundsLocked:        true,
		"confirmed":              true,
		"completed":              true,
		StatusWaitingForExternal: false,
		StatusRefundRequested:    false,
		"":                       false,
	}
	for status, want := range cases {
		if got := Confirmed(status); got != want {
			t.Errorf("Confirmed(%q) = %v, want %v", status, got, want)
		}
	}
}
