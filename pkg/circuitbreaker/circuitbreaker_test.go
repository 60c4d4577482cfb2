package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func newTestBreaker(now *time.Time) *CircuitBreaker {
	cb := New(Config{
		FailureThreshold:    2,
		SuccessThreshold:    1,
		OpenTimeout:         time.Second,
		HalfOpenMaxRequests: 1,
	})
	cb.now = func() time.Time { return *now }
	return cb
}

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	now := time.Unix(0, 0)
	cb := newTestBreaker(&now)

	for i := 0; i < 2; i++ {
		if err := cb.Execute(fail, nil); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: expected errBoom, got %v", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil }, nil)
	if !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
	if called {
		t.Error("fn must not run while open")
	}
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	now := time.Unix(0, 0)
	cb := newTestBreaker(&now)
	_ = cb.Execute(fail, nil)
	_ = cb.Execute(fail, nil)

	now = now.Add(2 * time.Second)
	if err := cb.Execute(succeed, nil); err != nil {
		t.Fatalf("probe call failed: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %s", cb.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(0, 0)
	cb := newTestBreaker(&now)
	_ = cb.Execute(fail, nil)
	_ = cb.Execute(fail, nil)

	now = now.Add(2 * time.Second)
	_ = cb.Execute(fail, nil)
	if cb.State() != StateOpen {
		t.Errorf("expected open after failed probe, got %s", cb.State())
	}
}

func TestBreakerIgnoresNonFailures(t *testing.T) {
	now := time.Unix(0, 0)
	cb := newTestBreaker(&now)
	notCounted := func(error) bool { return false }

	for i := 0; i < 5; i++ {
		_ = cb.Execute(fail, notCounted)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestDisabledBreakerPassesThrough(t *testing.T) {
	cb := New(Config{})
	for i := 0; i < 10; i++ {
		_ = cb.Execute(fail, nil)
	}
	if cb.State() != StateClosed {
		t.Errorf("disabled breaker should stay closed, got %s", cb.State())
	}
}
