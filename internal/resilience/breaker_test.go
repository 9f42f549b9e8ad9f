package resilience

import (
	"errors"
	"testing"
	"time"
)

var (
	errTest     = errors.New("connection refused")
	errRejected = errors.New("rejected by endpoint")
)

func TestClosedStateAllowsCalls(t *testing.T) {
	b := NewBreaker(3, time.Second)
	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %s", b.State())
	}
}

func TestOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker(3, time.Second)

	for i := 0; i < 3; i++ {
		_ = b.Execute(func() error { return errTest })
	}

	err := b.Execute(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}
}

func TestExecuteReturnsFnError(t *testing.T) {
	b := NewBreaker(3, time.Second)
	if err := b.Execute(func() error { return errTest }); !errors.Is(err, errTest) {
		t.Fatalf("expected fn error, got %v", err)
	}
}

func TestTransitionsToHalfOpenAfterTimeout(t *testing.T) {
	now := time.Now()
	b := NewBreaker(2, time.Second)
	b.now = func() time.Time { return now }

	// Trip the breaker
	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return errTest })
	}

	err := b.Execute(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	now = now.Add(2 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", b.State())
	}

	called := false
	err = b.Execute(func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error in half-open, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called in half-open")
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed after half-open success, got %s", b.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker(2, time.Second)
	b.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return errTest })
	}

	now = now.Add(2 * time.Second)

	// Fail the probe
	_ = b.Execute(func() error { return errTest })

	b.mu.Lock()
	if b.state != StateOpen {
		t.Fatalf("expected state open after half-open failure, got %s", b.state)
	}
	b.mu.Unlock()

	err := b.Execute(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen after reopen, got %v", err)
	}
}

func TestHalfOpenAllowsSingleProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker(1, time.Second)
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errTest })
	now = now.Add(2 * time.Second)

	var second error
	_ = b.Execute(func() error {
		second = b.Execute(func() error { return nil })
		return nil
	})
	if !errors.Is(second, ErrCircuitOpen) {
		t.Fatalf("expected concurrent probe to be rejected, got %v", second)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed after probe success, got %s", b.State())
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(3, time.Second)

	_ = b.Execute(func() error { return errTest })
	_ = b.Execute(func() error { return errTest })

	_ = b.Execute(func() error { return nil })

	// Two more failures should not trip (only 2, need 3)
	_ = b.Execute(func() error { return errTest })
	_ = b.Execute(func() error { return errTest })

	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
}

func TestFailurePredicateIgnoresAnsweredErrors(t *testing.T) {
	b := NewBreaker(2, time.Second, WithFailurePredicate(func(err error) bool {
		return !errors.Is(err, errRejected)
	}))

	for i := 0; i < 5; i++ {
		if err := b.Execute(func() error { return errRejected }); !errors.Is(err, errRejected) {
			t.Fatalf("expected rejection passed through, got %v", err)
		}
	}
	if b.State() != StateClosed {
		t.Fatalf("rejections must not open the circuit, got %s", b.State())
	}
}

func TestStateChangeCallback(t *testing.T) {
	now := time.Now()
	var seen []string
	b := NewBreaker(1, time.Second, WithStateChange(func(from, to State) {
		seen = append(seen, from.String()+"->"+to.String())
	}))
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errTest })
	now = now.Add(2 * time.Second)
	_ = b.Execute(func() error { return nil })

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}
