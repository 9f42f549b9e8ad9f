// Package resilience provides reliability patterns for calls to the admin endpoint.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open and rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker's position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailurePredicate sets which errors count against the breaker. Errors
// for which fn returns false are passed through and reset the failure count,
// since the remote side did answer.
func WithFailurePredicate(fn func(error) bool) Option {
	return func(b *Breaker) { b.isFailure = fn }
}

// WithStateChange registers a callback run on every state transition.
// It is called without the breaker lock held.
func WithStateChange(fn func(from, to State)) Option {
	return func(b *Breaker) { b.onChange = fn }
}

// Breaker tracks consecutive failures and opens the circuit when a threshold
// is reached, rejecting calls until a timeout elapses. After the timeout a
// single probe call is let through; its result closes or reopens the circuit.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	maxFailures int
	timeout     time.Duration
	openedAt    time.Time
	probing     bool
	isFailure   func(error) bool
	onChange    func(from, to State)
	now         func() time.Time // for testing
}

// NewBreaker creates a circuit breaker that opens after maxFailures consecutive
// failures and stays open for the given timeout before transitioning to half-open.
func NewBreaker(maxFailures int, timeout time.Duration, opts ...Option) *Breaker {
	b := &Breaker{
		maxFailures: maxFailures,
		timeout:     timeout,
		isFailure:   func(err error) bool { return err != nil },
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current state, reporting an expired open circuit as half-open.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.timeout {
		return StateHalfOpen
	}
	return b.state
}

// Execute runs fn if the circuit allows it.
// Returns ErrCircuitOpen without calling fn otherwise.
func (b *Breaker) Execute(fn func() error) error {
	allowed, probe, change := b.allowRequest()
	b.fire(change)
	if !allowed {
		return ErrCircuitOpen
	}

	err := fn()

	b.mu.Lock()
	if probe {
		b.probing = false
	}
	var tr transition
	if err != nil && b.isFailure(err) {
		tr = b.onFailure()
	} else {
		tr = b.onSuccess()
	}
	b.mu.Unlock()

	b.fire(tr)
	return err
}

type transition struct {
	from, to State
}

func (b *Breaker) fire(t transition) {
	if t.from != t.to && b.onChange != nil {
		b.onChange(t.from, t.to)
	}
}

func (b *Breaker) allowRequest() (allowed, probe bool, t transition) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true, false, transition{}
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.timeout {
			return false, false, transition{}
		}
		t = b.setState(StateHalfOpen)
		b.probing = true
		return true, true, t
	case StateHalfOpen:
		if b.probing {
			return false, false, transition{}
		}
		b.probing = true
		return true, true, transition{}
	}
	return false, false, transition{}
}

// onFailure must be called with b.mu held.
func (b *Breaker) onFailure() transition {
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.openedAt = b.now()
		return b.setState(StateOpen)
	}
	return transition{}
}

// onSuccess must be called with b.mu held.
func (b *Breaker) onSuccess() transition {
	b.failures = 0
	return b.setState(StateClosed)
}

// setState must be called with b.mu held.
func (b *Breaker) setState(s State) transition {
	t := transition{from: b.state, to: s}
	b.state = s
	return t
}
