package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Strob0t/fieldtoggle/internal/adapter/otel"
	"github.com/Strob0t/fieldtoggle/internal/domain/toggle"
	"github.com/Strob0t/fieldtoggle/internal/logger"
	"github.com/Strob0t/fieldtoggle/internal/middleware"
	"github.com/Strob0t/fieldtoggle/internal/port/notifier"
	"github.com/Strob0t/fieldtoggle/internal/port/token"
	"github.com/Strob0t/fieldtoggle/internal/port/updater"
	"github.com/Strob0t/fieldtoggle/internal/resilience"
)

const (
	// DefaultHighlightDelay is how long a confirmed control stays highlighted.
	DefaultHighlightDelay = 500 * time.Millisecond

	msgFailed        = "Error updating field"
	msgRejectedStart = "Error updating field: "
)

// ToggleService sends one field update per control change and brings the
// control back to a consistent, enabled state whatever the endpoint does.
type ToggleService struct {
	updater updater.FieldUpdater
	tokens  token.Provider
	alerts  *NotificationService

	breaker        *resilience.Breaker
	pool           *resilience.Pool
	metrics        *otel.Metrics
	log            *slog.Logger
	highlightDelay time.Duration
	timeout        time.Duration
	afterFunc      func(d time.Duration, f func())
	now            func() time.Time
}

// ToggleOption configures a ToggleService.
type ToggleOption func(*ToggleService)

// WithBreaker guards the endpoint with b. An open circuit counts as a
// transport failure.
func WithBreaker(b *resilience.Breaker) ToggleOption {
	return func(s *ToggleService) { s.breaker = b }
}

// WithPool caps concurrent requests to the endpoint. Time spent waiting for
// a slot counts against the request timeout.
func WithPool(p *resilience.Pool) ToggleOption {
	return func(s *ToggleService) { s.pool = p }
}

// WithMetrics records toggle counters and durations on m.
func WithMetrics(m *otel.Metrics) ToggleOption {
	return func(s *ToggleService) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ToggleOption {
	return func(s *ToggleService) { s.log = l }
}

// WithHighlightDelay sets how long the confirmation highlight stays on.
func WithHighlightDelay(d time.Duration) ToggleOption {
	return func(s *ToggleService) {
		if d > 0 {
			s.highlightDelay = d
		}
	}
}

// WithRequestTimeout bounds each request. Zero means no bound.
func WithRequestTimeout(d time.Duration) ToggleOption {
	return func(s *ToggleService) { s.timeout = d }
}

// WithScheduler replaces time.AfterFunc for clearing highlights.
func WithScheduler(afterFunc func(d time.Duration, f func())) ToggleOption {
	return func(s *ToggleService) { s.afterFunc = afterFunc }
}

// NewToggleService creates a ToggleService. alerts may be nil, in which case
// failures are only logged.
func NewToggleService(u updater.FieldUpdater, tokens token.Provider, alerts *NotificationService, opts ...ToggleOption) *ToggleService {
	s := &ToggleService{
		updater:        u,
		tokens:         tokens,
		alerts:         alerts,
		log:            slog.Default(),
		highlightDelay: DefaultHighlightDelay,
		afterFunc:      func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleToggle runs the update cycle for c after a change event started it
// with c.Change(desired): c is disabled and shows desired. It sends the
// update, and on return c is enabled again, showing desired on success or the
// previous value on any failure. Cancelling ctx does not abort the request.
func (s *ToggleService) HandleToggle(ctx context.Context, c *toggle.Control, desired bool) toggle.Outcome {
	key := c.Key()

	ctx = context.WithoutCancel(ctx)
	if logger.RequestID(ctx) == "" {
		ctx = logger.WithRequestID(ctx, middleware.NewRequestID())
	}
	ctx, span := otel.StartToggleSpan(ctx, key, desired)
	start := s.now()
	s.metrics.RecordStart(ctx, key)

	res, err := s.send(ctx, toggle.UpdateRequest{RecordID: key.RecordID, Field: key.Field, Value: desired})

	var out toggle.Outcome
	switch {
	case err != nil:
		out = s.fail(ctx, c, desired, err)
	case !res.Success:
		out = s.reject(ctx, c, desired, res.Error)
	default:
		out = s.confirm(ctx, c, desired)
	}

	s.metrics.RecordOutcome(ctx, out, s.now().Sub(start))
	otel.EndToggleSpan(span, out)
	return out
}

// send fetches the token and posts the update within the request timeout.
func (s *ToggleService) send(ctx context.Context, req toggle.UpdateRequest) (toggle.UpdateResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tok, err := s.tokens.Token(ctx)
	if err != nil {
		// The endpoint rejects a missing token; that answer takes the normal failure path.
		s.log.WarnContext(ctx, "csrf token unavailable, sending without it", "error", err)
		tok = ""
	}

	var res toggle.UpdateResult
	call := func() error {
		var err error
		res, err = s.updater.UpdateField(ctx, req, tok)
		return err
	}
	guarded := call
	if s.breaker != nil {
		guarded = func() error { return s.breaker.Execute(call) }
	}
	queued, err := s.pool.Do(ctx, guarded)
	if queued {
		s.log.DebugContext(ctx, "request waited for a free slot", "limit", s.pool.Limit())
	}
	return res, err
}

func (s *ToggleService) confirm(ctx context.Context, c *toggle.Control, desired bool) toggle.Outcome {
	c.Resolve(desired)
	c.SetHighlighted(true)
	s.afterFunc(s.highlightDelay, func() { c.SetHighlighted(false) })

	s.log.InfoContext(ctx, "field updated", "control", c.Key().String(), "value", desired)
	return toggle.Outcome{Key: c.Key(), Desired: desired, Kind: toggle.OutcomeConfirmed}
}

func (s *ToggleService) reject(ctx context.Context, c *toggle.Control, desired bool, reason string) toggle.Outcome {
	msg := msgRejectedStart + reason
	s.log.InfoContext(ctx, "field update rejected", "control", c.Key().String(), "value", desired, "reason", reason)

	// The alert is shown before the revert, while the control is still disabled.
	s.alert(ctx, c.Key(), msg)
	c.Resolve(!desired)
	return toggle.Outcome{Key: c.Key(), Desired: desired, Kind: toggle.OutcomeRejected, Message: msg}
}

func (s *ToggleService) fail(ctx context.Context, c *toggle.Control, desired bool, err error) toggle.Outcome {
	attrs := []any{"control", c.Key().String(), "value", desired, "error", err}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		attrs = append(attrs, "breaker", "open")
	}
	s.log.WarnContext(ctx, "field update failed", attrs...)

	// Drop any cached token so the next toggle fetches a fresh one.
	if inv, ok := s.tokens.(token.Invalidator); ok {
		if ierr := inv.Invalidate(ctx); ierr != nil {
			s.log.DebugContext(ctx, "csrf token invalidate failed", "error", ierr)
		}
	}

	s.alert(ctx, c.Key(), msgFailed)
	c.Resolve(!desired)
	return toggle.Outcome{Key: c.Key(), Desired: desired, Kind: toggle.OutcomeFailed, Message: msgFailed, Err: err}
}

func (s *ToggleService) alert(ctx context.Context, key toggle.Key, title string) {
	if s.alerts == nil {
		return
	}
	s.alerts.Notify(ctx, notifier.Notification{
		Title:  title,
		Level:  notifier.LevelError,
		Source: key.String(),
	})
}
