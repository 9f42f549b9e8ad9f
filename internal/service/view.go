package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Strob0t/fieldtoggle/internal/domain/toggle"
)

var (
	// ErrUnknownControl is returned by Change for a key that is not mounted.
	ErrUnknownControl = errors.New("view: unknown control")
	// ErrViewNotMounted is returned by Change before Mount.
	ErrViewNotMounted = errors.New("view: not mounted")
	// ErrViewUnmounted is returned after Unmount.
	ErrViewUnmounted = errors.New("view: unmounted")
	// ErrDuplicateControl is returned by Mount when two controls share a key.
	ErrDuplicateControl = errors.New("view: duplicate control")
)

// Toggler runs the update cycle for one control whose change event has
// already started an update with the value desired.
type Toggler interface {
	HandleToggle(ctx context.Context, c *toggle.Control, desired bool) toggle.Outcome
}

// ViewOptions configures a View.
type ViewOptions struct {
	// Observer, when set, is registered on every mounted control.
	Observer func(toggle.State)
}

type viewPhase int

const (
	phaseNew viewPhase = iota
	phaseMounted
	phaseUnmounted
)

// View binds a set of controls to a Toggler: each change event becomes one
// independent toggle running on its own goroutine.
type View struct {
	toggler Toggler
	opts    ViewOptions

	mu       sync.Mutex
	phase    viewPhase
	controls map[toggle.Key]*toggle.Control
	order    []*toggle.Control
	cancels  []func()
	inflight int
	idle     *sync.Cond // signalled on v.mu when inflight drops to zero
}

// NewView creates an unmounted view.
func NewView(t Toggler, opts ViewOptions) *View {
	v := &View{
		toggler:  t,
		opts:     opts,
		controls: make(map[toggle.Key]*toggle.Control),
	}
	v.idle = sync.NewCond(&v.mu)
	return v
}

// Mount registers controls with the view. It can be called once.
func (v *View) Mount(controls ...*toggle.Control) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.phase {
	case phaseMounted:
		return errors.New("view: already mounted")
	case phaseUnmounted:
		return ErrViewUnmounted
	}

	seen := make(map[toggle.Key]bool, len(controls))
	for _, c := range controls {
		if seen[c.Key()] {
			return fmt.Errorf("%w: %s", ErrDuplicateControl, c.Key())
		}
		seen[c.Key()] = true
	}

	for _, c := range controls {
		v.controls[c.Key()] = c
		v.order = append(v.order, c)
		if v.opts.Observer != nil {
			v.cancels = append(v.cancels, c.Watch(v.opts.Observer))
		}
	}
	v.phase = phaseMounted
	return nil
}

// Change is the change event for the control at key: the widget now shows
// checked. If that is not a change, nothing happens and Change returns a nil
// channel. Otherwise the control is disabled before Change returns, the
// toggle runs in the background, and the returned channel receives its single
// Outcome. A change on a control whose update is still in flight fails with
// toggle.ErrControlDisabled and leaves it untouched.
func (v *View) Change(ctx context.Context, key toggle.Key, checked bool) (<-chan toggle.Outcome, error) {
	v.mu.Lock()
	switch v.phase {
	case phaseNew:
		v.mu.Unlock()
		return nil, ErrViewNotMounted
	case phaseUnmounted:
		v.mu.Unlock()
		return nil, ErrViewUnmounted
	}
	c, ok := v.controls[key]
	if !ok {
		v.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownControl, key)
	}
	v.inflight++
	v.mu.Unlock()

	started, err := c.Change(checked)
	if err != nil || !started {
		v.done()
		return nil, err
	}

	out := make(chan toggle.Outcome, 1)
	go func() {
		defer v.done()
		out <- v.toggler.HandleToggle(ctx, c, checked)
		close(out)
	}()
	return out, nil
}

func (v *View) done() {
	v.mu.Lock()
	v.inflight--
	if v.inflight == 0 {
		v.idle.Broadcast()
	}
	v.mu.Unlock()
}

// Control returns the mounted control at key.
func (v *View) Control(key toggle.Key) (*toggle.Control, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.controls[key]
	return c, ok
}

// Controls returns the mounted controls in mount order.
func (v *View) Controls() []*toggle.Control {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]*toggle.Control, len(v.order))
	copy(out, v.order)
	return out
}

// States returns a snapshot of every mounted control in mount order.
func (v *View) States() []toggle.State {
	controls := v.Controls()
	out := make([]toggle.State, 0, len(controls))
	for _, c := range controls {
		out = append(out, c.State())
	}
	return out
}

// Unmount detaches the observer and refuses further changes. Toggles already
// running are not cancelled; use Wait to let them finish.
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phase == phaseUnmounted {
		return
	}
	v.phase = phaseUnmounted
	for _, cancel := range v.cancels {
		cancel()
	}
	v.cancels = nil
}

// Wait blocks until every toggle started through the view has resolved.
// Changes made while Wait blocks are waited for too.
func (v *View) Wait() {
	v.mu.Lock()
	for v.inflight > 0 {
		v.idle.Wait()
	}
	v.mu.Unlock()
}
