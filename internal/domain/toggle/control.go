// Package toggle defines the inline-edit control entity and the value objects
// exchanged with the field update endpoint.
package toggle

import (
	"errors"
	"strings"
	"sync"
)

var (
	// ErrMissingRecordID is returned when a control has no record identifier.
	ErrMissingRecordID = errors.New("toggle: record id is required")
	// ErrMissingField is returned when a control has no field name.
	ErrMissingField = errors.New("toggle: field name is required")
	// ErrControlDisabled is returned when a disabled control is changed,
	// including while its update is in flight.
	ErrControlDisabled = errors.New("toggle: control is disabled")
)

// Key identifies one control: one boolean field of one record.
type Key struct {
	RecordID string `json:"record_id"`
	Field    string `json:"field"`
}

func (k Key) String() string { return k.RecordID + ":" + k.Field }

// ParseKey parses the "<record-id>:<field>" form produced by Key.String.
func ParseKey(s string) (Key, error) {
	id, field, ok := strings.Cut(s, ":")
	if !ok {
		return Key{}, ErrMissingField
	}
	k := Key{RecordID: strings.TrimSpace(id), Field: strings.TrimSpace(field)}
	if k.RecordID == "" {
		return Key{}, ErrMissingRecordID
	}
	if k.Field == "" {
		return Key{}, ErrMissingField
	}
	return k, nil
}

// State is a point-in-time snapshot of a Control.
type State struct {
	Key
	Label       string `json:"label,omitempty"`
	Checked     bool   `json:"checked"`
	Enabled     bool   `json:"enabled"`
	Highlighted bool   `json:"highlighted"`
	InFlight    bool   `json:"in_flight"`
}

// Control is a checkbox-like element bound to one boolean field of one record.
// It is safe for concurrent use.
type Control struct {
	key   Key
	label string

	mu          sync.Mutex
	checked     bool
	enabled     bool
	inFlight    bool
	highlighted bool
	nextWatch   int
	watchers    map[int]func(State)
}

// NewControl creates an enabled control. recordID and field come from the
// markup the control was rendered from and must both be present.
func NewControl(recordID, field string, checked bool) (*Control, error) {
	recordID = strings.TrimSpace(recordID)
	field = strings.TrimSpace(field)
	if recordID == "" {
		return nil, ErrMissingRecordID
	}
	if field == "" {
		return nil, ErrMissingField
	}
	return &Control{
		key:      Key{RecordID: recordID, Field: field},
		checked:  checked,
		enabled:  true,
		watchers: make(map[int]func(State)),
	}, nil
}

// WithLabel sets a human-readable label (e.g. the player's name) and returns c.
func (c *Control) WithLabel(label string) *Control {
	c.mu.Lock()
	c.label = label
	c.mu.Unlock()
	return c
}

// Key returns the control's identity.
func (c *Control) Key() Key { return c.key }

// State returns a snapshot of the control.
func (c *Control) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Change is the change event: the widget now shows v. If that differs from
// the current value, the control takes v, is disabled and has an update in
// flight, all in one step, so the event's value is the one the update sends.
// It reports whether an update was started. A disabled control ignores the
// event and keeps its value.
func (c *Control) Change(v bool) (started bool, err error) {
	c.mu.Lock()
	if !c.enabled || c.inFlight {
		c.mu.Unlock()
		return false, ErrControlDisabled
	}
	if c.checked == v {
		c.mu.Unlock()
		return false, nil
	}
	c.checked = v
	c.enabled = false
	c.inFlight = true
	s, fns := c.snapshotLocked()
	c.mu.Unlock()

	notify(fns, s)
	return true, nil
}

// Resolve ends the in-flight update, leaving the control enabled and showing v.
func (c *Control) Resolve(v bool) {
	c.mu.Lock()
	c.checked = v
	c.enabled = true
	c.inFlight = false
	s, fns := c.snapshotLocked()
	c.mu.Unlock()

	notify(fns, s)
}

// SetHighlighted applies or clears the transient confirmation highlight.
func (c *Control) SetHighlighted(on bool) {
	c.mu.Lock()
	if c.highlighted == on {
		c.mu.Unlock()
		return
	}
	c.highlighted = on
	s, fns := c.snapshotLocked()
	c.mu.Unlock()

	notify(fns, s)
}

// Watch registers fn to be called with a snapshot after every state change.
// The returned func unregisters it.
func (c *Control) Watch(fn func(State)) (cancel func()) {
	c.mu.Lock()
	id := c.nextWatch
	c.nextWatch++
	c.watchers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

func (c *Control) stateLocked() State {
	return State{
		Key:         c.key,
		Label:       c.label,
		Checked:     c.checked,
		Enabled:     c.enabled,
		Highlighted: c.highlighted,
		InFlight:    c.inFlight,
	}
}

// snapshotLocked must be called with c.mu held. Watchers run after unlock so
// they may read the control again.
func (c *Control) snapshotLocked() (State, []func(State)) {
	fns := make([]func(State), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	return c.stateLocked(), fns
}

func notify(fns []func(State), s State) {
	for _, fn := range fns {
		fn(s)
	}
}
