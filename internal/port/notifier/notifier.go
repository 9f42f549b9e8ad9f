// Package notifier defines the user notification port and its registry.
package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a notifier is not properly configured.
var ErrNotConfigured = errors.New("notifier: not configured")

// Levels used by Notification.Level.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelError   = "error"
)

// Notification is the payload shown to the user through a Notifier.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
	Level   string `json:"level"`
	Source  string `json:"source"` // control key, e.g. "42:is_active"
}

// Capabilities declares how a notifier presents notifications.
type Capabilities struct {
	// Blocking notifiers return from Send only once the user has seen the
	// notification (an alert dialog, a "press Enter" prompt).
	Blocking bool `json:"blocking"`
	Color    bool `json:"color"`
}

// Notifier is the port interface for surfacing messages to the user.
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "terminal").
	Name() string

	// Capabilities returns how this notifier presents notifications.
	Capabilities() Capabilities

	// Send delivers a notification.
	Send(ctx context.Context, notification Notification) error
}
