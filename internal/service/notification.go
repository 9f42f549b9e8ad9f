// Package service contains application services.
package service

import (
	"context"
	"log/slog"

	"github.com/Strob0t/fieldtoggle/internal/port/notifier"
)

// NotificationService dispatches notifications to all registered notifiers.
type NotificationService struct {
	notifiers []notifier.Notifier
	log       *slog.Logger
}

// NewNotificationService creates a NotificationService with the given notifiers.
func NewNotificationService(notifiers []notifier.Notifier, log *slog.Logger) *NotificationService {
	if log == nil {
		log = slog.Default()
	}
	return &NotificationService{notifiers: notifiers, log: log}
}

// Notify sends a notification to every notifier in turn. Blocking notifiers
// hold up the caller until acknowledged. Errors are logged but do not
// interrupt delivery to other notifiers.
func (s *NotificationService) Notify(ctx context.Context, n notifier.Notification) {
	if s == nil {
		return
	}
	for _, provider := range s.notifiers {
		if err := provider.Send(ctx, n); err != nil {
			s.log.WarnContext(ctx, "notification send failed",
				"provider", provider.Name(),
				"title", n.Title,
				"error", err,
			)
			continue
		}
		s.log.DebugContext(ctx, "notification sent", "provider", provider.Name(), "title", n.Title)
	}
}

// NotifierCount returns the number of registered notifiers.
func (s *NotificationService) NotifierCount() int {
	return len(s.notifiers)
}
