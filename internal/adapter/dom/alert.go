//go:build js

package dom

import (
	"context"

	hdom "honnef.co/go/js/dom"

	"github.com/Strob0t/fieldtoggle/internal/port/notifier"
)

const providerName = "alert"

func init() {
	notifier.Register(providerName, func(notifier.Options) (notifier.Notifier, error) {
		return NewAlertNotifier(hdom.GetWindow()), nil
	})
}

// AlertNotifier shows notifications with window.alert, which blocks until dismissed.
type AlertNotifier struct {
	win hdom.Window
}

// NewAlertNotifier creates an AlertNotifier for win.
func NewAlertNotifier(win hdom.Window) *AlertNotifier {
	return &AlertNotifier{win: win}
}

func (n *AlertNotifier) Name() string { return providerName }

func (n *AlertNotifier) Capabilities() notifier.Capabilities {
	return notifier.Capabilities{Blocking: true}
}

func (n *AlertNotifier) Send(_ context.Context, msg notifier.Notification) error {
	text := msg.Title
	if msg.Message != "" {
		text += "\n\n" + msg.Message
	}
	n.win.Alert(text)
	return nil
}
