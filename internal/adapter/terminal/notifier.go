// Package terminal renders controls and surfaces alerts on a text terminal.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/Strob0t/fieldtoggle/internal/port/notifier"
)

const providerName = "terminal"

func init() {
	notifier.Register(providerName, func(opts notifier.Options) (notifier.Notifier, error) {
		return NewNotifier(os.Stderr, os.Stdin, opts.Blocking), nil
	})
}

// Notifier prints notifications and, when blocking on an interactive
// terminal, waits for the user to press Enter before returning.
type Notifier struct {
	mu       sync.Mutex
	out      io.Writer
	in       *bufio.Reader
	blocking bool
	tty      bool

	errColor *color.Color
	okColor  *color.Color
}

// NewNotifier creates a terminal notifier writing to out and acknowledging
// from in. It only blocks when in is a terminal.
func NewNotifier(out io.Writer, in io.Reader, blocking bool) *Notifier {
	return &Notifier{
		out:      out,
		in:       bufio.NewReader(in),
		blocking: blocking,
		tty:      isTerminal(in),
		errColor: color.New(color.FgRed, color.Bold),
		okColor:  color.New(color.FgGreen),
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int
}

func (n *Notifier) Name() string { return providerName }

func (n *Notifier) Capabilities() notifier.Capabilities {
	return notifier.Capabilities{
		Blocking: n.blocking && n.tty,
		Color:    !color.NoColor,
	}
}

// Send prints the notification. Alerts are serialized so concurrent failures
// are acknowledged one at a time.
func (n *Notifier) Send(ctx context.Context, msg notifier.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	line := msg.Title
	if msg.Message != "" {
		line += ": " + msg.Message
	}
	if msg.Source != "" {
		line = "[" + msg.Source + "] " + line
	}

	var err error
	switch msg.Level {
	case notifier.LevelError:
		_, err = n.errColor.Fprintln(n.out, line)
	case notifier.LevelSuccess:
		_, err = n.okColor.Fprintln(n.out, line)
	default:
		_, err = fmt.Fprintln(n.out, line)
	}
	if err != nil {
		return fmt.Errorf("terminal notify: %w", err)
	}

	if !n.blocking || !n.tty {
		return nil
	}
	return n.awaitEnter(ctx)
}

func (n *Notifier) awaitEnter(ctx context.Context) error {
	if _, err := fmt.Fprint(n.out, "press Enter to continue "); err != nil {
		return fmt.Errorf("terminal notify: %w", err)
	}
	done := make(chan error, 1)
	go func() {
		_, err := n.in.ReadString('\n')
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil && err != io.EOF {
			return fmt.Errorf("terminal notify: read: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
