package terminal

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/Strob0t/fieldtoggle/internal/domain/toggle"
)

// Renderer draws control states as text.
type Renderer struct {
	highlight *color.Color
	failed    *color.Color
}

// NewRenderer creates a renderer. Highlighted rows use a green background.
func NewRenderer() *Renderer {
	return &Renderer{
		highlight: color.New(color.BgGreen, color.FgBlack),
		failed:    color.New(color.FgRed),
	}
}

// RenderTable writes one row per control. The STATE column is last so the
// highlight escape codes do not disturb column alignment.
func (r *Renderer) RenderTable(w io.Writer, states []toggle.State) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "RECORD\tLABEL\tFIELD\tVALUE\tSTATE"); err != nil {
		return err
	}
	for _, s := range states {
		state := stateLabel(s)
		if s.Highlighted {
			state = r.highlight.Sprint(state)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.RecordID, s.Label, s.Field, strconv.FormatBool(s.Checked), state); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func stateLabel(s toggle.State) string {
	switch {
	case s.InFlight:
		return "updating..."
	case s.Highlighted:
		return "saved"
	case !s.Enabled:
		return "disabled"
	default:
		return "ready"
	}
}

// Live returns an observer for toggle.Control.Watch that prints one line per
// meaningful transition: the request going out, the confirmation and the revert.
func (r *Renderer) Live(w io.Writer) func(toggle.State) {
	var mu sync.Mutex
	desired := make(map[toggle.Key]bool)
	pending := make(map[toggle.Key]bool)

	return func(s toggle.State) {
		mu.Lock()
		defer mu.Unlock()

		switch {
		case s.InFlight && !pending[s.Key]:
			pending[s.Key] = true
			desired[s.Key] = s.Checked
			_, _ = fmt.Fprintf(w, "%s  %s -> %t  updating...\n", s.Label, s.Key, s.Checked)
		case !s.InFlight && pending[s.Key]:
			delete(pending, s.Key)
			if s.Checked != desired[s.Key] {
				_, _ = r.failed.Fprintf(w, "%s  %s = %t  reverted\n", s.Label, s.Key, s.Checked)
			}
		case s.Highlighted:
			_, _ = r.highlight.Fprintf(w, "%s  %s = %t  confirmed", s.Label, s.Key, s.Checked)
			_, _ = fmt.Fprintln(w)
		}
	}
}
