//go:build js

// Package dom binds the toggle controller to inline-edit checkboxes in a
// browser page. It is compiled with GopherJS.
package dom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gopherjs/gopherjs/js"
	hdom "honnef.co/go/js/dom"

	"github.com/Strob0t/fieldtoggle/internal/adapter/markup"
	"github.com/Strob0t/fieldtoggle/internal/domain/toggle"
	"github.com/Strob0t/fieldtoggle/internal/service"
)

// DefaultHighlightColor is the background shown behind a confirmed checkbox.
const DefaultHighlightColor = "#d4edda"

// ErrNoControls is returned by Bind when the page has no usable checkbox.
var ErrNoControls = errors.New("dom: no inline-edit checkboxes found")

// Options configures Bind.
type Options struct {
	CheckboxClass  string
	HighlightColor string
	Logger         *slog.Logger
}

type binding struct {
	input    *hdom.HTMLInputElement
	listener func(*js.Object)
}

// Bind attaches a change listener to every checkbox carrying the inline-edit
// class. Each change runs through t; element state follows control state,
// so the element is disabled while its request is in flight and reverted on
// failure. The returned func detaches the listeners.
func Bind(doc hdom.Document, t service.Toggler, opts Options) (unbind func(), err error) {
	if opts.CheckboxClass == "" {
		opts.CheckboxClass = markup.DefaultCheckboxClass
	}
	if opts.HighlightColor == "" {
		opts.HighlightColor = DefaultHighlightColor
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	bindings := make(map[toggle.Key]*binding)
	var controls []*toggle.Control
	for _, el := range doc.QuerySelectorAll("." + opts.CheckboxClass) {
		input, ok := el.(*hdom.HTMLInputElement)
		if !ok {
			continue
		}
		c, err := toggle.NewControl(input.GetAttribute("data-player-id"), input.GetAttribute("data-field"), input.Checked)
		if err != nil {
			opts.Logger.Warn("inline-edit checkbox skipped", "error", err)
			continue
		}
		if _, dup := bindings[c.Key()]; dup {
			opts.Logger.Warn("duplicate inline-edit checkbox skipped", "control", c.Key().String())
			continue
		}
		bindings[c.Key()] = &binding{input: input}
		controls = append(controls, c)
	}
	if len(controls) == 0 {
		return nil, ErrNoControls
	}

	view := service.NewView(t, service.ViewOptions{
		Observer: func(s toggle.State) {
			if b, ok := bindings[s.Key]; ok {
				mirror(b.input, s, opts.HighlightColor)
			}
		},
	})
	if err := view.Mount(controls...); err != nil {
		return nil, fmt.Errorf("dom: mount: %w", err)
	}

	for key, b := range bindings {
		key, input := key, b.input
		b.listener = input.AddEventListener("change", false, func(hdom.Event) {
			// Change disables the control before returning; the request runs
			// on its own goroutine.
			if _, err := view.Change(context.Background(), key, input.Checked); err != nil {
				opts.Logger.Debug("change ignored", "control", key.String(), "error", err)
				if c, ok := view.Control(key); ok {
					input.Checked = c.State().Checked
				}
			}
		})
	}

	return func() {
		for _, b := range bindings {
			if b.listener != nil {
				b.input.RemoveEventListener("change", false, b.listener)
			}
		}
		view.Unmount()
	}, nil
}

// mirror copies control state onto the element.
func mirror(input *hdom.HTMLInputElement, s toggle.State, highlight string) {
	input.Checked = s.Checked
	input.Disabled = !s.Enabled

	parent, ok := input.ParentElement().(hdom.HTMLElement)
	if !ok {
		return
	}
	if s.Highlighted {
		parent.Style().SetProperty("background-color", highlight, "")
	} else {
		parent.Style().RemoveProperty("background-color")
	}
}
