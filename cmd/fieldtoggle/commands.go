package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/Strob0t/fieldtoggle/internal/domain/toggle"
	"github.com/Strob0t/fieldtoggle/internal/service"
)

// change is one requested field value.
type change struct {
	key   toggle.Key
	value bool
}

func (a *app) runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fields := fs.String("fields", "", "comma-separated field names to show (default: all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var only []string
	for _, f := range strings.Split(*fields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			only = append(only, f)
		}
	}

	_, controls, err := a.changelist(ctx, only)
	if err != nil {
		return err
	}
	if len(controls) == 0 {
		_, _ = fmt.Fprintln(a.stdout, "No inline-edit controls found.")
		return nil
	}

	states := make([]toggle.State, 0, len(controls))
	for _, c := range controls {
		states = append(states, c.State())
	}
	return a.renderer.RenderTable(a.stdout, states)
}

func (a *app) runSet(ctx context.Context, args []string) error {
	changes, err := parseSetArgs(args)
	if err != nil {
		return err
	}

	view, err := a.mount(ctx)
	if err != nil {
		return err
	}
	defer view.Unmount()

	return a.apply(ctx, view, changes)
}

func (a *app) runFlip(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("flip: at least one <player-id>:<field> is required")
	}
	keys := make([]toggle.Key, 0, len(args))
	seen := make(map[toggle.Key]bool, len(args))
	for _, arg := range args {
		k, err := toggle.ParseKey(arg)
		if err != nil {
			return fmt.Errorf("flip %q: %w", arg, err)
		}
		if seen[k] {
			return fmt.Errorf("flip: %w: %s", service.ErrDuplicateControl, k)
		}
		seen[k] = true
		keys = append(keys, k)
	}

	view, err := a.mount(ctx)
	if err != nil {
		return err
	}
	defer view.Unmount()

	changes := make([]change, 0, len(keys))
	for _, k := range keys {
		c, ok := view.Control(k)
		if !ok {
			return fmt.Errorf("flip: %w: %s", service.ErrUnknownControl, k)
		}
		changes = append(changes, change{key: k, value: !c.State().Checked})
	}
	return a.apply(ctx, view, changes)
}

// apply fires one change event per requested value, waits for all of them and
// prints the resulting table.
func (a *app) apply(ctx context.Context, view *service.View, changes []change) error {
	var pending []<-chan toggle.Outcome
	failed := 0
	for _, ch := range changes {
		out, err := view.Change(ctx, ch.key, ch.value)
		switch {
		case err != nil:
			a.log.Error("change not applied", "control", ch.key.String(), "error", err)
			failed++
		case out == nil:
			_, _ = fmt.Fprintf(a.stdout, "%s already %t\n", ch.key, ch.value)
		default:
			pending = append(pending, out)
		}
	}

	for _, out := range pending {
		if o := <-out; !o.OK() {
			failed++
		}
	}
	view.Wait()

	_, _ = fmt.Fprintln(a.stdout)
	if err := a.renderer.RenderTable(a.stdout, view.States()); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d: %w", failed, len(changes), errNotConfirmed)
	}
	return nil
}

func parseSetArgs(args []string) ([]change, error) {
	if len(args) == 0 || len(args)%3 != 0 {
		return nil, errors.New("set: expected <player-id> <field> <true|false> [...]")
	}
	changes := make([]change, 0, len(args)/3)
	seen := make(map[toggle.Key]bool, len(args)/3)
	for i := 0; i < len(args); i += 3 {
		v, err := strconv.ParseBool(args[i+2])
		if err != nil {
			return nil, fmt.Errorf("set: value %q: %w", args[i+2], err)
		}
		k, err := toggle.ParseKey(args[i] + ":" + args[i+1])
		if err != nil {
			return nil, fmt.Errorf("set: %w", err)
		}
		if seen[k] {
			return nil, fmt.Errorf("set: %w: %s", service.ErrDuplicateControl, k)
		}
		seen[k] = true
		changes = append(changes, change{key: k, value: v})
	}
	return changes, nil
}
