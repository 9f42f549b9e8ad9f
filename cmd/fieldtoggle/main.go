// Command fieldtoggle flips boolean fields on player records through the
// admin site's inline-edit endpoint, one independent request per field.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Strob0t/fieldtoggle/internal/config"
)

// errNotConfirmed is returned when at least one toggle did not go through.
// The details have already been shown, so main only sets the exit code.
var errNotConfirmed = errors.New("not all changes were confirmed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, errNotConfirmed) && !errors.Is(err, flag.ErrHelp) {
			slog.Error("fatal", "error", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fieldtoggle", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", config.DefaultConfigFile, "path to the YAML config file")
	fs.Usage = func() { printHelp(stderr) }
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 || rest[0] == "help" || rest[0] == "--help" {
		printHelp(stderr)
		return nil
	}

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := newApp(ctx, cfg, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.close()

	switch rest[0] {
	case "list":
		return a.runList(ctx, rest[1:])
	case "set":
		return a.runSet(ctx, rest[1:])
	case "flip":
		return a.runFlip(ctx, rest[1:])
	default:
		printHelp(stderr)
		return fmt.Errorf("unknown command: %s", rest[0])
	}
}

func printHelp(w io.Writer) {
	_, _ = fmt.Fprintf(w, `Usage: fieldtoggle [-config path] <command> [options]

Commands:
  list    Show the inline-edit controls on the player changelist
  set     Set fields to explicit values
  flip    Invert the current value of fields
  help    Show this help message

Examples:
  fieldtoggle list
  fieldtoggle list -fields draftable
  fieldtoggle set 42 attended_try_out true
  fieldtoggle set 42 draftable false 43 draftable false
  fieldtoggle flip 42:draftable 43:attended_try_out
`)
}
