package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Strob0t/fieldtoggle/internal/adapter/csrf"
	"github.com/Strob0t/fieldtoggle/internal/adapter/markup"
	"github.com/Strob0t/fieldtoggle/internal/adapter/otel"
	"github.com/Strob0t/fieldtoggle/internal/adapter/playeradmin"
	"github.com/Strob0t/fieldtoggle/internal/adapter/ristretto"
	"github.com/Strob0t/fieldtoggle/internal/adapter/terminal"
	"github.com/Strob0t/fieldtoggle/internal/config"
	"github.com/Strob0t/fieldtoggle/internal/domain/toggle"
	"github.com/Strob0t/fieldtoggle/internal/logger"
	"github.com/Strob0t/fieldtoggle/internal/port/notifier"
	"github.com/Strob0t/fieldtoggle/internal/port/token"
	"github.com/Strob0t/fieldtoggle/internal/resilience"
	"github.com/Strob0t/fieldtoggle/internal/service"
)

// app holds the wired dependencies shared by all commands.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	stdout   io.Writer
	client   *playeradmin.Client
	tokens   token.Provider
	alerts   *service.NotificationService
	breaker  *resilience.Breaker
	pool     *resilience.Pool
	metrics  *otel.Metrics
	renderer *terminal.Renderer
	closers  []func()
}

func newApp(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) (*app, error) {
	log, logCloser := logger.New(cfg.Logging, stderr)
	slog.SetDefault(log)
	a := &app{
		cfg:      cfg,
		log:      log,
		stdout:   stdout,
		renderer: terminal.NewRenderer(),
		closers:  []func(){logCloser.Close},
	}

	shutdown, err := otel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn("telemetry shutdown", "error", err)
		}
	})

	a.metrics, err = otel.NewMetrics()
	if err != nil {
		a.close()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	a.client = playeradmin.NewClient(cfg.Endpoint, playeradmin.WithCheckboxClass(cfg.View.CheckboxClass))

	switch cfg.Token.Source {
	case "static":
		a.tokens = csrf.Static(cfg.Token.Value)
	default:
		cache, err := ristretto.New(cfg.Token.CacheMaxBytes)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("token cache: %w", err)
		}
		a.closers = append(a.closers, cache.Close)
		a.tokens = csrf.NewPageProvider(a.client, cache, a.client.ChangelistURL(), cfg.Token.CacheTTL)
	}

	n, err := notifier.New(cfg.Notifier.Provider, notifier.Options{Blocking: cfg.Notifier.Blocking})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("notifier: %w", err)
	}
	a.alerts = service.NewNotificationService([]notifier.Notifier{n}, log)

	a.breaker = resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout,
		resilience.WithFailurePredicate(playeradmin.IsOutage),
		resilience.WithStateChange(func(from, to resilience.State) {
			log.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
		}),
	)

	a.pool = resilience.NewPool(cfg.Endpoint.MaxConcurrent)

	log.Debug("config loaded",
		"base_url", cfg.Endpoint.BaseURL,
		"token_source", cfg.Token.Source,
		"notifier", n.Name(),
	)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// changelist fetches the page and builds one control per rendered checkbox
// that belongs to a configured field.
func (a *app) changelist(ctx context.Context, fields []string) (*markup.Page, []*toggle.Control, error) {
	page, err := a.client.Changelist(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch changelist: %w", err)
	}
	for _, s := range page.Skipped {
		a.log.Warn("inline-edit checkbox without metadata skipped", "input", s.String())
	}

	if len(fields) == 0 {
		fields = a.cfg.View.Fields
	}
	var controls []*toggle.Control
	for _, spec := range page.Filter(fields) {
		if spec.Disabled {
			a.log.Debug("read-only control skipped", "record", spec.RecordID, "field", spec.Field)
			continue
		}
		c, err := spec.Control()
		if err != nil {
			return nil, nil, fmt.Errorf("build control: %w", err)
		}
		controls = append(controls, c)
	}
	return page, controls, nil
}

// mount builds a view over the changelist's controls. The page's token seeds
// the token provider so the first update needs no second fetch.
func (a *app) mount(ctx context.Context) (*service.View, error) {
	page, controls, err := a.changelist(ctx, nil)
	if err != nil {
		return nil, err
	}

	tokens := a.tokens
	if a.cfg.Token.Source != "static" {
		tokens = csrf.Seeded(a.tokens, page.Token)
	}

	svc := service.NewToggleService(a.client, tokens, a.alerts,
		service.WithBreaker(a.breaker),
		service.WithPool(a.pool),
		service.WithMetrics(a.metrics),
		service.WithLogger(a.log),
		service.WithHighlightDelay(a.cfg.View.HighlightDelay),
		service.WithRequestTimeout(a.cfg.Endpoint.Timeout),
	)
	view := service.NewView(svc, service.ViewOptions{Observer: a.renderer.Live(a.stdout)})
	if err := view.Mount(controls...); err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}
	return view, nil
}
