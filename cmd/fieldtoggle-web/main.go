//go:build js

// Command fieldtoggle-web is the GopherJS bundle loaded by the player admin
// changelist. It wires the inline-edit checkboxes to the update endpoint.
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gopherjs/gopherjs/js"
	hdom "honnef.co/go/js/dom"

	"github.com/Strob0t/fieldtoggle/internal/adapter/dom"
	"github.com/Strob0t/fieldtoggle/internal/adapter/playeradmin"
	"github.com/Strob0t/fieldtoggle/internal/config"
	"github.com/Strob0t/fieldtoggle/internal/logger"
	"github.com/Strob0t/fieldtoggle/internal/port/notifier"
	"github.com/Strob0t/fieldtoggle/internal/service"
)

func main() {
	doc := hdom.GetWindow().Document()
	if js.Global.Get("document").Get("readyState").String() == "loading" {
		doc.AddEventListener("DOMContentLoaded", false, func(hdom.Event) { start(doc) })
		return
	}
	start(doc)
}

func start(doc hdom.Document) {
	cfg := config.Defaults()
	cfg.Endpoint.BaseURL = js.Global.Get("location").Get("origin").String()
	cfg.Logging.Level = "warn"

	log, _ := logger.New(cfg.Logging, os.Stderr)
	slog.SetDefault(log)

	// The browser attaches the session cookie and owns User-Agent.
	client := playeradmin.NewClient(cfg.Endpoint, playeradmin.WithHTTPClient(http.DefaultClient))

	alert, err := notifier.New("alert", notifier.Options{Blocking: true})
	if err != nil {
		log.Error("alert notifier", "error", err)
		return
	}
	svc := service.NewToggleService(client, dom.TokenFromDocument(doc),
		service.NewNotificationService([]notifier.Notifier{alert}, log),
		service.WithLogger(log),
		service.WithHighlightDelay(cfg.View.HighlightDelay),
		service.WithRequestTimeout(cfg.Endpoint.Timeout),
	)

	if _, err := dom.Bind(doc, svc, dom.Options{Logger: log}); err != nil {
		log.Warn("inline edit not bound", "error", err)
	}
}
