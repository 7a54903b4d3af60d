package main

import (
	"context"
	"fmt"

	"github.com/leofalp/sitesummarizer/core/settings"
	"github.com/leofalp/sitesummarizer/core/summarizer"
	"github.com/leofalp/sitesummarizer/internal/config"
	"github.com/leofalp/sitesummarizer/providers/ai/gemini"
	"github.com/leofalp/sitesummarizer/providers/ai/openai"
	"github.com/leofalp/sitesummarizer/providers/keyvault"
	"github.com/leofalp/sitesummarizer/providers/observability"
	"github.com/leofalp/sitesummarizer/providers/observability/slogobs"
	"github.com/leofalp/sitesummarizer/providers/page"
	"github.com/leofalp/sitesummarizer/providers/sink"
	"github.com/leofalp/sitesummarizer/providers/store/inmemory"
	"github.com/leofalp/sitesummarizer/providers/store/sqlite"
)

// app holds everything a command needs. Sessions live in memory and are lost
// when the process exits; settings persist in SQLite.
type app struct {
	cfg        config.Config
	observer   *slogobs.Observer
	kv         *sqlite.Store
	sessions   *inmemory.Store
	hub        *sink.Hub
	settings   *settings.Service
	summarizer *summarizer.Summarizer
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	observer, err := newObserver(cfg)
	if err != nil {
		return nil, err
	}

	kv, err := sqlite.New(ctx, cfg.DBPath, observer.Logger())
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}

	vault, err := keyvault.New(cfg.KeyPassphrase)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	settingsSvc := settings.New(kv, vault)

	// seal a legacy plaintext key before any command reads settings
	migrateCtx := observability.ContextWithObserver(ctx, observer)
	if _, err := settingsSvc.MigratePlainKey(migrateCtx); err != nil {
		observer.Warn(migrateCtx, "API key migration failed", observability.Error(err))
	}

	defaults, err := cfg.Providers()
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	// a provider missing from the defaults keeps its built-in URL and model
	openaiDefaults, geminiDefaults := defaults["openai"], defaults["gemini"]
	openaiProvider := openai.New().
		WithBaseURL(openaiDefaults.BaseURL).
		WithDefaultModel(openaiDefaults.DefaultModel)
	geminiProvider := gemini.New().
		WithBaseURL(geminiDefaults.BaseURL).
		WithDefaultModel(geminiDefaults.DefaultModel)

	sessions := inmemory.New()
	hub := sink.NewHub()
	extractor := page.NewHTTPExtractor().WithTimeout(cfg.FetchTimeout)

	summ := summarizer.New(extractor, sessions, hub,
		summarizer.WithProvider(openaiProvider),
		summarizer.WithProvider(geminiProvider),
		summarizer.WithSettings(settingsSvc),
		summarizer.WithObserver(observer),
	)

	return &app{
		cfg:        cfg,
		observer:   observer,
		kv:         kv,
		sessions:   sessions,
		hub:        hub,
		settings:   settingsSvc,
		summarizer: summ,
	}, nil
}

func newObserver(cfg config.Config) (*slogobs.Observer, error) {
	format, err := slogobs.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	level, err := slogobs.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return slogobs.New(slogobs.WithFormat(format), slogobs.WithLevel(level)), nil
}

func (a *app) Close() error {
	return a.kv.Close()
}
