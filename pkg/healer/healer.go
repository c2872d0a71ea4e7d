// Package healer wraps browser pages so that locator-based test actions
// survive UI drift. Every operation first runs against the original locator
// with a short fail-fast timeout; only when that fails does the healing
// engine look for a replacement, and a successful replacement replays the
// action transparently. Without a configured credential the wrapper is pure
// pass-through with zero added latency.
package healer

import (
	"log/slog"

	"graft/internal/browser"
	"graft/internal/cache"
	"graft/internal/config"
	"graft/internal/heal"
	"graft/internal/logging"
	"graft/internal/report"
	"graft/internal/suggest"
)

// Healer owns the process-scoped healing state: the candidate cache seeded
// from the cumulative summary, the suggestion client and the run recorder.
// One Healer serves every page of a test process; Close flushes the run file.
type Healer struct {
	cfg      *config.Config
	cache    *cache.Cache
	recorder *report.Recorder
	engine   *heal.Engine
	logger   *slog.Logger
}

// Option configures a Healer during construction.
type Option func(*options)

type options struct {
	provider suggest.Provider
}

// WithProvider replaces the default chat completions client and enables
// healing regardless of credential configuration. Meant for tests and
// self-hosted gateways.
func WithProvider(p suggest.Provider) Option {
	return func(o *options) { o.provider = p }
}

// New builds a Healer from cfg. A nil cfg means defaults, which carry no
// credential, so healing stays disabled. An unreadable summary seeds an
// empty cache; it never blocks startup.
func New(cfg *config.Config, opts ...Option) (*Healer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger := logging.New("healer")

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := cache.New()
	sum, err := report.ReadSummary(cfg.ReportsDir)
	if err != nil {
		logger.Warn("summary unreadable, cache starts empty", "dir", cfg.ReportsDir, "error", err)
	} else if n := c.Seed(sum); n > 0 {
		logger.Debug("cache seeded from summary", "mappings", n)
	}

	rec := report.NewRecorder(cfg.ReportsDir)

	provider := o.provider
	enabled := provider != nil
	if provider == nil {
		if key := cfg.ResolvedAPIKey(); key != "" {
			client, err := suggest.New(cfg.BaseURL, key,
				suggest.WithModel(cfg.Model),
				suggest.WithVisionModel(cfg.VisionModel),
				suggest.WithTimeout(cfg.RequestTimeout()),
				suggest.WithMaxMarkupBytes(cfg.MaxMarkupBytes),
				suggest.WithLogger(logging.New("suggest")),
			)
			if err != nil {
				return nil, err
			}
			provider = client
			enabled = true
		}
	}
	if !enabled {
		logger.Debug("no credential configured, healing disabled")
	}

	engine := heal.NewEngine(c, provider, rec, enabled,
		heal.WithValidateWait(cfg.ValidateTimeout()))

	return &Healer{
		cfg:      cfg,
		cache:    c,
		recorder: rec,
		engine:   engine,
		logger:   logger,
	}, nil
}

// Wrap intercepts locator-based operations on page. testName attributes the
// events this page records.
func (h *Healer) Wrap(page browser.Page, testName string) *Page {
	return &Page{
		page:          page,
		engine:        h.engine,
		testName:      testName,
		actionTimeout: h.cfg.ActionTimeout(),
	}
}

// Enabled reports whether healing is active for this process.
func (h *Healer) Enabled() bool { return h.engine.Enabled() }

// Close flushes the run recorder. It returns the written run file path, or
// "" when no healing events were recorded.
func (h *Healer) Close() (string, error) {
	return h.recorder.Flush()
}
