package heal

import (
	"context"
	"log/slog"
	"time"

	"graft/internal/browser"
	"graft/internal/cache"
	"graft/internal/logging"
	"graft/internal/report"
	"graft/internal/suggest"
)

// Result is the outcome of one healing attempt.
type Result struct {
	Element browser.Element // resolved element, nil unless Healed
	Locator string          // expression that resolved, empty unless Healed
	Healed  bool
}

// Engine orchestrates healing for one test process. It owns attempt timing
// and event recording; collaborators are shared across all wrapped pages of
// the process.
type Engine struct {
	cache        *cache.Cache
	provider     suggest.Provider
	recorder     *report.Recorder
	logger       *slog.Logger
	enabled      bool
	validateWait time.Duration
}

// EngineOption configures an Engine during construction.
type EngineOption func(*Engine)

// WithValidateWait bounds each candidate's visibility check.
func WithValidateWait(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.validateWait = d
		}
	}
}

// WithLogger overrides the engine's logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine builds an Engine. With enabled false every Heal call is a
// zero-cost miss, so tests run untouched when no credential is configured.
// provider must be non-nil when enabled is true.
func NewEngine(c *cache.Cache, p suggest.Provider, rec *report.Recorder, enabled bool, opts ...EngineOption) *Engine {
	e := &Engine{
		cache:        c,
		provider:     p,
		recorder:     rec,
		logger:       logging.New("engine"),
		enabled:      enabled,
		validateWait: DefaultValidateWait,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enabled reports whether the engine will attempt healing at all.
func (e *Engine) Enabled() bool { return e.enabled }

// Heal looks for a working replacement for originalLocator on the page.
// cause is the error that failed the original action; its message is carried
// into the recorded event. A cache hit that validates returns without
// recording anything new: the event that produced the mapping already exists
// in the summary. All other outcomes, success or exhaustion, record exactly
// one event. A page whose markup cannot be captured ends the attempt with no
// event, since no candidate was ever in play.
func (e *Engine) Heal(ctx context.Context, page browser.Page, testName, originalLocator string, cause error) Result {
	if !e.enabled {
		return Result{}
	}

	if cached, ok := e.cache.Lookup(originalLocator); ok {
		if el, err := validate(page, cached, e.validateWait); err == nil {
			e.logger.InfoContext(ctx, "healed from cache",
				"test", testName, "original", originalLocator, "healed", cached)
			return Result{Element: el, Locator: cached, Healed: true}
		}
		e.cache.Evict(originalLocator)
		e.logger.DebugContext(ctx, "cached mapping stale, evicted",
			"original", originalLocator, "healed", cached)
	}

	start := time.Now()

	markup, err := page.Content()
	if err != nil {
		e.logger.WarnContext(ctx, "page markup unavailable, giving up",
			"test", testName, "original", originalLocator, "error", err)
		return Result{}
	}

	errMsg := ""
	if cause != nil {
		errMsg = cause.Error()
	}

	var attempted []string

	candidates, err := e.provider.SuggestFromMarkup(ctx, originalLocator, errMsg, markup)
	if err != nil {
		e.logger.WarnContext(ctx, "markup suggestion failed",
			"original", originalLocator, "error", err)
		candidates = nil
	}
	for _, cand := range candidates {
		attempted = append(attempted, cand)
		el, err := validate(page, cand, e.validateWait)
		if err != nil {
			e.logger.DebugContext(ctx, "candidate rejected", "candidate", cand, "error", err)
			continue
		}
		return e.succeed(ctx, el, testName, originalLocator, cand, errMsg, attempted, start)
	}

	// Vision pass, only reached when no markup candidate validated.
	if shot, err := page.Screenshot(); err != nil {
		e.logger.WarnContext(ctx, "screenshot unavailable, skipping vision pass",
			"original", originalLocator, "error", err)
	} else {
		visionCandidates, err := e.provider.SuggestFromImage(ctx, originalLocator, errMsg, shot)
		if err != nil {
			e.logger.WarnContext(ctx, "vision suggestion failed",
				"original", originalLocator, "error", err)
			visionCandidates = nil
		}
		seen := make(map[string]bool, len(attempted))
		for _, a := range attempted {
			seen[a] = true
		}
		for _, cand := range visionCandidates {
			if seen[cand] {
				continue
			}
			seen[cand] = true
			attempted = append(attempted, cand)
			el, err := validate(page, cand, e.validateWait)
			if err != nil {
				e.logger.DebugContext(ctx, "candidate rejected", "candidate", cand, "error", err)
				continue
			}
			return e.succeed(ctx, el, testName, originalLocator, cand, errMsg, attempted, start)
		}
	}

	e.recorder.Record(report.Event{
		Timestamp:         report.NowUTC(),
		TestName:          testName,
		OriginalLocator:   originalLocator,
		ErrorMessage:      errMsg,
		Success:           false,
		AttemptedLocators: attempted,
		HealingDurationMs: time.Since(start).Milliseconds(),
	})
	e.logger.InfoContext(ctx, "healing exhausted",
		"test", testName, "original", originalLocator, "attempted", len(attempted))
	return Result{}
}

func (e *Engine) succeed(ctx context.Context, el browser.Element, testName, original, healed, errMsg string, attempted []string, start time.Time) Result {
	e.cache.Record(original, healed)
	e.recorder.Record(report.Event{
		Timestamp:         report.NowUTC(),
		TestName:          testName,
		OriginalLocator:   original,
		HealedLocator:     healed,
		ErrorMessage:      errMsg,
		Success:           true,
		AttemptedLocators: attempted,
		HealingDurationMs: time.Since(start).Milliseconds(),
	})
	e.logger.InfoContext(ctx, "locator healed",
		"test", testName, "original", original, "healed", healed, "attempts", len(attempted))
	return Result{Element: el, Locator: healed, Healed: true}
}
