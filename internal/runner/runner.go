package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bakkerme/reviewbot/internal/core"
	"github.com/bakkerme/reviewbot/internal/dedupe"
	"github.com/bakkerme/reviewbot/internal/format"
	"github.com/bakkerme/reviewbot/internal/observability/metrics"
	"github.com/bakkerme/reviewbot/internal/observability/otelx"
	"github.com/bakkerme/reviewbot/internal/rules"
	"github.com/bakkerme/reviewbot/internal/sources/appstore"
	"github.com/bakkerme/reviewbot/internal/sources/playstore"
	"github.com/bakkerme/reviewbot/internal/trigger"
)

// Notifier delivers one formatted review message.
type Notifier interface {
	Notify(ctx context.Context, platform core.Platform, locale, text string) error
}

// Trigger produces run events until its channel closes.
type Trigger interface {
	Start(ctx context.Context) (<-chan trigger.Event, error)
}

type Config struct {
	IOSLocales     []string
	IOSConcurrency int
	// DryRun never records ids as seen; pair it with a logging notifier.
	DryRun bool
}

type Deps struct {
	Android  playstore.Fetcher
	IOS      appstore.Fetcher
	Store    dedupe.SeenStore
	Notifier Notifier
	Rule     *rules.Rule
	Metrics  *metrics.Recorder
}

type Runner struct {
	logger *slog.Logger
	config Config
	deps   Deps
}

func New(logger *slog.Logger, config Config, deps Deps) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if config.IOSConcurrency <= 0 {
		config.IOSConcurrency = 1
	}
	return &Runner{logger: logger, config: config, deps: deps}
}

func (r *Runner) Validate() error {
	if r.deps.Store == nil {
		return fmt.Errorf("seen store is required")
	}
	if r.deps.Notifier == nil {
		return fmt.Errorf("notifier is required")
	}
	if r.deps.Android == nil && r.deps.IOS == nil {
		return fmt.Errorf("at least one review source is required")
	}
	return nil
}

// RunOnce polls both platforms once. Source and delivery failures are recorded in the
// report; only an invalid runner returns an error.
func (r *Runner) RunOnce(ctx context.Context) (*Report, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	report := &Report{
		RunID:     fmt.Sprintf("run-%d", time.Now().UnixNano()),
		StartedAt: time.Now().UTC(),
	}
	logger := r.logger.With("run_id", report.RunID)
	ctx = core.WithRunID(core.WithLogger(ctx, logger), report.RunID)
	ctx, span := otelx.Start(ctx, "reviewbot.run")

	var wg sync.WaitGroup
	if r.deps.Android != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Android = r.runAndroid(ctx)
		}()
	}
	if r.deps.IOS != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.IOS = r.runIOS(ctx)
		}()
	}
	wg.Wait()

	report.CompletedAt = time.Now().UTC()
	span.SetAttributes(
		attribute.Int("reviews.notified", report.Android.Notified+report.IOS.Notified),
		attribute.Int("reviews.failed", report.Android.Failed+report.IOS.Failed),
	)
	otelx.End(span, nil)

	logger.Info("run completed",
		"android_notified", report.Android.Notified,
		"ios_notified", report.IOS.Notified,
		"failed", report.Android.Failed+report.IOS.Failed,
		"duration", report.CompletedAt.Sub(report.StartedAt),
	)
	r.recordMetrics(ctx, report)
	return report, nil
}

// Start runs once per trigger event until the trigger's channel closes.
func (r *Runner) Start(ctx context.Context, trig Trigger) error {
	if err := r.Validate(); err != nil {
		return err
	}
	events, err := trig.Start(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			r.logger.Info("trigger event", "time", event.Timestamp)
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("run failed", "error", err)
			}
		}
	}
}

func (r *Runner) runAndroid(ctx context.Context) PlatformReport {
	logger := core.LoggerFromContext(ctx).With("platform", string(core.PlatformAndroid))
	ctx = core.WithLogger(ctx, logger)
	fetchCtx, span := otelx.Start(ctx, "reviewbot.android.fetch")
	reviews, err := r.deps.Android.Fetch(fetchCtx)
	otelx.End(span, err)
	if err != nil {
		logger.Error("could not fetch android reviews, skipping platform for this run", "error", err)
		return PlatformReport{FetchErrors: 1, Errors: []string{err.Error()}}
	}
	logger.Info("fetched android reviews", "count", len(reviews))
	report := r.process(ctx, reviews)
	report.Fetched = len(reviews)
	return report
}

func (r *Runner) runIOS(ctx context.Context) PlatformReport {
	locales := r.config.IOSLocales
	results := make([]PlatformReport, len(locales))
	sem := make(chan struct{}, r.config.IOSConcurrency)
	var wg sync.WaitGroup

loop:
	for i, locale := range locales {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = r.runLocale(ctx, locale)
		}()
	}
	wg.Wait()

	var total PlatformReport
	for _, res := range results {
		total.add(res)
	}
	return total
}

func (r *Runner) runLocale(ctx context.Context, locale string) PlatformReport {
	logger := core.LoggerFromContext(ctx).With("platform", string(core.PlatformIOS), "locale", locale)
	ctx = core.WithLogger(ctx, logger)
	fetchCtx, span := otelx.Start(ctx, "reviewbot.ios.fetch", attribute.String("locale", locale))
	reviews, err := r.deps.IOS.Fetch(fetchCtx, locale)
	otelx.End(span, err)
	if err != nil {
		logger.Warn("skipping locale because of fetch error", "error", err)
		return PlatformReport{FetchErrors: 1, Errors: []string{err.Error()}}
	}
	report := r.process(ctx, reviews)
	report.Fetched = len(reviews)
	return report
}

// process announces every new review in order. An id is recorded only after its message
// was delivered; a failed delivery leaves it unseen so the next run retries it.
func (r *Runner) process(ctx context.Context, reviews []core.Review) PlatformReport {
	var report PlatformReport
	logger := core.LoggerFromContext(ctx)

	fresh, err := dedupe.FilterNew(ctx, r.deps.Store, reviews)
	if err != nil {
		logger.Error("could not check seen reviews", "error", err)
		report.Errors = append(report.Errors, err.Error())
		return report
	}
	report.New = len(fresh)

	for _, review := range fresh {
		if ctx.Err() != nil {
			break
		}
		reviewLogger := logger.With("review_id", review.ID, "locale", review.Locale)

		matched, err := r.deps.Rule.Match(review)
		if err != nil {
			reviewLogger.Warn("review filter failed, sending review anyway", "error", err)
			matched = true
		}
		if !matched {
			reviewLogger.Info("review suppressed by filter", "filter", r.deps.Rule.String())
			report.Suppressed++
			continue
		}

		reviewLogger.Info("found new review", "author", review.Author, "rating", review.Rating)
		notifyCtx, span := otelx.Start(ctx, "reviewbot.notify",
			attribute.String("platform", string(review.Platform)),
			attribute.String("locale", review.Locale),
			attribute.String("review.id", review.ID),
		)
		err = r.deps.Notifier.Notify(notifyCtx, review.Platform, review.Locale, format.Message(review))
		otelx.End(span, err)
		if err != nil {
			reviewLogger.Error("could not send review, trying again next run", "error", err)
			report.Failed++
			report.Errors = append(report.Errors, err.Error())
			continue
		}
		report.Notified++

		if r.config.DryRun {
			continue
		}
		if err := r.deps.Store.MarkSeen(ctx, dedupe.ScopeOf(review), review.ID); err != nil {
			reviewLogger.Error("review sent but seen id not persisted, it may be sent again", "error", err)
			report.PersistErrors++
			report.Errors = append(report.Errors, err.Error())
			continue
		}
		reviewLogger.Debug("recorded review as seen")
	}
	return report
}

func (r *Runner) recordMetrics(ctx context.Context, report *Report) {
	if r.deps.Metrics == nil {
		return
	}
	r.deps.Metrics.Observe([]metrics.PlatformCounts{
		report.Android.counts(core.PlatformAndroid),
		report.IOS.counts(core.PlatformIOS),
	}, report.CompletedAt, report.CompletedAt.Sub(report.StartedAt))
	if err := r.deps.Metrics.Push(ctx); err != nil {
		r.logger.Warn("could not push metrics", "error", err)
	}
}
