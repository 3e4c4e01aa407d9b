package factory

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/bakkerme/reviewbot/internal/config"
	"github.com/bakkerme/reviewbot/internal/dedupe"
	"github.com/bakkerme/reviewbot/internal/observability/metrics"
	"github.com/bakkerme/reviewbot/internal/outputs/webhook"
	webhookimpl "github.com/bakkerme/reviewbot/internal/outputs/webhook/impl"
	"github.com/bakkerme/reviewbot/internal/rules"
	"github.com/bakkerme/reviewbot/internal/runner"
	"github.com/bakkerme/reviewbot/internal/sources/appstore"
	appstoreimpl "github.com/bakkerme/reviewbot/internal/sources/appstore/impl"
	"github.com/bakkerme/reviewbot/internal/sources/playstore"
	playstoreimpl "github.com/bakkerme/reviewbot/internal/sources/playstore/impl"
	"github.com/bakkerme/reviewbot/internal/trigger"
)

// Factory holds the adapters built from the environment. Tests swap fields before
// calling NewRunner.
type Factory struct {
	Logger          *slog.Logger
	Env             config.EnvConfig
	AndroidFetcher  playstore.Fetcher
	IOSFetcher      appstore.Fetcher
	WebhookSender   webhook.Sender
	Store           dedupe.SeenStore
	MetricsRecorder *metrics.Recorder
}

func NewFromEnvConfig(logger *slog.Logger, env config.EnvConfig) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	var sender webhook.Sender = webhookimpl.NewSender(env.HTTP.Timeout, env.HTTP.UserAgent, env.Webhook.URL)
	if env.DryRun {
		sender = webhook.LogSender{Logger: logger}
	}
	var recorder *metrics.Recorder
	if env.PushgatewayURL != "" {
		recorder = metrics.NewRecorder(env.PushgatewayURL)
	}
	return &Factory{
		Logger: logger,
		Env:    env,
		AndroidFetcher: playstoreimpl.NewFetcher(playstoreimpl.Config{
			ClientEmail: env.Google.ClientEmail,
			PrivateKey:  env.Google.PrivateKey,
			PackageName: env.Google.PackageName,
			Timeout:     env.HTTP.Timeout,
			UserAgent:   env.HTTP.UserAgent,
		}),
		IOSFetcher:      appstoreimpl.NewFetcher(env.HTTP.Timeout, env.HTTP.UserAgent, "", env.AppStore.AppID),
		WebhookSender:   sender,
		MetricsRecorder: recorder,
	}
}

// OpenStore opens the configured seen-id backend unless one was already injected.
func (f *Factory) OpenStore() (dedupe.SeenStore, error) {
	if f.Store != nil {
		return f.Store, nil
	}
	switch f.Env.StateBackend {
	case config.StateBackendSQLite:
		store, err := dedupe.NewSQLiteStore(filepath.Join(f.Env.DataDirectory, dedupe.SQLiteFileName), "")
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		f.Store = store
	case "", config.StateBackendFile:
		store, err := dedupe.NewFileStore(f.Logger, f.Env.DataDirectory, f.Env.AppStore.Locales)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		f.Store = store
	default:
		return nil, fmt.Errorf("unknown state backend %q", f.Env.StateBackend)
	}
	return f.Store, nil
}

func (f *Factory) NewRunner() (*runner.Runner, error) {
	store, err := f.OpenStore()
	if err != nil {
		return nil, err
	}
	rule, err := rules.Compile(f.Env.ReviewFilter)
	if err != nil {
		return nil, err
	}
	return runner.New(f.Logger, runner.Config{
		IOSLocales:     f.Env.AppStore.Locales,
		IOSConcurrency: f.Env.AppStore.Concurrency,
		DryRun:         f.Env.DryRun,
	}, runner.Deps{
		Android:  f.AndroidFetcher,
		IOS:      f.IOSFetcher,
		Store:    store,
		Notifier: webhook.NewNotifier(f.WebhookSender, f.Env.Webhook.IconBaseURL, f.Env.Webhook.UsernameSuffix),
		Rule:     rule,
		Metrics:  f.MetricsRecorder,
	}), nil
}

func (f *Factory) NewCronTrigger() *trigger.Cron {
	return trigger.NewCron(f.Env.Schedule, f.Env.Timezone)
}
