package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultIOSLocales is the ordered set of App Store storefronts polled for reviews.
var DefaultIOSLocales = []string{"de", "fr", "nl", "be", "it", "es", "pl", "ch", "at", "dk", "cz", "se"}

const (
	defaultIOSConcurrency = 4
	defaultIconBaseURL    = "https://github.com/eiselems/eiselems.github.io/blob/images/stuff"
	defaultUsernameSuffix = "-ReviewBot"

	StateBackendFile   = "file"
	StateBackendSQLite = "sqlite"
)

type EnvConfig struct {
	ConfigPath     string
	DataDirectory  string
	RunOnce        bool
	DryRun         bool
	Schedule       string
	Timezone       string
	StateBackend   string
	ReviewFilter   string
	PushgatewayURL string
	Log            LogEnvConfig
	HTTP           HTTPEnvConfig
	Google         GoogleEnvConfig
	AppStore       AppStoreEnvConfig
	Webhook        WebhookEnvConfig
	OTel           OTelEnvConfig
}

type LogEnvConfig struct {
	Level  string
	Format string
}

type HTTPEnvConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// GoogleEnvConfig holds the service account used against the Play Developer API.
type GoogleEnvConfig struct {
	ClientEmail string
	PrivateKey  string
	PackageName string
}

type AppStoreEnvConfig struct {
	AppID       string
	Locales     []string
	Concurrency int
}

type WebhookEnvConfig struct {
	URL            string
	IconBaseURL    string
	UsernameSuffix string
}

type OTelEnvConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Protocol    string // "grpc" or "http/protobuf"
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

// Load reads the environment, overlays the optional YAML document and validates the result.
func Load() (EnvConfig, error) {
	cfg := LoadEnv()
	if cfg.ConfigPath != "" {
		doc, err := LoadDocument(cfg.ConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = doc.Apply(cfg)
	}
	cfg = cfg.withDefaults()
	return cfg, cfg.Validate()
}

func LoadEnv() EnvConfig {
	otlpEndpoint := strings.TrimSpace(envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""))

	return EnvConfig{
		ConfigPath:     envString("REVIEWBOT_CONFIG", ""),
		DataDirectory:  envString("DATA_DIRECTORY", ""),
		RunOnce:        envBool("RUN_ONCE", false),
		DryRun:         envBool("DRY_RUN", false),
		Schedule:       envString("SCHEDULE", ""),
		Timezone:       envString("TIMEZONE", ""),
		StateBackend:   strings.ToLower(envString("STATE_BACKEND", "")),
		ReviewFilter:   envString("REVIEW_FILTER", ""),
		PushgatewayURL: envString("PUSHGATEWAY_URL", ""),
		Log: LogEnvConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "text"),
		},
		HTTP: HTTPEnvConfig{
			Timeout:   envDuration("HTTP_TIMEOUT", 15*time.Second),
			UserAgent: envString("USER_AGENT", "reviewbot/0.1"),
		},
		Google: GoogleEnvConfig{
			ClientEmail: envString("GOOGLE_CLIENT_EMAIL", ""),
			PrivateKey:  normalizePrivateKey(os.Getenv("GOOGLE_CLIENT_PRIVATEKEY")),
			PackageName: envString("ANDROID_PACKAGENAME", ""),
		},
		AppStore: AppStoreEnvConfig{
			AppID:       envString("IOS_APPID", ""),
			Locales:     envList("IOS_LOCALES"),
			Concurrency: envInt("IOS_CONCURRENCY", 0),
		},
		Webhook: WebhookEnvConfig{
			URL:            envString("MM_WEBHOOK_URL", ""),
			IconBaseURL:    envString("WEBHOOK_ICON_BASE_URL", ""),
			UsernameSuffix: envString("WEBHOOK_USERNAME_SUFFIX", ""),
		},
		OTel: OTelEnvConfig{
			Enabled:     envBool("OTEL_ENABLED", false),
			ServiceName: strings.TrimSpace(envString("OTEL_SERVICE_NAME", "reviewbot")),
			Endpoint:    otlpEndpoint,
			Protocol:    strings.ToLower(strings.TrimSpace(envString("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			Headers:     parseHeaders(envString("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", defaultInsecure(otlpEndpoint)),
			SampleRatio: clamp01(envFloat("OTEL_TRACES_SAMPLE_RATIO", 1.0)),
		},
	}
}

func (c EnvConfig) withDefaults() EnvConfig {
	if c.StateBackend == "" {
		c.StateBackend = StateBackendFile
	}
	if len(c.AppStore.Locales) == 0 {
		c.AppStore.Locales = append([]string(nil), DefaultIOSLocales...)
	}
	if c.AppStore.Concurrency <= 0 {
		c.AppStore.Concurrency = defaultIOSConcurrency
	}
	if c.Webhook.IconBaseURL == "" {
		c.Webhook.IconBaseURL = defaultIconBaseURL
	}
	if c.Webhook.UsernameSuffix == "" {
		c.Webhook.UsernameSuffix = defaultUsernameSuffix
	}
	return c
}

// Validate reports every missing required variable at once.
func (c EnvConfig) Validate() error {
	var errs []error
	required := []struct {
		name  string
		value string
	}{
		{"GOOGLE_CLIENT_EMAIL", c.Google.ClientEmail},
		{"GOOGLE_CLIENT_PRIVATEKEY", strings.TrimSpace(c.Google.PrivateKey)},
		{"ANDROID_PACKAGENAME", c.Google.PackageName},
		{"IOS_APPID", c.AppStore.AppID},
		{"MM_WEBHOOK_URL", c.Webhook.URL},
		{"DATA_DIRECTORY", c.DataDirectory},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.name))
		}
	}
	if c.Webhook.URL != "" {
		u, err := url.Parse(c.Webhook.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("MM_WEBHOOK_URL must be an absolute http(s) url"))
		}
	}
	switch c.StateBackend {
	case "", StateBackendFile, StateBackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported STATE_BACKEND %q (expected file or sqlite)", c.StateBackend))
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("invalid TIMEZONE: %w", err))
		}
	}
	for _, locale := range c.AppStore.Locales {
		if len(locale) != 2 {
			errs = append(errs, fmt.Errorf("IOS_LOCALES entry %q must be a two letter code", locale))
		}
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// normalizePrivateKey turns literal "\n" sequences, common when a PEM key is stored in a
// single-line env var, into real newlines.
func normalizePrivateKey(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, `"`)
	return strings.ReplaceAll(raw, `\n`, "\n")
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string) []string {
	return splitList(os.Getenv(key))
}

// splitList lowercases a comma separated list and drops blanks and repeats, keeping order.
func splitList(raw string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func parseHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func defaultInsecure(endpoint string) bool {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return true
	}
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return false
		}
		return u.Scheme == "http"
	}
	return strings.HasPrefix(endpoint, "localhost:") ||
		strings.HasPrefix(endpoint, "127.0.0.1:") ||
		strings.HasPrefix(endpoint, "0.0.0.0:")
}
