package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the optional reviewbot.yaml overlay. Credentials are never read from it.
type Document struct {
	IOS      IOSDocument     `yaml:"ios,omitempty"`
	Webhook  WebhookDocument `yaml:"webhook,omitempty"`
	Filter   string          `yaml:"filter,omitempty"`
	Schedule string          `yaml:"schedule,omitempty"`
	Timezone string          `yaml:"timezone,omitempty"`
}

type IOSDocument struct {
	Locales     []string `yaml:"locales,omitempty"`
	Concurrency int      `yaml:"concurrency,omitempty"`
}

type WebhookDocument struct {
	IconBaseURL    string `yaml:"icon_base_url,omitempty"`
	UsernameSuffix string `yaml:"username_suffix,omitempty"`
}

func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config document: %w", err)
	}
	return ParseDocument(data)
}

func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) Validate() error {
	seen := map[string]bool{}
	for _, locale := range d.IOS.Locales {
		locale = strings.ToLower(strings.TrimSpace(locale))
		if len(locale) != 2 {
			return fmt.Errorf("ios locale %q must be a two letter code", locale)
		}
		if seen[locale] {
			return fmt.Errorf("ios locale %q listed twice", locale)
		}
		seen[locale] = true
	}
	if d.IOS.Concurrency < 0 {
		return fmt.Errorf("ios concurrency must be >= 0")
	}
	return nil
}

// Apply fills fields the environment left empty.
func (d *Document) Apply(cfg EnvConfig) EnvConfig {
	if d == nil {
		return cfg
	}
	if len(cfg.AppStore.Locales) == 0 && len(d.IOS.Locales) > 0 {
		cfg.AppStore.Locales = splitList(strings.Join(d.IOS.Locales, ","))
	}
	if cfg.AppStore.Concurrency <= 0 {
		cfg.AppStore.Concurrency = d.IOS.Concurrency
	}
	if cfg.Webhook.IconBaseURL == "" {
		cfg.Webhook.IconBaseURL = strings.TrimSpace(d.Webhook.IconBaseURL)
	}
	if cfg.Webhook.UsernameSuffix == "" {
		cfg.Webhook.UsernameSuffix = d.Webhook.UsernameSuffix
	}
	if cfg.ReviewFilter == "" {
		cfg.ReviewFilter = strings.TrimSpace(d.Filter)
	}
	if cfg.Schedule == "" {
		cfg.Schedule = strings.TrimSpace(d.Schedule)
	}
	if cfg.Timezone == "" {
		cfg.Timezone = strings.TrimSpace(d.Timezone)
	}
	return cfg
}
