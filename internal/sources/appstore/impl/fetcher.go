package impl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bakkerme/reviewbot/internal/core"
	"github.com/tidwall/gjson"
)

const DefaultBaseURL = "https://itunes.apple.com"

type Fetcher struct {
	client      *http.Client
	baseURL     string
	appID       string
	userAgent   string
	maxBodySize int64
}

func NewFetcher(timeout time.Duration, userAgent, baseURL, appID string) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if userAgent == "" {
		userAgent = "reviewbot/0.1"
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		client:      &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		appID:       strings.TrimSpace(appID),
		userAgent:   userAgent,
		maxBodySize: 10 << 20, // 10 MiB
	}
}

func (f *Fetcher) FeedURL(locale string) string {
	return fmt.Sprintf("%s/%s/rss/customerreviews/id=%s/sortBy=mostRecent/json",
		f.baseURL, url.PathEscape(locale), url.PathEscape(f.appID))
}

func (f *Fetcher) Fetch(ctx context.Context, locale string) ([]core.Review, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return nil, fmt.Errorf("appstore: locale is required")
	}
	if f.appID == "" {
		return nil, fmt.Errorf("appstore: app id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.FeedURL(locale), nil)
	if err != nil {
		return nil, fmt.Errorf("appstore: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("appstore: fetch %s feed: %w", locale, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("appstore: read %s feed: %w", locale, err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, fmt.Errorf("appstore: %s feed too large", locale)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("appstore: %s feed returned status %d", locale, resp.StatusCode)
	}

	review, ok, err := ParseLatest(body, locale)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return []core.Review{review}, nil
}

// ParseLatest extracts feed.entry[0]. ok is false when the feed has no entries.
// The feed renders a single entry as an object rather than an array; both shapes are accepted.
func ParseLatest(body []byte, locale string) (core.Review, bool, error) {
	if !gjson.ValidBytes(body) {
		return core.Review{}, false, fmt.Errorf("appstore: %s feed is not valid json", locale)
	}
	entries := gjson.GetBytes(body, "feed.entry")
	var latest gjson.Result
	switch {
	case !entries.Exists():
		return core.Review{}, false, nil
	case entries.IsArray():
		list := entries.Array()
		if len(list) == 0 {
			return core.Review{}, false, nil
		}
		latest = list[0]
	case entries.IsObject():
		latest = entries
	default:
		return core.Review{}, false, fmt.Errorf("appstore: %s feed entry has unexpected type", locale)
	}

	id := latest.Get("id.label").String()
	if id == "" {
		return core.Review{}, false, fmt.Errorf("appstore: %s feed entry has no id", locale)
	}
	ratingLabel := strings.TrimSpace(latest.Get("im:rating.label").String())
	rating, err := strconv.Atoi(ratingLabel)
	if err != nil {
		return core.Review{}, false, fmt.Errorf("appstore: %s review %s has invalid rating %q", locale, id, ratingLabel)
	}

	return core.Review{
		Platform: core.PlatformIOS,
		ID:       id,
		Author:   latest.Get("author.name.label").String(),
		Rating:   rating,
		Title:    latest.Get("title.label").String(),
		Body:     latest.Get("content.label").String(),
		Locale:   locale,
		Version:  latest.Get("im:version.label").String(),
		Link:     linkHref(latest.Get("link")),
	}, true, nil
}

func linkHref(link gjson.Result) string {
	if link.IsArray() {
		for _, l := range link.Array() {
			if href := l.Get("attributes.href").String(); href != "" {
				return href
			}
		}
		return ""
	}
	return link.Get("attributes.href").String()
}
