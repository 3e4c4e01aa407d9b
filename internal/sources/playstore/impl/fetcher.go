package impl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bakkerme/reviewbot/internal/core"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
)

const (
	DefaultBaseURL  = "https://www.googleapis.com/androidpublisher/v2/applications"
	DefaultTokenURL = "https://oauth2.googleapis.com/token"
	Scope           = "https://www.googleapis.com/auth/androidpublisher"
)

type Config struct {
	ClientEmail string
	PrivateKey  string
	PackageName string
	Timeout     time.Duration
	UserAgent   string
	// BaseURL and TokenURL default to the public Google endpoints.
	BaseURL  string
	TokenURL string
}

type Fetcher struct {
	client      *http.Client
	jwt         *jwt.Config
	baseURL     string
	packageName string
	userAgent   string
	maxBodySize int64
}

func NewFetcher(cfg Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	tokenURL := strings.TrimSpace(cfg.TokenURL)
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "reviewbot/0.1"
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		jwt: &jwt.Config{
			Email:      cfg.ClientEmail,
			PrivateKey: []byte(cfg.PrivateKey),
			Scopes:     []string{Scope},
			TokenURL:   tokenURL,
		},
		baseURL:     baseURL,
		packageName: cfg.PackageName,
		userAgent:   userAgent,
		maxBodySize: 10 << 20, // 10 MiB
	}
}

type reviewsResponse struct {
	Reviews []apiReview `json:"reviews"`
}

type apiReview struct {
	ReviewID   string       `json:"reviewId"`
	AuthorName string       `json:"authorName"`
	Comments   []apiComment `json:"comments"`
}

type apiComment struct {
	UserComment *userComment `json:"userComment"`
}

type userComment struct {
	Text             string `json:"text"`
	StarRating       int    `json:"starRating"`
	ReviewerLanguage string `json:"reviewerLanguage"`
	AppVersionName   string `json:"appVersionName"`
}

// Fetch authenticates with the service account and reads the first page of reviews.
func (f *Fetcher) Fetch(ctx context.Context) ([]core.Review, error) {
	if f.packageName == "" {
		return nil, fmt.Errorf("playstore: package name is required")
	}
	if f.jwt.Email == "" || len(f.jwt.PrivateKey) == 0 {
		return nil, fmt.Errorf("playstore: service account credentials are required")
	}

	// The token request and the API call share the timeout-bounded client.
	authCtx := context.WithValue(ctx, oauth2.HTTPClient, f.client)
	client := f.jwt.Client(authCtx)
	client.Timeout = f.client.Timeout

	endpoint := fmt.Sprintf("%s/%s/reviews", f.baseURL, url.PathEscape(f.packageName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("playstore: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("playstore: fetch reviews: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("playstore: read response: %w", err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, fmt.Errorf("playstore: response too large")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if msg != "" {
			msg = ": " + msg
		}
		return nil, fmt.Errorf("playstore: status %d%s", resp.StatusCode, msg)
	}

	var payload reviewsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("playstore: decode reviews: %w", err)
	}
	return toReviews(payload.Reviews), nil
}

func toReviews(items []apiReview) []core.Review {
	reviews := make([]core.Review, 0, len(items))
	for _, item := range items {
		if item.ReviewID == "" || len(item.Comments) == 0 || item.Comments[0].UserComment == nil {
			continue
		}
		comment := item.Comments[0].UserComment
		reviews = append(reviews, core.Review{
			Platform: core.PlatformAndroid,
			ID:       item.ReviewID,
			Author:   item.AuthorName,
			Rating:   comment.StarRating,
			Body:     comment.Text,
			Locale:   core.TwoLetterLocale(comment.ReviewerLanguage),
			Version:  comment.AppVersionName,
		})
	}
	return reviews
}
