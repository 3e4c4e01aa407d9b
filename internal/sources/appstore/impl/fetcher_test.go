package impl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bakkerme/reviewbot/internal/core"
)

const feedJSON = `{
  "feed": {
    "author": {"name": {"label": "iTunes Store"}},
    "entry": [
      {
        "author": {"name": {"label": "Kunde"}, "uri": {"label": "https://itunes.apple.com/de/reviews/id1"}},
        "im:version": {"label": "2.3.1"},
        "im:rating": {"label": "4"},
        "id": {"label": "i1"},
        "title": {"label": "Gut"},
        "content": {"label": "Funktioniert *gut*", "attributes": {"type": "text"}},
        "link": {"attributes": {"rel": "related", "href": "https://itunes.apple.com/de/review?id=1029372196&type=Purple%20Software"}}
      },
      {
        "author": {"name": {"label": "Older"}},
        "im:version": {"label": "2.3.0"},
        "im:rating": {"label": "1"},
        "id": {"label": "i0"},
        "title": {"label": "Old"},
        "content": {"label": "ignored"}
      }
    ]
  }
}`

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestFetcherReturnsMostRecentEntryOnly(t *testing.T) {
	var gotPath string
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(feedJSON))
	})
	fetcher := NewFetcher(2*time.Second, "", server.URL, "1029372196")

	reviews, err := fetcher.Fetch(context.Background(), "de")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if gotPath != "/de/rss/customerreviews/id=1029372196/sortBy=mostRecent/json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if len(reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(reviews))
	}
	want := core.Review{
		Platform: core.PlatformIOS,
		ID:       "i1",
		Author:   "Kunde",
		Rating:   4,
		Title:    "Gut",
		Body:     "Funktioniert *gut*",
		Locale:   "de",
		Version:  "2.3.1",
		Link:     "https://itunes.apple.com/de/review?id=1029372196&type=Purple%20Software",
	}
	if reviews[0] != want {
		t.Fatalf("unexpected review: %+v", reviews[0])
	}
}

func TestFetcherSkipsFeedWithoutEntries(t *testing.T) {
	bodies := []string{
		`{"feed": {"author": {"name": {"label": "iTunes Store"}}}}`,
		`{"feed": {"entry": []}}`,
	}
	for _, body := range bodies {
		body := body
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		fetcher := NewFetcher(2*time.Second, "", server.URL, "1")

		reviews, err := fetcher.Fetch(context.Background(), "fr")
		if err != nil {
			t.Fatalf("fetch(%s) failed: %v", body, err)
		}
		if len(reviews) != 0 {
			t.Fatalf("expected no reviews for %s, got %+v", body, reviews)
		}
	}
}

func TestParseLatestAcceptsSingleEntryObject(t *testing.T) {
	body := []byte(`{"feed": {"entry": {"id": {"label": "only"}, "im:rating": {"label": "3"}, "author": {"name": {"label": "X"}}}}}`)

	review, ok, err := ParseLatest(body, "nl")
	if err != nil || !ok {
		t.Fatalf("expected entry, ok=%v err=%v", ok, err)
	}
	if review.ID != "only" || review.Rating != 3 || review.Link != "" {
		t.Fatalf("unexpected review %+v", review)
	}
}

func TestParseLatestErrors(t *testing.T) {
	cases := map[string]string{
		"invalid json":   `{"feed": `,
		"missing id":     `{"feed": {"entry": [{"im:rating": {"label": "3"}}]}}`,
		"invalid rating": `{"feed": {"entry": [{"id": {"label": "a"}, "im:rating": {"label": "five"}}]}}`,
	}
	for name, body := range cases {
		if _, _, err := ParseLatest([]byte(body), "it"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestFetcherReturnsErrorOnBadStatus(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	})
	fetcher := NewFetcher(2*time.Second, "", server.URL, "1")

	if _, err := fetcher.Fetch(context.Background(), "es"); err == nil {
		t.Fatalf("expected error")
	}
}
