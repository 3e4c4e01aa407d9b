package impl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bakkerme/reviewbot/internal/outputs/webhook"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestSenderPostsJSONPayload(t *testing.T) {
	t.Parallel()

	var got webhook.Payload
	sender := NewSender(2*time.Second, "reviewbot/test", "https://chat.example.com/hooks/abc")
	sender.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.Method != http.MethodPost {
				return nil, fmt.Errorf("method = %s, want POST", r.Method)
			}
			if r.URL.String() != "https://chat.example.com/hooks/abc" {
				return nil, fmt.Errorf("url = %s", r.URL)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				return nil, fmt.Errorf("Content-Type = %q", ct)
			}
			body, err := io.ReadAll(r.Body)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(body, &got); err != nil {
				return nil, err
			}
			return &http.Response{
				StatusCode: http.StatusOK,
				Status:     "200 OK",
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader("ok")),
				Request:    r,
			}, nil
		}),
	}

	payload := webhook.Payload{Text: "hello", Username: "ios-ReviewBot", IconURL: "https://icons.example.com/ios.png?raw=true"}
	if err := sender.Send(context.Background(), payload); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if got != payload {
		t.Fatalf("server received %+v, want %+v", got, payload)
	}
}

func TestSenderSurfacesFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]roundTripFunc{
		"transport": func(r *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("connection refused")
		},
		"status": func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusInternalServerError,
				Status:     "500 Internal Server Error",
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader("broken")),
				Request:    r,
			}, nil
		},
	}
	for name, rt := range cases {
		sender := NewSender(time.Second, "", "https://chat.example.com/hooks/abc")
		sender.client = &http.Client{Transport: rt}
		if err := sender.Send(context.Background(), webhook.Payload{Text: "x"}); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
