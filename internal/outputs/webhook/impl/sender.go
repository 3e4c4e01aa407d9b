package impl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bakkerme/reviewbot/internal/outputs/webhook"
)

type Sender struct {
	client    *http.Client
	url       string
	userAgent string
}

func NewSender(timeout time.Duration, userAgent, url string) *Sender {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if userAgent == "" {
		userAgent = "reviewbot/0.1"
	}
	return &Sender{
		client:    &http.Client{Timeout: timeout},
		url:       strings.TrimSpace(url),
		userAgent: userAgent,
	}
}

// Send POSTs the payload as JSON. Transport errors and non-2xx statuses are returned.
func (s *Sender) Send(ctx context.Context, payload webhook.Payload) error {
	if s.url == "" {
		return fmt.Errorf("webhook: url is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		detail := strings.TrimSpace(string(msg))
		if detail != "" {
			detail = ": " + detail
		}
		return fmt.Errorf("webhook: status %d%s", resp.StatusCode, detail)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
