package mock

import (
	"context"
	"sync"

	"github.com/bakkerme/reviewbot/internal/outputs/webhook"
)

type Sender struct {
	Err error

	mu       sync.Mutex
	payloads []webhook.Payload
	attempts int
}

func (s *Sender) Send(ctx context.Context, payload webhook.Payload) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.Err != nil {
		return s.Err
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

// Payloads returns successfully sent payloads.
func (s *Sender) Payloads() []webhook.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]webhook.Payload(nil), s.payloads...)
}

func (s *Sender) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}
