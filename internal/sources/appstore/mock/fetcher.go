package mock

import (
	"context"
	"sync"

	"github.com/bakkerme/reviewbot/internal/core"
)

// Fetcher is safe for the concurrent per-locale calls the runner makes.
type Fetcher struct {
	ReviewsByLocale map[string][]core.Review
	ErrByLocale     map[string]error

	mu    sync.Mutex
	calls []string
}

func (f *Fetcher) Fetch(ctx context.Context, locale string) ([]core.Review, error) {
	_ = ctx
	f.mu.Lock()
	f.calls = append(f.calls, locale)
	f.mu.Unlock()
	if f.ErrByLocale != nil {
		if err, ok := f.ErrByLocale[locale]; ok {
			return nil, err
		}
	}
	return f.ReviewsByLocale[locale], nil
}

func (f *Fetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
