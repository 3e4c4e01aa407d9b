package mock

import (
	"context"

	"github.com/bakkerme/reviewbot/internal/core"
)

type Fetcher struct {
	Reviews []core.Review
	Err     error
	Calls   int
}

func (f *Fetcher) Fetch(ctx context.Context) ([]core.Review, error) {
	_ = ctx
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Reviews, nil
}
