package playstore

import (
	"context"

	"github.com/bakkerme/reviewbot/internal/core"
)

// Fetcher returns the most recent page of Google Play reviews for the configured package.
type Fetcher interface {
	Fetch(ctx context.Context) ([]core.Review, error)
}
