package appstore

import (
	"context"

	"github.com/bakkerme/reviewbot/internal/core"
)

// Fetcher reads the App Store customer review feed of one storefront locale.
// Only the most recent entry is considered, so at most one review is returned.
type Fetcher interface {
	Fetch(ctx context.Context, locale string) ([]core.Review, error)
}
