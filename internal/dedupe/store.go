package dedupe

import (
	"context"

	"github.com/bakkerme/reviewbot/internal/core"
)

// Scope addresses one slice of the seen-id store: a platform, and for iOS a locale.
type Scope struct {
	Platform core.Platform
	Locale   string
}

// ScopeOf returns the store slice a review is tracked in. Android ids share one flat list.
func ScopeOf(review core.Review) Scope {
	if review.Platform == core.PlatformAndroid {
		return Scope{Platform: core.PlatformAndroid}
	}
	return Scope{Platform: review.Platform, Locale: review.Locale}
}

// SeenStore tracks review identifiers that were already notified.
// MarkSeen records the id and persists the affected state before returning.
type SeenStore interface {
	HasSeen(ctx context.Context, scope Scope, id string) (bool, error)
	MarkSeen(ctx context.Context, scope Scope, id string) error
	Close() error
}
