package dedupe

import (
	"context"
	"fmt"

	"github.com/bakkerme/reviewbot/internal/core"
)

// FilterNew returns the reviews whose id is not yet recorded in their scope, in input order.
// An id repeated within the batch is returned once.
func FilterNew(ctx context.Context, store SeenStore, reviews []core.Review) ([]core.Review, error) {
	if store == nil {
		return nil, fmt.Errorf("seen store is required")
	}
	fresh := make([]core.Review, 0, len(reviews))
	batch := map[Scope]map[string]bool{}
	for _, review := range reviews {
		if review.ID == "" {
			continue
		}
		scope := ScopeOf(review)
		if batch[scope][review.ID] {
			continue
		}
		seen, err := store.HasSeen(ctx, scope, review.ID)
		if err != nil {
			return nil, fmt.Errorf("check seen %s/%s: %w", scope.Platform, review.ID, err)
		}
		if seen {
			core.LoggerFromContext(ctx).Debug("skipping already posted review",
				"platform", string(review.Platform), "locale", review.Locale, "review_id", review.ID)
			continue
		}
		if batch[scope] == nil {
			batch[scope] = map[string]bool{}
		}
		batch[scope][review.ID] = true
		fresh = append(fresh, review)
	}
	return fresh, nil
}
