package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/scrypster/reverie/internal/storage"
	"github.com/scrypster/reverie/pkg/types"
)

// reviewQuality maps the user's three-button rating onto the SM-2 quality
// scale.
var reviewQuality = map[string]float64{
	types.ReviewEasy:   5,
	types.ReviewMedium: 4,
	types.ReviewHard:   3,
}

// nextEaseFactor applies the SM-2 ease update for a given quality rating,
// never dropping below the floor.
func nextEaseFactor(ease, quality float64) float64 {
	next := ease + (0.1 - (5-quality)*(0.08+(5-quality)*0.02))
	if next < types.MinEaseFactor {
		next = types.MinEaseFactor
	}
	return next
}

// reviewer handles spaced-repetition review marking and the resurfacing
// queue.
type reviewer struct {
	gateway storage.Gateway
}

func newReviewer(gateway storage.Gateway) *reviewer {
	return &reviewer{gateway: gateway}
}

// MarkReviewed records one review of a thought with the given rating
// ("easy", "medium", "hard") and reschedules it.
func (r *reviewer) MarkReviewed(ctx context.Context, thoughtID, rating string) (*types.Thought, error) {
	quality, ok := reviewQuality[rating]
	if !ok {
		return nil, &types.ValidationError{Field: "rating", Message: fmt.Sprintf("unknown rating %q", rating)}
	}

	thought, err := r.gateway.GetThought(ctx, thoughtID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thought for review: %w", err)
	}

	now := timeNow()
	thought.ReviewCount++
	thought.EaseFactor = nextEaseFactor(thought.EaseFactor, quality)
	thought.LastReviewed = &now

	if err := r.gateway.UpdateReview(ctx, thoughtID, thought.ReviewCount, thought.EaseFactor, now); err != nil {
		return nil, fmt.Errorf("failed to record review: %w", err)
	}
	return thought, nil
}

// DueForReview returns thoughts whose review interval has elapsed, most
// overdue first.
func (r *reviewer) DueForReview(ctx context.Context, limit int) ([]*types.Thought, error) {
	return r.gateway.ResurfaceQueue(ctx, timeNow(), limit)
}

// NextReviewAt reports when a thought comes due again.
func NextReviewAt(t *types.Thought) time.Time {
	return storage.ReviewDueAt(t)
}
