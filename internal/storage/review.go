package storage

import (
	"math"
	"time"

	"github.com/scrypster/reverie/pkg/types"
)

// ReviewInterval returns how long after the last review (or creation, for a
// never-reviewed thought) the next review is due. The schedule follows the
// SM-2 shape: 1 day, 1 day, 6 days, then 6 * ease^(n-2) days.
func ReviewInterval(reviewCount int, easeFactor float64) time.Duration {
	if easeFactor < types.MinEaseFactor {
		easeFactor = types.MinEaseFactor
	}
	days := 1.0
	switch {
	case reviewCount <= 1:
		days = 1
	case reviewCount == 2:
		days = 6
	default:
		days = 6 * math.Pow(easeFactor, float64(reviewCount-2))
	}
	return time.Duration(days * float64(24*time.Hour))
}

// ReviewDueAt returns the instant a thought becomes due for review.
func ReviewDueAt(t *types.Thought) time.Time {
	anchor := t.Timestamp
	if t.LastReviewed != nil {
		anchor = *t.LastReviewed
	}
	return anchor.Add(ReviewInterval(t.ReviewCount, t.EaseFactor))
}
