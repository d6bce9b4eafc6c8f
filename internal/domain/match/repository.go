package match

import (
	"context"
	"time"
)

// Repository exposes match lifecycle and summary persistence.
type Repository interface {
	GetByID(ctx context.Context, id string) (Match, bool, error)
	ListByStatus(ctx context.Context, status string) ([]Match, error)
	// ListDueForPromotion returns upcoming matches whose scheduled start
	// is at or before the cutoff.
	ListDueForPromotion(ctx context.Context, cutoff time.Time) ([]Match, error)
	// ListStartingWithin returns upcoming matches starting inside the
	// given window measured from now.
	ListStartingWithin(ctx context.Context, now time.Time, window time.Duration) ([]Match, error)
	// TransitionStatus performs a compare-and-set from one status to
	// another. It returns false when the stored status no longer matches
	// from, which makes lifecycle transitions race-safe and exactly-once.
	TransitionStatus(ctx context.Context, id, from, to string) (bool, error)
	UpdateResult(ctx context.Context, id, result string) error
	UpdateToss(ctx context.Context, id, tossWinner, tossDecision string) error

	UpsertSummary(ctx context.Context, summary Summary) error
	GetSummary(ctx context.Context, matchID string) (Summary, bool, error)
}
