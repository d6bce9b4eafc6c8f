package playerstats

import "context"

type Repository interface {
	ListByMatch(ctx context.Context, matchID string) ([]PlayerStatistic, error)
	Upsert(ctx context.Context, stat PlayerStatistic) error
	// PointsByMatch returns current fantasy points keyed by internal
	// player id.
	PointsByMatch(ctx context.Context, matchID string) (map[string]float64, error)
}
