package ballevent

import "context"

type Repository interface {
	CountByMatch(ctx context.Context, matchID string) (int, error)
	// ProviderBallIDsByMatch returns the set of non-empty provider ball
	// ids already stored for a match.
	ProviderBallIDsByMatch(ctx context.Context, matchID string) (map[string]struct{}, error)
	ListByMatch(ctx context.Context, matchID string) ([]BallEvent, error)
	// ListRecentByMatch returns the newest events first, capped at limit.
	ListRecentByMatch(ctx context.Context, matchID string, limit int) ([]BallEvent, error)
	Insert(ctx context.Context, event BallEvent) error
	// DeleteByMatch removes every stored event for the match. Used by
	// forced resyncs before the snapshot is renumbered from 1.
	DeleteByMatch(ctx context.Context, matchID string) error
}
