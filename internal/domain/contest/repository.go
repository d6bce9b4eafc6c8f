package contest

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (Contest, bool, error)
	ListByMatch(ctx context.Context, matchID string) ([]Contest, error)
	UpdateSettlementStatus(ctx context.Context, id, status string) error

	// ListEntries returns entries ordered by creation (oldest first),
	// which is the settlement tie-break order.
	ListEntries(ctx context.Context, contestID string) ([]Entry, error)
	UpdateEntryPoints(ctx context.Context, entryID string, points float64) error
	UpdateEntryRank(ctx context.Context, entryID string, rank int, points float64) error
	UpdateEntryWinAmount(ctx context.Context, entryID string, amount float64) error

	GetTeam(ctx context.Context, teamID string) (FantasyTeam, bool, error)
	ListTeamsByIDs(ctx context.Context, teamIDs []string) (map[string]FantasyTeam, error)

	ListPrizeBreakups(ctx context.Context, contestID string) ([]PrizeBreakup, error)
}
