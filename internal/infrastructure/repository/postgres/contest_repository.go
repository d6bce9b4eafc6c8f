package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/contest"
	qb "github.com/sunnygoyal1983/play11-w-sub000/internal/platform/querybuilder"
)

type ContestRepository struct {
	db *sqlx.DB
}

func NewContestRepository(db *sqlx.DB) *ContestRepository {
	return &ContestRepository{db: db}
}

func (r *ContestRepository) GetByID(ctx context.Context, id string) (contest.Contest, bool, error) {
	query, args, err := qb.Select("*").From("contests").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return contest.Contest{}, false, fmt.Errorf("build select contest query: %w", err)
	}

	var row contestTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return contest.Contest{}, false, nil
		}
		return contest.Contest{}, false, fmt.Errorf("select contest: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *ContestRepository) ListByMatch(ctx context.Context, matchID string) ([]contest.Contest, error) {
	query, args, err := qb.Select("*").From("contests").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list contests by match query: %w", err)
	}

	var rows []contestTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list contests by match: %w", err)
	}

	out := make([]contest.Contest, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ContestRepository) UpdateSettlementStatus(ctx context.Context, id, status string) error {
	query, args, err := qb.Update("contests").
		Set("settlement_status", status).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update contest settlement status query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update contest settlement status: %w", err)
	}
	return nil
}

// ListEntries orders by creation time so ties in points settle in favor
// of the earlier entry.
func (r *ContestRepository) ListEntries(ctx context.Context, contestID string) ([]contest.Entry, error) {
	query, args, err := qb.Select("*").From("contest_entries").
		Where(qb.Eq("contest_id", contestID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list contest entries query: %w", err)
	}

	var rows []contestEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list contest entries: %w", err)
	}

	out := make([]contest.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ContestRepository) UpdateEntryPoints(ctx context.Context, entryID string, points float64) error {
	query, args, err := qb.Update("contest_entries").
		Set("points", points).
		Where(qb.Eq("id", entryID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update entry points query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update entry points: %w", err)
	}
	return nil
}

func (r *ContestRepository) UpdateEntryRank(ctx context.Context, entryID string, rank int, points float64) error {
	query, args, err := qb.Update("contest_entries").
		Set("rank", rank).
		Set("points", points).
		Where(qb.Eq("id", entryID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update entry rank query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update entry rank: %w", err)
	}
	return nil
}

func (r *ContestRepository) UpdateEntryWinAmount(ctx context.Context, entryID string, amount float64) error {
	query, args, err := qb.Update("contest_entries").
		Set("win_amount", amount).
		Where(qb.Eq("id", entryID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update entry win amount query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update entry win amount: %w", err)
	}
	return nil
}

func (r *ContestRepository) GetTeam(ctx context.Context, teamID string) (contest.FantasyTeam, bool, error) {
	query, args, err := qb.Select("*").From("fantasy_teams").
		Where(qb.Eq("id", teamID)).
		ToSQL()
	if err != nil {
		return contest.FantasyTeam{}, false, fmt.Errorf("build select fantasy team query: %w", err)
	}

	var row fantasyTeamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return contest.FantasyTeam{}, false, nil
		}
		return contest.FantasyTeam{}, false, fmt.Errorf("select fantasy team: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *ContestRepository) ListTeamsByIDs(ctx context.Context, teamIDs []string) (map[string]contest.FantasyTeam, error) {
	if len(teamIDs) == 0 {
		return map[string]contest.FantasyTeam{}, nil
	}

	values := make([]any, 0, len(teamIDs))
	for _, id := range teamIDs {
		values = append(values, id)
	}
	query, args, err := qb.Select("*").From("fantasy_teams").
		Where(qb.In("id", values)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fantasy teams query: %w", err)
	}

	var rows []fantasyTeamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fantasy teams: %w", err)
	}

	out := make(map[string]contest.FantasyTeam, len(rows))
	for _, row := range rows {
		out[row.ID] = row.toDomain()
	}
	return out, nil
}

func (r *ContestRepository) ListPrizeBreakups(ctx context.Context, contestID string) ([]contest.PrizeBreakup, error) {
	query, args, err := qb.Select("*").From("prize_breakups").
		Where(qb.Eq("contest_id", contestID)).
		OrderBy("rank").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list prize breakups query: %w", err)
	}

	var rows []prizeBreakupTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list prize breakups: %w", err)
	}

	out := make([]contest.PrizeBreakup, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
