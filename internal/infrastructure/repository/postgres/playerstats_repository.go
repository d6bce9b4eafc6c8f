package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/playerstats"
	qb "github.com/sunnygoyal1983/play11-w-sub000/internal/platform/querybuilder"
)

type PlayerStatsRepository struct {
	db *sqlx.DB
}

func NewPlayerStatsRepository(db *sqlx.DB) *PlayerStatsRepository {
	return &PlayerStatsRepository{db: db}
}

func (r *PlayerStatsRepository) ListByMatch(ctx context.Context, matchID string) ([]playerstats.PlayerStatistic, error) {
	query, args, err := qb.Select("*").From("player_match_stats").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list player stats query: %w", err)
	}

	var rows []playerStatTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list player stats: %w", err)
	}

	out := make([]playerstats.PlayerStatistic, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Upsert replaces the full stat line. Provider snapshots are cumulative,
// so the incoming row is authoritative and overwrites in place.
func (r *PlayerStatsRepository) Upsert(ctx context.Context, stat playerstats.PlayerStatistic) error {
	query, args, err := qb.InsertModel("player_match_stats", playerStatInsertModel(stat), `ON CONFLICT (match_id, player_id)
DO UPDATE SET
    provider_player_id = EXCLUDED.provider_player_id,
    role = EXCLUDED.role,
    runs = EXCLUDED.runs,
    balls = EXCLUDED.balls,
    fours = EXCLUDED.fours,
    sixes = EXCLUDED.sixes,
    is_out = EXCLUDED.is_out,
    strike_rate = EXCLUDED.strike_rate,
    wickets = EXCLUDED.wickets,
    overs = EXCLUDED.overs,
    maidens = EXCLUDED.maidens,
    runs_conceded = EXCLUDED.runs_conceded,
    economy = EXCLUDED.economy,
    catches = EXCLUDED.catches,
    stumpings = EXCLUDED.stumpings,
    run_out_direct = EXCLUDED.run_out_direct,
    run_out_indirect = EXCLUDED.run_out_indirect,
    points = EXCLUDED.points,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert player stat query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert player stat match=%s player=%s: %w", stat.MatchID, stat.PlayerID, err)
	}
	return nil
}

func (r *PlayerStatsRepository) PointsByMatch(ctx context.Context, matchID string) (map[string]float64, error) {
	query, args, err := qb.Select("player_id", "points").From("player_match_stats").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player points query: %w", err)
	}

	var rows []struct {
		PlayerID string  `db:"player_id"`
		Points   float64 `db:"points"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select player points: %w", err)
	}

	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[row.PlayerID] = row.Points
	}
	return out, nil
}
