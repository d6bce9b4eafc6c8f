package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/match"
	qb "github.com/sunnygoyal1983/play11-w-sub000/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, id string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *MatchRepository) ListByStatus(ctx context.Context, status string) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("status", status)).
		OrderBy("start_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches by status query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches by status: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MatchRepository) ListDueForPromotion(ctx context.Context, cutoff time.Time) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.Eq("status", match.StatusUpcoming),
			qb.Expr("start_at <= ?", cutoff),
		).
		OrderBy("start_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches due for promotion query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches due for promotion: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MatchRepository) ListStartingWithin(ctx context.Context, now time.Time, window time.Duration) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.Eq("status", match.StatusUpcoming),
			qb.Expr("start_at > ?", now),
			qb.Expr("start_at <= ?", now.Add(window)),
		).
		OrderBy("start_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches starting soon query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches starting soon: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// TransitionStatus is a single-row compare-and-set. The WHERE clause on
// the current status means concurrent transitions of the same match can
// succeed at most once.
func (r *MatchRepository) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	query, args, err := qb.Update("matches").
		Set("status", to).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", id),
			qb.Eq("status", from),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build transition match status query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("transition match status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition match status rows affected: %w", err)
	}
	return affected == 1, nil
}

func (r *MatchRepository) UpdateResult(ctx context.Context, id, result string) error {
	query, args, err := qb.Update("matches").
		Set("result", result).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match result query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update match result: %w", err)
	}
	return nil
}

func (r *MatchRepository) UpdateToss(ctx context.Context, id, tossWinner, tossDecision string) error {
	query, args, err := qb.Update("matches").
		Set("toss_winner", tossWinner).
		Set("toss_decision", tossDecision).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match toss query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update match toss: %w", err)
	}
	return nil
}

func (r *MatchRepository) UpsertSummary(ctx context.Context, summary match.Summary) error {
	insertModel := matchSummaryTableModel{
		MatchID:        summary.MatchID,
		TeamAScore:     summary.TeamAScore,
		TeamBScore:     summary.TeamBScore,
		Overs:          summary.Overs,
		CurrentInnings: summary.CurrentInnings,
		RawSnapshot:    summary.RawSnapshot,
		UpdatedAt:      summary.UpdatedAt,
	}
	query, args, err := qb.InsertModel("match_summaries", insertModel, `ON CONFLICT (match_id)
DO UPDATE SET
    team_a_score = EXCLUDED.team_a_score,
    team_b_score = EXCLUDED.team_b_score,
    overs = EXCLUDED.overs,
    current_innings = EXCLUDED.current_innings,
    raw_snapshot = EXCLUDED.raw_snapshot,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert match summary query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match summary: %w", err)
	}
	return nil
}

func (r *MatchRepository) GetSummary(ctx context.Context, matchID string) (match.Summary, bool, error) {
	query, args, err := qb.Select("*").From("match_summaries").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return match.Summary{}, false, fmt.Errorf("build select match summary query: %w", err)
	}

	var row matchSummaryTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Summary{}, false, nil
		}
		return match.Summary{}, false, fmt.Errorf("select match summary: %w", err)
	}
	return row.toDomain(), true, nil
}
