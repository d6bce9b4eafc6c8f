package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/ballevent"
	qb "github.com/sunnygoyal1983/play11-w-sub000/internal/platform/querybuilder"
)

type BallEventRepository struct {
	db *sqlx.DB
}

func NewBallEventRepository(db *sqlx.DB) *BallEventRepository {
	return &BallEventRepository{db: db}
}

func (r *BallEventRepository) CountByMatch(ctx context.Context, matchID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("ball_events").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count ball events query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count ball events: %w", err)
	}
	return count, nil
}

func (r *BallEventRepository) ProviderBallIDsByMatch(ctx context.Context, matchID string) (map[string]struct{}, error) {
	query, args, err := qb.Select("provider_ball_id").From("ball_events").
		Where(
			qb.Eq("match_id", matchID),
			qb.Expr("provider_ball_id <> ''"),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select provider ball ids query: %w", err)
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("select provider ball ids: %w", err)
	}

	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (r *BallEventRepository) ListByMatch(ctx context.Context, matchID string) ([]ballevent.BallEvent, error) {
	query, args, err := qb.Select("*").From("ball_events").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("seq").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list ball events query: %w", err)
	}

	var rows []ballEventTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list ball events: %w", err)
	}

	out := make([]ballevent.BallEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *BallEventRepository) ListRecentByMatch(ctx context.Context, matchID string, limit int) ([]ballevent.BallEvent, error) {
	query, args, err := qb.Select("*").From("ball_events").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("seq DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list recent ball events query: %w", err)
	}

	var rows []ballEventTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list recent ball events: %w", err)
	}

	out := make([]ballevent.BallEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *BallEventRepository) Insert(ctx context.Context, event ballevent.BallEvent) error {
	insertModel := ballEventTableModel{
		MatchID:              event.MatchID,
		Seq:                  event.Seq,
		OverLabel:            event.Over,
		ProviderBallID:       event.ProviderBallID,
		Innings:              event.Innings,
		Runs:                 event.Runs,
		IsFour:               event.IsFour,
		IsSix:                event.IsSix,
		IsWicket:             event.IsWicket,
		WicketType:           event.WicketType,
		BatsmanProviderID:    event.BatsmanProviderID,
		BowlerProviderID:     event.BowlerProviderID,
		OutBatsmanProviderID: event.OutBatsmanProviderID,
		Raw:                  event.Raw,
		CreatedAt:            event.CreatedAt,
	}
	query, args, err := qb.InsertModel("ball_events", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert ball event query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert ball event match=%s seq=%d: %w", event.MatchID, event.Seq, err)
	}
	return nil
}

func (r *BallEventRepository) DeleteByMatch(ctx context.Context, matchID string) error {
	query, args, err := qb.DeleteFrom("ball_events").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete ball events query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete ball events match=%s: %w", matchID, err)
	}
	return nil
}
