package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/player"
	qb "github.com/sunnygoyal1983/play11-w-sub000/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByID(ctx context.Context, id string) (player.Player, bool, error) {
	return r.getOne(ctx, qb.Eq("id", id))
}

func (r *PlayerRepository) GetByProviderID(ctx context.Context, providerID string) (player.Player, bool, error) {
	return r.getOne(ctx, qb.Eq("provider_id", providerID))
}

func (r *PlayerRepository) getOne(ctx context.Context, cond qb.Condition) (player.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").
		Where(cond).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *PlayerRepository) ListByProviderIDs(ctx context.Context, providerIDs []string) ([]player.Player, error) {
	if len(providerIDs) == 0 {
		return nil, nil
	}

	values := make([]any, 0, len(providerIDs))
	for _, id := range providerIDs {
		values = append(values, id)
	}
	query, args, err := qb.Select("*").From("players").
		Where(qb.In("provider_id", values)).
		OrderBy("name", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list players by provider ids query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list players by provider ids: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PlayerRepository) Create(ctx context.Context, item player.Player) error {
	insertModel := playerTableModel{
		ID:         item.ID,
		ProviderID: item.ProviderID,
		Name:       item.Name,
		Role:       string(item.Role),
		TeamName:   item.TeamName,
		CreatedAt:  time.Now().UTC(),
	}
	query, args, err := qb.InsertModel("players", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert player query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert player provider_id=%s: %w", item.ProviderID, err)
	}
	return nil
}
