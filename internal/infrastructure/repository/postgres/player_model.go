package postgres

import (
	"time"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/player"
)

type playerTableModel struct {
	ID         string    `db:"id"`
	ProviderID string    `db:"provider_id"`
	Name       string    `db:"name"`
	Role       string    `db:"role"`
	TeamName   string    `db:"team_name"`
	CreatedAt  time.Time `db:"created_at"`
}

func (m playerTableModel) toDomain() player.Player {
	return player.Player{
		ID:         m.ID,
		ProviderID: m.ProviderID,
		Name:       m.Name,
		Role:       player.Role(m.Role),
		TeamName:   m.TeamName,
	}
}
