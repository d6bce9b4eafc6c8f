package memory

import (
	"context"
	"sync"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/playerstats"
)

type PlayerStatsRepository struct {
	mu sync.RWMutex
	// keyed by match id, then player id
	items map[string]map[string]playerstats.PlayerStatistic
}

func NewPlayerStatsRepository() *PlayerStatsRepository {
	return &PlayerStatsRepository{
		items: make(map[string]map[string]playerstats.PlayerStatistic),
	}
}

func (r *PlayerStatsRepository) ListByMatch(_ context.Context, matchID string) ([]playerstats.PlayerStatistic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.items[matchID]
	out := make([]playerstats.PlayerStatistic, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *PlayerStatsRepository) Upsert(_ context.Context, stat playerstats.PlayerStatistic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, ok := r.items[stat.MatchID]
	if !ok {
		rows = make(map[string]playerstats.PlayerStatistic)
		r.items[stat.MatchID] = rows
	}
	rows[stat.PlayerID] = stat
	return nil
}

func (r *PlayerStatsRepository) PointsByMatch(_ context.Context, matchID string) (map[string]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.items[matchID]
	out := make(map[string]float64, len(rows))
	for playerID, row := range rows {
		out[playerID] = row.Points
	}
	return out, nil
}
