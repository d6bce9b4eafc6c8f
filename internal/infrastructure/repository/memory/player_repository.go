package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/player"
)

type PlayerRepository struct {
	mu         sync.RWMutex
	items      map[string]player.Player
	byProvider map[string]string
	orders     []string
}

func NewPlayerRepository(players []player.Player) *PlayerRepository {
	r := &PlayerRepository{
		items:      make(map[string]player.Player, len(players)),
		byProvider: make(map[string]string, len(players)),
		orders:     make([]string, 0, len(players)),
	}
	for _, p := range players {
		r.items[p.ID] = p
		if p.ProviderID != "" {
			r.byProvider[p.ProviderID] = p.ID
		}
		r.orders = append(r.orders, p.ID)
	}
	return r
}

func (r *PlayerRepository) GetByID(_ context.Context, id string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return player.Player{}, false, nil
	}
	return p, true, nil
}

func (r *PlayerRepository) GetByProviderID(_ context.Context, providerID string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byProvider[providerID]
	if !ok {
		return player.Player{}, false, nil
	}
	return r.items[id], true, nil
}

func (r *PlayerRepository) ListByProviderIDs(_ context.Context, providerIDs []string) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(providerIDs))
	for _, pid := range providerIDs {
		if id, ok := r.byProvider[pid]; ok {
			out = append(out, r.items[id])
		}
	}
	return out, nil
}

func (r *PlayerRepository) Create(_ context.Context, item player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("player %s already exists", item.ID)
	}
	r.items[item.ID] = item
	if item.ProviderID != "" {
		r.byProvider[item.ProviderID] = item.ID
	}
	r.orders = append(r.orders, item.ID)
	return nil
}
