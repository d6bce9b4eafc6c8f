package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/ballevent"
)

type BallEventRepository struct {
	mu    sync.RWMutex
	items map[string][]ballevent.BallEvent
}

func NewBallEventRepository() *BallEventRepository {
	return &BallEventRepository{
		items: make(map[string][]ballevent.BallEvent),
	}
}

func (r *BallEventRepository) CountByMatch(_ context.Context, matchID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items[matchID]), nil
}

func (r *BallEventRepository) ProviderBallIDsByMatch(_ context.Context, matchID string) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]struct{})
	for _, ev := range r.items[matchID] {
		if ev.ProviderBallID != "" {
			out[ev.ProviderBallID] = struct{}{}
		}
	}
	return out, nil
}

func (r *BallEventRepository) ListByMatch(_ context.Context, matchID string) ([]ballevent.BallEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.items[matchID]
	out := make([]ballevent.BallEvent, len(events))
	copy(out, events)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *BallEventRepository) ListRecentByMatch(_ context.Context, matchID string, limit int) ([]ballevent.BallEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.items[matchID]
	out := make([]ballevent.BallEvent, len(events))
	copy(out, events)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *BallEventRepository) Insert(_ context.Context, event ballevent.BallEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items[event.MatchID] {
		if existing.Seq == event.Seq {
			return fmt.Errorf("duplicate sequence %d for match %s", event.Seq, event.MatchID)
		}
	}
	r.items[event.MatchID] = append(r.items[event.MatchID], event)
	return nil
}

func (r *BallEventRepository) DeleteByMatch(_ context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, matchID)
	return nil
}
