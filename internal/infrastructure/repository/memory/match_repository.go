package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/match"
)

type MatchRepository struct {
	mu        sync.RWMutex
	items     map[string]match.Match
	summaries map[string]match.Summary
	orders    []string
}

func NewMatchRepository(matches []match.Match) *MatchRepository {
	items := make(map[string]match.Match, len(matches))
	orders := make([]string, 0, len(matches))
	for _, m := range matches {
		items[m.ID] = m
		orders = append(orders, m.ID)
	}
	return &MatchRepository{
		items:     items,
		summaries: make(map[string]match.Summary),
		orders:    orders,
	}
}

func (r *MatchRepository) GetByID(_ context.Context, id string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[id]
	if !ok {
		return match.Match{}, false, nil
	}
	return m, true, nil
}

func (r *MatchRepository) ListByStatus(_ context.Context, status string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, id := range r.orders {
		if m := r.items[id]; m.Status == status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MatchRepository) ListDueForPromotion(_ context.Context, cutoff time.Time) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, id := range r.orders {
		m := r.items[id]
		if m.Status == match.StatusUpcoming && !m.StartAt.After(cutoff) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MatchRepository) ListStartingWithin(_ context.Context, now time.Time, window time.Duration) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := now.Add(window)
	out := make([]match.Match, 0)
	for _, id := range r.orders {
		m := r.items[id]
		if m.Status == match.StatusUpcoming && m.StartAt.After(now) && !m.StartAt.After(limit) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MatchRepository) TransitionStatus(_ context.Context, id, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[id]
	if !ok || m.Status != from {
		return false, nil
	}
	m.Status = to
	r.items[id] = m
	return true, nil
}

func (r *MatchRepository) UpdateResult(_ context.Context, id, result string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.items[id]; ok {
		m.Result = result
		r.items[id] = m
	}
	return nil
}

func (r *MatchRepository) UpdateToss(_ context.Context, id, tossWinner, tossDecision string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.items[id]; ok {
		m.TossWinner = tossWinner
		m.TossDecision = tossDecision
		r.items[id] = m
	}
	return nil
}

func (r *MatchRepository) UpsertSummary(_ context.Context, summary match.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.summaries[summary.MatchID] = summary
	return nil
}

func (r *MatchRepository) GetSummary(_ context.Context, matchID string) (match.Summary, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.summaries[matchID]
	if !ok {
		return match.Summary{}, false, nil
	}
	return s, true, nil
}
