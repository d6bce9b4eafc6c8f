package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/contest"
)

type ContestRepository struct {
	mu       sync.RWMutex
	contests map[string]contest.Contest
	entries  map[string]contest.Entry
	teams    map[string]contest.FantasyTeam
	prizes   map[string][]contest.PrizeBreakup
}

func NewContestRepository(
	contests []contest.Contest,
	entries []contest.Entry,
	teams []contest.FantasyTeam,
	prizes []contest.PrizeBreakup,
) *ContestRepository {
	r := &ContestRepository{
		contests: make(map[string]contest.Contest, len(contests)),
		entries:  make(map[string]contest.Entry, len(entries)),
		teams:    make(map[string]contest.FantasyTeam, len(teams)),
		prizes:   make(map[string][]contest.PrizeBreakup),
	}
	for _, c := range contests {
		r.contests[c.ID] = c
	}
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	for _, t := range teams {
		r.teams[t.ID] = t
	}
	for _, p := range prizes {
		r.prizes[p.ContestID] = append(r.prizes[p.ContestID], p)
	}
	return r
}

func (r *ContestRepository) GetByID(_ context.Context, id string) (contest.Contest, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contests[id]
	if !ok {
		return contest.Contest{}, false, nil
	}
	return c, true, nil
}

func (r *ContestRepository) ListByMatch(_ context.Context, matchID string) ([]contest.Contest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]contest.Contest, 0)
	for _, c := range r.contests {
		if c.MatchID == matchID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ContestRepository) UpdateSettlementStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.contests[id]
	if !ok {
		return fmt.Errorf("contest %s not found", id)
	}
	c.SettlementStatus = status
	r.contests[id] = c
	return nil
}

func (r *ContestRepository) ListEntries(_ context.Context, contestID string) ([]contest.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]contest.Entry, 0)
	for _, e := range r.entries {
		if e.ContestID == contestID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ContestRepository) UpdateEntryPoints(_ context.Context, entryID string, points float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[entryID]
	if !ok {
		return fmt.Errorf("entry %s not found", entryID)
	}
	e.Points = points
	r.entries[entryID] = e
	return nil
}

func (r *ContestRepository) UpdateEntryRank(_ context.Context, entryID string, rank int, points float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[entryID]
	if !ok {
		return fmt.Errorf("entry %s not found", entryID)
	}
	e.Rank = &rank
	e.Points = points
	r.entries[entryID] = e
	return nil
}

func (r *ContestRepository) UpdateEntryWinAmount(_ context.Context, entryID string, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[entryID]
	if !ok {
		return fmt.Errorf("entry %s not found", entryID)
	}
	e.WinAmount = &amount
	r.entries[entryID] = e
	return nil
}

func (r *ContestRepository) GetTeam(_ context.Context, teamID string) (contest.FantasyTeam, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.teams[teamID]
	if !ok {
		return contest.FantasyTeam{}, false, nil
	}
	return t, true, nil
}

func (r *ContestRepository) ListTeamsByIDs(_ context.Context, teamIDs []string) (map[string]contest.FantasyTeam, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]contest.FantasyTeam, len(teamIDs))
	for _, id := range teamIDs {
		if t, ok := r.teams[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (r *ContestRepository) ListPrizeBreakups(_ context.Context, contestID string) ([]contest.PrizeBreakup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prizes := r.prizes[contestID]
	out := make([]contest.PrizeBreakup, len(prizes))
	copy(out, prizes)
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

// Entry returns a snapshot of one entry for test assertions.
func (r *ContestRepository) Entry(entryID string) (contest.Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[entryID]
	return e, ok
}

// Contest returns a snapshot of one contest for test assertions.
func (r *ContestRepository) Contest(contestID string) (contest.Contest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contests[contestID]
	return c, ok
}
