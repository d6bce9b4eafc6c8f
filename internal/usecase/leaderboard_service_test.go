package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/contest"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/playerstats"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/infrastructure/repository/memory"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
)

func TestEntryPoints_CaptainAndViceMultipliers(t *testing.T) {
	t.Parallel()

	team := contest.FantasyTeam{
		PlayerIDs:     []string{"p-c", "p-v", "p-3", "p-4"},
		CaptainID:     "p-c",
		ViceCaptainID: "p-v",
	}
	points := map[string]float64{
		"p-c": 40, // x2 = 80
		"p-v": 20, // x1.5 = 30
		"p-3": 10,
		"p-4": 15,
	}

	if got := EntryPoints(team, points); got != 135 {
		t.Fatalf("entry points = %v, want 135", got)
	}
}

func TestEntryPoints_MissingStatsScoreZero(t *testing.T) {
	t.Parallel()

	team := contest.FantasyTeam{
		PlayerIDs:     []string{"p-1", "p-unknown"},
		CaptainID:     "p-1",
		ViceCaptainID: "p-unknown",
	}
	if got := EntryPoints(team, map[string]float64{"p-1": 10}); got != 20 {
		t.Fatalf("entry points = %v, want 20", got)
	}
}

func TestUpdateForMatch_RecomputesAllEntries(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	contestRepo := memory.NewContestRepository(
		[]contest.Contest{{ID: "c-1", MatchID: "m-1", Name: "Mega Contest"}},
		[]contest.Entry{
			{ID: "e-1", ContestID: "c-1", TeamID: "t-1", UserID: "u-1", CreatedAt: base},
			{ID: "e-2", ContestID: "c-1", TeamID: "t-2", UserID: "u-2", CreatedAt: base.Add(time.Minute)},
		},
		[]contest.FantasyTeam{
			{ID: "t-1", UserID: "u-1", MatchID: "m-1", PlayerIDs: []string{"p-1", "p-2"}, CaptainID: "p-1", ViceCaptainID: "p-2"},
			{ID: "t-2", UserID: "u-2", MatchID: "m-1", PlayerIDs: []string{"p-1", "p-2"}, CaptainID: "p-2", ViceCaptainID: "p-1"},
		},
		nil,
	)

	statsRepo := memory.NewPlayerStatsRepository()
	ctx := context.Background()
	mustUpsert(t, statsRepo, playerstats.PlayerStatistic{MatchID: "m-1", PlayerID: "p-1", Points: 50})
	mustUpsert(t, statsRepo, playerstats.PlayerStatistic{MatchID: "m-1", PlayerID: "p-2", Points: 30})

	svc := NewLeaderboardService(contestRepo, statsRepo, logging.NewNop())
	if err := svc.UpdateForMatch(ctx, "m-1"); err != nil {
		t.Fatalf("update for match: %v", err)
	}

	e1, _ := contestRepo.Entry("e-1")
	if e1.Points != 2*50+1.5*30 {
		t.Fatalf("e-1 points = %v, want 145", e1.Points)
	}
	e2, _ := contestRepo.Entry("e-2")
	if e2.Points != 2*30+1.5*50 {
		t.Fatalf("e-2 points = %v, want 135", e2.Points)
	}
}

func TestUpdateForMatch_IdempotentRecompute(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	contestRepo := memory.NewContestRepository(
		[]contest.Contest{{ID: "c-1", MatchID: "m-1"}},
		[]contest.Entry{{ID: "e-1", ContestID: "c-1", TeamID: "t-1", UserID: "u-1", CreatedAt: base}},
		[]contest.FantasyTeam{{ID: "t-1", UserID: "u-1", MatchID: "m-1", PlayerIDs: []string{"p-1"}, CaptainID: "p-1"}},
		nil,
	)
	statsRepo := memory.NewPlayerStatsRepository()
	mustUpsert(t, statsRepo, playerstats.PlayerStatistic{MatchID: "m-1", PlayerID: "p-1", Points: 25})

	svc := NewLeaderboardService(contestRepo, statsRepo, logging.NewNop())
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := svc.UpdateForMatch(ctx, "m-1"); err != nil {
			t.Fatalf("recompute %d: %v", i, err)
		}
	}

	e1, _ := contestRepo.Entry("e-1")
	if e1.Points != 50 {
		t.Fatalf("points after repeated recompute = %v, want 50", e1.Points)
	}
}

func mustUpsert(t *testing.T, repo *memory.PlayerStatsRepository, stat playerstats.PlayerStatistic) {
	t.Helper()
	if err := repo.Upsert(context.Background(), stat); err != nil {
		t.Fatalf("seed stat: %v", err)
	}
}
