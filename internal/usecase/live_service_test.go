package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/ballevent"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/match"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/player"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/infrastructure/repository/memory"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
)

type liveFixture struct {
	svc       *LiveService
	matchRepo *memory.MatchRepository
	ballRepo  *memory.BallEventRepository
}

func newLiveFixture(t *testing.T, cacheTTL time.Duration, matches []match.Match) *liveFixture {
	t.Helper()

	matchRepo := memory.NewMatchRepository(matches)
	ballRepo := memory.NewBallEventRepository()
	playerRepo := memory.NewPlayerRepository([]player.Player{
		{ID: "p-1", ProviderID: "prov-1", Name: "Rohit", Role: player.RoleBatsman},
		{ID: "p-2", ProviderID: "prov-2", Name: "Bumrah", Role: player.RoleBowler},
		{ID: "p-3", ProviderID: "prov-3", Name: "Gill", Role: player.RoleBatsman},
	})

	return &liveFixture{
		svc:       NewLiveService(matchRepo, ballRepo, playerRepo, cacheTTL, logging.NewNop()),
		matchRepo: matchRepo,
		ballRepo:  ballRepo,
	}
}

func (f *liveFixture) insertBall(t *testing.T, seq int, ev ballevent.BallEvent) {
	t.Helper()
	ev.MatchID = "m-1"
	ev.Seq = seq
	ev.Over = ballevent.OverNotation(seq)
	if ev.Innings == 0 {
		ev.Innings = 1
	}
	if err := f.ballRepo.Insert(context.Background(), ev); err != nil {
		t.Fatalf("insert ball seq %d: %v", seq, err)
	}
}

func TestGetLiveMatchData_ProjectsScoreboardAndBalls(t *testing.T) {
	t.Parallel()

	f := newLiveFixture(t, 0, []match.Match{
		{ID: "m-1", Status: match.StatusLive, TeamA: "India", TeamB: "Australia"},
	})
	ctx := context.Background()

	updatedAt := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	if err := f.matchRepo.UpsertSummary(ctx, match.Summary{
		MatchID:        "m-1",
		TeamAScore:     "187/4",
		TeamBScore:     "",
		Overs:          "18.2",
		CurrentInnings: 1,
		UpdatedAt:      updatedAt,
	}); err != nil {
		t.Fatalf("upsert summary: %v", err)
	}

	// An over and a bit: prov-1 on strike for most of it, prov-3 takes a
	// single, prov-1 falls to prov-2 on the last recorded ball.
	f.insertBall(t, 1, ballevent.BallEvent{Runs: 4, IsFour: true, BatsmanProviderID: "prov-1", BowlerProviderID: "prov-2"})
	f.insertBall(t, 2, ballevent.BallEvent{Runs: 0, BatsmanProviderID: "prov-1", BowlerProviderID: "prov-2"})
	f.insertBall(t, 3, ballevent.BallEvent{Runs: 6, IsSix: true, BatsmanProviderID: "prov-1", BowlerProviderID: "prov-2"})
	f.insertBall(t, 4, ballevent.BallEvent{Runs: 1, BatsmanProviderID: "prov-3", BowlerProviderID: "prov-2"})
	f.insertBall(t, 5, ballevent.BallEvent{Runs: 2, BatsmanProviderID: "prov-1", BowlerProviderID: "prov-2"})
	f.insertBall(t, 6, ballevent.BallEvent{Runs: 0, BatsmanProviderID: "prov-1", BowlerProviderID: "prov-2"})
	f.insertBall(t, 7, ballevent.BallEvent{
		IsWicket: true, WicketType: "caught",
		BatsmanProviderID: "prov-1", BowlerProviderID: "prov-2", OutBatsmanProviderID: "prov-1",
	})

	data, err := f.svc.GetLiveMatchData(ctx, "m-1")
	if err != nil {
		t.Fatalf("get live match data: %v", err)
	}

	if data.Status != match.StatusLive || data.TeamAScore != "187/4" || data.Overs != "18.2" {
		t.Fatalf("scoreboard projection wrong: %+v", data)
	}
	if !data.UpdatedAt.Equal(updatedAt) {
		t.Fatalf("updated at = %v, want %v", data.UpdatedAt, updatedAt)
	}

	if data.CurrentBowler == nil || data.CurrentBowler.Name != "Bumrah" {
		t.Fatalf("current bowler = %+v, want Bumrah", data.CurrentBowler)
	}
	if len(data.CurrentBatsmen) != 2 {
		t.Fatalf("current batsmen = %d, want striker and non-striker", len(data.CurrentBatsmen))
	}
	if data.CurrentBatsmen[0].Name != "Rohit" || data.CurrentBatsmen[1].Name != "Gill" {
		t.Fatalf("batsmen = %s / %s, want Rohit / Gill", data.CurrentBatsmen[0].Name, data.CurrentBatsmen[1].Name)
	}

	if data.LastWicket == nil {
		t.Fatal("last wicket missing")
	}
	if data.LastWicket.WicketType != "caught" || data.LastWicket.Batsman.Name != "Rohit" || data.LastWicket.Bowler.Name != "Bumrah" {
		t.Fatalf("last wicket = %+v", data.LastWicket)
	}

	if len(data.RecentOvers) != 2 {
		t.Fatalf("recent overs = %d, want 2", len(data.RecentOvers))
	}
	first := data.RecentOvers[0]
	if first.Over != "0" {
		t.Fatalf("first over label = %q", first.Over)
	}
	wantBalls := []string{"4", "0", "6", "1", "2", "0"}
	if len(first.Balls) != len(wantBalls) {
		t.Fatalf("first over balls = %v", first.Balls)
	}
	for i, tok := range wantBalls {
		if first.Balls[i] != tok {
			t.Fatalf("ball %d = %q, want %q", i, first.Balls[i], tok)
		}
	}
	second := data.RecentOvers[1]
	if second.Over != "1" || len(second.Balls) != 1 || second.Balls[0] != "W" {
		t.Fatalf("second over = %+v", second)
	}
}

func TestGetLiveMatchData_NoBallsYet(t *testing.T) {
	t.Parallel()

	f := newLiveFixture(t, 0, []match.Match{
		{ID: "m-1", Status: match.StatusUpcoming, TeamA: "India", TeamB: "Australia"},
	})

	data, err := f.svc.GetLiveMatchData(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("get live match data: %v", err)
	}
	if data.CurrentBowler != nil || len(data.CurrentBatsmen) != 0 || data.LastWicket != nil {
		t.Fatalf("expected empty ball projection: %+v", data)
	}
	if data.CurrentInnings != 1 {
		t.Fatalf("current innings = %d, want default 1", data.CurrentInnings)
	}
}

func TestGetLiveMatchData_UnknownMatch(t *testing.T) {
	t.Parallel()

	f := newLiveFixture(t, 0, nil)
	if _, err := f.svc.GetLiveMatchData(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetLiveMatchData_ServesCachedProjectionUntilInvalidated(t *testing.T) {
	t.Parallel()

	f := newLiveFixture(t, time.Minute, []match.Match{
		{ID: "m-1", Status: match.StatusLive, TeamA: "India", TeamB: "Australia"},
	})
	ctx := context.Background()

	if _, err := f.svc.GetLiveMatchData(ctx, "m-1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	f.insertBall(t, 1, ballevent.BallEvent{Runs: 6, IsSix: true, BatsmanProviderID: "prov-1", BowlerProviderID: "prov-2"})

	data, err := f.svc.GetLiveMatchData(ctx, "m-1")
	if err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if len(data.RecentOvers) != 0 {
		t.Fatal("expected the stale cached projection before invalidation")
	}

	f.svc.InvalidateMatch(ctx, "m-1")
	data, err = f.svc.GetLiveMatchData(ctx, "m-1")
	if err != nil {
		t.Fatalf("read after invalidation: %v", err)
	}
	if len(data.RecentOvers) != 1 {
		t.Fatalf("recent overs after invalidation = %d, want 1", len(data.RecentOvers))
	}
}

func TestRefreshLineup_GatedOnToss(t *testing.T) {
	t.Parallel()

	f := newLiveFixture(t, 0, []match.Match{
		{ID: "m-1", Status: match.StatusUpcoming, TeamA: "India", TeamB: "Australia"},
	})

	if _, err := f.svc.RefreshLineup(context.Background(), "m-1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict before the toss", err)
	}
}

func TestRefreshLineup_SplitsTeamsAndSubstitutes(t *testing.T) {
	t.Parallel()

	f := newLiveFixture(t, 0, []match.Match{
		{
			ID: "m-1", Status: match.StatusUpcoming,
			TeamA: "India", TeamB: "Australia",
			TossWinner: "India", TossDecision: "bat",
		},
	})
	ctx := context.Background()

	raw, err := sonic.Marshal(&Snapshot{
		Lineup: []SnapshotPlayer{
			{ProviderID: "prov-1", Name: "Rohit", TeamName: "India"},
			{ProviderID: "prov-3", Name: "Gill", TeamName: "India"},
			{ProviderID: "prov-9", Name: "Cummins", TeamName: "Australia"},
			{ProviderID: "prov-8", Name: "Marsh", TeamName: "Australia", IsSubstitute: true},
		},
	})
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if err := f.matchRepo.UpsertSummary(ctx, match.Summary{MatchID: "m-1", RawSnapshot: raw, CurrentInnings: 1}); err != nil {
		t.Fatalf("upsert summary: %v", err)
	}

	lineup, err := f.svc.RefreshLineup(ctx, "m-1")
	if err != nil {
		t.Fatalf("refresh lineup: %v", err)
	}
	if lineup.TossWinner != "India" || lineup.TossDecision != "bat" {
		t.Fatalf("toss = %s/%s", lineup.TossWinner, lineup.TossDecision)
	}
	if len(lineup.TeamA) != 2 || len(lineup.TeamB) != 1 || len(lineup.Substitutes) != 1 {
		t.Fatalf("split = %d/%d/%d, want 2/1/1", len(lineup.TeamA), len(lineup.TeamB), len(lineup.Substitutes))
	}
	if lineup.Substitutes[0].Name != "Marsh" {
		t.Fatalf("substitute = %s", lineup.Substitutes[0].Name)
	}
}

func TestRefreshLineup_NoSnapshotStored(t *testing.T) {
	t.Parallel()

	f := newLiveFixture(t, 0, []match.Match{
		{ID: "m-1", Status: match.StatusUpcoming, TossWinner: "India", TossDecision: "bowl"},
	})

	if _, err := f.svc.RefreshLineup(context.Background(), "m-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound without a stored snapshot", err)
	}
}
