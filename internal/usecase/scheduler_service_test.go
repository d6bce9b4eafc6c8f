package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/contest"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/match"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/infrastructure/repository/memory"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/id"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
)

type fakeProvider struct {
	mu    sync.Mutex
	snaps map[string]*Snapshot
	err   error
	calls int
}

func (p *fakeProvider) GetMatchSnapshot(_ context.Context, providerMatchID string) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.snaps[providerMatchID], nil
}

func newSchedulerFixture(t *testing.T, provider SnapshotProvider, matches []match.Match) (*SchedulerService, *memory.MatchRepository, *memory.PlayerStatsRepository, *memory.BallEventRepository, *memory.WalletRepository) {
	t.Helper()

	matchRepo := memory.NewMatchRepository(matches)
	playerRepo := memory.NewPlayerRepository(nil)
	statsRepo := memory.NewPlayerStatsRepository()
	ballRepo := memory.NewBallEventRepository()
	contestRepo := memory.NewContestRepository(nil, nil, nil, nil)
	walletRepo := memory.NewWalletRepository(contestRepo)

	gen := id.NewRandomGenerator()
	nop := logging.NewNop()
	extractor := NewStatsExtractorService(playerRepo, statsRepo, gen, nop)
	sequencer := NewBallSequencerService(ballRepo, nop)
	leaderboard := NewLeaderboardService(contestRepo, statsRepo, nop)
	settlement := NewSettlementService(matchRepo, contestRepo, statsRepo, walletRepo, nil, gen, nop, 1, 0)

	svc := NewSchedulerService(matchRepo, provider, extractor, sequencer, leaderboard, settlement, SchedulerConfig{}, nop)
	return svc, matchRepo, statsRepo, ballRepo, walletRepo
}

func liveSnapshot(status string) *Snapshot {
	return &Snapshot{
		Status: status,
		Lineup: []SnapshotPlayer{
			{ProviderID: "prov-1", Name: "Rohit", Role: "bat", TeamName: "India"},
		},
		Batting: []SnapshotBatting{
			{PlayerID: "prov-1", Runs: 30, Balls: 20, Fours: 4},
		},
		Balls: []SnapshotBall{
			{ProviderID: "101", BatsmanID: "prov-1", Score: &SnapshotBallScore{Runs: 4, IsFour: true}},
			{ProviderID: "102", BatsmanID: "prov-1", Score: &SnapshotBallScore{Runs: 1}},
		},
		Toss:   SnapshotToss{Done: true, Winner: "India", Decision: "bat"},
		Scores: []SnapshotTeamScore{{TeamName: "India", Score: "30/0", Overs: "3.2", Innings: 1}},
	}
}

func TestTriggerMatchUpdate_IngestsSnapshot(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{snaps: map[string]*Snapshot{"pm-1": liveSnapshot("live")}}
	svc, matchRepo, statsRepo, ballRepo, _ := newSchedulerFixture(t, provider, []match.Match{
		{ID: "m-1", ProviderID: "pm-1", Status: match.StatusLive, TeamA: "India", TeamB: "Australia"},
	})

	ctx := context.Background()
	ran, err := svc.TriggerMatchUpdate(ctx, "m-1")
	if err != nil || !ran {
		t.Fatalf("trigger update: ran=%v err=%v", ran, err)
	}

	rows, _ := statsRepo.ListByMatch(ctx, "m-1")
	if len(rows) != 1 {
		t.Fatalf("stat rows = %d, want 1", len(rows))
	}
	count, _ := ballRepo.CountByMatch(ctx, "m-1")
	if count != 2 {
		t.Fatalf("ball events = %d, want 2", count)
	}

	summary, found, _ := matchRepo.GetSummary(ctx, "m-1")
	if !found {
		t.Fatal("summary not upserted")
	}
	if summary.TeamAScore != "30/0" || summary.Overs != "3.2" {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	m, _, _ := matchRepo.GetByID(ctx, "m-1")
	if m.TossWinner != "India" || m.TossDecision != "bat" {
		t.Fatalf("toss not recorded: %+v", m)
	}
}

func TestTriggerMatchUpdate_NilSnapshotIsSoftFailure(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{snaps: map[string]*Snapshot{}}
	svc, _, statsRepo, _, _ := newSchedulerFixture(t, provider, []match.Match{
		{ID: "m-1", ProviderID: "pm-1", Status: match.StatusLive},
	})

	ctx := context.Background()
	if _, err := svc.TriggerMatchUpdate(ctx, "m-1"); err != nil {
		t.Fatalf("nil snapshot must not error: %v", err)
	}
	rows, _ := statsRepo.ListByMatch(ctx, "m-1")
	if len(rows) != 0 {
		t.Fatalf("stat rows = %d, want 0", len(rows))
	}
}

func TestTriggerMatchUpdate_ProviderErrorPropagates(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{err: errors.New("feed down")}
	svc, _, _, _, _ := newSchedulerFixture(t, provider, []match.Match{
		{ID: "m-1", ProviderID: "pm-1", Status: match.StatusLive},
	})

	if _, err := svc.TriggerMatchUpdate(context.Background(), "m-1"); err == nil {
		t.Fatal("expected provider error")
	}
}

func TestPollOnce_CompletionTransitionsAndSettlesOnce(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{snaps: map[string]*Snapshot{"pm-1": liveSnapshot("match ended")}}
	svc, matchRepo, _, _, _ := newSchedulerFixture(t, provider, []match.Match{
		{ID: "m-1", ProviderID: "pm-1", Status: match.StatusLive, TeamA: "India", TeamB: "Australia"},
	})

	ctx := context.Background()
	if _, err := svc.TriggerMatchUpdate(ctx, "m-1"); err != nil {
		t.Fatalf("first poll: %v", err)
	}

	m, _, _ := matchRepo.GetByID(ctx, "m-1")
	if m.Status != match.StatusCompleted {
		t.Fatalf("match status = %s, want completed", m.Status)
	}
	if m.Result != "match ended" {
		t.Fatalf("match result = %q, want provider status", m.Result)
	}

	// A second observation of the completed status must be a no-op.
	if _, err := svc.TriggerMatchUpdate(ctx, "m-1"); err != nil {
		t.Fatalf("second poll: %v", err)
	}
	m, _, _ = matchRepo.GetByID(ctx, "m-1")
	if m.Status != match.StatusCompleted {
		t.Fatalf("match status after second poll = %s", m.Status)
	}
	svc.wg.Wait()
}

func TestResyncBalls_RenumbersFromLatestSnapshot(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{snaps: map[string]*Snapshot{"pm-1": liveSnapshot("live")}}
	svc, _, _, ballRepo, _ := newSchedulerFixture(t, provider, []match.Match{
		{ID: "m-1", ProviderID: "pm-1", Status: match.StatusLive},
	})

	ctx := context.Background()
	if _, err := svc.TriggerMatchUpdate(ctx, "m-1"); err != nil {
		t.Fatalf("initial poll: %v", err)
	}

	outcome, err := svc.ResyncBalls(ctx, "m-1")
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if outcome.Inserted != 2 {
		t.Fatalf("resync inserted = %d, want 2", outcome.Inserted)
	}

	events, _ := ballRepo.ListByMatch(ctx, "m-1")
	for i, ev := range events {
		if ev.Seq != i+1 {
			t.Fatalf("seq gap after resync at index %d: %d", i, ev.Seq)
		}
	}
}

func TestEnsureLivePollers_ReapsCompletedMatchAndSettles(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{snaps: map[string]*Snapshot{"pm-1": liveSnapshot("live")}}
	matchRepo := memory.NewMatchRepository([]match.Match{
		{ID: "m-1", ProviderID: "pm-1", Status: match.StatusLive},
	})
	playerRepo := memory.NewPlayerRepository(nil)
	statsRepo := memory.NewPlayerStatsRepository()
	ballRepo := memory.NewBallEventRepository()
	contestRepo := memory.NewContestRepository([]contest.Contest{
		{ID: "c-1", MatchID: "m-1", SettlementStatus: contest.SettlementPending},
	}, nil, nil, nil)
	walletRepo := memory.NewWalletRepository(contestRepo)

	gen := id.NewRandomGenerator()
	nop := logging.NewNop()
	extractor := NewStatsExtractorService(playerRepo, statsRepo, gen, nop)
	sequencer := NewBallSequencerService(ballRepo, nop)
	leaderboard := NewLeaderboardService(contestRepo, statsRepo, nop)
	settlement := NewSettlementService(matchRepo, contestRepo, statsRepo, walletRepo, nil, gen, nop, 1, 0)
	svc := NewSchedulerService(matchRepo, provider, extractor, sequencer, leaderboard, settlement, SchedulerConfig{}, nop)

	ctx := context.Background()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer svc.Stop()

	svc.mu.Lock()
	_, registered := svc.pollers["m-1"]
	svc.mu.Unlock()
	if !registered {
		t.Fatal("recovery sweep did not register the live poller")
	}

	// Completion lands outside pollOnce, the way a forced settle or an
	// import applies it.
	if _, err := matchRepo.TransitionStatus(ctx, "m-1", match.StatusLive, match.StatusCompleted); err != nil {
		t.Fatalf("transition: %v", err)
	}

	svc.ensureLivePollers(svc.runCtx)

	deadline := time.Now().Add(5 * time.Second)
	for {
		svc.mu.Lock()
		_, still := svc.pollers["m-1"]
		svc.mu.Unlock()
		if !still {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("poller for completed match was not reaped")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The reap settles asynchronously; the empty contest flips to paid
	// once it runs.
	deadline = time.Now().Add(5 * time.Second)
	for {
		c, _, err := contestRepo.GetByID(ctx, "c-1")
		if err != nil {
			t.Fatalf("get contest: %v", err)
		}
		if c.SettlementStatus == contest.SettlementPaid {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("contest settlement status = %s, want paid", c.SettlementStatus)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{snaps: map[string]*Snapshot{}}
	svc, _, _, _, _ := newSchedulerFixture(t, provider, nil)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.Start(context.Background()); err == nil {
		t.Fatal("second start must fail")
	}

	done := make(chan struct{})
	go func() {
		svc.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not return")
	}
}
