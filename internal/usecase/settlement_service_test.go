package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/contest"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/match"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/playerstats"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/wallet"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/infrastructure/repository/memory"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/id"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
)

// settlementFixture wires the memory stores for the documented
// scenario: entries A(120), B(150), C(150) created in order A, B, C
// with prizes rank1=1000, rank2=500.
type settlementFixture struct {
	matchRepo   *memory.MatchRepository
	contestRepo *memory.ContestRepository
	statsRepo   *memory.PlayerStatsRepository
	walletRepo  *memory.WalletRepository
	svc         *SettlementService
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	matchRepo := memory.NewMatchRepository([]match.Match{
		{ID: "m-1", ProviderID: "pm-1", Status: match.StatusCompleted, StartAt: base},
	})
	contestRepo := memory.NewContestRepository(
		[]contest.Contest{{ID: "c-1", MatchID: "m-1", Name: "Grand", SettlementStatus: contest.SettlementPending}},
		[]contest.Entry{
			{ID: "e-a", ContestID: "c-1", TeamID: "t-a", UserID: "u-a", CreatedAt: base},
			{ID: "e-b", ContestID: "c-1", TeamID: "t-b", UserID: "u-b", CreatedAt: base.Add(time.Minute)},
			{ID: "e-c", ContestID: "c-1", TeamID: "t-c", UserID: "u-c", CreatedAt: base.Add(2 * time.Minute)},
		},
		[]contest.FantasyTeam{
			{ID: "t-a", UserID: "u-a", MatchID: "m-1", PlayerIDs: []string{"p-a"}, CaptainID: "x", ViceCaptainID: "y"},
			{ID: "t-b", UserID: "u-b", MatchID: "m-1", PlayerIDs: []string{"p-b"}, CaptainID: "x", ViceCaptainID: "y"},
			{ID: "t-c", UserID: "u-c", MatchID: "m-1", PlayerIDs: []string{"p-c"}, CaptainID: "x", ViceCaptainID: "y"},
		},
		[]contest.PrizeBreakup{
			{ContestID: "c-1", Rank: 1, Amount: 1000},
			{ContestID: "c-1", Rank: 2, Amount: 500},
		},
	)

	statsRepo := memory.NewPlayerStatsRepository()
	ctx := context.Background()
	for playerID, points := range map[string]float64{"p-a": 120, "p-b": 150, "p-c": 150} {
		if err := statsRepo.Upsert(ctx, playerstats.PlayerStatistic{MatchID: "m-1", PlayerID: playerID, Points: points}); err != nil {
			t.Fatalf("seed stats: %v", err)
		}
	}

	walletRepo := memory.NewWalletRepository(contestRepo)
	svc := NewSettlementService(
		matchRepo, contestRepo, statsRepo, walletRepo,
		nil, id.NewRandomGenerator(), logging.NewNop(),
		3, 0,
	)
	return &settlementFixture{
		matchRepo:   matchRepo,
		contestRepo: contestRepo,
		statsRepo:   statsRepo,
		walletRepo:  walletRepo,
		svc:         svc,
	}
}

func TestSettleMatch_RanksPrizesAndPays(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)
	ctx := context.Background()

	if err := f.svc.SettleMatch(ctx, "m-1"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	// Tie at 150: B entered before C, so B takes rank 1.
	eb, _ := f.contestRepo.Entry("e-b")
	if eb.Rank == nil || *eb.Rank != 1 {
		t.Fatalf("e-b rank = %v, want 1", eb.Rank)
	}
	ec, _ := f.contestRepo.Entry("e-c")
	if ec.Rank == nil || *ec.Rank != 2 {
		t.Fatalf("e-c rank = %v, want 2", ec.Rank)
	}
	ea, _ := f.contestRepo.Entry("e-a")
	if ea.Rank == nil || *ea.Rank != 3 {
		t.Fatalf("e-a rank = %v, want 3", ea.Rank)
	}
	if ea.WinAmount != nil {
		t.Fatalf("e-a must win nothing, got %v", *ea.WinAmount)
	}

	balB, _ := f.walletRepo.Balance(ctx, "u-b")
	if balB != 1000 {
		t.Fatalf("u-b balance = %v, want 1000", balB)
	}
	balC, _ := f.walletRepo.Balance(ctx, "u-c")
	if balC != 500 {
		t.Fatalf("u-c balance = %v, want 500", balC)
	}
	if txs := f.walletRepo.Transactions(); len(txs) != 2 {
		t.Fatalf("transactions = %d, want exactly 2", len(txs))
	}

	c, _ := f.contestRepo.Contest("c-1")
	if c.SettlementStatus != contest.SettlementPaid {
		t.Fatalf("contest status = %s, want paid", c.SettlementStatus)
	}
}

func TestSettleMatch_RerunCreatesNoDuplicatePayouts(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := f.svc.SettleMatch(ctx, "m-1"); err != nil {
			t.Fatalf("settle run %d: %v", i, err)
		}
	}

	if txs := f.walletRepo.Transactions(); len(txs) != 2 {
		t.Fatalf("transactions after reruns = %d, want 2", len(txs))
	}
	balB, _ := f.walletRepo.Balance(ctx, "u-b")
	if balB != 1000 {
		t.Fatalf("u-b balance after reruns = %v, want 1000", balB)
	}
}

func TestSettleMatch_ExactlyOnceUnderTransientFailure(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)
	ctx := context.Background()

	// First credit attempt fails mid-payout; the retry inside the same
	// run must land exactly one transaction.
	f.walletRepo.FailNextCredits = 1
	if err := f.svc.SettleMatch(ctx, "m-1"); err != nil {
		t.Fatalf("settle with transient failure: %v", err)
	}

	if txs := f.walletRepo.Transactions(); len(txs) != 2 {
		t.Fatalf("transactions = %d, want 2", len(txs))
	}
	balB, _ := f.walletRepo.Balance(ctx, "u-b")
	balC, _ := f.walletRepo.Balance(ctx, "u-c")
	if balB+balC != 1500 {
		t.Fatalf("combined winner balance = %v, want 1500", balB+balC)
	}
}

func TestSettleMatch_ExhaustedRetriesLeaveFailureRecord(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)
	ctx := context.Background()

	// Enough consecutive failures to exhaust the rank-1 payout's
	// retries; the rank-2 payout then succeeds.
	f.walletRepo.FailNextCredits = 3
	if err := f.svc.SettleMatch(ctx, "m-1"); err == nil {
		t.Fatal("expected error when a payout is deferred to a failure record")
	}

	failures, listErr := f.walletRepo.ListFailuresByContest(ctx, "c-1")
	if listErr != nil {
		t.Fatalf("list failures: %v", listErr)
	}
	if len(failures) != 1 {
		t.Fatalf("failure records = %d, want 1", len(failures))
	}
	if failures[0].UserID != "u-b" || failures[0].Rank != 1 || failures[0].Amount != 1000 {
		t.Fatalf("unexpected failure record: %+v", failures[0])
	}

	c, _ := f.contestRepo.Contest("c-1")
	if c.SettlementStatus != contest.SettlementRanked {
		t.Fatalf("contest status = %s, want ranked while a payout is outstanding", c.SettlementStatus)
	}

	// The repair run pays the remaining winner exactly once.
	if err := f.svc.SettleMatch(ctx, "m-1"); err != nil {
		t.Fatalf("repair run: %v", err)
	}
	if txs := f.walletRepo.Transactions(); len(txs) != 2 {
		t.Fatalf("transactions after repair = %d, want 2", len(txs))
	}
}

func TestSettleMatch_RequiresCompletedMatch(t *testing.T) {
	t.Parallel()

	matchRepo := memory.NewMatchRepository([]match.Match{
		{ID: "m-live", ProviderID: "pm", Status: match.StatusLive},
	})
	svc := NewSettlementService(
		matchRepo, memory.NewContestRepository(nil, nil, nil, nil),
		memory.NewPlayerStatsRepository(), memory.NewWalletRepository(nil),
		nil, id.NewRandomGenerator(), logging.NewNop(), 1, 0,
	)

	if err := svc.SettleMatch(context.Background(), "m-live"); err == nil {
		t.Fatal("expected error for non-completed match")
	}
}

func TestForceSettle_TransitionsLiveMatch(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)
	ctx := context.Background()

	// Rewind the fixture match to live to simulate a stuck match.
	matchRepo := memory.NewMatchRepository([]match.Match{
		{ID: "m-1", ProviderID: "pm-1", Status: match.StatusLive},
	})
	svc := NewSettlementService(
		matchRepo, f.contestRepo, f.statsRepo, f.walletRepo,
		nil, id.NewRandomGenerator(), logging.NewNop(), 3, 0,
	)

	if err := svc.ForceSettle(ctx, "m-1"); err != nil {
		t.Fatalf("force settle: %v", err)
	}

	m, _, _ := matchRepo.GetByID(ctx, "m-1")
	if m.Status != match.StatusCompleted {
		t.Fatalf("match status = %s, want completed", m.Status)
	}
	if txs := f.walletRepo.Transactions(); len(txs) != 2 {
		t.Fatalf("transactions = %d, want 2", len(txs))
	}
}

func TestProcessWinner_RepairsMissingWinAmount(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)
	ctx := context.Background()

	// Simulate a prior run that credited u-b but crashed before the
	// entry update: pre-insert the completed transaction only.
	pre := memory.NewWalletRepository(nil)
	if err := pre.CreditContestWin(ctx, wallet.CreditInput{
		TransactionID: "tx-prior",
		UserID:        "u-b",
		ContestID:     "c-1",
		EntryID:       "e-b",
		Rank:          1,
		Amount:        1000,
		Reference:     PayoutReference("c-1", 1),
	}); err != nil {
		t.Fatalf("seed prior transaction: %v", err)
	}

	svc := NewSettlementService(
		f.matchRepo, f.contestRepo, f.statsRepo, pre,
		nil, id.NewRandomGenerator(), logging.NewNop(), 3, 0,
	)
	if err := svc.SettleMatch(ctx, "m-1"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	eb, _ := f.contestRepo.Entry("e-b")
	if eb.WinAmount == nil || *eb.WinAmount != 1000 {
		t.Fatalf("e-b win amount not repaired: %v", eb.WinAmount)
	}

	// u-b keeps a single transaction; u-c gets its normal payout.
	count := 0
	for _, tx := range pre.Transactions() {
		if tx.UserID == "u-b" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("u-b transactions = %d, want 1", count)
	}
}
