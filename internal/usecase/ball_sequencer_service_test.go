package usecase

import (
	"context"
	"testing"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/ballevent"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/infrastructure/repository/memory"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
)

func ballWithID(id string, runs int) SnapshotBall {
	return SnapshotBall{
		ProviderID: id,
		Score:      &SnapshotBallScore{Runs: runs},
	}
}

func assertContiguous(t *testing.T, events []ballevent.BallEvent) {
	t.Helper()
	for i, ev := range events {
		if ev.Seq != i+1 {
			t.Fatalf("event %d has seq %d, want %d", i, ev.Seq, i+1)
		}
	}
}

func TestSequence_AssignsGapFreeSequence(t *testing.T) {
	t.Parallel()

	repo := memory.NewBallEventRepository()
	svc := NewBallSequencerService(repo, logging.NewNop())

	// Feed arrives out of order.
	balls := []SnapshotBall{ballWithID("103", 4), ballWithID("101", 0), ballWithID("102", 6)}
	outcome, err := svc.Sequence(context.Background(), "m-1", balls, false)
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
	if outcome.Inserted != 3 {
		t.Fatalf("inserted = %d, want 3", outcome.Inserted)
	}

	events, err := repo.ListByMatch(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	assertContiguous(t, events)
	if events[0].ProviderBallID != "101" || events[2].ProviderBallID != "103" {
		t.Fatalf("events not in provider-id order: %s..%s", events[0].ProviderBallID, events[2].ProviderBallID)
	}
	if events[0].Over != "0.1" || events[2].Over != "0.3" {
		t.Fatalf("unexpected over notation: %s, %s", events[0].Over, events[2].Over)
	}
}

func TestSequence_ResendsAddNothing(t *testing.T) {
	t.Parallel()

	repo := memory.NewBallEventRepository()
	svc := NewBallSequencerService(repo, logging.NewNop())
	ctx := context.Background()

	first := []SnapshotBall{ballWithID("101", 1), ballWithID("102", 0), ballWithID("105", 4)}
	if _, err := svc.Sequence(ctx, "m-1", first, false); err != nil {
		t.Fatalf("first poll: %v", err)
	}

	// Second poll resends 105 unchanged plus two genuinely new balls.
	second := []SnapshotBall{ballWithID("105", 4), ballWithID("106", 6), ballWithID("107", 0)}
	outcome, err := svc.Sequence(ctx, "m-1", second, false)
	if err != nil {
		t.Fatalf("second poll: %v", err)
	}
	if outcome.Inserted != 2 || outcome.Skipped != 1 {
		t.Fatalf("outcome = %+v, want 2 inserted 1 skipped", outcome)
	}

	events, _ := repo.ListByMatch(ctx, "m-1")
	if len(events) != 5 {
		t.Fatalf("total events = %d, want 5", len(events))
	}
	assertContiguous(t, events)

	count := 0
	for _, ev := range events {
		if ev.ProviderBallID == "105" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("provider id 105 stored %d times, want 1", count)
	}
}

func TestSequence_DuplicateWithinOnePoll(t *testing.T) {
	t.Parallel()

	repo := memory.NewBallEventRepository()
	svc := NewBallSequencerService(repo, logging.NewNop())

	balls := []SnapshotBall{ballWithID("101", 1), ballWithID("101", 1), ballWithID("102", 2)}
	outcome, err := svc.Sequence(context.Background(), "m-1", balls, false)
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
	if outcome.Inserted != 2 || outcome.Skipped != 1 {
		t.Fatalf("outcome = %+v, want 2 inserted 1 skipped", outcome)
	}
}

func TestSequence_ForcedResyncRenumbersFromOne(t *testing.T) {
	t.Parallel()

	repo := memory.NewBallEventRepository()
	svc := NewBallSequencerService(repo, logging.NewNop())
	ctx := context.Background()

	if _, err := svc.Sequence(ctx, "m-1", []SnapshotBall{ballWithID("101", 0), ballWithID("102", 4)}, false); err != nil {
		t.Fatalf("initial poll: %v", err)
	}

	resyncBalls := []SnapshotBall{ballWithID("101", 0), ballWithID("102", 4), ballWithID("103", 6)}
	outcome, err := svc.Sequence(ctx, "m-1", resyncBalls, true)
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if outcome.Inserted != 3 {
		t.Fatalf("resync inserted = %d, want 3", outcome.Inserted)
	}

	events, _ := repo.ListByMatch(ctx, "m-1")
	if len(events) != 3 {
		t.Fatalf("total events after resync = %d, want 3", len(events))
	}
	assertContiguous(t, events)
}

func TestSequence_ForcedResyncRebuildsOutOfOrderHistory(t *testing.T) {
	t.Parallel()

	repo := memory.NewBallEventRepository()
	svc := NewBallSequencerService(repo, logging.NewNop())
	ctx := context.Background()

	// Ball 200 arrives a poll before 100, so 100 is stored at seq 2
	// while the resync snapshot wants it at seq 1.
	if _, err := svc.Sequence(ctx, "m-1", []SnapshotBall{ballWithID("200", 4)}, false); err != nil {
		t.Fatalf("first poll: %v", err)
	}
	if _, err := svc.Sequence(ctx, "m-1", []SnapshotBall{ballWithID("100", 1), ballWithID("200", 4)}, false); err != nil {
		t.Fatalf("second poll: %v", err)
	}

	resyncBalls := []SnapshotBall{ballWithID("100", 1), ballWithID("200", 4)}
	outcome, err := svc.Sequence(ctx, "m-1", resyncBalls, true)
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if outcome.Inserted != 2 || outcome.Failed != 0 {
		t.Fatalf("resync outcome = %+v, want 2 inserted 0 failed", outcome)
	}

	events, _ := repo.ListByMatch(ctx, "m-1")
	if len(events) != 2 {
		t.Fatalf("total events after resync = %d, want 2", len(events))
	}
	assertContiguous(t, events)
	if events[0].ProviderBallID != "100" || events[1].ProviderBallID != "200" {
		t.Fatalf("unexpected order after resync: %s, %s", events[0].ProviderBallID, events[1].ProviderBallID)
	}
}

func TestSequence_ForcedResyncIdempotent(t *testing.T) {
	t.Parallel()

	repo := memory.NewBallEventRepository()
	svc := NewBallSequencerService(repo, logging.NewNop())
	ctx := context.Background()

	balls := []SnapshotBall{ballWithID("101", 0), ballWithID("102", 4), ballWithID("103", 1)}
	if _, err := svc.Sequence(ctx, "m-1", balls, true); err != nil {
		t.Fatalf("first resync: %v", err)
	}
	firstEvents, _ := repo.ListByMatch(ctx, "m-1")

	if _, err := svc.Sequence(ctx, "m-1", balls, true); err != nil {
		t.Fatalf("second resync: %v", err)
	}
	secondEvents, _ := repo.ListByMatch(ctx, "m-1")

	if len(firstEvents) != len(secondEvents) {
		t.Fatalf("event count changed: %d vs %d", len(firstEvents), len(secondEvents))
	}
	for i := range firstEvents {
		a, b := firstEvents[i], secondEvents[i]
		if a.Seq != b.Seq || a.ProviderBallID != b.ProviderBallID || a.Runs != b.Runs {
			t.Fatalf("event %d differs across resyncs: %+v vs %+v", i, a, b)
		}
	}
	assertContiguous(t, secondEvents)
}

func TestSequence_TopLevelScoreFallback(t *testing.T) {
	t.Parallel()

	repo := memory.NewBallEventRepository()
	svc := NewBallSequencerService(repo, logging.NewNop())

	balls := []SnapshotBall{{ProviderID: "101", Runs: 4, IsFour: true}}
	if _, err := svc.Sequence(context.Background(), "m-1", balls, false); err != nil {
		t.Fatalf("sequence: %v", err)
	}

	events, _ := repo.ListByMatch(context.Background(), "m-1")
	if len(events) != 1 || events[0].Runs != 4 || !events[0].IsFour {
		t.Fatalf("top-level fallback not applied: %+v", events)
	}
}

func TestSequence_InningsFromScoreboardTag(t *testing.T) {
	t.Parallel()

	repo := memory.NewBallEventRepository()
	svc := NewBallSequencerService(repo, logging.NewNop())

	balls := []SnapshotBall{
		{ProviderID: "101", ScoreboardTag: "S1"},
		{ProviderID: "102", ScoreboardTag: "S2"},
		{ProviderID: "103", ScoreboardTag: ""},
	}
	if _, err := svc.Sequence(context.Background(), "m-1", balls, false); err != nil {
		t.Fatalf("sequence: %v", err)
	}

	events, _ := repo.ListByMatch(context.Background(), "m-1")
	if events[0].Innings != 1 || events[1].Innings != 2 || events[2].Innings != 1 {
		t.Fatalf("unexpected innings: %d, %d, %d", events[0].Innings, events[1].Innings, events[2].Innings)
	}
}

func TestOverNotation(t *testing.T) {
	t.Parallel()

	cases := map[int]string{
		1:  "0.1",
		6:  "0.6",
		7:  "1.1",
		12: "1.6",
		13: "2.1",
	}
	for seq, want := range cases {
		if got := ballevent.OverNotation(seq); got != want {
			t.Fatalf("OverNotation(%d) = %s, want %s", seq, got, want)
		}
	}
}
