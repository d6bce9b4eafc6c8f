package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bytedance/sonic"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/ballevent"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
)

// BallSequencerService assigns every delivery a stable, gap-free
// sequence number per match. Provider order is advisory only: the feed
// reorders and resends deliveries across polls, so position is decided
// locally and never changed once stored outside a forced resync.
type BallSequencerService struct {
	ballRepo ballevent.Repository
	logger   *logging.Logger
	now      func() time.Time
}

func NewBallSequencerService(ballRepo ballevent.Repository, logger *logging.Logger) *BallSequencerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &BallSequencerService{
		ballRepo: ballRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// SequenceOutcome reports one sequencing pass.
type SequenceOutcome struct {
	Inserted int
	Skipped  int
	Failed   int
}

// Sequence ingests the snapshot's ball list. On a normal poll, balls
// whose provider id is already stored are skipped and new balls resume
// at count+1. On a forced resync, every stored event for the match is
// deleted first and the snapshot is renumbered from 1, so re-running a
// resync always rebuilds the same gap-free log.
func (s *BallSequencerService) Sequence(ctx context.Context, matchID string, balls []SnapshotBall, forceResync bool) (SequenceOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BallSequencerService.Sequence")
	defer span.End()

	if matchID == "" {
		return SequenceOutcome{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if len(balls) == 0 {
		return SequenceOutcome{}, nil
	}

	sorted := sortBalls(balls)

	var known map[string]struct{}
	nextSeq := 1
	if forceResync {
		if err := s.ballRepo.DeleteByMatch(ctx, matchID); err != nil {
			return SequenceOutcome{}, fmt.Errorf("clear ball events for resync: %w", err)
		}
		known = make(map[string]struct{}, len(sorted))
	} else {
		var err error
		known, err = s.ballRepo.ProviderBallIDsByMatch(ctx, matchID)
		if err != nil {
			return SequenceOutcome{}, fmt.Errorf("load known provider ball ids: %w", err)
		}
		count, countErr := s.ballRepo.CountByMatch(ctx, matchID)
		if countErr != nil {
			return SequenceOutcome{}, fmt.Errorf("count ball events: %w", countErr)
		}
		nextSeq = count + 1
	}

	outcome := SequenceOutcome{}
	now := s.now().UTC()
	seenThisPoll := make(map[string]struct{}, len(sorted))
	for _, ball := range sorted {
		if ball.ProviderID != "" {
			if _, dup := seenThisPoll[ball.ProviderID]; dup {
				outcome.Skipped++
				continue
			}
			seenThisPoll[ball.ProviderID] = struct{}{}
		}

		if !forceResync && ball.ProviderID != "" {
			if _, seen := known[ball.ProviderID]; seen {
				outcome.Skipped++
				continue
			}
		}

		event, buildErr := s.buildEvent(matchID, nextSeq, ball, now)
		if buildErr != nil {
			outcome.Failed++
			s.logger.WarnContext(ctx, "build ball event",
				"match_id", matchID,
				"provider_ball_id", ball.ProviderID,
				"error", buildErr,
			)
			continue
		}

		if insErr := s.ballRepo.Insert(ctx, event); insErr != nil {
			outcome.Failed++
			s.logger.WarnContext(ctx, "insert ball event",
				"match_id", matchID,
				"seq", nextSeq,
				"error", insErr,
			)
			continue
		}
		if ball.ProviderID != "" {
			known[ball.ProviderID] = struct{}{}
		}
		nextSeq++
		outcome.Inserted++
	}

	return outcome, nil
}

func (s *BallSequencerService) buildEvent(matchID string, seq int, ball SnapshotBall, now time.Time) (ballevent.BallEvent, error) {
	raw, err := sonic.Marshal(ball)
	if err != nil {
		return ballevent.BallEvent{}, fmt.Errorf("marshal raw ball payload: %w", err)
	}

	score := ball.EffectiveScore()
	return ballevent.BallEvent{
		MatchID:              matchID,
		Seq:                  seq,
		Over:                 ballevent.OverNotation(seq),
		ProviderBallID:       ball.ProviderID,
		Innings:              ball.Innings(),
		Runs:                 score.Runs,
		IsFour:               score.IsFour,
		IsSix:                score.IsSix,
		IsWicket:             score.IsWicket,
		WicketType:           normalizeWicketType(score.WicketType),
		BatsmanProviderID:    ball.BatsmanID,
		BowlerProviderID:     ball.BowlerID,
		OutBatsmanProviderID: ball.OutBatsmanID,
		Raw:                  raw,
		CreatedAt:            now,
	}, nil
}

// sortBalls orders by provider ball id ascending to approximate
// delivery order inside one poll. Balls without ids keep their feed
// position relative to each other and sort after identified balls.
func sortBalls(balls []SnapshotBall) []SnapshotBall {
	out := make([]SnapshotBall, len(balls))
	copy(out, balls)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ProviderID, out[j].ProviderID
		if a == "" || b == "" {
			return b == "" && a != ""
		}
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return out
}
