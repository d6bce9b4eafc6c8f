package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/contest"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/match"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/wallet"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/id"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
)

// ReplayPublisher queues a failed payout for out-of-band repair.
// Publishing is best effort; the durable FailureRecord is the source of
// truth either way.
type ReplayPublisher interface {
	EnqueueSettlementReplay(ctx context.Context, failure wallet.FailureRecord) error
}

// SettlementService ranks contest entries once their match completes,
// applies the prize table, and credits winners' wallets exactly once.
type SettlementService struct {
	matchRepo   match.Repository
	contestRepo contest.Repository
	statsRepo   statsPointsReader
	walletRepo  wallet.Repository
	replay      ReplayPublisher
	idGen       id.Generator
	logger      *logging.Logger
	now         func() time.Time
	sleep       func(context.Context, time.Duration)

	maxRetries int
	retryDelay time.Duration
}

func NewSettlementService(
	matchRepo match.Repository,
	contestRepo contest.Repository,
	statsRepo statsPointsReader,
	walletRepo wallet.Repository,
	replay ReplayPublisher,
	idGen id.Generator,
	logger *logging.Logger,
	maxRetries int,
	retryDelay time.Duration,
) *SettlementService {
	if logger == nil {
		logger = logging.Default()
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &SettlementService{
		matchRepo:   matchRepo,
		contestRepo: contestRepo,
		statsRepo:   statsRepo,
		walletRepo:  walletRepo,
		replay:      replay,
		idGen:       idGen,
		logger:      logger,
		now:         time.Now,
		sleep:       sleepCtx,
		maxRetries:  maxRetries,
		retryDelay:  retryDelay,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// PayoutReference encodes the (user-independent part of the) payout
// idempotency key. Combined with the user id and transaction type it
// pins one completed contest_win per (user, contest, rank).
func PayoutReference(contestID string, rank int) string {
	return fmt.Sprintf("Won contest %s - Rank %d", contestID, rank)
}

// SettleMatch settles every contest attached to a completed match.
// Safe to re-run: ranking is deterministic and payouts are idempotent.
func (s *SettlementService) SettleMatch(ctx context.Context, matchID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.SettleMatch")
	defer span.End()

	m, found, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	if m.Status != match.StatusCompleted {
		return fmt.Errorf("%w: match %s is %s, settlement requires completed", ErrConflict, matchID, m.Status)
	}

	contests, err := s.contestRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("list contests by match: %w", err)
	}

	var firstErr error
	for _, c := range contests {
		if c.SettlementStatus == contest.SettlementPaid {
			continue
		}
		if settleErr := s.settleContest(ctx, matchID, c); settleErr != nil {
			if firstErr == nil {
				firstErr = settleErr
			}
			s.logger.ErrorContext(ctx, "settle contest",
				"match_id", matchID,
				"contest_id", c.ID,
				"error", settleErr,
			)
		}
	}
	return firstErr
}

// ForceSettle is the manual trigger for matches the provider never
// reported as finished. A live match is transitioned to completed
// first; an already completed match is settled as-is.
func (s *SettlementService) ForceSettle(ctx context.Context, matchID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.ForceSettle")
	defer span.End()

	m, found, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	switch m.Status {
	case match.StatusLive:
		if _, err := s.matchRepo.TransitionStatus(ctx, matchID, match.StatusLive, match.StatusCompleted); err != nil {
			return fmt.Errorf("transition match to completed: %w", err)
		}
	case match.StatusCompleted:
	default:
		return fmt.Errorf("%w: match %s is %s, cannot force settle", ErrConflict, matchID, m.Status)
	}

	return s.SettleMatch(ctx, matchID)
}

type rankedEntry struct {
	entry  contest.Entry
	points float64
	rank   int
}

func (s *SettlementService) settleContest(ctx context.Context, matchID string, c contest.Contest) error {
	ranked, err := s.rankEntries(ctx, matchID, c)
	if err != nil {
		return err
	}
	if len(ranked) == 0 {
		return s.contestRepo.UpdateSettlementStatus(ctx, c.ID, contest.SettlementPaid)
	}

	if c.SettlementStatus == contest.SettlementPending {
		if err := s.contestRepo.UpdateSettlementStatus(ctx, c.ID, contest.SettlementRanked); err != nil {
			return fmt.Errorf("mark contest ranked: %w", err)
		}
	}

	prizes, err := s.contestRepo.ListPrizeBreakups(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("list prize breakups: %w", err)
	}
	prizeByRank := make(map[int]float64, len(prizes))
	for _, p := range prizes {
		prizeByRank[p.Rank] = p.Amount
	}

	payoutFailures := 0
	for _, r := range ranked {
		amount, won := prizeByRank[r.rank]
		if !won || amount <= 0 {
			continue
		}
		if payErr := s.processWinner(ctx, c, r, amount); payErr != nil {
			payoutFailures++
		}
	}

	if payoutFailures > 0 {
		return fmt.Errorf("settle contest %s: %d payout(s) deferred to failure records", c.ID, payoutFailures)
	}
	return s.contestRepo.UpdateSettlementStatus(ctx, c.ID, contest.SettlementPaid)
}

// rankEntries recomputes final points, sorts descending, and assigns
// 1-based positional ranks. Ties keep entry-creation order, so the
// earlier entry takes the better rank. The sort is deterministic:
// repeated runs over the same stats yield identical ranks.
func (s *SettlementService) rankEntries(ctx context.Context, matchID string, c contest.Contest) ([]rankedEntry, error) {
	entries, err := s.contestRepo.ListEntries(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list contest entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	pointsByPlayer, err := s.statsRepo.PointsByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load points by match: %w", err)
	}

	teamIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		teamIDs = append(teamIDs, e.TeamID)
	}
	teams, err := s.contestRepo.ListTeamsByIDs(ctx, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("list fantasy teams: %w", err)
	}

	ranked := make([]rankedEntry, 0, len(entries))
	for _, e := range entries {
		team, ok := teams[e.TeamID]
		if !ok {
			s.logger.WarnContext(ctx, "entry team missing at settlement",
				"contest_id", c.ID,
				"entry_id", e.ID,
				"team_id", e.TeamID,
			)
			continue
		}
		ranked = append(ranked, rankedEntry{
			entry:  e,
			points: EntryPoints(team, pointsByPlayer),
		})
	}

	// Entries arrive oldest first; the stable sort keeps that order
	// inside each points group.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].points > ranked[j].points
	})

	for i := range ranked {
		ranked[i].rank = i + 1
		if err := s.contestRepo.UpdateEntryRank(ctx, ranked[i].entry.ID, ranked[i].rank, ranked[i].points); err != nil {
			return nil, fmt.Errorf("update entry rank: %w", err)
		}
	}
	return ranked, nil
}

// processWinner credits one winner with bounded retries. The payout is
// guarded three times: a pre-check on the completed-transaction ledger,
// the in-transaction reference check inside CreditContestWin, and a
// post-commit read-back. Exhausted retries leave a durable
// FailureRecord instead of a silent drop.
func (s *SettlementService) processWinner(ctx context.Context, c contest.Contest, r rankedEntry, amount float64) error {
	reference := PayoutReference(c.ID, r.rank)

	if existing, found, err := s.walletRepo.FindCompletedTransaction(ctx, r.entry.UserID, wallet.TransactionTypeContestWin, reference); err == nil && found {
		// Paid on an earlier run. Repair the entry if the crash landed
		// between the credit and the win-amount write.
		if r.entry.WinAmount == nil {
			if repairErr := s.contestRepo.UpdateEntryWinAmount(ctx, r.entry.ID, amount); repairErr != nil {
				s.logger.WarnContext(ctx, "repair entry win amount",
					"entry_id", r.entry.ID,
					"transaction_id", existing.ID,
					"error", repairErr,
				)
			}
		}
		return nil
	} else if err != nil {
		s.logger.WarnContext(ctx, "payout pre-check failed, relying on transactional guard",
			"entry_id", r.entry.ID,
			"error", err,
		)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		txID, idErr := s.idGen.NewID()
		if idErr != nil {
			lastErr = fmt.Errorf("generate transaction id: %w", idErr)
			continue
		}

		creditErr := s.walletRepo.CreditContestWin(ctx, wallet.CreditInput{
			TransactionID: txID,
			UserID:        r.entry.UserID,
			ContestID:     c.ID,
			EntryID:       r.entry.ID,
			Rank:          r.rank,
			Amount:        amount,
			Reference:     reference,
		})
		if creditErr == nil {
			if _, found, readErr := s.walletRepo.GetTransaction(ctx, txID); readErr != nil || !found {
				s.logger.WarnContext(ctx, "payout read-back inconclusive",
					"transaction_id", txID,
					"entry_id", r.entry.ID,
					"error", readErr,
				)
			}
			return nil
		}
		if errors.Is(creditErr, wallet.ErrAlreadyCredited) {
			return nil
		}

		lastErr = creditErr
		s.logger.WarnContext(ctx, "payout attempt failed",
			"contest_id", c.ID,
			"entry_id", r.entry.ID,
			"attempt", attempt,
			"error", creditErr,
		)
		if attempt < s.maxRetries {
			s.sleep(ctx, s.retryDelay*time.Duration(attempt))
		}
	}

	failure := wallet.FailureRecord{
		UserID:    r.entry.UserID,
		ContestID: c.ID,
		EntryID:   r.entry.ID,
		Rank:      r.rank,
		Amount:    amount,
		Reason:    lastErr.Error(),
		CreatedAt: s.now().UTC(),
	}
	if failureID, idErr := s.idGen.NewID(); idErr == nil {
		failure.ID = failureID
	}
	if appendErr := s.walletRepo.AppendFailure(ctx, failure); appendErr != nil {
		s.logger.ErrorContext(ctx, "append settlement failure record",
			"contest_id", c.ID,
			"entry_id", r.entry.ID,
			"error", appendErr,
		)
	}
	if s.replay != nil {
		if enqErr := s.replay.EnqueueSettlementReplay(ctx, failure); enqErr != nil {
			s.logger.WarnContext(ctx, "enqueue settlement replay",
				"contest_id", c.ID,
				"entry_id", r.entry.ID,
				"error", enqErr,
			)
		}
	}
	return lastErr
}

// ReplayPayout re-runs a single payout from a durable FailureRecord.
// It goes through the same idempotency reference as the original
// attempt, so replaying an already repaired record is a no-op.
func (s *SettlementService) ReplayPayout(ctx context.Context, rec wallet.FailureRecord) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.ReplayPayout")
	defer span.End()

	if rec.UserID == "" || rec.ContestID == "" || rec.EntryID == "" {
		return fmt.Errorf("%w: replay record is missing identifiers", ErrInvalidInput)
	}
	if rec.Rank < 1 || rec.Amount <= 0 {
		return fmt.Errorf("%w: replay record rank=%d amount=%.2f", ErrInvalidInput, rec.Rank, rec.Amount)
	}

	reference := PayoutReference(rec.ContestID, rec.Rank)
	if _, found, err := s.walletRepo.FindCompletedTransaction(ctx, rec.UserID, wallet.TransactionTypeContestWin, reference); err == nil && found {
		return nil
	} else if err != nil {
		s.logger.WarnContext(ctx, "replay pre-check failed, relying on transactional guard",
			"entry_id", rec.EntryID,
			"error", err,
		)
	}

	txID, err := s.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate transaction id: %w", err)
	}
	creditErr := s.walletRepo.CreditContestWin(ctx, wallet.CreditInput{
		TransactionID: txID,
		UserID:        rec.UserID,
		ContestID:     rec.ContestID,
		EntryID:       rec.EntryID,
		Rank:          rec.Rank,
		Amount:        rec.Amount,
		Reference:     reference,
	})
	if creditErr != nil && !errors.Is(creditErr, wallet.ErrAlreadyCredited) {
		return fmt.Errorf("replay contest win credit: %w", creditErr)
	}

	s.logger.InfoContext(ctx, "settlement payout replayed",
		"contest_id", rec.ContestID,
		"entry_id", rec.EntryID,
		"rank", rec.Rank,
	)
	return nil
}

// ListFailures returns the durable failure records for one contest,
// oldest first. Operator tooling reads these before deciding what to
// replay.
func (s *SettlementService) ListFailures(ctx context.Context, contestID string) ([]wallet.FailureRecord, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.ListFailures")
	defer span.End()

	if contestID == "" {
		return nil, fmt.Errorf("%w: contest id is required", ErrInvalidInput)
	}
	records, err := s.walletRepo.ListFailuresByContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("list settlement failures: %w", err)
	}
	return records, nil
}
