package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/match"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
)

type SchedulerConfig struct {
	PollLiveInterval     time.Duration
	SweepPromoteInterval time.Duration
	SweepDetectInterval  time.Duration
	SweepLineupInterval  time.Duration
	LineupLeadWindow     time.Duration
	SweepWorkers         int
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.PollLiveInterval <= 0 {
		c.PollLiveInterval = 15 * time.Second
	}
	if c.SweepPromoteInterval <= 0 {
		c.SweepPromoteInterval = time.Minute
	}
	if c.SweepDetectInterval <= 0 {
		c.SweepDetectInterval = 30 * time.Second
	}
	if c.SweepLineupInterval <= 0 {
		c.SweepLineupInterval = 5 * time.Minute
	}
	if c.LineupLeadWindow <= 0 {
		c.LineupLeadWindow = time.Hour
	}
	if c.SweepWorkers <= 0 {
		c.SweepWorkers = 8
	}
	return c
}

// matchPoller is the per-match timer state. inFlight makes polls
// non-reentrant: a tick firing while the previous poll still runs is
// skipped, never run concurrently.
type matchPoller struct {
	cancel   context.CancelFunc
	inFlight atomic.Bool
}

// SchedulerService owns every timer in the ingestion pipeline: the
// per-live-match poll loops and the sweeps that promote upcoming
// matches, recover pollers after a restart, and warm lineups before
// start. It triggers settlement exactly once per completed match via a
// status compare-and-set.
type SchedulerService struct {
	matchRepo     match.Repository
	provider      SnapshotProvider
	extractor     *StatsExtractorService
	sequencer     *BallSequencerService
	leaderboard   *LeaderboardService
	settlement    *SettlementService
	cfg           SchedulerConfig
	logger        *logging.Logger
	now           func() time.Time
	tickerFactory func(time.Duration) *time.Ticker

	mu      sync.Mutex
	pollers map[string]*matchPoller

	runCtx    context.Context
	runCancel context.CancelFunc
	wg        conc.WaitGroup
	sweepPool *ants.Pool
	started   atomic.Bool
}

func NewSchedulerService(
	matchRepo match.Repository,
	provider SnapshotProvider,
	extractor *StatsExtractorService,
	sequencer *BallSequencerService,
	leaderboard *LeaderboardService,
	settlement *SettlementService,
	cfg SchedulerConfig,
	logger *logging.Logger,
) *SchedulerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SchedulerService{
		matchRepo:     matchRepo,
		provider:      provider,
		extractor:     extractor,
		sequencer:     sequencer,
		leaderboard:   leaderboard,
		settlement:    settlement,
		cfg:           cfg.withDefaults(),
		logger:        logger,
		now:           time.Now,
		tickerFactory: time.NewTicker,
		pollers:       make(map[string]*matchPoller),
	}
}

// Start launches the sweep loops and resumes polling for matches that
// were already live. It is not safe to call twice.
func (s *SchedulerService) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: scheduler already started", ErrConflict)
	}

	pool, err := ants.NewPool(s.cfg.SweepWorkers)
	if err != nil {
		return fmt.Errorf("create sweep worker pool: %w", err)
	}
	s.sweepPool = pool
	s.runCtx, s.runCancel = context.WithCancel(context.WithoutCancel(ctx))

	s.wg.Go(func() { s.sweepLoop(s.runCtx, s.cfg.SweepPromoteInterval, s.promoteDueMatches) })
	s.wg.Go(func() { s.sweepLoop(s.runCtx, s.cfg.SweepDetectInterval, s.ensureLivePollers) })
	s.wg.Go(func() { s.sweepLoop(s.runCtx, s.cfg.SweepLineupInterval, s.refreshUpcomingLineups) })

	// Run the recovery sweep once up front so live matches resume
	// polling without waiting for the first tick.
	s.ensureLivePollers(s.runCtx)

	s.logger.Info("scheduler started",
		"poll_live_interval", s.cfg.PollLiveInterval,
		"sweep_workers", s.cfg.SweepWorkers,
	)
	return nil
}

// Stop cancels every sweep and poller and waits for in-flight work.
func (s *SchedulerService) Stop() {
	if !s.started.Load() || s.runCancel == nil {
		return
	}
	s.runCancel()

	s.mu.Lock()
	for _, p := range s.pollers {
		p.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	if s.sweepPool != nil {
		s.sweepPool.Release()
	}
	s.logger.Info("scheduler stopped")
}

func (s *SchedulerService) sweepLoop(ctx context.Context, interval time.Duration, sweep func(context.Context)) {
	ticker := s.tickerFactory(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx)
		}
	}
}

// promoteDueMatches flips upcoming matches whose start time has passed
// to live and starts their pollers. The compare-and-set means a
// concurrent promotion of the same match wins exactly once.
func (s *SchedulerService) promoteDueMatches(ctx context.Context) {
	due, err := s.matchRepo.ListDueForPromotion(ctx, s.now().UTC())
	if err != nil {
		s.logger.WarnContext(ctx, "list matches due for promotion", "error", err)
		return
	}

	for _, m := range due {
		m := m
		if submitErr := s.sweepPool.Submit(func() {
			swapped, trErr := s.matchRepo.TransitionStatus(ctx, m.ID, match.StatusUpcoming, match.StatusLive)
			if trErr != nil {
				s.logger.WarnContext(ctx, "promote match to live", "match_id", m.ID, "error", trErr)
				return
			}
			if !swapped {
				return
			}
			s.logger.InfoContext(ctx, "match promoted to live", "match_id", m.ID)
			s.startPolling(m.ID)
		}); submitErr != nil {
			s.logger.WarnContext(ctx, "submit promotion task", "match_id", m.ID, "error", submitErr)
		}
	}
}

// ensureLivePollers backfills a poller for any live match that lacks
// one, which covers process restarts and manually promoted matches. It
// also reaps pollers whose match is no longer live, so a completion
// applied outside pollOnce (a forced settle, an import) stops the
// provider polling and settles whatever is still unpaid.
func (s *SchedulerService) ensureLivePollers(ctx context.Context) {
	live, err := s.matchRepo.ListByStatus(ctx, match.StatusLive)
	if err != nil {
		s.logger.WarnContext(ctx, "list live matches", "error", err)
		return
	}

	liveSet := make(map[string]struct{}, len(live))
	for _, m := range live {
		liveSet[m.ID] = struct{}{}
		s.startPolling(m.ID)
	}

	s.mu.Lock()
	var stale []string
	for id := range s.pollers {
		if _, stillLive := liveSet[id]; !stillLive {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	for _, matchID := range stale {
		matchID := matchID
		if submitErr := s.sweepPool.Submit(func() { s.reapStalePoller(ctx, matchID) }); submitErr != nil {
			s.logger.WarnContext(ctx, "submit stale poller reap", "match_id", matchID, "error", submitErr)
		}
	}
}

// reapStalePoller stops polling a match that left the live status and
// settles it when completed. SettleMatch skips contests already paid,
// so re-reaping an already settled match is a no-op.
func (s *SchedulerService) reapStalePoller(ctx context.Context, matchID string) {
	m, found, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		s.logger.WarnContext(ctx, "get match for stale poller", "match_id", matchID, "error", err)
		return
	}

	s.stopPolling(matchID, false)
	if !found || m.Status != match.StatusCompleted {
		return
	}

	s.logger.InfoContext(ctx, "stale poller reaped for completed match", "match_id", matchID)
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
	defer cancel()
	if settleErr := s.settlement.SettleMatch(settleCtx, matchID); settleErr != nil {
		s.logger.ErrorContext(settleCtx, "settle match from sweep", "match_id", matchID, "error", settleErr)
	}
}

// refreshUpcomingLineups polls matches starting inside the lead window
// once per sweep so lineup and toss data is warm before promotion.
func (s *SchedulerService) refreshUpcomingLineups(ctx context.Context) {
	upcoming, err := s.matchRepo.ListStartingWithin(ctx, s.now().UTC(), s.cfg.LineupLeadWindow)
	if err != nil {
		s.logger.WarnContext(ctx, "list matches starting soon", "error", err)
		return
	}

	for _, m := range upcoming {
		m := m
		if submitErr := s.sweepPool.Submit(func() {
			if pollErr := s.pollOnce(ctx, m.ID); pollErr != nil {
				s.logger.WarnContext(ctx, "lineup warm poll", "match_id", m.ID, "error", pollErr)
			}
		}); submitErr != nil {
			s.logger.WarnContext(ctx, "submit lineup poll task", "match_id", m.ID, "error", submitErr)
		}
	}
}

// startPolling registers a per-match poll loop. Idempotent per match.
func (s *SchedulerService) startPolling(matchID string) {
	s.mu.Lock()
	if _, exists := s.pollers[matchID]; exists {
		s.mu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(s.runCtx)
	p := &matchPoller{cancel: cancel}
	s.pollers[matchID] = p
	s.mu.Unlock()

	s.wg.Go(func() { s.pollLoop(pollCtx, matchID, p) })
	s.logger.Info("poller started", "match_id", matchID)
}

// stopPolling cancels the match's timer and runs one final best-effort
// poll so a completion reported between ticks is not lost.
func (s *SchedulerService) stopPolling(matchID string, finalPoll bool) {
	s.mu.Lock()
	p, exists := s.pollers[matchID]
	if exists {
		delete(s.pollers, matchID)
	}
	s.mu.Unlock()
	if !exists {
		return
	}

	p.cancel()
	if finalPoll {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(s.runCtx), 30*time.Second)
		defer cancel()
		if err := s.pollOnce(ctx, matchID); err != nil {
			s.logger.WarnContext(ctx, "final poll", "match_id", matchID, "error", err)
		}
	}
	s.logger.Info("poller stopped", "match_id", matchID)
}

func (s *SchedulerService) pollLoop(ctx context.Context, matchID string, p *matchPoller) {
	ticker := s.tickerFactory(s.cfg.PollLiveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.inFlight.CompareAndSwap(false, true) {
				s.logger.Debug("poll tick skipped, previous still running", "match_id", matchID)
				continue
			}
			if err := s.pollOnce(ctx, matchID); err != nil {
				s.logger.WarnContext(ctx, "poll match", "match_id", matchID, "error", err)
			}
			p.inFlight.Store(false)
		}
	}
}

// TriggerMatchUpdate is the manual on-demand poll used by operator
// tooling. It reports whether the poll ran.
func (s *SchedulerService) TriggerMatchUpdate(ctx context.Context, matchID string) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.TriggerMatchUpdate")
	defer span.End()

	if strings.TrimSpace(matchID) == "" {
		return false, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if err := s.pollOnce(ctx, matchID); err != nil {
		return false, err
	}
	return true, nil
}

// ResyncBalls renumbers a match's ball timeline from the latest
// snapshot, restarting sequence numbers at 1.
func (s *SchedulerService) ResyncBalls(ctx context.Context, matchID string) (SequenceOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.ResyncBalls")
	defer span.End()

	m, found, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return SequenceOutcome{}, fmt.Errorf("get match: %w", err)
	}
	if !found {
		return SequenceOutcome{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	snap, err := s.provider.GetMatchSnapshot(ctx, m.ProviderID)
	if err != nil {
		return SequenceOutcome{}, fmt.Errorf("fetch snapshot for resync: %w", err)
	}
	if snap == nil {
		return SequenceOutcome{}, fmt.Errorf("%w: provider returned no snapshot", ErrDependencyUnavailable)
	}

	return s.sequencer.Sequence(ctx, matchID, snap.Balls, true)
}

// pollOnce runs one full ingestion pass in the fixed order: extract
// stats, persist summary, sequence balls, update leaderboard. Errors
// inside a step are logged and do not abort later steps; the poll
// fails only when nothing made forward progress.
func (s *SchedulerService) pollOnce(ctx context.Context, matchID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.pollOnce")
	defer span.End()

	m, found, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	snap, err := s.provider.GetMatchSnapshot(ctx, m.ProviderID)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	if snap == nil {
		return nil
	}

	outcome, extractErr := s.extractor.Extract(ctx, matchID, snap)
	if extractErr != nil {
		s.logger.WarnContext(ctx, "extract stats", "match_id", matchID, "error", extractErr)
	}

	if sumErr := s.persistSummary(ctx, m, snap); sumErr != nil {
		s.logger.WarnContext(ctx, "persist match summary", "match_id", matchID, "error", sumErr)
	}

	if snap.Toss.Done && (m.TossWinner == "" || m.TossDecision == "") {
		if tossErr := s.matchRepo.UpdateToss(ctx, matchID, snap.Toss.Winner, snap.Toss.Decision); tossErr != nil {
			s.logger.WarnContext(ctx, "update toss", "match_id", matchID, "error", tossErr)
		}
	}

	if _, seqErr := s.sequencer.Sequence(ctx, matchID, snap.Balls, false); seqErr != nil {
		s.logger.WarnContext(ctx, "sequence balls", "match_id", matchID, "error", seqErr)
	}

	if outcome.StatsChanged {
		if lbErr := s.leaderboard.UpdateForMatch(ctx, matchID); lbErr != nil {
			s.logger.WarnContext(ctx, "update leaderboard", "match_id", matchID, "error", lbErr)
		}
	}

	if m.Status == match.StatusLive && match.IsProviderCompletedStatus(snap.Status) {
		s.completeMatch(ctx, matchID, snap.Status)
	}

	return nil
}

// completeMatch flips live to completed and triggers settlement. The
// compare-and-set makes the settlement trigger fire exactly once even
// when two polls observe completion concurrently.
func (s *SchedulerService) completeMatch(ctx context.Context, matchID, providerStatus string) {
	swapped, err := s.matchRepo.TransitionStatus(ctx, matchID, match.StatusLive, match.StatusCompleted)
	if err != nil {
		s.logger.ErrorContext(ctx, "transition match to completed", "match_id", matchID, "error", err)
		return
	}
	if !swapped {
		return
	}

	if resErr := s.matchRepo.UpdateResult(ctx, matchID, providerStatus); resErr != nil {
		s.logger.WarnContext(ctx, "update match result", "match_id", matchID, "error", resErr)
	}
	s.logger.InfoContext(ctx, "match completed", "match_id", matchID, "provider_status", providerStatus)

	// Detach poller teardown from the in-flight poll; stopPolling runs
	// a final best-effort poll of its own.
	s.wg.Go(func() { s.stopPolling(matchID, false) })

	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
	defer cancel()
	if settleErr := s.settlement.SettleMatch(settleCtx, matchID); settleErr != nil {
		s.logger.ErrorContext(settleCtx, "settle match", "match_id", matchID, "error", settleErr)
	}
}

func (s *SchedulerService) persistSummary(ctx context.Context, m match.Match, snap *Snapshot) error {
	raw, err := sonic.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal raw snapshot: %w", err)
	}

	summary := match.Summary{
		MatchID:     m.ID,
		RawSnapshot: raw,
		UpdatedAt:   s.now().UTC(),
	}
	for _, score := range snap.Scores {
		if summary.CurrentInnings < score.Innings {
			summary.CurrentInnings = score.Innings
		}
		switch {
		case strings.EqualFold(score.TeamName, m.TeamA):
			summary.TeamAScore = score.Score
		case strings.EqualFold(score.TeamName, m.TeamB):
			summary.TeamBScore = score.Score
		case score.Innings == 1 && summary.TeamAScore == "":
			summary.TeamAScore = score.Score
		case score.Innings == 2 && summary.TeamBScore == "":
			summary.TeamBScore = score.Score
		}
		summary.Overs = score.Overs
	}
	if summary.CurrentInnings == 0 {
		summary.CurrentInnings = 1
	}

	if err := s.matchRepo.UpsertSummary(ctx, summary); err != nil {
		return fmt.Errorf("upsert match summary: %w", err)
	}
	return nil
}
