package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/ballevent"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/match"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/player"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/cache"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
)

const recentBallWindow = 24

// LiveMatchData is the read-only projection served to match screens.
type LiveMatchData struct {
	MatchID        string       `json:"match_id"`
	Status         string       `json:"status"`
	TeamAScore     string       `json:"team_a_score"`
	TeamBScore     string       `json:"team_b_score"`
	Overs          string       `json:"overs"`
	CurrentInnings int          `json:"current_innings"`
	CurrentBatsmen []LivePlayer `json:"current_batsmen"`
	CurrentBowler  *LivePlayer  `json:"current_bowler,omitempty"`
	LastWicket     *LiveWicket  `json:"last_wicket,omitempty"`
	RecentOvers    []LiveOver   `json:"recent_overs"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type LivePlayer struct {
	PlayerID   string `json:"player_id,omitempty"`
	ProviderID string `json:"provider_id"`
	Name       string `json:"name"`
}

type LiveWicket struct {
	Over       string     `json:"over"`
	WicketType string     `json:"wicket_type"`
	Batsman    LivePlayer `json:"batsman"`
	Bowler     LivePlayer `json:"bowler"`
}

type LiveOver struct {
	Over  string   `json:"over"`
	Balls []string `json:"balls"`
}

// LineupData is the pre-match lineup projection, available post-toss.
type LineupData struct {
	MatchID      string       `json:"match_id"`
	TossWinner   string       `json:"toss_winner"`
	TossDecision string       `json:"toss_decision"`
	TeamA        []LivePlayer `json:"team_a"`
	TeamB        []LivePlayer `json:"team_b"`
	Substitutes  []LivePlayer `json:"substitutes"`
}

// LiveService serves display projections from the durable stores. Both
// projections sit behind a short TTL cache so a burst of viewers does
// not translate into a burst of database reads.
type LiveService struct {
	matchRepo  match.Repository
	ballRepo   ballevent.Repository
	playerRepo player.Repository
	liveCache  *cache.Store[LiveMatchData]
	lineupCach *cache.Store[LineupData]
	logger     *logging.Logger
}

func NewLiveService(
	matchRepo match.Repository,
	ballRepo ballevent.Repository,
	playerRepo player.Repository,
	cacheTTL time.Duration,
	logger *logging.Logger,
) *LiveService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LiveService{
		matchRepo:  matchRepo,
		ballRepo:   ballRepo,
		playerRepo: playerRepo,
		liveCache:  cache.NewStore[LiveMatchData](cacheTTL),
		lineupCach: cache.NewStore[LineupData](cacheTTL),
		logger:     logger,
	}
}

func (s *LiveService) GetLiveMatchData(ctx context.Context, matchID string) (LiveMatchData, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveService.GetLiveMatchData")
	defer span.End()

	if matchID == "" {
		return LiveMatchData{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	return s.liveCache.GetOrLoad(ctx, "live:"+matchID, func(ctx context.Context) (LiveMatchData, error) {
		return s.buildLiveMatchData(ctx, matchID)
	})
}

func (s *LiveService) buildLiveMatchData(ctx context.Context, matchID string) (LiveMatchData, error) {
	m, found, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return LiveMatchData{}, fmt.Errorf("get match: %w", err)
	}
	if !found {
		return LiveMatchData{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	out := LiveMatchData{MatchID: matchID, Status: m.Status, CurrentInnings: 1}

	summary, found, err := s.matchRepo.GetSummary(ctx, matchID)
	if err != nil {
		return LiveMatchData{}, fmt.Errorf("get match summary: %w", err)
	}
	if found {
		out.TeamAScore = summary.TeamAScore
		out.TeamBScore = summary.TeamBScore
		out.Overs = summary.Overs
		out.CurrentInnings = summary.CurrentInnings
		out.UpdatedAt = summary.UpdatedAt
	}

	recent, err := s.ballRepo.ListRecentByMatch(ctx, matchID, recentBallWindow)
	if err != nil {
		return LiveMatchData{}, fmt.Errorf("list recent ball events: %w", err)
	}
	if len(recent) == 0 {
		return out, nil
	}

	names := s.resolveNames(ctx, recent)

	// recent is newest first. The newest ball names the striker and
	// bowler; the next distinct batsman fills the non-striker slot.
	latest := recent[0]
	out.CurrentBowler = livePlayerRef(latest.BowlerProviderID, names)
	if batsman := livePlayerRef(latest.BatsmanProviderID, names); batsman != nil {
		out.CurrentBatsmen = append(out.CurrentBatsmen, *batsman)
	}
	for _, ev := range recent[1:] {
		if ev.Innings != latest.Innings || ev.BatsmanProviderID == latest.BatsmanProviderID {
			continue
		}
		if other := livePlayerRef(ev.BatsmanProviderID, names); other != nil {
			out.CurrentBatsmen = append(out.CurrentBatsmen, *other)
		}
		break
	}

	for _, ev := range recent {
		if !ev.IsWicket {
			continue
		}
		wicket := LiveWicket{Over: ev.Over, WicketType: ev.WicketType}
		outBatsman := ev.OutBatsmanProviderID
		if outBatsman == "" {
			outBatsman = ev.BatsmanProviderID
		}
		if p := livePlayerRef(outBatsman, names); p != nil {
			wicket.Batsman = *p
		}
		if p := livePlayerRef(ev.BowlerProviderID, names); p != nil {
			wicket.Bowler = *p
		}
		out.LastWicket = &wicket
		break
	}

	out.RecentOvers = groupRecentOvers(recent)
	return out, nil
}

// RefreshLineup serves the lineup projection once the toss is done.
// Before the toss it returns ErrConflict, which the transport layer
// maps to a "not available yet" response.
func (s *LiveService) RefreshLineup(ctx context.Context, matchID string) (LineupData, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveService.RefreshLineup")
	defer span.End()

	if matchID == "" {
		return LineupData{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	return s.lineupCach.GetOrLoad(ctx, "lineup:"+matchID, func(ctx context.Context) (LineupData, error) {
		return s.buildLineup(ctx, matchID)
	})
}

func (s *LiveService) buildLineup(ctx context.Context, matchID string) (LineupData, error) {
	m, found, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return LineupData{}, fmt.Errorf("get match: %w", err)
	}
	if !found {
		return LineupData{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	if m.TossWinner == "" {
		return LineupData{}, fmt.Errorf("%w: lineup not available before the toss", ErrConflict)
	}

	summary, found, err := s.matchRepo.GetSummary(ctx, matchID)
	if err != nil {
		return LineupData{}, fmt.Errorf("get match summary: %w", err)
	}
	if !found || len(summary.RawSnapshot) == 0 {
		return LineupData{}, fmt.Errorf("%w: no snapshot stored for match %s", ErrNotFound, matchID)
	}

	var snap Snapshot
	if err := sonic.Unmarshal(summary.RawSnapshot, &snap); err != nil {
		return LineupData{}, fmt.Errorf("decode stored snapshot: %w", err)
	}

	out := LineupData{
		MatchID:      matchID,
		TossWinner:   m.TossWinner,
		TossDecision: m.TossDecision,
	}
	for _, p := range snap.Lineup {
		ref := LivePlayer{ProviderID: p.ProviderID, Name: p.Name}
		switch {
		case p.IsSubstitute:
			out.Substitutes = append(out.Substitutes, ref)
		case p.TeamName == m.TeamA:
			out.TeamA = append(out.TeamA, ref)
		case p.TeamName == m.TeamB:
			out.TeamB = append(out.TeamB, ref)
		default:
			out.Substitutes = append(out.Substitutes, ref)
		}
	}
	return out, nil
}

// InvalidateMatch drops cached projections after a write path knows
// they are stale.
func (s *LiveService) InvalidateMatch(ctx context.Context, matchID string) {
	s.liveCache.Delete(ctx, "live:"+matchID)
	s.lineupCach.Delete(ctx, "lineup:"+matchID)
}

func (s *LiveService) resolveNames(ctx context.Context, events []ballevent.BallEvent) map[string]player.Player {
	idSet := make(map[string]struct{})
	for _, ev := range events {
		for _, pid := range []string{ev.BatsmanProviderID, ev.BowlerProviderID, ev.OutBatsmanProviderID} {
			if pid != "" {
				idSet[pid] = struct{}{}
			}
		}
	}
	ids := make([]string, 0, len(idSet))
	for pid := range idSet {
		ids = append(ids, pid)
	}

	players, err := s.playerRepo.ListByProviderIDs(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "resolve player names", "error", err)
		return nil
	}
	byProvider := make(map[string]player.Player, len(players))
	for _, p := range players {
		byProvider[p.ProviderID] = p
	}
	return byProvider
}

func livePlayerRef(providerID string, names map[string]player.Player) *LivePlayer {
	if providerID == "" {
		return nil
	}
	ref := LivePlayer{ProviderID: providerID}
	if p, ok := names[providerID]; ok {
		ref.PlayerID = p.ID
		ref.Name = p.Name
	}
	return &ref
}

func groupRecentOvers(recent []ballevent.BallEvent) []LiveOver {
	// Walk oldest to newest so balls inside an over stay in delivery
	// order.
	out := make([]LiveOver, 0, 4)
	for i := len(recent) - 1; i >= 0; i-- {
		ev := recent[i]
		overLabel := overOnly(ev.Over)
		token := ballToken(ev)
		if n := len(out); n > 0 && out[n-1].Over == overLabel {
			out[n-1].Balls = append(out[n-1].Balls, token)
			continue
		}
		out = append(out, LiveOver{Over: overLabel, Balls: []string{token}})
	}
	return out
}

func overOnly(overNotation string) string {
	for i := 0; i < len(overNotation); i++ {
		if overNotation[i] == '.' {
			return overNotation[:i]
		}
	}
	return overNotation
}

func ballToken(ev ballevent.BallEvent) string {
	switch {
	case ev.IsWicket:
		return "W"
	case ev.IsSix:
		return "6"
	case ev.IsFour:
		return "4"
	default:
		return fmt.Sprintf("%d", ev.Runs)
	}
}
