package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/player"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/playerstats"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/id"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
)

// StatsExtractorService converts one provider snapshot into normalized
// per-player statistic rows with computed fantasy points.
type StatsExtractorService struct {
	playerRepo player.Repository
	statsRepo  playerstats.Repository
	idGen      id.Generator
	logger     *logging.Logger
	now        func() time.Time
}

func NewStatsExtractorService(
	playerRepo player.Repository,
	statsRepo playerstats.Repository,
	idGen id.Generator,
	logger *logging.Logger,
) *StatsExtractorService {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsExtractorService{
		playerRepo: playerRepo,
		statsRepo:  statsRepo,
		idGen:      idGen,
		logger:     logger,
		now:        time.Now,
	}
}

// ExtractOutcome reports how far one snapshot got. Written==0 with a
// nil error means the provider had no player data yet.
type ExtractOutcome struct {
	Written      int
	Failed       int
	StatsChanged bool
}

type statAccumulator struct {
	providerID     string
	name           string
	role           player.Role
	teamName       string
	runs           int
	balls          int
	fours          int
	sixes          int
	out            bool
	strikeRate     float64
	wickets        int
	overs          float64
	maidens        int
	runsConceded   int
	economy        float64
	bowledOrLbw    int
	catches        int
	stumpings      int
	runOutDirect   int
	runOutIndirect int
}

// Extract walks a cumulative snapshot and upserts one statistic row per
// player seen in the lineup, the batting or bowling cards, or the ball
// feed. A single player failing to resolve or write is logged and
// skipped; the rest of the snapshot still lands.
func (s *StatsExtractorService) Extract(ctx context.Context, matchID string, snap *Snapshot) (ExtractOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsExtractorService.Extract")
	defer span.End()

	if matchID == "" || snap == nil {
		return ExtractOutcome{}, fmt.Errorf("%w: match id and snapshot are required", ErrInvalidInput)
	}

	acc := s.accumulate(snap)
	if len(acc) == 0 {
		return ExtractOutcome{}, nil
	}

	existing, err := s.statsRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return ExtractOutcome{}, fmt.Errorf("list existing stats: %w", err)
	}
	existingByPlayer := make(map[string]playerstats.PlayerStatistic, len(existing))
	for _, row := range existing {
		existingByPlayer[row.PlayerID] = row
	}

	outcome := ExtractOutcome{}
	now := s.now().UTC()
	for _, a := range acc {
		row, buildErr := s.buildRow(ctx, matchID, a, now)
		if buildErr != nil {
			outcome.Failed++
			s.logger.WarnContext(ctx, "skip player stat",
				"match_id", matchID,
				"provider_player_id", a.providerID,
				"error", buildErr,
			)
			continue
		}

		if upsertErr := s.statsRepo.Upsert(ctx, row); upsertErr != nil {
			outcome.Failed++
			s.logger.WarnContext(ctx, "upsert player stat",
				"match_id", matchID,
				"player_id", row.PlayerID,
				"error", upsertErr,
			)
			continue
		}
		outcome.Written++
		if prev, ok := existingByPlayer[row.PlayerID]; !ok || !prev.Equal(row) {
			outcome.StatsChanged = true
		}
	}

	if outcome.Written == 0 && outcome.Failed > 0 {
		return outcome, fmt.Errorf("extract stats for match %s: all %d player writes failed", matchID, outcome.Failed)
	}
	return outcome, nil
}

func (s *StatsExtractorService) accumulate(snap *Snapshot) map[string]*statAccumulator {
	acc := make(map[string]*statAccumulator)
	get := func(providerID string) *statAccumulator {
		if providerID == "" {
			return nil
		}
		if a, ok := acc[providerID]; ok {
			return a
		}
		a := &statAccumulator{providerID: providerID, role: player.RoleBatsman}
		acc[providerID] = a
		return a
	}

	for _, p := range snap.Lineup {
		a := get(p.ProviderID)
		if a == nil {
			continue
		}
		a.name = p.Name
		a.role = player.RoleFromProvider(p.Role)
		a.teamName = p.TeamName
	}

	// Batting and bowling cards are cumulative, so assignment replaces
	// whatever an earlier poll stored.
	for _, b := range snap.Batting {
		a := get(b.PlayerID)
		if a == nil {
			continue
		}
		a.runs = b.Runs
		a.balls = b.Balls
		a.fours = b.Fours
		a.sixes = b.Sixes
		a.out = b.Out
		a.strikeRate = b.StrikeRate
	}

	for _, b := range snap.Bowling {
		a := get(b.PlayerID)
		if a == nil {
			continue
		}
		a.wickets = b.Wickets
		a.overs = b.Overs
		a.maidens = b.Maidens
		a.runsConceded = b.RunsConceded
		a.economy = b.Economy
	}

	for _, ball := range snap.Balls {
		score := ball.EffectiveScore()
		if !score.IsWicket {
			continue
		}
		switch normalizeWicketType(score.WicketType) {
		case "caught":
			if len(ball.FielderIDs) > 0 {
				if a := get(ball.FielderIDs[0]); a != nil {
					a.catches++
				}
			}
		case "stumped":
			if len(ball.FielderIDs) > 0 {
				if a := get(ball.FielderIDs[0]); a != nil {
					a.stumpings++
				}
			}
		case "run out":
			for i, fielderID := range ball.FielderIDs {
				a := get(fielderID)
				if a == nil {
					continue
				}
				if i == 0 {
					a.runOutDirect++
				} else {
					a.runOutIndirect++
				}
			}
		case "bowled", "lbw":
			if a := get(ball.BowlerID); a != nil {
				a.bowledOrLbw++
			}
		}
	}

	return acc
}

func (s *StatsExtractorService) buildRow(ctx context.Context, matchID string, a *statAccumulator, now time.Time) (playerstats.PlayerStatistic, error) {
	resolved, err := s.resolvePlayer(ctx, a)
	if err != nil {
		return playerstats.PlayerStatistic{}, err
	}

	points := CalculatePoints(PointsInput{
		Runs:           a.runs,
		Balls:          a.balls,
		Fours:          a.fours,
		Sixes:          a.sixes,
		Out:            a.out,
		Wickets:        a.wickets,
		Overs:          a.overs,
		Maidens:        a.maidens,
		RunsConceded:   a.runsConceded,
		BowledOrLbw:    a.bowledOrLbw,
		Catches:        a.catches,
		Stumpings:      a.stumpings,
		RunOutDirect:   a.runOutDirect,
		RunOutIndirect: a.runOutIndirect,
		Role:           resolved.Role,
	})

	return playerstats.PlayerStatistic{
		MatchID:          matchID,
		PlayerID:         resolved.ID,
		ProviderPlayerID: a.providerID,
		Role:             string(resolved.Role),
		Runs:             a.runs,
		Balls:            a.balls,
		Fours:            a.fours,
		Sixes:            a.sixes,
		Out:              a.out,
		StrikeRate:       a.strikeRate,
		Wickets:          a.wickets,
		Overs:            a.overs,
		Maidens:          a.maidens,
		RunsConceded:     a.runsConceded,
		Economy:          a.economy,
		Catches:          a.catches,
		Stumpings:        a.stumpings,
		RunOutDirect:     a.runOutDirect,
		RunOutIndirect:   a.runOutIndirect,
		Points:           points,
		UpdatedAt:        now,
	}, nil
}

// resolvePlayer maps a provider player id to the internal record,
// creating a minimal one for players that surface in live data before
// any import ran.
func (s *StatsExtractorService) resolvePlayer(ctx context.Context, a *statAccumulator) (player.Player, error) {
	existing, found, err := s.playerRepo.GetByProviderID(ctx, a.providerID)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player by provider id: %w", err)
	}
	if found {
		return existing, nil
	}

	newID, err := s.idGen.NewID()
	if err != nil {
		return player.Player{}, fmt.Errorf("generate player id: %w", err)
	}

	name := a.name
	if name == "" {
		name = "Player " + a.providerID
	}
	created := player.Player{
		ID:         newID,
		ProviderID: a.providerID,
		Name:       name,
		Role:       a.role,
		TeamName:   a.teamName,
	}
	if createErr := s.playerRepo.Create(ctx, created); createErr != nil {
		return player.Player{}, fmt.Errorf("create player: %w", createErr)
	}
	return created, nil
}

func normalizeWicketType(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "runout", "run-out", "run_out":
		return "run out"
	case "st", "stumping":
		return "stumped"
	case "ct", "catch":
		return "caught"
	}
	return v
}
