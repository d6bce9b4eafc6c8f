package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/contest"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
)

// LeaderboardService recomputes contest entry points from the live
// stats store. Every call is a full recompute, so re-running after a
// crash or on every poll is safe.
type LeaderboardService struct {
	contestRepo contest.Repository
	statsRepo   statsPointsReader
	logger      *logging.Logger
	now         func() time.Time
}

type statsPointsReader interface {
	PointsByMatch(ctx context.Context, matchID string) (map[string]float64, error)
}

func NewLeaderboardService(
	contestRepo contest.Repository,
	statsRepo statsPointsReader,
	logger *logging.Logger,
) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeaderboardService{
		contestRepo: contestRepo,
		statsRepo:   statsRepo,
		logger:      logger,
		now:         time.Now,
	}
}

const (
	captainMultiplier     = 2.0
	viceCaptainMultiplier = 1.5
)

// EntryPoints sums a team's player points with captain and vice-captain
// multipliers applied. Players with no statistic row score zero.
func EntryPoints(team contest.FantasyTeam, pointsByPlayer map[string]float64) float64 {
	total := 0.0
	for _, playerID := range team.PlayerIDs {
		points := pointsByPlayer[playerID]
		switch playerID {
		case team.CaptainID:
			points *= captainMultiplier
		case team.ViceCaptainID:
			points *= viceCaptainMultiplier
		}
		total += points
	}
	return total
}

// UpdateForMatch recomputes points for every entry of every contest
// attached to the match. A single entry failing does not stop the rest.
func (s *LeaderboardService) UpdateForMatch(ctx context.Context, matchID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.UpdateForMatch")
	defer span.End()

	if matchID == "" {
		return fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	pointsByPlayer, err := s.statsRepo.PointsByMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("load points by match: %w", err)
	}

	contests, err := s.contestRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("list contests by match: %w", err)
	}

	updated, failed := 0, 0
	for _, c := range contests {
		entries, listErr := s.contestRepo.ListEntries(ctx, c.ID)
		if listErr != nil {
			failed++
			s.logger.WarnContext(ctx, "list contest entries",
				"contest_id", c.ID,
				"error", listErr,
			)
			continue
		}

		teamIDs := make([]string, 0, len(entries))
		for _, e := range entries {
			teamIDs = append(teamIDs, e.TeamID)
		}
		teams, teamsErr := s.contestRepo.ListTeamsByIDs(ctx, teamIDs)
		if teamsErr != nil {
			failed++
			s.logger.WarnContext(ctx, "list fantasy teams",
				"contest_id", c.ID,
				"error", teamsErr,
			)
			continue
		}

		for _, e := range entries {
			team, ok := teams[e.TeamID]
			if !ok {
				failed++
				s.logger.WarnContext(ctx, "entry team missing",
					"contest_id", c.ID,
					"entry_id", e.ID,
					"team_id", e.TeamID,
				)
				continue
			}

			points := EntryPoints(team, pointsByPlayer)
			if points == e.Points {
				continue
			}
			if updErr := s.contestRepo.UpdateEntryPoints(ctx, e.ID, points); updErr != nil {
				failed++
				s.logger.WarnContext(ctx, "update entry points",
					"contest_id", c.ID,
					"entry_id", e.ID,
					"error", updErr,
				)
				continue
			}
			updated++
		}
	}

	if failed > 0 {
		s.logger.InfoContext(ctx, "leaderboard recompute finished with failures",
			"match_id", matchID,
			"updated", updated,
			"failed", failed,
		)
	}
	return nil
}
