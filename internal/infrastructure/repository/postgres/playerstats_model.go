package postgres

import (
	"time"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/playerstats"
)

type playerStatTableModel struct {
	MatchID          string    `db:"match_id"`
	PlayerID         string    `db:"player_id"`
	ProviderPlayerID string    `db:"provider_player_id"`
	Role             string    `db:"role"`
	Runs             int       `db:"runs"`
	Balls            int       `db:"balls"`
	Fours            int       `db:"fours"`
	Sixes            int       `db:"sixes"`
	Out              bool      `db:"is_out"`
	StrikeRate       float64   `db:"strike_rate"`
	Wickets          int       `db:"wickets"`
	Overs            float64   `db:"overs"`
	Maidens          int       `db:"maidens"`
	RunsConceded     int       `db:"runs_conceded"`
	Economy          float64   `db:"economy"`
	Catches          int       `db:"catches"`
	Stumpings        int       `db:"stumpings"`
	RunOutDirect     int       `db:"run_out_direct"`
	RunOutIndirect   int       `db:"run_out_indirect"`
	Points           float64   `db:"points"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (m playerStatTableModel) toDomain() playerstats.PlayerStatistic {
	return playerstats.PlayerStatistic{
		MatchID:          m.MatchID,
		PlayerID:         m.PlayerID,
		ProviderPlayerID: m.ProviderPlayerID,
		Role:             m.Role,
		Runs:             m.Runs,
		Balls:            m.Balls,
		Fours:            m.Fours,
		Sixes:            m.Sixes,
		Out:              m.Out,
		StrikeRate:       m.StrikeRate,
		Wickets:          m.Wickets,
		Overs:            m.Overs,
		Maidens:          m.Maidens,
		RunsConceded:     m.RunsConceded,
		Economy:          m.Economy,
		Catches:          m.Catches,
		Stumpings:        m.Stumpings,
		RunOutDirect:     m.RunOutDirect,
		RunOutIndirect:   m.RunOutIndirect,
		Points:           m.Points,
		UpdatedAt:        m.UpdatedAt,
	}
}

func playerStatInsertModel(s playerstats.PlayerStatistic) playerStatTableModel {
	return playerStatTableModel{
		MatchID:          s.MatchID,
		PlayerID:         s.PlayerID,
		ProviderPlayerID: s.ProviderPlayerID,
		Role:             s.Role,
		Runs:             s.Runs,
		Balls:            s.Balls,
		Fours:            s.Fours,
		Sixes:            s.Sixes,
		Out:              s.Out,
		StrikeRate:       s.StrikeRate,
		Wickets:          s.Wickets,
		Overs:            s.Overs,
		Maidens:          s.Maidens,
		RunsConceded:     s.RunsConceded,
		Economy:          s.Economy,
		Catches:          s.Catches,
		Stumpings:        s.Stumpings,
		RunOutDirect:     s.RunOutDirect,
		RunOutIndirect:   s.RunOutIndirect,
		Points:           s.Points,
		UpdatedAt:        s.UpdatedAt,
	}
}
