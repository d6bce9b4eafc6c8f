package postgres

import (
	"time"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/match"
)

type matchTableModel struct {
	ID           string    `db:"id"`
	ProviderID   string    `db:"provider_id"`
	Title        string    `db:"title"`
	TeamA        string    `db:"team_a"`
	TeamB        string    `db:"team_b"`
	Status       string    `db:"status"`
	StartAt      time.Time `db:"start_at"`
	Result       string    `db:"result"`
	TossWinner   string    `db:"toss_winner"`
	TossDecision string    `db:"toss_decision"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (m matchTableModel) toDomain() match.Match {
	return match.Match{
		ID:           m.ID,
		ProviderID:   m.ProviderID,
		Title:        m.Title,
		TeamA:        m.TeamA,
		TeamB:        m.TeamB,
		Status:       m.Status,
		StartAt:      m.StartAt,
		Result:       m.Result,
		TossWinner:   m.TossWinner,
		TossDecision: m.TossDecision,
	}
}

type matchSummaryTableModel struct {
	MatchID        string    `db:"match_id"`
	TeamAScore     string    `db:"team_a_score"`
	TeamBScore     string    `db:"team_b_score"`
	Overs          string    `db:"overs"`
	CurrentInnings int       `db:"current_innings"`
	RawSnapshot    []byte    `db:"raw_snapshot"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (m matchSummaryTableModel) toDomain() match.Summary {
	return match.Summary{
		MatchID:        m.MatchID,
		TeamAScore:     m.TeamAScore,
		TeamBScore:     m.TeamBScore,
		Overs:          m.Overs,
		CurrentInnings: m.CurrentInnings,
		RawSnapshot:    m.RawSnapshot,
		UpdatedAt:      m.UpdatedAt,
	}
}
