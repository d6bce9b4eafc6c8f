package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/contest"
)

type contestTableModel struct {
	ID               string    `db:"id"`
	MatchID          string    `db:"match_id"`
	Name             string    `db:"name"`
	EntryFee         float64   `db:"entry_fee"`
	PrizePool        float64   `db:"prize_pool"`
	SettlementStatus string    `db:"settlement_status"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (m contestTableModel) toDomain() contest.Contest {
	return contest.Contest{
		ID:               m.ID,
		MatchID:          m.MatchID,
		Name:             m.Name,
		EntryFee:         m.EntryFee,
		PrizePool:        m.PrizePool,
		SettlementStatus: m.SettlementStatus,
	}
}

type contestEntryTableModel struct {
	ID        string          `db:"id"`
	ContestID string          `db:"contest_id"`
	TeamID    string          `db:"team_id"`
	UserID    string          `db:"user_id"`
	Points    float64         `db:"points"`
	Rank      sql.NullInt64   `db:"rank"`
	WinAmount sql.NullFloat64 `db:"win_amount"`
	CreatedAt time.Time       `db:"created_at"`
}

func (m contestEntryTableModel) toDomain() contest.Entry {
	out := contest.Entry{
		ID:        m.ID,
		ContestID: m.ContestID,
		TeamID:    m.TeamID,
		UserID:    m.UserID,
		Points:    m.Points,
		CreatedAt: m.CreatedAt,
	}
	if m.Rank.Valid {
		rank := int(m.Rank.Int64)
		out.Rank = &rank
	}
	if m.WinAmount.Valid {
		amount := m.WinAmount.Float64
		out.WinAmount = &amount
	}
	return out
}

type fantasyTeamTableModel struct {
	ID            string         `db:"id"`
	UserID        string         `db:"user_id"`
	MatchID       string         `db:"match_id"`
	Name          string         `db:"name"`
	PlayerIDs     pq.StringArray `db:"player_ids"`
	CaptainID     string         `db:"captain_id"`
	ViceCaptainID string         `db:"vice_captain_id"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (m fantasyTeamTableModel) toDomain() contest.FantasyTeam {
	return contest.FantasyTeam{
		ID:            m.ID,
		UserID:        m.UserID,
		MatchID:       m.MatchID,
		Name:          m.Name,
		PlayerIDs:     []string(m.PlayerIDs),
		CaptainID:     m.CaptainID,
		ViceCaptainID: m.ViceCaptainID,
	}
}

type prizeBreakupTableModel struct {
	ContestID string  `db:"contest_id"`
	Rank      int     `db:"rank"`
	Amount    float64 `db:"amount"`
}

func (m prizeBreakupTableModel) toDomain() contest.PrizeBreakup {
	return contest.PrizeBreakup{
		ContestID: m.ContestID,
		Rank:      m.Rank,
		Amount:    m.Amount,
	}
}
