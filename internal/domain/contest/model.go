package contest

import "time"

const (
	SettlementPending = "pending"
	SettlementRanked  = "ranked"
	SettlementPaid    = "paid"
)

type Contest struct {
	ID               string
	MatchID          string
	Name             string
	EntryFee         float64
	PrizePool        float64
	SettlementStatus string
}

// FantasyTeam is the player selection one user submitted for a match.
// Validity rules (roles, credits) are enforced upstream by the team
// builder; this package consumes the selection as a given.
type FantasyTeam struct {
	ID            string
	UserID        string
	MatchID       string
	Name          string
	PlayerIDs     []string
	CaptainID     string
	ViceCaptainID string
}

type Entry struct {
	ID        string
	ContestID string
	TeamID    string
	UserID    string
	Points    float64
	Rank      *int
	WinAmount *float64
	CreatedAt time.Time
}

// PrizeBreakup maps one rank to a prize amount. Ranks are unique per
// contest.
type PrizeBreakup struct {
	ContestID string
	Rank      int
	Amount    float64
}
