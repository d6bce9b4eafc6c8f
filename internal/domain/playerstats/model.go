package playerstats

import "time"

// PlayerStatistic is the cumulative per-(match, player) stat line. The
// provider payload is itself cumulative, so successive ingests replace
// values instead of adding to them.
type PlayerStatistic struct {
	MatchID          string
	PlayerID         string
	ProviderPlayerID string
	Role             string

	Runs       int
	Balls      int
	Fours      int
	Sixes      int
	Out        bool
	StrikeRate float64

	Wickets      int
	Overs        float64
	Maidens      int
	RunsConceded int
	Economy      float64

	Catches        int
	Stumpings      int
	RunOutDirect   int
	RunOutIndirect int

	Points    float64
	UpdatedAt time.Time
}

// Equal compares the stat line ignoring UpdatedAt, used to decide
// whether a poll actually changed anything.
func (s PlayerStatistic) Equal(other PlayerStatistic) bool {
	s.UpdatedAt = time.Time{}
	other.UpdatedAt = time.Time{}
	return s == other
}
