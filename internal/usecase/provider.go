package usecase

import "context"

// SnapshotProvider fetches the cumulative live-match feed. A nil
// snapshot with a nil error means the provider has nothing useful yet;
// callers treat both nil and error as "try again next tick".
type SnapshotProvider interface {
	GetMatchSnapshot(ctx context.Context, providerMatchID string) (*Snapshot, error)
}

// Snapshot is one cumulative provider payload for a match. Every list
// restates the full match so far, so ingestion overwrites rather than
// accumulates.
type Snapshot struct {
	Status  string              `json:"status"`
	Teams   []SnapshotTeam      `json:"teams"`
	Lineup  []SnapshotPlayer    `json:"lineup"`
	Batting []SnapshotBatting   `json:"batting"`
	Bowling []SnapshotBowling   `json:"bowling"`
	Balls   []SnapshotBall      `json:"balls"`
	Toss    SnapshotToss        `json:"toss"`
	Scores  []SnapshotTeamScore `json:"runs"`
}

type SnapshotTeam struct {
	ProviderID string `json:"id"`
	Name       string `json:"name"`
	ShortName  string `json:"short_name"`
}

type SnapshotPlayer struct {
	ProviderID   string `json:"id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	TeamName     string `json:"team_name"`
	IsSubstitute bool   `json:"is_substitute"`
}

type SnapshotBatting struct {
	PlayerID   string  `json:"player_id"`
	TeamName   string  `json:"team_name"`
	Runs       int     `json:"runs"`
	Balls      int     `json:"balls"`
	Fours      int     `json:"fours"`
	Sixes      int     `json:"sixes"`
	Out        bool    `json:"out"`
	OutNote    string  `json:"out_note"`
	StrikeRate float64 `json:"strike_rate"`
}

type SnapshotBowling struct {
	PlayerID     string  `json:"player_id"`
	TeamName     string  `json:"team_name"`
	Wickets      int     `json:"wickets"`
	Overs        float64 `json:"overs"`
	Maidens      int     `json:"maidens"`
	RunsConceded int     `json:"runs_conceded"`
	Economy      float64 `json:"economy"`
}

// SnapshotBall carries one delivery. The provider duplicates the run
// and dismissal fields between a nested score object and the top level;
// the nested object wins when present.
type SnapshotBall struct {
	ProviderID    string             `json:"id"`
	ScoreboardTag string             `json:"scoreboard"`
	BatsmanID     string             `json:"batsman_id"`
	BowlerID      string             `json:"bowler_id"`
	Score         *SnapshotBallScore `json:"score"`
	Runs          int                `json:"runs"`
	IsFour        bool               `json:"is_four"`
	IsSix         bool               `json:"is_six"`
	IsWicket      bool               `json:"is_wicket"`
	WicketType    string             `json:"wicket_type"`
	OutBatsmanID  string             `json:"out_batsman_id"`
	FielderIDs    []string           `json:"fielder_ids"`
	Commentary    string             `json:"commentary"`
}

type SnapshotBallScore struct {
	Runs       int    `json:"runs"`
	IsFour     bool   `json:"is_four"`
	IsSix      bool   `json:"is_six"`
	IsWicket   bool   `json:"is_wicket"`
	WicketType string `json:"wicket_type"`
}

type SnapshotToss struct {
	Winner   string `json:"winner"`
	Decision string `json:"decision"`
	Done     bool   `json:"done"`
}

type SnapshotTeamScore struct {
	TeamName string `json:"team_name"`
	Score    string `json:"score"`
	Overs    string `json:"overs"`
	Innings  int    `json:"innings"`
}

// EffectiveScore resolves the nested/top-level duplication on a ball.
func (b SnapshotBall) EffectiveScore() SnapshotBallScore {
	if b.Score != nil {
		return *b.Score
	}
	return SnapshotBallScore{
		Runs:       b.Runs,
		IsFour:     b.IsFour,
		IsSix:      b.IsSix,
		IsWicket:   b.IsWicket,
		WicketType: b.WicketType,
	}
}

// Innings maps scoreboard tags such as "S2" to an innings number,
// defaulting to the first innings when the tag is absent or malformed.
func (b SnapshotBall) Innings() int {
	tag := b.ScoreboardTag
	if len(tag) < 2 || (tag[0] != 'S' && tag[0] != 's') {
		return 1
	}
	n := 0
	for _, r := range tag[1:] {
		if r < '0' || r > '9' {
			return 1
		}
		n = n*10 + int(r-'0')
	}
	if n < 1 {
		return 1
	}
	return n
}
