package postgres

import (
	"time"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/ballevent"
)

type ballEventTableModel struct {
	MatchID              string    `db:"match_id"`
	Seq                  int       `db:"seq"`
	OverLabel            string    `db:"over_label"`
	ProviderBallID       string    `db:"provider_ball_id"`
	Innings              int       `db:"innings"`
	Runs                 int       `db:"runs"`
	IsFour               bool      `db:"is_four"`
	IsSix                bool      `db:"is_six"`
	IsWicket             bool      `db:"is_wicket"`
	WicketType           string    `db:"wicket_type"`
	BatsmanProviderID    string    `db:"batsman_provider_id"`
	BowlerProviderID     string    `db:"bowler_provider_id"`
	OutBatsmanProviderID string    `db:"out_batsman_provider_id"`
	Raw                  []byte    `db:"raw"`
	CreatedAt            time.Time `db:"created_at"`
}

func (m ballEventTableModel) toDomain() ballevent.BallEvent {
	return ballevent.BallEvent{
		MatchID:              m.MatchID,
		Seq:                  m.Seq,
		Over:                 m.OverLabel,
		ProviderBallID:       m.ProviderBallID,
		Innings:              m.Innings,
		Runs:                 m.Runs,
		IsFour:               m.IsFour,
		IsSix:                m.IsSix,
		IsWicket:             m.IsWicket,
		WicketType:           m.WicketType,
		BatsmanProviderID:    m.BatsmanProviderID,
		BowlerProviderID:     m.BowlerProviderID,
		OutBatsmanProviderID: m.OutBatsmanProviderID,
		Raw:                  m.Raw,
		CreatedAt:            m.CreatedAt,
	}
}
