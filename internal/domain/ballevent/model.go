package ballevent

import (
	"fmt"
	"time"
)

// BallEvent is one delivery with a locally assigned, gap-free sequence
// number. Events are immutable outside the forced-resync path.
type BallEvent struct {
	MatchID        string
	Seq            int
	Over           string
	ProviderBallID string
	Innings        int

	Runs       int
	IsFour     bool
	IsSix      bool
	IsWicket   bool
	WicketType string

	BatsmanProviderID    string
	BowlerProviderID     string
	OutBatsmanProviderID string

	Raw       []byte
	CreatedAt time.Time
}

// OverNotation converts a 1-based sequence number to cricket over
// notation, e.g. seq 1 -> "0.1", seq 7 -> "1.1".
func OverNotation(seq int) string {
	if seq < 1 {
		seq = 1
	}
	return fmt.Sprintf("%d.%d", (seq-1)/6, (seq-1)%6+1)
}
