package match

import (
	"strings"
	"time"
)

const (
	StatusUpcoming  = "upcoming"
	StatusLive      = "live"
	StatusCompleted = "completed"
)

// Match is one tracked fixture. Status only ever moves forward
// (upcoming -> live -> completed).
type Match struct {
	ID           string
	ProviderID   string
	Title        string
	TeamA        string
	TeamB        string
	Status       string
	StartAt      time.Time
	Result       string
	TossWinner   string
	TossDecision string
}

// Summary is the derived per-match scoreboard, upserted on every
// successful poll.
type Summary struct {
	MatchID        string
	TeamAScore     string
	TeamBScore     string
	Overs          string
	CurrentInnings int
	RawSnapshot    []byte
	UpdatedAt      time.Time
}

func NormalizeStatus(value string) string {
	status := strings.ToLower(strings.TrimSpace(value))
	if status == "" {
		return StatusUpcoming
	}
	return status
}

var statusOrder = map[string]int{
	StatusUpcoming:  0,
	StatusLive:      1,
	StatusCompleted: 2,
}

// CanTransition reports whether moving from one status to another keeps
// the lifecycle monotonic.
func CanTransition(from, to string) bool {
	fromOrder, ok := statusOrder[NormalizeStatus(from)]
	if !ok {
		return false
	}
	toOrder, ok := statusOrder[NormalizeStatus(to)]
	if !ok {
		return false
	}
	return toOrder > fromOrder
}

// IsProviderCompletedStatus maps the provider's free-text match state to
// our terminal status.
func IsProviderCompletedStatus(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "completed", "complete", "finished", "result", "ended", "match ended", "abandoned":
		return true
	default:
		return false
	}
}

// IsProviderLiveStatus reports whether the provider considers the match
// in play.
func IsProviderLiveStatus(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "live", "in progress", "innings break", "rain delay", "drinks":
		return true
	default:
		return false
	}
}
