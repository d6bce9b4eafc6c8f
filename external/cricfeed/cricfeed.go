package cricfeed

import "github.com/sunnygoyal1983/play11-w-sub000/internal/usecase"

// snapshotEnvelope is the cricfeed response wrapper. Data is null while
// the provider has not produced a snapshot for the match.
type snapshotEnvelope struct {
	Status string            `json:"status"`
	Data   *usecase.Snapshot `json:"data"`
}
