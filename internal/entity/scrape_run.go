package entity

import "time"

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// ScrapeRun records one ingestion attempt for one source. FinishedAt is nil
// while the run is in RunStatusRunning and is set exactly once, at the
// terminal transition.
type ScrapeRun struct {
	ID         string
	Source     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     RunStatus
	Found      int
	Added      int
	Updated    int
	Errors     string
}

// Terminal reports whether the run has left the Running state.
func (r *ScrapeRun) Terminal() bool {
	return r.Status == RunStatusSuccess || r.Status == RunStatusFailed
}
