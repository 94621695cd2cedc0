package model

import "time"

// RunStatus distinguishes a clean delivery from a degraded one and from failure.
type RunStatus string

const (
	RunDelivered RunStatus = "DELIVERED"
	RunDegraded  RunStatus = "DEGRADED"
	RunFailed    RunStatus = "FAILED"
)

// RunResult summarises one pipeline execution.
type RunResult struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Status    RunStatus
	Stage     string // stage that failed, empty on success
	Sessions  Sessions
	Degraded  []Outcome
	TextChars int
	DryRun    bool
	Upload    string // response text from the IVR endpoint
	Err       error
}

// DegradedKeys lists the instrument keys reported without data.
func (r RunResult) DegradedKeys() []string {
	keys := make([]string, 0, len(r.Degraded))
	for _, o := range r.Degraded {
		keys = append(keys, o.Key)
	}
	return keys
}
