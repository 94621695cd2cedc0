package recorder

import "time"

// RunRecord is one pipeline execution as stored in the journal. Report text is
// never stored.
type RunRecord struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Status    string // "DELIVERED", "DEGRADED" or "FAILED"
	Stage     string
	Israel    string
	US        string
	TextChars int
	Upload    string
	Error     string
	Degraded  []InstrumentFailure
}

// InstrumentFailure is an instrument that was reported without data.
type InstrumentFailure struct {
	Key    string
	Ticker string
	Error  string
}

// Recorder persists the run journal.
type Recorder interface {
	RecordRun(rec *RunRecord) error
	RecentRuns(limit int) ([]RunRecord, error)
	Close() error
}
