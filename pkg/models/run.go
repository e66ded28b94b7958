package models

import "time"

type RecordStatus string

const (
	RecordLoaded    RecordStatus = "loaded"
	RecordDuplicate RecordStatus = "duplicate"
	RecordIgnored   RecordStatus = "ignored"
	RecordRejected  RecordStatus = "rejected"
	RecordSkipped   RecordStatus = "skipped"
	RecordFailed    RecordStatus = "failed"
)

type RunStatus string

const (
	// RunCompleted means every extraction succeeded and the watermark advanced.
	RunCompleted RunStatus = "completed"
	// RunHeld means an extraction failed so the watermark was left in place.
	RunHeld RunStatus = "held"
	// RunFailed means a fatal error aborted the run.
	RunFailed RunStatus = "failed"
)

// RecordOutcome is the result of processing a single staging row.
type RecordOutcome struct {
	Entity   EntityType   `json:"entity"`
	RecordID string       `json:"record_id"`
	Status   RecordStatus `json:"status"`
	Kind     string       `json:"kind,omitempty"`
	Cause    string       `json:"cause,omitempty"`
}

type EntityReport struct {
	Entity          EntityType      `json:"entity"`
	Extracted       int             `json:"extracted"`
	Loaded          int             `json:"loaded"`
	Duplicates      int             `json:"duplicates"`
	Ignored         int             `json:"ignored"`
	Rejected        int             `json:"rejected"`
	Skipped         int             `json:"skipped"`
	Failed          int             `json:"failed"`
	ExtractionError string          `json:"extraction_error,omitempty"`
	Problems        []RecordOutcome `json:"problems,omitempty"`
}

// Record folds an outcome into the counters. Anything that did not load or
// dedupe cleanly is kept in Problems so the report explains every skip.
func (r *EntityReport) Record(o RecordOutcome) {
	switch o.Status {
	case RecordLoaded:
		r.Loaded++
	case RecordDuplicate:
		r.Duplicates++
	case RecordIgnored:
		r.Ignored++
	case RecordRejected:
		r.Rejected++
		r.Problems = append(r.Problems, o)
	case RecordSkipped:
		r.Skipped++
		r.Problems = append(r.Problems, o)
	case RecordFailed:
		r.Failed++
		r.Problems = append(r.Problems, o)
	}
}

type RunReport struct {
	RunID           string         `json:"run_id"`
	Pipeline        string         `json:"pipeline"`
	Status          RunStatus      `json:"status"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	WatermarkBefore *time.Time     `json:"watermark_before,omitempty"`
	WatermarkAfter  *time.Time     `json:"watermark_after,omitempty"`
	Entities        []EntityReport `json:"entities"`
	Error           string         `json:"error,omitempty"`
}

func (r *RunReport) Entity(entity EntityType) *EntityReport {
	for i := range r.Entities {
		if r.Entities[i].Entity == entity {
			return &r.Entities[i]
		}
	}
	return nil
}

func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
