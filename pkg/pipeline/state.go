package pipeline

import (
	"sync"
	"time"

	"github.com/sujan-004/etl-pipeline-project/pkg/models"
)

// RunState is owned by the orchestrator. Readers only ever see a Snapshot.
type RunState struct {
	mu            sync.RWMutex
	running       bool
	runs          int
	last          *models.RunReport
	lastCompleted *time.Time
}

type Snapshot struct {
	Running         bool              `json:"running"`
	Runs            int               `json:"runs"`
	LastRun         *models.RunReport `json:"last_run,omitempty"`
	LastCompletedAt *time.Time        `json:"last_completed_at,omitempty"`
}

// begin marks a run in flight. It returns false when one already is.
func (s *RunState) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *RunState) finish(report *models.RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.runs++
	s.last = report
	if report.Status == models.RunCompleted {
		t := report.FinishedAt
		s.lastCompleted = &t
	}
}

// Snapshot copies the current state for readers outside the run loop.
func (s *RunState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Running: s.running,
		Runs:    s.runs,
	}
	if s.last != nil {
		last := *s.last
		last.Entities = append([]models.EntityReport(nil), s.last.Entities...)
		snap.LastRun = &last
	}
	if s.lastCompleted != nil {
		t := *s.lastCompleted
		snap.LastCompletedAt = &t
	}
	return snap
}

// abort clears the in-flight flag without recording a run.
func (s *RunState) abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}
