package job

import (
	"errors"
	"time"

	arkerrors "arkfeed.dev/arkfeed/internal/errors"
	"arkfeed.dev/arkfeed/internal/history"
)

// Status is the final state of a run
type Status string

const (
	StatusCommitted Status = "committed"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Trigger names what started a run
type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerSchedule Trigger = "schedule"
	TriggerStartup  Trigger = "startup"
	TriggerHTTP     Trigger = "http"
)

// Result is the outcome of one run
type Result struct {
	RunID     string    `json:"runId"`
	Trigger   Trigger   `json:"trigger"`
	Status    Status    `json:"status"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	CommitSHA string    `json:"commitSha,omitempty"`
	Message   string    `json:"message,omitempty"`
	Pushed    bool      `json:"pushed"`
	FeedItems int       `json:"feedItems,omitempty"`
	// Phase is the failing phase, set only for failed runs
	Phase arkerrors.Phase `json:"phase,omitempty"`
	Err   error           `json:"-"`
	Error string          `json:"error,omitempty"`
}

// Duration returns how long the run took
func (r *Result) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

func (r *Result) fail(err error) {
	r.Status = StatusFailed
	r.Err = err
	r.Error = err.Error()

	var stepErr *arkerrors.StepError
	if errors.As(err, &stepErr) {
		r.Phase = stepErr.Phase
	}
}

// Record converts the result to its persisted form
func (r *Result) Record() history.Record {
	return history.Record{
		RunID:     r.RunID,
		Trigger:   string(r.Trigger),
		Status:    string(r.Status),
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
		CommitSHA: r.CommitSHA,
		Message:   r.Message,
		Pushed:    r.Pushed,
		Phase:     string(r.Phase),
		Error:     r.Error,
		FeedItems: r.FeedItems,
	}
}
