package journal

import (
	"time"

	"github.com/cuemby/converge/pkg/reconciler"
	"github.com/google/uuid"
)

// Entry records the outcome of one document in one run. Remote objects are
// not kept since they can carry secrets.
type Entry struct {
	RunID      string    `json:"runId"`
	Seq        int       `json:"seq"`
	Time       time.Time `json:"time"`
	Kind       string    `json:"kind"`
	Name       string    `json:"name,omitempty"`
	Action     string    `json:"action,omitempty"`
	Changed    bool      `json:"changed"`
	Mismatched bool      `json:"mismatched,omitempty"`
	Diff       []string  `json:"diff,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Store defines the interface for the reconciliation history
type Store interface {
	Append(e *Entry) error
	// List returns the most recent entries, oldest first
	List(limit int) ([]*Entry, error)
	ListRun(runID string) ([]*Entry, error)
	Close() error
}

// NewRunID returns a fresh identifier for one apply run
func NewRunID() string {
	return uuid.NewString()
}

// FromResult builds the entry for a reconciliation outcome. result may be nil
// when err is set.
func FromResult(runID string, seq int, kind string, result *reconciler.Result, err error) *Entry {
	e := &Entry{
		RunID: runID,
		Seq:   seq,
		Time:  time.Now().UTC(),
		Kind:  kind,
	}
	if result != nil {
		e.Name = result.Name
		e.Action = string(result.Action)
		e.Changed = result.Changed
		e.Mismatched = result.Mismatched
		if diff, ok := result.Diagnostics["diff"].([]string); ok {
			e.Diff = diff
		}
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}
