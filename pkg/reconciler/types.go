package reconciler

import (
	"fmt"
)

// State is the caller's intent for a resource
type State string

const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
)

// ParseState validates a state string. An empty string means present.
func ParseState(s string) (State, error) {
	switch State(s) {
	case "", StatePresent:
		return StatePresent, nil
	case StateAbsent:
		return StateAbsent, nil
	}
	return "", fmt.Errorf("invalid state %q: must be present or absent", s)
}

// Action is what a reconciliation did
type Action string

const (
	ActionNone     Action = "none"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionMismatch Action = "mismatch"
)

// Result is the single output of a reconciliation
type Result struct {
	Kind      string
	Name      string
	ResultKey string
	Action    Action
	Changed   bool
	// Mismatched is set when an immutable object has drifted from the
	// desired state
	Mismatched bool
	// Object is the resulting remote object, nil when it does not exist
	Object      Object
	Diagnostics map[string]any
}

func (r *Result) setDiagnostic(key string, v any) {
	if r.Diagnostics == nil {
		r.Diagnostics = make(map[string]any)
	}
	r.Diagnostics[key] = v
}

// SetDiagnostic attaches extra output such as a plan diff
func (r *Result) SetDiagnostic(key string, v any) {
	r.setDiagnostic(key, v)
}

// Record renders the result as {changed, <ResultKey>: object, ...diagnostics}
func (r *Result) Record() map[string]any {
	rec := map[string]any{
		"changed": r.Changed,
	}
	if r.ResultKey != "" {
		if r.Object != nil {
			rec[r.ResultKey] = r.Object
		} else {
			rec[r.ResultKey] = nil
		}
	}
	if r.Mismatched || r.Action == ActionMismatch {
		rec["mismatched"] = r.Mismatched
	}
	for k, v := range r.Diagnostics {
		if _, taken := rec[k]; !taken {
			rec[k] = v
		}
	}
	return rec
}

// PolicyError is a fatal condition the reconciler detected itself, such as a
// bootstrap token that does not match the configured management token.
type PolicyError struct {
	Kind   string
	Reason string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// StringField returns obj[key] when it is a non-empty string
func StringField(obj Object, key string) (string, error) {
	v, ok := obj[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("object has no %s", key)
	}
	return v, nil
}
