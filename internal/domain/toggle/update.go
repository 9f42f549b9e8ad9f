package toggle

import "strconv"

// UpdateRequest is the state change sent to the endpoint for one control.
type UpdateRequest struct {
	RecordID string
	Field    string
	Value    bool
}

// FormValue renders Value the way the endpoint expects it ("true"/"false").
func (r UpdateRequest) FormValue() string { return strconv.FormatBool(r.Value) }

// UpdateResult is the endpoint's answer.
type UpdateResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OutcomeKind classifies how a toggle resolved.
type OutcomeKind string

const (
	OutcomeConfirmed OutcomeKind = "confirmed" // endpoint accepted the change
	OutcomeRejected  OutcomeKind = "rejected"  // endpoint answered success=false
	OutcomeFailed    OutcomeKind = "failed"    // transport failure, nothing usable came back
)

// Outcome is the single terminal result of one toggle.
type Outcome struct {
	Key     Key         `json:"key"`
	Desired bool        `json:"desired"`
	Kind    OutcomeKind `json:"kind"`
	// Message is what the user was shown; empty on success.
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

// OK reports whether the change was confirmed by the endpoint.
func (o Outcome) OK() bool { return o.Kind == OutcomeConfirmed }
