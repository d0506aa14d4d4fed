package selection

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotSelectable is returned when a student tries to choose outside of the selection window.
var ErrNotSelectable = errors.New("meal is not open for selection")

// ParseError reports a malformed import row.
type ParseError struct {
	Line int // 1-based, among non-empty rows
	Row  string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d %q: %v", e.Line, e.Row, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RemoteCallError reports a failed Store call.
type RemoteCallError struct {
	Op  string
	Err error
}

func (e *RemoteCallError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// PreconditionError is returned before any Store call when the request cannot be executed.
type PreconditionError struct {
	Field  string
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Field + ": " + e.Reason
}

// AssignmentError reports a failed Assign.
// When Partial is set, the ids in Committed were assigned before the failure and stay assigned.
type AssignmentError struct {
	MealID    string
	Policy    Policy
	Partial   bool
	Committed []string
	Err       error
}

func (e *AssignmentError) Error() string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "assigning %s to meal %s", e.Policy, e.MealID)
	if e.Partial {
		_, _ = fmt.Fprintf(&b, " (partially applied: %d committed)", len(e.Committed))
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *AssignmentError) Unwrap() error { return e.Err }
