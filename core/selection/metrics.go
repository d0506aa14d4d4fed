package selection

import "time"

// Import kinds
const (
	KindStudents   = "students"
	KindSelections = "selections"
)

// Metrics records engine activity.
type Metrics interface {
	// ObserveAssignment records an Assign call of count students.
	ObserveAssignment(policy Policy, count int, err error)
	// ObserveImportRow records the outcome of one import row.
	ObserveImportRow(kind string, ok bool)
	// ObserveImport records a finished import.
	ObserveImport(kind string, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveAssignment(Policy, int, error) {}
func (nopMetrics) ObserveImportRow(string, bool)        {}
func (nopMetrics) ObserveImport(string, time.Duration)  {}
