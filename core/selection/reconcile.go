package selection

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

type (
	// RowParser turns the whitespace separated tokens of a row into R.
	RowParser[R any] func(tokens []string) (R, error)

	// RowExecutor applies one parsed row, usually with a single Store call.
	RowExecutor[R any] func(ctx context.Context, row R) error

	// ProgressFunc is called after every processed row.
	ProgressFunc func(Progress)

	Progress struct {
		Current int `json:"current"`
		Total   int `json:"total"`
		Success int `json:"success"`
		Failed  int `json:"failed"`
	}

	RowFailure struct {
		Line   int    `json:"line"`
		Row    string `json:"row"`
		Reason string `json:"reason"`
		Err    error  `json:"-"` // *ParseError | *RemoteCallError
	}

	// ImportJob is the state of one bulk import.
	ImportJob struct {
		Total       int          `json:"total"`
		Current     int          `json:"current"`
		Success     int          `json:"success"`
		Failed      int          `json:"failed"`
		Failures    []RowFailure `json:"failures"`
		Unprocessed []string     `json:"unprocessed,omitempty"` // left over by a cancellation
	}
)

func (job *ImportJob) Progress() Progress {
	return Progress{Current: job.Current, Total: job.Total, Success: job.Success, Failed: job.Failed}
}

// Done reports whether every row has been processed.
func (job *ImportJob) Done() bool { return job.Current == job.Total }

// FailedRows returns the raw failed rows in input order.
func (job *ImportJob) FailedRows() []string {
	rows := make([]string, 0, len(job.Failures))
	for _, f := range job.Failures {
		rows = append(rows, f.Row)
	}
	return rows
}

// RetryPayload returns the rows to submit again: the failed rows then the unprocessed ones.
func (job *ImportJob) RetryPayload() string {
	rows := append(job.FailedRows(), job.Unprocessed...)
	return strings.Join(rows, "\n")
}

func (job *ImportJob) fail(line int, row string, err error) {
	job.Failed++
	job.Failures = append(job.Failures, RowFailure{Line: line, Row: row, Reason: err.Error(), Err: err})
}

// SplitRows returns the non-empty trimmed lines of raw.
func SplitRows(raw string) []string {
	lines := strings.Split(raw, "\n")
	rows := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			rows = append(rows, line)
		}
	}
	return rows
}

// Reconcile parses and executes the rows of raw one after the other, in input order.
// A failing row is recorded and never aborts the batch. ctx is only checked between rows: once it
// is done, the remaining rows are left in ImportJob.Unprocessed and ctx.Err() is returned along
// with the job.
func Reconcile[R any](ctx context.Context, raw string, parse RowParser[R], exec RowExecutor[R], progress ProgressFunc) (*ImportJob, error) {
	rows := SplitRows(raw)
	job := &ImportJob{Total: len(rows)}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			job.Unprocessed = rows[i:]
			return job, err
		}

		line := i + 1
		if r, err := parse(strings.Fields(row)); err != nil {
			job.fail(line, row, &ParseError{Line: line, Row: row, Err: err})
		} else if err = exec(ctx, r); err != nil {
			var rcErr *RemoteCallError
			if !errors.As(err, &rcErr) {
				err = &RemoteCallError{Op: "execute", Err: err}
			}
			job.fail(line, row, err)
		} else {
			job.Success++
		}

		job.Current = line
		if progress != nil {
			progress(job.Progress())
		}
	}
	return job, nil
}
