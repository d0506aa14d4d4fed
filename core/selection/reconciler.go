package selection

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/cantine/core/student"
)

// SelectionImportResult is the outcome of ImportSelections.
// Selections is re-read from the Store once the batch is over.
type SelectionImportResult struct {
	Job        *ImportJob `json:"job"`
	Selections Selections `json:"selections"`
}

// Reconciler runs the student and selection imports against a Store.
type Reconciler struct {
	store   Store
	metrics Metrics
}

func NewReconciler(store Store, metrics ...Metrics) *Reconciler {
	rc := &Reconciler{store: store, metrics: nopMetrics{}}
	if len(metrics) > 0 && metrics[0] != nil {
		rc.metrics = metrics[0]
	}
	return rc
}

// observed reports every row outcome to the metrics before calling progress.
func (rc *Reconciler) observed(kind string, progress ProgressFunc) ProgressFunc {
	var last Progress
	return func(p Progress) {
		rc.metrics.ObserveImportRow(kind, p.Success > last.Success)
		last = p
		if progress != nil {
			progress(p)
		}
	}
}

// ImportStudents creates one Student per `FULL_NAME CLASS [EXTERNAL_LOGIN_ID]` row of raw.
func (rc *Reconciler) ImportStudents(ctx context.Context, raw string, progress ProgressFunc) (*ImportJob, error) {
	start := time.Now()
	defer func() { rc.metrics.ObserveImport(KindStudents, time.Since(start)) }()

	return Reconcile(ctx, raw, ParseStudentRow,
		func(ctx context.Context, ns student.NewStudent) error {
			if _, err := rc.store.CreateStudent(ctx, ns); err != nil {
				return &RemoteCallError{Op: "create_student", Err: err}
			}
			return nil
		},
		rc.observed(KindStudents, progress),
	)
}

// ImportSelections assigns mealID to every `IDENTIFIER A|B` row of raw, identifying students with
// method, then re-reads the selections of mealID.
func (rc *Reconciler) ImportSelections(ctx context.Context, raw, mealID string, method Method, progress ProgressFunc) (*SelectionImportResult, error) {
	if mealID == "" {
		return nil, &PreconditionError{Field: "meal_id", Reason: "no meal selected"}
	}
	if !method.Valid() {
		return nil, &PreconditionError{Field: "method", Reason: "must be one of student_id or external_login_id"}
	}

	start := time.Now()
	job, err := Reconcile(ctx, raw, ParseSelectionRow,
		func(ctx context.Context, row SelectionRow) error {
			si := SelectionImport{Method: method, ID: row.Identifier, MealType: row.MealType, MealID: mealID}
			if err := rc.store.ImportMealSelection(ctx, si); err != nil {
				return &RemoteCallError{Op: "import_meal_selection", Err: err}
			}
			return nil
		},
		rc.observed(KindSelections, progress),
	)
	rc.metrics.ObserveImport(KindSelections, time.Since(start))

	res := &SelectionImportResult{Job: job}
	if err != nil {
		return res, err
	}

	if res.Selections, err = rc.store.GetSelections(ctx, mealID); err != nil {
		return res, errors.Wrap(&RemoteCallError{Op: "get_selections", Err: err}, "re-reading selections")
	}
	return res, nil
}
