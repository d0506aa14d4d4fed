package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/selection"
	"github.com/trezcool/cantine/core/student"
)

const upsertSelectionQuery = `INSERT INTO selection (meal_id, student_id, meal_type, updated_at) VALUES (?, ?, ?, ?)
	ON CONFLICT (meal_id, student_id) DO UPDATE SET meal_type = excluded.meal_type, updated_at = excluded.updated_at`

type selectionRow struct {
	StudentID string    `db:"student_id"`
	MealType  meal.Type `db:"meal_type"`
}

// selectionStore is the SQL system of record of selections.
type selectionStore struct {
	db       core.DB
	meals    *mealRepository
	students *studentRepository
}

var _ selection.Store = (*selectionStore)(nil) // interface compliance check

func NewSelectionStore(db core.DB) *selectionStore {
	return &selectionStore{
		db:       db,
		meals:    NewMealRepository(db),
		students: NewStudentRepository(db),
	}
}

// SetSelection upserts the selections of all studentIDs in a single transaction.
func (store selectionStore) SetSelection(ctx context.Context, studentIDs []string, mealID string, t meal.Type) error {
	if !t.Valid() {
		return meal.ErrInvalidType
	}
	if _, err := store.meals.GetMealByID(ctx, mealID); err != nil {
		return err
	}

	ids := core.UniqueStrings(studentIDs)
	if len(ids) == 0 {
		return nil
	}

	tx, err := store.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	// every student must exist
	q, args, err := sqlx.In(`SELECT id FROM student WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building students query")
	}
	var found []string
	if err = tx.SelectContext(ctx, &found, tx.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking students")
	}
	if len(found) != len(ids) {
		return errors.Wrapf(student.ErrNotFound, "%d of %d students", len(ids)-len(found), len(ids))
	}

	now := time.Now().UTC()
	q = tx.Rebind(upsertSelectionQuery)
	for _, id := range ids {
		if _, err = tx.ExecContext(ctx, q, mealID, id, string(t), now); err != nil {
			return errors.Wrap(err, "upserting selection")
		}
	}
	if err = tx.Commit(); err != nil {
		// upserts may or may not have landed
		return core.NewShutdownError("committing selections: " + err.Error())
	}
	return nil
}

func (store selectionStore) GetSelections(ctx context.Context, mealID string) (selection.Selections, error) {
	var rows []selectionRow
	q := store.db.Rebind(`SELECT student_id, meal_type FROM selection WHERE meal_id = ? ORDER BY student_id`)
	if err := store.db.SelectContext(ctx, &rows, q, mealID); err != nil {
		return selection.Selections{}, errors.Wrap(err, "querying selections")
	}

	sel := selection.Selections{A: []string{}, B: []string{}}
	for _, row := range rows {
		switch row.MealType {
		case meal.TypeA:
			sel.A = append(sel.A, row.StudentID)
		case meal.TypeB:
			sel.B = append(sel.B, row.StudentID)
		}
	}
	return sel, nil
}

func (store selectionStore) CreateStudent(ctx context.Context, ns student.NewStudent) (student.Student, error) {
	ns.Clean()
	if ns.FullName == "" || ns.ClassName == "" {
		return student.Student{}, core.NewValidationError(errors.New("full name and class are required"))
	}
	if ns.ExternalLoginID != "" {
		_, err := store.students.GetStudentByExternalLoginID(ctx, ns.ExternalLoginID)
		if err == nil {
			return student.Student{}, student.ErrExists
		}
		if !errors.Is(err, student.ErrNotFound) {
			return student.Student{}, err
		}
	}

	now := time.Now().UTC()
	return store.students.CreateStudent(ctx, student.Student{
		ID:              uuid.New().String(),
		FullName:        ns.FullName,
		ClassName:       ns.ClassName,
		ExternalLoginID: ns.ExternalLoginID,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

// ImportMealSelection resolves the student of si then sets its selection.
func (store selectionStore) ImportMealSelection(ctx context.Context, si selection.SelectionImport) error {
	var st student.Student
	var err error

	switch si.Method {
	case selection.MethodStudentID:
		st, err = store.students.GetStudentByID(ctx, si.ID)
	case selection.MethodExternalLoginID:
		st, err = store.students.GetStudentByExternalLoginID(ctx, si.ID)
	default:
		return errors.Errorf("unknown import method %q", si.Method)
	}
	if err != nil {
		return err
	}
	return store.SetSelection(ctx, []string{st.ID}, si.MealID, si.MealType)
}

func (store selectionStore) GetAllStudents(ctx context.Context) ([]student.Student, error) {
	return store.students.QueryStudents(ctx, student.QueryFilter{})
}
