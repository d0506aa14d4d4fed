package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/selection"
	"github.com/trezcool/cantine/core/student"
)

type selectionStore struct {
	db       *DB
	students *studentRepository
}

var _ selection.Store = (*selectionStore)(nil)

func NewSelectionStore(db *DB) *selectionStore {
	return &selectionStore{db: db, students: NewStudentRepository(db)}
}

func (store *selectionStore) SetSelection(_ context.Context, studentIDs []string, mealID string, t meal.Type) error {
	if !t.Valid() {
		return meal.ErrInvalidType
	}

	store.db.mu.Lock()
	defer store.db.mu.Unlock()

	if _, ok := store.db.meals[mealID]; !ok {
		return meal.ErrNotFound
	}
	ids := core.UniqueStrings(studentIDs)
	for _, id := range ids {
		if _, ok := store.db.students[id]; !ok {
			return errors.Wrapf(student.ErrNotFound, "student %s", id)
		}
	}

	sel, ok := store.db.selections[mealID]
	if !ok {
		sel = make(map[string]meal.Type)
		store.db.selections[mealID] = sel
	}
	for _, id := range ids {
		sel[id] = t
	}
	return nil
}

func (store *selectionStore) GetSelections(_ context.Context, mealID string) (selection.Selections, error) {
	store.db.mu.RLock()
	defer store.db.mu.RUnlock()

	sel := selection.Selections{A: []string{}, B: []string{}}
	for id, t := range store.db.selections[mealID] {
		if t == meal.TypeA {
			sel.A = append(sel.A, id)
		} else {
			sel.B = append(sel.B, id)
		}
	}
	sort.Strings(sel.A)
	sort.Strings(sel.B)
	return sel, nil
}

func (store *selectionStore) CreateStudent(ctx context.Context, ns student.NewStudent) (student.Student, error) {
	ns.Clean()
	if ns.FullName == "" || ns.ClassName == "" {
		return student.Student{}, core.NewValidationError(errors.New("full name and class are required"))
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

func (store *selectionStore) ImportMealSelection(ctx context.Context, si selection.SelectionImport) error {
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

func (store *selectionStore) GetAllStudents(ctx context.Context) ([]student.Student, error) {
	return store.students.QueryStudents(ctx, student.QueryFilter{})
}
