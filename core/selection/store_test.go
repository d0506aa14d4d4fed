package selection

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/student"
)

var errRemote = errors.New("remote unavailable")

type setCall struct {
	StudentIDs []string
	MealID     string
	Type       meal.Type
}

// fakeStore is an in-memory Store with failure injection.
type fakeStore struct {
	mu         sync.Mutex
	students   []student.Student
	selections map[string]map[string]meal.Type // {mealID: {studentID: type}}
	setCalls   []setCall
	imports    []SelectionImport

	failSet    func(call setCall) error
	failCreate func(ns student.NewStudent) error
	getErr     error
}

var _ Store = (*fakeStore)(nil)

func newFakeStore(students ...student.Student) *fakeStore {
	return &fakeStore{students: students, selections: make(map[string]map[string]meal.Type)}
}

func (s *fakeStore) set(ids []string, mealID string, t meal.Type) {
	sel, ok := s.selections[mealID]
	if !ok {
		sel = make(map[string]meal.Type)
		s.selections[mealID] = sel
	}
	for _, id := range ids {
		sel[id] = t
	}
}

func (s *fakeStore) SetSelection(_ context.Context, studentIDs []string, mealID string, t meal.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := setCall{StudentIDs: append([]string(nil), studentIDs...), MealID: mealID, Type: t}
	s.setCalls = append(s.setCalls, call)
	if s.failSet != nil {
		if err := s.failSet(call); err != nil {
			return err
		}
	}
	s.set(studentIDs, mealID, t)
	return nil
}

func (s *fakeStore) GetSelections(_ context.Context, mealID string) (Selections, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return Selections{}, s.getErr
	}
	sel := Selections{A: []string{}, B: []string{}}
	for id, t := range s.selections[mealID] {
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

func (s *fakeStore) CreateStudent(_ context.Context, ns student.NewStudent) (student.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCreate != nil {
		if err := s.failCreate(ns); err != nil {
			return student.Student{}, err
		}
	}
	st := student.Student{
		ID:              ns.FullName,
		FullName:        ns.FullName,
		ClassName:       ns.ClassName,
		ExternalLoginID: ns.ExternalLoginID,
	}
	s.students = append(s.students, st)
	return st, nil
}

func (s *fakeStore) ImportMealSelection(_ context.Context, si SelectionImport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.imports = append(s.imports, si)
	for _, st := range s.students {
		if (si.Method == MethodStudentID && st.ID == si.ID) ||
			(si.Method == MethodExternalLoginID && st.ExternalLoginID == si.ID) {
			s.set([]string{st.ID}, si.MealID, si.MealType)
			return nil
		}
	}
	return student.ErrNotFound
}

func (s *fakeStore) GetAllStudents(context.Context) ([]student.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return nil, s.getErr
	}
	return append([]student.Student(nil), s.students...), nil
}

// fakeMeals implements Meals over a map.
type fakeMeals struct {
	mu    sync.Mutex
	meals map[string]meal.Meal
}

var _ Meals = (*fakeMeals)(nil)

func newFakeMeals(meals ...meal.Meal) *fakeMeals {
	fm := &fakeMeals{meals: make(map[string]meal.Meal, len(meals))}
	for _, m := range meals {
		fm.meals[m.ID] = m
	}
	return fm
}

func (fm *fakeMeals) GetByID(_ context.Context, id string) (meal.Meal, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	m, ok := fm.meals[id]
	if !ok {
		return meal.Meal{}, meal.ErrNotFound
	}
	return m, nil
}

func (fm *fakeMeals) Query(context.Context, ...core.DBOrdering) ([]meal.Meal, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	meals := make([]meal.Meal, 0, len(fm.meals))
	for _, m := range fm.meals {
		meals = append(meals, m)
	}
	sort.Slice(meals, func(i, j int) bool { return meals[i].ID < meals[j].ID })
	return meals, nil
}

func (fm *fakeMeals) Delete(_ context.Context, ids ...string) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	for _, id := range ids {
		delete(fm.meals, id)
	}
	return nil
}

// testLogger discards everything but remembers the messages.
type testLogger struct {
	mu   sync.Mutex
	msgs []string
}

var _ core.Logger = (*testLogger)(nil)

func (l *testLogger) log(msg string) {
	l.mu.Lock()
	l.msgs = append(l.msgs, msg)
	l.mu.Unlock()
}

func (l *testLogger) Debug(msg string, _ ...interface{}) { l.log(msg) }
func (l *testLogger) Info(msg string, _ ...interface{})  { l.log(msg) }
func (l *testLogger) Warn(msg string, _ ...interface{})  { l.log(msg) }
func (l *testLogger) Error(msg string, _ ...interface{}) { l.log(msg) }
func (l *testLogger) Fatal(msg string, _ ...interface{}) { l.log(msg) }

// mailRecorder is a synchronous core.EmailService.
type mailRecorder struct {
	mu   sync.Mutex
	sent []core.EmailMessage
}

func (r *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range messages {
		if err := msg.Render(); err != nil {
			panic(err)
		}
		r.sent = append(r.sent, *msg)
	}
}

func mustTime(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

// lunch selects on 2024-01-01 and is served on 2024-01-03.
func lunch() meal.Meal {
	return meal.Meal{
		ID:             "lunch",
		Name:           "Lunch",
		SelectionStart: mustTime("2024-01-01T00:00"),
		SelectionEnd:   mustTime("2024-01-02T00:00"),
		EffectiveStart: mustTime("2024-01-03T00:00"),
		EffectiveEnd:   mustTime("2024-01-04T00:00"),
	}
}

func clock(s string) func() time.Time {
	t := mustTime(s)
	return func() time.Time { return t }
}

func students() []student.Student {
	return []student.Student{
		{ID: "101", FullName: "Alice", ClassName: "1A", ExternalLoginID: "alice"},
		{ID: "102", FullName: "Bob", ClassName: "1B", ExternalLoginID: "bob"},
		{ID: "103", FullName: "Carol", ClassName: "1A"},
		{ID: "104", FullName: "Dan", ClassName: "1B"},
	}
}
