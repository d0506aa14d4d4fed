package selection

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/student"
)

type (
	// RosterEntry is a student along with the type it chose for a meal ("" when unset).
	RosterEntry struct {
		student.Student
		CurrentSelection meal.Type `json:"current_selection"`
	}

	Tally struct {
		A          int `json:"a"`
		B          int `json:"b"`
		Unselected int `json:"unselected"`
		Total      int `json:"total"`
	}

	MealStats struct {
		meal.Detail
		Tally Tally `json:"tally"`
	}

	// StudentMeal is a meal as seen by one student.
	StudentMeal struct {
		meal.Detail
		MealType meal.Type `json:"meal_type"` // "" when unset
	}
)

// Reporter reads the selections of the Store back into views.
type Reporter struct {
	store   Store
	meals   Meals
	nowFunc func() time.Time
}

func NewReporter(store Store, meals Meals) *Reporter {
	return &Reporter{store: store, meals: meals, nowFunc: time.Now}
}

// SetNowFunc overrides the clock used to derive meal states.
func (r *Reporter) SetNowFunc(now func() time.Time) { r.nowFunc = now }

// Roster lists every student with its current selection of mealID, sorted by class then name.
func (r *Reporter) Roster(ctx context.Context, mealID string) ([]RosterEntry, error) {
	students, err := r.store.GetAllStudents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting students")
	}
	sel, err := r.store.GetSelections(ctx, mealID)
	if err != nil {
		return nil, errors.Wrap(err, "getting selections")
	}
	return buildRoster(students, sel), nil
}

func buildRoster(students []student.Student, sel Selections) []RosterEntry {
	idx := sel.Index()
	roster := make([]RosterEntry, 0, len(students))
	for _, s := range students {
		roster = append(roster, RosterEntry{Student: s, CurrentSelection: idx[s.ID]})
	}
	sort.SliceStable(roster, func(i, j int) bool {
		if roster[i].ClassName != roster[j].ClassName {
			return roster[i].ClassName < roster[j].ClassName
		}
		return roster[i].FullName < roster[j].FullName
	})
	return roster
}

func tally(roster []RosterEntry) Tally {
	t := Tally{Total: len(roster)}
	for _, e := range roster {
		switch e.CurrentSelection {
		case meal.TypeA:
			t.A++
		case meal.TypeB:
			t.B++
		default:
			t.Unselected++
		}
	}
	return t
}

// Unselected lists the students that have not chosen a type for mealID yet.
func (r *Reporter) Unselected(ctx context.Context, mealID string) ([]student.Student, error) {
	roster, err := r.Roster(ctx, mealID)
	if err != nil {
		return nil, err
	}
	var students []student.Student
	for _, e := range roster {
		if e.CurrentSelection == "" {
			students = append(students, e.Student)
		}
	}
	return students, nil
}

// Tally counts the selections of mealID among the current students.
func (r *Reporter) Tally(ctx context.Context, mealID string) (Tally, error) {
	roster, err := r.Roster(ctx, mealID)
	if err != nil {
		return Tally{}, err
	}
	return tally(roster), nil
}

// Stats returns every meal with its state and tally.
func (r *Reporter) Stats(ctx context.Context) ([]MealStats, error) {
	meals, err := r.meals.Query(ctx, core.DBOrdering{Field: "selection_start"})
	if err != nil {
		return nil, errors.Wrap(err, "querying meals")
	}
	students, err := r.store.GetAllStudents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting students")
	}

	now := r.nowFunc()
	stats := make([]MealStats, 0, len(meals))
	for _, m := range meals {
		sel, err := r.store.GetSelections(ctx, m.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "getting selections of meal %s", m.ID)
		}
		stats = append(stats, MealStats{
			Detail: meal.NewDetail(m, now),
			Tally:  tally(buildRoster(students, sel)),
		})
	}
	return stats, nil
}

// StudentMeals returns every meal with the type studentID chose for it.
func (r *Reporter) StudentMeals(ctx context.Context, studentID string) ([]StudentMeal, error) {
	meals, err := r.meals.Query(ctx, core.DBOrdering{Field: "selection_start"})
	if err != nil {
		return nil, errors.Wrap(err, "querying meals")
	}

	now := r.nowFunc()
	out := make([]StudentMeal, 0, len(meals))
	for _, m := range meals {
		sel, err := r.store.GetSelections(ctx, m.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "getting selections of meal %s", m.ID)
		}
		out = append(out, StudentMeal{Detail: meal.NewDetail(m, now), MealType: sel.TypeOf(studentID)})
	}
	return out, nil
}
