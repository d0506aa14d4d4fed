package selection

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
)

// Assigner sets the meal type of students.
// It holds no state besides its collaborators and is safe for concurrent use.
type Assigner struct {
	store   Store
	meals   MealFinder
	metrics Metrics
	coin    func() bool // true -> A
	nowFunc func() time.Time
}

type AssignerOption func(*Assigner)

// WithCoin replaces the fair coin used by PolicyRandom.
func WithCoin(coin func() bool) AssignerOption {
	return func(a *Assigner) { a.coin = coin }
}

func WithClock(now func() time.Time) AssignerOption {
	return func(a *Assigner) { a.nowFunc = now }
}

func WithMetrics(m Metrics) AssignerOption {
	return func(a *Assigner) { a.metrics = m }
}

func NewAssigner(store Store, meals MealFinder, opts ...AssignerOption) *Assigner {
	a := &Assigner{
		store:   store,
		meals:   meals,
		metrics: nopMetrics{},
		coin:    func() bool { return rand.Intn(2) == 0 },
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// findMeal loads mealID, turning an unknown meal into a PreconditionError.
func (a *Assigner) findMeal(ctx context.Context, mealID string) (meal.Meal, error) {
	m, err := a.meals.GetByID(ctx, mealID)
	if err != nil {
		if errors.Is(err, meal.ErrNotFound) {
			return meal.Meal{}, &PreconditionError{Field: "meal_id", Reason: meal.ErrNotFound.Error()}
		}
		return meal.Meal{}, errors.Wrap(err, "finding meal")
	}
	return m, nil
}

// Assign gives studentIDs a type of mealID according to policy, regardless of the meal's state.
//
// PolicyA and PolicyB issue a single SetSelection call; on failure the resulting state is unknown
// and should be re-read with GetSelections.
// PolicyRandom flips a coin per student then assigns group A followed by group B, skipping empty
// groups. Group A is not rolled back when group B fails: the returned *AssignmentError is then
// Partial and lists group A in Committed.
func (a *Assigner) Assign(ctx context.Context, studentIDs []string, mealID string, policy Policy) (err error) {
	if mealID == "" {
		return &PreconditionError{Field: "meal_id", Reason: "no meal selected"}
	}
	if !policy.Valid() {
		return &PreconditionError{Field: "meal_type", Reason: "must be one of A, B or random"}
	}

	ids := core.UniqueStrings(studentIDs)
	if len(ids) == 0 {
		return nil
	}
	if a.meals != nil {
		if _, err = a.findMeal(ctx, mealID); err != nil {
			return err
		}
	}
	defer func() { a.metrics.ObserveAssignment(policy, len(ids), err) }()

	if policy != PolicyRandom {
		if err = a.store.SetSelection(ctx, ids, mealID, meal.Type(policy)); err != nil {
			return &AssignmentError{
				MealID: mealID,
				Policy: policy,
				Err:    &RemoteCallError{Op: "set_selection", Err: err},
			}
		}
		return nil
	}

	groupA, groupB := a.split(ids)
	if len(groupA) > 0 {
		if err = a.store.SetSelection(ctx, groupA, mealID, meal.TypeA); err != nil {
			return &AssignmentError{
				MealID: mealID,
				Policy: policy,
				Err:    &RemoteCallError{Op: "set_selection", Err: err},
			}
		}
	}
	if len(groupB) > 0 {
		if err = a.store.SetSelection(ctx, groupB, mealID, meal.TypeB); err != nil {
			return &AssignmentError{
				MealID:    mealID,
				Policy:    policy,
				Partial:   len(groupA) > 0,
				Committed: groupA,
				Err:       &RemoteCallError{Op: "set_selection", Err: err},
			}
		}
	}
	return nil
}

// split partitions ids with one coin flip each.
func (a *Assigner) split(ids []string) (groupA, groupB []string) {
	for _, id := range ids {
		if a.coin() {
			groupA = append(groupA, id)
		} else {
			groupB = append(groupB, id)
		}
	}
	return groupA, groupB
}

// StudentAssign is the self-service call site: studentID may only choose while mealID is selectable.
func (a *Assigner) StudentAssign(ctx context.Context, studentID, mealID string, t meal.Type) error {
	if studentID == "" {
		return &PreconditionError{Field: "student_id", Reason: "no student"}
	}
	if mealID == "" {
		return &PreconditionError{Field: "meal_id", Reason: "no meal selected"}
	}
	if !t.Valid() {
		return &PreconditionError{Field: "meal_type", Reason: meal.ErrInvalidType.Error()}
	}

	m, err := a.findMeal(ctx, mealID)
	if err != nil {
		return err
	}
	if !meal.Selectable(m, a.nowFunc()) {
		return ErrNotSelectable
	}

	if err = a.store.SetSelection(ctx, []string{studentID}, mealID, t); err != nil {
		return &RemoteCallError{Op: "set_selection", Err: err}
	}
	return nil
}
