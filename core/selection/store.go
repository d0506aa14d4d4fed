// Package selection assigns meal types to students and reconciles bulk imports of students and
// selections against a Store, the system of record of who chose what.
package selection

import (
	"context"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/student"
)

// Method identifies how a row of a selection import designates its student.
type Method string

const (
	MethodStudentID       Method = "student_id"
	MethodExternalLoginID Method = "external_login_id"
)

func (m Method) Valid() bool { return m == MethodStudentID || m == MethodExternalLoginID }

type (
	// Selections lists the students that chose each meal type of a meal.
	// Both lists are disjoint; a student in neither has not chosen yet.
	Selections struct {
		A []string `json:"a"`
		B []string `json:"b"`
	}

	// SelectionImport assigns MealType of MealID to the student identified by ID using Method.
	SelectionImport struct {
		Method   Method    `json:"method" validate:"required,import_method"`
		ID       string    `json:"id" validate:"required"`
		MealType meal.Type `json:"meal_type" validate:"required,meal_type"`
		MealID   string    `json:"meal_id" validate:"required"`
	}

	// Store is the system of record of selections.
	// Selecting a new type for a (meal, student) pair overwrites the previous one.
	Store interface {
		SetSelection(ctx context.Context, studentIDs []string, mealID string, t meal.Type) error
		GetSelections(ctx context.Context, mealID string) (Selections, error)
		CreateStudent(ctx context.Context, ns student.NewStudent) (student.Student, error)
		ImportMealSelection(ctx context.Context, si SelectionImport) error
		GetAllStudents(ctx context.Context) ([]student.Student, error)
	}

	// MealFinder is satisfied by *meal.Service.
	MealFinder interface {
		GetByID(ctx context.Context, id string) (meal.Meal, error)
	}

	// Meals is satisfied by *meal.Service.
	Meals interface {
		MealFinder
		Query(ctx context.Context, ordering ...core.DBOrdering) ([]meal.Meal, error)
		Delete(ctx context.Context, ids ...string) error
	}
)

// TypeOf returns the type chosen by studentID, or "" when unset.
func (s Selections) TypeOf(studentID string) meal.Type {
	for _, id := range s.A {
		if id == studentID {
			return meal.TypeA
		}
	}
	for _, id := range s.B {
		if id == studentID {
			return meal.TypeB
		}
	}
	return ""
}

// Index maps every selected student to its type.
func (s Selections) Index() map[string]meal.Type {
	idx := make(map[string]meal.Type, len(s.A)+len(s.B))
	for _, id := range s.A {
		idx[id] = meal.TypeA
	}
	for _, id := range s.B {
		idx[id] = meal.TypeB
	}
	return idx
}
