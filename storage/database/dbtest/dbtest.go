// Package dbtest holds the behaviour every repository implementation must share.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/selection"
	"github.com/trezcool/cantine/core/student"
)

type Repos struct {
	Meals    meal.Repository
	Students student.Repository
	Store    selection.Store
}

func CreateMeal(t *testing.T, repo meal.Repository, name string, selectionStart time.Time) meal.Meal {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	start := selectionStart.UTC()
	m, err := repo.CreateMeal(context.Background(), meal.Meal{
		ID:             uuid.New().String(),
		Name:           name,
		SelectionStart: start,
		SelectionEnd:   start.Add(24 * time.Hour),
		EffectiveStart: start.Add(48 * time.Hour),
		EffectiveEnd:   start.Add(72 * time.Hour),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)
	return m
}

func CreateStudent(t *testing.T, repo student.Repository, name, class, loginID string) student.Student {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	s, err := repo.CreateStudent(context.Background(), student.Student{
		ID:              uuid.New().String(),
		FullName:        name,
		ClassName:       class,
		ExternalLoginID: loginID,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	require.NoError(t, err)
	return s
}

// RunRepositoryTests checks the meal, student and selection repositories returned by newRepos.
func RunRepositoryTests(t *testing.T, newRepos func(t *testing.T) Repos) {
	t.Run("meals", func(t *testing.T) { testMeals(t, newRepos(t)) })
	t.Run("students", func(t *testing.T) { testStudents(t, newRepos(t)) })
	t.Run("selections", func(t *testing.T) { testSelections(t, newRepos(t)) })
	t.Run("cascades", func(t *testing.T) { testCascades(t, newRepos(t)) })
}

func testMeals(t *testing.T, repos Repos) {
	ctx := context.Background()
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	lunch := CreateMeal(t, repos.Meals, "Lunch", jan)
	dinner := CreateMeal(t, repos.Meals, "Dinner", jan.Add(time.Hour))

	got, err := repos.Meals.GetMealByID(ctx, lunch.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", got.Name)
	assert.True(t, jan.Equal(got.SelectionStart))
	assert.True(t, lunch.EffectiveEnd.Equal(got.EffectiveEnd))

	_, err = repos.Meals.GetMealByID(ctx, "nope")
	assert.True(t, errors.Is(err, meal.ErrNotFound))

	meals, err := repos.Meals.QueryMeals(ctx)
	require.NoError(t, err)
	require.Len(t, meals, 2)
	assert.Equal(t, dinner.ID, meals[0].ID) // latest selection first

	meals, err = repos.Meals.QueryMeals(ctx, core.DBOrdering{Field: "name", Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dinner", "Lunch"}, []string{meals[0].Name, meals[1].Name})

	// lunch keeps the earliest selection start but gets the latest other windows
	late := lunch
	late.SelectionEnd = jan.Add(5 * 24 * time.Hour)
	late.EffectiveStart = jan.Add(6 * 24 * time.Hour)
	late.EffectiveEnd = jan.Add(7 * 24 * time.Hour)
	lunch, err = repos.Meals.UpdateMeal(ctx, late)
	require.NoError(t, err)

	orderings := []struct {
		field string
		want  []string
	}{
		{field: "selection_start", want: []string{lunch.ID, dinner.ID}},
		{field: "selection_end", want: []string{dinner.ID, lunch.ID}},
		{field: "effective_start", want: []string{dinner.ID, lunch.ID}},
		{field: "effective_end", want: []string{dinner.ID, lunch.ID}},
	}
	for _, tt := range orderings {
		t.Run("order by "+tt.field, func(t *testing.T) {
			meals, err := repos.Meals.QueryMeals(ctx, core.DBOrdering{Field: tt.field, Ascending: true})
			require.NoError(t, err)
			require.Len(t, meals, 2)
			assert.Equal(t, tt.want, []string{meals[0].ID, meals[1].ID})
		})
	}

	lunch.Name = "Brunch"
	lunch.SelectionEnd = lunch.SelectionEnd.Add(time.Hour)
	updated, err := repos.Meals.UpdateMeal(ctx, lunch)
	require.NoError(t, err)
	assert.Equal(t, "Brunch", updated.Name)
	assert.True(t, lunch.SelectionEnd.Equal(updated.SelectionEnd))

	_, err = repos.Meals.UpdateMeal(ctx, meal.Meal{ID: "nope", Name: "x"})
	assert.True(t, errors.Is(err, meal.ErrNotFound))

	require.NoError(t, repos.Meals.DeleteMealsByID(ctx, lunch.ID, dinner.ID))
	meals, err = repos.Meals.QueryMeals(ctx)
	require.NoError(t, err)
	assert.Empty(t, meals)
}

func testStudents(t *testing.T, repos Repos) {
	ctx := context.Background()

	alice := CreateStudent(t, repos.Students, "Alice", "1A", "alice")
	CreateStudent(t, repos.Students, "Bob", "1B", "")
	CreateStudent(t, repos.Students, "Carol", "1A", "")

	got, err := repos.Students.GetStudentByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.ExternalLoginID)

	got, err = repos.Students.GetStudentByExternalLoginID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = repos.Students.GetStudentByExternalLoginID(ctx, "")
	assert.True(t, errors.Is(err, student.ErrNotFound))
	_, err = repos.Students.GetStudentByID(ctx, "nope")
	assert.True(t, errors.Is(err, student.ErrNotFound))

	tests := []struct {
		name   string
		filter student.QueryFilter
		want   []string
	}{
		{name: "all, by class then name", want: []string{"Alice", "Carol", "Bob"}},
		{name: "class", filter: student.QueryFilter{ClassName: "1A"}, want: []string{"Alice", "Carol"}},
		{name: "search", filter: student.QueryFilter{Search: "RO"}, want: []string{"Carol"}},
		{name: "no match", filter: student.QueryFilter{ClassName: "2A"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			students, err := repos.Students.QueryStudents(ctx, tt.filter)
			require.NoError(t, err)
			names := make([]string, 0, len(students))
			for _, s := range students {
				names = append(names, s.FullName)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	alice.ClassName = "2A"
	alice.ExternalLoginID = ""
	updated, err := repos.Students.UpdateStudent(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "2A", updated.ClassName)
	assert.Equal(t, "", updated.ExternalLoginID)

	require.NoError(t, repos.Students.DeleteStudentsByID(ctx, alice.ID))
	_, err = repos.Students.GetStudentByID(ctx, alice.ID)
	assert.True(t, errors.Is(err, student.ErrNotFound))
}

func testSelections(t *testing.T, repos Repos) {
	ctx := context.Background()
	store := repos.Store

	m := CreateMeal(t, repos.Meals, "Lunch", time.Now())
	alice, err := store.CreateStudent(ctx, student.NewStudent{FullName: "Alice", ClassName: "1A", ExternalLoginID: "alice"})
	require.NoError(t, err)
	bob, err := store.CreateStudent(ctx, student.NewStudent{FullName: "Bob", ClassName: "1B"})
	require.NoError(t, err)

	_, err = store.CreateStudent(ctx, student.NewStudent{FullName: "Alice Bis", ClassName: "1A", ExternalLoginID: "alice"})
	assert.True(t, errors.Is(err, student.ErrExists))

	all, err := store.GetAllStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	sel, err := store.GetSelections(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, sel.A)
	assert.Empty(t, sel.B)

	require.NoError(t, store.SetSelection(ctx, []string{alice.ID, bob.ID}, m.ID, meal.TypeA))
	sel, err = store.GetSelections(ctx, m.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, sel.A)
	assert.Empty(t, sel.B)

	// overwrite, never append
	require.NoError(t, store.SetSelection(ctx, []string{bob.ID}, m.ID, meal.TypeB))
	sel, err = store.GetSelections(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, sel.A)
	assert.Equal(t, []string{bob.ID}, sel.B)

	err = store.SetSelection(ctx, []string{alice.ID, "ghost"}, m.ID, meal.TypeB)
	assert.True(t, errors.Is(err, student.ErrNotFound))
	err = store.SetSelection(ctx, []string{alice.ID}, "nope", meal.TypeB)
	assert.True(t, errors.Is(err, meal.ErrNotFound))

	require.NoError(t, store.ImportMealSelection(ctx, selection.SelectionImport{
		Method: selection.MethodExternalLoginID, ID: "alice", MealType: meal.TypeB, MealID: m.ID,
	}))
	require.NoError(t, store.ImportMealSelection(ctx, selection.SelectionImport{
		Method: selection.MethodStudentID, ID: bob.ID, MealType: meal.TypeA, MealID: m.ID,
	}))
	sel, err = store.GetSelections(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, sel.A)
	assert.Equal(t, []string{alice.ID}, sel.B)

	err = store.ImportMealSelection(ctx, selection.SelectionImport{
		Method: selection.MethodExternalLoginID, ID: "nobody", MealType: meal.TypeB, MealID: m.ID,
	})
	assert.True(t, errors.Is(err, student.ErrNotFound))
}

func testCascades(t *testing.T, repos Repos) {
	ctx := context.Background()
	store := repos.Store

	lunch := CreateMeal(t, repos.Meals, "Lunch", time.Now())
	dinner := CreateMeal(t, repos.Meals, "Dinner", time.Now())
	alice := CreateStudent(t, repos.Students, "Alice", "1A", "")
	bob := CreateStudent(t, repos.Students, "Bob", "1A", "")

	require.NoError(t, store.SetSelection(ctx, []string{alice.ID, bob.ID}, lunch.ID, meal.TypeA))
	require.NoError(t, store.SetSelection(ctx, []string{alice.ID, bob.ID}, dinner.ID, meal.TypeB))

	require.NoError(t, repos.Students.DeleteStudentsByID(ctx, bob.ID))
	sel, err := store.GetSelections(ctx, lunch.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, sel.A)

	require.NoError(t, repos.Meals.DeleteMealsByID(ctx, dinner.ID))
	sel, err = store.GetSelections(ctx, dinner.ID)
	require.NoError(t, err)
	assert.Empty(t, sel.B)

	// re-creating a meal with the same id starts from scratch
	dinner.Name = "Dinner again"
	_, err = repos.Meals.CreateMeal(ctx, dinner)
	require.NoError(t, err)
	sel, err = store.GetSelections(ctx, dinner.ID)
	require.NoError(t, err)
	assert.Empty(t, sel.A)
	assert.Empty(t, sel.B)
}
