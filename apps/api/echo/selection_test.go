package echoapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/selection"
)

func TestSelectionApi_batch(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)
	lunch := app.createMeal(t, "Lunch", testNow.Add(-time.Hour))
	s1 := app.createStudent(t, "Alice", "1A", "")
	s2 := app.createStudent(t, "Bob", "1A", "")
	s3 := app.createStudent(t, "Carol", "1B", "")

	tests := []struct {
		name     string
		body     echoMap
		wantCode int
		wantA    []string
		wantB    []string
	}{
		{
			name:     "invalid policy",
			body:     echoMap{"student_ids": []string{s1.ID}, "meal_id": lunch.ID, "meal_type": "C"},
			wantCode: http.StatusBadRequest,
			wantA:    []string{},
			wantB:    []string{},
		},
		{
			name:     "unknown meal",
			body:     echoMap{"student_ids": []string{s1.ID}, "meal_id": "missing", "meal_type": "A"},
			wantCode: http.StatusBadRequest,
			wantA:    []string{},
			wantB:    []string{},
		},
		{
			name:     "empty set",
			body:     echoMap{"student_ids": []string{}, "meal_id": lunch.ID, "meal_type": "A"},
			wantCode: http.StatusOK,
			wantA:    []string{},
			wantB:    []string{},
		},
		{
			name:     "all B",
			body:     echoMap{"student_ids": []string{s1.ID, s2.ID, s1.ID}, "meal_id": lunch.ID, "meal_type": "b"},
			wantCode: http.StatusOK,
			wantA:    []string{},
			wantB:    sortedIDs(s1.ID, s2.ID),
		},
		{
			name:     "random",
			body:     echoMap{"student_ids": []string{s1.ID, s2.ID, s3.ID}, "meal_id": lunch.ID, "meal_type": "random"},
			wantCode: http.StatusOK,
			wantA:    sortedIDs(s1.ID, s3.ID),
			wantB:    []string{s2.ID},
		},
		{
			name:     "unknown student",
			body:     echoMap{"student_ids": []string{"ghost"}, "meal_id": lunch.ID, "meal_type": "A"},
			wantCode: http.StatusNotFound,
			wantA:    sortedIDs(s1.ID, s3.ID),
			wantB:    []string{s2.ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := app.do(t, http.MethodPost, "/api/admin/selections/batch", token, tt.body)
			require.Equal(t, tt.wantCode, code, env.Message)

			sel, err := app.store.GetSelections(context.Background(), lunch.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantA, sel.A)
			assert.Equal(t, tt.wantB, sel.B)
		})
	}
}

func TestSelectionApi_import(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)
	lunch := app.createMeal(t, "Lunch", testNow.Add(-time.Hour))
	alice := app.createStudent(t, "Alice", "1A", "alice")
	bob := app.createStudent(t, "Bob", "1B", "bob")

	t.Run("by external login id", func(t *testing.T) {
		code, env := app.do(t, http.MethodPost, "/api/admin/selections/import", token, echoMap{
			"meal_id": lunch.ID,
			"method":  "external_login_id",
			"data":    "alice a\nbob X\nghost B\nbob b",
		})
		require.Equal(t, http.StatusOK, code)
		var res SelectionImportResponse
		env.decode(t, &res)
		assert.Equal(t, 4, res.Job.Total)
		assert.Equal(t, 2, res.Job.Success)
		assert.Equal(t, 2, res.Job.Failed)
		assert.Equal(t, "bob X\nghost B", res.Job.RetryPayload)
		assert.Equal(t, []string{alice.ID}, res.Selections.A)
		assert.Equal(t, []string{bob.ID}, res.Selections.B)
	})

	t.Run("invalid method", func(t *testing.T) {
		code, env := app.do(t, http.MethodPost, "/api/admin/selections/import", token, echoMap{
			"meal_id": lunch.ID, "method": "email", "data": "alice A",
		})
		require.Equal(t, http.StatusBadRequest, code)
		var fields map[string]string
		env.decode(t, &fields)
		assert.Contains(t, fields, "method")
	})

	t.Run("unknown meal", func(t *testing.T) {
		code, _ := app.do(t, http.MethodPost, "/api/admin/selections/import", token, echoMap{
			"meal_id": "missing", "method": "student_id", "data": "x A",
		})
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("import one", func(t *testing.T) {
		code, _ := app.do(t, http.MethodPost, "/api/admin/selections/import-one", token, echoMap{
			"method": "student_id", "id": alice.ID, "meal_type": "B", "meal_id": lunch.ID,
		})
		require.Equal(t, http.StatusOK, code)
		sel, err := app.store.GetSelections(context.Background(), lunch.ID)
		require.NoError(t, err)
		assert.Equal(t, meal.TypeB, sel.TypeOf(alice.ID))
	})
}

func TestSelectionApi_statsAndNotify(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)
	lunch := app.createMeal(t, "Lunch", testNow.Add(-time.Hour))
	dinner := app.createMeal(t, "Dinner", testNow.Add(time.Hour))
	alice := app.createStudent(t, "Alice", "1A", "")
	app.createStudent(t, "Bob", "1B", "")
	app.createStudent(t, "Carol", "1B", "")
	require.NoError(t, app.store.SetSelection(context.Background(), []string{alice.ID}, lunch.ID, meal.TypeA))

	t.Run("stats", func(t *testing.T) {
		code, env := app.do(t, http.MethodGet, "/api/admin/selections", token, nil)
		require.Equal(t, http.StatusOK, code)
		var stats []selection.MealStats
		env.decode(t, &stats)
		// latest selection window first
		require.Len(t, stats, 2)
		assert.Equal(t, dinner.ID, stats[0].ID)
		assert.Equal(t, meal.StatusUpcoming, stats[0].Status)
		assert.Equal(t, selection.Tally{Unselected: 3, Total: 3}, stats[0].Tally)
		assert.Equal(t, lunch.ID, stats[1].ID)
		assert.Equal(t, meal.StatusSelecting, stats[1].Status)
		assert.Equal(t, selection.Tally{A: 1, B: 0, Unselected: 2, Total: 3}, stats[1].Tally)
	})

	t.Run("notify", func(t *testing.T) {
		code, env := app.do(t, http.MethodPost, "/api/admin/notify/unselected", token, echoMap{"meal_id": lunch.ID})
		require.Equal(t, http.StatusOK, code)
		var res NotifyResponse
		env.decode(t, &res)
		assert.Equal(t, 2, res.Notified)

		sent := app.mails.SentMessages()
		require.Len(t, sent, 1)
		assert.Contains(t, sent[0].TextContent, "Bob")
		assert.Contains(t, sent[0].TextContent, "Carol")
		assert.NotContains(t, sent[0].TextContent, "Alice")
	})

	t.Run("notify not selectable", func(t *testing.T) {
		code, _ := app.do(t, http.MethodPost, "/api/admin/notify/unselected", token, echoMap{"meal_id": dinner.ID})
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("notify missing meal id", func(t *testing.T) {
		code, _ := app.do(t, http.MethodPost, "/api/admin/notify/unselected", token, echoMap{})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("notify without staff", func(t *testing.T) {
		app.deps.Reminder = selection.NewReminder(app.deps.Reporter, app.meals, app.mails, nil)
		code, _ := app.do(t, http.MethodPost, "/api/admin/notify/unselected", token, echoMap{"meal_id": lunch.ID})
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})
}

func TestSelectionApi_student(t *testing.T) {
	app := setup(t)
	lunch := app.createMeal(t, "Lunch", testNow.Add(-time.Hour))
	dinner := app.createMeal(t, "Dinner", testNow.Add(time.Hour))
	alice := app.createStudent(t, "Alice", "1A", "")
	token := app.studentToken(t, alice.ID)

	tests := []struct {
		name     string
		body     echoMap
		wantCode int
	}{
		{name: "selectable", body: echoMap{"meal_id": lunch.ID, "meal_type": "b"}, wantCode: http.StatusOK},
		{name: "change mind", body: echoMap{"meal_id": lunch.ID, "meal_type": "A"}, wantCode: http.StatusOK},
		{name: "upcoming", body: echoMap{"meal_id": dinner.ID, "meal_type": "A"}, wantCode: http.StatusForbidden},
		{name: "random is not a type", body: echoMap{"meal_id": lunch.ID, "meal_type": "random"}, wantCode: http.StatusBadRequest},
		{name: "unknown meal", body: echoMap{"meal_id": "missing", "meal_type": "A"}, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := app.do(t, http.MethodPost, "/api/student/selection", token, tt.body)
			assert.Equal(t, tt.wantCode, code)
		})
	}

	code, env := app.do(t, http.MethodGet, "/api/student/selection", token, nil)
	require.Equal(t, http.StatusOK, code)
	var res StudentSelectionResponse
	env.decode(t, &res)
	require.Len(t, res.Selections, 2)
	assert.Equal(t, dinner.ID, res.Selections[0].ID)
	assert.Equal(t, meal.Type(""), res.Selections[0].MealType)
	assert.False(t, res.Selections[0].Selectable)
	assert.Equal(t, lunch.ID, res.Selections[1].ID)
	assert.Equal(t, meal.TypeA, res.Selections[1].MealType)
	assert.True(t, res.Selections[1].Selectable)
}

func TestSelectionApi_batchPartialRandom(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)
	lunch := app.createMeal(t, "Lunch", testNow.Add(-time.Hour))
	alice := app.createStudent(t, "Alice", "1A", "")

	// the coin sends alice to A and ghost to B: A is written, then B fails
	code, env := app.do(t, http.MethodPost, "/api/admin/selections/batch", token,
		echoMap{"student_ids": []string{alice.ID, "ghost"}, "meal_id": lunch.ID, "meal_type": "random"})
	require.Equal(t, http.StatusBadGateway, code, env.Message)
	assert.Contains(t, env.Message, "partially applied: 1 committed")

	var data struct {
		Committed []string `json:"committed"`
	}
	env.decode(t, &data)
	assert.Equal(t, []string{alice.ID}, data.Committed)

	sel, err := app.store.GetSelections(context.Background(), lunch.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, sel.A)
	assert.Empty(t, sel.B)
}
