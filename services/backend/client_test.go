package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/selection"
	"github.com/trezcool/cantine/core/student"
)

type call struct {
	method, path, auth string
	body               map[string]interface{}
}

func newServer(t *testing.T, calls *[]call) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, status int, data interface{}, msg string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": status, "data": data, "message": msg})
	}
	record := func(r *http.Request) {
		c := call{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization")}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&c.body)
		}
		*calls = append(*calls, c)
	}

	mux.HandleFunc("/api/admin/selections/batch", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusOK, nil, "")
	})
	mux.HandleFunc("/api/admin/meals/m1/selections", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusOK, selection.Selections{A: []string{"s1"}, B: []string{"s2", "s3"}}, "")
	})
	mux.HandleFunc("/api/admin/meals/missing/selections", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusNotFound, nil, "meal not found")
	})
	mux.HandleFunc("/api/admin/students", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		if r.Method == http.MethodGet {
			reply(w, http.StatusOK, []student.Student{{ID: "s1", FullName: "Alice", ClassName: "1A"}}, "")
			return
		}
		reply(w, http.StatusCreated, student.Student{ID: "new", FullName: "Bob", ClassName: "1B"}, "")
	})
	mux.HandleFunc("/api/admin/selections/import-one", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusOK, nil, "")
	})
	// envelope-level failure with a 200 transport status
	mux.HandleFunc("/api/admin/broken", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": 500, "data": null, "message": "student not found"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	var calls []call
	srv := newServer(t, &calls)
	c := NewClient(srv.URL+"/api/", "secret", srv.Client())

	t.Run("SetSelection", func(t *testing.T) {
		calls = nil
		require.NoError(t, c.SetSelection(ctx, []string{"s1", "s2"}, "m1", meal.TypeB))
		require.Len(t, calls, 1)
		assert.Equal(t, http.MethodPost, calls[0].method)
		assert.Equal(t, "Bearer secret", calls[0].auth)
		assert.Equal(t, "B", calls[0].body["meal_type"])
		assert.Equal(t, "m1", calls[0].body["meal_id"])
		assert.Equal(t, []interface{}{"s1", "s2"}, calls[0].body["student_ids"])
	})

	t.Run("GetSelections", func(t *testing.T) {
		sel, err := c.GetSelections(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, []string{"s1"}, sel.A)
		assert.Equal(t, []string{"s2", "s3"}, sel.B)

		_, err = c.GetSelections(ctx, "missing")
		assert.True(t, errors.Is(err, ErrNotFound))
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "meal not found", apiErr.Message)
	})

	t.Run("CreateStudent", func(t *testing.T) {
		calls = nil
		s, err := c.CreateStudent(ctx, student.NewStudent{FullName: "Bob", ClassName: "1B"})
		require.NoError(t, err)
		assert.Equal(t, "new", s.ID)
		assert.Equal(t, "Bob", calls[0].body["full_name"])
		assert.Equal(t, "1B", calls[0].body["class"])
	})

	t.Run("ImportMealSelection", func(t *testing.T) {
		calls = nil
		err := c.ImportMealSelection(ctx, selection.SelectionImport{
			Method: selection.MethodExternalLoginID, ID: "alice", MealType: meal.TypeA, MealID: "m1",
		})
		require.NoError(t, err)
		assert.Equal(t, "external_login_id", calls[0].body["method"])
		assert.Equal(t, "alice", calls[0].body["id"])
	})

	t.Run("GetAllStudents", func(t *testing.T) {
		students, err := c.GetAllStudents(ctx)
		require.NoError(t, err)
		require.Len(t, students, 1)
		assert.Equal(t, "Alice", students[0].FullName)
	})

	t.Run("envelope error", func(t *testing.T) {
		err := c.do(ctx, "GET", "/admin/broken", nil, nil)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
		assert.False(t, errors.Is(err, ErrNotFound))
	})
}

func TestClient_asReconcilerStore(t *testing.T) {
	var calls []call
	srv := newServer(t, &calls)
	rec := selection.NewReconciler(NewClient(srv.URL+"/api", "", srv.Client()))

	res, err := rec.ImportSelections(context.Background(), "s1 A\ns2 c\nalice b", "m1", selection.MethodStudentID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Job.Success)
	assert.Equal(t, 1, res.Job.Failed)
	assert.Equal(t, []string{"s2", "s3"}, res.Selections.B)
	for _, c := range calls {
		assert.Empty(t, c.auth)
	}
}
