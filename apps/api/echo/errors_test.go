package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/selection"
	"github.com/trezcool/cantine/core/student"
	logsvc "github.com/trezcool/cantine/services/logger"
)

func TestAppHTTPErrorHandler(t *testing.T) {
	dbDown := core.NewShutdownError("committing selections: database is closed")

	tests := []struct {
		name         string
		err          error
		wantCode     int
		wantShutdown bool
	}{
		{
			name:     "unknown student",
			err:      &selection.AssignmentError{Policy: selection.PolicyA, Err: errors.Wrap(student.ErrNotFound, "student ghost")},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "partial assignment of an unknown student",
			err:      &selection.AssignmentError{Policy: selection.PolicyRandom, Partial: true, Committed: []string{"s1"}, Err: student.ErrNotFound},
			wantCode: http.StatusBadGateway,
		},
		{
			name:         "failed commit behind an assignment",
			err:          &selection.AssignmentError{Policy: selection.PolicyA, Err: &selection.RemoteCallError{Op: "set_selection", Err: dbDown}},
			wantCode:     http.StatusBadGateway,
			wantShutdown: true,
		},
		{
			name:         "failed commit",
			err:          errors.Wrap(dbDown, "saving"),
			wantCode:     http.StatusInternalServerError,
			wantShutdown: true,
		},
		{
			name:     "server error",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown := false
			handler := newAppHTTPErrorHandler(logsvc.NewNopLogger(), core.NewTranslator(), func() { shutdown = true })

			e := echo.New()
			rec := httptest.NewRecorder()
			handler(tt.err, e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantShutdown, shutdown)
		})
	}
}

func TestServer_signalShutdown(t *testing.T) {
	app := setup(t)

	app.signalShutdown()
	app.signalShutdown() // does not block once signalled

	select {
	case <-app.ShutdownSignal():
	default:
		t.Fatal("shutdown was not signalled")
	}
}
