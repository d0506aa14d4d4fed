package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/selection"
	"github.com/trezcool/cantine/core/student"
	emailsvc "github.com/trezcool/cantine/services/email"
	logsvc "github.com/trezcool/cantine/services/logger"
	metricsvc "github.com/trezcool/cantine/services/metrics"
	inmemdb "github.com/trezcool/cantine/storage/database/inmem"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type testApp struct {
	*Server
	conf    *core.Config
	mails   *emailsvc.ConsoleService
	meals   *meal.Service
	stud    *student.Service
	store   selection.Store
	metrics *metricsvc.Prometheus
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := &core.Config{
		AppName:     "Cantine",
		TestMode:    true,
		SecretKey:   "secret",
		FromEmail:   "Cantine <noreply@school.test>",
		StaffEmails: []string{"Canteen <canteen@school.test>"},
		Server:      core.ServerConfig{JWTExpirationDelta: time.Hour},
	}
	logger := logsvc.NewNopLogger()
	now := func() time.Time { return testNow }

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	meal.InitValidators(validate, translator)
	selection.InitValidators(validate, translator)

	db := inmemdb.Open()
	store := inmemdb.NewSelectionStore(db)
	mealSvc := meal.NewService(inmemdb.NewMealRepository(db))
	mealSvc.SetNowFunc(now)
	studentSvc := student.NewService(inmemdb.NewStudentRepository(db))
	mails := emailsvc.NewConsoleServiceMock(conf, logger)
	metrics := metricsvc.NewPrometheus()

	reporter := selection.NewReporter(store, mealSvc)
	reporter.SetNowFunc(now)
	reminder := selection.NewReminder(reporter, mealSvc, mails, conf.StaffAddresses())
	reminder.SetNowFunc(now)

	coin := false
	deps := &Deps{
		Validate:   validate,
		Translator: translator,
		MealSvc:    mealSvc,
		StudentSvc: studentSvc,
		Store:      store,
		Assigner: selection.NewAssigner(store, mealSvc,
			selection.WithClock(now),
			selection.WithMetrics(metrics),
			// alternate A, B, A, ...
			selection.WithCoin(func() bool { coin = !coin; return coin }),
		),
		Reconciler: selection.NewReconciler(store, metrics),
		Reporter:   reporter,
		Reminder:   reminder,
		Metrics:    metrics.Handler(),
	}

	return &testApp{
		Server:  NewServer(conf, logger, deps),
		conf:    conf,
		mails:   mails,
		meals:   mealSvc,
		stud:    studentSvc,
		store:   store,
		metrics: metrics,
	}
}

func (app *testApp) createMeal(t *testing.T, name string, selStart time.Time) meal.Meal {
	t.Helper()
	m, err := app.meals.Create(context.Background(), meal.NewMeal{
		Name:           name,
		SelectionStart: selStart,
		SelectionEnd:   selStart.Add(24 * time.Hour),
		EffectiveStart: selStart.Add(48 * time.Hour),
		EffectiveEnd:   selStart.Add(72 * time.Hour),
	})
	require.NoError(t, err)
	return m
}

func (app *testApp) createStudent(t *testing.T, name, class, loginID string) student.Student {
	t.Helper()
	s, err := app.stud.Create(context.Background(), student.NewStudent{FullName: name, ClassName: class, ExternalLoginID: loginID})
	require.NoError(t, err)
	return s
}

func (app *testApp) adminToken(t *testing.T) string {
	t.Helper()
	token, err := GenerateToken(app.conf, NewAdminClaims(app.conf, "admin"))
	require.NoError(t, err)
	return token
}

func (app *testApp) studentToken(t *testing.T, studentID string) string {
	t.Helper()
	token, err := GenerateToken(app.conf, NewStudentClaims(app.conf, studentID))
	require.NoError(t, err)
	return token
}

// do sends an authenticated JSON request and decodes the response envelope.
func (app *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, envelopeResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	var env envelopeResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

type envelopeResponse struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (env envelopeResponse) decode(t *testing.T, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dest), string(env.Data))
}

func newRawRequest(method, path string) (*http.Request, *httptest.ResponseRecorder) {
	return httptest.NewRequest(method, path, nil), httptest.NewRecorder()
}

func sortedIDs(ids ...string) []string {
	sort.Strings(ids)
	return ids
}
