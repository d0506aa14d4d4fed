package dig_container

import (
	"fmt"
	"log"
	"net/http"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	echoapi "github.com/trezcool/cantine/apps/api/echo"
	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/selection"
	"github.com/trezcool/cantine/core/student"
	emailsvc "github.com/trezcool/cantine/services/email"
	logsvc "github.com/trezcool/cantine/services/logger"
	metricsvc "github.com/trezcool/cantine/services/metrics"
	"github.com/trezcool/cantine/storage/database"
	inmemdb "github.com/trezcool/cantine/storage/database/inmem"
	sqlxrepos "github.com/trezcool/cantine/storage/database/sqlx"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// DBCloser releases the database, if any.
	DBCloser func() error

	depsParam struct {
		dig.In
		Validate   *validator.Validate
		Translator ut.Translator
		MealSvc    *meal.Service
		StudentSvc *student.Service
		Store      selection.Store
		Assigner   *selection.Assigner
		Reconciler *selection.Reconciler
		Reporter   *selection.Reporter
		Reminder   *selection.Reminder
		Metrics    *metricsvc.Prometheus
	}
)

func newZap(conf *core.Config) *zap.Logger {
	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("building zap logger: %v", err)
	}
	return zl
}

func newLogger(zl *zap.Logger, conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(zl *zap.Logger, conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(zl.Named("db"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

// newRepositories sets up the configured storage engine.
func newRepositories(conf *core.Config, loggerParam DBLoggerParam) (meal.Repository, student.Repository, selection.Store, DBCloser) {
	if conf.Database.Engine == database.EngineMemory {
		db := inmemdb.Open()
		return inmemdb.NewMealRepository(db), inmemdb.NewStudentRepository(db), inmemdb.NewSelectionStore(db),
			func() error { return nil }
	}

	db, err := database.Open(conf)
	if err == nil {
		err = database.Migrate(db)
	}
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return sqlxrepos.NewMealRepository(db), sqlxrepos.NewStudentRepository(db), sqlxrepos.NewSelectionStore(db),
		db.Close
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridAPIKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newAssigner(store selection.Store, mealSvc *meal.Service, metrics *metricsvc.Prometheus) *selection.Assigner {
	return selection.NewAssigner(store, mealSvc, selection.WithMetrics(metrics))
}

func newReconciler(store selection.Store, metrics *metricsvc.Prometheus) *selection.Reconciler {
	return selection.NewReconciler(store, metrics)
}

func newReporter(store selection.Store, mealSvc *meal.Service) *selection.Reporter {
	return selection.NewReporter(store, mealSvc)
}

func newReminder(conf *core.Config, reporter *selection.Reporter, mealSvc *meal.Service, mailSvc core.EmailService) *selection.Reminder {
	return selection.NewReminder(reporter, mealSvc, mailSvc, conf.StaffAddresses())
}

func newScheduler(
	conf *core.Config,
	mealSvc *meal.Service,
	reporter *selection.Reporter,
	assigner *selection.Assigner,
	reminder *selection.Reminder,
	logger core.Logger,
) *selection.Scheduler {
	return selection.NewScheduler(conf.Scheduler, mealSvc, reporter, assigner, reminder, logger)
}

func newDeps(p depsParam) *echoapi.Deps {
	var metrics http.Handler
	if p.Metrics != nil {
		metrics = p.Metrics.Handler()
	}
	return &echoapi.Deps{
		Validate:   p.Validate,
		Translator: p.Translator,
		MealSvc:    p.MealSvc,
		StudentSvc: p.StudentSvc,
		Store:      p.Store,
		Assigner:   p.Assigner,
		Reconciler: p.Reconciler,
		Reporter:   p.Reporter,
		Reminder:   p.Reminder,
		Metrics:    metrics,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newZap))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(meal.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(metricsvc.NewPrometheus))
	must(c.Provide(newAssigner))
	must(c.Provide(newReconciler))
	must(c.Provide(newReporter))
	must(c.Provide(newReminder))
	must(c.Provide(newScheduler))
	must(c.Provide(newDeps))
	must(c.Provide(echoapi.NewServer))

	if os.Getenv("DIG_VISUALIZE") != "" {
		_ = dig.Visualize(c, os.Stdout)
	}

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
