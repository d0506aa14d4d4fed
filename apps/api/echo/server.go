package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/selection"
	"github.com/trezcool/cantine/core/student"
)

type (
	// Deps holds everything the handlers need.
	Deps struct {
		Validate   *validator.Validate
		Translator ut.Translator
		MealSvc    *meal.Service
		StudentSvc *student.Service
		Store      selection.Store
		Assigner   *selection.Assigner
		Reconciler *selection.Reconciler
		Reporter   *selection.Reporter
		Reminder   *selection.Reminder
		Metrics    http.Handler // optional
	}

	Server struct {
		conf     *core.Config
		logger   core.Logger
		deps     *Deps
		app      *echo.Echo
		jwtConf  middleware.JWTConfig
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(conf *core.Config, logger core.Logger, deps *Deps) *Server {
	s := &Server{
		conf:     conf,
		logger:   logger,
		deps:     deps,
		app:      echo.New(),
		jwtConf:  newJWTConfig(conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = s.conf.Debug

	s.app.GET("/", s.home)
	if s.deps.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics))
	}

	api := s.app.Group("/api", middleware.JWTWithConfig(s.jwtConf))

	admin := api.Group("/admin", adminMiddleware())
	registerMealAPI(admin, s.deps)
	registerStudentAPI(admin, s.deps)
	registerSelectionAPI(admin, s.deps)

	stud := api.Group("/student", studentMiddleware(s.deps.StudentSvc))
	registerStudentSelectionAPI(stud, s.deps)
}

// Start blocks until the server stops; a listen failure is sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signalled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return respond(ctx, http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}
