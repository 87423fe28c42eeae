package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/attendance"
	"github.com/trezcool/ecole/core/discipline"
	"github.com/trezcool/ecole/core/payment"
	"github.com/trezcool/ecole/core/risk"
	"github.com/trezcool/ecole/core/standing"
	"github.com/trezcool/ecole/core/student"
)

type (
	Options struct {
		Address        string
		SecretKey      string
		Debug          bool
		TestMode       bool
		DisableReqLogs bool
	}

	Deps struct {
		Logger     core.Logger
		Students   student.Service
		Ledger     payment.Ledger
		Attendance attendance.Service
		Discipline discipline.Service
		Engine     standing.Engine
		Risk       risk.Scorer
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		deps *Deps
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

// NewServer sets up the API. signalShutdown is called when a handler hits a shutdown error.
func NewServer(opts *Options, deps *Deps, signalShutdown func()) Server {
	s := &server{
		opts: opts,
		deps: deps,
		app:  echo.New(),
	}
	s.setup(signalShutdown)
	return s
}

func (s *server) setup(signalShutdown func()) {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.opts.Debug || s.opts.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	if signalShutdown == nil {
		signalShutdown = func() {}
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, signalShutdown)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1", middleware.JWTWithConfig(newJWTConfig(s.opts.SecretKey)))
	registerStudentAPI(v1, s.deps)
	registerPaymentAPI(v1, s.deps)
	registerAttendanceAPI(v1, s.deps)
	registerDisciplineAPI(v1, s.deps)
	registerStandingAPI(v1, s.deps)
	registerRiskAPI(v1, s.deps)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Ecole API!")
}
