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

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/attendance"
	"github.com/aulavirtual/aula/core/course"
	"github.com/aulavirtual/aula/core/term"
	"github.com/aulavirtual/aula/core/user"
	"github.com/aulavirtual/aula/core/view"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		UserSvc    *user.Service
		TermSvc    *term.Service
		CourseSvc  *course.Service
		AttSvc     *attendance.Service
		Views      *view.Builder
		Idp        core.IdentityProvider
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, func() { s.shutdown <- syscall.SIGTERM })
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")

	// token verification plus the logout revocation check
	verifyJWT := middleware.JWTWithConfig(newJWTConfig(conf))
	rejectRevoked := revokedSessionMiddleware(s.deps)
	jwt := func(next echo.HandlerFunc) echo.HandlerFunc {
		return verifyJWT(rejectRevoked(next))
	}

	registerUserAPI(v1, jwt, s.deps)
	registerTermAPI(v1, jwt, s.deps)
	registerCourseAPI(v1, jwt, s.deps)
	registerAttendanceAPI(v1, jwt, s.deps)
	registerViewAPI(v1, jwt, s.deps)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.ServerAddress()); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Aula Virtual API!")
}
