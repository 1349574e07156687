package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/attendance"
	"github.com/mugilan0610/institute-management-system/core/course"
	"github.com/mugilan0610/institute-management-system/core/result"
	"github.com/mugilan0610/institute-management-system/core/student"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		Zap           *zap.Logger
		DB            core.DB
		Redis         *redis.Client // optional
		StudentSvc    *student.Service
		CourseSvc     *course.Service
		ResultSvc     *result.Service
		AttendanceSvc *attendance.Service
		Translator    ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		metrics  *Metrics
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) *Server {
	if deps.Zap == nil {
		deps.Zap = zap.NewNop()
	}
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		metrics:  NewMetrics(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	if !deps.Conf.TestMode {
		signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	s.app.Use(requestIDMiddleware())
	s.app.Use(requestLoggerMiddleware(s.deps.Zap))
	s.app.Use(s.metrics.Middleware())
	s.app.Use(middleware.CORS())

	s.app.GET("/health", s.health)

	api := s.app.Group("/api")
	guard := sessionGuard(s.deps.StudentSvc)
	limit := authRateLimiter(conf.Server.AuthRateLimit)

	registerStudentAPI(api, limit, studentApi{
		svc:     s.deps.StudentSvc,
		metrics: s.metrics,
	})
	registerCourseAPI(api, guard, courseApi{
		courses: s.deps.CourseSvc,
		results: s.deps.ResultSvc,
	})
	registerAttendanceAPI(api, guard, attendanceApi{
		svc:      s.deps.AttendanceSvc,
		students: s.deps.StudentSvc,
	})

	if conf.Server.StaticDir != "" {
		s.app.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root:  conf.Server.StaticDir,
			HTML5: true, // SPA fallback to index.html
			Skipper: func(ctx echo.Context) bool {
				return isAPIPath(ctx.Request().URL.Path)
			},
		}))
	} else {
		s.app.GET("/", home)
	}
}

// Start listens on the configured address. Listener failures are reported through Errors.
func (s *Server) Start() {
	conf := s.deps.Conf
	srv := &http.Server{
		Addr:         conf.Server.Addr,
		ReadTimeout:  conf.Server.ReadTimeout,
		WriteTimeout: conf.Server.WriteTimeout,
	}
	if err := s.app.StartServer(srv); err != nil && err != http.ErrServerClosed {
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
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

// Metrics returns the collectors served by the debug listener.
func (s *Server) Metrics() *Metrics { return s.metrics }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Institute Management API")
}

func isAPIPath(path string) bool {
	return path == "/health" || path == "/api" || len(path) > 4 && path[:5] == "/api/"
}
