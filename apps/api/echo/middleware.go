package echoapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mugilan0610/institute-management-system/core/session"
	"github.com/mugilan0610/institute-management-system/core/student"
)

const (
	contextStudentKey = "student"
	bearerPrefix      = "Bearer "
)

var errRateLimited = echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests. Please try again later.")

// sessionGuard resolves the bearer token to a student and stores it in the request context.
func sessionGuard(svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token := bearerToken(ctx.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return session.ErrTokenRequired
			}
			stu, err := svc.Authorize(ctx.Request().Context(), token)
			if err != nil {
				return errors.Wrap(err, "authorizing token")
			}
			ctx.Set(contextStudentKey, stu)
			return next(ctx)
		}
	}
}

func bearerToken(header string) string {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// getContextStudent returns the student resolved by sessionGuard.
func getContextStudent(ctx echo.Context) (student.Student, error) {
	if stu, ok := contextStudent(ctx); ok {
		return stu, nil
	}
	return student.Student{}, session.ErrTokenRequired
}

func requestIDMiddleware() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	})
}

func requestLoggerMiddleware(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURIPath:   true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(ctx echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.String("ip", v.RemoteIP),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if stu, ok := contextStudent(ctx); ok {
				fields = append(fields, zap.Int("student_id", stu.ID))
			}

			switch {
			case v.Status >= http.StatusInternalServerError:
				logger.Error("request failed", append(fields, zap.Error(v.Error))...)
			case v.Status >= http.StatusBadRequest:
				logger.Warn("client error", fields...)
			default:
				logger.Info("request completed", fields...)
			}
			return nil
		},
	})
}

// authRateLimiter limits register and login per client IP. A non-positive limit disables it.
func authRateLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(perSecond),
		Burst: int(perSecond) + 1,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return errRateLimited
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return errRateLimited
		},
	})
}
