package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthTimeout = 2 * time.Second

type HealthResponse struct {
	Success  bool   `json:"success"`
	Database string `json:"database"`
	Redis    string `json:"redis,omitempty"`
}

func (s *Server) health(ctx echo.Context) error {
	c, cancel := context.WithTimeout(ctx.Request().Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Success: true, Database: "ok"}
	if err := s.deps.DB.PingContext(c); err != nil {
		s.deps.Logger.Warn("database health check failed", err)
		resp.Success = false
		resp.Database = "unavailable"
	}
	if s.deps.Redis != nil {
		resp.Redis = "ok"
		if err := s.deps.Redis.Ping(c).Err(); err != nil {
			s.deps.Logger.Warn("redis health check failed", err)
			resp.Success = false
			resp.Redis = "unavailable"
		}
	}

	code := http.StatusOK
	if !resp.Success {
		code = http.StatusServiceUnavailable
	}
	return ctx.JSON(code, resp)
}
