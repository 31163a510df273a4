package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anuncia/anuncia/internal/usecase"
)

func (s *Server) healthHandler(ctx echo.Context) error {
	stats := s.server.Health()

	if s.broker != nil {
		c, cancel := context.WithTimeout(ctx.Request().Context(), time.Second)
		defer cancel()
		if err := s.broker.Ping(c).Err(); err != nil {
			stats["queue"] = "down"
			stats["queue_error"] = err.Error()
		} else {
			stats["queue"] = "up"
		}
	}

	return ctx.JSON(http.StatusOK, stats)
}

// statusFor maps a usecase error to the response status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidSlug),
		errors.Is(err, usecase.ErrUnsupportedKind):
		return http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrOwnerNotFound),
		errors.Is(err, usecase.ErrAssetNotFound),
		errors.Is(err, usecase.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrStorageIO),
		errors.Is(err, usecase.ErrPersistence):
		return http.StatusInternalServerError
	case errors.Is(err, usecase.ErrEncode):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, usecase.ErrQueue):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorJSON(ctx echo.Context, err error) error {
	return ctx.JSON(statusFor(err), map[string]string{"error": err.Error()})
}
