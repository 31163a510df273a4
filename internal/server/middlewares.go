package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/anuncia/anuncia/internal/config"
)

// uploadMiddlewares caps the request body and, when configured, rate limits
// upload requests per client.
func (s *Server) uploadMiddlewares() []echo.MiddlewareFunc {
	mws := []echo.MiddlewareFunc{
		middleware.BodyLimit(strconv.FormatInt(s.cfg.Storage.MaxUploadBytes, 10)),
	}

	if s.cfg.UploadRateLimit <= 0 {
		return mws
	}

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(s.cfg.UploadRateLimit),
		Burst: max(1, int(s.cfg.UploadRateLimit)),
	})

	return append(mws, middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store:               store,
		IdentifierExtractor: clientIdentifier,
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"error": limiterMessage(err, middleware.ErrExtractorError)})
		},
		// The memory store refuses with a nil error.
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error":   limiterMessage(err, middleware.ErrRateLimitExceeded),
				"message": "too many uploads, retry later",
			})
		},
	}))
}

func limiterMessage(err error, fallback *echo.HTTPError) string {
	if err != nil {
		return err.Error()
	}
	return fmt.Sprint(fallback.Message)
}

// clientIdentifier keys the limiter on the client id header when a trusted
// client sends one, and on the remote address otherwise.
func clientIdentifier(c echo.Context) (string, error) {
	if id := c.Request().Header.Get(config.HEADER_KEY_X_CLIENT_ID); id != "" {
		return "client:" + id, nil
	}
	return c.RealIP(), nil
}
