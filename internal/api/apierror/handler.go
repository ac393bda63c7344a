// Package apierror renders every error leaving a handler as the canonical
// {"error": "<message>"} envelope.
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mentorlink/mentorship-api/internal/core/domain"
)

// Response is the canonical error envelope for all API errors.
type Response struct {
	Error string `json:"error"`
}

const genericMessage = "internal server error"

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := Resolve(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, Response{Error: msg})
	}
}

// Resolve classifies err into a status code and a caller-safe message.
func Resolve(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Classified domain errors win over anything they wrap.
	var de *domain.Error
	if errors.As(err, &de) {
		return fromKind(domain.KindOf(de), de.Message, err, log, c)
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			logUnexpected(log, c, err)
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	kind := domain.KindOf(err)
	return fromKind(kind, kind.Error(), err, log, c)
}

func fromKind(kind error, msg string, err error, log zerolog.Logger, c echo.Context) (int, string) {
	if kind == domain.ErrInternal {
		logUnexpected(log, c, err)
		return http.StatusInternalServerError, genericMessage
	}
	if msg == "" {
		msg = kind.Error()
	}
	return StatusFor(kind), msg
}

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(kind error) int {
	switch kind {
	case domain.ErrValidation, domain.ErrInvalidOrExpired:
		return http.StatusBadRequest
	case domain.ErrConflict:
		return http.StatusConflict
	case domain.ErrUnauthenticated:
		return http.StatusUnauthorized
	case domain.ErrForbidden:
		return http.StatusForbidden
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func logUnexpected(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")
}
