// Package response renders every API reply in the {success, data?, error?}
// envelope.
package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/travel-agency-booking/internal/apperror"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorData  `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pagination is the meta block of paginated listings.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination computes TotalPages for the given page window.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Paginated renders a list with its pagination meta.
func Paginated(c echo.Context, data interface{}, p Pagination) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data, Meta: echo.Map{"pagination": p}})
}

func Error(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Response{
		Success: false,
		Error:   &ErrorData{Code: code, Message: message},
	})
}

func BadRequest(c echo.Context, message string) error {
	return Error(c, http.StatusBadRequest, string(apperror.KindValidation), message)
}

func NotFound(c echo.Context, message string) error {
	return Error(c, http.StatusNotFound, string(apperror.KindNotFound), message)
}

func Unauthorized(c echo.Context, message string) error {
	return Error(c, http.StatusUnauthorized, string(apperror.KindUnauthorized), message)
}

func Forbidden(c echo.Context, message string) error {
	return Error(c, http.StatusForbidden, string(apperror.KindForbidden), message)
}

func InternalError(c echo.Context, err error) error {
	log.Error().Err(err).Str("path", c.Path()).Msg("internal error")
	return Error(c, http.StatusInternalServerError, string(apperror.KindInternal), "Internal Server Error")
}

// StatusFor maps a taxonomy kind onto its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindIntegration:
		return http.StatusBadGateway
	case apperror.KindNotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromError renders err through the taxonomy.  Errors outside the taxonomy
// are logged and reported as 500 without leaking their text.
func FromError(c echo.Context, err error) error {
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		return InternalError(c, err)
	}
	status := StatusFor(ae.Kind)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("kind", string(ae.Kind)).Str("path", c.Path()).Msg("request failed")
	}
	code := ae.Kind
	if code == apperror.KindNotConfigured {
		// Clients see one integration failure code; the status tells them apart.
		code = apperror.KindIntegration
	}
	return Error(c, status, string(code), ae.Message)
}

// HTTPErrorHandler renders errors escaping handlers and middleware (404 on
// unknown routes, 405, bind failures) in the same envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		code := string(apperror.KindInternal)
		switch {
		case he.Code == http.StatusNotFound:
			code = string(apperror.KindNotFound)
		case he.Code == http.StatusUnauthorized:
			code = string(apperror.KindUnauthorized)
		case he.Code == http.StatusForbidden:
			code = string(apperror.KindForbidden)
		case he.Code < http.StatusInternalServerError:
			code = string(apperror.KindValidation)
		}
		_ = Error(c, he.Code, code, msg)
		return
	}
	_ = FromError(c, err)
}
