package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/courseloom/courseloom-backend/internal/platform/errs"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromError maps domain sentinels onto HTTP statuses. Anything unmapped
// surfaces as a 500 so handlers never leak raw storage errors with a 2xx.
func FromError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, errs.ErrInvalidArgument):
		return New(http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, errs.ErrUnauthorized):
		return New(http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, errs.ErrForbidden):
		return New(http.StatusForbidden, "forbidden", err)
	case errors.Is(err, errs.ErrStoreUnavailable):
		return New(http.StatusServiceUnavailable, "store_unavailable", err)
	case errors.Is(err, errs.ErrTranscodeTimeout):
		return New(http.StatusGatewayTimeout, "transcode_timeout", err)
	case errors.Is(err, errs.ErrTranscodeFailed):
		return New(http.StatusBadGateway, "transcode_failed", err)
	default:
		return New(http.StatusInternalServerError, "internal", err)
	}
}
