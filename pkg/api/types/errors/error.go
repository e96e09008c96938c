package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	xe "github.com/opst/tabserve/pkg/errors"
)

// ErrorMessage is the body of error responses:
//
//	{"error": "<reason>"}
type ErrorMessage struct {
	Reason string `json:"error"`
	Cause  error  `json:"-"`
}

func (em ErrorMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Reason string `json:"error"`
	}{Reason: em.Reason})
}

func (em *ErrorMessage) UnmarshalJSON(bytes []byte) error {
	f := new(struct {
		Reason *string `json:"error"`
	})
	if err := json.Unmarshal(bytes, f); err != nil {
		return err
	}

	if f.Reason == nil {
		return fmt.Errorf(`required field missing: "error"`)
	}
	em.Reason = *f.Reason
	return nil
}

func (e ErrorMessage) String() string {
	return e.Reason
}

func (e ErrorMessage) Error() string {
	return e.String()
}

func (e ErrorMessage) Unwrap() error {
	return e.Cause
}

func NewErrorMessage(code int, reason string, cause error) *echo.HTTPError {
	msg := ErrorMessage{Reason: reason, Cause: cause}
	return echo.NewHTTPError(code, msg).SetInternal(msg)
}

func BadRequest(err error) *echo.HTTPError {
	return NewErrorMessage(http.StatusBadRequest, err.Error(), err)
}

func NotFound(err error) *echo.HTTPError {
	return NewErrorMessage(http.StatusNotFound, err.Error(), err)
}

func Unauthorized(reason string, err error) *echo.HTTPError {
	return NewErrorMessage(http.StatusUnauthorized, reason, err)
}

func Forbidden(reason string, err error) *echo.HTTPError {
	return NewErrorMessage(http.StatusForbidden, reason, err)
}

func InternalServerError(err error) *echo.HTTPError {
	return NewErrorMessage(http.StatusInternalServerError, err.Error(), err)
}

// FromError converts err into a HTTP error response.
//
// Errors caused by requests are 4xx (unknown task is 404, others are 400),
// and the rest are 500.
func FromError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, xe.ErrUnknownTask):
		return NotFound(err)
	case xe.IsClientError(err):
		return BadRequest(err)
	default:
		return InternalServerError(err)
	}
}
