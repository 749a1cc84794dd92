// Package apierr carries an HTTP status and a stable machine code alongside
// a service error so handlers can answer without knowing the service.
package apierr

import (
	"errors"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	default:
		return http.StatusText(e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(code string, err error) *Error  { return New(http.StatusBadRequest, code, err) }
func NotFound(code string, err error) *Error    { return New(http.StatusNotFound, code, err) }
func Conflict(code string, err error) *Error    { return New(http.StatusConflict, code, err) }
func Unavailable(code string, err error) *Error { return New(http.StatusServiceUnavailable, code, err) }

// Classify returns the status and code for err. Errors that carry no *Error
// are internal.
func Classify(err error, fallbackCode string) (int, string) {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		code := ae.Code
		if code == "" {
			code = fallbackCode
		}
		return ae.Status, code
	}
	return http.StatusInternalServerError, fallbackCode
}
