// Package errorx provides coded errors that carry an HTTP status and a
// user-safe message, looked up through a process-wide coder registry.
package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Coder describes an error code: its integer code, the HTTP status it maps
// to, the external (user-safe) message, and an optional reference document.
type Coder interface {
	Code() int
	HTTPStatus() int
	String() string
	Reference() string
}

type defaultCoder struct {
	code int
	http int
	msg  string
	ref  string
}

func (c defaultCoder) Code() int         { return c.code }
func (c defaultCoder) HTTPStatus() int   { return c.http }
func (c defaultCoder) String() string    { return c.msg }
func (c defaultCoder) Reference() string { return c.ref }

var (
	codesMu sync.RWMutex
	codes   = map[int]Coder{}

	unknownCoder = defaultCoder{
		code: 1,
		http: http.StatusInternalServerError,
		msg:  "An internal server error occurred",
	}
)

// Register registers a coder, overwriting any previous registration.
func Register(coder Coder) {
	if coder.Code() == 0 {
		panic("code `0` is reserved as unknown error code")
	}
	codesMu.Lock()
	defer codesMu.Unlock()
	codes[coder.Code()] = coder
}

// MustRegister registers a coder and panics when the code is already taken.
func MustRegister(coder Coder) {
	if coder.Code() == 0 {
		panic("code `0` is reserved as unknown error code")
	}
	codesMu.Lock()
	defer codesMu.Unlock()
	if _, ok := codes[coder.Code()]; ok {
		panic(fmt.Sprintf("code %d already registered", coder.Code()))
	}
	codes[coder.Code()] = coder
}

type withCode struct {
	err   error
	code  int
	cause error
}

func (w *withCode) Error() string {
	if w.cause != nil {
		return fmt.Sprintf("%s: %s", w.err.Error(), w.cause.Error())
	}
	return w.err.Error()
}

func (w *withCode) Unwrap() error { return w.cause }

// WithCode creates a new coded error.
func WithCode(code int, format string, args ...interface{}) error {
	return &withCode{
		err:  fmt.Errorf(format, args...),
		code: code,
	}
}

// WrapC wraps err with a code and a contextual message.
func WrapC(err error, code int, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &withCode{
		err:   fmt.Errorf(format, args...),
		code:  code,
		cause: err,
	}
}

// ParseCoder resolves the coder attached to err, walking the wrap chain.
// A nil err returns nil; an uncoded err returns the unknown coder.
func ParseCoder(err error) Coder {
	if err == nil {
		return nil
	}
	var wc *withCode
	if !errors.As(err, &wc) {
		return unknownCoder
	}
	codesMu.RLock()
	coder, ok := codes[wc.code]
	codesMu.RUnlock()
	if !ok {
		return unknownCoder
	}
	return coder
}

// IsCode reports whether any error in err's chain carries the given code.
func IsCode(err error, code int) bool {
	var wc *withCode
	for errors.As(err, &wc) {
		if wc.code == code {
			return true
		}
		err = wc.cause
		if err == nil {
			return false
		}
	}
	return false
}
