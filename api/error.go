// MIT License
//
// Copyright (c) 2023 Lack
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package api

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	json "github.com/json-iterator/go"
)

type StatusCode int32

func (c StatusCode) String() string {
	switch c {
	case StatusBadRequest:
		return "Bad Definition"
	case StatusNotFound:
		return "Not Found"
	case StatusConflict:
		return "Conflict"
	case StatusPreconditionFailed:
		return "Missing Configuration"
	case StatusInternalServerError:
		return "Build Failure"
	case StatusNotImplemented:
		return "Not Implemented"
	case StatusCompileFailed:
		return "Compilation Failure"
	}
	return "Unknown"
}

const (
	StatusBadRequest          StatusCode = 400
	StatusNotFound            StatusCode = 404
	StatusConflict            StatusCode = 409
	StatusPreconditionFailed  StatusCode = 412
	StatusCompileFailed       StatusCode = 422
	StatusInternalServerError StatusCode = 500
	StatusNotImplemented      StatusCode = 501
)

// Error is the failure type surfaced by every build task.
type Error struct {
	Code   int32  `json:"code,omitempty"`
	Status string `json:"status,omitempty"`
	Op     string `json:"op,omitempty"`
	Detail string `json:"detail,omitempty"`
	Caller string `json:"caller,omitempty"`

	cause error
}

// New generates a custom error.
func New(detail string, code StatusCode) *Error {
	e := &Error{
		Code:   int32(code),
		Detail: detail,
		Status: code.String(),
	}
	return e
}

// Wrap generates an error which keeps err as its cause.
func Wrap(err error, code StatusCode, format string, a ...interface{}) *Error {
	detail := fmt.Sprintf(format, a...)
	if err != nil {
		detail = detail + ": " + err.Error()
	}
	e := New(detail, code)
	e.cause = err
	return e
}

func (e *Error) WithCode(code StatusCode) *Error {
	e.Code = int32(code)
	e.Status = code.String()
	return e
}

// WithOp names the build operation which failed.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithCaller fills Error.Caller
func (e *Error) WithCaller() *Error {
	_, file, line, _ := runtime.Caller(1)
	if index := strings.Index(file, "/src/"); index != -1 {
		file = file[index+5:]
	}
	file = strings.Replace(file, string(filepath.Separator), "/", -1)
	e.Caller = fmt.Sprintf("%s:%d", file, line)
	return e
}

func (e *Error) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Parse tries to parse a JSON string into an error. If that
// fails, it will set the given string as the error detail.
func Parse(err string) *Error {
	e := new(Error)
	errr := json.Unmarshal([]byte(err), e)
	if errr != nil {
		e.Detail = err
	}
	return e
}

// BadRequest generates a 400 error, used for malformed definitions.
func BadRequest(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusBadRequest)
}

// NotFound generates a 404 error.
func NotFound(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusNotFound)
}

// Conflict generates a 409 error.
func Conflict(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusConflict)
}

// PreconditionFailed generates a 412 error, used when build configuration is missing.
func PreconditionFailed(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusPreconditionFailed)
}

// CompileFailed generates a 422 error.
func CompileFailed(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusCompileFailed)
}

// InternalServerError generates a 500 error.
func InternalServerError(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusInternalServerError)
}

// NotImplemented generates a 501 error
func NotImplemented(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusNotImplemented)
}

// Equal tries to compare errors
func Equal(err1 error, err2 error) bool {
	verr1, ok1 := err1.(*Error)
	verr2, ok2 := err2.(*Error)

	if ok1 != ok2 {
		return false
	}

	if !ok1 {
		return err1 == err2
	}

	if verr1.Code != verr2.Code {
		return false
	}

	return true
}

// IsCode reports whether any *Error in the chain of err carries code.
func IsCode(err error, code StatusCode) bool {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Code == int32(code)
	}
	return false
}

// FromErr try to convert go error go *Error
func FromErr(err error) *Error {
	if err == nil {
		return nil
	}

	var verr *Error
	if errors.As(err, &verr) && verr != nil {
		return verr
	}

	return Wrap(err, StatusInternalServerError, "build")
}
