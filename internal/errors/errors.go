package errors

import (
	"errors"
	"runtime"
	"strings"

	errorsGo "github.com/go-errors/errors"
)

func As(err error, target any) bool { return errorsGo.As(err, target) }

func Is(err, target error) bool { return errorsGo.Is(err, target) }

func Join(errs ...error) error {
	// not implemented by github.com/go-errors/errors
	if err := errors.Join(errs...); err != nil {
		return errorsGo.Wrap(err, 1)
	}
	return nil
}

// New wraps obj with a stack trace. It returns nil for nil
// unlike github.com/go-errors/errors.New().
func New(obj any) *Error {
	if obj == nil {
		return nil
	}
	// don't overwrite origin of failure
	if errGo, okErrGo := obj.(*errorsGo.Error); okErrGo {
		return errGo
	}
	return errorsGo.Wrap(obj, 1)
}

func Unwrap(err error) error { return errorsGo.Unwrap(err) }

type Error = errorsGo.Error

func Errorf(format string, a ...any) *Error { return errorsGo.Errorf(format, a...) }

func Wrap(e any, skip int) *Error { return errorsGo.Wrap(e, skip+1) }

// Stack returns the stack trace of err if one was recorded.
func Stack(err error) (string, bool) {
	var errGo *errorsGo.Error
	if !errorsGo.As(err, &errGo) || errGo == nil {
		return ``, false
	}
	return errGo.ErrorStack(), true
}

// Kind is a sentinel error classifying failures, matched with Is.
type Kind string

func (k Kind) Error() string { return string(k) }

// KindError attaches a Kind and the failing operation to an error.
type KindError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *KindError) Error() string {
	if e == nil {
		return `<nil>`
	}
	var b strings.Builder
	if len(e.Op) > 0 {
		b.WriteString(e.Op)
		b.WriteString(`: `)
	}
	b.WriteString(string(e.Kind))
	if e.Err != nil {
		b.WriteString(`: `)
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *KindError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WithKind classifies err. The result carries a stack trace.
// nil err still yields an error of that kind.
func WithKind(kind Kind, op string, err error) error {
	return errorsGo.Wrap(&KindError{Kind: kind, Op: op, Err: err}, 1)
}

// NilReceiver returns an error with the function name if any of the arguments are nil
func NilReceiver(args ...any) error {
	return errMsgNilTester(`nil receiver or struct field`, 3, args...)
}

// NilParam returns an error with the function name if any of the arguments are nil
func NilParam(args ...any) error {
	return errMsgNilTester(`nil parameter`, 3, args...)
}

func errMsgNilTester(msg string, skip int, args ...any) error {
	if len(args) == 0 {
		return errMsg(msg, skip)
	}
	for i := range args {
		if args[i] == nil {
			return errMsg(msg, skip)
		}
	}
	return nil
}

func errMsg(msg string, skip int) error {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return Wrap(msg, skip)
	}
	return Wrap(msg+`: `+runtime.FuncForPC(pc).Name()+`()`, skip)
}
