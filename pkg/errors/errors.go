// Package errors provides structured error handling for bindings.
//
// Every failure produced by the binding engine is a *BindingError carrying the
// operation, a Kind and the underlying cause. Callers match categories with
// the standard library:
//
//	if errors.Is(err, bindErrors.ErrInvalidArgument) { ... }
//
// Failures that have no synchronous caller (updates posted to a dispatcher)
// are sent to the global ErrorHandler through Report.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Sentinel errors matched by BindingError.Is according to its Kind.
var (
	ErrInvalidArgument = stderrors.New("invalid argument")
	ErrDisposed        = stderrors.New("object disposed")
	ErrFormat          = stderrors.New("format error")
	ErrUpdate          = stderrors.New("binding update failed")
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindInvalidArgument indicates bad construction input.
	KindInvalidArgument
	// KindDisposed indicates an operation attempted after disposal.
	KindDisposed
	// KindFormat indicates a converter could not parse or format a value.
	KindFormat
	// KindUpdate indicates a failure during a read/convert/write cycle.
	KindUpdate
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindDisposed:
		return "disposed"
	case KindFormat:
		return "format"
	case KindUpdate:
		return "update"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindDisposed:
		return ErrDisposed
	case KindFormat:
		return ErrFormat
	case KindUpdate:
		return ErrUpdate
	default:
		return nil
	}
}

// BindingError represents a structured error raised by a binding or manager.
type BindingError struct {
	// Op is the operation that failed (e.g., "binding.New", "binding.updateSource").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Binding is the ID of the binding involved, if any.
	Binding string
	// Member is the name of the bound source member, if any.
	Member string
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *BindingError) Error() string {
	msg := fmt.Sprintf("%s [%s]", e.Op, e.Kind)
	if e.Member != "" {
		msg += " member=" + e.Member
	}
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's Kind.
func (e *BindingError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// InvalidArgument returns a KindInvalidArgument error for op.
func InvalidArgument(op, format string, args ...any) *BindingError {
	return &BindingError{
		Op:        op,
		Kind:      KindInvalidArgument,
		Err:       fmt.Errorf(format, args...),
		Timestamp: time.Now(),
	}
}

// Disposed returns a KindDisposed error for op.
func Disposed(op string) *BindingError {
	return &BindingError{
		Op:        op,
		Kind:      KindDisposed,
		Err:       stderrors.New("use after dispose"),
		Timestamp: time.Now(),
	}
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "dispatch.Serial").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// FormatError is returned by converters that cannot parse or format a value.
type FormatError struct {
	// Value is the input that could not be converted.
	Value any
	// Type names the conversion target (e.g., "int", "time.Time").
	Type string
	// Err is the parser's error, if any.
	Err error
}

func (e *FormatError) Error() string {
	if s, ok := e.Value.(string); ok {
		return fmt.Sprintf("cannot convert %q to %s", s, e.Type)
	}
	return fmt.Sprintf("cannot convert %T to %s", e.Value, e.Type)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is matches ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// ErrorHandler receives errors that have no synchronous caller.
type ErrorHandler interface {
	// HandleError is called when a posted binding update fails.
	HandleError(err *BindingError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
