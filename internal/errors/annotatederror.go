// Package errors decorates errors with structured [slog.Attr] annotations and the source location where they were
// created, so that a single log line carries the whole story of a failure.
//
// It re-exports the standard library helpers so callers only need one errors import.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
)

var (
	Is     = stderrors.Is
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
	Join   = stderrors.Join
)

type annotatedError struct {
	msg   string
	err   error
	attrs []slog.Attr
	// file and line where the error was created or wrapped. Empty for sentinels.
	file string
	line int
}

func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// NewSentinel creates a comparable error without source information. Use it for package level error values.
func NewSentinel(text string) error {
	return stderrors.New(text)
}

// New creates an error annotated with the caller's source location and the given attributes.
func New(text string, attrs ...slog.Attr) error {
	file, line := caller()
	return &annotatedError{msg: text, err: nil, attrs: attrs, file: file, line: line}
}

// Wrap adds context and attributes to err. It returns nil if err is nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	file, line := caller()
	return &annotatedError{msg: msg, err: err, attrs: attrs, file: file, line: line}
}

// DecoratePanic converts a recovered panic value into an error pointing at the line that panicked.
func DecoratePanic(v any) error {
	if v == nil {
		return nil
	}
	var (
		err  error
		msg  = fmt.Sprintf("panic: %v", v)
		file string
		line int
	)
	if e, ok := v.(error); ok {
		err = e
		msg = "panic"
	}

	const maxDepth = 32
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(2, pcs) //nolint:mnd // skip runtime.Callers and DecoratePanic
	frames := runtime.CallersFrames(pcs[:n])
	afterPanic := false
	for {
		frame, more := frames.Next()
		if afterPanic && !strings.HasPrefix(frame.Function, "runtime.") {
			file, line = frame.File, frame.Line
			break
		}
		if frame.Function == "runtime.gopanic" {
			afterPanic = true
		}
		if !more {
			break
		}
	}

	return &annotatedError{msg: msg, err: err, attrs: nil, file: file, line: line}
}

// SlogError returns an attribute group describing err suitable for [slog.Logger.LogAttrs].
//
// The group contains the message, the annotations collected from the whole error chain, and the source location of
// the innermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Any("error", nil)
	}

	var (
		annotations []slog.Attr
		source      string
	)
	walk(err, func(ae *annotatedError) {
		annotations = append(annotations, ae.attrs...)
		if ae.file != "" {
			source = ae.file + ":" + strconv.Itoa(ae.line)
		}
	})

	attrs := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		group := make([]any, 0, len(annotations))
		for _, a := range annotations {
			group = append(group, a)
		}
		attrs = append(attrs, slog.Group("annotations", group...))
	}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	return slog.Group("error", attrs...)
}

// walk visits annotated errors from the outermost to the innermost, descending into joined errors.
func walk(err error, visit func(*annotatedError)) {
	for err != nil {
		if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // we walk the chain manually
			visit(ae)
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok { //nolint:errorlint // same
			for _, e := range joined.Unwrap() {
				walk(e, visit)
			}
			return
		}
		err = stderrors.Unwrap(err)
	}
}

func caller() (string, int) {
	var pcs [1]uintptr
	if runtime.Callers(3, pcs[:]) == 0 { //nolint:mnd // skip runtime.Callers, caller and the constructor
		return "", 0
	}
	frame, _ := runtime.CallersFrames(pcs[:]).Next()
	return frame.File, frame.Line
}
