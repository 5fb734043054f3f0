package errors

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryHydration Category = "hydration"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// Location represents a position in a user-supplied file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Line <= 0 {
		return l.File
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// OverlayError is a structured error with location, suggestion and
// documentation link.
type OverlayError struct {
	// Code is a unique error identifier (e.g., "E149").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the file position the error refers to.
	Location *Location

	// Context contains the lines surrounding Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *OverlayError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *OverlayError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a file position and reads the surrounding lines.
func (e *OverlayError) WithLocation(file string, line, column int) *OverlayError {
	e.Location = &Location{File: file, Line: line, Column: column}
	if line > 0 {
		e.Context = readContextLines(file, line, 5)
	}
	return e
}

// WithFile adds a location that names only a file.
func (e *OverlayError) WithFile(file string) *OverlayError {
	e.Location = &Location{File: file}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *OverlayError) WithSuggestion(s string) *OverlayError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the detailed explanation.
func (e *OverlayError) WithDetail(d string) *OverlayError {
	e.Detail = d
	return e
}

// WithContext adds custom context lines to the error.
func (e *OverlayError) WithContext(lines []string) *OverlayError {
	e.Context = lines
	return e
}

// Wrap wraps another error.
func (e *OverlayError) Wrap(err error) *OverlayError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// Position converts a byte offset in data to a 1-based line and column.
func Position(data []byte, offset int64) (line, column int) {
	if offset < 0 {
		return 0, 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	prefix := data[:offset]
	line = bytes.Count(prefix, []byte("\n")) + 1
	column = len(prefix) - bytes.LastIndexByte(prefix, '\n')
	return line, column
}

// New creates an OverlayError from a registered error code.
func New(code string) *OverlayError {
	template, ok := registry[code]
	if !ok {
		return &OverlayError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &OverlayError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new OverlayError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *OverlayError {
	return &OverlayError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an OverlayError. An error that
// already is (or wraps) an OverlayError is returned as that error.
func FromError(err error, code string) *OverlayError {
	if err == nil {
		return nil
	}
	var oe *OverlayError
	if errors.As(err, &oe) {
		return oe
	}
	return New(code).Wrap(err)
}

// Is reports whether err is an OverlayError with the given code.
func Is(err error, code string) bool {
	var oe *OverlayError
	return errors.As(err, &oe) && oe.Code == code
}
