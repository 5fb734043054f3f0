// Package stackframe models captured call-stack frames and the filtering and
// partitioning applied to them before a report is shown.
//
// A runtime error arrives with its frames in call order, innermost first.
// Filter drops noise the runtime injects while formatting the error, and
// Split locates the first first-party frame (the anchor shown with its
// source) and partitions the rest around it:
//
//	filtered := stackframe.Filter(err.Frames)
//	p := stackframe.Split(filtered)
//	// p.Leading ++ [p.First] ++ p.CallStack == filtered
package stackframe

import (
	"fmt"
	"strings"
)

// Location is a position in a source file, either as reported by the
// runtime or as resolved through a source map.
type Location struct {
	File       string   `json:"file"`
	MethodName string   `json:"methodName"`
	Arguments  []string `json:"arguments,omitempty"`
	LineNumber int      `json:"lineNumber,omitempty"`
	Column     int      `json:"column,omitempty"`
}

// HasFile reports whether the location names a file.
func (l Location) HasFile() bool {
	return l.File != ""
}

// Position formats the line and column, e.g. "(12:4)". It returns "" when
// no line is known.
func (l Location) Position() string {
	if l.LineNumber <= 0 {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("(%d:%d)", l.LineNumber, l.Column)
	}
	return fmt.Sprintf("(%d)", l.LineNumber)
}

// String returns "file (line:col)", or just the file when no line is known.
func (l Location) String() string {
	pos := l.Position()
	if pos == "" {
		return l.File
	}
	return l.File + " " + pos
}

// Method returns the method name, or "<unknown>" when the runtime did not
// report one.
func (l Location) Method() string {
	if strings.TrimSpace(l.MethodName) == "" {
		return UnknownMethod
	}
	return l.MethodName
}

// Frame is one entry of a captured call stack.
type Frame struct {
	// Source is the location as reported by the runtime.
	Source Location `json:"sourceStackFrame"`

	// Original is the source-mapped location, if one was resolved.
	Original *Location `json:"originalStackFrame,omitempty"`

	// CodeFrame is a snippet of the original source around Original.
	CodeFrame string `json:"originalCodeFrame,omitempty"`

	// SourcePackage is the package the frame's file belongs to, when the
	// capturing side knows it. It is a hint for framework classification.
	SourcePackage string `json:"sourcePackage,omitempty"`

	// Expanded marks frames that are visible without user action.
	Expanded bool `json:"expanded"`
}

// HasCodeFrame reports whether the frame carries both a source-mapped
// location and a code snippet, which is what rendering its source needs.
func (f Frame) HasCodeFrame() bool {
	return f.Original != nil && f.CodeFrame != ""
}

// Display returns the location to show for the frame: the source-mapped one
// when available, the runtime one otherwise.
func (f Frame) Display() Location {
	if f.Original != nil {
		return *f.Original
	}
	return f.Source
}
