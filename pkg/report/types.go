package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vango-dev/overlay/pkg/stackframe"
)

// ComponentStackFrame is one entry of the component ancestry of the failing
// render. It is displayed as given.
type ComponentStackFrame struct {
	Component       string `json:"component"`
	File            string `json:"file,omitempty"`
	LineNumber      int    `json:"lineNumber,omitempty"`
	Column          int    `json:"column,omitempty"`
	CanOpenInEditor bool   `json:"canOpenInEditor,omitempty"`
}

// Location returns the frame's source position, or nil when it has no file.
func (c ComponentStackFrame) Location() *stackframe.Location {
	if c.File == "" {
		return nil
	}
	return &stackframe.Location{File: c.File, LineNumber: c.LineNumber, Column: c.Column}
}

// RuntimeError is a resolved error ready to be displayed.
type RuntimeError struct {
	ID                   int                   `json:"id"`
	Name                 string                `json:"name,omitempty"`
	Message              string                `json:"message"`
	Frames               []stackframe.Frame    `json:"frames"`
	ComponentStackFrames []ComponentStackFrame `json:"componentStackFrames,omitempty"`
}

// Title returns "Name: Message", or just the message without a name.
func (e RuntimeError) Title() string {
	if e.Name == "" {
		return e.Message
	}
	return e.Name + ": " + e.Message
}

// HydrationDiff holds the markup the server rendered and the markup the
// client produced for the same subtree.
type HydrationDiff struct {
	SSRHTML string `json:"ssrHtml"`
	CSRHTML string `json:"csrHtml"`
}

// Complete reports whether both sides are present, which is what diffing
// needs.
func (h *HydrationDiff) Complete() bool {
	return h != nil && h.SSRHTML != "" && h.CSRHTML != ""
}

// Input is the document the CLI and dev server read.
type Input struct {
	Error     RuntimeError   `json:"error"`
	Hydration *HydrationDiff `json:"hydration,omitempty"`
}

// DecodeInput reads an Input document. Decoding errors keep their
// *json.SyntaxError or *json.UnmarshalTypeError in the chain.
func DecodeInput(r io.Reader) (*Input, error) {
	var in Input
	dec := json.NewDecoder(r)
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	if in.Error.Message == "" && in.Error.Name == "" && len(in.Error.Frames) == 0 {
		return nil, fmt.Errorf("decode input: missing \"error\" object")
	}
	return &in, nil
}

// Options returns the report options carried by the document itself.
func (in *Input) Options() []Option {
	if in.Hydration == nil {
		return nil
	}
	return []Option{WithHydrationDiff(*in.Hydration)}
}
