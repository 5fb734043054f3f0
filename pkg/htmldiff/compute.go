// Package htmldiff computes and renders line diffs between the markup a
// server rendered and the markup a client produced while hydrating.
//
// The pipeline is:
//
//	text, _ := htmldiff.Unified(serverHTML, clientHTML, htmldiff.DefaultOptions())
//	files, _ := htmldiff.Parse(text)
//	node := htmldiff.SplitView(files)
//
// Compute runs the first two steps. PrettyHTML diffs and renders a
// self-contained line-by-line fragment in one step.
package htmldiff

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	// DefaultContext is the number of unchanged lines kept around each change.
	DefaultContext = 1

	DefaultFromLabel = "server"
	DefaultToLabel   = "client"

	revisionLen = 7
)

// Options configures diff computation.
type Options struct {
	// Context is the number of unchanged lines around each change.
	// Negative values select DefaultContext.
	Context int

	// FromFile and ToFile label the two sides in the diff headers.
	FromFile string
	ToFile   string

	// SplitTags reflows each side so every tag and text run sits on its
	// own line before diffing.
	SplitTags bool
}

// DefaultOptions returns the options used by the report.
func DefaultOptions() Options {
	return Options{
		Context:  DefaultContext,
		FromFile: DefaultFromLabel,
		ToFile:   DefaultToLabel,
	}
}

func (o Options) normalize() Options {
	if o.Context < 0 {
		o.Context = DefaultContext
	}
	if o.FromFile == "" {
		o.FromFile = DefaultFromLabel
	}
	if o.ToFile == "" {
		o.ToFile = DefaultToLabel
	}
	return o
}

// Result is a computed diff in both text and parsed form.
type Result struct {
	Text  string
	Files []File
}

// HunkCount returns the total number of hunks across files.
func (r *Result) HunkCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, f := range r.Files {
		n += len(f.Hunks)
	}
	return n
}

// Revision returns the short content hash used on the index line.
func Revision(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))[:revisionLen]
}

// Unified returns a unified diff of old and new with an
// "index <old>..<new>" header line. Identical inputs produce "".
// The output carries no timestamps and is deterministic. One trailing
// newline is not significant: "X\n" and "X" compare equal.
func Unified(old, new string, opts Options) (string, error) {
	opts = opts.normalize()

	a, b := old, new
	if opts.SplitTags {
		var err error
		if a, err = SplitTags(old); err != nil {
			return "", fmt.Errorf("htmldiff: reflow %s: %w", opts.FromFile, err)
		}
		if b, err = SplitTags(new); err != nil {
			return "", fmt.Errorf("htmldiff: reflow %s: %w", opts.ToFile, err)
		}
	}

	body, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(a),
		B:        splitLines(b),
		FromFile: opts.FromFile,
		ToFile:   opts.ToFile,
		Context:  opts.Context,
	})
	if err != nil {
		return "", fmt.Errorf("htmldiff: %w", err)
	}
	if body == "" {
		return "", nil
	}
	return "index " + Revision(old) + ".." + Revision(new) + "\n" + body, nil
}

// Compute diffs old against new and parses the result. It returns nil, nil
// without diffing when either side is empty.
func Compute(old, new string, opts Options) (*Result, error) {
	if old == "" || new == "" {
		return nil, nil
	}

	text, err := Unified(old, new, opts)
	if err != nil {
		return nil, err
	}
	files, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return &Result{Text: text, Files: files}, nil
}

// splitLines splits s into newline-terminated lines. A single trailing
// newline does not produce an extra empty line.
func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	return difflib.SplitLines(strings.TrimSuffix(s, "\n"))
}
