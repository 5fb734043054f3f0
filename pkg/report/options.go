package report

import (
	"log/slog"

	"github.com/vango-dev/overlay/pkg/framework"
	"github.com/vango-dev/overlay/pkg/htmldiff"
)

// DiffView selects how the hydration diff is rendered.
type DiffView string

const (
	// DiffViewSplit renders parsed hunks as a two-column table.
	DiffViewSplit DiffView = "split"

	// DiffViewPretty renders a self-contained line-by-line fragment into
	// the report's owned container.
	DiffViewPretty DiffView = "pretty"
)

// ParseDiffView validates a view name. The empty string selects split.
func ParseDiffView(s string) (DiffView, bool) {
	switch DiffView(s) {
	case "", DiffViewSplit:
		return DiffViewSplit, true
	case DiffViewPretty:
		return DiffViewPretty, true
	}
	return "", false
}

// Option configures a Report.
type Option func(*Report)

// WithHydrationDiff attaches the server and client markup to diff.
func WithHydrationDiff(h HydrationDiff) Option {
	return func(r *Report) {
		r.hydration = &h
	}
}

// WithClassifier sets the framework classifier used for grouping.
// A nil classifier attributes every frame to user code.
func WithClassifier(c framework.Classifier) Option {
	return func(r *Report) {
		r.classifier = c
	}
}

// WithCodeFrameRenderer replaces the code frame renderer.
func WithCodeFrameRenderer(c CodeFrameRenderer) Option {
	return func(r *Report) {
		if c != nil {
			r.codeFrames = c
		}
	}
}

// WithDiffView selects the diff rendering strategy.
func WithDiffView(v DiffView) Option {
	return func(r *Report) {
		if v, ok := ParseDiffView(string(v)); ok {
			r.diffView = v
		}
	}
}

// WithDiffOptions sets the diff options.
func WithDiffOptions(o htmldiff.Options) Option {
	return func(r *Report) {
		r.diffOpts = o
	}
}

// WithLogger sets the logger for diff failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Report) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithShowAll overrides the initial toggle state.
func WithShowAll(showAll bool) Option {
	return func(r *Report) {
		r.showAll = showAll
		r.showAllSet = true
	}
}

// WithContainerID sets the element id of the pretty diff container.
func WithContainerID(id string) Option {
	return func(r *Report) {
		if id != "" {
			r.containerID = id
		}
	}
}
