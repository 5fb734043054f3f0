// Package report composes the frame pipeline and the diff pipeline into the
// developer-facing error report.
//
// A Report is built once per error:
//
//	r := report.New(err, report.WithHydrationDiff(h), report.WithClassifier(framework.Default()))
//	r.WriteHTML(w)
//	r.Toggle() // show or hide collapsed frames
//
// The only state a Report carries is the toggle. Everything else (visible
// frames, framework groups, the diff) is derived again on every View.
// A Report is not safe for concurrent use.
package report

import (
	"log/slog"

	"github.com/vango-dev/overlay/pkg/framework"
	"github.com/vango-dev/overlay/pkg/htmldiff"
	"github.com/vango-dev/overlay/pkg/render"
	"github.com/vango-dev/overlay/pkg/stackframe"
)

const (
	// DefaultContainerID is the element id of the pretty diff container.
	DefaultContainerID = "overlay-hydration-diff"

	showLabel = "Show collapsed frames"
	hideLabel = "Hide collapsed frames"
)

// Report is the rendered view of one runtime error.
type Report struct {
	err       RuntimeError
	partition stackframe.Partition
	showAll   bool

	hydration   *HydrationDiff
	classifier  framework.Classifier
	codeFrames  CodeFrameRenderer
	diffView    DiffView
	diffOpts    htmldiff.Options
	logger      *slog.Logger
	containerID string
	showAllSet  bool

	renderer  *render.Renderer
	container *render.Container
}

// New builds a report for err. Frames are filtered and partitioned around
// the first first-party frame once; the toggle starts expanded exactly
// when no such frame exists.
func New(err RuntimeError, opts ...Option) *Report {
	r := &Report{
		err:         err,
		classifier:  framework.Default(),
		codeFrames:  DefaultCodeFrameRenderer{},
		diffView:    DiffViewSplit,
		diffOpts:    htmldiff.DefaultOptions(),
		logger:      slog.Default(),
		containerID: DefaultContainerID,
		renderer:    render.NewRenderer(render.RendererConfig{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.partition = stackframe.Split(stackframe.Filter(err.Frames))
	if !r.showAllSet {
		r.showAll = !r.partition.HasAnchor()
	}
	r.container = render.NewContainer(r.containerID)
	return r
}

// Err returns the error the report was built for.
func (r *Report) Err() RuntimeError {
	return r.err
}

// Partition returns the filtered frames split around the anchor.
func (r *Report) Partition() stackframe.Partition {
	return r.partition
}

// ShowAll reports whether collapsed frames are currently shown.
func (r *Report) ShowAll() bool {
	return r.showAll
}

// Toggle flips between showing and hiding collapsed frames and returns the
// new state.
func (r *Report) Toggle() bool {
	r.showAll = !r.showAll
	return r.showAll
}

// SetShowAll sets the toggle state directly.
func (r *Report) SetShowAll(showAll bool) {
	r.showAll = showAll
}

// DiffView returns the configured diff rendering strategy.
func (r *Report) DiffView() DiffView {
	return r.diffView
}

// Container returns the container owning the pretty diff markup.
func (r *Report) Container() *render.Container {
	return r.container
}

// View is the derived state of a report for one toggle position.
type View struct {
	// First is the anchor frame, or nil when the Source section is omitted.
	First *stackframe.Frame

	// LeadingGroups and CallStackGroups hold the visible frames grouped by
	// framework.
	LeadingGroups   []framework.Group
	CallStackGroups []framework.Group

	ComponentStack []ComponentStackFrame

	ShowAll     bool
	CanShowMore bool

	// Diff is the hydration diff shown in the Source section, or nil.
	Diff *htmldiff.Result
}

// ToggleLabel returns the label of the toggle control.
func (v View) ToggleLabel() string {
	if v.ShowAll {
		return hideLabel
	}
	return showLabel
}

// HasSource reports whether the Source section is shown.
func (v View) HasSource() bool {
	return v.First != nil
}

// HasCallStack reports whether the Call Stack section is shown.
func (v View) HasCallStack() bool {
	return len(v.CallStackGroups) > 0
}

// View derives the visible frames, their groups and the diff for the
// current toggle state.
func (r *Report) View() View {
	p := r.partition
	leading := stackframe.Visible(p.Leading, r.showAll)
	callStack := stackframe.Visible(p.CallStack, r.showAll)

	v := View{
		First:           p.First,
		LeadingGroups:   framework.GroupFrames(leading, r.classifier),
		CallStackGroups: framework.GroupFrames(callStack, r.classifier),
		ComponentStack:  r.err.ComponentStackFrames,
		ShowAll:         r.showAll,
		CanShowMore:     len(callStack) != len(p.CallStack) || (r.showAll && p.HasAnchor()),
	}
	if v.First != nil {
		v.Diff = r.diff()
	}
	return v
}

// diff computes the hydration diff. Failures are logged and yield no diff.
func (r *Report) diff() *htmldiff.Result {
	if !r.hydration.Complete() {
		return nil
	}
	res, err := htmldiff.Compute(r.hydration.SSRHTML, r.hydration.CSRHTML, r.diffOpts)
	if err != nil {
		r.logger.Warn("hydration diff failed", "error_id", r.err.ID, "error", err)
		return nil
	}
	return res
}
