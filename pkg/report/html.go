package report

import (
	"io"
	"strconv"

	"github.com/vango-dev/overlay/pkg/framework"
	"github.com/vango-dev/overlay/pkg/htmldiff"
	"github.com/vango-dev/overlay/pkg/stackframe"
	"github.com/vango-dev/overlay/pkg/vdom"
)

// ToggleAttr marks the toggle button so clients can find it.
const ToggleAttr = "data-overlay-runtime-error-collapsed-action"

// Node renders the report for the current toggle state.
func (r *Report) Node() *vdom.VNode {
	return r.NodeFor(r.View())
}

// NodeFor renders a previously derived view.
func (r *Report) NodeFor(v View) *vdom.VNode {
	return vdom.Div(
		vdom.Data("overlay-runtime-error", ""),
		vdom.Data("show-all", boolString(v.ShowAll)),
		vdom.When(v.HasSource(), func() *vdom.VNode { return r.sourceSection(v) }),
		vdom.When(v.ComponentStack != nil, func() *vdom.VNode { return componentStackSection(v.ComponentStack) }),
		vdom.When(v.HasCallStack(), func() *vdom.VNode {
			return vdom.Fragment(
				vdom.H2("Call Stack"),
				groupedFrames(v.CallStackGroups, v.ShowAll),
			)
		}),
		vdom.If(v.CanShowMore, vdom.Button(
			vdom.TabIndex(10),
			vdom.AttrOf(ToggleAttr, ""),
			vdom.Type("button"),
			v.ToggleLabel(),
		)),
	)
}

// WriteHTML renders the report fragment to w.
func (r *Report) WriteHTML(w io.Writer) error {
	return r.renderer.RenderToWriter(w, r.Node())
}

// HTML renders the report fragment to a string.
func (r *Report) HTML() (string, error) {
	return r.renderer.RenderToString(r.Node())
}

func (r *Report) sourceSection(v View) *vdom.VNode {
	first := v.First
	var codeFrame *vdom.VNode
	if first.HasCodeFrame() {
		codeFrame = r.codeFrames.RenderCodeFrame(*first.Original, first.CodeFrame)
	}

	return vdom.Fragment(
		vdom.H2("Source"),
		groupedFrames(v.LeadingGroups, v.ShowAll),
		codeFrame,
		r.diffNode(v.Diff),
	)
}

// diffNode renders the hydration diff with the configured strategy, or
// nothing when there is no diff.
func (r *Report) diffNode(res *htmldiff.Result) *vdom.VNode {
	if res == nil {
		r.container.Clear()
		return nil
	}

	var body *vdom.VNode
	switch r.diffView {
	case DiffViewPretty:
		err := r.container.Replace(func(w io.Writer) error {
			return r.renderer.RenderToWriter(w, htmldiff.PrettyView(res.Files, r.diffOpts))
		})
		if err != nil {
			r.logger.Warn("hydration diff render failed", "error_id", r.err.ID, "error", err)
			return nil
		}
		body = r.container.Node()
	default:
		body = htmldiff.SplitView(res.Files)
	}

	return vdom.Div(
		vdom.Data("overlay-hydration-diff", string(r.diffView)),
		vdom.AttrOf("style", "position: relative; width: 100%"),
		body,
	)
}

func componentStackSection(frames []ComponentStackFrame) *vdom.VNode {
	return vdom.Fragment(
		vdom.H2("Component Stack"),
		vdom.Range(frames, func(c ComponentStackFrame, i int) *vdom.VNode {
			var link *vdom.VNode
			if loc := c.Location(); loc != nil {
				link = vdom.Div(
					vdom.Role("link"),
					vdom.TabIndex(10),
					vdom.TitleAttr("Click to open in your editor"),
					vdom.AttrIf(c.CanOpenInEditor, vdom.Data("can-open-in-editor", "")),
					vdom.Span(loc.String()),
				)
			}
			return vdom.Div(
				vdom.Key(strconv.Itoa(i)),
				vdom.Data("overlay-component-stack-frame", ""),
				vdom.H3(c.Component),
				link,
			)
		}),
	)
}

// groupedFrames renders framework groups. Framework groups are collapsible;
// user code is rendered inline.
func groupedFrames(groups []framework.Group, showAll bool) []*vdom.VNode {
	return vdom.Range(groups, func(g framework.Group, i int) *vdom.VNode {
		rows := vdom.Range(g.Frames, func(f stackframe.Frame, j int) *vdom.VNode {
			return callStackFrame(f, strconv.Itoa(i)+"-"+strconv.Itoa(j))
		})
		if g.Framework.IsUser() {
			return vdom.Fragment(rows)
		}
		return vdom.Details(
			vdom.Key("group-"+strconv.Itoa(i)),
			vdom.Data("overlay-collapsed-call-stack-details", ""),
			vdom.Open(showAll),
			vdom.Summary(
				vdom.TabIndex(10),
				vdom.Span(vdom.Data("overlay-call-stack-framework", string(g.Framework)), g.Framework.Label()),
			),
			rows,
		)
	})
}

func callStackFrame(f stackframe.Frame, key string) *vdom.VNode {
	loc := f.Display()
	hasSource := f.Original != nil

	return vdom.Div(
		vdom.Key(key),
		vdom.Data("overlay-call-stack-frame", ""),
		vdom.H3(vdom.Data("overlay-frame-expanded", boolString(f.Expanded)), loc.Method()),
		vdom.Div(
			vdom.AttrIf(hasSource, vdom.Data("has-source", "true")),
			vdom.TabIndex(10),
			vdom.Role("link"),
			vdom.TitleAttr("Click to open in your editor"),
			vdom.Span(frameSource(loc)),
		),
	)
}

// frameSource returns the location text of a frame row, falling back to
// the method name for frames without a file.
func frameSource(loc stackframe.Location) string {
	if !loc.HasFile() {
		return loc.Method()
	}
	return loc.String()
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
