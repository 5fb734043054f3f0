package report

import (
	"regexp"
	"strings"

	"github.com/vango-dev/overlay/pkg/stackframe"
	"github.com/vango-dev/overlay/pkg/vdom"
)

// CodeFrameRenderer renders the source snippet of the anchor frame.
type CodeFrameRenderer interface {
	RenderCodeFrame(loc stackframe.Location, codeFrame string) *vdom.VNode
}

// CodeFrameRendererFunc adapts a function to CodeFrameRenderer.
type CodeFrameRendererFunc func(loc stackframe.Location, codeFrame string) *vdom.VNode

// RenderCodeFrame implements CodeFrameRenderer.
func (fn CodeFrameRendererFunc) RenderCodeFrame(loc stackframe.Location, codeFrame string) *vdom.VNode {
	return fn(loc, codeFrame)
}

// ansiPattern matches terminal escape sequences: CSI sequences and
// OSC sequences terminated by BEL.
var ansiPattern = regexp.MustCompile(
	"[\u001B\u009B][[\\]()#;?]*" +
		"(?:(?:(?:(?:;[-a-zA-Z\\d\\/#&.:=?%@~_]+)*|[a-zA-Z\\d]+(?:;[-a-zA-Z\\d\\/#&.:=?%@~_]*)*)?\u0007)" +
		"|(?:(?:\\d{1,4}(?:;\\d{0,4})*)?[\\dA-PR-TZcf-ntqry=><~]))")

// StripANSI removes terminal escape sequences from s.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// DefaultCodeFrameRenderer renders the snippet as plain preformatted text
// under a header naming the location.
type DefaultCodeFrameRenderer struct{}

// RenderCodeFrame implements CodeFrameRenderer.
func (DefaultCodeFrameRenderer) RenderCodeFrame(loc stackframe.Location, codeFrame string) *vdom.VNode {
	return vdom.Div(
		vdom.Data("overlay-codeframe", ""),
		vdom.Div(
			vdom.P(
				vdom.Role("link"),
				vdom.TabIndex(10),
				vdom.TitleAttr("Click to open in your editor"),
				CodeFrameHeader(loc),
			),
		),
		vdom.Pre(strings.TrimRight(StripANSI(codeFrame), " \n")),
	)
}

// CodeFrameHeader formats "file (line:col) @ method".
func CodeFrameHeader(loc stackframe.Location) string {
	return loc.String() + " @ " + loc.Method()
}
