package htmldiff

import (
	"io"
	"strconv"

	"github.com/vango-dev/overlay/pkg/render"
	"github.com/vango-dev/overlay/pkg/vdom"
)

// Stylesheet styles the markup produced by PrettyHTML. It is scoped to the
// d2h-wrapper class.
const Stylesheet = `.d2h-wrapper{font-family:ui-monospace,SFMono-Regular,Menlo,monospace;font-size:12px;text-align:left}
.d2h-file-header{padding:4px 8px;border-bottom:1px solid #d8d8d8;font-weight:600}
.d2h-diff-table{width:100%;border-collapse:collapse}
.d2h-code-linenumber{width:1%;min-width:5em;padding:0 4px;color:#8a8a8a;text-align:right;user-select:none;white-space:nowrap}
.d2h-code-linenumber div{display:inline-block;width:2.5em}
.d2h-code-line{padding:0 8px;white-space:pre}
.d2h-code-line-prefix{display:inline-block;width:1em;user-select:none}
.d2h-del{background-color:#fee8e9}
.d2h-ins{background-color:#dfd}
.d2h-info{background-color:#f8fafd;color:#8a8a8a}
.d2h-cntx{background-color:#fff}`

var prettyRenderer = render.NewRenderer(render.RendererConfig{})

// PrettyHTML diffs old against new and renders the result as a
// self-contained line-by-line HTML fragment. It returns "" when either side
// is empty.
func PrettyHTML(old, new string, opts Options) (string, error) {
	res, err := Compute(old, new, opts)
	if err != nil || res == nil {
		return "", err
	}
	return prettyRenderer.RenderToString(PrettyView(res.Files, opts))
}

// WritePrettyHTML is like PrettyHTML but streams the fragment to w.
func WritePrettyHTML(w io.Writer, old, new string, opts Options) error {
	res, err := Compute(old, new, opts)
	if err != nil || res == nil {
		return err
	}
	return prettyRenderer.RenderToWriter(w, PrettyView(res.Files, opts))
}

// PrettyView builds the line-by-line tree for already parsed files.
func PrettyView(files []File, opts Options) *vdom.VNode {
	opts = opts.normalize()
	return vdom.Div(
		vdom.Class("d2h-wrapper"),
		vdom.Data("overlay-diff", "pretty"),
		vdom.If(len(files) == 0, prettyFile(File{
			OldPath: opts.FromFile,
			NewPath: opts.ToFile,
		})),
		vdom.Range(files, func(f File, _ int) *vdom.VNode {
			return prettyFile(f)
		}),
	)
}

func prettyFile(f File) *vdom.VNode {
	var rows []*vdom.VNode
	for _, h := range f.Hunks {
		rows = append(rows, prettyInfoRow(h.Content))
		for _, c := range h.Changes {
			rows = append(rows, prettyChangeRow(c))
		}
	}
	if len(rows) == 0 {
		rows = append(rows, prettyInfoRow("File without changes"))
	}

	return vdom.Div(
		vdom.Class("d2h-file-wrapper"),
		vdom.Data("lang", "html"),
		vdom.Div(
			vdom.Class("d2h-file-header"),
			vdom.Span(vdom.Class("d2h-file-name"), f.OldPath+" → "+f.NewPath),
		),
		vdom.Div(
			vdom.Class("d2h-file-diff"),
			vdom.Div(
				vdom.Class("d2h-code-wrapper"),
				vdom.Table(
					vdom.Class("d2h-diff-table"),
					vdom.Tbody(vdom.Class("d2h-diff-tbody"), rows),
				),
			),
		),
	)
}

func prettyInfoRow(text string) *vdom.VNode {
	return vdom.Tr(
		vdom.Td(vdom.Class("d2h-code-linenumber", "d2h-info")),
		vdom.Td(vdom.Class("d2h-info"), vdom.Div(vdom.Class("d2h-code-line"), text)),
	)
}

func prettyChangeRow(c Change) *vdom.VNode {
	class, prefix := "d2h-cntx", " "
	switch c.Type {
	case ChangeDelete:
		class, prefix = "d2h-del", "-"
	case ChangeInsert:
		class, prefix = "d2h-ins", "+"
	}

	return vdom.Tr(
		vdom.Td(
			vdom.Class("d2h-code-linenumber", class),
			vdom.Div(vdom.Class("line-num1"), lineNumber(c.OldLineNumber)),
			vdom.Div(vdom.Class("line-num2"), lineNumber(c.NewLineNumber)),
		),
		vdom.Td(
			vdom.Class(class),
			vdom.Div(
				vdom.Class("d2h-code-line"),
				vdom.Span(vdom.Class("d2h-code-line-prefix"), prefix),
				vdom.Span(vdom.Class("d2h-code-line-ctn"), c.Content),
			),
		),
	)
}

func lineNumber(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
