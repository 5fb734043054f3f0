package htmldiff

import (
	"strconv"

	"github.com/vango-dev/overlay/pkg/vdom"
)

// SplitStylesheet styles the markup produced by SplitView.
const SplitStylesheet = `.diff-view{overflow:auto;font-family:ui-monospace,SFMono-Regular,Menlo,monospace;font-size:12px}
.diff{width:100%;border-collapse:collapse;table-layout:fixed}
.diff-gutter-col{width:4em}
.diff-decoration{background-color:#f1f8ff;color:#57606a}
.diff-decoration-content{padding:2px 8px}
.diff-gutter{padding:0 6px;color:#8a8a8a;text-align:right;user-select:none}
.diff-code{padding:0 8px;white-space:pre-wrap;word-break:break-all}
.diff-gutter-delete,.diff-code-delete{background-color:#ffebe9}
.diff-gutter-insert,.diff-code-insert{background-color:#e6ffec}
.diff-gutter-omit,.diff-code-omit{background-color:#f6f8fa}`

// Row is one line of a side-by-side view. Either side may be nil when a
// deletion or insertion has no counterpart.
type Row struct {
	Old *Change
	New *Change
}

// SplitRows pairs a hunk's changes into side-by-side rows. Unchanged lines
// occupy both sides. A run of deletions is zipped with the run of insertions
// that follows it; the longer run's leftover lines get an empty counterpart.
func SplitRows(h Hunk) []Row {
	var rows []Row
	changes := h.Changes

	for i := 0; i < len(changes); {
		c := &changes[i]
		if c.Type == ChangeNormal {
			rows = append(rows, Row{Old: c, New: c})
			i++
			continue
		}

		var dels, ins []*Change
		for i < len(changes) && changes[i].Type == ChangeDelete {
			dels = append(dels, &changes[i])
			i++
		}
		for i < len(changes) && changes[i].Type == ChangeInsert {
			ins = append(ins, &changes[i])
			i++
		}

		n := max(len(dels), len(ins))
		for j := 0; j < n; j++ {
			var row Row
			if j < len(dels) {
				row.Old = dels[j]
			}
			if j < len(ins) {
				row.New = ins[j]
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// SplitView renders files as two-column tables, old on the left and new on
// the right. Each file table is keyed by its revisions and each hunk body by
// its header.
func SplitView(files []File) *vdom.VNode {
	return vdom.Div(
		vdom.Class("diff-view"),
		vdom.Data("overlay-diff", "split"),
		vdom.Range(files, func(f File, _ int) *vdom.VNode {
			return splitFile(f)
		}),
	)
}

func splitFile(f File) *vdom.VNode {
	return vdom.Table(
		vdom.Key(f.Key()),
		vdom.Class("diff", "diff-split"),
		vdom.Colgroup(
			vdom.Col(vdom.Class("diff-gutter-col")),
			vdom.Col(),
			vdom.Col(vdom.Class("diff-gutter-col")),
			vdom.Col(),
		),
		vdom.Range(f.Hunks, func(h Hunk, _ int) *vdom.VNode {
			return splitHunk(h)
		}),
	)
}

func splitHunk(h Hunk) *vdom.VNode {
	rows := []*vdom.VNode{
		vdom.Tr(
			vdom.Class("diff-decoration"),
			vdom.Td(vdom.ColSpan(4), vdom.Class("diff-decoration-content"), h.Content),
		),
	}
	for _, row := range SplitRows(h) {
		rows = append(rows, vdom.Tr(
			vdom.Class("diff-line"),
			splitSide(row.Old, true),
			splitSide(row.New, false),
		))
	}

	return vdom.Tbody(
		vdom.Key(h.Content),
		vdom.Class("diff-hunk"),
		rows,
	)
}

func splitSide(c *Change, old bool) []*vdom.VNode {
	if c == nil {
		return []*vdom.VNode{
			vdom.Td(vdom.Class("diff-gutter", "diff-gutter-omit")),
			vdom.Td(vdom.Class("diff-code", "diff-code-omit")),
		}
	}

	line := c.NewLineNumber
	if old {
		line = c.OldLineNumber
	}
	kind := string(c.Type)
	return []*vdom.VNode{
		vdom.Td(vdom.Class("diff-gutter", "diff-gutter-"+kind), strconv.Itoa(line)),
		vdom.Td(vdom.Class("diff-code", "diff-code-"+kind), c.Content),
	}
}
