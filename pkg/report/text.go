package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/vango-dev/overlay/pkg/framework"
	"github.com/vango-dev/overlay/pkg/htmldiff"
)

// WriteText writes the report for the current toggle state in a terminal
// friendly form. Sections and omissions follow the HTML rendering.
func (r *Report) WriteText(w io.Writer) error {
	v := r.View()
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s\n", r.err.Title())

	if v.HasSource() {
		fmt.Fprintf(bw, "\nSource\n")
		writeGroupsText(bw, v.LeadingGroups)
		loc := v.First.Display()
		fmt.Fprintf(bw, "  %s\n", CodeFrameHeader(loc))
		if v.First.HasCodeFrame() {
			for _, line := range strings.Split(strings.TrimRight(StripANSI(v.First.CodeFrame), " \n"), "\n") {
				fmt.Fprintf(bw, "    %s\n", line)
			}
		}
		if v.Diff != nil {
			writeDiffText(bw, v.Diff, r.diffOpts)
		}
	}

	if v.ComponentStack != nil {
		fmt.Fprintf(bw, "\nComponent Stack\n")
		for _, c := range v.ComponentStack {
			if loc := c.Location(); loc != nil {
				fmt.Fprintf(bw, "  %s  %s\n", c.Component, loc)
				continue
			}
			fmt.Fprintf(bw, "  %s\n", c.Component)
		}
	}

	if v.HasCallStack() {
		fmt.Fprintf(bw, "\nCall Stack\n")
		writeGroupsText(bw, v.CallStackGroups)
	}

	if v.CanShowMore && !v.ShowAll {
		hidden := len(r.partition.Leading) + len(r.partition.CallStack) -
			framework.Count(v.LeadingGroups) - framework.Count(v.CallStackGroups)
		fmt.Fprintf(bw, "\n%d collapsed frames hidden\n", hidden)
	}

	return bw.Flush()
}

func writeGroupsText(w io.Writer, groups []framework.Group) {
	for _, g := range groups {
		indent := "  "
		if !g.Framework.IsUser() {
			fmt.Fprintf(w, "  ▸ %s (%d)\n", g.Framework.Label(), len(g.Frames))
			indent = "      "
		}
		for _, f := range g.Frames {
			loc := f.Display()
			fmt.Fprintf(w, "%s%s\n", indent, loc.Method())
			if loc.HasFile() {
				fmt.Fprintf(w, "%s  %s\n", indent, loc)
			}
		}
	}
}

func writeDiffText(w io.Writer, res *htmldiff.Result, opts htmldiff.Options) {
	from, to := opts.FromFile, opts.ToFile
	if from == "" {
		from = htmldiff.DefaultFromLabel
	}
	if to == "" {
		to = htmldiff.DefaultToLabel
	}
	fmt.Fprintf(w, "\n  Hydration diff (%s → %s)\n", from, to)
	if res.HunkCount() == 0 {
		fmt.Fprintf(w, "    (no differences)\n")
		return
	}
	for _, f := range res.Files {
		for _, h := range f.Hunks {
			fmt.Fprintf(w, "    %s\n", h.Content)
			for _, c := range h.Changes {
				prefix := " "
				switch c.Type {
				case htmldiff.ChangeInsert:
					prefix = "+"
				case htmldiff.ChangeDelete:
					prefix = "-"
				}
				fmt.Fprintf(w, "    %s%s\n", prefix, c.Content)
			}
		}
	}
}
