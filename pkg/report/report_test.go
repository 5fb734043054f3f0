package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/vango-dev/overlay/pkg/framework"
	"github.com/vango-dev/overlay/pkg/htmldiff"
	"github.com/vango-dev/overlay/pkg/stackframe"
	"github.com/vango-dev/overlay/pkg/vdom"
)

func userFrame(method string, expanded bool) stackframe.Frame {
	return stackframe.Frame{
		Source:   stackframe.Location{File: "webpack-internal:///./app/" + method + ".js", MethodName: method},
		Expanded: expanded,
	}
}

func reactFrame(method string) stackframe.Frame {
	return stackframe.Frame{
		Source: stackframe.Location{File: "/app/node_modules/react-dom/cjs/react-dom.development.js", MethodName: method},
	}
}

func anchorFrame(method string) stackframe.Frame {
	return stackframe.Frame{
		Source:    stackframe.Location{File: "webpack-internal:///./app/page.js", MethodName: method},
		Original:  &stackframe.Location{File: "app/page.js", MethodName: method, LineNumber: 5, Column: 11},
		CodeFrame: "\u001b[31m>\u001b[39m 5 | throw new Error('boom')",
		Expanded:  true,
	}
}

func noise() stackframe.Frame {
	return stackframe.Frame{Source: stackframe.Location{File: stackframe.AnonymousFile, MethodName: "stringify"}}
}

func renderHTML(t *testing.T, r *Report) string {
	t.Helper()
	html, err := r.HTML()
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	return html
}

func TestScenarioAnchorOnly(t *testing.T) {
	r := New(RuntimeError{
		Name:    "Error",
		Message: "boom",
		Frames:  []stackframe.Frame{noise(), anchorFrame("Page")},
	})

	p := r.Partition()
	if !p.HasAnchor() || p.First.Source.MethodName != "Page" {
		t.Fatalf("anchor = %+v, want Page", p.First)
	}
	if len(p.Leading) != 0 || len(p.CallStack) != 0 {
		t.Errorf("Leading = %d, CallStack = %d; want 0, 0", len(p.Leading), len(p.CallStack))
	}
	if r.ShowAll() {
		t.Error("ShowAll should start false when an anchor exists")
	}

	v := r.View()
	if !v.HasSource() || v.HasCallStack() || v.CanShowMore {
		t.Errorf("view = source %v, call stack %v, can show more %v", v.HasSource(), v.HasCallStack(), v.CanShowMore)
	}

	html := renderHTML(t, r)
	if !strings.Contains(html, "<h2>Source</h2>") {
		t.Error("Source section missing")
	}
	if strings.Contains(html, "Call Stack") || strings.Contains(html, ToggleAttr) {
		t.Error("Call Stack section and toggle should be omitted")
	}
	if !strings.Contains(html, "app/page.js (5:11) @ Page") {
		t.Error("code frame header missing")
	}
	if strings.Contains(html, "\u001b[") {
		t.Error("code frame still contains ANSI escapes")
	}
}

func TestScenarioNoAnchor(t *testing.T) {
	frames := []stackframe.Frame{userFrame("a", false), reactFrame("render"), userFrame("b", true)}
	r := New(RuntimeError{Message: "boom", Frames: frames})

	if r.Partition().HasAnchor() {
		t.Fatal("unexpected anchor")
	}
	if !r.ShowAll() {
		t.Error("ShowAll should start true without an anchor")
	}

	v := r.View()
	if v.HasSource() {
		t.Error("Source section should be omitted")
	}
	if got := framework.Flatten(v.CallStackGroups); !reflect.DeepEqual(got, frames) {
		t.Errorf("call stack = %+v, want every filtered frame", got)
	}
	if v.CanShowMore {
		t.Error("nothing is hidden and there is no anchor, so no toggle")
	}

	html := renderHTML(t, r)
	if strings.Contains(html, "<h2>Source</h2>") {
		t.Error("Source section should not render")
	}
	if !strings.Contains(html, "<h2>Call Stack</h2>") {
		t.Error("Call Stack section missing")
	}
}

func TestToggle(t *testing.T) {
	frames := []stackframe.Frame{
		userFrame("lead1", false),
		userFrame("lead2", true),
		anchorFrame("Page"),
		reactFrame("beginWork"),
		userFrame("tail", true),
		reactFrame("commit"),
	}
	r := New(RuntimeError{Message: "boom", Frames: frames})

	collapsed := r.View()
	if collapsed.ShowAll || !collapsed.CanShowMore {
		t.Fatalf("collapsed view = %+v", collapsed)
	}
	if collapsed.ToggleLabel() != "Show collapsed frames" {
		t.Errorf("ToggleLabel() = %q", collapsed.ToggleLabel())
	}
	if framework.Count(collapsed.LeadingGroups) != 1 || framework.Count(collapsed.CallStackGroups) != 1 {
		t.Errorf("collapsed counts = %d, %d; want 1, 1",
			framework.Count(collapsed.LeadingGroups), framework.Count(collapsed.CallStackGroups))
	}

	if !r.Toggle() {
		t.Fatal("Toggle() should return true")
	}
	expanded := r.View()
	if framework.Count(expanded.LeadingGroups) != 2 || framework.Count(expanded.CallStackGroups) != 3 {
		t.Errorf("expanded counts = %d, %d; want 2, 3",
			framework.Count(expanded.LeadingGroups), framework.Count(expanded.CallStackGroups))
	}
	if !expanded.CanShowMore || expanded.ToggleLabel() != "Hide collapsed frames" {
		t.Errorf("expanded toggle = %v %q", expanded.CanShowMore, expanded.ToggleLabel())
	}

	r.Toggle()
	again := r.View()
	if !reflect.DeepEqual(again.LeadingGroups, collapsed.LeadingGroups) ||
		!reflect.DeepEqual(again.CallStackGroups, collapsed.CallStackGroups) {
		t.Error("toggling back did not restore the collapsed view")
	}
}

func TestToggleMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		var frames []stackframe.Frame
		for i := rng.Intn(10); i >= 0; i-- {
			switch rng.Intn(4) {
			case 0:
				frames = append(frames, anchorFrame(fmt.Sprintf("a%d", i)))
			case 1:
				frames = append(frames, reactFrame(fmt.Sprintf("r%d", i)))
			case 2:
				frames = append(frames, noise())
			default:
				frames = append(frames, userFrame(fmt.Sprintf("u%d", i), rng.Intn(2) == 0))
			}
		}

		r := New(RuntimeError{Message: "x", Frames: frames}, WithShowAll(false))
		before := r.View()
		r.SetShowAll(true)
		after := r.View()
		r.SetShowAll(false)
		restored := r.View()

		if framework.Count(after.LeadingGroups) < framework.Count(before.LeadingGroups) ||
			framework.Count(after.CallStackGroups) < framework.Count(before.CallStackGroups) {
			t.Fatalf("run %d: expanding shrank the visible set", run)
		}
		if !reflect.DeepEqual(restored, before) {
			t.Fatalf("run %d: collapsed set not restored", run)
		}
	}
}

func TestGroupingUsesVisibleFrames(t *testing.T) {
	var seen []string
	c := framework.ClassifierFunc(func(f stackframe.Frame) framework.Framework {
		seen = append(seen, f.Source.MethodName)
		return framework.User
	})

	frames := []stackframe.Frame{
		userFrame("hiddenLead", false),
		anchorFrame("Page"),
		userFrame("visible", true),
		userFrame("hidden", false),
	}
	r := New(RuntimeError{Message: "x", Frames: frames}, WithClassifier(c))
	r.View()

	if !reflect.DeepEqual(seen, []string{"visible"}) {
		t.Errorf("classified %v, want only the visible frame", seen)
	}
}

func TestFrameworkGroupsRender(t *testing.T) {
	frames := []stackframe.Frame{
		anchorFrame("Page"),
		reactFrame("beginWork"),
		reactFrame("performUnitOfWork"),
		userFrame("helper", true),
		{
			Source:   stackframe.Location{File: "webpack-internal:///./app/util.js", MethodName: "mapped"},
			Original: &stackframe.Location{File: "app/util.js", MethodName: "mapped", LineNumber: 2},
		},
	}
	r := New(RuntimeError{Message: "x", Frames: frames}, WithShowAll(true))

	v := r.View()
	if len(v.CallStackGroups) != 2 || v.CallStackGroups[0].Framework != framework.React {
		t.Fatalf("groups = %+v", v.CallStackGroups)
	}

	node := r.Node()
	details := node.Find(func(n *vdom.VNode) bool { return n.Tag == "details" })
	if len(details) != 1 {
		t.Fatalf("details = %d, want 1", len(details))
	}
	if got := details[0].TextContent(); !strings.Contains(got, "React") || !strings.Contains(got, "performUnitOfWork") {
		t.Errorf("details text = %q", got)
	}

	html := renderHTML(t, r)
	if !strings.Contains(html, `data-overlay-collapsed-call-stack-details open`) {
		t.Errorf("framework group should be open when showing all: %s", html)
	}
	if !strings.Contains(html, `data-has-source="true"`) {
		t.Error("source-mapped frames should be marked as having source")
	}
}

func TestHydrationDiff(t *testing.T) {
	frames := []stackframe.Frame{anchorFrame("Page")}

	t.Run("one changed line", func(t *testing.T) {
		r := New(RuntimeError{Message: "x", Frames: frames},
			WithHydrationDiff(HydrationDiff{SSRHTML: "<div>A</div>", CSRHTML: "<div>B</div>"}))
		v := r.View()
		if v.Diff == nil || v.Diff.HunkCount() != 1 {
			t.Fatalf("Diff = %+v, want one hunk", v.Diff)
		}
		var changed int
		for _, c := range v.Diff.Files[0].Hunks[0].Changes {
			if c.Type == htmldiff.ChangeDelete {
				changed++
			}
		}
		if changed != 1 {
			t.Errorf("changed lines = %d, want 1", changed)
		}

		html := renderHTML(t, r)
		if !strings.Contains(html, `class="diff diff-split"`) {
			t.Error("split diff missing from Source section")
		}
	})

	t.Run("identical markup", func(t *testing.T) {
		r := New(RuntimeError{Message: "x", Frames: frames},
			WithHydrationDiff(HydrationDiff{SSRHTML: "<div>A</div>", CSRHTML: "<div>A</div>"}))
		if v := r.View(); v.Diff == nil || v.Diff.HunkCount() != 0 {
			t.Errorf("Diff = %+v, want zero hunks", v.Diff)
		}
	})

	t.Run("missing side", func(t *testing.T) {
		r := New(RuntimeError{Message: "x", Frames: frames},
			WithHydrationDiff(HydrationDiff{SSRHTML: "<div>A</div>"}))
		if v := r.View(); v.Diff != nil {
			t.Errorf("Diff = %+v, want nil", v.Diff)
		}
		if html := renderHTML(t, r); strings.Contains(html, "data-overlay-hydration-diff") {
			t.Error("diff section should be omitted")
		}
	})

	t.Run("no anchor", func(t *testing.T) {
		r := New(RuntimeError{Message: "x", Frames: []stackframe.Frame{userFrame("a", true)}},
			WithHydrationDiff(HydrationDiff{SSRHTML: "a", CSRHTML: "b"}))
		if v := r.View(); v.Diff != nil {
			t.Error("diff belongs to the Source section and should be omitted without an anchor")
		}
	})

	t.Run("recomputed per view", func(t *testing.T) {
		r := New(RuntimeError{Message: "x", Frames: frames},
			WithHydrationDiff(HydrationDiff{SSRHTML: "a", CSRHTML: "b"}))
		first, second := r.View().Diff, r.View().Diff
		if first == second {
			t.Error("View should produce a fresh diff result")
		}
		if first.Text != second.Text {
			t.Error("diff text differs between views")
		}
	})
}

func TestPrettyDiffContainer(t *testing.T) {
	r := New(RuntimeError{Message: "x", Frames: []stackframe.Frame{anchorFrame("Page")}},
		WithHydrationDiff(HydrationDiff{SSRHTML: "<div>A</div>", CSRHTML: "<div>B</div>"}),
		WithDiffView(DiffViewPretty),
		WithContainerID("diff-root"))

	first := renderHTML(t, r)
	content := r.Container().HTML()
	second := renderHTML(t, r)

	if first != second {
		t.Error("rendering twice produced different output")
	}
	if r.Container().HTML() != content {
		t.Error("container content changed between renders")
	}
	if r.Container().Writes() != 2 {
		t.Errorf("Writes() = %d, want 2", r.Container().Writes())
	}
	if strings.Count(second, `class="d2h-wrapper"`) != 1 {
		t.Error("pretty diff duplicated in output")
	}
	if !strings.Contains(second, `id="diff-root"`) {
		t.Error("container id missing")
	}
}

func TestComponentStack(t *testing.T) {
	r := New(RuntimeError{
		Message: "x",
		Frames:  []stackframe.Frame{anchorFrame("Page")},
		ComponentStackFrames: []ComponentStackFrame{
			{Component: "Page", File: "app/page.js", LineNumber: 5, Column: 11, CanOpenInEditor: true},
			{Component: "Layout"},
		},
	})

	html := renderHTML(t, r)
	for _, want := range []string{"<h2>Component Stack</h2>", "<h3>Page</h3>", "app/page.js (5:11)", "<h3>Layout</h3>"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}

	bare := New(RuntimeError{Message: "x", Frames: []stackframe.Frame{anchorFrame("Page")}})
	if strings.Contains(renderHTML(t, bare), "Component Stack") {
		t.Error("Component Stack should be omitted when absent")
	}
}

func TestEmptyFrames(t *testing.T) {
	r := New(RuntimeError{Message: "x", Frames: []stackframe.Frame{noise()}})
	v := r.View()
	if v.HasSource() || v.HasCallStack() || v.CanShowMore {
		t.Errorf("empty view = %+v", v)
	}
	if _, err := r.HTML(); err != nil {
		t.Errorf("HTML() error = %v", err)
	}
}

func TestDiffSplitTags(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	r := New(RuntimeError{ID: 3, Message: "x", Frames: []stackframe.Frame{anchorFrame("Page")}},
		WithHydrationDiff(HydrationDiff{SSRHTML: "<p>a</p>", CSRHTML: "<p>b</p>"}),
		WithDiffOptions(htmldiff.Options{SplitTags: true}),
		WithLogger(logger))

	v := r.View()
	if v.Diff == nil {
		t.Fatal("Diff = nil")
	}
	if !strings.Contains(v.Diff.Text, "\n-a\n+b\n") {
		t.Errorf("diff text = %q, want the text node on its own line", v.Diff.Text)
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected log output: %s", logs.String())
	}
}

func TestCustomCodeFrameRenderer(t *testing.T) {
	var got stackframe.Location
	cf := CodeFrameRendererFunc(func(loc stackframe.Location, code string) *vdom.VNode {
		got = loc
		return vdom.Div(vdom.ID("custom"), code)
	})
	r := New(RuntimeError{Message: "x", Frames: []stackframe.Frame{anchorFrame("Page")}}, WithCodeFrameRenderer(cf))

	if html := renderHTML(t, r); !strings.Contains(html, `id="custom"`) {
		t.Error("custom code frame renderer not used")
	}
	if got.File != "app/page.js" {
		t.Errorf("renderer got %+v, want the source-mapped location", got)
	}
}

func TestWriteText(t *testing.T) {
	frames := []stackframe.Frame{
		anchorFrame("Page"),
		reactFrame("beginWork"),
		userFrame("hidden", false),
	}
	r := New(RuntimeError{Name: "Error", Message: "boom", Frames: frames},
		WithHydrationDiff(HydrationDiff{SSRHTML: "<div>A</div>", CSRHTML: "<div>B</div>"}))

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Error: boom",
		"Source",
		"app/page.js (5:11) @ Page",
		"> 5 | throw new Error('boom')",
		"Hydration diff (server → client)",
		"-<div>A</div>",
		"+<div>B</div>",
		"2 collapsed frames hidden",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("WriteText() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Call Stack") {
		t.Error("Call Stack should be omitted when every call-stack frame is collapsed")
	}
}

func TestDecodeInput(t *testing.T) {
	doc := `{
  "error": {
    "id": 1,
    "name": "Error",
    "message": "Hydration failed",
    "frames": [
      {"sourceStackFrame": {"file": "<anonymous>", "methodName": "stringify"}, "expanded": false},
      {"sourceStackFrame": {"file": "webpack-internal:///./app/page.js", "methodName": "Page"},
       "originalStackFrame": {"file": "app/page.js", "methodName": "Page", "lineNumber": 5, "column": 11},
       "originalCodeFrame": "> 5 | x", "expanded": true}
    ],
    "componentStackFrames": [{"component": "Page"}]
  },
  "hydration": {"ssrHtml": "<div>A</div>", "csrHtml": "<div>B</div>"}
}`
	in, err := DecodeInput(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(in.Error.Frames) != 2 || in.Error.Frames[1].Original.LineNumber != 5 {
		t.Errorf("frames = %+v", in.Error.Frames)
	}
	if !in.Hydration.Complete() {
		t.Error("hydration should be complete")
	}

	r := New(in.Error, in.Options()...)
	if v := r.View(); v.Diff == nil || v.Diff.HunkCount() != 1 {
		t.Errorf("decoded report diff = %+v", v.Diff)
	}

	for _, bad := range []string{`{`, `{"error": 1}`, `{}`} {
		if _, err := DecodeInput(strings.NewReader(bad)); err == nil {
			t.Errorf("DecodeInput(%q) should fail", bad)
		}
	}
}

func TestParseDiffView(t *testing.T) {
	tests := map[string]DiffView{"": DiffViewSplit, "split": DiffViewSplit, "pretty": DiffViewPretty}
	for in, want := range tests {
		if got, ok := ParseDiffView(in); !ok || got != want {
			t.Errorf("ParseDiffView(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseDiffView("unified"); ok {
		t.Error("ParseDiffView(unified) should fail")
	}
}

func TestStripANSI(t *testing.T) {
	in := "\u001b[0m\u001b[31m\u001b[1m>\u001b[22m\u001b[39m 1 | \u001b[36mconst\u001b[39m x"
	if got := StripANSI(in); got != "> 1 | const x" {
		t.Errorf("StripANSI() = %q", got)
	}
}
