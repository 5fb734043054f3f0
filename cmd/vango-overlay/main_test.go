package main

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"

	"github.com/vango-dev/overlay/internal/errors"
	"github.com/vango-dev/overlay/pkg/report"
)

const inputDoc = `{
  "error": {
    "id": 1,
    "name": "Error",
    "message": "Hydration failed",
    "frames": [
      {"sourceStackFrame": {"file": "<anonymous>", "methodName": "stringify"}},
      {"sourceStackFrame": {"file": "webpack-internal:///./app/page.js", "methodName": "Page"},
       "originalStackFrame": {"file": "app/page.js", "methodName": "Page", "lineNumber": 5, "column": 11},
       "originalCodeFrame": "> 5 | return <div>{Date.now()}</div>", "expanded": true},
      {"sourceStackFrame": {"file": "/app/node_modules/react-dom/cjs/react-dom.development.js", "methodName": "beginWork"}}
    ]
  },
  "hydration": {"ssrHtml": "<div>A</div>", "csrHtml": "<div>B</div>"}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRenderText(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "error.json", inputDoc)
	cfg := writeFile(t, dir, "overlay.json", `{}`)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "collapsed",
			args:    []string{"render", "-c", cfg, "--input", input},
			want:    []string{"Error: Hydration failed", "app/page.js (5:11) @ Page", "-<div>A</div>", "1 collapsed frames hidden"},
			notWant: []string{"Call Stack"},
		},
		{
			name: "show all",
			args: []string{"render", "-c", cfg, "--input", input, "--show-all"},
			want: []string{"Call Stack", "▸ React (1)", "beginWork"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("render error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q", w)
				}
			}
		})
	}
}

func TestRenderHTMLToFile(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "error.json", inputDoc)
	cfg := writeFile(t, dir, "overlay.json", `{}`)
	out := filepath.Join(dir, "report.html")

	_, stderr, err := run(t, "render", "-c", cfg, "--input", input, "--format", "html", "--view", "pretty", "--out", out)
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	if !strings.Contains(stderr, "Wrote "+out) {
		t.Errorf("stderr = %q", stderr)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	page := string(data)
	for _, want := range []string{"<!DOCTYPE html>", `id="overlay-root"`, "d2h-wrapper", "Show collapsed frames"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(page, "/_overlay/reload") {
		t.Error("static page should not carry the live client")
	}
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "error.json", inputDoc)
	cfg := writeFile(t, dir, "overlay.json", `{}`)
	badCfg := writeFile(t, dir, "bad.json", `{"report": {"diffView": "unified", "diffContext": -1}}`)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"format", []string{"render", "-c", cfg, "--input", input, "--format", "pdf"}, "E143"},
		{"view", []string{"render", "-c", cfg, "--input", input, "--view", "unified"}, "E147"},
		{"missing input", []string{"render", "-c", cfg, "--input", filepath.Join(dir, "nope.json")}, "E141"},
		{"missing config", []string{"render", "-c", filepath.Join(dir, "nope.toml"), "--input", input}, "E120"},
		{"invalid config", []string{"render", "-c", badCfg, "--input", input}, "E122"},
		{"out not writable", []string{"render", "-c", cfg, "--input", input, "--out", filepath.Join(dir, "missing", "r.txt")}, "E144"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDiff(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "overlay.json", `{}`)
	server := writeFile(t, dir, "server.html", "<div>A</div>\n")
	client := writeFile(t, dir, "client.html", "<div>B</div>\n")

	out, _, err := run(t, "diff", "-c", cfg, server, client)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"--- server", "+++ client", "@@ -1 +1 @@", "-<div>A</div>", "+<div>B</div>"} {
		if !strings.Contains(out, want) {
			t.Errorf("diff missing %q:\n%s", want, out)
		}
	}

	out, _, err = run(t, "diff", "-c", cfg, "--split-tags", server, client)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "-A\n+B\n") {
		t.Errorf("split-tags diff = %q", out)
	}

	out, _, err = run(t, "diff", "-c", cfg, "--html", server, client)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `class="d2h-wrapper"`) {
		t.Errorf("html diff = %q", out)
	}

	out, stderr, err := run(t, "diff", "-c", cfg, server, server)
	if err != nil || out != "" || !strings.Contains(stderr, "No differences.") {
		t.Errorf("identical diff = %q, %q, %v", out, stderr, err)
	}

	if _, _, err := run(t, "diff", "-c", cfg, server, filepath.Join(dir, "nope.html")); !errors.Is(err, "E145") {
		t.Errorf("error = %v, want E145", err)
	}
	if _, _, err := run(t, "diff", server); err == nil {
		t.Error("diff with one argument should fail")
	}
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version", "--short")
	if err != nil || strings.TrimSpace(out) != version {
		t.Errorf("version --short = %q, %v", out, err)
	}

	out, _, _ = run(t, "version")
	if !strings.Contains(out, "Go version:") {
		t.Errorf("version = %q", out)
	}
}

func TestPrintErrors(t *testing.T) {
	errors.DisableColors()
	defer errors.EnableColors()

	var merr error
	merr = multierror.Append(merr, errors.New("E122"), errors.New("E125"))

	var buf bytes.Buffer
	printErrors(&buf, merr)
	out := buf.String()
	if !strings.Contains(out, "E122") || !strings.Contains(out, "E125") {
		t.Errorf("printErrors() = %q, want both codes", out)
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	out, _, err := run(t, "init", dir, "--view", "pretty", "--port", "4100", "--framework", "Remix=@remix-run/.*")
	if err != nil {
		t.Fatalf("init error = %v", err)
	}
	if !strings.Contains(out, "Created "+filepath.Join(dir, "overlay.toml")) || !strings.Contains(out, "Next steps:") {
		t.Errorf("init output = %q", out)
	}

	cfgPath := filepath.Join(dir, "overlay.toml")
	out, _, err = run(t, "render", "-c", cfgPath, "--input", filepath.Join(dir, "error.json"))
	if err != nil {
		t.Fatalf("render scaffold error = %v", err)
	}
	if !strings.Contains(out, "app/page.js (5:11) @ Page") {
		t.Errorf("render scaffold = %q", out)
	}

	if _, _, err := run(t, "init", dir); !errors.Is(err, "E152") {
		t.Errorf("second init error = %v, want E152", err)
	}
	if _, _, err := run(t, "init", dir, "--force", "--template", "json"); err != nil {
		t.Errorf("init --force error = %v", err)
	}

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"template", []string{"init", t.TempDir(), "--template", "yaml"}, "E151"},
		{"view", []string{"init", t.TempDir(), "--view", "unified"}, "E147"},
		{"framework", []string{"init", t.TempDir(), "--framework", "Remix"}, "E124"},
		{"framework regexp", []string{"init", t.TempDir(), "--framework", "Remix=("}, "E124"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

type closeErrWriter struct {
	bytes.Buffer
	closeErr error
	closed   bool
}

func (w *closeErrWriter) Close() error {
	w.closed = true
	return w.closeErr
}

type failingWriter struct{ closed bool }

func (w *failingWriter) Write(p []byte) (int, error) { return 0, stderrors.New("disk full") }

func (w *failingWriter) Close() error {
	w.closed = true
	return nil
}

func TestWriteReportFile(t *testing.T) {
	r := report.New(report.RuntimeError{ID: 1, Name: "Error", Message: "boom"})

	t.Run("ok", func(t *testing.T) {
		w := &closeErrWriter{}
		if err := writeReportFile(w, "r.txt", r, "text"); err != nil {
			t.Fatalf("writeReportFile() error = %v", err)
		}
		if !w.closed || !strings.Contains(w.String(), "Error: boom") {
			t.Errorf("closed = %v, output = %q", w.closed, w.String())
		}
	})

	t.Run("close error", func(t *testing.T) {
		w := &closeErrWriter{closeErr: stderrors.New("flush failed")}
		err := writeReportFile(w, "r.txt", r, "text")
		if !errors.Is(err, "E144") {
			t.Errorf("writeReportFile() error = %v, want E144", err)
		}
	})

	t.Run("write error", func(t *testing.T) {
		w := &failingWriter{}
		err := writeReportFile(w, "r.txt", r, "text")
		if !errors.Is(err, "E148") {
			t.Errorf("writeReportFile() error = %v, want E148", err)
		}
		if !w.closed {
			t.Error("file should be closed after a failed write")
		}
	})
}
