package dev

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/overlay/internal/config"
	"github.com/vango-dev/overlay/internal/errors"
	"github.com/vango-dev/overlay/pkg/report"
	"github.com/vango-dev/overlay/pkg/stackframe"
)

func testInput(message string) report.Input {
	return report.Input{
		Error: report.RuntimeError{
			ID:      1,
			Name:    "Error",
			Message: message,
			Frames: []stackframe.Frame{
				{Source: stackframe.Location{File: stackframe.AnonymousFile, MethodName: "stringify"}},
				{
					Source:    stackframe.Location{File: "webpack-internal:///./app/page.js", MethodName: "Page"},
					Original:  &stackframe.Location{File: "app/page.js", MethodName: "Page", LineNumber: 5, Column: 11},
					CodeFrame: "> 5 | throw new Error()",
					Expanded:  true,
				},
				{Source: stackframe.Location{File: "/app/node_modules/react-dom/cjs/react-dom.development.js", MethodName: "beginWork"}},
			},
		},
		Hydration: &report.HydrationDiff{SSRHTML: "<div>A</div>", CSRHTML: "<div>B</div>"},
	}
}

func writeInput(t *testing.T, path string, in report.Input) {
	t.Helper()
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "error.json")
	writeInput(t, path, testInput("boom"))

	s, err := NewServer(ServerOptions{
		Config:    cfg,
		InputPath: path,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(s.Stop)
	return s, path
}

func get(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer_Page(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := get(t, s.Handler(), http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Error: boom</title>",
		`<main id="overlay-root">`,
		"<h1>Error: boom</h1>",
		`data-overlay-hint="E040"`,
		"<h2>Source</h2>",
		`class="diff diff-split"`,
		"Show collapsed frames",
		"/_overlay/reload",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, "<h2>Call Stack</h2>") {
		t.Error("collapsed framework frame should not render a Call Stack section")
	}
}

func TestServer_Toggle(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()

	rec := get(t, h, http.MethodPost, "/_overlay/toggle")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	expanded := rec.Body.String()
	if !strings.Contains(expanded, "Hide collapsed frames") || !strings.Contains(expanded, "<h2>Call Stack</h2>") {
		t.Errorf("expanded fragment = %s", expanded)
	}

	if got := get(t, h, http.MethodGet, "/_overlay/report").Body.String(); got != expanded {
		t.Error("report fragment does not reflect the toggle")
	}

	get(t, h, http.MethodPost, "/_overlay/toggle")
	if got := get(t, h, http.MethodGet, "/_overlay/report").Body.String(); !strings.Contains(got, "Show collapsed frames") {
		t.Error("second toggle did not collapse frames")
	}

	if rec := get(t, h, http.MethodGet, "/_overlay/toggle"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET toggle status = %d, want 405", rec.Code)
	}
}

func TestServer_TextReport(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := get(t, s.Handler(), http.MethodGet, "/_overlay/report?format=text")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, "app/page.js (5:11) @ Page") {
		t.Errorf("text report = %s", body)
	}
}

func TestServer_ReloadOnChange(t *testing.T) {
	s, path := newTestServer(t, nil)
	h := s.Handler()

	get(t, h, http.MethodPost, "/_overlay/toggle")
	writeInput(t, path, testInput("second"))
	s.handleChanges(context.Background(), []Change{{Path: path, Type: ChangeInput}})

	body := get(t, h, http.MethodGet, "/_overlay/report").Body.String()
	if !strings.Contains(body, "Error: second") {
		t.Error("report was not reloaded")
	}
	if !strings.Contains(body, "Show collapsed frames") {
		t.Error("a new report should start from its default toggle state")
	}
}

func TestServer_LoadError(t *testing.T) {
	s, path := newTestServer(t, nil)

	if err := os.WriteFile(path, []byte(`{"error": {`), 0644); err != nil {
		t.Fatal(err)
	}
	err := s.Reload(context.Background())
	if !errors.Is(err, "E149") {
		t.Fatalf("Reload() error = %v, want E149", err)
	}

	body := get(t, s.Handler(), http.MethodGet, "/").Body.String()
	if !strings.Contains(body, `data-overlay-load-error="E149"`) {
		t.Errorf("page should show the load error: %s", body)
	}

	if rec := get(t, s.Handler(), http.MethodPost, "/_overlay/toggle"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("toggle status = %d, want 503", rec.Code)
	}

	os.Remove(path)
	if err := s.Reload(context.Background()); !errors.Is(err, "E141") {
		t.Errorf("Reload() error = %v, want E141", err)
	}
}

func TestServer_ConfigReload(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.TOMLFileName)
	cfg := config.New()
	if err := cfg.SaveTo(cfgPath); err != nil {
		t.Fatal(err)
	}
	s, _ := newTestServer(t, cfg)

	if body := get(t, s.Handler(), http.MethodGet, "/_overlay/report").Body.String(); strings.Contains(body, "d2h-wrapper") {
		t.Fatal("pretty diff rendered before config change")
	}

	changed := config.New()
	changed.Report.DiffView = config.DiffViewPretty
	if err := changed.SaveTo(cfgPath); err != nil {
		t.Fatal(err)
	}
	s.handleChanges(context.Background(), []Change{{Path: cfgPath, Type: ChangeConfig}})

	body := get(t, s.Handler(), http.MethodGet, "/_overlay/report").Body.String()
	if !strings.Contains(body, `id="overlay-hydration-diff"`) || !strings.Contains(body, "d2h-wrapper") {
		t.Errorf("pretty diff missing after config reload: %s", body)
	}
}

func TestServer_Metrics(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()
	get(t, h, http.MethodGet, "/")

	body := get(t, h, http.MethodGet, "/metrics").Body.String()
	for _, want := range []string{
		`overlay_http_requests_total{route="/",status="2xx"} 1`,
		`overlay_renders_total{format="html",status="success"}`,
		"overlay_diff_hunks_count",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}

	cfg := config.New()
	cfg.Dev.Metrics = false
	quiet, _ := newTestServer(t, cfg)
	if rec := get(t, quiet.Handler(), http.MethodGet, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("metrics status = %d, want 404 when disabled", rec.Code)
	}
}

func TestServer_InvalidConfig(t *testing.T) {
	cfg := config.New()
	cfg.Report.DiffView = "unified"
	if _, err := NewServer(ServerOptions{Config: cfg, InputPath: "missing.json"}); !errors.Is(err, "E122") {
		t.Errorf("NewServer() error = %v, want E122", err)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) ReloadMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ReloadMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func TestServer_ReloadChannel(t *testing.T) {
	var reloads, lastClients atomic.Int32
	path := filepath.Join(t.TempDir(), "error.json")
	writeInput(t, path, testInput("boom"))
	s, err := NewServer(ServerOptions{
		InputPath: path,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnReload: func(clients int) {
			reloads.Add(1)
			lastClients.Store(int32(clients))
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/_overlay/reload"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if msg := readMessage(t, conn); msg.Type != ReloadTypeClear {
		t.Fatalf("first message = %+v, want clear", msg)
	}

	res, err := http.Post(srv.URL+"/_overlay/toggle", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	fragment, _ := io.ReadAll(res.Body)
	res.Body.Close()

	msg := readMessage(t, conn)
	if msg.Type != ReloadTypeReport || !msg.ShowAll {
		t.Fatalf("message = %+v, want report with showAll", msg)
	}
	if msg.HTML != string(fragment) {
		t.Error("pushed markup differs from the toggle response")
	}
	if got := reloads.Load(); got != 0 {
		t.Errorf("OnReload called %d times after load and toggle, want 0", got)
	}

	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	s.Reload(context.Background())
	if msg := readMessage(t, conn); msg.Type != ReloadTypeError || !strings.Contains(msg.Error, "E149") {
		t.Errorf("message = %+v, want E149 error", msg)
	}
	if got := reloads.Load(); got != 0 {
		t.Errorf("OnReload called %d times after a failed reload, want 0", got)
	}

	writeInput(t, path, testInput("fixed"))
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	msg = readMessage(t, conn)
	if msg.Type != ReloadTypeReport || !strings.Contains(msg.HTML, "fixed") {
		t.Errorf("message = %+v, want report replacing the error", msg)
	}
	if got := reloads.Load(); got != 1 {
		t.Errorf("OnReload called %d times, want 1", got)
	}
	if got := lastClients.Load(); got != 1 {
		t.Errorf("OnReload clients = %d, want 1", got)
	}
}

func TestReloadServer_ClientCount(t *testing.T) {
	rs := NewReloadServer(nil, nil)
	srv := httptest.NewServer(http.HandlerFunc(rs.HandleWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatal(err)
		}
		conns[i] = conn
	}

	deadline := time.Now().Add(time.Second)
	for rs.ClientCount() != 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := rs.ClientCount(); got != 3 {
		t.Fatalf("ClientCount() = %d, want 3", got)
	}

	rs.NotifyReport("<p>x</p>", false)
	for _, conn := range conns {
		if msg := readMessage(t, conn); msg.HTML != "<p>x</p>" {
			t.Errorf("message = %+v", msg)
		}
	}

	rs.Close()
	if got := rs.ClientCount(); got != 0 {
		t.Errorf("ClientCount() after Close = %d, want 0", got)
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "error.json")
	cfgFile := filepath.Join(dir, config.JSONFileName)
	if err := os.WriteFile(input, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(WatcherConfig{Files: []string{input, cfgFile}, Interval: 20 * time.Millisecond})
	changes := make(chan Change, 10)
	w.OnChange(func(c Change) { changes <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	deadline := time.Now().Add(time.Second)
	for !w.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	wait := func(want Change) {
		t.Helper()
		select {
		case got := <-changes:
			if got != want {
				t.Errorf("change = %+v, want %+v", got, want)
			}
		case <-time.After(time.Second):
			t.Errorf("timeout waiting for %+v", want)
		}
	}

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(input, future, future); err != nil {
		t.Fatal(err)
	}
	wait(Change{Path: input, Type: ChangeInput})

	if err := os.WriteFile(cfgFile, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	wait(Change{Path: cfgFile, Type: ChangeConfig})

	if err := os.Remove(input); err != nil {
		t.Fatal(err)
	}
	wait(Change{Path: input, Type: ChangeInput, Removed: true})

	w.Stop()
	if w.IsRunning() {
		t.Error("watcher still running after Stop")
	}
}

func TestReadInput(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		code    string
		line    int
	}{
		{"valid", `{"error": {"message": "boom", "frames": []}}`, "", 0},
		{"syntax", "{\n  \"error\": {,\n}", "E149", 2},
		{"type", "{\n  \"error\": {\"message\": 3}\n}", "E149", 2},
		{"missing error", `{}`, "E149", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			in, err := ReadInput(path)
			if tt.code == "" {
				if err != nil || in.Error.Message != "boom" {
					t.Fatalf("ReadInput() = %+v, %v", in, err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Fatalf("ReadInput() error = %v, want %s", err, tt.code)
			}
			if tt.line > 0 {
				oe := errors.FromError(err, tt.code)
				if oe.Location == nil || oe.Location.Line != tt.line {
					t.Errorf("Location = %+v, want line %d", oe.Location, tt.line)
				}
			}
		})
	}

	if _, err := ReadInput(filepath.Join(dir, "nope.json")); !errors.Is(err, "E141") {
		t.Errorf("missing file error = %v, want E141", err)
	}
}

func TestBuildReport(t *testing.T) {
	cfg := config.New()
	cfg.Frameworks = []config.FrameworkRule{{Name: "scheduler", Packages: "scheduler"}}
	in := testInput("boom")

	r, err := BuildReport(cfg, &in, nil, report.WithShowAll(true))
	if err != nil {
		t.Fatal(err)
	}
	if !r.ShowAll() {
		t.Error("extra options should apply last")
	}
	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "React") {
		t.Errorf("text = %s", buf.String())
	}

	cfg.Frameworks = []config.FrameworkRule{{Name: "bad", Packages: "("}}
	if _, err := BuildReport(cfg, &in, nil); !errors.Is(err, "E124") {
		t.Errorf("BuildReport() error = %v, want E124", err)
	}
}
