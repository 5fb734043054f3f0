package dev

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/overlay/internal/config"
	"github.com/vango-dev/overlay/internal/errors"
	"github.com/vango-dev/overlay/pkg/middleware"
	"github.com/vango-dev/overlay/pkg/render"
	"github.com/vango-dev/overlay/pkg/report"
)

const (
	// RootID is the id of the element whose content the client replaces
	// on every report message.
	RootID = "overlay-root"

	// DiffContainerID is the id of the pretty diff container.
	DiffContainerID = "overlay-hydration-diff"

	reloadPath = "/_overlay/reload"
)

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the overlay configuration.
	Config *config.Config

	// InputPath is the input document to serve.
	InputPath string

	// Logger receives server logs. Default: slog.Default().
	Logger *slog.Logger

	// Registry collects metrics when dev.metrics is on. Default: a new
	// registry owned by the server.
	Registry *prometheus.Registry

	// TracerProvider supplies request spans. Default: the global provider.
	TracerProvider trace.TracerProvider

	// OnReload is called after Reload pushed a new report to browsers.
	// The initial load in NewServer and toggles do not call it.
	OnReload func(clients int)
}

// Server is the development server.
type Server struct {
	options      ServerOptions
	logger       *slog.Logger
	metrics      *middleware.Metrics
	registry     *prometheus.Registry
	reloadServer *ReloadServer
	watcher      *Watcher
	changeCh     chan Change
	renderer     *render.Renderer
	router       http.Handler
	httpServer   *http.Server

	// mu guards the fields below. A Report is not safe for concurrent use.
	mu      sync.Mutex
	config  *config.Config
	report  *report.Report
	loadErr error
	running bool
}

// NewServer creates a development server and loads the input once. A load
// failure does not fail construction; it is shown on the page instead.
func NewServer(options ServerOptions) (*Server, error) {
	cfg := options.Config
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		options:  options,
		logger:   logger,
		config:   cfg,
		renderer: render.NewRenderer(render.RendererConfig{}),
	}

	if cfg.Dev.Metrics {
		s.registry = options.Registry
		if s.registry == nil {
			s.registry = prometheus.NewRegistry()
		}
		s.metrics = middleware.NewMetrics(middleware.WithRegistry(s.registry))
	}

	if cfg.Dev.HotReload {
		s.reloadServer = NewReloadServer(logger, s.metrics)
		s.reloadServer.onConnect = s.currentMessage
	}

	files := []string{options.InputPath}
	if p := cfg.Path(); p != "" {
		files = append(files, p)
	}
	s.watcher = NewWatcher(WatcherConfig{
		Files:    files,
		Interval: cfg.PollDuration(),
	})

	s.router = s.routes()
	s.load(context.Background())
	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.metrics.Handler)
	r.Use(middleware.Tracing(
		middleware.WithTracerProvider(s.options.TracerProvider),
		middleware.WithRequestFilter(func(r *http.Request) bool {
			return r.URL.Path != reloadPath
		}),
	))

	r.Get("/", s.handlePage)
	r.Get("/_overlay/report", s.handleReport)
	r.Post("/_overlay/toggle", s.handleToggle)
	if s.reloadServer != nil {
		r.Get(reloadPath, s.reloadServer.HandleWebSocket)
	}
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Start serves until ctx is done. A port that is already taken is
// reported as E140.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	addr := s.config.DevAddress()
	url := s.config.DevURL()
	s.mu.Unlock()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		if stderrors.Is(err, syscall.EADDRINUSE) {
			return errors.New("E140").WithDetail("Address " + addr + " is already in use.").Wrap(err)
		}
		return err
	}

	s.changeCh = make(chan Change, 16)
	s.watcher.OnChange(func(change Change) {
		select {
		case s.changeCh <- change:
		default:
		}
	})
	go func() {
		if err := s.watcher.Start(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
			s.logger.Error("watcher stopped", "error", errors.New("E150").Wrap(err))
		}
	}()
	go s.processChanges(ctx)

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("overlay server running", "url", url, "input", s.options.InputPath)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop stops the development server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	s.watcher.Stop()
	if s.reloadServer != nil {
		s.reloadServer.Close()
	}
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// processChanges serializes file change handling and coalesces bursts.
func (s *Server) processChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-s.changeCh:
			changes := []Change{change}
			draining := true
			for draining {
				select {
				case next := <-s.changeCh:
					changes = append(changes, next)
				default:
					draining = false
				}
			}
			s.handleChanges(ctx, changes)
		}
	}
}

func (s *Server) handleChanges(ctx context.Context, changes []Change) {
	for _, c := range changes {
		s.logger.Info("file changed", "path", c.Path, "type", c.Type.String(), "removed", c.Removed)
		if c.Type == ChangeConfig {
			if err := s.ReloadConfig(); err != nil {
				s.logger.Error("config reload failed", "error", err)
				s.notifyError(err)
				return
			}
		}
	}
	s.Reload(ctx)
}

// ReloadConfig re-reads the config file the server was started with.
// An invalid file keeps the previous config.
func (s *Server) ReloadConfig() error {
	s.mu.Lock()
	path := s.config.Path()
	s.mu.Unlock()
	if path == "" {
		return nil
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	return nil
}

// Reload reads the input document again and replaces the report. The new
// report starts from its own default toggle state. A load failure replaces
// the report with the error, which is shown and pushed to browsers.
func (s *Server) Reload(ctx context.Context) error {
	html, showAll, err := s.load(ctx)
	if err != nil {
		s.notifyError(err)
		return err
	}
	s.notifyReport(html, showAll)
	if s.reloadServer != nil && s.options.OnReload != nil {
		s.options.OnReload(s.reloadServer.ClientCount())
	}
	return nil
}

// load reads the input document and replaces the report or records the
// load error. It returns the new root fragment.
func (s *Server) load(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	cfg := s.config
	s.mu.Unlock()

	in, err := ReadInput(s.options.InputPath)
	var r *report.Report
	if err == nil {
		r, err = BuildReport(cfg, in, s.logger)
	}

	s.mu.Lock()
	if err != nil {
		s.loadErr = err
		s.report = nil
		s.mu.Unlock()
		s.logger.Error("input load failed", "path", s.options.InputPath, "error", err)
		return "", false, err
	}
	s.loadErr = nil
	s.report = r
	html, showAll, renderErr := s.fragmentLocked(ctx)
	s.mu.Unlock()

	if renderErr != nil {
		s.logger.Error("render failed", "error", renderErr)
		return "", false, renderErr
	}
	s.logger.Info("report loaded", "error_id", in.Error.ID, "frames", len(in.Error.Frames))
	return html, showAll, nil
}

// Toggle flips the report between showing and hiding collapsed frames and
// returns the new fragment.
func (s *Server) Toggle(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.report == nil {
		err := s.loadErr
		s.mu.Unlock()
		return "", err
	}
	showAll := s.report.Toggle()
	html, _, err := s.fragmentLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		return "", err
	}
	s.logger.Info("frames toggled", "show_all", showAll)
	s.notifyReport(html, showAll)
	return html, nil
}

// Fragment renders the current content of the root container.
func (s *Server) Fragment(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	html, _, err := s.fragmentLocked(ctx)
	return html, err
}

// fragmentLocked renders the root content. The caller holds s.mu.
func (s *Server) fragmentLocked(ctx context.Context) (string, bool, error) {
	if s.report == nil {
		if s.loadErr == nil {
			return "", false, nil
		}
		var buf bytes.Buffer
		err := s.renderer.RenderToWriter(&buf, loadErrorNode(s.loadErr))
		return buf.String(), false, err
	}

	_, span := middleware.StartSpan(ctx, "overlay.render",
		attribute.Int("overlay.error_id", s.report.Err().ID),
		attribute.String("overlay.diff_view", string(s.report.DiffView())),
	)
	start := time.Now()

	v := s.report.View()
	var buf bytes.Buffer
	err := s.renderer.RenderToWriter(&buf, reportNode(s.report, v))

	s.metrics.RecordRender("html", time.Since(start), err)
	if v.Diff != nil {
		s.metrics.RecordDiff(v.Diff.HunkCount())
		span.SetAttributes(attribute.Int("overlay.diff_hunks", v.Diff.HunkCount()))
	}
	middleware.EndSpan(span, err)

	if err != nil {
		return "", v.ShowAll, errors.New("E148").Wrap(err)
	}
	return buf.String(), v.ShowAll, nil
}

// currentMessage is what a newly connected client starts from.
func (s *Server) currentMessage() (ReloadMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		if s.loadErr == nil {
			return ReloadMessage{}, false
		}
		return ReloadMessage{Type: ReloadTypeError, Error: errors.FromError(s.loadErr, "E149").FormatCompact()}, true
	}
	return ReloadMessage{Type: ReloadTypeClear}, true
}

func (s *Server) notifyReport(html string, showAll bool) {
	if s.reloadServer == nil {
		return
	}
	s.reloadServer.NotifyReport(html, showAll)
}

func (s *Server) notifyError(err error) {
	if s.reloadServer == nil {
		return
	}
	s.reloadServer.NotifyError(errors.FromError(err, "E148").FormatCompact())
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	html, err := s.Fragment(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	title := "Overlay"
	if s.report != nil {
		title = s.report.Err().Title()
	}
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := s.renderer.RenderPage(&buf, pageData(title, html, s.reloadServer != nil)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "text" {
		s.writeText(w, r)
		return
	}

	html, err := s.Fragment(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

func (s *Server) writeText(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.report == nil {
		msg := "no report loaded"
		if s.loadErr != nil {
			msg = errors.FromError(s.loadErr, "E149").FormatCompact()
		}
		http.Error(w, msg, http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	var buf bytes.Buffer
	err := s.report.WriteText(&buf)
	s.metrics.RecordRender("text", time.Since(start), err)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	html, err := s.Toggle(r.Context())
	if err != nil {
		http.Error(w, errors.FromError(err, "E148").FormatCompact(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}
