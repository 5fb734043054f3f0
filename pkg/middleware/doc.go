// Package middleware provides the observability layer of the overlay dev
// server: Prometheus metrics and OpenTelemetry tracing as net/http
// middleware, plus recorders for report renders and reload clients.
//
// # Prometheus Metrics
//
// Metrics are registered on an explicit registry so several servers, or
// tests, can coexist in one process:
//
//	reg := prometheus.NewRegistry()
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r := chi.NewRouter()
//	r.Use(m.Handler)
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Collected series (with the default "overlay" namespace):
//   - overlay_http_requests_total: requests by route and status class
//   - overlay_http_request_duration_seconds: request latency by route
//   - overlay_renders_total: report renders by format and outcome
//   - overlay_render_duration_seconds: render latency by format
//   - overlay_diff_hunks: hunks per rendered hydration diff
//   - overlay_reload_clients: connected live-reload clients
//   - overlay_reloads_total: reload broadcasts
//   - overlay_websocket_errors_total: WebSocket errors by type
//
// # OpenTelemetry
//
// Tracing starts a server span per request using the global tracer
// provider unless one is supplied:
//
//	r.Use(middleware.Tracing(middleware.WithTracerName("overlay-dev")))
//
// Handlers start child spans for their own work with StartSpan.
package middleware
