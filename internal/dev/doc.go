// Package dev provides the overlay development server.
//
// The server renders a runtime error report from an input document and
// keeps open browsers in sync with it:
//
//   - Watcher: polls the input and config files for changes
//   - Server: serves the report page and fragment, owns the Report
//   - ReloadServer: pushes new report markup to browsers via WebSocket
//
// # Usage
//
//	srv, err := dev.NewServer(dev.ServerOptions{
//	    Config:    cfg,
//	    InputPath: "error.json",
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
//
// # Routes
//
//	GET  /                  full page with the report
//	GET  /_overlay/report   report fragment
//	POST /_overlay/toggle   show or hide collapsed frames
//	GET  /_overlay/reload   WebSocket channel
//	GET  /metrics           Prometheus exposition (dev.metrics=true)
//
// # Reload Protocol
//
// Messages are JSON-encoded:
//
//	{"type": "report", "html": "...", "showAll": false} // replaces the root container content and drops the error banner
//	{"type": "error", "error": "..."}                   // input could not be loaded
//	{"type": "clear"}                                   // first message to a client when a report is loaded
package dev
