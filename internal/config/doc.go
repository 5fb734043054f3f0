// Package config provides configuration parsing for the overlay.
//
// The configuration lives in overlay.toml or overlay.json next to the input
// document. Missing files yield the defaults; CLI flags override file values.
//
// # Configuration File Structure
//
//	[report]
//	diffView = "split"      # or "pretty"
//	diffContext = 1
//	splitTags = false
//	fromLabel = "server"
//	toLabel = "client"
//
//	[[frameworks]]
//	name = "vite"
//	packages = "vite|@vitejs/.*"
//
//	[dev]
//	port = 3100
//	host = "localhost"
//	hotReload = true
//	metrics = true
//	pollInterval = "250ms"
//	openBrowser = false
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Port:", cfg.Dev.Port)
package config
