package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/overlay/internal/dev"
	"github.com/vango-dev/overlay/internal/errors"
)

func devCmd(flags *globalFlags) *cobra.Command {
	var (
		input       string
		port        int
		host        string
		openBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Serve an error report with live reload",
		Long: `Serve the error report for an input document.

The server watches the input and config files and pushes the new
report to open browsers. The collapsed-frames toggle is shared by
every open page.

Examples:
  vango-overlay dev --input error.json
  vango-overlay dev --input error.json --port=8080
  vango-overlay dev --input error.json --host=0.0.0.0 --open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			if port > 0 {
				cfg.Dev.Port = port
			}
			if host != "" {
				cfg.Dev.Host = host
			}
			if openBrowser {
				cfg.Dev.OpenBrowser = true
			}

			out := cmd.OutOrStdout()
			logger := newLogger(cmd.ErrOrStderr(), flags.verbose)

			server, err := dev.NewServer(dev.ServerOptions{
				Config:    cfg,
				InputPath: input,
				Logger:    logger,
				OnReload: func(clients int) {
					success(out, "Pushed report to %d browsers", clients)
				},
			})
			if err != nil {
				return err
			}

			printBanner(out)
			fmt.Fprintln(out, "  dev")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  Report:  %s\n", cfg.DevURL())
			fmt.Fprintf(out, "  Input:   %s\n", input)
			if cfg.Dev.Metrics {
				fmt.Fprintf(out, "  Metrics: %s/metrics\n", cfg.DevURL())
			}
			fmt.Fprintln(out)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Dev.OpenBrowser {
				go func() {
					if err := openURL(cfg.DevURL()); err != nil {
						warn(out, "%s", errors.New("E146").Wrap(err).FormatCompact())
					}
				}()
			}

			return server.Start(ctx)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input document (JSON)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().BoolVarP(&openBrowser, "open", "o", false, "Open browser on start")
	cmd.MarkFlagRequired("input")

	return cmd
}

// openURL opens a URL in the default browser.
func openURL(url string) error {
	var cmd *exec.Cmd

	switch {
	case runtime.GOOS == "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case commandExists("xdg-open"):
		cmd = exec.Command("xdg-open", url)
	case commandExists("open"):
		cmd = exec.Command("open", url)
	default:
		return fmt.Errorf("no browser opener found for %s", runtime.GOOS)
	}

	return cmd.Start()
}

// commandExists checks if a command exists in PATH.
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
