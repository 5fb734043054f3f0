package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/vango-dev/overlay/internal/config"
	"github.com/vango-dev/overlay/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦  ╦┌─┐┌┐┌┌─┐┌─┐  overlay
  ╚╗╔╝├─┤│││├─┤│ │
   ╚╝ ┴ ┴┘└┘┴ ┴└─┘
`

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printErrors(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "vango-overlay",
		Short: "Runtime error reports for SSR hydration failures",
		Long: `vango-overlay renders developer error reports for runtime errors,
with a server/client markup diff for hydration mismatches.

  • Frames filtered and partitioned around the first frame with source
  • Framework frames grouped and collapsed
  • Split or pretty hydration diff
  • Live dev server with toggle and reload`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file (default: overlay.toml or overlay.json in the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		renderCmd(&flags),
		diffCmd(&flags),
		devCmd(&flags),
		initCmd(),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig reads the config named by --config, or looks it up in the
// working directory.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// printErrors prints every error of a multi-error, or err itself.
func printErrors(w io.Writer, err error) {
	if merr, ok := err.(*multierror.Error); ok {
		for _, e := range merr.Errors {
			errors.FprintError(w, e)
		}
		return
	}
	errors.FprintError(w, err)
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
