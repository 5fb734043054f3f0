package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/overlay/internal/dev"
	"github.com/vango-dev/overlay/internal/errors"
	"github.com/vango-dev/overlay/pkg/report"
)

func renderCmd(flags *globalFlags) *cobra.Command {
	var (
		input   string
		format  string
		showAll bool
		out     string
		view    string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render an error report",
		Long: `Render the error report for an input document.

The input is a JSON document with the runtime error and, for hydration
failures, the server and client markup.

Examples:
  vango-overlay render --input error.json
  vango-overlay render --input error.json --format html --out report.html
  vango-overlay render --input error.json --show-all --view pretty`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "html" && format != "text" {
				return errors.New("E143").WithDetail("--format is \"" + format + "\"; use \"html\" or \"text\".")
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("view") {
				if _, ok := report.ParseDiffView(view); !ok {
					return errors.New("E147").WithDetail("--view is \"" + view + "\"; use \"split\" or \"pretty\".")
				}
				cfg.Report.DiffView = view
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			in, err := dev.ReadInput(input)
			if err != nil {
				return err
			}

			var extra []report.Option
			if cmd.Flags().Changed("show-all") {
				extra = append(extra, report.WithShowAll(showAll))
			}
			r, err := dev.BuildReport(cfg, in, newLogger(cmd.ErrOrStderr(), flags.verbose), extra...)
			if err != nil {
				return err
			}

			if out == "" {
				if err := writeReport(cmd.OutOrStdout(), r, format); err != nil {
					return errors.New("E148").Wrap(err)
				}
				return nil
			}

			f, err := os.Create(out)
			if err != nil {
				return errors.New("E144").WithFile(out).Wrap(err)
			}
			if err := writeReportFile(f, out, r, format); err != nil {
				return err
			}
			success(cmd.ErrOrStderr(), "Wrote %s", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input document (JSON)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: html or text")
	cmd.Flags().BoolVar(&showAll, "show-all", false, "Show collapsed frames")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to file instead of stdout")
	cmd.Flags().StringVar(&view, "view", "", "Diff view: split or pretty (default from config)")
	cmd.MarkFlagRequired("input")

	return cmd
}

// writeReportFile writes the report to wc and closes it. Write failures
// return E148 and close failures E144.
func writeReportFile(wc io.WriteCloser, path string, r *report.Report, format string) error {
	if err := writeReport(wc, r, format); err != nil {
		wc.Close()
		return errors.New("E148").WithFile(path).Wrap(err)
	}
	if err := wc.Close(); err != nil {
		return errors.New("E144").WithFile(path).Wrap(err)
	}
	return nil
}

func writeReport(w io.Writer, r *report.Report, format string) error {
	if format == "html" {
		return dev.WriteStaticPage(w, r)
	}
	return r.WriteText(w)
}
