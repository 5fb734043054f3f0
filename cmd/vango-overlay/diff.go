package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/overlay/internal/errors"
	"github.com/vango-dev/overlay/pkg/htmldiff"
)

func diffCmd(flags *globalFlags) *cobra.Command {
	var (
		context   int
		splitTags bool
		asHTML    bool
	)

	cmd := &cobra.Command{
		Use:   "diff SERVER CLIENT",
		Short: "Diff server and client markup",
		Long: `Diff the markup the server rendered against the markup the client
produced, as a unified diff or as a pretty HTML fragment.

Examples:
  vango-overlay diff server.html client.html
  vango-overlay diff server.html client.html --split-tags --context 3
  vango-overlay diff server.html client.html --html > diff.html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			opts := cfg.DiffOptions()
			if cmd.Flags().Changed("context") {
				opts.Context = context
			}
			if cmd.Flags().Changed("split-tags") {
				opts.SplitTags = splitTags
			}

			old, err := readMarkup(args[0])
			if err != nil {
				return err
			}
			new, err := readMarkup(args[1])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asHTML {
				if err := htmldiff.WritePrettyHTML(w, old, new, opts); err != nil {
					return errors.New("E148").Wrap(err)
				}
				return nil
			}

			text, err := htmldiff.Unified(old, new, opts)
			if err != nil {
				return errors.New("E148").Wrap(err)
			}
			if text == "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "No differences.")
				return nil
			}
			fmt.Fprint(w, text)
			return nil
		},
	}

	cmd.Flags().IntVarP(&context, "context", "U", htmldiff.DefaultContext, "Unchanged lines around each change")
	cmd.Flags().BoolVar(&splitTags, "split-tags", false, "Put every tag on its own line before diffing")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Write a pretty HTML fragment")

	return cmd
}

func readMarkup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.New("E145").WithFile(path).Wrap(err)
	}
	return string(data), nil
}
