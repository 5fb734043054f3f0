package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/overlay/internal/config"
	"github.com/vango-dev/overlay/internal/errors"
	"github.com/vango-dev/overlay/internal/templates"
	"github.com/vango-dev/overlay/pkg/report"
)

func initCmd() *cobra.Command {
	var (
		template   string
		port       int
		view       string
		frameworks []string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init [DIR]",
		Short: "Write a config file and sample input",
		Long: `Write an overlay config file, a sample input document and a pair of
markup files into DIR (default: the working directory).

Examples:
  vango-overlay init
  vango-overlay init demo --template json --view pretty
  vango-overlay init --framework 'Remix=@remix-run/.*'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			tmpl, err := templates.Get(template)
			if err != nil {
				return err
			}
			if _, ok := report.ParseDiffView(view); !ok {
				return errors.New("E147").WithDetail("--view is \"" + view + "\"; use \"split\" or \"pretty\".")
			}

			cfg := config.New()
			cfg.Dev.Port = port
			cfg.Report.DiffView = view
			for _, f := range frameworks {
				name, packages, ok := strings.Cut(f, "=")
				if !ok {
					return errors.New("E124").WithDetail("--framework is \"" + f + "\"; use NAME=REGEXP.")
				}
				cfg.Frameworks = append(cfg.Frameworks, config.FrameworkRule{Name: name, Packages: packages})
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			tcfg := templates.Config{
				Port:        cfg.Dev.Port,
				DiffView:    cfg.Report.DiffView,
				DiffContext: cfg.Report.DiffContext,
				Force:       force,
			}
			for _, fr := range cfg.Frameworks {
				tcfg.Frameworks = append(tcfg.Frameworks, templates.Framework{Name: fr.Name, Packages: fr.Packages})
			}

			written, err := tmpl.Create(dir, tcfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range written {
				success(out, "Created %s", p)
			}

			configPath := filepath.Join(dir, tmpl.ConfigFile)
			inputPath := filepath.Join(dir, "error.json")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  Next steps:")
			fmt.Fprintf(out, "    vango-overlay render -c %s --input %s\n", configPath, inputPath)
			fmt.Fprintf(out, "    vango-overlay diff -c %s %s %s\n", configPath,
				filepath.Join(dir, "markup", "server.html"), filepath.Join(dir, "markup", "client.html"))
			fmt.Fprintf(out, "    vango-overlay dev -c %s --input %s\n", configPath, inputPath)
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "toml", "Template: "+strings.Join(templates.List(), ", "))
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "Dev server port")
	cmd.Flags().StringVar(&view, "view", config.DiffViewSplit, "Diff view: split or pretty")
	cmd.Flags().StringArrayVar(&frameworks, "framework", nil, "Extra framework rule NAME=REGEXP (repeatable)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")

	return cmd
}
