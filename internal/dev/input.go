package dev

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/vango-dev/overlay/internal/config"
	"github.com/vango-dev/overlay/internal/errors"
	"github.com/vango-dev/overlay/pkg/report"
)

// ReadInput loads an input document. Failures are coded: E141 for a
// missing file, E142 for an unreadable one and E149 for a malformed one.
func ReadInput(path string) (*report.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.New("E141").WithFile(path).Wrap(err)
		}
		return nil, errors.New("E142").WithFile(path).Wrap(err)
	}

	in, err := report.DecodeInput(bytes.NewReader(data))
	if err != nil {
		oe := errors.New("E149").Wrap(err)
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case stderrors.As(err, &syntaxErr):
			line, col := errors.Position(data, syntaxErr.Offset)
			oe = oe.WithLocation(path, line, col)
		case stderrors.As(err, &typeErr):
			line, col := errors.Position(data, typeErr.Offset)
			oe = oe.WithLocation(path, line, col).
				WithDetail(fmt.Sprintf("field %q has the wrong type", typeErr.Field))
		default:
			oe = oe.WithFile(path)
		}
		return nil, oe
	}
	return in, nil
}

// ReportOptions returns the report options derived from cfg.
func ReportOptions(cfg *config.Config, logger *slog.Logger) ([]report.Option, error) {
	classifier, err := cfg.Classifier()
	if err != nil {
		return nil, err
	}
	view, ok := report.ParseDiffView(cfg.Report.DiffView)
	if !ok {
		return nil, errors.New("E122").WithDetail(fmt.Sprintf("report.diffView is %q", cfg.Report.DiffView))
	}
	return []report.Option{
		report.WithClassifier(classifier),
		report.WithDiffView(view),
		report.WithDiffOptions(cfg.DiffOptions()),
		report.WithLogger(logger),
		report.WithContainerID(DiffContainerID),
	}, nil
}

// BuildReport builds the report for in using the settings in cfg.
// Extra options are applied last.
func BuildReport(cfg *config.Config, in *report.Input, logger *slog.Logger, extra ...report.Option) (*report.Report, error) {
	opts, err := ReportOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	opts = append(opts, in.Options()...)
	opts = append(opts, extra...)
	return report.New(in.Error, opts...), nil
}
