package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml/v2"

	"github.com/vango-dev/overlay/internal/errors"
	"github.com/vango-dev/overlay/pkg/framework"
	"github.com/vango-dev/overlay/pkg/htmldiff"
)

const (
	// JSONFileName and TOMLFileName are the configuration file names looked
	// up by Load. TOML wins when both exist.
	JSONFileName = "overlay.json"
	TOMLFileName = "overlay.toml"

	// DefaultPort is the default dev server port.
	DefaultPort = 3100

	// DefaultHost is the default dev server host.
	DefaultHost = "localhost"

	// DefaultPollInterval is how often the dev server checks watched files.
	DefaultPollInterval = "250ms"

	DiffViewSplit  = "split"
	DiffViewPretty = "pretty"
)

// Config represents overlay.json / overlay.toml.
type Config struct {
	// Report controls how error reports render.
	Report ReportConfig `json:"report" toml:"report"`

	// Frameworks are extra package rules tried before the built-in React
	// and Next.js rules.
	Frameworks []FrameworkRule `json:"frameworks,omitempty" toml:"frameworks,omitempty"`

	// Dev contains dev server settings.
	Dev DevConfig `json:"dev" toml:"dev"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ReportConfig contains report rendering settings.
type ReportConfig struct {
	// DiffView is "split" or "pretty".
	DiffView string `json:"diffView,omitempty" toml:"diffView,omitempty"`

	// DiffContext is the number of unchanged lines around each change.
	DiffContext int `json:"diffContext" toml:"diffContext"`

	// SplitTags puts every tag on its own line before diffing.
	SplitTags bool `json:"splitTags,omitempty" toml:"splitTags,omitempty"`

	// FromLabel and ToLabel name the server and client sides of the diff.
	FromLabel string `json:"fromLabel,omitempty" toml:"fromLabel,omitempty"`
	ToLabel   string `json:"toLabel,omitempty" toml:"toLabel,omitempty"`
}

// FrameworkRule maps packages matching a regular expression to a framework.
type FrameworkRule struct {
	Name     string `json:"name" toml:"name"`
	Packages string `json:"packages" toml:"packages"`
}

// DevConfig contains dev server settings.
type DevConfig struct {
	// Port is the port to run the dev server on.
	Port int `json:"port,omitempty" toml:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty" toml:"host,omitempty"`

	// HotReload pushes re-rendered reports to open pages.
	HotReload bool `json:"hotReload" toml:"hotReload"`

	// Metrics serves Prometheus metrics on /metrics.
	Metrics bool `json:"metrics" toml:"metrics"`

	// PollInterval is how often watched files are checked (e.g. "250ms").
	PollInterval string `json:"pollInterval,omitempty" toml:"pollInterval,omitempty"`

	// OpenBrowser opens the browser automatically on start.
	OpenBrowser bool `json:"openBrowser,omitempty" toml:"openBrowser,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Report: ReportConfig{
			DiffView:    DiffViewSplit,
			DiffContext: htmldiff.DefaultContext,
			FromLabel:   htmldiff.DefaultFromLabel,
			ToLabel:     htmldiff.DefaultToLabel,
		},
		Dev: DevConfig{
			Port:         DefaultPort,
			Host:         DefaultHost,
			HotReload:    true,
			Metrics:      true,
			PollInterval: DefaultPollInterval,
		},
	}
}

// Load reads configuration from dir. It looks for overlay.toml, then
// overlay.json. A directory with neither yields the defaults.
func Load(dir string) (*Config, error) {
	for _, name := range []string{TOMLFileName, JSONFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return New(), nil
}

// LoadFile reads configuration from the given path. The format follows
// the file extension: .toml is TOML, anything else JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E120").
				WithFile(path).
				WithSuggestion("Create " + TOMLFileName + " or omit --config to use the defaults")
		}
		return nil, errors.New("E121").WithFile(path).Wrap(err)
	}

	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes data over the defaults. path selects the format and is
// used in error locations.
func Parse(path string, data []byte) (*Config, error) {
	cfg := New()

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, cfg); err != nil {
			oe := errors.New("E121").Wrap(err).WithSuggestion("Check that " + filepath.Base(path) + " is valid TOML")
			var de *toml.DecodeError
			if stderrors.As(err, &de) {
				row, col := de.Position()
				return nil, oe.WithLocation(path, row, col)
			}
			return nil, oe.WithFile(path)
		}
		cfg.applyDefaults()
		return cfg, nil
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		oe := errors.New("E121").Wrap(err).WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON")
		var se *json.SyntaxError
		if stderrors.As(err, &se) {
			line, col := errors.Position(data, se.Offset)
			return nil, oe.WithLocation(path, line, col)
		}
		return nil, oe.WithFile(path)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path, as TOML for a .toml extension
// and JSON otherwise.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = toml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E121").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E121").WithFile(path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from, or "" for
// defaults.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for fields a file set to empty.
func (c *Config) applyDefaults() {
	if c.Report.DiffView == "" {
		c.Report.DiffView = DiffViewSplit
	}
	if c.Report.FromLabel == "" {
		c.Report.FromLabel = htmldiff.DefaultFromLabel
	}
	if c.Report.ToLabel == "" {
		c.Report.ToLabel = htmldiff.DefaultToLabel
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.PollInterval == "" {
		c.Dev.PollInterval = DefaultPollInterval
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var result error

	switch c.Report.DiffView {
	case DiffViewSplit, DiffViewPretty:
	default:
		result = multierror.Append(result, errors.New("E122").
			WithDetail(fmt.Sprintf("report.diffView is %q; use %q or %q", c.Report.DiffView, DiffViewSplit, DiffViewPretty)))
	}
	if c.Report.DiffContext < 0 {
		result = multierror.Append(result, errors.New("E123").
			WithDetail(fmt.Sprintf("report.diffContext is %d", c.Report.DiffContext)))
	}
	for i, rule := range c.Frameworks {
		if _, err := framework.NewRule(framework.Framework(rule.Name), rule.Packages); err != nil {
			result = multierror.Append(result, errors.New("E124").
				WithDetail(fmt.Sprintf("frameworks[%d] is invalid", i)).
				Wrap(err))
		}
	}
	if c.Dev.Port < 1 || c.Dev.Port > 65535 {
		result = multierror.Append(result, errors.New("E125").
			WithDetail(fmt.Sprintf("dev.port is %d; it must be between 1 and 65535", c.Dev.Port)))
	}
	if d, err := time.ParseDuration(c.Dev.PollInterval); err != nil || d <= 0 {
		result = multierror.Append(result, errors.New("E126").
			WithDetail(fmt.Sprintf("dev.pollInterval is %q", c.Dev.PollInterval)))
	}
	return result
}

// Classifier returns the frame classifier built from the configured rules
// followed by the built-in ones.
func (c *Config) Classifier() (*framework.PackageClassifier, error) {
	rules := make([]framework.Rule, 0, len(c.Frameworks)+2)
	for i, fr := range c.Frameworks {
		r, err := framework.NewRule(framework.Framework(fr.Name), fr.Packages)
		if err != nil {
			return nil, errors.New("E124").
				WithDetail(fmt.Sprintf("frameworks[%d] is invalid", i)).
				Wrap(err)
		}
		rules = append(rules, r)
	}
	rules = append(rules, framework.DefaultRules()...)
	return framework.NewPackageClassifier(rules...), nil
}

// DiffOptions returns the diff options for the report settings.
func (c *Config) DiffOptions() htmldiff.Options {
	return htmldiff.Options{
		Context:   c.Report.DiffContext,
		FromFile:  c.Report.FromLabel,
		ToFile:    c.Report.ToLabel,
		SplitTags: c.Report.SplitTags,
	}
}

// PollDuration returns the parsed poll interval, falling back to the
// default when it is invalid.
func (c *Config) PollDuration() time.Duration {
	d, err := time.ParseDuration(c.Dev.PollInterval)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultPollInterval)
	}
	return d
}

// DevAddress returns the address string for the dev server.
func (c *Config) DevAddress() string {
	return net.JoinHostPort(c.Dev.Host, strconv.Itoa(c.Dev.Port))
}

// DevURL returns the full URL for the dev server.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}
