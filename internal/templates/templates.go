package templates

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/vango-dev/overlay/internal/errors"
)

// Config contains template configuration.
type Config struct {
	// Port is the dev server port.
	Port int

	// DiffView is "split" or "pretty".
	DiffView string

	// DiffContext is the number of unchanged lines around each change.
	DiffContext int

	// Frameworks are extra framework rules written to the config.
	Frameworks []Framework

	// Force overwrites files that already exist.
	Force bool
}

// Framework is a framework rule written to the config.
type Framework struct {
	Name     string
	Packages string
}

// Template represents a scaffold.
type Template struct {
	// Name is the template name.
	Name string

	// Description describes the template.
	Description string

	// ConfigFile is the config file the template writes.
	ConfigFile string

	// Files is a map of relative paths to file contents.
	Files map[string]string
}

var templates = map[string]*Template{
	"toml": tomlTemplate(),
	"json": jsonTemplate(),
}

var funcs = template.FuncMap{
	"quote": quote,
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return nil, errors.New("E151").
			WithDetail("Template '" + name + "' not found").
			WithSuggestion("Available templates: toml, json")
	}
	return tmpl, nil
}

// List returns all available template names, sorted.
func List() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Paths returns the template's relative file paths, sorted.
func (t *Template) Paths() []string {
	paths := make([]string, 0, len(t.Files))
	for p := range t.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Create writes the scaffold into dir and returns the written paths in
// order. Nothing is written if a file exists and cfg.Force is false.
func (t *Template) Create(dir string, cfg Config) ([]string, error) {
	paths := t.Paths()

	rendered := make(map[string][]byte, len(paths))
	for _, relPath := range paths {
		tmpl, err := template.New(relPath).Funcs(funcs).Parse(t.Files[relPath])
		if err != nil {
			return nil, errors.New("E153").WithFile(relPath).Wrap(err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return nil, errors.New("E153").WithFile(relPath).Wrap(err)
		}
		rendered[relPath] = buf.Bytes()
	}

	if !cfg.Force {
		for _, relPath := range paths {
			fullPath := filepath.Join(dir, relPath)
			if _, err := os.Stat(fullPath); err == nil {
				return nil, errors.New("E152").WithFile(fullPath)
			}
		}
	}

	written := make([]string, 0, len(paths))
	for _, relPath := range paths {
		fullPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return written, errors.New("E153").WithFile(fullPath).Wrap(err)
		}
		if err := os.WriteFile(fullPath, rendered[relPath], 0644); err != nil {
			return written, errors.New("E153").WithFile(fullPath).Wrap(err)
		}
		written = append(written, fullPath)
	}
	return written, nil
}

// quote returns s as a double-quoted string valid in both JSON and TOML.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func tomlTemplate() *Template {
	return &Template{
		Name:        "toml",
		Description: "overlay.toml with comments",
		ConfigFile:  "overlay.toml",
		Files: withSamples(map[string]string{
			"overlay.toml": `# vango-overlay configuration

[report]
# "split" shows the raw unified diff, "pretty" renders it as HTML.
diffView = {{quote .DiffView}}
diffContext = {{.DiffContext}}
splitTags = false
fromLabel = "server"
toLabel = "client"
{{range .Frameworks}}
[[frameworks]]
name = {{quote .Name}}
packages = {{quote .Packages}}
{{end}}
[dev]
port = {{.Port}}
hotReload = true
metrics = true
pollInterval = "250ms"
`,
		}),
	}
}

func jsonTemplate() *Template {
	return &Template{
		Name:        "json",
		Description: "overlay.json",
		ConfigFile:  "overlay.json",
		Files: withSamples(map[string]string{
			"overlay.json": `{
  "report": {
    "diffView": {{quote .DiffView}},
    "diffContext": {{.DiffContext}},
    "fromLabel": "server",
    "toLabel": "client"
  },
{{- if .Frameworks}}
  "frameworks": [
{{- range $i, $f := .Frameworks}}{{if $i}},{{end}}
    {"name": {{quote $f.Name}}, "packages": {{quote $f.Packages}}}
{{- end}}
  ],
{{- end}}
  "dev": {
    "port": {{.Port}},
    "hotReload": true,
    "metrics": true,
    "pollInterval": "250ms"
  }
}
`,
		}),
	}
}

// withSamples adds the sample input and markup files to files.
func withSamples(files map[string]string) map[string]string {
	files["error.json"] = sampleInput
	files["markup/server.html"] = sampleServerMarkup
	files["markup/client.html"] = sampleClientMarkup
	return files
}

const sampleInput = `{
  "error": {
    "id": 1,
    "name": "Error",
    "message": "Hydration failed because the server rendered HTML didn't match the client.",
    "frames": [
      {"sourceStackFrame": {"file": "<anonymous>", "methodName": "JSON.parse"}},
      {
        "sourceStackFrame": {"file": "webpack-internal:///./app/page.js", "methodName": "Page", "lineNumber": 14, "column": 9},
        "originalStackFrame": {"file": "app/page.js", "methodName": "Page", "lineNumber": 5, "column": 11},
        "originalCodeFrame": "  4 | export default function Page() {\n> 5 |   return <p>{Date.now()}</p>\n    |           ^",
        "expanded": true
      },
      {"sourceStackFrame": {"file": "/app/node_modules/react-dom/cjs/react-dom.development.js", "methodName": "renderWithHooks", "lineNumber": 11121, "column": 18}},
      {"sourceStackFrame": {"file": "/app/node_modules/react-dom/cjs/react-dom.development.js", "methodName": "beginWork", "lineNumber": 19049, "column": 16}},
      {"sourceStackFrame": {"file": "/app/node_modules/next/dist/client/index.js", "methodName": "hydrate", "lineNumber": 321, "column": 7}}
    ],
    "componentStackFrames": [
      {"component": "p"},
      {"component": "Page", "file": "app/page.js", "lineNumber": 5, "column": 11, "canOpenInEditor": true}
    ]
  },
  "hydration": {
    "ssrHtml": "<main><p>1718000000000</p></main>",
    "csrHtml": "<main><p>1718000000412</p></main>"
  }
}
`

const sampleServerMarkup = `<main>
  <h1>Dashboard</h1>
  <p>1718000000000</p>
</main>
`

const sampleClientMarkup = `<main>
  <h1>Dashboard</h1>
  <p>1718000000412</p>
</main>
`
