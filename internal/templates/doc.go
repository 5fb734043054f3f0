// Package templates provides the scaffold written by vango-overlay init.
//
// A scaffold is a config file plus a sample input document and a pair of
// markup files, enough to try every command without a running app.
//
// # Available Templates
//
//   - toml: overlay.toml with comments
//   - json: overlay.json
//
// # Usage
//
//	tmpl, err := templates.Get("toml")
//	if err != nil {
//	    return err
//	}
//	written, err := tmpl.Create(dir, templates.Config{Port: 3100, DiffView: "split"})
//
// # Template Variables
//
//	{{.Port}}              - Dev server port
//	{{.DiffView}}          - "split" or "pretty"
//	{{.DiffContext}}       - Unchanged lines around each change
//	{{.Frameworks}}        - Extra framework rules (Name, Packages)
package templates
