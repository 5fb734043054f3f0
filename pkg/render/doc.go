// Package render serializes report trees to HTML.
//
// The render package converts vdom.VNode trees into HTML strings or streams:
//
//   - HTML5 element rendering with void element handling
//   - Text and attribute escaping (raw nodes excepted)
//   - Boolean attribute handling (open, hidden, disabled)
//   - Deterministic attribute order, so identical trees render byte-identically
//   - Full page rendering with DOCTYPE, head and body
//
// # Basic Usage
//
//	renderer := render.NewRenderer(render.RendererConfig{})
//	html, err := renderer.RenderToString(node)
//
// # Containers
//
// A Container owns one region of output whose content is always replaced
// wholesale. Replace clears the previous content before writing, so
// re-rendering never accumulates stale markup:
//
//	c := render.NewContainer("hydration-diff")
//	c.ReplaceHTML(prettyDiff)
//	node := c.Node() // <div id="hydration-diff">…</div>
package render
