package dev

import (
	"bytes"
	"io"

	"github.com/vango-dev/overlay/internal/errors"
	"github.com/vango-dev/overlay/pkg/htmldiff"
	"github.com/vango-dev/overlay/pkg/render"
	"github.com/vango-dev/overlay/pkg/report"
	"github.com/vango-dev/overlay/pkg/vdom"
)

const pageStylesheet = `body{margin:0;background:#fafafa;color:#1f1f1f;font-family:system-ui,-apple-system,sans-serif}
#` + RootID + `{max-width:960px;margin:0 auto;padding:24px}
[data-overlay-header] h1{font-size:20px;margin:0 0 8px;color:#c00}
[data-overlay-hint]{margin:0 0 16px;color:#555}
[data-overlay-hint] a{color:#0b63ce}
h2{font-size:16px;margin:24px 0 8px}
h3{font-size:14px;margin:8px 0 2px;font-family:ui-monospace,monospace}
[data-overlay-codeframe] pre{overflow:auto;padding:12px;background:#1f1f1f;color:#eee;border-radius:6px}
[data-overlay-call-stack-frame] div[role=link]{color:#666;font-size:12px}
[data-has-source] {color:#0b63ce !important;cursor:pointer}
[data-overlay-hydration-diff]{margin:12px 0;border:1px solid #ddd;border-radius:6px;overflow:hidden}
[data-overlay-runtime-error-collapsed-action]{margin-top:16px;padding:4px 10px;cursor:pointer}
[data-overlay-load-error]{padding:12px;background:#fff0f0;border:1px solid #e0a0a0;white-space:pre-wrap}
#overlay-load-error{margin:0;padding:12px;background:#c00;color:#fff}`

// pageData wraps the root content in the full page.
func pageData(title, rootHTML string, live bool) render.PageData {
	page := render.PageData{
		Title:  title,
		Styles: []string{pageStylesheet, htmldiff.SplitStylesheet, htmldiff.Stylesheet},
		Body: vdom.Main(
			vdom.ID(RootID),
			vdom.Raw(rootHTML),
		),
	}
	if live {
		page.Scripts = []string{ClientScript}
	}
	return page
}

// WriteStaticPage writes a standalone page for r without the live client.
func WriteStaticPage(w io.Writer, r *report.Report) error {
	renderer := render.NewRenderer(render.RendererConfig{})
	var root bytes.Buffer
	if err := renderer.RenderToWriter(&root, reportNode(r, r.View())); err != nil {
		return err
	}
	return renderer.RenderPage(w, pageData(r.Err().Title(), root.String(), false))
}

// reportNode is the root content for a loaded report: the header followed
// by the report itself.
func reportNode(r *report.Report, v report.View) *vdom.VNode {
	return vdom.Fragment(
		headerNode(r.Err(), v.Diff != nil),
		r.NodeFor(v),
	)
}

func headerNode(e report.RuntimeError, hydration bool) *vdom.VNode {
	var hint *vdom.VNode
	if hydration {
		tmpl, _ := errors.GetTemplate("E040")
		hint = vdom.P(
			vdom.Data("overlay-hint", "E040"),
			tmpl.Detail+" ",
			vdom.A(vdom.Href(tmpl.DocURL), "Learn more"),
		)
	}
	return vdom.Header(
		vdom.Data("overlay-header", ""),
		vdom.H1(e.Title()),
		hint,
	)
}

// loadErrorNode is the root content while the input cannot be loaded.
func loadErrorNode(err error) *vdom.VNode {
	oe := errors.FromError(err, "E149")
	return vdom.Section(
		vdom.Data("overlay-load-error", oe.Code),
		vdom.H1(oe.Message),
		vdom.Pre(oe.FormatCompact()),
		vdom.If(oe.Suggestion != "", vdom.P(oe.Suggestion)),
	)
}
