// Package vdom provides the node tree the overlay renders reports into.
//
// A report is assembled as a tree of VNodes and handed to the render package,
// which serializes it to HTML. Keeping the tree in memory (instead of writing
// markup directly) lets tests inspect the structure of a report and lets the
// dev server re-render the same report in different shells.
//
// # Core Types
//
// VNode is the building block representing elements, text, fragments and raw
// HTML. Props holds attributes. Attr is used to build Props.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("frame"), Data("expanded", "true"),
//	    H3(Text("renderApp")),
//	    Pre(Text(snippet)),
//	)
//
// Arguments may be attributes, child nodes, slices of either, plain strings
// (text shorthand) or nil, which is ignored so conditional children read
// naturally.
package vdom
