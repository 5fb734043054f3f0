package vdom

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement  VKind = iota // <div>, <table>, etc.
	KindText                  // Plain text node
	KindFragment              // Grouping without wrapper
	KindRaw                   // Raw HTML (trusted content only)
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// VNode is a node in the report tree.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Props    Props    // Attributes
	Children []*VNode // Child nodes
	Key      string   // Stable list key, not rendered
	Text     string   // For KindText and KindRaw
}

// Props holds element attributes.
type Props map[string]any

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// Attr returns the string value of an attribute, or "" if unset.
func (v *VNode) Attr(key string) string {
	if v == nil || v.Props == nil {
		return ""
	}
	s, _ := v.Props[key].(string)
	return s
}

// Find returns the nodes in the subtree (including v) for which match
// returns true, in document order.
func (v *VNode) Find(match func(*VNode) bool) []*VNode {
	var out []*VNode
	v.walk(func(n *VNode) {
		if match(n) {
			out = append(out, n)
		}
	})
	return out
}

// TextContent returns the concatenated text of all text nodes in the subtree.
func (v *VNode) TextContent() string {
	var b []byte
	v.walk(func(n *VNode) {
		if n.Kind == KindText {
			b = append(b, n.Text...)
		}
	})
	return string(b)
}

func (v *VNode) walk(fn func(*VNode)) {
	if v == nil {
		return
	}
	fn(v)
	for _, child := range v.Children {
		child.walk(fn)
	}
}
