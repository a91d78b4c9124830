package htmldoc

import (
	"strings"

	"golang.org/x/net/html"

	"a11y-server/internal/dom"
)

// Node wraps an element or text node of a parsed document. Exactly one Node
// exists per underlying html.Node, so Nodes compare by identity.
type Node struct {
	doc      *Document
	raw      *html.Node
	parent   *Node
	children []dom.Node
	kind     dom.Kind
	tag      string
	path     string

	hiddenMarkup     bool
	hiddenDisplay    bool
	hiddenVisibility bool
	before, after    dom.Generated
}

var _ dom.Node = (*Node)(nil)

func (n *Node) Kind() dom.Kind { return n.kind }

func (n *Node) TagName() string { return n.tag }

func (n *Node) Text() string {
	if n.kind != dom.TextNode {
		return ""
	}
	return n.raw.Data
}

func (n *Node) Attributes() []dom.Attribute {
	if n.kind != dom.ElementNode || len(n.raw.Attr) == 0 {
		return nil
	}
	out := make([]dom.Attribute, 0, len(n.raw.Attr))
	for _, a := range n.raw.Attr {
		out = append(out, dom.Attribute{Name: attrName(a), Value: a.Val})
	}
	return out
}

func (n *Node) Attr(name string) (string, bool) {
	if n.kind != dom.ElementNode {
		return "", false
	}
	for _, a := range n.raw.Attr {
		if attrName(a) == name {
			return a.Val, true
		}
	}
	return "", false
}

func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attr(name)
	return ok
}

// Parent returns the parent element. The returned interface is nil, not a
// typed nil, for the document element.
func (n *Node) Parent() dom.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Children() []dom.Node { return n.children }

func (n *Node) Document() dom.Document { return n.doc }

func (n *Node) HiddenByMarkup() bool { return n.hiddenMarkup }

func (n *Node) HiddenByDisplay() bool { return n.hiddenDisplay }

func (n *Node) HiddenByVisibility() bool { return n.hiddenVisibility }

func (n *Node) Before() dom.Generated { return n.before }

func (n *Node) After() dom.Generated { return n.after }

// Path returns a locator such as "html[1]/body[1]/table[2]" where the index
// counts same-tag siblings. Text nodes share their parent's path plus "#text".
func (n *Node) Path() string { return n.path }

func (n *Node) Checked() (bool, bool) {
	if n.tag != "input" {
		return false, false
	}
	switch dom.InputType(n) {
	case "checkbox", "radio":
		return n.HasAttr("checked"), true
	}
	return false, false
}

func (n *Node) Selected() (bool, bool) {
	if n.tag != "option" {
		return false, false
	}
	if n.HasAttr("selected") {
		return true, true
	}
	sel := n.ownerSelect()
	if sel == nil || sel.HasAttr("multiple") {
		return false, true
	}
	// a single select without an explicit selection shows its first option
	opts := sel.options()
	for _, o := range opts {
		if o.HasAttr("selected") {
			return false, true
		}
	}
	return len(opts) > 0 && opts[0] == n, true
}

func (n *Node) SelectedOptionValues() []string {
	if n.tag != "select" {
		return nil
	}
	var out []string
	for _, o := range n.options() {
		if sel, _ := o.Selected(); sel {
			out = append(out, o.optionText())
		}
	}
	return out
}

func (n *Node) ownerSelect() *Node {
	for p := n.parent; p != nil; p = p.parent {
		if p.tag == "select" {
			return p
		}
	}
	return nil
}

func (n *Node) options() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(el *Node) {
		for _, c := range el.children {
			child := c.(*Node)
			if child.kind != dom.ElementNode {
				continue
			}
			if child.tag == "option" {
				out = append(out, child)
				continue
			}
			walk(child)
		}
	}
	walk(n)
	return out
}

func (n *Node) optionText() string {
	if label, ok := n.Attr("label"); ok && strings.TrimSpace(label) != "" {
		return strings.Join(strings.Fields(label), " ")
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(h *html.Node) {
		if h.Type == html.TextNode {
			b.WriteString(h.Data)
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n.raw)
	return strings.Join(strings.Fields(b.String()), " ")
}

// attrName returns the lowercase, namespace qualified attribute name.
func attrName(a html.Attribute) string {
	if a.Namespace != "" {
		return a.Namespace + ":" + a.Key
	}
	return a.Key
}

func attr(h *html.Node, key string) string {
	for _, a := range h.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(h *html.Node, key string) bool {
	for _, a := range h.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}
