package dom

import "strings"

// AttrValue returns the attribute value or "" when absent.
func AttrValue(n Node, name string) string {
	v, _ := n.Attr(name)
	return v
}

// IsElement reports whether n is an element with one of the given tag names.
// With no tags it reports whether n is an element at all.
func IsElement(n Node, tags ...string) bool {
	if n == nil || n.Kind() != ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	tag := n.TagName()
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// InputType returns the lowercase type of an input element, defaulting to "text".
func InputType(n Node) string {
	t := strings.ToLower(strings.TrimSpace(AttrValue(n, "type")))
	if t == "" {
		return "text"
	}
	return t
}

// Closest returns the nearest ancestor (excluding n) matching tag, or nil.
func Closest(n Node, tag string) Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.TagName() == tag {
			return p
		}
	}
	return nil
}

// ChildElements returns the element children of n.
func ChildElements(n Node) []Node {
	var out []Node
	for _, c := range n.Children() {
		if c.Kind() == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// FirstDescendant returns the first descendant element with the given tag in
// document order, or nil.
func FirstDescendant(n Node, tag string) Node {
	for _, c := range n.Children() {
		if c.Kind() != ElementNode {
			continue
		}
		if c.TagName() == tag {
			return c
		}
		if d := FirstDescendant(c, tag); d != nil {
			return d
		}
	}
	return nil
}

// Walk visits n and its descendants depth-first in document order. Returning
// false from fn skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// IDRefs splits an id reference list on whitespace.
func IDRefs(value string) []string {
	return strings.Fields(value)
}

// Lookup resolves id within the document of n. Lookup failures are reported
// as not found.
func Lookup(n Node, id string) Node {
	doc := n.Document()
	if doc == nil {
		return nil
	}
	el, err := doc.ElementByID(id)
	if err != nil {
		return nil
	}
	return el
}
