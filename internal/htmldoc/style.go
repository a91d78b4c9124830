package htmldoc

import (
	"strings"

	"github.com/andybalholm/cascadia"

	"a11y-server/internal/dom"
)

// cascaded holds the winning values of the properties we track for one
// element or pseudo-element. Empty means "not declared".
type cascaded struct {
	display    string
	visibility string
	content    string
}

type candidate struct {
	value       string
	important   bool
	inline      bool
	specificity cascadia.Specificity
	order       int
	set         bool
}

func (c *candidate) offer(value string, important, inline bool, spec cascadia.Specificity, order int) {
	if c.set {
		if c.important != important {
			if c.important {
				return
			}
		} else if c.inline != inline {
			if c.inline {
				return
			}
		} else if spec.Less(c.specificity) ||
			(spec == c.specificity && order < c.order) {
			return
		}
	}
	*c = candidate{value: value, important: important, inline: inline, specificity: spec, order: order, set: true}
}

type cascade struct {
	display, visibility, content candidate
}

func (c *cascade) apply(decls []declaration, inline bool, spec cascadia.Specificity, order int) {
	for _, d := range decls {
		switch d.property {
		case "display":
			c.display.offer(firstWord(d.value), d.important, inline, spec, order)
		case "visibility":
			c.visibility.offer(firstWord(d.value), d.important, inline, spec, order)
		case "content":
			c.content.offer(d.value, d.important, inline, spec, order)
		}
	}
}

func (c *cascade) result() cascaded {
	return cascaded{display: c.display.value, visibility: c.visibility.value, content: c.content.value}
}

func firstWord(v string) string {
	if f := strings.Fields(v); len(f) > 0 {
		return f[0]
	}
	return ""
}

// cascadeFor computes the cascaded values for el and its two pseudo-elements.
func (d *Document) cascadeFor(el *Node) (self, before, after cascaded) {
	var cs, cb, ca cascade
	for _, r := range d.rules {
		for _, sel := range r.selectors {
			if !sel.matches(el) {
				continue
			}
			switch sel.pseudo {
			case pseudoBefore:
				cb.apply(r.declarations, false, sel.specificity, r.order)
			case pseudoAfter:
				ca.apply(r.declarations, false, sel.specificity, r.order)
			default:
				cs.apply(r.declarations, false, sel.specificity, r.order)
			}
		}
	}
	if style, ok := el.Attr("style"); ok {
		cs.apply(parseInlineStyle(style), true, cascadia.Specificity{}, 0)
	}
	return cs.result(), cb.result(), ca.result()
}

// computeStyles walks the tree top-down resolving the inherited hidden
// states and the generated content of every element.
func (d *Document) computeStyles(el *Node) {
	parent := el.parent
	parentVisibility := "visible"
	if parent != nil {
		el.hiddenMarkup = parent.hiddenMarkup
		el.hiddenDisplay = parent.hiddenDisplay
		if parent.hiddenVisibility {
			parentVisibility = "hidden"
		}
	}

	if el.kind == dom.TextNode {
		el.hiddenVisibility = parentVisibility != "visible"
		return
	}

	if hasAttr(el.raw, "hidden") {
		el.hiddenMarkup = true
	}
	if el.tag == "input" && strings.EqualFold(strings.TrimSpace(attr(el.raw, "type")), "hidden") {
		el.hiddenMarkup = true
	}

	self, before, after := d.cascadeFor(el)
	if self.display == "none" {
		el.hiddenDisplay = true
	}
	visibility := resolveVisibility(self.visibility, parentVisibility)
	el.hiddenVisibility = visibility != "visible"

	el.before = generated(el, before, visibility)
	el.after = generated(el, after, visibility)

	for _, c := range el.children {
		d.computeStyles(c.(*Node))
	}
}

func resolveVisibility(declared, inherited string) string {
	switch declared {
	case "visible", "hidden", "collapse":
		return declared
	default:
		return inherited
	}
}

// generated computes a pseudo-element's content and visibility. Content that
// was never declared reports "none", as a computed style would.
func generated(el *Node, c cascaded, elementVisibility string) dom.Generated {
	content := c.content
	if content == "" {
		content = "none"
	}
	visible := !el.hiddenMarkup && !el.hiddenDisplay &&
		c.display != "none" &&
		resolveVisibility(c.visibility, elementVisibility) == "visible" &&
		content != "none" && content != "normal"
	return dom.Generated{Content: content, Visible: visible}
}
