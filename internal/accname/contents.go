package accname

import (
	"strings"

	"a11y-server/internal/aria"
	"a11y-server/internal/dom"
)

// content is the aggregated text of a subtree and what it was made of.
type content struct {
	text              string
	includesAlt       bool
	includesAriaLabel bool
}

func (c content) plus(o content) content {
	return content{
		text:              c.text + o.text,
		includesAlt:       c.includesAlt || o.includesAlt,
		includesAriaLabel: c.includesAriaLabel || o.includesAriaLabel,
	}
}

func text(s string) content { return content{text: s} }

// contents aggregates the children of el in document order, framed by its
// generated ::before and ::after content. includeText makes the direct text
// children count even when hidden, which holds for an element reached
// through an id reference.
func (r *Resolver) contents(el dom.Node, w *walk, includeText bool) content {
	if w.active[el] {
		return content{}
	}
	w.active[el] = true
	defer delete(w.active, el)

	c := text(generatedText(el.Before()))
	for _, child := range el.Children() {
		if child.Kind() == dom.TextNode {
			if includeText || !hidden(child) {
				c = c.plus(text(collapse(child.Text())))
			}
			continue
		}
		c = c.plus(r.nodeContents(child, w, false))
	}
	return c.plus(text(generatedText(el.After())))
}

// nodeContents is the contribution of one element to its ancestor's
// content. include overrides the element's own hidden state, never that of
// its descendants.
func (r *Resolver) nodeContents(el dom.Node, w *walk, include bool) content {
	if el == w.exclude {
		return content{}
	}
	if !include && hidden(el) {
		return content{}
	}
	if label := Normalize(dom.AttrValue(el, "aria-label")); label != "" {
		return content{text: label, includesAriaLabel: true}
	}
	if imageLike(el) {
		alt, ok := el.Attr("alt")
		return content{text: collapse(alt), includesAlt: ok}
	}
	if v, ok := embeddedValue(el); ok {
		return text(v + " ")
	}
	return r.contents(el, w, include)
}

func imageLike(el dom.Node) bool {
	switch el.TagName() {
	case "img", "area":
		return true
	case "input":
		return dom.InputType(el) == "image"
	}
	return false
}

// embeddedValue returns the current value of a form control embedded in
// the content being named.
func embeddedValue(el dom.Node) (string, bool) {
	switch role := aria.Role(el); role {
	case "slider", "spinbutton":
		if v, ok := el.Attr("aria-valuetext"); ok {
			return Normalize(v), true
		}
		if v, ok := el.Attr("aria-valuenow"); ok {
			return Normalize(v), true
		}
		if el.TagName() == "input" {
			return Normalize(dom.AttrValue(el, "value")), true
		}
		return "", true
	}
	switch el.TagName() {
	case "select":
		return strings.Join(el.SelectedOptionValues(), " "), true
	case "input":
		if textInputTypes[dom.InputType(el)] {
			return Normalize(dom.AttrValue(el, "value")), true
		}
	}
	return "", false
}

// generatedText returns the text of a visible pseudo-element with the
// quotes of its content string removed. Engine specific keywords such as
// -moz-alt-content are not text.
func generatedText(g dom.Generated) string {
	if !g.Visible {
		return ""
	}
	v := strings.TrimSpace(g.Content)
	switch {
	case v == "", v == "none", v == "normal", strings.HasPrefix(v, "-moz-"):
		return ""
	}
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		v = v[1 : len(v)-1]
	}
	return collapse(v)
}
