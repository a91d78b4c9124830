package accname

import (
	"a11y-server/internal/aria"
	"a11y-server/internal/dom"
)

// nativeRule computes the host language name of an element, or nil when the
// element has none.
type nativeRule func(r *Resolver, n dom.Node, w *walk) *Result

var nativeRules map[string]nativeRule

func init() {
	nativeRules = map[string]nativeRule{
		"input":    nameFromInput,
		"select":   nameFromLabel,
		"meter":    nameFromLabel,
		"output":   nameFromLabel,
		"progress": nameFromLabel,
		"keygen":   nameFromLabel,
		"textarea": nameFromLabelOr("placeholder"),
		"fieldset": nameFromDescendant("legend", SourceLegend),
		"img":      nameFromAttr("alt"),
		"area":     nameFromAttr("alt"),
		"svg":      nameFromDescendant("title", elementSource("title")),
		"iframe":   nameFromAttr("title"),
		"details":  nameFromDetails,
		"figure":   nameFromDescendant("figcaption", elementSource("figcaption")),
		"table":    nameFromDescendant("caption", elementSource("caption")),
		"a":        nameFromLink,
	}
	for _, tag := range []string{"button", "caption", "dd", "dt", "figcaption", "label", "li", "option", "td", "th"} {
		nativeRules[tag] = nameFromContents
	}
}

// nameFromContentRoles are the roles whose name comes from their content.
var nameFromContentRoles = map[string]bool{
	"button":           true,
	"cell":             true,
	"checkbox":         true,
	"columnheader":     true,
	"gridcell":         true,
	"heading":          true,
	"link":             true,
	"menuitem":         true,
	"menuitemcheckbox": true,
	"menuitemradio":    true,
	"option":           true,
	"radio":            true,
	"row":              true,
	"rowheader":        true,
	"switch":           true,
	"tab":              true,
	"tooltip":          true,
	"treeitem":         true,
}

var textInputTypes = map[string]bool{
	"email":    true,
	"password": true,
	"search":   true,
	"tel":      true,
	"text":     true,
	"url":      true,
}

// native applies the tag rule of n. When that yields no name, an element
// whose role takes its name from content still aggregates its content.
func (r *Resolver) native(n dom.Node, w *walk) *Result {
	var res *Result
	if rule, ok := nativeRules[n.TagName()]; ok {
		res = rule(r, n, w)
		if !res.Empty() || (res != nil && res.Source == SourceContents) {
			return res
		}
	}
	if nameFromContentRoles[aria.Role(n)] {
		return nameFromContents(r, n, w)
	}
	return res
}

func nameFromContents(r *Resolver, n dom.Node, w *walk) *Result {
	return r.contentResult(n, SourceContents, w)
}

func nameFromLabel(r *Resolver, n dom.Node, w *walk) *Result {
	return r.labelAssociation(n, w)
}

func nameFromLabelOr(attr string) nativeRule {
	return func(r *Resolver, n dom.Node, w *walk) *Result {
		if res := r.labelAssociation(n, w); !res.Empty() {
			return res
		}
		return attrResult(n, attr)
	}
}

func nameFromAttr(attr string) nativeRule {
	return func(_ *Resolver, n dom.Node, _ *walk) *Result {
		return attrResult(n, attr)
	}
}

func nameFromDescendant(tag string, source Source) nativeRule {
	return func(r *Resolver, n dom.Node, w *walk) *Result {
		if el := dom.FirstDescendant(n, tag); el != nil {
			return r.contentResult(el, source, w)
		}
		return nil
	}
}

func nameFromInput(r *Resolver, n dom.Node, w *walk) *Result {
	switch t := dom.InputType(n); {
	case textInputTypes[t]:
		if res := r.labelAssociation(n, w); !res.Empty() {
			return res
		}
		return attrResult(n, "placeholder")
	case t == "hidden":
		return nil
	case t == "image":
		if res := attrResult(n, "alt"); res != nil {
			return res
		}
		return attrResult(n, "value")
	case t == "button", t == "reset", t == "submit":
		if res := attrResult(n, "value"); res != nil {
			return res
		}
		switch t {
		case "reset":
			return &Result{Name: "Reset", Source: SourceDefault}
		case "submit":
			return &Result{Name: "Submit", Source: SourceDefault}
		}
		return nil
	default:
		return r.labelAssociation(n, w)
	}
}

// nameFromDetails uses the summary, followed by the rest of the content
// when the details element is open.
func nameFromDetails(r *Resolver, n dom.Node, w *walk) *Result {
	summary := childElement(n, "summary")
	var c content
	if summary != nil {
		c = r.contents(summary, w, false)
	}
	if n.HasAttr("open") {
		for _, child := range n.Children() {
			if child == summary {
				continue
			}
			if child.Kind() == dom.TextNode {
				if !hidden(child) {
					c = c.plus(text(collapse(child.Text())))
				}
				continue
			}
			c = c.plus(r.nodeContents(child, w, false))
		}
	}
	if summary == nil && !n.HasAttr("open") {
		return nil
	}
	return &Result{
		Name:              Normalize(c.text),
		Source:            SourceContents,
		IncludesAlt:       c.includesAlt,
		IncludesAriaLabel: c.includesAriaLabel,
		NameIsNotVisible:  hidden(n),
	}
}

// nameFromLink aggregates the content of anchors that link somewhere.
func nameFromLink(r *Resolver, n dom.Node, w *walk) *Result {
	if !n.HasAttr("href") {
		return nil
	}
	return nameFromContents(r, n, w)
}
