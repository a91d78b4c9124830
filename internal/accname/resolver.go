package accname

import (
	"strings"

	"a11y-server/internal/dom"
)

// Resolver computes names for the elements of one or more documents. Names
// are memoized, so a Resolver must not outlive changes to its documents. It
// is not safe for concurrent use.
type Resolver struct {
	names  map[dom.Node]*Result
	labels map[dom.Document]map[string][]dom.Node
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{
		names:  make(map[dom.Node]*Result),
		labels: make(map[dom.Document]map[string][]dom.Node),
	}
}

// walk is the state of one top-level computation.
type walk struct {
	// target is the element being named; id references back to it
	// contribute nothing.
	target dom.Node
	// exclude is skipped during content aggregation.
	exclude dom.Node
	// active holds the elements whose content is being aggregated.
	active map[dom.Node]bool
}

func newWalk(target dom.Node) *walk {
	return &walk{target: target, active: make(map[dom.Node]bool)}
}

// Name computes the accessible name of n. It never returns nil.
func (r *Resolver) Name(n dom.Node) *Result {
	if res, ok := r.names[n]; ok {
		return res
	}
	res := r.computeName(n)
	r.names[n] = res
	return res
}

func (r *Resolver) computeName(n dom.Node) *Result {
	if !dom.IsElement(n) {
		return &Result{Source: SourceNone}
	}
	w := newWalk(n)

	if ids, ok := n.Attr("aria-labelledby"); ok {
		if res := r.fromIDRefs(n, ids, SourceAriaLabelledBy, w); !res.Empty() {
			return res
		}
	}
	if label := Normalize(dom.AttrValue(n, "aria-label")); label != "" {
		return &Result{Name: label, Source: SourceAriaLabel, IncludesAriaLabel: true}
	}
	if res := r.native(n, w); !res.Empty() {
		return res
	}
	if title := Normalize(dom.AttrValue(n, "title")); title != "" {
		return &Result{Name: title, Source: SourceTitle}
	}
	return &Result{Source: SourceNone}
}

// Description computes the accessible description of n from
// aria-describedby, then aria-description, then title when allowTitle is
// set. It returns nil when none of them is present.
func (r *Resolver) Description(n dom.Node, allowTitle bool) *Result {
	if !dom.IsElement(n) {
		return nil
	}
	var res *Result
	if ids, ok := n.Attr("aria-describedby"); ok {
		res = r.fromIDRefs(n, ids, SourceAriaDescribedBy, newWalk(n))
		if !res.Empty() {
			return res
		}
	}
	if v, ok := n.Attr("aria-description"); ok {
		res = &Result{Name: Normalize(v), Source: SourceAriaDescription}
		if !res.Empty() {
			return res
		}
	}
	if allowTitle {
		if v, ok := n.Attr("title"); ok {
			res = &Result{Name: Normalize(v), Source: SourceTitle}
		}
	}
	return res
}

// ErrorMessage computes the text of the elements named by
// aria-errormessage, or nil when the attribute is absent.
func (r *Resolver) ErrorMessage(n dom.Node) *Result {
	if !dom.IsElement(n) {
		return nil
	}
	ids, ok := n.Attr("aria-errormessage")
	if !ok {
		return nil
	}
	return r.fromIDRefs(n, ids, SourceAriaErrorMessage, newWalk(n))
}

var groupable = map[string]bool{
	"button":   true,
	"input":    true,
	"keygen":   true,
	"meter":    true,
	"output":   true,
	"progress": true,
	"select":   true,
	"textarea": true,
}

// GroupingLabels returns the legends of the fieldsets enclosing a form
// control, innermost first.
func (r *Resolver) GroupingLabels(n dom.Node) []GroupingLabel {
	if !dom.IsElement(n) || !groupable[n.TagName()] {
		return nil
	}
	if n.TagName() == "input" && dom.InputType(n) == "hidden" {
		return nil
	}
	var out []GroupingLabel
	for fs := dom.Closest(n, "fieldset"); fs != nil; fs = dom.Closest(fs, "fieldset") {
		legend := childElement(fs, "legend")
		if legend == nil {
			continue
		}
		w := newWalk(n)
		w.exclude = n
		if name := Normalize(r.contents(legend, w, false).text); name != "" {
			out = append(out, GroupingLabel{Name: name, Source: SourceFieldsetLegend})
		}
	}
	return out
}

// fromIDRefs aggregates the elements named by an id reference list. Each
// referenced element contributes its aria-label, else its content with its
// own hidden state ignored.
func (r *Resolver) fromIDRefs(n dom.Node, value string, source Source, w *walk) *Result {
	res := &Result{Source: source}
	var parts []string
	for _, id := range dom.IDRefs(value) {
		el := dom.Lookup(n, id)
		if el == nil || el == w.target {
			continue
		}
		c := r.nodeContents(el, w, true)
		text := Normalize(c.text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		res.IncludesAlt = res.IncludesAlt || c.includesAlt
		res.IncludesAriaLabel = res.IncludesAriaLabel || c.includesAriaLabel
		res.NameIsNotVisible = res.NameIsNotVisible || hidden(el)
	}
	res.Name = strings.Join(parts, " ")
	return res
}

// labelsFor returns the label elements whose for attribute names id.
func (r *Resolver) labelsFor(doc dom.Document, id string) []dom.Node {
	if doc == nil {
		return nil
	}
	idx, ok := r.labels[doc]
	if !ok {
		idx = make(map[string][]dom.Node)
		dom.Walk(doc.Root(), func(n dom.Node) bool {
			if n.Kind() != dom.ElementNode {
				return false
			}
			if n.TagName() == "label" {
				if f := strings.TrimSpace(dom.AttrValue(n, "for")); f != "" {
					idx[f] = append(idx[f], n)
				}
			}
			return true
		})
		r.labels[doc] = idx
	}
	return idx[id]
}

// labelAssociation names a form control from a label referencing it, else
// from the nearest enclosing label. The control itself is left out of the
// label's content.
func (r *Resolver) labelAssociation(n dom.Node, w *walk) *Result {
	w.exclude = n
	defer func() { w.exclude = nil }()

	if id := strings.TrimSpace(dom.AttrValue(n, "id")); id != "" {
		for _, label := range r.labelsFor(n.Document(), id) {
			if res := r.contentResult(label, SourceLabelReference, w); !res.Empty() {
				return res
			}
		}
	}
	if label := dom.Closest(n, "label"); label != nil {
		return r.contentResult(label, SourceLabelEncapsulation, w)
	}
	return nil
}

// contentResult aggregates the content of el into a result.
func (r *Resolver) contentResult(el dom.Node, source Source, w *walk) *Result {
	c := r.contents(el, w, false)
	return &Result{
		Name:              Normalize(c.text),
		Source:            source,
		IncludesAlt:       c.includesAlt,
		IncludesAriaLabel: c.includesAriaLabel,
		NameIsNotVisible:  hidden(el),
	}
}

func attrResult(n dom.Node, name string) *Result {
	if v := Normalize(dom.AttrValue(n, name)); v != "" {
		return &Result{Name: v, Source: Source(name), IncludesAlt: name == "alt"}
	}
	return nil
}

func childElement(n dom.Node, tag string) dom.Node {
	for _, c := range n.Children() {
		if dom.IsElement(c, tag) {
			return c
		}
	}
	return nil
}

// hidden reports whether el is hidden from assistive technology.
func hidden(el dom.Node) bool {
	if el.HiddenByMarkup() || el.HiddenByDisplay() || el.HiddenByVisibility() {
		return true
	}
	return ariaHidden(el)
}

func ariaHidden(el dom.Node) bool {
	return strings.EqualFold(strings.TrimSpace(dom.AttrValue(el, "aria-hidden")), "true")
}
