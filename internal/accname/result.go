// Package accname computes accessible names, descriptions and error messages
// of elements following the ARIA name computation precedence: id references,
// aria-label, host language semantics, then title.
package accname

import "strings"

// Source tells which step of the computation produced a result. Attribute
// sources are the attribute name itself (aria-label, alt, title, ...).
type Source string

const (
	SourceNone               Source = "none"
	SourceContents           Source = "contents"
	SourceDefault            Source = "default"
	SourceLabelReference     Source = "label reference"
	SourceLabelEncapsulation Source = "label encapsulation"
	SourceLegend             Source = "legend"
	SourceFieldsetLegend     Source = "fieldset/legend"
	SourceAriaLabelledBy     Source = "aria-labelledby"
	SourceAriaLabel          Source = "aria-label"
	SourceAriaDescribedBy    Source = "aria-describedby"
	SourceAriaDescription    Source = "aria-description"
	SourceAriaErrorMessage   Source = "aria-errormessage"
	SourceTitle              Source = "title"
	SourceAlt                Source = "alt"
	SourceValue              Source = "value"
	SourcePlaceholder        Source = "placeholder"
)

// elementSource is the source of a name taken from a child element.
func elementSource(tag string) Source {
	return Source(tag + " element")
}

// Result is an immutable name computation outcome. Name is always
// whitespace normalized; an empty Name means the method applied but produced
// nothing.
type Result struct {
	Name              string `json:"name"`
	Source            Source `json:"source"`
	IncludesAlt       bool   `json:"includesAlt,omitempty"`
	IncludesAriaLabel bool   `json:"includesAriaLabel,omitempty"`
	NameIsNotVisible  bool   `json:"nameIsNotVisible,omitempty"`
}

// Empty reports whether the result carries no text.
func (r *Result) Empty() bool { return r == nil || r.Name == "" }

// GroupingLabel is the legend text of an enclosing fieldset.
type GroupingLabel struct {
	Name   string `json:"name"`
	Source Source `json:"source"`
}

// Normalize collapses whitespace runs to one space and trims the ends.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// collapse collapses whitespace runs without trimming, so that adjacent
// text nodes keep their word boundaries.
func collapse(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				b.WriteByte(' ')
			}
			space = true
		default:
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}
