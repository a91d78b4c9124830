package aria

import (
	"strconv"
	"strings"

	"a11y-server/internal/dom"
)

// ExplicitRole returns the first token of the role attribute, lowercased.
func ExplicitRole(n dom.Node) (string, bool) {
	v, ok := n.Attr("role")
	if !ok {
		return "", false
	}
	f := strings.Fields(strings.ToLower(v))
	if len(f) == 0 {
		return "", false
	}
	return f[0], true
}

// Role returns the explicit role when present, else the implicit one.
func Role(n dom.Node) string {
	if r, ok := ExplicitRole(n); ok {
		return r
	}
	return ImplicitRole(n)
}

var implicitRoles = map[string]string{
	"article":    "article",
	"aside":      "complementary",
	"blockquote": "blockquote",
	"button":     "button",
	"caption":    "caption",
	"code":       "code",
	"datalist":   "listbox",
	"dd":         "definition",
	"del":        "deletion",
	"details":    "group",
	"dfn":        "term",
	"dialog":     "dialog",
	"dt":         "term",
	"em":         "emphasis",
	"fieldset":   "group",
	"figure":     "figure",
	"form":       "form",
	"h1":         "heading",
	"h2":         "heading",
	"h3":         "heading",
	"h4":         "heading",
	"h5":         "heading",
	"h6":         "heading",
	"hr":         "separator",
	"html":       "document",
	"ins":        "insertion",
	"li":         "listitem",
	"main":       "main",
	"math":       "math",
	"menu":       "list",
	"meter":      "meter",
	"nav":        "navigation",
	"ol":         "list",
	"optgroup":   "group",
	"option":     "option",
	"output":     "status",
	"p":          "paragraph",
	"progress":   "progressbar",
	"search":     "search",
	"strong":     "strong",
	"sub":        "subscript",
	"sup":        "superscript",
	"table":      "table",
	"tbody":      "rowgroup",
	"textarea":   "textbox",
	"tfoot":      "rowgroup",
	"thead":      "rowgroup",
	"time":       "time",
	"tr":         "row",
	"ul":         "list",
	"b":          "generic",
	"bdi":        "generic",
	"bdo":        "generic",
	"data":       "generic",
	"div":        "generic",
	"i":          "generic",
	"pre":        "generic",
	"q":          "generic",
	"samp":       "generic",
	"small":      "generic",
	"span":       "generic",
	"u":          "generic",
}

// conditionalRoles covers elements whose role depends on attributes or
// context.
var conditionalRoles = map[string]func(dom.Node) string{
	"a":       linkRole,
	"area":    linkRole,
	"footer":  sectioningRole("contentinfo"),
	"header":  sectioningRole("banner"),
	"img":     imgRole,
	"input":   inputRole,
	"section": sectionRole,
	"select":  selectRole,
	"td":      cellRole,
	"th":      headerCellRole,
}

// ImplicitRole returns the role an element has without a role attribute, or
// "" when it has none.
func ImplicitRole(n dom.Node) string {
	if !dom.IsElement(n) {
		return ""
	}
	tag := n.TagName()
	if fn, ok := conditionalRoles[tag]; ok {
		return fn(n)
	}
	return implicitRoles[tag]
}

func linkRole(n dom.Node) string {
	if n.HasAttr("href") {
		return "link"
	}
	return "generic"
}

func sectioningRole(role string) func(dom.Node) string {
	return func(n dom.Node) string {
		for p := n.Parent(); p != nil; p = p.Parent() {
			switch p.TagName() {
			case "article", "aside", "main", "nav", "section":
				return "generic"
			}
		}
		return role
	}
}

func imgRole(n dom.Node) string {
	if alt, ok := n.Attr("alt"); ok && alt == "" {
		return "presentation"
	}
	return "img"
}

func sectionRole(n dom.Node) string {
	if hasNameAttr(n) {
		return "region"
	}
	return "generic"
}

func hasNameAttr(n dom.Node) bool {
	for _, a := range []string{"aria-label", "aria-labelledby", "title"} {
		if strings.TrimSpace(dom.AttrValue(n, a)) != "" {
			return true
		}
	}
	return false
}

func selectRole(n dom.Node) string {
	if n.HasAttr("multiple") {
		return "listbox"
	}
	if size, err := strconv.Atoi(strings.TrimSpace(dom.AttrValue(n, "size"))); err == nil && size > 1 {
		return "listbox"
	}
	return "combobox"
}

func inputRole(n dom.Node) string {
	switch t := dom.InputType(n); t {
	case "button", "image", "reset", "submit":
		return "button"
	case "checkbox":
		return "checkbox"
	case "radio":
		return "radio"
	case "range":
		return "slider"
	case "number":
		return "spinbutton"
	case "search":
		if n.HasAttr("list") {
			return "combobox"
		}
		return "searchbox"
	case "email", "tel", "text", "url":
		if n.HasAttr("list") {
			return "combobox"
		}
		return "textbox"
	default:
		return ""
	}
}

func cellRole(n dom.Node) string {
	switch tableRole(n) {
	case "grid", "treegrid":
		return "gridcell"
	case "table":
		return "cell"
	}
	return ""
}

func headerCellRole(n dom.Node) string {
	if tableRole(n) == "" {
		return ""
	}
	switch strings.ToLower(strings.TrimSpace(dom.AttrValue(n, "scope"))) {
	case "row", "rowgroup":
		return "rowheader"
	}
	return "columnheader"
}

// tableRole returns the role of the nearest enclosing table element, or "".
func tableRole(n dom.Node) string {
	t := dom.Closest(n, "table")
	if t == nil {
		return ""
	}
	if r, ok := ExplicitRole(t); ok {
		switch r {
		case "grid", "treegrid", "table":
			return r
		case "presentation", "none":
			return ""
		}
	}
	return "table"
}

var focusableTags = map[string]bool{
	"button":   true,
	"select":   true,
	"textarea": true,
	"iframe":   true,
	"summary":  true,
}

// IsFocusable reports whether an element takes part in sequential keyboard
// navigation.
func IsFocusable(n dom.Node) bool {
	if !dom.IsElement(n) {
		return false
	}
	if v, ok := n.Attr("tabindex"); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i >= 0
		}
	}
	if n.HasAttr("disabled") {
		return false
	}
	tag := n.TagName()
	switch {
	case focusableTags[tag]:
		return true
	case tag == "a" || tag == "area":
		return n.HasAttr("href")
	case tag == "input":
		return dom.InputType(n) != "hidden"
	case tag == "audio" || tag == "video":
		return n.HasAttr("controls")
	}
	ce, ok := n.Attr("contenteditable")
	return ok && !strings.EqualFold(strings.TrimSpace(ce), "false")
}
