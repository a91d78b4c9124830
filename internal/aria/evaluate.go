package aria

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"a11y-server/internal/dom"
)

// Evaluator validates elements against the tables of one version. It keeps
// an aria-owns index per document it has seen.
type Evaluator struct {
	tables *VersionTables

	mu     sync.Mutex
	owners map[dom.Document]map[string][]dom.Node
}

// NewEvaluator returns an Evaluator for version v.
func NewEvaluator(v Version) (*Evaluator, error) {
	t, err := Tables(v)
	if err != nil {
		return nil, err
	}
	return &Evaluator{tables: t, owners: make(map[dom.Document]map[string][]dom.Node)}, nil
}

// Tables returns the tables the evaluator validates against.
func (e *Evaluator) Tables() *VersionTables { return e.tables }

// Evaluate is a one-shot Evaluator.Evaluate for version v.
func Evaluate(doc dom.Document, hasRole bool, role, defaultRole string, n dom.Node, v Version) (*Info, error) {
	e, err := NewEvaluator(v)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(doc, hasRole, role, defaultRole, n), nil
}

// Evaluate classifies role for element n and validates its aria-* attributes.
// hasRole reports whether role comes from a role attribute; defaultRole is
// the element's implicit role, used when role has no design pattern.
func (e *Evaluator) Evaluate(doc dom.Document, hasRole bool, role, defaultRole string, n dom.Node) *Info {
	if doc == nil {
		doc = n.Document()
	}
	info := &Info{
		Role:        role,
		HasRole:     hasRole,
		DefaultRole: defaultRole,
		Version:     e.tables.Version,
	}

	pattern, ok := e.pattern(role, n)
	info.IsValidRole = ok
	if !ok {
		pattern, ok = e.pattern(defaultRole, n)
	}
	if !ok {
		pattern, _ = e.tables.Pattern("generic")
	}
	e.classify(info, pattern, n)

	if info.IsRange {
		info.ValueMin = rangeValue(n, "aria-valuemin", "0")
		info.ValueMax = rangeValue(n, "aria-valuemax", "100")
		info.ValueNow = rangeValue(n, "aria-valuenow", "")
	}

	info.Owns = dom.IDRefs(dom.AttrValue(n, "aria-owns"))
	if id := strings.TrimSpace(dom.AttrValue(n, "id")); id != "" {
		info.OwnedBy = e.ownerIndex(doc)[id]
	}

	e.checkAttributes(info, pattern, doc, n)
	if hasRole {
		e.checkRequired(info, pattern, n)
	}
	return info
}

// pattern resolves role to a design pattern, applying the contextual
// separator and row variants.
func (e *Evaluator) pattern(role string, n dom.Node) (*DesignPattern, bool) {
	if role == "" || isVariant(role) {
		return nil, false
	}
	key := role
	switch role {
	case "separator":
		if IsFocusable(n) {
			key = "separatorFocusable"
		}
	case "row":
		key = rowVariant(n)
	}
	return e.tables.Pattern(key)
}

// rowVariant picks the row pattern from the nearest enclosing grid,
// treegrid or table.
func rowVariant(n dom.Node) string {
	for p := n.Parent(); p != nil; p = p.Parent() {
		r, explicit := ExplicitRole(p)
		switch {
		case r == "grid":
			return "rowGrid"
		case r == "treegrid":
			return "rowTreegrid"
		case r == "table", !explicit && p.TagName() == "table":
			return "row"
		}
	}
	return "row"
}

func (e *Evaluator) classify(info *Info, p *DesignPattern, n dom.Node) {
	info.Pattern = p.Role
	info.IsAbstractRole = p.Is(RoleTypeAbstract)
	info.IsWidget = p.Is(RoleTypeWidget)
	info.IsLandmark = p.Is(RoleTypeLandmark)
	info.IsSection = p.Is(RoleTypeSection)
	info.IsRange = p.Is(RoleTypeRange)
	info.IsWindow = p.Is(RoleTypeWindow)
	info.IsLive = p.Is(RoleTypeLive)
	switch strings.ToLower(strings.TrimSpace(dom.AttrValue(n, "aria-live"))) {
	case "polite", "assertive":
		info.IsLive = true
	}
	info.IsNameRequired = p.NameRequired
	info.IsNameProhibited = p.NameProhibited
	info.RequiredParents = p.RequiredParents
	info.RequiredChildren = p.RequiredChildren
}

func (e *Evaluator) checkAttributes(info *Info, p *DesignPattern, doc dom.Document, n dom.Node) {
	for _, a := range n.Attributes() {
		if !strings.HasPrefix(a.Name, "aria-") {
			continue
		}
		prop, ok := e.tables.Property(a.Name)
		if !ok {
			info.InvalidAttrs = append(info.InvalidAttrs, Attr{Name: a.Name, Value: a.Value})
			continue
		}
		attr := Attr{Name: a.Name, Value: a.Value, Type: prop.Type, AllowedValues: prop.Values}
		info.ValidAttrs = append(info.ValidAttrs, attr)

		if !validValue(prop, a.Value) {
			info.InvalidAttrValues = append(info.InvalidAttrValues, attr)
		}
		if prop.Type == TypeIDRef || prop.Type == TypeIDRefs {
			if bad := unresolvedIDs(doc, a.Value); len(bad) > 0 {
				info.InvalidRefs = append(info.InvalidRefs, InvalidRef{Attr: attr, InvalidIDs: bad})
			}
		}
		if !p.Supports(a.Name) {
			info.UnsupportedAttrs = append(info.UnsupportedAttrs, attr)
		}
		if p.Deprecates(a.Name) || prop.Deprecated {
			info.DeprecatedAttrs = append(info.DeprecatedAttrs, attr)
		}
	}
}

func (e *Evaluator) checkRequired(info *Info, p *DesignPattern, n dom.Node) {
	for _, name := range p.RequiredProps {
		req := RequiredAttr{Name: name}
		if prop, ok := e.tables.Property(name); ok {
			req.DefaultValue = prop.DefaultValue
		}
		if v, ok := n.Attr(name); ok {
			req.Value = v
			req.Satisfaction = Present
		} else if req.DefaultValue != "" && req.DefaultValue != "undefined" {
			req.Satisfaction = DefaultValue
		} else if v, ok := nativeValue(n, name); ok {
			req.Value = v
			req.Satisfaction = NativeSemantics
		}
		info.RequiredAttrs = append(info.RequiredAttrs, req)
	}
}

// nativeValue returns the value the element's host language semantics give
// an aria attribute.
func nativeValue(n dom.Node, name string) (string, bool) {
	switch name {
	case "aria-checked":
		if checked, ok := n.Checked(); ok {
			return strconv.FormatBool(checked), true
		}
	case "aria-selected":
		if selected, ok := n.Selected(); ok {
			return strconv.FormatBool(selected), true
		}
	case "aria-level":
		switch tag := n.TagName(); tag {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			return tag[1:], true
		}
	case "aria-valuenow":
		switch n.TagName() {
		case "input":
			if t := dom.InputType(n); t != "range" && t != "number" {
				return "", false
			}
		case "progress", "meter":
		default:
			return "", false
		}
		if v := strings.TrimSpace(dom.AttrValue(n, "value")); v != "" {
			return v, true
		}
		if dom.InputType(n) == "range" {
			lo, hi := attrNumber(n, "min", 0), attrNumber(n, "max", 100)
			return strconv.FormatFloat(lo+(hi-lo)/2, 'f', -1, 64), true
		}
	}
	return "", false
}

func attrNumber(n dom.Node, name string, def float64) float64 {
	if f, ok := parseNumber(dom.AttrValue(n, name)); ok {
		return f
	}
	return def
}

func rangeValue(n dom.Node, name, def string) *RangeValue {
	v, ok := n.Attr(name)
	if !ok {
		if def == "" {
			return &RangeValue{Raw: "undefined"}
		}
		f, _ := parseNumber(def)
		return &RangeValue{Raw: def, Value: f, Valid: true}
	}
	raw := strings.TrimSpace(v)
	f, valid := parseNumber(raw)
	return &RangeValue{Raw: raw, Value: f, Has: true, Valid: valid}
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// validValue checks a value against the property's declared type.
func validValue(prop *PropertyDataType, value string) bool {
	v := strings.TrimSpace(value)
	switch prop.Type {
	case TypeBoolean, TypeTristate, TypeNMToken:
		return containsFold(prop.Values, v)
	case TypeNMTokens:
		tokens := strings.Fields(v)
		if len(tokens) == 0 {
			return false
		}
		for _, t := range tokens {
			if !containsFold(prop.Values, t) {
				return false
			}
		}
		return true
	case TypeInteger:
		i, err := strconv.Atoi(v)
		if err != nil {
			return false
		}
		if prop.AllowUndeterminedValue {
			return i >= -1
		}
		return i > 0
	case TypeNumber, TypeDecimal:
		_, ok := parseNumber(v)
		return ok
	default:
		return true
	}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// unresolvedIDs returns the ids of value that do not name an element of doc.
// Ids the document rejects count as unresolved.
func unresolvedIDs(doc dom.Document, value string) []string {
	var bad []string
	for _, id := range dom.IDRefs(value) {
		el, err := doc.ElementByID(id)
		if err != nil || el == nil {
			bad = append(bad, id)
		}
	}
	return bad
}

func (e *Evaluator) ownerIndex(doc dom.Document) map[string][]dom.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx, ok := e.owners[doc]; ok {
		return idx
	}
	idx := make(map[string][]dom.Node)
	dom.Walk(doc.Root(), func(n dom.Node) bool {
		if n.Kind() != dom.ElementNode {
			return false
		}
		for _, id := range dom.IDRefs(dom.AttrValue(n, "aria-owns")) {
			idx[id] = append(idx[id], n)
		}
		return true
	})
	e.owners[doc] = idx
	return idx
}
