package aria

import (
	"a11y-server/internal/dom"
)

// Satisfaction records how a required attribute is met.
type Satisfaction int

const (
	Missing Satisfaction = iota
	Present
	DefaultValue
	NativeSemantics
)

func (s Satisfaction) String() string {
	switch s {
	case Present:
		return "present"
	case DefaultValue:
		return "default value"
	case NativeSemantics:
		return "native semantics"
	default:
		return "missing"
	}
}

func (s Satisfaction) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Attr is an aria-* attribute found on a node.
type Attr struct {
	Name          string   `json:"name"`
	Value         string   `json:"value"`
	Type          DataType `json:"type,omitempty"`
	AllowedValues []string `json:"allowedValues,omitempty"`
}

// InvalidRef is an id reference attribute with ids that do not resolve.
type InvalidRef struct {
	Attr
	InvalidIDs []string `json:"invalidIds"`
}

// RequiredAttr is one attribute the role requires.
type RequiredAttr struct {
	Name         string       `json:"name"`
	Value        string       `json:"value,omitempty"`
	DefaultValue string       `json:"defaultValue,omitempty"`
	Satisfaction Satisfaction `json:"satisfaction"`
}

// Satisfied reports whether the requirement is met by any means.
func (r RequiredAttr) Satisfied() bool { return r.Satisfaction != Missing }

// RangeValue is one of aria-valuemin, aria-valuemax and aria-valuenow.
// Raw is "undefined" for an absent aria-valuenow.
type RangeValue struct {
	Raw   string  `json:"raw"`
	Value float64 `json:"value"`
	Has   bool    `json:"has"`
	Valid bool    `json:"valid"`
}

// Info is the ARIA evaluation of one element.
type Info struct {
	Role        string  `json:"role"`
	HasRole     bool    `json:"hasRole"`
	DefaultRole string  `json:"defaultRole,omitempty"`
	Version     Version `json:"version"`
	// Pattern names the design pattern applied, which may be a contextual
	// variant or the default role's pattern.
	Pattern string `json:"pattern"`

	IsValidRole      bool `json:"isValidRole"`
	IsAbstractRole   bool `json:"isAbstractRole"`
	IsWidget         bool `json:"isWidget"`
	IsLandmark       bool `json:"isLandmark"`
	IsSection        bool `json:"isSection"`
	IsRange          bool `json:"isRange"`
	IsLive           bool `json:"isLive"`
	IsWindow         bool `json:"isWindow"`
	IsNameRequired   bool `json:"isNameRequired"`
	IsNameProhibited bool `json:"isNameProhibited"`

	RequiredParents  []string `json:"requiredParents,omitempty"`
	RequiredChildren []string `json:"requiredChildren,omitempty"`

	// Owns lists the aria-owns ids; OwnedBy lists the elements whose
	// aria-owns names this element.
	Owns    []string   `json:"owns,omitempty"`
	OwnedBy []dom.Node `json:"-"`

	ValueMin *RangeValue `json:"valueMin,omitempty"`
	ValueMax *RangeValue `json:"valueMax,omitempty"`
	ValueNow *RangeValue `json:"valueNow,omitempty"`

	ValidAttrs        []Attr         `json:"validAttrs,omitempty"`
	InvalidAttrs      []Attr         `json:"invalidAttrs,omitempty"`
	InvalidAttrValues []Attr         `json:"invalidAttrValues,omitempty"`
	InvalidRefs       []InvalidRef   `json:"invalidRefs,omitempty"`
	UnsupportedAttrs  []Attr         `json:"unsupportedAttrs,omitempty"`
	DeprecatedAttrs   []Attr         `json:"deprecatedAttrs,omitempty"`
	RequiredAttrs     []RequiredAttr `json:"requiredAttrs,omitempty"`
}

// MissingRequiredAttrs returns the names of the unmet requirements.
func (i *Info) MissingRequiredAttrs() []string {
	var out []string
	for _, r := range i.RequiredAttrs {
		if !r.Satisfied() {
			out = append(out, r.Name)
		}
	}
	return out
}

// HasProblems reports whether any attribute or role problem was recorded.
func (i *Info) HasProblems() bool {
	return (i.HasRole && (!i.IsValidRole || i.IsAbstractRole)) ||
		len(i.InvalidAttrs) > 0 ||
		len(i.InvalidAttrValues) > 0 ||
		len(i.InvalidRefs) > 0 ||
		len(i.UnsupportedAttrs) > 0 ||
		len(i.DeprecatedAttrs) > 0 ||
		len(i.MissingRequiredAttrs()) > 0
}
