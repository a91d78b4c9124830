// Package aria classifies ARIA roles and validates the aria-* attributes of
// an element against a versioned table of design patterns and property data
// types.
//
// Tables for every supported WAI-ARIA version are loaded once from the
// embedded YAML files and are immutable afterwards, so a version is selected
// per evaluation by passing it explicitly; nothing is switched globally.
package aria

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownVersion is returned for a version without tables.
var ErrUnknownVersion = errors.New("aria: unknown WAI-ARIA version")

// Version is a WAI-ARIA version tag.
type Version string

const (
	Version12 Version = "1.2"
	Version13 Version = "1.3"

	DefaultVersion = Version12
)

// ParseVersion accepts "1.2" and "1.3"; the empty string selects the default.
func ParseVersion(s string) (Version, error) {
	switch v := Version(strings.TrimSpace(s)); v {
	case "":
		return DefaultVersion, nil
	case Version12, Version13:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVersion, s)
	}
}

// PropType distinguishes ARIA properties from states.
type PropType string

const (
	PropTypeProperty PropType = "property"
	PropTypeState    PropType = "state"
)

// DataType is the value type of an ARIA attribute.
type DataType string

const (
	TypeBoolean  DataType = "boolean"
	TypeInteger  DataType = "integer"
	TypeDecimal  DataType = "decimal"
	TypeNumber   DataType = "number"
	TypeString   DataType = "string"
	TypeIDRef    DataType = "idref"
	TypeIDRefs   DataType = "idrefs"
	TypeNMToken  DataType = "nmtoken"
	TypeNMTokens DataType = "nmtokens"
	TypeTristate DataType = "tristate"
)

// RoleType is a classification tag of a design pattern.
type RoleType string

const (
	RoleTypeWidget   RoleType = "widget"
	RoleTypeLandmark RoleType = "landmark"
	RoleTypeLive     RoleType = "live"
	RoleTypeSection  RoleType = "section"
	RoleTypeRange    RoleType = "range"
	RoleTypeAbstract RoleType = "abstract"
	RoleTypeWindow   RoleType = "window"
)

// PropertyDataType describes one aria-* attribute.
type PropertyDataType struct {
	Name                   string
	PropType               PropType
	Type                   DataType
	Values                 []string
	DefaultValue           string
	Deprecated             bool
	AllowUndeterminedValue bool
}

// DesignPattern is the rule set for one role.
type DesignPattern struct {
	Role             string
	RoleType         []RoleType
	NameRequired     bool
	NameProhibited   bool
	RequiredParents  []string
	RequiredChildren []string
	SupportedProps   []string
	RequiredProps    []string
	InheritedProps   []string
	DeprecatedProps  []string
}

// Is reports whether the pattern carries the role-type tag.
func (p *DesignPattern) Is(t RoleType) bool {
	for _, rt := range p.RoleType {
		if rt == t {
			return true
		}
	}
	return false
}

// Supports reports whether attr is supported, required or inherited.
func (p *DesignPattern) Supports(attr string) bool {
	return contains(p.SupportedProps, attr) || contains(p.RequiredProps, attr) || contains(p.InheritedProps, attr)
}

// Deprecates reports whether attr is deprecated for this role.
func (p *DesignPattern) Deprecates(attr string) bool {
	return contains(p.DeprecatedProps, attr)
}

// VersionTables holds the property and role tables of one version.
type VersionTables struct {
	Version        Version
	Properties     map[string]*PropertyDataType
	DesignPatterns map[string]*DesignPattern
}

// Pattern returns the design pattern for a role.
func (t *VersionTables) Pattern(role string) (*DesignPattern, bool) {
	p, ok := t.DesignPatterns[role]
	return p, ok
}

// Property returns the data type of an aria-* attribute.
func (t *VersionTables) Property(name string) (*PropertyDataType, bool) {
	p, ok := t.Properties[name]
	return p, ok
}

// Roles returns the names of all roles, abstract ones included, sorted. The
// contextual variants (rowGrid, separatorFocusable, ...) are not roles.
func (t *VersionTables) Roles() []string {
	roles := make([]string, 0, len(t.DesignPatterns))
	for name := range t.DesignPatterns {
		if isVariant(name) {
			continue
		}
		roles = append(roles, name)
	}
	sort.Strings(roles)
	return roles
}

func isVariant(name string) bool {
	return strings.ToLower(name) != name
}

//go:embed tables/*.yaml
var tableFiles embed.FS

type tableFileYAML struct {
	Version               string                       `yaml:"version"`
	Extends               string                       `yaml:"extends,omitempty"`
	GlobalProps           []string                     `yaml:"globalProps"`
	DeprecatedGlobalProps []string                     `yaml:"deprecatedGlobalProps"`
	RemovedRoles          []string                     `yaml:"removedRoles,omitempty"`
	Properties            map[string]propertyYAML      `yaml:"properties"`
	DesignPatterns        map[string]designPatternYAML `yaml:"designPatterns"`
}

type propertyYAML struct {
	PropType               string   `yaml:"propType"`
	Type                   string   `yaml:"type"`
	Values                 []string `yaml:"values,omitempty"`
	DefaultValue           string   `yaml:"defaultValue,omitempty"`
	Deprecated             bool     `yaml:"deprecated,omitempty"`
	AllowUndeterminedValue bool     `yaml:"allowUndeterminedValue,omitempty"`
}

type designPatternYAML struct {
	RoleType         []string `yaml:"roleType"`
	NameRequired     bool     `yaml:"nameRequired,omitempty"`
	NameProhibited   bool     `yaml:"nameProhibited,omitempty"`
	RequiredParents  []string `yaml:"requiredParents,omitempty"`
	RequiredChildren []string `yaml:"requiredChildren,omitempty"`
	SupportedProps   []string `yaml:"supportedProps,omitempty"`
	RequiredProps    []string `yaml:"requiredProps,omitempty"`
	DeprecatedProps  []string `yaml:"deprecatedProps,omitempty"`
}

var (
	tablesOnce sync.Once
	allTables  map[Version]*VersionTables
	tablesErr  error
)

// Tables returns the immutable tables of version v.
func Tables(v Version) (*VersionTables, error) {
	tablesOnce.Do(func() {
		allTables, tablesErr = loadTables()
	})
	if tablesErr != nil {
		return nil, tablesErr
	}
	t, ok := allTables[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVersion, v)
	}
	return t, nil
}

// MustTables is Tables for the built-in versions; it panics on a broken
// embedded table, which is a build defect.
func MustTables(v Version) *VersionTables {
	t, err := Tables(v)
	if err != nil {
		panic(err)
	}
	return t
}

func loadTables() (map[Version]*VersionTables, error) {
	entries, err := tableFiles.ReadDir("tables")
	if err != nil {
		return nil, fmt.Errorf("read aria tables: %w", err)
	}

	raw := make(map[string]*tableFileYAML, len(entries))
	for _, e := range entries {
		data, err := tableFiles.ReadFile(path.Join("tables", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var f tableFileYAML
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		if f.Version == "" {
			return nil, fmt.Errorf("parse %s: missing version", e.Name())
		}
		raw[f.Version] = &f
	}

	out := make(map[Version]*VersionTables, len(raw))
	for version := range raw {
		merged, err := resolveExtends(raw, version, 0)
		if err != nil {
			return nil, err
		}
		t, err := buildTables(merged)
		if err != nil {
			return nil, fmt.Errorf("aria %s tables: %w", version, err)
		}
		out[Version(version)] = t
		slog.Debug("aria tables loaded", "version", version,
			"roles", len(t.DesignPatterns), "properties", len(t.Properties))
	}
	return out, nil
}

// resolveExtends flattens a table file onto the file it extends.
func resolveExtends(raw map[string]*tableFileYAML, version string, depth int) (*tableFileYAML, error) {
	f, ok := raw[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVersion, version)
	}
	if f.Extends == "" {
		return f, nil
	}
	if depth > len(raw) {
		return nil, fmt.Errorf("aria tables: extends cycle at %q", version)
	}
	base, err := resolveExtends(raw, f.Extends, depth+1)
	if err != nil {
		return nil, err
	}

	merged := &tableFileYAML{
		Version:               f.Version,
		GlobalProps:           union(base.GlobalProps, f.GlobalProps),
		DeprecatedGlobalProps: union(base.DeprecatedGlobalProps, f.DeprecatedGlobalProps),
		Properties:            make(map[string]propertyYAML, len(base.Properties)+len(f.Properties)),
		DesignPatterns:        make(map[string]designPatternYAML, len(base.DesignPatterns)+len(f.DesignPatterns)),
	}
	for k, v := range base.Properties {
		merged.Properties[k] = v
	}
	for k, v := range f.Properties {
		merged.Properties[k] = v
	}
	for k, v := range base.DesignPatterns {
		merged.DesignPatterns[k] = v
	}
	for k, v := range f.DesignPatterns {
		merged.DesignPatterns[k] = v
	}
	for _, r := range f.RemovedRoles {
		delete(merged.DesignPatterns, r)
	}
	return merged, nil
}

func buildTables(f *tableFileYAML) (*VersionTables, error) {
	t := &VersionTables{
		Version:        Version(f.Version),
		Properties:     make(map[string]*PropertyDataType, len(f.Properties)),
		DesignPatterns: make(map[string]*DesignPattern, len(f.DesignPatterns)),
	}
	for name, p := range f.Properties {
		t.Properties[name] = &PropertyDataType{
			Name:                   name,
			PropType:               PropType(p.PropType),
			Type:                   DataType(p.Type),
			Values:                 p.Values,
			DefaultValue:           p.DefaultValue,
			Deprecated:             p.Deprecated,
			AllowUndeterminedValue: p.AllowUndeterminedValue,
		}
	}
	for _, g := range f.GlobalProps {
		if _, ok := t.Properties[g]; !ok {
			return nil, fmt.Errorf("global property %q has no data type", g)
		}
	}

	for role, p := range f.DesignPatterns {
		dp := &DesignPattern{
			Role:             role,
			NameRequired:     p.NameRequired,
			NameProhibited:   p.NameProhibited,
			RequiredParents:  p.RequiredParents,
			RequiredChildren: p.RequiredChildren,
			SupportedProps:   p.SupportedProps,
			RequiredProps:    p.RequiredProps,
			DeprecatedProps:  p.DeprecatedProps,
		}
		for _, rt := range p.RoleType {
			dp.RoleType = append(dp.RoleType, RoleType(rt))
		}
		if !dp.Is(RoleTypeAbstract) {
			dp.InheritedProps = append([]string(nil), f.GlobalProps...)
			for _, d := range f.DeprecatedGlobalProps {
				if !contains(dp.SupportedProps, d) && !contains(dp.RequiredProps, d) && !contains(dp.DeprecatedProps, d) {
					dp.DeprecatedProps = append(dp.DeprecatedProps, d)
				}
			}
		}
		for _, list := range [][]string{dp.SupportedProps, dp.RequiredProps, dp.DeprecatedProps} {
			for _, attr := range list {
				if _, ok := t.Properties[attr]; !ok {
					return nil, fmt.Errorf("role %q references unknown property %q", role, attr)
				}
			}
		}
		t.DesignPatterns[role] = dp
	}
	if _, ok := t.DesignPatterns["generic"]; !ok {
		return nil, errors.New("missing generic design pattern")
	}
	return t, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func union(a, b []string) []string {
	out := append([]string(nil), a...)
	for _, v := range b {
		if !contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
