package htmldoc

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/gorilla/css/scanner"
)

type pseudoElement int

const (
	pseudoNone pseudoElement = iota
	pseudoBefore
	pseudoAfter
)

var pseudoElements = map[string]pseudoElement{
	"":       pseudoNone,
	"before": pseudoBefore,
	"after":  pseudoAfter,
}

// declaration is one property: value pair of a rule or inline style.
type declaration struct {
	property  string
	value     string
	important bool
}

// selector is one compiled selector of a rule.
type selector struct {
	sel         cascadia.Sel
	pseudo      pseudoElement
	specificity cascadia.Specificity
}

func (s selector) matches(el *Node) bool { return s.sel.Match(el.raw) }

// rule is a style rule with its selectors compiled.
type rule struct {
	selectors    []selector
	declarations []declaration
	order        int
}

// parseStyleSheet parses the rules of a stylesheet. A syntax error keeps the
// rules read before it. @media blocks are flattened unless they only target
// print.
func parseStyleSheet(src string, order *int) []*rule {
	rules, err := parser.NewParser(src).ParseRules()
	if err != nil {
		slog.Debug("stylesheet truncated at syntax error", "error", err)
	}
	return collectRules(rules, order)
}

func collectRules(in []*css.Rule, order *int) []*rule {
	var out []*rule
	for _, r := range in {
		if r.Kind == css.AtRule {
			if strings.EqualFold(r.Name, "@media") && !printOnly(r.Prelude) {
				out = append(out, collectRules(r.Rules, order)...)
			}
			continue
		}
		sels := compileSelectors(r.Selectors)
		if len(sels) == 0 {
			continue
		}
		*order++
		out = append(out, &rule{
			selectors:    sels,
			declarations: declarations(r.Declarations),
			order:        *order,
		})
	}
	return out
}

// compileSelectors keeps the selectors cascadia understands whose
// pseudo-element, if any, is ::before or ::after.
func compileSelectors(list []string) []selector {
	var out []selector
	for _, s := range list {
		sel, err := cascadia.ParseWithPseudoElement(s)
		if err != nil {
			slog.Debug("selector dropped", "selector", s, "error", err)
			continue
		}
		pe, ok := pseudoElements[sel.PseudoElement()]
		if !ok {
			continue
		}
		out = append(out, selector{sel: sel, pseudo: pe, specificity: sel.Specificity()})
	}
	return out
}

func printOnly(prelude string) bool {
	words := strings.FieldsFunc(strings.ToLower(prelude), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
	hasPrint := false
	for _, w := range words {
		switch w {
		case "print":
			hasPrint = true
		case "screen", "all":
			return false
		}
	}
	return hasPrint
}

// parseInlineStyle parses the declarations of a style attribute.
func parseInlineStyle(src string) []declaration {
	// the parser only ends a declaration at ';' or '}'
	src = strings.TrimRight(strings.TrimSpace(src), ";") + ";"
	decls, err := parser.NewParser(src).ParseDeclarations()
	if err != nil {
		slog.Debug("inline style truncated at syntax error", "error", err)
	}
	return declarations(decls)
}

func declarations(in []*css.Declaration) []declaration {
	out := make([]declaration, 0, len(in))
	for _, d := range in {
		property := strings.ToLower(strings.TrimSpace(d.Property))
		value := normalizeValue(d.Value)
		if property == "" || value == "" {
			continue
		}
		out = append(out, declaration{property: property, value: value, important: d.Important})
	}
	return out
}

// normalizeValue renders a declared value the way a computed style reports
// it: identifiers lowercased, strings double quoted, whitespace collapsed.
func normalizeValue(raw string) string {
	s := scanner.New(raw)
	var b strings.Builder
	space := false
	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.TokenEOF, scanner.TokenError:
			return strings.TrimSpace(b.String())
		case scanner.TokenComment, scanner.TokenCDO, scanner.TokenCDC:
			continue
		case scanner.TokenS:
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		switch tok.Type {
		case scanner.TokenString:
			b.WriteString(quoteString(unquoteString(tok.Value)))
		case scanner.TokenIdent:
			b.WriteString(strings.ToLower(tok.Value))
		default:
			b.WriteString(tok.Value)
		}
	}
}

// unquoteString decodes a CSS string token, quotes included.
func unquoteString(raw string) string {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		raw = raw[1 : len(raw)-1]
	}
	if !strings.Contains(raw, `\`) {
		return raw
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			b.WriteByte(c)
			continue
		}
		i++
		if raw[i] == '\n' {
			continue
		}
		j := i
		for j < len(raw) && j-i < 6 && isHex(raw[j]) {
			j++
		}
		if j == i {
			b.WriteByte(raw[i])
			continue
		}
		if code, err := strconv.ParseUint(raw[i:j], 16, 32); err == nil && code != 0 {
			b.WriteRune(rune(code))
		} else {
			b.WriteRune('�')
		}
		if j < len(raw) && raw[j] == ' ' {
			j++
		}
		i = j - 1
	}
	return b.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
