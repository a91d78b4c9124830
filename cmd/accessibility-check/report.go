package main

import (
	"fmt"
	"io"
	"strings"

	"a11y-server/internal/analysis"
	"a11y-server/internal/aria"
)

func printResult(w io.Writer, res fileResult, verbose bool) {
	if res.Error != "" {
		fmt.Fprintf(w, "\n%s\n  Error: %s\n", res.File, res.Error)
		return
	}
	r := res.Report
	fmt.Fprintf(w, "\n%s (%d elements, %d tables)\n", res.File, r.ElementCount, len(r.Tables))

	for i := range r.Elements {
		e := &r.Elements[i]
		problems := elementProblems(e)
		if !verbose && len(problems) == 0 {
			continue
		}
		role := e.Role
		if role == "" {
			role = "-"
		}
		fmt.Fprintf(w, "  %-40s %-14s name=%q", e.Path, role, e.Name.Name)
		if verbose && e.Name.Source != "" {
			fmt.Fprintf(w, " (%s)", e.Name.Source)
		}
		if e.Description != nil && e.Description.Name != "" {
			fmt.Fprintf(w, " description=%q", e.Description.Name)
		}
		fmt.Fprintln(w)
		for _, p := range problems {
			fmt.Fprintf(w, "      ! %s\n", p)
		}
	}

	for _, t := range r.Tables {
		fmt.Fprintf(w, "  table %s: %s, %d rows x %d columns, %d header cells",
			t.Path, t.Type, t.Rows, t.Columns, t.HeaderCells)
		if t.Name != "" {
			fmt.Fprintf(w, ", name %q", t.Name)
		}
		fmt.Fprintln(w)
		if !verbose {
			continue
		}
		for _, c := range t.Cells {
			if c.IsHeader {
				continue
			}
			fmt.Fprintf(w, "      r%dc%d %s headers=[%s]\n", c.Row, c.Column, c.HeaderSource, strings.Join(c.Headers, ", "))
		}
	}

	s := r.Summary
	fmt.Fprintf(w, "  Summary: %d problems (invalid roles %d, invalid attributes %d, invalid values %d, broken references %d, unsupported %d, deprecated %d, missing required %d, missing names %d)\n",
		s.Total(), s.InvalidRoles, s.InvalidAttrs, s.InvalidAttrValues, s.InvalidRefs,
		s.UnsupportedAttrs, s.DeprecatedAttrs, s.MissingRequired, s.MissingNames)
}

// elementProblems renders the problems of one element as short messages.
func elementProblems(e *analysis.ElementReport) []string {
	info := e.ARIA
	var out []string
	if info.HasRole && !info.IsValidRole {
		out = append(out, fmt.Sprintf("unknown role %q", info.Role))
	} else if info.HasRole && info.IsAbstractRole {
		out = append(out, fmt.Sprintf("abstract role %q", info.Role))
	}
	out = append(out, attrProblems("unknown attribute", info.InvalidAttrs)...)
	out = append(out, attrProblems("invalid value for", info.InvalidAttrValues)...)
	out = append(out, attrProblems("unsupported attribute", info.UnsupportedAttrs)...)
	out = append(out, attrProblems("deprecated attribute", info.DeprecatedAttrs)...)
	for _, ref := range info.InvalidRefs {
		out = append(out, fmt.Sprintf("%s references missing ids: %s", ref.Name, strings.Join(ref.InvalidIDs, " ")))
	}
	for _, name := range info.MissingRequiredAttrs() {
		out = append(out, "missing required "+name)
	}
	if !e.Hidden && e.MissingName() {
		out = append(out, "missing accessible name")
	}
	return out
}

func attrProblems(prefix string, attrs []aria.Attr) []string {
	out := make([]string, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, fmt.Sprintf("%s %s=%q", prefix, a.Name, a.Value))
	}
	return out
}
