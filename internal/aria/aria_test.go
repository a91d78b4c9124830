package aria_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"a11y-server/internal/aria"
	"a11y-server/internal/dom"
	"a11y-server/internal/htmldoc"
)

func parse(t *testing.T, src string) *htmldoc.Document {
	t.Helper()
	doc, err := htmldoc.ParseString(src)
	require.NoError(t, err)
	return doc
}

func byID(t *testing.T, doc *htmldoc.Document, id string) dom.Node {
	t.Helper()
	n, err := doc.ElementByID(id)
	require.NoError(t, err)
	require.NotNil(t, n, "element #%s", id)
	return n
}

func evaluate(t *testing.T, doc *htmldoc.Document, id string, v aria.Version) *aria.Info {
	t.Helper()
	n := byID(t, doc, id)
	role, hasRole := aria.ExplicitRole(n)
	implicit := aria.ImplicitRole(n)
	if !hasRole {
		role = implicit
	}
	info, err := aria.Evaluate(doc, hasRole, role, implicit, n, v)
	require.NoError(t, err)
	return info
}

func attrNames(attrs []aria.Attr) []string {
	var out []string
	for _, a := range attrs {
		out = append(out, a.Name)
	}
	return out
}

func TestParseVersion(t *testing.T) {
	v, err := aria.ParseVersion("")
	require.NoError(t, err)
	assert.Equal(t, aria.DefaultVersion, v)

	v, err = aria.ParseVersion(" 1.3 ")
	require.NoError(t, err)
	assert.Equal(t, aria.Version13, v)

	_, err = aria.ParseVersion("2.0")
	assert.ErrorIs(t, err, aria.ErrUnknownVersion)

	_, err = aria.Tables("0.9")
	assert.ErrorIs(t, err, aria.ErrUnknownVersion)
}

func TestTablesVersionDifferences(t *testing.T) {
	t12 := aria.MustTables(aria.Version12)
	t13 := aria.MustTables(aria.Version13)

	_, ok := t12.Pattern("directory")
	assert.True(t, ok, "directory exists in 1.2")
	_, ok = t13.Pattern("directory")
	assert.False(t, ok, "directory removed in 1.3")

	_, ok = t12.Property("aria-description")
	assert.False(t, ok)
	_, ok = t13.Property("aria-description")
	assert.True(t, ok)

	d12, _ := t12.Property("aria-details")
	d13, _ := t13.Property("aria-details")
	assert.Equal(t, aria.TypeIDRef, d12.Type)
	assert.Equal(t, aria.TypeIDRefs, d13.Type)

	button, ok := t13.Pattern("button")
	require.True(t, ok)
	assert.Contains(t, button.InheritedProps, "aria-description")
	assert.Contains(t, button.InheritedProps, "aria-label")

	// tables are shared values
	assert.Same(t, t12, aria.MustTables(aria.Version12))
}

func TestRolesExcludeVariants(t *testing.T) {
	roles := aria.MustTables(aria.Version12).Roles()
	assert.Contains(t, roles, "row")
	assert.Contains(t, roles, "widget")
	assert.NotContains(t, roles, "rowGrid")
	assert.NotContains(t, roles, "separatorFocusable")
	assert.IsNonDecreasing(t, roles)
}

func TestDeprecatedGlobalProps(t *testing.T) {
	tables := aria.MustTables(aria.Version12)

	heading, _ := tables.Pattern("heading")
	assert.True(t, heading.Deprecates("aria-disabled"))
	assert.True(t, heading.Supports("aria-disabled"), "globals are still inherited")

	button, _ := tables.Pattern("button")
	assert.False(t, button.Deprecates("aria-disabled"))
}

func TestImplicitRole(t *testing.T) {
	doc := parse(t, `<body>
		<a id="link" href="/x">x</a><a id="anchor">y</a>
		<img id="decor" alt=""><img id="pic" alt="cat">
		<input id="cb" type="checkbox"><input id="txt"><input id="list" list="l"><input id="range" type="range">
		<select id="sel"></select><select id="multi" multiple></select>
		<header id="banner"></header><article><header id="inner"></header></article>
		<section id="anon"></section><section id="named" aria-label="x"></section>
		<table><tr><th id="th">h</th><th id="rh" scope="row">r</th><td id="td">d</td></tr></table>
		<table role="grid"><tr><td id="gc">d</td></tr></table>
		<span id="span"></span><custom-el id="custom"></custom-el>
	</body>`)

	cases := map[string]string{
		"link":   "link",
		"anchor": "generic",
		"decor":  "presentation",
		"pic":    "img",
		"cb":     "checkbox",
		"txt":    "textbox",
		"list":   "combobox",
		"range":  "slider",
		"sel":    "combobox",
		"multi":  "listbox",
		"banner": "banner",
		"inner":  "generic",
		"anon":   "generic",
		"named":  "region",
		"th":     "columnheader",
		"rh":     "rowheader",
		"td":     "cell",
		"gc":     "gridcell",
		"span":   "generic",
		"custom": "",
	}
	for id, want := range cases {
		assert.Equal(t, want, aria.ImplicitRole(byID(t, doc, id)), id)
	}
}

func TestExplicitRole(t *testing.T) {
	doc := parse(t, `<div id="a" role=" Button  link"></div><div id="b" role=" "></div><div id="c"></div>`)

	role, ok := aria.ExplicitRole(byID(t, doc, "a"))
	assert.True(t, ok)
	assert.Equal(t, "button", role)

	_, ok = aria.ExplicitRole(byID(t, doc, "b"))
	assert.False(t, ok)
	_, ok = aria.ExplicitRole(byID(t, doc, "c"))
	assert.False(t, ok)
}

func TestIsFocusable(t *testing.T) {
	doc := parse(t, `<div id="plain"></div><div id="tab" tabindex="0"></div><div id="neg" tabindex="-1"></div>
		<a id="a" href="#">a</a><a id="nohref">b</a><button id="btn"></button><button id="dis" disabled></button>
		<input id="hidden" type="hidden"><div id="edit" contenteditable></div>`)

	want := map[string]bool{
		"plain": false, "tab": true, "neg": false, "a": true, "nohref": false,
		"btn": true, "dis": false, "hidden": false, "edit": true,
	}
	for id, focusable := range want {
		assert.Equal(t, focusable, aria.IsFocusable(byID(t, doc, id)), id)
	}
}

func TestEvaluateRequiredNativeSemantics(t *testing.T) {
	doc := parse(t, `<input id="native" type="checkbox" role="checkbox"><div id="div" role="checkbox"></div>`)

	native := evaluate(t, doc, "native", aria.Version12)
	require.Len(t, native.RequiredAttrs, 1)
	assert.Equal(t, "aria-checked", native.RequiredAttrs[0].Name)
	assert.Equal(t, aria.NativeSemantics, native.RequiredAttrs[0].Satisfaction)
	assert.Equal(t, "false", native.RequiredAttrs[0].Value)

	div := evaluate(t, doc, "div", aria.Version12)
	require.Len(t, div.RequiredAttrs, 1)
	assert.Equal(t, aria.Missing, div.RequiredAttrs[0].Satisfaction)
	assert.Equal(t, []string{"aria-checked"}, div.MissingRequiredAttrs())
	assert.True(t, div.HasProblems())
}

func TestEvaluateRequiredPresentAndImplicit(t *testing.T) {
	doc := parse(t, `<div id="present" role="checkbox" aria-checked="mixed"></div>
		<input id="implicit" type="checkbox">
		<select><option id="opt" role="option">a</option></select>`)

	present := evaluate(t, doc, "present", aria.Version12)
	require.Len(t, present.RequiredAttrs, 1)
	assert.Equal(t, aria.Present, present.RequiredAttrs[0].Satisfaction)

	implicit := evaluate(t, doc, "implicit", aria.Version12)
	assert.Empty(t, implicit.RequiredAttrs, "requirements need an explicit role")

	opt := evaluate(t, doc, "opt", aria.Version12)
	require.Len(t, opt.RequiredAttrs, 1)
	assert.Equal(t, aria.NativeSemantics, opt.RequiredAttrs[0].Satisfaction)
	assert.Equal(t, "true", opt.RequiredAttrs[0].Value)
}

func TestEvaluateUnknownRoleFallsBack(t *testing.T) {
	doc := parse(t, `<button id="btn" role="bogus"></button><span id="span" role="bogus"></span><x-y id="custom" role="bogus"></x-y>`)

	btn := evaluate(t, doc, "btn", aria.Version12)
	assert.False(t, btn.IsValidRole)
	assert.Equal(t, "button", btn.Pattern)
	assert.True(t, btn.IsWidget)

	custom := evaluate(t, doc, "custom", aria.Version12)
	assert.False(t, custom.IsValidRole)
	assert.Equal(t, "generic", custom.Pattern)
}

func TestEvaluateContextualVariants(t *testing.T) {
	doc := parse(t, `<hr id="sep"><div id="fsep" role="separator" tabindex="0"></div>
		<table role="grid"><tr id="grow"><td>a</td></tr></table>
		<div role="treegrid"><div role="rowgroup"><div id="trow" role="row"></div></div></div>
		<table><tr id="trow2"><td>a</td></tr></table>
		<div role="row" id="rowGrid"></div>`)

	sep := evaluate(t, doc, "sep", aria.Version12)
	assert.Equal(t, "separator", sep.Pattern)
	assert.False(t, sep.IsRange)

	fsep := evaluate(t, doc, "fsep", aria.Version12)
	assert.Equal(t, "separatorFocusable", fsep.Pattern)
	assert.True(t, fsep.IsRange)
	assert.True(t, fsep.IsValidRole)
	assert.Equal(t, []string{"aria-valuenow"}, fsep.MissingRequiredAttrs())

	assert.Equal(t, "rowGrid", evaluate(t, doc, "grow", aria.Version12).Pattern)
	assert.Equal(t, "rowTreegrid", evaluate(t, doc, "trow", aria.Version12).Pattern)
	assert.Equal(t, "row", evaluate(t, doc, "trow2", aria.Version12).Pattern)

	variant, err := aria.Evaluate(doc, true, "rowGrid", "", byID(t, doc, "rowGrid"), aria.Version12)
	require.NoError(t, err)
	assert.False(t, variant.IsValidRole, "variant names are not roles")
}

func TestEvaluateAttributes(t *testing.T) {
	doc := parse(t, `<span id="target"></span>
		<div id="el" role="button"
			aria-pressed="TRUE" aria-expanded="maybe" aria-foo="1"
			aria-controls="target missing" aria-checked="true" aria-grabbed="true"
			aria-relevant="additions bogus"></div>`)

	info := evaluate(t, doc, "el", aria.Version12)
	assert.True(t, info.IsValidRole)
	assert.Equal(t, []string{"aria-foo"}, attrNames(info.InvalidAttrs))
	assert.ElementsMatch(t, []string{"aria-expanded", "aria-relevant"}, attrNames(info.InvalidAttrValues))

	require.Len(t, info.InvalidRefs, 1)
	assert.Equal(t, "aria-controls", info.InvalidRefs[0].Name)
	assert.Equal(t, []string{"missing"}, info.InvalidRefs[0].InvalidIDs)

	assert.Equal(t, []string{"aria-checked"}, attrNames(info.UnsupportedAttrs))
	assert.Equal(t, []string{"aria-grabbed"}, attrNames(info.DeprecatedAttrs))
}

func TestEvaluateIntegerValues(t *testing.T) {
	doc := parse(t, `<div role="grid"><div role="row"><div id="c" role="gridcell" aria-colspan="0" aria-rowspan="0" aria-colindex="-1"></div></div></div>`)

	info := evaluate(t, doc, "c", aria.Version12)
	assert.ElementsMatch(t, []string{"aria-colspan", "aria-colindex"}, attrNames(info.InvalidAttrValues))
}

func TestEvaluateInvalidIDSyntaxIsUnresolved(t *testing.T) {
	doc := parse(t, `<div id="el" aria-labelledby="  "></div><div id="el2" aria-activedescendant="a b" role="combobox" aria-expanded="false"></div>`)

	info := evaluate(t, doc, "el", aria.Version12)
	assert.Empty(t, info.InvalidRefs)

	info = evaluate(t, doc, "el2", aria.Version12)
	require.Len(t, info.InvalidRefs, 1)
	assert.Equal(t, []string{"a", "b"}, info.InvalidRefs[0].InvalidIDs)
}

func TestEvaluateRange(t *testing.T) {
	doc := parse(t, `<div id="s" role="slider" aria-valuemax="x" aria-valuenow="5"></div><div id="p" role="progressbar"></div><div id="b" role="button"></div>`)

	s := evaluate(t, doc, "s", aria.Version12)
	require.True(t, s.IsRange)
	assert.Equal(t, aria.RangeValue{Raw: "0", Value: 0, Has: false, Valid: true}, *s.ValueMin)
	assert.Equal(t, aria.RangeValue{Raw: "x", Has: true, Valid: false}, *s.ValueMax)
	assert.Equal(t, aria.RangeValue{Raw: "5", Value: 5, Has: true, Valid: true}, *s.ValueNow)

	p := evaluate(t, doc, "p", aria.Version12)
	require.True(t, p.IsRange)
	assert.Equal(t, 100.0, p.ValueMax.Value)
	assert.Equal(t, "undefined", p.ValueNow.Raw)
	assert.False(t, p.ValueNow.Valid)

	b := evaluate(t, doc, "b", aria.Version12)
	assert.Nil(t, b.ValueNow)
}

func TestEvaluateLiveAndOwns(t *testing.T) {
	doc := parse(t, `<div id="owner" aria-owns="kid other"></div><div id="kid" aria-live="Polite"></div><div id="alert" role="alert"></div>`)

	kid := evaluate(t, doc, "kid", aria.Version12)
	assert.True(t, kid.IsLive)
	require.Len(t, kid.OwnedBy, 1)
	assert.Equal(t, byID(t, doc, "owner"), kid.OwnedBy[0])

	owner := evaluate(t, doc, "owner", aria.Version12)
	assert.Equal(t, []string{"kid", "other"}, owner.Owns)
	require.Len(t, owner.InvalidRefs, 1)
	assert.Equal(t, []string{"other"}, owner.InvalidRefs[0].InvalidIDs)

	assert.True(t, evaluate(t, doc, "alert", aria.Version12).IsLive)
}

func TestEvaluateVersionSelectsTables(t *testing.T) {
	doc := parse(t, `<div id="d" role="directory"></div><div id="desc" role="button" aria-description="x"></div>`)

	assert.True(t, evaluate(t, doc, "d", aria.Version12).IsValidRole)
	assert.False(t, evaluate(t, doc, "d", aria.Version13).IsValidRole)

	assert.Equal(t, []string{"aria-description"}, attrNames(evaluate(t, doc, "desc", aria.Version12).InvalidAttrs))
	assert.Empty(t, evaluate(t, doc, "desc", aria.Version13).InvalidAttrs)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	doc := parse(t, `<div id="el" role="slider" aria-valuenow="3" aria-bogus="x"></div>`)
	e, err := aria.NewEvaluator(aria.Version13)
	require.NoError(t, err)

	n := byID(t, doc, "el")
	first := e.Evaluate(doc, true, "slider", "", n)
	second := e.Evaluate(doc, true, "slider", "", n)
	assert.Equal(t, first, second)
}

func TestRowVariantsFollowVersion(t *testing.T) {
	for _, v := range []aria.Version{aria.Version12, aria.Version13} {
		tables := aria.MustTables(v)
		row, _ := tables.Pattern("row")
		for _, variant := range []string{"rowGrid", "rowTreegrid"} {
			p, ok := tables.Pattern(variant)
			require.True(t, ok, "%s %s", v, variant)
			for _, prop := range row.SupportedProps {
				assert.True(t, p.Supports(prop), "%s %s %s", v, variant, prop)
			}
		}
	}

	doc := parse(t, `<body>
		<table><tr id="r1" role="row" aria-rowindextext="first"><td>a</td></tr></table>
		<table role="grid"><tr id="r2" role="row" aria-rowindextext="first"><td>a</td></tr></table>
		<div role="treegrid"><div role="rowgroup"><div id="r3" role="row" aria-rowindextext="first"></div></div></div>
	</body>`)

	patterns := map[string]string{"r1": "row", "r2": "rowGrid", "r3": "rowTreegrid"}
	for id, pattern := range patterns {
		old := evaluate(t, doc, id, aria.Version12)
		assert.Equal(t, pattern, old.Pattern, id)
		assert.Equal(t, []string{"aria-rowindextext"}, attrNames(old.InvalidAttrs), id)

		cur := evaluate(t, doc, id, aria.Version13)
		assert.Equal(t, pattern, cur.Pattern, id)
		assert.Empty(t, cur.InvalidAttrs, id)
		assert.Empty(t, cur.UnsupportedAttrs, id)
	}
}
