package htmldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"a11y-server/internal/dom"
)

func mustParse(t *testing.T, src string, opts ...Option) *Document {
	t.Helper()
	doc, err := ParseString(src, opts...)
	require.NoError(t, err)
	return doc
}

func mustNode(t *testing.T, doc *Document, id string) *Node {
	t.Helper()
	n, err := doc.ElementByID(id)
	require.NoError(t, err)
	require.NotNil(t, n, "element #%s", id)
	return n.(*Node)
}

func TestElementByID(t *testing.T) {
	doc := mustParse(t, `<div id="a">first</div><div id="a">second</div><p id="b"></p>`)

	n := mustNode(t, doc, "a")
	assert.Equal(t, "first", n.Children()[0].Text())

	missing, err := doc.ElementByID("nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	for _, bad := range []string{"", "a b", "x\ty"} {
		_, err := doc.ElementByID(bad)
		assert.ErrorIs(t, err, dom.ErrInvalidID, "%q", bad)
	}
}

func TestTreeShape(t *testing.T) {
	doc := mustParse(t, `<!doctype html><html><head><title>T</title></head><body><ul id="l"><li>a</li><!-- c --><li>b</li></ul></body></html>`)

	root := doc.Root()
	assert.Equal(t, "html", root.TagName())
	assert.Nil(t, root.Parent())
	assert.Equal(t, "body", doc.Body().TagName())

	list := mustNode(t, doc, "l")
	kids := dom.ChildElements(list)
	require.Len(t, kids, 2, "comments are not nodes")
	assert.Equal(t, list, kids[1].Parent())
	assert.Equal(t, "html[1]/body[1]/ul[1]/li[2]", Path(kids[1]))
	assert.Equal(t, "html[1]/body[1]/ul[1]/li[1]/#text", Path(kids[0].Children()[0]))
	assert.Equal(t, 7, doc.ElementCount())
}

func TestAttributes(t *testing.T) {
	doc := mustParse(t, `<input id="i" Type="CheckBox" data-x="1" checked>`)
	n := mustNode(t, doc, "i")

	assert.Equal(t, []dom.Attribute{
		{Name: "id", Value: "i"},
		{Name: "type", Value: "CheckBox"},
		{Name: "data-x", Value: "1"},
		{Name: "checked", Value: ""},
	}, n.Attributes())
	assert.True(t, n.HasAttr("checked"))
	assert.Equal(t, "checkbox", dom.InputType(n))
}

func TestHiddenByMarkup(t *testing.T) {
	doc := mustParse(t, `<div id="h" hidden><span id="inner">x</span></div><input id="hi" type="hidden"><p id="v">v</p>`)

	assert.True(t, mustNode(t, doc, "h").HiddenByMarkup())
	assert.True(t, mustNode(t, doc, "inner").HiddenByMarkup())
	assert.True(t, mustNode(t, doc, "inner").Children()[0].HiddenByMarkup())
	assert.True(t, mustNode(t, doc, "hi").HiddenByMarkup())
	assert.False(t, mustNode(t, doc, "v").HiddenByMarkup())
}

func TestUserAgentStyles(t *testing.T) {
	src := `<html><head><script id="s">x</script></head><body><template id="t"></template><p id="p">p</p></body></html>`

	doc := mustParse(t, src)
	assert.True(t, mustNode(t, doc, "s").HiddenByDisplay())
	assert.True(t, mustNode(t, doc, "t").HiddenByDisplay())
	assert.False(t, mustNode(t, doc, "p").HiddenByDisplay())

	doc = mustParse(t, src, WithoutUserAgentStyles())
	assert.False(t, mustNode(t, doc, "s").HiddenByDisplay())
}

func TestDisplayCascade(t *testing.T) {
	doc := mustParse(t, `<style>
		/* comment */
		.off { display: none }
		#keep.off { display: block }
		div > .child { display: none }
		.forced { display: none !important }
		@media print { #printed { display: none } }
		@media screen and (min-width: 1px) { #screen { display: none } }
		p:hover { display: none }
		</style>
		<p id="off" class="off">a</p>
		<p id="keep" class="off">b</p>
		<div><span id="child" class="child">c</span></div>
		<section><div><b id="deep" class="child">d</b></div></section>
		<p id="inline" class="off" style="display: inline">e</p>
		<p id="forced" class="forced" style="display: block">f</p>
		<p id="printed">g</p>
		<p id="screen">h</p>
		<p id="hover">i</p>
		<div style="display:none"><em id="under">j</em></div>`)

	want := map[string]bool{
		"off":     true,
		"keep":    false,
		"child":   true,
		"deep":    true,
		"inline":  false,
		"forced":  true,
		"printed": false,
		"screen":  true,
		"hover":   false,
		"under":   true,
	}
	for id, hidden := range want {
		assert.Equal(t, hidden, mustNode(t, doc, id).HiddenByDisplay(), id)
	}
}

func TestVisibilityInheritance(t *testing.T) {
	doc := mustParse(t, `<div id="outer" style="visibility:hidden">
		<span id="in">x</span>
		<span id="back" style="visibility: visible">y</span>
	</div><p id="collapse" style="visibility:collapse">z</p>`)

	assert.True(t, mustNode(t, doc, "outer").HiddenByVisibility())
	assert.True(t, mustNode(t, doc, "in").HiddenByVisibility())
	assert.True(t, mustNode(t, doc, "in").Children()[0].HiddenByVisibility())
	assert.False(t, mustNode(t, doc, "back").HiddenByVisibility())
	assert.True(t, mustNode(t, doc, "collapse").HiddenByVisibility())
}

func TestAttributeSelectors(t *testing.T) {
	doc := mustParse(t, `<style>
		[data-state="off"] { display: none }
		[class~=x] { display: none }
		[lang|=en] { display: none }
		a[href^="http"] { display: none }
		[title="Case" i] { display: none }
		</style>
		<p id="state" data-state="off">a</p>
		<p id="word" class="y x">b</p>
		<p id="lang" lang="en-GB">c</p>
		<a id="ext" href="https://x">d</a><a id="rel" href="/x">e</a>
		<p id="fold" title="CASE">f</p>`)

	want := map[string]bool{"state": true, "word": true, "lang": true, "ext": true, "rel": false, "fold": true}
	for id, hidden := range want {
		assert.Equal(t, hidden, mustNode(t, doc, id).HiddenByDisplay(), id)
	}
}

func TestStructuralSelectors(t *testing.T) {
	doc := mustParse(t, `<style>
		h2 + p { display: none }
		h2 ~ aside { display: none }
		li:not(.keep):first-child { display: none }
		section p:last-of-type, nav { display: none; }
		</style>
		<h2>t</h2><p id="next">a</p><p id="later">b</p>
		<ul id="list"><li id="first">c</li><li id="second">d</li></ul>
		<ol><li id="kept" class="keep">e</li></ol>
		<section><p id="one">f</p><p id="two">g</p></section>
		<aside id="aside">h</aside><nav id="nav">i</nav>`)

	want := map[string]bool{
		"next":   true,
		"later":  false,
		"list":   false,
		"first":  true,
		"second": false,
		"kept":   false,
		"one":    false,
		"two":    true,
		"aside":  true,
		"nav":    true,
	}
	for id, hidden := range want {
		assert.Equal(t, hidden, mustNode(t, doc, id).HiddenByDisplay(), id)
	}
}

func TestSpecificityOrdersRules(t *testing.T) {
	doc := mustParse(t, `<style>
		#a { display: none }
		p.x { display: block }
		p { display: none }
		.y { display: block }
		</style>
		<p id="a" class="x">a</p>
		<p id="b" class="y">b</p>
		<p id="c" style="display:none;;">c</p>`)

	assert.True(t, mustNode(t, doc, "a").HiddenByDisplay())
	assert.False(t, mustNode(t, doc, "b").HiddenByDisplay())
	assert.True(t, mustNode(t, doc, "c").HiddenByDisplay())
}

func TestGeneratedContent(t *testing.T) {
	doc := mustParse(t, `<style>
		.req::after { content: '*' }
		.legacy:before { content: "old" }
		.gone::before { content: "x"; display: none }
		.quiet::after { content: "y"; visibility: hidden }
		</style>
		<span id="req" class="req">a</span>
		<span id="legacy" class="legacy">b</span>
		<span id="gone" class="gone">c</span>
		<span id="quiet" class="quiet">d</span>
		<span id="plain">e</span>
		<div style="display:none"><span id="hidden" class="req">f</span></div>`)

	assert.Equal(t, dom.Generated{Content: `"*"`, Visible: true}, mustNode(t, doc, "req").After())
	assert.Equal(t, dom.Generated{Content: `"old"`, Visible: true}, mustNode(t, doc, "legacy").Before())
	assert.False(t, mustNode(t, doc, "gone").Before().Visible)
	assert.False(t, mustNode(t, doc, "quiet").After().Visible)
	assert.Equal(t, dom.Generated{Content: "none"}, mustNode(t, doc, "plain").Before())
	assert.False(t, mustNode(t, doc, "hidden").After().Visible)
}

func TestExtraStyleSheet(t *testing.T) {
	doc := mustParse(t, `<p id="p" class="x">a</p>`, WithStyleSheet(`.x { display: none }`))
	assert.True(t, mustNode(t, doc, "p").HiddenByDisplay())
}

func TestFormState(t *testing.T) {
	doc := mustParse(t, `
		<input id="cb" type="checkbox" checked><input id="radio" type="radio"><input id="text">
		<select id="single"><option id="o1">One</option><option id="o2">Two</option></select>
		<select id="chosen"><option id="c1">One</option><option id="c2" selected>Two</option></select>
		<select id="multi" multiple>
			<optgroup label="g"><option selected>A</option><option>B</option><option selected label="Cee">C</option></optgroup>
		</select>`)

	checked, ok := mustNode(t, doc, "cb").Checked()
	assert.True(t, ok)
	assert.True(t, checked)
	checked, ok = mustNode(t, doc, "radio").Checked()
	assert.True(t, ok)
	assert.False(t, checked)
	_, ok = mustNode(t, doc, "text").Checked()
	assert.False(t, ok)

	sel, ok := mustNode(t, doc, "o1").Selected()
	assert.True(t, ok)
	assert.True(t, sel, "first option of a single select")
	sel, _ = mustNode(t, doc, "o2").Selected()
	assert.False(t, sel)
	sel, _ = mustNode(t, doc, "c1").Selected()
	assert.False(t, sel)

	assert.Equal(t, []string{"One"}, mustNode(t, doc, "single").SelectedOptionValues())
	assert.Equal(t, []string{"Two"}, mustNode(t, doc, "chosen").SelectedOptionValues())
	assert.Equal(t, []string{"A", "Cee"}, mustNode(t, doc, "multi").SelectedOptionValues())
	_, ok = mustNode(t, doc, "single").Selected()
	assert.False(t, ok)
}
