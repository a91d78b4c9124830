package source_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"a11y-server/internal/dom"
	"a11y-server/internal/source"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]source.Format{
		"":         source.FormatHTML,
		"HTML":     source.FormatHTML,
		"md":       source.FormatMarkdown,
		"markdown": source.FormatMarkdown,
	} {
		got, err := source.ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := source.ParseFormat("pdf")
	assert.ErrorIs(t, err, source.ErrUnsupportedFormat)
}

func TestFormatForFile(t *testing.T) {
	assert.Equal(t, source.FormatMarkdown, source.FormatForFile("README.md"))
	assert.Equal(t, source.FormatHTML, source.FormatForFile("index.html"))
	assert.Equal(t, source.FormatHTML, source.FormatForFile("noext"))
}

func TestLoadHTML(t *testing.T) {
	doc, err := source.Load(context.Background(),
		strings.NewReader(`<div id="b" role="button" onclick="go()">Go</div><script>x()</script>`),
		source.Options{})
	require.NoError(t, err)

	b, err := doc.ElementByID("b")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, b.HasAttr("onclick"), "unsanitized input is parsed as is")
	assert.NotNil(t, dom.FirstDescendant(doc.Root(), "script"))
}

func TestLoadSanitizedHTML(t *testing.T) {
	doc, err := source.Load(context.Background(),
		strings.NewReader(`<div id="b" role="button" aria-label="Go" onclick="go()">Go</div><script>x()</script>`),
		source.Options{Format: source.FormatHTML, Sanitize: true})
	require.NoError(t, err)

	b, err := doc.ElementByID("b")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.False(t, b.HasAttr("onclick"))
	assert.Equal(t, "button", dom.AttrValue(b, "role"))
	assert.Equal(t, "Go", dom.AttrValue(b, "aria-label"))
	assert.Nil(t, dom.FirstDescendant(doc.Root(), "script"))
}

func TestLoadMarkdown(t *testing.T) {
	md := "# Title\n\n| Name | Age |\n|------|-----|\n| Ann  | 31  |\n\n<script>x()</script>\n"
	doc, err := source.Load(context.Background(), strings.NewReader(md),
		source.Options{Format: source.FormatMarkdown})
	require.NoError(t, err)

	root := doc.Root()
	assert.NotNil(t, dom.FirstDescendant(root, "h1"))
	assert.NotNil(t, dom.FirstDescendant(root, "table"))
	assert.NotNil(t, dom.FirstDescendant(root, "th"))
	assert.Nil(t, dom.FirstDescendant(root, "script"))
}

func TestLoadLimits(t *testing.T) {
	_, err := source.Load(context.Background(), strings.NewReader(strings.Repeat("a", 11)),
		source.Options{MaxBytes: 10})
	assert.ErrorIs(t, err, source.ErrDocumentTooLarge)

	_, err = source.Load(context.Background(), strings.NewReader(strings.Repeat("a", 10)),
		source.Options{MaxBytes: 10})
	assert.NoError(t, err)

	_, err = source.Load(context.Background(), strings.NewReader("x"),
		source.Options{Format: "pdf"})
	assert.ErrorIs(t, err, source.ErrUnsupportedFormat)
}

func TestLoadStyleSheet(t *testing.T) {
	doc, err := source.Load(context.Background(), strings.NewReader(`<p id="p" class="x">a</p>`),
		source.Options{StyleSheet: ".x { display: none }"})
	require.NoError(t, err)

	p, err := doc.ElementByID("p")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.HiddenByDisplay())
}
