// Package source turns raw HTML or Markdown input into a parsed document.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"a11y-server/internal/aria"
	"a11y-server/internal/htmldoc"
)

var tracer = otel.Tracer("a11y-server/source")

var (
	ErrUnsupportedFormat = errors.New("source: unsupported format")
	ErrDocumentTooLarge  = errors.New("source: document too large")
)

// Format is an input format.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts the format names used by the server and CLI. An empty
// string is HTML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html", "htm":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatForFile guesses the format from a file name extension.
func FormatForFile(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".mdown":
		return FormatMarkdown
	}
	return FormatHTML
}

// Options control Load. MaxBytes of zero means no limit.
type Options struct {
	Format   Format
	Sanitize bool
	MaxBytes int64
	// StyleSheet is applied after the document's own style sheets.
	StyleSheet string
}

// Load reads r and parses it. Markdown is always sanitized after rendering.
func Load(ctx context.Context, r io.Reader, opts Options) (*htmldoc.Document, error) {
	format := opts.Format
	if format == "" {
		format = FormatHTML
	}
	_, span := tracer.Start(ctx, "Load", trace.WithAttributes(
		attribute.String("format", string(format)),
		attribute.Bool("sanitize", opts.Sanitize),
	))
	defer span.End()

	src, err := read(r, opts.MaxBytes)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("bytes", len(src)))

	switch format {
	case FormatHTML:
		if opts.Sanitize {
			src = Sanitize(src)
		}
	case FormatMarkdown:
		src, err = RenderMarkdown(src)
		if err != nil {
			return nil, err
		}
		src = Sanitize(src)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	var docOpts []htmldoc.Option
	if opts.StyleSheet != "" {
		docOpts = append(docOpts, htmldoc.WithStyleSheet(opts.StyleSheet))
	}
	doc, err := htmldoc.Parse(bytes.NewReader(src), docOpts...)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func read(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		return b, nil
	}
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrDocumentTooLarge, limit)
	}
	return b, nil
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// RenderMarkdown converts Markdown with GFM tables to HTML. Raw HTML in the
// input is passed through.
func RenderMarkdown(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Sanitize strips scripts, event handlers and unsafe URLs while keeping the
// markup accessibility analysis depends on.
func Sanitize(src []byte) []byte {
	policyOnce.Do(func() { policy = newPolicy() })
	return policy.SanitizeBytes(src)
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowAttrs("role", "id", "title", "lang", "dir", "hidden", "tabindex", "contenteditable").Globally()
	p.AllowAttrs(ariaAttributes()...).Globally()
	p.AllowStyles("display", "visibility").Globally()

	p.AllowElements("button", "label", "fieldset", "legend", "input", "select", "option",
		"optgroup", "textarea", "output", "progress", "meter", "details", "summary",
		"figure", "figcaption", "main", "nav", "header", "footer", "section", "article",
		"aside", "search", "dialog", "svg", "iframe", "audio", "video")
	p.AllowAttrs("for", "form").OnElements("label", "output")
	p.AllowAttrs("type", "name", "value", "checked", "disabled", "placeholder", "alt",
		"min", "max", "step", "readonly", "required").OnElements("input")
	p.AllowAttrs("multiple", "disabled", "name").OnElements("select")
	p.AllowAttrs("selected", "label", "value", "disabled").OnElements("option", "optgroup")
	p.AllowAttrs("placeholder", "name", "disabled").OnElements("textarea")
	p.AllowAttrs("type", "value", "disabled").OnElements("button")
	p.AllowAttrs("value", "min", "max", "low", "high", "optimum").OnElements("progress", "meter")
	p.AllowAttrs("open").OnElements("details")
	p.AllowAttrs("controls").OnElements("audio", "video")
	p.AllowAttrs("headers", "scope", "colspan", "rowspan", "abbr").OnElements("th", "td")
	p.AllowAttrs("alt").OnElements("area")
	return p
}

// ariaAttributes lists every aria-* attribute known to any supported version.
func ariaAttributes() []string {
	seen := make(map[string]bool)
	for _, v := range []aria.Version{aria.Version12, aria.Version13} {
		for name := range aria.MustTables(v).Properties {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
