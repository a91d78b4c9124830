// Package htmldoc implements the dom contract over golang.org/x/net/html with
// a small style engine: stylesheets and inline styles are parsed with douceur,
// selectors are matched with cascadia, and the results are cascaded for the
// properties accessibility computations depend on (display, visibility and
// generated content).
package htmldoc

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"a11y-server/internal/dom"
)

// Document is a parsed HTML document.
type Document struct {
	root    *Node
	ids     map[string]*Node
	count   int
	rules   []*rule
	order   int
	options options
}

var _ dom.Document = (*Document)(nil)

// Parse reads an HTML document and computes the presentation state of every
// element.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	raw, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &Document{
		ids:     make(map[string]*Node),
		options: o,
	}
	for _, css := range o.styleSheets {
		doc.rules = append(doc.rules, parseStyleSheet(css, &doc.order)...)
	}

	var rootRaw *html.Node
	for c := raw.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			rootRaw = c
			break
		}
	}
	if rootRaw == nil {
		return nil, fmt.Errorf("parse html: no document element")
	}

	doc.collectStyleSheets(rootRaw)
	doc.root = doc.build(rootRaw, nil, "")
	doc.computeStyles(doc.root)
	return doc, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(src string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(src), opts...)
}

// Root returns the document element.
func (d *Document) Root() dom.Node { return d.root }

// Body returns the body element, or the document element when there is none.
func (d *Document) Body() dom.Node {
	if b := dom.FirstDescendant(d.root, "body"); b != nil {
		return b
	}
	return d.root
}

// ElementByID returns the first element in document order carrying id.
func (d *Document) ElementByID(id string) (dom.Node, error) {
	if id == "" || strings.ContainsAny(id, " \t\n\r\f") {
		return nil, fmt.Errorf("%w: %q", dom.ErrInvalidID, id)
	}
	n, ok := d.ids[id]
	if !ok {
		return nil, nil
	}
	return n, nil
}

// ElementCount reports the number of elements in the document.
func (d *Document) ElementCount() int { return d.count }

// collectStyleSheets gathers <style> element contents in document order.
func (d *Document) collectStyleSheets(h *html.Node) {
	if h.Type == html.ElementNode && h.DataAtom == atom.Style {
		if media := attr(h, "media"); media != "" && !strings.Contains(media, "screen") && !strings.Contains(media, "all") {
			return
		}
		var b strings.Builder
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		d.rules = append(d.rules, parseStyleSheet(b.String(), &d.order)...)
		return
	}
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		d.collectStyleSheets(c)
	}
}

func (d *Document) build(h *html.Node, parent *Node, parentPath string) *Node {
	n := &Node{doc: d, raw: h, parent: parent}
	switch h.Type {
	case html.ElementNode:
		n.kind = dom.ElementNode
		n.tag = strings.ToLower(h.Data)
		n.path = parentPath + n.tag + "[" + strconv.Itoa(sameTagIndex(h)) + "]"
		d.count++
		if id := attr(h, "id"); id != "" {
			if _, dup := d.ids[id]; !dup {
				d.ids[id] = n
			}
		}
	case html.TextNode:
		n.kind = dom.TextNode
		n.path = strings.TrimSuffix(parentPath, "/") + "/#text"
		return n
	}

	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode && c.Type != html.TextNode {
			continue
		}
		n.children = append(n.children, d.build(c, n, n.path+"/"))
	}
	return n
}

func sameTagIndex(h *html.Node) int {
	idx := 1
	for s := h.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.Data == h.Data {
			idx++
		}
	}
	return idx
}

// Path returns the locator of n when it belongs to an htmldoc document.
func Path(n dom.Node) string {
	if hn, ok := n.(*Node); ok {
		return hn.path
	}
	return ""
}
