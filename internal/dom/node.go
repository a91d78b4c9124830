// Package dom defines the read-only document contract that the accessible name,
// ARIA and table computations consume. Implementations own parsing, styling and
// identity; this package only describes what can be asked of a node.
package dom

import "errors"

// ErrInvalidID is returned by Document.ElementByID when the id cannot be used
// for a lookup (empty or containing whitespace).
var ErrInvalidID = errors.New("dom: invalid id")

// Kind identifies the type of a node.
type Kind int

const (
	ElementNode Kind = iota
	TextNode
)

func (k Kind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	default:
		return "unknown"
	}
}

// Attribute is a single name/value pair in document order.
type Attribute struct {
	Name  string
	Value string
}

// Generated describes the generated content of a ::before or ::after
// pseudo-element. Content is the raw computed value, quotes included, as a
// style system reports it (e.g. `"* "`, `none`).
type Generated struct {
	Content string
	Visible bool
}

// Node is an element or text node of a document. Node values are comparable:
// the same underlying node always yields an identical Node.
type Node interface {
	Kind() Kind
	// TagName is the lowercase tag name; empty for text nodes.
	TagName() string
	// Text is the character data of a text node; empty for elements.
	Text() string

	Attributes() []Attribute
	Attr(name string) (string, bool)
	HasAttr(name string) bool

	// Parent returns nil for the root element.
	Parent() Node
	Children() []Node
	Document() Document

	HiddenByMarkup() bool
	HiddenByDisplay() bool
	HiddenByVisibility() bool

	Before() Generated
	After() Generated

	// Checked reports the native checked state; ok is false when the node has
	// no native checked state (anything but checkbox and radio inputs).
	Checked() (checked, ok bool)
	// Selected reports the native selected state of an option element.
	Selected() (selected, ok bool)
	// SelectedOptionValues returns the text of the selected options of a
	// select element, in document order.
	SelectedOptionValues() []string
}

// Document is the owner of a node tree.
type Document interface {
	// Root returns the document element.
	Root() Node
	// ElementByID looks an element up by id within this document only. It
	// returns (nil, nil) when no element carries the id.
	ElementByID(id string) (Node, error)
}
