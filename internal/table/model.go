// Package table builds the row and column grid of native and ARIA tables
// while a document is walked in order, then infers header-to-cell
// associations and classifies each table.
package table

import "a11y-server/internal/dom"

// Type is the classification of a table.
type Type string

const (
	TypeUnknown      Type = "UNKNOWN"
	TypeLayout       Type = "LAYOUT"
	TypeARIATable    Type = "ARIA_TABLE"
	TypeARIAGrid     Type = "ARIA_GRID"
	TypeARIATreegrid Type = "ARIA_TREEGRID"
	TypeData         Type = "DATA"
	TypeComplex      Type = "COMPLEX"
)

// HeaderSource tells how a cell's headers were found.
type HeaderSource string

const (
	HeaderSourceNone        HeaderSource = "NONE"
	HeaderSourceHeadersAttr HeaderSource = "HEADERS_ATTR"
	HeaderSourceRowColumn   HeaderSource = "ROW_COLUMN"
)

// Part is an entry of a table's structural tree: a *RowGroup, a *Caption
// or a nested *Table.
type Part interface {
	part()
}

// Caption marks a caption element in the structural tree.
type Caption struct {
	Node dom.Node
}

// RowGroup is a thead, tbody, tfoot or rowgroup role element.
type RowGroup struct {
	Node  dom.Node
	Head  bool
	Parts []Part
}

// Table is the grid model of one table element.
type Table struct {
	Node   dom.Node
	Parent *Table
	// NestingLevel is 0 for an outermost table.
	NestingLevel int
	Parts        []Part

	// Rows is 1-indexed through Row; Rows[0] is row 1.
	Rows     []*Row
	RowCount int
	ColCount int
	// Cells lists every cell once, in document order.
	Cells []*Cell

	RowGroupCount    int
	HasCaption       bool
	HeaderCells      int
	SpannedDataCells int

	Type Type

	rowsStarted int
	implicitRow *Row
}

// Row is one grid row. Slots covered by a spanning cell reference that cell.
type Row struct {
	// Node is nil for rows only reached by a row span.
	Node  dom.Node
	Index int
	Group *RowGroup
	slots []*Cell
}

// Cell is a th, td or cell role element placed in the grid. EndRow and
// EndColumn are exclusive.
type Cell struct {
	Node        dom.Node
	Table       *Table
	StartRow    int
	StartColumn int
	RowSpan     int
	ColumnSpan  int
	EndRow      int
	EndColumn   int

	IsHeader      bool
	IsScopeRow    bool
	IsScopeColumn bool

	Headers      []string
	HeaderSource HeaderSource
}

func (*Caption) part()  {}
func (*RowGroup) part() {}
func (*Table) part()    {}

// Row returns row i (1-indexed), or nil.
func (t *Table) Row(i int) *Row {
	if i < 1 || i > len(t.Rows) {
		return nil
	}
	return t.Rows[i-1]
}

// ensureRow returns row i, creating empty rows up to it.
func (t *Table) ensureRow(i int) *Row {
	for len(t.Rows) < i {
		t.Rows = append(t.Rows, &Row{Index: len(t.Rows) + 1})
	}
	if len(t.Rows) > t.RowCount {
		t.RowCount = len(t.Rows)
	}
	return t.Rows[i-1]
}

// startRow records a row element at the next row index not yet started.
func (t *Table) startRow(n dom.Node, g *RowGroup) *Row {
	t.rowsStarted++
	r := t.ensureRow(t.rowsStarted)
	r.Node = n
	r.Group = g
	t.implicitRow = nil
	return r
}

func (t *Table) addPart(g *RowGroup, p Part) {
	if g != nil {
		g.Parts = append(g.Parts, p)
		return
	}
	t.Parts = append(t.Parts, p)
}

// Cell returns the cell covering column col (1-indexed), or nil.
func (r *Row) Cell(col int) *Cell {
	if col < 1 || col > len(r.slots) {
		return nil
	}
	return r.slots[col-1]
}

// Len is the number of column slots of the row, free ones included.
func (r *Row) Len() int { return len(r.slots) }

func (r *Row) set(col int, c *Cell) {
	for len(r.slots) < col {
		r.slots = append(r.slots, nil)
	}
	r.slots[col-1] = c
}

// firstFree returns the first column with no cell.
func (r *Row) firstFree() int {
	col := 1
	for r.Cell(col) != nil {
		col++
	}
	return col
}
