package table

import (
	"log/slog"
	"strconv"
	"strings"

	"a11y-server/internal/accname"
	"a11y-server/internal/aria"
	"a11y-server/internal/dom"
)

const (
	maxColSpan = 1000
	maxRowSpan = 65534
)

// MaxGridSlots bounds the row slots all tables of one document may allocate.
// Spans that would grow the grid past it are clipped.
const MaxGridSlots = 1 << 21

// NameResolver supplies accessible names for header text and table names.
type NameResolver interface {
	Name(n dom.Node) *accname.Result
}

// Context is the table state in effect for a subtree of the walk.
type Context struct {
	Table    *Table
	RowGroup *RowGroup
	Row      *Row
}

// Analyzer accumulates the tables of a document. Update must see the
// elements in document order.
type Analyzer struct {
	names  NameResolver
	tables []*Table
	cells  map[dom.Node]*Cell
	byNode map[dom.Node]*Table
	// slots counts the row slots allocated so far.
	slots int
}

// NewAnalyzer returns an Analyzer naming headers through names.
func NewAnalyzer(names NameResolver) *Analyzer {
	return &Analyzer{
		names:  names,
		cells:  make(map[dom.Node]*Cell),
		byNode: make(map[dom.Node]*Table),
	}
}

// Tables returns every table in document order, nested ones included.
func (a *Analyzer) Tables() []*Table { return a.tables }

// CellFor returns the cell placed for n, or nil.
func (a *Analyzer) CellFor(n dom.Node) *Cell { return a.cells[n] }

// TableFor returns the table created for n, or nil.
func (a *Analyzer) TableFor(n dom.Node) *Table { return a.byNode[n] }

type kind int

const (
	kindNone kind = iota
	kindTable
	kindCaption
	kindRowGroup
	kindRow
	kindCell
)

var tagKinds = map[string]kind{
	"table":   kindTable,
	"caption": kindCaption,
	"thead":   kindRowGroup,
	"tbody":   kindRowGroup,
	"tfoot":   kindRowGroup,
	"tr":      kindRow,
	"th":      kindCell,
	"td":      kindCell,
}

var roleKinds = map[string]kind{
	"table":        kindTable,
	"grid":         kindTable,
	"treegrid":     kindTable,
	"rowgroup":     kindRowGroup,
	"row":          kindRow,
	"cell":         kindCell,
	"gridcell":     kindCell,
	"columnheader": kindCell,
	"rowheader":    kindCell,
}

func kindOf(n dom.Node) (kind, bool) {
	if k, ok := tagKinds[n.TagName()]; ok {
		return k, false
	}
	if role, ok := aria.ExplicitRole(n); ok {
		if k, ok := roleKinds[role]; ok {
			return k, true
		}
	}
	return kindNone, false
}

// Update advances the grid model with n and returns the context for the
// descendants of n.
func (a *Analyzer) Update(ctx Context, n dom.Node) Context {
	if !dom.IsElement(n) {
		return ctx
	}
	k, byRole := kindOf(n)
	if k == kindTable {
		return Context{Table: a.newTable(ctx, n)}
	}
	t := ctx.Table
	if t == nil {
		return ctx
	}
	switch k {
	case kindCaption:
		t.addPart(ctx.RowGroup, &Caption{Node: n})
		t.HasCaption = true
	case kindRowGroup:
		g := &RowGroup{Node: n, Head: n.TagName() == "thead"}
		t.addPart(ctx.RowGroup, g)
		t.RowGroupCount++
		return Context{Table: t, RowGroup: g}
	case kindRow:
		return Context{Table: t, RowGroup: ctx.RowGroup, Row: t.startRow(n, ctx.RowGroup)}
	case kindCell:
		a.placeCell(ctx, n, byRole)
	}
	return ctx
}

func (a *Analyzer) newTable(ctx Context, n dom.Node) *Table {
	t := &Table{Node: n, Parent: ctx.Table, Type: TypeUnknown}
	if ctx.Table != nil {
		t.NestingLevel = ctx.Table.NestingLevel + 1
		ctx.Table.addPart(ctx.RowGroup, t)
	}
	a.tables = append(a.tables, t)
	a.byNode[n] = t
	return t
}

func (a *Analyzer) placeCell(ctx Context, n dom.Node, byRole bool) {
	t := ctx.Table
	row := ctx.Row
	if row == nil {
		if t.implicitRow == nil {
			t.implicitRow = t.startRow(nil, ctx.RowGroup)
		}
		row = t.implicitRow
	}

	rowSpanAttr, colSpanAttr := "rowspan", "colspan"
	if byRole {
		rowSpanAttr, colSpanAttr = "aria-rowspan", "aria-colspan"
	}
	c := &Cell{
		Node:         n,
		Table:        t,
		StartRow:     row.Index,
		StartColumn:  row.firstFree(),
		RowSpan:      span(dom.AttrValue(n, rowSpanAttr), maxRowSpan),
		ColumnSpan:   span(dom.AttrValue(n, colSpanAttr), maxColSpan),
		HeaderSource: HeaderSourceNone,
	}
	identifyHeader(c, n, row, ctx.RowGroup)
	a.occupy(t, row, c)
	if last := c.EndColumn - 1; last > t.ColCount {
		t.ColCount = last
	}

	t.Cells = append(t.Cells, c)
	a.cells[n] = c
	if c.IsHeader {
		t.HeaderCells++
	} else if c.RowSpan > 1 || c.ColumnSpan > 1 {
		t.SpannedDataCells++
	}
}

// occupy records c in every slot of its extent, creating the rows it spans
// into. The first row always takes the cell; columns and later rows are
// clipped once the document's grid reaches MaxGridSlots.
func (a *Analyzer) occupy(t *Table, row *Row, c *Cell) {
	declaredRows, declaredCols := c.RowSpan, c.ColumnSpan
	if fit := a.room() + row.Len() - c.StartColumn + 1; fit < c.ColumnSpan {
		c.ColumnSpan = max(fit, 1)
	}
	c.EndColumn = c.StartColumn + c.ColumnSpan
	a.slots += growth(row, c.EndColumn-1)
	fill(row, c)

	end := c.StartRow + 1
	for ; end < c.StartRow+declaredRows; end++ {
		cost := growth(t.Row(end), c.EndColumn-1)
		if cost > a.room() {
			break
		}
		a.slots += cost
		fill(t.ensureRow(end), c)
	}
	c.RowSpan = end - c.StartRow
	c.EndRow = end

	if c.RowSpan != declaredRows || c.ColumnSpan != declaredCols {
		slog.Debug("table grid limit reached, span clipped",
			"rowspan", declaredRows, "colspan", declaredCols,
			"placed_rows", c.RowSpan, "placed_cols", c.ColumnSpan)
	}
}

func fill(r *Row, c *Cell) {
	for col := c.StartColumn; col < c.EndColumn; col++ {
		r.set(col, c)
	}
}

func (a *Analyzer) room() int { return max(MaxGridSlots-a.slots, 0) }

// rowCost is what creating a row counts against MaxGridSlots.
const rowCost = 8

// growth is the number of slots r needs to reach column last. A row not
// created yet also costs rowCost.
func growth(r *Row, last int) int {
	if r == nil {
		return rowCost + last
	}
	return max(last-r.Len(), 0)
}

// span parses a span attribute; anything but a positive integer is 1.
func span(v string, limit int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || i < 1 {
		return 1
	}
	if i > limit {
		return limit
	}
	return i
}

func identifyHeader(c *Cell, n dom.Node, row *Row, g *RowGroup) {
	role, _ := aria.ExplicitRole(n)
	scope, hasScope := n.Attr("scope")
	scope = strings.ToLower(strings.TrimSpace(scope))

	inHead := (g != nil && g.Head) || (row.Group != nil && row.Group.Head)
	c.IsHeader = n.TagName() == "th" ||
		role == "columnheader" || role == "rowheader" ||
		hasScope || inHead
	c.IsScopeRow = scope == "row" || scope == "rowgroup" || role == "rowheader"
	c.IsScopeColumn = scope == "col" || scope == "colgroup" || role == "columnheader"
}

// ComputeHeaders associates every data cell with its headers. It runs once,
// after the whole document has been passed to Update.
func (a *Analyzer) ComputeHeaders(doc dom.Document) {
	for _, t := range a.tables {
		for _, c := range t.Cells {
			if c.HeaderSource != HeaderSourceNone {
				continue
			}
			if ids := dom.IDRefs(dom.AttrValue(c.Node, "headers")); len(ids) > 0 {
				c.Headers = a.headersFromIDs(doc, ids)
				c.HeaderSource = HeaderSourceHeadersAttr
				continue
			}
			if c.IsHeader {
				continue
			}
			if headers := a.scanHeaders(t, c); len(headers) > 0 {
				c.Headers = headers
				c.HeaderSource = HeaderSourceRowColumn
			}
		}
	}
}

func (a *Analyzer) headersFromIDs(doc dom.Document, ids []string) []string {
	var out []string
	for _, id := range ids {
		el, err := doc.ElementByID(id)
		if err != nil || el == nil {
			slog.Debug("table headers reference not found", "id", id)
			continue
		}
		if name := a.names.Name(el).Name; name != "" {
			out = append(out, name)
		}
	}
	return out
}

// scanHeaders collects the column headers above and the row headers left of
// c. A spanning header is taken once.
func (a *Analyzer) scanHeaders(t *Table, c *Cell) []string {
	seen := make(map[*Cell]bool)
	var out []string
	add := func(h *Cell) {
		if h == nil || h == c || seen[h] || !h.IsHeader {
			return
		}
		seen[h] = true
		if name := a.names.Name(h.Node).Name; name != "" {
			out = append(out, name)
		}
	}

	for r := 1; r < c.StartRow; r++ {
		if row := t.Row(r); row != nil {
			if h := row.Cell(c.StartColumn); h != nil && !h.IsScopeRow {
				add(h)
			}
		}
	}
	if row := t.Row(c.StartRow); row != nil {
		for col := 1; col < c.StartColumn; col++ {
			if h := row.Cell(col); h != nil && !h.IsScopeColumn {
				add(h)
			}
		}
	}
	return out
}

// ComputeTableTypes classifies every table. It runs after ComputeHeaders.
func (a *Analyzer) ComputeTableTypes() {
	for _, t := range a.tables {
		t.Type = a.classify(t)
		slog.Debug("table classified", "type", t.Type,
			"rows", t.RowCount, "cols", t.ColCount,
			"header_cells", t.HeaderCells, "spanned_data_cells", t.SpannedDataCells)
	}
}

func (a *Analyzer) classify(t *Table) Type {
	if role, ok := aria.ExplicitRole(t.Node); ok {
		switch role {
		case "presentation", "none":
			return TypeLayout
		case "grid":
			return TypeARIAGrid
		case "table":
			return TypeARIATable
		case "treegrid":
			return TypeARIATreegrid
		}
	}
	if t.RowCount > 1 && t.ColCount > 1 && (t.HeaderCells > 0 || a.names.Name(t.Node).Name != "") {
		if t.SpannedDataCells > 0 {
			return TypeComplex
		}
		return TypeData
	}
	return TypeUnknown
}
