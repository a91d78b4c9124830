// Package analysis walks a document once and combines the name, ARIA and
// table computations into a Report.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"a11y-server/internal/accname"
	"a11y-server/internal/aria"
	"a11y-server/internal/dom"
	"a11y-server/internal/htmldoc"
	"a11y-server/internal/table"
)

var tracer = otel.Tracer("a11y-server/analysis")

// cancelCheckInterval is how many elements are visited between checks of
// the context.
const cancelCheckInterval = 256

// Engine analyzes documents against one ARIA version. The zero value uses
// aria.DefaultVersion. An Engine is safe for concurrent use; each call to
// Analyze works on its own state.
type Engine struct {
	Version aria.Version
}

// NewEngine returns an Engine for version v after checking that its tables
// load.
func NewEngine(v aria.Version) (*Engine, error) {
	if v == "" {
		v = aria.DefaultVersion
	}
	if _, err := aria.Tables(v); err != nil {
		return nil, err
	}
	return &Engine{Version: v}, nil
}

type run struct {
	ctx    context.Context
	doc    dom.Document
	eval   *aria.Evaluator
	names  *accname.Resolver
	tables *table.Analyzer
	report *Report
	byNode map[dom.Node]int
}

// Analyze visits every element of doc in document order.
func (e *Engine) Analyze(ctx context.Context, doc dom.Document) (*Report, error) {
	version := e.Version
	if version == "" {
		version = aria.DefaultVersion
	}
	ctx, span := tracer.Start(ctx, "Analyze",
		trace.WithAttributes(attribute.String("aria.version", string(version))))
	defer span.End()

	if doc == nil || doc.Root() == nil {
		return nil, fmt.Errorf("analyze: empty document")
	}
	eval, err := aria.NewEvaluator(version)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	names := accname.NewResolver()
	r := &run{
		ctx:    ctx,
		doc:    doc,
		eval:   eval,
		names:  names,
		tables: table.NewAnalyzer(names),
		report: &Report{Version: version},
		byNode: make(map[dom.Node]int),
	}
	if err := r.visit(doc.Root(), table.Context{}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	r.tables.ComputeHeaders(doc)
	r.tables.ComputeTableTypes()
	r.finish()

	span.SetAttributes(
		attribute.Int("elements", r.report.ElementCount),
		attribute.Int("tables", len(r.report.Tables)),
		attribute.Int("problems", r.report.Summary.Total()),
	)
	slog.Debug("document analyzed",
		"version", version,
		"elements", r.report.ElementCount,
		"tables", len(r.report.Tables),
		"duration", time.Since(start))
	return r.report, nil
}

func (r *run) visit(n dom.Node, ctx table.Context) error {
	if !dom.IsElement(n) {
		return nil
	}
	if r.report.ElementCount%cancelCheckInterval == 0 {
		if err := r.ctx.Err(); err != nil {
			return err
		}
	}
	r.element(n)
	ctx = r.tables.Update(ctx, n)
	for _, c := range n.Children() {
		if err := r.visit(c, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) element(n dom.Node) {
	explicit, hasRole := aria.ExplicitRole(n)
	implicit := aria.ImplicitRole(n)
	role := implicit
	if hasRole {
		role = explicit
	}

	name := r.names.Name(n)
	er := ElementReport{
		Path:           path(n),
		Tag:            n.TagName(),
		Role:           role,
		ExplicitRole:   hasRole,
		Hidden:         n.HiddenByMarkup() || n.HiddenByDisplay() || n.HiddenByVisibility(),
		Name:           name,
		Description:    r.names.Description(n, name.Source != accname.SourceTitle),
		ErrorMessage:   r.names.ErrorMessage(n),
		GroupingLabels: r.names.GroupingLabels(n),
		ARIA:           r.eval.Evaluate(r.doc, hasRole, role, implicit, n),
	}
	for _, owner := range er.ARIA.OwnedBy {
		er.OwnedBy = append(er.OwnedBy, path(owner))
	}

	r.byNode[n] = len(r.report.Elements)
	r.report.Elements = append(r.report.Elements, er)
	r.report.ElementCount++
	r.report.Summary.add(&er)
}

// finish copies the table results into the report once headers and types
// are known.
func (r *run) finish() {
	for _, t := range r.tables.Tables() {
		tr := TableReport{
			Path:             path(t.Node),
			Type:             t.Type,
			Name:             r.names.Name(t.Node).Name,
			Rows:             t.RowCount,
			Columns:          t.ColCount,
			NestingLevel:     t.NestingLevel,
			HasCaption:       t.HasCaption,
			RowGroups:        t.RowGroupCount,
			HeaderCells:      t.HeaderCells,
			SpannedDataCells: t.SpannedDataCells,
			Cells:            make([]CellReport, 0, len(t.Cells)),
		}
		for _, c := range t.Cells {
			cr := cellReport(c)
			tr.Cells = append(tr.Cells, cr)
			if i, ok := r.byNode[c.Node]; ok {
				cell := cr
				r.report.Elements[i].Cell = &cell
			}
		}
		r.report.Tables = append(r.report.Tables, tr)
	}
}

func cellReport(c *table.Cell) CellReport {
	return CellReport{
		Path:         path(c.Node),
		Row:          c.StartRow,
		Column:       c.StartColumn,
		RowSpan:      c.RowSpan,
		ColumnSpan:   c.ColumnSpan,
		IsHeader:     c.IsHeader,
		Headers:      c.Headers,
		HeaderSource: c.HeaderSource,
	}
}

func path(n dom.Node) string {
	if p := htmldoc.Path(n); p != "" {
		return p
	}
	return n.TagName()
}
