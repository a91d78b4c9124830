package analysis_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"a11y-server/internal/accname"
	"a11y-server/internal/analysis"
	"a11y-server/internal/aria"
	"a11y-server/internal/htmldoc"
	"a11y-server/internal/table"
)

const page = `<!doctype html><html><body><main>
	<button id="empty"></button>
	<div id="cb" role="checkbox">Accept</div>
	<div id="bad" role="bogus">x</div>
	<span id="typo" aria-bogus="1">y</span>
	<div id="owner" aria-owns="kid"></div><span id="kid">k</span>
	<input id="labelled" aria-label="Query" title="Type a query">
	<input id="titled" title="Only title">
	<table id="t">
		<tr><th>H</th><th>I</th></tr>
		<tr><td id="d">1</td><td>2</td></tr>
	</table>
</main></body></html>`

func analyze(t *testing.T, src string, v aria.Version) (*htmldoc.Document, *analysis.Report) {
	t.Helper()
	doc, err := htmldoc.ParseString(src)
	require.NoError(t, err)
	e, err := analysis.NewEngine(v)
	require.NoError(t, err)
	report, err := e.Analyze(context.Background(), doc)
	require.NoError(t, err)
	return doc, report
}

func element(t *testing.T, doc *htmldoc.Document, report *analysis.Report, id string) *analysis.ElementReport {
	t.Helper()
	n, err := doc.ElementByID(id)
	require.NoError(t, err)
	require.NotNil(t, n, "element #%s", id)
	p := htmldoc.Path(n)
	for i := range report.Elements {
		if report.Elements[i].Path == p {
			return &report.Elements[i]
		}
	}
	t.Fatalf("no report for #%s (%s)", id, p)
	return nil
}

func TestAnalyzeVisitsEveryElement(t *testing.T) {
	doc, report := analyze(t, page, "")

	assert.Equal(t, aria.DefaultVersion, report.Version)
	assert.Equal(t, doc.ElementCount(), report.ElementCount)
	assert.Len(t, report.Elements, report.ElementCount)
	assert.Equal(t, "html", report.Elements[0].Tag)
}

func TestElementRoles(t *testing.T) {
	doc, report := analyze(t, page, aria.Version12)

	empty := element(t, doc, report, "empty")
	assert.Equal(t, "button", empty.Role)
	assert.False(t, empty.ExplicitRole)
	assert.True(t, empty.MissingName())

	cb := element(t, doc, report, "cb")
	assert.True(t, cb.ExplicitRole)
	assert.Equal(t, "Accept", cb.Name.Name)
	assert.Equal(t, []string{"aria-checked"}, cb.ARIA.MissingRequiredAttrs())

	bad := element(t, doc, report, "bad")
	assert.False(t, bad.ARIA.IsValidRole)

	typo := element(t, doc, report, "typo")
	require.Len(t, typo.ARIA.InvalidAttrs, 1)
	assert.Equal(t, "aria-bogus", typo.ARIA.InvalidAttrs[0].Name)

	assert.GreaterOrEqual(t, report.Summary.MissingNames, 1)
	assert.Equal(t, 1, report.Summary.InvalidRoles)
	assert.Equal(t, 1, report.Summary.InvalidAttrs)
	assert.GreaterOrEqual(t, report.Summary.MissingRequired, 1)
	assert.Positive(t, report.Summary.Total())
}

func TestOwnedByPaths(t *testing.T) {
	doc, report := analyze(t, page, "")

	owner := element(t, doc, report, "owner")
	kid := element(t, doc, report, "kid")
	assert.Equal(t, []string{"kid"}, owner.ARIA.Owns)
	assert.Equal(t, []string{owner.Path}, kid.OwnedBy)
}

func TestDescriptionSkipsTitleUsedForName(t *testing.T) {
	doc, report := analyze(t, page, "")

	labelled := element(t, doc, report, "labelled")
	assert.Equal(t, "Query", labelled.Name.Name)
	require.NotNil(t, labelled.Description)
	assert.Equal(t, "Type a query", labelled.Description.Name)
	assert.Equal(t, accname.SourceTitle, labelled.Description.Source)

	titled := element(t, doc, report, "titled")
	assert.Equal(t, "Only title", titled.Name.Name)
	assert.Equal(t, accname.SourceTitle, titled.Name.Source)
	assert.Nil(t, titled.Description)
}

func TestTablesReported(t *testing.T) {
	doc, report := analyze(t, page, "")

	require.Len(t, report.Tables, 1)
	tr := report.Tables[0]
	assert.Equal(t, table.TypeData, tr.Type)
	assert.Equal(t, 2, tr.Rows)
	assert.Equal(t, 2, tr.Columns)
	assert.Equal(t, 2, tr.HeaderCells)
	assert.Len(t, tr.Cells, 4)

	d := element(t, doc, report, "d")
	require.NotNil(t, d.Cell)
	assert.Equal(t, 2, d.Cell.Row)
	assert.Equal(t, 1, d.Cell.Column)
	assert.Equal(t, []string{"H"}, d.Cell.Headers)
	assert.Equal(t, table.HeaderSourceRowColumn, d.Cell.HeaderSource)
}

func TestHiddenElementsSkipNameProblems(t *testing.T) {
	_, report := analyze(t, `<div hidden><button></button></div>`, "")
	assert.Zero(t, report.Summary.MissingNames)
}

func TestAnalyzeCanceled(t *testing.T) {
	doc, err := htmldoc.ParseString(page)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&analysis.Engine{}).Analyze(ctx, doc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnknownVersion(t *testing.T) {
	_, err := analysis.NewEngine("9.9")
	assert.ErrorIs(t, err, aria.ErrUnknownVersion)
}

func TestReportIsJSON(t *testing.T) {
	_, report := analyze(t, page, aria.Version13)

	raw, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "1.3", decoded["version"])
	assert.Contains(t, decoded, "summary")
	assert.Contains(t, decoded, "tables")
}
