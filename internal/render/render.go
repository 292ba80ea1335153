// Package render writes claim lists, dashboards and navigation trees as
// terminal tables, Markdown, JSON or standalone HTML.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/ppiankov/claimview/internal/assess"
	"github.com/ppiankov/claimview/internal/dashboard"
	"github.com/ppiankov/claimview/internal/format"
	"github.com/ppiankov/claimview/internal/model"
	"github.com/ppiankov/claimview/internal/navtree"
	"github.com/ppiankov/claimview/internal/summary"
)

// Placeholders shown for empty sections
const (
	NoFacts       = "No facts"
	NoAssumptions = "No assumptions"
	NoAttention   = "Nothing needs attention"
	NoDocuments   = "No documents"
	NoHistory     = "No assessment runs"
	NoClaims      = "No claims"
)

// maxCellText bounds free-text cells in text tables; longer text is cut
const maxCellText = 60

// Format is an output format
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// ParseFormat validates a format name; "md" is accepted for markdown
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatMarkdown, FormatJSON, FormatHTML:
		return f, nil
	case "", "text":
		return FormatTable, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, markdown, json or html)", s)
	}
}

// Extension is the file extension used when exporting in this format
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	case FormatHTML:
		return ".html"
	default:
		return ".txt"
	}
}

// Renderer writes to one writer in one format
type Renderer struct {
	w       io.Writer
	format  Format
	onClick assess.SourceHandler
}

// New creates a renderer
func New(w io.Writer, f Format) *Renderer {
	if f == "" {
		f = FormatTable
	}
	return &Renderer{w: w, format: f}
}

// WithSourceHandler makes attention items that carry a document open it
// through h. Without a handler every item renders as a plain row.
func (r *Renderer) WithSourceHandler(h assess.SourceHandler) *Renderer {
	r.onClick = h
	return r
}

// Format returns the renderer's output format
func (r *Renderer) Format() Format {
	return r.format
}

// Claims writes the claim list
func (r *Renderer) Claims(claims []model.Claim) error {
	switch r.format {
	case FormatJSON:
		return writeJSON(r.w, claimRows(claims))
	case FormatHTML:
		return writeHTML(r.w, "Claims", claimsHTML(claims))
	default:
		return r.text(func(t *textWriter) { t.claims(claims) })
	}
}

// View writes one claim dashboard
func (r *Renderer) View(v *dashboard.View) error {
	switch r.format {
	case FormatJSON:
		return writeJSON(r.w, newViewJSON(v))
	case FormatHTML:
		return writeHTML(r.w, v.Headline.Title, viewHTML(v, r.onClick))
	default:
		return r.text(func(t *textWriter) { t.view(v) })
	}
}

// Tree writes a navigation tree snapshot
func (r *Renderer) Tree(nodes []navtree.Node) error {
	switch r.format {
	case FormatJSON:
		return writeJSON(r.w, nodes)
	case FormatHTML:
		return writeHTML(r.w, "Claims", treeHTML(nodes))
	default:
		return r.text(func(t *textWriter) { t.tree(nodes) })
	}
}

func (r *Renderer) text(fn func(*textWriter)) error {
	mode := modeASCII
	if r.format == FormatMarkdown {
		mode = modeMarkdown
	}
	t := &textWriter{mode: mode}
	fn(t)
	_, err := io.WriteString(r.w, t.b.String())
	return err
}

// textWriter lays out table and Markdown output
type textWriter struct {
	b    strings.Builder
	mode tableMode
}

func (t *textWriter) heading(level int, s string) {
	if t.b.Len() > 0 {
		t.b.WriteString("\n")
	}
	if t.mode == modeMarkdown {
		t.b.WriteString(strings.Repeat("#", level) + " " + s + "\n\n")
		return
	}
	t.b.WriteString(s + "\n")
	if level == 1 {
		t.b.WriteString(strings.Repeat("=", text.RuneWidthWithoutEscSequences(s)) + "\n")
	}
}

func (t *textWriter) line(s string) {
	t.b.WriteString(s + "\n")
}

func (t *textWriter) table(b *tableBuilder) {
	t.b.WriteString(b.String() + "\n")
}

func (t *textWriter) claims(claims []model.Claim) {
	if len(claims) == 0 {
		t.line(NoClaims)
		return
	}
	tb := newTable(t.mode, "Claims")
	tb.Header("Claim", "LOB", "Loss Type", "Amount", "Status", "Docs", "Gates P/W/F")
	tb.Columns(columnConfig{Number: 4, Align: text.AlignRight}, columnConfig{Number: 6, Align: text.AlignRight})
	for _, c := range claims {
		row := newClaimRow(c)
		tb.Row(row.ClaimID, orPlaceholder(row.LOB), orPlaceholder(row.LossType), row.Amount, row.Status.Label,
			row.DocCount, fmt.Sprintf("%d/%d/%d", c.GatePassCount, c.GateWarnCount, c.GateFailCount))
	}
	t.table(tb)
}

func (t *textWriter) view(v *dashboard.View) {
	t.heading(1, fmt.Sprintf("%s  [%s]", v.Headline.Title, v.Status.Label))
	t.line(headlineLine(v))

	t.attention(v)
	t.facts(v)
	t.assumptions(v)
	t.documents(v)
	t.history(v)
}

func headlineLine(v *dashboard.View) string {
	parts := []string{"Claim: " + v.Claim.ClaimID, "Amount: " + v.Headline.AmountDisplay}
	if v.Headline.Plate != "" {
		parts = append(parts, "Plate: "+v.Headline.Plate)
	}
	if v.Headline.VIN != "" {
		parts = append(parts, "VIN: "+v.Headline.VIN)
	}
	return strings.Join(parts, "  ")
}

// attentionSections feed the attention list; a failure in any of them
// leaves the list incomplete
var attentionSections = []dashboard.Section{
	dashboard.SectionChecks,
	dashboard.SectionAssumptions,
	dashboard.SectionDocuments,
}

func (t *textWriter) sectionError(v *dashboard.View, s dashboard.Section) bool {
	if err := v.Err(s); err != nil {
		t.line("Failed to load " + string(s) + ": " + err.Error())
		return true
	}
	return false
}

func (t *textWriter) attention(v *dashboard.View) {
	c := v.Attention.Counts
	t.heading(2, fmt.Sprintf("Needs Attention (%d errors, %d warnings, %d info)", c.Error, c.Warning, c.Info))
	incomplete := false
	for _, s := range attentionSections {
		if t.sectionError(v, s) {
			incomplete = true
		}
	}
	if len(v.Attention.Items) == 0 {
		if !incomplete {
			t.line(NoAttention)
		}
		return
	}
	tb := newTable(t.mode, "")
	tb.Header("Type", "Title", "Details", "Action", "Document")
	for _, it := range v.Attention.Items {
		tb.Row(strings.ToUpper(string(it.Type)), it.Title, format.Truncate(orPlaceholder(it.Description), maxCellText),
			it.Action, orPlaceholder(it.DocID))
	}
	t.table(tb)
	if label := v.Attention.OverflowLabel(); label != "" {
		t.line(label)
	}
}

func (t *textWriter) facts(v *dashboard.View) {
	t.heading(2, "Facts")
	if t.sectionError(v, dashboard.SectionFacts) {
		return
	}
	if len(v.FactGroups) == 0 {
		t.line(NoFacts)
		return
	}
	for _, g := range v.FactGroups {
		marker := "[+]"
		if v.Expanded.IsExpanded(g.Category) {
			marker = "[-]"
		}
		title := fmt.Sprintf("%s %s (%d)", marker, g.Label, len(g.Facts))
		if t.mode == modeMarkdown {
			t.heading(3, title)
		} else {
			t.line(title)
		}
		if !v.Expanded.IsExpanded(g.Category) {
			continue
		}
		tb := newTable(t.mode, "")
		tb.Header("Field", "Value", "Source")
		tb.Columns(columnConfig{Number: 2, MaxWidth: 60})
		for _, f := range g.Facts {
			tb.Row(format.HumanizeField(f.Name), format.FormatValue(f.Value), sourceLabel(f.SelectedFrom))
		}
		t.table(tb)
	}
}

func (t *textWriter) assumptions(v *dashboard.View) {
	t.heading(2, fmt.Sprintf("Assumptions (%d critical)", v.CriticalCount))
	if t.sectionError(v, dashboard.SectionAssumptions) {
		return
	}
	if len(v.Assumptions) == 0 {
		t.line(NoAssumptions)
		return
	}
	tb := newTable(t.mode, "")
	tb.Header("Impact", "Check", "Field", "Assumed Value", "Reason")
	tb.Columns(columnConfig{Number: 2, Align: text.AlignRight})
	for _, a := range v.Assumptions {
		tb.Row(strings.ToUpper(string(a.Impact)), a.CheckNumber, format.HumanizeField(a.Field),
			orPlaceholder(a.AssumedValue), format.Truncate(orPlaceholder(a.Reason), maxCellText))
	}
	t.table(tb)
}

func (t *textWriter) documents(v *dashboard.View) {
	t.heading(2, "Documents")
	if t.sectionError(v, dashboard.SectionDocuments) {
		return
	}
	if len(v.Documents) == 0 {
		t.line(NoDocuments)
		return
	}
	tb := newTable(t.mode, "")
	tb.Header("Document", "Filename", "Quality")
	for _, d := range v.Documents {
		tb.Row(d.DocID, d.Filename, orPlaceholder(string(d.QualityStatus)))
	}
	t.table(tb)
}

func (t *textWriter) history(v *dashboard.View) {
	t.heading(2, "History")
	if t.sectionError(v, dashboard.SectionHistory) {
		return
	}
	if len(v.History) == 0 {
		t.line(NoHistory)
		return
	}
	tb := newTable(t.mode, "")
	tb.Header("Run", "Time", "Decision", "Confidence", "Checks P/F/Total", "Assumptions", "Current")
	tb.Columns(columnConfig{Number: 4, Align: text.AlignRight})
	for _, row := range v.History {
		current := ""
		if row.IsCurrent {
			current = "yes"
		}
		tb.Row(row.RunID, row.Timestamp, row.Style.Label, row.Confidence,
			fmt.Sprintf("%d/%d/%d", row.PassCount, row.FailCount, row.CheckCount), row.AssumptionCount, current)
	}
	t.table(tb)
}

func (t *textWriter) tree(nodes []navtree.Node) {
	if len(nodes) == 0 {
		t.line(NoClaims)
		return
	}
	for _, n := range nodes {
		marker := "[+]"
		if n.Expanded {
			marker = "[-]"
		}
		sel := " "
		if n.Selected {
			sel = ">"
		}
		t.line(fmt.Sprintf("%s %s %s  [%s]", sel, marker, n.Claim.ClaimID, n.Status.Label))

		switch n.State {
		case navtree.ExpandedLoading.String():
			t.line("      loading...")
		case navtree.ExpandedFailed.String():
			t.line("      error: " + n.Error)
		case navtree.ExpandedLoaded.String():
			if len(n.Documents) == 0 {
				t.line("      " + NoDocuments)
			}
			for _, d := range n.Documents {
				dsel := " "
				if d.Selected {
					dsel = ">"
				}
				t.line(fmt.Sprintf("    %s %s  %s (%s)", dsel, d.Document.DocID, d.Document.Filename,
					orPlaceholder(string(d.Document.QualityStatus))))
			}
		}
	}
}

// claimRow is the list form of a claim
type claimRow struct {
	ClaimID  string         `json:"claim_id"`
	LOB      string         `json:"lob,omitempty"`
	LossType string         `json:"loss_type,omitempty"`
	Amount   string         `json:"amount"`
	Status   summary.Status `json:"status"`
	DocCount int            `json:"doc_count"`
}

func newClaimRow(c model.Claim) claimRow {
	amount := format.Placeholder
	if c.Amount != nil {
		amount = format.FormatCurrency(*c.Amount, c.Currency)
	}
	return claimRow{
		ClaimID:  c.ClaimID,
		LOB:      c.LOB,
		LossType: c.LossType,
		Amount:   amount,
		Status:   summary.DeriveStatus(c),
		DocCount: c.DocCount,
	}
}

func claimRows(claims []model.Claim) []claimRow {
	rows := make([]claimRow, 0, len(claims))
	for _, c := range claims {
		rows = append(rows, newClaimRow(c))
	}
	return rows
}

func sourceLabel(ref *model.SourceRef) string {
	if ref == nil || ref.DocID == "" {
		return format.Placeholder
	}
	if ref.Page != nil {
		return fmt.Sprintf("%s p.%d", ref.DocID, *ref.Page)
	}
	return ref.DocID
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return format.Placeholder
	}
	return s
}
