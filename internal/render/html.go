package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/claimview/internal/assess"
	"github.com/ppiankov/claimview/internal/dashboard"
	"github.com/ppiankov/claimview/internal/format"
	"github.com/ppiankov/claimview/internal/model"
	"github.com/ppiankov/claimview/internal/navtree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const stylesheet = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2328}
table{border-collapse:collapse;margin:.5rem 0}
th,td{border:1px solid #d0d7de;padding:.25rem .5rem;text-align:left}
.badge{border-radius:.75rem;padding:.1rem .5rem;font-size:.85em}
.error{background:#ffebe9}.warning{background:#fff8c5}.info{background:#ddf4ff}
.success{background:#dafbe1}.neutral{background:#eaeef2}
.placeholder{color:#57606a;font-style:italic}
.selected{font-weight:bold}`

// el creates an element; attrs are key/value pairs
func el(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func txt(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// add appends children and returns the parent
func add(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		parent.AppendChild(c)
	}
	return parent
}

func textEl(a atom.Atom, s string, attrs ...string) *html.Node {
	return add(el(a, attrs...), txt(s))
}

func placeholder(s string) *html.Node {
	return textEl(atom.P, s, "class", "placeholder")
}

func badge(label, variant string) *html.Node {
	return textEl(atom.Span, label, "class", "badge "+variant)
}

func htmlTable(header []string, rows [][]string) *html.Node {
	t := el(atom.Table)
	tr := el(atom.Tr)
	for _, h := range header {
		add(tr, textEl(atom.Th, h))
	}
	add(t, add(el(atom.Thead), tr))

	body := el(atom.Tbody)
	for _, r := range rows {
		tr := el(atom.Tr)
		for _, c := range r {
			add(tr, textEl(atom.Td, c))
		}
		add(body, tr)
	}
	return add(t, body)
}

// writeHTML renders a complete document around body content
func writeHTML(w io.Writer, title string, content []*html.Node) error {
	doc := &html.Node{Type: html.DocumentNode}
	add(doc, &html.Node{Type: html.DoctypeNode, Data: "html"})

	head := add(el(atom.Head),
		el(atom.Meta, "charset", "utf-8"),
		textEl(atom.Title, title),
		textEl(atom.Style, stylesheet),
	)
	body := add(el(atom.Body), content...)
	add(doc, add(el(atom.Html, "lang", "en"), head, body))

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func claimsHTML(claims []model.Claim) []*html.Node {
	out := []*html.Node{textEl(atom.H1, "Claims")}
	if len(claims) == 0 {
		return append(out, placeholder(NoClaims))
	}
	rows := make([][]string, 0, len(claims))
	for _, c := range claims {
		r := newClaimRow(c)
		rows = append(rows, []string{r.ClaimID, orPlaceholder(r.LOB), orPlaceholder(r.LossType), r.Amount,
			r.Status.Label, fmt.Sprint(r.DocCount)})
	}
	return append(out, htmlTable([]string{"Claim", "LOB", "Loss Type", "Amount", "Status", "Docs"}, rows))
}

func viewHTML(v *dashboard.View, onClick assess.SourceHandler) []*html.Node {
	h1 := add(el(atom.H1), txt(v.Headline.Title+" "), badge(v.Status.Label, string(v.Status.Variant)))
	out := []*html.Node{h1, textEl(atom.P, headlineLine(v))}

	out = append(out, attentionHTML(v, onClick)...)
	out = append(out, factsHTML(v)...)
	out = append(out, assumptionsHTML(v)...)
	out = append(out, documentsHTML(v)...)
	out = append(out, historyHTML(v)...)
	return out
}

func sectionErrorHTML(v *dashboard.View, s dashboard.Section) *html.Node {
	if err := v.Err(s); err != nil {
		return textEl(atom.P, "Failed to load "+string(s)+": "+err.Error(), "class", "badge error")
	}
	return nil
}

func attentionHTML(v *dashboard.View, onClick assess.SourceHandler) []*html.Node {
	c := v.Attention.Counts
	out := []*html.Node{textEl(atom.H2, fmt.Sprintf("Needs Attention (%d errors, %d warnings, %d info)", c.Error, c.Warning, c.Info))}
	incomplete := false
	for _, s := range attentionSections {
		if n := sectionErrorHTML(v, s); n != nil {
			out = append(out, n)
			incomplete = true
		}
	}
	if len(v.Attention.Items) == 0 {
		if incomplete {
			return out
		}
		return append(out, placeholder(NoAttention))
	}

	list := el(atom.Ul)
	for _, it := range v.Attention.Items {
		clickable := assess.Clickable(it, onClick)
		class := string(it.Type)
		if clickable {
			class += " clickable"
		}
		li := add(el(atom.Li, "id", it.ID, "class", class),
			badge(strings.ToUpper(string(it.Type)), string(it.Type)),
			txt(" "+it.Title),
		)
		if it.Description != "" {
			add(li, txt(": "+it.Description))
		}
		add(li, txt(" ("+it.Action+")"))
		if clickable {
			li.Attr = append(li.Attr, html.Attribute{Key: "data-doc-id", Val: it.DocID})
		}
		add(list, li)
	}
	out = append(out, list)
	if label := v.Attention.OverflowLabel(); label != "" {
		out = append(out, textEl(atom.P, label, "class", "overflow"))
	}
	return out
}

func factsHTML(v *dashboard.View) []*html.Node {
	out := []*html.Node{textEl(atom.H2, "Facts")}
	if n := sectionErrorHTML(v, dashboard.SectionFacts); n != nil {
		return append(out, n)
	}
	if len(v.FactGroups) == 0 {
		return append(out, placeholder(NoFacts))
	}
	for _, g := range v.FactGroups {
		details := el(atom.Details, "data-category", g.Category)
		if v.Expanded.IsExpanded(g.Category) {
			details.Attr = append(details.Attr, html.Attribute{Key: "open"})
		}
		add(details, textEl(atom.Summary, fmt.Sprintf("%s (%d)", g.Label, len(g.Facts))))

		rows := make([][]string, 0, len(g.Facts))
		for _, f := range g.Facts {
			rows = append(rows, []string{format.HumanizeField(f.Name), format.FormatValue(f.Value), sourceLabel(f.SelectedFrom)})
		}
		add(details, htmlTable([]string{"Field", "Value", "Source"}, rows))
		out = append(out, details)
	}
	return out
}

func assumptionsHTML(v *dashboard.View) []*html.Node {
	out := []*html.Node{textEl(atom.H2, fmt.Sprintf("Assumptions (%d critical)", v.CriticalCount))}
	if n := sectionErrorHTML(v, dashboard.SectionAssumptions); n != nil {
		return append(out, n)
	}
	if len(v.Assumptions) == 0 {
		return append(out, placeholder(NoAssumptions))
	}
	rows := make([][]string, 0, len(v.Assumptions))
	for _, a := range v.Assumptions {
		rows = append(rows, []string{string(a.Impact), fmt.Sprint(a.CheckNumber), format.HumanizeField(a.Field),
			orPlaceholder(a.AssumedValue), orPlaceholder(a.Reason)})
	}
	return append(out, htmlTable([]string{"Impact", "Check", "Field", "Assumed Value", "Reason"}, rows))
}

func documentsHTML(v *dashboard.View) []*html.Node {
	out := []*html.Node{textEl(atom.H2, "Documents")}
	if n := sectionErrorHTML(v, dashboard.SectionDocuments); n != nil {
		return append(out, n)
	}
	if len(v.Documents) == 0 {
		return append(out, placeholder(NoDocuments))
	}
	rows := make([][]string, 0, len(v.Documents))
	for _, d := range v.Documents {
		rows = append(rows, []string{d.DocID, d.Filename, orPlaceholder(string(d.QualityStatus))})
	}
	return append(out, htmlTable([]string{"Document", "Filename", "Quality"}, rows))
}

func historyHTML(v *dashboard.View) []*html.Node {
	out := []*html.Node{textEl(atom.H2, "History")}
	if n := sectionErrorHTML(v, dashboard.SectionHistory); n != nil {
		return append(out, n)
	}
	if len(v.History) == 0 {
		return append(out, placeholder(NoHistory))
	}

	t := htmlTable([]string{"Run", "Time", "Decision", "Confidence", "Checks P/F/Total", "Assumptions"}, nil)
	body := t.LastChild
	for _, row := range v.History {
		tr := el(atom.Tr, "data-icon", row.Style.Icon)
		if row.IsCurrent {
			tr.Attr = append(tr.Attr, html.Attribute{Key: "class", Val: "selected"})
		}
		add(tr,
			textEl(atom.Td, row.RunID),
			textEl(atom.Td, row.Timestamp),
			add(el(atom.Td), badge(row.Style.Label, row.Style.Badge)),
			textEl(atom.Td, row.Confidence),
			textEl(atom.Td, fmt.Sprintf("%d/%d/%d", row.PassCount, row.FailCount, row.CheckCount)),
			textEl(atom.Td, fmt.Sprint(row.AssumptionCount)),
		)
		add(body, tr)
	}
	return append(out, t)
}

func treeHTML(nodes []navtree.Node) []*html.Node {
	out := []*html.Node{textEl(atom.H1, "Claims")}
	if len(nodes) == 0 {
		return append(out, placeholder(NoClaims))
	}

	list := el(atom.Ul)
	for _, n := range nodes {
		li := el(atom.Li, "data-claim-id", n.Claim.ClaimID, "data-state", n.State)
		if n.Selected {
			li.Attr = append(li.Attr, html.Attribute{Key: "class", Val: "selected"})
		}
		add(li, txt(n.Claim.ClaimID+" "), badge(n.Status.Label, string(n.Status.Variant)))

		switch n.State {
		case navtree.ExpandedLoading.String():
			add(li, placeholder("Loading documents..."))
		case navtree.ExpandedFailed.String():
			add(li, textEl(atom.P, n.Error, "class", "badge error"))
		case navtree.ExpandedLoaded.String():
			docs := el(atom.Ul)
			for _, d := range n.Documents {
				item := textEl(atom.Li, d.Document.Filename, "data-doc-id", d.Document.DocID,
					"class", "doc "+string(d.Document.QualityStatus))
				if d.Selected {
					item.Attr = append(item.Attr, html.Attribute{Key: "aria-selected", Val: "true"})
				}
				add(docs, item)
			}
			if len(n.Documents) == 0 {
				add(li, placeholder(NoDocuments))
			} else {
				add(li, docs)
			}
		}
		add(list, li)
	}
	return append(out, list)
}
