package render

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableMode selects how a table is rendered
type tableMode int

const (
	modeASCII    tableMode = iota // Fixed-width terminal tables
	modeMarkdown                  // GitHub-flavoured Markdown tables
)

// columnConfig controls per-column formatting
type columnConfig struct {
	Number   int // 1-based column index
	Align    text.Align
	MaxWidth int // 0 = unlimited
}

// tableBuilder wraps a go-pretty writer; build once, render in its mode
type tableBuilder struct {
	writer table.Writer
	mode   tableMode
}

func newTable(m tableMode, title string) *tableBuilder {
	w := table.NewWriter()
	if m == modeASCII {
		w.SetStyle(table.StyleLight)
		if title != "" {
			w.SetTitle(title)
		}
	}
	return &tableBuilder{writer: w, mode: m}
}

func (b *tableBuilder) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	b.writer.AppendHeader(row)
}

func (b *tableBuilder) Row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	b.writer.AppendRow(row)
}

func (b *tableBuilder) Footer(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	b.writer.AppendFooter(row)
}

func (b *tableBuilder) Columns(cfgs ...columnConfig) {
	goCfgs := make([]table.ColumnConfig, len(cfgs))
	for i, c := range cfgs {
		goCfgs[i] = table.ColumnConfig{
			Number:   c.Number,
			Align:    c.Align,
			WidthMax: c.MaxWidth,
		}
	}
	b.writer.SetColumnConfigs(goCfgs)
}

func (b *tableBuilder) String() string {
	if b.mode == modeMarkdown {
		return b.writer.RenderMarkdown()
	}
	return b.writer.Render()
}
