package history

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ppiankov/claimview/internal/format"
	"github.com/ppiankov/claimview/internal/model"
)

// ErrMultipleCurrent is returned when more than one run is flagged current
var ErrMultipleCurrent = errors.New("more than one current run")

// DecisionStyle is how a decision is presented
type DecisionStyle struct {
	Icon  string `json:"icon"`
	Label string `json:"label"`
	Badge string `json:"badge"`
}

var styles = map[model.Decision]DecisionStyle{
	model.DecisionApprove:      {Icon: "check-circle", Label: "Approved", Badge: "success"},
	model.DecisionReject:       {Icon: "x-circle", Label: "Rejected", Badge: "error"},
	model.DecisionReferToHuman: {Icon: "alert-circle", Label: "Referred to Human", Badge: "warning"},
}

// Style maps a decision to its presentation. Decisions are validated when
// decoded, so an unknown value here is a programming error.
func Style(d model.Decision) DecisionStyle {
	s, ok := styles[d]
	if !ok {
		panic(fmt.Sprintf("history: unknown decision %q", string(d)))
	}
	return s
}

// Row is one rendered run
type Row struct {
	RunID           string         `json:"run_id"`
	Timestamp       string         `json:"timestamp"`
	Decision        model.Decision `json:"decision"`
	Style           DecisionStyle  `json:"style"`
	Confidence      string         `json:"confidence"`
	CheckCount      int            `json:"check_count"`
	PassCount       int            `json:"pass_count"`
	FailCount       int            `json:"fail_count"`
	AssumptionCount int            `json:"assumption_count"`
	IsCurrent       bool           `json:"is_current"`
}

// Sort orders runs newest first; equal timestamps order by run id, highest
// first. The input slice is not modified.
func Sort(entries []model.HistoryEntry) []model.HistoryEntry {
	sorted := make([]model.HistoryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.RunID > b.RunID
	})
	return sorted
}

// Build sorts runs and maps them to rows
func Build(entries []model.HistoryEntry) ([]Row, error) {
	current := 0
	for _, e := range entries {
		if e.IsCurrent {
			current++
		}
	}
	if current > 1 {
		return nil, fmt.Errorf("%w: %d runs flagged", ErrMultipleCurrent, current)
	}

	rows := make([]Row, 0, len(entries))
	for _, e := range Sort(entries) {
		rows = append(rows, Row{
			RunID:           e.RunID,
			Timestamp:       format.FormatTimestamp(e.Timestamp),
			Decision:        e.Decision,
			Style:           Style(e.Decision),
			Confidence:      format.FormatPercent(e.ConfidenceScore),
			CheckCount:      e.CheckCount,
			PassCount:       e.PassCount,
			FailCount:       e.FailCount,
			AssumptionCount: e.AssumptionCount,
			IsCurrent:       e.IsCurrent,
		})
	}
	return rows, nil
}
