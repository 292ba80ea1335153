package assess

import (
	"fmt"

	"github.com/ppiankov/claimview/internal/model"
)

// DefaultMaxItems is the display limit for attention items
const DefaultMaxItems = 8

// Signals are the raw inputs attention items are derived from
type Signals struct {
	Claim       model.Claim
	Checks      []model.CheckResult
	Assumptions []model.Assumption
	Documents   []model.Document
}

// Options controls attention list shaping
type Options struct {
	MaxItems int // <= 0 uses DefaultMaxItems
}

// Counts are per-type totals over the full item set
type Counts struct {
	Error   int `json:"error"`
	Warning int `json:"warning"`
	Info    int `json:"info"`
}

// AttentionList is the display slice of attention items plus overflow data
type AttentionList struct {
	Items   []model.AttentionItem `json:"items"`
	Total   int                   `json:"total"`
	HasMore bool                  `json:"has_more"`
	Counts  Counts                `json:"counts"`
	all     []model.AttentionItem
}

// All returns every derived item, including those beyond the display limit
func (l AttentionList) All() []model.AttentionItem {
	return l.all
}

// OverflowLabel is the text of the "view all" affordance, empty when nothing
// is hidden
func (l AttentionList) OverflowLabel() string {
	if !l.HasMore {
		return ""
	}
	return fmt.Sprintf("View all %d items", l.Total)
}

// SourceHandler opens a document at a location
type SourceHandler func(docID string, page, charStart, charEnd *int)

// Clickable reports whether an item can jump to its document
func Clickable(item model.AttentionItem, handler SourceHandler) bool {
	return item.DocID != "" && handler != nil
}

// DeriveAttention maps every signal to one item. Items come out errors
// first, then warnings, then infos.
func DeriveAttention(s Signals, opts Options) AttentionList {
	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	var errs, warns, infos []model.AttentionItem

	for i, c := range s.Checks {
		if c.Result == model.CheckFail {
			errs = append(errs, checkItem(i, c, model.AttentionError))
		}
	}

	docFail, docWarn := false, false
	for _, d := range s.Documents {
		if d.QualityStatus == model.QualityFail {
			errs = append(errs, gateItem(d, model.AttentionError))
			docFail = true
		}
	}

	// Claim counters report failures the document list does not explain
	if s.Claim.GateFailCount > 0 && !docFail {
		errs = append(errs, model.AttentionItem{
			ID:          "gate-fail-summary",
			Type:        model.AttentionError,
			Title:       fmt.Sprintf("%d quality gate failure(s)", s.Claim.GateFailCount),
			Description: "Quality gates failed for this claim",
			Action:      "Inspect document quality",
		})
	}

	for i, c := range s.Checks {
		if c.Result == model.CheckInconclusive {
			warns = append(warns, checkItem(i, c, model.AttentionWarning))
		}
	}

	for i, a := range s.Assumptions {
		if a.Impact == model.ImpactHigh {
			warns = append(warns, assumptionItem(i, a, model.AttentionWarning))
		}
	}

	for _, d := range s.Documents {
		if d.QualityStatus == model.QualityWarn {
			warns = append(warns, gateItem(d, model.AttentionWarning))
			docWarn = true
		}
	}

	for i, a := range s.Assumptions {
		if a.Impact == model.ImpactMedium {
			infos = append(infos, assumptionItem(i, a, model.AttentionInfo))
		}
	}

	if s.Claim.GateWarnCount > 0 && !docWarn && !docFail {
		infos = append(infos, model.AttentionItem{
			ID:          "gate-summary",
			Type:        model.AttentionInfo,
			Title:       fmt.Sprintf("%d quality gate warning(s)", s.Claim.GateWarnCount),
			Description: "Quality gates reported warnings for this claim",
			Action:      "Review document quality",
		})
	}

	all := make([]model.AttentionItem, 0, len(errs)+len(warns)+len(infos))
	all = append(all, errs...)
	all = append(all, warns...)
	all = append(all, infos...)

	shown := all
	if len(shown) > maxItems {
		shown = shown[:maxItems]
	}

	return AttentionList{
		Items:   shown,
		Total:   len(all),
		HasMore: len(all) > maxItems,
		Counts: Counts{
			Error:   len(errs),
			Warning: len(warns),
			Info:    len(infos),
		},
		all: all,
	}
}

func checkItem(pos int, c model.CheckResult, typ model.AttentionType) model.AttentionItem {
	n := c.CheckNumber
	title := fmt.Sprintf("Check %d failed", n)
	action := "Review check result"
	if typ != model.AttentionError {
		title = fmt.Sprintf("Check %d inconclusive", n)
		action = "Verify manually"
	}
	if c.CheckName != "" {
		title += ": " + c.CheckName
	}
	return model.AttentionItem{
		ID:          fmt.Sprintf("check-%d-%d", n, pos),
		Type:        typ,
		Title:       title,
		Description: c.Details,
		Action:      action,
		DocID:       c.DocID,
		CheckNumber: &n,
	}
}

func gateItem(d model.Document, typ model.AttentionType) model.AttentionItem {
	title := "Document quality failed"
	action := "Inspect document quality"
	if typ != model.AttentionError {
		title = "Document quality warning"
		action = "Check document legibility"
	}
	return model.AttentionItem{
		ID:          "gate-" + d.DocID,
		Type:        typ,
		Title:       title,
		Description: d.Filename,
		Action:      action,
		DocID:       d.DocID,
	}
}

func assumptionItem(pos int, a model.Assumption, typ model.AttentionType) model.AttentionItem {
	n := a.CheckNumber
	return model.AttentionItem{
		ID:          fmt.Sprintf("assumption-%d-%s-%d", n, a.Field, pos),
		Type:        typ,
		Title:       fmt.Sprintf("Assumed %s = %s", a.Field, a.AssumedValue),
		Description: a.Reason,
		Action:      "Confirm assumed value",
		CheckNumber: &n,
	}
}
