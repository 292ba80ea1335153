package facts

import (
	"sort"

	"github.com/ppiankov/claimview/internal/format"
	"github.com/ppiankov/claimview/internal/model"
)

// UnknownCategory is the category of facts without a source document type
const UnknownCategory = "unknown"

// category is an entry of the fixed priority table
type category struct {
	ID    string
	Label string
}

// priority lists known document categories in display order
var priority = []category{
	{"fnol_form", "Claim Details"},
	{"insurance_policy", "Policy Information"},
	{"vehicle_registration", "Vehicle Information"},
	{"police_report", "Police Report"},
	{"repair_estimate", "Repair Estimate"},
	{"invoice", "Invoice"},
	{"damage_photos", "Damage Evidence"},
	{"service_history", "Service History"},
	{"medical_report", "Medical Report"},
	{"witness_statement", "Witness Statements"},
	{"correspondence", "Correspondence"},
}

var priorityRank = func() map[string]int {
	m := make(map[string]int, len(priority))
	for i, c := range priority {
		m[c.ID] = i
	}
	return m
}()

// Group is the facts extracted from one document category
type Group struct {
	Category string       `json:"category"`
	Label    string       `json:"label"`
	Facts    []model.Fact `json:"facts"`
}

// CategoryOf returns the document category a fact belongs to
func CategoryOf(f model.Fact) string {
	if f.SelectedFrom == nil || f.SelectedFrom.DocType == "" {
		return UnknownCategory
	}
	return f.SelectedFrom.DocType
}

// Label returns the display label of a category
func Label(categoryID string) string {
	if i, ok := priorityRank[categoryID]; ok {
		return priority[i].Label
	}
	return format.HumanizeField(categoryID)
}

// GroupFacts partitions facts by category. Known categories come first in
// priority order, the rest follow sorted by identifier. Facts keep their
// relative input order within a group.
func GroupFacts(facts []model.Fact) []Group {
	groups := []Group{}
	index := make(map[string]int)

	for _, f := range facts {
		cat := CategoryOf(f)
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, Group{Category: cat, Label: Label(cat)})
		}
		groups[i].Facts = append(groups[i].Facts, f)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return categoryLess(groups[i].Category, groups[j].Category)
	})

	return groups
}

func categoryLess(a, b string) bool {
	ra, aKnown := priorityRank[a]
	rb, bKnown := priorityRank[b]
	switch {
	case aKnown && bKnown:
		return ra < rb
	case aKnown:
		return true
	case bKnown:
		return false
	default:
		return a < b
	}
}
