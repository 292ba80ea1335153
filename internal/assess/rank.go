package assess

import (
	"sort"

	"github.com/ppiankov/claimview/internal/model"
)

// RankAssumptions returns the assumptions ordered high, medium, low.
// Equal impacts keep their input order; the input slice is not modified.
func RankAssumptions(items []model.Assumption) []model.Assumption {
	ranked := make([]model.Assumption, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Impact.Rank() < ranked[j].Impact.Rank()
	})
	return ranked
}

// CriticalCount counts high-impact assumptions
func CriticalCount(items []model.Assumption) int {
	n := 0
	for _, a := range items {
		if a.Impact == model.ImpactHigh {
			n++
		}
	}
	return n
}
