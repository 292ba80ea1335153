package facts

import (
	"strings"

	"github.com/ppiankov/claimview/internal/model"
)

// Index maps fact names to the first fact carrying that name
type Index struct {
	byName map[string]int
	facts  []model.Fact
}

// NewIndex builds an index over a fact set; later duplicates are shadowed
func NewIndex(facts []model.Fact) *Index {
	idx := &Index{
		byName: make(map[string]int, len(facts)),
		facts:  facts,
	}
	for i, f := range facts {
		if _, seen := idx.byName[f.Name]; !seen {
			idx.byName[f.Name] = i
		}
	}
	return idx
}

// Lookup returns the first fact with the exact name
func (idx *Index) Lookup(name string) (model.Fact, bool) {
	i, ok := idx.byName[name]
	if !ok {
		return model.Fact{}, false
	}
	return idx.facts[i], true
}

// Display returns a fact's value as a single string, list items joined by a
// space. Missing facts and null values yield "".
func (idx *Index) Display(name string) string {
	f, ok := idx.Lookup(name)
	if !ok {
		return ""
	}
	switch f.Value.Kind {
	case model.ValueText:
		return strings.TrimSpace(f.Value.Text)
	case model.ValueList:
		return strings.TrimSpace(strings.Join(f.Value.Items, " "))
	default:
		return ""
	}
}
