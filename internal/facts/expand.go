package facts

// DefaultExpandedGroups is how many leading groups start expanded
const DefaultExpandedGroups = 3

// ExpandState tracks which fact groups are expanded in a view.
// It is UI state layered over GroupFacts output, one flag per category.
type ExpandState struct {
	expanded map[string]bool
}

// NewExpandState expands the first n groups (n <= 0 uses DefaultExpandedGroups)
func NewExpandState(groups []Group, n int) *ExpandState {
	if n <= 0 {
		n = DefaultExpandedGroups
	}
	s := &ExpandState{expanded: make(map[string]bool, len(groups))}
	for i, g := range groups {
		s.expanded[g.Category] = i < n
	}
	return s
}

// IsExpanded reports whether a category is expanded
func (s *ExpandState) IsExpanded(category string) bool {
	if s == nil {
		return false
	}
	return s.expanded[category]
}

// Expanded lists expanded categories in group order
func (s *ExpandState) Expanded(groups []Group) []string {
	out := []string{}
	for _, g := range groups {
		if s.IsExpanded(g.Category) {
			out = append(out, g.Category)
		}
	}
	return out
}

// Toggle flips one category and returns its new state
func (s *ExpandState) Toggle(category string) bool {
	s.expanded[category] = !s.expanded[category]
	return s.expanded[category]
}

// Set forces a category's state
func (s *ExpandState) Set(category string, expanded bool) {
	s.expanded[category] = expanded
}
