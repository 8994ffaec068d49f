package validation

// MaxCategories caps how many categories one project may carry.
const MaxCategories = 3

// Selection is an ordered set of category ids that never exceeds
// MaxCategories. The zero value is an empty selection.
type Selection struct {
	ids []string
}

// NewSelection seeds a selection, dropping duplicates and anything past the cap.
func NewSelection(ids ...string) *Selection {
	s := &Selection{}
	for _, id := range ids {
		if !s.Has(id) {
			s.Toggle(id)
		}
	}
	return s
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Disabled reports whether id cannot currently be toggled on. Selected ids are
// never disabled so they can always be removed.
func (s *Selection) Disabled(id string) bool {
	return len(s.ids) >= MaxCategories && !s.Has(id)
}

// Toggle adds or removes id and reports whether the selection changed. Adding
// to a full selection is rejected and leaves it untouched.
func (s *Selection) Toggle(id string) bool {
	if id == "" {
		return false
	}
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			return true
		}
	}
	if s.Disabled(id) {
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

// IDs returns a copy of the selected ids in selection order.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len is the number of selected ids.
func (s *Selection) Len() int { return len(s.ids) }
