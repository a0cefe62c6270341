package learner

import "strings"

// Slot is one position of a template. It holds every alternative token
// observed at that position, in the order they were first seen.
type Slot []string

// Contains reports whether token is one of the slot's alternatives.
func (s Slot) Contains(token string) bool {
	for _, alt := range s {
		if alt == token {
			return true
		}
	}
	return false
}

// Template is a learned line structure. ID is the template's position in the
// store and never changes.
type Template struct {
	ID    int    `json:"id" yaml:"id" cbor:"id"`
	Slots []Slot `json:"slots" yaml:"slots" cbor:"slots"`
	// Hits counts the lines that created or matched this template.
	Hits int `json:"hits" yaml:"hits" cbor:"hits"`
}

// Pattern renders the template as a single line. Slots with several
// alternatives are written as (a|b).
func (t Template) Pattern() string {
	parts := make([]string, len(t.Slots))
	for i, slot := range t.Slots {
		if len(slot) == 1 {
			parts[i] = slot[0]
			continue
		}
		parts[i] = "(" + strings.Join(slot, "|") + ")"
	}
	return strings.Join(parts, " ")
}

// clone returns a deep copy so callers cannot reach into the store.
func (t Template) clone() Template {
	slots := make([]Slot, len(t.Slots))
	for i, slot := range t.Slots {
		slots[i] = append(Slot(nil), slot...)
	}
	t.Slots = slots
	return t
}

// store is the append-only template arena together with its word index.
// The two are only ever mutated through createTemplate, extendTemplateFront
// and addAlternative, which keep them consistent.
type store struct {
	templates []*Template
	index     *wordIndex
}

func newStore() *store {
	return &store{index: newWordIndex()}
}

func (s *store) len() int {
	return len(s.templates)
}

func (s *store) get(id int) (*Template, bool) {
	if id < 0 || id >= len(s.templates) {
		return nil, false
	}
	return s.templates[id], true
}

// createTemplate appends a template built from slots and registers every
// alternative under the new ID. Empty alternatives and slots left empty are
// skipped; when nothing remains no template is created.
func (s *store) createTemplate(slots []Slot) (int, bool) {
	id := len(s.templates)
	kept := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		var alts Slot
		for _, token := range slot {
			if token == "" || alts.Contains(token) {
				continue
			}
			alts = append(alts, token)
		}
		if len(alts) > 0 {
			kept = append(kept, alts)
		}
	}
	if len(kept) == 0 {
		return -1, false
	}

	for _, slot := range kept {
		for _, token := range slot {
			s.index.register(token, id)
		}
	}
	s.templates = append(s.templates, &Template{ID: id, Slots: kept})
	return id, true
}

// extendTemplateFront prepends one singleton slot per token to template id,
// in order, and registers the tokens. It returns the number of slots added.
func (s *store) extendTemplateFront(id int, tokens []string) int {
	t, ok := s.get(id)
	if !ok {
		return 0
	}
	front := make([]Slot, 0, len(tokens)+len(t.Slots))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		s.index.register(token, id)
		front = append(front, Slot{token})
	}
	added := len(front)
	t.Slots = append(front, t.Slots...)
	return added
}

// addAlternative records token as a new alternative of slot pos in
// template id. It reports whether the template changed.
func (s *store) addAlternative(id, pos int, token string) bool {
	t, ok := s.get(id)
	if !ok || token == "" || pos < 0 || pos >= len(t.Slots) {
		return false
	}
	if t.Slots[pos].Contains(token) {
		return false
	}
	t.Slots[pos] = append(t.Slots[pos], token)
	s.index.register(token, id)
	return true
}

// tokenAtOrAfter returns the first slot at or after start in template id
// whose alternatives contain token.
func (s *store) tokenAtOrAfter(id int, token string, start int) (int, bool) {
	if token == "" || start < 0 {
		return -1, false
	}
	t, ok := s.get(id)
	if !ok {
		return -1, false
	}
	for i := start; i < len(t.Slots); i++ {
		if t.Slots[i].Contains(token) {
			return i, true
		}
	}
	return -1, false
}

// containsToken reports whether any slot of template id contains token.
func (s *store) containsToken(id int, token string) bool {
	_, ok := s.tokenAtOrAfter(id, token, 0)
	return ok
}
