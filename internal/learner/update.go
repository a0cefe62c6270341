package learner

import "fmt"

// create starts a new template with one singleton slot per token.
func (l *Learner) create(tokens []string) (int, bool) {
	slots := make([]Slot, 0, len(tokens))
	for _, token := range tokens {
		if token != "" {
			slots = append(slots, Slot{token})
		}
	}
	id, ok := l.store.createTemplate(slots)
	if ok {
		l.store.templates[id].Hits = 1
	}
	return id, ok
}

// update folds tokens into the matched template id. Leading tokens with no
// slot of their own are prepended to the template. When interior
// alternatives are enabled, tolerated mismatches are recorded as well.
func (l *Learner) update(tokens []string, id int) (prepended, alternatives int, err error) {
	first, slot, ok := l.firstAlignment(tokens, id)
	if !ok {
		return 0, 0, fmt.Errorf("%w: template %d, tokens %q", ErrAlignmentFault, id, tokens)
	}
	if first > slot {
		prepended = l.store.extendTemplateFront(id, tokens[:first-slot])
	}
	if l.interior {
		alternatives = l.recordAlternatives(tokens, id)
	}
	return prepended, alternatives, nil
}

// firstAlignment finds the first token that occurs anywhere in template id
// and the first slot holding it.
func (l *Learner) firstAlignment(tokens []string, id int) (token, slot int, ok bool) {
	if _, exists := l.store.get(id); !exists {
		return -1, -1, false
	}
	for i, t := range tokens {
		if j, found := l.store.tokenAtOrAfter(id, t, 0); found {
			return i, j, true
		}
	}
	return -1, -1, false
}

// recordAlternatives aligns tokens with template id again and pairs the
// tokens that failed to align with the slots skipped over between two
// aligned slots (or after the last one). Each pair becomes a new
// alternative. Unpaired tokens are ignored.
func (l *Learner) recordAlternatives(tokens []string, id int) int {
	t, _ := l.store.get(id)
	added := 0
	last := -1
	var pending []string

	flush := func(next int) {
		for k, token := range pending {
			pos := last + 1 + k
			if pos >= next {
				break
			}
			if l.store.addAlternative(id, pos, token) {
				added++
			}
		}
		pending = pending[:0]
	}

	for _, token := range tokens {
		if slot, ok := l.store.tokenAtOrAfter(id, token, last+1); ok {
			flush(slot)
			last = slot
			continue
		}
		pending = append(pending, token)
	}
	flush(len(t.Slots))
	return added
}
