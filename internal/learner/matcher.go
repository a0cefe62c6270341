package learner

import "sort"

// matcher picks the template a token sequence belongs to. It only reads
// the store.
type matcher struct {
	store                *store
	minConsequentMatches int
	maxNewAlternatives   int
}

// bestMatch returns the ID of the template tokens should be folded into.
func (m *matcher) bestMatch(tokens []string) (int, bool) {
	if m.store.len() == 0 || len(tokens) == 0 {
		return -1, false
	}

	bestID := -1
	bestScore := 0
	for _, id := range m.candidates(tokens) {
		// Strictly greater keeps the lowest ID on ties.
		if score := m.score(tokens, id); score > bestScore {
			bestScore = score
			bestID = id
		}
	}
	if bestID < 0 {
		return -1, false
	}

	if len(tokens) > m.minConsequentMatches {
		if bestScore >= m.minConsequentMatches {
			return bestID, true
		}
		return -1, false
	}
	// Short lines have to align completely.
	if bestScore == len(tokens) {
		return bestID, true
	}
	return -1, false
}

// requiredHits is the number of input tokens a template has to share with
// the line before it is scored at all.
func (m *matcher) requiredHits(n int) int {
	if n < m.minConsequentMatches {
		return n - m.maxNewAlternatives
	}
	return m.minConsequentMatches - m.maxNewAlternatives
}

// candidates returns, in ascending order, the IDs of templates referenced
// by at least requiredHits input tokens.
func (m *matcher) candidates(tokens []string) []int {
	if len(tokens) == 0 {
		return nil
	}
	hits := m.references(tokens)
	required := m.requiredHits(len(tokens))

	var out []int
	count := 0
	prev, lastAdded := -1, -1
	for _, id := range hits {
		if id == lastAdded {
			continue
		}
		if id != prev {
			prev = id
			count = 1
		} else {
			count++
		}
		if count >= required {
			out = append(out, id)
			lastAdded = id
			count = 0
		}
	}
	return out
}

// references concatenates the index entries of every token and sorts the
// result. An ID appears once per input token that references it.
func (m *matcher) references(tokens []string) []int {
	var refs []int
	for _, token := range tokens {
		refs = append(refs, m.store.index.lookup(token)...)
	}
	sort.Ints(refs)
	return refs
}

// score counts the tokens that align, in order, with strictly increasing
// slots of template id. A template is disqualified (score 0) once more
// tokens fail to align than the tolerance allows. Lines longer than the
// template get one extra unit of tolerance per surplus token.
func (m *matcher) score(tokens []string, id int) int {
	t, ok := m.store.get(id)
	if !ok || len(tokens) == 0 {
		return 0
	}

	tolerance := m.maxNewAlternatives
	if extra := len(tokens) - len(t.Slots); extra > 0 {
		tolerance += extra
	}

	matched, mismatched := 0, 0
	last := -1
	for _, token := range tokens {
		if slot, ok := m.store.tokenAtOrAfter(id, token, last+1); ok {
			last = slot
			matched++
			continue
		}
		mismatched++
		if mismatched > tolerance {
			return 0
		}
	}
	return matched
}
