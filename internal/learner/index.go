package learner

import "sort"

// IndexEntry is one word of the inverted index together with the sorted IDs
// of every template containing it.
type IndexEntry struct {
	Token       string `json:"token" yaml:"token" cbor:"token"`
	TemplateIDs []int  `json:"template_ids" yaml:"template_ids" cbor:"template_ids"`
}

// wordIndex maps a token to the sorted, deduplicated IDs of the templates
// that contain it in any slot.
type wordIndex struct {
	entries map[string][]int
}

func newWordIndex() *wordIndex {
	return &wordIndex{entries: make(map[string][]int)}
}

// register records that template id contains token. Registering the same
// pair again is a no-op.
func (w *wordIndex) register(token string, id int) {
	ids, ok := w.entries[token]
	if !ok {
		w.entries[token] = []int{id}
		return
	}
	for _, existing := range ids {
		if existing == id {
			return
		}
	}
	ids = append(ids, id)
	sort.Ints(ids)
	w.entries[token] = ids
}

// lookup returns the IDs registered for token without copying. Callers must
// not modify the result.
func (w *wordIndex) lookup(token string) []int {
	return w.entries[token]
}

// len returns the number of distinct tokens in the index.
func (w *wordIndex) len() int {
	return len(w.entries)
}

// snapshot returns a copy of every entry, ordered by token.
func (w *wordIndex) snapshot() []IndexEntry {
	tokens := make([]string, 0, len(w.entries))
	for token := range w.entries {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	out := make([]IndexEntry, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, IndexEntry{
			Token:       token,
			TemplateIDs: append([]int(nil), w.entries[token]...),
		})
	}
	return out
}
