package learner

import (
	"reflect"
	"strings"
	"testing"
)

// slotsFromString builds singleton slots from a space separated string.
func slotsFromString(s string) []Slot {
	var slots []Slot
	for _, word := range strings.Fields(s) {
		slots = append(slots, Slot{word})
	}
	return slots
}

// withAlternative adds word as an extra alternative of slot pos.
func withAlternative(t *testing.T, slots []Slot, pos int, word string) []Slot {
	t.Helper()
	if pos >= len(slots) {
		t.Fatalf("cannot add %q at %d to %v", word, pos, slots)
	}
	slots[pos] = append(slots[pos], word)
	return slots
}

// newFixture returns a learner holding six hand-built templates:
//
//	0: aaa (qqq|bbb) (ccc|rrr) (sss|ddd)
//	1: eee fff ggg hhh x y z
//	2: iii jjj kkk lll
//	3: mmm nnn ooo ppp
//	4: qqq rrr sss (ttt|aaa)
//	5: ttt aaa uuu bbb ccc ddd vvv
func newFixture(t *testing.T) *Learner {
	t.Helper()
	l := New(WithMinConsequentMatches(3), WithMaxNewAlternatives(1))

	mixed := slotsFromString("aaa qqq ccc sss")
	mixed = withAlternative(t, mixed, 1, "bbb")
	mixed = withAlternative(t, mixed, 2, "rrr")
	mixed = withAlternative(t, mixed, 3, "ddd")

	fixtures := [][]Slot{
		mixed,
		slotsFromString("eee fff ggg hhh x y z"),
		slotsFromString("iii jjj kkk lll"),
		slotsFromString("mmm nnn ooo ppp"),
		withAlternative(t, slotsFromString("qqq rrr sss ttt"), 3, "aaa"),
		slotsFromString("ttt aaa uuu bbb ccc ddd vvv"),
	}
	for i, slots := range fixtures {
		id, ok := l.store.createTemplate(slots)
		if !ok || id != i {
			t.Fatalf("createTemplate() = %d, %v, want %d, true", id, ok, i)
		}
	}
	return l
}

func words(s string) []string {
	return strings.Fields(s)
}

func TestTokenAtOrAfter(t *testing.T) {
	empty := New()
	for _, tc := range []struct {
		token     string
		id, start int
	}{
		{"aaa", 0, 0},
		{"aaa", 0, 100},
		{"aaa", 100, 0},
		{"", 0, 0},
	} {
		if slot, ok := empty.store.tokenAtOrAfter(tc.id, tc.token, tc.start); ok {
			t.Errorf("empty store: tokenAtOrAfter(%d, %q, %d) = %d, want not found", tc.id, tc.token, tc.start, slot)
		}
	}

	l := newFixture(t)
	tests := []struct {
		name   string
		token  string
		id     int
		start  int
		want   int
		wantOK bool
	}{
		{"first slot", "aaa", 0, 0, 0, true},
		{"alternative in last slot", "aaa", 4, 0, 3, true},
		{"first alternative", "qqq", 0, 0, 1, true},
		{"start at slot", "sss", 0, 3, 3, true},
		{"second alternative at start", "ddd", 0, 3, 3, true},
		{"start past token", "aaa", 0, 1, -1, false},
		{"empty token", "", 4, 0, -1, false},
		{"token absent", "aaa", 1, 0, -1, false},
		{"template absent", "aaa", 6, 0, -1, false},
		{"negative template", "aaa", -1, 0, -1, false},
		{"start beyond end", "aaa", 0, 4, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := l.store.tokenAtOrAfter(tt.id, tt.token, tt.start)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("tokenAtOrAfter(%d, %q, %d) = %d, %v, want %d, %v",
					tt.id, tt.token, tt.start, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestContainsToken(t *testing.T) {
	l := newFixture(t)
	tests := []struct {
		token string
		id    int
		want  bool
	}{
		{"aaa", 0, true},
		{"aaa", 4, true},
		{"hhh", 1, true},
		{"aaa", 1, false},
		{"xxx", 2, false},
		{"xxx", 6, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		if got := l.ContainsToken(tt.id, tt.token); got != tt.want {
			t.Errorf("ContainsToken(%d, %q) = %v, want %v", tt.id, tt.token, got, tt.want)
		}
	}
}

func TestReferences(t *testing.T) {
	empty := New()
	if got := empty.matcher.references(words("aaa bbb ccc ddd")); len(got) != 0 {
		t.Errorf("empty learner references = %v, want none", got)
	}

	l := newFixture(t)
	tests := []struct {
		tokens []string
		want   []int
	}{
		{nil, nil},
		{words("aaa bbb ccc ddd"), []int{0, 0, 0, 0, 4, 5, 5, 5, 5}},
		{words("aaa xxx"), []int{0, 4, 5}},
		{words("xxx"), nil},
	}

	for _, tt := range tests {
		got := l.matcher.references(tt.tokens)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("references(%q) = %v, want %v", tt.tokens, got, tt.want)
		}
	}
}

func TestCandidates(t *testing.T) {
	empty := New()
	if got := empty.Candidates(nil); len(got) != 0 {
		t.Errorf("empty learner Candidates(nil) = %v", got)
	}
	if got := empty.Candidates(words("aaa bbb ccc ddd")); len(got) != 0 {
		t.Errorf("empty learner Candidates() = %v", got)
	}

	l := newFixture(t)
	tests := []struct {
		name   string
		tokens []string
		want   []int
	}{
		{"full line", words("aaa bbb ccc ddd"), []int{0, 5}},
		{"short line", words("aaa bbb"), []int{0, 4, 5}},
		{"single word", words("aaa"), []int{0, 4, 5}},
		{"no words", nil, nil},
		{"unknown word", words("xyz"), nil},
		{"one new alternative", words("aaa lll ccc ddd"), []int{0, 5}},
		{"new alternative in short line", words("aaa lll ccc"), []int{0, 5}},
		{"order is ignored here", words("aaa lll zzz ddd"), []int{0, 5}},
		{"several unknown words", words("aaa lll zzz yyy ddd"), []int{0, 5}},
		{"reversed", words("ddd lll zzz yyy aaa"), []int{0, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := l.Candidates(tt.tokens)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Candidates(%q) = %v, want %v", tt.tokens, got, tt.want)
			}
		})
	}
}

func TestScore(t *testing.T) {
	empty := New()
	line := words("aaa bbb ccc ddd")
	for _, id := range []int{0, 1} {
		if got := empty.Score(line, id); got != 0 {
			t.Errorf("empty learner Score(%d) = %d, want 0", id, got)
		}
	}
	strict := New(WithMaxNewAlternatives(0))
	if got := strict.Score(line, 0); got != 0 {
		t.Errorf("empty strict learner Score() = %d, want 0", got)
	}

	l := newFixture(t)
	tests := []struct {
		name   string
		tokens []string
		id     int
		want   int
	}{
		{"full match", words("aaa bbb ccc ddd"), 0, 4},
		{"no shared order", words("aaa bbb ccc ddd"), 1, 0},
		{"template out of range", words("aaa bbb ccc ddd"), 6, 0},
		{"no tokens", nil, 0, 0},
		{"skips missing slot", words("iii jjj lll"), 2, 3},
		{"two of four", words("iii lll"), 2, 2},
		{"prefix", words("iii jjj"), 2, 2},
		{"middle", words("jjj kkk"), 2, 2},
		{"first word", words("iii"), 2, 1},
		{"second word", words("jjj"), 2, 1},
		{"alternative matches", words("aaa"), 4, 1},
		{"trailing new word", words("aaa bbb ccc xxx"), 0, 3},
		{"interior new word", words("aaa xxx ccc ddd"), 0, 3},
		{"two new words", words("aaa bbb zzz xxx"), 0, 0},
		{"two interior new words", words("aaa xxx zzz ddd"), 0, 0},
		{"longer than template", words("aaa bbb ccc ddd eee fff ggg hhh"), 0, 4},
		{"longer with unrelated template", words("aaa xxx ccc ddd eee fff ggg hhh"), 3, 0},
		{"longer with too many misses", words("aaa xxx bbb ccc ddd fff ggg hhh"), 4, 0},
		{"reversed", words("ddd ccc bbb aaa"), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.Score(tt.tokens, tt.id); got != tt.want {
				t.Errorf("Score(%q, %d) = %d, want %d", tt.tokens, tt.id, got, tt.want)
			}
		})
	}
}

func TestFindBestMatch(t *testing.T) {
	empty := New()
	if id, ok := empty.FindBestMatch(words("aaa bbb ccc ddd")); ok {
		t.Errorf("empty learner FindBestMatch() = %d, want no match", id)
	}

	l := newFixture(t)
	tests := []struct {
		name   string
		tokens []string
		want   int
		wantOK bool
	}{
		{"no tokens", nil, -1, false},
		{"full match", words("aaa bbb ccc ddd"), 0, true},
		{"shorter than template", words("aaa bbb ccc"), 0, true},
		{"two words", words("aaa bbb"), 0, true},
		{"one word", words("aaa"), 0, true},
		{"one new trailing word", words("aaa bbb ccc xxx"), 0, true},
		{"one new interior word", words("aaa xxx ccc ddd"), 0, true},
		{"two new words", words("aaa bbb zzz xxx"), -1, false},
		{"two new interior words", words("aaa xxx zzz ddd"), -1, false},
		{"longer than template", words("aaa bbb ccc ddd eee fff ggg hhh"), 0, true},
		{"longer with replaced word", words("aaa xxx ccc ddd eee fff ggg hhh"), 0, true},
		{"longer with inserted word", words("aaa xxx bbb ccc ddd fff ggg hhh"), 0, true},
		{"reversed", words("ddd ccc bbb aaa"), -1, false},
		{"reversed three", words("ccc bbb aaa"), -1, false},
		{"reversed two", words("bbb aaa"), -1, false},
		{"unknown word", words("xyz"), -1, false},
		{"template with gap", words("iii jjj lll"), 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := l.FindBestMatch(tt.tokens)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("FindBestMatch(%q) = %d, %v, want %d, %v", tt.tokens, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFindBestMatchShortLinesNeedFullAlignment(t *testing.T) {
	l := newFixture(t)
	minScore := l.MinConsequentMatches()

	lines := [][]string{
		words("aaa"),
		words("aaa bbb"),
		words("bbb aaa"),
		words("iii lll"),
		words("lll iii"),
		words("jjj zzz"),
		words("aaa bbb ccc"),
		words("ccc bbb aaa"),
	}
	for _, tokens := range lines {
		if len(tokens) > minScore {
			t.Fatalf("fixture line %q is not short", tokens)
		}
		id, ok := l.FindBestMatch(tokens)
		if !ok {
			continue
		}
		if score := l.Score(tokens, id); score != len(tokens) {
			t.Errorf("FindBestMatch(%q) accepted template %d with score %d, want %d", tokens, id, score, len(tokens))
		}
	}
}

func TestFindBestMatchLongLinesNeedMinimumScore(t *testing.T) {
	l := newFixture(t)
	minScore := l.MinConsequentMatches()

	lines := [][]string{
		words("aaa bbb ccc ddd"),
		words("aaa xxx ccc ddd"),
		words("eee fff xxx yyy zzz"),
		words("ttt aaa uuu bbb ccc ddd vvv www"),
		words("qqq rrr zzz yyy"),
	}
	for _, tokens := range lines {
		id, ok := l.FindBestMatch(tokens)
		if !ok {
			continue
		}
		if score := l.Score(tokens, id); score < minScore {
			t.Errorf("FindBestMatch(%q) accepted template %d with score %d < %d", tokens, id, score, minScore)
		}
	}
}

func TestFindBestMatchTiesKeepLowestID(t *testing.T) {
	l := New()
	l.Learn("alpha beta gamma delta")
	// Shares its first three words with template 0.
	l.store.createTemplate(slotsFromString("alpha beta gamma epsilon"))

	got, ok := l.FindBestMatch(words("alpha beta gamma zeta"))
	if !ok || got != 0 {
		t.Errorf("FindBestMatch() = %d, %v, want 0, true", got, ok)
	}
}
