package learner

import (
	"reflect"
	"testing"
)

func TestWordIndexRegister(t *testing.T) {
	w := newWordIndex()

	w.register("connect", 3)
	w.register("connect", 1)
	w.register("connect", 2)
	if got, want := w.lookup("connect"), []int{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("lookup() = %v, want %v", got, want)
	}

	// Registering the same pair again leaves the entry untouched.
	w.register("connect", 2)
	w.register("connect", 2)
	if got, want := w.lookup("connect"), []int{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("lookup() after re-register = %v, want %v", got, want)
	}

	if got := w.lookup("missing"); len(got) != 0 {
		t.Errorf("lookup(missing) = %v, want empty", got)
	}
	if w.len() != 1 {
		t.Errorf("len() = %d, want 1", w.len())
	}
}

func TestWordIndexSnapshot(t *testing.T) {
	w := newWordIndex()
	w.register("zeta", 0)
	w.register("alpha", 1)
	w.register("alpha", 0)

	got := w.snapshot()
	want := []IndexEntry{
		{Token: "alpha", TemplateIDs: []int{0, 1}},
		{Token: "zeta", TemplateIDs: []int{0}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot() = %v, want %v", got, want)
	}

	// The snapshot must not alias the index.
	got[0].TemplateIDs[0] = 99
	if w.lookup("alpha")[0] != 0 {
		t.Error("snapshot() shares memory with the index")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	l := New()
	l.Learn("disk quota exceeded for volume")

	ids := l.Lookup("disk")
	if !reflect.DeepEqual(ids, []int{0}) {
		t.Fatalf("Lookup(disk) = %v, want [0]", ids)
	}
	ids[0] = 42
	if got := l.Lookup("disk"); got[0] != 0 {
		t.Errorf("Lookup() result aliases the index: %v", got)
	}
	if got := l.Lookup("nothing"); len(got) != 0 {
		t.Errorf("Lookup(nothing) = %v, want empty", got)
	}
}
