package ids

import "testing"

func TestNewIsSortableAndValid(t *testing.T) {
	prev := New()
	if !Valid(prev) {
		t.Fatalf("expected %q to be valid", prev)
	}
	for i := 0; i < 100; i++ {
		next := New()
		if next <= prev {
			t.Fatalf("identifiers not increasing: %s then %s", prev, next)
		}
		prev = next
	}
}

func TestValidRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "abc", "../../etc/passwd", "01ARZ3NDEKTSV4RRFFQ69G5FA!"} {
		if Valid(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}
