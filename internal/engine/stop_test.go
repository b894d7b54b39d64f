package engine

import "testing"

func TestFindStopEarliestMatch(t *testing.T) {
	stop, ok := findStop("one STOP two HALT", []string{"HALT", "STOP"})
	if !ok || stop != "STOP" {
		t.Fatalf("expected earliest match STOP, got %q ok=%v", stop, ok)
	}
	if _, ok := findStop("no match here", []string{"STOP"}); ok {
		t.Fatal("unexpected match")
	}
	if _, ok := findStop("anything", nil); ok {
		t.Fatal("nil stops must never match")
	}
	if _, ok := findStop("anything", []string{""}); ok {
		t.Fatal("empty stop strings are ignored")
	}
}

func TestTruncateStop(t *testing.T) {
	if got := truncateStop("hello STOP world", "STOP"); got != "hello " {
		t.Fatalf("got %q", got)
	}
	if got := truncateStop("untouched", "STOP"); got != "untouched" {
		t.Fatalf("got %q", got)
	}
}

func TestContainsStopSuffix(t *testing.T) {
	stops := []string{"###"}
	cases := []struct {
		text string
		want bool
	}{
		{"hello #", true},
		{"hello ##", true},
		{"hello ###", true}, // a full match also ends in a prefix; findStop runs first
		{"hello", false},
		{"", false},
	}
	for _, c := range cases {
		if got := containsStopSuffix(c.text, stops); got != c.want {
			t.Errorf("containsStopSuffix(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}
