package directory

import (
	"slices"
	"testing"
)

func TestPendingSet(t *testing.T) {
	pending := NewPendingSet()
	pending.Add("a")
	pending.Add("a/b")
	pending.Add("a/b/c")
	pending.Add("a/d")
	pending.Add("ab")

	if !pending.ContainsTree("a") || !pending.ContainsTree("a/b") {
		t.Errorf("Expected pending trees to be found")
	}

	if got := pending.Children("a"); !slices.Equal(got, []string{"a/b", "a/d"}) {
		t.Errorf("Unexpected children: %v", got)
	}
	if got := pending.Children(""); !slices.Equal(got, []string{"a", "ab"}) {
		t.Errorf("Unexpected root children: %v", got)
	}

	pending.RemoveTree("a/b")
	if pending.Contains("a/b") || pending.Contains("a/b/c") {
		t.Errorf("Expected 'a/b' and descendants to be evicted")
	}
	if !pending.Contains("a") || !pending.Contains("a/d") || !pending.Contains("ab") {
		t.Errorf("Expected unrelated entries to stay")
	}

	pending.RemoveTree("a")
	if pending.Len() != 1 {
		t.Errorf("Expected only 'ab' to remain, got %d entries", pending.Len())
	}
}

func TestPendingSet_ContainsTreeWithoutParent(t *testing.T) {
	pending := NewPendingSet()
	pending.Add("x/y/z")

	if !pending.ContainsTree("x/y") {
		t.Errorf("Expected ancestor of pending entry to be found")
	}
	if pending.ContainsTree("x/yz") {
		t.Errorf("Expected sibling prefix not to match")
	}
}
