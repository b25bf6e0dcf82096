package linediff

import (
	"reflect"
	"testing"
)

func TestChangesIdentical(t *testing.T) {
	a := []string{"a", "b", "c"}
	if got := Changes(a, a); len(got) != 0 {
		t.Fatalf("identical inputs produced %d changes", len(got))
	}
}

func TestChangesReplace(t *testing.T) {
	a := []string{"a", "b", "c"}
	b := []string{"a", "x", "c"}
	got := Changes(a, b)
	want := []Change{{Original: Range{1, 2}, Modified: Range{1, 2}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Changes = %+v, want %+v", got, want)
	}
}

func TestChangesInsert(t *testing.T) {
	a := []string{"a", "c"}
	b := []string{"a", "b", "c"}
	got := Changes(a, b)
	want := []Change{{Original: Range{1, 1}, Modified: Range{1, 2}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Changes = %+v, want %+v", got, want)
	}
	if !got[0].Original.Empty() {
		t.Error("insertion should have empty original range")
	}
}

func TestChangesDelete(t *testing.T) {
	a := []string{"a", "b", "c"}
	b := []string{"a", "c"}
	got := Changes(a, b)
	want := []Change{{Original: Range{1, 2}, Modified: Range{1, 1}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Changes = %+v, want %+v", got, want)
	}
}

func TestChangesMultipleRegions(t *testing.T) {
	a := []string{"a", "b", "c", "d", "e"}
	b := []string{"a", "X", "c", "d", "Y"}
	got := Changes(a, b)
	if len(got) != 2 {
		t.Fatalf("got %d changes, want 2: %+v", len(got), got)
	}
	if got[0].Original.Start != 1 || got[1].Original.Start != 4 {
		t.Fatalf("unexpected regions: %+v", got)
	}
}

func TestSplitLines(t *testing.T) {
	if got := SplitLines(""); len(got) != 1 || got[0] != "" {
		t.Fatalf("SplitLines(\"\") = %q", got)
	}
	if got := SplitLines("a\nb\n"); len(got) != 3 {
		t.Fatalf("trailing newline: got %d lines, want 3", len(got))
	}
}
