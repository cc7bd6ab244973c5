package render

import (
	"strings"
	"testing"
)

func TestDiffSkipsUnchangedCells(t *testing.T) {
	prev := NewBuffer(5, 1)
	next := NewBuffer(5, 1)
	next.Set(2, 0, Cell{Char: 'x'})

	var out strings.Builder
	if err := Diff(&out, prev, next); err != nil {
		t.Fatalf("Diff: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "\x1b[1;3H") {
		t.Fatalf("expected a cursor move to col 2 row 0, got %q", got)
	}
	if !strings.Contains(got, "x") {
		t.Fatalf("expected changed rune 'x' in output, got %q", got)
	}
	if strings.Count(got, "\x1b[1;") != 1 {
		t.Fatalf("expected exactly one cursor move for a single-cell change, got %q", got)
	}
}

func TestDiffNoChangesEmitsNothing(t *testing.T) {
	prev := NewBuffer(3, 2)
	next := prev.Clone()

	var out strings.Builder
	if err := Diff(&out, prev, next); err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output for identical buffers, got %q", out.String())
	}
}

func TestDiffDimensionMismatchFullRepaints(t *testing.T) {
	prev := NewBuffer(2, 2)
	next := NewBuffer(3, 3)
	next.Set(0, 0, Cell{Char: 'z'})

	var out strings.Builder
	if err := Diff(&out, prev, next); err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !strings.Contains(out.String(), "z") {
		t.Fatalf("expected full repaint to include changed rune 'z', got %q", out.String())
	}
}
