package render

import (
	"testing"

	"boxmux/internal/boxstate"
)

func TestDrawContentUsesOneUniformHorizontalOffset(t *testing.T) {
	buf := NewBuffer(10, 3)
	inner := boxstate.Rect{X1: 0, Y1: 0, X2: 4, Y2: 2}
	lines := []string{"0123456789", "ab"}

	drawContent(buf, inner, lines, 10, 100, 0, "", "")

	if got := buf.Get(0, 0).Char; got != '5' {
		t.Fatalf("row 0 col 0 = %q, want '5' (offset 5 into the wide line)", got)
	}
	if got := buf.Get(0, 1).Char; got != ' ' {
		t.Fatalf("row 1 col 0 = %q, want ' ' (short line scrolled past by the same offset as row 0)", got)
	}
}

func TestFillOverflowInteriorFillRepaintsWholeInterior(t *testing.T) {
	buf := NewBuffer(5, 5)
	inner := boxstate.Rect{X1: 1, Y1: 1, X2: 3, Y2: 3}

	fillOverflowInterior(buf, inner, boxstate.OverflowFill, '#', "", "")

	for y := inner.Y1; y <= inner.Y2; y++ {
		for x := inner.X1; x <= inner.X2; x++ {
			if got := buf.Get(x, y).Char; got != '#' {
				t.Fatalf("cell (%d,%d) = %q, want '#'", x, y, got)
			}
		}
	}
}

func TestFillOverflowInteriorCrossOutDrawsDiagonal(t *testing.T) {
	buf := NewBuffer(5, 5)
	inner := boxstate.Rect{X1: 1, Y1: 1, X2: 3, Y2: 3}

	fillOverflowInterior(buf, inner, boxstate.OverflowCrossOut, ' ', "", "")

	for i := 0; i < 3; i++ {
		if got := buf.Get(inner.X1+i, inner.Y1+i).Char; got != 'X' {
			t.Fatalf("diagonal cell %d = %q, want 'X'", i, got)
		}
	}
	if got := buf.Get(inner.X1, inner.Y1+1).Char; got != ' ' {
		t.Fatalf("off-diagonal cell = %q, want ' '", got)
	}
}

func TestFillOverflowInteriorRemovedClearsInterior(t *testing.T) {
	buf := NewBuffer(5, 5)
	inner := boxstate.Rect{X1: 1, Y1: 1, X2: 3, Y2: 3}
	buf.Set(2, 2, Cell{Char: 'z'})

	fillOverflowInterior(buf, inner, boxstate.OverflowRemoved, '#', "", "")

	if got := buf.Get(2, 2).Char; got != ' ' {
		t.Fatalf("cleared cell = %q, want ' '", got)
	}
}

func TestDrawScrollbarsPlacesThumbsOnTrackFraction(t *testing.T) {
	buf := NewBuffer(10, 10)
	rect := boxstate.Rect{X1: 0, Y1: 0, X2: 9, Y2: 9}
	inner := boxstate.Rect{X1: 1, Y1: 1, X2: 8, Y2: 8}

	drawScrollbars(buf, rect, inner, 100, 100, true, true, "", "")

	if got := buf.Get(rect.X2, inner.Y2).Char; got != scrollbarChar {
		t.Fatalf("vertical thumb at bottom of track = %q, want scrollbar char (vscroll=100%%)", got)
	}
	if got := buf.Get(inner.X2, rect.Y2).Char; got != scrollbarChar {
		t.Fatalf("horizontal thumb at end of track = %q, want scrollbar char (hscroll=100%%)", got)
	}
}

func TestDrawScrollbarsSkippedWhenNotOverflowing(t *testing.T) {
	buf := NewBuffer(10, 10)
	rect := boxstate.Rect{X1: 0, Y1: 0, X2: 9, Y2: 9}
	inner := boxstate.Rect{X1: 1, Y1: 1, X2: 8, Y2: 8}

	drawScrollbars(buf, rect, inner, 50, 50, false, false, "", "")

	for y := rect.Y1; y <= rect.Y2; y++ {
		if got := buf.Get(rect.X2, y).Char; got == scrollbarChar {
			t.Fatalf("vertical scrollbar drawn at row %d despite no overflow", y)
		}
	}
}
