package render

import (
	"strings"

	"boxmux/internal/boxstate"
)

// paintMuxBox renders one muxbox's border, title and content into buf at
// its resolved rect, honoring overflow behavior and scroll position
// (spec.md §4.2). rect must already be intersected with the screen and
// with the parent's rect by ResolveBounds.
func paintMuxBox(buf *Buffer, box *boxstate.MuxBox, rect boxstate.Rect, chain []boxstate.VisualAttributes) {
	family := boxstate.Family(box.Selected, box.ErrorState)
	fg := boxstate.ResolveColor(boxstate.SlotFG, family, "white", chain...)
	bg := boxstate.ResolveColor(boxstate.SlotBG, family, "", chain...)
	fill := boxstate.ResolveFillChar(box.Selected, " ", chain...)
	hasBorder := boxstate.ResolveBorder(true, chain...)
	titlePos := boxstate.ResolveTitlePosition(boxstate.TitleStart, chain...)
	overflow := boxstate.ResolveOverflow(boxstate.OverflowScroll, chain...)

	fillRune := ' '
	if r := []rune(fill); len(r) > 0 {
		fillRune = r[0]
	}
	buf.FillRect(rect, Cell{Char: fillRune, FG: fg, BG: bg})

	inner := rect
	if hasBorder && rect.Width() >= 2 && rect.Height() >= 2 {
		drawBorder(buf, rect, fg, bg)
		inner = boxstate.Rect{X1: rect.X1 + 1, Y1: rect.Y1 + 1, X2: rect.X2 - 1, Y2: rect.Y2 - 1}
	}
	if hasBorder && box.Title != "" && rect.Height() >= 1 {
		drawTitle(buf, rect, box.Title, titlePos, fg, bg)
	}

	if inner.Width() <= 0 || inner.Height() <= 0 {
		return
	}

	content := box.LiveOutput
	if content == "" {
		content = box.StaticContent
	}
	if len(box.Choices) > 0 {
		content = renderChoices(box)
	}

	lines := strings.Split(content, "\n")
	maxLineWidth := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > maxLineWidth {
			maxLineWidth = n
		}
	}
	overflowsV := len(lines) > inner.Height()
	overflowsH := maxLineWidth > inner.Width()

	if (overflowsV || overflowsH) && overflow != boxstate.OverflowScroll {
		fillOverflowInterior(buf, inner, overflow, fillRune, fg, bg)
		return
	}

	drawContent(buf, inner, lines, maxLineWidth, box.HScroll, box.VScroll, fg, bg)

	if hasBorder && overflow == boxstate.OverflowScroll && (overflowsV || overflowsH) {
		drawScrollbars(buf, rect, inner, box.HScroll, box.VScroll, overflowsH, overflowsV, fg, bg)
	}
}

func drawBorder(buf *Buffer, rect boxstate.Rect, fg, bg string) {
	for x := rect.X1; x <= rect.X2; x++ {
		buf.Set(x, rect.Y1, Cell{Char: '─', FG: fg, BG: bg})
		buf.Set(x, rect.Y2, Cell{Char: '─', FG: fg, BG: bg})
	}
	for y := rect.Y1; y <= rect.Y2; y++ {
		buf.Set(rect.X1, y, Cell{Char: '│', FG: fg, BG: bg})
		buf.Set(rect.X2, y, Cell{Char: '│', FG: fg, BG: bg})
	}
	buf.Set(rect.X1, rect.Y1, Cell{Char: '┌', FG: fg, BG: bg})
	buf.Set(rect.X2, rect.Y1, Cell{Char: '┐', FG: fg, BG: bg})
	buf.Set(rect.X1, rect.Y2, Cell{Char: '└', FG: fg, BG: bg})
	buf.Set(rect.X2, rect.Y2, Cell{Char: '┘', FG: fg, BG: bg})
}

func drawTitle(buf *Buffer, rect boxstate.Rect, title string, pos boxstate.TitlePosition, fg, bg string) {
	width := rect.Width() - 2
	if width <= 0 {
		return
	}
	t := title
	if len(t) > width {
		t = t[:width]
	}
	var col int
	switch pos {
	case boxstate.TitleEnd:
		col = rect.X2 - 1 - len(t)
	case boxstate.TitleCenter:
		col = rect.X1 + 1 + (width-len(t))/2
	default:
		col = rect.X1 + 1
	}
	buf.WriteText(col, rect.Y1, t, rect.X2-1, fg, bg)
}

// drawContent lays out lines inside inner starting at the scroll offsets
// (spec.md §4.2 item (3)): the vertical offset skips whole lines, and the
// horizontal offset is one uniform column skip computed from maxLineWidth
// (the widest line in the content block), applied to every row — not
// recomputed per line, or rows would scroll by different amounts.
func drawContent(buf *Buffer, inner boxstate.Rect, lines []string, maxLineWidth int, hscroll, vscroll float64, fg, bg string) {
	totalLines := len(lines)
	height := inner.Height()
	width := inner.Width()

	vOffset := scrollOffset(vscroll, totalLines, height)
	hOffset := scrollOffset(hscroll, maxLineWidth, width)

	for row := 0; row < height; row++ {
		srcLine := row + vOffset
		if srcLine < 0 || srcLine >= totalLines {
			continue
		}
		runes := []rune(lines[srcLine])
		if hOffset < len(runes) {
			runes = runes[hOffset:]
		} else {
			runes = nil
		}
		if len(runes) > width {
			runes = runes[:width]
		}
		buf.WriteText(inner.X1, inner.Y1+row, string(runes), inner.X2, fg, bg)
	}
}

// fillOverflowInterior replaces inner's entire contents per spec.md §4.2
// item (5), for the overflow behaviors that don't scroll: fill re-paints
// the whole interior with the fill character, cross_out strikes a
// diagonal of 'X' across it, removed clears it to the background.
func fillOverflowInterior(buf *Buffer, inner boxstate.Rect, overflow boxstate.OverflowBehavior, fillRune rune, fg, bg string) {
	switch overflow {
	case boxstate.OverflowFill:
		buf.FillRect(inner, Cell{Char: fillRune, FG: fg, BG: bg})
	case boxstate.OverflowCrossOut:
		buf.FillRect(inner, Cell{Char: ' ', FG: fg, BG: bg})
		n := inner.Width()
		if inner.Height() < n {
			n = inner.Height()
		}
		for i := 0; i < n; i++ {
			buf.Set(inner.X1+i, inner.Y1+i, Cell{Char: 'X', FG: fg, BG: bg})
		}
	case boxstate.OverflowRemoved:
		buf.FillRect(inner, Cell{Char: ' ', FG: fg, BG: bg})
	}
}

// scrollbarChar marks the thumb position on a scrollbar track.
const scrollbarChar = '█'

// drawScrollbars places a vertical scrollbar thumb on rect's right border
// and a horizontal one on its bottom border (spec.md §4.2 item (4)), at a
// fractional position along the track derived from the scroll percentage.
func drawScrollbars(buf *Buffer, rect, inner boxstate.Rect, hscroll, vscroll float64, overflowsH, overflowsV bool, fg, bg string) {
	if overflowsV && rect.Height() >= 3 {
		track := inner.Height() - 1
		row := inner.Y1
		if track > 0 {
			row += int(vscroll / 100.0 * float64(track))
		}
		buf.Set(rect.X2, row, Cell{Char: scrollbarChar, FG: fg, BG: bg})
	}
	if overflowsH && rect.Width() >= 3 {
		track := inner.Width() - 1
		col := inner.X1
		if track > 0 {
			col += int(hscroll / 100.0 * float64(track))
		}
		buf.Set(col, rect.Y2, Cell{Char: scrollbarChar, FG: fg, BG: bg})
	}
}

// scrollOffset converts a 0-100 scroll percentage into a line/column
// offset, clamped so the last page of content stays fully visible rather
// than scrolling past the end.
func scrollOffset(pct float64, total, visible int) int {
	if total <= visible {
		return 0
	}
	maxOffset := total - visible
	off := int(pct / 100.0 * float64(maxOffset))
	if off < 0 {
		return 0
	}
	if off > maxOffset {
		return maxOffset
	}
	return off
}

func renderChoices(box *boxstate.MuxBox) string {
	var sb strings.Builder
	for i, c := range box.Choices {
		if i > 0 {
			sb.WriteByte('\n')
		}
		marker := "  "
		if c.Selected {
			marker = "> "
		}
		sb.WriteString(marker + c.Content)
	}
	return sb.String()
}
