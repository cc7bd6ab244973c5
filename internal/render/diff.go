package render

import (
	"fmt"
	"io"
	"strings"
)

// Diff compares prev against next cell-by-cell and emits the minimal set
// of cursor-move-and-write directives that bring the terminal from prev's
// state to next's, one line at a time (spec.md §4.2 "diff-based terminal
// emission"). Runs of unchanged cells are skipped with a cursor
// reposition rather than rewritten.
func Diff(w io.Writer, prev, next *Buffer) error {
	if prev.Cols() != next.Cols() || prev.Rows() != next.Rows() {
		return fullRepaint(w, next)
	}
	for row := 0; row < next.Rows(); row++ {
		col := 0
		for col < next.Cols() {
			if prev.Get(col, row) == next.Get(col, row) {
				col++
				continue
			}
			// Found the start of a changed run; extend it while cells
			// keep differing to batch one write per run instead of one
			// per cell.
			start := col
			var sb strings.Builder
			var lastFG, lastBG string
			haveStyle := false
			for col < next.Cols() && prev.Get(col, row) != next.Get(col, row) {
				c := next.Get(col, row)
				if !haveStyle || c.FG != lastFG || c.BG != lastBG {
					sb.WriteString(sgr(c.FG, c.BG, c.Bold))
					lastFG, lastBG = c.FG, c.BG
					haveStyle = true
				}
				sb.WriteRune(c.Char)
				col++
			}
			if _, err := fmt.Fprintf(w, "%s%s%s", moveCursor(start, row), sb.String(), reset()); err != nil {
				return err
			}
		}
	}
	return nil
}

func fullRepaint(w io.Writer, buf *Buffer) error {
	blank := NewBuffer(buf.Cols(), buf.Rows())
	return Diff(w, blank, buf)
}

func moveCursor(col, row int) string {
	return fmt.Sprintf("\x1b[%d;%dH", row+1, col+1)
}

func reset() string { return "\x1b[0m" }

func sgr(fg, bg string, bold bool) string {
	var parts []string
	if bold {
		parts = append(parts, "1")
	}
	if fg != "" {
		parts = append(parts, ansiForeground(fg))
	}
	if bg != "" {
		parts = append(parts, ansiBackground(bg))
	}
	if len(parts) == 0 {
		return ""
	}
	return "\x1b[" + strings.Join(parts, ";") + "m"
}
