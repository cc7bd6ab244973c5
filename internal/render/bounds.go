package render

import "boxmux/internal/boxstate"

// boundsCache memoizes ResolveBounds per (layoutID, screen size) so a
// targeted RedrawMuxBox doesn't re-walk the whole tree; it is invalidated
// whenever the screen is resized or the active layout changes.
type boundsCache struct {
	layoutID string
	cols     int
	rows     int
	table    boxstate.BoundsTable
}

func (c *boundsCache) get(layout *boxstate.Layout, cols, rows int) (boxstate.BoundsTable, error) {
	if c.table != nil && c.layoutID == layout.ID && c.cols == cols && c.rows == rows {
		return c.table, nil
	}
	screen := boxstate.Rect{X1: 0, Y1: 0, X2: cols - 1, Y2: rows - 1}
	table, err := boxstate.ResolveBounds(layout, screen)
	if err != nil {
		return nil, err
	}
	c.layoutID, c.cols, c.rows, c.table = layout.ID, cols, rows, table
	return table, nil
}

func (c *boundsCache) invalidate() { c.table = nil }
