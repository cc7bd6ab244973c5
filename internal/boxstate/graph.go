package boxstate

import (
	"sort"
	"strconv"
)

// Graph is a pure computed index over an AppState: parent-of, children-of,
// by-id lookup, and the tab-order traversal of a layout's selectable
// muxboxes. It holds no goroutine and is rebuilt on every configuration
// mutation (spec.md §4.10).
type Graph struct {
	muxboxByID      map[string]*MuxBox
	layoutOfMuxbox  map[string]string // muxbox id -> layout id
	parentOfMuxbox  map[string]string // muxbox id -> parent muxbox id ("" if top-level in its layout)
	childrenOf      map[string][]string
	tabOrder        map[string][]string // layout id -> muxbox ids in cyclic tab order
}

// Build recomputes the graph from scratch. Called after any mutation that
// adds, replaces, or removes a layout or muxbox.
func Build(app *AppState) *Graph {
	g := &Graph{
		muxboxByID:     map[string]*MuxBox{},
		layoutOfMuxbox: map[string]string{},
		parentOfMuxbox: map[string]string{},
		childrenOf:     map[string][]string{},
		tabOrder:       map[string][]string{},
	}
	for _, layout := range app.Layouts {
		var order []tabEntry
		var walk func(parentID string, boxes []*MuxBox)
		walk = func(parentID string, boxes []*MuxBox) {
			for _, box := range boxes {
				g.muxboxByID[box.ID] = box
				g.layoutOfMuxbox[box.ID] = layout.ID
				g.parentOfMuxbox[box.ID] = parentID
				g.childrenOf[parentID] = append(g.childrenOf[parentID], box.ID)
				if box.Selectable() {
					if n, err := strconv.Atoi(box.TabOrder); err == nil {
						order = append(order, tabEntry{id: box.ID, num: n})
					}
				}
				walk(box.ID, box.Children)
			}
		}
		walk("", layout.Children)
		sort.SliceStable(order, func(i, j int) bool { return order[i].num < order[j].num })
		ids := make([]string, len(order))
		for i, e := range order {
			ids[i] = e.id
		}
		g.tabOrder[layout.ID] = ids
	}
	return g
}

type tabEntry struct {
	id  string
	num int
}

// MuxBox looks up a muxbox by id.
func (g *Graph) MuxBox(id string) (*MuxBox, bool) {
	m, ok := g.muxboxByID[id]
	return m, ok
}

// LayoutIDOf returns the layout id a muxbox belongs to.
func (g *Graph) LayoutIDOf(muxboxID string) (string, bool) {
	id, ok := g.layoutOfMuxbox[muxboxID]
	return id, ok
}

// ParentID returns the parent muxbox id, or "" if the muxbox is a
// top-level child of its layout.
func (g *Graph) ParentID(muxboxID string) string {
	return g.parentOfMuxbox[muxboxID]
}

// ChildrenIDs returns the declared child ids of a muxbox id, or of a
// layout's top-level children when parentID is "".
func (g *Graph) ChildrenIDs(parentID string) []string {
	return g.childrenOf[parentID]
}

// Ancestors returns the chain of muxbox ids from the immediate parent up
// to (and excluding) the layout root, nearest first.
func (g *Graph) Ancestors(muxboxID string) []string {
	var out []string
	cur := g.ParentID(muxboxID)
	for cur != "" {
		out = append(out, cur)
		cur = g.ParentID(cur)
	}
	return out
}

// Descendants returns every muxbox id in the subtree rooted at muxboxID,
// depth-first, excluding muxboxID itself.
func (g *Graph) Descendants(muxboxID string) []string {
	var out []string
	var walk func(id string)
	walk = func(id string) {
		for _, child := range g.childrenOf[id] {
			out = append(out, child)
			walk(child)
		}
	}
	walk(muxboxID)
	return out
}

// TabOrder returns the cyclic tab-order sequence of selectable muxboxes
// for a layout, numeric order, ties broken by discovery (declaration)
// order.
func (g *Graph) TabOrder(layoutID string) []string {
	return g.tabOrder[layoutID]
}

// Next returns the muxbox id following id in its layout's tab order,
// cyclically. Returns "" if id is not in any tab order.
func (g *Graph) Next(layoutID, id string) string {
	order := g.tabOrder[layoutID]
	return cyclicStep(order, id, 1)
}

// Previous returns the muxbox id preceding id in its layout's tab order,
// cyclically.
func (g *Graph) Previous(layoutID, id string) string {
	order := g.tabOrder[layoutID]
	return cyclicStep(order, id, -1)
}

func cyclicStep(order []string, id string, delta int) string {
	if len(order) == 0 {
		return ""
	}
	idx := -1
	for i, v := range order {
		if v == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return order[0]
	}
	next := (idx + delta + len(order)) % len(order)
	return order[next]
}
