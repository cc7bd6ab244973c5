package boxstate

import "fmt"

// ValidationError collects every configuration problem found, rather than
// failing on the first one (spec.md §7 kind 1: configuration validation
// errors).
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0]
	}
	return fmt.Sprintf("%d configuration problems, first: %s", len(e.Problems), e.Problems[0])
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Validate checks the invariants of spec.md §3 against app, returning a
// *ValidationError (always of that concrete type, so callers can inspect
// Problems) when any are violated, or nil.
func Validate(app *AppState) error {
	verr := &ValidationError{}

	seenMuxbox := map[string]bool{}
	seenLayout := map[string]bool{}
	rootCount := 0

	for _, layout := range app.Layouts {
		if layout.ID == "" {
			verr.add("layout has empty id")
		} else if seenLayout[layout.ID] {
			verr.add("duplicate layout id %q", layout.ID)
		}
		seenLayout[layout.ID] = true
		if layout.Root {
			rootCount++
		}

		var walk func(boxes []*MuxBox)
		walk = func(boxes []*MuxBox) {
			for _, box := range boxes {
				if box.ID == "" {
					verr.add("muxbox in layout %q has empty id", layout.ID)
				} else if seenMuxbox[box.ID] {
					verr.add("duplicate muxbox id %q", box.ID)
				}
				seenMuxbox[box.ID] = true

				for _, choice := range box.Choices {
					if choice.ID == "" {
						verr.add("choice in muxbox %q has empty id", box.ID)
					} else if seenMuxbox[choice.ID] {
						verr.add("duplicate identifier %q (choice reuses a muxbox/choice id)", choice.ID)
					}
					seenMuxbox[choice.ID] = true
				}

				if box.HScroll < 0 || box.HScroll > 100 {
					verr.add("muxbox %q horizontal_scroll %v out of [0,100]", box.ID, box.HScroll)
				}
				if box.VScroll < 0 || box.VScroll > 100 {
					verr.add("muxbox %q vertical_scroll %v out of [0,100]", box.ID, box.VScroll)
				}
				if box.NextFocusID != "" {
					// Cross-reference checked in a second pass once every id is known.
				}
				walk(box.Children)
			}
		}
		walk(layout.Children)
	}

	if rootCount > 1 {
		verr.add("%d layouts flagged root, at most one is allowed", rootCount)
	}

	for _, layout := range app.Layouts {
		if n := CountSelected(layout); n > 1 {
			verr.add("layout %q has %d muxboxes flagged selected, want at most 1", layout.ID, n)
		}
	}

	// Second pass: cross-references now that every id has been collected.
	for _, layout := range app.Layouts {
		var walk func(boxes []*MuxBox)
		walk = func(boxes []*MuxBox) {
			for _, box := range boxes {
				if box.NextFocusID != "" && !seenMuxbox[box.NextFocusID] {
					verr.add("muxbox %q next_focus_id %q does not refer to any known muxbox", box.ID, box.NextFocusID)
				}
				if box.RedirectTo != "" && !seenMuxbox[box.RedirectTo] {
					verr.add("muxbox %q redirect target %q does not refer to any known muxbox", box.ID, box.RedirectTo)
				}
				walk(box.Children)
			}
		}
		walk(layout.Children)
	}

	for key, id := range app.HotKeys {
		if key == "" {
			verr.add("app hot_keys has an empty key bound to choice %q", id)
		}
	}

	if len(verr.Problems) == 0 {
		return nil
	}
	return verr
}

// ClampScroll clamps a scroll percentage to [0, 100] (spec.md invariant 5).
func ClampScroll(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// CountSelected reports how many muxboxes in a layout's subtree are
// currently flagged selected, to check invariant "at most one selected".
func CountSelected(layout *Layout) int {
	count := 0
	var walk func(boxes []*MuxBox)
	walk = func(boxes []*MuxBox) {
		for _, box := range boxes {
			if box.Selected {
				count++
			}
			walk(box.Children)
		}
	}
	walk(layout.Children)
	return count
}

// SelectOnly sets Selected=true on the muxbox with id and false on every
// other muxbox in the layout, maintaining invariant 4.
func SelectOnly(layout *Layout, id string) {
	var walk func(boxes []*MuxBox)
	walk = func(boxes []*MuxBox) {
		for _, box := range boxes {
			box.Selected = box.ID == id
			walk(box.Children)
		}
	}
	walk(layout.Children)
}
