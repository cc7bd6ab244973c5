package boxstate

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// ContentHash returns a deterministic digest of the parts of AppState that
// matter for bus diffusion (spec.md §4.1: "if the received snapshot's
// content hash differs from the bus's current one, adopt it"). Field
// order is fixed so the hash is stable across calls for identical state,
// independent of map iteration order.
func ContentHash(app *AppState) uint64 {
	h := sha256.New()
	write := func(s string) {
		_, _ = h.Write([]byte{0}) // field separator so "ab","c" != "a","bc"
		_, _ = h.Write([]byte(s))
	}
	writeBool := func(b bool) {
		if b {
			write("1")
		} else {
			write("0")
		}
	}
	writeFloat := func(f float64) {
		write(fmt.Sprintf("%.4f", f))
	}

	for _, layout := range app.Layouts {
		write("L:" + layout.ID)
		writeBool(layout.Root)
		writeBool(layout.Active)

		var walk func(boxes []*MuxBox)
		walk = func(boxes []*MuxBox) {
			for _, box := range boxes {
				write("B:" + box.ID)
				write(box.StaticContent)
				write(box.LiveOutput)
				writeFloat(box.HScroll)
				writeFloat(box.VScroll)
				writeBool(box.ErrorState)
				writeBool(box.Selected)
				write(string(box.ExecutionMode))
				for _, choice := range box.Choices {
					write("C:" + choice.ID)
					writeBool(choice.Selected)
					writeBool(choice.Waiting)
				}
				walk(box.Children)
			}
		}
		walk(layout.Children)
	}

	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}
