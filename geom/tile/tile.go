// Package tile provides utilities to help with laying out tiles in an
// area.
package tile

import (
	"iter"

	"deedles.dev/kawabg/geom"
)

// Grid yields copies of tile, moved by whole multiples of its own
// size, that together cover area. The copies form a lattice anchored
// at tile's own position, so tile does not need to be inside of area
// for the result to line up with it. Only copies that overlap area
// are yielded, in rows from top to bottom.
//
// If tile is empty, nothing is yielded.
func Grid(area, tile geom.Rect[int]) iter.Seq[geom.Rect[int]] {
	return func(yield func(geom.Rect[int]) bool) {
		if tile.Empty() || area.Empty() {
			return
		}

		size := tile.Size()
		start := geom.Mod(area.Min, tile).Sub(tile.Min)
		origin := area.Min.Sub(start)

		for y := origin.Y; y < area.Max.Y; y += size.Y {
			for x := origin.X; x < area.Max.X; x += size.X {
				r := geom.Rect[int]{Max: size}.Add(geom.Pt(x, y))
				if !yield(r) {
					return
				}
			}
		}
	}
}

// Count returns the number of tiles that Grid would yield.
func Count(area, tile geom.Rect[int]) int {
	var n int
	for range Grid(area, tile) {
		n++
	}
	return n
}
