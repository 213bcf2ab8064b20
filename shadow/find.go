package shadow

import "golang.org/x/exp/slices"

// Find walks the shadow stack from top through Parent links and returns the
// innermost visible handler of kind, or nil. See spec §4.1: UNDER frames
// hide the under-target handler (and themselves), MASK frames raise a
// mask_level counter that must be paid down before a same-kind handler
// becomes visible again.
//
// Searching for one of the reserved structural kinds (FINALLY, UNDER, MASK)
// is a programming error: those frames are addressed structurally by the
// walker, never by find.
func Find(top *Handler, kind Kind) *Handler {
	if kind == FINALLY || kind == UNDER || kind == MASK {
		panic("shadow: find of a reserved structural kind")
	}

	frame := top
	maskLevel := 0
	for frame != nil {
		switch {
		case frame.Kind == kind:
			if maskLevel == 0 {
				return frame
			}
			maskLevel--
			frame = frame.Parent

		case frame.Kind == UNDER:
			target := frame.Under
			frame = frame.Parent
			for frame != nil && frame.Kind != target {
				frame = frame.Parent
			}
			if frame == nil {
				return nil
			}
			frame = frame.Parent // hide the target handler itself too

		case frame.Kind == MASK && frame.Mask == kind && frame.From <= maskLevel:
			maskLevel++
			frame = frame.Parent

		default:
			frame = frame.Parent
		}
	}
	return nil
}

// ActiveKinds returns the sorted, de-duplicated diagnostic names of every
// handler and structural frame currently visible from top, ignoring
// under/mask scoping (it reports presence on the chain, not find's
// resolved visibility). Debug-only.
func ActiveKinds(top *Handler) []string {
	var names []string
	for frame := top; frame != nil; frame = frame.Parent {
		names = append(names, frame.Kind.String())
	}
	slices.Sort(names)
	return slices.Compact(names)
}
