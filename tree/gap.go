package tree

import (
	"context"

	"github.com/treebank/nestset/store"
)

// gapAllocator opens and closes contiguous gaps of bound values. Every
// node occupies exactly two bound slots, so every gap has even size; an
// odd shift would break the alternation of lft/rgt values table-wide.
type gapAllocator struct {
	st *store.Store
}

// MakeGap shifts every bound at or past cut by size, opening (size > 0)
// or closing (size < 0) the interval [cut, cut+size).
func (g gapAllocator) MakeGap(ctx context.Context, cut, size int) error {
	if size == 0 {
		return nil
	}
	if size%2 != 0 {
		return ErrOddGap
	}
	return g.st.ShiftBounds(ctx, cut, size)
}

// planMove computes the bound remapping that relocates the subtree
// occupying [lo, hi] so that its left bound lands at pos, with pos
// expressed in the current (pre-move) numbering. ok is false when
// nothing would change: pos inside the subtree itself, or immediately
// before or after it.
//
// The remapping has exactly two shifted ranges. Moving forward, the
// bounds between the vacated range and the target slide back by the
// subtree height while the subtree jumps past them; moving backward the
// mirror image. Bounds outside both ranges keep their values, and no
// bound can sit on a range edge ambiguously because bounds are unique.
func planMove(lo, hi, pos int) (plan store.MovePlan, ok bool) {
	if pos >= lo && pos <= hi+1 {
		return store.MovePlan{}, false
	}
	height := hi - lo + 1
	if pos > hi {
		return store.MovePlan{
			SubtreeLo: lo, SubtreeHi: hi, SubtreeDelta: pos - hi - 1,
			BetweenLo: hi + 1, BetweenHi: pos - 1, BetweenDelta: -height,
		}, true
	}
	return store.MovePlan{
		SubtreeLo: lo, SubtreeHi: hi, SubtreeDelta: pos - lo,
		BetweenLo: pos, BetweenHi: lo - 1, BetweenDelta: height,
	}, true
}
