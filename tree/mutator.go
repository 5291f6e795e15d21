package tree

import (
	"context"
	"fmt"

	"github.com/treebank/nestset/models"
)

// apply dispatches one structural intent. Every path ends by writing the
// node's own row, so the row already carries correct bounds when the
// transaction commits.
func (s *session) apply(ctx context.Context, n *models.Node, intent models.Intent) (bool, error) {
	switch intent.Kind {
	case models.IntentRoot:
		return s.makeRoot(ctx, n)
	case models.IntentAppend:
		return s.attachToParent(ctx, n, intent.Ref, false)
	case models.IntentPrepend:
		return s.attachToParent(ctx, n, intent.Ref, true)
	case models.IntentBefore:
		return s.attachToSibling(ctx, n, intent.Ref, false)
	case models.IntentAfter:
		return s.attachToSibling(ctx, n, intent.Ref, true)
	default:
		return false, fmt.Errorf("nestset: unknown intent %q", intent.Kind)
	}
}

// makeRoot appends the node past every existing bound. A brand-new node
// needs no shift at all; an existing non-root is repositioned as the
// last root through the generic move path.
func (s *session) makeRoot(ctx context.Context, n *models.Node) (bool, error) {
	if !n.Persisted() {
		max, err := s.st.MaxRight(ctx)
		if err != nil {
			return false, err
		}
		n.Lft, n.Rgt, n.ParentID = max+1, max+2, nil
		return true, s.st.CreateRow(ctx, n)
	}
	if err := s.st.Refresh(ctx, n); err != nil {
		return false, err
	}
	if n.IsRoot() {
		return false, s.st.UpdateRow(ctx, n)
	}
	max, err := s.st.MaxRight(ctx)
	if err != nil {
		return false, err
	}
	return s.moveTo(ctx, n, max+1, nil)
}

// attachToParent makes n the first (prepend) or last (append) child of
// parent.
func (s *session) attachToParent(ctx context.Context, n *models.Node, parent *models.Node, first bool) (bool, error) {
	if parent == nil || !parent.Persisted() {
		return false, ErrNotPersisted
	}
	// a sibling mutation elsewhere may have shifted the parent's bounds
	if err := s.st.Refresh(ctx, parent); err != nil {
		return false, fmt.Errorf("refreshing parent: %w", err)
	}
	pos := parent.Rgt
	if first {
		pos = parent.Lft + 1
	}
	pid := parent.ID
	moved, err := s.insertAt(ctx, n, pos, &pid)
	if err != nil {
		return false, err
	}
	// the parent's rgt bound grew to enclose the new child
	if err := s.st.Refresh(ctx, parent); err != nil {
		return false, fmt.Errorf("refreshing parent: %w", err)
	}
	return moved, nil
}

// attachToSibling makes n the previous (before) or next (after) sibling
// of ref, adopting ref's parent.
func (s *session) attachToSibling(ctx context.Context, n *models.Node, ref *models.Node, after bool) (bool, error) {
	if ref == nil || !ref.Persisted() {
		return false, ErrNotPersisted
	}
	if err := s.st.Refresh(ctx, ref); err != nil {
		return false, fmt.Errorf("refreshing sibling: %w", err)
	}
	pos := ref.Lft
	if after {
		pos = ref.Rgt + 1
	}
	moved, err := s.insertAt(ctx, n, pos, ref.ParentID)
	if err != nil {
		return false, err
	}
	if err := s.st.Refresh(ctx, ref); err != nil {
		return false, fmt.Errorf("refreshing sibling: %w", err)
	}
	return moved, nil
}

// insertAt is the generic insert-at-position path shared by every
// attach. pos is a bound value in the current numbering.
func (s *session) insertAt(ctx context.Context, n *models.Node, pos int, parentID *uint) (bool, error) {
	if !n.Persisted() {
		if err := s.gaps.MakeGap(ctx, pos, 2); err != nil {
			return false, err
		}
		n.Lft, n.Rgt, n.ParentID = pos, pos+1, parentID
		return true, s.st.CreateRow(ctx, n)
	}
	if err := s.st.Refresh(ctx, n); err != nil {
		return false, err
	}
	return s.moveTo(ctx, n, pos, parentID)
}

// moveTo relocates n's whole subtree so its left bound lands at pos and
// reparents it. Rejected as a no-op when pos falls inside the subtree
// (a node cannot move under itself) or when old and new position
// coincide; the node's row is still written either way.
func (s *session) moveTo(ctx context.Context, n *models.Node, pos int, parentID *uint) (bool, error) {
	plan, ok := planMove(n.Lft, n.Rgt, pos)
	if !ok {
		return false, s.st.UpdateRow(ctx, n)
	}
	s.log.Debug("relocating subtree", "node", n.ID, "lft", n.Lft, "rgt", n.Rgt, "pos", pos)
	if err := s.st.ApplyMove(ctx, plan); err != nil {
		return false, fmt.Errorf("moving subtree: %w", err)
	}
	// the bulk statement rewrote this node's bounds along with the rest
	if err := s.st.Refresh(ctx, n); err != nil {
		return false, err
	}
	n.ParentID = parentID
	return true, s.st.UpdateRow(ctx, n)
}

// deleteSubtree removes every row whose bounds fall inside the node's
// interval, then closes the vacated range (hard path) or trashes the
// rows in place (soft path). The deleting guard keeps a re-entrant call
// during the sweep from closing the same gap twice: descendant rows go
// away as part of the parent's sweep, not as tree deletes of their own.
func (s *session) deleteSubtree(ctx context.Context, n *models.Node, hard bool) (int64, error) {
	if s.deleting {
		return 0, nil
	}
	s.deleting = true
	defer func() { s.deleting = false }()

	if err := s.st.Refresh(ctx, n); err != nil {
		return 0, err
	}
	lft, rgt := n.Lft, n.Rgt
	height := rgt - lft + 1

	if !hard {
		// bounds stay put; service scans still see the rows
		return s.st.SoftDeleteRange(ctx, lft, rgt)
	}
	removed, err := s.st.DeleteRange(ctx, lft, rgt)
	if err != nil {
		return 0, err
	}
	return removed, s.gaps.MakeGap(ctx, rgt+1, -height)
}
