package tree

import (
	"context"

	"gorm.io/gorm"

	"github.com/treebank/nestset/models"
)

// FixTree rebuilds every lft/rgt value from the parent adjacency,
// keeping sibling order by current lft. It is the explicit repair
// companion to Query.CountErrors and is never invoked by a mutation.
// Nodes whose parent reference dangles are adopted as roots.
func (t *Tree) FixTree(ctx context.Context) error {
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := t.st.WithTx(tx).Service()

		var all []models.Node
		if err := st.Model(ctx).Order("lft ASC, id ASC").Find(&all).Error; err != nil {
			return err
		}
		if len(all) == 0 {
			return nil
		}

		exists := make(map[uint]bool, len(all))
		for i := range all {
			exists[all[i].ID] = true
		}

		// group children under their parent; dangling parents make roots
		children := make(map[uint][]*models.Node)
		var roots []*models.Node
		for i := range all {
			n := &all[i]
			if n.ParentID == nil || !exists[*n.ParentID] {
				roots = append(roots, n)
				continue
			}
			children[*n.ParentID] = append(children[*n.ParentID], n)
		}

		next := 1
		var walk func(n *models.Node, parentID *uint) error
		walk = func(n *models.Node, parentID *uint) error {
			lft := next
			next++
			pid := parentID
			for _, c := range children[n.ID] {
				if err := walk(c, &n.ID); err != nil {
					return err
				}
			}
			rgt := next
			next++

			same := lft == n.Lft && rgt == n.Rgt &&
				((pid == nil && n.ParentID == nil) ||
					(pid != nil && n.ParentID != nil && *pid == *n.ParentID))
			if same {
				return nil
			}
			return st.AssignBounds(ctx, n.ID, lft, rgt, pid)
		}
		for _, r := range roots {
			if err := walk(r, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	treesFixed.Inc()
	t.log.Info("rebuilt tree bounds")
	return nil
}
