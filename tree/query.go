package tree

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/treebank/nestset/models"
	"github.com/treebank/nestset/store"
)

// Query answers ancestor/descendant/sibling/ordering questions with bound
// comparisons only; nothing here recurses or writes. The default order is
// ascending lft, which is pre-order traversal order.
type Query struct {
	st       *store.Store
	reversed bool
}

type QueryOption func(*Query)

// WithDeleted switches the query to the service scan, which includes
// soft-deleted rows.
func WithDeleted() QueryOption {
	return func(q *Query) { q.st = q.st.Service() }
}

// Reversed flips result ordering to descending lft.
func Reversed() QueryOption {
	return func(q *Query) { q.reversed = true }
}

func (t *Tree) Query(opts ...QueryOption) *Query {
	q := &Query{st: t.st}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Query) order() string {
	if q.reversed {
		return "lft DESC"
	}
	return "lft ASC"
}

// Roots returns all nodes without a parent.
func (q *Query) Roots(ctx context.Context) ([]models.Node, error) {
	var out []models.Node
	err := q.st.Model(ctx).Where("parent_id IS NULL").Order(q.order()).Find(&out).Error
	return out, err
}

// All returns the whole tree in traversal order.
func (q *Query) All(ctx context.Context) ([]models.Node, error) {
	var out []models.Node
	err := q.st.Model(ctx).Order(q.order()).Find(&out).Error
	return out, err
}

// Descendants returns every node whose bounds fall strictly inside n's.
func (q *Query) Descendants(ctx context.Context, n *models.Node) ([]models.Node, error) {
	var out []models.Node
	err := q.st.Model(ctx).
		Where("lft > ? AND lft < ?", n.Lft, n.Rgt).
		Order(q.order()).Find(&out).Error
	return out, err
}

// Children returns n's immediate children.
func (q *Query) Children(ctx context.Context, n *models.Node) ([]models.Node, error) {
	var out []models.Node
	err := q.st.Model(ctx).
		Where("parent_id = ?", n.ID).
		Order(q.order()).Find(&out).Error
	return out, err
}

// Ancestors returns the chain of nodes strictly containing n, root
// first under the default order.
func (q *Query) Ancestors(ctx context.Context, n *models.Node) ([]models.Node, error) {
	var out []models.Node
	err := q.st.Model(ctx).
		Where("lft < ? AND rgt > ?", n.Lft, n.Rgt).
		Order(q.order()).Find(&out).Error
	return out, err
}

// Leaves returns the childless nodes of n's subtree, or of the whole
// tree when n is nil.
func (q *Query) Leaves(ctx context.Context, n *models.Node) ([]models.Node, error) {
	w := q.st.Model(ctx).Where("rgt = lft + 1")
	if n != nil {
		w = w.Where("lft > ? AND lft < ?", n.Lft, n.Rgt)
	}
	var out []models.Node
	err := w.Order(q.order()).Find(&out).Error
	return out, err
}

func (q *Query) whereSibling(ctx context.Context, n *models.Node) *gorm.DB {
	w := q.st.Model(ctx).Where("id <> ?", n.ID)
	if n.ParentID == nil {
		return w.Where("parent_id IS NULL")
	}
	return w.Where("parent_id = ?", *n.ParentID)
}

// Siblings returns the other children of n's parent.
func (q *Query) Siblings(ctx context.Context, n *models.Node) ([]models.Node, error) {
	var out []models.Node
	err := q.whereSibling(ctx, n).Order(q.order()).Find(&out).Error
	return out, err
}

// NextSibling returns the nearest sibling following n, or nil.
func (q *Query) NextSibling(ctx context.Context, n *models.Node) (*models.Node, error) {
	var out models.Node
	err := q.whereSibling(ctx, n).
		Where("lft > ?", n.Rgt).
		Order("lft ASC").First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PrevSibling returns the nearest sibling preceding n, or nil.
func (q *Query) PrevSibling(ctx context.Context, n *models.Node) (*models.Node, error) {
	var out models.Node
	err := q.whereSibling(ctx, n).
		Where("rgt < ?", n.Lft).
		Order("lft DESC").First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ByName returns the first node with the given name in traversal order.
func (q *Query) ByName(ctx context.Context, name string) (*models.Node, error) {
	var out models.Node
	if err := q.st.Model(ctx).Where("name = ?", name).Order("lft ASC").First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
