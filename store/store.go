// Package store executes the numeric range statements that maintain the
// lft/rgt columns of the tree table. It is a plain gorm adapter: all tree
// reasoning lives in the tree package, everything here is a single SQL
// statement over range predicates.
package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/treebank/nestset/models"
)

type Store struct {
	db             *gorm.DB
	includeDeleted bool
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a Store bound to the given transaction handle.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx, includeDeleted: s.includeDeleted}
}

// Service returns a Store whose scans include soft-deleted rows. Bound
// maintenance always works on the service scan so that the numbering
// stays consistent while trashed rows linger.
func (s *Store) Service() *Store {
	return &Store{db: s.db, includeDeleted: true}
}

// IncludesDeleted reports whether scans through this Store see
// soft-deleted rows.
func (s *Store) IncludesDeleted() bool {
	return s.includeDeleted
}

// Model returns a scoped query over the tree table.
func (s *Store) Model(ctx context.Context) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Node{})
	if s.includeDeleted {
		q = q.Unscoped()
	}
	return q
}

// ShiftBounds adds delta to every lft and every rgt value at or past cut.
// Used to open (delta > 0) or close (delta < 0) a gap of bound values.
// Both columns are shifted with bulk range updates, never per row.
func (s *Store) ShiftBounds(ctx context.Context, cut, delta int) error {
	if err := s.Model(ctx).Where("lft >= ?", cut).
		Update("lft", gorm.Expr("lft + ?", delta)).Error; err != nil {
		return err
	}
	return s.Model(ctx).Where("rgt >= ?", cut).
		Update("rgt", gorm.Expr("rgt + ?", delta)).Error
}

// MovePlan is the bound remapping for one subtree move: bounds inside
// [SubtreeLo, SubtreeHi] shift by SubtreeDelta, bounds inside
// [BetweenLo, BetweenHi] shift by BetweenDelta, everything else stays.
// The two ranges never overlap.
type MovePlan struct {
	SubtreeLo, SubtreeHi int
	SubtreeDelta         int
	BetweenLo, BetweenHi int
	BetweenDelta         int
}

// Span is the full range of bound values the plan touches.
func (p MovePlan) Span() (lo, hi int) {
	lo, hi = p.SubtreeLo, p.SubtreeHi
	if p.BetweenLo < lo {
		lo = p.BetweenLo
	}
	if p.BetweenHi > hi {
		hi = p.BetweenHi
	}
	return lo, hi
}

// ApplyMove remaps every bound in the plan's span with one bulk UPDATE.
// Both columns are rewritten in the same statement so the table never
// holds a mix of old and new numbering.
func (s *Store) ApplyMove(ctx context.Context, p MovePlan) error {
	lo, hi := p.Span()
	return s.Model(ctx).
		Where("lft BETWEEN ? AND ? OR rgt BETWEEN ? AND ?", lo, hi, lo, hi).
		Updates(map[string]interface{}{
			"lft": gorm.Expr(
				"CASE WHEN lft BETWEEN ? AND ? THEN lft + ? WHEN lft BETWEEN ? AND ? THEN lft + ? ELSE lft END",
				p.SubtreeLo, p.SubtreeHi, p.SubtreeDelta,
				p.BetweenLo, p.BetweenHi, p.BetweenDelta),
			"rgt": gorm.Expr(
				"CASE WHEN rgt BETWEEN ? AND ? THEN rgt + ? WHEN rgt BETWEEN ? AND ? THEN rgt + ? ELSE rgt END",
				p.SubtreeLo, p.SubtreeHi, p.SubtreeDelta,
				p.BetweenLo, p.BetweenHi, p.BetweenDelta),
		}).Error
}

// MaxRight returns the largest rgt value in the table, 0 when empty.
func (s *Store) MaxRight(ctx context.Context) (int, error) {
	var max int
	err := s.Model(ctx).Select("COALESCE(MAX(rgt), 0)").Scan(&max).Error
	return max, err
}

// ByID loads a node by primary key.
func (s *Store) ByID(ctx context.Context, id uint) (*models.Node, error) {
	var n models.Node
	if err := s.Model(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// Refresh reloads the node's structural columns from storage. A mutation
// elsewhere in the tree may have shifted them since the struct was read.
func (s *Store) Refresh(ctx context.Context, n *models.Node) error {
	fresh, err := s.ByID(ctx, n.ID)
	if err != nil {
		return err
	}
	n.Lft = fresh.Lft
	n.Rgt = fresh.Rgt
	n.ParentID = fresh.ParentID
	n.DeletedAt = fresh.DeletedAt
	return nil
}

// CreateRow writes a brand-new node row.
func (s *Store) CreateRow(ctx context.Context, n *models.Node) error {
	return s.db.WithContext(ctx).Create(n).Error
}

// UpdateRow writes all columns of an existing node row.
func (s *Store) UpdateRow(ctx context.Context, n *models.Node) error {
	q := s.db.WithContext(ctx)
	if s.includeDeleted {
		q = q.Unscoped()
	}
	return q.Save(n).Error
}

// AssignBounds sets one node's bounds directly, bypassing the struct.
func (s *Store) AssignBounds(ctx context.Context, id uint, lft, rgt int, parentID *uint) error {
	return s.Model(ctx).Where("id = ?", id).Updates(map[string]interface{}{
		"lft":       lft,
		"rgt":       rgt,
		"parent_id": parentID,
	}).Error
}

// DeleteRange removes every row whose left bound falls inside [lo, hi],
// soft-deleted rows included. Descendant bounds always lie inside their
// ancestor's, so this sweeps a whole subtree in one statement.
func (s *Store) DeleteRange(ctx context.Context, lo, hi int) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().
		Where("lft BETWEEN ? AND ?", lo, hi).
		Delete(&models.Node{})
	return res.RowsAffected, res.Error
}

// SoftDeleteRange stamps every live row in [lo, hi] as deleted. Bounds
// stay in place; the rows disappear from normal scans only.
func (s *Store) SoftDeleteRange(ctx context.Context, lo, hi int) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("lft BETWEEN ? AND ?", lo, hi).
		Delete(&models.Node{})
	return res.RowsAffected, res.Error
}

// RestoreRange un-deletes rows in [lo, hi] whose deletion stamp is at or
// after since, leaving rows trashed earlier alone.
func (s *Store) RestoreRange(ctx context.Context, lo, hi int, since time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().Model(&models.Node{}).
		Where("lft BETWEEN ? AND ?", lo, hi).
		Where("deleted_at IS NOT NULL AND deleted_at >= ?", since).
		Update("deleted_at", nil)
	return res.RowsAffected, res.Error
}

// CountRaw runs a raw aggregate query over the tree table.
func (s *Store) CountRaw(ctx context.Context, out *int64, query string, args ...interface{}) error {
	return s.db.WithContext(ctx).Raw(query, args...).Scan(out).Error
}
