package tree

import (
	"context"
	"fmt"
)

// ErrorCounts is the consistency diagnostic: each field counts one way
// the stored bounds can disagree with a well-formed tree. Counts are
// reported, never auto-repaired; FixTree is the explicit repair.
type ErrorCounts struct {
	// Oddness counts nodes with rgt <= lft or an even interval width.
	Oddness int64
	// Duplicates counts pairs of nodes sharing a bound value.
	Duplicates int64
	// WrongParent counts nodes whose stored parent is not their nearest
	// containing node.
	WrongParent int64
	// MissingParent counts nodes whose parent reference points at a row
	// that does not exist.
	MissingParent int64
}

func (c ErrorCounts) Total() int64 {
	return c.Oddness + c.Duplicates + c.WrongParent + c.MissingParent
}

func (c ErrorCounts) String() string {
	return fmt.Sprintf("oddness=%d duplicates=%d wrong_parent=%d missing_parent=%d",
		c.Oddness, c.Duplicates, c.WrongParent, c.MissingParent)
}

// CountErrors checks the whole table, soft-deleted rows included: the
// numbering is global, so trashed rows that linger still occupy bound
// slots and must be counted.
func (q *Query) CountErrors(ctx context.Context) (ErrorCounts, error) {
	var c ErrorCounts
	st := q.st.Service()

	if err := st.Model(ctx).
		Where("rgt <= lft OR (rgt - lft) % 2 = 0").
		Count(&c.Oddness).Error; err != nil {
		return c, err
	}

	if err := st.CountRaw(ctx, &c.Duplicates, `
		SELECT COUNT(*) FROM nodes i1
		JOIN nodes i2 ON i1.id < i2.id AND (
			i1.lft = i2.lft OR i1.rgt = i2.rgt OR
			i1.lft = i2.rgt OR i1.rgt = i2.lft)`); err != nil {
		return c, err
	}

	// nearest containing node is the container with the largest lft
	if err := st.CountRaw(ctx, &c.WrongParent, `
		SELECT COUNT(*) FROM nodes c
		WHERE COALESCE(c.parent_id, 0) <> COALESCE((
			SELECT a.id FROM nodes a
			WHERE a.lft < c.lft AND a.rgt > c.rgt
			ORDER BY a.lft DESC LIMIT 1), 0)`); err != nil {
		return c, err
	}

	if err := st.CountRaw(ctx, &c.MissingParent, `
		SELECT COUNT(*) FROM nodes c
		WHERE c.parent_id IS NOT NULL
		AND NOT EXISTS (SELECT 1 FROM nodes p WHERE p.id = c.parent_id)`); err != nil {
		return c, err
	}

	consistencyChecks.Inc()
	return c, nil
}
