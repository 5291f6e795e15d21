package models

import (
	"time"

	"gorm.io/gorm"
)

// Node is a row of the tree table. Its position is encoded with the
// nested set technique: every descendant's bounds fall strictly inside
// [Lft, Rgt], so subtree queries are range scans instead of recursive
// joins. Bounds are assigned by the tree package and recomputed on every
// structural mutation; treat them as read-only outside of it.
type Node struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Name string `gorm:"index"`

	Lft      int   `gorm:"column:lft;not null;index"`
	Rgt      int   `gorm:"column:rgt;not null;index"`
	ParentID *uint `gorm:"index"`

	pending *Intent
}

func (Node) TableName() string {
	return "nodes"
}

// Persisted reports whether the node has been written to storage.
func (n *Node) Persisted() bool {
	return n.ID != 0
}

func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

func (n *Node) IsLeaf() bool {
	return n.Rgt == n.Lft+1
}

// Height is the number of bound slots the node's subtree occupies.
// Always even: two per node.
func (n *Node) Height() int {
	return n.Rgt - n.Lft + 1
}

func (n *Node) DescendantCount() int {
	return n.Height()/2 - 1
}

// IsDescendantOf reports whether n's interval lies strictly inside o's.
func (n *Node) IsDescendantOf(o *Node) bool {
	return n.Lft > o.Lft && n.Rgt < o.Rgt
}

func (n *Node) IsAncestorOf(o *Node) bool {
	return o.IsDescendantOf(n)
}

// IsAfter reports whether n follows o in document order, at any depth.
func (n *Node) IsAfter(o *Node) bool {
	return n.Lft > o.Rgt
}

func (n *Node) IsBefore(o *Node) bool {
	return n.Rgt < o.Lft
}

// IsChildOf reports immediate containment via the stored parent
// reference.
func (n *Node) IsChildOf(o *Node) bool {
	return n.ParentID != nil && *n.ParentID == o.ID
}
