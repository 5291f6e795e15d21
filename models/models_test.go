package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentBufferHoldsOne(t *testing.T) {
	parent := &Node{ID: 1}
	sibling := &Node{ID: 2}
	n := &Node{}

	assert.False(t, n.HasPending())

	// last writer wins: the append is replaced outright
	n.AppendTo(parent)
	n.PlaceAfter(sibling)
	require.True(t, n.HasPending())

	in := n.TakeIntent()
	require.NotNil(t, in)
	assert.Equal(t, IntentAfter, in.Kind)
	assert.Same(t, sibling, in.Ref)

	// taking clears the buffer
	assert.False(t, n.HasPending())
	assert.Nil(t, n.TakeIntent())
}

func TestIntentKindStrings(t *testing.T) {
	assert.Equal(t, "root", IntentRoot.String())
	assert.Equal(t, "append", IntentAppend.String())
	assert.Equal(t, "prepend", IntentPrepend.String())
	assert.Equal(t, "before", IntentBefore.String())
	assert.Equal(t, "after", IntentAfter.String())
	assert.Equal(t, "none", IntentNone.String())
}

func TestBoundPredicates(t *testing.T) {
	a := &Node{ID: 1, Lft: 1, Rgt: 10}
	b := &Node{ID: 2, Lft: 2, Rgt: 7, ParentID: ptr(uint(1))}
	c := &Node{ID: 3, Lft: 3, Rgt: 4, ParentID: ptr(uint(2))}
	f := &Node{ID: 4, Lft: 11, Rgt: 12}

	assert.True(t, c.IsDescendantOf(a))
	assert.True(t, c.IsDescendantOf(b))
	assert.False(t, b.IsDescendantOf(c))
	assert.True(t, a.IsAncestorOf(c))
	assert.True(t, f.IsAfter(a))
	assert.True(t, a.IsBefore(f))
	assert.False(t, c.IsAfter(a))

	assert.True(t, b.IsChildOf(a))
	assert.False(t, c.IsChildOf(a))
	assert.True(t, a.IsRoot())
	assert.False(t, b.IsRoot())

	assert.True(t, c.IsLeaf())
	assert.False(t, a.IsLeaf())
	assert.Equal(t, 10, a.Height())
	assert.Equal(t, 4, a.DescendantCount())
	assert.Equal(t, 2, b.DescendantCount())

	assert.False(t, (&Node{}).Persisted())
	assert.True(t, a.Persisted())
}

func ptr[T any](v T) *T { return &v }
