package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/treebank/nestset/models"
)

func testStore(t *testing.T) *Store {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.sqlite")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Node{}))
	return New(db)
}

// seed writes rows with explicit bounds: a root [1,6] holding [2,3] and
// [4,5], plus a second root [7,8].
func seed(t *testing.T, s *Store) []*models.Node {
	ctx := t.Context()
	a := &models.Node{Name: "a", Lft: 1, Rgt: 6}
	require.NoError(t, s.CreateRow(ctx, a))
	b := &models.Node{Name: "b", Lft: 2, Rgt: 3, ParentID: &a.ID}
	c := &models.Node{Name: "c", Lft: 4, Rgt: 5, ParentID: &a.ID}
	d := &models.Node{Name: "d", Lft: 7, Rgt: 8}
	for _, n := range []*models.Node{b, c, d} {
		require.NoError(t, s.CreateRow(ctx, n))
	}
	return []*models.Node{a, b, c, d}
}

func bounds(t *testing.T, s *Store, id uint) (int, int) {
	n, err := s.Service().ByID(t.Context(), id)
	require.NoError(t, err)
	return n.Lft, n.Rgt
}

func TestShiftBounds(t *testing.T) {
	s := testStore(t)
	ns := seed(t, s)
	ctx := t.Context()

	// open a two-slot gap where [4,5] sits
	require.NoError(t, s.ShiftBounds(ctx, 4, 2))

	l, r := bounds(t, s, ns[0].ID)
	assert.Equal(t, [2]int{1, 8}, [2]int{l, r})
	l, r = bounds(t, s, ns[1].ID)
	assert.Equal(t, [2]int{2, 3}, [2]int{l, r})
	l, r = bounds(t, s, ns[2].ID)
	assert.Equal(t, [2]int{6, 7}, [2]int{l, r})
	l, r = bounds(t, s, ns[3].ID)
	assert.Equal(t, [2]int{9, 10}, [2]int{l, r})
}

func TestShiftBoundsNegative(t *testing.T) {
	s := testStore(t)
	ns := seed(t, s)
	ctx := t.Context()

	// as after deleting [2,3]: close its gap
	_, err := s.DeleteRange(ctx, 2, 3)
	require.NoError(t, err)
	require.NoError(t, s.ShiftBounds(ctx, 4, -2))

	l, r := bounds(t, s, ns[0].ID)
	assert.Equal(t, [2]int{1, 4}, [2]int{l, r})
	l, r = bounds(t, s, ns[2].ID)
	assert.Equal(t, [2]int{2, 3}, [2]int{l, r})
	l, r = bounds(t, s, ns[3].ID)
	assert.Equal(t, [2]int{5, 6}, [2]int{l, r})
}

func TestApplyMoveRemapsBothRanges(t *testing.T) {
	s := testStore(t)
	ns := seed(t, s)
	ctx := t.Context()

	// move [2,3] to sit after [4,5]: subtree jumps forward, between
	// range slides back
	require.NoError(t, s.ApplyMove(ctx, MovePlan{
		SubtreeLo: 2, SubtreeHi: 3, SubtreeDelta: 2,
		BetweenLo: 4, BetweenHi: 5, BetweenDelta: -2,
	}))

	l, r := bounds(t, s, ns[1].ID)
	assert.Equal(t, [2]int{4, 5}, [2]int{l, r})
	l, r = bounds(t, s, ns[2].ID)
	assert.Equal(t, [2]int{2, 3}, [2]int{l, r})
	// bounds outside both ranges stay put
	l, r = bounds(t, s, ns[0].ID)
	assert.Equal(t, [2]int{1, 6}, [2]int{l, r})
	l, r = bounds(t, s, ns[3].ID)
	assert.Equal(t, [2]int{7, 8}, [2]int{l, r})
}

func TestMaxRight(t *testing.T) {
	s := testStore(t)
	ctx := t.Context()

	max, err := s.MaxRight(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, max)

	seed(t, s)
	max, err = s.MaxRight(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, max)
}

func TestDeleteRangeSweepsSubtree(t *testing.T) {
	s := testStore(t)
	seed(t, s)

	removed, err := s.DeleteRange(t.Context(), 1, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
}

func TestSoftDeleteAndRestoreRange(t *testing.T) {
	s := testStore(t)
	ns := seed(t, s)
	ctx := t.Context()

	before := time.Now().Add(-time.Second)
	trashed, err := s.SoftDeleteRange(ctx, 1, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(3), trashed)

	// hidden from the default scope, visible to the service scan
	_, err = s.ByID(ctx, ns[0].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	n, err := s.Service().ByID(ctx, ns[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n.Lft)

	// a second soft delete must not re-stamp already-trashed rows
	again, err := s.SoftDeleteRange(ctx, 1, 6)
	require.NoError(t, err)
	assert.Zero(t, again)

	restored, err := s.RestoreRange(ctx, 1, 6, before)
	require.NoError(t, err)
	assert.Equal(t, int64(3), restored)
	_, err = s.ByID(ctx, ns[0].ID)
	assert.NoError(t, err)
}

func TestRefreshReloadsStructuralColumns(t *testing.T) {
	s := testStore(t)
	ns := seed(t, s)
	ctx := t.Context()

	stale := &models.Node{ID: ns[3].ID, Name: "edited elsewhere"}
	require.NoError(t, s.ShiftBounds(ctx, 7, 4))

	require.NoError(t, s.Refresh(ctx, stale))
	assert.Equal(t, 11, stale.Lft)
	assert.Equal(t, 12, stale.Rgt)
	// non-structural fields on the struct stay as the caller left them
	assert.Equal(t, "edited elsewhere", stale.Name)
}

func TestAssignBounds(t *testing.T) {
	s := testStore(t)
	ns := seed(t, s)
	ctx := t.Context()

	require.NoError(t, s.AssignBounds(ctx, ns[3].ID, 9, 10, &ns[0].ID))
	n, err := s.ByID(ctx, ns[3].ID)
	require.NoError(t, err)
	assert.Equal(t, 9, n.Lft)
	assert.Equal(t, 10, n.Rgt)
	require.NotNil(t, n.ParentID)
	assert.Equal(t, ns[0].ID, *n.ParentID)
}
