package tree

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/treebank/nestset/models"
)

func testTree(t testing.TB, opts ...Option) *Tree {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "nestset.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	tr := New(db, opts...)
	if err := tr.Migrate(t.Context()); err != nil {
		t.Fatal(err)
	}
	return tr
}

func reload(t *testing.T, tr *Tree, n *models.Node) *models.Node {
	fresh, err := tr.Store().Service().ByID(t.Context(), n.ID)
	require.NoError(t, err)
	return fresh
}

func assertBounds(t *testing.T, tr *Tree, n *models.Node, lft, rgt int) {
	t.Helper()
	fresh := reload(t, tr, n)
	assert.Equal(t, lft, fresh.Lft, "%s lft", n.Name)
	assert.Equal(t, rgt, fresh.Rgt, "%s rgt", n.Name)
}

// assertValid checks the committed tree against every bound invariant:
// zero consistency errors and a dense 1..2N numbering over all rows,
// trashed ones included.
func assertValid(t *testing.T, tr *Tree) {
	t.Helper()
	counts, err := tr.Query().CountErrors(t.Context())
	require.NoError(t, err)
	assert.Zero(t, counts.Total(), counts.String())

	nodes, err := tr.Query(WithDeleted()).All(t.Context())
	require.NoError(t, err)
	all := make([]int, 0, 2*len(nodes))
	for _, n := range nodes {
		all = append(all, n.Lft, n.Rgt)
	}
	sort.Ints(all)
	for i, v := range all {
		require.Equal(t, i+1, v, "bound numbering has holes: %v", all)
	}
}

// saveNew persists a node and requires that it actually moved.
func saveNew(t *testing.T, tr *Tree, n *models.Node) *models.Node {
	t.Helper()
	moved, err := tr.Save(t.Context(), n)
	require.NoError(t, err)
	require.True(t, moved)
	return n
}
