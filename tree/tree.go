// Package tree maintains a nested-set tree over rows of a relational
// table. Each node stores a left and right bound such that a node's
// descendants are exactly the rows whose bounds fall strictly inside its
// own, which makes subtree reads range scans and makes every structural
// write a renumbering of a contiguous bound range inside one transaction.
package tree

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/treebank/nestset/models"
	"github.com/treebank/nestset/store"
)

type Tree struct {
	db         *gorm.DB
	st         *store.Store
	log        *slog.Logger
	softDelete bool
}

type Option func(*Tree)

func WithLogger(l *slog.Logger) Option {
	return func(t *Tree) { t.log = l }
}

// WithSoftDelete controls whether Delete trashes rows (keeping their
// bounds) or removes them and closes the gap. On by default: the Node
// row carries a deletion stamp column.
func WithSoftDelete(enabled bool) Option {
	return func(t *Tree) { t.softDelete = enabled }
}

func New(db *gorm.DB, opts ...Option) *Tree {
	t := &Tree{
		db:         db,
		st:         store.New(db),
		log:        slog.Default().With("system", "nestset"),
		softDelete: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Migrate creates or updates the tree table schema.
func (t *Tree) Migrate(ctx context.Context) error {
	return t.db.WithContext(ctx).AutoMigrate(&models.Node{})
}

// session is the per-mutation context: one transaction, a service-scan
// store bound to it, and the re-entrancy guard for subtree deletes.
// Nothing here outlives the enclosing transaction, so concurrent trees
// and concurrent tests never share mutation state.
type session struct {
	st       *store.Store
	gaps     gapAllocator
	log      *slog.Logger
	deleting bool
}

func (t *Tree) newSession(tx *gorm.DB) *session {
	st := t.st.WithTx(tx).Service()
	return &session{st: st, gaps: gapAllocator{st: st}, log: t.log}
}

// Save applies the node's buffered intent and writes the node's own row,
// all inside one transaction. Exactly one intent is consumed per call;
// it is cleared whether or not it changed anything. A brand-new node
// with no intent becomes a root; an existing node with no intent is a
// plain row update. The returned bool reports whether the node's bounds
// actually changed.
func (t *Tree) Save(ctx context.Context, n *models.Node) (bool, error) {
	intent := n.TakeIntent()
	if intent == nil {
		if n.Persisted() {
			// re-read bounds so a stale struct cannot clobber a shift
			// committed by another mutation
			if err := t.st.Service().Refresh(ctx, n); err != nil {
				return false, err
			}
			return false, t.db.WithContext(ctx).Save(n).Error
		}
		intent = &models.Intent{Kind: models.IntentRoot}
	}

	var moved bool
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := t.newSession(tx)
		var err error
		moved, err = s.apply(ctx, n, *intent)
		return err
	})
	if err != nil {
		return false, err
	}

	mutationsApplied.WithLabelValues(intent.Kind.String()).Inc()
	if !moved {
		mutationsNoop.Inc()
	}
	t.log.Debug("saved node", "node", n.ID, "action", intent.Kind.String(), "moved", moved)
	return moved, nil
}

// Delete removes the node's whole subtree. With soft-delete semantics
// the rows are trashed in place and keep their bounds, so the global
// numbering stays intact while they linger; otherwise the rows are
// removed and the vacated bound range is closed.
func (t *Tree) Delete(ctx context.Context, n *models.Node) error {
	return t.delete(ctx, n, !t.softDelete)
}

// ForceDelete removes the subtree's rows and closes the gap regardless
// of the soft-delete setting.
func (t *Tree) ForceDelete(ctx context.Context, n *models.Node) error {
	return t.delete(ctx, n, true)
}

func (t *Tree) delete(ctx context.Context, n *models.Node, hard bool) error {
	if !n.Persisted() {
		return ErrNotPersisted
	}
	var removed int64
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := t.newSession(tx)
		var err error
		removed, err = s.deleteSubtree(ctx, n, hard)
		return err
	})
	if err != nil {
		return err
	}
	mode := "soft"
	if hard {
		mode = "hard"
	}
	subtreesDeleted.WithLabelValues(mode).Inc()
	t.log.Debug("deleted subtree", "node", n.ID, "mode", mode, "rows", removed)
	return nil
}

// Restore un-trashes a soft-deleted node together with the descendants
// that were trashed with it: every row in its subtree whose deletion
// stamp is at or after the node's own. Descendants trashed earlier in a
// separate delete stay trashed.
func (t *Tree) Restore(ctx context.Context, n *models.Node) error {
	if !n.Persisted() {
		return ErrNotPersisted
	}
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := t.st.WithTx(tx).Service()
		if err := st.Refresh(ctx, n); err != nil {
			return err
		}
		if !n.DeletedAt.Valid {
			return ErrNotDeleted
		}
		since := n.DeletedAt.Time
		if _, err := st.RestoreRange(ctx, n.Lft, n.Rgt, since); err != nil {
			return fmt.Errorf("restoring subtree rows: %w", err)
		}
		n.DeletedAt = gorm.DeletedAt{}
		return nil
	})
	if err != nil {
		return err
	}
	subtreesRestored.Inc()
	t.log.Debug("restored subtree", "node", n.ID)
	return nil
}

// Store exposes the underlying bounds store, bound to the live
// (non-transactional) handle.
func (t *Tree) Store() *store.Store {
	return t.st
}
