package tree

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var mutationsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nestset_mutations_applied",
	Help: "Number of structural mutations committed",
}, []string{"action"})

var mutationsNoop = promauto.NewCounter(prometheus.CounterOpts{
	Name: "nestset_mutations_noop",
	Help: "Number of structural mutations that changed nothing",
})

var subtreesDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nestset_subtrees_deleted",
	Help: "Number of subtree deletes",
}, []string{"mode"})

var subtreesRestored = promauto.NewCounter(prometheus.CounterOpts{
	Name: "nestset_subtrees_restored",
	Help: "Number of subtree restores",
})

var consistencyChecks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "nestset_consistency_checks",
	Help: "Number of consistency checks run",
})

var treesFixed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "nestset_trees_fixed",
	Help: "Number of full tree rebuilds",
})
