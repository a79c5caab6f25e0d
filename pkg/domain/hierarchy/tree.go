// Package hierarchy provides generic tree building and traversal over
// flat, parent-referencing records. Organization units and roles are the
// two concrete node types.
package hierarchy

import (
	"math"

	"github.com/orgstackio/api/pkg/domain/shared"
)

// Node is the capability a record needs to participate in tree building:
// an identity, an optional parent reference, and a replaceable children
// list. T is the concrete node pointer type.
type Node[T any] interface {
	NodeID() shared.ID
	NodeParentID() *shared.ID
	NodeChildren() []T
	SetChildren(children []T)
}

// Build restructures a flat record collection into a forest. Children are
// attached in input order. A record without a parent, or whose parent id
// is absent from the input, becomes a root; the orphan case is an
// intentional leniency, callers needing strict referential integrity must
// validate separately.
//
// Build replaces every node's children list, so running it twice on the
// same input yields the same forest. Two passes, O(n).
func Build[T Node[T]](records []T) []T {
	index := make(map[shared.ID]T, len(records))
	for _, rec := range records {
		index[rec.NodeID()] = rec
	}

	children := make(map[shared.ID][]T, len(records))
	roots := make([]T, 0)
	for _, rec := range records {
		pid := rec.NodeParentID()
		if pid == nil {
			roots = append(roots, rec)
			continue
		}
		if _, ok := index[*pid]; !ok {
			roots = append(roots, rec)
			continue
		}
		children[*pid] = append(children[*pid], rec)
	}

	for _, rec := range records {
		rec.SetChildren(children[rec.NodeID()])
	}

	return roots
}

// Flatten returns every node of the forest in depth-first pre-order.
func Flatten[T Node[T]](forest []T) []T {
	result := make([]T, 0, len(forest))
	for _, node := range forest {
		result = append(result, node)
		result = append(result, Flatten(node.NodeChildren())...)
	}
	return result
}

// TotalNodes counts all nodes in the forest.
func TotalNodes[T Node[T]](forest []T) int {
	total := 0
	for _, node := range forest {
		total += 1 + TotalNodes(node.NodeChildren())
	}
	return total
}

// MaxDepth returns the depth of the deepest node, 0 for an empty forest.
func MaxDepth[T Node[T]](forest []T) int {
	depth := 0
	for _, node := range forest {
		if d := 1 + MaxDepth(node.NodeChildren()); d > depth {
			depth = d
		}
	}
	return depth
}

// LeafCount counts nodes with no children.
func LeafCount[T Node[T]](forest []T) int {
	count := 0
	for _, node := range forest {
		if len(node.NodeChildren()) == 0 {
			count++
			continue
		}
		count += LeafCount(node.NodeChildren())
	}
	return count
}

// AverageBranching returns the mean child count among nodes that have at
// least one child, rounded to one decimal. 0 if no node has children.
func AverageBranching[T Node[T]](forest []T) float64 {
	parents := 0
	childTotal := 0
	for _, node := range Flatten(forest) {
		if n := len(node.NodeChildren()); n > 0 {
			parents++
			childTotal += n
		}
	}
	if parents == 0 {
		return 0
	}
	return math.Round(float64(childTotal)/float64(parents)*10) / 10
}

// ExpansionRatio returns the fraction of nodes the caller has expanded,
// 0 for an empty forest.
func ExpansionRatio[T Node[T]](forest []T, expandedCount int) float64 {
	total := TotalNodes(forest)
	if total == 0 {
		return 0
	}
	return float64(expandedCount) / float64(total)
}

// Stats summarizes a forest for display.
type Stats struct {
	TotalNodes       int     `json:"total_nodes"`
	MaxDepth         int     `json:"max_depth"`
	LeafCount        int     `json:"leaf_count"`
	AverageBranching float64 `json:"average_branching"`
	ExpansionRatio   float64 `json:"expansion_ratio"`
	// LeafRatio is the original UI's "hierarchy efficiency" figure.
	LeafRatio float64 `json:"leaf_ratio"`
}

// Summarize computes all statistics over the forest in one call.
// Read-only; the forest is never mutated.
func Summarize[T Node[T]](forest []T, expandedCount int) Stats {
	total := TotalNodes(forest)
	leaves := LeafCount(forest)

	s := Stats{
		TotalNodes:       total,
		MaxDepth:         MaxDepth(forest),
		LeafCount:        leaves,
		AverageBranching: AverageBranching(forest),
	}
	if total > 0 {
		s.ExpansionRatio = float64(expandedCount) / float64(total)
		s.LeafRatio = float64(leaves) / float64(total)
	}
	return s
}
