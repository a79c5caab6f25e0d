package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgstackio/api/pkg/domain/shared"
)

type testNode struct {
	id       shared.ID
	parentID *shared.ID
	children []*testNode
}

func (n *testNode) NodeID() shared.ID               { return n.id }
func (n *testNode) NodeParentID() *shared.ID        { return n.parentID }
func (n *testNode) NodeChildren() []*testNode       { return n.children }
func (n *testNode) SetChildren(children []*testNode) { n.children = children }

func newTestNode(parent *testNode) *testNode {
	n := &testNode{id: shared.NewID()}
	if parent != nil {
		pid := parent.id
		n.parentID = &pid
	}
	return n
}

func TestBuild(t *testing.T) {
	t.Run("builds forest from flat records", func(t *testing.T) {
		root := newTestNode(nil)
		child1 := newTestNode(root)
		child2 := newTestNode(child1)

		forest := Build([]*testNode{root, child1, child2})

		require.Len(t, forest, 1)
		assert.Equal(t, root.id, forest[0].id)
		require.Len(t, forest[0].children, 1)
		assert.Equal(t, child1.id, forest[0].children[0].id)
		require.Len(t, forest[0].children[0].children, 1)
		assert.Equal(t, child2.id, forest[0].children[0].children[0].id)
	})

	t.Run("orphan becomes root", func(t *testing.T) {
		root := newTestNode(nil)
		missingParent := shared.NewID()
		orphan := &testNode{id: shared.NewID(), parentID: &missingParent}

		forest := Build([]*testNode{root, orphan})

		assert.Len(t, forest, 2)
	})

	t.Run("preserves sibling input order", func(t *testing.T) {
		root := newTestNode(nil)
		a := newTestNode(root)
		b := newTestNode(root)
		c := newTestNode(root)

		forest := Build([]*testNode{root, a, b, c})

		require.Len(t, forest, 1)
		require.Len(t, forest[0].children, 3)
		assert.Equal(t, a.id, forest[0].children[0].id)
		assert.Equal(t, b.id, forest[0].children[1].id)
		assert.Equal(t, c.id, forest[0].children[2].id)
	})

	t.Run("idempotent on the same records", func(t *testing.T) {
		root := newTestNode(nil)
		child := newTestNode(root)
		records := []*testNode{root, child}

		Build(records)
		forest := Build(records)

		require.Len(t, forest, 1)
		require.Len(t, forest[0].children, 1)
		assert.Empty(t, forest[0].children[0].children)
	})

	t.Run("empty input yields empty forest", func(t *testing.T) {
		assert.Empty(t, Build([]*testNode{}))
	})
}

func TestFlatten(t *testing.T) {
	root := newTestNode(nil)
	child1 := newTestNode(root)
	child2 := newTestNode(child1)
	forest := Build([]*testNode{root, child1, child2})

	flat := Flatten(forest)

	require.Len(t, flat, 3)
	// Depth-first pre-order.
	assert.Equal(t, root.id, flat[0].id)
	assert.Equal(t, child1.id, flat[1].id)
	assert.Equal(t, child2.id, flat[2].id)
}

func TestTreeMeasures(t *testing.T) {
	// root -> child1 -> child2, a three-level chain.
	root := newTestNode(nil)
	child1 := newTestNode(root)
	child2 := newTestNode(child1)
	forest := Build([]*testNode{root, child1, child2})

	assert.Equal(t, 3, TotalNodes(forest))
	assert.Equal(t, 3, MaxDepth(forest))
	assert.Equal(t, 1, LeafCount(forest))
}

func TestMaxDepthEmptyForest(t *testing.T) {
	assert.Equal(t, 0, MaxDepth([]*testNode{}))
}

func TestAverageBranching(t *testing.T) {
	t.Run("rounds to one decimal", func(t *testing.T) {
		// root has 2 children, one child has 1: (2+1)/2 = 1.5.
		root := newTestNode(nil)
		a := newTestNode(root)
		b := newTestNode(root)
		c := newTestNode(a)
		forest := Build([]*testNode{root, a, b, c})

		assert.Equal(t, 1.5, AverageBranching(forest))
	})

	t.Run("thirds round down", func(t *testing.T) {
		// Three parents with 1, 1, and 2 children: 4/3 = 1.333 -> 1.3.
		root := newTestNode(nil)
		a := newTestNode(root)
		b := newTestNode(a)
		c := newTestNode(b)
		d := newTestNode(b)
		forest := Build([]*testNode{root, a, b, c, d})

		assert.Equal(t, 1.3, AverageBranching(forest))
	})

	t.Run("zero when no node has children", func(t *testing.T) {
		forest := Build([]*testNode{newTestNode(nil), newTestNode(nil)})
		assert.Equal(t, 0.0, AverageBranching(forest))
	})
}

func TestExpansionRatio(t *testing.T) {
	root := newTestNode(nil)
	child := newTestNode(root)
	forest := Build([]*testNode{root, child})

	assert.Equal(t, 0.5, ExpansionRatio(forest, 1))
	assert.Equal(t, 0.0, ExpansionRatio([]*testNode{}, 5))
}

func TestSummarize(t *testing.T) {
	root := newTestNode(nil)
	child1 := newTestNode(root)
	child2 := newTestNode(root)
	forest := Build([]*testNode{root, child1, child2})

	stats := Summarize(forest, 1)

	assert.Equal(t, 3, stats.TotalNodes)
	assert.Equal(t, 2, stats.MaxDepth)
	assert.Equal(t, 2, stats.LeafCount)
	assert.Equal(t, 2.0, stats.AverageBranching)
	assert.InDelta(t, 1.0/3.0, stats.ExpansionRatio, 1e-9)
	assert.InDelta(t, 2.0/3.0, stats.LeafRatio, 1e-9)
}

func TestSummarizeEmptyForest(t *testing.T) {
	stats := Summarize([]*testNode{}, 4)

	assert.Zero(t, stats.TotalNodes)
	assert.Zero(t, stats.ExpansionRatio)
	assert.Zero(t, stats.LeafRatio)
}
