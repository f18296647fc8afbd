package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/arbor/errors"
)

func edgeIDs(s *Store) []string {
	var ids []string
	for _, e := range s.Edges() {
		ids = append(ids, e.ID)
	}
	return ids
}

func nodeIDs(s *Store) []string {
	var ids []string
	for _, n := range s.Nodes() {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestAddNodeRejectsDuplicate(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddNode("A", Position{X: 1, Y: 2}))

	err := s.AddNode("A", Position{X: 9, Y: 9})
	assert.ErrorIs(t, err, ErrNodeExists)
	assert.True(t, errors.IsConflictError(err))

	n, ok := s.Node("A")
	require.True(t, ok)
	assert.Equal(t, Position{X: 1, Y: 2}, n.Position)
	assert.Equal(t, []string{"A"}, nodeIDs(s))
}

func TestAddNodeRejectsEmptyID(t *testing.T) {
	s := NewStore()
	assert.ErrorIs(t, s.AddNode("", Position{}), ErrInvalidID)
	nodes, _ := s.Len()
	assert.Zero(t, nodes)
}

func TestAddEdgeIdempotent(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddNode("A", Position{}))
	require.NoError(t, s.AddNode("B", Position{}))

	require.NoError(t, s.AddEdge("A", "B", "3"))
	assert.ErrorIs(t, s.AddEdge("A", "B", "5"), ErrEdgeExists)

	assert.Equal(t, []string{"eA_B"}, edgeIDs(s))
	e, _ := s.Edge("eA_B")
	assert.Equal(t, Weight("3"), e.Weight)
}

func TestAddEdgeMissingEndpoint(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddNode("A", Position{}))

	assert.ErrorIs(t, s.AddEdge("A", "ghost", "1"), ErrMissingEndpoint)
	assert.ErrorIs(t, s.AddEdge("ghost", "A", "1"), ErrMissingEndpoint)
	assert.Empty(t, s.Edges())
}

func TestRemoveNodeLeavesEdges(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddNode("A", Position{}))
	require.NoError(t, s.AddNode("B", Position{}))
	require.NoError(t, s.AddEdge("A", "B", "1"))

	require.NoError(t, s.RemoveNode("A"))
	assert.False(t, s.HasNode("A"))
	assert.Equal(t, []string{"eA_B"}, edgeIDs(s))

	assert.ErrorIs(t, s.RemoveNode("A"), ErrNotFound)
}

func TestRemoveNodeCascade(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, s.AddNode(id, Position{}))
	}
	require.NoError(t, s.AddEdge("A", "B", "1"))
	require.NoError(t, s.AddEdge("C", "A", "2"))
	require.NoError(t, s.AddEdge("B", "C", "3"))

	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })

	removed, err := s.RemoveNodeCascade("A")
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	assert.Equal(t, []string{"eB_C"}, edgeIDs(s))
	assert.Equal(t, []Change{{Op: OpRemoveNode, ID: "A"}}, changes)

	_, err = s.RemoveNodeCascade("A")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenamePreservesIncidentEdges(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddNode("A", Position{X: 10, Y: 20}))
	require.NoError(t, s.AddNode("B", Position{}))
	require.NoError(t, s.AddNode("C", Position{}))
	require.NoError(t, s.AddEdge("A", "B", "4"))
	require.NoError(t, s.AddEdge("C", "A", "5"))

	require.NoError(t, s.RenameNode("A", "X"))

	assert.False(t, s.HasNode("A"))
	x, ok := s.Node("X")
	require.True(t, ok)
	assert.Equal(t, Position{X: 10, Y: 20}, x.Position)

	xb, ok := s.Edge("eX_B")
	require.True(t, ok)
	assert.Equal(t, Weight("4"), xb.Weight)
	cx, ok := s.Edge("eC_X")
	require.True(t, ok)
	assert.Equal(t, "C", cx.Source)
	assert.Equal(t, "X", cx.Target)

	for _, e := range s.Edges() {
		assert.NotEqual(t, "A", e.Source)
		assert.NotEqual(t, "A", e.Target)
	}
	assert.Equal(t, []string{"B", "C", "X"}, nodeIDs(s))
}

func TestRenameCollisionDedup(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, s.AddNode(id, Position{}))
	}
	require.NoError(t, s.AddEdge("A", "C", "1"))
	require.NoError(t, s.AddEdge("B", "C", "2"))

	require.NoError(t, s.RenameNode("A", "B"))

	assert.Equal(t, []string{"eB_C"}, edgeIDs(s))
	e, _ := s.Edge("eB_C")
	assert.Equal(t, Weight("2"), e.Weight, "existing edge wins")
	assert.Equal(t, []string{"B", "C"}, nodeIDs(s))
}

func TestRenameSelfLoop(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddNode("A", Position{}))
	require.NoError(t, s.AddEdge("A", "A", "1"))

	require.NoError(t, s.RenameNode("A", "Z"))
	assert.Equal(t, []string{"eZ_Z"}, edgeIDs(s))
}

func TestRenameNoOpsAndFailures(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddNode("A", Position{}))

	var changes int
	s.Subscribe(func(Change) { changes++ })

	assert.NoError(t, s.RenameNode("A", "A"))
	assert.ErrorIs(t, s.RenameNode("A", ""), ErrInvalidID)
	assert.ErrorIs(t, s.RenameNode("missing", "B"), ErrNotFound)
	assert.Zero(t, changes)
	assert.Equal(t, []string{"A"}, nodeIDs(s))
}

func TestRenameEmitsSingleChange(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddNode("A", Position{}))
	require.NoError(t, s.AddNode("B", Position{}))
	require.NoError(t, s.AddEdge("A", "B", "1"))

	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })

	require.NoError(t, s.RenameNode("A", "Start"))
	require.Len(t, changes, 1)
	assert.Equal(t, OpRenameNode, changes[0].Op)
	assert.Equal(t, "Start", changes[0].ID)
	assert.Equal(t, ChangeData, changes[0].Kind())
}

func TestSetEdgeWeightAndRemoveEdge(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddNode("A", Position{}))
	require.NoError(t, s.AddNode("B", Position{}))
	require.NoError(t, s.AddEdge("A", "B", "1"))

	require.NoError(t, s.SetEdgeWeight("eA_B", ""))
	e, _ := s.Edge("eA_B")
	assert.Equal(t, Weight(""), e.Weight)

	assert.ErrorIs(t, s.SetEdgeWeight("eB_A", "2"), ErrNotFound)

	require.NoError(t, s.RemoveEdge("eA_B"))
	assert.Empty(t, s.Edges())
	assert.ErrorIs(t, s.RemoveEdge("eA_B"), ErrNotFound)
}

func TestSubscribersSeeEveryMutation(t *testing.T) {
	s := NewStore()
	var ops []Op
	s.Subscribe(func(c Change) { ops = append(ops, c.Op) })

	require.NoError(t, s.AddNode("A", Position{}))
	require.NoError(t, s.AddNode("B", Position{}))
	require.NoError(t, s.AddEdge("A", "B", "1"))
	require.NoError(t, s.SetEdgeWeight("eA_B", "2"))
	require.NoError(t, s.RemoveEdge("eA_B"))
	require.NoError(t, s.RemoveNode("B"))
	_ = s.AddNode("A", Position{})
	s.Clear()
	s.Clear()

	assert.Equal(t, []Op{
		OpAddNode, OpAddNode, OpAddEdge, OpSetWeight, OpRemoveEdge, OpRemoveNode, OpClear,
	}, ops)
}

func TestLoadReplacesContents(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddNode("old", Position{}))

	snap := Snapshot{Elements: Elements{
		Nodes: []NodeElement{
			{Data: NodeData{ID: "r"}, Position: Position{X: 1, Y: 1}},
			{Data: NodeData{ID: "a"}},
		},
		Edges: []EdgeElement{
			{Data: EdgeData{Source: "r", Target: "a", Weight: "2"}},
			{Data: EdgeData{Source: "r", Target: "a", Weight: "9"}},
		},
	}}
	require.NoError(t, s.Load(snap))

	assert.Equal(t, []string{"r", "a"}, nodeIDs(s))
	assert.Equal(t, []string{"er_a"}, edgeIDs(s))
}

func TestLoadInvalidLeavesStoreUntouched(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddNode("keep", Position{}))

	snap := Snapshot{Elements: Elements{
		Nodes: []NodeElement{{Data: NodeData{ID: "a"}}},
		Edges: []EdgeElement{{Data: EdgeData{Source: "a", Target: "missing"}}},
	}}
	assert.ErrorIs(t, s.Load(snap), ErrMissingEndpoint)
	assert.Equal(t, []string{"keep"}, nodeIDs(s))
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddNode("A", Position{}))
	snap := s.Snapshot()

	require.NoError(t, s.AddNode("B", Position{}))
	require.NoError(t, s.RemoveNode("A"))

	require.Equal(t, 1, snap.NodeCount())
	assert.Equal(t, "A", snap.Elements.Nodes[0].Data.ID)
}

func TestWeightFloat(t *testing.T) {
	assert.Equal(t, 7.0, Weight("7").Float())
	assert.Equal(t, 2.5, Weight(" 2.5 ").Float())
	assert.Equal(t, 1.0, Weight("").Float())
	assert.Equal(t, 1.0, Weight("heavy").Float())
	assert.Equal(t, 1.0, Weight("NaN").Float())

	assert.Equal(t, 1000.0, Weight("1_000").Float())
	assert.Equal(t, 1234.5, Weight("1_234.5").Float())
	assert.Equal(t, 1e10, Weight("1e1_0").Float())
	for _, bad := range []string{"_1", "1_", "1__0", "1_.5", "1._5"} {
		assert.Equal(t, 1.0, Weight(bad).Float(), bad)
	}
}
