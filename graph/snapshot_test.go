package graph

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.AddNode("N1", Position{X: 10, Y: 10}))
	require.NoError(t, s.AddNode("N2", Position{X: 50, Y: 50}))
	require.NoError(t, s.AddEdge("N1", "N2", "7"))
	require.NoError(t, s.RenameNode("N1", "Start"))
	return s
}

func TestSnapshotWireFormat(t *testing.T) {
	data, err := json.MarshalIndent(scenarioStore(t).Snapshot(), "", "  ")
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden.json"))
	g.Assert(t, "renamed_scenario", data)
}

func TestParseSnapshotRoundTrip(t *testing.T) {
	data, err := json.Marshal(scenarioStore(t).Snapshot())
	require.NoError(t, err)

	snap, err := ParseSnapshot(data)
	require.NoError(t, err)

	s := NewStore()
	require.NoError(t, s.Load(snap))
	assert.Equal(t, []string{"N2", "Start"}, nodeIDs(s))
	e, ok := s.Edge("eStart_N2")
	require.True(t, ok)
	assert.Equal(t, Weight("7"), e.Weight)
}

func TestParseSnapshotBareForm(t *testing.T) {
	data := []byte(`{
		"nodes": [{"data": {"id": "r"}}, {"data": {"id": "a"}, "position": {"x": 3, "y": 4}}],
		"edges": [
			{"data": {"id": "whatever", "source": "r", "target": "a", "weight": 2.5}},
			{"data": {"source": "a", "target": "r"}}
		]
	}`)

	snap, err := ParseSnapshot(data)
	require.NoError(t, err)
	require.Equal(t, 2, snap.NodeCount())
	require.Equal(t, 2, snap.EdgeCount())

	assert.Equal(t, Position{X: 3, Y: 4}, snap.Elements.Nodes[1].Position)
	assert.Equal(t, "er_a", snap.Elements.Edges[0].Data.ID)
	assert.Equal(t, Weight("2.5"), snap.Elements.Edges[0].Data.Weight)
	assert.Equal(t, DefaultWeight, snap.Elements.Edges[1].Data.Weight)
}

func TestParseSnapshotInvalid(t *testing.T) {
	_, err := ParseSnapshot([]byte(`{"elements": [`))
	assert.Error(t, err)
}

func TestToNodeLink(t *testing.T) {
	s := scenarioStore(t)
	require.NoError(t, s.AddNode("C", Position{}))
	require.NoError(t, s.AddEdge("C", "N2", "heavy"))
	require.NoError(t, s.AddEdge("Start", "C", "0.5"))
	require.NoError(t, s.RemoveNode("Start"))

	doc := s.Snapshot().ToNodeLink()
	assert.True(t, doc.Directed)
	assert.Equal(t, []NodeLinkNode{{ID: "N2"}, {ID: "C"}}, doc.Nodes)
	assert.Equal(t, []NodeLinkLink{{Source: "C", Target: "N2", W: 1}}, doc.Links)
}

func TestDecodeFixture(t *testing.T) {
	snap, err := DecodeFixture(`
[[node]]
id = "r"
x = 100.0
y = 50.0

[[node]]
id = "a"

[[edge]]
source = "r"
target = "a"
weight = "3"

[[edge]]
source = "a"
target = "r"
`)
	require.NoError(t, err)

	s := NewStore()
	require.NoError(t, s.Load(snap))
	r, _ := s.Node("r")
	assert.Equal(t, Position{X: 100, Y: 50}, r.Position)
	ar, _ := s.Edge("ea_r")
	assert.Equal(t, DefaultWeight, ar.Weight)
}

func TestLoadFixtureFile(t *testing.T) {
	snap, err := LoadFixture("testdata/triangle.toml")
	require.NoError(t, err)
	assert.Equal(t, 3, snap.NodeCount())
	assert.Equal(t, 3, snap.EdgeCount())

	_, err = LoadFixture("testdata/missing.toml")
	assert.Error(t, err)
}
