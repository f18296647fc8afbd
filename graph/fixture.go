package graph

import (
	"github.com/BurntSushi/toml"

	"github.com/teranos/arbor/errors"
)

// Fixture is a canned graph kept in a TOML file:
//
//	[[node]]
//	id = "r"
//	x = 100.0
//	y = 50.0
//
//	[[edge]]
//	source = "r"
//	target = "a"
//	weight = "3"
type Fixture struct {
	Nodes []FixtureNode `toml:"node"`
	Edges []FixtureEdge `toml:"edge"`
}

// FixtureNode is a node entry of a fixture
type FixtureNode struct {
	ID string  `toml:"id"`
	X  float64 `toml:"x"`
	Y  float64 `toml:"y"`
}

// FixtureEdge is an edge entry of a fixture
type FixtureEdge struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
	Weight string `toml:"weight"`
}

// LoadFixture reads a fixture file
func LoadFixture(path string) (Snapshot, error) {
	var fx Fixture
	if _, err := toml.DecodeFile(path, &fx); err != nil {
		return Snapshot{}, errors.Wrapf(err, "decode fixture %s", path)
	}
	return fx.Snapshot(), nil
}

// DecodeFixture parses fixture text
func DecodeFixture(text string) (Snapshot, error) {
	var fx Fixture
	if _, err := toml.Decode(text, &fx); err != nil {
		return Snapshot{}, errors.Wrap(err, "decode fixture")
	}
	return fx.Snapshot(), nil
}

// Snapshot converts the fixture into loadable elements
func (fx Fixture) Snapshot() Snapshot {
	var snap Snapshot
	snap.Elements.Nodes = make([]NodeElement, 0, len(fx.Nodes))
	snap.Elements.Edges = make([]EdgeElement, 0, len(fx.Edges))
	for _, n := range fx.Nodes {
		snap.Elements.Nodes = append(snap.Elements.Nodes, NodeElement{
			Group:    groupNodes,
			Data:     NodeData{ID: n.ID},
			Position: Position{X: n.X, Y: n.Y},
		})
	}
	for _, e := range fx.Edges {
		weight := DefaultWeight
		if e.Weight != "" {
			weight = Weight(e.Weight)
		}
		snap.Elements.Edges = append(snap.Elements.Edges, EdgeElement{
			Group: groupEdges,
			Data: EdgeData{
				ID:     EdgeID(e.Source, e.Target),
				Source: e.Source,
				Target: e.Target,
				Weight: weight,
			},
		})
	}
	return snap
}
