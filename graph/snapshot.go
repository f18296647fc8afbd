package graph

import (
	"bytes"
	"encoding/json"

	"github.com/teranos/arbor/errors"
)

// Snapshot is the serialized form of a graph, shaped like the element list
// of a cytoscape instance: {"elements":{"nodes":[...],"edges":[...]}}.
type Snapshot struct {
	Elements Elements `json:"elements"`
}

// Elements groups nodes and edges, each in store order
type Elements struct {
	Nodes []NodeElement `json:"nodes"`
	Edges []EdgeElement `json:"edges"`
}

// NodeElement is one serialized node
type NodeElement struct {
	Group    string   `json:"group"`
	Data     NodeData `json:"data"`
	Position Position `json:"position"`
}

// NodeData carries the node's identity
type NodeData struct {
	ID string `json:"id"`
}

// EdgeElement is one serialized edge
type EdgeElement struct {
	Group string   `json:"group"`
	Data  EdgeData `json:"data"`
}

// EdgeData carries the edge's identity, endpoints and weight
type EdgeData struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Weight Weight `json:"weight"`
}

const (
	groupNodes = "nodes"
	groupEdges = "edges"
)

// Snapshot returns an independent copy of the current graph
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{Elements: Elements{
		Nodes: make([]NodeElement, 0, len(s.nodeOrder)),
		Edges: make([]EdgeElement, 0, len(s.edgeOrder)),
	}}
	for _, id := range s.nodeOrder {
		n := s.nodes[id]
		snap.Elements.Nodes = append(snap.Elements.Nodes, NodeElement{
			Group:    groupNodes,
			Data:     NodeData{ID: n.ID},
			Position: n.Position,
		})
	}
	for _, id := range s.edgeOrder {
		e := s.edges[id]
		snap.Elements.Edges = append(snap.Elements.Edges, EdgeElement{
			Group: groupEdges,
			Data:  EdgeData{ID: e.ID, Source: e.Source, Target: e.Target, Weight: e.Weight},
		})
	}
	return snap
}

// NodeCount returns the number of serialized nodes
func (s Snapshot) NodeCount() int { return len(s.Elements.Nodes) }

// EdgeCount returns the number of serialized edges
func (s Snapshot) EdgeCount() int { return len(s.Elements.Edges) }

// ParseSnapshot decodes a snapshot. Besides the {"elements":{...}} form it
// accepts the bare {"nodes":[...],"edges":[...]} form. Edges without a weight
// get DefaultWeight.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var raw struct {
		Elements *rawElements `json:"elements"`
		rawElements
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return Snapshot{}, errors.Mark(errors.Wrap(err, "decode snapshot"), errors.ErrInvalidRequest)
	}
	elems := raw.rawElements
	if raw.Elements != nil {
		elems = *raw.Elements
	}

	var snap Snapshot
	snap.Elements.Nodes = make([]NodeElement, 0, len(elems.Nodes))
	snap.Elements.Edges = make([]EdgeElement, 0, len(elems.Edges))
	for _, n := range elems.Nodes {
		snap.Elements.Nodes = append(snap.Elements.Nodes, NodeElement{
			Group:    groupNodes,
			Data:     NodeData{ID: n.Data.ID},
			Position: n.Position,
		})
	}
	for _, e := range elems.Edges {
		weight := DefaultWeight
		if e.Data.Weight != nil {
			weight = *e.Data.Weight
		}
		snap.Elements.Edges = append(snap.Elements.Edges, EdgeElement{
			Group: groupEdges,
			Data: EdgeData{
				ID:     EdgeID(e.Data.Source, e.Data.Target),
				Source: e.Data.Source,
				Target: e.Data.Target,
				Weight: weight,
			},
		})
	}
	return snap, nil
}

type rawElements struct {
	Nodes []struct {
		Data     NodeData `json:"data"`
		Position Position `json:"position"`
	} `json:"nodes"`
	Edges []struct {
		Data struct {
			Source string  `json:"source"`
			Target string  `json:"target"`
			Weight *Weight `json:"weight"`
		} `json:"data"`
	} `json:"edges"`
}
