package graph

import (
	"github.com/teranos/arbor/errors"
)

// Store is the canonical in-memory graph of one editing session.
//
// Elements are kept in the order they were inserted; snapshots reproduce
// that order. A Store is not safe for concurrent use: it is owned by a single
// session and mutated from one goroutine at a time.
type Store struct {
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string

	listeners []func(Change)
	depth     int  // >0 while a composite operation runs
	dirty     bool // a mutation happened inside the current composite
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		nodes: make(map[string]*Node),
		edges: make(map[string]*Edge),
	}
}

// Subscribe registers fn to be called after every mutation, in registration order.
func (s *Store) Subscribe(fn func(Change)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(c Change) {
	if s.depth > 0 {
		s.dirty = true
		return
	}
	for _, fn := range s.listeners {
		fn(c)
	}
}

// batch runs fn as one composite operation: subscribers see a single change
// after fn returns, and only if fn actually mutated something.
func (s *Store) batch(c Change, fn func()) {
	s.depth++
	fn()
	s.depth--
	if s.depth == 0 && s.dirty {
		s.dirty = false
		s.notify(c)
	}
}

// === Nodes ===

// AddNode inserts a node. Duplicate ids are rejected with ErrNodeExists.
func (s *Store) AddNode(id string, pos Position) error {
	if id == "" {
		return ErrInvalidID
	}
	if _, ok := s.nodes[id]; ok {
		return errors.Wrapf(ErrNodeExists, "add node %s", id)
	}
	s.nodes[id] = &Node{ID: id, Position: pos}
	s.nodeOrder = append(s.nodeOrder, id)
	s.notify(Change{Op: OpAddNode, ID: id})
	return nil
}

// Node returns a copy of the node with the given id
func (s *Store) Node(id string) (Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// HasNode reports whether a node with the given id exists
func (s *Store) HasNode(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// Nodes returns copies of all nodes in insertion order
func (s *Store) Nodes() []Node {
	out := make([]Node, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		out = append(out, *s.nodes[id])
	}
	return out
}

// RemoveNode removes a single node. Incident edges are left in place and
// keep referencing the removed id; use RemoveNodeCascade to drop them too.
func (s *Store) RemoveNode(id string) error {
	if _, ok := s.nodes[id]; !ok {
		return errors.Wrapf(ErrNotFound, "remove node %s", id)
	}
	delete(s.nodes, id)
	s.nodeOrder = without(s.nodeOrder, id)
	s.notify(Change{Op: OpRemoveNode, ID: id})
	return nil
}

// RemoveNodeCascade removes a node together with every edge incident to it.
// It returns the removed edges.
func (s *Store) RemoveNodeCascade(id string) ([]Edge, error) {
	if _, ok := s.nodes[id]; !ok {
		return nil, errors.Wrapf(ErrNotFound, "remove node %s", id)
	}
	incident := s.IncidentEdges(id)
	s.batch(Change{Op: OpRemoveNode, ID: id}, func() {
		for _, e := range incident {
			s.removeEdge(e.ID)
		}
		delete(s.nodes, id)
		s.nodeOrder = without(s.nodeOrder, id)
		s.dirty = true
	})
	return incident, nil
}

// RenameNode replaces oldID by newID as one atomic operation.
//
// The node keeps its position and is re-inserted at the end of the node
// order. Every incident edge has the endpoint that equalled oldID rewritten
// to newID and its id re-derived; an edge whose new id is already taken is
// dropped rather than duplicated. If newID names another existing node the
// two nodes merge: newID keeps its own position and gains oldID's edges.
func (s *Store) RenameNode(oldID, newID string) error {
	if newID == "" {
		return ErrInvalidID
	}
	old, ok := s.nodes[oldID]
	if !ok {
		return errors.Wrapf(ErrNotFound, "rename node %s", oldID)
	}
	if oldID == newID {
		return nil
	}

	pos := old.Position
	incident := s.IncidentEdges(oldID)

	s.batch(Change{Op: OpRenameNode, ID: newID}, func() {
		for _, e := range incident {
			s.removeEdge(e.ID)
		}
		delete(s.nodes, oldID)
		s.nodeOrder = without(s.nodeOrder, oldID)

		if _, exists := s.nodes[newID]; !exists {
			s.nodes[newID] = &Node{ID: newID, Position: pos}
			s.nodeOrder = append(s.nodeOrder, newID)
		}

		for _, e := range incident {
			if e.Source == oldID {
				e.Source = newID
			}
			if e.Target == oldID {
				e.Target = newID
			}
			e.ID = EdgeID(e.Source, e.Target)
			if _, dup := s.edges[e.ID]; dup {
				continue
			}
			s.insertEdge(e)
		}
		s.dirty = true
	})
	return nil
}

// === Edges ===

// AddEdge inserts the edge source→target. An edge with the same derived id
// makes the call a no-op reported as ErrEdgeExists; a missing endpoint is
// reported as ErrMissingEndpoint.
func (s *Store) AddEdge(source, target string, weight Weight) error {
	id := EdgeID(source, target)
	if _, ok := s.edges[id]; ok {
		return errors.Wrapf(ErrEdgeExists, "add edge %s", id)
	}
	if !s.HasNode(source) || !s.HasNode(target) {
		return errors.Wrapf(ErrMissingEndpoint, "add edge %s", id)
	}
	s.insertEdge(Edge{ID: id, Source: source, Target: target, Weight: weight})
	s.notify(Change{Op: OpAddEdge, ID: id})
	return nil
}

func (s *Store) insertEdge(e Edge) {
	s.edges[e.ID] = &e
	s.edgeOrder = append(s.edgeOrder, e.ID)
}

// Edge returns a copy of the edge with the given id
func (s *Store) Edge(id string) (Edge, bool) {
	e, ok := s.edges[id]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Edges returns copies of all edges in insertion order
func (s *Store) Edges() []Edge {
	out := make([]Edge, 0, len(s.edgeOrder))
	for _, id := range s.edgeOrder {
		out = append(out, *s.edges[id])
	}
	return out
}

// IncidentEdges returns the edges that have id as source or target
func (s *Store) IncidentEdges(id string) []Edge {
	var out []Edge
	for _, eid := range s.edgeOrder {
		e := s.edges[eid]
		if e.Source == id || e.Target == id {
			out = append(out, *e)
		}
	}
	return out
}

// SetEdgeWeight updates a weight in place; the edge id is unchanged.
func (s *Store) SetEdgeWeight(id string, weight Weight) error {
	e, ok := s.edges[id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "set weight of edge %s", id)
	}
	e.Weight = weight
	s.notify(Change{Op: OpSetWeight, ID: id})
	return nil
}

// RemoveEdge removes an edge
func (s *Store) RemoveEdge(id string) error {
	if _, ok := s.edges[id]; !ok {
		return errors.Wrapf(ErrNotFound, "remove edge %s", id)
	}
	s.removeEdge(id)
	s.notify(Change{Op: OpRemoveEdge, ID: id})
	return nil
}

func (s *Store) removeEdge(id string) {
	delete(s.edges, id)
	s.edgeOrder = without(s.edgeOrder, id)
}

// === Whole-graph operations ===

// Len returns the number of nodes and edges
func (s *Store) Len() (nodes, edges int) {
	return len(s.nodeOrder), len(s.edgeOrder)
}

// Clear removes every element
func (s *Store) Clear() {
	if len(s.nodeOrder) == 0 && len(s.edgeOrder) == 0 {
		return
	}
	s.batch(Change{Op: OpClear}, func() {
		s.nodes = make(map[string]*Node)
		s.edges = make(map[string]*Edge)
		s.nodeOrder = nil
		s.edgeOrder = nil
		s.dirty = true
	})
}

// Load replaces the store contents with the elements of snap. The snapshot
// is validated first; on error the store is left untouched. Edge ids are
// re-derived from their endpoints and duplicates are dropped.
func (s *Store) Load(snap Snapshot) error {
	next := NewStore()
	for _, n := range snap.Elements.Nodes {
		if err := next.AddNode(n.Data.ID, n.Position); err != nil {
			return errors.Wrap(err, "load snapshot")
		}
	}
	for _, e := range snap.Elements.Edges {
		err := next.AddEdge(e.Data.Source, e.Data.Target, e.Data.Weight)
		if errors.Is(err, ErrEdgeExists) {
			continue
		}
		if err != nil {
			return errors.Wrap(err, "load snapshot")
		}
	}

	s.batch(Change{Op: OpLoad}, func() {
		s.nodes, s.nodeOrder = next.nodes, next.nodeOrder
		s.edges, s.edgeOrder = next.edges, next.edgeOrder
		s.dirty = true
	})
	return nil
}

func without(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
