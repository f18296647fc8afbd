package graph

// NodeLink is the node-link document downstream solvers load, with weights
// already coerced to numbers.
type NodeLink struct {
	Directed   bool           `json:"directed"`
	Multigraph bool           `json:"multigraph"`
	Graph      map[string]any `json:"graph"`
	Nodes      []NodeLinkNode `json:"nodes"`
	Links      []NodeLinkLink `json:"links"`
}

// NodeLinkNode is one node of a NodeLink document
type NodeLinkNode struct {
	ID string `json:"id"`
}

// NodeLinkLink is one directed link of a NodeLink document
type NodeLinkLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	W      float64 `json:"w"`
}

// ToNodeLink converts a snapshot for export. Edges whose endpoints are not
// in the snapshot are skipped.
func (s Snapshot) ToNodeLink() NodeLink {
	doc := NodeLink{
		Directed: true,
		Graph:    map[string]any{},
		Nodes:    make([]NodeLinkNode, 0, len(s.Elements.Nodes)),
		Links:    make([]NodeLinkLink, 0, len(s.Elements.Edges)),
	}
	present := make(map[string]bool, len(s.Elements.Nodes))
	for _, n := range s.Elements.Nodes {
		present[n.Data.ID] = true
		doc.Nodes = append(doc.Nodes, NodeLinkNode{ID: n.Data.ID})
	}
	for _, e := range s.Elements.Edges {
		if !present[e.Data.Source] || !present[e.Data.Target] {
			continue
		}
		doc.Links = append(doc.Links, NodeLinkLink{
			Source: e.Data.Source,
			Target: e.Data.Target,
			W:      e.Data.Weight.Float(),
		})
	}
	return doc
}
