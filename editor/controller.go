package editor

import (
	"fmt"

	"github.com/teranos/arbor/editor/menu"
	"github.com/teranos/arbor/graph"
	"github.com/teranos/arbor/logger"
)

// Prompt messages
const (
	PromptEdgeWeight = "Edge weight"
	PromptRename     = "New name"
	PromptEditWeight = "New weight"
)

// Menu item labels, in display order
const (
	LabelRename     = "Rename"
	LabelDelete     = "Delete"
	LabelEditWeight = "Edit weight"
)

// PointerDown is the document-level dismissal listener. It reports whether
// p fell inside an open menu, in which case the event is consumed;
// otherwise every menu is closed. Safe to call while a prompt is blocking
// the session.
func (s *Session) PointerDown(p menu.Point) bool {
	if s.menus.Contains(p) {
		return true
	}
	if closed := s.menus.DismissOutside(p); len(closed) > 0 {
		s.logger.Debugw("Menus dismissed", logger.FieldCount, len(closed))
	}
	return false
}

// Handle applies one gesture. Invalid mutations and stale targets are
// ignored; only a malformed gesture is an error.
func (s *Session) Handle(g Gesture) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if g.Rendered == nil {
		// Nothing to hit-test; the gesture is outside every menu
		s.menus.CloseAll()
	} else if s.PointerDown(*g.Rendered) {
		return nil
	}

	switch g.Kind {
	case Tap:
		switch g.Target.Group {
		case OnBackground:
			s.createNode(g.Position)
		case OnNode:
			s.tapNode(g.Target.ID)
		}
	case DoubleTap:
		if g.Target.Group == OnNode {
			s.rename(g.Target.ID)
		}
	case ContextTap:
		switch g.Target.Group {
		case OnNode:
			s.openNodeMenu(g.Target.ID, g.anchor())
		case OnEdge:
			s.openEdgeMenu(g.Target.ID, g.anchor())
		}
	}
	return nil
}

// ChooseMenuItem picks an item from an open menu
func (s *Session) ChooseMenuItem(kind menu.Kind, index int) error {
	return s.menus.Choose(kind, index)
}

// createNode adds N<k> for the first k not taken, so renaming a node to a
// future id never makes a canvas tap a no-op.
func (s *Session) createNode(pos graph.Position) {
	id := fmt.Sprintf("N%d", s.nextNode)
	for s.store.HasNode(id) {
		s.nextNode++
		id = fmt.Sprintf("N%d", s.nextNode)
	}
	s.nextNode++
	if err := s.store.AddNode(id, pos); err != nil {
		s.logger.Debugw("Node not created", logger.FieldNode, id, logger.FieldError, err)
	}
}

func (s *Session) tapNode(id string) {
	if !s.store.HasNode(id) {
		return
	}
	switch s.selected {
	case "":
		s.selected = id
		s.view.Highlight(id, true)
	case id:
		s.clearSelection()
	default:
		source := s.selected
		weight, ok := s.prompter.Prompt(PromptEdgeWeight, string(graph.DefaultWeight))
		s.clearSelection()
		if !ok {
			return
		}
		if err := s.store.AddEdge(source, id, graph.Weight(weight)); err != nil {
			s.logger.Debugw("Edge not created", logger.FieldEdge, graph.EdgeID(source, id), logger.FieldError, err)
		}
	}
}

func (s *Session) clearSelection() {
	if s.selected == "" {
		return
	}
	s.view.Highlight(s.selected, false)
	s.selected = ""
}

func (s *Session) rename(id string) {
	if !s.store.HasNode(id) {
		return
	}
	name, ok := s.prompter.Prompt(PromptRename, id)
	if !ok || name == "" || name == id {
		return
	}
	if err := s.store.RenameNode(id, name); err != nil {
		s.logger.Debugw("Rename failed", logger.FieldNode, id, logger.FieldError, err)
		return
	}
	if s.selected == id {
		s.view.Highlight(id, false)
		s.selected = name
		s.view.Highlight(name, true)
	}
	s.logger.Debugw("Node renamed", logger.FieldNode, name, "from", id)
}

func (s *Session) deleteNode(id string) {
	removed, err := s.store.RemoveNodeCascade(id)
	if err != nil {
		s.logger.Debugw("Delete failed", logger.FieldNode, id, logger.FieldError, err)
		return
	}
	if s.selected == id {
		s.clearSelection()
	}
	s.logger.Debugw("Node deleted", logger.FieldNode, id, logger.FieldEdges, len(removed))
}

func (s *Session) editWeight(id string) {
	e, ok := s.store.Edge(id)
	if !ok {
		return
	}
	weight, ok := s.prompter.Prompt(PromptEditWeight, string(e.Weight))
	if !ok {
		return
	}
	if err := s.store.SetEdgeWeight(id, graph.Weight(weight)); err != nil {
		s.logger.Debugw("Weight not set", logger.FieldEdge, id, logger.FieldError, err)
	}
}

func (s *Session) deleteEdge(id string) {
	if err := s.store.RemoveEdge(id); err != nil {
		s.logger.Debugw("Delete failed", logger.FieldEdge, id, logger.FieldError, err)
	}
}

func (s *Session) openNodeMenu(id string, at menu.Point) {
	if !s.store.HasNode(id) {
		return
	}
	s.menus.Open(menu.Descriptor{
		Kind:   menu.KindNode,
		Anchor: at,
		Target: id,
		Items: []menu.Item{
			{Label: LabelRename, Action: func() { s.rename(id) }},
			{Label: LabelDelete, Action: func() { s.deleteNode(id) }},
		},
	})
}

func (s *Session) openEdgeMenu(id string, at menu.Point) {
	if _, ok := s.store.Edge(id); !ok {
		return
	}
	s.menus.Open(menu.Descriptor{
		Kind:   menu.KindEdge,
		Anchor: at,
		Target: id,
		Items: []menu.Item{
			{Label: LabelEditWeight, Action: func() { s.editWeight(id) }},
			{Label: LabelDelete, Action: func() { s.deleteEdge(id) }},
		},
	})
}
