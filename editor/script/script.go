// Package script replays recorded editing sessions written in YAML.
//
//	name: connect two nodes
//	steps:
//	  - tap: {x: 10, y: 10}
//	  - tap: {x: 50, y: 50}
//	  - tap: N1
//	  - tap: N2
//	  - answer: "7"
//	  - cxttap: {edge: eN1_N2, x: 300, y: 300}
//	  - choose: {menu: edge-menu, item: 0}
//	  - answer: "3"
//	  - expect: {nodes: 2, edges: 1}
//
// Answer and cancel steps reply to the prompt raised by the gesture or
// menu choice right before them.
package script

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teranos/arbor/editor"
	"github.com/teranos/arbor/editor/menu"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/graph"
	"github.com/teranos/arbor/logger"
)

// Script is a named list of steps
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step holds exactly one action
type Step struct {
	Tap     *Point       `yaml:"tap,omitempty"`
	DblTap  *Point       `yaml:"dbltap,omitempty"`
	CxtTap  *Point       `yaml:"cxttap,omitempty"`
	Choose  *Choice      `yaml:"choose,omitempty"`
	Pointer *Point       `yaml:"pointer,omitempty"`
	Answer  *string      `yaml:"answer,omitempty"`
	Cancel  bool         `yaml:"cancel,omitempty"`
	Reset   bool         `yaml:"reset,omitempty"`
	Expect  *Expectation `yaml:"expect,omitempty"`
}

// Point is where a gesture lands: a canvas coordinate, a node or an edge.
// A bare scalar is shorthand for a node id.
type Point struct {
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Node string  `yaml:"node,omitempty"`
	Edge string  `yaml:"edge,omitempty"`

	hasXY bool
}

// UnmarshalYAML accepts `N1` as well as `{node: N1}`
func (p *Point) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		p.Node = value.Value
		return nil
	}
	type plain Point
	if err := value.Decode((*plain)(p)); err != nil {
		return err
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if k := value.Content[i].Value; k == "x" || k == "y" {
			p.hasXY = true
		}
	}
	return nil
}

// Choice picks a menu item
type Choice struct {
	Menu string `yaml:"menu"`
	Item int    `yaml:"item"`
}

// Expectation checks the graph; unset fields are not checked
type Expectation struct {
	Nodes    *int     `yaml:"nodes,omitempty"`
	Edges    *int     `yaml:"edges,omitempty"`
	Has      []string `yaml:"has,omitempty"`
	Missing  []string `yaml:"missing,omitempty"`
	Selected *string  `yaml:"selected,omitempty"`
}

// ErrExpectation reports a failed expect step
var ErrExpectation = errors.New("expectation failed")

// Parse decodes a script
func Parse(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, errors.Mark(errors.Wrap(err, "parse script"), errors.ErrInvalidRequest)
	}
	for i, step := range s.Steps {
		if n := step.actions(); n != 1 {
			return Script{}, errors.NewInvalidRequestError("step %d has %d actions, want 1", i+1, n)
		}
	}
	return s, nil
}

// Load reads and parses a script file
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, errors.Wrapf(err, "read script %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return Script{}, errors.Wrapf(err, "script %s", path)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

func (st Step) actions() int {
	n := 0
	for _, set := range []bool{
		st.Tap != nil, st.DblTap != nil, st.CxtTap != nil, st.Choose != nil,
		st.Pointer != nil, st.Answer != nil, st.Cancel, st.Reset, st.Expect != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

func (st Step) isReply() bool {
	return st.Answer != nil || st.Cancel
}

// Run replays script against s. The session's prompter is replaced by one
// fed from the script's answer and cancel steps; replies a step did not
// consume are discarded with a warning.
func Run(s *editor.Session, sc Script) error {
	log := logger.SessionLogger("script", s.ID())
	prompter := editor.NewScriptedPrompter()
	s.SetPrompter(prompter)

	for i := 0; i < len(sc.Steps); i++ {
		step := sc.Steps[i]
		if step.isReply() {
			return errors.NewInvalidRequestError("step %d: reply without a preceding gesture", i+1)
		}

		j := i + 1
		for ; j < len(sc.Steps) && sc.Steps[j].isReply(); j++ {
			if sc.Steps[j].Cancel {
				prompter.Cancel()
			} else {
				prompter.Answer(*sc.Steps[j].Answer)
			}
		}

		if err := apply(s, step); err != nil {
			return errors.Wrapf(err, "step %d", i+1)
		}
		if unused := prompter.Drain(); unused > 0 {
			log.Warnw("Unused prompt replies", "step", i+1, logger.FieldCount, unused)
		}
		i = j - 1
	}

	n, e := s.Store().Len()
	log.Infow("Script replayed", "script", sc.Name, "steps", len(sc.Steps), logger.FieldNodes, n, logger.FieldEdges, e)
	return nil
}

func apply(s *editor.Session, st Step) error {
	switch {
	case st.Tap != nil:
		return s.Handle(gesture(editor.Tap, *st.Tap))
	case st.DblTap != nil:
		return s.Handle(gesture(editor.DoubleTap, *st.DblTap))
	case st.CxtTap != nil:
		return s.Handle(gesture(editor.ContextTap, *st.CxtTap))
	case st.Choose != nil:
		kind, err := menu.ParseKind(st.Choose.Menu)
		if err != nil {
			return err
		}
		return s.ChooseMenuItem(kind, st.Choose.Item)
	case st.Pointer != nil:
		s.PointerDown(menu.Point{X: st.Pointer.X, Y: st.Pointer.Y})
		return nil
	case st.Reset:
		s.Reset()
		return nil
	case st.Expect != nil:
		return check(s, *st.Expect)
	}
	return nil
}

func gesture(kind editor.GestureKind, p Point) editor.Gesture {
	g := editor.Gesture{
		Kind:     kind,
		Target:   editor.Background(),
		Position: graph.Position{X: p.X, Y: p.Y},
	}
	switch {
	case p.Node != "":
		g.Target = editor.NodeTarget(p.Node)
	case p.Edge != "":
		g.Target = editor.EdgeTarget(p.Edge)
	}
	if p.hasXY || g.Target.Group == editor.OnBackground {
		g = g.At(p.X, p.Y)
	}
	return g
}

func check(s *editor.Session, ex Expectation) error {
	nodes, edges := s.Store().Len()
	if ex.Nodes != nil && *ex.Nodes != nodes {
		return errors.Wrapf(ErrExpectation, "%d nodes, want %d", nodes, *ex.Nodes)
	}
	if ex.Edges != nil && *ex.Edges != edges {
		return errors.Wrapf(ErrExpectation, "%d edges, want %d", edges, *ex.Edges)
	}
	for _, id := range ex.Has {
		if !exists(s.Store(), id) {
			return errors.Wrapf(ErrExpectation, "%s is missing", id)
		}
	}
	for _, id := range ex.Missing {
		if exists(s.Store(), id) {
			return errors.Wrapf(ErrExpectation, "%s still exists", id)
		}
	}
	if ex.Selected != nil {
		got, _ := s.Selected()
		if got != *ex.Selected {
			return errors.Wrapf(ErrExpectation, "selected %q, want %q", got, *ex.Selected)
		}
	}
	return nil
}

func exists(g *graph.Store, id string) bool {
	if g.HasNode(id) {
		return true
	}
	_, ok := g.Edge(id)
	return ok
}
