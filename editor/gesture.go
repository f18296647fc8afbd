package editor

import (
	"github.com/teranos/arbor/editor/menu"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/graph"
)

// GestureKind is one of the pointer interactions the editor understands
type GestureKind string

const (
	Tap        GestureKind = "tap"
	DoubleTap  GestureKind = "dbltap"
	ContextTap GestureKind = "cxttap"
)

// Group says what a gesture landed on
type Group string

const (
	OnBackground Group = "background"
	OnNode       Group = "node"
	OnEdge       Group = "edge"
)

// Target is the element under the pointer
type Target struct {
	Group Group  `json:"group"`
	ID    string `json:"id,omitempty"`
}

// Background targets the empty canvas
func Background() Target { return Target{Group: OnBackground} }

// NodeTarget targets a node
func NodeTarget(id string) Target { return Target{Group: OnNode, ID: id} }

// EdgeTarget targets an edge
func EdgeTarget(id string) Target { return Target{Group: OnEdge, ID: id} }

// Gesture is a single pointer event delivered by the rendering surface.
// Position is in graph coordinates (where a new node goes); Rendered is in
// screen coordinates (where menus are anchored and hit-tested). A gesture
// addressed by element id alone has no Rendered point.
type Gesture struct {
	Kind     GestureKind    `json:"kind"`
	Target   Target         `json:"target"`
	Position graph.Position `json:"position"`
	Rendered *menu.Point    `json:"rendered,omitempty"`
}

// At returns g with its screen point set to (x, y)
func (g Gesture) At(x, y float64) Gesture {
	g.Rendered = &menu.Point{X: x, Y: y}
	return g
}

// anchor is where a menu opened by g goes; the origin without a screen point
func (g Gesture) anchor() menu.Point {
	if g.Rendered == nil {
		return menu.Point{}
	}
	return *g.Rendered
}

// ErrUnknownGesture rejects gestures outside the closed set
var ErrUnknownGesture = errors.Mark(errors.New("unknown gesture"), errors.ErrInvalidRequest)

// Validate checks kind and target group
func (g Gesture) Validate() error {
	switch g.Kind {
	case Tap, DoubleTap, ContextTap:
	default:
		return errors.Wrapf(ErrUnknownGesture, "kind %q", g.Kind)
	}
	switch g.Target.Group {
	case OnBackground:
	case OnNode, OnEdge:
		if g.Target.ID == "" {
			return errors.Wrapf(ErrUnknownGesture, "%s target without id", g.Target.Group)
		}
	default:
		return errors.Wrapf(ErrUnknownGesture, "target group %q", g.Target.Group)
	}
	return nil
}
