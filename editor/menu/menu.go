// Package menu manages the floating context menus of the graph editor.
//
// A menu is described declaratively (kind, anchor, ordered actions); the
// Manager owns its lifecycle and hands panels to a Surface for drawing.
// At most one panel of each kind exists at a time.
package menu

import (
	"sync"

	"github.com/teranos/arbor/errors"
)

// Kind identifies a menu slot. Each kind doubles as the fixed element id of
// its panel on the drawing surface.
type Kind string

const (
	KindNode Kind = "node-menu"
	KindEdge Kind = "edge-menu"
)

// ParseKind validates a kind received from a client
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindNode, KindEdge:
		return Kind(s), nil
	}
	return "", errors.NewInvalidRequestError("unknown menu kind %q", s)
}

var (
	ErrNoMenu = errors.Mark(errors.New("menu is not open"), errors.ErrNotFound)
	ErrNoItem = errors.Mark(errors.New("menu item does not exist"), errors.ErrNotFound)
)

// Point is a screen coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Item is one labeled action
type Item struct {
	Label  string
	Action func()
}

// Descriptor is what a caller asks for: which menu, where, for which element.
type Descriptor struct {
	Kind   Kind
	Anchor Point
	Target string
	Items  []Item
}

// Rect is an axis-aligned screen rectangle
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether p lies inside r (edges included)
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Panel is an open menu as handed to the Surface
type Panel struct {
	Kind   Kind     `json:"kind"`
	Target string   `json:"target"`
	Bounds Rect     `json:"bounds"`
	Labels []string `json:"labels"`
}

// Layout sizes panels
type Layout struct {
	Width      float64
	ItemHeight float64
	Padding    float64
}

// DefaultLayout matches the editor's stylesheet
var DefaultLayout = Layout{Width: 140, ItemHeight: 28, Padding: 4}

// Surface draws and removes panels
type Surface interface {
	ShowMenu(p Panel)
	HideMenu(kind Kind)
}

type nopSurface struct{}

func (nopSurface) ShowMenu(Panel) {}
func (nopSurface) HideMenu(Kind)  {}

type openMenu struct {
	panel Panel
	items []Item
}

// Manager tracks open menus. It is safe for concurrent use: dismissal is
// driven by a pointer listener that may run while a menu action blocks.
type Manager struct {
	mu      sync.Mutex
	layout  Layout
	surface Surface
	open    map[Kind]*openMenu
}

// NewManager creates a manager. A nil surface discards drawing calls.
func NewManager(layout Layout, surface Surface) *Manager {
	if surface == nil {
		surface = nopSurface{}
	}
	return &Manager{
		layout:  layout,
		surface: surface,
		open:    make(map[Kind]*openMenu),
	}
}

// Open closes any menu of the same kind and shows d anchored at its point.
func (m *Manager) Open(d Descriptor) Panel {
	labels := make([]string, len(d.Items))
	for i, it := range d.Items {
		labels[i] = it.Label
	}
	panel := Panel{
		Kind:   d.Kind,
		Target: d.Target,
		Bounds: Rect{
			X:      d.Anchor.X,
			Y:      d.Anchor.Y,
			Width:  m.layout.Width,
			Height: float64(len(d.Items))*m.layout.ItemHeight + 2*m.layout.Padding,
		},
		Labels: labels,
	}

	m.mu.Lock()
	_, replaced := m.open[d.Kind]
	m.open[d.Kind] = &openMenu{panel: panel, items: append([]Item(nil), d.Items...)}
	m.mu.Unlock()

	if replaced {
		m.surface.HideMenu(d.Kind)
	}
	m.surface.ShowMenu(panel)
	return panel
}

// Get returns the open panel of a kind
func (m *Manager) Get(kind Kind) (Panel, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	om, ok := m.open[kind]
	if !ok {
		return Panel{}, false
	}
	return om.panel, true
}

// Visible returns the open panels, node menu first
func (m *Manager) Visible() []Panel {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Panel
	for _, k := range []Kind{KindNode, KindEdge} {
		if om, ok := m.open[k]; ok {
			out = append(out, om.panel)
		}
	}
	return out
}

// Contains reports whether p falls inside any open panel. Pointer events
// inside a panel belong to the menu and must not reach the canvas.
func (m *Manager) Contains(p Point) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, om := range m.open {
		if om.panel.Bounds.Contains(p) {
			return true
		}
	}
	return false
}

// DismissOutside closes every panel that does not contain p and returns
// the kinds it closed.
func (m *Manager) DismissOutside(p Point) []Kind {
	var closed []Kind
	m.mu.Lock()
	for _, k := range []Kind{KindNode, KindEdge} {
		if om, ok := m.open[k]; ok && !om.panel.Bounds.Contains(p) {
			delete(m.open, k)
			closed = append(closed, k)
		}
	}
	m.mu.Unlock()

	for _, k := range closed {
		m.surface.HideMenu(k)
	}
	return closed
}

// Close removes the panel of a kind, if open
func (m *Manager) Close(kind Kind) bool {
	m.mu.Lock()
	_, ok := m.open[kind]
	delete(m.open, kind)
	m.mu.Unlock()

	if ok {
		m.surface.HideMenu(kind)
	}
	return ok
}

// CloseAll removes every panel
func (m *Manager) CloseAll() {
	for _, k := range []Kind{KindNode, KindEdge} {
		m.Close(k)
	}
}

// Choose closes the panel and runs the action at index. The action runs
// after the panel is gone and outside the manager's lock.
func (m *Manager) Choose(kind Kind, index int) error {
	m.mu.Lock()
	om, ok := m.open[kind]
	if !ok {
		m.mu.Unlock()
		return errors.Wrapf(ErrNoMenu, "choose from %s", kind)
	}
	if index < 0 || index >= len(om.items) {
		m.mu.Unlock()
		return errors.Wrapf(ErrNoItem, "choose item %d from %s", index, kind)
	}
	action := om.items[index].Action
	delete(m.open, kind)
	m.mu.Unlock()

	m.surface.HideMenu(kind)
	if action != nil {
		action()
	}
	return nil
}
