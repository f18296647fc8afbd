package editor

import "github.com/teranos/arbor/editor/menu"

// View is the rendering surface's side of the session: it draws selection
// highlights and menu panels. Graph elements themselves are drawn from the
// published snapshots.
type View interface {
	menu.Surface
	Highlight(nodeID string, on bool)
}

// NopView discards all visual updates
type NopView struct{}

func (NopView) Highlight(string, bool) {}
func (NopView) ShowMenu(menu.Panel)    {}
func (NopView) HideMenu(menu.Kind)     {}
