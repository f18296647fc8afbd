package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSurface struct {
	shown  []Panel
	hidden []Kind
}

func (r *recordingSurface) ShowMenu(p Panel)   { r.shown = append(r.shown, p) }
func (r *recordingSurface) HideMenu(kind Kind) { r.hidden = append(r.hidden, kind) }

func nodeMenu(anchor Point, calls *[]string) Descriptor {
	return Descriptor{
		Kind:   KindNode,
		Anchor: anchor,
		Target: "A",
		Items: []Item{
			{Label: "Rename", Action: func() { *calls = append(*calls, "rename") }},
			{Label: "Delete", Action: func() { *calls = append(*calls, "delete") }},
		},
	}
}

func TestOpenComputesBounds(t *testing.T) {
	surface := &recordingSurface{}
	m := NewManager(Layout{Width: 100, ItemHeight: 20, Padding: 5}, surface)

	var calls []string
	p := m.Open(nodeMenu(Point{X: 30, Y: 40}, &calls))

	assert.Equal(t, Rect{X: 30, Y: 40, Width: 100, Height: 50}, p.Bounds)
	assert.Equal(t, []string{"Rename", "Delete"}, p.Labels)
	require.Len(t, surface.shown, 1)
	assert.Empty(t, surface.hidden)
}

func TestOpenSameKindReplaces(t *testing.T) {
	surface := &recordingSurface{}
	m := NewManager(DefaultLayout, surface)

	var calls []string
	m.Open(nodeMenu(Point{X: 0, Y: 0}, &calls))
	m.Open(nodeMenu(Point{X: 500, Y: 500}, &calls))

	visible := m.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, 500.0, visible[0].Bounds.X)
	assert.Equal(t, []Kind{KindNode}, surface.hidden)
}

func TestKindsTrackedIndependently(t *testing.T) {
	m := NewManager(DefaultLayout, nil)

	var calls []string
	m.Open(nodeMenu(Point{}, &calls))
	m.Open(Descriptor{Kind: KindEdge, Anchor: Point{X: 300, Y: 300}, Items: []Item{{Label: "Delete"}}})

	assert.Len(t, m.Visible(), 2)
	assert.True(t, m.Close(KindEdge))
	assert.False(t, m.Close(KindEdge))
	_, ok := m.Get(KindNode)
	assert.True(t, ok)
}

func TestDismissOutside(t *testing.T) {
	m := NewManager(Layout{Width: 100, ItemHeight: 20, Padding: 0}, nil)

	var calls []string
	m.Open(nodeMenu(Point{X: 10, Y: 10}, &calls))

	inside := Point{X: 50, Y: 30}
	assert.True(t, m.Contains(inside))
	assert.Empty(t, m.DismissOutside(inside))
	assert.Len(t, m.Visible(), 1)

	outside := Point{X: 200, Y: 200}
	assert.False(t, m.Contains(outside))
	assert.Equal(t, []Kind{KindNode}, m.DismissOutside(outside))
	assert.Empty(t, m.Visible())
	assert.Empty(t, calls)
}

func TestChooseRunsExactlyOneAction(t *testing.T) {
	surface := &recordingSurface{}
	m := NewManager(DefaultLayout, surface)

	var calls []string
	m.Open(nodeMenu(Point{}, &calls))

	require.NoError(t, m.Choose(KindNode, 1))
	assert.Equal(t, []string{"delete"}, calls)
	assert.Empty(t, m.Visible())
	assert.Equal(t, []Kind{KindNode}, surface.hidden)

	assert.ErrorIs(t, m.Choose(KindNode, 0), ErrNoMenu)
	assert.Equal(t, []string{"delete"}, calls)
}

func TestChooseOutOfRange(t *testing.T) {
	m := NewManager(DefaultLayout, nil)

	var calls []string
	m.Open(nodeMenu(Point{}, &calls))

	assert.ErrorIs(t, m.Choose(KindNode, 2), ErrNoItem)
	assert.ErrorIs(t, m.Choose(KindNode, -1), ErrNoItem)
	assert.Len(t, m.Visible(), 1, "a bad index leaves the menu open")
}

func TestActionMayReopenMenu(t *testing.T) {
	m := NewManager(DefaultLayout, nil)

	m.Open(Descriptor{Kind: KindEdge, Items: []Item{{
		Label: "Again",
		Action: func() {
			m.Open(Descriptor{Kind: KindEdge, Target: "second"})
		},
	}}})

	require.NoError(t, m.Choose(KindEdge, 0))
	p, ok := m.Get(KindEdge)
	require.True(t, ok)
	assert.Equal(t, "second", p.Target)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("edge-menu")
	require.NoError(t, err)
	assert.Equal(t, KindEdge, k)

	_, err = ParseKind("toolbar")
	assert.Error(t, err)
}
