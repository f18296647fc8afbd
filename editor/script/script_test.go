package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/arbor/editor"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/graph"
	"github.com/teranos/arbor/snapshot"
)

func newSession(t *testing.T, pub ...snapshot.Publisher) *editor.Session {
	t.Helper()
	s, err := editor.New(editor.WithID("script"), editor.WithPublishers(pub...))
	require.NoError(t, err)
	return s
}

func TestRunScenarioFile(t *testing.T) {
	sc, err := Load("testdata/scenario.yaml")
	require.NoError(t, err)
	assert.Equal(t, "draw, rename, reweight, delete", sc.Name)

	var weights []graph.Weight
	s := newSession(t, snapshot.PublisherFunc(func(rec snapshot.Record) error {
		snap, err := graph.ParseSnapshot(rec.Data)
		if err != nil {
			return err
		}
		for _, e := range snap.Elements.Edges {
			weights = append(weights, e.Data.Weight)
		}
		return nil
	}))

	require.NoError(t, Run(s, sc))
	assert.Equal(t, []string{"N2"}, []string{s.Store().Nodes()[0].ID})
	assert.Contains(t, weights, graph.Weight("3"), "weight edit was published")
}

func TestReplyShorthandAndCancel(t *testing.T) {
	sc, err := Parse([]byte(`
steps:
  - tap: {x: 0, y: 0}
  - tap: {x: 1, y: 1}
  - tap: {node: N1}
  - tap: N2
  - cancel: true
  - expect: {edges: 0, selected: ""}
  - dbltap: N2
  - answer: ""
  - expect: {has: [N2]}
`))
	require.NoError(t, err)
	require.NoError(t, Run(newSession(t), sc))
}

func TestUnusedRepliesAreDiscarded(t *testing.T) {
	sc, err := Parse([]byte(`
steps:
  - tap: {x: 0, y: 0}
  - answer: "stray"
  - tap: {x: 1, y: 1}
  - tap: N1
  - tap: N2
  - expect: {edges: 0}
`))
	require.NoError(t, err)
	require.NoError(t, Run(newSession(t), sc))
}

func TestFailedExpectation(t *testing.T) {
	sc, err := Parse([]byte(`
steps:
  - tap: {x: 0, y: 0}
  - expect: {nodes: 2}
`))
	require.NoError(t, err)

	err = Run(newSession(t), sc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExpectation)
	assert.Contains(t, err.Error(), "step 2")
}

func TestReset(t *testing.T) {
	sc, err := Parse([]byte(`
steps:
  - tap: {x: 0, y: 0}
  - tap: {x: 0, y: 0}
  - reset: true
  - tap: {x: 0, y: 0}
  - expect: {nodes: 1, has: [N1]}
`))
	require.NoError(t, err)
	require.NoError(t, Run(newSession(t), sc))
}

func TestPointerDismissesMenu(t *testing.T) {
	sc, err := Parse([]byte(`
steps:
  - tap: {x: 0, y: 0}
  - cxttap: {node: N1, x: 300, y: 300}
  - pointer: {x: 0, y: 0}
  - choose: {menu: node-menu, item: 1}
`))
	require.NoError(t, err)

	err = Run(newSession(t), sc)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestTapByIDAfterContextMenu(t *testing.T) {
	sc, err := Parse([]byte(`
steps:
  - tap: {x: 300, y: 300}
  - tap: {x: 400, y: 400}
  - cxttap: N1
  - tap: N2
  - expect: {selected: N2}
  - tap: {x: 10, y: 10}
  - expect: {nodes: 3}
`))
	require.NoError(t, err)
	require.NoError(t, Run(newSession(t), sc))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("steps: [{tap: {x: 1}, reset: true}]"))
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = Parse([]byte("steps: {"))
	assert.True(t, errors.IsInvalidRequestError(err))

	sc, err := Parse([]byte("steps: [{answer: x}]"))
	require.NoError(t, err)
	assert.Error(t, Run(newSession(t), sc))

	sc, err = Parse([]byte("steps: [{choose: {menu: side-menu, item: 0}}]"))
	require.NoError(t, err)
	assert.Error(t, Run(newSession(t), sc))

	_, err = Load("testdata/missing.yaml")
	assert.Error(t, err)
}
