// Package editor is the interaction side of a graph editing session: it
// turns pointer gestures into graph mutations, owns the selection and the
// context menus, and keeps the published snapshot current.
package editor

import (
	"regexp"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/arbor/editor/menu"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/graph"
	"github.com/teranos/arbor/logger"
	"github.com/teranos/arbor/snapshot"
)

// Session is one editor instance. Everything that would otherwise be global
// (node counter, selection, latest snapshot) lives here.
//
// A Session is not safe for concurrent use except for PointerDown, which
// only touches the menu manager. Wrap it in an Actor when several
// goroutines deliver gestures.
type Session struct {
	id       string
	store    *graph.Store
	menus    *menu.Manager
	exporter *snapshot.Exporter
	prompter Prompter
	view     View
	logger   *zap.SugaredLogger

	nextNode int
	selected string
	seed     *graph.Node
}

type config struct {
	id         string
	prompter   Prompter
	view       View
	layout     menu.Layout
	publishers []snapshot.Publisher
	logger     *zap.SugaredLogger
	seed       *graph.Node
	initial    *graph.Snapshot
}

// Option configures a Session
type Option func(*config)

// WithID sets the session id; a random one is generated otherwise
func WithID(id string) Option {
	return func(c *config) { c.id = id }
}

// WithPrompter sets the blocking text input used for weights and names
func WithPrompter(p Prompter) Option {
	return func(c *config) { c.prompter = p }
}

// WithView sets the rendering surface
func WithView(v View) Option {
	return func(c *config) { c.view = v }
}

// WithMenuLayout sets menu panel geometry
func WithMenuLayout(l menu.Layout) Option {
	return func(c *config) { c.layout = l }
}

// WithPublishers adds snapshot publishers
func WithPublishers(p ...snapshot.Publisher) Option {
	return func(c *config) { c.publishers = append(c.publishers, p...) }
}

// WithLogger sets the session logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *config) { c.logger = l }
}

// WithSeedNode starts the graph (and every Reset) with one node
func WithSeedNode(id string, pos graph.Position) Option {
	return func(c *config) {
		if id == "" {
			c.seed = nil
			return
		}
		c.seed = &graph.Node{ID: id, Position: pos}
	}
}

// WithInitialGraph starts from a previously saved graph instead of the seed
func WithInitialGraph(snap graph.Snapshot) Option {
	return func(c *config) { c.initial = &snap }
}

// New creates a session and publishes its initial snapshot, so readers
// never observe an undefined graph.
func New(opts ...Option) (*Session, error) {
	cfg := config{
		prompter: CancelPrompter{},
		view:     NopView{},
		layout:   menu.DefaultLayout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.New().String()
	}
	if cfg.logger == nil {
		cfg.logger = logger.SessionLogger("editor", cfg.id)
	}

	s := &Session{
		id:       cfg.id,
		store:    graph.NewStore(),
		prompter: cfg.prompter,
		view:     cfg.view,
		logger:   cfg.logger,
		nextNode: 1,
		seed:     cfg.seed,
	}
	s.menus = menu.NewManager(cfg.layout, cfg.view)

	start := s.seedSnapshot()
	if cfg.initial != nil {
		start = *cfg.initial
	}
	if err := s.store.Load(start); err != nil {
		return nil, errors.Wrapf(err, "initialize session %s", s.id)
	}
	s.advanceCounter()

	s.exporter = snapshot.NewExporter(s.id, s.store,
		snapshot.WithPublishers(cfg.publishers...),
		snapshot.WithLogger(s.logger.Named("snapshot")),
	)
	s.exporter.Publish()

	n, e := s.store.Len()
	s.logger.Debugw("Session started", logger.FieldNodes, n, logger.FieldEdges, e)
	return s, nil
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// Store exposes the graph for reading. Mutate it only through the session.
func (s *Session) Store() *graph.Store { return s.store }

// Menus exposes the context menu manager
func (s *Session) Menus() *menu.Manager { return s.menus }

// Selected returns the node pending edge creation, if any
func (s *Session) Selected() (string, bool) {
	return s.selected, s.selected != ""
}

// Snapshot returns the current graph
func (s *Session) Snapshot() graph.Snapshot { return s.store.Snapshot() }

// Latest returns the last published record
func (s *Session) Latest() (snapshot.Record, bool) { return s.exporter.Last() }

// AddPublisher attaches another publisher and sends it the current record
func (s *Session) AddPublisher(p snapshot.Publisher) {
	s.exporter.AddPublisher(p)
	if rec, ok := s.exporter.Last(); ok {
		if err := p.Publish(rec); err != nil {
			s.logger.Warnw("Publisher rejected current snapshot", logger.FieldError, err)
		}
	}
}

// SetPrompter swaps the prompt collaborator
func (s *Session) SetPrompter(p Prompter) { s.prompter = p }

// Reset returns the session to its initial state: seed graph only, nothing
// selected, no menus, counter back at 1.
func (s *Session) Reset() {
	s.menus.CloseAll()
	s.clearSelection()
	s.nextNode = 1
	if err := s.store.Load(s.seedSnapshot()); err != nil {
		s.logger.Errorw("Reset failed", logger.FieldError, err)
		return
	}
	s.advanceCounter()
	s.logger.Infow("Session reset")
}

// Import replaces the graph. The node counter moves past any N<k> ids in
// the imported graph so generated ids stay unique.
func (s *Session) Import(snap graph.Snapshot) error {
	if err := s.store.Load(snap); err != nil {
		return errors.Wrap(err, "import graph")
	}
	s.menus.CloseAll()
	s.clearSelection()
	s.advanceCounter()
	n, e := s.store.Len()
	s.logger.Infow("Graph imported", logger.FieldNodes, n, logger.FieldEdges, e)
	return nil
}

// LoadFixture imports a TOML graph fixture
func (s *Session) LoadFixture(path string) error {
	snap, err := graph.LoadFixture(path)
	if err != nil {
		return err
	}
	return s.Import(snap)
}

func (s *Session) seedSnapshot() graph.Snapshot {
	snap := graph.Snapshot{Elements: graph.Elements{
		Nodes: []graph.NodeElement{},
		Edges: []graph.EdgeElement{},
	}}
	if s.seed != nil {
		snap.Elements.Nodes = append(snap.Elements.Nodes, graph.NodeElement{
			Data:     graph.NodeData{ID: s.seed.ID},
			Position: s.seed.Position,
		})
	}
	return snap
}

var generatedID = regexp.MustCompile(`^N([1-9][0-9]*)$`)

func (s *Session) advanceCounter() {
	for _, n := range s.store.Nodes() {
		m := generatedID.FindStringSubmatch(n.ID)
		if m == nil {
			continue
		}
		k, err := strconv.Atoi(m[1])
		if err == nil && k >= s.nextNode {
			s.nextNode = k + 1
		}
	}
}
