// Package server exposes editing sessions to browsers: a WebSocket per
// client carries gestures in and snapshots, menus, highlights and prompts
// out, and a small REST surface serves snapshots to downstream readers.
package server

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/teranos/arbor/am"
	"github.com/teranos/arbor/logger"
	"github.com/teranos/arbor/snapshot"
	"github.com/teranos/arbor/snapshot/storage"
)

// Server owns every live session and the connections attached to them
type Server struct {
	cfg       atomic.Pointer[am.Config]
	db        *sql.DB
	snapshots *storage.SnapshotStore // nil without a database
	latest    *snapshot.Latest
	files     *snapshot.FilePublisher // nil unless snapshot.file is set
	logger    *zap.SugaredLogger
	verbosity int

	mu       sync.Mutex
	sessions map[string]*sessionEntry

	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	state  atomic.Int32
}

// Option configures a Server
type Option func(*Server)

// WithDatabase enables snapshot history and session restore
func WithDatabase(db *sql.DB) Option {
	return func(s *Server) { s.db = db }
}

// WithLogger sets the server logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVerbosity sets the CLI verbosity; at -vvv raw frames are logged
func WithVerbosity(v int) Option {
	return func(s *Server) { s.verbosity = v }
}

// WithLatest shares a Latest with other readers in the process
func WithLatest(l *snapshot.Latest) Option {
	return func(s *Server) { s.latest = l }
}

// New creates a server. Call Start to listen, or mount Handler yourself.
func New(cfg *am.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = am.Defaults()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		sessions: make(map[string]*sessionEntry),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.cfg.Store(cfg)
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.ComponentLogger("server")
	}
	if s.latest == nil {
		s.latest = snapshot.NewLatest()
	}
	if s.db != nil {
		s.snapshots = storage.NewSnapshotStore(s.db)
	}
	if cfg.Snapshot.File != "" {
		s.files = snapshot.NewFilePublisher(cfg.Snapshot.File)
	}
	return s
}

func (s *Server) config() *am.Config { return s.cfg.Load() }

// Reconfigure swaps in a reloaded configuration. Allowed origins apply
// immediately; menu layout, seeding, rate limits and history apply to
// sessions and clients created afterwards. The snapshot file and database
// are fixed at New.
func (s *Server) Reconfigure(cfg *am.Config) {
	if cfg == nil {
		return
	}
	s.cfg.Store(cfg)
	s.logger.Infow("Configuration reloaded", "allowed_origins", cfg.GetServerAllowedOrigins())
}

// State returns the lifecycle state
func (s *Server) State() ServerState {
	return ServerState(s.state.Load())
}

func (s *Server) setState(state ServerState) {
	s.state.Store(int32(state))
	s.logger.Infow("Server state changed", "state", state.String())
}

// Latest returns the in-process snapshot registry
func (s *Server) Latest() *snapshot.Latest { return s.latest }
