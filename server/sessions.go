package server

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/arbor/editor"
	"github.com/teranos/arbor/editor/menu"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/graph"
	"github.com/teranos/arbor/logger"
	"github.com/teranos/arbor/snapshot"
	"github.com/teranos/arbor/snapshot/storage"
)

var validSessionID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ErrInvalidSession rejects malformed session ids
var ErrInvalidSession = errors.Mark(errors.New("invalid session id"), errors.ErrInvalidRequest)

// sessionEntry is a live session plus the clients watching it. It is the
// session's View: every highlight and menu change is broadcast to all of
// its clients.
type sessionEntry struct {
	id     string
	actor  *editor.Actor
	logger *zap.SugaredLogger

	mu       sync.RWMutex
	clients  map[*Client]struct{}
	lastSeen time.Time
}

// session returns the live session id, creating it on first use. An empty
// id creates a fresh session with a random id.
func (s *Server) session(ctx context.Context, id string) (*sessionEntry, error) {
	if id == "" {
		id = uuid.New().String()
	}
	if !validSessionID.MatchString(id) {
		return nil, errors.Wrapf(ErrInvalidSession, "%q", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != ServerStateRunning {
		return nil, errors.Mark(errors.New("server is shutting down"), errors.ErrCancelled)
	}
	if e, ok := s.sessions[id]; ok {
		e.touch()
		return e, nil
	}

	e, err := s.newSession(ctx, id)
	if err != nil {
		return nil, err
	}
	s.sessions[id] = e
	return e, nil
}

// lookup returns a live session without creating one
func (s *Server) lookup(id string) (*sessionEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	return e, ok
}

func (s *Server) newSession(ctx context.Context, id string) (*sessionEntry, error) {
	e := &sessionEntry{
		id:       id,
		logger:   logger.SessionLogger("server", id),
		clients:  make(map[*Client]struct{}),
		lastSeen: time.Now(),
	}

	cfg := s.config()
	opts := []editor.Option{
		editor.WithID(id),
		editor.WithView(e),
		editor.WithMenuLayout(cfg.MenuLayout()),
		editor.WithLogger(logger.SessionLogger("editor", id)),
		editor.WithSeedNode(cfg.Editor.SeedNode, cfg.SeedPosition()),
		editor.WithPublishers(s.latest),
	}
	if s.snapshots != nil {
		if snap, ok := s.restore(ctx, id); ok {
			opts = append(opts, editor.WithInitialGraph(snap))
		}
		opts = append(opts, editor.WithPublishers(&historyPublisher{
			store: s.snapshots,
			keep:  cfg.Database.HistoryLimit,
		}))
	}
	if s.files != nil {
		opts = append(opts, editor.WithPublishers(s.files))
	}
	opts = append(opts, editor.WithPublishers(snapshot.PublisherFunc(e.publishSnapshot)))

	sess, err := editor.New(opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "create session %s", id)
	}
	e.actor = editor.NewActor(sess)

	s.logger.Infow("Session created", logger.FieldSession, id)
	return e, nil
}

// restore loads the newest stored graph of a session when enabled
func (s *Server) restore(ctx context.Context, id string) (graph.Snapshot, bool) {
	if !s.config().Editor.Restore {
		return graph.Snapshot{}, false
	}
	rec, err := s.snapshots.Latest(ctx, id)
	if errors.IsNotFoundError(err) {
		return graph.Snapshot{}, false
	}
	if err != nil {
		s.logger.Warnw("Failed to restore session", logger.FieldSession, id, logger.FieldError, err)
		return graph.Snapshot{}, false
	}
	snap, err := graph.ParseSnapshot(rec.Data)
	if err != nil {
		s.logger.Warnw("Stored snapshot is unreadable", logger.FieldSession, id,
			logger.FieldRevision, rec.Revision, logger.FieldError, err)
		return graph.Snapshot{}, false
	}
	s.logger.Infow("Session restored", logger.FieldSession, id,
		logger.FieldRevision, rec.Revision, logger.FieldNodes, rec.Nodes, logger.FieldEdges, rec.Edges)
	return snap, true
}

// sessionInfos lists live sessions and, with a database, stored ones
func (s *Server) sessionInfos(ctx context.Context) ([]SessionInfo, error) {
	infos := map[string]SessionInfo{}

	s.mu.Lock()
	for id, e := range s.sessions {
		info := SessionInfo{ID: id, Active: true}
		info.Clients, info.LastSeen = e.stats()
		if rec, ok := s.latest.Get(id); ok {
			info.Revision = rec.Revision
		}
		infos[id] = info
	}
	s.mu.Unlock()

	if s.snapshots != nil {
		stored, err := s.snapshots.Sessions(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "list stored sessions")
		}
		for _, id := range stored {
			if _, live := infos[id]; !live {
				infos[id] = SessionInfo{ID: id}
			}
		}
	}

	out := make([]SessionInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// reapIdle stops sessions with no clients that have been idle longer than
// maxIdle. It returns the number of sessions stopped.
func (s *Server) reapIdle(maxIdle time.Duration, now time.Time) int {
	var stale []*sessionEntry

	s.mu.Lock()
	for id, e := range s.sessions {
		clients, lastSeen := e.stats()
		if clients == 0 && now.Sub(lastSeen) > maxIdle {
			stale = append(stale, e)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, e := range stale {
		e.actor.Stop()
		s.latest.Forget(e.id)
		s.logger.Infow("Idle session stopped", logger.FieldSession, e.id)
	}
	return len(stale)
}

func (s *Server) runJanitor(maxIdle time.Duration) {
	interval := maxIdle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.reapIdle(maxIdle, now)
		}
	}
}

// stopSessions stops every actor; used during shutdown
func (s *Server) stopSessions() {
	s.mu.Lock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for id, e := range s.sessions {
		entries = append(entries, e)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.actor.Stop()
	}
}

// === Clients ===

func (e *sessionEntry) attach(c *Client) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.clients) >= MaxClientsPerSession {
		return errors.Newf("session %s already has %d clients", e.id, MaxClientsPerSession)
	}
	e.clients[c] = struct{}{}
	e.lastSeen = time.Now()
	return nil
}

func (e *sessionEntry) detach(c *Client) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.clients, c)
	e.lastSeen = time.Now()
}

func (e *sessionEntry) touch() {
	e.mu.Lock()
	e.lastSeen = time.Now()
	e.mu.Unlock()
}

func (e *sessionEntry) stats() (clients int, lastSeen time.Time) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients), e.lastSeen
}

// broadcast queues msg on every client of the session
func (e *sessionEntry) broadcast(msg interface{}) {
	e.mu.RLock()
	clients := make([]*Client, 0, len(e.clients))
	for c := range e.clients {
		clients = append(clients, c)
	}
	e.mu.RUnlock()

	for _, c := range clients {
		c.queue(msg)
	}
}

func (e *sessionEntry) publishSnapshot(rec snapshot.Record) error {
	e.broadcast(snapshotMessage(rec))
	return nil
}

func snapshotMessage(rec snapshot.Record) SnapshotMessage {
	return SnapshotMessage{
		Type:      MsgSnapshot,
		SessionID: rec.SessionID,
		Revision:  rec.Revision,
		Nodes:     rec.Nodes,
		Edges:     rec.Edges,
		Data:      rec.Data,
	}
}

// === editor.View ===

func (e *sessionEntry) Highlight(nodeID string, on bool) {
	e.broadcast(HighlightMessage{Type: MsgHighlight, Node: nodeID, On: on})
}

func (e *sessionEntry) ShowMenu(p menu.Panel) {
	e.broadcast(MenuOpenMessage{Type: MsgMenuOpen, Panel: p})
}

func (e *sessionEntry) HideMenu(kind menu.Kind) {
	e.broadcast(MenuCloseMessage{Type: MsgMenuClose, Kind: kind})
}

// historyPublisher stores every record and trims the session's history
type historyPublisher struct {
	store *storage.SnapshotStore
	keep  int
}

func (h *historyPublisher) Publish(rec snapshot.Record) error {
	if err := h.store.Publish(rec); err != nil {
		return err
	}
	if h.keep <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := h.store.Prune(ctx, rec.SessionID, h.keep); err != nil {
		return errors.Wrapf(err, "prune history of %s", rec.SessionID)
	}
	return nil
}
