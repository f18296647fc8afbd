package server

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/teranos/arbor/editor"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/graph"
	"github.com/teranos/arbor/logger"
	"github.com/teranos/arbor/snapshot"
	"github.com/teranos/arbor/version"
)

// HandleWebSocket attaches a browser to a session. GET /ws?session=ID; a
// missing id starts a new session, reported in the version message.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	e, err := s.session(r.Context(), r.URL.Query().Get("session"))
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		s.logger.Warnw("WebSocket upgrade failed", logger.FieldSession, e.id, logger.FieldError, err)
		return
	}

	client := s.newClient(conn, e)
	if err := e.attach(client); err != nil {
		s.logger.Warnw("Rejecting connection", logger.FieldSession, e.id, logger.FieldError, err)
		conn.WriteJSON(ErrorMessage{Type: MsgError, Status: http.StatusServiceUnavailable, Error: err.Error()})
		conn.Close()
		return
	}

	// Written before writePump starts, so no concurrent writes
	info := version.Get()
	if err := conn.WriteJSON(VersionMessage{
		Type:      MsgVersion,
		SessionID: e.id,
		ClientID:  client.id,
		Version:   info.Version,
		Commit:    info.Short(),
	}); err != nil {
		client.logger.Debugw("Failed to send version info", logger.FieldError, err)
	}

	// Bring the new client up to date
	if rec, ok := s.latest.Get(e.id); ok {
		client.queue(snapshotMessage(rec))
	}
	for _, p := range e.actor.Session().Menus().Visible() {
		client.queue(MenuOpenMessage{Type: MsgMenuOpen, Panel: p})
	}

	client.logger.Infow("Client connected", logger.FieldAddress, r.RemoteAddr)

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		client.readPump()
	}()
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()
	go func() {
		defer s.wg.Done()
		client.dispatchLoop()
	}()
}

// HandleHealth reports liveness and counts
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	resp := HealthResponse{
		Status:  s.State().String(),
		Version: info.Version,
		Commit:  info.Short(),
	}
	s.mu.Lock()
	resp.Sessions = len(s.sessions)
	for _, e := range s.sessions {
		n, _ := e.stats()
		resp.Clients += n
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

// HandleSessions lists live and stored sessions.
// GET /api/sessions
func (s *Server) HandleSessions(w http.ResponseWriter, r *http.Request) {
	infos, err := s.sessionInfos(r.Context())
	if err != nil {
		s.logger.Errorw("Failed to list sessions", logger.FieldError, err)
		writeErrorFor(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// HandleSnapshot serves a session's latest snapshot JSON with its revision
// as entity tag.
// GET /api/sessions/{id}/snapshot
func (s *Server) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	etag := `"` + rec.Revision + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(rec.Data)
}

// HandleExport serves the node-link form of the latest snapshot.
// GET /api/sessions/{id}/export
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	snap, err := graph.ParseSnapshot(rec.Data)
	if err != nil {
		writeErrorFor(w, errors.Wrap(err, "stored snapshot is unreadable"))
		return
	}
	w.Header().Set("ETag", `"`+rec.Revision+`"`)
	writeJSON(w, http.StatusOK, snap.ToNodeLink())
}

// HandleHistory lists stored snapshots, newest first.
// GET /api/sessions/{id}/history?limit=N
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot history requires a database")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	history, err := s.snapshots.History(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.logger.Errorw("Failed to load history", logger.FieldSession, r.PathValue("id"), logger.FieldError, err)
		writeErrorFor(w, err)
		return
	}
	if history == nil {
		history = []snapshot.Record{}
	}
	writeJSON(w, http.StatusOK, history)
}

// HandleImport replaces a session's graph, creating the session if needed.
// POST /api/sessions/{id}/import
func (s *Server) HandleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > maxImportBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "graph too large")
		return
	}
	snap, err := graph.ParseSnapshot(body)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	s.mutate(w, r, func(sess *editor.Session) error {
		return sess.Import(snap)
	})
}

// HandleReset clears a session's graph back to its seed.
// POST /api/sessions/{id}/reset
func (s *Server) HandleReset(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(sess *editor.Session) error {
		sess.Reset()
		return nil
	})
}

// mutate runs fn on the session actor and replies with the resulting record
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(*editor.Session) error) {
	e, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	var rec snapshot.Record
	var opErr error
	err = e.actor.Do(ctx, func(sess *editor.Session) {
		if opErr = fn(sess); opErr == nil {
			rec, _ = sess.Latest()
		}
	})
	if errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusGatewayTimeout, "session is busy")
		return
	}
	if err == nil {
		err = opErr
	}
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// record finds a session's newest snapshot, live first, then stored
func (s *Server) record(ctx context.Context, id string) (snapshot.Record, error) {
	if !validSessionID.MatchString(id) {
		return snapshot.Record{}, errors.Wrapf(ErrInvalidSession, "%q", id)
	}
	if rec, ok := s.latest.Get(id); ok {
		return rec, nil
	}
	if s.snapshots != nil {
		return s.snapshots.Latest(ctx, id)
	}
	return snapshot.Record{}, errors.NewNotFoundError("session %s not found", id)
}

// etagMatches implements the If-None-Match comparison
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
