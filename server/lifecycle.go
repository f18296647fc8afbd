package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/logger"
	"github.com/teranos/arbor/version"
)

// Start listens on the configured port and serves until Stop is called or
// the listener fails. It returns http.ErrServerClosed after a clean Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config().GetServerPort()))
	if err != nil {
		return errors.Wrapf(err, "failed to listen on port %d", s.config().GetServerPort())
	}
	return s.Serve(ln)
}

// Serve serves on ln; see Start
func (s *Server) Serve(ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}

	if idle := s.config().Server.IdleSessionSecs; idle > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runJanitor(time.Duration(idle) * time.Second)
		}()
	}

	fields := append([]interface{}{logger.FieldAddress, ln.Addr().String(), "history", s.snapshots != nil},
		version.Get().LogFields()...)
	s.logger.Infow("Server ready", fields...)

	return s.httpServer.Serve(ln)
}

// Stop gracefully shuts down: refuse new sessions, stop accepting
// connections, cancel pending prompts, stop actors, wait for goroutines.
func (s *Server) Stop() error {
	s.logger.Infow("Initiating server shutdown")
	s.mu.Lock()
	s.setState(ServerStateDraining)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			shutdownErr = errors.Wrap(err, "http shutdown")
		}
	}

	// Hijacked WebSocket connections are not closed by Shutdown
	s.mu.Lock()
	for _, e := range s.sessions {
		e.mu.RLock()
		for c := range e.clients {
			c.close()
		}
		e.mu.RUnlock()
	}
	s.mu.Unlock()

	// Unblocks prompts and writePumps
	s.cancel()
	s.stopSessions()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Infow("All goroutines stopped cleanly")
	case <-ctx.Done():
		s.logger.Warnw("Goroutine shutdown timed out", "timeout", ShutdownTimeout)
	}

	s.setState(ServerStateStopped)
	s.logger.Infow("Server shutdown complete")
	return shutdownErr
}
