package server

import "net/http"

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.corsMiddleware(s.HandleWebSocket))                                     // Editing protocol (gestures in, snapshots out)
	mux.HandleFunc("GET /health", s.corsMiddleware(s.HandleHealth))                                // Liveness
	mux.HandleFunc("GET /api/sessions", s.corsMiddleware(s.HandleSessions))                        // Live and stored sessions
	mux.HandleFunc("GET /api/sessions/{id}/snapshot", s.corsMiddleware(s.HandleSnapshot))          // Latest snapshot (ETag = revision)
	mux.HandleFunc("GET /api/sessions/{id}/export", s.corsMiddleware(s.HandleExport))              // Latest snapshot as node-link JSON
	mux.HandleFunc("GET /api/sessions/{id}/history", s.corsMiddleware(s.HandleHistory))            // Stored snapshots, newest first
	mux.HandleFunc("POST /api/sessions/{id}/import", s.corsMiddleware(s.HandleImport))             // Replace the graph
	mux.HandleFunc("POST /api/sessions/{id}/reset", s.corsMiddleware(s.HandleReset))               // Back to the seed graph
	mux.HandleFunc("OPTIONS /api/", s.corsMiddleware(func(http.ResponseWriter, *http.Request) {})) // CORS preflight
	return mux
}

// corsMiddleware adds CORS headers using the same origin rules as the
// WebSocket upgrader (server.allowed_origins)
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.checkOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}
