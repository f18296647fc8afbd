package snapshot

import "sync"

// Latest holds the most recent record of every session. It is the shared
// location downstream readers consult synchronously; each publish
// overwrites the previous value.
type Latest struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewLatest creates an empty holder
func NewLatest() *Latest {
	return &Latest{records: make(map[string]Record)}
}

// Publish stores rec as its session's latest record
func (l *Latest) Publish(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[rec.SessionID] = rec
	return nil
}

// Get returns a session's latest record
func (l *Latest) Get(sessionID string) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[sessionID]
	return rec, ok
}

// Forget drops a session
func (l *Latest) Forget(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, sessionID)
}
