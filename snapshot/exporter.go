// Package snapshot serializes an editing session's graph after every change
// and publishes the JSON to the places downstream readers look for it.
package snapshot

import (
	"crypto/sha256"
	"encoding/json"
	"time"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"github.com/teranos/arbor/graph"
	"github.com/teranos/arbor/logger"
)

// Record is one published snapshot
type Record struct {
	SessionID   string          `json:"session_id"`
	Revision    string          `json:"revision"`
	Data        json.RawMessage `json:"data"`
	Nodes       int             `json:"nodes"`
	Edges       int             `json:"edges"`
	PublishedAt time.Time       `json:"published_at"`
}

// Publisher receives every record an Exporter produces
type Publisher interface {
	Publish(rec Record) error
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(rec Record) error

// Publish calls f(rec)
func (f PublisherFunc) Publish(rec Record) error { return f(rec) }

// Revision derives a short content id for data. Equal graphs serialize to
// equal bytes, so the revision doubles as an HTTP entity tag.
func Revision(data []byte) string {
	sum := sha256.Sum256(data)
	return base58.Encode(sum[:16])
}

// Exporter publishes a store's snapshot after every mutation.
//
// Publishing is synchronous and best effort: a serialization failure keeps
// the previous record as the latest one, and a failing publisher does not
// prevent the others from receiving the record.
type Exporter struct {
	sessionID  string
	store      *graph.Store
	publishers []Publisher
	marshal    func(v any) ([]byte, error)
	now        func() time.Time
	logger     *zap.SugaredLogger

	last    Record
	hasLast bool
}

// Option configures an Exporter
type Option func(*Exporter)

// WithPublishers appends publishers, called in the given order
func WithPublishers(p ...Publisher) Option {
	return func(e *Exporter) {
		e.publishers = append(e.publishers, p...)
	}
}

// WithLogger sets the exporter's logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Exporter) {
		e.logger = l
	}
}

// WithMarshal replaces the JSON encoder
func WithMarshal(fn func(v any) ([]byte, error)) Option {
	return func(e *Exporter) {
		e.marshal = fn
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}

// NewExporter subscribes to store. It does not publish; call Publish once
// the session is initialized so readers never see an undefined state.
func NewExporter(sessionID string, store *graph.Store, opts ...Option) *Exporter {
	e := &Exporter{
		sessionID: sessionID,
		store:     store,
		marshal:   json.Marshal,
		now:       time.Now,
		logger:    logger.ComponentLogger("snapshot"),
	}
	for _, opt := range opts {
		opt(e)
	}
	store.Subscribe(func(graph.Change) { e.Publish() })
	return e
}

// AddPublisher registers another publisher
func (e *Exporter) AddPublisher(p Publisher) {
	e.publishers = append(e.publishers, p)
}

// Publish serializes the store and fans the record out. It returns the
// record and whether serialization succeeded.
func (e *Exporter) Publish() (Record, bool) {
	snap := e.store.Snapshot()
	data, err := e.marshal(snap)
	if err != nil {
		e.logger.Errorw("Snapshot serialization failed, keeping previous snapshot",
			logger.FieldSession, e.sessionID,
			logger.FieldError, err,
		)
		return e.last, false
	}

	rec := Record{
		SessionID:   e.sessionID,
		Revision:    Revision(data),
		Data:        data,
		Nodes:       snap.NodeCount(),
		Edges:       snap.EdgeCount(),
		PublishedAt: e.now(),
	}
	e.last, e.hasLast = rec, true

	for _, p := range e.publishers {
		if err := p.Publish(rec); err != nil {
			e.logger.Warnw("Snapshot publisher failed",
				logger.FieldSession, e.sessionID,
				logger.FieldRevision, rec.Revision,
				logger.FieldError, err,
			)
		}
	}

	e.logger.Debugw("Snapshot published",
		logger.FieldSession, e.sessionID,
		logger.FieldRevision, rec.Revision,
		logger.FieldNodes, rec.Nodes,
		logger.FieldEdges, rec.Edges,
	)
	return rec, true
}

// Last returns the last successfully serialized record
func (e *Exporter) Last() (Record, bool) {
	return e.last, e.hasLast
}
