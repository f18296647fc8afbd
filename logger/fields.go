package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging.
const (
	FieldComponent = "component"
	FieldSession   = "session_id"
	FieldClient    = "client_id"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldPath      = "path"
	FieldAddress   = "address"
	FieldCount     = "count"

	// Graph editing
	FieldNode     = "node"
	FieldEdge     = "edge"
	FieldGesture  = "gesture"
	FieldMenu     = "menu"
	FieldRevision = "revision"
	FieldNodes    = "nodes"
	FieldEdges    = "edges"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// SessionLogger returns a component logger tagged with a session id
func SessionLogger(component, sessionID string) *zap.SugaredLogger {
	return Logger.Named(component).With(FieldSession, sessionID)
}
