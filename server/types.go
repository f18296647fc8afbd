package server

import (
	"encoding/json"
	"time"

	"github.com/teranos/arbor/editor"
	"github.com/teranos/arbor/editor/menu"
)

const (
	// MaxClientsPerSession caps concurrent WebSocket clients on one session
	MaxClientsPerSession = 32

	// ShutdownTimeout is how long Stop waits for goroutines to exit
	ShutdownTimeout = 10 * time.Second

	// RequestTimeout bounds REST handlers that wait on a session actor
	RequestTimeout = 30 * time.Second

	// maxImportBytes caps import request bodies
	maxImportBytes = 8 << 20
)

// ServerState is the server lifecycle state
type ServerState int32

const (
	ServerStateRunning ServerState = iota
	ServerStateDraining
	ServerStateStopped
)

func (s ServerState) String() string {
	switch s {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Inbound WebSocket message types
const (
	MsgGesture     = "gesture"
	MsgPointer     = "pointer"
	MsgMenuChoose  = "menu_choose"
	MsgPromptReply = "prompt_reply"
	MsgReset       = "reset"
	MsgImport      = "import"
	MsgPing        = "ping"
)

// Outbound WebSocket message types
const (
	MsgVersion   = "version"
	MsgSnapshot  = "snapshot"
	MsgHighlight = "highlight"
	MsgMenuOpen  = "menu_open"
	MsgMenuClose = "menu_close"
	MsgPrompt    = "prompt"
	MsgError     = "error"
)

// ClientMessage is any message a browser sends. Which fields are set
// depends on Type.
type ClientMessage struct {
	Type     string          `json:"type"`
	Gesture  *editor.Gesture `json:"gesture,omitempty"`   // gesture
	Point    *menu.Point     `json:"point,omitempty"`     // pointer
	Menu     string          `json:"menu,omitempty"`      // menu_choose
	Item     int             `json:"item"`                // menu_choose
	PromptID string          `json:"prompt_id,omitempty"` // prompt_reply
	Value    *string         `json:"value,omitempty"`     // prompt_reply; absent means cancelled
	Graph    json.RawMessage `json:"graph,omitempty"`     // import
}

// VersionMessage is sent once per connection, before anything else
type VersionMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	ClientID  string `json:"client_id"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
}

// SnapshotMessage carries a published graph
type SnapshotMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Revision  string          `json:"revision"`
	Nodes     int             `json:"nodes"`
	Edges     int             `json:"edges"`
	Data      json.RawMessage `json:"data"`
}

// HighlightMessage toggles the selection highlight of a node
type HighlightMessage struct {
	Type string `json:"type"`
	Node string `json:"node"`
	On   bool   `json:"on"`
}

// MenuOpenMessage asks the browser to draw a menu panel
type MenuOpenMessage struct {
	Type  string     `json:"type"`
	Panel menu.Panel `json:"panel"`
}

// MenuCloseMessage removes a menu panel
type MenuCloseMessage struct {
	Type string    `json:"type"`
	Kind menu.Kind `json:"kind"`
}

// PromptMessage asks one client for text input. The session waits until
// the client replies with the same ID.
type PromptMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Message string `json:"message"`
	Default string `json:"default"`
}

// ErrorMessage reports a rejected request to the client that sent it
type ErrorMessage struct {
	Type   string `json:"type"`
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// SessionInfo describes one session for GET /api/sessions
type SessionInfo struct {
	ID       string    `json:"id"`
	Active   bool      `json:"active"`
	Clients  int       `json:"clients"`
	Revision string    `json:"revision,omitempty"`
	LastSeen time.Time `json:"last_seen,omitempty"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Sessions int    `json:"sessions"`
	Clients  int    `json:"clients"`
}
