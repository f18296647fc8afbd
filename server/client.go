package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/arbor/editor"
	"github.com/teranos/arbor/editor/menu"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/graph"
	"github.com/teranos/arbor/logger"
)

// WebSocket timeouts, as in the gorilla chat example
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer (imports carry whole graphs)
	maxMessageSize = 1024 * 1024

	sendBuffer  = 256
	workBuffer  = 64
	replyBuffer = 8
)

// ErrRateLimited is sent to clients that exceed their gesture budget
var ErrRateLimited = errors.Mark(errors.New("too many gestures, slow down"), errors.ErrInvalidRequest)

// Client is one WebSocket connection attached to a session.
//
// Three goroutines serve a client: readPump decodes messages, writePump
// owns all writes to the connection, and dispatchLoop submits the client's
// session work in arrival order. Keeping session work off readPump is what
// lets a prompt reply arrive while the session waits on that same prompt.
type Client struct {
	id      string
	server  *Server
	session *sessionEntry
	conn    *websocket.Conn
	limiter *rate.Limiter
	logger  *zap.SugaredLogger

	send    chan interface{}
	work    chan func()
	replies chan promptReply

	done      chan struct{}
	closeOnce sync.Once
}

type promptReply struct {
	id    string
	value string
	ok    bool
}

func (s *Server) newClient(conn *websocket.Conn, e *sessionEntry) *Client {
	id := uuid.New().String()
	return &Client{
		id:      id,
		server:  s,
		session: e,
		conn:    conn,
		limiter: s.gestureLimiter(),
		logger:  e.logger.With(logger.FieldClient, id),
		send:    make(chan interface{}, sendBuffer),
		work:    make(chan func(), workBuffer),
		replies: make(chan promptReply, replyBuffer),
		done:    make(chan struct{}),
	}
}

// gestureLimiter builds a per-client limiter from server.gestures_per_second;
// zero disables limiting.
func (s *Server) gestureLimiter() *rate.Limiter {
	perSecond := s.config().Server.GesturesPerSecond
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := s.config().Server.GestureBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// close ends the client; safe to call more than once
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// queue hands msg to writePump. A client whose buffer is full is too slow
// to keep up and gets disconnected.
func (c *Client) queue(msg interface{}) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		c.logger.Warnw("Client send buffer full, disconnecting")
		c.close()
	}
}

func (c *Client) sendError(err error) {
	c.queue(ErrorMessage{Type: MsgError, Status: statusFor(err), Error: err.Error()})
}

// readPump handles reading messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.session.detach(c)
		c.close()
		c.logger.Infow("Client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}
		if logger.ShouldLogTrace(c.server.verbosity) {
			c.logger.Debugw("Frame received", "frame", string(data))
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warnw("JSON unmarshal error", logger.FieldError, err.Error())
			c.sendError(errors.Mark(errors.Wrap(err, "decode message"), errors.ErrInvalidRequest))
			continue
		}
		c.routeMessage(&msg)
	}
}

// handleReadError logs unexpected WebSocket read errors. Ordinary closes are
// silent.
func (c *Client) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseNormalClosure,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
	) {
		c.logger.Warnw("WebSocket read error", logger.FieldError, err)
	}
}

// routeMessage dispatches one inbound message
func (c *Client) routeMessage(msg *ClientMessage) {
	switch msg.Type {
	case MsgGesture:
		c.handleGesture(msg)
	case MsgPointer:
		c.handlePointer(msg)
	case MsgMenuChoose:
		c.handleMenuChoose(msg)
	case MsgPromptReply:
		c.handlePromptReply(msg)
	case MsgReset:
		c.enqueue(func(s *editor.Session) error {
			s.Reset()
			return nil
		})
	case MsgImport:
		c.handleImport(msg)
	case MsgPing:
		// Keeps proxies from closing an idle connection; nothing to do
	default:
		c.logger.Debugw("Unknown message type", "type", msg.Type)
		c.sendError(errors.NewInvalidRequestError("unknown message type %q", msg.Type))
	}
}

func (c *Client) handleGesture(msg *ClientMessage) {
	if msg.Gesture == nil {
		c.sendError(errors.NewInvalidRequestError("gesture message without gesture"))
		return
	}
	g := *msg.Gesture
	if err := g.Validate(); err != nil {
		c.sendError(err)
		return
	}
	if !c.limiter.Allow() {
		c.sendError(ErrRateLimited)
		return
	}
	c.enqueue(func(s *editor.Session) error {
		return s.Handle(g)
	})
}

// handlePointer runs menu dismissal immediately, even while the session is
// blocked on a prompt.
func (c *Client) handlePointer(msg *ClientMessage) {
	if msg.Point == nil {
		c.sendError(errors.NewInvalidRequestError("pointer message without point"))
		return
	}
	c.session.actor.Session().PointerDown(*msg.Point)
}

func (c *Client) handleMenuChoose(msg *ClientMessage) {
	kind, err := menu.ParseKind(msg.Menu)
	if err != nil {
		c.sendError(err)
		return
	}
	if !c.limiter.Allow() {
		c.sendError(ErrRateLimited)
		return
	}
	item := msg.Item
	c.enqueue(func(s *editor.Session) error {
		return s.ChooseMenuItem(kind, item)
	})
}

func (c *Client) handlePromptReply(msg *ClientMessage) {
	reply := promptReply{id: msg.PromptID}
	if msg.Value != nil {
		reply.value, reply.ok = *msg.Value, true
	}
	select {
	case c.replies <- reply:
	default:
		c.logger.Warnw("Dropping prompt reply, no prompt is waiting", "prompt_id", msg.PromptID)
	}
}

func (c *Client) handleImport(msg *ClientMessage) {
	snap, err := graph.ParseSnapshot(msg.Graph)
	if err != nil {
		c.sendError(err)
		return
	}
	c.enqueue(func(s *editor.Session) error {
		return s.Import(snap)
	})
}

// closed reports whether the client has disconnected
func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// enqueue schedules fn on the session actor, after this client's earlier
// work. Work still queued when the client disconnects is dropped.
func (c *Client) enqueue(fn func(*editor.Session) error) {
	if c.closed() {
		return
	}
	task := func() {
		if c.closed() {
			return
		}
		var opErr error
		err := c.session.actor.Do(c.server.ctx, func(s *editor.Session) {
			if c.closed() {
				return
			}
			s.SetPrompter(c)
			defer s.SetPrompter(editor.CancelPrompter{})
			opErr = fn(s)
		})
		if err == nil {
			err = opErr
		}
		if err != nil {
			c.sendError(err)
		}
	}
	select {
	case c.work <- task:
	case <-c.done:
	default:
		c.sendError(ErrRateLimited)
	}
}

// dispatchLoop runs queued session work one item at a time
func (c *Client) dispatchLoop() {
	for {
		select {
		case task := <-c.work:
			task()
		case <-c.done:
			return
		}
	}
}

// Prompt implements editor.Prompter: it asks this client and blocks until
// the matching reply arrives. A disconnect or server shutdown cancels.
func (c *Client) Prompt(message, def string) (string, bool) {
	id := uuid.New().String()
	c.queue(PromptMessage{Type: MsgPrompt, ID: id, Message: message, Default: def})

	for {
		select {
		case r := <-c.replies:
			if r.id != id {
				c.logger.Debugw("Ignoring stale prompt reply", "prompt_id", r.id)
				continue
			}
			return r.value, r.ok
		case <-c.done:
			return "", false
		case <-c.server.ctx.Done():
			return "", false
		}
	}
}

// writePump writes queued messages and keepalive pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case <-c.server.ctx.Done():
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debugw("WebSocket write failed", logger.FieldError, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// upgrader creates a WebSocket upgrader with origin checking from config
func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin allows requests without an Origin header (non-browser
// clients) and origins starting with a configured prefix, any port.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config().GetServerAllowedOrigins() {
		if origin == allowed || hasOriginPrefix(origin, allowed) {
			return true
		}
	}
	return false
}

func hasOriginPrefix(origin, allowed string) bool {
	if len(origin) <= len(allowed) || origin[:len(allowed)] != allowed {
		return false
	}
	return origin[len(allowed)] == ':'
}
