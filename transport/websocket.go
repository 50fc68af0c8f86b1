package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Subprotocol is the GraphQL over WebSocket protocol spoken by WebSocket.
const Subprotocol = "graphql-transport-ws"

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WebSocket implements GraphQL over a single multiplexed WebSocket
// connection. Queries are sent as "subscribe" operations and resolved by
// their first "next" message. A dropped connection is redialed by the next
// Query.
type WebSocket struct {
	url         string
	header      http.Header
	initPayload map[string]any
	ackTimeout  time.Duration

	nextID atomic.Uint64

	// current connection, nil until the first successful dial
	connMu sync.Mutex
	conn   *wsConn

	// in-flight operations by id
	opsMu sync.Mutex
	ops   map[string]chan wsMessage

	closed    chan struct{}
	closeOnce sync.Once
}

// wsConn is one dialed connection. done is closed when its read loop exits.
type wsConn struct {
	*websocket.Conn
	mu       sync.Mutex
	done     chan struct{}
	doneOnce sync.Once
}

func (c *wsConn) write(msg wsMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.WriteJSON(msg); err != nil {
		return fmt.Errorf("transport/ws: write %s: %w", msg.Type, err)
	}
	return nil
}

func (c *wsConn) shutdown() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
	_ = c.Close()
}

func (c *wsConn) alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// WSOption configures a WebSocket transport.
type WSOption func(*WebSocket)

// WithWSHeader sets a header on the handshake request.
func WithWSHeader(key, value string) WSOption {
	return func(ws *WebSocket) {
		ws.header.Set(key, value)
	}
}

// WithInitPayload sets the connection_init payload.
func WithInitPayload(payload map[string]any) WSOption {
	return func(ws *WebSocket) {
		ws.initPayload = payload
	}
}

// NewWebSocket creates a GraphQL WebSocket transport.
// The connection is established lazily on the first Query.
func NewWebSocket(url string, opts ...WSOption) *WebSocket {
	ws := &WebSocket{
		url:        url,
		header:     http.Header{},
		ackTimeout: 10 * time.Second,
		ops:        make(map[string]chan wsMessage),
		closed:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ws)
	}
	return ws
}

// connect returns the live connection, dialing and completing the
// connection_init handshake when there is none. Failures are not cached.
func (ws *WebSocket) connect(ctx context.Context) (*wsConn, error) {
	ws.connMu.Lock()
	defer ws.connMu.Unlock()

	select {
	case <-ws.closed:
		return nil, ErrClosed
	default:
	}
	if ws.conn != nil && ws.conn.alive() {
		return ws.conn, nil
	}

	dialer := websocket.Dialer{
		Subprotocols:     []string{Subprotocol},
		HandshakeTimeout: ws.ackTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, ws.url, ws.header)
	if err != nil {
		return nil, fmt.Errorf("transport/ws: dial: %w", err)
	}

	init := wsMessage{Type: "connection_init"}
	if ws.initPayload != nil {
		init.Payload, _ = json.Marshal(ws.initPayload)
	}
	if err := conn.WriteJSON(init); err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport/ws: connection_init: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(ws.ackTimeout))
	var ack wsMessage
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport/ws: await ack: %w", err)
	}
	if ack.Type != "connection_ack" {
		conn.Close()
		return nil, fmt.Errorf("transport/ws: expected connection_ack, got %q", ack.Type)
	}
	_ = conn.SetReadDeadline(time.Time{})

	ws.conn = &wsConn{Conn: conn, done: make(chan struct{})}
	go ws.readLoop(ws.conn)
	return ws.conn, nil
}

// Query sends a GraphQL operation and waits for its first result.
func (ws *WebSocket) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	conn, err := ws.connect(ctx)
	if err != nil {
		return nil, err
	}

	id := strconv.FormatUint(ws.nextID.Add(1), 10)
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("transport/ws: marshal: %w", err)
	}

	ch := make(chan wsMessage, 2)
	ws.opsMu.Lock()
	ws.ops[id] = ch
	ws.opsMu.Unlock()

	defer func() {
		ws.opsMu.Lock()
		delete(ws.ops, id)
		ws.opsMu.Unlock()
	}()

	if err := conn.write(wsMessage{ID: id, Type: "subscribe", Payload: payload}); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.write(wsMessage{ID: id, Type: "complete"})
			return nil, ctx.Err()
		case <-ws.closed:
			return nil, ErrClosed
		case <-conn.done:
			return nil, fmt.Errorf("transport/ws: connection lost")
		case msg := <-ch:
			switch msg.Type {
			case "next":
				_ = conn.write(wsMessage{ID: id, Type: "complete"})
				return decodeGraphQL(msg.Payload)
			case "error":
				var errs []struct {
					Message string `json:"message"`
				}
				if err := json.Unmarshal(msg.Payload, &errs); err != nil {
					return nil, fmt.Errorf("transport/ws: unmarshal error payload: %w", err)
				}
				gqlErr := &GraphQLError{}
				for _, e := range errs {
					gqlErr.Messages = append(gqlErr.Messages, e.Message)
				}
				return nil, gqlErr
			case "complete":
				return nil, fmt.Errorf("transport/ws: operation %s completed without result", id)
			}
		}
	}
}

// Close terminates the WebSocket connection. Queries after Close fail with
// ErrClosed.
func (ws *WebSocket) Close() error {
	ws.closeOnce.Do(func() {
		close(ws.closed)
	})
	ws.connMu.Lock()
	defer ws.connMu.Unlock()
	if ws.conn != nil {
		ws.conn.shutdown()
	}
	return nil
}

// readLoop reads messages from conn and routes them to the waiting operation.
func (ws *WebSocket) readLoop(conn *wsConn) {
	defer conn.shutdown()
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "ping":
			_ = conn.write(wsMessage{Type: "pong"})
			continue
		case "pong":
			continue
		}

		ws.opsMu.Lock()
		if ch, ok := ws.ops[msg.ID]; ok {
			select {
			case ch <- msg:
			default:
			}
		}
		ws.opsMu.Unlock()
	}
}
