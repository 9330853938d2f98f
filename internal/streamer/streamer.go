// Package streamer pushes per-leaf Merkle proofs to subscribed WebSocket
// clients as they're generated, so a watcher doesn't have to re-request the
// whole proof set to see one field's inclusion proof. It is optional and
// runs isolated from the CORE pipeline: a slow or disconnected client never
// blocks proof generation.
package streamer

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/luxfi/log"
)

// LeafProofMessage is one leaf's proof, JSON-encoded and pushed to every
// subscribed client.
type LeafProofMessage struct {
	MessageName string   `json:"message_name"`
	Path        []int    `json:"path"`
	LeafHash    string   `json:"leaf_hash"`
	Proof       []string `json:"proof"`
	Directions  []bool   `json:"directions"`
}

// client is one connected subscriber; outbound messages are buffered so a
// slow reader can't stall the broadcaster.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server fans LeafProofMessage values out to every connected client.
type Server struct {
	upgrader websocket.Upgrader
	logger   log.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// New builds a Server. CheckOrigin always allows: this streams public,
// already-committed proof data, not anything access-controlled.
func New(logger log.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the connection and registers it as a subscriber until
// it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("streamer: upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 64)}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writePump(c)
	go s.readPump(c)
}

func (s *Server) readPump(c *client) {
	defer s.removeClient(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

// Publish fans msg out to every connected client without blocking: a
// client whose send buffer is full is dropped from this broadcast (it will
// simply miss this one proof) rather than stalling the others.
func (s *Server) Publish(msg LeafProofMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn("streamer: marshal leaf proof failed", "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.logger.Debug("streamer: client send buffer full, dropping message")
		}
	}
}
