package http

import (
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/servelite/servelite/internal/domain/ports"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// createUpgrader creates a WebSocket upgrader with origin validation
func (s *ReloadServer) createUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return s.isValidOrigin(r)
		},
	}
}

// reloadClient is one websocket connection of the reload endpoint
type reloadClient struct {
	id     string
	conn   *websocket.Conn
	logger *HTTPLogger
}

// handleWebSocket upgrades the request and forwards reload signals until
// either side of the connection ends
func (s *ReloadServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied with an error status
		s.logger.Warn("WebSocket upgrade failed: %v", err)
		return
	}

	client := &reloadClient{
		id:     uuid.New().String(),
		conn:   conn,
		logger: s.logger,
	}

	if !s.connMgr.Register(client.id, conn) {
		_ = conn.Close()
		return
	}
	defer s.connMgr.Unregister(client.id)

	signals, cancel := s.source.Subscribe()
	s.logger.Debug("WebSocket client %s connected", client.id)

	client.run(signals, cancel)

	s.logger.Debug("WebSocket client %s disconnected", client.id)
}

// run drives both halves of the connection and returns after both exited.
// When one half ends the other is cut: closing the socket unblocks the
// reader, cancelling the subscription unblocks the writer.
func (c *reloadClient) run(signals <-chan struct{}, cancel func()) {
	done := make(chan struct{}, 2)

	go func() {
		c.writePump(signals)
		done <- struct{}{}
	}()
	go func() {
		c.readPump()
		done <- struct{}{}
	}()

	<-done
	cancel()
	_ = c.conn.Close()
	<-done
}

// readPump reads and discards client frames; it only detects close and errors
func (c *reloadClient) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket connection error: %v", err)
			}
			return
		}
	}
}

// writePump sends a reload frame per signal and keeps the connection alive
func (c *reloadClient) writePump(signals <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case _, ok := <-signals:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The session is over
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopped"))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(ports.ReloadMessage)); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// isValidOrigin accepts any origin when CORS allows all, otherwise the
// configured origins and the local machine
func (s *ReloadServer) isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Allow empty origin (same-origin requests)
	if origin == "" {
		return true
	}

	allowed := s.config.GetCORSOrigins()
	if slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		s.logger.Warn("WebSocket connection rejected: invalid origin URL %q: %v", origin, err)
		return false
	}

	switch originURL.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}

	s.logger.Warn("WebSocket connection rejected: origin %s not allowed", origin)
	return false
}
