package http

import (
	"sync"

	"github.com/gorilla/websocket"
)

// ConnectionManager tracks the open websocket connections of one session so
// they can be force-closed when the session stops. Hijacked connections are
// invisible to http.Server.Close.
type ConnectionManager struct {
	connections map[string]*websocket.Conn
	mu          sync.Mutex
	wg          sync.WaitGroup
	closed      bool
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
	}
}

// Register adds a connection. It returns false once CloseAll has been
// called; the caller must then close conn itself. Every successful Register
// must be paired with Unregister.
func (cm *ConnectionManager) Register(id string, conn *websocket.Conn) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.closed {
		return false
	}

	cm.connections[id] = conn
	cm.wg.Add(1)
	return true
}

// Unregister removes a connection once its goroutines have exited
func (cm *ConnectionManager) Unregister(id string) {
	cm.mu.Lock()
	_, ok := cm.connections[id]
	delete(cm.connections, id)
	cm.mu.Unlock()

	if ok {
		cm.wg.Done()
	}
}

// Count returns the number of registered connections
func (cm *ConnectionManager) Count() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.connections)
}

// CloseAll closes every connection, refuses new ones and waits until all
// registered connections have unregistered
func (cm *ConnectionManager) CloseAll() {
	cm.mu.Lock()
	cm.closed = true
	for _, conn := range cm.connections {
		_ = conn.Close()
	}
	cm.mu.Unlock()

	cm.wg.Wait()
}
