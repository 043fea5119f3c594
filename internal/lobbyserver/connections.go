package lobbyserver

import (
	"sync"
	"sync/atomic"
)

// ConnectionManager tracks every live connection.
// Thread-safe for concurrent access from connection goroutines.
type ConnectionManager struct {
	mu      sync.RWMutex
	clients map[uint32]*Client
	nextID  atomic.Uint32
}

// NewConnectionManager creates a connection registry.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[uint32]*Client, 1024),
	}
}

// NextID allocates a fresh connection id.
func (cm *ConnectionManager) NextID() uint32 {
	return cm.nextID.Add(1)
}

// Add registers a connection. Called on accept.
func (cm *ConnectionManager) Add(c *Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clients[c.ID()] = c
}

// Remove deregisters a connection. Called on close.
func (cm *ConnectionManager) Remove(connID uint32) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.clients, connID)
}

// Get returns the connection with the given id, or nil.
func (cm *ConnectionManager) Get(connID uint32) *Client {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.clients[connID]
}

// Count returns the number of live connections.
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// ForEach iterates over all connections. If fn returns false, iteration
// stops. The lock is held for the whole iteration, so fn must not block.
func (cm *ConnectionManager) ForEach(fn func(*Client) bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for _, c := range cm.clients {
		if !fn(c) {
			return
		}
	}
}

// ForEachMatching calls fn for every connection the predicate selects.
// Used for broadcast.
func (cm *ConnectionManager) ForEachMatching(pred func(*Client) bool, fn func(*Client)) {
	cm.ForEach(func(c *Client) bool {
		if pred(c) {
			fn(c)
		}
		return true
	})
}
