// Package chat relays text messages between connected browser sockets
package chat

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conn is a connected chat client
type Conn interface {
	Send(text string) error
	Close() error
}

// Registry owns the set of connected clients
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]Conn
	logger *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		conns:  make(map[string]Conn),
		logger: logger,
	}
}

// Register adds a connection and returns its id
func (r *Registry) Register(conn Conn) string {
	id := uuid.NewString()

	r.mu.Lock()
	r.conns[id] = conn
	r.mu.Unlock()

	r.logger.Debug("chat connection registered", zap.String("conn_id", id))
	return id
}

// Unregister removes a connection; unknown ids are ignored
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	_, ok := r.conns[id]
	delete(r.conns, id)
	r.mu.Unlock()

	if ok {
		r.logger.Debug("chat connection unregistered", zap.String("conn_id", id))
	}
}

// Broadcast sends text to every registered connection and returns how many received it.
// Connections that fail to receive are closed and unregistered.
func (r *Registry) Broadcast(text string) int {
	r.mu.RLock()
	targets := make(map[string]Conn, len(r.conns))
	for id, conn := range r.conns {
		targets[id] = conn
	}
	r.mu.RUnlock()

	delivered := 0
	for id, conn := range targets {
		if err := conn.Send(text); err != nil {
			r.logger.Debug("dropping chat connection", zap.String("conn_id", id), zap.Error(err))
			r.Unregister(id)
			_ = conn.Close()
			continue
		}
		delivered++
	}
	return delivered
}

// List returns the ids of registered connections in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered connections
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
