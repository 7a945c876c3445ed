package rcon

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"cs2panel/internal/domain"
	"cs2panel/internal/pkg/logger"
)

// Pool holds one Client per instance so every component sending
// commands to an instance shares the same serialized queue.
type Pool struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*Client
}

func NewPool() *Pool {
	return &Pool{clients: make(map[uuid.UUID]*Client)}
}

// Ensure returns the instance's client, creating it if needed. The
// client connects lazily on the first command.
func (p *Pool) Ensure(instanceID uuid.UUID, addr, password string) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[instanceID]; ok {
		return c
	}
	c := NewClient(addr, password)
	p.clients[instanceID] = c
	logger.Log.Debug().Str("instance", instanceID.String()).Str("addr", addr).Msg("rcon: pool client created")
	return c
}

// Get returns the instance's client if one exists.
func (p *Pool) Get(instanceID uuid.UUID) (*Client, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.clients[instanceID]
	return c, ok
}

// Send runs a command on the instance's shared queue.
func (p *Pool) Send(instanceID uuid.UUID, command string, timeout time.Duration) (string, error) {
	c, ok := p.Get(instanceID)
	if !ok {
		return "", domain.Errorf(domain.KindProtocol, "rcon: instance %s not connected", instanceID)
	}
	return c.Send(command, timeout)
}

// Drop closes and removes the instance's client.
func (p *Pool) Drop(instanceID uuid.UUID) {
	p.mu.Lock()
	c, ok := p.clients[instanceID]
	delete(p.clients, instanceID)
	p.mu.Unlock()

	if ok {
		c.Close()
		logger.Log.Debug().Str("instance", instanceID.String()).Msg("rcon: pool client dropped")
	}
}

// DropAll closes every client.
func (p *Pool) DropAll() {
	p.mu.Lock()
	clients := p.clients
	p.clients = make(map[uuid.UUID]*Client)
	p.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
