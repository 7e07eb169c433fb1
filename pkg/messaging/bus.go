// Package messaging provides an in-memory message bus for agent-to-agent and
// broadcast traffic with a bounded queue and drain-on-receive semantics.
package messaging

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openfleet/swarmctl/pkg/swarm"
)

// Config holds the bus tunables
type Config struct {
	// QueueSize bounds the number of undelivered messages; sends beyond the
	// bound are rejected
	QueueSize int `yaml:"queue_size"`
}

// DefaultConfig returns the standard bus configuration
func DefaultConfig() Config {
	return Config{QueueSize: 1024}
}

// Bus is an in-memory implementation of swarm.MessagingBus
type Bus struct {
	mu sync.Mutex

	cfg       Config
	running   bool
	endpoints map[string]struct{}
	queue     []swarm.Message
}

// New creates a bus with the given configuration
func New(cfg Config) *Bus {
	return &Bus{
		cfg:       cfg,
		endpoints: make(map[string]struct{}),
	}
}

// Start begins accepting traffic
func (b *Bus) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = true
	return nil
}

// Stop halts traffic; queued messages and endpoints are retained
func (b *Bus) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = false
}

// Reset drops all endpoints and queued messages
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endpoints = make(map[string]struct{})
	b.queue = nil
	b.running = false
}

// RegisterEndpoint adds an agent endpoint. Returns false for empty or
// duplicate ids.
func (b *Bus) RegisterEndpoint(agentID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if agentID == "" {
		return false
	}
	if _, exists := b.endpoints[agentID]; exists {
		return false
	}
	b.endpoints[agentID] = struct{}{}
	return true
}

// UnregisterEndpoint removes an agent endpoint. Returns false when unknown.
func (b *Bus) UnregisterEndpoint(agentID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.endpoints[agentID]; !exists {
		return false
	}
	delete(b.endpoints, agentID)
	return true
}

// SendBroadcast queues a message addressed to every endpoint. Returns false
// when the bus is stopped or the queue is full.
func (b *Bus) SendBroadcast(msg swarm.Message) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running || len(b.queue) >= b.cfg.QueueSize {
		return false
	}
	if msg.MessageID == "" {
		msg.MessageID = "broadcast_" + uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.ReceiverID = ""
	msg.Type = swarm.MessageBroadcast
	b.queue = append(b.queue, msg)
	return true
}

// SendMessage queues a direct message. Returns false when the bus is stopped,
// the receiver is not a registered endpoint, or the queue is full.
func (b *Bus) SendMessage(msg swarm.Message) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running || len(b.queue) >= b.cfg.QueueSize {
		return false
	}
	if _, exists := b.endpoints[msg.ReceiverID]; !exists {
		return false
	}
	if msg.MessageID == "" {
		msg.MessageID = "msg_" + uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	b.queue = append(b.queue, msg)
	return true
}

// ReceiveMessages drains and returns all queued messages in send order
func (b *Bus) ReceiveMessages() []swarm.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.queue
	b.queue = nil
	return out
}

// EndpointCount returns the number of registered endpoints
func (b *Bus) EndpointCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.endpoints)
}
