// Package contextdir provides an in-memory shared-context directory with a
// bounded per-agent history.
package contextdir

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openfleet/swarmctl/pkg/swarm"
)

// Config holds the directory tunables
type Config struct {
	// MaxHistory bounds the retained records per agent; older records are
	// evicted first
	MaxHistory int `yaml:"max_history"`
}

// DefaultConfig returns the standard directory configuration
func DefaultConfig() Config {
	return Config{MaxHistory: 64}
}

// Directory is an in-memory implementation of swarm.ContextDirectory
type Directory struct {
	mu sync.RWMutex

	cfg     Config
	running bool
	history map[string][]swarm.ContextData
}

// New creates a directory with the given configuration
func New(cfg Config) *Directory {
	return &Directory{
		cfg:     cfg,
		history: make(map[string][]swarm.ContextData),
	}
}

// Start begins accepting publications
func (d *Directory) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = true
	return nil
}

// Stop halts publications; stored records are retained
func (d *Directory) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
}

// Reset drops all stored records
func (d *Directory) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = make(map[string][]swarm.ContextData)
	d.running = false
}

// PublishContext appends a record to the publishing agent's history,
// evicting the oldest record past the history bound. Returns false when the
// directory is stopped or the record names no agent.
func (d *Directory) PublishContext(ctx swarm.ContextData) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running || ctx.AgentID == "" {
		return false
	}
	if ctx.ContextID == "" {
		ctx.ContextID = "ctx_" + uuid.NewString()
	}
	if ctx.Timestamp.IsZero() {
		ctx.Timestamp = time.Now()
	}

	records := append(d.history[ctx.AgentID], ctx)
	if len(records) > d.cfg.MaxHistory {
		records = records[len(records)-d.cfg.MaxHistory:]
	}
	d.history[ctx.AgentID] = records
	return true
}

// QueryContext returns every stored record, grouped by agent id in ascending
// order, oldest first within each agent
func (d *Directory) QueryContext() []swarm.ContextData {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.history))
	for id := range d.history {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []swarm.ContextData
	for _, id := range ids {
		out = append(out, d.history[id]...)
	}
	return out
}

// Latest returns the most recent record published by one agent
func (d *Directory) Latest(agentID string) (swarm.ContextData, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	records := d.history[agentID]
	if len(records) == 0 {
		return swarm.ContextData{}, false
	}
	return records[len(records)-1], true
}
