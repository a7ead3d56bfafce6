package relay

import (
	"sync"

	"github.com/avolkov/pulse/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Registry tracks every live connection in the process.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]*Conn)}
}

func (r *Registry) Add(s Sender) *Conn {
	c := &Conn{ID: domain.ConnID(uuid.NewString()), sender: s}
	r.mu.Lock()
	r.conns[c.ID] = c
	r.mu.Unlock()
	log.Info().Str("module", "relay.registry").Str("conn", string(c.ID)).Msg("connection added")
	return c
}

func (r *Registry) Remove(id domain.ConnID) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
	log.Info().Str("module", "relay.registry").Str("conn", string(id)).Msg("connection removed")
}

func (r *Registry) Get(id domain.ConnID) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Snapshot copies the live connection set so fan-out never iterates the
// map while a disconnect mutates it.
func (r *Registry) Snapshot() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}
