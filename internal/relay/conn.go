package relay

import (
	"sync"

	"github.com/avolkov/pulse/internal/domain"
)

// Frame is a raw outbound payload, marshaled once per broadcast.
type Frame []byte

// Sender abstracts the transport endpoint of one connection.
// Owned by the adapter; the adapter must Close() it.
type Sender interface {
	TrySend(Frame) error
	Close()
}

// Conn is one live transport session. The Registry owns its lifetime.
// The user id stays empty until the client registers an identity.
type Conn struct {
	ID domain.ConnID

	sender Sender

	mu   sync.RWMutex
	user domain.UserID
}

// UserID returns the registered identity, empty if none was registered.
func (c *Conn) UserID() domain.UserID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Conn) setUser(uid domain.UserID) {
	c.mu.Lock()
	c.user = uid
	c.mu.Unlock()
}

// TrySend forwards a frame to the transport without blocking.
func (c *Conn) TrySend(f Frame) error {
	return c.sender.TrySend(f)
}
