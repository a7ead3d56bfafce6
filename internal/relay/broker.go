// Package relay implements the in-process presence and event relay: a
// registry of live connections, per-user and per-conversation rooms, and
// fire-and-forget fan-out. Nothing here persists or acknowledges; a
// broadcast into an empty room is a silent no-op.
package relay

import (
	"encoding/json"

	"github.com/avolkov/pulse/internal/domain"
	"github.com/rs/zerolog/log"
)

// Broker wires the connection registry and the room registry into one
// explicitly constructed object. Collaborators hold it by reference;
// there is no package-level instance, so tests can run independent
// brokers side by side.
type Broker struct {
	registry *Registry
	rooms    *Rooms
}

func NewBroker() *Broker {
	return &Broker{
		registry: NewRegistry(),
		rooms:    NewRooms(),
	}
}

// Connect allocates a registry entry for a freshly established transport.
// No identity is attached yet.
func (b *Broker) Connect(s Sender) *Conn {
	return b.registry.Add(s)
}

// Disconnect removes the connection from every room and from the
// registry. If an identity had been registered, every remaining client
// gets a single offline status broadcast; otherwise nothing is emitted.
func (b *Broker) Disconnect(c *Conn) {
	b.rooms.RemoveConn(c)
	b.registry.Remove(c.ID)
	if uid := c.UserID(); uid != "" {
		b.setOffline(uid)
	}
}

// RegisterIdentity attaches a user id to the connection and joins its
// user room. Re-registering the same id is a no-op. Registering a
// different id joins the new user room without leaving the previous one;
// disconnect is the only membership cleanup.
func (b *Broker) RegisterIdentity(c *Conn, uid domain.UserID) {
	if uid == "" || c.UserID() == uid {
		return
	}
	c.setUser(uid)
	b.rooms.JoinUser(c, uid)
}

func (b *Broker) JoinConversation(c *Conn, cid domain.ConversationID) {
	b.rooms.JoinConversation(c, cid)
}

func (b *Broker) LeaveConversation(c *Conn, cid domain.ConversationID) {
	b.rooms.LeaveConversation(c, cid)
}

// BroadcastToConversation fans v out to the conversation room, skipping
// exclude when non-nil.
func (b *Broker) BroadcastToConversation(cid domain.ConversationID, v any, exclude *Conn) {
	f, ok := encode(v)
	if !ok {
		return
	}
	b.deliver(b.rooms.ConversationMembers(cid), f, exclude)
}

// BroadcastToUser fans v out to every connection registered under uid.
// A user with zero live connections drops the event silently.
func (b *Broker) BroadcastToUser(uid domain.UserID, v any) {
	f, ok := encode(v)
	if !ok {
		return
	}
	b.deliver(b.rooms.UserMembers(uid), f, nil)
}

// BroadcastAll fans v out to every live connection, sender included.
// Only presence uses this path.
func (b *Broker) BroadcastAll(v any) {
	f, ok := encode(v)
	if !ok {
		return
	}
	b.deliver(b.registry.Snapshot(), f, nil)
}

// Stats reports live counts for the observability API.
type Stats struct {
	Connections   int        `json:"connections"`
	UserRooms     []RoomInfo `json:"user_rooms"`
	Conversations []RoomInfo `json:"conversations"`
}

func (b *Broker) RoomStats() Stats {
	return Stats{
		Connections:   b.registry.Len(),
		UserRooms:     b.rooms.ListUserRooms(),
		Conversations: b.rooms.ListConversations(),
	}
}

func (b *Broker) deliver(conns []*Conn, f Frame, exclude *Conn) {
	sent, dropped := 0, 0
	for _, c := range conns {
		if c == exclude {
			continue
		}
		if err := c.TrySend(f); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "relay.broker").Int("sent_to", sent).Int("dropped", dropped).Msg("fan-out result")
}

func encode(v any) (Frame, bool) {
	f, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "relay.broker").Msg("encode event")
		return nil, false
	}
	return f, true
}
