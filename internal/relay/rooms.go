package relay

import (
	"sync"

	"github.com/avolkov/pulse/internal/domain"
	"github.com/rs/zerolog/log"
)

// Rooms holds both room kinds as sets of live connections. A user room
// is keyed by the identity registered on its member connections; a
// conversation room is keyed by conversation id. Rooms are created
// lazily on first join and deleted when the last member leaves, so an
// empty room is observable only as a zero size.
type Rooms struct {
	mu    sync.RWMutex
	users map[domain.UserID]map[domain.ConnID]*Conn
	convs map[domain.ConversationID]map[domain.ConnID]*Conn
}

func NewRooms() *Rooms {
	return &Rooms{
		users: make(map[domain.UserID]map[domain.ConnID]*Conn),
		convs: make(map[domain.ConversationID]map[domain.ConnID]*Conn),
	}
}

func (r *Rooms) JoinUser(c *Conn, uid domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.users[uid]
	if !ok {
		room = make(map[domain.ConnID]*Conn)
		r.users[uid] = room
	}
	room[c.ID] = c
	log.Info().Str("module", "relay.rooms").Str("conn", string(c.ID)).Str("user", string(uid)).Msg("joined user room")
}

// JoinConversation is idempotent: set semantics mean a double join never
// produces duplicate delivery.
func (r *Rooms) JoinConversation(c *Conn, cid domain.ConversationID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.convs[cid]
	if !ok {
		room = make(map[domain.ConnID]*Conn)
		r.convs[cid] = room
	}
	room[c.ID] = c
	log.Info().Str("module", "relay.rooms").Str("conn", string(c.ID)).Str("conversation", string(cid)).Msg("joined conversation")
}

// LeaveConversation is a no-op when the connection is not a member.
func (r *Rooms) LeaveConversation(c *Conn, cid domain.ConversationID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.convs[cid]
	if !ok {
		return
	}
	delete(room, c.ID)
	if len(room) == 0 {
		delete(r.convs, cid)
	}
	log.Info().Str("module", "relay.rooms").Str("conn", string(c.ID)).Str("conversation", string(cid)).Msg("left conversation")
}

// RemoveConn drops the connection from every room it belongs to. This is
// the only membership cleanup path; it runs exactly once, on disconnect.
func (r *Rooms) RemoveConn(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for uid, room := range r.users {
		delete(room, c.ID)
		if len(room) == 0 {
			delete(r.users, uid)
		}
	}
	for cid, room := range r.convs {
		delete(room, c.ID)
		if len(room) == 0 {
			delete(r.convs, cid)
		}
	}
	log.Info().Str("module", "relay.rooms").Str("conn", string(c.ID)).Msg("removed from all rooms")
}

func (r *Rooms) UserRoomSize(uid domain.UserID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[uid])
}

func (r *Rooms) ConversationSize(cid domain.ConversationID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.convs[cid])
}

// UserMembers snapshots a user room for fan-out.
func (r *Rooms) UserMembers(uid domain.UserID) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.users[uid]))
	for _, c := range r.users[uid] {
		out = append(out, c)
	}
	return out
}

// ConversationMembers snapshots a conversation room for fan-out.
func (r *Rooms) ConversationMembers(cid domain.ConversationID) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.convs[cid]))
	for _, c := range r.convs[cid] {
		out = append(out, c)
	}
	return out
}

// RoomInfo is a read-only view for the observability API.
type RoomInfo struct {
	ID          string `json:"id"`
	MemberCount int    `json:"member_count"`
}

func (r *Rooms) ListUserRooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.users))
	for uid, room := range r.users {
		out = append(out, RoomInfo{ID: string(uid), MemberCount: len(room)})
	}
	return out
}

func (r *Rooms) ListConversations() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.convs))
	for cid, room := range r.convs {
		out = append(out, RoomInfo{ID: string(cid), MemberCount: len(room)})
	}
	return out
}
