package relay

import "github.com/avolkov/pulse/internal/domain"

// pushEnvelope wraps collaborator-initiated events so clients can route
// on the type field like any relay event.
type pushEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// PushToUsers delivers a server-initiated event to every live connection
// of each listed user. Partial delivery is expected: offline users are
// skipped, nothing is queued, no error is reported.
func (b *Broker) PushToUsers(ids []domain.UserID, event string, payload any) {
	f, ok := encode(pushEnvelope{Type: event, Payload: payload})
	if !ok {
		return
	}
	for _, uid := range ids {
		b.deliver(b.rooms.UserMembers(uid), f, nil)
	}
}

// PushToConversation delivers a server-initiated event to every member
// of the conversation room, with no excluded connection.
func (b *Broker) PushToConversation(cid domain.ConversationID, event string, payload any) {
	f, ok := encode(pushEnvelope{Type: event, Payload: payload})
	if !ok {
		return
	}
	b.deliver(b.rooms.ConversationMembers(cid), f, nil)
}
