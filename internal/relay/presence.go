package relay

import "github.com/avolkov/pulse/internal/domain"

// statusChange is the global presence broadcast. It goes to every live
// connection, the originator included; clients treat it as a hint, not
// ground truth.
type statusChange struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
	Status domain.Status `json:"status"`
}

func (b *Broker) SetOnline(uid domain.UserID) {
	b.broadcastStatus(uid, domain.StatusOnline)
}

func (b *Broker) SetAway(uid domain.UserID) {
	b.broadcastStatus(uid, domain.StatusAway)
}

// setOffline runs only from the disconnect path.
func (b *Broker) setOffline(uid domain.UserID) {
	b.broadcastStatus(uid, domain.StatusOffline)
}

func (b *Broker) broadcastStatus(uid domain.UserID, st domain.Status) {
	b.BroadcastAll(statusChange{
		Type:   "user_status_change",
		UserID: uid,
		Status: st,
	})
}
