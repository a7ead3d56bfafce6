package domain

// Status is the coarse advisory presence state. Transitions are broadcast
// as ephemeral events; nothing keeps an authoritative presence table.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
)

// CallType distinguishes voice and video call invitations.
type CallType string

const (
	CallTypeVoice CallType = "voice"
	CallTypeVideo CallType = "video"
)

func (t CallType) Valid() bool {
	return t == CallTypeVoice || t == CallTypeVideo
}
