// Package domain contains entities without logic, just meta-data.
package domain

type (
	// ConnID identifies one live transport session.
	ConnID string
	// UserID is the identity a client registers on its connection.
	// The relay trusts it as given; verification happens upstream.
	UserID string
	// ConversationID names a conversation room.
	ConversationID string
)

const (
	MaxUserIDLen         = 64
	MaxConversationIDLen = 64
	MaxUsernameLen       = 36
)
