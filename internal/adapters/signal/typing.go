package signal

import (
	"encoding/json"

	"github.com/avolkov/pulse/internal/domain"
	"github.com/avolkov/pulse/internal/relay"
	"github.com/rs/zerolog/log"
)

func (ctl *Controller) handleTypingStart(rc *relay.Conn, data []byte) {
	ctl.relayTyping(rc, data, true)
}

func (ctl *Controller) handleTypingStop(rc *relay.Conn, data []byte) {
	ctl.relayTyping(rc, data, false)
}

// relayTyping forwards a typing indicator to everyone else in the
// conversation. The sender never hears its own indicator back.
func (ctl *Controller) relayTyping(rc *relay.Conn, data []byte, isTyping bool) {
	type typingPayload struct {
		Type           string `json:"type"`
		ConversationID string `json:"conversationId"`
		UserID         string `json:"userId"`
		UserName       string `json:"userName"`
	}
	var p typingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad typing payload")
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}
	if p.ConversationID == "" {
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "invalid_conversation_id",
		})
		return
	}
	if len(p.UserName) > domain.MaxUsernameLen {
		p.UserName = p.UserName[:domain.MaxUsernameLen]
	}

	out := struct {
		Type     string `json:"type"`
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
		IsTyping bool   `json:"isTyping"`
	}{
		Type:     "user_typing",
		UserID:   p.UserID,
		UserName: p.UserName,
		IsTyping: isTyping,
	}
	ctl.Broker.BroadcastToConversation(domain.ConversationID(p.ConversationID), out, rc)
}

func (ctl *Controller) handleMessageReaction(rc *relay.Conn, data []byte) {
	type reactionPayload struct {
		Type           string `json:"type"`
		MessageID      string `json:"messageId"`
		ConversationID string `json:"conversationId"`
		Reaction       string `json:"reaction"`
		UserID         string `json:"userId"`
		UserName       string `json:"userName"`
	}
	var p reactionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad reaction payload")
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}
	if p.ConversationID == "" || p.MessageID == "" {
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	out := struct {
		Type      string `json:"type"`
		MessageID string `json:"messageId"`
		Reaction  string `json:"reaction"`
		UserID    string `json:"userId"`
		UserName  string `json:"userName"`
	}{
		Type:      "message_reaction_update",
		MessageID: p.MessageID,
		Reaction:  p.Reaction,
		UserID:    p.UserID,
		UserName:  p.UserName,
	}
	ctl.Broker.BroadcastToConversation(domain.ConversationID(p.ConversationID), out, rc)
}
