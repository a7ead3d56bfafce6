package signal

import (
	"encoding/json"

	"github.com/avolkov/pulse/internal/domain"
	"github.com/avolkov/pulse/internal/relay"
	"github.com/rs/zerolog/log"
)

func (ctl *Controller) handleJoinUserRoom(rc *relay.Conn, data []byte) {
	type joinPayload struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join_user_room payload")
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}
	if p.UserID == "" || len(p.UserID) > domain.MaxUserIDLen {
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "invalid_user_id",
		})
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(rc.ID)).Str("user", p.UserID).Msg("join user room")
	ctl.Broker.RegisterIdentity(rc, domain.UserID(p.UserID))
}

func (ctl *Controller) handleJoinConversation(rc *relay.Conn, data []byte) {
	type joinPayload struct {
		Type           string `json:"type"`
		ConversationID string `json:"conversationId"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join_conversation payload")
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}
	if p.ConversationID == "" || len(p.ConversationID) > domain.MaxConversationIDLen {
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "invalid_conversation_id",
		})
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(rc.ID)).Str("conversation", p.ConversationID).Msg("join conversation")
	ctl.Broker.JoinConversation(rc, domain.ConversationID(p.ConversationID))
}

func (ctl *Controller) handleLeaveConversation(rc *relay.Conn, data []byte) {
	type leavePayload struct {
		Type           string `json:"type"`
		ConversationID string `json:"conversationId"`
	}
	var p leavePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave_conversation payload")
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}
	if p.ConversationID == "" {
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(rc.ID)).Str("conversation", p.ConversationID).Msg("leave conversation")
	ctl.Broker.LeaveConversation(rc, domain.ConversationID(p.ConversationID))
}
