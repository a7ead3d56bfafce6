package signal

import (
	"encoding/json"

	"github.com/avolkov/pulse/internal/domain"
	"github.com/avolkov/pulse/internal/relay"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

func (ctl *Controller) handleCallInitiate(rc *relay.Conn, data []byte) {
	// the call kind rides as callType; the type field is taken by the
	// event envelope
	type initiatePayload struct {
		Type           string          `json:"type"`
		ConversationID string          `json:"conversationId"`
		CallerID       string          `json:"callerId"`
		CallerName     string          `json:"callerName"`
		CallType       domain.CallType `json:"callType"`
	}
	var p initiatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad call_initiate payload")
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}
	if p.ConversationID == "" || !p.CallType.Valid() {
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(rc.ID)).Str("conversation", p.ConversationID).Str("call_type", string(p.CallType)).Msg("call initiate")
	out := struct {
		Type           string          `json:"type"`
		CallerID       string          `json:"callerId"`
		CallerName     string          `json:"callerName"`
		CallType       domain.CallType `json:"callType"`
		ConversationID string          `json:"conversationId"`
	}{
		Type:           "incoming_call",
		CallerID:       p.CallerID,
		CallerName:     p.CallerName,
		CallType:       p.CallType,
		ConversationID: p.ConversationID,
	}
	ctl.Broker.BroadcastToConversation(domain.ConversationID(p.ConversationID), out, rc)
}

func (ctl *Controller) handleCallAnswer(rc *relay.Conn, data []byte) {
	ctl.relayCallState(rc, data, "call_answered")
}

func (ctl *Controller) handleCallReject(rc *relay.Conn, data []byte) {
	ctl.relayCallState(rc, data, "call_rejected")
}

func (ctl *Controller) handleCallEnd(rc *relay.Conn, data []byte) {
	ctl.relayCallState(rc, data, "call_ended")
}

// relayCallState forwards answer/reject/end to the rest of the
// conversation room, mirroring the triggering payload.
func (ctl *Controller) relayCallState(rc *relay.Conn, data []byte, outType string) {
	type callPayload struct {
		Type           string `json:"type"`
		ConversationID string `json:"conversationId"`
		UserID         string `json:"userId"`
	}
	var p callPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad call payload")
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

	out := struct {
		Type           string `json:"type"`
		UserID         string `json:"userId"`
		ConversationID string `json:"conversationId"`
	}{
		Type:           outType,
		UserID:         p.UserID,
		ConversationID: p.ConversationID,
	}
	ctl.Broker.BroadcastToConversation(domain.ConversationID(p.ConversationID), out, rc)
}

func (ctl *Controller) handleWebRTCOffer(rc *relay.Conn, data []byte) {
	type offerPayload struct {
		Type           string                    `json:"type"`
		ConversationID string                    `json:"conversationId"`
		TargetUserID   string                    `json:"targetUserId"`
		Offer          webrtc.SessionDescription `json:"offer"`
	}
	var p offerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad webrtc_offer payload")
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}
	if p.TargetUserID == "" || p.Offer.SDP == "" {
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	out := struct {
		Type           string                    `json:"type"`
		ConversationID string                    `json:"conversationId"`
		Offer          webrtc.SessionDescription `json:"offer"`
		FromUserID     string                    `json:"fromUserId"`
	}{
		Type:           "webrtc_offer",
		ConversationID: p.ConversationID,
		Offer:          p.Offer,
		FromUserID:     string(rc.UserID()),
	}
	ctl.Broker.BroadcastToUser(domain.UserID(p.TargetUserID), out)
}

func (ctl *Controller) handleWebRTCAnswer(rc *relay.Conn, data []byte) {
	type answerPayload struct {
		Type           string                    `json:"type"`
		ConversationID string                    `json:"conversationId"`
		TargetUserID   string                    `json:"targetUserId"`
		Answer         webrtc.SessionDescription `json:"answer"`
	}
	var p answerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad webrtc_answer payload")
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}
	if p.TargetUserID == "" || p.Answer.SDP == "" {
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	out := struct {
		Type           string                    `json:"type"`
		ConversationID string                    `json:"conversationId"`
		Answer         webrtc.SessionDescription `json:"answer"`
		FromUserID     string                    `json:"fromUserId"`
	}{
		Type:           "webrtc_answer",
		ConversationID: p.ConversationID,
		Answer:         p.Answer,
		FromUserID:     string(rc.UserID()),
	}
	ctl.Broker.BroadcastToUser(domain.UserID(p.TargetUserID), out)
}

func (ctl *Controller) handleWebRTCCandidate(rc *relay.Conn, data []byte) {
	type candidatePayload struct {
		Type           string                  `json:"type"`
		ConversationID string                  `json:"conversationId"`
		TargetUserID   string                  `json:"targetUserId"`
		Candidate      webrtc.ICECandidateInit `json:"candidate"`
	}
	var p candidatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad webrtc_ice_candidate payload")
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}
	if p.TargetUserID == "" || p.Candidate.Candidate == "" {
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	out := struct {
		Type           string                  `json:"type"`
		ConversationID string                  `json:"conversationId"`
		Candidate      webrtc.ICECandidateInit `json:"candidate"`
		FromUserID     string                  `json:"fromUserId"`
	}{
		Type:           "webrtc_ice_candidate",
		ConversationID: p.ConversationID,
		Candidate:      p.Candidate,
		FromUserID:     string(rc.UserID()),
	}
	ctl.Broker.BroadcastToUser(domain.UserID(p.TargetUserID), out)
}
