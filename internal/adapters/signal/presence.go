package signal

import (
	"encoding/json"

	"github.com/avolkov/pulse/internal/domain"
	"github.com/avolkov/pulse/internal/relay"
	"github.com/rs/zerolog/log"
)

func (ctl *Controller) handleUserOnline(rc *relay.Conn, data []byte) {
	ctl.relayStatus(rc, data, domain.StatusOnline)
}

func (ctl *Controller) handleUserAway(rc *relay.Conn, data []byte) {
	ctl.relayStatus(rc, data, domain.StatusAway)
}

func (ctl *Controller) relayStatus(rc *relay.Conn, data []byte, st domain.Status) {
	type statusPayload struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	}
	var p statusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad status payload")
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}
	if p.UserID == "" {
		ctl.sendJSON(rc, map[string]any{
			"type":  "error",
			"error": "invalid_user_id",
		})
		return
	}

	switch st {
	case domain.StatusOnline:
		ctl.Broker.SetOnline(domain.UserID(p.UserID))
	case domain.StatusAway:
		ctl.Broker.SetAway(domain.UserID(p.UserID))
	}
}
