package http

import (
	"net/http"

	"github.com/avolkov/pulse/internal/domain"
	"github.com/avolkov/pulse/internal/relay"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type pushUsersRequest struct {
	UserIDs []string `json:"userIds" binding:"required,min=1"`
	Event   string   `json:"event" binding:"required"`
	Payload any      `json:"payload"`
}

// pushToUsers injects a server-initiated event into each listed user's
// room. Delivery is fire-and-forget, so the response only confirms the
// request was accepted, never that anyone received it.
func pushToUsers(broker *relay.Broker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pushUsersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ids := make([]domain.UserID, 0, len(req.UserIDs))
		for _, id := range req.UserIDs {
			ids = append(ids, domain.UserID(id))
		}
		log.Info().Str("module", "adapters.http").Str("event", req.Event).Int("users", len(ids)).Msg("push to users")
		broker.PushToUsers(ids, req.Event, req.Payload)
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	}
}

type pushConversationRequest struct {
	Event   string `json:"event" binding:"required"`
	Payload any    `json:"payload"`
}

func pushToConversation(broker *relay.Broker) gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.Param("id")
		if cid == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing conversation id"})
			return
		}
		var req pushConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		log.Info().Str("module", "adapters.http").Str("event", req.Event).Str("conversation", cid).Msg("push to conversation")
		broker.PushToConversation(domain.ConversationID(cid), req.Event, req.Payload)
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	}
}

func listRooms(broker *relay.Broker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, broker.RoomStats())
	}
}
