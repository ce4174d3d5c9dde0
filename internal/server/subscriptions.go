package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"famcare/internal/models"
)

// saveSubscriptionInput mirrors the PushSubscription JSON a browser
// produces from PushManager.subscribe().
type saveSubscriptionInput struct {
	UserID       uuid.UUID `json:"user_id" binding:"required"`
	Subscription struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys"`
	} `json:"subscription" binding:"required"`
}

func (s *Server) saveSubscription(c *gin.Context) {
	var input saveSubscriptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	sub := &models.PushSubscription{
		UserID:   input.UserID,
		Endpoint: input.Subscription.Endpoint,
		P256dh:   input.Subscription.Keys.P256dh,
		Auth:     input.Subscription.Keys.Auth,
	}

	if err := s.subscriptions.Save(c.Request.Context(), sub); err != nil {
		s.log.Err(err).Msg("Failed to save push subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
