package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) GetNotifications(c *gin.Context) {
	notifications, err := h.notifications.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"notifications": notifications})
}

// UpdateNotification marks one notification read and returns the refreshed list.
func (h HandlerSet) UpdateNotification(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.notifications.MarkRead(ctx, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	notifications, err := h.notifications.List(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"notifications": notifications})
}
