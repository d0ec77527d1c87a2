package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"videofetch/services"
	"videofetch/sse"
)

// ProgressEvents streams relay progress for a request id as server-sent events.
func (h *Handler) ProgressEvents(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		h.fail(c, services.MissingParameter("request_id is required"))
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	client := h.hub.Register(requestID)
	defer h.hub.Unregister(requestID, client)

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-client.Channel:
			if !ok {
				return
			}
			c.SSEvent("progress", msg)
			c.Writer.Flush()
			if sse.Final(msg) {
				return
			}
		}
	}
}
