package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"videofetch/services"
	"videofetch/sse"
	ws "videofetch/websocket"
)

// ProgressWebSocket pushes relay progress for a request id over a websocket.
func (h *Handler) ProgressWebSocket(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		h.fail(c, services.MissingParameter("request_id is required"))
		return
	}

	conn, err := ws.Upgrade(c.Writer, c.Request, h.logger)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.GracefulClose()

	client := h.hub.Register(requestID)
	defer h.hub.Unregister(requestID, client)

	h.logger.Debug("progress websocket connected", zap.String("request_id", requestID))
	closed := conn.Listen()
	for {
		select {
		case <-closed:
			return
		case msg, ok := <-client.Channel:
			if !ok {
				return
			}
			if err := conn.SendJSON(gin.H{"event": "progress", "payload": msg}); err != nil {
				return
			}
			if sse.Final(msg) {
				return
			}
		}
	}
}
