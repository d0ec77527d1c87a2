package controllers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"videofetch/models"
	"videofetch/services"
)

// DownloadByFormat relays the variant named by format_id.
func (h *Handler) DownloadByFormat(c *gin.Context) {
	h.serveDownload(c, h.download.ResolveByFormat)
}

// DownloadBest relays the best combined variant.
func (h *Handler) DownloadBest(c *gin.Context) {
	h.serveDownload(c, h.download.ResolveBest)
}

type resolveFunc func(ctx context.Context, req models.DownloadRequest) (*services.Download, error)

func (h *Handler) serveDownload(c *gin.Context, resolve resolveFunc) {
	var req models.DownloadRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.fail(c, services.MissingParameter("Invalid query parameters"))
		return
	}

	ctx := c.Request.Context()
	d, err := resolve(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.download.Send(ctx, d, c.Writer); err != nil {
		if _, ok := services.AsRequestError(err); ok {
			h.fail(c, err)
			return
		}
		// Bytes are already on the wire; the response just ends early.
		h.logger.Warn("download truncated",
			zap.String("format_id", d.Variant.FormatID),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.Abort()
	}
}
