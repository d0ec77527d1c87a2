package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"videofetch/logging"
	"videofetch/models"
	"videofetch/services"
	"videofetch/sse"
)

// Lookuper resolves a URL into its curated stream list.
type Lookuper interface {
	Lookup(ctx context.Context, videoURL string) (*models.LookupResponse, error)
}

// Downloader resolves and relays a single variant.
type Downloader interface {
	ResolveByFormat(ctx context.Context, req models.DownloadRequest) (*services.Download, error)
	ResolveBest(ctx context.Context, req models.DownloadRequest) (*services.Download, error)
	Send(ctx context.Context, d *services.Download, w http.ResponseWriter) error
}

// Handler bundles the HTTP handlers and their collaborators.
type Handler struct {
	lookup   Lookuper
	download Downloader
	hub      *sse.Hub
	logger   *zap.Logger
}

func NewHandler(lookup Lookuper, download Downloader, hub *sse.Hub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{lookup: lookup, download: download, hub: hub, logger: logger}
}

// Lookup handles the metadata request.
func (h *Handler) Lookup(c *gin.Context) {
	var req models.LookupRequest

	// Parse request JSON; a missing or malformed body is reported as a missing URL
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		h.fail(c, services.MissingParameter("No URL provided"))
		return
	}

	resp, err := h.lookup.Lookup(c.Request.Context(), req.URL)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail answers with {"error": ...} and the status matching the error kind.
func (h *Handler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	message := "internal error"
	if reqErr, ok := services.AsRequestError(err); ok {
		message = reqErr.Message
	}
	h.logger.Info("request failed",
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", logging.GetRequestID(c)),
		zap.Error(err),
	)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// StatusFor maps an error kind onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrMissingParameter):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrFormatNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
