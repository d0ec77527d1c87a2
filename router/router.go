package router

import (
	"net/http"

	controllers "videofetch/controller"
	"videofetch/logging"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func SetupRouter(h *controllers.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(logging.Recovery(logger), logging.RequestID(), logging.Middleware(logger))

	r.GET("/healthz", h.Health)

	r.POST("/lookup", h.Lookup)
	r.GET("/download/by-format", h.DownloadByFormat)
	r.GET("/download/best", h.DownloadBest)

	r.GET("/progress/:request_id/events", h.ProgressEvents)
	r.GET("/progress/:request_id/ws", h.ProgressWebSocket)

	// Paths used by the original frontend.
	legacy := r.Group("/api")
	legacy.POST("/youtube", h.Lookup)
	legacy.GET("/download_id_get", h.DownloadByFormat)
	legacy.GET("/download_best_get", h.DownloadBest)

	return r
}

// WithCORS wraps the engine so browsers on allowedOrigins can call it and read the download filename.
func WithCORS(handler http.Handler, allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", logging.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", "Content-Length", logging.RequestIDHeader},
		AllowCredentials: false,
	}).Handler(handler)
}
