package services

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"videofetch/models"
	"videofetch/selector"
	util "videofetch/utils"
	ytdlp "videofetch/yt-dlp"
)

// ProgressPublisher receives relay progress for downloads that carry a request id.
type ProgressPublisher interface {
	Publish(progress models.DownloadProgress)
}

// Download is a resolved variant ready to be relayed.
type Download struct {
	Variant     models.Variant
	Filename    string
	Ext         string
	ContentType string
	RequestID   string
}

// Disposition is the Content-Disposition header value.
func (d *Download) Disposition() string {
	return util.AttachmentDisposition(d.Filename, d.Ext)
}

// DownloadService resolves direct URLs against a freshly extracted catalog and relays them.
type DownloadService struct {
	extractor ytdlp.Extractor
	proxy     *Proxy
	options   selector.Options
	progress  ProgressPublisher
	logger    *zap.Logger
}

func NewDownloadService(extractor ytdlp.Extractor, proxy *Proxy, options selector.Options, progress ProgressPublisher, logger *zap.Logger) *DownloadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadService{
		extractor: extractor,
		proxy:     proxy,
		options:   options,
		progress:  progress,
		logger:    logger.With(zap.String("component", "download")),
	}
}

// ResolveByFormat finds the variant whose id equals req.FormatID.
func (s *DownloadService) ResolveByFormat(ctx context.Context, req models.DownloadRequest) (*Download, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, MissingParameter("URL is required")
	}
	if strings.TrimSpace(req.FormatID) == "" {
		return nil, MissingParameter("Format ID is required")
	}

	catalog, err := extract(ctx, s.extractor, req.URL)
	if err != nil {
		return nil, err
	}

	for _, v := range catalog.Formats {
		if v.FormatID != req.FormatID {
			continue
		}
		if v.URL == "" {
			return nil, newRequestError(ErrFormatNotFound, "Format URL not found", nil)
		}
		return &Download{
			Variant:     v,
			Filename:    filenameOr(req.Filename, "download"),
			Ext:         extOr(req.Ext, "mp4"),
			ContentType: "application/octet-stream",
			RequestID:   req.RequestID,
		}, nil
	}
	return nil, newRequestError(ErrFormatNotFound, "Format not found", nil)
}

// ResolveBest picks the best combined variant, preferring the configured container.
func (s *DownloadService) ResolveBest(ctx context.Context, req models.DownloadRequest) (*Download, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, MissingParameter("URL is required")
	}

	catalog, err := extract(ctx, s.extractor, req.URL)
	if err != nil {
		return nil, err
	}

	best, ok := selector.BestCombinedPreferring(catalog.Formats, s.options.CombinedContainer).Get()
	if !ok || best.URL == "" {
		return nil, newRequestError(ErrFormatNotFound, "No suitable format found", nil)
	}
	ext := extOr(best.Ext, "mp4")
	return &Download{
		Variant:     best,
		Filename:    filenameOr(req.Filename, "video"),
		Ext:         ext,
		ContentType: "video/" + ext,
		RequestID:   req.RequestID,
	}, nil
}

// Send opens the upstream and relays it to w. A *RequestError means nothing
// was written yet; any other error means the response was cut short.
func (s *DownloadService) Send(ctx context.Context, d *Download, w http.ResponseWriter) error {
	upstream, err := s.proxy.Open(ctx, d.Variant.URL)
	if err != nil {
		s.publish(d, "error", err.Error(), 0, 0)
		return err
	}
	defer upstream.Close()

	total := upstream.ContentLength()
	header := w.Header()
	header.Set("Content-Disposition", d.Disposition())
	header.Set("Content-Type", d.ContentType)
	if total >= 0 {
		header.Set("Content-Length", strconv.FormatInt(total, 10))
	}
	w.WriteHeader(http.StatusOK)
	s.publish(d, "start", "Download started", 0, total)

	written, err := upstream.Relay(w, func(written int64) {
		s.publish(d, "downloading", "", written, total)
	})
	if err != nil {
		s.logger.Warn("relay truncated",
			zap.String("format_id", d.Variant.FormatID),
			zap.Int64("written", written),
			zap.Error(err),
		)
		s.publish(d, "error", "Download interrupted", written, total)
		return err
	}

	s.logger.Info("relay completed",
		zap.String("format_id", d.Variant.FormatID),
		zap.Int64("written", written),
	)
	s.publish(d, "completed", "Download complete", written, total)
	return nil
}

func (s *DownloadService) publish(d *Download, status, message string, written, total int64) {
	if s.progress == nil || d.RequestID == "" {
		return
	}
	var percent float64
	if total > 0 {
		percent = float64(written) / float64(total) * 100
	}
	s.progress.Publish(models.DownloadProgress{
		RequestID:      d.RequestID,
		Progress:       percent,
		DownloadedSize: written,
		TotalSize:      max(total, 0),
		Status:         status,
		Message:        message,
	})
}

// AsRequestError unwraps a failure that can still be answered with a JSON body.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}

func filenameOr(name, fallback string) string {
	if clean := util.SanitizeFilename(name); clean != "" {
		return clean
	}
	return fallback
}

// extOr keeps only alphanumerics so the extension cannot break the header quoting.
func extOr(ext, fallback string) string {
	clean := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, ext)
	if clean == "" {
		return fallback
	}
	return clean
}
