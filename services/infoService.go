package services

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"videofetch/models"
	"videofetch/selector"
	util "videofetch/utils"
	ytdlp "videofetch/yt-dlp"
)

// LookupService turns a source URL into the curated stream list.
type LookupService struct {
	extractor ytdlp.Extractor
	options   selector.Options
	logger    *zap.Logger
}

func NewLookupService(extractor ytdlp.Extractor, options selector.Options, logger *zap.Logger) *LookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{
		extractor: extractor,
		options:   options,
		logger:    logger.With(zap.String("component", "lookup")),
	}
}

func (s *LookupService) Lookup(ctx context.Context, videoURL string) (*models.LookupResponse, error) {
	catalog, err := extract(ctx, s.extractor, videoURL)
	if err != nil {
		return nil, err
	}

	selection := selector.Select(catalog.Formats, s.options)
	s.logger.Info("streams selected",
		zap.String("platform", util.DetectPlatform(videoURL)),
		zap.Int("formats", len(catalog.Formats)),
		zap.Int("video", len(selection.VideoByResolution)),
		zap.Int("audio", len(selection.AudioByBitrate)),
		zap.Bool("combined", selection.CombinedBest.IsPresent()),
	)
	return BuildLookupResponse(catalog, selection), nil
}

// extract validates the URL and runs the extractor, mapping failures onto request errors.
func extract(ctx context.Context, extractor ytdlp.Extractor, videoURL string) (*models.Catalog, error) {
	if strings.TrimSpace(videoURL) == "" {
		return nil, MissingParameter("URL is required")
	}
	if err := util.ValidateSourceURL(videoURL); err != nil {
		return nil, newRequestError(ErrMissingParameter, err.Error(), err)
	}
	catalog, err := extractor.Extract(ctx, strings.TrimSpace(videoURL))
	if err != nil {
		return nil, newRequestError(ErrExtractionFailed, err.Error(), err)
	}
	return catalog, nil
}

// BuildLookupResponse renders a selection into its wire shape.
func BuildLookupResponse(catalog *models.Catalog, selection models.Selection) *models.LookupResponse {
	resp := &models.LookupResponse{
		Title:     catalog.Title,
		Thumbnail: catalog.Thumbnail,
		Duration:  util.FormatDuration(catalog.Duration),
		Streams: models.Streams{
			Video: make([]models.StreamEntry, 0, len(selection.VideoByResolution)),
			Audio: make([]models.StreamEntry, 0, len(selection.AudioByBitrate)),
		},
	}

	if best, ok := selection.CombinedBest.Get(); ok {
		entry := videoEntry(best, best.ResolutionLabel.OrElse("Unknown"))
		resp.Streams.VideoAudio = &entry
	}
	if baseline, ok := selection.Combined360.Get(); ok {
		entry := videoEntry(baseline, "360p")
		resp.Streams.Progressive360 = &entry
	}
	for _, pick := range selection.VideoByResolution {
		resp.Streams.Video = append(resp.Streams.Video, videoEntry(pick.Variant, pick.Variant.ResolutionLabel.OrElse(pick.Target)))
	}
	for _, pick := range selection.AudioByBitrate {
		resp.Streams.Audio = append(resp.Streams.Audio, models.StreamEntry{
			Type:     models.KindAudioOnly.String(),
			FormatID: pick.Variant.FormatID,
			Ext:      pick.Variant.Ext,
			ABR:      formatKbps(pick.Bitrate),
			Size:     util.FormatSize(pick.Variant.Size()),
			URL:      pick.Variant.URL,
		})
	}
	return resp
}

func videoEntry(v models.Variant, resolution string) models.StreamEntry {
	return models.StreamEntry{
		Type:       v.Kind().String(),
		FormatID:   v.FormatID,
		Ext:        v.Ext,
		Resolution: resolution,
		Height:     &models.Height{Option: v.Height},
		FPS:        &models.FPS{Option: v.FrameRate},
		Size:       util.FormatSize(v.Size()),
		URL:        v.URL,
	}
}

func formatKbps(bitrate int) string {
	return strconv.Itoa(bitrate) + "kbps"
}
