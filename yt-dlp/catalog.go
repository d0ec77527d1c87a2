package ytdlp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/mo"

	"videofetch/models"
)

// info mirrors the subset of `yt-dlp -J` output the selector needs.
// Pointer fields stay nil when yt-dlp omits the key or reports null.
type info struct {
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	Duration  *float64 `json:"duration"`
	Type      string   `json:"_type"`
	Formats   []format `json:"formats"`
}

type format struct {
	FormatID       json.RawMessage `json:"format_id"`
	Ext            string          `json:"ext"`
	Vcodec         *string         `json:"vcodec"`
	Acodec         *string         `json:"acodec"`
	Height         *float64        `json:"height"`
	FormatNote     *string         `json:"format_note"`
	ABR            *float64        `json:"abr"`
	TBR            *float64        `json:"tbr"`
	FPS            *float64        `json:"fps"`
	Filesize       *float64        `json:"filesize"`
	FilesizeApprox *float64        `json:"filesize_approx"`
	URL            string          `json:"url"`
}

// ParseCatalog decodes a single-video yt-dlp JSON document.
func ParseCatalog(data []byte) (*models.Catalog, error) {
	var raw info
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("yt-dlp parse error: %w", err)
	}
	if raw.Type == "playlist" {
		return nil, fmt.Errorf("playlists are not supported")
	}

	catalog := &models.Catalog{
		Title:     raw.Title,
		Thumbnail: raw.Thumbnail,
		Duration:  mo.PointerToOption(raw.Duration),
		Formats:   make([]models.Variant, 0, len(raw.Formats)),
	}
	for _, f := range raw.Formats {
		catalog.Formats = append(catalog.Formats, f.variant())
	}
	return catalog, nil
}

func (f format) variant() models.Variant {
	return models.Variant{
		FormatID:        formatID(f.FormatID),
		Ext:             f.Ext,
		HasVideo:        codecPresent(f.Vcodec),
		HasAudio:        codecPresent(f.Acodec),
		Height:          intOption(f.Height),
		ResolutionLabel: stringOption(f.FormatNote),
		AverageBitrate:  mo.PointerToOption(f.ABR),
		TotalBitrate:    mo.PointerToOption(f.TBR),
		FrameRate:       mo.PointerToOption(f.FPS),
		FileSize:        int64Option(f.Filesize),
		FileSizeApprox:  int64Option(f.FilesizeApprox),
		URL:             f.URL,
	}
}

// codecPresent treats a missing codec field like "none": formats that report no
// codecs at all (some generic extractors) are neither video nor audio.
func codecPresent(codec *string) bool {
	if codec == nil {
		return false
	}
	c := strings.TrimSpace(*codec)
	return c != "" && !strings.EqualFold(c, "none")
}

// formatID accepts both string and numeric ids; some extractors emit numbers.
func formatID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func intOption(v *float64) mo.Option[int] {
	if v == nil {
		return mo.None[int]()
	}
	return mo.Some(int(*v))
}

func int64Option(v *float64) mo.Option[int64] {
	if v == nil {
		return mo.None[int64]()
	}
	return mo.Some(int64(*v))
}

func stringOption(v *string) mo.Option[string] {
	if v == nil || strings.TrimSpace(*v) == "" {
		return mo.None[string]()
	}
	return mo.Some(*v)
}
