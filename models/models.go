package models

import (
	"encoding/json"
	"strconv"

	"github.com/samber/mo"
)

// incomming lookup request from the client
type LookupRequest struct {
	URL string `json:"url"`
}

// Kind groups a variant by the media it carries.
type Kind int

const (
	KindNone Kind = iota
	KindCombined
	KindVideoOnly
	KindAudioOnly
)

func (k Kind) String() string {
	switch k {
	case KindCombined:
		return "Video+Audio"
	case KindVideoOnly:
		return "Video"
	case KindAudioOnly:
		return "Audio"
	default:
		return "None"
	}
}

// Variant is one encoded rendition reported by the extractor.
// Optional fields stay None when the extractor did not report them.
type Variant struct {
	FormatID        string
	Ext             string
	HasVideo        bool
	HasAudio        bool
	Height          mo.Option[int]
	ResolutionLabel mo.Option[string]
	AverageBitrate  mo.Option[float64] // kbps, audio-only variants
	TotalBitrate    mo.Option[float64] // kbps
	FrameRate       mo.Option[float64]
	FileSize        mo.Option[int64]
	FileSizeApprox  mo.Option[int64]
	URL             string
}

func (v Variant) Kind() Kind {
	switch {
	case v.HasVideo && v.HasAudio:
		return KindCombined
	case v.HasVideo:
		return KindVideoOnly
	case v.HasAudio:
		return KindAudioOnly
	default:
		return KindNone
	}
}

// Size returns the exact size when known, otherwise the approximate one.
func (v Variant) Size() mo.Option[int64] {
	if n, ok := v.FileSize.Get(); ok && n > 0 {
		return v.FileSize
	}
	if n, ok := v.FileSizeApprox.Get(); ok && n > 0 {
		return v.FileSizeApprox
	}
	return mo.None[int64]()
}

// Catalog is everything the extractor knows about one source URL.
type Catalog struct {
	Title     string
	Thumbnail string
	Duration  mo.Option[float64]
	Formats   []Variant
}

// VideoPick is the variant chosen for one target resolution.
type VideoPick struct {
	Target  string
	Variant Variant
}

// AudioPick is the variant chosen for one target bitrate.
type AudioPick struct {
	Target  int
	Bitrate int
	Variant Variant
}

// Selection holds one representative per bucket.
type Selection struct {
	CombinedBest      mo.Option[Variant]
	VideoByResolution []VideoPick
	AudioByBitrate    []AudioPick
	Combined360       mo.Option[Variant]
}

// FPS renders a frame rate as a number, or "N/A" when unknown.
type FPS struct {
	mo.Option[float64]
}

func (f FPS) MarshalJSON() ([]byte, error) {
	v, ok := f.Get()
	if !ok {
		return json.Marshal("N/A")
	}
	return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a number; "N/A", any other string and null decode as unknown.
func (f *FPS) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if n, ok := v.(float64); ok {
		f.Option = mo.Some(n)
		return nil
	}
	f.Option = mo.None[float64]()
	return nil
}

// Height renders a pixel height as a number, or null when unknown.
type Height struct {
	mo.Option[int]
}

func (h Height) MarshalJSON() ([]byte, error) {
	v, ok := h.Get()
	if !ok {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(v)), nil
}

func (h *Height) UnmarshalJSON(data []byte) error {
	var v *int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	h.Option = mo.PointerToOption(v)
	return nil
}

// StreamEntry is one stream as presented to the client. Video entries always
// carry height and fps; audio entries carry neither.
type StreamEntry struct {
	Type       string  `json:"type"`
	FormatID   string  `json:"format_id"`
	Ext        string  `json:"ext"`
	Resolution string  `json:"resolution,omitempty"`
	Height     *Height `json:"height,omitempty"`
	FPS        *FPS    `json:"fps,omitempty"`
	ABR        string  `json:"abr,omitempty"`
	Size       string  `json:"size"`
	URL        string  `json:"url"`
}

type Streams struct {
	VideoAudio     *StreamEntry  `json:"video_audio"`
	Video          []StreamEntry `json:"video"`
	Audio          []StreamEntry `json:"audio"`
	Progressive360 *StreamEntry  `json:"progressive_360"`
}

// LookupResponse is returned by POST /lookup.
type LookupResponse struct {
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail"`
	Duration  string  `json:"duration"`
	Streams   Streams `json:"streams"`
}

// DownloadRequest carries the query parameters of both download endpoints.
type DownloadRequest struct {
	URL       string `form:"url"`
	FormatID  string `form:"format_id"`
	Filename  string `form:"filename"`
	Ext       string `form:"ext"`
	RequestID string `form:"request_id"`
}

// DownloadProgress is pushed over SSE and WebSocket while a download is relayed.
type DownloadProgress struct {
	RequestID      string  `json:"request_id"`
	Progress       float64 `json:"progress"`          // 0 - 100, 0 when total is unknown
	DownloadedSize int64   `json:"downloaded_size"`   // bytes
	TotalSize      int64   `json:"total_size"`        // bytes, 0 when unknown
	Status         string  `json:"status"`            // "start", "downloading", "completed", "error"
	Message        string  `json:"message,omitempty"` // extra info or errors
}
