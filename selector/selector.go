// Package selector picks one representative variant per target bucket from
// an extractor catalog. Every function is deterministic and side-effect free.
package selector

import (
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"videofetch/models"
)

// Options are the bucket targets the selector tries to fill.
type Options struct {
	// Resolutions is ordered highest first.
	Resolutions []string
	// Bitrates in kbps, in the order they are filled.
	Bitrates []int
	// VideoContainers are preferred for video-only picks.
	VideoContainers []string
	// CombinedContainer is preferred for the baseline and download-best picks.
	CombinedContainer string
	BaselineHeight    int
	AudioLimit        int
}

func DefaultOptions() Options {
	return Options{
		Resolutions:       []string{"2160p", "1440p", "1080p", "720p", "480p"},
		Bitrates:          []int{320, 160, 128},
		VideoContainers:   []string{"webm"},
		CombinedContainer: "mp4",
		BaselineHeight:    360,
		AudioLimit:        3,
	}
}

// Select fills every bucket of a selection.
func Select(formats []models.Variant, opts Options) models.Selection {
	return models.Selection{
		CombinedBest:      BestCombined(formats),
		VideoByResolution: VideoByResolution(formats, opts),
		AudioByBitrate:    AudioByBitrate(formats, opts),
		Combined360:       Combined360(formats, opts),
	}
}

func ofKind(formats []models.Variant, kind models.Kind) []models.Variant {
	return lo.Filter(formats, func(v models.Variant, _ int) bool {
		return v.Kind() == kind
	})
}

func withExt(formats []models.Variant, exts ...string) []models.Variant {
	return lo.Filter(formats, func(v models.Variant, _ int) bool {
		for _, ext := range exts {
			if strings.EqualFold(v.Ext, ext) {
				return true
			}
		}
		return false
	})
}

// preferred returns the subset matching one of exts, or all formats when none match.
func preferred(formats []models.Variant, exts ...string) []models.Variant {
	if subset := withExt(formats, exts...); len(subset) > 0 {
		return subset
	}
	return formats
}

// maxBy returns the first variant with the greatest key, or None when formats is empty.
func maxBy(formats []models.Variant, key func(models.Variant) []float64) mo.Option[models.Variant] {
	if len(formats) == 0 {
		return mo.None[models.Variant]()
	}
	return mo.Some(lo.MaxBy(formats, func(a, b models.Variant) bool {
		return compareKeys(key(a), key(b)) > 0
	}))
}

// compareKeys orders two sort keys lexicographically.
func compareKeys(a, b []float64) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] > b[i]:
			return 1
		case a[i] < b[i]:
			return -1
		}
	}
	return len(a) - len(b)
}

func heightOf(v models.Variant) float64 { return float64(v.Height.OrElse(0)) }
func tbrOf(v models.Variant) float64 { return v.TotalBitrate.OrElse(0) }
func abrOf(v models.Variant) float64 { return v.AverageBitrate.OrElse(0) }
func sizeOf(v models.Variant) float64 { return float64(v.Size().OrElse(0)) }

func heightTBR(v models.Variant) []float64 { return []float64{heightOf(v), tbrOf(v)} }

// BestCombined picks the combined variant with the greatest (height, total bitrate).
func BestCombined(formats []models.Variant) mo.Option[models.Variant] {
	return maxBy(ofKind(formats, models.KindCombined), heightTBR)
}

// BestCombinedPreferring is BestCombined restricted to the ext container when
// at least one combined variant uses it.
func BestCombinedPreferring(formats []models.Variant, ext string) mo.Option[models.Variant] {
	combined := ofKind(formats, models.KindCombined)
	if subset := withExt(combined, ext); len(subset) > 0 {
		return maxBy(subset, heightTBR)
	}
	return maxBy(combined, heightTBR)
}

// Combined360 picks the low-bandwidth combined baseline.
func Combined360(formats []models.Variant, opts Options) mo.Option[models.Variant] {
	baseline := lo.Filter(ofKind(formats, models.KindCombined), func(v models.Variant, _ int) bool {
		return v.Height.OrElse(0) == opts.BaselineHeight
	})
	return maxBy(preferred(baseline, opts.CombinedContainer), func(v models.Variant) []float64 {
		return []float64{tbrOf(v)}
	})
}

// VideoByResolution picks one video-only variant per target resolution, in target order.
func VideoByResolution(formats []models.Variant, opts Options) []models.VideoPick {
	videoOnly := ofKind(formats, models.KindVideoOnly)
	seen := make(map[string]struct{}, len(opts.Resolutions))
	picks := make([]models.VideoPick, 0, len(opts.Resolutions))

	for _, target := range opts.Resolutions {
		candidates := lo.Filter(videoOnly, func(v models.Variant, _ int) bool {
			return strings.EqualFold(v.ResolutionLabel.OrElse(""), target)
		})
		if len(candidates) == 0 {
			if h, ok := parseHeight(target); ok {
				candidates = lo.Filter(videoOnly, func(v models.Variant, _ int) bool {
					return v.Height.OrElse(0) == h
				})
			}
		}

		best, ok := maxBy(preferred(candidates, opts.VideoContainers...), func(v models.Variant) []float64 {
			return []float64{tbrOf(v), sizeOf(v)}
		}).Get()
		if !ok {
			continue
		}

		// Only the target is tracked: extractors often give every variant the same note.
		key := strings.ToLower(target)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		picks = append(picks, models.VideoPick{Target: target, Variant: best})
	}
	return picks
}

// parseHeight turns "1080p" into 1080.
func parseHeight(label string) (int, bool) {
	h, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(label)), "p"))
	if err != nil {
		return 0, false
	}
	return h, true
}

// AudioByBitrate picks one audio-only variant per target bitrate.
//
// When variants exist at or above a target, the one closest from above wins
// (lowest bitrate, larger size on ties). Otherwise the highest bitrate below
// the target wins. A pick already used by an earlier target is dropped from
// the pool for good and the target is retried once.
func AudioByBitrate(formats []models.Variant, opts Options) []models.AudioPick {
	pool := ofKind(formats, models.KindAudioOnly)
	used := make(map[string]struct{}, len(opts.Bitrates))
	picks := make([]models.AudioPick, 0, len(opts.Bitrates))

	for _, target := range opts.Bitrates {
		best, ok := nearestAudio(pool, target).Get()
		if !ok {
			continue
		}
		if _, dup := used[best.FormatID]; dup {
			id := best.FormatID
			pool = lo.Reject(pool, func(v models.Variant, _ int) bool { return v.FormatID == id })
			best, ok = nearestAudio(pool, target).Get()
			if !ok {
				continue
			}
			if _, dup := used[best.FormatID]; dup {
				continue
			}
		}
		used[best.FormatID] = struct{}{}
		picks = append(picks, models.AudioPick{
			Target:  target,
			Bitrate: int(math.Round(best.AverageBitrate.OrElse(float64(target)))),
			Variant: best,
		})
	}

	if opts.AudioLimit > 0 && len(picks) > opts.AudioLimit {
		picks = picks[:opts.AudioLimit]
	}
	return picks
}

func nearestAudio(pool []models.Variant, target int) mo.Option[models.Variant] {
	known := lo.Filter(pool, func(v models.Variant, _ int) bool {
		return abrOf(v) > 0
	})
	above, below := lo.FilterReject(known, func(v models.Variant, _ int) bool {
		return abrOf(v) >= float64(target)
	})
	if len(above) > 0 {
		return maxBy(above, func(v models.Variant) []float64 {
			return []float64{-abrOf(v), sizeOf(v)}
		})
	}
	return maxBy(below, func(v models.Variant) []float64 {
		return []float64{abrOf(v), sizeOf(v)}
	})
}
