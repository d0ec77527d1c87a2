package util

import (
	"errors"
	"net/url"
	"strings"
)

var ErrInvalidSourceURL = errors.New("URL must be an absolute http(s) URL")

var hostToPlatform = map[string]string{
	"youtube.com":       "YouTube",
	"m.youtube.com":     "YouTube",
	"music.youtube.com": "YouTube",
	"youtu.be":          "YouTube",
	"vimeo.com":         "Vimeo",
	"player.vimeo.com":  "Vimeo",
	"facebook.com":      "Facebook",
	"m.facebook.com":    "Facebook",
	"fb.watch":          "Facebook",
	"dailymotion.com":   "Dailymotion",
	"dai.ly":            "Dailymotion",
	"instagram.com":     "Instagram",
	"twitter.com":       "Twitter",
	"x.com":             "Twitter",
	"tiktok.com":        "TikTok",
	"vm.tiktok.com":     "TikTok",
	"twitch.tv":         "Twitch",
	"clips.twitch.tv":   "Twitch",
	"reddit.com":        "Reddit",
	"v.redd.it":         "Reddit",
	"bilibili.com":      "Bilibili",
	"rumble.com":        "Rumble",
	"streamable.com":    "Streamable",
	"ted.com":           "TED",
}

// DetectPlatform names the site behind a source URL, "Unknown" when it is not recognised.
func DetectPlatform(inputURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(inputURL))
	if err != nil || parsed.Host == "" {
		return "Unknown"
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if platform, ok := hostToPlatform[host]; ok {
		return platform
	}
	return "Unknown"
}

// ValidateSourceURL rejects input yt-dlp would otherwise treat as a search term or local path.
func ValidateSourceURL(rawURL string) error {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ErrInvalidSourceURL
	}
	if parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return ErrInvalidSourceURL
	}
	return nil
}
