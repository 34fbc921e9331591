// Package parse extracts platform-native video identifiers from URLs.
// Everything here is pure string work: no network, no side effects,
// deterministic for a given input.
package parse

import (
	"net/url"
	"regexp"
	"strings"

	"darkpattern-scanner/pkg/models"
)

var tiktokPatterns = []*regexp.Regexp{
	regexp.MustCompile(`tiktok\.com/@[\w.-]+/video/(\d+)`),
	regexp.MustCompile(`tiktok\.com/v/(\d+)`),
	regexp.MustCompile(`vm\.tiktok\.com/(\w+)`),
	regexp.MustCompile(`tiktok\.com/t/(\w+)`),
}

// ExtractYouTubeID returns the video ID for watch, youtu.be and shorts
// URL shapes. The second return is false when no shape matches.
func ExtractYouTubeID(rawURL string) (string, bool) {
	if idx := strings.Index(rawURL, "youtube.com/shorts/"); idx >= 0 {
		id := rawURL[idx+len("youtube.com/shorts/"):]
		if q := strings.Index(id, "?"); q >= 0 {
			id = id[:q]
		}
		if id == "" {
			return "", false
		}
		return id, true
	}

	if strings.Contains(rawURL, "youtube.com/watch?v=") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", false
		}
		id := u.Query().Get("v")
		if id == "" {
			return "", false
		}
		return id, true
	}

	if idx := strings.Index(rawURL, "youtu.be/"); idx >= 0 {
		id := rawURL[idx+len("youtu.be/"):]
		if q := strings.Index(id, "?"); q >= 0 {
			id = id[:q]
		}
		if id == "" {
			return "", false
		}
		return id, true
	}

	return "", false
}

// ExtractTikTokID matches the known TikTok URL shapes in order and
// returns the first capture. Short-link tokens count as IDs; resolving
// them is the extractor's job.
func ExtractTikTokID(rawURL string) (string, bool) {
	for _, pattern := range tiktokPatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// DetectPlatform classifies a URL by domain substring. The empty
// platform means the URL belongs to neither supported platform.
func DetectPlatform(rawURL string) models.Platform {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, "youtube.com"), strings.Contains(lower, "youtu.be"):
		return models.PlatformYouTube
	case strings.Contains(lower, "tiktok.com"):
		return models.PlatformTikTok
	default:
		return ""
	}
}
