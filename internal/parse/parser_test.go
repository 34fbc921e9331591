package parse

import (
	"testing"

	"darkpattern-scanner/pkg/models"
)

func TestExtractYouTubeID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
		found    bool
	}{
		{
			name:     "standard watch URL",
			url:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			expected: "dQw4w9WgXcQ",
			found:    true,
		},
		{
			name:     "watch URL with extra params",
			url:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s",
			expected: "dQw4w9WgXcQ",
			found:    true,
		},
		{
			name:     "short URL",
			url:      "https://youtu.be/dQw4w9WgXcQ",
			expected: "dQw4w9WgXcQ",
			found:    true,
		},
		{
			name:     "short URL with share params",
			url:      "https://youtu.be/dQw4w9WgXcQ?si=abc123",
			expected: "dQw4w9WgXcQ",
			found:    true,
		},
		{
			name:     "shorts URL",
			url:      "https://www.youtube.com/shorts/abc123XYZ_-",
			expected: "abc123XYZ_-",
			found:    true,
		},
		{
			name:     "shorts URL with query",
			url:      "https://www.youtube.com/shorts/abc123XYZ_-?si=tracking",
			expected: "abc123XYZ_-",
			found:    true,
		},
		{
			name:  "channel URL",
			url:   "https://www.youtube.com/@somechannel",
			found: false,
		},
		{
			name:  "non-youtube URL",
			url:   "https://example.com/watch?v=nope",
			found: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			id, found := ExtractYouTubeID(test.url)
			if found != test.found {
				t.Fatalf("found = %v, expected %v", found, test.found)
			}
			if found && id != test.expected {
				t.Errorf("Expected %s, got %s", test.expected, id)
			}
		})
	}
}

func TestExtractYouTubeIDDeterministic(t *testing.T) {
	url := "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL1"
	first, _ := ExtractYouTubeID(url)
	for i := 0; i < 10; i++ {
		id, _ := ExtractYouTubeID(url)
		if id != first {
			t.Fatalf("non-deterministic result: %s vs %s", id, first)
		}
	}
}

func TestExtractTikTokID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
		found    bool
	}{
		{
			name:     "canonical video URL",
			url:      "https://www.tiktok.com/@some.creator/video/7123456789012345678",
			expected: "7123456789012345678",
			found:    true,
		},
		{
			name:     "legacy v URL",
			url:      "https://www.tiktok.com/v/7123456789012345678",
			expected: "7123456789012345678",
			found:    true,
		},
		{
			name:     "vm short link",
			url:      "https://vm.tiktok.com/ZM8abcdef",
			expected: "ZM8abcdef",
			found:    true,
		},
		{
			name:     "t short link",
			url:      "https://www.tiktok.com/t/ZT8abcdef",
			expected: "ZT8abcdef",
			found:    true,
		},
		{
			name:  "profile URL",
			url:   "https://www.tiktok.com/@some.creator",
			found: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			id, found := ExtractTikTokID(test.url)
			if found != test.found {
				t.Fatalf("found = %v, expected %v", found, test.found)
			}
			if found && id != test.expected {
				t.Errorf("Expected %s, got %s", test.expected, id)
			}
		})
	}
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected models.Platform
	}{
		{"https://www.youtube.com/watch?v=abc", models.PlatformYouTube},
		{"https://youtu.be/abc", models.PlatformYouTube},
		{"https://www.tiktok.com/@x/video/1", models.PlatformTikTok},
		{"https://vm.tiktok.com/ZM8abc", models.PlatformTikTok},
		{"https://vimeo.com/12345", ""},
		{"not a url", ""},
	}

	for _, test := range tests {
		if got := DetectPlatform(test.url); got != test.expected {
			t.Errorf("DetectPlatform(%s) = %q, expected %q", test.url, got, test.expected)
		}
	}
}
