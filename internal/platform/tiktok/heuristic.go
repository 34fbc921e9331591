package tiktok

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"darkpattern-scanner/internal/utils"
	"darkpattern-scanner/pkg/models"
)

var (
	ogTitlePattern    = regexp.MustCompile(`<meta property="og:title" content="([^"]+)"`)
	ogDescPattern     = regexp.MustCompile(`<meta property="og:description" content="([^"]+)"`)
	ogSiteNamePattern = regexp.MustCompile(`<meta property="og:site_name" content="([^"]+)"`)
	urlHandlePattern  = regexp.MustCompile(`tiktok\.com/@([^/]+)`)

	titlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<title>([^<]+)</title>`),
		regexp.MustCompile(`(?i)<h1[^>]*>([^<]+)</h1>`),
		regexp.MustCompile(`(?i)<h2[^>]*>([^<]+)</h2>`),
		regexp.MustCompile(`(?i)<div[^>]*class="[^"]*title[^"]*"[^>]*>([^<]+)</div>`),
		regexp.MustCompile(`(?i)<span[^>]*class="[^"]*title[^"]*"[^>]*>([^<]+)</span>`),
	}

	creatorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<meta name="author" content="([^"]+)"`),
		regexp.MustCompile(`(?i)<span[^>]*class="[^"]*author[^"]*"[^>]*>([^<]+)</span>`),
		regexp.MustCompile(`(?i)<div[^>]*class="[^"]*author[^"]*"[^>]*>([^<]+)</div>`),
		regexp.MustCompile(`(?i)<a[^>]*class="[^"]*author[^"]*"[^>]*>([^<]+)</a>`),
	}

	viewsPattern    = regexp.MustCompile(`(?i)([0-9,]+)\s*views?`)
	likesPattern    = regexp.MustCompile(`(?i)([0-9,]+)\s*likes?`)
	commentsPattern = regexp.MustCompile(`(?i)([0-9,]+)\s*comments?`)
)

// HeuristicMethod is the terminal fallback: best-effort regex reading
// of whatever page HTML is available, with synthesized defaults for
// anything it cannot find. It reports success even for an unreachable
// page, so the cascade always ends with a record.
type HeuristicMethod struct {
	client  *utils.HTTPClient
	retries int
	logger  zerolog.Logger
}

// NewHeuristicMethod builds the web_scraping_basic cascade step.
func NewHeuristicMethod(client *utils.HTTPClient, maxRetries int, logger zerolog.Logger) *HeuristicMethod {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &HeuristicMethod{
		client:  client,
		retries: maxRetries,
		logger:  logger.With().Str("method", "web_scraping_basic").Logger(),
	}
}

func (m *HeuristicMethod) Name() string { return "web_scraping_basic" }

// Attempt fetches the page if it can and mines it with regex
// heuristics. Never fails.
func (m *HeuristicMethod) Attempt(ctx context.Context, url string) models.AttemptResult {
	var html string
	resp, err := m.client.GetWithRetry(ctx, url, utils.BrowserHeaders(), m.retries, retryDelay)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			if body, err := io.ReadAll(resp.Body); err == nil {
				html = string(body)
			}
		}
	}

	data := m.mine(html, url)
	m.logger.Info().Str("url", url).Str("title", data.Title).
		Msg("Heuristic extraction complete")
	return models.Success(m.Name(), data)
}

func (m *HeuristicMethod) mine(html, url string) *models.ExtractedData {
	title := firstMatch(html, ogTitlePattern)
	if title == "" {
		for _, pattern := range titlePatterns {
			candidate := strings.TrimSpace(firstMatch(html, pattern))
			if len(candidate) > 5 {
				title = candidate
				break
			}
		}
	}

	description := firstMatch(html, ogDescPattern)

	creator := firstMatch(html, ogSiteNamePattern)
	if creator == "" {
		if handle := firstMatch(url, urlHandlePattern); handle != "" {
			creator = "@" + handle
		}
	}
	if creator == "" {
		for _, pattern := range creatorPatterns {
			if candidate := strings.TrimSpace(firstMatch(html, pattern)); candidate != "" {
				creator = candidate
				break
			}
		}
	}

	if title == "" {
		if creator != "" {
			title = fmt.Sprintf("TikTok video by %s", creator)
		} else {
			title = "TikTok video"
		}
	}
	if description == "" {
		if creator != "" {
			description = fmt.Sprintf("TikTok video content from %s", creator)
		} else {
			description = "TikTok video content"
		}
	}

	return &models.ExtractedData{
		Title:        title,
		Description:  description,
		Uploader:     creator,
		ViewCount:    statValue(html, viewsPattern),
		LikeCount:    statValue(html, likesPattern),
		CommentCount: statValue(html, commentsPattern),
		CanonicalURL: url,
	}
}

func firstMatch(s string, pattern *regexp.Regexp) string {
	if m := pattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func statValue(html string, pattern *regexp.Regexp) int64 {
	raw := firstMatch(html, pattern)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseInt(strings.ReplaceAll(raw, ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return value
}
