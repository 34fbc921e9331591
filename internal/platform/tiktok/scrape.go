package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"darkpattern-scanner/internal/utils"
	"darkpattern-scanner/pkg/models"
)

var sigiStatePattern = regexp.MustCompile(`(?s)<script id="SIGI_STATE" type="application/json">(.*?)</script>`)

// retryDelay is the pause between page-fetch attempts.
const retryDelay = 2 * time.Second

// ScrapeMethod fetches the video page with browser headers and reads
// TikTok's embedded SIGI_STATE JSON blob.
type ScrapeMethod struct {
	client  *utils.HTTPClient
	retries int
	logger  zerolog.Logger
}

// NewScrapeMethod builds the web_scraping cascade step. maxRetries
// bounds the page-fetch attempts; transport errors and 5xx responses
// are retried, client errors are not.
func NewScrapeMethod(client *utils.HTTPClient, maxRetries int, logger zerolog.Logger) *ScrapeMethod {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &ScrapeMethod{
		client:  client,
		retries: maxRetries,
		logger:  logger.With().Str("method", "web_scraping").Logger(),
	}
}

func (m *ScrapeMethod) Name() string { return "web_scraping" }

// sigiState is the slice of TikTok's page state the scraper reads.
// ItemModule maps item IDs to item payloads; the entry carrying a
// "video" key is the one describing the page's video.
type sigiState struct {
	ItemModule map[string]sigiItem `json:"ItemModule"`
}

type sigiItem struct {
	Desc   string          `json:"desc"`
	Video  json.RawMessage `json:"video"`
	Author struct {
		Nickname string `json:"nickname"`
	} `json:"author"`
	Stats struct {
		PlayCount    int64 `json:"playCount"`
		DiggCount    int64 `json:"diggCount"`
		CommentCount int64 `json:"commentCount"`
	} `json:"stats"`
}

// Attempt GETs the page and parses the embedded state. Any miss along
// the way is a soft failure so the heuristic fallback gets its turn.
func (m *ScrapeMethod) Attempt(ctx context.Context, url string) models.AttemptResult {
	resp, err := m.client.GetWithRetry(ctx, url, utils.BrowserHeaders(), m.retries, retryDelay)
	if err != nil {
		return models.Failure(m.Name(), err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Failure(m.Name(), fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Failure(m.Name(), "reading response: "+err.Error())
	}

	match := sigiStatePattern.FindSubmatch(body)
	if match == nil {
		return models.Failure(m.Name(), "no SIGI_STATE blob in page")
	}

	var state sigiState
	if err := json.Unmarshal(match[1], &state); err != nil {
		return models.Failure(m.Name(), "JSON parsing error: "+err.Error())
	}

	for _, item := range state.ItemModule {
		if len(item.Video) == 0 {
			continue
		}

		var video struct {
			Duration int `json:"duration"`
		}
		// Duration is best-effort; the item already qualifies
		_ = json.Unmarshal(item.Video, &video)

		data := &models.ExtractedData{
			Title:        item.Desc,
			Description:  item.Desc,
			Uploader:     item.Author.Nickname,
			Duration:     video.Duration,
			ViewCount:    item.Stats.PlayCount,
			LikeCount:    item.Stats.DiggCount,
			CommentCount: item.Stats.CommentCount,
			CanonicalURL: url,
		}
		m.logger.Info().Str("url", url).Msg("Extracted from SIGI_STATE")
		return models.Success(m.Name(), data)
	}

	return models.Failure(m.Name(), "no video data found in JSON")
}
