package youtube

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"darkpattern-scanner/pkg/models"
)

var durationPattern = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// Extractor pulls metadata through the YouTube Data API v3 and
// transcripts through the Innertube fetcher.
type Extractor struct {
	service    *ytapi.Service
	transcript *TranscriptFetcher
	logger     zerolog.Logger
}

// NewExtractor builds a Data API service for the given key. The HTTP
// client is optional; tests inject one pointed at a local server.
func NewExtractor(ctx context.Context, apiKey string, client *http.Client, logger zerolog.Logger) (*Extractor, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if client != nil {
		opts = append(opts, option.WithHTTPClient(client))
	}

	service, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}

	return &Extractor{
		service:    service,
		transcript: NewTranscriptFetcher(client, logger),
		logger:     logger.With().Str("component", "youtube").Logger(),
	}, nil
}

// Extract fetches metadata and transcript for a video ID. A video the
// API does not know is a failed attempt; transcript problems only
// degrade the transcript field.
func (e *Extractor) Extract(ctx context.Context, videoID string) models.AttemptResult {
	const method = "data_api"

	call := e.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(videoID).Context(ctx)
	resp, err := call.Do()
	if err != nil {
		return models.Failure(method, fmt.Sprintf("videos.list: %v", err))
	}
	if len(resp.Items) == 0 {
		return models.Failure(method, "video not found")
	}

	item := resp.Items[0]
	data := &models.ExtractedData{
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		Uploader:     item.Snippet.ChannelTitle,
		Duration:     parseDurationSeconds(item.ContentDetails.Duration),
		UploadDate:   item.Snippet.PublishedAt,
		Tags:         item.Snippet.Tags,
		CanonicalURL: "https://www.youtube.com/watch?v=" + videoID,
	}
	if item.Statistics != nil {
		data.ViewCount = int64(item.Statistics.ViewCount)
		data.LikeCount = int64(item.Statistics.LikeCount)
		data.CommentCount = int64(item.Statistics.CommentCount)
	}

	data.Transcript = e.transcript.Fetch(ctx, videoID).Sentinel()

	e.logger.Info().Str("video_id", videoID).Str("title", data.Title).
		Msg("YouTube video extracted")
	return models.Success(method, data)
}

// Search runs a keyword query and returns the matching video IDs in
// API order.
func (e *Extractor) Search(ctx context.Context, query string, maxResults int64) ([]string, error) {
	call := e.service.Search.List([]string{"snippet"}).
		Q(query).Type("video").MaxResults(maxResults).Context(ctx)
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("search.list: %w", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}

	e.logger.Info().Str("query", query).Int("results", len(ids)).
		Msg("YouTube search complete")
	return ids, nil
}

// parseDurationSeconds converts an ISO-8601 duration like PT1H2M3S to
// seconds. Unparseable input yields 0.
func parseDurationSeconds(iso string) int {
	m := durationPattern.FindStringSubmatch(iso)
	if m == nil {
		return 0
	}
	seconds := 0
	if m[1] != "" {
		h, _ := strconv.Atoi(m[1])
		seconds += h * 3600
	}
	if m[2] != "" {
		min, _ := strconv.Atoi(m[2])
		seconds += min * 60
	}
	if m[3] != "" {
		s, _ := strconv.Atoi(m[3])
		seconds += s
	}
	return seconds
}
