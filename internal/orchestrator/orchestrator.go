// Package orchestrator drives a batch end to end: partition inputs,
// extract, normalize, analyze, assemble. Everything runs sequentially
// and in input order; no failure escapes the batch boundary.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"darkpattern-scanner/internal/monitor"
	"darkpattern-scanner/internal/normalize"
	"darkpattern-scanner/internal/parse"
	"darkpattern-scanner/internal/platform/tiktok"
	"darkpattern-scanner/internal/platform/youtube"
	"darkpattern-scanner/pkg/models"
)

// Limits caps the per-platform workload of one run.
type Limits struct {
	MaxYouTubeURLs    int
	MaxTikTokURLs     int
	MaxKeywordQueries int
	MaxSearchResults  int
}

// YouTubeExtractor is the slice of the YouTube client the orchestrator
// uses.
type YouTubeExtractor interface {
	Extract(ctx context.Context, videoID string) models.AttemptResult
	Search(ctx context.Context, query string, maxResults int64) ([]string, error)
}

// TikTokExtractor is the slice of the TikTok cascade the orchestrator
// uses.
type TikTokExtractor interface {
	Extract(ctx context.Context, url string) (models.AttemptResult, []models.AttemptResult)
}

// Orchestrator owns one batch at a time. It is not safe for concurrent
// use; runs are strictly sequential by design.
type Orchestrator struct {
	limits   Limits
	tiktok   TikTokExtractor
	youtube  YouTubeExtractor
	analyzer models.Classifier
	prompt   string
	monitor  *monitor.Monitor
	logger   zerolog.Logger
}

// New wires an orchestrator. The YouTube extractor may be nil when no
// Data API key is configured; YouTube inputs are then skipped with a
// warning instead of failing the batch.
func New(limits Limits, tt TikTokExtractor, yt YouTubeExtractor, analyzer models.Classifier, prompt string, mon *monitor.Monitor, logger zerolog.Logger) *Orchestrator {
	if limits.MaxYouTubeURLs <= 0 {
		limits.MaxYouTubeURLs = 10
	}
	if limits.MaxTikTokURLs <= 0 {
		limits.MaxTikTokURLs = 5
	}
	if limits.MaxKeywordQueries <= 0 {
		limits.MaxKeywordQueries = 3
	}
	if limits.MaxSearchResults <= 0 {
		limits.MaxSearchResults = 5
	}
	return &Orchestrator{
		limits:   limits,
		tiktok:   tt,
		youtube:  yt,
		analyzer: analyzer,
		prompt:   prompt,
		monitor:  mon,
		logger:   logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Run executes one batch and always returns a batch value, possibly
// partial, possibly empty. Nothing raises past this boundary.
func (o *Orchestrator) Run(ctx context.Context, req models.SearchRequest) *models.AnalysisBatch {
	batch := &models.AnalysisBatch{
		Records:   []*models.VideoRecord{},
		StartedAt: time.Now(),
	}

	normalizer := normalize.NewNormalizer(req.ExcludeCreators, o.logger)

	switch req.Mode {
	case models.ModeKeyword:
		o.runKeywordMode(ctx, req, normalizer, batch)
	default:
		o.runURLMode(ctx, req, normalizer, batch)
	}

	o.analyzeBatch(ctx, batch)

	batch.CompletedAt = time.Now()
	if o.monitor != nil {
		o.monitor.RecordBatchRun(batch.CompletedAt.Sub(batch.StartedAt))
	}
	o.logger.Info().
		Int("records", len(batch.Records)).
		Dur("duration", batch.CompletedAt.Sub(batch.StartedAt)).
		Msg("Batch complete")
	return batch
}

func (o *Orchestrator) runURLMode(ctx context.Context, req models.SearchRequest, normalizer *normalize.Normalizer, batch *models.AnalysisBatch) {
	youtubeURLs, tiktokURLs := o.partition(req.Inputs, req.Platforms)

	if len(youtubeURLs) > o.limits.MaxYouTubeURLs {
		o.logger.Warn().Int("given", len(youtubeURLs)).Int("cap", o.limits.MaxYouTubeURLs).
			Msg("YouTube URL list truncated")
		youtubeURLs = youtubeURLs[:o.limits.MaxYouTubeURLs]
	}
	if len(tiktokURLs) > o.limits.MaxTikTokURLs {
		o.logger.Warn().Int("given", len(tiktokURLs)).Int("cap", o.limits.MaxTikTokURLs).
			Msg("TikTok URL list truncated")
		tiktokURLs = tiktokURLs[:o.limits.MaxTikTokURLs]
	}

	for _, url := range youtubeURLs {
		o.processYouTubeURL(ctx, url, normalizer, batch)
	}
	for _, url := range tiktokURLs {
		o.processTikTokURL(ctx, url, normalizer, batch)
	}
}

// partition splits input lines by platform, preserving order within
// each platform. Lines matching neither platform are skipped.
func (o *Orchestrator) partition(inputs []string, platforms []models.Platform) (youtubeURLs, tiktokURLs []string) {
	wanted := make(map[models.Platform]bool, len(platforms))
	for _, p := range platforms {
		wanted[p] = true
	}
	all := len(platforms) == 0

	for _, raw := range inputs {
		url := strings.TrimSpace(raw)
		if url == "" {
			continue
		}
		switch platform := parse.DetectPlatform(url); platform {
		case models.PlatformYouTube:
			if all || wanted[platform] {
				youtubeURLs = append(youtubeURLs, url)
			}
		case models.PlatformTikTok:
			if all || wanted[platform] {
				tiktokURLs = append(tiktokURLs, url)
			}
		default:
			o.logger.Warn().Str("url", url).Msg("Skipping URL for unsupported platform")
		}
	}
	return youtubeURLs, tiktokURLs
}

func (o *Orchestrator) processYouTubeURL(ctx context.Context, url string, normalizer *normalize.Normalizer, batch *models.AnalysisBatch) {
	if o.youtube == nil {
		o.logger.Warn().Str("url", url).Msg("Skipping YouTube URL: no API key configured")
		return
	}

	videoID, found := parse.ExtractYouTubeID(url)
	if !found {
		o.logger.Warn().Str("url", url).Msg("Skipping unparseable YouTube URL")
		return
	}

	attempt := o.youtube.Extract(ctx, videoID)
	o.keep(models.PlatformYouTube, videoID, attempt, normalizer, batch)
}

func (o *Orchestrator) processTikTokURL(ctx context.Context, url string, normalizer *normalize.Normalizer, batch *models.AnalysisBatch) {
	videoID, found := parse.ExtractTikTokID(url)
	if !found {
		o.logger.Warn().Str("url", url).Msg("Skipping unparseable TikTok URL")
		return
	}

	attempt, failures := o.tiktok.Extract(ctx, url)
	if len(failures) > 0 {
		o.logger.Debug().Str("url", url).Int("failed_methods", len(failures)).
			Msg("Extraction needed fallback methods")
	}
	o.keep(models.PlatformTikTok, videoID, attempt, normalizer, batch)
}

func (o *Orchestrator) keep(platform models.Platform, videoID string, attempt models.AttemptResult, normalizer *normalize.Normalizer, batch *models.AnalysisBatch) {
	record, dropReason := normalizer.Normalize(platform, videoID, attempt)
	if record == nil {
		if o.monitor != nil {
			o.monitor.RecordDroppedRecord(string(platform), dropReason)
		}
		return
	}
	if o.monitor != nil {
		o.monitor.RecordBatchVideo(string(platform))
	}
	batch.Records = append(batch.Records, record)
}

func (o *Orchestrator) runKeywordMode(ctx context.Context, req models.SearchRequest, normalizer *normalize.Normalizer, batch *models.AnalysisBatch) {
	queries := parseQueries(req.Inputs)
	if len(queries) > o.limits.MaxKeywordQueries {
		o.logger.Warn().Int("given", len(queries)).Int("cap", o.limits.MaxKeywordQueries).
			Msg("Keyword query list truncated")
		queries = queries[:o.limits.MaxKeywordQueries]
	}

	maxResults := req.MaxResults
	if maxResults <= 0 || maxResults > o.limits.MaxSearchResults {
		maxResults = o.limits.MaxSearchResults
	}

	for _, platform := range requestedPlatforms(req.Platforms) {
		switch platform {
		case models.PlatformYouTube:
			o.searchYouTube(ctx, queries, maxResults, normalizer, batch)
		case models.PlatformTikTok:
			o.stubTikTokSearch(queries, batch)
		}
	}
}

func (o *Orchestrator) searchYouTube(ctx context.Context, queries []string, maxResults int, normalizer *normalize.Normalizer, batch *models.AnalysisBatch) {
	if o.youtube == nil {
		o.logger.Warn().Msg("Skipping YouTube search: no API key configured")
		return
	}

	for _, query := range queries {
		ids, err := o.youtube.Search(ctx, query, int64(maxResults))
		if err != nil {
			o.logger.Warn().Str("query", query).Err(err).Msg("YouTube search failed")
			continue
		}
		for _, videoID := range ids {
			attempt := o.youtube.Extract(ctx, videoID)
			o.keep(models.PlatformYouTube, videoID, attempt, normalizer, batch)
		}
	}
}

// stubTikTokSearch emits the placeholder records TikTok keyword search
// produces: no search API is available, so each query yields one
// visible stub flagged by its extraction method.
func (o *Orchestrator) stubTikTokSearch(queries []string, batch *models.AnalysisBatch) {
	o.logger.Warn().Msg("TikTok keyword search is limited; emitting placeholder results")

	for _, query := range queries {
		record := &models.VideoRecord{
			Platform:         models.PlatformTikTok,
			VideoID:          "placeholder_" + query,
			Title:            fmt.Sprintf("Search result for: %s", query),
			Channel:          "Unknown",
			URL:              "https://tiktok.com/search?q=" + query,
			Description:      "Search functionality requires TikTok API access",
			Transcript:       "Not available for search results",
			Tags:             []string{},
			Findings:         []models.Finding{},
			ProductNames:     []string{},
			ExtractionMethod: "search_stub",
		}
		batch.Records = append(batch.Records, record)
	}
}

// analyzeBatch runs the classifier over every real record, one at a
// time. Stubs keep their sentinels; failures stay on their record.
func (o *Orchestrator) analyzeBatch(ctx context.Context, batch *models.AnalysisBatch) {
	if o.analyzer == nil {
		return
	}
	for _, record := range batch.Records {
		if record.ExtractionMethod == "search_stub" {
			continue
		}
		if err := o.analyzer.Analyze(ctx, record, o.prompt); err != nil {
			// The record already carries its inline annotation
			o.logger.Warn().Str("video_id", record.VideoID).Err(err).
				Msg("Continuing batch after analysis failure")
		}
	}
}

func parseQueries(inputs []string) []string {
	var queries []string
	for _, line := range inputs {
		for _, piece := range strings.Split(line, ",") {
			if q := strings.TrimSpace(piece); q != "" {
				queries = append(queries, q)
			}
		}
	}
	return queries
}

func requestedPlatforms(platforms []models.Platform) []models.Platform {
	if len(platforms) == 0 {
		return []models.Platform{models.PlatformYouTube, models.PlatformTikTok}
	}
	return platforms
}

var _ TikTokExtractor = (*tiktok.Extractor)(nil)
var _ YouTubeExtractor = (*youtube.Extractor)(nil)
