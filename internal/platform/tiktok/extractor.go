package tiktok

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"darkpattern-scanner/internal/monitor"
	"darkpattern-scanner/internal/utils"
	"darkpattern-scanner/pkg/models"
)

// Extractor runs the TikTok extraction cascade: each method is tried
// in order and the first success wins. The last method never fails, so
// Extract always returns a successful result; the failures of the
// earlier methods ride along for diagnostics.
type Extractor struct {
	methods []models.ExtractionMethod
	monitor *monitor.Monitor
	logger  zerolog.Logger
}

// ExtractorConfig carries the knobs the cascade methods need.
type ExtractorConfig struct {
	YtdlpPath       string
	WhisperPath     string
	DownloadTimeout time.Duration
	MetadataTimeout time.Duration
	HTTPTimeout     time.Duration
	UserAgent       string
	Cookie          string
	Proxy           string
	MaxRetries      int
}

// NewExtractor wires the four standard methods in cascade order.
func NewExtractor(cfg ExtractorConfig, mon *monitor.Monitor, logger zerolog.Logger) *Extractor {
	logger = logger.With().Str("component", "tiktok").Logger()

	client := utils.NewHTTPClient(utils.ClientConfig{
		Timeout:   cfg.HTTPTimeout,
		ProxyURL:  cfg.Proxy,
		UserAgent: cfg.UserAgent,
		Cookie:    cfg.Cookie,
		Logger:    logger,
	})
	runner := utils.NewYtdlpRunner(cfg.YtdlpPath, cfg.DownloadTimeout, cfg.MetadataTimeout, logger)
	transcriber := NewWhisperTranscriber(cfg.WhisperPath, logger)

	return NewCascade(mon, logger,
		NewDownloadMethod(runner, transcriber, logger),
		NewMetadataMethod(runner, logger),
		NewScrapeMethod(client, cfg.MaxRetries, logger),
		NewHeuristicMethod(client, cfg.MaxRetries, logger),
	)
}

// NewCascade builds an extractor over an explicit method list.
func NewCascade(mon *monitor.Monitor, logger zerolog.Logger, methods ...models.ExtractionMethod) *Extractor {
	return &Extractor{
		methods: methods,
		monitor: mon,
		logger:  logger,
	}
}

// Extract runs the cascade. The returned result is the first success;
// failures holds the attempts that preceded it, in order.
func (e *Extractor) Extract(ctx context.Context, url string) (models.AttemptResult, []models.AttemptResult) {
	if len(e.methods) == 0 {
		return models.Failure("none", "no extraction methods configured"), nil
	}

	var failures []models.AttemptResult

	for i, method := range e.methods {
		result := method.Attempt(ctx, url)
		if result.Succeeded() {
			e.record(method.Name(), "success")
			if i > 0 && e.monitor != nil {
				e.monitor.RecordCascadeFallback(string(models.PlatformTikTok))
			}
			e.logger.Info().Str("url", url).Str("method", method.Name()).
				Int("prior_failures", len(failures)).
				Msg("Extraction succeeded")
			return result, failures
		}

		e.record(method.Name(), "failure")
		e.logger.Warn().Str("url", url).Str("method", method.Name()).
			Str("reason", result.Reason).
			Msg("Extraction method failed, falling through")
		failures = append(failures, result)
	}

	// Unreachable with the standard method set: the heuristic always
	// succeeds. Kept for custom cascades.
	last := failures[len(failures)-1]
	return last, failures[:len(failures)-1]
}

func (e *Extractor) record(method, outcome string) {
	if e.monitor != nil {
		e.monitor.RecordExtractionAttempt(string(models.PlatformTikTok), method, outcome)
	}
}
