package tiktok

import (
	"context"

	"github.com/rs/zerolog"

	"darkpattern-scanner/internal/utils"
	"darkpattern-scanner/pkg/models"
)

// MetadataMethod extracts metadata only, no media transfer: a
// --version probe followed by --dump-json --no-download.
type MetadataMethod struct {
	runner *utils.YtdlpRunner
	logger zerolog.Logger
}

// NewMetadataMethod builds the yt-dlp cascade step.
func NewMetadataMethod(runner *utils.YtdlpRunner, logger zerolog.Logger) *MetadataMethod {
	return &MetadataMethod{
		runner: runner,
		logger: logger.With().Str("method", "yt-dlp").Logger(),
	}
}

func (m *MetadataMethod) Name() string { return "yt-dlp" }

// Attempt probes for the binary, then dumps metadata. A failed probe
// is a method failure, not an error: the cascade moves on to scraping.
func (m *MetadataMethod) Attempt(ctx context.Context, url string) models.AttemptResult {
	if !m.runner.Available(ctx) {
		return models.Failure(m.Name(), "yt-dlp not installed")
	}

	data, err := m.runner.DumpMetadata(ctx, url)
	if err != nil {
		return models.Failure(m.Name(), err.Error())
	}
	if data.CanonicalURL == "" {
		data.CanonicalURL = url
	}

	m.logger.Info().Str("url", url).Msg("Metadata extracted")
	return models.Success(m.Name(), data)
}
