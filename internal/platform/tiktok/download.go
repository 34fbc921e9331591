package tiktok

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"darkpattern-scanner/internal/utils"
	"darkpattern-scanner/pkg/models"
)

// Transcript sentinels. The transcript field always carries a value;
// these mark the degraded cases without failing the method.
const (
	transcriptNone        = "No transcript available"
	transcriptFailed      = "Transcript extraction failed"
	transcriptUnavailable = "Whisper model not available for transcript extraction"
)

// DownloadMethod is the richest extraction path: full yt-dlp download
// into a temporary workspace, metadata from the .info.json sidecar,
// transcript from whisper over the extracted wav. Metadata success is
// method success even when transcription degrades to a sentinel.
type DownloadMethod struct {
	runner      *utils.YtdlpRunner
	transcriber models.Transcriber
	logger      zerolog.Logger
}

// NewDownloadMethod builds the video_download cascade step.
func NewDownloadMethod(runner *utils.YtdlpRunner, transcriber models.Transcriber, logger zerolog.Logger) *DownloadMethod {
	return &DownloadMethod{
		runner:      runner,
		transcriber: transcriber,
		logger:      logger.With().Str("method", "video_download").Logger(),
	}
}

func (m *DownloadMethod) Name() string { return "video_download" }

// Attempt downloads the video and assembles metadata + transcript.
// The workspace is removed on every exit path.
func (m *DownloadMethod) Attempt(ctx context.Context, url string) models.AttemptResult {
	dir, err := os.MkdirTemp("", "tiktok-download-*")
	if err != nil {
		return models.Failure(m.Name(), "creating workspace: "+err.Error())
	}
	defer os.RemoveAll(dir)

	if err := m.runner.DownloadWithMedia(ctx, url, dir); err != nil {
		return models.Failure(m.Name(), err.Error())
	}

	infoPath, found := findByExt(dir, ".info.json")
	if !found {
		return models.Failure(m.Name(), "no metadata file found after download")
	}

	raw, err := os.ReadFile(infoPath)
	if err != nil {
		return models.Failure(m.Name(), "reading metadata file: "+err.Error())
	}

	data, err := utils.ParseInfoFile(raw)
	if err != nil {
		return models.Failure(m.Name(), err.Error())
	}
	if data.CanonicalURL == "" {
		data.CanonicalURL = url
	}

	// The .description sidecar wins over the info json field when present
	if descPath, ok := findByExt(dir, ".description"); ok {
		if desc, err := os.ReadFile(descPath); err == nil {
			if trimmed := strings.TrimSpace(string(desc)); trimmed != "" {
				data.Description = trimmed
			}
		}
	}

	data.Transcript = m.transcribe(ctx, dir)

	m.logger.Info().Str("url", url).Int("transcript_len", len(data.Transcript)).
		Msg("Video downloaded and parsed")
	return models.Success(m.Name(), data)
}

func (m *DownloadMethod) transcribe(ctx context.Context, dir string) string {
	audioPath, found := findByExt(dir, ".wav")
	if !found {
		return transcriptNone
	}
	if !m.transcriber.Available(ctx) {
		return transcriptUnavailable
	}

	text, err := m.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Transcription failed")
		return transcriptFailed
	}
	return text
}

// findByExt returns the first file in dir with the given suffix.
func findByExt(dir, ext string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ext) {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}
