package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"darkpattern-scanner/pkg/models"
)

// YtdlpRunner wraps the yt-dlp binary. Three invocation modes, each
// with its own timeout: version probe, metadata dump, full media
// download.
type YtdlpRunner struct {
	binPath         string
	downloadTimeout time.Duration
	metadataTimeout time.Duration
	probeTimeout    time.Duration
	logger          zerolog.Logger
}

// NewYtdlpRunner creates a runner for the configured binary path.
func NewYtdlpRunner(binPath string, downloadTimeout, metadataTimeout time.Duration, logger zerolog.Logger) *YtdlpRunner {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &YtdlpRunner{
		binPath:         binPath,
		downloadTimeout: downloadTimeout,
		metadataTimeout: metadataTimeout,
		probeTimeout:    10 * time.Second,
		logger:          logger.With().Str("component", "ytdlp").Logger(),
	}
}

// infoJSON is the subset of yt-dlp's .info.json / --dump-json output
// the pipeline consumes.
type infoJSON struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Uploader     string   `json:"uploader"`
	Duration     float64  `json:"duration"`
	ViewCount    int64    `json:"view_count"`
	LikeCount    int64    `json:"like_count"`
	CommentCount int64    `json:"comment_count"`
	UploadDate   string   `json:"upload_date"`
	Tags         []string `json:"tags"`
	Categories   []string `json:"categories"`
	WebpageURL   string   `json:"webpage_url"`
}

func (i *infoJSON) toExtractedData() *models.ExtractedData {
	return &models.ExtractedData{
		Title:        i.Title,
		Description:  i.Description,
		Uploader:     i.Uploader,
		Duration:     int(i.Duration),
		ViewCount:    i.ViewCount,
		LikeCount:    i.LikeCount,
		CommentCount: i.CommentCount,
		UploadDate:   i.UploadDate,
		Tags:         i.Tags,
		Categories:   i.Categories,
		CanonicalURL: i.WebpageURL,
	}
}

// Available reports whether the binary answers a --version probe.
func (r *YtdlpRunner) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binPath, "--version")
	out, err := cmd.Output()
	if err != nil {
		r.logger.Debug().Err(err).Msg("yt-dlp version probe failed")
		return false
	}
	r.logger.Debug().Str("version", string(bytes.TrimSpace(out))).Msg("yt-dlp available")
	return true
}

// DumpMetadata runs --dump-json --no-download and parses the result.
func (r *YtdlpRunner) DumpMetadata(ctx context.Context, url string) (*models.ExtractedData, error) {
	ctx, cancel := context.WithTimeout(ctx, r.metadataTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binPath, "--dump-json", "--no-download", url)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata dump failed: %w", err)
	}

	var info infoJSON
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parsing yt-dlp output: %w", err)
	}

	return info.toExtractedData(), nil
}

// DownloadWithMedia downloads the video into dir with metadata
// sidecars and a wav audio track. Artifacts land as video.* under dir;
// the caller owns the directory lifecycle.
func (r *YtdlpRunner) DownloadWithMedia(ctx context.Context, url, dir string) error {
	ctx, cancel := context.WithTimeout(ctx, r.downloadTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binPath,
		"--write-info-json",
		"--write-description",
		"--write-thumbnail",
		"--extract-audio",
		"--audio-format", "wav",
		"--output", filepath.Join(dir, "video.%(ext)s"),
		url,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp download failed: %w (%s)", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}

// ParseInfoFile reads a .info.json sidecar written by a download run.
func ParseInfoFile(data []byte) (*models.ExtractedData, error) {
	var info infoJSON
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing info json: %w", err)
	}
	return info.toExtractedData(), nil
}
