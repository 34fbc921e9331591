package tiktok

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// WhisperTranscriber runs the external whisper command to turn a wav
// file into text. Availability is probed once per process; an absent
// binary degrades the cascade to its sentinel, it never fails it.
type WhisperTranscriber struct {
	binPath string
	probed  bool
	present bool
	logger  zerolog.Logger
}

// NewWhisperTranscriber creates a transcriber for the configured
// binary path.
func NewWhisperTranscriber(binPath string, logger zerolog.Logger) *WhisperTranscriber {
	if binPath == "" {
		binPath = "whisper"
	}
	return &WhisperTranscriber{
		binPath: binPath,
		logger:  logger.With().Str("component", "whisper").Logger(),
	}
}

// Available reports whether the whisper binary responds to --help.
func (w *WhisperTranscriber) Available(ctx context.Context) bool {
	if w.probed {
		return w.present
	}
	w.probed = true

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, w.binPath, "--help")
	if err := cmd.Run(); err != nil {
		w.logger.Debug().Err(err).Msg("whisper not available")
		w.present = false
		return false
	}
	w.present = true
	return true
}

// Transcribe runs whisper over the audio file and returns the text.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	cmd := exec.CommandContext(ctx, w.binPath, audioPath, "--output_format", "txt", "--output_dir", "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper failed: %w (%s)", err, bytes.TrimSpace(stderr.Bytes()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
