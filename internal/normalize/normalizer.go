// Package normalize converts extraction attempts into canonical video
// records. Dropping happens here and only here: failed attempts and
// excluded creators never reach the analysis stage.
package normalize

import (
	"strings"

	"github.com/rs/zerolog"

	"darkpattern-scanner/pkg/models"
)

// Drop reasons reported to the caller for metrics and logging.
const (
	DropExtractionFailed = "extraction_failed"
	DropExcludedCreator  = "excluded_creator"
)

// Normalizer builds canonical records. The exclusion set is fixed at
// construction and matched case-insensitively against the uploader
// after extraction has already happened.
type Normalizer struct {
	excluded map[string]struct{}
	logger   zerolog.Logger
}

// NewNormalizer creates a normalizer with the given creator exclusion
// list. Entries are trimmed; empty entries are ignored.
func NewNormalizer(excludeCreators []string, logger zerolog.Logger) *Normalizer {
	excluded := make(map[string]struct{}, len(excludeCreators))
	for _, creator := range excludeCreators {
		trimmed := strings.TrimSpace(creator)
		if trimmed == "" {
			continue
		}
		excluded[strings.ToLower(trimmed)] = struct{}{}
	}
	return &Normalizer{
		excluded: excluded,
		logger:   logger.With().Str("component", "normalize").Logger(),
	}
}

// Normalize turns an attempt into a record. A nil record means the
// item was dropped; the second return names why. Every kept record has
// its analysis fields initialized to their pre-analysis sentinels.
func (n *Normalizer) Normalize(platform models.Platform, videoID string, attempt models.AttemptResult) (*models.VideoRecord, string) {
	if !attempt.Succeeded() {
		n.logger.Warn().
			Str("platform", string(platform)).
			Str("video_id", videoID).
			Str("method", attempt.MethodName).
			Str("reason", attempt.Reason).
			Msg("Dropping item: extraction failed")
		return nil, DropExtractionFailed
	}

	data := attempt.Data
	if n.isExcluded(data.Uploader) {
		n.logger.Info().
			Str("platform", string(platform)).
			Str("video_id", videoID).
			Str("uploader", data.Uploader).
			Msg("Dropping item: excluded creator")
		return nil, DropExcludedCreator
	}

	record := &models.VideoRecord{
		Platform:    platform,
		VideoID:     videoID,
		Title:       data.Title,
		Channel:     data.Uploader,
		URL:         data.CanonicalURL,
		Description: data.Description,
		Transcript:  data.Transcript,
		Engagement: models.Engagement{
			Views:    data.ViewCount,
			Likes:    data.LikeCount,
			Comments: data.CommentCount,
			Duration: data.Duration,
		},
		Tags:             data.Tags,
		Findings:         []models.Finding{},
		ProductNames:     []string{},
		ExtractionMethod: attempt.MethodName,
	}
	if record.Tags == nil {
		record.Tags = []string{}
	}
	return record, ""
}

// isExcluded matches an uploader against the exclusion set, ignoring
// case and a leading @.
func (n *Normalizer) isExcluded(uploader string) bool {
	if len(n.excluded) == 0 || uploader == "" {
		return false
	}
	key := strings.ToLower(strings.TrimSpace(uploader))
	if _, found := n.excluded[key]; found {
		return true
	}
	trimmed := strings.TrimPrefix(key, "@")
	if _, found := n.excluded[trimmed]; found {
		return true
	}
	_, found := n.excluded["@"+trimmed]
	return found
}
