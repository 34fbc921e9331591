package models

import (
	"strconv"
	"time"
)

// Platform represents the supported platforms
type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformTikTok  Platform = "tiktok"
)

// SearchMode selects how the orchestrator interprets its inputs.
type SearchMode string

const (
	ModeURL     SearchMode = "url"
	ModeKeyword SearchMode = "keyword"
)

// SectionType identifies which part of the content a finding was taken from.
type SectionType string

const (
	SectionTranscript  SectionType = "transcript"
	SectionCaption     SectionType = "caption"
	SectionDescription SectionType = "description"
)

// ConfidenceNA is the persisted sentinel for "not computed".
const ConfidenceNA = "N/A"

// Confidence is a 0-100 score that may be absent. Absent values marshal
// as the string sentinel "N/A", matching the persisted session shape.
type Confidence struct {
	Valid bool
	Score int
}

// NewConfidence returns a present confidence value.
func NewConfidence(score int) Confidence {
	return Confidence{Valid: true, Score: score}
}

func (c Confidence) String() string {
	if !c.Valid {
		return ConfidenceNA
	}
	return strconv.Itoa(c.Score)
}

// MarshalJSON emits a JSON number when present and "N/A" when absent.
func (c Confidence) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte(`"` + ConfidenceNA + `"`), nil
	}
	return []byte(strconv.Itoa(c.Score)), nil
}

// UnmarshalJSON accepts either a JSON number or the "N/A" sentinel.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == `"`+ConfidenceNA+`"` || s == "null" {
		*c = Confidence{}
		return nil
	}
	score, err := strconv.Atoi(s)
	if err != nil {
		*c = Confidence{}
		return nil
	}
	*c = Confidence{Valid: true, Score: score}
	return nil
}

// RegulatoryRef cites the law/guidance a finding may violate.
type RegulatoryRef struct {
	LawGuidance        string `json:"lawGuidance"`
	ArticleClause      string `json:"articleClause"`
	HighLevelSynthesis string `json:"highLevelSynthesis"`
}

// Finding is one dark-pattern detection produced by the classifier.
// Findings are read-only once attached to a record.
type Finding struct {
	Category       string          `json:"category"`
	Excerpt        string          `json:"excerpt"`
	SectionType    SectionType     `json:"sectionType"`
	Reasoning      string          `json:"reasoning"`
	Confidence     int             `json:"confidenceScore"`
	RegulatoryRefs []RegulatoryRef `json:"regulatoryViolationReference"`
}

// Engagement holds the numeric stats of a video. Missing upstream
// values default to zero at normalization time.
type Engagement struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Duration int   `json:"duration"`
}

// VideoRecord is the canonical, platform-agnostic per-video record.
// It is created by the normalizer, annotated in place by the analysis
// invoker, and owned by the batch orchestrator for the duration of a
// run.
type VideoRecord struct {
	Platform    Platform   `json:"platform"`
	VideoID     string     `json:"video_id"`
	Title       string     `json:"title"`
	Channel     string     `json:"channel"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	Transcript  string     `json:"transcript"`
	Engagement  Engagement `json:"engagement"`
	Tags        []string   `json:"tags"`

	// Analysis results. Findings starts empty; OverallConfidence and
	// ProductNames hold their sentinels until the classifier runs.
	Findings          []Finding  `json:"dark_pattern_findings"`
	OverallConfidence Confidence `json:"overall_confidence_score"`
	ProductNames      []string   `json:"product_names"`

	// ExtractionMethod records which strategy produced the data so
	// downstream consumers can discount low-confidence sources.
	ExtractionMethod string `json:"extraction_method"`

	// AnalysisError is the inline per-video error annotation; set only
	// when the classifier call for this record failed.
	AnalysisError string `json:"analysis_error,omitempty"`
}

// ExtractedData is the payload of a successful extraction attempt.
type ExtractedData struct {
	Title        string
	Description  string
	Transcript   string
	Uploader     string
	Duration     int
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	UploadDate   string
	Tags         []string
	Categories   []string
	CanonicalURL string
}

// AttemptResult is the outcome of one extraction method. Exactly one
// of Data/Reason is meaningful: Data non-nil means success, otherwise
// Reason carries the soft-failure description. MethodName is always
// set for diagnostics.
type AttemptResult struct {
	MethodName string
	Data       *ExtractedData
	Reason     string
}

// Succeeded reports whether the attempt produced data.
func (r AttemptResult) Succeeded() bool {
	return r.Data != nil
}

// Success builds a successful attempt result.
func Success(method string, data *ExtractedData) AttemptResult {
	return AttemptResult{MethodName: method, Data: data}
}

// Failure builds a soft-failure attempt result.
func Failure(method, reason string) AttemptResult {
	return AttemptResult{MethodName: method, Reason: reason}
}

// SearchRequest is the immutable input of one orchestrator run.
type SearchRequest struct {
	Mode            SearchMode
	Inputs          []string
	Platforms       []Platform
	ExcludeCreators []string
	MaxResults      int
}

// AnalysisBatch is the immutable output of one orchestrator run.
type AnalysisBatch struct {
	Records     []*VideoRecord `json:"videos"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}

// OverallConfidence returns the highest per-video overall confidence
// in the batch, or the "N/A" sentinel when nothing was scored.
func (b *AnalysisBatch) OverallConfidence() string {
	best := Confidence{}
	for _, rec := range b.Records {
		if rec.OverallConfidence.Valid && (!best.Valid || rec.OverallConfidence.Score > best.Score) {
			best = rec.OverallConfidence
		}
	}
	return best.String()
}

// AnalysisSession is the persisted snapshot of one completed batch.
// SessionName is the document key: saving under an existing name
// overwrites it (last write wins, no merge).
type AnalysisSession struct {
	SessionName            string    `json:"session_name" gorm:"primaryKey"`
	SearchType             string    `json:"search_type"`
	Platform               string    `json:"platform"`
	AnalysisData           string    `json:"analysis_data" gorm:"type:text"`
	CreatedAt              time.Time `json:"created_at" gorm:"index"`
	VideoCount             int       `json:"video_count"`
	OverallConfidenceScore string    `json:"overall_confidence_score"`
}

// Config represents the application configuration
type Config struct {
	Server struct {
		Host         string `mapstructure:"host" yaml:"host"`
		Port         int    `mapstructure:"port" yaml:"port"`
		ReadTimeout  int    `mapstructure:"read_timeout" yaml:"read_timeout"`
		WriteTimeout int    `mapstructure:"write_timeout" yaml:"write_timeout"`
	} `mapstructure:"server" yaml:"server"`

	Limits struct {
		MaxYouTubeURLs    int `mapstructure:"max_youtube_urls" yaml:"max_youtube_urls"`
		MaxTikTokURLs     int `mapstructure:"max_tiktok_urls" yaml:"max_tiktok_urls"`
		MaxKeywordQueries int `mapstructure:"max_keyword_queries" yaml:"max_keyword_queries"`
		MaxSearchResults  int `mapstructure:"max_search_results" yaml:"max_search_results"`
	} `mapstructure:"limits" yaml:"limits"`

	Extraction struct {
		YtdlpPath       string `mapstructure:"ytdlp_path" yaml:"ytdlp_path"`
		WhisperPath     string `mapstructure:"whisper_path" yaml:"whisper_path"`
		DownloadTimeout int    `mapstructure:"download_timeout" yaml:"download_timeout"`
		MetadataTimeout int    `mapstructure:"metadata_timeout" yaml:"metadata_timeout"`
		HTTPTimeout     int    `mapstructure:"http_timeout" yaml:"http_timeout"`
		UserAgent       string `mapstructure:"user_agent" yaml:"user_agent"`
		Cookie          string `mapstructure:"cookie" yaml:"cookie"`
		Proxy           string `mapstructure:"proxy" yaml:"proxy"`
		MaxRetries      int    `mapstructure:"max_retries" yaml:"max_retries"`
	} `mapstructure:"extraction" yaml:"extraction"`

	YouTube struct {
		APIKey string `mapstructure:"api_key" yaml:"api_key"`
	} `mapstructure:"youtube" yaml:"youtube"`

	Gemini struct {
		APIKey            string  `mapstructure:"api_key" yaml:"api_key"`
		Model             string  `mapstructure:"model" yaml:"model"`
		Timeout           int     `mapstructure:"timeout" yaml:"timeout"`
		RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
		PromptFile        string  `mapstructure:"prompt_file" yaml:"prompt_file"`
	} `mapstructure:"gemini" yaml:"gemini"`

	Airtable struct {
		APIKey  string `mapstructure:"api_key" yaml:"api_key"`
		BaseID  string `mapstructure:"base_id" yaml:"base_id"`
		TableID string `mapstructure:"table_id" yaml:"table_id"`
	} `mapstructure:"airtable" yaml:"airtable"`

	Database struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`

	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
		Output string `mapstructure:"output" yaml:"output"`
	} `mapstructure:"log" yaml:"log"`
}
