// Package analysis invokes the Gemini generateContent REST API with a
// schema-constrained JSON response and formats the findings. Every
// failure is isolated to the record under analysis.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"darkpattern-scanner/internal/monitor"
	"darkpattern-scanner/pkg/models"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// responseSchema constrains the model to the findings payload shape.
// Sent verbatim in every request's generationConfig.
const responseSchema = `{
  "type": "OBJECT",
  "properties": {
    "darkPatternAnalysis": {
      "type": "ARRAY",
      "items": {
        "type": "OBJECT",
        "properties": {
          "category": {"type": "STRING"},
          "excerpt": {"type": "STRING"},
          "sectionType": {"type": "STRING"},
          "reasoning": {"type": "STRING"},
          "confidenceScore": {"type": "INTEGER"},
          "regulatoryViolationReference": {
            "type": "ARRAY",
            "items": {
              "type": "OBJECT",
              "properties": {
                "lawGuidance": {"type": "STRING"},
                "articleClause": {"type": "STRING"},
                "highLevelSynthesis": {"type": "STRING"}
              },
              "required": ["lawGuidance", "articleClause", "highLevelSynthesis"]
            }
          }
        },
        "required": ["category", "excerpt", "sectionType", "reasoning", "confidenceScore", "regulatoryViolationReference"]
      }
    },
    "overallConfidenceScore": {"type": "INTEGER", "description": "Overall confidence score (0-100) of the dark pattern detection."},
    "productNames": {"type": "ARRAY", "items": {"type": "STRING"}, "description": "List of product names mentioned in the text."}
  },
  "required": ["darkPatternAnalysis", "overallConfidenceScore", "productNames"]
}`

// Analyzer calls Gemini for one record at a time. An empty API key
// disables it entirely: records get their empty result without any
// network traffic.
type Analyzer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	monitor *monitor.Monitor
	logger  zerolog.Logger
}

// Config carries the analyzer knobs.
type Config struct {
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Monitor           *monitor.Monitor
}

// NewAnalyzer builds an analyzer. A nil HTTPClient gets a default one
// bounded by the configured timeout.
func NewAnalyzer(cfg Config, logger zerolog.Logger) *Analyzer {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Analyzer{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: defaultBaseURL,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		monitor: cfg.Monitor,
		logger:  logger.With().Str("component", "analysis").Logger(),
	}
}

// analysisPayload is the inner JSON document the model produces.
type analysisPayload struct {
	DarkPatternAnalysis    []models.Finding `json:"darkPatternAnalysis"`
	OverallConfidenceScore json.RawMessage  `json:"overallConfidenceScore"`
	ProductNames           []string         `json:"productNames"`
}

// envelope is the generateContent response wrapper.
type envelope struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
}

// Analyze classifies one record in place. On any failure the record
// keeps its empty findings and gains an inline AnalysisError; the
// returned error is informational and never aborts a batch.
func (a *Analyzer) Analyze(ctx context.Context, record *models.VideoRecord, prompt string) error {
	if a.apiKey == "" {
		// Disabled analyzer: empty result, zero network
		a.emptyResult(record)
		return nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return a.fail(record, err)
	}

	start := time.Now()
	payload, err := a.call(ctx, prompt, combinedContent(record))
	if a.monitor != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		a.monitor.RecordClassifierCall(outcome, time.Since(start))
	}
	if err != nil {
		return a.fail(record, err)
	}

	record.Findings = payload.DarkPatternAnalysis
	if record.Findings == nil {
		record.Findings = []models.Finding{}
	}
	record.ProductNames = payload.ProductNames
	if record.ProductNames == nil {
		record.ProductNames = []string{}
	}
	record.OverallConfidence = parseOverallConfidence(payload.OverallConfidenceScore)

	a.logger.Info().
		Str("video_id", record.VideoID).
		Int("findings", len(record.Findings)).
		Str("overall_confidence", record.OverallConfidence.String()).
		Msg("Record analyzed")
	return nil
}

func (a *Analyzer) call(ctx context.Context, prompt, text string) (*analysisPayload, error) {
	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: prompt + "\n\nContent to analyze:\n" + text}},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   json.RawMessage(responseSchema),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", a.baseURL, a.model, a.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Gemini API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Gemini API returned HTTP %d", resp.StatusCode)
	}

	// Double parse: the envelope first, then the model's JSON text
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding response envelope: %w", err)
	}
	if len(env.Candidates) == 0 || len(env.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("unexpected Gemini API response structure")
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(env.Candidates[0].Content.Parts[0].Text), &payload); err != nil {
		return nil, fmt.Errorf("decoding analysis payload: %w", err)
	}
	return &payload, nil
}

func (a *Analyzer) emptyResult(record *models.VideoRecord) {
	record.Findings = []models.Finding{}
	record.OverallConfidence = models.Confidence{}
	record.ProductNames = []string{}
}

func (a *Analyzer) fail(record *models.VideoRecord, err error) error {
	a.emptyResult(record)
	record.AnalysisError = err.Error()
	a.logger.Warn().Str("video_id", record.VideoID).Err(err).
		Msg("Analysis failed for record")
	return err
}

// parseOverallConfidence accepts the schema's integer as well as the
// "N/A" string the disabled path produces.
func parseOverallConfidence(raw json.RawMessage) models.Confidence {
	if len(raw) == 0 {
		return models.Confidence{}
	}
	var score int
	if err := json.Unmarshal(raw, &score); err == nil {
		return models.NewConfidence(score)
	}
	return models.Confidence{}
}

// combinedContent joins the textual sections of a record for analysis.
func combinedContent(record *models.VideoRecord) string {
	return fmt.Sprintf("Title: %s\nDescription: %s\nTranscript: %s\nTags: %s",
		record.Title, record.Description, record.Transcript, strings.Join(record.Tags, ", "))
}
