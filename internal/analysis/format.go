package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"darkpattern-scanner/pkg/models"
)

// Formatter sentinels.
const (
	NoFindingsSentinel = "No dark patterns detected."
	BadFormatSentinel  = "Analysis data not in expected format."
)

// FormatFindings renders findings as the flat display string. Pure and
// deterministic: same findings in, same string out. An empty list
// yields the no-findings sentinel.
func FormatFindings(findings []models.Finding) string {
	var sb strings.Builder
	for _, finding := range findings {
		fmt.Fprintf(&sb, "Category: %s\nExcerpt: '%s'\nReasoning: %s\nConfidence: %v\n",
			finding.Category, finding.Excerpt, finding.Reasoning, finding.Confidence)

		if len(finding.RegulatoryRefs) > 0 {
			sb.WriteString("Regulatory Violations:\n")
			for _, ref := range finding.RegulatoryRefs {
				fmt.Fprintf(&sb, "  - Law/Guidance: %s, Article/Clause: %s\n    Synthesis: %s\n",
					ref.LawGuidance, ref.ArticleClause, ref.HighLevelSynthesis)
			}
		}
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		return NoFindingsSentinel
	}
	return sb.String()
}

// FormatValue renders untyped analysis data, as found in persisted
// session JSON. Non-list input yields the bad-format sentinel.
func FormatValue(value interface{}) string {
	items, ok := value.([]interface{})
	if !ok {
		return BadFormatSentinel
	}

	findings := make([]models.Finding, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		finding := models.Finding{
			Category:  stringField(entry, "category"),
			Excerpt:   stringField(entry, "excerpt"),
			Reasoning: stringField(entry, "reasoning"),
		}
		if score, ok := entry["confidenceScore"].(float64); ok {
			finding.Confidence = int(score)
		}
		if refs, ok := entry["regulatoryViolationReference"].([]interface{}); ok {
			for _, rawRef := range refs {
				ref, ok := rawRef.(map[string]interface{})
				if !ok {
					continue
				}
				finding.RegulatoryRefs = append(finding.RegulatoryRefs, models.RegulatoryRef{
					LawGuidance:        stringField(ref, "lawGuidance"),
					ArticleClause:      stringField(ref, "articleClause"),
					HighLevelSynthesis: stringField(ref, "highLevelSynthesis"),
				})
			}
		}
		findings = append(findings, finding)
	}

	return FormatFindings(findings)
}

// FormatSessionData renders a persisted batch snapshot for display.
// The input is stored session JSON; a record whose findings are
// malformed gets the bad-format sentinel instead of failing the whole
// render.
func FormatSessionData(data string) string {
	var snapshot map[string]interface{}
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return BadFormatSentinel
	}

	videos, ok := snapshot["videos"].([]interface{})
	if !ok {
		return BadFormatSentinel
	}

	var sb strings.Builder
	for i, raw := range videos {
		video, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		fmt.Fprintf(&sb, "%d. [%s] %s (%s)\n", i+1,
			stringField(video, "platform"),
			stringField(video, "title"),
			stringField(video, "video_id"))

		rendered := FormatValue(video["dark_pattern_findings"])
		sb.WriteString(rendered)
		if !strings.HasSuffix(rendered, "\n") {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return "N/A"
}
