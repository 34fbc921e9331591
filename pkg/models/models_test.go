package models

import (
	"encoding/json"
	"testing"
)

func TestConfidenceString(t *testing.T) {
	tests := []struct {
		confidence Confidence
		expected   string
	}{
		{Confidence{}, "N/A"},
		{NewConfidence(0), "0"},
		{NewConfidence(85), "85"},
		{NewConfidence(100), "100"},
	}

	for _, test := range tests {
		result := test.confidence.String()
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

func TestConfidenceMarshalJSON(t *testing.T) {
	tests := []struct {
		confidence Confidence
		expected   string
	}{
		{Confidence{}, `"N/A"`},
		{NewConfidence(92), `92`},
	}

	for _, test := range tests {
		data, err := json.Marshal(test.confidence)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(data) != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, string(data))
		}
	}
}

func TestConfidenceUnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		valid bool
		score int
	}{
		{`85`, true, 85},
		{`"N/A"`, false, 0},
		{`null`, false, 0},
		{`"garbage"`, false, 0},
	}

	for _, test := range tests {
		var c Confidence
		if err := json.Unmarshal([]byte(test.input), &c); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", test.input, err)
		}
		if c.Valid != test.valid || c.Score != test.score {
			t.Errorf("Unmarshal(%s): expected {%v %d}, got {%v %d}",
				test.input, test.valid, test.score, c.Valid, c.Score)
		}
	}
}

func TestAttemptResultSucceeded(t *testing.T) {
	success := Success("yt-dlp", &ExtractedData{Title: "Test Video"})
	if !success.Succeeded() {
		t.Error("Expected success result to report Succeeded")
	}
	if success.MethodName != "yt-dlp" {
		t.Errorf("Expected method yt-dlp, got %s", success.MethodName)
	}

	failure := Failure("video_download", "yt-dlp not installed")
	if failure.Succeeded() {
		t.Error("Expected failure result to not report Succeeded")
	}
	if failure.Reason != "yt-dlp not installed" {
		t.Errorf("Expected failure reason to survive, got %s", failure.Reason)
	}
	if failure.Data != nil {
		t.Error("Expected failure result to carry no data")
	}
}

func TestBatchOverallConfidence(t *testing.T) {
	tests := []struct {
		name     string
		records  []*VideoRecord
		expected string
	}{
		{
			name:     "empty batch",
			records:  nil,
			expected: "N/A",
		},
		{
			name: "no scored records",
			records: []*VideoRecord{
				{OverallConfidence: Confidence{}},
				{OverallConfidence: Confidence{}},
			},
			expected: "N/A",
		},
		{
			name: "highest score wins",
			records: []*VideoRecord{
				{OverallConfidence: NewConfidence(40)},
				{OverallConfidence: NewConfidence(90)},
				{OverallConfidence: Confidence{}},
				{OverallConfidence: NewConfidence(72)},
			},
			expected: "90",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			batch := &AnalysisBatch{Records: test.records}
			if got := batch.OverallConfidence(); got != test.expected {
				t.Errorf("Expected %s, got %s", test.expected, got)
			}
		})
	}
}

func TestVideoRecordSentinelDefaults(t *testing.T) {
	record := &VideoRecord{
		Platform: PlatformTikTok,
		VideoID:  "7123456789012345678",
		Findings: []Finding{},
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded["overall_confidence_score"] != "N/A" {
		t.Errorf("Expected N/A sentinel, got %v", decoded["overall_confidence_score"])
	}
	if _, present := decoded["analysis_error"]; present {
		t.Error("Expected analysis_error to be omitted when empty")
	}
}
