package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"darkpattern-scanner/pkg/models"
)

// countingTransport counts every request that reaches the wire.
type countingTransport struct {
	calls int
	next  http.RoundTripper
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls++
	return t.next.RoundTrip(req)
}

func newTestAnalyzer(apiKey, baseURL string, transport *countingTransport) *Analyzer {
	a := NewAnalyzer(Config{
		APIKey:            apiKey,
		RequestsPerSecond: 1000,
		HTTPClient:        &http.Client{Transport: transport},
	}, zerolog.Nop())
	if baseURL != "" {
		a.baseURL = baseURL
	}
	return a
}

func envelopeFor(t *testing.T, payload string) []byte {
	t.Helper()
	env := map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content": map[string]interface{}{
					"parts": []interface{}{map[string]interface{}{"text": payload}},
				},
			},
		},
	}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestAnalyzeWithoutKeyMakesNoNetworkCalls(t *testing.T) {
	transport := &countingTransport{next: http.DefaultTransport}
	analyzer := newTestAnalyzer("", "", transport)

	record := &models.VideoRecord{VideoID: "abc"}
	if err := analyzer.Analyze(context.Background(), record, "prompt"); err != nil {
		t.Fatalf("disabled analyzer must not error: %v", err)
	}

	if transport.calls != 0 {
		t.Errorf("Expected zero network calls, got %d", transport.calls)
	}
	if len(record.Findings) != 0 || record.Findings == nil {
		t.Error("Expected empty findings")
	}
	if record.OverallConfidence.Valid {
		t.Error("Expected N/A confidence")
	}
	if len(record.ProductNames) != 0 || record.ProductNames == nil {
		t.Error("Expected empty product names")
	}
	if record.AnalysisError != "" {
		t.Errorf("Disabled analyzer must not annotate an error: %s", record.AnalysisError)
	}
}

func TestAnalyzeParsesDoubleEncodedPayload(t *testing.T) {
	inner := `{"darkPatternAnalysis":[{"category":"Implied Scarcity / Sale Mention","excerpt":"almost gone","sectionType":"transcript","reasoning":"urgency","confidenceScore":88,"regulatoryViolationReference":[]}],"overallConfidenceScore":91,"productNames":["Glow Serum"]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("API key missing from query: %s", r.URL.String())
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		if _, ok := req["generationConfig"]; !ok {
			t.Error("request missing generationConfig")
		}
		w.Write(envelopeFor(t, inner))
	}))
	defer server.Close()

	transport := &countingTransport{next: http.DefaultTransport}
	analyzer := newTestAnalyzer("test-key", server.URL, transport)

	record := &models.VideoRecord{VideoID: "abc", Title: "haul video"}
	if err := analyzer.Analyze(context.Background(), record, "prompt"); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if transport.calls != 1 {
		t.Errorf("Expected exactly one call, got %d", transport.calls)
	}
	if len(record.Findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d", len(record.Findings))
	}
	if record.Findings[0].Category != "Implied Scarcity / Sale Mention" {
		t.Errorf("Unexpected category: %s", record.Findings[0].Category)
	}
	if record.OverallConfidence.String() != "91" {
		t.Errorf("Unexpected overall confidence: %s", record.OverallConfidence.String())
	}
	if len(record.ProductNames) != 1 || record.ProductNames[0] != "Glow Serum" {
		t.Errorf("Unexpected product names: %v", record.ProductNames)
	}
	if record.AnalysisError != "" {
		t.Errorf("Unexpected analysis error: %s", record.AnalysisError)
	}
}

func TestAnalyzeSendsAllContentSections(t *testing.T) {
	inner := `{"darkPatternAnalysis":[],"overallConfidenceScore":10,"productNames":[]}`
	var sentText string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		if len(req.Contents) == 1 && len(req.Contents[0].Parts) == 1 {
			sentText = req.Contents[0].Parts[0].Text
		}
		w.Write(envelopeFor(t, inner))
	}))
	defer server.Close()

	transport := &countingTransport{next: http.DefaultTransport}
	analyzer := newTestAnalyzer("test-key", server.URL, transport)

	record := &models.VideoRecord{
		VideoID:     "abc",
		Title:       "haul",
		Description: "link in bio",
		Transcript:  "buy now",
		Tags:        []string{"ad", "sponsored", "discountcode"},
	}
	if err := analyzer.Analyze(context.Background(), record, "prompt"); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	want := "prompt\n\nContent to analyze:\n" +
		"Title: haul\nDescription: link in bio\nTranscript: buy now\nTags: ad, sponsored, discountcode"
	if sentText != want {
		t.Errorf("Sent content mismatch:\ngot:  %q\nwant: %q", sentText, want)
	}
}

func TestAnalyzeUnexpectedEnvelopeYieldsEmptyResultAndError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	transport := &countingTransport{next: http.DefaultTransport}
	analyzer := newTestAnalyzer("test-key", server.URL, transport)

	record := &models.VideoRecord{VideoID: "abc"}
	err := analyzer.Analyze(context.Background(), record, "prompt")
	if err == nil {
		t.Fatal("expected an error for an unexpected envelope")
	}

	if len(record.Findings) != 0 {
		t.Error("Expected empty findings after failure")
	}
	if record.AnalysisError == "" {
		t.Error("Expected inline analysis error annotation")
	}
}

func TestAnalyzeFailureIsIsolatedPerRecord(t *testing.T) {
	inner := `{"darkPatternAnalysis":[],"overallConfidenceScore":10,"productNames":[]}`
	var requests int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(envelopeFor(t, inner))
	}))
	defer server.Close()

	transport := &countingTransport{next: http.DefaultTransport}
	analyzer := newTestAnalyzer("test-key", server.URL, transport)

	records := []*models.VideoRecord{
		{VideoID: "one"},
		{VideoID: "two"},
		{VideoID: "three"},
	}

	var failed int
	for _, record := range records {
		if err := analyzer.Analyze(context.Background(), record, "prompt"); err != nil {
			failed++
		}
	}

	if failed != 1 {
		t.Fatalf("Expected exactly one failed record, got %d", failed)
	}
	if records[1].AnalysisError == "" {
		t.Error("Failed record must carry the inline error")
	}
	if records[0].AnalysisError != "" || records[2].AnalysisError != "" {
		t.Error("Failure must not leak into other records")
	}
	if !records[0].OverallConfidence.Valid || !records[2].OverallConfidence.Valid {
		t.Error("Successful records must keep their results")
	}
}

func TestAnalyzeMalformedInnerJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelopeFor(t, "this is not json"))
	}))
	defer server.Close()

	transport := &countingTransport{next: http.DefaultTransport}
	analyzer := newTestAnalyzer("test-key", server.URL, transport)

	record := &models.VideoRecord{VideoID: "abc"}
	if err := analyzer.Analyze(context.Background(), record, "prompt"); err == nil {
		t.Fatal("expected an error for malformed inner JSON")
	}
	if record.AnalysisError == "" {
		t.Error("Expected inline analysis error annotation")
	}
}
