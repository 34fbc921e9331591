package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestFetcher(playerURL string) *TranscriptFetcher {
	f := NewTranscriptFetcher(http.DefaultClient, zerolog.Nop())
	f.playerURL = playerURL
	return f
}

func TestFetchTranscriptJoinsLines(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/timedtext", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><transcript>
<text start="0" dur="2">limited time</text>
<text start="2" dur="2">offer ends</text>
<text start="4" dur="2">tonight</text>
</transcript>`))
	})
	mux.HandleFunc("/player", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"` + server.URL + `/timedtext","languageCode":"en"}]}}}`))
	})

	result := newTestFetcher(server.URL+"/player").Fetch(context.Background(), "abc123")

	if result.Kind != FetchOK {
		t.Fatalf("expected success, got kind %d (%s)", result.Kind, result.Sentinel())
	}
	if result.Text != "limited time offer ends tonight" {
		t.Errorf("Unexpected joined transcript: %q", result.Text)
	}
}

func TestFetchTranscriptDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"playabilityStatus":{"status":"OK"}}`))
	}))
	defer server.Close()

	result := newTestFetcher(server.URL).Fetch(context.Background(), "abc123")

	if result.Kind != FetchDisabled {
		t.Fatalf("expected disabled, got kind %d", result.Kind)
	}
	if result.Sentinel() != "Transcripts are disabled for this video." {
		t.Errorf("Unexpected sentinel: %q", result.Sentinel())
	}
}

func TestFetchTranscriptNoTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[]}}}`))
	}))
	defer server.Close()

	result := newTestFetcher(server.URL).Fetch(context.Background(), "abc123")

	if result.Kind != FetchNoTranscript {
		t.Fatalf("expected no-transcript, got kind %d", result.Kind)
	}
	if result.Sentinel() != "No transcript found for this video." {
		t.Errorf("Unexpected sentinel: %q", result.Sentinel())
	}
}

func TestFetchTranscriptTransportError(t *testing.T) {
	server := httptest.NewServer(nil)
	server.Close()

	result := newTestFetcher(server.URL).Fetch(context.Background(), "abc123")

	if result.Kind != FetchOther {
		t.Fatalf("expected other failure, got kind %d", result.Kind)
	}
	if result.Err == nil {
		t.Fatal("expected an error for the other kind")
	}
	if !strings.HasPrefix(result.Sentinel(), "Error fetching transcript: ") {
		t.Errorf("Unexpected sentinel: %q", result.Sentinel())
	}
}

func TestSentinelCoversEveryKind(t *testing.T) {
	tests := []struct {
		result   TranscriptResult
		expected string
	}{
		{TranscriptResult{Text: "hello", Kind: FetchOK}, "hello"},
		{TranscriptResult{Kind: FetchNoTranscript}, "No transcript found for this video."},
		{TranscriptResult{Kind: FetchDisabled}, "Transcripts are disabled for this video."},
		{TranscriptResult{Kind: FetchOther, Err: errors.New("boom")}, "Error fetching transcript: boom"},
	}

	for _, test := range tests {
		if got := test.result.Sentinel(); got != test.expected {
			t.Errorf("Expected %q, got %q", test.expected, got)
		}
	}
}

func TestPickTrackPrefersManualEnglish(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "fr", LanguageCode: "fr"},
		{BaseURL: "en-asr", LanguageCode: "en", Kind: "asr"},
		{BaseURL: "en-manual", LanguageCode: "en"},
	}

	if got := pickTrack(tracks); got.BaseURL != "en-manual" {
		t.Errorf("Expected manual english track, got %s", got.BaseURL)
	}

	if got := pickTrack(tracks[:2]); got.BaseURL != "en-asr" {
		t.Errorf("Expected asr english track, got %s", got.BaseURL)
	}

	if got := pickTrack(tracks[:1]); got.BaseURL != "fr" {
		t.Errorf("Expected first track, got %s", got.BaseURL)
	}
}

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		iso      string
		expected int
	}{
		{"PT1H2M3S", 3723},
		{"PT4M13S", 253},
		{"PT58S", 58},
		{"PT2H", 7200},
		{"P0D", 0},
		{"", 0},
	}

	for _, test := range tests {
		if got := parseDurationSeconds(test.iso); got != test.expected {
			t.Errorf("parseDurationSeconds(%s) = %d, expected %d", test.iso, got, test.expected)
		}
	}
}
