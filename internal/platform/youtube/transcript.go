package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Innertube constants for the ANDROID /player endpoint.
const (
	innertubePlayerURL = "https://www.youtube.com/youtubei/v1/player"
	androidVersion     = "20.10.38"
	androidUserAgent   = "com.google.android.youtube/" + androidVersion + " (Linux; U; Android 11) gzip"
)

// Transcript sentinels. A transcript fetch never drops a video: every
// failure kind maps to a human-readable string the record carries
// instead of the transcript.
const (
	SentinelNoTranscript = "No transcript found for this video."
	SentinelDisabled     = "Transcripts are disabled for this video."
)

// FailureKind distinguishes the soft-failure cases of a transcript fetch.
type FailureKind int

const (
	FetchOK FailureKind = iota
	FetchNoTranscript
	FetchDisabled
	FetchOther
)

// TranscriptResult is the outcome of a transcript fetch. Err is only
// set for FetchOther.
type TranscriptResult struct {
	Text string
	Kind FailureKind
	Err  error
}

// Sentinel renders the result as the string the video record carries.
func (r TranscriptResult) Sentinel() string {
	switch r.Kind {
	case FetchOK:
		return r.Text
	case FetchNoTranscript:
		return SentinelNoTranscript
	case FetchDisabled:
		return SentinelDisabled
	default:
		return fmt.Sprintf("Error fetching transcript: %v", r.Err)
	}
}

// TranscriptFetcher pulls captions through the Innertube ANDROID
// /player endpoint and the timedtext XML URLs it hands back.
type TranscriptFetcher struct {
	client    *http.Client
	playerURL string
	logger    zerolog.Logger
}

// NewTranscriptFetcher creates a fetcher using the given HTTP client.
func NewTranscriptFetcher(client *http.Client, logger zerolog.Logger) *TranscriptFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &TranscriptFetcher{
		client:    client,
		playerURL: innertubePlayerURL,
		logger:    logger.With().Str("component", "youtube_transcript").Logger(),
	}
}

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type playerResp struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

type timedText struct {
	Lines []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Text string `xml:",chardata"`
}

// Fetch retrieves and flattens the transcript for a video ID. The
// result always renders to some string: text on success, a sentinel on
// any failure.
func (f *TranscriptFetcher) Fetch(ctx context.Context, videoID string) TranscriptResult {
	tracks, result := f.captionTracks(ctx, videoID)
	if result.Kind != FetchOK {
		f.logger.Warn().Str("video_id", videoID).Str("sentinel", result.Sentinel()).
			Msg("Transcript unavailable")
		return result
	}

	track := pickTrack(tracks)
	text, err := f.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return TranscriptResult{Kind: FetchOther, Err: err}
	}
	if text == "" {
		return TranscriptResult{Kind: FetchNoTranscript}
	}

	f.logger.Debug().Str("video_id", videoID).Int("length", len(text)).
		Msg("Transcript fetched")
	return TranscriptResult{Text: text, Kind: FetchOK}
}

func (f *TranscriptFetcher) captionTracks(ctx context.Context, videoID string) ([]captionTrack, TranscriptResult) {
	body, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     androidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, TranscriptResult{Kind: FetchOther, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.playerURL+"?prettyPrint=false", bytes.NewReader(body))
	if err != nil {
		return nil, TranscriptResult{Kind: FetchOther, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", androidUserAgent)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", androidVersion)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, TranscriptResult{Kind: FetchOther, Err: fmt.Errorf("innertube player: %w", err)}
	}
	defer resp.Body.Close()

	var player playerResp
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, TranscriptResult{Kind: FetchOther, Err: fmt.Errorf("decode player: %w", err)}
	}

	if player.Captions == nil {
		return nil, TranscriptResult{Kind: FetchDisabled}
	}
	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, TranscriptResult{Kind: FetchNoTranscript}
	}
	return tracks, TranscriptResult{Kind: FetchOK}
}

// pickTrack prefers manual English tracks, then any English track,
// then the first one.
func pickTrack(tracks []captionTrack) captionTrack {
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") && t.Kind != "asr" {
			return t
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t
		}
	}
	return tracks[0]
}

// fetchTimedText downloads a caption track XML and joins its lines
// with single spaces.
func (f *TranscriptFetcher) fetchTimedText(ctx context.Context, baseURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return "", err
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	var sb strings.Builder
	for _, line := range tt.Lines {
		text := strings.TrimSpace(line.Text)
		if text != "" {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
		}
	}
	return sb.String(), nil
}
