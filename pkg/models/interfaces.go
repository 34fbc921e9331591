package models

import "context"

// ExtractionMethod is one strategy for retrieving video data. Methods
// never panic and never return hard errors: every outcome is an
// AttemptResult so the cascade can decide whether to fall through.
type ExtractionMethod interface {
	// Name returns the method identifier recorded in diagnostics and
	// in the canonical record's extraction_method field.
	Name() string

	// Attempt tries to retrieve data for the given video URL.
	Attempt(ctx context.Context, url string) AttemptResult
}

// Classifier sends a record's combined text to the dark-pattern
// detector and attaches findings to the record in place. A returned
// error means this record's analysis failed; callers must isolate it
// and continue with the rest of the batch.
type Classifier interface {
	Analyze(ctx context.Context, record *VideoRecord, prompt string) error
}

// SessionStore persists analysis sessions keyed by session name.
type SessionStore interface {
	// SaveSession writes a session; an existing session with the same
	// name is overwritten.
	SaveSession(session *AnalysisSession) error

	// GetSession retrieves a session by name; (nil, nil) when absent.
	GetSession(name string) (*AnalysisSession, error)

	// ListSessions returns all sessions ordered by creation time,
	// newest first.
	ListSessions() ([]*AnalysisSession, error)

	// DeleteSession removes a session by name.
	DeleteSession(name string) error

	// Close closes the underlying store.
	Close() error
}

// Transcriber converts downloaded audio into text. Implementations
// report availability so the cascade can substitute the unavailability
// sentinel instead of failing the whole attempt.
type Transcriber interface {
	Available(ctx context.Context) bool
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
