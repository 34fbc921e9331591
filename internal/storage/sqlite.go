package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"darkpattern-scanner/internal/monitor"
	"darkpattern-scanner/pkg/models"
)

// SQLite implements the SessionStore interface using SQLite
type SQLite struct {
	db      *gorm.DB
	monitor *monitor.Monitor
}

// NewSQLite creates a new SQLite session store. The monitor may be nil;
// operations are then unrecorded.
func NewSQLite(path string, mon *monitor.Monitor) (*SQLite, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	// Connect to database
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	// Auto migrate
	if err := db.AutoMigrate(&models.AnalysisSession{}); err != nil {
		return nil, fmt.Errorf("error migrating database: %w", err)
	}

	return &SQLite{db: db, monitor: mon}, nil
}

// observe records the operation outcome and duration.
func (s *SQLite) observe(operation string, start time.Time, err error) {
	if s.monitor == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	s.monitor.RecordStorageOperation(operation, status, time.Since(start))
}

// SaveSession saves a session. The session name is the primary key, so
// saving under an existing name overwrites it: last write wins.
func (s *SQLite) SaveSession(session *models.AnalysisSession) error {
	if session.SessionName == "" {
		return fmt.Errorf("session name is required")
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	start := time.Now()
	err := s.db.Save(session).Error
	s.observe("save", start, err)
	return err
}

// GetSession retrieves a session by name
func (s *SQLite) GetSession(name string) (*models.AnalysisSession, error) {
	start := time.Now()
	var session models.AnalysisSession
	err := s.db.Where("session_name = ?", name).First(&session).Error
	if err == gorm.ErrRecordNotFound {
		s.observe("get", start, nil)
		return nil, nil
	}
	s.observe("get", start, err)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns all sessions, newest first
func (s *SQLite) ListSessions() ([]*models.AnalysisSession, error) {
	start := time.Now()
	var sessions []*models.AnalysisSession
	err := s.db.Order("created_at DESC").Find(&sessions).Error
	s.observe("list", start, err)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteSession removes a session by name
func (s *SQLite) DeleteSession(name string) error {
	start := time.Now()
	err := s.db.Delete(&models.AnalysisSession{}, "session_name = ?", name).Error
	s.observe("delete", start, err)
	return err
}

// Close closes the storage connection
func (s *SQLite) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// SnapshotSession builds the persisted session row for a completed
// batch. The batch is stored as its JSON snapshot.
func SnapshotSession(name, searchType, platform string, batch *models.AnalysisBatch) (*models.AnalysisSession, error) {
	data, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("encoding batch snapshot: %w", err)
	}

	return &models.AnalysisSession{
		SessionName:            name,
		SearchType:             searchType,
		Platform:               platform,
		AnalysisData:           string(data),
		CreatedAt:              time.Now(),
		VideoCount:             len(batch.Records),
		OverallConfidenceScore: batch.OverallConfidence(),
	}, nil
}
