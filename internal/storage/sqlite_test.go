package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"darkpattern-scanner/internal/monitor"
	"darkpattern-scanner/pkg/models"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "sessions.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndGetSession(t *testing.T) {
	store := newTestStore(t)

	session := &models.AnalysisSession{
		SessionName:            "august-haul-review",
		SearchType:             "url",
		Platform:               "tiktok",
		AnalysisData:           `{"videos":[]}`,
		VideoCount:             0,
		OverallConfidenceScore: "N/A",
	}
	if err := store.SaveSession(session); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := store.GetSession("august-haul-review")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected session, got nil")
	}
	if got.SearchType != "url" || got.Platform != "tiktok" {
		t.Errorf("Session fields lost: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt must be stamped on save")
	}
}

func TestGetSessionMissingReturnsNilNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetSession("never-saved")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing session, got %+v", got)
	}
}

func TestSaveSessionLastWriteWins(t *testing.T) {
	store := newTestStore(t)

	first := &models.AnalysisSession{
		SessionName:  "scan",
		SearchType:   "url",
		AnalysisData: `{"videos":["old"]}`,
		VideoCount:   1,
	}
	if err := store.SaveSession(first); err != nil {
		t.Fatal(err)
	}

	second := &models.AnalysisSession{
		SessionName:  "scan",
		SearchType:   "keyword",
		AnalysisData: `{"videos":["new","new"]}`,
		VideoCount:   2,
	}
	if err := store.SaveSession(second); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetSession("scan")
	if err != nil {
		t.Fatal(err)
	}
	if got.SearchType != "keyword" || got.VideoCount != 2 {
		t.Errorf("Expected second write to win, got %+v", got)
	}

	sessions, err := store.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Errorf("Overwrite must not duplicate, got %d sessions", len(sessions))
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	store := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	names := []string{"oldest", "middle", "newest"}
	for i, name := range names {
		session := &models.AnalysisSession{
			SessionName: name,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.SaveSession(session); err != nil {
			t.Fatal(err)
		}
	}

	sessions, err := store.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(sessions))
	}
	if sessions[0].SessionName != "newest" || sessions[2].SessionName != "oldest" {
		t.Errorf("Wrong order: %s, %s, %s",
			sessions[0].SessionName, sessions[1].SessionName, sessions[2].SessionName)
	}
}

func TestDeleteSession(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveSession(&models.AnalysisSession{SessionName: "doomed"}); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteSession("doomed"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	got, err := store.GetSession("doomed")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("Session must be gone after delete")
	}
}

func TestSaveSessionRequiresName(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveSession(&models.AnalysisSession{}); err == nil {
		t.Fatal("expected error for empty session name")
	}
}

func TestStorageOperationsRecorded(t *testing.T) {
	mon := monitor.NewMonitor()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "sessions.db"), mon)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	saves := mon.GetMetrics().StorageOperations.WithLabelValues("save", "success")
	lists := mon.GetMetrics().StorageOperations.WithLabelValues("list", "success")
	saveBefore := testutil.ToFloat64(saves)
	listBefore := testutil.ToFloat64(lists)

	if err := store.SaveSession(&models.AnalysisSession{SessionName: "metered"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.ListSessions(); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(saves); got != saveBefore+1 {
		t.Errorf("Expected save counter to increment, got %v -> %v", saveBefore, got)
	}
	if got := testutil.ToFloat64(lists); got != listBefore+1 {
		t.Errorf("Expected list counter to increment, got %v -> %v", listBefore, got)
	}
}

func TestSnapshotSession(t *testing.T) {
	batch := &models.AnalysisBatch{
		Records: []*models.VideoRecord{
			{VideoID: "a", OverallConfidence: models.NewConfidence(77)},
			{VideoID: "b"},
		},
	}

	session, err := SnapshotSession("scan", "url", "youtube", batch)
	if err != nil {
		t.Fatalf("SnapshotSession failed: %v", err)
	}
	if session.VideoCount != 2 {
		t.Errorf("Expected video count 2, got %d", session.VideoCount)
	}
	if session.OverallConfidenceScore != "77" {
		t.Errorf("Expected overall confidence 77, got %s", session.OverallConfidenceScore)
	}
	if session.AnalysisData == "" {
		t.Error("Expected JSON snapshot")
	}
}
