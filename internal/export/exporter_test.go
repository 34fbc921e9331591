package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"darkpattern-scanner/pkg/models"
)

func sampleBatch() *models.AnalysisBatch {
	return &models.AnalysisBatch{
		Records: []*models.VideoRecord{
			{
				Platform:          models.PlatformYouTube,
				VideoID:           "dQw4w9WgXcQ",
				Title:             "Limited time offer!",
				Channel:           "Shop Channel",
				URL:               "https://youtube.com/watch?v=dQw4w9WgXcQ",
				Engagement:        models.Engagement{Views: 1200},
				Findings:          []models.Finding{},
				ProductNames:      []string{"Serum X", "Cream Y"},
				OverallConfidence: models.NewConfidence(85),
				ExtractionMethod:  "data_api",
			},
			{
				Platform:          models.PlatformTikTok,
				VideoID:           "7123456789",
				Title:             "Haul video",
				Channel:           "creator",
				URL:               "https://tiktok.com/@creator/video/7123456789",
				Findings:          []models.Finding{},
				ProductNames:      []string{},
				ExtractionMethod:  "web_scraping",
				OverallConfidence: models.Confidence{},
			},
		},
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	exporter := NewDataExporter(ExportConfig{Format: FormatCSV, FilePath: path})

	if err := exporter.ExportBatch(sampleBatch()); err != nil {
		t.Fatalf("ExportBatch failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse exported CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Platform" {
		t.Errorf("Unexpected header: %v", rows[0])
	}
	if rows[1][1] != "dQw4w9WgXcQ" {
		t.Errorf("Unexpected video ID cell: %s", rows[1][1])
	}
	if !strings.Contains(rows[1][5], "No dark patterns detected.") {
		t.Errorf("Expected formatted analysis text, got %q", rows[1][5])
	}
	if rows[1][6] != "85" {
		t.Errorf("Expected confidence 85, got %q", rows[1][6])
	}
	if rows[2][6] != "N/A" {
		t.Errorf("Expected N/A confidence, got %q", rows[2][6])
	}
	if rows[1][7] != "Serum X, Cream Y" {
		t.Errorf("Unexpected product names cell: %q", rows[1][7])
	}
}

func TestExportJSONWrapper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	exporter := NewDataExporter(ExportConfig{Format: FormatJSON, FilePath: path})

	if err := exporter.ExportBatch(sampleBatch()); err != nil {
		t.Fatalf("ExportBatch failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var wrapper struct {
		ExportedAt string                `json:"exported_at"`
		Count      int                   `json:"count"`
		Batch      *models.AnalysisBatch `json:"batch"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		t.Fatalf("Exported JSON not parseable: %v", err)
	}
	if wrapper.Count != 2 {
		t.Errorf("Expected count 2, got %d", wrapper.Count)
	}
	if len(wrapper.Batch.Records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(wrapper.Batch.Records))
	}
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	exporter := NewDataExporter(ExportConfig{Format: FormatXLSX, FilePath: path})

	if err := exporter.ExportBatch(sampleBatch()); err != nil {
		t.Fatalf("ExportBatch failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("XLSX file not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("XLSX file is empty")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  ExportConfig
		wantErr bool
	}{
		{"valid csv", ExportConfig{Format: FormatCSV, FilePath: "out.csv"}, false},
		{"missing path", ExportConfig{Format: FormatCSV}, true},
		{"bad format", ExportConfig{Format: "parquet", FilePath: "out.pq"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
