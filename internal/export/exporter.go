package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"darkpattern-scanner/internal/analysis"
	"darkpattern-scanner/pkg/models"
)

// ExportFormat represents different export formats
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
	FormatJSON ExportFormat = "json"
)

// ExportConfig holds configuration for data export
type ExportConfig struct {
	Format        ExportFormat
	FilePath      string
	Columns       []string
	DateFormat    string
	Delimiter     rune
	IncludeHeader bool
}

// DataExporter writes analysis batches to flat files. The formatted
// dark-pattern column holds the same display string the formatter
// renders everywhere else.
type DataExporter struct {
	config ExportConfig
}

// NewDataExporter creates a new data exporter
func NewDataExporter(config ExportConfig) *DataExporter {
	// Set defaults
	if config.DateFormat == "" {
		config.DateFormat = "2006-01-02 15:04:05"
	}
	if config.Delimiter == 0 {
		config.Delimiter = ','
	}
	if len(config.Columns) == 0 {
		config.Columns = getDefaultColumns()
	}
	config.IncludeHeader = true

	return &DataExporter{
		config: config,
	}
}

// ExportBatch exports an analysis batch to the configured format
func (de *DataExporter) ExportBatch(batch *models.AnalysisBatch) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(de.config.FilePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	switch de.config.Format {
	case FormatCSV:
		return de.exportToCSV(batch.Records)
	case FormatXLSX:
		return de.exportToXLSX(batch.Records)
	case FormatJSON:
		return de.exportToJSON(batch)
	default:
		return fmt.Errorf("unsupported export format: %s", de.config.Format)
	}
}

// exportToCSV exports data to CSV format
func (de *DataExporter) exportToCSV(records []*models.VideoRecord) error {
	file, err := os.Create(de.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = de.config.Delimiter
	defer writer.Flush()

	// Write header
	if de.config.IncludeHeader {
		if err := writer.Write(de.config.Columns); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	// Write data rows
	for _, record := range records {
		row := de.recordToRow(record)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return nil
}

// exportToXLSX exports data to Excel format
func (de *DataExporter) exportToXLSX(records []*models.VideoRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Analysis"
	f.SetSheetName("Sheet1", sheetName)

	// Set header style
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 12,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	// Write headers
	for i, column := range de.config.Columns {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, column)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	// Set column widths
	columnWidths := map[string]float64{
		"A": 12, // Platform
		"B": 22, // Video ID
		"C": 40, // Title
		"D": 25, // Channel
		"E": 55, // URL
		"F": 60, // Dark Pattern Analysis
		"G": 15, // Overall Confidence
		"H": 35, // Product Names
		"I": 18, // Extraction Method
		"J": 12, // Views
	}

	for col, width := range columnWidths {
		f.SetColWidth(sheetName, col, col, width)
	}

	// Write data rows
	for i, record := range records {
		row := de.recordToRow(record)
		for j, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+j, i+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	// Auto-filter
	endRange := fmt.Sprintf("%c%d", 'A'+len(de.config.Columns)-1, len(records)+1)
	f.AutoFilter(sheetName, "A1:"+endRange, []excelize.AutoFilterOptions{})

	// Freeze first row
	f.SetPanes(sheetName, &excelize.Panes{
		Freeze: true,
		Split:  false,
		XSplit: 0,
		YSplit: 1,
	})

	// Save file
	if err := f.SaveAs(de.config.FilePath); err != nil {
		return fmt.Errorf("failed to save XLSX file: %w", err)
	}

	return nil
}

// exportToJSON exports the full batch to JSON format
func (de *DataExporter) exportToJSON(batch *models.AnalysisBatch) error {
	// Create export data structure
	exportData := struct {
		ExportedAt time.Time             `json:"exported_at"`
		Count      int                   `json:"count"`
		Batch      *models.AnalysisBatch `json:"batch"`
	}{
		ExportedAt: time.Now(),
		Count:      len(batch.Records),
		Batch:      batch,
	}

	// Marshal to JSON
	data, err := json.MarshalIndent(exportData, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	// Write to file
	if err := os.WriteFile(de.config.FilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	return nil
}

// recordToRow converts a VideoRecord to a row of strings
func (de *DataExporter) recordToRow(record *models.VideoRecord) []string {
	row := make([]string, len(de.config.Columns))

	for i, column := range de.config.Columns {
		switch strings.ToLower(column) {
		case "platform":
			row[i] = string(record.Platform)
		case "video id", "video_id":
			row[i] = record.VideoID
		case "title":
			row[i] = record.Title
		case "channel":
			row[i] = record.Channel
		case "url":
			row[i] = record.URL
		case "description":
			row[i] = record.Description
		case "transcript":
			row[i] = record.Transcript
		case "dark pattern analysis", "dark_pattern_analysis":
			row[i] = analysis.FormatFindings(record.Findings)
		case "overall confidence score", "overall_confidence_score":
			row[i] = record.OverallConfidence.String()
		case "product names", "product_names":
			row[i] = strings.Join(record.ProductNames, ", ")
		case "extraction method", "extraction_method":
			row[i] = record.ExtractionMethod
		case "views", "view_count":
			row[i] = fmt.Sprintf("%d", record.Engagement.Views)
		case "likes", "like_count":
			row[i] = fmt.Sprintf("%d", record.Engagement.Likes)
		case "comments", "comment_count":
			row[i] = fmt.Sprintf("%d", record.Engagement.Comments)
		case "duration":
			row[i] = fmt.Sprintf("%d", record.Engagement.Duration)
		case "tags":
			row[i] = strings.Join(record.Tags, ", ")
		case "analysis error", "analysis_error":
			row[i] = record.AnalysisError
		default:
			row[i] = ""
		}
	}

	return row
}

// getDefaultColumns returns default column names
func getDefaultColumns() []string {
	return []string{
		"Platform",
		"Video ID",
		"Title",
		"Channel",
		"URL",
		"Dark Pattern Analysis",
		"Overall Confidence Score",
		"Product Names",
		"Extraction Method",
		"Views",
	}
}

// GetSupportedFormats returns list of supported export formats
func GetSupportedFormats() []ExportFormat {
	return []ExportFormat{FormatCSV, FormatXLSX, FormatJSON}
}

// ValidateConfig validates export configuration
func ValidateConfig(config ExportConfig) error {
	if config.FilePath == "" {
		return fmt.Errorf("file path is required")
	}

	supported := false
	for _, format := range GetSupportedFormats() {
		if config.Format == format {
			supported = true
			break
		}
	}

	if !supported {
		return fmt.Errorf("unsupported format: %s", config.Format)
	}

	return nil
}
