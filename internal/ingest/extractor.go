package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"financial-statement-service/internal/models"
	"financial-statement-service/pkg/logger"
)

// Config holds extraction settings
type Config struct {
	// SupportedExtensions lists the file extensions the extractor accepts
	SupportedExtensions []string `json:"supported_extensions"`
	// MaxTextLines caps how many candidate lines the text parser examines
	MaxTextLines int `json:"max_text_lines"`
}

// DefaultConfig returns the default extraction settings
func DefaultConfig() *Config {
	return &Config{
		SupportedExtensions: []string{".csv", ".txt", ".pdf"},
		MaxTextLines:        50,
	}
}

// Extractor produces raw tabular datasets from ledger-style files.
// CSV files parse directly; text and PDF-text files go through a
// best-effort heuristic that looks for financial lines.
type Extractor struct {
	config *Config
	logger logger.Logger
}

// NewExtractor creates a new Extractor. A nil config uses the
// defaults; a nil logger discards log output.
func NewExtractor(config *Config, log logger.Logger) *Extractor {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Extractor{
		config: config,
		logger: log.WithComponent("ingestion"),
	}
}

// Supports reports whether the extractor accepts the file's extension
func (e *Extractor) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range e.config.SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// Extract routes the file to the extractor for its format. Failures
// are reported inside the result rather than raised: the caller
// inspects Success and Errors.
func (e *Extractor) Extract(path string) *models.ExtractionResult {
	e.logger.Infof("Processing file: %s", path)

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return e.extractCSV(path)
	case ".txt", ".pdf":
		return e.extractText(path)
	default:
		return &models.ExtractionResult{
			Success: false,
			Errors:  []string{fmt.Sprintf("Unsupported file format: %s", ext)},
		}
	}
}

// extractCSV reads a CSV file into a raw table. Completely empty rows
// are dropped; short rows are kept and padded by the table accessor.
func (e *Extractor) extractCSV(path string) *models.ExtractionResult {
	result := &models.ExtractionResult{Metadata: make(map[string]interface{})}

	file, err := os.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("CSV extraction failed: %v", err))
		e.logger.WithError(err).Error("CSV extraction failed")
		return result
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("CSV extraction failed: %v", err))
		e.logger.WithError(err).Error("CSV extraction failed")
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "CSV file is empty")
		return result
	}

	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if rowIsEmpty(row) {
			continue
		}
		dataRows = append(dataRows, row)
	}

	if len(dataRows) == 0 {
		result.Errors = append(result.Errors, "CSV file is empty")
		return result
	}

	result.Success = true
	result.Table = models.NewRawTable(headers, dataRows)
	result.Metadata["rows"] = len(dataRows)
	result.Metadata["columns"] = len(headers)
	result.Metadata["column_names"] = headers
	result.Metadata["file_type"] = "csv"

	e.logger.Infof("Successfully extracted %d rows from CSV file", len(dataRows))
	return result
}

// extractText runs the tabular-text heuristic over a plain text or
// PDF-text file. When no tabular structure is found the raw lines are
// returned under a single column so downstream stages can surface a
// useful diagnostic instead of an empty dataset.
func (e *Extractor) extractText(path string) *models.ExtractionResult {
	result := &models.ExtractionResult{Metadata: make(map[string]interface{})}

	content, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Text extraction failed: %v", err))
		e.logger.WithError(err).Error("Text extraction failed")
		return result
	}

	text := string(content)
	if strings.TrimSpace(text) == "" {
		result.Errors = append(result.Errors, "No readable text found in file")
		return result
	}

	if table := parseTabularText(text, e.config.MaxTextLines); table != nil {
		result.Success = true
		result.Table = table
		result.Metadata["rows"] = table.RowCount()
		result.Metadata["columns"] = len(table.Headers)
		result.Metadata["column_names"] = table.Headers
		result.Metadata["file_type"] = "text"
		e.logger.Infof("Successfully extracted %d rows from text file", table.RowCount())
		return result
	}

	// Raw text fallback
	var lines [][]string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, []string{trimmed})
		}
	}
	result.Success = true
	result.Table = models.NewRawTable([]string{"Extracted_Text"}, lines)
	result.Metadata["rows"] = len(lines)
	result.Metadata["columns"] = 1
	result.Metadata["file_type"] = "text"
	result.Metadata["note"] = "Raw text extraction - no tabular structure detected"

	e.logger.Info("Text extracted but no tabular structure detected")
	return result
}

func rowIsEmpty(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
