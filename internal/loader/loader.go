// Package loader reads spreadsheet-style CSV exports into raw records.
//
// The loader is the only component that touches file bytes. It hands the
// engines a header list plus []models.Record and keeps cell values verbatim;
// type coercion is the consumers' concern.
package loader

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"golang-forecast-engine/internal/models"
	"golang-forecast-engine/pkg/errors"
	"golang-forecast-engine/pkg/logger"
)

// Config holds CSV reading options
type Config struct {
	Delimiter        rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
}

// DefaultConfig returns reading defaults for comma-separated exports
func DefaultConfig() *Config {
	return &Config{
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
	}
}

// Stats summarizes one load
type Stats struct {
	TotalLines    int
	ParsedRecords int
	SkippedRows   int
}

// Loader reads CSV files into records
type Loader struct {
	config *Config
	log    logger.Logger
}

// NewLoader creates a loader
func NewLoader(config *Config) *Loader {
	if config == nil {
		config = DefaultConfig()
	}
	return &Loader{
		config: config,
		log:    logger.GetGlobalLogger().WithComponent("loader"),
	}
}

// Load reads a CSV file. The first row is the header; every later row
// becomes one record keyed by the header columns.
func (l *Loader) Load(filePath string) ([]string, []models.Record, *Stats, error) {
	l.log.WithField("file_path", filePath).Info("Loading CSV file")

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		return nil, nil, nil, errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}
	defer file.Close()

	headers, records, stats, err := l.LoadReader(file)
	if err != nil {
		if engineErr, ok := err.(*errors.EngineError); ok {
			return nil, nil, nil, engineErr.WithContext("file_path", filePath)
		}
		return nil, nil, nil, err
	}

	l.log.WithFields(logger.Fields{
		"file_path": filePath,
		"columns":   len(headers),
		"records":   stats.ParsedRecords,
		"skipped":   stats.SkippedRows,
	}).Info("CSV file loaded")

	return headers, records, stats, nil
}

// LoadReader reads CSV content from an io.Reader
func (l *Loader) LoadReader(r io.Reader) ([]string, []models.Record, *Stats, error) {
	reader := csv.NewReader(r)
	reader.Comma = l.config.Delimiter
	reader.TrimLeadingSpace = l.config.TrimLeadingSpace
	// Ragged rows are tolerated; short rows yield missing cells.
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil, errors.FileError(errors.CodeInvalidFormat, "", err).
			WithContext("reason", "empty file, no header row")
	}
	if err != nil {
		return nil, nil, nil, errors.FileError(errors.CodeFileCorrupted, "", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	stats := &Stats{TotalLines: 1}
	var records []models.Record

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, nil, errors.FileError(errors.CodeFileCorrupted, "", err).
				WithContext("line", stats.TotalLines+1)
		}
		stats.TotalLines++

		if l.config.SkipEmptyRows && rowIsEmpty(row) {
			stats.SkippedRows++
			continue
		}

		record := make(models.Record, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				record[header] = models.Missing()
				continue
			}
			record[header] = models.String(row[i])
		}
		records = append(records, record)
		stats.ParsedRecords++
	}

	return headers, records, stats, nil
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
