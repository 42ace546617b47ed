// Package reporter renders mapping, aggregation, and validation results.
//
// Supported output formats:
//   - Console: human-readable tabular output for terminal display
//   - JSON: structured output for programmatic consumption
//   - CSV: flat output for spreadsheet applications
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang-forecast-engine/internal/mapper"
	"golang-forecast-engine/internal/pivot"
	"golang-forecast-engine/internal/schema"
	"golang-forecast-engine/internal/validate"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeTally controls whether the exclusion and coercion counters are
	// printed alongside the pivot table.
	IncludeTally bool `json:"include_tally"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:       FormatConsole,
		IncludeTally: true,
		CSVDelimiter: ',',
		CSVHeaders:   true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator renders engine results in the configured format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GeneratePivotReport writes the pivoted report to the writer
func (rg *ReportGenerator) GeneratePivotReport(report *pivot.Report, writer io.Writer) error {
	if report == nil {
		return fmt.Errorf("pivot report cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.pivotConsole(report, writer)
	case FormatJSON:
		return rg.writeJSON(report, writer)
	case FormatCSV:
		return rg.pivotCSV(report, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) pivotConsole(report *pivot.Report, writer io.Writer) error {
	fmt.Fprintf(writer, "FISCAL PERIOD REPORT\n")
	if report.GroupBy != nil {
		fmt.Fprintf(writer, "Grouped by: %s\n", *report.GroupBy)
	}
	if len(report.Periods) > 0 {
		fmt.Fprintf(writer, "Range: %s to %s\n",
			report.Periods[0], report.Periods[len(report.Periods)-1])
	}
	fmt.Fprintf(writer, "\n")

	for _, measure := range report.Measures {
		fmt.Fprintf(writer, "=== %s ===\n", measure)

		fmt.Fprintf(writer, "%-24s", rowKeyHeader(report))
		for _, period := range report.Periods {
			fmt.Fprintf(writer, "%14s", period.String())
		}
		fmt.Fprintf(writer, "%14s\n", "Total")

		for _, row := range report.Rows {
			block, ok := blockFor(row, measure)
			if !ok {
				continue
			}
			fmt.Fprintf(writer, "%-24s", truncate(row.Key, 23))
			for _, cell := range block.ByPeriod {
				fmt.Fprintf(writer, "%14s", cell.String())
			}
			fmt.Fprintf(writer, "%14s\n", block.Total.String())
		}
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeTally {
		fmt.Fprintf(writer, "=== RECORD SUMMARY ===\n")
		rg.printTally(report.Tally, writer)
	}

	return nil
}

func (rg *ReportGenerator) printTally(tally pivot.Tally, writer io.Writer) {
	fmt.Fprintf(writer, "Input records:      %d\n", tally.InputRecords)
	fmt.Fprintf(writer, "Aggregated:         %d\n", tally.Aggregated)
	fmt.Fprintf(writer, "Excluded:           %d\n", tally.Excluded())
	if tally.Unparseable > 0 {
		fmt.Fprintf(writer, "  Unparseable:      %d\n", tally.Unparseable)
	}
	if tally.Ambiguous > 0 {
		fmt.Fprintf(writer, "  Ambiguous:        %d\n", tally.Ambiguous)
	}
	if tally.OutOfRange > 0 {
		fmt.Fprintf(writer, "  Out of range:     %d\n", tally.OutOfRange)
	}
	fields := make([]string, 0, len(tally.CoercionFailures))
	for field := range tally.CoercionFailures {
		fields = append(fields, string(field))
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(writer, "Coerced to zero in %s: %d\n",
			field, tally.CoercionFailures[schema.FieldID(field)])
	}
	if tally.RangeAdjusted {
		fmt.Fprintf(writer, "Note: inverted period range was collapsed to its start period\n")
	}
}

func (rg *ReportGenerator) pivotCSV(report *pivot.Report, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{rowKeyHeader(report), "Measure"}
		for _, period := range report.Periods {
			headers = append(headers, period.String())
		}
		headers = append(headers, "Total")
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, row := range report.Rows {
		for _, block := range row.Blocks {
			record := []string{row.Key, string(block.Field)}
			for _, cell := range block.ByPeriod {
				record = append(record, cell.String())
			}
			record = append(record, block.Total.String())
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}

	return nil
}

// GenerateMappingReport writes the column mapping to the writer. Headers
// with no mapping entry are listed as unmapped.
func (rg *ReportGenerator) GenerateMappingReport(mapping *mapper.Mapping, headers []string, writer io.Writer) error {
	if mapping == nil {
		return fmt.Errorf("mapping cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.mappingConsole(mapping, headers, writer)
	case FormatJSON:
		return rg.writeJSON(mappingPayload(mapping, headers), writer)
	case FormatCSV:
		return rg.mappingCSV(mapping, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func mappingPayload(mapping *mapper.Mapping, headers []string) interface{} {
	return struct {
		Entries  []mapper.Entry `json:"entries"`
		Unmapped []string       `json:"unmapped,omitempty"`
	}{
		Entries:  mapping.Entries(),
		Unmapped: unmappedHeaders(mapping, headers),
	}
}

func unmappedHeaders(mapping *mapper.Mapping, headers []string) []string {
	var unmapped []string
	for _, header := range headers {
		if _, ok := mapping.TargetOf(header); !ok {
			unmapped = append(unmapped, header)
		}
	}
	return unmapped
}

func (rg *ReportGenerator) mappingConsole(mapping *mapper.Mapping, headers []string, writer io.Writer) error {
	fmt.Fprintf(writer, "COLUMN MAPPING\n\n")
	fmt.Fprintf(writer, "%-28s%-24s%-12s%s\n", "Source Column", "Target Field", "Tier", "Confidence")

	for _, entry := range mapping.Entries() {
		fmt.Fprintf(writer, "%-28s%-24s%-12s%d\n",
			truncate(entry.SourceColumn, 27),
			entry.TargetField,
			entry.Tier.String(),
			entry.Confidence)
	}

	if unmapped := unmappedHeaders(mapping, headers); len(unmapped) > 0 {
		fmt.Fprintf(writer, "\nUnmapped columns: %s\n", strings.Join(unmapped, ", "))
	}

	return nil
}

func (rg *ReportGenerator) mappingCSV(mapping *mapper.Mapping, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		if err := csvWriter.Write([]string{"Source_Column", "Target_Field", "Tier", "Confidence"}); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}
	for _, entry := range mapping.Entries() {
		record := []string{
			entry.SourceColumn,
			string(entry.TargetField),
			entry.Tier.String(),
			fmt.Sprintf("%d", entry.Confidence),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	return nil
}

// GenerateValidationReport writes validation findings to the writer
func (rg *ReportGenerator) GenerateValidationReport(result *validate.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("validation result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.validationConsole(result, writer)
	case FormatJSON:
		return rg.writeJSON(result, writer)
	case FormatCSV:
		return rg.validationCSV(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) validationConsole(result *validate.Result, writer io.Writer) error {
	fmt.Fprintf(writer, "VALIDATION REPORT\n")
	fmt.Fprintf(writer, "Quality score: %.1f (errors: %d, warnings: %d)\n\n",
		result.Score, result.ErrorCount(), result.WarningCount())

	for _, finding := range result.Findings {
		column := finding.Column
		if column == "" {
			column = "-"
		}
		fmt.Fprintf(writer, "[%-7s] %-24s %s", finding.Severity, truncate(column, 23), finding.Message)
		if finding.SuggestedFix != "" {
			fmt.Fprintf(writer, " (fix: %s)", finding.SuggestedFix)
		}
		fmt.Fprintf(writer, "\n")
	}

	return nil
}

func (rg *ReportGenerator) validationCSV(result *validate.Result, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		if err := csvWriter.Write([]string{"Severity", "Column", "Message", "Suggested_Fix"}); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}
	for _, finding := range result.Findings {
		record := []string{
			string(finding.Severity),
			finding.Column,
			finding.Message,
			string(finding.SuggestedFix),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	return nil
}

func (rg *ReportGenerator) writeJSON(payload interface{}, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func rowKeyHeader(report *pivot.Report) string {
	if report.GroupBy != nil {
		return string(*report.GroupBy)
	}
	return "Row"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
