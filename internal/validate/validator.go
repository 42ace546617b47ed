// Package validate runs a fixed battery of quality checks against a mapped
// record set and offers a small set of named, auto-appliable fixes.
//
// The validator never mutates its input. Checks produce findings graded
// passed, warning, or error; ApplyFix derives a corrected copy of the record
// set on request.
package validate

import (
	"fmt"
	"sort"

	"golang-forecast-engine/internal/mapper"
	"golang-forecast-engine/internal/models"
	"golang-forecast-engine/internal/pivot"
	"golang-forecast-engine/internal/schema"
	"golang-forecast-engine/pkg/logger"

	"github.com/shopspring/decimal"
)

// Severity grades a single finding
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityPassed  Severity = "passed"
)

// Finding is one check result for one column (or the whole table when
// Column is empty).
type Finding struct {
	Severity     Severity `json:"severity"`
	Column       string   `json:"column,omitempty"`
	Message      string   `json:"message"`
	SuggestedFix FixID    `json:"suggested_fix,omitempty"`
}

// Result bundles all findings from one validation pass. Score is the share
// of passed checks on a 0-100 scale.
type Result struct {
	Score    float64   `json:"score"`
	Findings []Finding `json:"findings"`
}

// ErrorCount returns the number of error-severity findings
func (r *Result) ErrorCount() int {
	return r.countSeverity(SeverityError)
}

// WarningCount returns the number of warning-severity findings
func (r *Result) WarningCount() int {
	return r.countSeverity(SeverityWarning)
}

func (r *Result) countSeverity(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// Missing-value thresholds: above errorRatio the column is unusable, above
// warnRatio it degrades aggregation quality.
const (
	missingErrorRatio = 0.20
	missingWarnRatio  = 0.05
)

// outlierMinRows is the minimum sample size before the IQR check runs;
// quartiles on fewer rows are noise.
const outlierMinRows = 10

// Config holds validation thresholds
type Config struct {
	// OutlierMultiplier scales the IQR fence. Zero means the default of 3.
	OutlierMultiplier decimal.Decimal
	// RequiredFieldIDs overrides the registry's required fields when non-nil.
	RequiredFieldIDs []schema.FieldID
}

// DefaultConfig returns validation defaults
func DefaultConfig() *Config {
	return &Config{
		OutlierMultiplier: decimal.NewFromInt(3),
	}
}

func (c *Config) multiplier() decimal.Decimal {
	if c.OutlierMultiplier.IsZero() {
		return decimal.NewFromInt(3)
	}
	return c.OutlierMultiplier
}

// measureFields are the targets whose mapped columns must coerce to numbers
var measureFields = []schema.FieldID{
	schema.FieldRevenueTCV,
	schema.FieldIYR,
	schema.FieldMargin,
}

// percentFields are the targets expected to hold 0-100 percentages
var percentFields = []schema.FieldID{
	schema.FieldMargin,
}

// nonNegativeFields are the targets where negative values are suspicious
var nonNegativeFields = []schema.FieldID{
	schema.FieldRevenueTCV,
	schema.FieldIYR,
}

// Validator runs the check battery
type Validator struct {
	config   *Config
	registry *schema.Registry
	log      logger.Logger
}

// NewValidator creates a validator
func NewValidator(registry *schema.Registry, config *Config) *Validator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Validator{
		config:   config,
		registry: registry,
		log:      logger.GetGlobalLogger().WithComponent("validator"),
	}
}

// ValidateRecords runs every check against the mapped record set and returns
// the graded findings with an overall quality score.
func (v *Validator) ValidateRecords(records []models.Record, mapping *mapper.Mapping) *Result {
	var findings []Finding

	findings = append(findings, v.checkRequiredMapping(mapping))
	findings = append(findings, v.checkMissing(records, mapping)...)
	findings = append(findings, v.checkNumeric(records, mapping)...)
	findings = append(findings, v.checkNegatives(records, mapping)...)
	findings = append(findings, v.checkPercentRange(records, mapping)...)
	findings = append(findings, v.checkOutliers(records, mapping)...)
	findings = append(findings, v.checkDuplicates(records, mapping))

	result := &Result{
		Score:    score(findings),
		Findings: findings,
	}

	v.log.WithFields(logger.Fields{
		"records":  len(records),
		"checks":   len(findings),
		"errors":   result.ErrorCount(),
		"warnings": result.WarningCount(),
		"score":    result.Score,
	}).Info("Validation pass complete")

	return result
}

// ValidateReport checks the aggregated report's internal consistency: every
// row's period cells must reconcile exactly with its total.
func (v *Validator) ValidateReport(report *pivot.Report) *Result {
	var findings []Finding

	for _, row := range report.Rows {
		for _, block := range row.Blocks {
			sum := decimal.Zero
			for _, cell := range block.ByPeriod {
				sum = sum.Add(cell)
			}
			if !sum.Equal(block.Total) {
				findings = append(findings, Finding{
					Severity: SeverityError,
					Column:   string(block.Field),
					Message: fmt.Sprintf("Row %q does not reconcile: period cells sum to %s but total is %s",
						row.Key, sum, block.Total),
				})
			}
		}
	}
	if len(findings) == 0 {
		findings = append(findings, Finding{
			Severity: SeverityPassed,
			Message:  fmt.Sprintf("All %d rows reconcile with their totals", len(report.Rows)),
		})
	}

	if excluded := report.Tally.Excluded(); excluded > 0 {
		findings = append(findings, Finding{
			Severity: SeverityWarning,
			Message: fmt.Sprintf("%d of %d records were excluded from aggregation",
				excluded, report.Tally.InputRecords),
		})
	}

	return &Result{Score: score(findings), Findings: findings}
}

func score(findings []Finding) float64 {
	if len(findings) == 0 {
		return 100
	}
	passed := 0
	for _, f := range findings {
		if f.Severity == SeverityPassed {
			passed++
		}
	}
	return float64(passed) / float64(len(findings)) * 100
}

func (v *Validator) requiredIDs() []schema.FieldID {
	if v.config.RequiredFieldIDs != nil {
		return v.config.RequiredFieldIDs
	}
	return v.registry.RequiredIDs()
}

func (v *Validator) checkRequiredMapping(mapping *mapper.Mapping) Finding {
	missing := mapping.MissingRequired(v.requiredIDs())
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, id := range missing {
			names[i] = string(id)
		}
		return Finding{
			Severity: SeverityError,
			Message:  fmt.Sprintf("Required fields have no mapped column: %v", names),
		}
	}
	return Finding{
		Severity: SeverityPassed,
		Message:  "All required fields are mapped",
	}
}

// mappedColumns returns the mapped source columns in a stable order
func mappedColumns(mapping *mapper.Mapping) []string {
	entries := mapping.Entries()
	columns := make([]string, len(entries))
	for i, e := range entries {
		columns[i] = e.SourceColumn
	}
	sort.Strings(columns)
	return columns
}

func (v *Validator) checkMissing(records []models.Record, mapping *mapper.Mapping) []Finding {
	var findings []Finding
	for _, column := range mappedColumns(mapping) {
		if len(records) == 0 {
			continue
		}
		missing := 0
		for _, record := range records {
			if record.Get(column).IsMissing() {
				missing++
			}
		}
		ratio := float64(missing) / float64(len(records))
		switch {
		case ratio > missingErrorRatio:
			findings = append(findings, Finding{
				Severity:     SeverityError,
				Column:       column,
				Message:      fmt.Sprintf("%.1f%% of values are missing", ratio*100),
				SuggestedFix: FixFillMissing,
			})
		case ratio > missingWarnRatio:
			findings = append(findings, Finding{
				Severity:     SeverityWarning,
				Column:       column,
				Message:      fmt.Sprintf("%.1f%% of values are missing", ratio*100),
				SuggestedFix: FixFillMissing,
			})
		default:
			findings = append(findings, Finding{
				Severity: SeverityPassed,
				Column:   column,
				Message:  "Missing-value ratio within tolerance",
			})
		}
	}
	return findings
}

func (v *Validator) checkNumeric(records []models.Record, mapping *mapper.Mapping) []Finding {
	var findings []Finding
	for _, field := range measureFields {
		column, ok := mapping.SourceOf(field)
		if !ok {
			continue
		}
		bad := 0
		for _, record := range records {
			value := record.Get(column)
			if value.IsMissing() {
				continue
			}
			if _, ok := value.Decimal(); !ok {
				bad++
			}
		}
		if bad > 0 {
			findings = append(findings, Finding{
				Severity:     SeverityError,
				Column:       column,
				Message:      fmt.Sprintf("%d values cannot be read as numbers", bad),
				SuggestedFix: FixNumericCoercion,
			})
		} else {
			findings = append(findings, Finding{
				Severity: SeverityPassed,
				Column:   column,
				Message:  "All present values are numeric",
			})
		}
	}
	return findings
}

func (v *Validator) checkNegatives(records []models.Record, mapping *mapper.Mapping) []Finding {
	var findings []Finding
	for _, field := range nonNegativeFields {
		column, ok := mapping.SourceOf(field)
		if !ok {
			continue
		}
		negative := 0
		for _, record := range records {
			if d, ok := record.Get(column).Decimal(); ok && d.IsNegative() {
				negative++
			}
		}
		if negative > 0 {
			findings = append(findings, Finding{
				Severity: SeverityWarning,
				Column:   column,
				Message:  fmt.Sprintf("%d negative values in a revenue column", negative),
			})
		} else {
			findings = append(findings, Finding{
				Severity: SeverityPassed,
				Column:   column,
				Message:  "No negative values",
			})
		}
	}
	return findings
}

func (v *Validator) checkPercentRange(records []models.Record, mapping *mapper.Mapping) []Finding {
	var findings []Finding
	hundred := decimal.NewFromInt(100)
	for _, field := range percentFields {
		column, ok := mapping.SourceOf(field)
		if !ok {
			continue
		}
		outside := 0
		for _, record := range records {
			if d, ok := record.Get(column).Decimal(); ok {
				if d.IsNegative() || d.GreaterThan(hundred) {
					outside++
				}
			}
		}
		if outside > 0 {
			findings = append(findings, Finding{
				Severity:     SeverityWarning,
				Column:       column,
				Message:      fmt.Sprintf("%d values fall outside the 0-100 percent range", outside),
				SuggestedFix: FixPercentToDecimal,
			})
		} else {
			findings = append(findings, Finding{
				Severity: SeverityPassed,
				Column:   column,
				Message:  "All values within the 0-100 percent range",
			})
		}
	}
	return findings
}

func (v *Validator) checkOutliers(records []models.Record, mapping *mapper.Mapping) []Finding {
	var findings []Finding
	for _, field := range measureFields {
		column, ok := mapping.SourceOf(field)
		if !ok {
			continue
		}
		values := columnDecimals(records, column)
		if len(values) < outlierMinRows {
			continue
		}
		lower, upper := iqrFences(values, v.config.multiplier())
		outliers := 0
		for _, d := range values {
			if d.LessThan(lower) || d.GreaterThan(upper) {
				outliers++
			}
		}
		if outliers > 0 {
			findings = append(findings, Finding{
				Severity:     SeverityWarning,
				Column:       column,
				Message:      fmt.Sprintf("%d values lie beyond the interquartile fences", outliers),
				SuggestedFix: FixClipOutliers,
			})
		} else {
			findings = append(findings, Finding{
				Severity: SeverityPassed,
				Column:   column,
				Message:  "No outliers beyond the interquartile fences",
			})
		}
	}
	return findings
}

func (v *Validator) checkDuplicates(records []models.Record, mapping *mapper.Mapping) Finding {
	// Duplicates are keyed by opportunity id when mapped, otherwise by the
	// full record.
	keyColumn, hasKey := mapping.SourceOf(schema.FieldOpportunityID)

	duplicates := 0
	if hasKey {
		seen := make(map[string]bool, len(records))
		for _, record := range records {
			value := record.Get(keyColumn)
			if value.IsMissing() {
				continue
			}
			key := value.Text()
			if seen[key] {
				duplicates++
			}
			seen[key] = true
		}
	} else {
		for i, record := range records {
			for j := i + 1; j < len(records); j++ {
				if record.Equal(records[j]) {
					duplicates++
					break
				}
			}
		}
	}

	if duplicates > 0 {
		return Finding{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%d duplicate records detected", duplicates),
		}
	}
	return Finding{
		Severity: SeverityPassed,
		Message:  "No duplicate records",
	}
}

// columnDecimals collects the coercible numeric values of one column
func columnDecimals(records []models.Record, column string) []decimal.Decimal {
	values := make([]decimal.Decimal, 0, len(records))
	for _, record := range records {
		if d, ok := record.Get(column).Decimal(); ok {
			values = append(values, d)
		}
	}
	return values
}
