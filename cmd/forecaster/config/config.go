// Package config translates CLI flags into engine configurations.
package config

import (
	"fmt"
	"time"

	"golang-forecast-engine/internal/fiscal"
	"golang-forecast-engine/internal/loader"
	"golang-forecast-engine/internal/pivot"
	"golang-forecast-engine/internal/reporter"
	"golang-forecast-engine/internal/schema"
	"golang-forecast-engine/internal/validate"

	"github.com/shopspring/decimal"
)

// CreateLoaderConfig creates a loader configuration for the given delimiter
func CreateLoaderConfig(delimiter string) (*loader.Config, error) {
	config := loader.DefaultConfig()
	if delimiter != "" {
		runes := []rune(delimiter)
		if len(runes) != 1 {
			return nil, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
		}
		config.Delimiter = runes[0]
	}
	return config, nil
}

// CreateCalendar creates a fiscal calendar starting in the given month (1-12)
func CreateCalendar(startMonth int) (fiscal.Calendar, error) {
	calendar := fiscal.Calendar{StartMonth: time.Month(startMonth)}
	if err := calendar.Validate(); err != nil {
		return fiscal.Calendar{}, err
	}
	return calendar, nil
}

// CreatePivotConfig creates an aggregation engine configuration
func CreatePivotConfig(requiredFields []string) *pivot.Config {
	config := &pivot.Config{}
	if len(requiredFields) > 0 {
		ids := make([]schema.FieldID, len(requiredFields))
		for i, f := range requiredFields {
			ids[i] = schema.FieldID(f)
		}
		config.RequiredFieldIDs = ids
	}
	return config
}

// CreateValidateConfig creates a validation configuration with the given
// outlier fence multiplier
func CreateValidateConfig(outlierMultiplier float64, requiredFields []string) (*validate.Config, error) {
	if outlierMultiplier < 0 {
		return nil, fmt.Errorf("outlier multiplier cannot be negative, got %g", outlierMultiplier)
	}
	config := validate.DefaultConfig()
	if outlierMultiplier > 0 {
		config.OutlierMultiplier = decimal.NewFromFloat(outlierMultiplier)
	}
	if len(requiredFields) > 0 {
		ids := make([]schema.FieldID, len(requiredFields))
		for i, f := range requiredFields {
			ids[i] = schema.FieldID(f)
		}
		config.RequiredFieldIDs = ids
	}
	return config, nil
}

// CreateReportConfig creates a reporter configuration for the given format
func CreateReportConfig(format string, includeTally bool) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()
	config.Format = reporter.OutputFormat(format)
	config.IncludeTally = includeTally
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
