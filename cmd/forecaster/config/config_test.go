package config

import (
	"testing"
	"time"

	"golang-forecast-engine/internal/reporter"
)

func TestCreateLoaderConfig(t *testing.T) {
	config, err := CreateLoaderConfig("")
	if err != nil {
		t.Fatalf("CreateLoaderConfig failed: %v", err)
	}
	if config.Delimiter != ',' {
		t.Errorf("Expected comma default, got %q", config.Delimiter)
	}

	config, err = CreateLoaderConfig(";")
	if err != nil {
		t.Fatalf("CreateLoaderConfig failed: %v", err)
	}
	if config.Delimiter != ';' {
		t.Errorf("Expected semicolon, got %q", config.Delimiter)
	}

	if _, err := CreateLoaderConfig("ab"); err == nil {
		t.Error("Expected error for multi-character delimiter")
	}
}

func TestCreateCalendar(t *testing.T) {
	calendar, err := CreateCalendar(4)
	if err != nil {
		t.Fatalf("CreateCalendar failed: %v", err)
	}
	if calendar.StartMonth != time.April {
		t.Errorf("Expected April, got %v", calendar.StartMonth)
	}

	if _, err := CreateCalendar(0); err == nil {
		t.Error("Expected error for month 0")
	}
	if _, err := CreateCalendar(13); err == nil {
		t.Error("Expected error for month 13")
	}
}

func TestCreatePivotConfig(t *testing.T) {
	config := CreatePivotConfig(nil)
	if config.RequiredFieldIDs != nil {
		t.Errorf("Expected registry defaults, got %v", config.RequiredFieldIDs)
	}

	config = CreatePivotConfig([]string{"master_period"})
	if len(config.RequiredFieldIDs) != 1 || string(config.RequiredFieldIDs[0]) != "master_period" {
		t.Errorf("Unexpected required fields: %v", config.RequiredFieldIDs)
	}
}

func TestCreateValidateConfig(t *testing.T) {
	config, err := CreateValidateConfig(0, nil)
	if err != nil {
		t.Fatalf("CreateValidateConfig failed: %v", err)
	}
	if config.OutlierMultiplier.String() != "3" {
		t.Errorf("Expected default multiplier 3, got %s", config.OutlierMultiplier)
	}

	config, err = CreateValidateConfig(1.5, nil)
	if err != nil {
		t.Fatalf("CreateValidateConfig failed: %v", err)
	}
	if config.OutlierMultiplier.String() != "1.5" {
		t.Errorf("Expected multiplier 1.5, got %s", config.OutlierMultiplier)
	}

	if _, err := CreateValidateConfig(-1, nil); err == nil {
		t.Error("Expected error for negative multiplier")
	}
}

func TestCreateReportConfig(t *testing.T) {
	config, err := CreateReportConfig("json", true)
	if err != nil {
		t.Fatalf("CreateReportConfig failed: %v", err)
	}
	if config.Format != reporter.FormatJSON {
		t.Errorf("Expected json format, got %s", config.Format)
	}

	if _, err := CreateReportConfig("xml", true); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
