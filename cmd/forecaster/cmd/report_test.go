package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "valid.csv")
	if err := os.WriteFile(validFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		filePath    string
		expectError bool
	}{
		{"valid file", validFile, false},
		{"empty path", "", true},
		{"non-existent file", "/non/existent/file.csv", true},
		{"directory instead of file", tmpDir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.filePath, "test file")

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateReportFlags(t *testing.T) {
	tmpDir := t.TempDir()
	inputFile := filepath.Join(tmpDir, "export.csv")
	if err := os.WriteFile(inputFile, []byte("Master Period,Revenue TCV USD\nFY26-Q2,100000"), 0644); err != nil {
		t.Fatalf("failed to create input file: %v", err)
	}

	tests := []struct {
		name        string
		input       string
		from        string
		to          string
		startMonth  int
		measures    []string
		expectError bool
	}{
		{
			name:       "valid flags",
			input:      inputFile,
			from:       "FY26-Q1",
			to:         "FY26-Q4",
			startMonth: 4,
			measures:   []string{"revenue_tcv_usd"},
		},
		{
			name:        "missing input",
			input:       "",
			from:        "FY26-Q1",
			to:          "FY26-Q4",
			startMonth:  4,
			measures:    []string{"revenue_tcv_usd"},
			expectError: true,
		},
		{
			name:        "malformed from period",
			input:       inputFile,
			from:        "2026-Q1",
			to:          "FY26-Q4",
			startMonth:  4,
			measures:    []string{"revenue_tcv_usd"},
			expectError: true,
		},
		{
			name:        "start month out of range",
			input:       inputFile,
			from:        "FY26-Q1",
			to:          "FY26-Q4",
			startMonth:  13,
			measures:    []string{"revenue_tcv_usd"},
			expectError: true,
		},
		{
			name:        "no measures",
			input:       inputFile,
			from:        "FY26-Q1",
			to:          "FY26-Q4",
			startMonth:  4,
			measures:    nil,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reportInputFile = tt.input
			reportMappingFile = ""
			reportFromPeriod = tt.from
			reportToPeriod = tt.to
			reportStartMonth = tt.startMonth
			reportMeasures = tt.measures

			err := validateReportFlags(reportCmd, nil)

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateValidateFlags(t *testing.T) {
	tmpDir := t.TempDir()
	inputFile := filepath.Join(tmpDir, "export.csv")
	if err := os.WriteFile(inputFile, []byte("name,amount\nAcme,100"), 0644); err != nil {
		t.Fatalf("failed to create input file: %v", err)
	}

	validateInputFile = inputFile
	validateMappingFile = ""

	applyFixID = "numeric_coercion"
	applyFixColumn = ""
	fixedOutputFile = ""
	if err := validateValidateFlags(validateCmd, nil); err == nil {
		t.Error("expected error when --apply-fix lacks --fix-column")
	}

	applyFixColumn = "amount"
	if err := validateValidateFlags(validateCmd, nil); err == nil {
		t.Error("expected error when --apply-fix lacks --fixed-output")
	}

	fixedOutputFile = filepath.Join(tmpDir, "fixed.csv")
	if err := validateValidateFlags(validateCmd, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	applyFixID = ""
	applyFixColumn = ""
	fixedOutputFile = ""
}
