package fiscal

import (
	"testing"
	"time"

	"golang-forecast-engine/internal/models"
	"golang-forecast-engine/pkg/errors"
)

func TestCalendarTransform(t *testing.T) {
	cal := DefaultCalendar()

	tests := []struct {
		month    time.Month
		year     int
		expected string
	}{
		{time.April, 2025, "FY26-Q1"},
		{time.June, 2025, "FY26-Q1"},
		{time.July, 2025, "FY26-Q2"},
		{time.August, 2025, "FY26-Q2"},
		{time.September, 2025, "FY26-Q2"},
		{time.October, 2025, "FY26-Q3"},
		{time.December, 2025, "FY26-Q3"},
		{time.January, 2026, "FY26-Q4"},
		{time.February, 2026, "FY26-Q4"},
		{time.March, 2026, "FY26-Q4"},
		{time.April, 2026, "FY27-Q1"},
	}

	for _, tt := range tests {
		if got := cal.PeriodOf(tt.month, tt.year); got.String() != tt.expected {
			t.Errorf("PeriodOf(%s %d) = %s, expected %s", tt.month, tt.year, got, tt.expected)
		}
	}
}

func TestCalendarAlternateStartMonth(t *testing.T) {
	// January-aligned calendar: fiscal quarters equal calendar quarters.
	cal := Calendar{StartMonth: time.January}

	if !cal.CalendarAligned() {
		t.Error("Expected January-start calendar to be calendar-aligned")
	}
	if got := cal.PeriodOf(time.February, 2026); got.String() != "FY26-Q1" {
		t.Errorf("Expected FY26-Q1, got %s", got)
	}
	if got := cal.PeriodOf(time.November, 2026); got.String() != "FY26-Q4" {
		t.Errorf("Expected FY26-Q4, got %s", got)
	}

	// July-start calendar (e.g. Australian fiscal year).
	julCal := Calendar{StartMonth: time.July}
	if got := julCal.PeriodOf(time.July, 2025); got.String() != "FY26-Q1" {
		t.Errorf("Expected FY26-Q1, got %s", got)
	}
	if got := julCal.PeriodOf(time.June, 2026); got.String() != "FY26-Q4" {
		t.Errorf("Expected FY26-Q4, got %s", got)
	}
}

func TestCalendarValidate(t *testing.T) {
	if err := DefaultCalendar().Validate(); err != nil {
		t.Errorf("Expected default calendar to validate, got %v", err)
	}
	if err := (Calendar{StartMonth: 0}).Validate(); err == nil {
		t.Error("Expected start month 0 to be rejected")
	}
	if err := (Calendar{StartMonth: 13}).Validate(); err == nil {
		t.Error("Expected start month 13 to be rejected")
	}
}

func TestResolveString(t *testing.T) {
	resolver := NewResolver(DefaultCalendar())

	tests := []struct {
		name     string
		input    string
		expected string
		wantCode errors.ErrorCode
	}{
		// Family 1: explicit fiscal period, independent of calendar math.
		{"explicit fiscal period", "FY26-Q3", "FY26-Q3", ""},
		{"lowercase fiscal period", "fy27_q1", "FY27-Q1", ""},

		// Family 2: calendar dates.
		{"iso date", "2025-08-22", "FY26-Q2", ""},
		{"iso date q4", "2026-02-05", "FY26-Q4", ""},
		{"iso year boundary", "2026-04-01", "FY27-Q1", ""},
		{"us slash date", "08/22/2025", "FY26-Q2", ""},
		{"day-first dashed", "22-08-2025", "FY26-Q2", ""},
		{"month-second dashed", "08-22-2025", "FY26-Q2", ""},
		{"ambiguous dashed date", "05-02-2026", "", errors.CodeAmbiguousPeriod},

		// Family 3: month-year text.
		{"full month year", "August 2025", "FY26-Q2", ""},
		{"lowercase month year", "august 2025", "FY26-Q2", ""},
		{"abbreviated month", "Aug 2025", "FY26-Q2", ""},
		{"abbreviated dashed", "Aug-25", "FY26-Q2", ""},
		{"numeric month year", "2025-08", "FY26-Q2", ""},

		// Family 4: bare calendar quarter is ambiguous under an April start.
		{"bare calendar quarter", "2025-Q2", "", errors.CodeAmbiguousPeriod},

		// Unparseable values.
		{"free text", "next sprint", "", errors.CodeUnparseablePeriod},
		{"empty", "", "", errors.CodeUnparseablePeriod},
		{"invalid day", "32-08-2025", "", errors.CodeUnparseablePeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.ResolveString(tt.input)
			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("Expected %s failure for %q, got %s", tt.wantCode, tt.input, got)
				}
				if !errors.IsCode(err, tt.wantCode) {
					t.Fatalf("Expected code %s for %q, got %v", tt.wantCode, tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for %q: %v", tt.input, err)
			}
			if got.String() != tt.expected {
				t.Errorf("ResolveString(%q) = %s, expected %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestResolveBareCalendarQuarterWhenAligned(t *testing.T) {
	resolver := NewResolver(Calendar{StartMonth: time.January})

	got, err := resolver.ResolveString("2025-Q2")
	if err != nil {
		t.Fatalf("Expected aligned calendar to accept bare quarter, got %v", err)
	}
	if got.String() != "FY25-Q2" {
		t.Errorf("Expected FY25-Q2, got %s", got)
	}
}

func TestResolveNumericMonth(t *testing.T) {
	resolver := NewResolver(DefaultCalendar())

	// Without a default year, numeric months are rejected, not guessed.
	if _, err := resolver.Resolve(models.NumberFromFloat(8)); !errors.IsCode(err, errors.CodeUnparseablePeriod) {
		t.Errorf("Expected unparseable without default year, got %v", err)
	}

	resolver.DefaultYear = 2025
	got, err := resolver.Resolve(models.NumberFromFloat(8))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.String() != "FY26-Q2" {
		t.Errorf("Expected FY26-Q2, got %s", got)
	}

	if _, err := resolver.Resolve(models.NumberFromFloat(13)); err == nil {
		t.Error("Expected month index 13 to be rejected")
	}
	if _, err := resolver.Resolve(models.NumberFromFloat(8.5)); err == nil {
		t.Error("Expected fractional month index to be rejected")
	}
}

func TestResolveMonthTransform(t *testing.T) {
	resolver := NewResolver(DefaultCalendar())

	if got := resolver.ResolveMonth(time.January, 2026); got.String() != "FY26-Q4" {
		t.Errorf("Expected FY26-Q4, got %s", got)
	}
}

func TestResolveMissingValue(t *testing.T) {
	resolver := NewResolver(DefaultCalendar())

	if _, err := resolver.Resolve(models.Missing()); !errors.IsCode(err, errors.CodeUnparseablePeriod) {
		t.Errorf("Expected unparseable for missing value, got %v", err)
	}
}

func TestResolveWithin(t *testing.T) {
	resolver := NewResolver(DefaultCalendar())
	from := Period{Year: 2026, Quarter: 1}
	to := Period{Year: 2026, Quarter: 4}

	got, err := resolver.ResolveWithin(models.String("FY26-Q2"), from, to)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.String() != "FY26-Q2" {
		t.Errorf("Expected FY26-Q2, got %s", got)
	}

	_, err = resolver.ResolveWithin(models.String("FY27-Q1"), from, to)
	if !errors.IsCode(err, errors.CodeOutOfRange) {
		t.Errorf("Expected out-of-range failure, got %v", err)
	}

	_, err = resolver.ResolveWithin(models.String("garbage"), from, to)
	if !errors.IsCode(err, errors.CodeUnparseablePeriod) {
		t.Errorf("Expected unparseable failure, got %v", err)
	}
}

func TestResolveDoesNotFallThroughFamilies(t *testing.T) {
	resolver := NewResolver(DefaultCalendar())

	// A dashed date with two ambiguous components belongs to the calendar
	// date family; it must fail there rather than fall through to another
	// family that might accept it.
	_, err := resolver.ResolveString("05-02-2026")
	if !errors.IsCode(err, errors.CodeAmbiguousPeriod) {
		t.Errorf("Expected ambiguous failure without fall-through, got %v", err)
	}
}
