package fiscal

import (
	"time"

	"golang-forecast-engine/pkg/errors"
)

// Calendar is the fiscal-calendar policy. StartMonth is the calendar month
// the fiscal year begins in; the fiscal year label is the calendar year in
// which the fiscal year ends, so with an April start a January 2026 date
// belongs to FY26, and an April 2026 date to FY27.
type Calendar struct {
	StartMonth time.Month `json:"start_month"`
}

// DefaultCalendar returns the April-start policy used by the default
// reporting schema (Q1=Apr-Jun, Q2=Jul-Sep, Q3=Oct-Dec, Q4=Jan-Mar).
func DefaultCalendar() Calendar {
	return Calendar{StartMonth: time.April}
}

// Validate checks the calendar policy
func (c Calendar) Validate() error {
	if c.StartMonth < time.January || c.StartMonth > time.December {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "fiscal_calendar_start_month", int(c.StartMonth), nil)
	}
	return nil
}

// CalendarAligned reports whether fiscal quarters coincide with calendar
// quarters under this policy.
func (c Calendar) CalendarAligned() bool {
	return c.StartMonth == time.January
}

// PeriodOf is the pure calendar-to-fiscal transform: it maps a calendar
// (month, year) pair to the fiscal period containing it.
func (c Calendar) PeriodOf(month time.Month, year int) Period {
	offset := (int(month) - int(c.StartMonth) + 12) % 12
	quarter := offset/3 + 1

	fiscalYear := year
	if c.StartMonth != time.January && int(month) >= int(c.StartMonth) {
		// The fiscal year that starts in this calendar year ends in the next,
		// and the label follows the ending year.
		fiscalYear = year + 1
	}

	return Period{Year: fiscalYear, Quarter: quarter}
}

// PeriodOfDate maps a calendar date to its fiscal period
func (c Calendar) PeriodOfDate(t time.Time) Period {
	return c.PeriodOf(t.Month(), t.Year())
}
