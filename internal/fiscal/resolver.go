package fiscal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang-forecast-engine/internal/models"
	"golang-forecast-engine/pkg/errors"
)

// Resolver normalizes raw date/period values into fiscal periods under a
// calendar policy. It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	calendar Calendar

	// DefaultYear, when non-zero, lets a bare numeric month index (1-12)
	// resolve against that calendar year. Left zero, numeric months are
	// rejected as unparseable rather than silently guessed.
	DefaultYear int
}

// NewResolver creates a resolver for the given calendar policy
func NewResolver(calendar Calendar) *Resolver {
	return &Resolver{calendar: calendar}
}

// Calendar returns the resolver's calendar policy
func (r *Resolver) Calendar() Calendar {
	return r.calendar
}

// calendarQuarterPattern matches bare calendar-year quarters like "2025-Q2"
var calendarQuarterPattern = regexp.MustCompile(`^(?i)(\d{4})[-_ ]?q([1-4])$`)

// Input families are tried in a fixed priority order; the first family that
// matches the full value wins and no later family is consulted:
//  1. explicit fiscal period (FY26-Q2)
//  2. calendar date (ISO, MM/DD/YYYY, unambiguous DD-MM-YYYY)
//  3. month-year text (August 2025, Aug-25, 2025-08)
//  4. bare calendar-year quarter (2025-Q2), accepted only when the calendar
//     is January-aligned, otherwise rejected as ambiguous

// Resolve resolves a raw record value into a fiscal period
func (r *Resolver) Resolve(value models.Value) (Period, error) {
	switch value.Kind {
	case models.KindString:
		return r.ResolveString(value.Str)
	case models.KindNumber:
		return r.resolveNumeric(value)
	default:
		return Period{}, errors.PeriodError(errors.CodeUnparseablePeriod, "", nil)
	}
}

// ResolveString resolves a textual date or period value
func (r *Resolver) ResolveString(raw string) (Period, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Period{}, errors.PeriodError(errors.CodeUnparseablePeriod, raw, nil)
	}

	// Family 1: explicit fiscal period, no calendar math involved.
	if fyPattern.MatchString(s) {
		return ParsePeriod(s)
	}

	// Family 2: calendar dates.
	if p, matched, err := r.resolveCalendarDate(s); matched {
		return p, err
	}

	// Family 3: month-year text.
	if p, matched := r.resolveMonthYear(s); matched {
		return p, nil
	}

	// Family 4: bare calendar-year quarter. Genuinely ambiguous between
	// calendar and fiscal numbering unless the calendar is January-aligned,
	// so reject rather than guess.
	if m := calendarQuarterPattern.FindStringSubmatch(s); m != nil {
		if !r.calendar.CalendarAligned() {
			return Period{}, errors.PeriodError(errors.CodeAmbiguousPeriod, raw, nil)
		}
		year, _ := strconv.Atoi(m[1])
		quarter, _ := strconv.Atoi(m[2])
		return Period{Year: year, Quarter: quarter}, nil
	}

	return Period{}, errors.PeriodError(errors.CodeUnparseablePeriod, raw, nil)
}

// ResolveMonth applies the pure calendar-to-fiscal transform to a numeric
// month index and calendar year.
func (r *Resolver) ResolveMonth(month time.Month, year int) Period {
	return r.calendar.PeriodOf(month, year)
}

// ResolveWithin resolves a value and additionally enforces a caller-supplied
// acceptable range; periods outside [from, to] fail with an out-of-range
// error so callers can exclude and tally the record.
func (r *Resolver) ResolveWithin(value models.Value, from, to Period) (Period, error) {
	p, err := r.Resolve(value)
	if err != nil {
		return Period{}, err
	}
	if p.Before(from) || p.After(to) {
		return Period{}, errors.PeriodError(errors.CodeOutOfRange, value.Text(), nil)
	}
	return p, nil
}

func (r *Resolver) resolveNumeric(value models.Value) (Period, error) {
	num := value.Num
	if !num.IsInteger() {
		return Period{}, errors.PeriodError(errors.CodeUnparseablePeriod, value.Text(), nil)
	}
	month := num.IntPart()
	if month < 1 || month > 12 || r.DefaultYear == 0 {
		return Period{}, errors.PeriodError(errors.CodeUnparseablePeriod, value.Text(), nil)
	}
	return r.calendar.PeriodOf(time.Month(month), r.DefaultYear), nil
}

// resolveCalendarDate handles full calendar dates. The bool result reports
// whether the value belongs to this family at all; once it does, later
// families are never consulted even if parsing fails.
func (r *Resolver) resolveCalendarDate(s string) (Period, bool, error) {
	// ISO: YYYY-MM-DD
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return r.calendar.PeriodOfDate(t), true, nil
	}

	// US slash format: MM/DD/YYYY
	if t, err := time.Parse("01/02/2006", s); err == nil {
		return r.calendar.PeriodOfDate(t), true, nil
	}

	// Dashed D-M-Y / M-D-Y: only accepted when a component over 12 makes the
	// reading unambiguous.
	parts := strings.Split(s, "-")
	if len(parts) == 3 && len(parts[2]) == 4 && allDigits(parts[0]) && allDigits(parts[1]) && allDigits(parts[2]) {
		first, _ := strconv.Atoi(parts[0])
		second, _ := strconv.Atoi(parts[1])
		year, _ := strconv.Atoi(parts[2])

		var month, day int
		switch {
		case first > 12 && second <= 12:
			day, month = first, second
		case first <= 12 && second > 12:
			month, day = first, second
		case first <= 12 && second <= 12:
			return Period{}, true, errors.PeriodError(errors.CodeAmbiguousPeriod, s, nil)
		default:
			return Period{}, true, errors.PeriodError(errors.CodeUnparseablePeriod, s, nil)
		}

		if !validDate(year, month, day) {
			return Period{}, true, errors.PeriodError(errors.CodeUnparseablePeriod, s, nil)
		}
		return r.calendar.PeriodOf(time.Month(month), year), true, nil
	}

	return Period{}, false, nil
}

// monthYearLayouts is the documented set of month-year formats
var monthYearLayouts = []string{
	"January 2006",
	"Jan 2006",
	"January-2006",
	"Jan-2006",
	"Jan-06",
	"2006-01",
}

func (r *Resolver) resolveMonthYear(s string) (Period, bool) {
	candidate := capitalizeMonth(s)
	for _, layout := range monthYearLayouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			return r.calendar.PeriodOfDate(t), true
		}
	}
	return Period{}, false
}

// capitalizeMonth upper-cases the leading letter so "august 2025" parses
// against Go's month-name layouts.
func capitalizeMonth(s string) string {
	runes := []rune(s)
	if len(runes) > 0 && unicode.IsLetter(runes[0]) {
		runes[0] = unicode.ToUpper(runes[0])
		for i := 1; i < len(runes) && unicode.IsLetter(runes[i]); i++ {
			runes[i] = unicode.ToLower(runes[i])
		}
	}
	return string(runes)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}
