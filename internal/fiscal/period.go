// Package fiscal provides fiscal period identifiers, the calendar-to-fiscal
// transform, and the resolver that normalizes heterogeneous date and period
// representations into canonical FY<yy>-Q<n> periods.
package fiscal

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang-forecast-engine/pkg/errors"
)

// Period is a canonical fiscal period. Year is the full fiscal year label
// (2026 for FY26), Quarter is 1-4. Ordering is defined on the numeric pair,
// never on the string form.
type Period struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
}

// IsZero reports whether the period is the zero value
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Quarter == 0
}

// String returns the canonical FY<yy>-Q<n> identifier
func (p Period) String() string {
	return fmt.Sprintf("FY%02d-Q%d", p.Year%100, p.Quarter)
}

// Compare returns -1, 0, or 1 ordering p against other by (year, quarter)
func (p Period) Compare(other Period) int {
	if p.Year != other.Year {
		if p.Year < other.Year {
			return -1
		}
		return 1
	}
	if p.Quarter != other.Quarter {
		if p.Quarter < other.Quarter {
			return -1
		}
		return 1
	}
	return 0
}

// Before reports whether p is chronologically before other
func (p Period) Before(other Period) bool {
	return p.Compare(other) < 0
}

// After reports whether p is chronologically after other
func (p Period) After(other Period) bool {
	return p.Compare(other) > 0
}

// Next returns the period immediately following p
func (p Period) Next() Period {
	if p.Quarter < 4 {
		return Period{Year: p.Year, Quarter: p.Quarter + 1}
	}
	return Period{Year: p.Year + 1, Quarter: 1}
}

// MarshalJSON renders the period as its canonical string
func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON parses the canonical string form
func (p *Period) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// fyPattern matches explicit fiscal-period strings: FY<digits>[-_ ]Q<1-4>,
// case-insensitive, separator optional.
var fyPattern = regexp.MustCompile(`^(?i)fy(\d{2}|\d{4})[-_ ]?q([1-4])$`)

// ParsePeriod parses an explicit fiscal-period string like "FY26-Q2".
// Two-digit years are taken as 2000-based; four-digit years are used as-is.
func ParsePeriod(s string) (Period, error) {
	m := fyPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Period{}, errors.PeriodError(errors.CodeUnparseablePeriod, s, nil)
	}

	year, err := strconv.Atoi(m[1])
	if err != nil {
		return Period{}, errors.PeriodError(errors.CodeUnparseablePeriod, s, err)
	}
	if year < 100 {
		year += 2000
	}

	quarter, err := strconv.Atoi(m[2])
	if err != nil {
		return Period{}, errors.PeriodError(errors.CodeUnparseablePeriod, s, err)
	}

	return Period{Year: year, Quarter: quarter}, nil
}

// EnumerateRange returns every period in the closed range [from, to] in
// chronological order. An inverted range yields nil.
func EnumerateRange(from, to Period) []Period {
	if from.After(to) {
		return nil
	}
	var periods []Period
	for p := from; !p.After(to); p = p.Next() {
		periods = append(periods, p)
	}
	return periods
}
