package validate

import (
	"math"
	"sort"

	"golang-forecast-engine/internal/models"
	"golang-forecast-engine/pkg/errors"

	"github.com/shopspring/decimal"
)

// FixID names one of the fixed set of auto-appliable corrections
type FixID string

const (
	// FixNumericCoercion rewrites a column's values as numbers, forcing
	// unreadable cells to zero.
	FixNumericCoercion FixID = "numeric_coercion"
	// FixClipOutliers clamps values beyond the interquartile fences onto
	// the nearest fence.
	FixClipOutliers FixID = "clip_outliers"
	// FixFillMissing fills absent cells: zero for numeric columns,
	// "Unknown" for textual ones.
	FixFillMissing FixID = "fill_missing"
	// FixPercentToDecimal rescales a 0-100 percent column onto the 0-1
	// scale.
	FixPercentToDecimal FixID = "percent_to_decimal"
)

// KnownFixes lists every applicable fix id
func KnownFixes() []FixID {
	return []FixID{FixNumericCoercion, FixClipOutliers, FixFillMissing, FixPercentToDecimal}
}

// ApplyFix derives a corrected copy of the record set by applying one named
// fix to one column. It returns the new records and the number of cells
// changed; the input records are never mutated.
func ApplyFix(records []models.Record, fix FixID, column string, config *Config) ([]models.Record, int, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if column == "" {
		return nil, 0, errors.ValidationError(errors.CodeMissingField, "column", nil, nil)
	}

	fixed := models.CloneRecords(records)

	switch fix {
	case FixNumericCoercion:
		return fixed, applyNumericCoercion(fixed, column), nil
	case FixClipOutliers:
		return fixed, applyClipOutliers(fixed, column, config.multiplier()), nil
	case FixFillMissing:
		return fixed, applyFillMissing(fixed, column), nil
	case FixPercentToDecimal:
		return fixed, applyPercentToDecimal(fixed, column), nil
	default:
		return nil, 0, errors.ValidationError(errors.CodeUnknownFix, column, string(fix), nil)
	}
}

func applyNumericCoercion(records []models.Record, column string) int {
	changed := 0
	for _, record := range records {
		value := record.Get(column)
		if value.IsMissing() {
			continue
		}
		d, ok := value.Decimal()
		if !ok {
			record[column] = models.Number(decimal.Zero)
			changed++
			continue
		}
		if value.Kind != models.KindNumber {
			record[column] = models.Number(d)
		}
	}
	return changed
}

func applyClipOutliers(records []models.Record, column string, multiplier decimal.Decimal) int {
	values := columnDecimals(records, column)
	if len(values) < outlierMinRows {
		return 0
	}
	lower, upper := iqrFences(values, multiplier)

	changed := 0
	for _, record := range records {
		d, ok := record.Get(column).Decimal()
		if !ok {
			continue
		}
		switch {
		case d.LessThan(lower):
			record[column] = models.Number(lower)
			changed++
		case d.GreaterThan(upper):
			record[column] = models.Number(upper)
			changed++
		}
	}
	return changed
}

func applyFillMissing(records []models.Record, column string) int {
	fill := models.String("Unknown")
	if columnIsNumeric(records, column) {
		fill = models.Number(decimal.Zero)
	}

	changed := 0
	for _, record := range records {
		if record.Get(column).IsMissing() {
			record[column] = fill
			changed++
		}
	}
	return changed
}

func applyPercentToDecimal(records []models.Record, column string) int {
	hundred := decimal.NewFromInt(100)
	changed := 0
	for _, record := range records {
		if d, ok := record.Get(column).Decimal(); ok {
			record[column] = models.Number(d.Div(hundred))
			changed++
		}
	}
	return changed
}

// columnIsNumeric reports whether every present value in the column coerces
// to a number, with at least one present value.
func columnIsNumeric(records []models.Record, column string) bool {
	present := 0
	for _, record := range records {
		value := record.Get(column)
		if value.IsMissing() {
			continue
		}
		present++
		if _, ok := value.Decimal(); !ok {
			return false
		}
	}
	return present > 0
}

// iqrFences returns the lower and upper outlier fences
// (Q1 - multiplier*IQR, Q3 + multiplier*IQR) for the given values.
func iqrFences(values []decimal.Decimal, multiplier decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3.Sub(q1)
	margin := iqr.Mul(multiplier)
	return q1.Sub(margin), q3.Add(margin)
}

// quantile computes the q-th quantile of sorted values using linear
// interpolation between the two nearest ranks.
func quantile(sorted []decimal.Decimal, q float64) decimal.Decimal {
	if len(sorted) == 0 {
		return decimal.Zero
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}

	frac := decimal.NewFromFloat(pos - float64(lo))
	return sorted[lo].Add(sorted[hi].Sub(sorted[lo]).Mul(frac))
}
