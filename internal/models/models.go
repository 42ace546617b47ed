// Package models defines the record and scalar value types shared by the
// mapping, aggregation, and validation engines.
//
// A Record is one row of an uploaded table: an association from source column
// name to a raw scalar. Records are immutable once read; every engine derives
// new values instead of mutating its input.
package models

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ValueKind discriminates the scalar variants a cell can hold
type ValueKind int

const (
	// KindMissing represents an absent or null cell
	KindMissing ValueKind = iota
	// KindString represents a textual cell
	KindString
	// KindNumber represents a numeric cell
	KindNumber
)

// String returns the string representation of ValueKind
func (k ValueKind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "unknown"
	}
}

// Value is a raw scalar cell taken verbatim from a source record
type Value struct {
	Kind ValueKind
	Str  string
	Num  decimal.Decimal
}

// Missing returns the missing Value
func Missing() Value {
	return Value{Kind: KindMissing}
}

// String creates a textual Value
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// Number creates a numeric Value
func Number(d decimal.Decimal) Value {
	return Value{Kind: KindNumber, Num: d}
}

// NumberFromFloat creates a numeric Value from a float64
func NumberFromFloat(f float64) Value {
	return Value{Kind: KindNumber, Num: decimal.NewFromFloat(f)}
}

// IsMissing reports whether the value is absent or blank text
func (v Value) IsMissing() bool {
	if v.Kind == KindMissing {
		return true
	}
	return v.Kind == KindString && strings.TrimSpace(v.Str) == ""
}

// Text returns the textual form of the value
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num.String()
	default:
		return ""
	}
}

// Decimal coerces the value to a decimal number. The bool result reports
// whether the coercion succeeded; missing and non-numeric text both fail.
// Common finance-export decorations (currency symbol, thousands separators,
// surrounding whitespace, a trailing percent sign) are stripped before parsing.
func (v Value) Decimal() (decimal.Decimal, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return decimal.Zero, false
		}
		s = strings.TrimPrefix(s, "$")
		s = strings.TrimSuffix(s, "%")
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimSpace(s)
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// Equal compares two values for exact equality
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == other.Str
	case KindNumber:
		return v.Num.Equal(other.Num)
	default:
		return true
	}
}

// Record is one row of the source table: source column name to raw scalar
type Record map[string]Value

// Get returns the value for a column, or the missing value if absent
func (r Record) Get(column string) Value {
	if v, ok := r[column]; ok {
		return v
	}
	return Missing()
}

// Clone returns a copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Columns returns the record's column names in sorted order
func (r Record) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Equal compares two records column-wise, used for duplicate detection
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for k, v := range r {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// CloneRecords returns a deep copy of a record set. Fix application works on
// copies so the caller's records are never mutated.
func CloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
