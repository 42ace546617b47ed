// Package pivot implements the fiscal-period aggregation engine: it resolves
// each record's period, sums the requested measures, and pivots them into a
// dense quarter-by-dimension report with a derived total column.
//
// A run is one atomic unit of work. It either completes and returns a full
// report or fails with a typed error before any output exists; the engine
// holds no cross-invocation state, so concurrent callers need no locking.
package pivot

import (
	"sort"

	"golang-forecast-engine/internal/fiscal"
	"golang-forecast-engine/internal/mapper"
	"golang-forecast-engine/internal/models"
	"golang-forecast-engine/internal/schema"
	"golang-forecast-engine/pkg/errors"
	"golang-forecast-engine/pkg/logger"

	"github.com/shopspring/decimal"
)

// TotalKey is the synthetic row key used when no grouping is requested
const TotalKey = "Total"

// UnknownKey is the row key for records whose grouping value is missing
const UnknownKey = "Unknown"

// Config holds aggregation engine configuration
type Config struct {
	// RequiredFieldIDs are the targets a mapping must cover before any
	// aggregation is attempted. Nil means the registry's required fields.
	RequiredFieldIDs []schema.FieldID
}

// Request describes one aggregation run
type Request struct {
	// GroupBy is the optional grouping dimension; nil produces a single
	// synthetic Total row.
	GroupBy *schema.FieldID
	// Measures are the target fields to sum, each producing its own block
	// of period columns. Must be non-empty.
	Measures []schema.FieldID
	// From and To bound the inclusive fiscal-period range.
	From fiscal.Period
	To   fiscal.Period
}

// MeasureBlock is one measure's full set of period columns plus its total.
// ByPeriod is aligned index-for-index with Report.Periods; Total is derived
// strictly from those cells, never recomputed from raw records.
type MeasureBlock struct {
	Field    schema.FieldID    `json:"field"`
	ByPeriod []decimal.Decimal `json:"by_period"`
	Total    decimal.Decimal   `json:"total"`
}

// Row is one report row keyed by grouping value
type Row struct {
	Key    string         `json:"key"`
	Blocks []MeasureBlock `json:"blocks"`
}

// Tally counts every record the run excluded or coerced; nothing is ever
// dropped without showing up here.
type Tally struct {
	InputRecords  int `json:"input_records"`
	Aggregated    int `json:"aggregated"`
	Unparseable   int `json:"unparseable"`
	Ambiguous     int `json:"ambiguous"`
	OutOfRange    int `json:"out_of_range"`
	// CoercionFailures counts non-numeric measure cells per field; those
	// cells contribute zero to sums but are never merged into valid counts.
	CoercionFailures map[schema.FieldID]int `json:"coercion_failures,omitempty"`
	// RangeAdjusted is set when an inverted range was collapsed to the
	// single from-period instead of failing the run.
	RangeAdjusted bool `json:"range_adjusted,omitempty"`
}

// Excluded returns the total number of records left out of aggregation
func (t Tally) Excluded() int {
	return t.Unparseable + t.Ambiguous + t.OutOfRange
}

// Report is the pivoted output table
type Report struct {
	GroupBy  *schema.FieldID `json:"group_by,omitempty"`
	Periods  []fiscal.Period `json:"periods"`
	Measures []schema.FieldID `json:"measures"`
	Rows     []Row           `json:"rows"`
	Tally    Tally           `json:"tally"`
}

// Engine aggregates mapped record sets into pivoted reports
type Engine struct {
	config   *Config
	registry *schema.Registry
	resolver *fiscal.Resolver
	log      logger.Logger
}

// NewEngine creates an aggregation engine
func NewEngine(registry *schema.Registry, resolver *fiscal.Resolver, config *Config) *Engine {
	if config == nil {
		config = &Config{}
	}
	return &Engine{
		config:   config,
		registry: registry,
		resolver: resolver,
		log:      logger.GetGlobalLogger().WithComponent("pivot_engine"),
	}
}

// Run executes one aggregation pass
func (e *Engine) Run(records []models.Record, mapping *mapper.Mapping, req Request) (*Report, error) {
	if err := e.validateRequest(mapping, req); err != nil {
		return nil, err
	}

	from, to := req.From, req.To
	rangeAdjusted := false
	if from.After(to) {
		// Best effort: collapse an inverted range to the single from-period
		// rather than failing the whole run.
		e.log.WithFields(logger.Fields{
			"from": from.String(),
			"to":   to.String(),
		}).Warn("Inverted period range, using from-period only")
		to = from
		rangeAdjusted = true
	}

	periods := fiscal.EnumerateRange(from, to)
	periodIndex := make(map[fiscal.Period]int, len(periods))
	for i, p := range periods {
		periodIndex[p] = i
	}

	periodColumn := e.periodColumn(mapping)

	var groupColumn string
	if req.GroupBy != nil {
		groupColumn, _ = mapping.SourceOf(*req.GroupBy)
	}

	measureColumns := make([]string, len(req.Measures))
	for i, id := range req.Measures {
		measureColumns[i], _ = mapping.SourceOf(id)
	}

	tally := Tally{
		InputRecords:     len(records),
		RangeAdjusted:    rangeAdjusted,
		CoercionFailures: make(map[schema.FieldID]int),
	}

	// cells[key][m][p] accumulates measure m for period p.
	cells := make(map[string][][]decimal.Decimal)

	for _, record := range records {
		period, err := e.resolver.ResolveWithin(record.Get(periodColumn), from, to)
		if err != nil {
			switch {
			case errors.IsCode(err, errors.CodeAmbiguousPeriod):
				tally.Ambiguous++
			case errors.IsCode(err, errors.CodeOutOfRange):
				tally.OutOfRange++
			default:
				tally.Unparseable++
			}
			continue
		}

		key := TotalKey
		if req.GroupBy != nil {
			if v := record.Get(groupColumn); !v.IsMissing() {
				key = v.Text()
			} else {
				key = UnknownKey
			}
		}

		acc, ok := cells[key]
		if !ok {
			acc = make([][]decimal.Decimal, len(req.Measures))
			for m := range acc {
				acc[m] = make([]decimal.Decimal, len(periods))
			}
			cells[key] = acc
		}

		p := periodIndex[period]
		for m, col := range measureColumns {
			value, ok := record.Get(col).Decimal()
			if !ok {
				// Coerce to zero for summation but count it; never silently
				// merged into valid totals.
				tally.CoercionFailures[req.Measures[m]]++
				continue
			}
			acc[m][p] = acc[m][p].Add(value)
		}
		tally.Aggregated++
	}

	if len(tally.CoercionFailures) == 0 {
		tally.CoercionFailures = nil
	}

	rows := e.buildRows(cells, req.Measures, len(periods))

	report := &Report{
		GroupBy:  req.GroupBy,
		Periods:  periods,
		Measures: req.Measures,
		Rows:     rows,
		Tally:    tally,
	}

	e.log.WithFields(logger.Fields{
		"input":    tally.InputRecords,
		"rows":     len(rows),
		"excluded": tally.Excluded(),
	}).Debug("Aggregation pass complete")

	return report, nil
}

func (e *Engine) validateRequest(mapping *mapper.Mapping, req Request) error {
	if len(req.Measures) == 0 {
		return errors.AggregationError(errors.CodeNoMeasures, "", nil)
	}

	required := e.config.RequiredFieldIDs
	if required == nil {
		required = e.registry.RequiredIDs()
	}
	if err := mapping.Validate(required); err != nil {
		return err
	}

	for _, id := range req.Measures {
		if !e.registry.Has(id) {
			return errors.MappingError(errors.CodeUnknownField, string(id), nil)
		}
		if _, ok := mapping.SourceOf(id); !ok {
			return errors.MappingError(errors.CodeMappingIncomplete, string(id), nil)
		}
	}

	if req.GroupBy != nil {
		if !e.registry.Has(*req.GroupBy) {
			return errors.MappingError(errors.CodeUnknownField, string(*req.GroupBy), nil)
		}
		if _, ok := mapping.SourceOf(*req.GroupBy); !ok {
			return errors.MappingError(errors.CodeMappingIncomplete, string(*req.GroupBy), nil)
		}
	}

	if e.periodColumn(mapping) == "" {
		return errors.MappingError(errors.CodeMappingIncomplete, string(schema.FieldMasterPeriod), nil)
	}

	return nil
}

// periodColumn picks the record's period source: the column mapped to
// master_period, falling back to close_date.
func (e *Engine) periodColumn(mapping *mapper.Mapping) string {
	if col, ok := mapping.SourceOf(schema.FieldMasterPeriod); ok {
		return col
	}
	if col, ok := mapping.SourceOf(schema.FieldCloseDate); ok {
		return col
	}
	return ""
}

// buildRows assembles and orders the report rows: descending total of the
// first measure, ties broken by the grouping value's lexical order.
func (e *Engine) buildRows(cells map[string][][]decimal.Decimal, measures []schema.FieldID, periodCount int) []Row {
	keys := make([]string, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]Row, 0, len(keys))
	for _, key := range keys {
		acc := cells[key]
		blocks := make([]MeasureBlock, len(measures))
		for m, field := range measures {
			byPeriod := make([]decimal.Decimal, periodCount)
			total := decimal.Zero
			for p := 0; p < periodCount; p++ {
				byPeriod[p] = acc[m][p]
				total = total.Add(acc[m][p])
			}
			blocks[m] = MeasureBlock{Field: field, ByPeriod: byPeriod, Total: total}
		}
		rows = append(rows, Row{Key: key, Blocks: blocks})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Blocks[0].Total.GreaterThan(rows[j].Blocks[0].Total)
	})

	return rows
}
