// Package mapper implements the column auto-mapping engine: a
// confidence-scored matcher that assigns arbitrary, human-authored column
// headers to target schema fields without double-assigning any target.
package mapper

import (
	"encoding/json"

	"golang-forecast-engine/internal/schema"
	"golang-forecast-engine/pkg/errors"
)

// Tier is the matching strategy that produced a mapping entry's confidence
type Tier int

const (
	// TierExact: raw header equals an exact alias, case-insensitively,
	// ignoring only leading/trailing whitespace.
	TierExact Tier = iota
	// TierNormalized: header equals an alias or keyword once separators are
	// removed entirely.
	TierNormalized
	// TierPrefix: header starts with a keyword at a token boundary.
	TierPrefix
	// TierSuffix: header ends with a keyword at a token boundary.
	TierSuffix
	// TierContains: keyword appears as a delimited token inside the header.
	TierContains
	// TierPartial: keyword appears anywhere, no token-boundary requirement.
	TierPartial
)

// String returns the string representation of Tier
func (t Tier) String() string {
	switch t {
	case TierExact:
		return "EXACT"
	case TierNormalized:
		return "NORMALIZED"
	case TierPrefix:
		return "PREFIX"
	case TierSuffix:
		return "SUFFIX"
	case TierContains:
		return "CONTAINS"
	case TierPartial:
		return "PARTIAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders the tier as its name
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses a tier name
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "EXACT":
		*t = TierExact
	case "NORMALIZED":
		*t = TierNormalized
	case "PREFIX":
		*t = TierPrefix
	case "SUFFIX":
		*t = TierSuffix
	case "CONTAINS":
		*t = TierContains
	case "PARTIAL":
		*t = TierPartial
	default:
		return errors.New(errors.CategoryMapping, errors.CodeInvalidData, "unknown match tier: "+s)
	}
	return nil
}

// Confidence returns the 0-100 confidence score for the tier
func (t Tier) Confidence() int {
	switch t {
	case TierExact:
		return 100
	case TierNormalized:
		return 95
	case TierPrefix:
		return 90
	case TierSuffix:
		return 85
	case TierContains:
		return 80
	case TierPartial:
		return 70
	default:
		return 0
	}
}

// Entry is one resolved source-column-to-target-field association
type Entry struct {
	SourceColumn string         `json:"source_column"`
	TargetField  schema.FieldID `json:"target_field"`
	Confidence   int            `json:"confidence"`
	Tier         Tier           `json:"tier"`
}

// Mapping is a full mapping result. Each target field appears in at most one
// entry; a source column may be absent entirely. A mapping is plain data:
// callers may build one by hand (a manually edited mapping) and feed it to
// the aggregation engine, bypassing the matcher.
type Mapping struct {
	entries  []Entry
	bySource map[string]int
	byTarget map[schema.FieldID]int
}

// NewMapping builds a mapping from entries, rejecting double-assigned targets
func NewMapping(entries []Entry) (*Mapping, error) {
	m := &Mapping{
		entries:  entries,
		bySource: make(map[string]int, len(entries)),
		byTarget: make(map[schema.FieldID]int, len(entries)),
	}
	for i, e := range entries {
		if _, exists := m.byTarget[e.TargetField]; exists {
			return nil, errors.MappingError(errors.CodeDuplicateTarget, string(e.TargetField), nil)
		}
		m.byTarget[e.TargetField] = i
		m.bySource[e.SourceColumn] = i
	}
	return m, nil
}

// Entries returns the mapping entries in source-column input order
func (m *Mapping) Entries() []Entry {
	return m.entries
}

// TargetOf returns the target field a source column maps to
func (m *Mapping) TargetOf(sourceColumn string) (schema.FieldID, bool) {
	if i, ok := m.bySource[sourceColumn]; ok {
		return m.entries[i].TargetField, true
	}
	return "", false
}

// SourceOf returns the source column assigned to a target field
func (m *Mapping) SourceOf(target schema.FieldID) (string, bool) {
	if i, ok := m.byTarget[target]; ok {
		return m.entries[i].SourceColumn, true
	}
	return "", false
}

// MissingRequired returns the required field ids with no assigned column
func (m *Mapping) MissingRequired(requiredIDs []schema.FieldID) []schema.FieldID {
	var missing []schema.FieldID
	for _, id := range requiredIDs {
		if _, ok := m.byTarget[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// Validate checks that every required field has an assigned source column.
// A missing required field is the MappingIncomplete condition and must be
// surfaced before aggregation is attempted.
func (m *Mapping) Validate(requiredIDs []schema.FieldID) error {
	missing := m.MissingRequired(requiredIDs)
	if len(missing) == 0 {
		return nil
	}
	err := errors.MappingError(errors.CodeMappingIncomplete, string(missing[0]), nil)
	if len(missing) > 1 {
		err = err.WithContext("also_missing", missing[1:])
	}
	return err
}

// MarshalJSON renders the mapping as its entry list
func (m *Mapping) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Entries []Entry `json:"entries"`
	}{Entries: m.entries})
}

// UnmarshalJSON rebuilds a mapping from its entry list
func (m *Mapping) UnmarshalJSON(data []byte) error {
	var raw struct {
		Entries []Entry `json:"entries"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rebuilt, err := NewMapping(raw.Entries)
	if err != nil {
		return err
	}
	*m = *rebuilt
	return nil
}
