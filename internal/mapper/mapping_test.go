package mapper

import (
	"encoding/json"
	"testing"

	"golang-forecast-engine/internal/schema"
	"golang-forecast-engine/pkg/errors"
)

func TestNewMappingRejectsDuplicateTarget(t *testing.T) {
	_, err := NewMapping([]Entry{
		{SourceColumn: "Period", TargetField: schema.FieldMasterPeriod, Confidence: 100, Tier: TierExact},
		{SourceColumn: "Fiscal Period", TargetField: schema.FieldMasterPeriod, Confidence: 100, Tier: TierExact},
	})
	if !errors.IsCode(err, errors.CodeDuplicateTarget) {
		t.Errorf("Expected duplicate_target error, got %v", err)
	}
}

func TestMappingLookups(t *testing.T) {
	mapping, err := NewMapping([]Entry{
		{SourceColumn: "Period", TargetField: schema.FieldMasterPeriod, Confidence: 100, Tier: TierExact},
		{SourceColumn: "Amount", TargetField: schema.FieldRevenueTCV, Confidence: 70, Tier: TierPartial},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if target, ok := mapping.TargetOf("Period"); !ok || target != schema.FieldMasterPeriod {
		t.Errorf("TargetOf(Period) = %s, %v", target, ok)
	}
	if source, ok := mapping.SourceOf(schema.FieldRevenueTCV); !ok || source != "Amount" {
		t.Errorf("SourceOf(revenue_tcv_usd) = %s, %v", source, ok)
	}
	if _, ok := mapping.TargetOf("Unmapped"); ok {
		t.Error("Expected lookup of unmapped column to fail")
	}
}

func TestMappingValidate(t *testing.T) {
	required := []schema.FieldID{schema.FieldMasterPeriod, schema.FieldRevenueTCV}

	complete, _ := NewMapping([]Entry{
		{SourceColumn: "Period", TargetField: schema.FieldMasterPeriod, Confidence: 100, Tier: TierExact},
		{SourceColumn: "TCV", TargetField: schema.FieldRevenueTCV, Confidence: 100, Tier: TierExact},
	})
	if err := complete.Validate(required); err != nil {
		t.Errorf("Expected complete mapping to validate, got %v", err)
	}

	incomplete, _ := NewMapping([]Entry{
		{SourceColumn: "Period", TargetField: schema.FieldMasterPeriod, Confidence: 100, Tier: TierExact},
	})
	err := incomplete.Validate(required)
	if !errors.IsCode(err, errors.CodeMappingIncomplete) {
		t.Errorf("Expected mapping_incomplete error, got %v", err)
	}

	missing := incomplete.MissingRequired(required)
	if len(missing) != 1 || missing[0] != schema.FieldRevenueTCV {
		t.Errorf("Expected revenue_tcv_usd missing, got %v", missing)
	}
}

func TestMappingJSONRoundTrip(t *testing.T) {
	original, _ := NewMapping([]Entry{
		{SourceColumn: "Period", TargetField: schema.FieldMasterPeriod, Confidence: 100, Tier: TierExact},
		{SourceColumn: "deal_value", TargetField: schema.FieldRevenueTCV, Confidence: 70, Tier: TierPartial},
	})

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var back Mapping
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(back.Entries()) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(back.Entries()))
	}
	for i, e := range back.Entries() {
		if e != original.Entries()[i] {
			t.Errorf("Entry %d mismatch: %+v vs %+v", i, e, original.Entries()[i])
		}
	}
	if target, ok := back.TargetOf("deal_value"); !ok || target != schema.FieldRevenueTCV {
		t.Error("Expected indexes to be rebuilt after unmarshal")
	}
}

func TestTierJSON(t *testing.T) {
	data, err := json.Marshal(TierNormalized)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"NORMALIZED"` {
		t.Errorf("Expected NORMALIZED, got %s", data)
	}

	var tier Tier
	if err := json.Unmarshal([]byte(`"SUFFIX"`), &tier); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if tier != TierSuffix {
		t.Errorf("Expected SUFFIX, got %s", tier)
	}

	if err := json.Unmarshal([]byte(`"BOGUS"`), &tier); err == nil {
		t.Error("Expected unknown tier name to fail")
	}
}
