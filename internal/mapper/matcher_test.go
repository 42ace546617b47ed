package mapper

import (
	"math/rand"
	"testing"

	"golang-forecast-engine/internal/schema"
)

func newTestMatcher() *Matcher {
	return NewMatcher(schema.DefaultRegistry())
}

func entryFor(t *testing.T, m *Mapping, source string) Entry {
	t.Helper()
	for _, e := range m.Entries() {
		if e.SourceColumn == source {
			return e
		}
	}
	t.Fatalf("Expected column %q to be mapped, entries: %v", source, m.Entries())
	return Entry{}
}

func TestExactMatch(t *testing.T) {
	matcher := newTestMatcher()

	mapping := matcher.AutoMap([]string{"Master Period"})

	e := entryFor(t, mapping, "Master Period")
	if e.TargetField != schema.FieldMasterPeriod {
		t.Errorf("Expected master_period, got %s", e.TargetField)
	}
	if e.Confidence != 100 || e.Tier != TierExact {
		t.Errorf("Expected confidence 100 tier EXACT, got %d %s", e.Confidence, e.Tier)
	}
}

func TestExactMatchIgnoresCaseAndPadding(t *testing.T) {
	matcher := newTestMatcher()

	for _, header := range []string{"  Master Period  ", "MASTER PERIOD", "master period"} {
		mapping := matcher.AutoMap([]string{header})
		e := entryFor(t, mapping, header)
		if e.Tier != TierExact || e.Confidence != 100 {
			t.Errorf("Header %q: expected EXACT/100, got %s/%d", header, e.Tier, e.Confidence)
		}
	}
}

func TestNormalizedMatch(t *testing.T) {
	matcher := newTestMatcher()

	for _, header := range []string{"master_period", "MASTERPERIOD", "master__period"} {
		mapping := matcher.AutoMap([]string{header})
		e := entryFor(t, mapping, header)
		if e.TargetField != schema.FieldMasterPeriod {
			t.Errorf("Header %q: expected master_period, got %s", header, e.TargetField)
		}
		if e.Confidence != 95 || e.Tier != TierNormalized {
			t.Errorf("Header %q: expected NORMALIZED/95, got %s/%d", header, e.Tier, e.Confidence)
		}
	}
}

func TestTierScores(t *testing.T) {
	matcher := newTestMatcher()

	tests := []struct {
		header     string
		target     schema.FieldID
		tier       Tier
		confidence int
	}{
		{"Opportunity ID", schema.FieldOpportunityID, TierExact, 100},
		{"opp_id", schema.FieldOpportunityID, TierNormalized, 95},
		{"Margin Adjusted", schema.FieldMargin, TierPrefix, 90},
		{"Adjusted Margin", schema.FieldMargin, TierSuffix, 85},
		{"Net Margin Total", schema.FieldMargin, TierContains, 80},
		{"iyrbreakdown", schema.FieldIYR, TierPartial, 70},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			mapping := matcher.AutoMap([]string{tt.header})
			e := entryFor(t, mapping, tt.header)
			if e.TargetField != tt.target {
				t.Errorf("Expected target %s, got %s", tt.target, e.TargetField)
			}
			if e.Tier != tt.tier || e.Confidence != tt.confidence {
				t.Errorf("Expected %s/%d, got %s/%d", tt.tier, tt.confidence, e.Tier, e.Confidence)
			}
		})
	}
}

func TestUnmatchedColumnIsAbsent(t *testing.T) {
	matcher := newTestMatcher()

	mapping := matcher.AutoMap([]string{"xyz123", "Account Name"})

	if _, ok := mapping.TargetOf("xyz123"); ok {
		t.Error("Expected nonsense header to stay unmapped")
	}
	if _, ok := mapping.TargetOf("Account Name"); !ok {
		t.Error("Expected valid header to be mapped")
	}
}

func TestContestedTargetGoesToHigherScore(t *testing.T) {
	matcher := newTestMatcher()

	// "quarter" is a NORMALIZED keyword hit (95); "Master Period" is EXACT
	// (100). The exact match must win the target even listed second.
	mapping := matcher.AutoMap([]string{"quarter", "Master Period"})

	e := entryFor(t, mapping, "Master Period")
	if e.TargetField != schema.FieldMasterPeriod || e.Tier != TierExact {
		t.Fatalf("Expected exact match to win master_period, got %v", mapping.Entries())
	}
	if target, ok := mapping.TargetOf("quarter"); ok && target == schema.FieldMasterPeriod {
		t.Error("Expected weaker claimant to lose the contested target")
	}
}

func TestContestedTieGoesToEarliestColumn(t *testing.T) {
	matcher := newTestMatcher()

	// Both headers are EXACT aliases for sales_stage.
	mapping := matcher.AutoMap([]string{"Sales Stage", "Stage"})

	e := entryFor(t, mapping, "Sales Stage")
	if e.TargetField != schema.FieldSalesStage {
		t.Fatalf("Expected earliest column to keep the target on a tie, got %v", mapping.Entries())
	}
	if target, ok := mapping.TargetOf("Stage"); ok && target == schema.FieldSalesStage {
		t.Error("Expected the later tied column to fall back")
	}
}

func TestLoserFallsBackToNextBestTarget(t *testing.T) {
	matcher := newTestMatcher()

	// "Opportunity Name" takes opportunity_name exactly; "opportunity" alone
	// would also prefer opportunity_name (keyword) but must fall back to its
	// next-best unclaimed candidate rather than vanish.
	mapping := matcher.AutoMap([]string{"Opportunity Name", "opportunity"})

	e := entryFor(t, mapping, "Opportunity Name")
	if e.TargetField != schema.FieldOpportunityName || e.Tier != TierExact {
		t.Fatalf("Expected exact claim on opportunity_name, got %v", mapping.Entries())
	}

	if target, ok := mapping.TargetOf("opportunity"); ok {
		if target == schema.FieldOpportunityName {
			t.Error("Expected fallback away from the claimed target")
		}
	}
}

func TestNoDuplicateTargetsUnderPermutations(t *testing.T) {
	matcher := newTestMatcher()

	headers := []string{
		"Account Name", "Opportunity ID", "Opportunity Name", "Master Period",
		"Close Date", "Industry Vertical", "Product Name", "Revenue TCV USD",
		"IYR USD", "Margin USD", "Sales Stage",
		"period", "revenue", "stage", "random junk", "totally unrelated",
	}

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		shuffled := append([]string(nil), headers...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		mapping := matcher.AutoMap(shuffled)

		seen := map[schema.FieldID]string{}
		for _, e := range mapping.Entries() {
			if prev, dup := seen[e.TargetField]; dup {
				t.Fatalf("Trial %d: target %s assigned to both %q and %q",
					trial, e.TargetField, prev, e.SourceColumn)
			}
			seen[e.TargetField] = e.SourceColumn
		}
	}
}

func TestAutoMapIsDeterministic(t *testing.T) {
	matcher := newTestMatcher()
	headers := []string{"period", "fiscal quarter", "Master Period", "revenue", "tcv"}

	first := matcher.AutoMap(headers)
	second := matcher.AutoMap(headers)

	a, b := first.Entries(), second.Entries()
	if len(a) != len(b) {
		t.Fatalf("Non-deterministic entry count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Entry %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestFullSchemaHeadersAllMap(t *testing.T) {
	matcher := newTestMatcher()

	headers := []string{
		"Account Name", "Opportunity ID", "Opportunity Name", "Master Period",
		"Close Date", "Industry Vertical", "Product Name", "Revenue TCV USD",
		"IYR USD", "Margin USD", "Sales Stage",
	}

	mapping := matcher.AutoMap(headers)

	if len(mapping.Entries()) != len(headers) {
		t.Fatalf("Expected all %d headers mapped, got %d: %v",
			len(headers), len(mapping.Entries()), mapping.Entries())
	}
	for _, e := range mapping.Entries() {
		if e.Tier != TierExact {
			t.Errorf("Header %q: expected EXACT, got %s", e.SourceColumn, e.Tier)
		}
	}
}
