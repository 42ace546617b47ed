package schema

import "testing"

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	if len(r.Fields()) != 11 {
		t.Errorf("Expected 11 target fields, got %d", len(r.Fields()))
	}

	required := r.RequiredIDs()
	if len(required) != 2 {
		t.Fatalf("Expected 2 required fields, got %d", len(required))
	}

	requiredSet := map[FieldID]bool{}
	for _, id := range required {
		requiredSet[id] = true
	}
	if !requiredSet[FieldMasterPeriod] || !requiredSet[FieldRevenueTCV] {
		t.Errorf("Expected master_period and revenue_tcv_usd to be required, got %v", required)
	}
}

func TestRegistryLookup(t *testing.T) {
	r := DefaultRegistry()

	field, ok := r.Field(FieldRevenueTCV)
	if !ok {
		t.Fatal("Expected revenue_tcv_usd to be defined")
	}
	if field.DisplayName != "Revenue TCV USD" {
		t.Errorf("Unexpected display name: %s", field.DisplayName)
	}
	if len(field.ExactAliases) == 0 || len(field.Keywords) == 0 {
		t.Error("Expected aliases and keywords to be populated")
	}

	if _, ok := r.Field("bogus_field"); ok {
		t.Error("Expected lookup of an undefined field to fail")
	}
	if r.Has("bogus_field") {
		t.Error("Expected Has to reject an undefined field")
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]TargetField{
		{ID: "a", DisplayName: "A"},
		{ID: "a", DisplayName: "A again"},
	})
	if err == nil {
		t.Error("Expected duplicate field ids to be rejected")
	}
}

func TestFieldOrderIsStable(t *testing.T) {
	a := DefaultRegistry().Fields()
	b := DefaultRegistry().Fields()

	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("Field order differs at index %d: %s vs %s", i, a[i].ID, b[i].ID)
		}
	}
}
