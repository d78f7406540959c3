package mongo

import (
	"slices"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_RequiredFieldsMatchModels(t *testing.T) {
	wantRequired := map[string][]string{
		"users":              {"line_id", "points"},
		"classes":            {"capacity", "booked_count", "starts_at"},
		"bookings":           {"user_id", "class_id", "status"},
		"bookingClaims":      {"booking_id"},
		"pointsTransactions": {"user_id", "balance_after"},
	}

	collections := Collections()
	if len(collections) != len(wantRequired) {
		t.Fatalf("expected %d collections, got %d", len(wantRequired), len(collections))
	}

	for name, fields := range wantRequired {
		def, ok := collections[name]
		if !ok {
			t.Errorf("missing collection %s", name)
			continue
		}
		if len(def.Indexes) == 0 {
			t.Errorf("%s has no indexes", name)
		}
		schema := def.Validator["$jsonSchema"].(bson.M)
		required := schema["required"].([]string)
		for _, field := range fields {
			if !slices.Contains(required, field) {
				t.Errorf("%s: %s should be required", name, field)
			}
		}
	}
}
