package instructorRepo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestSetupDayFiltersGuardAgainstDuplicateDays(t *testing.T) {
	replace, add := setupDayFilters("instr-1", "schedule", "2026-09-14")

	if replace["id"] != "instr-1" || add["id"] != "instr-1" {
		t.Fatalf("filters must address the instructor: %v / %v", replace, add)
	}

	// The replace path targets the existing entry for the date.
	em, ok := replace["schedule"].(bson.M)["$elemMatch"].(bson.M)
	if !ok || em["date"] != "2026-09-14" {
		t.Fatalf("replace filter does not match the day entry: %v", replace)
	}

	// The append path must only match while no entry for the date exists,
	// otherwise two concurrent setups push duplicate days.
	not, ok := add["schedule"].(bson.M)["$not"].(bson.M)
	if !ok {
		t.Fatalf("append filter is not guarded: %v", add)
	}
	guard, ok := not["$elemMatch"].(bson.M)
	if !ok || guard["date"] != "2026-09-14" {
		t.Fatalf("append guard does not exclude the date: %v", add)
	}
}
