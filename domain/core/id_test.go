package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 5000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestParseSessionID(t *testing.T) {
	id := NewSessionID()
	parsed, err := ParseSessionID(" " + id.String() + " ")
	if err != nil {
		t.Fatalf("ParseSessionID returned error: %v", err)
	}
	if parsed != id {
		t.Errorf("Expected %s, got %s", id, parsed)
	}

	for _, bad := range []string{"", "   ", "not-a-uuid"} {
		if _, err := ParseSessionID(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestCuboidHash_DimensionOrderInsensitive(t *testing.T) {
	a := NewCuboidHash([]string{"age", "gender"}, []string{"height:sum"})
	b := NewCuboidHash([]string{"gender", "age"}, []string{"height:sum"})
	if a != b {
		t.Errorf("Expected identical hashes for permuted dimensions, got %s vs %s", a, b)
	}

	c := NewCuboidHash([]string{"age", "gender"}, []string{"height:mean"})
	if a == c {
		t.Error("Expected measure ops to change the hash")
	}
}

func TestErrorHelpers(t *testing.T) {
	if !IsNotFoundError(NewFieldNotFoundError("age")) {
		t.Error("field not found error should be a not-found error")
	}
	if !IsEngineFault(ErrNoCuboidData) {
		t.Error("ErrNoCuboidData should be an engine fault")
	}
	if !IsEngineFault(NewEngineFaultError("graph", errors.New("boom"))) {
		t.Error("wrapped engine fault should be detected")
	}
	if IsSuperseded(ErrEngineFault) {
		t.Error("engine fault is not a superseded error")
	}
}
