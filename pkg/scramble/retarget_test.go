package scramble

import "testing"

func TestMaybeRetargetScalesByObservedVersusExpected(t *testing.T) {
	r := NewRegistry(RegistryConfig{
		Admin:               hashOf(0xAA),
		CurrentDifficulty:   hashOf(0x80), // 0x8080...80
		TargetIntervalSlots: 100,
		MinDifficulty:       hashOf(0x01),
		MaxDifficulty:       hashOf(0xFF),
	})
	r.SolutionsObserved = 4 // more solutions than expected (1) => difficulty rises
	r.LastRetargetSlot = 0

	r.maybeRetarget(100)

	if r.LastRetargetSlot != 100 {
		t.Fatalf("expected last_retarget_slot updated to 100, got %d", r.LastRetargetSlot)
	}
	if r.SolutionsObserved != 0 {
		t.Fatalf("expected solutions_observed reset to 0, got %d", r.SolutionsObserved)
	}
	// observed(4)/expected(1) == 4x scaling: new difficulty should be
	// roughly 4x the old one (clamped to MaxDifficulty if it overflows).
	if r.CurrentDifficulty == hashOf(0x80) {
		t.Fatalf("expected difficulty to change after retarget")
	}
}

func TestMaybeRetargetDoesNothingBeforeInterval(t *testing.T) {
	r := NewRegistry(RegistryConfig{
		Admin:               hashOf(0xAA),
		CurrentDifficulty:   hashOf(0x80),
		TargetIntervalSlots: 100,
		MinDifficulty:       hashOf(0x01),
		MaxDifficulty:       hashOf(0xFF),
	})
	r.SolutionsObserved = 4
	r.LastRetargetSlot = 0

	r.maybeRetarget(50)

	if r.LastRetargetSlot != 0 {
		t.Fatalf("expected no retarget before the interval elapses")
	}
	if r.SolutionsObserved != 4 {
		t.Fatalf("expected solutions_observed untouched")
	}
}

func TestMaybeRetargetClampsToMaxDifficulty(t *testing.T) {
	r := NewRegistry(RegistryConfig{
		Admin:               hashOf(0xAA),
		CurrentDifficulty:   hashOf(0xFF),
		TargetIntervalSlots: 10,
		MinDifficulty:       hashOf(0x01),
		MaxDifficulty:       hashOf(0xFE),
	})
	r.SolutionsObserved = 100 // wildly more solutions than expected => would overflow
	r.LastRetargetSlot = 0

	r.maybeRetarget(10)

	if r.CurrentDifficulty != hashOf(0xFE) {
		t.Fatalf("expected difficulty clamped to max 0xFE..FE, got %x", r.CurrentDifficulty)
	}
}
