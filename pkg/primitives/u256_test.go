package primitives

import "testing"

func TestU256Lt(t *testing.T) {
	var a, b Hash32
	a[31] = 1
	b[31] = 2
	if !U256Lt(a, b) {
		t.Fatalf("expected a < b")
	}
	if U256Lt(b, a) {
		t.Fatalf("expected !(b < a)")
	}
	if U256Lt(a, a) {
		t.Fatalf("expected !(a < a)")
	}

	// Most-significant byte dominates the comparison.
	var small, big Hash32
	small[0] = 0x01
	small[31] = 0xFF
	big[0] = 0x02
	if !U256Lt(small, big) {
		t.Fatalf("most-significant byte should dominate the comparison")
	}
}

func TestU256LtRejectsEqual(t *testing.T) {
	var target Hash32
	target[0] = 0x00
	target[31] = 0xFF
	hEqual := target
	if U256Lt(hEqual, target) {
		t.Fatalf("h == target must be rejected (strict less-than)")
	}
}
