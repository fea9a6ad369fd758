package scramble

import "github.com/holiman/uint256"

// maybeRetarget adjusts CurrentDifficulty toward keeping solutions
// arriving at the target interval. Called under r.mu from any write
// path. Policy is time-based: a retarget triggers whenever at least
// target_interval_slots have elapsed since the last one, regardless of
// how many writes happened in between.
func (r *Registry) maybeRetarget(currentSlot uint64) {
	if r.TargetIntervalSlots == 0 || currentSlot-r.LastRetargetSlot < r.TargetIntervalSlots {
		return
	}

	expected := (currentSlot - r.LastRetargetSlot) / r.TargetIntervalSlots
	if expected == 0 {
		expected = 1
	}

	cur := new(uint256.Int).SetBytes(r.CurrentDifficulty[:])
	observed := new(uint256.Int).SetUint64(r.SolutionsObserved)
	divisor := new(uint256.Int).SetUint64(expected)

	minT := new(uint256.Int).SetBytes(r.MinDifficulty[:])
	maxT := new(uint256.Int).SetBytes(r.MaxDifficulty[:])

	numerator, overflow := new(uint256.Int).MulOverflow(cur, observed)
	var next *uint256.Int
	if overflow {
		next = maxT
	} else {
		next = numerator.Div(numerator, divisor)
	}

	if !maxT.IsZero() && next.Gt(maxT) {
		next = maxT
	}
	if next.Lt(minT) {
		next = minT
	}

	r.CurrentDifficulty = Hash32(next.Bytes32())
	r.LastRetargetSlot = currentSlot
	r.SolutionsObserved = 0
}
