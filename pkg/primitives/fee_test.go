package primitives

import "testing"

func TestFeeConservation(t *testing.T) {
	amounts := []uint64{0, 1, 1000, 1_000_000_000, 1 << 40}
	for _, amount := range amounts {
		fee := Fee(amount)
		if want := BaseFeeLamports + (amount*FeeBpsNumerator)/FeeBpsDenominator; fee != want {
			t.Fatalf("Fee(%d) = %d, want %d", amount, fee, want)
		}
		if amount >= fee {
			if amount-fee > amount {
				t.Fatalf("Fee(%d) overflowed: amount-fee=%d", amount, amount-fee)
			}
		}
	}
}

func TestMinerShareRoundsDownToTreasury(t *testing.T) {
	fee := uint64(7_500_000)
	share := MinerShare(fee, 1000) // 10%
	if share != 750_000 {
		t.Fatalf("MinerShare = %d, want 750_000", share)
	}

	// An odd fee with a share that does not divide evenly: the
	// fractional lamport must be dropped (go to treasury), not rounded
	// up to the miner.
	oddFee := uint64(7)
	oddShare := MinerShare(oddFee, 3333) // 33.33%
	if oddShare != 2 {
		t.Fatalf("MinerShare(7, 3333bps) = %d, want 2 (floor of 2.3331)", oddShare)
	}
	remainder := oddFee - oddShare
	if remainder != 5 {
		t.Fatalf("treasury remainder = %d, want 5", remainder)
	}
}
