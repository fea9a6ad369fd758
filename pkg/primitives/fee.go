package primitives

// BaseFeeLamports is the fixed component of the withdraw fee (0.0025 SOL).
const BaseFeeLamports uint64 = 2_500_000

// FeeBpsNumerator / FeeBpsDenominator express the 0.5% variable
// component of the withdraw fee as an integer ratio, matching the
// reference implementation's `amount * 5 / 1000` (5/1000 = 0.5%).
const (
	FeeBpsNumerator   = 5
	FeeBpsDenominator = 1000
)

// Fee computes F(amount) = 2_500_000 + amount*5/1000, the fixed
// withdraw fee schedule. Integer division truncates, matching the
// reference implementation.
func Fee(amount uint64) uint64 {
	return BaseFeeLamports + (amount*FeeBpsNumerator)/FeeBpsDenominator
}

// MaxFeeShareBps is the ceiling on scramble-registry.fee_share_bps.
const MaxFeeShareBps = 5000

// MinerShare computes the miner's cut of a withdraw fee, using integer
// division; the treasury receives the remainder, never the other way
// around.
func MinerShare(fee uint64, feeShareBps uint16) uint64 {
	return fee * uint64(feeShareBps) / 10_000
}
