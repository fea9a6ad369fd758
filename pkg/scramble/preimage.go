package scramble

import "github.com/rawblock/cloak-pool/pkg/primitives"

// domain is the 17-byte domain separator prefixed to every PoW
// preimage.
const domain = "CLOAK:SCRAMBLE:v1"

// BuildPreimage assembles the fixed 137-byte PoW preimage:
// domain(17) || slot(8) || slot_hash(32) || miner_pubkey(32) ||
// batch_hash(32) || nonce(16).
func BuildPreimage(slot uint64, slotHash, minerPubkey, batchHash Hash32, nonceLo, nonceHi uint64) []byte {
	out := make([]byte, 0, 137)
	out = append(out, domain...)
	out = append(out, primitives.LE8(slot)...)
	out = append(out, slotHash[:]...)
	out = append(out, minerPubkey[:]...)
	out = append(out, batchHash[:]...)
	out = append(out, primitives.LE16(nonceLo, nonceHi)...)
	return out
}

// ProofHash hashes the preimage built from the given components.
func ProofHash(slot uint64, slotHash, minerPubkey, batchHash Hash32, nonceLo, nonceHi uint64) Hash32 {
	return primitives.H(BuildPreimage(slot, slotHash, minerPubkey, batchHash, nonceLo, nonceHi))
}
