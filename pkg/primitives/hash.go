// Package primitives implements the bit-exact hash preimages, fee
// schedule and Merkle path rules shared by the shield-pool and
// scramble-registry state machines.
package primitives

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"lukechampine.com/blake3"
)

// Hash32 is a 32-byte collision-resistant digest. It is an alias for
// chainhash.Hash so commitments, nullifiers and roots get hex
// (de)serialization and a String() method for free.
type Hash32 = chainhash.Hash

// H is the collision-resistant hash used throughout the system
// (BLAKE3-256 in the reference implementation). Domain separation is
// by field ordering in the preimage; callers choose that ordering.
func H(preimage ...[]byte) Hash32 {
	h := blake3.New(32, nil)
	for _, p := range preimage {
		_, _ = h.Write(p)
	}
	var out Hash32
	copy(out[:], h.Sum(nil))
	return out
}

// LE8 encodes a uint64 as 8 little-endian bytes.
func LE8(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// LE4 encodes a uint32 as 4 little-endian bytes.
func LE4(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// LE16 encodes a u128 nonce (represented as two uint64 halves, lo then
// hi) as 16 little-endian bytes.
func LE16(lo, hi uint64) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b[0:8], lo)
	binary.LittleEndian.PutUint64(b[8:16], hi)
	return b
}

// PkSpend derives the spend public key from a spending key.
func PkSpend(skSpend Hash32) Hash32 {
	return H(skSpend[:])
}

// Commitment computes H(amount_LE8 || r || pk_spend) for a note.
func Commitment(amount uint64, r, skSpend Hash32) Hash32 {
	pk := PkSpend(skSpend)
	return H(LE8(amount), r[:], pk[:])
}

// Nullifier computes H(sk_spend || leaf_index_LE4).
func Nullifier(skSpend Hash32, leafIndex uint32) Hash32 {
	return H(skSpend[:], LE4(leafIndex))
}

// OutputsHashSingle computes the single-recipient outputs_hash:
// H(recipient_addr32 || amount_LE8).
func OutputsHashSingle(recipient Hash32, amount uint64) Hash32 {
	return H(recipient[:], LE8(amount))
}

// OutputsHashSwap computes the swap-withdraw outputs_hash:
// H(output_mint32 || recipient_ata32 || min_output_amount_LE8 || public_amount_LE8).
func OutputsHashSwap(outputMint, recipientATA Hash32, minOutputAmount, publicAmount uint64) Hash32 {
	return H(outputMint[:], recipientATA[:], LE8(minOutputAmount), LE8(publicAmount))
}
