package primitives

// U256Lt reports whether a < b, treating both as unsigned 256-bit
// big-endian integers (byte index 0 is most significant). This is the
// exact comparison used to gate a PoW solution against the current
// difficulty target.
func U256Lt(a, b Hash32) bool {
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// U256Lte reports whether a <= b under the same big-endian ordering.
func U256Lte(a, b Hash32) bool {
	return a == b || U256Lt(a, b)
}
