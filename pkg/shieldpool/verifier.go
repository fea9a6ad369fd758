package shieldpool

// ProofVerifier is the pluggable zero-knowledge proving-system
// boundary. The circuit itself is out of scope; the program only
// checks that a given proof byte string verifies against a
// verifying-key hash for a given public-input layout.
type ProofVerifier interface {
	Verify(proofBytes []byte, publicInputs []byte, vkeyHash [32]byte) error
}

// VerifierFunc adapts a function to ProofVerifier.
type VerifierFunc func(proofBytes []byte, publicInputs []byte, vkeyHash [32]byte) error

func (f VerifierFunc) Verify(proofBytes []byte, publicInputs []byte, vkeyHash [32]byte) error {
	return f(proofBytes, publicInputs, vkeyHash)
}

// WithdrawVkeyHash identifies the verifying key for the withdraw
// circuit. It is the all-zero value here; nothing in this repository
// assigns it.
var WithdrawVkeyHash = [32]byte{}
