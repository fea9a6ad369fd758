package indexer

import "errors"

var (
	// ErrCommitmentExists is returned when a deposit's leaf_commit was
	// already indexed under a different (or the same) leaf index.
	ErrCommitmentExists = errors.New("indexer: commitment already indexed")
	// ErrLeafOutOfRange is wrapped by Tree.Proof when the requested leaf
	// index is at or beyond the tree's current size.
	ErrLeafOutOfRange = errors.New("indexer: leaf index out of range")
	// ErrArtifactNotFound names the unknown-artifact case. ArtifactStore.Get
	// reports a missing name through its boolean result and does not
	// return this error.
	ErrArtifactNotFound = errors.New("indexer: unknown artifact")
)
