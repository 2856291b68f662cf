// Package config holds the tag strings and numeric bounds shared by every
// layer of the commitment core.
package config

const (
	// MerkleNodeTag domain-separates tagged hashes of Merkle nodes and leaves.
	MerkleNodeTag = "urn:ubideco:merkle:node#2024-01-31"

	// MPCCommitmentTag domain-separates the final MPC commitment digest from
	// any Merkle node hash, so a node hash can never be replayed as a
	// commitment in a different protocol context.
	MPCCommitmentTag = "urn:ubideco:mpc:commitment#2024-01-31"
)

const (
	// MaxDepth is the largest depth the MPC tree builder or decoder accepts.
	MaxDepth = 31

	// MaxMessages bounds the number of (protocol, message) pairs a single
	// MPC tree may commit to.
	MaxMessages = 1<<24 - 1

	// MaxCrossSectionEntries bounds the number of entries in a MerkleBlock's
	// cross-section.
	MaxCrossSectionEntries = 1<<32 - 1
)
