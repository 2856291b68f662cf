package mpc

import (
	"github.com/22388o/client-side-validation/config"
	"github.com/22388o/client-side-validation/pkg/digest"
)

// Commitment is the final, 32-byte re-tagged digest of a Concealed value:
// TaggedHash_mpc(encode(concealed)). Re-tagging under a distinct domain
// (urn:ubideco:mpc:commitment#2024-01-31, vs. the Merkle node tag used
// throughout the tree itself) forbids a node hash from ever being replayed
// as if it were a commitment in some other protocol context — the two
// hashes live in disjoint tag domains even though both are 32-byte
// tagged-SHA-256 outputs.
//
// Equality of two commitments is exactly equality of their 32 bytes, which
// holds iff the underlying Concealed values (its 32+3 bytes: the 32-byte
// root plus the 3-byte depth+cofactor header) were byte-identical, barring
// a SHA-256 collision.
type Commitment [32]byte

// CommitmentOf computes the Commitment for a Concealed value.
func CommitmentOf(c Concealed) Commitment {
	return Commitment(digest.TaggedHash(config.MPCCommitmentTag, c.Encode()))
}

// Equal reports whether two commitments are byte-identical.
func (c Commitment) Equal(other Commitment) bool { return c == other }
