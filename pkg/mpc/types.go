// Package mpc implements the multi-protocol commitment scheme: a fixed-depth
// sparse Merkle tree that maps (protocol ID, message) pairs to deterministic
// slots (component E), a proof-carrying block supporting partial concealment
// and merge (component F), and the final commitment digest (component G).
package mpc

import (
	"github.com/22388o/client-side-validation/config"
	"github.com/22388o/client-side-validation/pkg/merkle"
)

// ProtocolID is an opaque 32-byte identifier of an independent commitment
// protocol sharing the MPC tree. Equality defines uniqueness within a
// commitment.
type ProtocolID [32]byte

// Message is an opaque 32-byte payload whose semantics belong to the owning
// protocol.
type Message [32]byte

// Hash is the 32-byte tagged Merkle digest type used by the MPC layer; it is
// merkle.Hash under another name so callers of this package never need to
// import pkg/merkle directly for the common case.
type Hash = merkle.Hash

// Depth is a tree depth bounded to [0, MaxDepth]. Unlike merkle.Node's Depth
// field (a full uint8 describing a generic node's height above the leaves),
// Depth here is the "u5" depth of an MPC commitment, tree, or block — the
// two are related (for Depth >= 1 an MPC tree's top node has
// merkle.Node.Depth == Depth-1; a depth-0 tree's root is the single-leaf
// lift node with depth field 0) but are intentionally distinct types so that the full-range
// generic node depth and the bounded MPC depth can never be silently
// confused at an encode boundary. See DESIGN.md for the mapping.
type Depth uint8

// Valid reports whether d is within the accepted range [0, config.MaxDepth].
func (d Depth) Valid() bool { return d <= config.MaxDepth }

// Width returns 2^d, the number of leaf slots at this depth.
func (d Depth) Width() uint32 { return uint32(1) << uint(d) }
