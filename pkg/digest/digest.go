// Package digest implements the tagged SHA-256 primitive used everywhere in
// the commitment core. A tagged hash domain-separates SHA-256 by a tag
// string T: TaggedHash_T(x) = SHA256(SHA256(T) || SHA256(T) || x). Two
// distinct tags never produce colliding preimages for the same x, which is
// what lets node hashes and commitment digests share the same underlying
// SHA-256 compression function without cross-domain confusion.
package digest

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Hash is a 32-byte tagged-SHA-256 digest.
type Hash [32]byte

// Tag identifies a hashing domain. Tags are compared by their string value;
// the SHA256(tag) precomputation happens inside chainhash.TaggedHash on
// every call, which is cheap enough for the core's purposes and keeps this
// package free of mutable package-level state.
type Tag string

// TaggedHash computes TaggedHash_tag(concat(parts...)) = SHA256(t || t || x)
// where t = SHA256(tag) and x is the concatenation of parts, delegating the
// BIP-340 construction to chainhash.TaggedHash.
func TaggedHash(tag Tag, parts ...[]byte) Hash {
	h := chainhash.TaggedHash([]byte(tag), parts...)
	return Hash(*h)
}
