// Package merkle implements the tagged-hash Merkle tree at the core of the
// commitment scheme: node hashing with branching/depth/width metadata
// (component C) and the balanced binary tree builder (component D). The
// package knows nothing about protocols or MPC slots — it Merklizes an
// ordered sequence of 32-byte leaf hashes and nothing else.
package merkle

import (
	"github.com/holiman/uint256"

	"github.com/22388o/client-side-validation/config"
	"github.com/22388o/client-side-validation/pkg/digest"
	"github.com/22388o/client-side-validation/pkg/strict"
)

// Hash is a 32-byte tagged-SHA-256 digest, distinguished from other 32-byte
// values (protocol IDs, messages) by construction only.
type Hash [32]byte

// Branching indicates whether a node position is empty, filled by a single
// real child, or has two real children.
type Branching uint8

const (
	// Void marks a node position with no real descendant.
	Void Branching = 0
	// Single marks a node with exactly one real child, paired with a void
	// sibling.
	Single Branching = 1
	// Branch marks a node with two real children.
	Branch Branching = 2
)

// Valid reports whether b is one of the three declared discriminants.
func (b Branching) Valid() bool { return b == Void || b == Single || b == Branch }

// Node is the internal record hashed to produce a Merkle node digest. depth
// is the height of this node's own level above the leaves, minus one (so a
// node directly above the leaf level has depth 0); width is the number of
// real leaves in its subtree. Both are folded into the hash so a forged
// short tree can never reuse a hash computed at a different shape.
type Node struct {
	Branching Branching
	Depth     uint8
	Width     uint256.Int
	Node1     Hash
	Node2     Hash
}

// Encode writes the node's canonical byte encoding: a 1-byte branching
// discriminant, a 1-byte depth, the 32-byte big-endian width, and the two
// 32-byte child hashes, all concatenated in declaration order.
func (n Node) Encode() []byte {
	w := strict.NewWriter(1 + 1 + 32 + 32 + 32)
	w.U8(uint8(n.Branching)).U8(n.Depth).U256(&n.Width).Bytes32(n.Node1).Bytes32(n.Node2)
	return w.Bytes()
}

// DecodeNode reads a Node from its canonical encoding, rejecting a branching
// discriminant outside {0,1,2}.
func DecodeNode(b []byte) (Node, error) {
	r := strict.NewReader(b)
	branchingByte, err := r.U8()
	if err != nil {
		return Node{}, err
	}
	branching := Branching(branchingByte)
	if !branching.Valid() {
		return Node{}, ErrInvalidBranching
	}
	depth, err := r.U8()
	if err != nil {
		return Node{}, err
	}
	width, err := r.U256()
	if err != nil {
		return Node{}, err
	}
	n1, err := r.Bytes32()
	if err != nil {
		return Node{}, err
	}
	n2, err := r.Bytes32()
	if err != nil {
		return Node{}, err
	}
	return Node{Branching: branching, Depth: depth, Width: *width, Node1: Hash(n1), Node2: Hash(n2)}, nil
}

// NodeHash computes the tagged hash of a node with the given branching,
// depth, width, and children.
func NodeHash(branching Branching, depth uint8, width *uint256.Int, n1, n2 Hash) Hash {
	node := Node{Branching: branching, Depth: depth, Node1: n1, Node2: n2}
	if width != nil {
		node.Width = *width
	}
	return Hash(digest.TaggedHash(config.MerkleNodeTag, node.Encode()))
}

// LeafHash hashes an already strict-encoded leaf under the Merkle node tag.
// It is the component used by callers (the mpc package) to turn a leaf's
// canonical encoding into the 32-byte value Merklization treats as a leaf.
func LeafHash(encodedLeaf []byte) Hash {
	return Hash(digest.TaggedHash(config.MerkleNodeTag, encodedLeaf))
}

// zeroU256 is the width recorded on every void node.
var zeroU256 uint256.Int

// voidNode is the definitional bootstrap node for H_void: branching=void,
// depth=0, width=0, and literal zero-byte children (not H_void itself,
// which would make the definition circular).
var voidNode = Node{Branching: Void, Depth: 0, Width: zeroU256}

// HVoid is the fixed placeholder hash used wherever a node position has no
// real child: TaggedHash_node(encode(voidNode)).
var HVoid = Hash(digest.TaggedHash(config.MerkleNodeTag, voidNode.Encode()))
