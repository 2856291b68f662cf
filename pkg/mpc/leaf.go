package mpc

import (
	"github.com/22388o/client-side-validation/pkg/merkle"
	"github.com/22388o/client-side-validation/pkg/strict"
)

// leafTag discriminates the two Leaf variants in their canonical encoding.
type leafTag uint8

const (
	leafTagInhabited leafTag = 0
	leafTagEntropy   leafTag = 1
)

// Leaf is the sum type occupying one slot of an MPC tree: either a real
// commitment (Inhabited) or blinding filler (Entropy) distinguishable by
// position. Implementations are exhaustively matched by type switch; there
// is no open dispatch.
type Leaf interface {
	encode() []byte
}

// Inhabited is a real commitment leaf.
type Inhabited struct {
	Protocol ProtocolID
	Message  Message
}

func (l Inhabited) encode() []byte {
	w := strict.NewWriter(1 + 32 + 32)
	w.U8(uint8(leafTagInhabited)).Bytes32(l.Protocol).Bytes32(l.Message)
	return w.Bytes()
}

// Entropy is a blinding filler leaf. Its position is embedded in the
// encoding so that two Entropy leaves at different slots, even sharing the
// same entropy value, never hash to the same digest.
type Entropy struct {
	Entropy uint64
	Pos     uint32
}

func (l Entropy) encode() []byte {
	w := strict.NewWriter(1 + 8 + 4)
	w.U8(uint8(leafTagEntropy)).U64(l.Entropy).U32(l.Pos)
	return w.Bytes()
}

// LeafHash computes the tagged node-hash of a leaf's canonical encoding,
// per §4.3: "a leaf's hash is produced by hashing its canonical encoding
// under the node tag as well".
func LeafHash(l Leaf) merkle.Hash {
	return merkle.LeafHash(l.encode())
}
