package mpc

import (
	"github.com/22388o/client-side-validation/pkg/merkle"
	"github.com/22388o/client-side-validation/pkg/strict"
)

// Concealed is the MPC commitment body: depth, cofactor, and the Merkle
// root, with no trace of the underlying messages or entropy.
type Concealed struct {
	Depth    Depth
	Cofactor uint16
	Root     merkle.Hash
}

// Encode writes Concealed's canonical byte encoding: depth (1 byte),
// cofactor (2 bytes little-endian), root (32 raw bytes) — 35 bytes total.
func (c Concealed) Encode() []byte {
	w := strict.NewWriter(1 + 2 + 32)
	w.U8(uint8(c.Depth)).U16(c.Cofactor).Bytes32(c.Root)
	return w.Bytes()
}

// DecodeConcealed reads a Concealed from its canonical encoding, rejecting a
// depth outside [0, config.MaxDepth].
func DecodeConcealed(b []byte) (Concealed, error) {
	r := strict.NewReader(b)
	depthByte, err := r.U8()
	if err != nil {
		return Concealed{}, err
	}
	depth := Depth(depthByte)
	if !depth.Valid() {
		return Concealed{}, ErrDepthOutOfRange
	}
	cofactor, err := r.U16()
	if err != nil {
		return Concealed{}, err
	}
	root, err := r.Bytes32()
	if err != nil {
		return Concealed{}, err
	}
	return Concealed{Depth: depth, Cofactor: cofactor, Root: merkle.Hash(root)}, nil
}
