// Package strict implements the canonical byte-encoding contract shared by
// every type in the commitment core: little-endian fixed-width integers,
// single-byte enum discriminants, and fields concatenated in declaration
// order. The encoder is injective over the core's own types — two distinct
// values never produce the same byte string — which is what lets a tagged
// hash of an encoding stand in for a hash of the value itself.
package strict

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/holiman/uint256"
)

// Writer accumulates a canonical encoding. The zero value is ready to use.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns a Writer with capacity pre-reserved for n bytes.
func NewWriter(n int) *Writer {
	w := &Writer{}
	w.buf.Grow(n)
	return w
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// U8 writes an enum discriminant or single-byte integer.
func (w *Writer) U8(v uint8) *Writer {
	w.buf.WriteByte(v)
	return w
}

// U16 writes a little-endian uint16.
func (w *Writer) U16(v uint16) *Writer {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
	return w
}

// U32 writes a little-endian uint32.
func (w *Writer) U32(v uint32) *Writer {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
	return w
}

// U64 writes a little-endian uint64.
func (w *Writer) U64(v uint64) *Writer {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
	return w
}

// Raw appends an already-encoded fragment verbatim, for composing a
// larger encoding out of sub-values that encode themselves.
func (w *Writer) Raw(b []byte) *Writer {
	w.buf.Write(b)
	return w
}

// Bytes32 writes exactly 32 raw bytes, the encoding used for MerkleHash and
// u256 values (the one exception to the little-endian integer rule: both are
// treated as opaque 32-byte blobs).
func (w *Writer) Bytes32(v [32]byte) *Writer {
	w.buf.Write(v[:])
	return w
}

// U256 writes a uint256.Int in its canonical 32-byte big-endian form.
func (w *Writer) U256(v *uint256.Int) *Writer {
	b := v.Bytes32()
	w.buf.Write(b[:])
	return w
}

// Reader decodes a canonical encoding produced by Writer. It never panics;
// every accessor returns an error on short input.
type Reader struct {
	r *bytes.Reader
}

// NewReader wraps raw bytes for decoding.
func NewReader(b []byte) *Reader {
	return &Reader{r: bytes.NewReader(b)}
}

// Remaining reports how many bytes have not yet been consumed.
func (r *Reader) Remaining() int { return r.r.Len() }

// U8 reads a single byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("strict: read u8: %w", err)
	}
	return b, nil
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, fmt.Errorf("strict: read u16: %w", err)
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, fmt.Errorf("strict: read u32: %w", err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, fmt.Errorf("strict: read u64: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Bytes32 reads exactly 32 raw bytes.
func (r *Reader) Bytes32() ([32]byte, error) {
	var b [32]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return b, fmt.Errorf("strict: read bytes32: %w", err)
	}
	return b, nil
}

// U256 reads a canonical 32-byte big-endian uint256.
func (r *Reader) U256() (*uint256.Int, error) {
	b, err := r.Bytes32()
	if err != nil {
		return nil, fmt.Errorf("strict: read u256: %w", err)
	}
	v := new(uint256.Int)
	v.SetBytes32(b[:])
	return v, nil
}
