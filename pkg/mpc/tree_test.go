package mpc

import (
	"testing"

	"github.com/22388o/client-side-validation/config"
)

func pid(b byte) ProtocolID {
	var p ProtocolID
	p[0] = b
	p[1] = b
	return p
}

func msg(b byte) Message {
	var m Message
	for i := range m {
		m[i] = b
	}
	return m
}

func inhabit(p ProtocolID, m Message) Inhabited {
	return Inhabited{Protocol: p, Message: m}
}

func TestNewTreeRejectsOutOfRangeMinDepth(t *testing.T) {
	_, err := NewTree(nil, Depth(200), 0)
	if err != ErrDepthOutOfRange {
		t.Fatalf("NewTree(minDepth=200) = %v, want ErrDepthOutOfRange", err)
	}
}

func TestNewTreeRejectsDuplicateProtocol(t *testing.T) {
	inputs := []Inhabited{
		inhabit(pid(1), msg(0x11)),
		inhabit(pid(1), msg(0x22)),
	}
	_, err := NewTree(inputs, 0, 0)
	if err != ErrDuplicateProtocol {
		t.Fatalf("NewTree(duplicate protocol) = %v, want ErrDuplicateProtocol", err)
	}
}

func TestNewTreeSingleProtocolLiftsToDepthZero(t *testing.T) {
	inputs := []Inhabited{inhabit(pid(1), msg(0xaa))}
	tree, err := NewTree(inputs, 0, 42)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	if tree.Depth() != 0 {
		t.Fatalf("Depth() = %d, want 0", tree.Depth())
	}
	slot, got, ok := tree.Proof(pid(1))
	if !ok || slot != 0 || got != msg(0xaa) {
		t.Fatalf("Proof() = (%d, %x, %v), want (0, aa.., true)", slot, got, ok)
	}
}

func TestNewTreeIsOrderIndependent(t *testing.T) {
	inputs := []Inhabited{
		inhabit(pid(1), msg(0x11)),
		inhabit(pid(2), msg(0x22)),
		inhabit(pid(3), msg(0x33)),
		inhabit(pid(4), msg(0x44)),
	}
	a, err := NewTree(inputs, 0, 7)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	ca, err := a.Commitment()
	if err != nil {
		t.Fatalf("Commitment: %v", err)
	}

	reordered := []Inhabited{inputs[3], inputs[2], inputs[1], inputs[0]}
	b, err := NewTree(reordered, 0, 7)
	if err != nil {
		t.Fatalf("NewTree (reordered): %v", err)
	}
	cb, err := b.Commitment()
	if err != nil {
		t.Fatalf("Commitment (reordered): %v", err)
	}

	if !ca.Equal(cb) {
		t.Fatalf("commitments differ by input order: %x vs %x", ca, cb)
	}
}

func TestNewTreeEveryProtocolGetsADistinctSlot(t *testing.T) {
	inputs := []Inhabited{
		inhabit(pid(10), msg(1)),
		inhabit(pid(20), msg(2)),
		inhabit(pid(30), msg(3)),
		inhabit(pid(40), msg(4)),
		inhabit(pid(50), msg(5)),
	}
	tree, err := NewTree(inputs, 0, 99)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}

	seen := map[uint32]ProtocolID{}
	for _, in := range inputs {
		slot, _, ok := tree.Proof(in.Protocol)
		if !ok {
			t.Fatalf("Proof(%x) missing", in.Protocol)
		}
		if other, dup := seen[slot]; dup {
			t.Fatalf("slot %d assigned to both %x and %x", slot, other, in.Protocol)
		}
		seen[slot] = in.Protocol
	}
}

func TestTreeCommitmentHidesMessages(t *testing.T) {
	inputs := []Inhabited{inhabit(pid(1), msg(0x01))}
	a, err := NewTree(inputs, 0, 5)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	concealed, err := a.Concealed()
	if err != nil {
		t.Fatalf("Concealed: %v", err)
	}
	encoded := concealed.Encode()
	if len(encoded) != 35 {
		t.Fatalf("Concealed.Encode() length = %d, want 35", len(encoded))
	}
}

func TestTreeDeterministicAcrossRebuild(t *testing.T) {
	inputs := []Inhabited{
		inhabit(pid(7), msg(0x70)),
		inhabit(pid(8), msg(0x80)),
		inhabit(pid(9), msg(0x90)),
	}
	a, err := NewTree(inputs, 0, 123456)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	b, err := NewTree(inputs, 0, 123456)
	if err != nil {
		t.Fatalf("NewTree (again): %v", err)
	}
	if a.Depth() != b.Depth() || a.Cofactor() != b.Cofactor() {
		t.Fatalf("rebuild diverged: (%d,%d) vs (%d,%d)", a.Depth(), a.Cofactor(), b.Depth(), b.Cofactor())
	}
	ra, _ := a.Root()
	rb, _ := b.Root()
	if ra != rb {
		t.Fatalf("roots diverged across rebuild: %x vs %x", ra, rb)
	}
}

func TestTreeEncodeDecodeRoundTrip(t *testing.T) {
	inputs := []Inhabited{
		inhabit(pid(1), msg(0x11)),
		inhabit(pid(2), msg(0x22)),
		inhabit(pid(3), msg(0x33)),
	}
	tree, err := NewTree(inputs, 0, 0xF00D)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	decoded, err := DecodeTree(tree.Encode())
	if err != nil {
		t.Fatalf("DecodeTree: %v", err)
	}
	if decoded.Depth() != tree.Depth() || decoded.Cofactor() != tree.Cofactor() || decoded.Entropy() != tree.Entropy() {
		t.Fatalf("decoded builder state diverged from original")
	}
	for _, in := range inputs {
		wantSlot, wantMsg, _ := tree.Proof(in.Protocol)
		gotSlot, gotMsg, ok := decoded.Proof(in.Protocol)
		if !ok || gotSlot != wantSlot || gotMsg != wantMsg {
			t.Fatalf("Proof(%x) after decode = (%d,%x,%v), want (%d,%x,true)", in.Protocol, gotSlot, gotMsg, ok, wantSlot, wantMsg)
		}
	}
	wantRoot, _ := tree.Root()
	gotRoot, _ := decoded.Root()
	if wantRoot != gotRoot {
		t.Fatalf("root diverged after decode: %x vs %x", gotRoot, wantRoot)
	}
}

func TestDecodeTreeRejectsTamperedSlotProtocol(t *testing.T) {
	inputs := []Inhabited{
		inhabit(pid(1), msg(0x11)),
		inhabit(pid(2), msg(0x22)),
	}
	tree, err := NewTree(inputs, 0, 1)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	encoded := tree.Encode()

	// Flip a byte inside the first slot's protocol ID (past the fixed-size
	// header: depth(1) + cofactor(2) + entropy(8) + count(4) + 2*(32+32)).
	offset := 1 + 2 + 8 + 4 + 2*64 + 1
	encoded[offset] ^= 0xFF

	if _, err := DecodeTree(encoded); err != ErrSlotOutOfRange {
		t.Fatalf("DecodeTree(tampered slot) = %v, want ErrSlotOutOfRange", err)
	}
}

// TestNewTreeResolvesCollisionByEscalatingDepth exercises the case spec §4.5
// calls out by example: two protocol IDs whose first two bytes collide
// modulo the current width. Because width is always a power of two, the
// slot function reduces to a bitwise AND-with-mask after the XOR, so a
// collision at width W holds for every cofactor in [0, 65535] alike — only
// widening the mask (bumping depth) can ever separate such a pair. See
// DESIGN.md for the derivation.
func TestNewTreeResolvesCollisionByEscalatingDepth(t *testing.T) {
	var a, b ProtocolID
	a[0], a[1] = 0x00, 0x00 // first two bytes -> 0x0000
	a[31] = 0xAA
	b[0], b[1] = 0x00, 0x02 // first two bytes -> 0x0002, collides with a mod 2
	b[31] = 0xBB

	if _, ok := findCofactor([]ProtocolID{a, b}, 2); ok {
		t.Fatalf("findCofactor found a cofactor separating a colliding pair at width 2; expected none to exist")
	}

	inputs := []Inhabited{inhabit(a, msg(0x01)), inhabit(b, msg(0x02))}
	tree, err := NewTree(inputs, 1, 0)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	if tree.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2 (depth 1 is unresolvable by any cofactor for this pair)", tree.Depth())
	}
	slotA, _, okA := tree.Proof(a)
	slotB, _, okB := tree.Proof(b)
	if !okA || !okB || slotA == slotB {
		t.Fatalf("Proof(a)=(%d,%v) Proof(b)=(%d,%v), want distinct slots", slotA, okA, slotB, okB)
	}
}

// TestNewTreeCantFitInMaxSlotsOnUnresolvableCollision covers the other end
// of that same fact: two protocol IDs with bit-for-bit identical first two
// bytes collide at every width and every cofactor, so no depth resolves
// them and NewTree must exhaust the search. minDepth is set to MaxDepth-1
// so the search only visits two depths (2 * 65536 cofactor trials) rather
// than walking the full range from 0, per §9's guidance to keep the search
// bounded.
func TestNewTreeCantFitInMaxSlotsOnUnresolvableCollision(t *testing.T) {
	var a, b ProtocolID
	a[0], a[1] = 0x12, 0x34
	a[31] = 0xAA
	b[0], b[1] = 0x12, 0x34
	b[31] = 0xBB

	inputs := []Inhabited{inhabit(a, msg(0x01)), inhabit(b, msg(0x02))}
	_, err := NewTree(inputs, config.MaxDepth-1, 0)
	if err != ErrCantFitInMaxSlots {
		t.Fatalf("NewTree(identical first two bytes) = %v, want ErrCantFitInMaxSlots", err)
	}
}
