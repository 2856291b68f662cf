package mpc

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/22388o/client-side-validation/config"
	"github.com/22388o/client-side-validation/pkg/merkle"
	"github.com/22388o/client-side-validation/pkg/strict"
)

// Tree is the builder state for a multi-protocol commitment: the set of
// input messages, the depth and cofactor the builder settled on, and the
// materialized slot assignment (real leaves plus entropy filler) that
// covers every one of the 2^depth positions.
type Tree struct {
	depth    Depth
	entropy  uint64
	cofactor uint16
	messages map[ProtocolID]Message
	slots    map[uint32]Leaf
}

// NewTree builds a Tree over inputs, searching depths starting at minDepth
// for the smallest depth/cofactor pair that fits every protocol into a
// distinct slot. entropy seeds the filler leaves, and must come from a
// CSPRNG for blinded builds or be a fixed caller-supplied value for
// deterministic builds (§6 "Randomness") — NewTree treats it as opaque
// either way.
//
// inputs is a slice rather than a map because two entries sharing a
// protocol ID are a caller error (ErrDuplicateProtocol), not a silent
// overwrite. NewTree still treats the set as unordered: it sorts protocol
// IDs before running cofactor search, so the result depends only on the set
// of pairs, never on inputs' order (§8 invariant 2).
func NewTree(inputs []Inhabited, minDepth Depth, entropy uint64) (*Tree, error) {
	if len(inputs) > config.MaxMessages {
		return nil, ErrTooManyProtocols
	}
	if !minDepth.Valid() {
		return nil, ErrDepthOutOfRange
	}

	messages := make(map[ProtocolID]Message, len(inputs))
	pids := make([]ProtocolID, 0, len(inputs))
	for _, in := range inputs {
		if _, dup := messages[in.Protocol]; dup {
			return nil, ErrDuplicateProtocol
		}
		messages[in.Protocol] = in.Message
		pids = append(pids, in.Protocol)
	}
	sort.Slice(pids, func(i, j int) bool { return bytes.Compare(pids[i][:], pids[j][:]) < 0 })

	for depth := minDepth; depth <= config.MaxDepth; depth++ {
		width := depth.Width()
		if uint32(len(pids)) > width {
			continue
		}
		cofactor, ok := findCofactor(pids, width)
		if !ok {
			continue
		}

		slots := make(map[uint32]Leaf, width)
		for _, pid := range pids {
			s := Slot(pid, cofactor, width)
			slots[s] = Inhabited{Protocol: pid, Message: messages[pid]}
		}
		for s := uint32(0); s < width; s++ {
			if _, ok := slots[s]; !ok {
				slots[s] = Entropy{Entropy: entropy, Pos: s}
			}
		}

		return &Tree{
			depth:    Depth(depth),
			entropy:  entropy,
			cofactor: cofactor,
			messages: messages,
			slots:    slots,
		}, nil
	}

	return nil, ErrCantFitInMaxSlots
}

// Depth returns the depth the builder settled on.
func (t *Tree) Depth() Depth { return t.depth }

// Cofactor returns the cofactor the builder settled on.
func (t *Tree) Cofactor() uint16 { return t.cofactor }

// Entropy returns the entropy value filler leaves were seeded with.
func (t *Tree) Entropy() uint64 { return t.entropy }

// Slot returns the leaf assigned to a slot and whether that slot exists
// (slots are always populated for s < width once the Tree is built, so this
// only returns false for s out of range).
func (t *Tree) Slot(s uint32) (Leaf, bool) {
	l, ok := t.slots[s]
	return l, ok
}

// Proof returns the slot index and message committed for protocolID, or
// false if that protocol was never part of this tree's input set.
func (t *Tree) Proof(protocolID ProtocolID) (slot uint32, msg Message, ok bool) {
	msg, ok = t.messages[protocolID]
	if !ok {
		return 0, Message{}, false
	}
	return Slot(protocolID, t.cofactor, t.depth.Width()), msg, true
}

// leafHashes returns the ordered sequence of leaf hashes for slots
// 0..width-1, ready to be passed to merkle.BuildTree.
func (t *Tree) leafHashes() []merkle.Hash {
	width := t.depth.Width()
	out := make([]merkle.Hash, width)
	for s := uint32(0); s < width; s++ {
		out[s] = LeafHash(t.slots[s])
	}
	return out
}

// Root Merklizes the tree's leaves and returns the resulting merkle_root.
func (t *Tree) Root() (merkle.Hash, error) {
	return merkle.BuildTree(t.leafHashes())
}

// Concealed reduces the tree to its final MerkleConcealed value. This
// reduction is irreversible: the returned value carries only depth,
// cofactor, and the root, never the underlying messages or entropy.
func (t *Tree) Concealed() (Concealed, error) {
	root, err := t.Root()
	if err != nil {
		return Concealed{}, err
	}
	return Concealed{Depth: t.depth, Cofactor: t.cofactor, Root: root}, nil
}

// Commitment reduces the tree directly to its final, MPC-tagged
// commitment digest.
func (t *Tree) Commitment() (Commitment, error) {
	c, err := t.Concealed()
	if err != nil {
		return Commitment{}, err
	}
	return CommitmentOf(c), nil
}

// Encode serializes the full builder state: depth, cofactor, entropy, the
// messages map (sorted by protocol ID), and the materialized slot map in
// slot order. Unlike Concealed, this is reversible — it is the form a
// prover persists or hands to a counterparty who needs to keep building on
// top of the tree rather than just verify a proof against it.
func (t *Tree) Encode() []byte {
	width := t.depth.Width()
	w := strict.NewWriter(1 + 2 + 8 + 4 + len(t.messages)*64 + int(width)*13)
	w.U8(uint8(t.depth)).U16(t.cofactor).U64(t.entropy)

	pids := make([]ProtocolID, 0, len(t.messages))
	for pid := range t.messages {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return bytes.Compare(pids[i][:], pids[j][:]) < 0 })

	w.U32(uint32(len(pids)))
	for _, pid := range pids {
		w.Bytes32(pid).Bytes32(t.messages[pid])
	}

	for s := uint32(0); s < width; s++ {
		w.Raw(t.slots[s].encode())
	}
	return w.Bytes()
}

// DecodeTree parses a Tree encoded by Encode and revalidates its slot map
// against its messages map and depth: every Inhabited slot must agree with
// the messages map on both protocol and message and must sit at the slot
// the protocol's own Slot function computes for this depth/cofactor, every
// Entropy slot's Pos must match its position, and every message must have a
// placed slot. Disagreement anywhere in that chain is ErrSlotOutOfRange,
// the decode-time check named in §6 for a MerkleTree's slot map.
func DecodeTree(data []byte) (*Tree, error) {
	r := strict.NewReader(data)

	depthByte, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("mpc: decode tree depth: %w", err)
	}
	depth := Depth(depthByte)
	if !depth.Valid() {
		return nil, ErrDepthOutOfRange
	}

	cofactor, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("mpc: decode tree cofactor: %w", err)
	}
	entropy, err := r.U64()
	if err != nil {
		return nil, fmt.Errorf("mpc: decode tree entropy: %w", err)
	}

	count, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("mpc: decode tree message count: %w", err)
	}
	if count > config.MaxMessages {
		return nil, ErrTooManyProtocols
	}

	messages := make(map[ProtocolID]Message, count)
	for i := uint32(0); i < count; i++ {
		pid, err := r.Bytes32()
		if err != nil {
			return nil, fmt.Errorf("mpc: decode tree message %d protocol: %w", i, err)
		}
		msg, err := r.Bytes32()
		if err != nil {
			return nil, fmt.Errorf("mpc: decode tree message %d: %w", i, err)
		}
		if _, dup := messages[ProtocolID(pid)]; dup {
			return nil, ErrDuplicateProtocol
		}
		messages[ProtocolID(pid)] = Message(msg)
	}

	width := depth.Width()
	slots := make(map[uint32]Leaf, width)
	placed := make(map[ProtocolID]struct{}, len(messages))
	for s := uint32(0); s < width; s++ {
		tag, err := r.U8()
		if err != nil {
			return nil, fmt.Errorf("mpc: decode tree slot %d: %w", s, err)
		}
		switch leafTag(tag) {
		case leafTagInhabited:
			pid, err := r.Bytes32()
			if err != nil {
				return nil, fmt.Errorf("mpc: decode tree slot %d protocol: %w", s, err)
			}
			msg, err := r.Bytes32()
			if err != nil {
				return nil, fmt.Errorf("mpc: decode tree slot %d message: %w", s, err)
			}
			protocol := ProtocolID(pid)
			message := Message(msg)
			want, ok := messages[protocol]
			if !ok || want != message {
				return nil, ErrSlotOutOfRange
			}
			if Slot(protocol, cofactor, width) != s {
				return nil, ErrSlotOutOfRange
			}
			placed[protocol] = struct{}{}
			slots[s] = Inhabited{Protocol: protocol, Message: message}
		case leafTagEntropy:
			entropyValue, err := r.U64()
			if err != nil {
				return nil, fmt.Errorf("mpc: decode tree slot %d entropy: %w", s, err)
			}
			pos, err := r.U32()
			if err != nil {
				return nil, fmt.Errorf("mpc: decode tree slot %d pos: %w", s, err)
			}
			if pos != s {
				return nil, ErrSlotOutOfRange
			}
			slots[s] = Entropy{Entropy: entropyValue, Pos: pos}
		default:
			return nil, ErrSlotOutOfRange
		}
	}
	if len(placed) != len(messages) {
		return nil, ErrSlotOutOfRange
	}

	return &Tree{
		depth:    depth,
		entropy:  entropy,
		cofactor: cofactor,
		messages: messages,
		slots:    slots,
	}, nil
}
