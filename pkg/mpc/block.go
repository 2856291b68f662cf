package mpc

import (
	"math/bits"

	"github.com/holiman/uint256"

	"github.com/22388o/client-side-validation/config"
	"github.com/22388o/client-side-validation/pkg/merkle"
	"github.com/22388o/client-side-validation/pkg/strict"
)

// treeNodeTag discriminates the two TreeNode variants in their canonical
// encoding. ConcealedNode is 0, CommitmentLeaf is 1 — an arbitrary but fixed
// convention, since §4.6 does not assign explicit discriminants itself.
type treeNodeTag uint8

const (
	treeNodeTagConcealed treeNodeTag = 0
	treeNodeTagLeaf      treeNodeTag = 1
)

// TreeNode is one entry of a Block's cross-section: either a concealed
// subtree (ConcealedNode) or a fully revealed leaf (CommitmentLeaf).
// Implementations are exhaustively type-switched; there is no open
// dispatch.
type TreeNode interface {
	encode() []byte
	width() uint64
}

// ConcealedNode covers 2^Depth consecutive leaf positions with their
// combined hash, hiding everything underneath.
type ConcealedNode struct {
	Depth Depth
	Hash  merkle.Hash
}

func (n ConcealedNode) width() uint64 { return uint64(n.Depth.Width()) }

func (n ConcealedNode) encode() []byte {
	w := strict.NewWriter(1 + 1 + 32)
	w.U8(uint8(treeNodeTagConcealed)).U8(uint8(n.Depth)).Bytes32(n.Hash)
	return w.Bytes()
}

// CommitmentLeaf reveals exactly one leaf position.
type CommitmentLeaf struct {
	Protocol ProtocolID
	Message  Message
}

func (l CommitmentLeaf) width() uint64 { return 1 }

func (l CommitmentLeaf) encode() []byte {
	w := strict.NewWriter(1 + 32 + 32)
	w.U8(uint8(treeNodeTagLeaf)).Bytes32(l.Protocol).Bytes32(l.Message)
	return w.Bytes()
}

// nodeHashOf returns the hash a TreeNode entry contributes to a fold,
// computing it fresh for a revealed leaf and reading it directly off an
// already-concealed node.
func nodeHashOf(n TreeNode) merkle.Hash {
	switch v := n.(type) {
	case ConcealedNode:
		return v.Hash
	case CommitmentLeaf:
		return LeafHash(Inhabited{Protocol: v.Protocol, Message: v.Message})
	default:
		return merkle.Hash{}
	}
}

// Block is the proof carrier derived from a Tree: a canonical left-to-right
// tiling of the 2^depth leaf positions, with selected subtrees concealed.
type Block struct {
	Depth         Depth
	Cofactor      uint16
	CrossSection  []TreeNode
	StaticEntropy *uint64
}

// FromTree derives a fully revealed Block from a built Tree: one
// CommitmentLeaf or entropy-as-ConcealedNode entry per slot, in slot order.
// Entropy leaves are concealed on creation — their leaf hash is stored as a
// depth-0 ConcealedNode, since entropy itself carries no protocol meaning to
// reveal.
func FromTree(t *Tree) (*Block, error) {
	width := t.depth.Width()
	cross := make([]TreeNode, width)
	for s := uint32(0); s < width; s++ {
		leaf := t.slots[s]
		switch v := leaf.(type) {
		case Inhabited:
			cross[s] = CommitmentLeaf{Protocol: v.Protocol, Message: v.Message}
		case Entropy:
			cross[s] = ConcealedNode{Depth: 0, Hash: LeafHash(v)}
		}
	}
	entropy := t.entropy
	return &Block{Depth: t.depth, Cofactor: t.cofactor, CrossSection: cross, StaticEntropy: &entropy}, nil
}

// foldRange recursively reduces entries[*pos:] into the single hash covering
// [cursor, cursor+rangeWidth), consuming exactly the entries needed and
// advancing *pos past them. It assumes the MPC invariant that every
// subtree is full (no void/single nodes ever occur below the top level),
// so every internal combination is a Branch node.
func foldRange(entries []TreeNode, pos *int, rangeWidth uint64) (merkle.Hash, error) {
	if *pos >= len(entries) {
		return merkle.Hash{}, ErrCrossSectionMalformed
	}
	entry := entries[*pos]
	w := entry.width()
	if w == rangeWidth {
		*pos++
		return nodeHashOf(entry), nil
	}
	if w == 0 || w > rangeWidth || rangeWidth < 2 {
		return merkle.Hash{}, ErrCrossSectionMalformed
	}

	half := rangeWidth / 2
	left, err := foldRange(entries, pos, half)
	if err != nil {
		return merkle.Hash{}, err
	}
	right, err := foldRange(entries, pos, half)
	if err != nil {
		return merkle.Hash{}, err
	}
	depthField := uint8(bits.Len64(rangeWidth) - 2)
	widthVal := new(uint256.Int).SetUint64(rangeWidth)
	return merkle.NodeHash(merkle.Branch, depthField, widthVal, left, right), nil
}

// Concealed folds the cross-section back into the MerkleConcealed value it
// commits to, independent of how much the block currently reveals.
func (b *Block) Concealed() (Concealed, error) {
	width := uint64(b.Depth.Width())
	if len(b.CrossSection) == 0 {
		return Concealed{}, ErrCrossSectionMalformed
	}

	var root merkle.Hash
	if width == 1 {
		if len(b.CrossSection) != 1 || b.CrossSection[0].width() != 1 {
			return Concealed{}, ErrCrossSectionMalformed
		}
		one := *uint256.NewInt(1)
		root = merkle.NodeHash(merkle.Single, 0, &one, nodeHashOf(b.CrossSection[0]), merkle.HVoid)
	} else {
		pos := 0
		r, err := foldRange(b.CrossSection, &pos, width)
		if err != nil {
			return Concealed{}, err
		}
		if pos != len(b.CrossSection) {
			return Concealed{}, ErrCrossSectionMalformed
		}
		root = r
	}

	return Concealed{Depth: b.Depth, Cofactor: b.Cofactor, Root: root}, nil
}

// CommitID folds the cross-section and returns the resulting Commitment.
func (b *Block) CommitID() (Commitment, error) {
	c, err := b.Concealed()
	if err != nil {
		return Commitment{}, err
	}
	return CommitmentOf(c), nil
}

// canonicalize repeatedly coalesces adjacent ConcealedNode siblings that
// align on a 2^(d+1) boundary, until no more merges are possible. The
// result never changes what Concealed() computes — only how much of the
// cross-section is spelled out versus folded into a single hash.
func canonicalize(cross []TreeNode) []TreeNode {
	for {
		next := make([]TreeNode, 0, len(cross))
		pos := uint64(0)
		merged := false
		i := 0
		for i < len(cross) {
			if i+1 < len(cross) {
				a, aok := cross[i].(ConcealedNode)
				b, bok := cross[i+1].(ConcealedNode)
				if aok && bok && a.Depth == b.Depth {
					span := uint64(1) << uint(a.Depth)
					combined := span * 2
					if pos%combined == 0 {
						widthVal := new(uint256.Int).SetUint64(combined)
						h := merkle.NodeHash(merkle.Branch, uint8(a.Depth), widthVal, a.Hash, b.Hash)
						next = append(next, ConcealedNode{Depth: a.Depth + 1, Hash: h})
						pos += combined
						i += 2
						merged = true
						continue
					}
				}
			}
			next = append(next, cross[i])
			pos += cross[i].width()
			i++
		}
		cross = next
		if !merged {
			return cross
		}
	}
}

// Canonicalize returns a copy of the block with its cross-section
// normalized (adjacent concealable siblings coalesced). It is idempotent
// and never changes CommitID.
func (b *Block) Canonicalize() *Block {
	cross := make([]TreeNode, len(b.CrossSection))
	copy(cross, b.CrossSection)
	return &Block{Depth: b.Depth, Cofactor: b.Cofactor, CrossSection: canonicalize(cross), StaticEntropy: b.StaticEntropy}
}

// ConcealExcept conceals every leaf except the listed protocols: every
// CommitmentLeaf not in protocols is replaced by its own depth-0
// ConcealedNode, then the cross-section is canonicalized bottom-up.
// Conceal never reveals, and is idempotent: concealing twice with keep
// sets S then T is equivalent to concealing once with S ∩ T.
func (b *Block) ConcealExcept(protocols map[ProtocolID]struct{}) *Block {
	cross := make([]TreeNode, len(b.CrossSection))
	for i, e := range b.CrossSection {
		if leaf, ok := e.(CommitmentLeaf); ok {
			if _, keep := protocols[leaf.Protocol]; !keep {
				cross[i] = ConcealedNode{Depth: 0, Hash: nodeHashOf(leaf)}
				continue
			}
		}
		cross[i] = e
	}
	return &Block{Depth: b.Depth, Cofactor: b.Cofactor, CrossSection: canonicalize(cross), StaticEntropy: b.StaticEntropy}
}

// Convolve returns the message revealed for protocolID, ErrProtocolAbsent if
// its slot is concealed, or ErrProtocolUnknown if the slot holds a
// different, unrelated leaf.
func (b *Block) Convolve(protocolID ProtocolID) (Message, error) {
	width := uint64(b.Depth.Width())
	slot := uint64(Slot(protocolID, b.Cofactor, uint32(width)))

	cursor := uint64(0)
	for _, e := range b.CrossSection {
		w := e.width()
		if slot < cursor+w {
			switch v := e.(type) {
			case CommitmentLeaf:
				if v.Protocol == protocolID {
					return v.Message, nil
				}
				return Message{}, ErrProtocolUnknown
			case ConcealedNode:
				return Message{}, ErrProtocolAbsent
			}
		}
		cursor += w
	}
	return Message{}, ErrCrossSectionMalformed
}

// mergeLeaf merges two entries known to each cover exactly one leaf
// position, preferring a revealed leaf over a concealed one and failing on
// conflicting revealed messages.
func mergeLeaf(a, b TreeNode) (TreeNode, error) {
	aLeaf, aIsLeaf := a.(CommitmentLeaf)
	bLeaf, bIsLeaf := b.(CommitmentLeaf)

	switch {
	case aIsLeaf && bIsLeaf:
		if aLeaf == bLeaf {
			return aLeaf, nil
		}
		return nil, ErrMergeMismatch
	case aIsLeaf && !bIsLeaf:
		bc := b.(ConcealedNode)
		if nodeHashOf(aLeaf) != bc.Hash {
			return nil, ErrMergeMismatch
		}
		return aLeaf, nil
	case !aIsLeaf && bIsLeaf:
		ac := a.(ConcealedNode)
		if nodeHashOf(bLeaf) != ac.Hash {
			return nil, ErrMergeMismatch
		}
		return bLeaf, nil
	default:
		ac := a.(ConcealedNode)
		bc := b.(ConcealedNode)
		if ac.Hash != bc.Hash {
			return nil, ErrMergeMismatch
		}
		return ac, nil
	}
}

// collectConsistent consumes entries from the finer side until their
// combined width equals rangeWidth, verifies their fold matches the coarse
// side's single concealed hash for that same range, and returns the finer
// entries (the "more revealed" side always wins).
func collectConsistent(side []TreeNode, pos *int, rangeWidth uint64, coarse TreeNode) ([]TreeNode, error) {
	cc, ok := coarse.(ConcealedNode)
	if !ok {
		return nil, ErrCrossSectionMalformed
	}

	start := *pos
	var collected uint64
	for collected < rangeWidth {
		if *pos >= len(side) {
			return nil, ErrCrossSectionMalformed
		}
		collected += side[*pos].width()
		*pos++
	}
	if collected != rangeWidth {
		return nil, ErrCrossSectionMalformed
	}

	sub := make([]TreeNode, *pos-start)
	copy(sub, side[start:*pos])

	checkPos := 0
	verifyCopy := make([]TreeNode, len(sub))
	copy(verifyCopy, sub)
	h, err := foldRange(verifyCopy, &checkPos, rangeWidth)
	if err != nil {
		return nil, err
	}
	if h != cc.Hash {
		return nil, ErrMergeMismatch
	}

	return sub, nil
}

// mergeRange merges two cross-sections over the same [cursor,
// cursor+rangeWidth) range, recursing into halves whenever both sides have
// finer structure there.
func mergeRange(a []TreeNode, posA *int, b []TreeNode, posB *int, rangeWidth uint64) ([]TreeNode, error) {
	if *posA >= len(a) || *posB >= len(b) {
		return nil, ErrCrossSectionMalformed
	}

	if rangeWidth == 1 {
		entryA, entryB := a[*posA], b[*posB]
		if entryA.width() != 1 || entryB.width() != 1 {
			return nil, ErrCrossSectionMalformed
		}
		*posA++
		*posB++
		m, err := mergeLeaf(entryA, entryB)
		if err != nil {
			return nil, err
		}
		return []TreeNode{m}, nil
	}

	wA := a[*posA].width()
	wB := b[*posB].width()

	switch {
	case wA == rangeWidth && wB == rangeWidth:
		entryA, entryB := a[*posA], b[*posB]
		*posA++
		*posB++
		ac, aOK := entryA.(ConcealedNode)
		bc, bOK := entryB.(ConcealedNode)
		if !aOK || !bOK {
			return nil, ErrCrossSectionMalformed
		}
		if ac.Hash != bc.Hash {
			return nil, ErrMergeMismatch
		}
		return []TreeNode{ac}, nil
	case wA == rangeWidth && wB < rangeWidth:
		coarse := a[*posA]
		*posA++
		return collectConsistent(b, posB, rangeWidth, coarse)
	case wB == rangeWidth && wA < rangeWidth:
		coarse := b[*posB]
		*posB++
		return collectConsistent(a, posA, rangeWidth, coarse)
	default:
		half := rangeWidth / 2
		left, err := mergeRange(a, posA, b, posB, half)
		if err != nil {
			return nil, err
		}
		right, err := mergeRange(a, posA, b, posB, half)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	}
}

// Merge combines two blocks over the same commitment, keeping the more
// revealed side at every position and failing with ErrMergeMismatch if the
// blocks disagree on depth, cofactor, root, or on the message revealed for
// some protocol.
func (b *Block) Merge(other *Block) (*Block, error) {
	if b.Depth != other.Depth || b.Cofactor != other.Cofactor {
		return nil, ErrMergeMismatch
	}
	bc, err := b.Concealed()
	if err != nil {
		return nil, err
	}
	oc, err := other.Concealed()
	if err != nil {
		return nil, err
	}
	if bc.Root != oc.Root {
		return nil, ErrMergeMismatch
	}

	width := uint64(b.Depth.Width())
	var mergedCross []TreeNode
	if width == 1 {
		m, err := mergeLeaf(b.CrossSection[0], other.CrossSection[0])
		if err != nil {
			return nil, err
		}
		mergedCross = []TreeNode{m}
	} else {
		posA, posB := 0, 0
		m, err := mergeRange(b.CrossSection, &posA, other.CrossSection, &posB, width)
		if err != nil {
			return nil, err
		}
		mergedCross = m
	}

	var entropy *uint64
	if b.StaticEntropy != nil && other.StaticEntropy != nil && *b.StaticEntropy == *other.StaticEntropy {
		v := *b.StaticEntropy
		entropy = &v
	}

	return &Block{Depth: b.Depth, Cofactor: b.Cofactor, CrossSection: canonicalize(mergedCross), StaticEntropy: entropy}, nil
}

// Encode writes the block's canonical byte encoding: depth, cofactor, the
// cross-section entry count and entries, then an optional static entropy
// value (a presence byte followed by 8 bytes if present).
func (b *Block) Encode() []byte {
	w := strict.NewWriter(1 + 2 + 4 + len(b.CrossSection)*65 + 9)
	w.U8(uint8(b.Depth)).U16(b.Cofactor).U32(uint32(len(b.CrossSection)))
	for _, e := range b.CrossSection {
		w.Raw(e.encode())
	}
	if b.StaticEntropy != nil {
		w.U8(1).U64(*b.StaticEntropy)
	} else {
		w.U8(0)
	}
	return w.Bytes()
}

// DecodeBlock reads a Block from its canonical encoding, rejecting a depth
// outside [0, config.MaxDepth], a cross-section entry count outside
// [1, config.MaxCrossSectionEntries], an unrecognized entry tag, or a
// cross-section whose entries do not tile exactly 2^depth positions.
func DecodeBlock(data []byte) (*Block, error) {
	r := strict.NewReader(data)

	depthByte, err := r.U8()
	if err != nil {
		return nil, err
	}
	depth := Depth(depthByte)
	if !depth.Valid() {
		return nil, ErrDepthOutOfRange
	}

	cofactor, err := r.U16()
	if err != nil {
		return nil, err
	}

	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	if count == 0 || count > config.MaxCrossSectionEntries {
		return nil, ErrCrossSectionMalformed
	}

	cross := make([]TreeNode, count)
	var total uint64
	for i := range cross {
		tag, err := r.U8()
		if err != nil {
			return nil, err
		}
		switch treeNodeTag(tag) {
		case treeNodeTagConcealed:
			d, err := r.U8()
			if err != nil {
				return nil, err
			}
			if !Depth(d).Valid() {
				return nil, ErrDepthOutOfRange
			}
			h, err := r.Bytes32()
			if err != nil {
				return nil, err
			}
			cross[i] = ConcealedNode{Depth: Depth(d), Hash: merkle.Hash(h)}
		case treeNodeTagLeaf:
			p, err := r.Bytes32()
			if err != nil {
				return nil, err
			}
			m, err := r.Bytes32()
			if err != nil {
				return nil, err
			}
			cross[i] = CommitmentLeaf{Protocol: ProtocolID(p), Message: Message(m)}
		default:
			return nil, ErrCrossSectionMalformed
		}
		total += cross[i].width()
	}
	if total != uint64(depth.Width()) {
		return nil, ErrCrossSectionMalformed
	}

	presence, err := r.U8()
	if err != nil {
		return nil, err
	}
	var entropy *uint64
	switch presence {
	case 0:
	case 1:
		v, err := r.U64()
		if err != nil {
			return nil, err
		}
		entropy = &v
	default:
		return nil, ErrCrossSectionMalformed
	}

	return &Block{Depth: depth, Cofactor: cofactor, CrossSection: cross, StaticEntropy: entropy}, nil
}
