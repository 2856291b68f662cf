package merkle

import (
	"math/bits"

	"github.com/holiman/uint256"
)

// slotState tracks one position of a level being folded upward: its current
// hash, the number of real leaves in its subtree (its width), and whether it
// covers at least one real leaf at all.
type slotState struct {
	hash    Hash
	width   uint256.Int
	present bool
}

// depthFor returns ceil(log2(n)), with depthFor(1) == 0, matching the
// "perfect binary tree of depth d = ceil(log2 n)" rule of §4.4.
func depthFor(n int) uint8 {
	if n <= 1 {
		return 0
	}
	return uint8(bits.Len(uint(n - 1)))
}

// BuildTree Merklizes an ordered sequence of n >= 1 leaf hashes into a single
// root hash, following the pairing rule of §4.4: two real children combine
// into a Branch node, one real child paired with void becomes a Single node,
// two voids combine into a Void node. A lone leaf (n == 1) is lifted through
// exactly one Single node so the result is always a tagged node hash, never
// a raw leaf value — this is what keeps a leaf from ever being mistaken for
// a root.
func BuildTree(leaves []Hash) (Hash, error) {
	if len(leaves) == 0 {
		return Hash{}, ErrEmptyLeafSet
	}

	d := depthFor(len(leaves))
	width := 1 << d

	level := make([]slotState, width)
	for i := 0; i < width; i++ {
		if i < len(leaves) {
			one := *uint256.NewInt(1)
			level[i] = slotState{hash: leaves[i], width: one, present: true}
		} else {
			level[i] = slotState{hash: HVoid, present: false}
		}
	}

	if d == 0 {
		// Single-leaf lift: the only "combination" this tree ever performs.
		return NodeHash(Single, 0, &level[0].width, level[0].hash, HVoid), nil
	}

	for lvl := 0; lvl < int(d); lvl++ {
		next := make([]slotState, len(level)/2)
		for i := range next {
			left := level[2*i]
			right := level[2*i+1]
			switch {
			case left.present && right.present:
				w := new(uint256.Int).Add(&left.width, &right.width)
				h := NodeHash(Branch, uint8(lvl), w, left.hash, right.hash)
				next[i] = slotState{hash: h, width: *w, present: true}
			case left.present && !right.present:
				h := NodeHash(Single, uint8(lvl), &left.width, left.hash, HVoid)
				next[i] = slotState{hash: h, width: left.width, present: true}
			case !left.present && right.present:
				// Not reached when BuildTree is the only producer of `level`
				// (padding is always trailing), but handled for robustness
				// against any future caller that hands in a sparse slice.
				h := NodeHash(Single, uint8(lvl), &right.width, right.hash, HVoid)
				next[i] = slotState{hash: h, width: right.width, present: true}
			default:
				var zero uint256.Int
				h := NodeHash(Void, uint8(lvl), &zero, HVoid, HVoid)
				next[i] = slotState{hash: h, present: false}
			}
		}
		level = next
	}

	return level[0].hash, nil
}
