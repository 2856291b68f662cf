package mpc

import "encoding/binary"

// Slot computes the deterministic slot a protocol ID maps to at a given
// width: interpret the protocol ID's first two bytes as a big-endian u16,
// XOR with cofactor, reduce modulo width.
func Slot(pid ProtocolID, cofactor uint16, width uint32) uint32 {
	first2 := binary.BigEndian.Uint16(pid[:2])
	x := uint32(first2 ^ cofactor)
	return x % width
}

// findCofactor returns the smallest cofactor in [0, 65535] for which
// pid -> Slot(pid, cofactor, width) is injective over pids, or false if none
// exists. It builds a flat slot bucket per trial and exits at the first
// duplicate, per the performance note in §9: cofactor trials are
// independent and safe to parallelize, but for the typical protocol-set
// sizes here a sequential scan is already fast.
func findCofactor(pids []ProtocolID, width uint32) (uint16, bool) {
	seen := make(map[uint32]struct{}, len(pids))
	for cofactor := 0; cofactor <= 0xFFFF; cofactor++ {
		clear(seen)
		injective := true
		for _, pid := range pids {
			s := Slot(pid, uint16(cofactor), width)
			if _, dup := seen[s]; dup {
				injective = false
				break
			}
			seen[s] = struct{}{}
		}
		if injective {
			return uint16(cofactor), true
		}
	}
	return 0, false
}
