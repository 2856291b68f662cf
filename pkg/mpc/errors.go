package mpc

import "errors"

var (
	// ErrCantFitInMaxSlots is returned when no cofactor makes the slot
	// function injective over the input protocol set at any depth up to
	// config.MaxDepth.
	ErrCantFitInMaxSlots = errors.New("mpc: no cofactor fits all protocols at any depth up to the maximum")

	// ErrDuplicateProtocol is returned when two input entries share the
	// same protocol ID.
	ErrDuplicateProtocol = errors.New("mpc: duplicate protocol id in input set")

	// ErrTooManyProtocols is returned when the input set exceeds
	// config.MaxMessages.
	ErrTooManyProtocols = errors.New("mpc: too many protocols for a single commitment")

	// ErrMergeMismatch is returned when two blocks cannot be merged: they
	// disagree on depth, cofactor, or root, or reveal conflicting messages
	// for the same protocol.
	ErrMergeMismatch = errors.New("mpc: blocks do not share a common commitment")

	// ErrProtocolAbsent is returned by Convolve when the protocol's slot is
	// concealed in this block.
	ErrProtocolAbsent = errors.New("mpc: protocol is concealed in this block")

	// ErrProtocolUnknown is returned by Convolve when the protocol's
	// computed slot holds a different leaf entirely (it was never
	// committed).
	ErrProtocolUnknown = errors.New("mpc: protocol was not committed")

	// ErrDepthOutOfRange is returned when a decoded depth falls outside
	// [0, config.MaxDepth].
	ErrDepthOutOfRange = errors.New("mpc: depth out of range")

	// ErrCrossSectionMalformed is returned when a block's cross-section does
	// not tile exactly 2^depth leaf positions.
	ErrCrossSectionMalformed = errors.New("mpc: cross-section does not tile the tree")

	// ErrSlotOutOfRange is returned when a tree's slot map has an entry
	// outside [0, 2^depth) or disagreeing with its messages map.
	ErrSlotOutOfRange = errors.New("mpc: slot map entry out of range")
)
