package merkle

import "errors"

// ErrInvalidBranching is returned when a decoded Branching discriminant is
// outside {Void, Single, Branch}.
var ErrInvalidBranching = errors.New("merkle: invalid branching discriminant")

// ErrEmptyLeafSet is returned by BuildTree when given zero leaves; the
// builder's precondition is n >= 1.
var ErrEmptyLeafSet = errors.New("merkle: tree builder requires at least one leaf")
