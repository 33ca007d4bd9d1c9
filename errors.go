// Package score provides an addressable musical score tree with a movable
// edit cursor and a measurement-driven flow layout that packs measures into
// printable rows and pages.
package score

import (
	"errors"
	"fmt"
)

// Structure errors
var (
	// ErrStructuralViolation indicates the tree breaks one of its structural
	// invariants (an entry with both or neither event, ragged staves,
	// duplicate note positions). Seeing it after a mutation is an engine bug.
	ErrStructuralViolation = errors.New("structural violation")

	// ErrAddressNotFound indicates that an address does not resolve to a node.
	ErrAddressNotFound = errors.New("address not found")

	// ErrMalformedAddress indicates that an address key could not be parsed.
	ErrMalformedAddress = errors.New("malformed address key")
)

// Cursor errors
var (
	// ErrEmptyScore indicates that a cursor was requested over a tree with no entries.
	ErrEmptyScore = errors.New("score has no entries")
)

// Layout errors
var (
	// ErrLayoutDone indicates that a measurement arrived after the pass completed.
	ErrLayoutDone = errors.New("layout pass already complete")

	// ErrUnexpectedMeasurement indicates that a measurement arrived before any request was issued.
	ErrUnexpectedMeasurement = errors.New("measurement received without a pending request")

	// ErrStaveCount indicates that a measurement reported offsets for the wrong number of staves.
	ErrStaveCount = errors.New("measurement stave count mismatch")
)

// Storage errors
var (
	// ErrNotFound indicates that no snapshot is stored under a root id.
	ErrNotFound = errors.New("score not found")

	// ErrCorruptSnapshot indicates that a stored snapshot could not be decoded.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// Internal errors
var (
	// ErrInternal indicates an internal consistency error (should not happen).
	ErrInternal = errors.New("internal error")
)

// fault aborts the current operation when a guarantee the engine relies on
// has been broken. The panic value wraps ErrInternal.
func fault(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...)))
}

// violation builds an error wrapping ErrStructuralViolation.
func violation(addr Address, format string, args ...any) error {
	return fmt.Errorf("%w at %s: %s", ErrStructuralViolation, addr, fmt.Sprintf(format, args...))
}
