// Package errs declares the sentinel error kinds surfaced by the revision
// storage engine. Every mutating or reading operation returns one of these
// (wrapped with additional context via %w) instead of an ad hoc error
// string, so callers can branch on outcome with errors.Is.
package errs

import "errors"

var (
	// ErrNonMonotonic is returned when a put or delete is attempted with a
	// timestamp that is not strictly greater than the last recorded
	// timestamp for the (repo, key).
	ErrNonMonotonic = errors.New("revision: timestamp is not strictly greater than the last recorded time")

	// ErrCollision is returned when two distinct keys hash to the same
	// KeyHash. The write that triggers this is refused; existing data for
	// the key already on file is left untouched.
	ErrCollision = errors.New("revision: hash collision between distinct keys")

	// ErrNotFound is returned by delete when there is no prior record for
	// the key, or the most recent record is already a delete.
	ErrNotFound = errors.New("revision: no prior record for key")

	// ErrCorruptChain is returned when a chain cannot be reconstructed: a
	// missing blob for a non-delete CSet, or a malformed patch line.
	ErrCorruptChain = errors.New("revision: corrupt or incomplete change chain")

	// ErrTransientStore wraps an underlying storage error considered safe
	// to retry a bounded number of times.
	ErrTransientStore = errors.New("revision: transient storage error")
)
