/*
Package types defines the core data structures shared by every component of
the revision storage engine: repo/key identifiers, change records, and the
statement-set value type that the Revision API reads and writes.

# Core Types

	Repo      : namespace identifier scoping all keys (opaque integer)
	KeyHash   : 20-byte SHA-1 digest of a key, the fixed-width identifier
	            used by the Hash Directory, Change Log, and Blob Store
	CSet      : one change record (snapshot, delta, or delete) at a time
	CSetType  : SnapshotType | DeltaType | DeleteType, stable on-disk values
	StatementSet : a set of RDF statement strings, keyed by byte content

# Usage

	hash := types.HashKey([]byte("https://example.org/alice"))
	stmts := types.NewStatementSet("<a> <b> <c> .", "<a> <b> <d> .")
	removed, added := prev.Diff(stmts)

# Integration Points

This package has no dependency on any other package in the module; it is
imported by pkg/hashdir, pkg/changelog, pkg/blobstore, pkg/delta, and
pkg/revision.
*/
package types
