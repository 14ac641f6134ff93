/*
Package changelog implements the Change Log (CLOG): the append-only,
time-ordered record of every snapshot, delta, and delete applied to a
key within a repo.

Records are addressed by (repo, key_hash, time) and stored in bbolt under
that composite key so a single bucket cursor gives both the per-key chain
used to reconstruct a value and the whole-repo scan used to build an
index, without a secondary index structure.

Append is the only mutator and enforces monotonic time per key: a write
whose time does not strictly exceed the key's last recorded time fails
with errs.ErrNonMonotonic and leaves the log untouched.
*/
package changelog
