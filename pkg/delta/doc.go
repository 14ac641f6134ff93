/*
Package delta implements the Delta Engine: patch encoding, chain
reconstruction, and the snapshot-vs-delta policy that bounds chain
length.

A statement set is encoded either as a snapshot (every statement,
sorted, newline-joined) or, relative to a known previous state, as a
patch (deletes then adds, each group sorted, "D "/"A " prefixed). Both
forms are deflate-compressed before they leave this package.

Decide is the policy from which every write's on-disk shape follows: it
forces a snapshot when the computed patch would not be smaller, or when
accumulated delta size has crossed SNAPF times the base snapshot size,
and falls back to a delta otherwise. A write whose new state equals the
reconstructed previous state is reported as unchanged and persists
nothing.
*/
package delta
