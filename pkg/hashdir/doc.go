/*
Package hashdir implements the Hash Directory (HDIR): a write-once mapping
from a key's 20-byte SHA-1 digest back to the original key bytes.

The directory exists because clients address resources by opaque,
potentially large keys; the engine persists the hash-to-key mapping once
and never again pays key-size cost in the hot path. Every other
component indexes by KeyHash.

Ensure is the only way a mapping is created, and it never mutates an
existing mapping: a second Ensure call with the same hash but a different
key is a collision and is refused, leaving the first key's data intact.
*/
package hashdir
