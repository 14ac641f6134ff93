/*
Package blobstore implements the Blob Store (BSTORE): content storage for
the compressed snapshot and delta payloads referenced by the change log.

Every non-DELETE CSet record has exactly one matching blob at identical
(repo, key_hash, time) coordinates; DELETE records have none. The store
never updates or removes a blob once written. Put at existing coordinates
succeeds only if the bytes are unchanged, and GetMany streams a requested
time sequence lazily so callers never materialize a whole chain's payload
set at once.
*/
package blobstore
