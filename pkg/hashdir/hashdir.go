package hashdir

import (
	"bytes"
	"fmt"

	"github.com/cuemby/triplestore/pkg/errs"
	"github.com/cuemby/triplestore/pkg/log"
	"github.com/cuemby/triplestore/pkg/metrics"
	"github.com/cuemby/triplestore/pkg/types"
	bolt "go.etcd.io/bbolt"
)

// Bucket is the bbolt bucket name backing the hash directory: key_hash ->
// original key bytes.
var Bucket = []byte("hmap")

// Ensure inserts the (hash, key) mapping if no mapping exists yet for
// hash. If a mapping already exists with the same key bytes, Ensure
// succeeds without writing anything (the mapping is write-once). If a
// mapping exists for a different key, Ensure returns errs.ErrCollision and
// writes nothing.
func Ensure(tx *bolt.Tx, hash types.KeyHash, key []byte) error {
	b := tx.Bucket(Bucket)
	existing := b.Get(hash[:])
	if existing == nil {
		return b.Put(hash[:], key)
	}
	if bytes.Equal(existing, key) {
		return nil
	}

	log.WithComponent("hashdir").Warn().
		Str("key_hash", hash.String()).
		Str("stored_key", truncate(existing)).
		Str("incoming_key", truncate(key)).
		Msg("hash collision detected, write refused")
	metrics.CollisionsTotal.Inc()
	return fmt.Errorf("%w: key_hash=%s", errs.ErrCollision, hash)
}

// Lookup resolves a key_hash back to the original key bytes. Returns
// errs.ErrNotFound if no mapping exists.
func Lookup(tx *bolt.Tx, hash types.KeyHash) ([]byte, error) {
	b := tx.Bucket(Bucket)
	v := b.Get(hash[:])
	if v == nil {
		return nil, fmt.Errorf("%w: key_hash=%s", errs.ErrNotFound, hash)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// truncate keeps log lines bounded when keys are large.
func truncate(key []byte) string {
	const maxLen = 64
	if len(key) <= maxLen {
		return string(key)
	}
	return string(key[:maxLen]) + "...(truncated)"
}
