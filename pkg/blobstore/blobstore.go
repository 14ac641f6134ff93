// Package blobstore implements the Blob Store (BSTORE): compressed
// snapshot and delta payloads addressed by (repo, key_hash, time).
package blobstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/cuemby/triplestore/pkg/errs"
	"github.com/cuemby/triplestore/pkg/types"
	bolt "go.etcd.io/bbolt"
)

// Bucket is the bbolt bucket name backing blob storage. Keys are
// repo(8 BE) || hkey(20) || time(8 BE), matching changelog's CSet key
// layout so the two buckets can be joined by identical key bytes.
var Bucket = []byte("blob")

const (
	repoLen = 8
	hashLen = 20
	timeLen = 8
	keyLen  = repoLen + hashLen + timeLen
)

func encodeKey(repo types.Repo, hash types.KeyHash, t int64) []byte {
	buf := make([]byte, keyLen)
	binary.BigEndian.PutUint64(buf[0:repoLen], uint64(repo))
	copy(buf[repoLen:repoLen+hashLen], hash[:])
	binary.BigEndian.PutUint64(buf[repoLen+hashLen:], uint64(t))
	return buf
}

// Put stores data at (repo, hash, t). A put at coordinates already
// holding identical bytes is a no-op. A put at coordinates holding
// different bytes fails with errs.ErrCorruptChain: append-only storage
// must never observe the same coordinates used twice for different
// payloads.
func Put(tx *bolt.Tx, repo types.Repo, hash types.KeyHash, t int64, data []byte) error {
	b := tx.Bucket(Bucket)
	key := encodeKey(repo, hash, t)
	existing := b.Get(key)
	if existing == nil {
		return b.Put(key, data)
	}
	if bytes.Equal(existing, data) {
		return nil
	}
	return fmt.Errorf("%w: blob at repo=%d key_hash=%s time=%d already holds different bytes",
		errs.ErrCorruptChain, repo, hash, t)
}

// Get loads a single blob at exact coordinates. Returns errs.ErrCorruptChain
// if no blob is present; every non-DELETE CSet must have a matching blob.
func Get(tx *bolt.Tx, repo types.Repo, hash types.KeyHash, t int64) ([]byte, error) {
	b := tx.Bucket(Bucket)
	v := b.Get(encodeKey(repo, hash, t))
	if v == nil {
		return nil, fmt.Errorf("%w: missing blob at repo=%d key_hash=%s time=%d",
			errs.ErrCorruptChain, repo, hash, t)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// GetMany lazily streams the blobs at the given times, in the order the
// times are supplied. Each element is the raw (still compressed) payload
// bytes or an error. Iteration stops at the first error. The sequence is
// valid only for the lifetime of tx.
func GetMany(tx *bolt.Tx, repo types.Repo, hash types.KeyHash, times []int64) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		b := tx.Bucket(Bucket)
		for _, t := range times {
			v := b.Get(encodeKey(repo, hash, t))
			if v == nil {
				yield(nil, fmt.Errorf("%w: missing blob at repo=%d key_hash=%s time=%d",
					errs.ErrCorruptChain, repo, hash, t))
				return
			}
			out := make([]byte, len(v))
			copy(out, v)
			if !yield(out, nil) {
				return
			}
		}
	}
}
