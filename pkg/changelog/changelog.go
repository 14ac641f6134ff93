// Package changelog implements the Change Log (CLOG): the append-only,
// per-(repo, key_hash) ordered record of change events backing spec §4.2.
package changelog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/cuemby/triplestore/pkg/errs"
	"github.com/cuemby/triplestore/pkg/types"
	bolt "go.etcd.io/bbolt"
)

// Bucket is the bbolt bucket name backing the change log. Keys are
// repo(8 BE) || hkey(20) || time(8 BE); values are type(1 byte) ||
// len(4 BE). bbolt's lexicographic key ordering gives the
// (repo, hkey, time) primary ordering index spec.md §3 requires, for free.
var Bucket = []byte("cset")

const (
	repoLen = 8
	hashLen = 20
	timeLen = 8
	keyLen  = repoLen + hashLen + timeLen
	valLen  = 1 + 4
)

func encodeKey(repo types.Repo, hash types.KeyHash, t int64) []byte {
	buf := make([]byte, keyLen)
	binary.BigEndian.PutUint64(buf[0:repoLen], uint64(repo))
	copy(buf[repoLen:repoLen+hashLen], hash[:])
	binary.BigEndian.PutUint64(buf[repoLen+hashLen:], uint64(t))
	return buf
}

func decodeKey(k []byte) (repo types.Repo, hash types.KeyHash, t int64) {
	repo = types.Repo(binary.BigEndian.Uint64(k[0:repoLen]))
	copy(hash[:], k[repoLen:repoLen+hashLen])
	t = int64(binary.BigEndian.Uint64(k[repoLen+hashLen:]))
	return repo, hash, t
}

func encodeVal(typ types.CSetType, length uint32) []byte {
	buf := make([]byte, valLen)
	buf[0] = byte(typ)
	binary.BigEndian.PutUint32(buf[1:], length)
	return buf
}

func decodeVal(v []byte) (types.CSetType, uint32) {
	return types.CSetType(v[0]), binary.BigEndian.Uint32(v[1:])
}

func prefixForKey(repo types.Repo, hash types.KeyHash) []byte {
	buf := make([]byte, repoLen+hashLen)
	binary.BigEndian.PutUint64(buf[0:repoLen], uint64(repo))
	copy(buf[repoLen:], hash[:])
	return buf
}

func prefixForRepo(repo types.Repo) []byte {
	buf := make([]byte, repoLen)
	binary.BigEndian.PutUint64(buf, uint64(repo))
	return buf
}

func toCSet(k, v []byte) types.CSet {
	repo, hash, t := decodeKey(k)
	typ, length := decodeVal(v)
	return types.CSet{Repo: repo, KeyHash: hash, Time: t, Type: typ, Len: length}
}

// Append adds a new CSet record. It fails with errs.ErrNonMonotonic if
// time is not strictly greater than the last recorded time for
// (repo, hash).
func Append(tx *bolt.Tx, repo types.Repo, hash types.KeyHash, t int64, typ types.CSetType, length uint32) error {
	last, err := Last(tx, repo, hash)
	if err != nil && err != errs.ErrNotFound {
		return err
	}
	if err == nil && t <= last.Time {
		return fmt.Errorf("%w: time=%d <= last=%d", errs.ErrNonMonotonic, t, last.Time)
	}
	b := tx.Bucket(Bucket)
	return b.Put(encodeKey(repo, hash, t), encodeVal(typ, length))
}

// Last returns the most recent CSet record for (repo, hash), or
// errs.ErrNotFound if the key has never been written.
func Last(tx *bolt.Tx, repo types.Repo, hash types.KeyHash) (types.CSet, error) {
	prefix := prefixForKey(repo, hash)
	c := tx.Bucket(Bucket).Cursor()
	k, v := seekLastWithPrefix(c, prefix)
	if k == nil {
		return types.CSet{}, errs.ErrNotFound
	}
	return toCSet(k, v), nil
}

// seekLastWithPrefix positions a cursor at the greatest key sharing
// prefix, or returns (nil, nil) if there is none.
func seekLastWithPrefix(c *bolt.Cursor, prefix []byte) (k, v []byte) {
	upper := upperBound(prefix)
	k, v = c.Seek(upper)
	if k == nil {
		k, v = c.Last()
	} else {
		k, v = c.Prev()
	}
	if k == nil || !bytes.HasPrefix(k, prefix) {
		return nil, nil
	}
	return k, v
}

// upperBound returns a key strictly greater than every key starting with
// prefix, for use as a cursor.Seek exclusive upper bound.
func upperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix)+timeLen)
	copy(upper, prefix)
	for i := len(prefix); i < len(upper); i++ {
		upper[i] = 0xff
	}
	return upper
}

// ChainForRead returns the chain needed to reconstruct (repo, hash)'s
// state at ts: the most recent non-delta record at or before ts, followed
// by every delta up to and including ts, in ascending time order. Returns
// an empty slice if the key was never written at or before ts. If the
// most recent non-delta at or before ts is a DELETE, the returned chain
// is that single record.
func ChainForRead(tx *bolt.Tx, repo types.Repo, hash types.KeyHash, ts int64) ([]types.CSet, error) {
	prefix := prefixForKey(repo, hash)
	c := tx.Bucket(Bucket).Cursor()

	k, v := seekAtMost(c, prefix, ts)
	if k == nil {
		return nil, nil
	}

	// Walk backward until we find the last non-delta at or before ts.
	nonDeltaKey, nonDeltaVal := k, v
	for {
		typ, _ := decodeVal(nonDeltaVal)
		if typ != types.DeltaType {
			break
		}
		pk, pv := c.Prev()
		if pk == nil || !bytes.HasPrefix(pk, prefix) {
			// A delta with no preceding non-delta violates invariant 3;
			// treat as corrupt rather than silently return a partial
			// chain.
			return nil, fmt.Errorf("%w: delta at time=%d has no preceding snapshot",
				errs.ErrCorruptChain, toCSet(nonDeltaKey, nonDeltaVal).Time)
		}
		nonDeltaKey, nonDeltaVal = pk, pv
	}

	nonDelta := toCSet(nonDeltaKey, nonDeltaVal)
	if nonDelta.Type == types.DeleteType {
		return []types.CSet{nonDelta}, nil
	}

	// Forward-scan from the non-delta position through ts, inclusive.
	var chain []types.CSet
	for k, v := c.Seek(nonDeltaKey); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		cs := toCSet(k, v)
		if cs.Time > ts {
			break
		}
		chain = append(chain, cs)
	}
	return chain, nil
}

// seekAtMost positions a cursor at the greatest key with the given prefix
// whose time is <= ts, or returns (nil, nil) if there is none.
func seekAtMost(c *bolt.Cursor, prefix []byte, ts int64) (k, v []byte) {
	target := make([]byte, len(prefix)+timeLen)
	copy(target, prefix)
	binary.BigEndian.PutUint64(target[len(prefix):], uint64(ts))

	k, v = c.Seek(target)
	if k != nil && bytes.Equal(k, target) {
		return k, v
	}
	if k == nil {
		k, v = c.Last()
	} else {
		k, v = c.Prev()
	}
	if k == nil || !bytes.HasPrefix(k, prefix) {
		return nil, nil
	}
	return k, v
}

// ChainForWrite returns the same shape as ChainForRead but with no upper
// bound on time: the chain ending at the most recent record for
// (repo, hash). Used to size the current delta chain when deciding
// snapshot-vs-delta. Returns an empty slice if the key has never been
// written.
func ChainForWrite(tx *bolt.Tx, repo types.Repo, hash types.KeyHash) ([]types.CSet, error) {
	last, err := Last(tx, repo, hash)
	if err != nil {
		if err == errs.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return ChainForRead(tx, repo, hash, last.Time)
}

// TimesDesc lazily yields every change time recorded for (repo, hash),
// newest first. The returned sequence is valid only for the lifetime of
// tx.
func TimesDesc(tx *bolt.Tx, repo types.Repo, hash types.KeyHash) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		prefix := prefixForKey(repo, hash)
		c := tx.Bucket(Bucket).Cursor()
		k, _ := seekLastWithPrefix(c, prefix)
		for k != nil && bytes.HasPrefix(k, prefix) {
			_, _, t := decodeKey(k)
			if !yield(t) {
				return
			}
			k, _ = c.Prev()
		}
	}
}

// Index returns the key hashes in repo whose most recent record at or
// before ts is not a DELETE, paginated in key_hash order. page is
// zero-indexed.
func Index(tx *bolt.Tx, repo types.Repo, ts int64, page, pageSize int) ([]types.KeyHash, error) {
	prefix := prefixForRepo(repo)
	c := tx.Bucket(Bucket).Cursor()

	var live []types.KeyHash
	var curHash types.KeyHash
	var curHashSet bool
	var best *types.CSet

	flush := func() {
		if curHashSet && best != nil && best.Type != types.DeleteType {
			live = append(live, curHash)
		}
	}

	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		_, hash, t := decodeKey(k)
		if !curHashSet || hash != curHash {
			flush()
			curHash, curHashSet, best = hash, true, nil
		}
		if t <= ts {
			cs := toCSet(k, v)
			best = &cs
		}
	}
	flush()

	start := page * pageSize
	if start >= len(live) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(live) {
		end = len(live)
	}
	return live[start:end], nil
}
