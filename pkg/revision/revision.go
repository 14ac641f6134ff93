// Package revision implements the Revision API (RAPI): the public
// put/delete/get_at/timemap/index_at operations, each orchestrating the
// hash directory, change log, blob store, and delta engine within one
// durable transaction.
package revision

import (
	"errors"
	"fmt"
	"iter"

	"github.com/cuemby/triplestore/pkg/blobstore"
	"github.com/cuemby/triplestore/pkg/changelog"
	"github.com/cuemby/triplestore/pkg/compress"
	"github.com/cuemby/triplestore/pkg/config"
	"github.com/cuemby/triplestore/pkg/delta"
	"github.com/cuemby/triplestore/pkg/errs"
	"github.com/cuemby/triplestore/pkg/hashdir"
	"github.com/cuemby/triplestore/pkg/log"
	"github.com/cuemby/triplestore/pkg/metrics"
	"github.com/cuemby/triplestore/pkg/store"
	"github.com/cuemby/triplestore/pkg/types"
	bolt "go.etcd.io/bbolt"
)

// PutOutcome is the non-error result of Put.
type PutOutcome int

const (
	// Created means the statement set differed from the previous state
	// and a new CSet record (snapshot or delta) was appended.
	Created PutOutcome = iota
	// Unchanged means the new statement set equaled the reconstructed
	// previous state; nothing was appended.
	Unchanged
)

func (o PutOutcome) String() string {
	if o == Created {
		return "created"
	}
	return "unchanged"
}

// Store is the revision engine's entry point: every public operation is
// a method on Store, each wrapping one store.Update or store.View call.
type Store struct {
	s     *store.Store
	snapf float64
}

// Open wires a revision Store on top of an already-open bolt database and
// the given configuration.
func Open(s *store.Store, cfg *config.Config) *Store {
	return &Store{s: s, snapf: cfg.SNAPF}
}

// Put encodes, decides, and appends a new CSet per the snapshot-vs-delta
// policy. Returns Created or Unchanged. Errors: errs.ErrNonMonotonic,
// errs.ErrCollision, errs.ErrCorruptChain.
func (rs *Store) Put(repo types.Repo, key []byte, ts int64, stmts types.StatementSet) (PutOutcome, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.PutDuration)

	hash := types.HashKey(key)
	logger := log.WithRepo(int64(repo))

	var outcome PutOutcome
	err := rs.s.Update(func(tx *bolt.Tx) error {
		if err := hashdir.Ensure(tx, hash, key); err != nil {
			return err
		}

		chain, err := changelog.ChainForWrite(tx, repo, hash)
		if err != nil {
			return err
		}
		if len(chain) > 0 && ts <= chain[len(chain)-1].Time {
			return fmt.Errorf("%w: time=%d <= last=%d", errs.ErrNonMonotonic, ts, chain[len(chain)-1].Time)
		}

		prev, baseLen, accDeltaLen, err := reconstructChain(tx, chain)
		if err != nil {
			return err
		}

		decision, unchanged, err := delta.Decide(chain, prev, stmts, baseLen, accDeltaLen, rs.snapf)
		if err != nil {
			return err
		}
		if unchanged {
			outcome = Unchanged
			return nil
		}

		if err := blobstore.Put(tx, repo, hash, ts, decision.Payload); err != nil {
			return err
		}
		if err := changelog.Append(tx, repo, hash, ts, decision.Type, uint32(len(decision.Payload))); err != nil {
			return err
		}

		metrics.CSetsWrittenTotal.WithLabelValues(decision.Type.String()).Inc()
		outcome = Created
		return nil
	})

	if err != nil {
		recordError(err)
		logger.Debug().Str("key_hash", hash.String()).Int64("ts", ts).Err(err).Msg("put failed")
		return 0, err
	}
	metrics.PutsTotal.WithLabelValues(outcome.String()).Inc()
	return outcome, nil
}

// Delete appends a DELETE record. Fails errs.ErrNonMonotonic if
// ts <= last.time, and errs.ErrNotFound if the most recent record is
// already a DELETE or the key has never been written.
func (rs *Store) Delete(repo types.Repo, key []byte, ts int64) error {
	hash := types.HashKey(key)

	err := rs.s.Update(func(tx *bolt.Tx) error {
		last, err := changelog.Last(tx, repo, hash)
		if err != nil {
			return err
		}
		if last.Type == types.DeleteType {
			return fmt.Errorf("%w: key already deleted", errs.ErrNotFound)
		}
		if err := changelog.Append(tx, repo, hash, ts, types.DeleteType, 0); err != nil {
			return err
		}
		metrics.CSetsWrittenTotal.WithLabelValues(types.DeleteType.String()).Inc()
		return nil
	})
	if err != nil {
		recordError(err)
		return err
	}
	metrics.DeletesTotal.Inc()
	return nil
}

// GetAt reconstructs the statement set live at ts. ok is false if the key
// has never been written at or before ts, or was deleted and not
// rewritten since.
func (rs *Store) GetAt(repo types.Repo, key []byte, ts int64) (stmts types.StatementSet, ok bool, err error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.GetAtDuration)

	hash := types.HashKey(key)
	err = rs.s.View(func(tx *bolt.Tx) error {
		chain, cErr := changelog.ChainForRead(tx, repo, hash, ts)
		if cErr != nil {
			return cErr
		}
		if len(chain) == 0 {
			return nil
		}
		metrics.ChainLength.Observe(float64(len(chain)))
		if chain[0].Type == types.DeleteType {
			return nil
		}

		blobs, bErr := loadBlobs(tx, repo, hash, chain)
		if bErr != nil {
			return bErr
		}
		state, rErr := delta.Reconstruct(blobs)
		if rErr != nil {
			return rErr
		}
		stmts, ok = state, true
		return nil
	})
	if err != nil {
		recordError(err)
		return nil, false, err
	}
	return stmts, ok, nil
}

// Timemap lazily yields every change time recorded for key, newest
// first.
func (rs *Store) Timemap(repo types.Repo, key []byte) iter.Seq2[int64, error] {
	hash := types.HashKey(key)
	return func(yield func(int64, error) bool) {
		err := rs.s.View(func(tx *bolt.Tx) error {
			for ts := range changelog.TimesDesc(tx, repo, hash) {
				if !yield(ts, nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(0, err)
		}
	}
}

// IndexAt lazily yields the original key bytes for every key live in repo
// at ts, in key_hash order, for the given page.
func (rs *Store) IndexAt(repo types.Repo, ts int64, page, pageSize int) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		err := rs.s.View(func(tx *bolt.Tx) error {
			hashes, err := changelog.Index(tx, repo, ts, page, pageSize)
			if err != nil {
				return err
			}
			for _, h := range hashes {
				key, err := hashdir.Lookup(tx, h)
				if err != nil {
					if !yield(nil, err) {
						return nil
					}
					continue
				}
				metrics.IndexKeysServedTotal.Inc()
				if !yield(key, nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

// reconstructChain folds chain into its statement set, the chain's base
// (first record) length, and the sum of its delta lengths: the three
// quantities delta.Decide needs. If chain is empty or begins with a
// DELETE, prev is returned as an empty set and both lengths as zero;
// delta.Decide ignores prev in that case.
func reconstructChain(tx *bolt.Tx, chain []types.CSet) (prev types.StatementSet, baseLen, accDeltaLen uint32, err error) {
	if len(chain) == 0 || chain[0].Type == types.DeleteType {
		return types.NewStatementSet(), 0, 0, nil
	}
	blobs, err := loadBlobs(tx, chain[0].Repo, chain[0].KeyHash, chain)
	if err != nil {
		return nil, 0, 0, err
	}
	prev, err = delta.Reconstruct(blobs)
	if err != nil {
		return nil, 0, 0, err
	}
	baseLen = chain[0].Len
	for _, c := range chain[1:] {
		accDeltaLen += c.Len
	}
	return prev, baseLen, accDeltaLen, nil
}

// loadBlobs resolves every blob referenced by chain, in order, decoding
// none of them: Reconstruct does that. Raw bytes stay deflate-compressed
// until delta.DecodeSnapshot/ApplyPatch inflate them.
func loadBlobs(tx *bolt.Tx, repo types.Repo, hash types.KeyHash, chain []types.CSet) ([]delta.Blob, error) {
	times := make([]int64, len(chain))
	for i, c := range chain {
		times[i] = c.Time
	}
	blobs := make([]delta.Blob, 0, len(chain))
	i := 0
	for data, err := range blobstore.GetMany(tx, repo, hash, times) {
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, delta.Blob{Type: chain[i].Type, Data: data})
		i++
	}
	return blobs, nil
}

func recordError(err error) {
	kind := "unknown"
	switch {
	case errors.Is(err, errs.ErrNonMonotonic):
		kind = "non_monotonic"
	case errors.Is(err, errs.ErrCollision):
		kind = "collision"
	case errors.Is(err, errs.ErrNotFound):
		kind = "not_found"
	case errors.Is(err, errs.ErrCorruptChain):
		kind = "corrupt_chain"
	case errors.Is(err, errs.ErrTransientStore):
		kind = "transient_store"
	}
	metrics.ErrorsTotal.WithLabelValues(kind).Inc()
}
