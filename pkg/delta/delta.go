// Package delta implements the Delta Engine (DELTA): the line-oriented
// patch format, chain reconstruction, and the snapshot-vs-delta policy
// that keeps chain length bounded.
package delta

import (
	"fmt"
	"strings"

	"github.com/cuemby/triplestore/pkg/compress"
	"github.com/cuemby/triplestore/pkg/errs"
	"github.com/cuemby/triplestore/pkg/types"
)

const (
	addPrefix    = "A "
	removePrefix = "D "
)

// EncodeSnapshot renders stmts as the compressed bytes of a snapshot
// blob: every statement, lexicographically sorted, joined by "\n".
func EncodeSnapshot(stmts types.StatementSet) ([]byte, error) {
	text := types.Join(stmts.Sorted())
	return compress.Compress(text)
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(blob []byte) (types.StatementSet, error) {
	text, err := compress.Decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("delta: decode snapshot: %w", err)
	}
	return linesToSet(text), nil
}

// linesToSet splits \n-joined text into a StatementSet, tolerating both
// an absent trailing newline and an empty payload (zero statements).
func linesToSet(text []byte) types.StatementSet {
	if len(text) == 0 {
		return types.NewStatementSet()
	}
	return types.NewStatementSet(strings.Split(string(text), "\n")...)
}

// EncodePatch renders the transition from prev to next as the compressed
// bytes of a patch blob: "D <stmt>" lines for statements removed,
// "A <stmt>" lines for statements added, deletes before adds, each group
// lexicographically sorted.
func EncodePatch(prev, next types.StatementSet) ([]byte, error) {
	removed, added := prev.Diff(next)
	lines := make([]string, 0, len(removed)+len(added))
	for _, s := range removed {
		lines = append(lines, removePrefix+s)
	}
	for _, s := range added {
		lines = append(lines, addPrefix+s)
	}
	return compress.Compress(types.Join(lines))
}

// ApplyPatch decompresses blob and applies its A/D lines to base,
// returning the resulting set. base is not mutated. A line with neither
// prefix fails errs.ErrCorruptChain.
func ApplyPatch(base types.StatementSet, blob []byte) (types.StatementSet, error) {
	text, err := compress.Decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("delta: decompress patch: %w", err)
	}
	out := base.Clone()
	if len(text) == 0 {
		return out, nil
	}
	for _, line := range strings.Split(string(text), "\n") {
		switch {
		case strings.HasPrefix(line, addPrefix):
			out.Add(strings.TrimPrefix(line, addPrefix))
		case strings.HasPrefix(line, removePrefix):
			out.Remove(strings.TrimPrefix(line, removePrefix))
		default:
			return nil, fmt.Errorf("%w: malformed patch line %q", errs.ErrCorruptChain, line)
		}
	}
	return out, nil
}

// Blob pairs a CSet's type with its raw (still compressed) payload, the
// shape Reconstruct needs from BSTORE for each link in a chain.
type Blob struct {
	Type types.CSetType
	Data []byte
}

// Reconstruct folds a chain of blobs (one snapshot followed by zero or
// more deltas, in ascending time order) into the statement set it
// represents. A chain whose first element is not a snapshot fails
// errs.ErrCorruptChain.
func Reconstruct(chain []Blob) (types.StatementSet, error) {
	if len(chain) == 0 {
		return types.NewStatementSet(), nil
	}
	if chain[0].Type != types.SnapshotType {
		return nil, fmt.Errorf("%w: chain does not begin with a snapshot", errs.ErrCorruptChain)
	}
	state, err := DecodeSnapshot(chain[0].Data)
	if err != nil {
		return nil, err
	}
	for _, link := range chain[1:] {
		if link.Type != types.DeltaType {
			return nil, fmt.Errorf("%w: chain contains a non-delta after its snapshot", errs.ErrCorruptChain)
		}
		state, err = ApplyPatch(state, link.Data)
		if err != nil {
			return nil, err
		}
	}
	return state, nil
}

// Decision is the outcome of Decide: store a snapshot or a delta, with
// the already-compressed bytes to persist.
type Decision struct {
	Type    types.CSetType
	Payload []byte
}

// Decide implements the snapshot-vs-delta policy of §4.4.3: given the
// current write chain for a key (c0 a snapshot or the chain empty or
// starting with a delete; c1..cm deltas) and the new statement set,
// decide whether to persist a snapshot or a delta, and whether the write
// is a no-op because the state is unchanged.
//
// prev is the state reconstructed from chain (ignored, and may be nil, if
// chain is empty or chain[0].Type == DELETE). baseLen and accDeltaLen are
// chain[0].Len and the sum of chain[1:]'s Len respectively.
func Decide(chain []types.CSet, prev types.StatementSet, next types.StatementSet, baseLen, accDeltaLen uint32, snapf float64) (Decision, bool, error) {
	if len(chain) == 0 || chain[0].Type == types.DeleteType {
		snap, err := EncodeSnapshot(next)
		if err != nil {
			return Decision{}, false, err
		}
		return Decision{Type: types.SnapshotType, Payload: snap}, false, nil
	}

	if prev.Equal(next) {
		return Decision{}, true, nil
	}

	snap, err := EncodeSnapshot(next)
	if err != nil {
		return Decision{}, false, err
	}
	patch, err := EncodePatch(prev, next)
	if err != nil {
		return Decision{}, false, err
	}

	acc := uint64(accDeltaLen) + uint64(len(patch))
	forceSnapshot := uint64(len(snap)) <= uint64(len(patch)) ||
		snapf*float64(baseLen) <= float64(acc)

	if forceSnapshot {
		return Decision{Type: types.SnapshotType, Payload: snap}, false, nil
	}
	return Decision{Type: types.DeltaType, Payload: patch}, false, nil
}
