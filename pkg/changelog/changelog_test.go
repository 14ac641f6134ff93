package changelog

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/cuemby/triplestore/pkg/errs"
	"github.com/cuemby/triplestore/pkg/types"
	bolt "go.etcd.io/bbolt"
)

func openTestDB(t *testing.T) *bolt.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "changelog.db")
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		t.Fatalf("bolt.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(Bucket)
		return err
	})
	if err != nil {
		t.Fatalf("creating bucket: %v", err)
	}
	return db
}

func hashOf(t *testing.T, s string) types.KeyHash {
	t.Helper()
	return types.HashKey([]byte(s))
}

func TestAppendAndLast(t *testing.T) {
	db := openTestDB(t)
	hash := hashOf(t, "key-a")

	err := db.Update(func(tx *bolt.Tx) error {
		return Append(tx, 1, hash, 100, types.SnapshotType, 10)
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		got, err := Last(tx, 1, hash)
		if err != nil {
			return err
		}
		if got.Time != 100 || got.Type != types.SnapshotType || got.Len != 10 {
			t.Errorf("Last() = %+v, want Time=100 Type=SnapshotType Len=10", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestAppendRejectsNonMonotonic(t *testing.T) {
	db := openTestDB(t)
	hash := hashOf(t, "key-a")

	err := db.Update(func(tx *bolt.Tx) error {
		return Append(tx, 1, hash, 100, types.SnapshotType, 10)
	})
	if err != nil {
		t.Fatalf("first Append() error = %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		return Append(tx, 1, hash, 100, types.DeltaType, 4)
	})
	if !errors.Is(err, errs.ErrNonMonotonic) {
		t.Fatalf("Append() with equal time error = %v, want errs.ErrNonMonotonic", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		return Append(tx, 1, hash, 50, types.DeltaType, 4)
	})
	if !errors.Is(err, errs.ErrNonMonotonic) {
		t.Fatalf("Append() with earlier time error = %v, want errs.ErrNonMonotonic", err)
	}
}

func TestLastNotFound(t *testing.T) {
	db := openTestDB(t)
	hash := hashOf(t, "never-written")

	err := db.View(func(tx *bolt.Tx) error {
		_, err := Last(tx, 1, hash)
		return err
	})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Last() error = %v, want errs.ErrNotFound", err)
	}
}

func TestChainForReadSnapshotThenDeltas(t *testing.T) {
	db := openTestDB(t)
	hash := hashOf(t, "key-a")

	err := db.Update(func(tx *bolt.Tx) error {
		if err := Append(tx, 1, hash, 100, types.SnapshotType, 10); err != nil {
			return err
		}
		if err := Append(tx, 1, hash, 110, types.DeltaType, 3); err != nil {
			return err
		}
		return Append(tx, 1, hash, 120, types.DeltaType, 2)
	})
	if err != nil {
		t.Fatalf("seeding Append() error = %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		chain, err := ChainForRead(tx, 1, hash, 120)
		if err != nil {
			return err
		}
		if len(chain) != 3 {
			t.Fatalf("ChainForRead() len = %d, want 3", len(chain))
		}
		wantTimes := []int64{100, 110, 120}
		for i, w := range wantTimes {
			if chain[i].Time != w {
				t.Errorf("chain[%d].Time = %d, want %d", i, chain[i].Time, w)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestChainForReadStopsAtRequestedTime(t *testing.T) {
	db := openTestDB(t)
	hash := hashOf(t, "key-a")

	err := db.Update(func(tx *bolt.Tx) error {
		if err := Append(tx, 1, hash, 100, types.SnapshotType, 10); err != nil {
			return err
		}
		if err := Append(tx, 1, hash, 110, types.DeltaType, 3); err != nil {
			return err
		}
		return Append(tx, 1, hash, 120, types.DeltaType, 2)
	})
	if err != nil {
		t.Fatalf("seeding Append() error = %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		chain, err := ChainForRead(tx, 1, hash, 110)
		if err != nil {
			return err
		}
		if len(chain) != 2 {
			t.Fatalf("ChainForRead(ts=110) len = %d, want 2", len(chain))
		}
		if chain[len(chain)-1].Time != 110 {
			t.Errorf("last chain entry Time = %d, want 110", chain[len(chain)-1].Time)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestChainForReadBeforeAnyWrite(t *testing.T) {
	db := openTestDB(t)
	hash := hashOf(t, "key-a")

	err := db.Update(func(tx *bolt.Tx) error {
		return Append(tx, 1, hash, 100, types.SnapshotType, 10)
	})
	if err != nil {
		t.Fatalf("seeding Append() error = %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		chain, err := ChainForRead(tx, 1, hash, 50)
		if err != nil {
			return err
		}
		if chain != nil {
			t.Errorf("ChainForRead(ts=50) = %v, want nil", chain)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestChainForReadReturnsSingleDeleteRecord(t *testing.T) {
	db := openTestDB(t)
	hash := hashOf(t, "key-a")

	err := db.Update(func(tx *bolt.Tx) error {
		if err := Append(tx, 1, hash, 100, types.SnapshotType, 10); err != nil {
			return err
		}
		return Append(tx, 1, hash, 110, types.DeleteType, 0)
	})
	if err != nil {
		t.Fatalf("seeding Append() error = %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		chain, err := ChainForRead(tx, 1, hash, 200)
		if err != nil {
			return err
		}
		if len(chain) != 1 || chain[0].Type != types.DeleteType {
			t.Errorf("ChainForRead() after delete = %+v, want single DeleteType record", chain)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestChainForWriteMatchesLatest(t *testing.T) {
	db := openTestDB(t)
	hash := hashOf(t, "key-a")

	err := db.Update(func(tx *bolt.Tx) error {
		if err := Append(tx, 1, hash, 100, types.SnapshotType, 10); err != nil {
			return err
		}
		return Append(tx, 1, hash, 110, types.DeltaType, 3)
	})
	if err != nil {
		t.Fatalf("seeding Append() error = %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		chain, err := ChainForWrite(tx, 1, hash)
		if err != nil {
			return err
		}
		if len(chain) != 2 {
			t.Fatalf("ChainForWrite() len = %d, want 2", len(chain))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestTimesDescOrder(t *testing.T) {
	db := openTestDB(t)
	hash := hashOf(t, "key-a")

	err := db.Update(func(tx *bolt.Tx) error {
		for _, ts := range []int64{100, 110, 120} {
			typ := types.DeltaType
			if ts == 100 {
				typ = types.SnapshotType
			}
			if err := Append(tx, 1, hash, ts, typ, 1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seeding Append() error = %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		var got []int64
		for ts := range TimesDesc(tx, 1, hash) {
			got = append(got, ts)
		}
		want := []int64{120, 110, 100}
		if len(got) != len(want) {
			t.Fatalf("TimesDesc() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("TimesDesc()[%d] = %d, want %d", i, got[i], want[i])
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestTimesDescStopsEarly(t *testing.T) {
	db := openTestDB(t)
	hash := hashOf(t, "key-a")

	err := db.Update(func(tx *bolt.Tx) error {
		for _, ts := range []int64{100, 110, 120} {
			typ := types.DeltaType
			if ts == 100 {
				typ = types.SnapshotType
			}
			if err := Append(tx, 1, hash, ts, typ, 1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seeding Append() error = %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		var got []int64
		for ts := range TimesDesc(tx, 1, hash) {
			got = append(got, ts)
			if len(got) == 1 {
				break
			}
		}
		if len(got) != 1 || got[0] != 120 {
			t.Errorf("TimesDesc() early break = %v, want [120]", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestIndexSkipsDeletedKeys(t *testing.T) {
	db := openTestDB(t)
	hashA := hashOf(t, "key-a")
	hashB := hashOf(t, "key-b")
	hashC := hashOf(t, "key-c")

	err := db.Update(func(tx *bolt.Tx) error {
		if err := Append(tx, 1, hashA, 100, types.SnapshotType, 1); err != nil {
			return err
		}
		if err := Append(tx, 1, hashB, 100, types.SnapshotType, 1); err != nil {
			return err
		}
		if err := Append(tx, 1, hashB, 150, types.DeleteType, 0); err != nil {
			return err
		}
		return Append(tx, 1, hashC, 100, types.SnapshotType, 1)
	})
	if err != nil {
		t.Fatalf("seeding Append() error = %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		live, err := Index(tx, 1, 200, 0, 10)
		if err != nil {
			return err
		}
		if len(live) != 2 {
			t.Fatalf("Index() len = %d, want 2 (hashB deleted)", len(live))
		}
		for _, h := range live {
			if h == hashB {
				t.Errorf("Index() included deleted key %s", h)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestIndexRespectsAsOfTime(t *testing.T) {
	db := openTestDB(t)
	hash := hashOf(t, "key-a")

	err := db.Update(func(tx *bolt.Tx) error {
		return Append(tx, 1, hash, 100, types.SnapshotType, 1)
	})
	if err != nil {
		t.Fatalf("seeding Append() error = %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		live, err := Index(tx, 1, 50, 0, 10)
		if err != nil {
			return err
		}
		if len(live) != 0 {
			t.Errorf("Index(ts=50) = %v, want empty (key written at 100)", live)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestIndexPagination(t *testing.T) {
	db := openTestDB(t)

	err := db.Update(func(tx *bolt.Tx) error {
		for i := 0; i < 5; i++ {
			h := hashOf(t, string(rune('a'+i)))
			if err := Append(tx, 1, h, 100, types.SnapshotType, 1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seeding Append() error = %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		page0, err := Index(tx, 1, 200, 0, 2)
		if err != nil {
			return err
		}
		if len(page0) != 2 {
			t.Fatalf("page 0 len = %d, want 2", len(page0))
		}
		page2, err := Index(tx, 1, 200, 2, 2)
		if err != nil {
			return err
		}
		if len(page2) != 1 {
			t.Fatalf("page 2 len = %d, want 1", len(page2))
		}
		page3, err := Index(tx, 1, 200, 3, 2)
		if err != nil {
			return err
		}
		if len(page3) != 0 {
			t.Fatalf("page 3 len = %d, want 0", len(page3))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestRepoIsolation(t *testing.T) {
	db := openTestDB(t)
	hash := hashOf(t, "key-a")

	err := db.Update(func(tx *bolt.Tx) error {
		if err := Append(tx, 1, hash, 100, types.SnapshotType, 1); err != nil {
			return err
		}
		return Append(tx, 2, hash, 100, types.SnapshotType, 1)
	})
	if err != nil {
		t.Fatalf("seeding Append() error = %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		got1, err := Last(tx, 1, hash)
		if err != nil {
			return err
		}
		got2, err := Last(tx, 2, hash)
		if err != nil {
			return err
		}
		if got1.Repo != 1 || got2.Repo != 2 {
			t.Errorf("repo isolation broken: got1.Repo=%d got2.Repo=%d", got1.Repo, got2.Repo)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}
