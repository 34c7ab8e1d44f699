package kmerdb

import (
	"path/filepath"
	"testing"
)

type backendCase struct {
	name string
	// artifact returns the base name of a container in a fresh location.
	new func(t testing.TB) (Backend, string)
}

var backendCases = []backendCase{
	{"bolt", func(t testing.TB) (Backend, string) {
		return BoltBackend{}, filepath.Join(t.TempDir(), "graph")
	}},
	{"mem", func(t testing.TB) (Backend, string) {
		return NewMemBackend(), "graph"
	}},
}

func forEachBackend(t *testing.T, f func(t *testing.T, opt Options, name string)) {
	for _, bc := range backendCases {
		t.Run(bc.name, func(t *testing.T) {
			backend, name := bc.new(t)
			f(t, Options{Backend: backend, IsTesting: true}, name)
		})
	}
}

func openStorage(t *testing.T, opt Options, name string) Storage {
	t.Helper()
	opt.setDefaults()
	s := must(opt.Backend.Open(name+opt.Backend.Suffix(), &opt))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage_NestedBuckets(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opt Options, name string) {
		s := openStorage(t, opt, name)

		ensure(update(s, func(tx StorageTx) error {
			_, err := tx.CreateBucket([]string{"a", "b", "c"})
			if err != nil {
				return err
			}
			_, err = tx.CreateBucket([]string{"a", "x"})
			return err
		}))

		ensure(view(s, func(tx StorageTx) error {
			deepEqual(t, tx.Buckets(nil), []string{"a"})
			deepEqual(t, tx.Buckets([]string{"a"}), []string{"b", "x"})
			deepEqual(t, tx.Buckets([]string{"a", "b"}), []string{"c"})
			isempty(t, tx.Buckets([]string{"a", "b", "c"}))
			if got := tx.Buckets([]string{"missing"}); got != nil {
				t.Errorf("Buckets(missing) = %v, wanted nil", got)
			}
			if tx.Bucket([]string{"a", "missing"}) != nil {
				t.Errorf("Bucket(a/missing) != nil")
			}
			if tx.Bucket([]string{"a", "b", "c"}) == nil {
				t.Errorf("Bucket(a/b/c) = nil")
			}
			return nil
		}))

		ensure(update(s, func(tx StorageTx) error {
			return tx.DeleteBucket([]string{"a", "b"})
		}))
		ensure(view(s, func(tx StorageTx) error {
			deepEqual(t, tx.Buckets([]string{"a"}), []string{"x"})
			if tx.Bucket([]string{"a", "b", "c"}) != nil {
				t.Errorf("Bucket(a/b/c) survived deletion of a/b")
			}
			return nil
		}))

		err := update(s, func(tx StorageTx) error {
			return tx.DeleteBucket([]string{"a", "b"})
		})
		iserr(t, err, ErrBucketNotFound)
	})
}

func TestStorage_KeysSkipNestedBuckets(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opt Options, name string) {
		s := openStorage(t, opt, name)
		ensure(update(s, func(tx StorageTx) error {
			b, err := tx.CreateBucket([]string{"g"})
			if err != nil {
				return err
			}
			if err := b.Put([]byte("k"), []byte("v")); err != nil {
				return err
			}
			_, err = tx.CreateBucket([]string{"g", "child"})
			return err
		}))
		ensure(view(s, func(tx StorageTx) error {
			deepEqual(t, tx.Buckets([]string{"g"}), []string{"child"})
			deepEqual(t, tx.Bucket([]string{"g"}).Get([]byte("k")), []byte("v"))
			return nil
		}))
	})
}

func TestStorage_CursorSeekLast(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opt Options, name string) {
		s := openStorage(t, opt, name)
		ensure(update(s, func(tx StorageTx) error {
			b := must(tx.CreateBucket([]string{"b"}))
			for _, k := range [][]byte{{0x10, 0x01}, {0x10, 0x02}, {0x10, 0x03}, {0x11, 0x01}, {0xFF, 0x01}} {
				if err := b.Put(k, []byte{k[1]}); err != nil {
					return err
				}
			}
			return nil
		}))

		ensure(view(s, func(tx StorageTx) error {
			cur := tx.Bucket([]string{"b"}).Cursor()

			k, _ := cur.SeekLast([]byte{0x10})
			deepEqual(t, k, []byte{0x10, 0x03})
			k, _ = cur.Next()
			deepEqual(t, k, []byte{0x11, 0x01})

			// no key has the prefix: last key before it
			k, _ = cur.SeekLast([]byte{0x12})
			deepEqual(t, k, []byte{0x11, 0x01})

			k, _ = cur.SeekLast([]byte{0xFF})
			deepEqual(t, k, []byte{0xFF, 0x01})

			k, _ = cur.SeekLast([]byte{0x01})
			deepEqual(t, k, []byte(nil))

			k, _ = cur.Seek([]byte{0x10, 0x02})
			deepEqual(t, k, []byte{0x10, 0x02})
			k, _ = cur.Prev()
			deepEqual(t, k, []byte{0x10, 0x01})

			k, _ = cur.Last()
			deepEqual(t, k, []byte{0xFF, 0x01})
			k, _ = cur.Next()
			deepEqual(t, k, []byte(nil))
			return nil
		}))
	})
}

func TestStorage_RollbackDiscards(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opt Options, name string) {
		s := openStorage(t, opt, name)
		tx := must(s.BeginTx(true))
		must(tx.CreateBucket([]string{"tmp"}))
		ensure(tx.Rollback())
		ensure(tx.Rollback())

		ensure(view(s, func(tx StorageTx) error {
			if tx.Bucket([]string{"tmp"}) != nil {
				t.Errorf("rolled back bucket is visible")
			}
			return nil
		}))
	})
}

func TestStorage_BatchCommits(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opt Options, name string) {
		s := openStorage(t, opt, name)
		ensure(s.Batch(func(tx StorageTx) error {
			b, err := tx.CreateBucket([]string{"b"})
			if err != nil {
				return err
			}
			return b.Put([]byte("k"), []byte("v"))
		}))
		ensure(view(s, func(tx StorageTx) error {
			deepEqual(t, tx.Bucket([]string{"b"}).Get([]byte("k")), []byte("v"))
			return nil
		}))
	})
}

func TestBackend_ExistsAndRemove(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opt Options, name string) {
		b := opt.Backend
		artifact := name + b.Suffix()
		if must(b.Exists(artifact)) {
			t.Fatalf("%s exists before Open", artifact)
		}

		s := openStorage(t, opt, name)
		ensure(s.Close())
		if !must(b.Exists(artifact)) {
			t.Fatalf("%s does not exist after Open", artifact)
		}

		ensure(b.Remove(artifact))
		ensure(b.Remove(artifact))
		if must(b.Exists(artifact)) {
			t.Fatalf("%s exists after Remove", artifact)
		}
	})
}
