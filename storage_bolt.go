package kmerdb

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"unsafe"

	"go.etcd.io/bbolt"
)

// BoltBackend stores every container in its own Bolt file.
type BoltBackend struct{}

var _ Backend = BoltBackend{}

const boltSuffix = ".kdb"

func (BoltBackend) Suffix() string { return boltSuffix }

func (BoltBackend) Exists(name string) (bool, error) {
	_, err := os.Stat(name)
	if err == nil {
		return true, nil
	} else if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else {
		return false, err
	}
}

func (BoltBackend) Open(name string, opt *Options) (Storage, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = opt.Timeout
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 64
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(name, opt.FileMode, bopt)
	if err != nil {
		return nil, err
	}
	return newBoltStorage(bdb), nil
}

func (BoltBackend) Remove(name string) error {
	err := os.Remove(name)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

type boltStorage struct {
	bdb *bbolt.DB
}

func newBoltStorage(bdb *bbolt.DB) Storage {
	return &boltStorage{bdb: bdb}
}

func (s *boltStorage) BeginTx(writable bool) (StorageTx, error) {
	btx, err := s.bdb.Begin(writable)
	if err != nil {
		return nil, err
	}
	return &boltStorageTx{btx: btx}, nil
}

func (s *boltStorage) Batch(f func(tx StorageTx) error) error {
	return s.bdb.Batch(func(btx *bbolt.Tx) error {
		return f(&boltStorageTx{btx: btx})
	})
}

func (s *boltStorage) Close() error {
	return s.bdb.Close()
}

type boltStorageTx struct {
	btx *bbolt.Tx
}

func (tx *boltStorageTx) Writable() bool { return tx.btx.Writable() }

func (tx *boltStorageTx) bucket(path []string) *bbolt.Bucket {
	if len(path) == 0 {
		return nil
	}
	b := tx.btx.Bucket(unsafeBytesFromString(path[0]))
	for _, name := range path[1:] {
		if b == nil {
			return nil
		}
		b = b.Bucket(unsafeBytesFromString(name))
	}
	return b
}

func (tx *boltStorageTx) Bucket(path []string) StorageBucket {
	b := tx.bucket(path)
	if b == nil {
		return nil
	}
	return boltBucket{b: b}
}

func (tx *boltStorageTx) CreateBucket(path []string) (StorageBucket, error) {
	if len(path) == 0 {
		return nil, errors.New("cannot create the top-level bucket")
	}
	b, err := tx.btx.CreateBucketIfNotExists([]byte(path[0]))
	if err != nil {
		return nil, err
	}
	for _, name := range path[1:] {
		b, err = b.CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return nil, err
		}
	}
	return boltBucket{b: b}, nil
}

func (tx *boltStorageTx) DeleteBucket(path []string) error {
	var err error
	switch len(path) {
	case 0:
		return ErrBucketNotFound
	case 1:
		err = tx.btx.DeleteBucket(unsafeBytesFromString(path[0]))
	default:
		parent := tx.bucket(path[:len(path)-1])
		if parent == nil {
			return ErrBucketNotFound
		}
		err = parent.DeleteBucket(unsafeBytesFromString(path[len(path)-1]))
	}
	if err == bbolt.ErrBucketNotFound {
		return ErrBucketNotFound
	}
	return err
}

func (tx *boltStorageTx) Buckets(path []string) []string {
	var names []string
	if len(path) == 0 {
		tx.btx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
		return names
	}
	b := tx.bucket(path)
	if b == nil {
		return nil
	}
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if v == nil {
			names = append(names, string(k))
		}
	}
	return names
}

func (tx *boltStorageTx) Commit() error { return tx.btx.Commit() }

func (tx *boltStorageTx) Rollback() error {
	err := tx.btx.Rollback()
	if err == bbolt.ErrTxClosed {
		return nil
	}
	return err
}

func (tx *boltStorageTx) Size() int64 { return tx.btx.Size() }

type boltBucket struct {
	b *bbolt.Bucket
}

func (b boltBucket) Get(key []byte) []byte { return b.b.Get(key) }

func (b boltBucket) Put(key, value []byte) error { return b.b.Put(key, value) }

func (b boltBucket) Delete(key []byte) error { return b.b.Delete(key) }

func (b boltBucket) Cursor() StorageCursor { return boltCursor{c: b.b.Cursor()} }

func (b boltBucket) Stats() BucketStats {
	s := b.b.Stats()
	return BucketStats{
		KeyN:        s.KeyN,
		LeafInuse:   int64(s.LeafInuse),
		LeafAlloc:   int64(s.LeafAlloc),
		BranchAlloc: int64(s.BranchAlloc),
	}
}

type boltCursor struct {
	c *bbolt.Cursor
}

func (c boltCursor) First() ([]byte, []byte) { return c.c.First() }

func (c boltCursor) Last() ([]byte, []byte) { return c.c.Last() }

func (c boltCursor) Seek(seek []byte) ([]byte, []byte) { return c.c.Seek(seek) }

func (c boltCursor) SeekLast(prefix []byte) ([]byte, []byte) {
	if len(prefix) == 0 {
		return c.c.Last()
	}

	limit := append([]byte(nil), prefix...)
	if inc(limit) {
		k, _ := c.c.Seek(limit)
		if k == nil {
			return c.c.Last()
		}
		return c.c.Prev()
	}

	// All-0xFF prefix: fall back to linear scan.
	k, _ := c.c.Seek(prefix)
	if k == nil {
		return c.c.Last()
	}
	for k != nil && bytes.HasPrefix(k, prefix) {
		k, _ = c.c.Next()
	}
	if k == nil {
		return c.c.Last()
	}
	return c.c.Prev()
}

func (c boltCursor) Next() ([]byte, []byte) { return c.c.Next() }

func (c boltCursor) Prev() ([]byte, []byte) { return c.c.Prev() }

func unsafeBytesFromString(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
