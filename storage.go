package kmerdb

import (
	"errors"
	"strings"
)

// ErrBucketNotFound is returned by StorageTx.DeleteBucket when the bucket doesn't exist.
var ErrBucketNotFound = errors.New("bucket not found")

// Backend knows how to find, open and delete the artifacts backing
// containers (files for Bolt, registry entries for the in-memory backend).
type Backend interface {
	// Suffix is appended to a container's logical name to form the artifact name.
	Suffix() string

	// Exists reports whether an artifact with exactly this name exists.
	Exists(name string) (bool, error)

	// Open opens the named artifact, creating it if needed.
	Open(name string, opt *Options) (Storage, error)

	// Remove deletes the named artifact. Removing a missing artifact is not an error.
	Remove(name string) error
}

// Storage represents an opened artifact (a Bolt file, an in-memory map).
type Storage interface {
	// BeginTx starts a new transaction.
	BeginTx(writable bool) (StorageTx, error)

	// Batch runs f in a writable transaction, possibly coalesced with
	// concurrent Batch calls. f may be called more than once and must not
	// have side effects outside of the transaction.
	Batch(f func(tx StorageTx) error) error

	// Close closes the storage.
	Close() error
}

// StorageTx represents a storage transaction. Buckets are addressed by path,
// a list of nested bucket names; an empty path is the top level.
type StorageTx interface {
	// Writable returns true if this is a writable transaction.
	Writable() bool

	// Bucket returns a bucket, or nil if it (or any ancestor) doesn't exist.
	Bucket(path []string) StorageBucket

	// CreateBucket creates a bucket if it doesn't exist, creating missing
	// ancestors along the way.
	CreateBucket(path []string) (StorageBucket, error)

	// DeleteBucket deletes a bucket with everything nested in it.
	DeleteBucket(path []string) error

	// Buckets lists the names of the buckets nested directly under path,
	// in key order. Returns nil if path doesn't exist.
	Buckets(path []string) []string

	// Commit commits the transaction.
	Commit() error

	// Rollback aborts the transaction. It should be safe to call multiple times.
	Rollback() error

	// Size returns the database size in bytes (0 if unknown / not applicable).
	Size() int64
}

// StorageBucket represents a bucket (sorted key-value collection).
type StorageBucket interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(key []byte) []byte

	// Put stores a key-value pair.
	Put(key, value []byte) error

	// Delete removes a key.
	Delete(key []byte) error

	// Cursor returns a cursor over the key-value pairs (not nested buckets).
	Cursor() StorageCursor

	// Stats returns storage-specific bucket statistics.
	// Backends that don't track allocation sizes may return zero values except KeyN.
	Stats() BucketStats
}

type BucketStats struct {
	KeyN        int
	LeafInuse   int64
	LeafAlloc   int64
	BranchAlloc int64
}

func (s BucketStats) TotalAlloc() int64 { return s.BranchAlloc + s.LeafAlloc }

// StorageCursor iterates over a sorted bucket.
type StorageCursor interface {
	// First moves to the first key-value pair.
	First() (key, value []byte)

	// Last moves to the last key-value pair.
	Last() (key, value []byte)

	// Seek moves to the first key >= seek.
	Seek(seek []byte) (key, value []byte)

	// SeekLast moves to the last key that starts with prefix, or to the last
	// key before where such keys would be.
	SeekLast(prefix []byte) (key, value []byte)

	// Next moves to the next key-value pair.
	Next() (key, value []byte)

	// Prev moves to the previous key-value pair.
	Prev() (key, value []byte)
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "/"
	}
	return "/" + strings.Join(path, "/")
}

func update(s Storage, f func(tx StorageTx) error) error {
	tx, err := s.BeginTx(true)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := f(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func view(s Storage, f func(tx StorageTx) error) error {
	tx, err := s.BeginTx(false)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return f(tx)
}
