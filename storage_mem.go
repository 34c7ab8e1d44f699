package kmerdb

import (
	"bytes"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

const memBucketSep = "\x00"

// MemBackend keeps artifacts in memory. Artifacts outlive the containers
// that open them (so a container can be closed and reopened) but not the
// MemBackend itself. Intended for tests and scratch data.
type MemBackend struct {
	mu        sync.Mutex
	artifacts map[string]*memArtifact
}

var _ Backend = (*MemBackend)(nil)

func NewMemBackend() *MemBackend {
	return &MemBackend{artifacts: make(map[string]*memArtifact)}
}

func (*MemBackend) Suffix() string { return ".mem" }

func (mb *MemBackend) Exists(name string) (bool, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.artifacts[name] != nil, nil
}

func (mb *MemBackend) Open(name string, opt *Options) (Storage, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	a := mb.artifacts[name]
	if a == nil {
		a = &memArtifact{buckets: make(map[string]*memBucket)}
		a.cond = sync.NewCond(&a.mu)
		mb.artifacts[name] = a
	}
	return &memStorage{art: a}, nil
}

func (mb *MemBackend) Remove(name string) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	delete(mb.artifacts, name)
	return nil
}

type memArtifact struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buckets map[string]*memBucket
	writer  bool
}

type memStorage struct {
	art    *memArtifact
	closed bool
}

func (s *memStorage) BeginTx(writable bool) (StorageTx, error) {
	a := s.art
	a.mu.Lock()
	defer a.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("storage closed")
	}
	if writable {
		for a.writer && !s.closed {
			a.cond.Wait()
		}
		if s.closed {
			return nil, fmt.Errorf("storage closed")
		}
		a.writer = true
	}

	// Snapshot the entire DB for transactional isolation (simplicity over efficiency).
	snap := make(map[string]*memBucket, len(a.buckets))
	for k, b := range a.buckets {
		snap[k] = b.clone()
	}

	return &memTx{
		writable: writable,
		base:     s,
		buckets:  snap,
	}, nil
}

func (s *memStorage) Batch(f func(tx StorageTx) error) error {
	return update(s, f)
}

func (s *memStorage) Close() error {
	s.art.mu.Lock()
	defer s.art.mu.Unlock()
	s.closed = true
	s.art.cond.Broadcast()
	return nil
}

type memTx struct {
	base     *memStorage
	writable bool
	buckets  map[string]*memBucket
	closed   bool
}

func (tx *memTx) Writable() bool { return tx.writable }

func (tx *memTx) closeLocked() {
	if tx.closed {
		return
	}
	tx.closed = true
	if tx.writable {
		tx.base.art.writer = false
		tx.base.art.cond.Broadcast()
	}
}

func (tx *memTx) Bucket(path []string) StorageBucket {
	if tx.closed {
		panic("tx is closed")
	}
	if len(path) == 0 {
		return nil
	}
	b := tx.buckets[memBucketKey(path)]
	if b == nil {
		return nil
	}
	return memBucketHandle{tx: tx, b: b}
}

func (tx *memTx) CreateBucket(path []string) (StorageBucket, error) {
	if tx.closed {
		panic("tx is closed")
	}
	if !tx.writable {
		return nil, fmt.Errorf("tx not writable")
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("cannot create the top-level bucket")
	}

	// Ensure ancestors exist (Bolt compatibility).
	var b *memBucket
	for i := 1; i <= len(path); i++ {
		key := memBucketKey(path[:i])
		b = tx.buckets[key]
		if b == nil {
			b = &memBucket{}
			tx.buckets[key] = b
		}
	}
	return memBucketHandle{tx: tx, b: b}, nil
}

func (tx *memTx) DeleteBucket(path []string) error {
	if tx.closed {
		panic("tx is closed")
	}
	if !tx.writable {
		return fmt.Errorf("tx not writable")
	}
	if len(path) == 0 {
		return ErrBucketNotFound
	}
	key := memBucketKey(path)
	if tx.buckets[key] == nil {
		return ErrBucketNotFound
	}
	delete(tx.buckets, key)
	prefix := key + memBucketSep
	for k := range tx.buckets {
		if strings.HasPrefix(k, prefix) {
			delete(tx.buckets, k)
		}
	}
	return nil
}

func (tx *memTx) Buckets(path []string) []string {
	if tx.closed {
		panic("tx is closed")
	}
	var prefix string
	if len(path) > 0 {
		key := memBucketKey(path)
		if tx.buckets[key] == nil {
			return nil
		}
		prefix = key + memBucketSep
	}
	var names []string
	for k := range tx.buckets {
		if rest, ok := strings.CutPrefix(k, prefix); ok && !strings.Contains(rest, memBucketSep) {
			names = append(names, rest)
		}
	}
	sort.Strings(names)
	return names
}

func (tx *memTx) Commit() error {
	if tx.closed {
		return nil
	}
	if !tx.writable {
		return fmt.Errorf("tx not writable")
	}
	a := tx.base.art
	a.mu.Lock()
	defer a.mu.Unlock()
	if tx.base.closed {
		tx.closeLocked()
		return fmt.Errorf("storage closed")
	}
	a.buckets = tx.buckets
	tx.closeLocked()
	return nil
}

func (tx *memTx) Rollback() error {
	tx.base.art.mu.Lock()
	defer tx.base.art.mu.Unlock()
	tx.closeLocked()
	return nil
}

func (tx *memTx) Size() int64 { return 0 }

func memBucketKey(path []string) string {
	return strings.Join(path, memBucketSep)
}

type memBucket struct {
	items []memKV // sorted by key
}

func (b *memBucket) clone() *memBucket {
	if b == nil {
		return nil
	}
	out := &memBucket{items: make([]memKV, len(b.items))}
	for i, kv := range b.items {
		out.items[i] = memKV{
			key:   slices.Clone(kv.key),
			value: slices.Clone(kv.value),
		}
	}
	return out
}

type memKV struct {
	key   []byte
	value []byte
}

type memBucketHandle struct {
	tx *memTx
	b  *memBucket
}

func (b memBucketHandle) Get(key []byte) []byte {
	i, ok := b.find(key)
	if !ok {
		return nil
	}
	return b.b.items[i].value
}

func (b memBucketHandle) Put(key, value []byte) error {
	if !b.tx.writable {
		return fmt.Errorf("tx not writable")
	}
	key = slices.Clone(key)
	value = slices.Clone(value)

	i, ok := b.find(key)
	if ok {
		b.b.items[i].value = value
		return nil
	}
	b.b.items = slices.Insert(b.b.items, i, memKV{key: key, value: value})
	return nil
}

func (b memBucketHandle) Delete(key []byte) error {
	if !b.tx.writable {
		return fmt.Errorf("tx not writable")
	}
	i, ok := b.find(key)
	if !ok {
		return nil
	}
	b.b.items = slices.Delete(b.b.items, i, i+1)
	return nil
}

func (b memBucketHandle) Cursor() StorageCursor {
	return &memCursor{b: b.b, pos: -1}
}

func (b memBucketHandle) Stats() BucketStats {
	var inuse int64
	for _, kv := range b.b.items {
		inuse += int64(len(kv.key) + len(kv.value))
	}
	return BucketStats{
		KeyN:      len(b.b.items),
		LeafInuse: inuse,
		LeafAlloc: inuse,
	}
}

func (b memBucketHandle) find(key []byte) (idx int, ok bool) {
	items := b.b.items
	i := sort.Search(len(items), func(i int) bool {
		return bytes.Compare(items[i].key, key) >= 0
	})
	if i < len(items) && bytes.Equal(items[i].key, key) {
		return i, true
	}
	return i, false
}

type memCursor struct {
	b   *memBucket
	pos int
}

func (c *memCursor) at(i int) ([]byte, []byte) {
	c.pos = i
	if i < 0 || i >= len(c.b.items) {
		return nil, nil
	}
	kv := c.b.items[i]
	return kv.key, kv.value
}

func (c *memCursor) First() ([]byte, []byte) { return c.at(0) }

func (c *memCursor) Last() ([]byte, []byte) { return c.at(len(c.b.items) - 1) }

func (c *memCursor) Seek(seek []byte) ([]byte, []byte) {
	items := c.b.items
	return c.at(sort.Search(len(items), func(i int) bool {
		return bytes.Compare(items[i].key, seek) >= 0
	}))
}

func (c *memCursor) SeekLast(prefix []byte) ([]byte, []byte) {
	if len(prefix) == 0 {
		return c.Last()
	}

	limit := append([]byte(nil), prefix...)
	if inc(limit) {
		items := c.b.items
		i := sort.Search(len(items), func(i int) bool {
			return bytes.Compare(items[i].key, limit) >= 0
		})
		return c.at(i - 1)
	}

	// All-0xFF prefix.
	return c.Last()
}

func (c *memCursor) Next() ([]byte, []byte) {
	if c.pos < 0 {
		return c.First()
	}
	if c.pos >= len(c.b.items) {
		return nil, nil
	}
	return c.at(c.pos + 1)
}

func (c *memCursor) Prev() ([]byte, []byte) {
	if c.pos <= 0 {
		return nil, nil
	}
	return c.at(c.pos - 1)
}
