package kmerdb

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// blockBag buffers inserted items and writes them as one block per flush.
// It is owned by a single writing goroutine.
type blockBag[T any] struct {
	c         *Container
	path      []string
	threshold int
	buf       []T
	removed   bool
}

var _ Appendable[int] = (*blockBag[int])(nil)

func newBlockBag[T any](c *Container, path []string) *blockBag[T] {
	return &blockBag[T]{
		c:         c,
		path:      path,
		threshold: c.opt.FlushThreshold,
	}
}

func (b *blockBag[T]) Insert(item T) error {
	if b.removed {
		return pathErrf(b.c, b.path, nil, ErrRemoved, "")
	}
	b.buf = append(b.buf, item)
	if len(b.buf) >= b.threshold {
		return b.Flush()
	}
	return nil
}

// InsertAll appends items, flushing every time the buffer fills up.
func (b *blockBag[T]) InsertAll(items []T) error {
	if b.removed {
		return pathErrf(b.c, b.path, nil, ErrRemoved, "")
	}
	for len(items) > 0 {
		n := min(b.threshold-len(b.buf), len(items))
		b.buf = append(b.buf, items[:n]...)
		items = items[n:]
		if len(b.buf) >= b.threshold {
			if err := b.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush writes the buffered items as a new block. Concurrent flushes of
// different collections are coalesced by the storage's Batch.
func (b *blockBag[T]) Flush() error {
	if b.removed || len(b.buf) == 0 {
		return nil
	}
	start := time.Now()
	n := len(b.buf)

	raw, err := encodeItems(rawBytesPool.Get().([]byte)[:0], b.buf)
	if err != nil {
		releaseBytes(rawBytesPool, raw)
		return pathErrf(b.c, b.path, nil, err, "cannot encode")
	}
	data, err := appendBlock(blockBytesPool.Get().([]byte)[:0], raw, n, b.c.opt.Compression)
	releaseBytes(rawBytesPool, raw)
	if err != nil {
		releaseBytes(blockBytesPool, data)
		return pathErrf(b.c, b.path, nil, err, "cannot compress")
	}
	defer releaseBytes(blockBytesPool, data)

	var seq uint64
	var total int64
	err = b.c.batch(func(tx StorageTx) error {
		bkt := tx.Bucket(b.path)
		if bkt == nil {
			return ErrBucketNotFound
		}
		seq = nextBlockSeq(bkt)
		if err := bkt.Put(blockKey(seq), data); err != nil {
			return err
		}
		count, err := readCount(bkt)
		if err != nil {
			return err
		}
		total = count + int64(n)
		return putCount(bkt, total)
	})
	if err != nil {
		return backendErrf(b.c, b.path, err, "cannot flush %d items", n)
	}
	clear(b.buf)
	b.buf = b.buf[:0]

	if b.c.opt.Verbose {
		b.c.logger.LogAttrs(context.Background(), slog.LevelDebug, "kmerdb: flushed",
			slog.String("container", b.c.name),
			slog.String("path", joinPath(b.path)),
			hexAttr("key", blockKey(seq)),
			slog.Int("items", n),
			slog.Int("bytes", len(data)),
			slog.Int64("total", total),
			slog.Duration("elapsed", time.Since(start)))
	}
	return nil
}

func (b *blockBag[T]) pending() int {
	return len(b.buf)
}

func (b *blockBag[T]) discard() {
	b.buf = nil
	b.removed = true
}

// blockSource reads the blocks written by a blockBag.
type blockSource[T any] struct {
	c    *Container
	path []string
}

var _ Source[int] = (*blockSource[int])(nil)
var _ BulkReader[int] = (*blockSource[int])(nil)

func (s *blockSource[T]) Count() (int64, error) {
	var n int64
	err := s.c.view(func(tx StorageTx) error {
		bkt := tx.Bucket(s.path)
		if bkt == nil {
			return ErrBucketNotFound
		}
		var err error
		n, err = readCount(bkt)
		return err
	})
	if err != nil {
		return 0, backendErrf(s.c, s.path, err, "cannot count")
	}
	return n, nil
}

// Iterator reads one block at a time, each in its own read transaction, so
// a long iteration does not pin old pages of the storage.
func (s *blockSource[T]) Iterator() Iterator[T] {
	return &blockIterator[T]{s: s}
}

// ReadAll reads every block in a single read transaction.
func (s *blockSource[T]) ReadAll(buf []T) ([]T, error) {
	buf = buf[:0]
	raw := rawBytesPool.Get().([]byte)[:0]
	defer func() { releaseBytes(rawBytesPool, raw) }()

	err := s.c.view(func(tx StorageTx) error {
		bkt := tx.Bucket(s.path)
		if bkt == nil {
			return ErrBucketNotFound
		}
		if n, err := readCount(bkt); err != nil {
			return err
		} else if int64(cap(buf)) < n {
			buf = make([]T, 0, n)
		}
		cur := bkt.Cursor()
		for k, v := cur.Seek([]byte{blockKeyPrefix}); k != nil; k, v = cur.Next() {
			if _, ok := parseBlockKey(k); !ok {
				break
			}
			var blk block
			if err := blk.decode(v); err != nil {
				return err
			}
			var err error
			if raw, err = blk.raw(raw[:0]); err != nil {
				return err
			}
			if buf, err = decodeItems(buf, raw, blk.Count); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return buf, backendErrf(s.c, s.path, err, "cannot read")
	}
	return buf, nil
}

type blockIterator[T any] struct {
	s     *blockSource[T]
	seq   uint64
	items []T
	pos   int
	raw   []byte
	err   error
	done  bool
}

func (it *blockIterator[T]) Next() bool {
	for it.pos >= len(it.items) {
		if it.done || !it.load() {
			return false
		}
	}
	it.pos++
	return true
}

// load reads the first block at or after it.seq.
func (it *blockIterator[T]) load() bool {
	s := it.s
	it.items = it.items[:0]
	it.pos = 0
	err := s.c.view(func(tx StorageTx) error {
		bkt := tx.Bucket(s.path)
		if bkt == nil {
			return ErrBucketNotFound
		}
		k, v := bkt.Cursor().Seek(blockKey(it.seq))
		seq, ok := parseBlockKey(k)
		if !ok {
			it.done = true
			return nil
		}
		it.seq = seq + 1

		var blk block
		if err := blk.decode(v); err != nil {
			return pathErrf(s.c, s.path, k, err, "invalid block")
		}
		var err error
		if it.raw, err = blk.raw(it.raw[:0]); err != nil {
			return pathErrf(s.c, s.path, k, err, "invalid block")
		}
		it.items, err = decodeItems(it.items, it.raw, blk.Count)
		return err
	})
	if err != nil {
		it.err = backendErrf(s.c, s.path, err, "cannot iterate")
		it.done = true
		return false
	}
	return !it.done || len(it.items) > 0
}

func (it *blockIterator[T]) Item() T    { return it.items[it.pos-1] }
func (it *blockIterator[T]) Err() error { return it.err }

func (it *blockIterator[T]) Close() error {
	it.items = nil
	it.raw = nil
	it.done = true
	return nil
}

// bucketProperties stores properties next to the collection's blocks.
type bucketProperties struct {
	c    *Container
	path []string
	lock sync.Locker
}

var _ Properties = (*bucketProperties)(nil)

func (p *bucketProperties) SetProperty(key, value string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	err := p.c.update(func(tx StorageTx) error {
		bkt := tx.Bucket(p.path)
		if bkt == nil {
			return ErrBucketNotFound
		}
		return bkt.Put(propKey(key), []byte(value))
	})
	if err != nil {
		return backendErrf(p.c, p.path, err, "cannot set property %q", key)
	}
	return nil
}

// Property returns "" for a property that was never set.
func (p *bucketProperties) Property(key string) (string, error) {
	var value string
	err := p.c.view(func(tx StorageTx) error {
		bkt := tx.Bucket(p.path)
		if bkt == nil {
			return ErrBucketNotFound
		}
		value = string(bkt.Get(propKey(key)))
		return nil
	})
	if err != nil {
		return "", backendErrf(p.c, p.path, err, "cannot get property %q", key)
	}
	return value, nil
}
