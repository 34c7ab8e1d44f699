package kmerdb

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// setBag accumulates uint64 values (typically kmers of span ≤ 32) in a
// compressed bitmap. Flush merges them into the stored bitmap, so the
// collection holds each value once, in ascending order.
type setBag struct {
	c         *Container
	path      []string
	threshold int
	buffered  *roaring64.Bitmap
	inserted  int
	removed   bool
}

var _ Appendable[uint64] = (*setBag)(nil)

func newSetBag(c *Container, path []string) *setBag {
	return &setBag{
		c:         c,
		path:      path,
		threshold: c.opt.FlushThreshold,
		buffered:  roaring64.New(),
	}
}

func (b *setBag) Insert(v uint64) error {
	if b.removed {
		return pathErrf(b.c, b.path, nil, ErrRemoved, "")
	}
	b.buffered.Add(v)
	b.inserted++
	if b.inserted >= b.threshold {
		return b.Flush()
	}
	return nil
}

func (b *setBag) InsertAll(items []uint64) error {
	if b.removed {
		return pathErrf(b.c, b.path, nil, ErrRemoved, "")
	}
	b.buffered.AddMany(items)
	b.inserted += len(items)
	if b.inserted >= b.threshold {
		return b.Flush()
	}
	return nil
}

func (b *setBag) Flush() error {
	if b.removed || b.buffered.IsEmpty() {
		return nil
	}
	var card uint64
	var size int
	err := b.c.batch(func(tx StorageTx) error {
		bkt := tx.Bucket(b.path)
		if bkt == nil {
			return ErrBucketNotFound
		}
		merged, err := loadBitmap(bkt)
		if err != nil {
			return err
		}
		merged.Or(b.buffered)
		merged.RunOptimize()
		data, err := merged.MarshalBinary()
		if err != nil {
			return err
		}
		if err := bkt.Put(bitmapKey, data); err != nil {
			return err
		}
		card, size = merged.GetCardinality(), len(data)
		return putCount(bkt, int64(card))
	})
	if err != nil {
		return backendErrf(b.c, b.path, err, "cannot flush set")
	}
	b.buffered.Clear()
	b.inserted = 0

	if b.c.opt.Verbose {
		b.c.logger.LogAttrs(context.Background(), slog.LevelDebug, "kmerdb: flushed set",
			slog.String("container", b.c.name),
			slog.String("path", joinPath(b.path)),
			slog.Uint64("cardinality", card),
			slog.Int("bytes", size))
	}
	return nil
}

// pending counts distinct buffered values, some of which may already be
// stored.
func (b *setBag) pending() int {
	return int(b.buffered.GetCardinality())
}

func (b *setBag) discard() {
	b.buffered.Clear()
	b.removed = true
}

// loadBitmap decodes the stored bitmap into a new one; the result does not
// alias storage memory.
func loadBitmap(bkt StorageBucket) (*roaring64.Bitmap, error) {
	bm := roaring64.New()
	data := bkt.Get(bitmapKey)
	if data == nil {
		return bm, nil
	}
	if _, err := bm.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, dataErrf(data, 0, err, "invalid bitmap")
	}
	return bm, nil
}

type setSource struct {
	c    *Container
	path []string
}

var _ Source[uint64] = (*setSource)(nil)
var _ BulkReader[uint64] = (*setSource)(nil)

func (s *setSource) load() (*roaring64.Bitmap, error) {
	var bm *roaring64.Bitmap
	err := s.c.view(func(tx StorageTx) error {
		bkt := tx.Bucket(s.path)
		if bkt == nil {
			return ErrBucketNotFound
		}
		var err error
		bm, err = loadBitmap(bkt)
		return err
	})
	if err != nil {
		return nil, backendErrf(s.c, s.path, err, "cannot read set")
	}
	return bm, nil
}

func (s *setSource) Count() (int64, error) {
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

// Iterator loads the bitmap on the first call to Next.
func (s *setSource) Iterator() Iterator[uint64] {
	return &setIterator{s: s}
}

func (s *setSource) ReadAll(buf []uint64) ([]uint64, error) {
	bm, err := s.load()
	if err != nil {
		return buf[:0], err
	}
	buf = buf[:0]
	it := bm.Iterator()
	for it.HasNext() {
		buf = append(buf, it.Next())
	}
	return buf, nil
}

type uint64Iterator interface {
	HasNext() bool
	Next() uint64
}

type setIterator struct {
	s    *setSource
	it   uint64Iterator
	cur  uint64
	err  error
	done bool
}

func (it *setIterator) Next() bool {
	if it.done {
		return false
	}
	if it.it == nil {
		bm, err := it.s.load()
		if err != nil {
			it.err = err
			it.done = true
			return false
		}
		it.it = bm.Iterator()
	}
	if !it.it.HasNext() {
		it.done = true
		return false
	}
	it.cur = it.it.Next()
	return true
}

func (it *setIterator) Item() uint64 { return it.cur }
func (it *setIterator) Err() error   { return it.err }

func (it *setIterator) Close() error {
	it.it = nil
	it.done = true
	return nil
}
