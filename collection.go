package kmerdb

import "iter"

// Appendable accepts items. Items become visible to readers after Flush.
type Appendable[T any] interface {
	Insert(item T) error
	InsertAll(items []T) error
	Flush() error
}

// Iterator is a lazy, single-pass sequence of items:
//
//	for it.Next() {
//		use(it.Item())
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator[T any] interface {
	Next() bool
	Item() T
	Err() error
	Close() error
}

// Iterable produces iterators. Each call starts a new pass.
type Iterable[T any] interface {
	Iterator() Iterator[T]
}

// Counted reports how many items are stored.
type Counted interface {
	Count() (int64, error)
}

// BulkReader reads every item at once, reusing the caller's buffer.
type BulkReader[T any] interface {
	ReadAll(buf []T) ([]T, error)
}

// Source is the read half a backend has to provide.
type Source[T any] interface {
	Iterable[T]
	Counted
}

// Properties is a string-keyed bag of metadata attached to a collection.
type Properties interface {
	SetProperty(key, value string) error
	Property(key string) (string, error)
}

// NoProperties discards properties.
type NoProperties struct{}

func (NoProperties) SetProperty(key, value string) error { return nil }
func (NoProperties) Property(key string) (string, error) { return "", nil }

// Collection is the full contract: append, iterate, count, read in bulk,
// and carry properties.
type Collection[T any] interface {
	Appendable[T]
	Source[T]
	BulkReader[T]
	Properties
}

// Adapter composes an Appendable and a Source (and optionally Properties)
// into a Collection. The adapter owns its delegates.
type Adapter[T any] struct {
	bag    Appendable[T]
	source Source[T]
	props  Properties
}

var _ Collection[int] = (*Adapter[int])(nil)

// Compose builds an Adapter. props may be nil.
func Compose[T any](bag Appendable[T], source Source[T], props Properties) *Adapter[T] {
	if props == nil {
		props = NoProperties{}
	}
	return &Adapter[T]{bag: bag, source: source, props: props}
}

func (a *Adapter[T]) Source() Source[T] { return a.source }

func (a *Adapter[T]) Insert(item T) error       { return a.bag.Insert(item) }
func (a *Adapter[T]) InsertAll(items []T) error { return a.bag.InsertAll(items) }
func (a *Adapter[T]) Flush() error              { return a.bag.Flush() }

func (a *Adapter[T]) Iterator() Iterator[T] { return a.source.Iterator() }
func (a *Adapter[T]) Count() (int64, error) { return a.source.Count() }

// ReadAll uses the source's own bulk read when it has one and iterates
// otherwise.
func (a *Adapter[T]) ReadAll(buf []T) ([]T, error) {
	if br, ok := a.source.(BulkReader[T]); ok {
		return br.ReadAll(buf)
	}
	return Collect(a.source.Iterator(), buf)
}

func (a *Adapter[T]) SetProperty(key, value string) error { return a.props.SetProperty(key, value) }
func (a *Adapter[T]) Property(key string) (string, error) { return a.props.Property(key) }

// Collect drains and closes it, appending the items to buf[:0].
func Collect[T any](it Iterator[T], buf []T) ([]T, error) {
	defer it.Close()
	buf = buf[:0]
	for it.Next() {
		buf = append(buf, it.Item())
	}
	return buf, it.Err()
}

// All adapts an Iterable to a range-over-func sequence. An iteration error
// is yielded once, as the last pair, with a zero item.
func All[T any](src Iterable[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := src.Iterator()
		defer it.Close()
		for it.Next() {
			if !yield(it.Item(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// SliceIterator iterates over an in-memory slice.
type SliceIterator[T any] struct {
	items []T
	pos   int
}

func NewSliceIterator[T any](items []T) *SliceIterator[T] {
	return &SliceIterator[T]{items: items}
}

func (it *SliceIterator[T]) Next() bool {
	if it.pos >= len(it.items) {
		return false
	}
	it.pos++
	return true
}

func (it *SliceIterator[T]) Item() T      { return it.items[it.pos-1] }
func (it *SliceIterator[T]) Err() error   { return nil }
func (it *SliceIterator[T]) Close() error { it.items = nil; return nil }

// errIterator yields nothing and reports err.
type errIterator[T any] struct {
	err error
}

func (it errIterator[T]) Next() bool   { return false }
func (it errIterator[T]) Item() T      { var zero T; return zero }
func (it errIterator[T]) Err() error   { return it.err }
func (it errIterator[T]) Close() error { return nil }

// chainIterator concatenates iterators, closing each when it is exhausted.
type chainIterator[T any] struct {
	its []Iterator[T]
	err error
}

func (it *chainIterator[T]) Next() bool {
	for len(it.its) > 0 {
		cur := it.its[0]
		if cur.Next() {
			return true
		}
		it.err = cur.Err()
		cur.Close()
		it.its = it.its[1:]
		if it.err != nil {
			it.Close()
			return false
		}
	}
	return false
}

func (it *chainIterator[T]) Item() T    { return it.its[0].Item() }
func (it *chainIterator[T]) Err() error { return it.err }

func (it *chainIterator[T]) Close() error {
	for _, sub := range it.its {
		sub.Close()
	}
	it.its = nil
	return nil
}
