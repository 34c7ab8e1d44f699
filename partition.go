package kmerdb

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Partition is a fixed number of sibling collections named 0..nb-1 under a
// group. Each collection is meant to be written by its own goroutine, so
// parallel writers never share a buffer:
//
//	kmers, _ := kmerdb.CreatePartition[kint.U64](root, "kmers", workers)
//	for i := range workers {
//		g.Go(func() error { return fill(kmers.At(i)) })
//	}
type Partition[T any] struct {
	group *Group
	nodes []*CollectionNode[T]
}

// CreatePartition ensures the group parent/name and creates nb block
// collections inside it. Existing collections are reused, so calling it
// again with the same arguments yields handles to the same data.
func CreatePartition[T any](parent *Group, name string, nb int) (*Partition[T], error) {
	return createPartition(parent, name, nb, nil, CreateCollection[T])
}

// CreateSetPartition is CreatePartition for set collections.
func CreateSetPartition(parent *Group, name string, nb int) (*Partition[uint64], error) {
	return createPartition(parent, name, nb, nil, CreateSet)
}

func createPartition[T any](parent *Group, name string, nb int, synchro sync.Locker, create func(*Group, string, sync.Locker) (*CollectionNode[T], error)) (*Partition[T], error) {
	if nb <= 0 {
		return nil, fmt.Errorf("kmerdb: partition %s needs at least one collection, got %d", name, nb)
	}
	if name == "" {
		return nil, fmt.Errorf("kmerdb: %w: partition name is empty", ErrInvalidName)
	}
	g, err := CreateGroup(parent, name)
	if err != nil {
		return nil, err
	}
	p := &Partition[T]{
		group: g,
		nodes: make([]*CollectionNode[T], nb),
	}
	for i := range p.nodes {
		p.nodes[i], err = create(g, strconv.Itoa(i), synchro)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Len returns the number of collections.
func (p *Partition[T]) Len() int { return len(p.nodes) }

// At returns collection i, 0 <= i < Len().
func (p *Partition[T]) At(i int) *CollectionNode[T] { return p.nodes[i] }

// Group returns the group holding the collections.
func (p *Partition[T]) Group() *Group { return p.group }

func (p *Partition[T]) Name() string          { return p.group.Name() }
func (p *Partition[T]) Parent() *Group        { return p.group.Parent() }
func (p *Partition[T]) FullPath() string      { return p.group.FullPath() }
func (p *Partition[T]) Container() *Container { return p.group.Container() }

var _ Cell = (*Partition[int])(nil)

// Flush flushes every collection in parallel. It must not overlap with
// inserts into any of them.
func (p *Partition[T]) Flush() error {
	var g errgroup.Group
	for _, node := range p.nodes {
		g.Go(node.Flush)
	}
	return g.Wait()
}

// Count returns the total number of flushed items.
func (p *Partition[T]) Count() (int64, error) {
	var total int64
	for _, node := range p.nodes {
		n, err := node.Count()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Iterator yields the items of collection 0, then of collection 1, and so
// on.
func (p *Partition[T]) Iterator() Iterator[T] {
	its := make([]Iterator[T], len(p.nodes))
	for i, node := range p.nodes {
		its[i] = node.Iterator()
	}
	return &chainIterator[T]{its: its}
}

// ReadAll reads every collection in order into buf[:0].
func (p *Partition[T]) ReadAll(buf []T) ([]T, error) {
	buf = buf[:0]
	var scratch []T
	for _, node := range p.nodes {
		var err error
		scratch, err = node.ReadAll(scratch)
		if err != nil {
			return buf, err
		}
		buf = append(buf, scratch...)
	}
	return buf, nil
}

// Remove deletes all collections and the group itself.
func (p *Partition[T]) Remove() error {
	c := p.Container()
	var errs []error
	for _, node := range p.nodes {
		if err := node.Remove(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.deleteBucket(nil, p.group.path); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
