package kmerdb

import (
	"sync"
)

// CollectionNode is a collection bound to a leaf of a container's
// namespace.
type CollectionNode[T any] struct {
	Collection[T]

	parent  *Group
	name    string
	path    []string
	kind    nodeKind
	synchro sync.Locker
	bag     discardFlusher
}

type discardFlusher interface {
	flusher
	pending() int
	discard()
}

var _ Cell = (*CollectionNode[int])(nil)

// CreateCollection binds a block collection at parent/name, creating the
// leaf if it doesn't exist yet. synchro guards the check-then-create; nil
// means the container's own Synchronizer.
//
// Items are encoded with msgpack, so T can be any type msgpack handles,
// including the kint integer types.
func CreateCollection[T any](parent *Group, name string, synchro sync.Locker) (*CollectionNode[T], error) {
	node, err := newNode[T](parent, name, synchro, kindBlocks)
	if err != nil {
		return nil, err
	}
	c := parent.Container()
	bag := newBlockBag[T](c, node.path)
	src := &blockSource[T]{c: c, path: node.path}
	node.bind(c, bag, src)
	return node, nil
}

// CreateSet binds a set collection at parent/name. A set keeps each inserted
// value once and iterates in ascending order.
func CreateSet(parent *Group, name string, synchro sync.Locker) (*CollectionNode[uint64], error) {
	node, err := newNode[uint64](parent, name, synchro, kindSet)
	if err != nil {
		return nil, err
	}
	c := parent.Container()
	bag := newSetBag(c, node.path)
	src := &setSource{c: c, path: node.path}
	node.bind(c, bag, src)
	return node, nil
}

func newNode[T any](parent *Group, name string, synchro sync.Locker, kind nodeKind) (*CollectionNode[T], error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	c := parent.Container()
	if synchro == nil {
		synchro = c.Synchronizer()
	}
	path := childPath(parent.path, name)
	if err := c.ensureBucket(synchro, path, kind); err != nil {
		return nil, err
	}
	return &CollectionNode[T]{
		parent:  parent,
		name:    name,
		path:    path,
		kind:    kind,
		synchro: synchro,
	}, nil
}

type bagFlusher[T any] interface {
	Appendable[T]
	pending() int
	discard()
}

func (n *CollectionNode[T]) bind(c *Container, bag bagFlusher[T], src Source[T]) {
	props := &bucketProperties{c: c, path: n.path, lock: n.synchro}
	n.Collection = Compose[T](bag, src, props)
	n.bag = bag
	c.register(bag)
}

func (n *CollectionNode[T]) Name() string { return n.name }

func (n *CollectionNode[T]) Parent() *Group { return n.parent }

func (n *CollectionNode[T]) FullPath() string { return joinPath(n.path) }

func (n *CollectionNode[T]) Container() *Container { return n.parent.Container() }

func (n *CollectionNode[T]) String() string {
	return n.Container().Name() + ":" + n.FullPath()
}

// Remove drops buffered items and deletes the collection with everything
// flushed to it. Further inserts fail with ErrRemoved.
func (n *CollectionNode[T]) Remove() error {
	c := n.Container()
	n.bag.discard()
	c.unregister(n.bag)
	return c.deleteBucket(n.synchro, n.path)
}
