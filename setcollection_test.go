package kmerdb

import (
	"testing"
)

func TestSet_DeduplicatesAndSorts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opt Options, name string) {
		opt.FlushThreshold = 4
		c := setup(t, opt, name)
		set := must(CreateSet(c.Root(), "branching", nil))

		ensure(set.InsertAll([]uint64{42, 7, 1 << 40}))
		ensure(set.Insert(7))
		ensure(set.Insert(3))
		ensure(set.InsertAll([]uint64{42, 1 << 40}))
		ensure(c.Close())

		c = setup(t, opt, name)
		set = must(CreateSet(c.Root(), "branching", nil))
		want := []uint64{3, 7, 42, 1 << 40}
		deepEqual(t, must(set.Count()), int64(len(want)))
		deepEqual(t, must(set.ReadAll(nil)), want)
		deepEqual(t, must(Collect(set.Iterator(), nil)), want)
	})
}

func TestSet_MergesAcrossFlushes(t *testing.T) {
	c := setup(t, Options{Backend: NewMemBackend()}, "g")
	set := must(CreateSet(c.Root(), "s", nil))
	ensure(set.InsertAll([]uint64{5, 6}))
	ensure(set.Flush())
	deepEqual(t, must(set.Count()), int64(2))

	ensure(set.InsertAll([]uint64{6, 7}))
	ensure(set.Flush())
	deepEqual(t, must(set.Count()), int64(3))
	deepEqual(t, must(set.ReadAll(nil)), []uint64{5, 6, 7})

	ensure(set.InsertAll([]uint64{7, 8, 8}))
	stats := must(set.Stats())
	deepEqual(t, stats.Items, int64(3))
	deepEqual(t, stats.Pending, 2)
	deepEqual(t, stats.Blocks, 0)
}

func TestSet_EmptyAndRemoved(t *testing.T) {
	c := setup(t, Options{Backend: NewMemBackend()}, "g")
	set := must(CreateSet(c.Root(), "s", nil))
	isempty(t, must(set.ReadAll(nil)))
	it := set.Iterator()
	if it.Next() {
		t.Fatalf("Next() = true on an empty set")
	}
	ensure(it.Err())

	ensure(set.Insert(1))
	ensure(set.Remove())
	iserr(t, set.Insert(2), ErrRemoved)
	isempty(t, must(c.Root().List()))
}
