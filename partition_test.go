package kmerdb

import (
	"fmt"
	"slices"
	"strconv"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/andreyvit/kmerdb/kint"
	"github.com/andreyvit/kmerdb/kmer"
)

func TestPartition_ParallelWriters(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opt Options, name string) {
		const workers, perWorker = 8, 5000
		opt.FlushThreshold = 700
		opt.Compression = CompressionLZ4

		c := setup(t, opt, name)
		graph := must(c.Root().Group("graph"))
		kmers := must(CreatePartition[uint64](graph, "kmers", workers))
		deepEqual(t, kmers.Len(), workers)

		var g errgroup.Group
		for w := range workers {
			coll := kmers.At(w)
			g.Go(func() error {
				for i := range perWorker {
					if err := coll.Insert(uint64(w)<<32 | uint64(i)); err != nil {
						return err
					}
				}
				return nil
			})
		}
		ensure(g.Wait())
		ensure(kmers.Flush())
		ensure(c.Close())

		c = setup(t, opt, name)
		graph = must(c.Root().Group("graph"))
		deepEqual(t, must(graph.List()), []string{"kmers"})
		kmers = must(CreatePartition[uint64](graph, "kmers", workers))

		var wantNames []string
		for w := range workers {
			wantNames = append(wantNames, strconv.Itoa(w))
		}
		gotNames := must(kmers.Group().List())
		slices.Sort(gotNames)
		deepEqual(t, gotNames, wantNames)

		deepEqual(t, must(kmers.Count()), int64(workers*perWorker))

		all := must(kmers.ReadAll(nil))
		if len(all) != workers*perWorker {
			t.Fatalf("ReadAll returned %d items, wanted %d", len(all), workers*perWorker)
		}
		for w := range workers {
			for i := range perWorker {
				if a, e := all[w*perWorker+i], uint64(w)<<32|uint64(i); a != e {
					t.Fatalf("item %d of worker %d = %x, wanted %x", i, w, a, e)
				}
			}
		}

		it := kmers.Iterator()
		var n int
		for it.Next() {
			if it.Item() != all[n] {
				t.Fatalf("iterator item %d = %x, wanted %x", n, it.Item(), all[n])
			}
			n++
		}
		ensure(it.Err())
		deepEqual(t, n, workers*perWorker)
	})
}

func TestPartition_ParallelCreation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opt Options, name string) {
		c := setup(t, opt, name)
		var g errgroup.Group
		for w := range 16 {
			g.Go(func() error {
				p, err := CreatePartition[int](c.Root(), "shared", 4)
				if err != nil {
					return err
				}
				coll, err := CreateCollection[int](p.Group(), fmt.Sprintf("extra%d", w%2), nil)
				if err != nil {
					return err
				}
				return coll.SetProperty("writer", strconv.Itoa(w))
			})
		}
		ensure(g.Wait())
		deepEqual(t, must(c.Root().List()), []string{"shared"})
		deepEqual(t, must(must(c.Root().Group("shared")).List()), []string{"0", "1", "2", "3", "extra0", "extra1"})
	})
}

func TestPartition_Errors(t *testing.T) {
	c := setup(t, Options{Backend: NewMemBackend()}, "g")
	if _, err := CreatePartition[int](c.Root(), "p", 0); err == nil {
		t.Errorf("CreatePartition with 0 collections succeeded")
	}
	_, err := CreatePartition[int](c.Root(), "", 2)
	iserr(t, err, ErrInvalidName)
	_, err = CreatePartition[int](c.Root(), "a/b", 2)
	iserr(t, err, ErrInvalidName)
	isempty(t, must(c.Root().List()))
}

func TestPartition_AccessorsAndRemove(t *testing.T) {
	c := setup(t, Options{Backend: NewMemBackend()}, "g")
	g := must(c.Root().Group("graph"))
	p := must(CreatePartition[string](g, "adjacency", 3))
	deepEqual(t, p.Name(), "adjacency")
	if p.Parent() != g {
		t.Errorf("Parent() = %v, wanted %v", p.Parent(), g)
	}
	deepEqual(t, p.FullPath(), "/graph/adjacency")
	deepEqual(t, p.At(2).FullPath(), "/graph/adjacency/2")
	if p.Container() != c {
		t.Errorf("Container() is not the opening container")
	}

	ensure(p.At(1).Insert("x"))
	ensure(p.Remove())
	isempty(t, must(g.List()))
	iserr(t, p.At(0).Insert("y"), ErrRemoved)
}

func TestSetPartition(t *testing.T) {
	c := setup(t, Options{Backend: NewMemBackend()}, "g")
	p := must(CreateSetPartition(c.Root(), "nodes", 2))
	ensure(p.At(0).InsertAll([]uint64{9, 1, 9}))
	ensure(p.At(1).InsertAll([]uint64{5, 1}))
	ensure(p.Flush())
	deepEqual(t, must(p.ReadAll(nil)), []uint64{1, 9, 1, 5})
	deepEqual(t, must(p.Count()), int64(4))
}

// TestPartition_CanonicalKmers runs the pipeline the graph builder uses:
// each worker encodes its reads into canonical kmers and appends them to its
// own partition.
func TestPartition_CanonicalKmers(t *testing.T) {
	reads := []string{
		"ACGTACGTTGCA",
		"TTTTGGGGCCCCAAAA",
		"GATTACAGATTACA",
		"ACG", // shorter than the span, yields nothing
	}
	const span = 5

	run := func(t *testing.T, opt Options, name string) {
		model := kmer.MustModel[kint.U64](span)
		c := setup(t, opt, name)
		p := must(CreatePartition[kint.U64](c.Root(), "solid", len(reads)))
		ensure(p.At(0).SetProperty("kmer_size", strconv.Itoa(span)))

		var g errgroup.Group
		for i, read := range reads {
			g.Go(func() error {
				kmers, err := model.Build(nil, kmer.ASCIIData(read), kmer.Canonical)
				if err != nil {
					return err
				}
				return p.At(i).InsertAll(kmers)
			})
		}
		ensure(g.Wait())
		ensure(c.Close())

		c = setup(t, opt, name)
		p = must(CreatePartition[kint.U64](c.Root(), "solid", len(reads)))
		deepEqual(t, must(p.At(0).Property("kmer_size")), "5")

		var want []kint.U64
		for _, read := range reads {
			for i := 0; i+span <= len(read); i++ {
				k := must(model.Code([]byte(read[i:i+span]), kmer.ASCII))
				want = append(want, kint.Min(k, model.ReverseComplement(k)))
			}
		}
		deepEqual(t, must(p.ReadAll(nil)), want)
		deepEqual(t, must(p.Count()), int64(len(want)))
	}
	forEachBackend(t, run)
}
