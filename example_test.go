package kmerdb_test

import (
	"fmt"

	"github.com/andreyvit/kmerdb"
	"github.com/andreyvit/kmerdb/kint"
	"github.com/andreyvit/kmerdb/kmer"
)

func Example() {
	c, err := kmerdb.Open("graph", kmerdb.Options{Backend: kmerdb.NewMemBackend()})
	if err != nil {
		panic(err)
	}
	defer c.Close()

	model := kmer.MustModel[kint.U64](4)
	kmers, err := kmerdb.CreateCollection[kint.U64](c.Root(), "kmers", nil)
	if err != nil {
		panic(err)
	}

	batch, err := model.Build(nil, kmer.ASCIIData("ACGTTGCA"), kmer.Direct)
	if err != nil {
		panic(err)
	}
	if err := kmers.InsertAll(batch); err != nil {
		panic(err)
	}
	if err := kmers.Flush(); err != nil {
		panic(err)
	}

	for k, err := range kmerdb.All[kint.U64](kmers) {
		if err != nil {
			panic(err)
		}
		fmt.Println(model.String(k))
	}
	// Output:
	// ACGT
	// CGTT
	// GTTG
	// TTGC
	// TGCA
}
