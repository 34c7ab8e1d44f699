package kmerdb

// CollectionStats describes the storage used by a collection.
type CollectionStats struct {
	Items  int64
	Blocks int

	// Pending counts items inserted through this handle but not flushed
	// yet. They are not part of Items.
	Pending int

	// DataSize is the in-use size of the bucket's leaf pages, DataAlloc the
	// allocated size of all its pages. Both are zero for backends that don't
	// track allocation.
	DataSize  int64
	DataAlloc int64
}

func (s CollectionStats) AvgBlockItems() float64 {
	if s.Blocks == 0 {
		return 0
	}
	return float64(s.Items) / float64(s.Blocks)
}

func (n *CollectionNode[T]) Stats() (CollectionStats, error) {
	c := n.Container()
	var result CollectionStats
	err := c.view(func(tx StorageTx) error {
		bkt := tx.Bucket(n.path)
		if bkt == nil {
			return ErrBucketNotFound
		}
		var err error
		result, err = bucketStats(bkt)
		return err
	})
	if err != nil {
		return result, backendErrf(c, n.path, err, "cannot get stats")
	}
	result.Pending = n.bag.pending()
	return result, nil
}

func bucketStats(bkt StorageBucket) (CollectionStats, error) {
	items, err := readCount(bkt)
	if err != nil {
		return CollectionStats{}, err
	}
	bs := bkt.Stats()
	result := CollectionStats{
		Items:     items,
		DataSize:  bs.LeafInuse,
		DataAlloc: bs.TotalAlloc(),
	}
	cur := bkt.Cursor()
	for k, _ := cur.Seek([]byte{blockKeyPrefix}); k != nil; k, _ = cur.Next() {
		if _, ok := parseBlockKey(k); !ok {
			break
		}
		result.Blocks++
	}
	return result, nil
}
