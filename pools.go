package kmerdb

import "sync"

// rawBytesPool holds msgpack-encoded item batches before compression.
var rawBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 65536)
	},
}

var payloadBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 65536)
	},
}

// blockBytesPool holds whole encoded blocks. Bolt keeps a reference to a
// value until the transaction commits, so a block buffer goes back to the
// pool only after its Batch call returns.
var blockBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 65536)
	},
}

func releaseBytes(pool *sync.Pool, b []byte) {
	pool.Put(b[:0])
}
