package kmerdb

import "encoding/binary"

// Keys inside a collection bucket. Block keys sort by sequence number, so a
// cursor walk yields blocks in flush order.
const (
	blockKeyPrefix = 'b'
	blockKeyLen    = 1 + 8
	propKeyPrefix  = 'p'
)

var (
	countKey  = []byte{'n'}
	kindKey   = []byte{'k'}
	bitmapKey = []byte{'r'}
)

type nodeKind string

const (
	kindGroup  nodeKind = ""
	kindBlocks nodeKind = "blocks"
	kindSet    nodeKind = "set"
)

func (k nodeKind) String() string {
	if k == kindGroup {
		return "group"
	}
	return string(k)
}

func bucketKind(b StorageBucket) nodeKind {
	return nodeKind(b.Get(kindKey))
}

func blockKey(seq uint64) []byte {
	key := make([]byte, blockKeyLen)
	key[0] = blockKeyPrefix
	binary.BigEndian.PutUint64(key[1:], seq)
	return key
}

func parseBlockKey(key []byte) (uint64, bool) {
	if len(key) != blockKeyLen || key[0] != blockKeyPrefix {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[1:]), true
}

// nextBlockSeq returns the sequence number following the last stored block.
func nextBlockSeq(b StorageBucket) uint64 {
	k, _ := b.Cursor().SeekLast([]byte{blockKeyPrefix})
	if seq, ok := parseBlockKey(k); ok {
		return seq + 1
	}
	return 0
}

func propKey(key string) []byte {
	buf := make([]byte, 1+len(key))
	buf[0] = propKeyPrefix
	copy(buf[1:], key)
	return buf
}

func readCount(b StorageBucket) (int64, error) {
	v := b.Get(countKey)
	if v == nil {
		return 0, nil
	}
	if len(v) != 8 {
		return 0, dataErrf(v, 0, nil, "invalid item count")
	}
	return int64(binary.BigEndian.Uint64(v)), nil
}

func putCount(b StorageBucket, n int64) error {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, uint64(n))
	return b.Put(countKey, v)
}
