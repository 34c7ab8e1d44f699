package kmerdb

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// encodeItems appends the msgpack encodings of items to buf, one value after
// another with no surrounding array header.
func encodeItems[T any](buf []byte, items []T) ([]byte, error) {
	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	enc.ResetDict(&bb, nil)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	defer msgpack.PutEncoder(enc)
	for i := range items {
		if err := enc.Encode(&items[i]); err != nil {
			var zero T
			return buf, fmt.Errorf("failed to encode %T using MsgPack: %w", zero, err)
		}
	}
	return bb.Buf, nil
}

// decodeItems decodes count values from raw and appends them to dst.
func decodeItems[T any](dst []T, raw []byte, count int) ([]T, error) {
	var r bytes.Reader
	r.Reset(raw)
	dec := msgpack.GetDecoder()
	dec.ResetDict(&r, nil)
	defer msgpack.PutDecoder(dec)

	start := len(dst)
	dst = growSlice(dst, count)
	for i := start; i < len(dst); i++ {
		if err := dec.Decode(&dst[i]); err != nil {
			return dst[:start], dataErrf(raw, len(raw)-r.Len(), err, "failed to decode msgpack into %T (item %d of %d)", dst[i], i-start, count)
		}
	}
	if r.Len() != 0 {
		return dst[:start], dataErrf(raw, len(raw)-r.Len(), nil, "%d trailing bytes after %d items", r.Len(), count)
	}
	return dst, nil
}

func growSlice[T any](s []T, n int) []T {
	if cap(s)-len(s) < n {
		grown := make([]T, len(s), len(s)+n)
		copy(grown, s)
		s = grown
	}
	return s[:len(s)+n]
}
