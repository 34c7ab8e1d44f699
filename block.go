package kmerdb

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// A block is one flushed batch of items:
//
//	flags:uvarint count:uvarint rawSize:uvarint storedSize:uvarint
//	payload:storedSize checksum:64le
//
// The payload is the msgpack encoding of count items, compressed according
// to flags. The checksum is xxhash64 of the stored payload.

type blockFlags uint64

const (
	bfVerBit0 = blockFlags(1 << iota)
	bfVerBit1
	bfVerBit2
	bfVerBit3
	bfCompressionBit0
	bfCompressionBit1

	bfVerMask         = (bfVerBit0 | bfVerBit1 | bfVerBit2 | bfVerBit3)
	bfVer1            = bfVerBit0
	bfCompressionMask = (bfCompressionBit0 | bfCompressionBit1)
	bfLZ4             = bfCompressionBit0
	bfZstd            = bfCompressionBit1
	bfSupportedMask   = (bfVer1 | bfCompressionMask)

	checksumSize       = 8
	minBlockSize       = 4 + checksumSize
	maxBlockHeaderSize = binary.MaxVarintLen64 * 4
	maxBlockItems      = 1 << 30 // sanity value
)

func (bf blockFlags) ver() blockFlags {
	return bf & bfVerMask
}

type block struct {
	Flags   blockFlags
	Count   int
	RawSize int
	Payload []byte
}

// appendBlock encodes count items whose msgpack encoding is raw.
func appendBlock(buf []byte, raw []byte, count int, c Compression) ([]byte, error) {
	payload, flags, err := compress(payloadBytesPool.Get().([]byte)[:0], raw, c)
	defer payloadBytesPool.Put(payload[:0])
	if err != nil {
		return buf, err
	}
	flags |= bfVer1

	bb := bytesBuilder{buf}
	bb.EnsureExtra(maxBlockHeaderSize + len(payload) + checksumSize)
	bb.AppendUvarint(uint64(flags))
	bb.AppendUvarint(uint64(count))
	bb.AppendUvarint(uint64(len(raw)))
	bb.AppendUvarint(uint64(len(payload)))
	bb.Write(payload)
	bb.AppendFixedUint64LE(xxhash.Sum64(payload))
	return bb.Buf, nil
}

// decode parses data without copying; Payload aliases data.
func (blk *block) decode(data []byte) error {
	if len(data) < minBlockSize {
		return dataErrf(data, 0, nil, "invalid block: at least %d bytes required", minBlockSize)
	}
	d := makeByteDecoder(data)

	v, err := d.Uvarint()
	if err != nil {
		return err
	}
	if (v &^ uint64(bfSupportedMask)) != 0 {
		return dataErrf(data, 0, nil, "invalid block: unsupported flags %x", v)
	}
	blk.Flags = blockFlags(v)
	if blk.Flags.ver() != bfVer1 {
		return dataErrf(data, 0, nil, "invalid block: unsupported version %d", blk.Flags.ver())
	}

	count, err := d.Uvarinti()
	if err != nil {
		return err
	}
	if count > maxBlockItems {
		return dataErrf(data, d.Off(), nil, "invalid block: bad item count %d", count)
	}
	blk.Count = count

	if blk.RawSize, err = d.Uvarinti(); err != nil {
		return err
	}
	storedSize, err := d.Uvarinti()
	if err != nil {
		return err
	}
	if storedSize+checksumSize != len(d.Buf) {
		return dataErrf(data, d.Off(), nil, "invalid block: got %d bytes for payload+checksum, expected %d bytes", len(d.Buf), storedSize+checksumSize)
	}
	if blk.Payload, err = d.Raw(storedSize); err != nil {
		return err
	}
	sum, err := d.FixedUint64LE()
	if err != nil {
		return err
	}
	if actual := xxhash.Sum64(blk.Payload); actual != sum {
		return dataErrf(data, len(data)-checksumSize, nil, "invalid block: checksum %016x, computed %016x", sum, actual)
	}
	return nil
}

// raw appends the decompressed payload to dst.
func (blk *block) raw(dst []byte) ([]byte, error) {
	out, err := decompress(dst, blk.Payload, blk.Flags, blk.RawSize)
	if err != nil {
		return dst, dataErrf(blk.Payload, 0, err, "invalid block payload")
	}
	return out, nil
}
