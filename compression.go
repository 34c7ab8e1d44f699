package kmerdb

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how collection blocks are compressed.
type Compression uint8

const (
	CompressionNone Compression = iota
	// CompressionLZ4 is fast, good for data that is written once and read
	// soon after (partitions of a single run).
	CompressionLZ4
	// CompressionZstd compresses better, good for long-lived containers.
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

func (c Compression) flags() blockFlags {
	switch c {
	case CompressionLZ4:
		return bfLZ4
	case CompressionZstd:
		return bfZstd
	default:
		return 0
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compress appends the compressed form of raw to dst. When compression
// doesn't make raw smaller, raw is appended as is and the returned flags are
// zero.
func compress(dst, raw []byte, c Compression) ([]byte, blockFlags, error) {
	if len(raw) == 0 {
		return dst, 0, nil
	}
	start := len(dst)
	switch c {
	case CompressionNone:
		return appendRaw(dst, raw), 0, nil

	case CompressionLZ4:
		off, buf := grow(dst, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf[off:], nil)
		if err != nil {
			return dst, 0, err
		}
		if n == 0 || n >= len(raw) {
			return appendRaw(dst, raw), 0, nil
		}
		return buf[:off+n], bfLZ4, nil

	case CompressionZstd:
		enc := getZstdEncoder()
		out := enc.EncodeAll(raw, dst)
		zstdEncoderPool.Put(enc)
		if len(out)-start >= len(raw) {
			return appendRaw(out[:start], raw), 0, nil
		}
		return out, bfZstd, nil

	default:
		return dst, 0, fmt.Errorf("kmerdb: unsupported compression %v", c)
	}
}

// decompress appends the rawSize bytes encoded in payload to dst.
func decompress(dst, payload []byte, flags blockFlags, rawSize int) ([]byte, error) {
	switch flags & bfCompressionMask {
	case 0:
		if len(payload) != rawSize {
			return dst, fmt.Errorf("stored %d bytes, expected %d", len(payload), rawSize)
		}
		return appendRaw(dst, payload), nil

	case bfLZ4:
		off, buf := grow(dst, rawSize)
		n, err := lz4.UncompressBlock(payload, buf[off:])
		if err != nil {
			return dst, err
		}
		if n != rawSize {
			return dst, fmt.Errorf("lz4 produced %d bytes, expected %d", n, rawSize)
		}
		return buf, nil

	case bfZstd:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(payload, dst)
		zstdDecoderPool.Put(dec)
		if err != nil {
			return dst, err
		}
		if len(out)-len(dst) != rawSize {
			return dst, fmt.Errorf("zstd produced %d bytes, expected %d", len(out)-len(dst), rawSize)
		}
		return out, nil

	default:
		return dst, fmt.Errorf("unknown compression flags %x", uint64(flags))
	}
}
