package kmerdb

import (
	"encoding/binary"
	"io"
	"math"
	"slices"
)

// grow extends buf by n bytes and returns the offset of the new bytes.
func grow(buf []byte, n int) (int, []byte) {
	off := len(buf)
	return off, slices.Grow(buf, n)[:off+n]
}

func appendRaw(buf []byte, chunk []byte) []byte {
	off, buf := grow(buf, len(chunk))
	copy(buf[off:], chunk)
	return buf
}

// bytesBuilder is the io.Writer that item encoders and the block writer
// append into. Buf may come from a pool.
type bytesBuilder struct {
	Buf []byte
}

var (
	_ io.Writer     = (*bytesBuilder)(nil)
	_ io.ByteWriter = (*bytesBuilder)(nil)
)

func (bb *bytesBuilder) EnsureExtra(n int) {
	bb.Buf = slices.Grow(bb.Buf, n)
}

func (bb *bytesBuilder) Write(b []byte) (int, error) {
	bb.Buf = appendRaw(bb.Buf, b)
	return len(b), nil
}

func (bb *bytesBuilder) WriteByte(v byte) error {
	bb.Buf = append(bb.Buf, v)
	return nil
}

func (bb *bytesBuilder) AppendUvarint(v uint64) {
	bb.Buf = binary.AppendUvarint(bb.Buf, v)
}

func (bb *bytesBuilder) AppendFixedUint64LE(v uint64) {
	bb.Buf = binary.LittleEndian.AppendUint64(bb.Buf, v)
}

// byteDecoder consumes Buf from the front; Orig is kept for error offsets.
type byteDecoder struct {
	Orig []byte
	Buf  []byte
}

func makeByteDecoder(buf []byte) byteDecoder {
	return byteDecoder{buf, buf}
}

func (d *byteDecoder) Off() int {
	return len(d.Orig) - len(d.Buf)
}

func (d *byteDecoder) Uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.Buf)
	if n <= 0 {
		return 0, dataErrf(d.Orig, d.Off(), nil, "invalid uvarint")
	}
	d.Buf = d.Buf[n:]
	return v, nil
}

func (d *byteDecoder) Uvarinti() (int, error) {
	v, err := d.Uvarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt {
		return 0, dataErrf(d.Orig, d.Off(), nil, "value does not fit into int: %d", v)
	}
	return int(v), nil
}

// Raw returns the next n bytes without copying.
func (d *byteDecoder) Raw(n int) ([]byte, error) {
	if n < 0 || len(d.Buf) < n {
		return nil, dataErrf(d.Orig, d.Off(), nil, "not enough data: %d bytes remaining, %d wanted", len(d.Buf), n)
	}
	v := d.Buf[:n:n]
	d.Buf = d.Buf[n:]
	return v, nil
}

func (d *byteDecoder) FixedUint64LE() (uint64, error) {
	raw, err := d.Raw(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(raw), nil
}
