package kmerdb

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestBytesBuilder_Basics(t *testing.T) {
	var bb bytesBuilder
	bb.EnsureExtra(128)
	if cap(bb.Buf) < 128 {
		t.Fatalf("cap(bb.Buf) = %d, wanted >= 128", cap(bb.Buf))
	}

	_, _ = bb.Write([]byte{1, 2, 3})
	_ = bb.WriteByte(4)
	bb.AppendFixedUint64LE(0x0102030405060708)
	bb.AppendUvarint(300)

	want := []byte{1, 2, 3, 4}
	want = binary.LittleEndian.AppendUint64(want, 0x0102030405060708)
	want = binary.AppendUvarint(want, 300)

	if !reflect.DeepEqual(bb.Buf, want) {
		t.Fatalf("bb.Buf = %x, wanted %x", bb.Buf, want)
	}
}

func TestByteUtil_GrowKeepsContents(t *testing.T) {
	buf := appendRaw(nil, []byte{0xAA, 0xBB, 0xCC})
	off, buf := grow(buf, 100)
	if off != 3 || len(buf) != 103 {
		t.Fatalf("grow = (off=%d, len=%d), wanted (3, 103)", off, len(buf))
	}
	if !reflect.DeepEqual(buf[:3], []byte{0xAA, 0xBB, 0xCC}) {
		t.Fatalf("grow lost contents: %x", buf[:3])
	}
}

func TestByteDecoder_Sequence(t *testing.T) {
	var bb bytesBuilder
	bb.AppendUvarint(300)
	bb.AppendFixedUint64LE(42)
	_, _ = bb.Write([]byte("tail"))

	d := makeByteDecoder(bb.Buf)
	if v, err := d.Uvarinti(); err != nil || v != 300 {
		t.Fatalf("Uvarinti = (%d, %v), wanted (300, nil)", v, err)
	}
	if d.Off() != 2 {
		t.Fatalf("Off = %d, wanted 2", d.Off())
	}
	if v, err := d.FixedUint64LE(); err != nil || v != 42 {
		t.Fatalf("FixedUint64LE = (%d, %v), wanted (42, nil)", v, err)
	}
	if v, err := d.Raw(4); err != nil || string(v) != "tail" {
		t.Fatalf("Raw = (%q, %v), wanted (\"tail\", nil)", v, err)
	}
	if len(d.Buf) != 0 {
		t.Fatalf("remaining = %d, wanted 0", len(d.Buf))
	}
}

func TestByteDecoder_Errors(t *testing.T) {
	t.Run("invalid uvarint", func(t *testing.T) {
		d := makeByteDecoder([]byte{0x80}) // continuation bit with no terminator
		_, err := d.Uvarint()
		var de *DataError
		if !errors.As(err, &de) {
			t.Fatalf("Uvarint err = %T %v, wanted *DataError", err, err)
		}
		if de.Off != 0 {
			t.Fatalf("DataError.Off = %d, wanted 0", de.Off)
		}
		if !errors.Is(err, ErrBackend) {
			t.Fatalf("errors.Is(err, ErrBackend) = false, wanted true")
		}
	})

	t.Run("uvarint overflows int", func(t *testing.T) {
		var b [binary.MaxVarintLen64]byte
		n := binary.PutUvarint(b[:], uint64(math.MaxInt)+1)
		d := makeByteDecoder(b[:n])
		_, err := d.Uvarinti()
		if err == nil {
			t.Fatalf("Uvarinti err = nil, wanted error")
		}
	})

	t.Run("Raw not enough data", func(t *testing.T) {
		d := makeByteDecoder([]byte{1, 2})
		_, err := d.Raw(3)
		if err == nil {
			t.Fatalf("Raw err = nil, wanted error")
		}
	})
}
