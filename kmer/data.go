// Package kmer turns nucleotide sequences into packed integer kmers.
//
// A Model fixes the kmer span and the integer type. Nucleotides are coded
// A=0, C=1, G=2, T=3, so the complement of c is 3-c, and a kmer packs its
// first nucleotide into the most significant bits:
//
//	ACGT = 00 01 10 11 = 0x1B
//
// The canonical kmer is the smaller of a kmer and its reverse complement; it
// is what graph construction uses so that a read and its reverse complement
// contribute the same kmers.
package kmer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for windows shorter than the span and for
	// characters outside the ACGT alphabet.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedFormat is returned for encoding/mode combinations the
	// requested operation does not support.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Encoding says how a buffer stores nucleotides.
type Encoding uint8

const (
	// ASCII is one letter per byte, case-insensitive.
	ASCII Encoding = iota
	// Integer is one code (0..3) per byte.
	Integer
	// Binary packs four codes per byte, first nucleotide in the high bits.
	Binary
)

func (enc Encoding) String() string {
	switch enc {
	case ASCII:
		return "ascii"
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(enc))
	}
}

// Mode selects which kmer is produced for a window.
type Mode uint8

const (
	// Canonical is the minimum of the direct kmer and its reverse complement.
	Canonical Mode = iota
	// Direct is the window folded left to right.
	Direct
	// Revcomp is the reverse complement of the window.
	Revcomp
)

func (m Mode) String() string {
	switch m {
	case Canonical:
		return "canonical"
	case Direct:
		return "direct"
	case Revcomp:
		return "revcomp"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Data is a nucleotide buffer as handed over by a sequence bank: the bytes,
// how they are encoded, and how many nucleotides they hold. For ASCII and
// Integer, Len is normally len(Buf); for Binary it is up to 4*len(Buf).
type Data struct {
	Buf      []byte
	Encoding Encoding
	Len      int
}

// ASCIIData wraps a sequence of letters.
func ASCIIData(seq string) Data {
	return Data{Buf: []byte(seq), Encoding: ASCII, Len: len(seq)}
}

// IntegerData wraps a sequence of codes.
func IntegerData(codes []byte) Data {
	return Data{Buf: codes, Encoding: Integer, Len: len(codes)}
}

// BinaryData wraps a packed sequence of n nucleotides.
func BinaryData(packed []byte, n int) Data {
	return Data{Buf: packed, Encoding: Binary, Len: n}
}

// Pack converts an ASCII sequence into the Binary encoding.
func Pack(seq string) (Data, error) {
	packed := make([]byte, (len(seq)+3)/4)
	for i := 0; i < len(seq); i++ {
		c, ok := asciiCode(seq[i])
		if !ok {
			return Data{}, invalidChar(seq[i], i)
		}
		packed[i>>2] |= c << ((3 - uint(i&3)) * 2)
	}
	return BinaryData(packed, len(seq)), nil
}

func (d Data) validate() error {
	var need int
	switch d.Encoding {
	case ASCII, Integer:
		need = d.Len
	case Binary:
		need = (d.Len + 3) / 4
	default:
		return fmt.Errorf("kmer: %w: %v", ErrUnsupportedFormat, d.Encoding)
	}
	if d.Len < 0 || need > len(d.Buf) {
		return fmt.Errorf("kmer: %w: %d nucleotides do not fit into %d %v bytes", ErrInvalidInput, d.Len, len(d.Buf), d.Encoding)
	}
	return nil
}

// expand decodes a Binary buffer into one code per byte, appending to dst.
func (d Data) expand(dst []byte) []byte {
	for i := 0; i < d.Len; i++ {
		dst = append(dst, (d.Buf[i>>2]>>((3-uint(i&3))*2))&3)
	}
	return dst
}
