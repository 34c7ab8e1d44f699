package kmer

import (
	"fmt"

	"github.com/hideo55/go-popcount"

	"github.com/andreyvit/kmerdb/kint"
)

// Model holds everything needed to compute kmers of one span. It is immutable
// once created and safe for concurrent use.
type Model[K kint.Int[K]] struct {
	span int
	mask K
	// fwd[c] is code c as a K; rev[c] is the contribution of code c to a
	// reverse complement, complement(c) << 2(span-1).
	fwd [4]K
	rev [4]K
}

// NewModel returns a model for the given span. K must be at least 2*span
// bits wide.
func NewModel[K kint.Int[K]](span int) (*Model[K], error) {
	var z K
	if span <= 0 || 2*span > z.Bits() {
		return nil, fmt.Errorf("kmer: %w: span %d does not fit into a %d-bit kmer", ErrInvalidInput, span, z.Bits())
	}
	m := &Model[K]{
		span: span,
		mask: kint.Mask[K](2 * span),
	}
	shift := uint(2 * (span - 1))
	for c := range m.fwd {
		m.fwd[c] = kint.From[K](uint64(c))
		m.rev[c] = kint.From[K](uint64(Complement(byte(c)))).Shl(shift)
	}
	return m, nil
}

// MustModel is NewModel for spans known to be valid.
func MustModel[K kint.Int[K]](span int) *Model[K] {
	m, err := NewModel[K](span)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Model[K]) Span() int { return m.span }

// Mask returns 2^(2*span)-1.
func (m *Model[K]) Mask() K { return m.mask }

// Contribution returns what code adds to a reverse complement being folded
// right to left: revcomp = (revcomp >> 2) + Contribution(code).
func (m *Model[K]) Contribution(code byte) K { return m.rev[code&3] }

// Canonical returns the smaller of a kmer and its reverse complement.
func (m *Model[K]) Canonical(direct, revcomp K) K {
	return kint.Min(direct, revcomp)
}

// Code returns the direct kmer of the first span nucleotides of window.
func (m *Model[K]) Code(window []byte, enc Encoding) (K, error) {
	return m.CodeMode(window, enc, Direct)
}

// CodeMode returns the kmer of the first span nucleotides of window in the
// given mode.
func (m *Model[K]) CodeMode(window []byte, enc Encoding, mode Mode) (K, error) {
	n := len(window)
	if enc == Binary {
		n *= 4
	}
	return m.CodeData(Data{Buf: window, Encoding: enc, Len: n}, mode)
}

// CodeData is CodeMode for a Data buffer.
func (m *Model[K]) CodeData(d Data, mode Mode) (K, error) {
	var direct, revcomp K
	if err := d.validate(); err != nil {
		return direct, err
	}
	if d.Len < m.span {
		return direct, fmt.Errorf("kmer: %w: window of %d nucleotides is shorter than span %d", ErrInvalidInput, d.Len, m.span)
	}
	for i := 0; i < m.span; i++ {
		c, err := d.codeAt(i)
		if err != nil {
			return direct, err
		}
		direct = direct.Shl(2).Add(m.fwd[c]).And(m.mask)
		revcomp = revcomp.Shr(2).Add(m.rev[c])
	}
	switch mode {
	case Direct:
		return direct, nil
	case Revcomp:
		return revcomp, nil
	case Canonical:
		return m.Canonical(direct, revcomp), nil
	default:
		return direct, fmt.Errorf("kmer: %w: %v", ErrUnsupportedFormat, mode)
	}
}

// Extend appends one nucleotide on the right of the direct kmer k, dropping
// the leftmost one, and returns the resulting kmer in the given mode.
func (m *Model[K]) Extend(k K, ch byte, enc Encoding, mode Mode) (K, error) {
	var c byte
	var ok bool
	switch enc {
	case ASCII:
		c, ok = asciiCode(ch)
	case Integer, Binary:
		c, ok = integerCode(ch)
	default:
		return k, fmt.Errorf("kmer: %w: %v", ErrUnsupportedFormat, enc)
	}
	if !ok {
		return k, invalidChar(ch, 0)
	}
	next := k.Shl(2).Add(m.fwd[c]).And(m.mask)
	switch mode {
	case Direct:
		return next, nil
	case Revcomp:
		return m.ReverseComplement(next), nil
	case Canonical:
		return m.Canonical(next, m.ReverseComplement(next)), nil
	default:
		return k, fmt.Errorf("kmer: %w: %v", ErrUnsupportedFormat, mode)
	}
}

// ReverseComplement computes the reverse complement of k from scratch by
// unpacking and repacking its nucleotides.
func (m *Model[K]) ReverseComplement(k K) K {
	var r K
	for i := 0; i < m.span; i++ {
		c := byte(k.Low() & 3)
		r = r.Shl(2).Add(m.fwd[Complement(c)])
		k = k.Shr(2)
	}
	return r
}

// String returns the nucleotide letters of k.
func (m *Model[K]) String(k K) string {
	buf := make([]byte, m.span)
	for i := m.span - 1; i >= 0; i-- {
		buf[i] = Letter(byte(k.Low() & 3))
		k = k.Shr(2)
	}
	return string(buf)
}

// GCCount returns how many nucleotides of k are C or G.
func (m *Model[K]) GCCount(k K) int {
	k = k.And(m.mask)
	var n int
	for left := m.span; left > 0; left -= 32 {
		w := k.Low()
		// C=01 and G=10 are the two codes whose bits differ.
		x := (w ^ (w >> 1)) & 0x5555555555555555
		if left < 32 {
			x &= 1<<(2*uint(left)) - 1
		}
		n += int(popcount.Count(x))
		k = k.Shr(64)
	}
	return n
}

func (d Data) codeAt(i int) (byte, error) {
	switch d.Encoding {
	case ASCII:
		if c, ok := asciiCode(d.Buf[i]); ok {
			return c, nil
		}
	case Integer:
		if c, ok := integerCode(d.Buf[i]); ok {
			return c, nil
		}
	case Binary:
		return (d.Buf[i>>2] >> ((3 - uint(i&3)) * 2)) & 3, nil
	}
	return 0, invalidChar(d.Buf[i], i)
}
