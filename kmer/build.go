package kmer

import (
	"fmt"
	"slices"
	"sync"
)

var codeBufPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 4096)
	},
}

// Build appends the kmers of every window of data to dst, in order, and
// returns the extended slice. Data shorter than the span yields no kmers and
// no error. Only Direct and Canonical modes are supported.
//
// The first kmer is folded from scratch; every following one is derived
// from its predecessor in constant time. Direct mode does not maintain the
// reverse complement at all.
//
// On error, dst is returned with its original length.
func (m *Model[K]) Build(dst []K, data Data, mode Mode) ([]K, error) {
	if mode != Direct && mode != Canonical {
		return dst, fmt.Errorf("kmer: %w: cannot build %v kmers from %v data", ErrUnsupportedFormat, mode, data.Encoding)
	}
	if err := data.validate(); err != nil {
		return dst, err
	}
	if data.Len < m.span {
		return dst, nil
	}

	// Binary data packs four nucleotides per byte, so Len exceeds len(Buf).
	var buf []byte
	enc := data.Encoding
	if enc == Binary {
		codes := codeBufPool.Get().([]byte)
		codes = data.expand(codes[:0])
		defer codeBufPool.Put(codes[:0])
		buf, enc = codes, Integer
	} else {
		buf = data.Buf[:data.Len]
	}
	return m.build(dst, buf, codeFuncFor(enc), mode)
}

func (m *Model[K]) build(dst []K, buf []byte, code codeFunc, mode Mode) ([]K, error) {
	start := len(dst)
	dst = slices.Grow(dst, len(buf)-m.span+1)
	canonical := mode == Canonical

	var direct, revcomp K
	for i := 0; i < m.span; i++ {
		c, ok := code(buf[i])
		if !ok {
			return dst[:start], invalidChar(buf[i], i)
		}
		direct = direct.Shl(2).Add(m.fwd[c]).And(m.mask)
		if canonical {
			revcomp = revcomp.Shr(2).Add(m.rev[c])
		}
	}

	if !canonical {
		dst = append(dst, direct)
		for i := m.span; i < len(buf); i++ {
			c, ok := code(buf[i])
			if !ok {
				return dst[:start], invalidChar(buf[i], i)
			}
			direct = direct.Shl(2).Add(m.fwd[c]).And(m.mask)
			dst = append(dst, direct)
		}
		return dst, nil
	}

	dst = append(dst, m.Canonical(direct, revcomp))
	for i := m.span; i < len(buf); i++ {
		c, ok := code(buf[i])
		if !ok {
			return dst[:start], invalidChar(buf[i], i)
		}
		direct = direct.Shl(2).Add(m.fwd[c]).And(m.mask)
		revcomp = revcomp.Shr(2).Add(m.rev[c]).And(m.mask)
		dst = append(dst, m.Canonical(direct, revcomp))
	}
	return dst, nil
}
