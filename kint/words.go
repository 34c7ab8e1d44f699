package kint

import (
	"fmt"
	"math/bits"
	"strings"
)

// U128 holds kmers of span up to 64.
type U128 [2]uint64

// U256 holds kmers of span up to 128.
type U256 [4]uint64

// U512 holds kmers of span up to 256.
type U512 [8]uint64

func (x U128) Shl(n uint) U128   { shl(x[:], n); return x }
func (x U128) Shr(n uint) U128   { shr(x[:], n); return x }
func (x U128) Add(y U128) U128   { add(x[:], y[:]); return x }
func (x U128) And(y U128) U128   { and(x[:], y[:]); return x }
func (x U128) Cmp(y U128) int    { return cmp(x[:], y[:]) }
func (x U128) Low() uint64       { return x[0] }
func (U128) Set64(v uint64) U128 { return U128{v} }
func (U128) Bits() int           { return 128 }
func (x U128) Hex() string       { return hex(x[:]) }

func (x U256) Shl(n uint) U256   { shl(x[:], n); return x }
func (x U256) Shr(n uint) U256   { shr(x[:], n); return x }
func (x U256) Add(y U256) U256   { add(x[:], y[:]); return x }
func (x U256) And(y U256) U256   { and(x[:], y[:]); return x }
func (x U256) Cmp(y U256) int    { return cmp(x[:], y[:]) }
func (x U256) Low() uint64       { return x[0] }
func (U256) Set64(v uint64) U256 { return U256{v} }
func (U256) Bits() int           { return 256 }
func (x U256) Hex() string       { return hex(x[:]) }

func (x U512) Shl(n uint) U512   { shl(x[:], n); return x }
func (x U512) Shr(n uint) U512   { shr(x[:], n); return x }
func (x U512) Add(y U512) U512   { add(x[:], y[:]); return x }
func (x U512) And(y U512) U512   { and(x[:], y[:]); return x }
func (x U512) Cmp(y U512) int    { return cmp(x[:], y[:]) }
func (x U512) Low() uint64       { return x[0] }
func (U512) Set64(v uint64) U512 { return U512{v} }
func (U512) Bits() int           { return 512 }
func (x U512) Hex() string       { return hex(x[:]) }

// shl shifts w (little-endian words) left by n bits in place. Walking from
// the top word down only ever reads words that have not been written yet.
func shl(w []uint64, n uint) {
	words, off := int(n/64), n%64
	for i := len(w) - 1; i >= 0; i-- {
		var v uint64
		if src := i - words; src >= 0 {
			v = w[src] << off
			if off != 0 && src > 0 {
				v |= w[src-1] >> (64 - off)
			}
		}
		w[i] = v
	}
}

// shr is the mirror of shl, walking from the bottom word up.
func shr(w []uint64, n uint) {
	words, off := int(n/64), n%64
	for i := range w {
		var v uint64
		if src := i + words; src < len(w) {
			v = w[src] >> off
			if off != 0 && src+1 < len(w) {
				v |= w[src+1] << (64 - off)
			}
		}
		w[i] = v
	}
}

func add(x, y []uint64) {
	var carry uint64
	for i := range x {
		x[i], carry = bits.Add64(x[i], y[i], carry)
	}
}

func and(x, y []uint64) {
	for i := range x {
		x[i] &= y[i]
	}
}

func cmp(x, y []uint64) int {
	for i := len(x) - 1; i >= 0; i-- {
		if x[i] < y[i] {
			return -1
		} else if x[i] > y[i] {
			return 1
		}
	}
	return 0
}

func hex(w []uint64) string {
	var buf strings.Builder
	buf.Grow(16 * len(w))
	for i := len(w) - 1; i >= 0; i-- {
		fmt.Fprintf(&buf, "%016x", w[i])
	}
	return buf.String()
}
