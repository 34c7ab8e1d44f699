// Package kint implements the fixed-width unsigned integers used to hold
// packed kmers.
//
// A kmer of span k needs 2k bits. Spans up to 32 fit into U64, which is just
// a uint64; wider spans use U128, U256 or U512, little-endian arrays of
// 64-bit words. All types are plain values: copying is assignment, equality is
// ==, and arithmetic wraps modulo 2^Bits.
package kint

// Int is the set of operations kmer arithmetic relies on. K is the
// implementing type itself.
type Int[K any] interface {
	comparable

	// Shl shifts left by n bits. Shifting by Bits() or more yields zero.
	Shl(n uint) K
	// Shr shifts right by n bits. Shifting by Bits() or more yields zero.
	Shr(n uint) K
	Add(y K) K
	And(y K) K
	// Cmp returns -1, 0 or +1 under unsigned order.
	Cmp(y K) int
	// Low returns the least significant 64 bits.
	Low() uint64
	// Set64 returns a value equal to v; the receiver is ignored.
	Set64(v uint64) K
	Bits() int
	Hex() string
}

// MaxSpan is the widest kmer span any type in this package can hold.
const MaxSpan = 256

// Instantiating From fails to compile unless the type satisfies Int.
var (
	_ = From[U64]
	_ = From[U128]
	_ = From[U256]
	_ = From[U512]
)

// From returns v widened to K.
func From[K Int[K]](v uint64) K {
	var z K
	return z.Set64(v)
}

// Mask returns a K with the low bits bits set.
func Mask[K Int[K]](bits int) K {
	var z K
	if bits <= 0 {
		return z
	}
	if bits > z.Bits() {
		bits = z.Bits()
	}
	var m K
	if r := bits % 64; r != 0 {
		m = z.Set64(1<<r - 1)
	}
	ones := z.Set64(^uint64(0))
	for i := 0; i < bits/64; i++ {
		m = m.Shl(64).Add(ones)
	}
	return m
}

// Min returns the smaller of a and b.
func Min[K Int[K]](a, b K) K {
	if b.Cmp(a) < 0 {
		return b
	}
	return a
}

// WordsFor returns the number of 64-bit words of the narrowest type in this
// package that holds a kmer of the given span, or 0 if none does.
func WordsFor(span int) int {
	switch {
	case span <= 0:
		return 0
	case span <= 32:
		return 1
	case span <= 64:
		return 2
	case span <= 128:
		return 4
	case span <= MaxSpan:
		return 8
	default:
		return 0
	}
}
