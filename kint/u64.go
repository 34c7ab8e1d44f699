package kint

import "fmt"

// U64 holds kmers of span up to 32.
type U64 uint64

func (x U64) Shl(n uint) U64   { return x << n }
func (x U64) Shr(n uint) U64   { return x >> n }
func (x U64) Add(y U64) U64    { return x + y }
func (x U64) And(y U64) U64    { return x & y }
func (x U64) Low() uint64      { return uint64(x) }
func (U64) Set64(v uint64) U64 { return U64(v) }
func (U64) Bits() int          { return 64 }
func (x U64) Hex() string      { return fmt.Sprintf("%016x", uint64(x)) }
func (x U64) Cmp(y U64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}
