package kint

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromWords[K Int[K]](ws []uint64) K {
	var k K
	for i := len(ws) - 1; i >= 0; i-- {
		k = k.Shl(64).Add(From[K](ws[i]))
	}
	return k
}

func toBig[K Int[K]](k K) *big.Int {
	r := new(big.Int)
	words := k.Bits() / 64
	for i := 0; i < words; i++ {
		w := new(big.Int).SetUint64(k.Low())
		r.Or(r, w.Lsh(w, uint(64*i)))
		k = k.Shr(64)
	}
	return r
}

func requireBig(t *testing.T, want, got *big.Int, msgAndArgs ...any) {
	t.Helper()
	require.Equal(t, want.Text(16), got.Text(16), msgAndArgs...)
}

func randomWords(rnd *rand.Rand, n int) []uint64 {
	ws := make([]uint64, n)
	for i := range ws {
		ws[i] = rnd.Uint64()
		// sparse values exercise carries and borders
		if rnd.Intn(4) == 0 {
			ws[i] = 0
		}
	}
	return ws
}

func checkArithmetic[K Int[K]](t *testing.T) {
	var z K
	nbits := z.Bits()
	words := nbits / 64
	modulus := new(big.Int).Lsh(big.NewInt(1), uint(nbits))
	rnd := rand.New(rand.NewSource(int64(nbits)))

	for iter := 0; iter < 500; iter++ {
		xw, yw := randomWords(rnd, words), randomWords(rnd, words)
		x, y := fromWords[K](xw), fromWords[K](yw)
		bx, by := toBig(x), toBig(y)

		sum := new(big.Int).Add(bx, by)
		sum.Mod(sum, modulus)
		requireBig(t, sum, toBig(x.Add(y)), "add %s %s", x.Hex(), y.Hex())

		requireBig(t, new(big.Int).And(bx, by), toBig(x.And(y)), "and")
		require.Equal(t, bx.Cmp(by), x.Cmp(y))

		n := uint(rnd.Intn(nbits + 8))
		shl := new(big.Int).Lsh(bx, n)
		shl.Mod(shl, modulus)
		requireBig(t, shl, toBig(x.Shl(n)), "shl %s by %d", x.Hex(), n)
		requireBig(t, new(big.Int).Rsh(bx, n), toBig(x.Shr(n)), "shr %s by %d", x.Hex(), n)
	}
}

func TestArithmetic(t *testing.T) {
	t.Run("U64", checkArithmetic[U64])
	t.Run("U128", checkArithmetic[U128])
	t.Run("U256", checkArithmetic[U256])
	t.Run("U512", checkArithmetic[U512])
}

func TestMask(t *testing.T) {
	assert.Equal(t, U64(0xFF), Mask[U64](8))
	assert.Equal(t, U64(^uint64(0)), Mask[U64](64))
	assert.Equal(t, U64(^uint64(0)), Mask[U64](100))
	assert.Equal(t, U64(0), Mask[U64](0))

	assert.Equal(t, U128{^uint64(0), 0xF}, Mask[U128](68))
	assert.Equal(t, U128{^uint64(0), ^uint64(0)}, Mask[U128](128))
	assert.Equal(t, U256{^uint64(0), ^uint64(0), 1, 0}, Mask[U256](129))
}

func TestMin(t *testing.T) {
	a, b := U128{5, 1}, U128{7, 0}
	assert.Equal(t, b, Min(a, b))
	assert.Equal(t, b, Min(b, a))
	assert.Equal(t, a, Min(a, a))
}

func TestHex(t *testing.T) {
	assert.Equal(t, "000000000000001b", U64(0x1B).Hex())
	assert.Equal(t, "00000000000000020000000000000001", U128{1, 2}.Hex())
}

func TestWordsFor(t *testing.T) {
	assert.Equal(t, 0, WordsFor(0))
	assert.Equal(t, 1, WordsFor(31))
	assert.Equal(t, 1, WordsFor(32))
	assert.Equal(t, 2, WordsFor(33))
	assert.Equal(t, 4, WordsFor(100))
	assert.Equal(t, 8, WordsFor(256))
	assert.Equal(t, 0, WordsFor(257))
}

func checkWidth[K Int[K]](t *testing.T, bits int) {
	t.Helper()
	var z K
	assert.Equal(t, bits, z.Bits())
	assert.Equal(t, uint64(7), From[K](7).Low())
	assert.Equal(t, z, Mask[K](bits).Add(From[K](1)))
}

func TestTypesSatisfyInt(t *testing.T) {
	checkWidth[U64](t, 64)
	checkWidth[U128](t, 128)
	checkWidth[U256](t, 256)
	checkWidth[U512](t, 512)
}
