package kmer

import "fmt"

const letters = "ACGT"

// asciiCodes maps letters to codes; 0xFF marks everything else.
var asciiCodes = func() (t [256]byte) {
	for i := range t {
		t[i] = 0xFF
	}
	for code, ch := range letters {
		t[ch] = byte(code)
		t[ch+'a'-'A'] = byte(code)
	}
	return
}()

func asciiCode(ch byte) (byte, bool) {
	c := asciiCodes[ch]
	return c, c != 0xFF
}

func integerCode(ch byte) (byte, bool) {
	return ch, ch <= 3
}

// codeFunc fetches the nucleotide code stored in one byte of a buffer.
type codeFunc func(ch byte) (byte, bool)

func codeFuncFor(enc Encoding) codeFunc {
	switch enc {
	case ASCII:
		return asciiCode
	case Integer:
		return integerCode
	default:
		return nil
	}
}

// Complement returns the code of the complementary nucleotide.
func Complement(code byte) byte {
	return 3 - code
}

// Letter returns the nucleotide letter for a code.
func Letter(code byte) byte {
	return letters[code&3]
}

func invalidChar(ch byte, pos int) error {
	if ch >= 0x20 && ch < 0x7F {
		return fmt.Errorf("kmer: %w: %q at position %d", ErrInvalidInput, ch, pos)
	}
	return fmt.Errorf("kmer: %w: byte 0x%02x at position %d", ErrInvalidInput, ch, pos)
}
