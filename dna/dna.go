// Package dna holds the base-code alphabet shared by the index and the
// search engine: A=0, C=1, G=2, T=3, N=4.
package dna

const (
	A = 0
	C = 1
	G = 2
	T = 3
	N = 4
)

var code [256]byte

func init() {
	for i := range code {
		code[i] = N
	}
	code['A'], code['a'] = A, A
	code['C'], code['c'] = C, C
	code['G'], code['g'] = G, G
	code['T'], code['t'] = T, T
}

// Code maps an ASCII base to its code; anything outside ACGT maps to N.
func Code(b byte) byte { return code[b] }

// Char maps a base code back to its ASCII character.
func Char(c byte) byte {
	if c > N {
		return '?'
	}
	return "ACGTN"[c]
}

// Encode converts an ASCII sequence to base codes.
func Encode(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, b := range seq {
		out[i] = code[b]
	}
	return out
}

// Comp complements a base code. N is its own complement.
func Comp(c byte) byte {
	if c >= N {
		return N
	}
	return c ^ 3
}

// RevComp reverse-complements a slice of base codes.
func RevComp(seq []byte) []byte {
	n := len(seq)
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = Comp(seq[n-1-i])
	}
	return out
}

// Reverse returns a reversed copy of a code slice.
func Reverse(seq []byte) []byte {
	n := len(seq)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = seq[n-1-i]
	}
	return out
}
