// Package fmindex implements the bidirectional FM index consumed by the
// descent engine: a forward index over the reference text and a mirror
// index over the reversed text. The pair supports synchronized extension in
// either direction: stepping one index while keeping the other index's SA
// range for the same occurrence set up to date.
package fmindex

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"fmdescent/dna"
)

// DefaultFtabChars is the default lookup-table word width.
const DefaultFtabChars = 10

// term is the internal sentinel code appended to the text. It sorts before
// every base; N sorts after T.
const term = 5

// sort order of a code: term < A < C < G < T < N
func orderOf(c byte) byte {
	if c == term {
		return 0
	}
	return c + 1
}

// Options configures index construction.
type Options struct {
	FtabChars int // lookup word width; 0 means DefaultFtabChars
}

// Index is one direction of a bidirectional FM index pair.
type Index struct {
	mirror    bool
	ftabChars int

	n    int    // text length including sentinel
	text []byte // base codes, sentinel last
	sa   []int32
	bwt  []byte
	fchr [6]int    // fchr[c] = first SA row whose suffix starts with code c; fchr[5] = one past N
	occ  [6][]int32 // occ[c][i] = count of c in bwt[:i]
	ftab map[uint32][2]int32
}

// FromSequence builds the forward and mirror indices over ref (ASCII bases;
// anything outside ACGT is indexed as N and never matched).
func FromSequence(ref []byte, opts *Options) (fw, bw *Index, err error) {
	if len(ref) == 0 {
		return nil, nil, errors.New("fmindex: empty reference")
	}
	k := DefaultFtabChars
	if opts != nil && opts.FtabChars > 0 {
		k = opts.FtabChars
	}
	if k > 16 {
		return nil, nil, fmt.Errorf("fmindex: ftab width %d exceeds 16", k)
	}
	codes := dna.Encode(ref)
	fw = newIndex(codes, false, k)
	bw = newIndex(dna.Reverse(codes), true, k)
	return fw, bw, nil
}

func newIndex(codes []byte, mirror bool, ftabChars int) *Index {
	text := make([]byte, len(codes)+1)
	copy(text, codes)
	text[len(codes)] = term
	x := &Index{
		mirror:    mirror,
		ftabChars: ftabChars,
		n:         len(text),
		text:      text,
	}
	x.buildSA()
	x.derive()
	return x
}

// buildSA sorts the suffixes of the text. Comparison runs over the sort
// order of the codes, with the sentinel smallest.
func (x *Index) buildSA() {
	key := make([]byte, x.n)
	for i, c := range x.text {
		key[i] = orderOf(c)
	}
	x.sa = make([]int32, x.n)
	for i := range x.sa {
		x.sa[i] = int32(i)
	}
	sort.Slice(x.sa, func(i, j int) bool {
		return bytes.Compare(key[x.sa[i]:], key[x.sa[j]:]) < 0
	})
}

// derive computes the BWT, character starts, occurrence counts and the ftab
// from text+sa. Called after build and after load.
func (x *Index) derive() {
	n := x.n
	x.bwt = make([]byte, n)
	var cnt [6]int
	for i := 0; i < n; i++ {
		p := int(x.sa[i])
		if p == 0 {
			p = n
		}
		x.bwt[i] = x.text[p-1]
		cnt[x.text[i]]++
	}
	// Row layout: sentinel, A, C, G, T, N.
	x.fchr[dna.A] = cnt[term] // == 1
	for c := dna.A; c < dna.N; c++ {
		x.fchr[c+1] = x.fchr[c] + cnt[c]
	}
	x.fchr[5] = x.fchr[dna.N] + cnt[dna.N]
	for c := 0; c < 6; c++ {
		x.occ[c] = make([]int32, n+1)
	}
	for i := 0; i < n; i++ {
		for c := 0; c < 6; c++ {
			x.occ[c][i+1] = x.occ[c][i]
		}
		x.occ[x.bwt[i]][i+1]++
	}
	x.buildFtab()
}

// buildFtab records the SA range of every ftabChars-word present in the
// text. Rows whose suffix is shorter than the word width or contains a
// non-base never interrupt a word's block, so one pass suffices.
func (x *Index) buildFtab() {
	k := x.ftabChars
	x.ftab = make(map[uint32][2]int32)
	haveCur := false
	var cur uint32
	var lo int32
	flush := func(hi int32) {
		if haveCur {
			x.ftab[cur] = [2]int32{lo, hi}
			haveCur = false
		}
	}
	for i := 0; i < x.n; i++ {
		w, ok := x.packAt(int(x.sa[i]), k)
		if !ok {
			flush(int32(i))
			continue
		}
		if haveCur && w == cur {
			continue
		}
		flush(int32(i))
		haveCur, cur, lo = true, w, int32(i)
	}
	flush(int32(x.n))
}

// packAt packs the k codes starting at text position p, failing on
// non-bases or truncation at the sentinel.
func (x *Index) packAt(p, k int) (uint32, bool) {
	if p+k > x.n-1 {
		return 0, false
	}
	var w uint32
	for i := 0; i < k; i++ {
		c := x.text[p+i]
		if c > dna.T {
			return 0, false
		}
		w = w<<2 | uint32(c)
	}
	return w, true
}

// FtabChars reports the lookup word width.
func (x *Index) FtabChars() int { return x.ftabChars }

// Fchr returns the first SA row whose suffix starts with base code c;
// Fchr(c+1)-Fchr(c) is the number of occurrences of c.
func (x *Index) Fchr(c int) int { return x.fchr[c] }

// Len reports the indexed text length including the sentinel.
func (x *Index) Len() int { return x.n }

// FtabLoHi looks up the SA range of the word seq[off:off+FtabChars] in one
// step. On the mirror index the window is looked up reversed, so forward
// and mirror results always describe the same set of text occurrences.
// Words containing non-bases, or windows out of range, yield an empty range.
func (x *Index) FtabLoHi(seq []byte, off int) (top, bot int) {
	k := x.ftabChars
	if off < 0 || off+k > len(seq) {
		return 0, 0
	}
	var w uint32
	for i := 0; i < k; i++ {
		var c byte
		if x.mirror {
			c = seq[off+k-1-i]
		} else {
			c = seq[off+i]
		}
		if c > dna.T {
			return 0, 0
		}
		w = w<<2 | uint32(c)
	}
	r, ok := x.ftab[w]
	if !ok {
		return 0, 0
	}
	return int(r[0]), int(r[1])
}

// MapBiLFEx performs one backward step on this index for all four bases at
// once. [top,bot) is the current range in this index, [otop,obot) the
// synchronized range in the other index. t/b receive the per-base stepped
// ranges; tp/bp the per-base ranges in the other index. The other-index
// partition is cumulative in base order within [otop,obot), offset by the
// rows whose next character in the extension direction is the text end.
func (x *Index) MapBiLFEx(top, bot, otop, obot int, t, b, tp, bp *[4]int) {
	used := int(x.occ[dna.N][bot] - x.occ[dna.N][top])
	for c := 0; c < 4; c++ {
		t[c] = x.fchr[c] + int(x.occ[c][top])
		b[c] = x.fchr[c] + int(x.occ[c][bot])
		used += b[c] - t[c]
	}
	pos := otop + (bot - top) - used
	for c := 0; c < 4; c++ {
		w := b[c] - t[c]
		tp[c] = pos
		bp[c] = pos + w
		pos += w
	}
}

// MapLF1 performs one backward step for a width-1 range starting at row.
// It returns the stepped row and the base that was consumed, or c = -1 when
// the preceding character is not a base.
func (x *Index) MapLF1(row int) (newRow, c int) {
	bc := x.bwt[row]
	if bc >= dna.N {
		return 0, -1
	}
	return x.fchr[bc] + int(x.occ[bc][row]), int(bc)
}

// SA exposes the suffix-array entry for a row, for callers that resolve
// ranges to text positions.
func (x *Index) SA(row int) int { return int(x.sa[row]) }
