package descent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fmdescent/dna"
	"fmdescent/fmindex"
	"fmdescent/scoring"
)

var _ Index = (*fmindex.Index)(nil)
var _ Scoring = (*scoring.Scheme)(nil)

// Calibration reference: the sequence, a run of Ns, and either a full or a
// truncated second copy (the truncated variant makes the 30-mer query
// unique).
const calSeq = "CATGTCAGCTATATAGCGCGCTCGCATCATTTTGTGTGTAAACCA"

// The 30-mer at reference offset 7.
const calQuery = "GCTATATAGCGCGCTCGCATCATTTTGTGT"

func doubleIdx(t *testing.T) (Index, Index) {
	t.Helper()
	fw, bw, err := fmindex.FromSequence([]byte(calSeq+strings.Repeat("N", 10)+calSeq), nil)
	require.NoError(t, err)
	return fw, bw
}

func uniqueIdx(t *testing.T) (Index, Index) {
	t.Helper()
	fw, bw, err := fmindex.FromSequence([]byte(calSeq+strings.Repeat("N", 10)+calSeq[:18]), nil)
	require.NoError(t, err)
	return fw, bw
}

func quals(n int) []byte {
	const pat = "ABCDEFGHIabcdefghi"
	out := make([]byte, n)
	for i := range out {
		out[i] = pat[i%len(pat)]
	}
	return out
}

func search(t *testing.T, fwIdx, bwIdx Index, sc Scoring, seq string, cons Consistency, roots []Root) *Driver {
	t.Helper()
	dr := NewDriver()
	require.NoError(t, dr.InitRead([]byte(seq), quals(len(seq))))
	for _, r := range roots {
		require.NoError(t, dr.AddRoot(Config{Cons: cons}, r.Off5p, r.L2R, r.Fw, r.Pri))
	}
	dr.Go(sc, fwIdx, bwIdx, nil)
	return dr
}

func checkWidths(t *testing.T, s *AlignmentSink) {
	t.Helper()
	for _, a := range s.Alignments() {
		assert.Equal(t, a.Botf-a.Topf, a.Botb-a.Topb, "range widths must agree")
		assert.Greater(t, a.Botf, a.Topf)
	}
}

// Query longer than the ftab, matching the doubled reference exactly twice.
func TestExactMatchLongerThanFtab(t *testing.T) {
	fwIdx, bwIdx := doubleIdx(t)
	for _, r := range []Root{
		{Off5p: 0, L2R: true, Fw: true},
		{Off5p: len(calQuery) - 1, L2R: false, Fw: true},
	} {
		dr := search(t, fwIdx, bwIdx, scoring.Base1(), calQuery, Linear(0, 1), []Root{r})
		require.Equal(t, 1, dr.Sink().NumRanges())
		assert.Equal(t, 2, dr.Sink().NumElts())
		assert.Equal(t, 0, dr.Sink().At(0).Pen)
		assert.Empty(t, dr.Sink().At(0).Edits)
		checkWidths(t, dr.Sink())
	}
}

// Query exactly as long as the ftab: the whole alignment is one lookup.
func TestExactMatchEqualToFtab(t *testing.T) {
	fwIdx, bwIdx := doubleIdx(t)
	for _, r := range []Root{
		{Off5p: 0, L2R: true, Fw: true},
		{Off5p: 9, L2R: false, Fw: true},
	} {
		dr := search(t, fwIdx, bwIdx, scoring.Base1(), calQuery[:10], Linear(0, 1), []Root{r})
		require.Equal(t, 1, dr.Sink().NumRanges())
		assert.Equal(t, 2, dr.Sink().NumElts())
		assert.Equal(t, 0, dr.Sink().At(0).Pen)
	}
}

// Query shorter than the ftab: the lookup must be bypassed.
func TestExactMatchShorterThanFtab(t *testing.T) {
	fwIdx, bwIdx := doubleIdx(t)
	for _, r := range []Root{
		{Off5p: 0, L2R: true, Fw: true},
		{Off5p: 8, L2R: false, Fw: true},
	} {
		dr := search(t, fwIdx, bwIdx, scoring.Base1(), calQuery[:9], Linear(0, 1), []Root{r})
		require.Equal(t, 1, dr.Sink().NumRanges())
		assert.Equal(t, 2, dr.Sink().NumElts())
		assert.Equal(t, 0, dr.Sink().At(0).Pen)
	}
}

// Root in the middle of the read: the alignment completes via a bounce.
func TestBounceFromMidReadRoot(t *testing.T) {
	fwIdx, bwIdx := doubleIdx(t)
	for _, r := range []Root{
		{Off5p: 10, L2R: true, Fw: true},
		{Off5p: len(calQuery) - 1 - 10, L2R: false, Fw: true},
	} {
		var met Metrics
		dr := NewDriver()
		require.NoError(t, dr.InitRead([]byte(calQuery), quals(len(calQuery))))
		require.NoError(t, dr.AddRoot(Config{Cons: Linear(0, 1)}, r.Off5p, r.L2R, r.Fw, 0))
		dr.Go(scoring.Base1(), fwIdx, bwIdx, &met)
		require.Equal(t, 1, dr.Sink().NumRanges())
		assert.Equal(t, 2, dr.Sink().NumElts())
		assert.NotZero(t, met.Bounces)
		checkWidths(t, dr.Sink())
	}
}

// One mismatch planted at offset 15; roots placed so the ftab window does
// not straddle it and the mismatch depth affords its penalty.
func TestSingleMismatch(t *testing.T) {
	fwIdx, bwIdx := uniqueIdx(t)
	seq := []byte(calQuery)
	seq[15] = dna.Char(dna.Comp(dna.Code(seq[15])))
	for _, r := range []Root{
		{Off5p: 0, L2R: true, Fw: true},
		{Off5p: len(seq) - 1, L2R: false, Fw: true},
	} {
		dr := search(t, fwIdx, bwIdx, scoring.Base1(), string(seq), Linear(0, 1), []Root{r})
		require.Equal(t, 1, dr.Sink().NumRanges())
		assert.Equal(t, 1, dr.Sink().NumElts())
		al := dr.Sink().At(0)
		assert.Equal(t, 3, al.Pen)
		require.Len(t, al.Edits, 1)
		e := al.Edits[0]
		assert.Equal(t, EditMM, e.Type)
		assert.Equal(t, 15, e.Pos)
		assert.Equal(t, int(dna.Code(calQuery[15])), e.Chr)
		assert.Equal(t, int(dna.Code(seq[15])), e.Qchr)
		checkWidths(t, dr.Sink())
	}
}

// A root on the reverse-complement strand added alongside the forward one
// must not disturb the unique forward hit.
func TestSingleMismatchWithRcRoot(t *testing.T) {
	fwIdx, bwIdx := uniqueIdx(t)
	seq := []byte(calQuery)
	seq[15] = dna.Char(dna.Comp(dna.Code(seq[15])))
	dr := search(t, fwIdx, bwIdx, scoring.Base1(), string(seq), Linear(0, 1), []Root{
		{Off5p: 0, L2R: true, Fw: true, Pri: 0},
		{Off5p: 0, L2R: true, Fw: false, Pri: 1},
	})
	require.Equal(t, 1, dr.Sink().NumRanges())
	assert.Equal(t, 1, dr.Sink().NumElts())
	assert.Equal(t, 3, dr.Sink().At(0).Pen)
	assert.True(t, dr.Sink().At(0).Fw)
}

// The planted penalty exactly equals the (flat) consistency cap: accepted.
func TestPenaltyExactlyAtCap(t *testing.T) {
	fwIdx, bwIdx := uniqueIdx(t)
	seq := []byte(calQuery)
	seq[15] = dna.Char(dna.Comp(dna.Code(seq[15])))
	dr := search(t, fwIdx, bwIdx, scoring.Base1(), string(seq), Linear(3, 0),
		[]Root{{Off5p: 0, L2R: true, Fw: true}})
	require.Equal(t, 1, dr.Sink().NumRanges())
	assert.Equal(t, 3, dr.Sink().At(0).Pen)
}

// One read base deleted at offset 15: a length-1 read gap costing exactly
// the gap-open penalty.
func TestReadGapLength1(t *testing.T) {
	fwIdx, bwIdx := uniqueIdx(t)
	seq := calQuery[:15] + calQuery[16:]
	sc := scoring.Base1()
	for _, r := range []Root{
		{Off5p: 0, L2R: true, Fw: true},
		{Off5p: len(seq) - 1, L2R: false, Fw: true},
	} {
		dr := search(t, fwIdx, bwIdx, sc, seq, Linear(0, 1.5), []Root{r})
		require.Equal(t, 1, dr.Sink().NumRanges())
		assert.Equal(t, 1, dr.Sink().NumElts())
		al := dr.Sink().At(0)
		assert.Equal(t, sc.ReadGapOpen(), al.Pen)
		require.Len(t, al.Edits, 1)
		assert.Equal(t, EditReadGap, al.Edits[0].Type)
		checkWidths(t, dr.Sink())
	}
}

// Three read bases deleted: gap open plus two extensions. The mismatch
// penalty is bumped so a mismatch-only alternative cannot compete.
func TestReadGapLength3(t *testing.T) {
	fwIdx, bwIdx := uniqueIdx(t)
	seq := calQuery[:14] + calQuery[17:]
	sc := scoring.Base1()
	sc.SetMMConst(6)
	for _, r := range []Root{
		{Off5p: 0, L2R: true, Fw: true},
		{Off5p: len(seq) - 1, L2R: false, Fw: true},
	} {
		dr := search(t, fwIdx, bwIdx, sc, seq, Linear(0, 2.5), []Root{r})
		require.Equal(t, 1, dr.Sink().NumRanges())
		assert.Equal(t, 1, dr.Sink().NumElts())
		assert.Equal(t, sc.ReadGapOpen()+2*sc.ReadGapExtend(), dr.Sink().At(0).Pen)
	}
}

// One extra base inserted into the read: a length-1 reference gap.
func TestRefGapLength1(t *testing.T) {
	fwIdx, bwIdx := uniqueIdx(t)
	seq := calQuery[:15] + "A" + calQuery[15:]
	sc := scoring.Base1()
	sc.SetMMConst(6)
	for _, r := range []Root{
		{Off5p: 0, L2R: true, Fw: true},
		{Off5p: len(seq) - 1, L2R: false, Fw: true},
	} {
		dr := search(t, fwIdx, bwIdx, sc, seq, Linear(0, 2.5), []Root{r})
		require.Equal(t, 1, dr.Sink().NumRanges())
		assert.Equal(t, 1, dr.Sink().NumElts())
		al := dr.Sink().At(0)
		assert.Equal(t, sc.RefGapOpen(), al.Pen)
		require.Len(t, al.Edits, 1)
		assert.Equal(t, EditRefGap, al.Edits[0].Type)
		checkWidths(t, dr.Sink())
	}
}

// Three extra bases inserted: ref gap open plus two extensions.
func TestRefGapLength3(t *testing.T) {
	fwIdx, bwIdx := uniqueIdx(t)
	seq := calQuery[:15] + "ATG" + calQuery[15:]
	sc := scoring.Base1()
	sc.SetMMConst(6)
	for _, r := range []Root{
		{Off5p: 0, L2R: true, Fw: true},
		{Off5p: len(seq) - 1, L2R: false, Fw: true},
	} {
		dr := search(t, fwIdx, bwIdx, sc, seq, Linear(0, 2.5), []Root{r})
		require.Equal(t, 1, dr.Sink().NumRanges())
		assert.Equal(t, 1, dr.Sink().NumElts())
		assert.Equal(t, sc.RefGapOpen()+2*sc.RefGapExtend(), dr.Sink().At(0).Pen)
	}
}

// A gap closer than GapBar to a read end must be rejected; the identical
// configuration with the gap mid-read is the control.
func TestGapBarRejectsGapNearEnd(t *testing.T) {
	fwIdx, bwIdx := uniqueIdx(t)
	sc := scoring.Base1()
	sc.SetMMConst(100) // force gap-only alignments

	// Deletion at offset 2, within the bar: no alignment possible.
	near := calQuery[:2] + calQuery[3:]
	dr := search(t, fwIdx, bwIdx, sc, near, Linear(0, 1), []Root{
		{Off5p: 10, L2R: true, Fw: true},
	})
	assert.Equal(t, 0, dr.Sink().NumRanges())

	// Deletion at offset 15, clear of both ends: found.
	mid := calQuery[:15] + calQuery[16:]
	dr = search(t, fwIdx, bwIdx, sc, mid, Linear(0, 1), []Root{
		{Off5p: 0, L2R: true, Fw: true},
	})
	require.Equal(t, 1, dr.Sink().NumRanges())
	assert.Equal(t, sc.ReadGapOpen(), dr.Sink().At(0).Pen)
}

// Two roots reaching the identical SA range produce one deduplicated hit.
func TestDedupAcrossRoots(t *testing.T) {
	fwIdx, bwIdx := doubleIdx(t)
	dr := search(t, fwIdx, bwIdx, scoring.Base1(), calQuery, Linear(0, 1), []Root{
		{Off5p: 0, L2R: true, Fw: true, Pri: 0},
		{Off5p: len(calQuery) - 1, L2R: false, Fw: true, Pri: 1},
	})
	require.Equal(t, 1, dr.Sink().NumRanges())
	assert.Equal(t, 2, dr.Sink().NumElts())
}

// Re-running the identical search reproduces the sink exactly.
func TestRerunIsDeterministic(t *testing.T) {
	fwIdx, bwIdx := uniqueIdx(t)
	seq := []byte(calQuery)
	seq[15] = dna.Char(dna.Comp(dna.Code(seq[15])))
	dr := NewDriver()
	require.NoError(t, dr.InitRead(seq, quals(len(seq))))
	require.NoError(t, dr.AddRoot(Config{Cons: Linear(0, 1)}, 0, true, true, 0))
	require.NoError(t, dr.AddRoot(Config{Cons: Linear(0, 1)}, len(seq)-1, false, true, 1))

	dr.Go(scoring.Base1(), fwIdx, bwIdx, nil)
	first := append([]Alignment(nil), dr.Sink().Alignments()...)
	dr.Go(scoring.Base1(), fwIdx, bwIdx, nil)
	assert.Equal(t, first, dr.Sink().Alignments())
}

func TestZeroLengthReadRejected(t *testing.T) {
	dr := NewDriver()
	require.Error(t, dr.InitRead(nil, nil))
}

func TestAddRootValidates(t *testing.T) {
	dr := NewDriver()
	require.Error(t, dr.AddRoot(Config{}, 0, true, true, 0))
	require.NoError(t, dr.InitRead([]byte("ACGT"), []byte("IIII")))
	require.Error(t, dr.AddRoot(Config{}, 4, true, true, 0))
	require.Error(t, dr.AddRoot(Config{}, -1, true, true, 0))
}
