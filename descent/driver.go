package descent

import (
	"errors"
	"fmt"
)

// Index is the bidirectional FM-index surface the engine consumes. The
// forward index covers the reference text, the mirror index the reversed
// text; both are read-only and may be shared across concurrent searches.
type Index interface {
	// FtabChars is the width of the k-mer lookup table.
	FtabChars() int
	// Fchr returns the first SA row whose suffix starts with base code c.
	Fchr(c int) int
	// FtabLoHi resolves the SA range of seq[off:off+FtabChars] in one step.
	FtabLoHi(seq []byte, off int) (top, bot int)
	// MapBiLFEx steps [top,bot) backward for all four bases, keeping the
	// other index's range [otop,obot) synchronized through tp/bp.
	MapBiLFEx(top, bot, otop, obot int, t, b, tp, bp *[4]int)
	// MapLF1 steps a width-1 range; c is -1 when no base precedes the row.
	MapLF1(row int) (newRow, c int)
}

// Scoring is the penalty policy the engine consumes.
type Scoring interface {
	// MM is the penalty for mismatching read base c at Phred quality q.
	MM(c, q int) int
	ReadGapOpen() int
	ReadGapExtend() int
	RefGapOpen() int
	RefGapExtend() int
	// GapBar is the minimum distance from either read end at which gaps
	// may occur.
	GapBar() int
}

// Driver runs one read's search: it seeds a descent per root and drains
// the frontier best-first until no work remains. A Driver (and everything
// it owns) belongs to a single goroutine; run one Driver per concurrent
// read.
type Driver struct {
	q     *Query
	roots []Root
	confs []Config

	re   redundancyChecker
	df   factory[Descent]
	pf   factory[pos]
	heap frontier
	sink AlignmentSink
}

// NewDriver returns an empty driver; call InitRead and AddRoot before Go.
func NewDriver() *Driver { return &Driver{} }

// InitRead installs the read to search and clears roots and results.
func (dr *Driver) InitRead(seq, qual []byte) error {
	q, err := NewQuery(seq, qual)
	if err != nil {
		return err
	}
	dr.q = q
	dr.roots = dr.roots[:0]
	dr.confs = dr.confs[:0]
	dr.sink.reset()
	return nil
}

// AddRoot registers a search root: a 5' offset on the given strand, the
// first extension direction, and a tie-breaking priority.
func (dr *Driver) AddRoot(conf Config, off5p int, l2r, fw bool, pri float32) error {
	if dr.q == nil {
		return errors.New("descent: AddRoot before InitRead")
	}
	if off5p < 0 || off5p >= dr.q.Len() {
		return fmt.Errorf("descent: root offset %d outside read of length %d", off5p, dr.q.Len())
	}
	dr.roots = append(dr.roots, Root{Off5p: off5p, L2R: l2r, Fw: fw, Pri: pri})
	dr.confs = append(dr.confs, conf)
	return nil
}

// Go runs the search to completion. Exploration order is deterministic:
// the frontier's priority plus the documented tie-breakers. Results are in
// Sink(); running Go again with the same inputs reproduces them exactly.
func (dr *Driver) Go(sc Scoring, fwIdx, bwIdx Index, met *Metrics) {
	if met == nil {
		met = &Metrics{}
	}
	dr.re.reset()
	dr.df.clear()
	dr.pf.clear()
	dr.heap.clear()
	dr.sink.reset()
	env := &searchEnv{
		q:     dr.q,
		sc:    sc,
		fwIdx: fwIdx,
		bwIdx: bwIdx,
		re:    &dr.re,
		df:    &dr.df,
		pf:    &dr.pf,
		roots: dr.roots,
		confs: dr.confs,
		heap:  &dr.heap,
		sink:  &dr.sink,
		met:   met,
	}
	for i := range dr.roots {
		dfsz, pfsz := dr.df.size(), dr.pf.size()
		id := dr.df.alloc()
		if !dr.df.at(id).initRoot(env, i, id) {
			// Reclaim the memory used for this descent and its
			// position records.
			dr.df.resize(dfsz)
			dr.pf.resize(pfsz)
		}
	}
	for !dr.heap.empty() {
		e := dr.heap.pop()
		dr.df.at(e.id).followBestOutgoing(env)
	}
}

// Sink returns the recorded alignments.
func (dr *Driver) Sink() *AlignmentSink { return &dr.sink }
