// Package descent implements a best-first, bidirectional FM-index descent
// search: approximate matching of a short read against an indexed
// reference, allowing a bounded number of mismatches and short gaps.
// Search states ("descents") extend exact matches as far as possible and
// branch via mismatches or gaps, always expanding the lowest-penalty
// frontier first.
package descent

import (
	"errors"
	"fmt"

	"fmdescent/dna"
)

// Query is an immutable read in two forms (forward and reverse complement)
// plus per-base qualities. 5' offsets handed to the engine count from the
// read's 5' end on both strands: on the reverse-complement strand, offset k
// names the complement of read base k, which sits at index len-1-k of the
// reverse complement; that is where the index arithmetic below comes from.
type Query struct {
	seq    []byte // base codes 5'->3'
	qual   []byte // raw Phred+33
	rc     []byte // reverse-complement codes
	qualrc []byte
}

// NewQuery builds a query from ASCII bases and Phred+33 qualities. Reads
// must be at least two bases long, free of non-ACGT characters, and
// qualities must match the sequence length.
func NewQuery(seq, qual []byte) (*Query, error) {
	if len(seq) < 2 {
		return nil, errors.New("descent: read shorter than two bases")
	}
	if len(qual) != len(seq) {
		return nil, fmt.Errorf("descent: %d quality values for %d bases", len(qual), len(seq))
	}
	codes := dna.Encode(seq)
	for i, c := range codes {
		if c > dna.T {
			return nil, fmt.Errorf("descent: non-ACGT base %q at offset %d", seq[i], i)
		}
	}
	qrc := make([]byte, len(qual))
	for i := range qual {
		qrc[i] = qual[len(qual)-1-i]
	}
	return &Query{
		seq:    codes,
		qual:   qual,
		rc:     dna.RevComp(codes),
		qualrc: qrc,
	}, nil
}

// Len is the read length.
func (q *Query) Len() int { return len(q.seq) }

// Get returns the base code and Phred quality at 5' offset off5p of the
// given strand.
func (q *Query) Get(off5p int, fw bool) (c, qv int) {
	if fw {
		return int(q.seq[off5p]), int(q.qual[off5p]) - 33
	}
	i := len(q.seq) - 1 - off5p
	return int(q.rc[i]), int(q.qualrc[i]) - 33
}

// GetC returns just the base code at 5' offset off5p of the given strand.
func (q *Query) GetC(off5p int, fw bool) int {
	if fw {
		return int(q.seq[off5p])
	}
	return int(q.rc[len(q.seq)-1-off5p])
}

// strand returns the code slice the given strand aligns: the read for fw,
// the reverse complement otherwise. Offsets into the returned slice are in
// text order, not 5' order.
func (q *Query) strand(fw bool) []byte {
	if fw {
		return q.seq
	}
	return q.rc
}
