package descent

import "sort"

// Alignment is one full-length hit: the SA range in both indices, the
// strand, the accumulated penalty, and the edit script that produced it
// (sorted by 5' offset).
type Alignment struct {
	Topf, Botf int
	Topb, Botb int
	Fw         bool
	Pen        int
	RootID     int
	Edits      []Edit
}

// AlignmentSink collects and deduplicates full-length hits. A hit whose
// forward range (its reference start positions) or mirror range (its
// reference end positions) equals that of a recorded hit is dropped,
// whatever its edit script.
type AlignmentSink struct {
	als []Alignment
}

// NumRanges is the number of distinct recorded hits.
func (s *AlignmentSink) NumRanges() int { return len(s.als) }

// NumElts is the total number of suffix-array elements across all hits.
func (s *AlignmentSink) NumElts() int {
	n := 0
	for i := range s.als {
		n += s.als[i].Botf - s.als[i].Topf
	}
	return n
}

// At returns the i-th recorded hit.
func (s *AlignmentSink) At(i int) Alignment { return s.als[i] }

// Alignments returns all recorded hits.
func (s *AlignmentSink) Alignments() []Alignment { return s.als }

func (s *AlignmentSink) reset() { s.als = s.als[:0] }

// report records a hit found at the leaf descent descid. The edit script
// is gathered by walking the ancestor chain and appending the trailing
// edit, then sorting along the read.
func (s *AlignmentSink) report(env *searchEnv, topf, botf, topb, botb, descid, rid int, extra Edit, pen int) {
	var edits []Edit
	for id := descid; id >= 0; {
		d := env.df.at(id)
		if d.edit.Inited() {
			edits = append(edits, d.edit)
		}
		id = d.parent
	}
	if extra.Inited() {
		edits = append(edits, extra)
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].Pos < edits[j].Pos })

	// Search order is best-first, so the first report for a range is the
	// best-penalty one; later paths sharing either end with it are
	// duplicates.
	for i := range s.als {
		a := &s.als[i]
		if (a.Topf == topf && a.Botf == botf) || (a.Topb == topb && a.Botb == botb) {
			return
		}
	}
	s.als = append(s.als, Alignment{
		Topf: topf, Botf: botf,
		Topb: topb, Botb: botb,
		Fw:     env.roots[rid].Fw,
		Pen:    pen,
		RootID: rid,
		Edits:  edits,
	})
}
