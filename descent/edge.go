package descent

import "fmt"

// Edit types.
const (
	EditMM      = iota + 1 // read base mismatches reference base
	EditReadGap            // reference base skipped relative to read
	EditRefGap             // read base skipped relative to reference
)

// Edit describes a single departure from an exact match. Pos is the 5'
// offset on the aligned strand; Chr the reference base code (-1 in a ref
// gap), Qchr the read base code (-1 in a read gap). Pos2 chains the
// members of one read-gap run.
type Edit struct {
	Pos  int
	Pos2 int
	Chr  int
	Qchr int
	Type int
}

func (e Edit) Inited() bool     { return e.Type != 0 }
func (e Edit) IsMismatch() bool { return e.Type == EditMM }
func (e Edit) IsReadGap() bool  { return e.Type == EditReadGap }
func (e Edit) IsRefGap() bool   { return e.Type == EditRefGap }

func (e Edit) String() string {
	chr := func(c int) byte {
		if c < 0 {
			return '-'
		}
		return "ACGTN"[c]
	}
	switch e.Type {
	case EditMM:
		return fmt.Sprintf("%d:%c>%c", e.Pos, chr(e.Chr), chr(e.Qchr))
	case EditReadGap:
		return fmt.Sprintf("%d:%c>-", e.Pos, chr(e.Chr))
	case EditRefGap:
		return fmt.Sprintf("%d:->%c", e.Pos, chr(e.Qchr))
	}
	return "(none)"
}

// priority orders search work: lower penalty first; at equal penalty the
// deeper descent (more progress); then the narrower SA range (more
// specific); the user-supplied root priority breaks final ties.
type priority struct {
	pen     int
	depth   int
	width   int
	rootPri float32
}

func (p priority) less(o priority) bool {
	if p.pen != o.pen {
		return p.pen < o.pen
	}
	if p.depth != o.depth {
		return p.depth > o.depth
	}
	if p.width != o.width {
		return p.width < o.width
	}
	return p.rootPri < o.rootPri
}

// edge is a planned outgoing branch from a descent: the edit to apply, its
// 5' offset, its priority, and the position record whose exploration flag
// backs it.
type edge struct {
	e     Edit
	off5p int
	pri   priority
	posID int
}

func (ed *edge) inited() bool { return ed.e.Inited() }

// claimFlag records the edge's transition as taken on its position record.
// Called only for edges the ranker retains.
func (ed *edge) claimFlag(pf *factory[pos]) {
	if !ed.inited() {
		return
	}
	p := pf.at(ed.posID)
	switch {
	case ed.e.IsReadGap():
		p.flags.claimRdg(ed.e.Chr)
	case ed.e.IsRefGap():
		p.flags.claimRfg()
	default:
		p.flags.claimMM(ed.e.Chr)
	}
}

// outgoing keeps the best (at most) five outgoing edges of one descent.
// Deliberately a tiny fixed array rather than a heap: this is a hot path
// and five slots cover the common case completely.
type outgoing struct {
	best [5]edge
	n    int
}

func (o *outgoing) clear() { o.n = 0 }

func (o *outgoing) empty() bool { return o.n == 0 }

// update offers an edge; it is inserted in priority order, displacing the
// worst retained edge when the set is full.
func (o *outgoing) update(e edge) {
	i := o.n
	if i == len(o.best) {
		if !e.pri.less(o.best[i-1].pri) {
			return
		}
		i--
	} else {
		o.n++
	}
	for i > 0 && e.pri.less(o.best[i-1].pri) {
		o.best[i] = o.best[i-1]
		i--
	}
	o.best[i] = e
}

// bestPri returns the priority of the best retained edge.
func (o *outgoing) bestPri() priority { return o.best[0].pri }

// rotate removes and returns the best retained edge, shifting the rest up.
func (o *outgoing) rotate() edge {
	e := o.best[0]
	copy(o.best[:], o.best[1:o.n])
	o.n--
	return e
}

// claimFlags records every retained edge's transition as taken.
func (o *outgoing) claimFlags(pf *factory[pos]) {
	for i := 0; i < o.n; i++ {
		o.best[i].claimFlag(pf)
	}
}
