package descent

// posFlags tracks which outgoing transitions at a position have already
// been taken over by an edge. Availability checks are read-only; a claim is
// recorded only when the edge ranker actually retains the edge, so that
// candidates squeezed out of the bounded ranker stay discoverable by a
// later recalc. Claims are one-shot: once set they never clear within one
// search.
type posFlags struct {
	mm  uint8 // bit per base: mismatch to that base claimed
	rdg uint8 // bit per base: read gap to that base claimed
	rfg bool  // ref gap claimed
}

func (f *posFlags) reset() {
	f.mm = 0
	f.rdg = 0
	f.rfg = false
}

func (f *posFlags) mmAvail(c int) bool  { return f.mm&(1<<uint(c)) == 0 }
func (f *posFlags) rdgAvail(c int) bool { return f.rdg&(1<<uint(c)) == 0 }
func (f *posFlags) rfgAvail() bool      { return !f.rfg }

func (f *posFlags) claimMM(c int)  { f.mm |= 1 << uint(c) }
func (f *posFlags) claimRdg(c int) { f.rdg |= 1 << uint(c) }
func (f *posFlags) claimRfg()      { f.rfg = true }

// exhausted reports whether every branching option has been claimed.
func (f *posFlags) exhausted() bool {
	return f.mm == 0xf && f.rdg == 0xf && f.rfg
}

// pos caches, for a single read position along one descent, the observed
// read base and the four-way SA ranges (per candidate base, in both
// indices) that resulted from the step taken there. Positions jumped over
// by the ftab shortcut stay reset: no branch information.
type pos struct {
	c                      int // read base observed here; -1 until stepped
	topf, botf, topb, botb [4]int
	flags                  posFlags
}

func (p *pos) reset() {
	p.c = -1
	for i := 0; i < 4; i++ {
		p.topf[i], p.botf[i] = 0, 0
		p.topb[i], p.botb[i] = 0, 0
	}
	p.flags.reset()
}

func (p *pos) inited() bool { return p.c >= 0 }
