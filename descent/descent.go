package descent

// noBranchDepth bounds the ftab jump width: a root takes the ftab shortcut
// only when the ftab word is at most this long. It does not restrict
// branching; recalcOutgoing offers edges at any depth the consistency
// function affords.
const noBranchDepth = 20

// searchEnv bundles the collaborators of one search invocation. Every
// structure here is exclusively owned by that invocation except the two
// indices, which are read-only.
type searchEnv struct {
	q     *Query
	sc    Scoring
	fwIdx Index
	bwIdx Index
	re    *redundancyChecker
	df    *factory[Descent]
	pf    *factory[pos]
	roots []Root
	confs []Config
	heap  *frontier
	sink  *AlignmentSink
	met   *Metrics
}

// Descent is one contiguous matched run from a root or a branch point. It
// owns exact extension, branching, and the direction flip at a read
// extremity. Descents form a tree through parent ids; position records are
// referenced by id into the position arena.
type Descent struct {
	rid    int // root id
	descid int
	parent int // -1 for a root descent

	al5pi, al5pf int // inclusive 5' offsets delimiting characters aligned so far
	topf, botf   int // SA range in the forward index
	topb, botb   int // SA range in the mirror index
	l2r          bool
	pen          int

	posid  int // first owned position record
	len    int // number of characters matched by this descent
	gapadd int // net read gaps minus ref gaps along the path
	off5pI int // 5' offset of this descent's first position

	edit       Edit // incoming edit; zero for roots and bounces
	out        outgoing
	lastRecalc bool // last recalc retained every candidate (<= 5)
}

func (d *Descent) root() bool  { return d.parent < 0 }
func (d *Descent) empty() bool { return d.out.empty() }

// matchOutcome is what followMatches leaves behind: whether the descent is
// viable at all, whether it reached an extremity or the full read, and the
// SA range where it stopped (the bounce range when hitEnd).
type matchOutcome struct {
	succ     bool
	branches bool
	hitEnd   bool
	done     bool

	topf, botf int
	topb, botb int
}

// initRoot initializes a descent at a search root: empty SA range, zero
// penalty, direction from the root. Returns false when the descent yields
// neither outgoing edges nor a bounce child; the caller must then roll the
// arenas back.
func (d *Descent) initRoot(env *searchEnv, rid, descid int) bool {
	r := env.roots[rid]
	d.rid = rid
	d.al5pi, d.al5pf = r.Off5p, r.Off5p
	d.l2r = r.L2R
	d.topf, d.botf, d.topb, d.botb = 0, 0, 0, 0
	d.descid = descid
	d.parent = -1
	d.pen = 0
	d.posid = -1
	d.len = 0
	d.gapadd = 0
	d.edit = Edit{}
	d.out.clear()
	d.lastRecalc = true
	env.met.Descents++

	m := d.followMatches(env)
	bounceSucc := false
	if m.hitEnd && !m.done {
		bounceSucc = d.bounce(env, m.topf, m.botf, m.topb, m.botb)
	}
	if m.succ {
		d.recalcOutgoing(env)
		if !d.empty() {
			env.heap.insert(d.out.bestPri(), d.descid)
			env.met.noteHeap(env.heap.Len())
		}
	}
	return !d.empty() || bounceSucc
}

// initBranch initializes a descent branching from parent via edit e (zero
// for a bounce), with the given aligned interval, SA range, direction and
// cumulative penalty. Same return contract as initRoot.
func (d *Descent) initBranch(
	env *searchEnv,
	rid int,
	al5pi, al5pf int,
	topf, botf, topb, botb int,
	l2r bool,
	descid, parent, pen int,
	e Edit,
) bool {
	d.rid = rid
	d.al5pi, d.al5pf = al5pi, al5pf
	d.l2r = l2r
	d.topf, d.botf = topf, botf
	d.topb, d.botb = topb, botb
	d.descid = descid
	d.parent = parent
	d.pen = pen
	d.posid = -1
	d.len = 0
	d.edit = e
	d.out.clear()
	d.lastRecalc = true
	d.gapadd = env.df.at(parent).gapadd
	if e.Inited() {
		if e.IsReadGap() {
			d.gapadd++
		} else if e.IsRefGap() {
			d.gapadd--
		}
	}
	env.met.Descents++

	m := d.followMatches(env)
	bounceSucc := false
	if m.hitEnd && !m.done {
		bounceSucc = d.bounce(env, m.topf, m.botf, m.topb, m.botb)
	}
	if m.succ {
		d.recalcOutgoing(env)
		if !d.empty() {
			env.heap.insert(d.out.bestPri(), d.descid)
			env.met.noteHeap(env.heap.Len())
		}
	}
	return !d.empty() || bounceSucc
}

// bounce creates the child descent that continues in the opposite
// direction after this descent reached one end of the read: same aligned
// interval, same penalty, no incoming edit, SA range from the side just
// reached.
func (d *Descent) bounce(env *searchEnv, topf, botf, topb, botb int) bool {
	env.met.Bounces++
	dfsz, pfsz := env.df.size(), env.pf.size()
	id := env.df.alloc()
	succ := env.df.at(id).initBranch(
		env,
		d.rid,
		d.al5pi, d.al5pf,
		topf, botf, topb, botb,
		!d.l2r,
		id, d.descid, d.pen,
		Edit{},
	)
	if !succ {
		env.df.resize(dfsz)
		env.pf.resize(pfsz)
	}
	return succ
}

// followMatches extends this descent by exact matches as far as possible.
// Roots may jump the first ftab-width characters in a single table lookup;
// every other step is one bidirectional LF operation. The per-step
// redundancy check stalls the extension when an equivalent state was
// already admitted at an equal-or-better penalty; the root-time check
// fails the whole descent instead.
func (d *Descent) followMatches(env *searchEnv) matchOutcome {
	q := env.q
	topf, botf := d.topf, d.botf
	topb, botb := d.topb, d.botb
	fw := env.roots[d.rid].Fw

	var toward3p bool
	var off5p int
	for {
		toward3p = d.l2r == fw
		if toward3p {
			if d.al5pf == q.Len()-1 {
				d.l2r = !d.l2r
				continue
			}
			if d.al5pi == d.al5pf {
				off5p = d.al5pi
			} else {
				off5p = d.al5pf + 1
			}
		} else {
			if d.al5pi == 0 {
				d.l2r = !d.l2r
				continue
			}
			if d.al5pi == d.al5pf {
				off5p = d.al5pi
			} else {
				off5p = d.al5pi - 1
			}
		}
		break
	}
	d.off5pI = off5p
	off3p := q.Len() - off5p - 1
	firstPos := true
	var branches, hitEnd, done bool

	if d.root() {
		ftabLen := env.fwIdx.FtabChars()
		ftabFits := true
		if toward3p && ftabLen+off5p > q.Len() {
			ftabFits = false
		} else if !toward3p && off5p+1 < ftabLen {
			ftabFits = false
		}
		if ftabLen > 1 && ftabLen <= noBranchDepth && ftabFits {
			strand := q.strand(fw)
			off := off5p
			if !fw {
				off = q.Len() - off5p - 1
			}
			if !d.l2r {
				off -= ftabLen - 1
			}
			topf, botf = env.fwIdx.FtabLoHi(strand, off)
			if botf-topf == 0 {
				return matchOutcome{}
			}
			topb, botb = env.bwIdx.FtabLoHi(strand, off)
			var cterm int
			if d.l2r {
				cterm = int(strand[off+ftabLen-1])
			} else {
				cterm = int(strand[off])
			}
			if toward3p {
				off5p += ftabLen
				off3p -= ftabLen
			} else {
				off5p -= ftabLen
				off3p += ftabLen
			}
			d.len += ftabLen
			if toward3p {
				// al5pi and al5pf start out equal, so the far end
				// advances by ftabLen-1 (al5pf is inclusive).
				d.al5pf += ftabLen - 1
				if d.al5pf == q.Len()-1 {
					hitEnd = true
					done = d.al5pi == 0
				}
			} else {
				d.al5pi -= ftabLen - 1
				if d.al5pi == 0 {
					hitEnd = true
					done = d.al5pf == q.Len()-1
				}
			}
			// The jumped-over positions carry no branch information;
			// only the terminal one records its matching outgoing edge.
			var id int
			for i := 0; i < ftabLen; i++ {
				id = env.pf.alloc()
				env.pf.at(id).reset()
			}
			d.posid = id - (ftabLen - 1)
			firstPos = false
			last := env.pf.at(id)
			last.c = cterm
			last.topf[cterm], last.botf[cterm] = topf, botf
			last.topb[cterm], last.botb[cterm] = topb, botb
		} else {
			// ftab unusable; seed the range from the character counts.
			rdc := q.GetC(off5p, fw)
			topf = env.fwIdx.Fchr(rdc)
			botf = env.fwIdx.Fchr(rdc + 1)
			topb, botb = topf, botf
			if botf-topf == 0 {
				return matchOutcome{}
			}
			if toward3p {
				off5p++
				off3p--
			} else {
				off5p--
				off3p++
			}
			d.len++
			if toward3p {
				if d.al5pf == q.Len()-1 {
					hitEnd = true
					done = d.al5pi == 0
				}
			} else {
				if d.al5pi == 0 {
					hitEnd = true
					done = d.al5pf == q.Len()-1
				}
			}
			id := env.pf.alloc()
			d.posid = id
			firstPos = false
			p := env.pf.at(id)
			p.reset()
			p.c = rdc
			p.topf[rdc], p.botf[rdc] = topf, botf
			p.topb[rdc], p.botb[rdc] = topb, botb
		}
		if !env.re.check(fw, d.al5pi, d.al5pf, d.al5pf-d.al5pi+1+d.gapadd, topf, botf, d.pen) {
			return matchOutcome{}
		}
	}
	if done {
		env.sink.report(env, topf, botf, topb, botb, d.descid, d.rid, Edit{}, d.pen)
		return matchOutcome{succ: true, branches: branches, hitEnd: hitEnd, done: true,
			topf: topf, botf: botf, topb: topb, botb: botb}
	} else if hitEnd {
		return matchOutcome{succ: true, branches: branches, hitEnd: true,
			topf: topf, botf: botf, topb: topb, botb: botb}
	}

	var t, b, tp, bp [4]int
	fail := false
	for !fail && !hitEnd {
		rdc := q.GetC(off5p, fw)
		width := botf - topf
		var idx Index
		var top, bot, cotop, cobot int
		if d.l2r {
			idx = env.bwIdx
			top, bot, cotop, cobot = topb, botb, topf, botf
		} else {
			idx = env.fwIdx
			top, bot, cotop, cobot = topf, botf, topb, botb
		}
		for i := 0; i < 4; i++ {
			t[i], b[i], tp[i], bp[i] = 0, 0, 0, 0
		}
		if bot-top > 1 {
			env.met.BwOps++
			env.met.BwOpsBi++
			idx.MapBiLFEx(top, bot, cotop, cobot, &t, &b, &tp, &bp)
			fail = b[rdc] <= t[rdc]
			if b[rdc]-t[rdc] < width {
				branches = true
			}
		} else {
			env.met.BwOps++
			env.met.BwOps1++
			nrow, cc := idx.MapLF1(top)
			fail = cc != rdc
			if fail {
				branches = true
			}
			if cc >= 0 {
				t[cc], b[cc] = nrow, nrow+1
				tp[cc], bp[cc] = cotop, cobot
			}
		}
		if d.l2r {
			topb, botb = t[rdc], b[rdc]
			topf, botf = tp[rdc], bp[rdc]
		} else {
			topf, botf = t[rdc], b[rdc]
			topb, botb = tp[rdc], bp[rdc]
		}
		// Install the quad even when the character failed to match: the
		// failed position is still a branch point.
		id := env.pf.alloc()
		if firstPos {
			d.posid = id
			firstPos = false
		}
		p := env.pf.at(id)
		p.reset()
		p.c = rdc
		for i := 0; i < 4; i++ {
			if d.l2r {
				p.topf[i], p.botf[i] = tp[i], bp[i]
				p.topb[i], p.botb[i] = t[i], b[i]
			} else {
				p.topf[i], p.botf[i] = t[i], b[i]
				p.topb[i], p.botb[i] = tp[i], bp[i]
			}
		}
		if !fail {
			al5pi, al5pf := d.al5pi, d.al5pf
			if toward3p {
				al5pf++
			} else {
				al5pi--
			}
			fail = !env.re.check(fw, al5pi, al5pf, al5pf-al5pi+1+d.gapadd, topf, botf, d.pen)
		}
		if !fail {
			d.len++
			if toward3p {
				d.al5pf++
				off5p++
				off3p--
				if d.al5pf == q.Len()-1 {
					hitEnd = true
					done = d.al5pi == 0
				}
			} else {
				d.al5pi--
				off5p--
				off3p++
				if d.al5pi == 0 {
					hitEnd = true
					done = d.al5pf == q.Len()-1
				}
			}
		}
	}
	if done {
		env.sink.report(env, topf, botf, topb, botb, d.descid, d.rid, Edit{}, d.pen)
		return matchOutcome{succ: true, branches: branches, hitEnd: hitEnd, done: true,
			topf: topf, botf: botf, topb: topb, botb: botb}
	} else if hitEnd {
		return matchOutcome{succ: true, branches: branches, hitEnd: true,
			topf: topf, botf: botf, topb: topb, botb: botb}
	}
	return matchOutcome{succ: true, branches: branches}
}

// recalcOutgoing enumerates the legal outgoing edges of this descent and
// offers each to the bounded ranker. At a position of depth d from the
// root, the remaining budget is cons(d) - pen; a candidate is legal when
// its penalty fits the budget, its destination range is non-empty, its
// exploration flag is still free, and its redundancy key has not been
// admitted at an equal-or-lower cost. Returns the number of candidates
// accepted (which may exceed the five the ranker retains).
func (d *Descent) recalcOutgoing(env *searchEnv) int {
	env.met.Recalcs++
	q := env.q
	fw := env.roots[d.rid].Fw
	rootPri := env.roots[d.rid].Pri
	toward3p := d.l2r == fw
	off5p := d.off5pI
	off3p := q.Len() - off5p - 1

	// al5pi/al5pf delimit the positions that matched, but a position that
	// failed to match during followMatches is still worth leaving from,
	// which adds one more position to visit.
	extrai, extraf := 0, 0
	cur5pi, cur5pf := d.al5pi, d.al5pf
	var depth int
	if toward3p {
		cur5pf = off5p
		depth = off5p - d.al5pi
		if d.al5pf < q.Len()-1 {
			extraf = 1
		}
	} else {
		cur5pi = off5p
		depth = d.al5pf - off5p
		if d.al5pi > 0 {
			extrai = 1
		}
	}
	penRdgEx, penRfgEx := env.sc.ReadGapExtend(), env.sc.RefGapExtend()
	penRdgOp, penRfgOp := env.sc.ReadGapOpen(), env.sc.RefGapOpen()

	// Range entering the current position, in the direction of descent
	// and its opposite.
	var top, bot, topp, botp int
	if d.l2r {
		top, bot, topp, botp = d.topb, d.botb, d.topf, d.botf
	} else {
		top, bot, topp, botp = d.topf, d.botf, d.topb, d.botb
	}
	nout := 0
	dd := d.posid
	for off5p >= d.al5pi-extrai && off5p <= d.al5pf+extraf {
		maxpen := env.confs[d.rid].Cons.Max(depth)
		diff := maxpen - d.pen
		p := env.pf.at(dd)
		var t, b, tpv, bpv *[4]int
		if d.l2r {
			t, b, tpv, bpv = &p.topb, &p.botb, &p.topf, &p.botf
		} else {
			t, b, tpv, bpv = &p.topf, &p.botf, &p.topb, &p.botb
		}
		c, qq := q.Get(off5p, fw)
		if !p.flags.exhausted() && diff > 0 {
			penMM := env.sc.MM(c, qq)
			if penMM <= diff {
				for j := 0; j < 4; j++ {
					if j == c {
						continue
					}
					if b[j] <= t[j] {
						continue // no outgoing edge with this base
					}
					if !p.flags.mmAvail(j) {
						continue // already taken over by an edge
					}
					if env.re.contains(fw, cur5pi, cur5pf, cur5pf-cur5pi+1+d.gapadd,
						p.topf[j], p.botf[j], d.pen+penMM) {
						continue // redundant with an explored path
					}
					width := b[j] - t[j]
					ed := Edit{Pos: off5p, Chr: j, Qchr: c, Type: EditMM}
					d.out.update(edge{
						e:     ed,
						off5p: off5p,
						pri:   priority{d.pen + penMM, depth, width, rootPri},
						posID: dd,
					})
					nout++
				}
			}
			gapsAllowed := off5p >= env.sc.GapBar() && off3p >= env.sc.GapBar()
			if gapsAllowed {
				// If every way of proceeding is a match, a gap here is
				// never better than the same gap one position further
				// along.
				totwidth := (b[0] - t[0]) + (b[1] - t[1]) + (b[2] - t[2]) + (b[3] - t[3])
				allmatch := totwidth == b[c]-t[c]
				rdex, rfex := false, false
				cur5piI, cur5pfI := cur5pi, cur5pf
				if toward3p {
					cur5pfI--
				} else {
					cur5piI++
				}
				if off5p == d.off5pI && d.edit.Inited() {
					// At the descent's own root a gap edit can extend
					// the gap the descent branched on.
					if penRdgEx <= diff && d.edit.IsReadGap() {
						rdex = true
						for j := 0; j < 4; j++ {
							if b[j] <= t[j] {
								continue
							}
							if !p.flags.rdgAvail(j) {
								continue
							}
							if env.re.contains(fw, cur5piI, cur5pfI, cur5pf-cur5pi+1+d.gapadd,
								p.topf[j], p.botf[j], d.pen+penRdgEx) {
								continue
							}
							width := b[j] - t[j]
							off := off5p
							pos2 := d.edit.Pos2 + 1
							if !d.l2r {
								off++
								pos2 = d.edit.Pos2 - 1
							}
							ed := Edit{Pos: off, Pos2: pos2, Chr: j, Qchr: -1, Type: EditReadGap}
							d.out.update(edge{
								e:     ed,
								off5p: off5p,
								pri:   priority{d.pen + penRdgEx, depth, width, rootPri},
								posID: dd,
							})
							nout++
						}
					}
					if penRfgEx <= diff && d.edit.IsRefGap() {
						rfex = true
						if p.flags.rfgAvail() {
							topfG, botfG := top, bot
							if d.l2r {
								topfG, botfG = topp, botp
							}
							nrefal := cur5pf - cur5pi + d.gapadd
							if !env.re.contains(fw, cur5pi, cur5pf, nrefal, topfG, botfG, d.pen+penRfgEx) {
								width := bot - top
								ed := Edit{Pos: off5p, Chr: -1, Qchr: c, Type: EditRefGap}
								d.out.update(edge{
									e:     ed,
									off5p: off5p,
									pri:   priority{d.pen + penRfgEx, depth, width, rootPri},
									posID: dd,
								})
								nout++
							}
						}
					}
				}
				if !allmatch && penRdgOp <= diff && !rdex {
					for j := 0; j < 4; j++ {
						if b[j] <= t[j] {
							continue
						}
						if !p.flags.rdgAvail(j) {
							continue
						}
						if env.re.contains(fw, cur5piI, cur5pfI, cur5pf-cur5pi+1+d.gapadd,
							p.topf[j], p.botf[j], d.pen+penRdgOp) {
							continue
						}
						width := b[j] - t[j]
						off := off5p
						if !d.l2r {
							off++
						}
						ed := Edit{Pos: off, Chr: j, Qchr: -1, Type: EditReadGap}
						d.out.update(edge{
							e:     ed,
							off5p: off5p,
							pri:   priority{d.pen + penRdgOp, depth, width, rootPri},
							posID: dd,
						})
						nout++
					}
				}
				if !allmatch && penRfgOp <= diff && !rfex {
					if p.flags.rfgAvail() {
						topfG, botfG := top, bot
						if d.l2r {
							topfG, botfG = topp, botp
						}
						nrefal := cur5pf - cur5pi + d.gapadd
						if !env.re.contains(fw, cur5pi, cur5pf, nrefal, topfG, botfG, d.pen+penRfgOp) {
							width := bot - top
							ed := Edit{Pos: off5p, Chr: -1, Qchr: c, Type: EditRefGap}
							d.out.update(edge{
								e:     ed,
								off5p: off5p,
								pri:   priority{d.pen + penRfgOp, depth, width, rootPri},
								posID: dd,
							})
							nout++
						}
					}
				}
			}
		}
		dd++
		depth++
		if toward3p {
			if off3p == 0 {
				break
			}
			off5p++
			off3p--
			cur5pf++
		} else {
			if off5p == 0 {
				break
			}
			off3p++
			off5p--
			cur5pi--
		}
		top, topp = t[c], tpv[c]
		bot, botp = b[c], bpv[c]
	}
	d.lastRecalc = nout <= 5
	d.out.claimFlags(env.pf)
	return nout
}

// followBestOutgoing follows this descent's best outgoing edge, creating a
// branch child. The caller has just popped this descent off the frontier;
// it is re-inserted at the end if edges remain.
func (d *Descent) followBestOutgoing(env *searchEnv) {
	q := env.q
	for !d.out.empty() {
		e := d.out.rotate()
		pen := e.pri.pen
		fw := env.roots[d.rid].Fw
		toward3p := d.l2r == fw
		edoff := e.off5p
		if d.out.empty() && !d.lastRecalc {
			// The previous recalc had more candidates than the ranker
			// holds; refresh the cache. Every remaining candidate may
			// have become redundant in the meantime, in which case the
			// rotated edge is abandoned too.
			d.recalcOutgoing(env)
			if d.empty() {
				break
			}
		}
		al5piNew, al5pfNew := d.al5pi, d.al5pf
		chr := e.e.Chr
		var doff int
		var hitEnd, done bool
		if toward3p {
			// The 3' extreme of the child sits further in than ours.
			al5pfNew = edoff
			doff = edoff
			if e.e.IsReadGap() {
				// The read character at edoff was not consumed;
				// retract the far end. The depth of the SA range taken
				// is unaffected.
				al5pfNew--
			}
			hitEnd = al5pfNew == q.Len()-1
			done = hitEnd && al5piNew == 0
			doff -= d.off5pI
		} else {
			al5piNew = edoff
			doff = edoff
			if e.e.IsReadGap() {
				al5piNew++
			}
			hitEnd = al5piNew == 0
			done = hitEnd && al5pfNew == q.Len()-1
			doff = d.off5pI - doff
		}
		l2r := d.l2r
		if !done && hitEnd {
			// Finished extending in one direction; the child goes the
			// other way.
			l2r = !l2r
		}
		var topf, botf, topb, botb int
		dd := d.posid + doff
		if e.e.IsRefGap() {
			// The read consumed a base the reference did not: the range
			// comes from one position earlier, or from our own incoming
			// range when the edit sits at our first position.
			dd--
			if doff == 0 {
				topf, botf = d.topf, d.botf
				topb, botb = d.topb, d.botb
			} else {
				p := env.pf.at(dd)
				chr = p.c
				topf, botf = p.topf[chr], p.botf[chr]
				topb, botb = p.topb[chr], p.botb[chr]
			}
		} else {
			// A mismatch or read gap takes the destination base's range
			// at the edit's depth.
			p := env.pf.at(dd)
			topf, botf = p.topf[chr], p.botf[chr]
			topb, botb = p.topb[chr], p.botb[chr]
		}
		if done {
			// The edit aligns the last remaining character; no child
			// descent is needed.
			env.sink.report(env, topf, botf, topb, botb, d.descid, d.rid, e.e, pen)
			return
		}
		dfsz, pfsz := env.df.size(), env.pf.size()
		id := env.df.alloc()
		succ := env.df.at(id).initBranch(
			env,
			d.rid,
			al5piNew, al5pfNew,
			topf, botf, topb, botb,
			l2r,
			id, d.descid, pen,
			e.e,
		)
		if !succ {
			env.df.resize(dfsz)
			env.pf.resize(pfsz)
		}
		break
	}
	if !d.empty() {
		env.heap.insert(d.out.bestPri(), d.descid)
		env.met.noteHeap(env.heap.Len())
	}
}
