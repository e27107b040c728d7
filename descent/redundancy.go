package descent

// redKey identifies the equivalence class of a partial alignment: strand,
// aligned read interval, consumed reference span, and the SA range in the
// forward index. Two paths with equal keys lead to identical futures.
type redKey struct {
	fw           bool
	al5pi, al5pf int
	refSpan      int
	topf, botf   int
}

// redundancyChecker records, per key, the minimum penalty at which the key
// has been admitted. A path is redundant once its key has been admitted at
// an equal or lower penalty.
type redundancyChecker struct {
	seen map[redKey]int
}

func (r *redundancyChecker) reset() {
	r.seen = make(map[redKey]int)
}

// check admits the key at penalty pen unless it was previously admitted at
// a penalty <= pen. It returns true when the caller should still explore
// this path, recording pen so later queries see it.
func (r *redundancyChecker) check(fw bool, al5pi, al5pf, refSpan, topf, botf, pen int) bool {
	k := redKey{fw, al5pi, al5pf, refSpan, topf, botf}
	if p, ok := r.seen[k]; ok && p <= pen {
		return false
	}
	r.seen[k] = pen
	return true
}

// contains is the read-only planning variant: it reports whether the key
// was already admitted at a penalty <= pen, recording nothing.
func (r *redundancyChecker) contains(fw bool, al5pi, al5pf, refSpan, topf, botf, pen int) bool {
	p, ok := r.seen[redKey{fw, al5pi, al5pf, refSpan, topf, botf}]
	return ok && p <= pen
}
