// Package scoring defines the penalty scheme consumed by the descent
// engine: mismatch penalties as a function of read base and quality, and
// affine gap penalties for read and reference gaps.
package scoring

import "fmdescent/dna"

// Mismatch penalty models.
const (
	ModelConstant = iota // MMPenMax regardless of quality
	ModelQualRamp        // ramp from MMPenMin to MMPenMax over Phred 0..40
)

// Scheme is a concrete scoring scheme. The zero value is not useful; start
// from Base1() or fill every field.
type Scheme struct {
	Model    int
	MMPenMin int // lowest mismatch penalty (quality 0, ramp model)
	MMPenMax int // highest mismatch penalty
	NPen     int // penalty for aligning an N in the read

	RdGapConst  int // read gap: constant coefficient
	RdGapLinear int // read gap: per-base coefficient
	RfGapConst  int // reference gap: constant coefficient
	RfGapLinear int // reference gap: per-base coefficient

	Bar int // minimum distance from either read end at which gaps may occur
}

// Base1 is the calibration preset: constant mismatch penalty 3, N penalty 1,
// affine gaps 5+3 (so opening costs 8, each extension 3), gaps barred
// within 4 positions of either read end.
func Base1() *Scheme {
	return &Scheme{
		Model:       ModelConstant,
		MMPenMin:    3,
		MMPenMax:    3,
		NPen:        1,
		RdGapConst:  5,
		RdGapLinear: 3,
		RfGapConst:  5,
		RfGapLinear: 3,
		Bar:         4,
	}
}

// SetMMConst switches to the constant model with penalty p.
func (s *Scheme) SetMMConst(p int) {
	s.Model = ModelConstant
	s.MMPenMin = p
	s.MMPenMax = p
}

// MM returns the penalty for mismatching read base c (a dna code) with
// quality q (Phred). An N in the read costs NPen.
func (s *Scheme) MM(c, q int) int {
	if c >= dna.N {
		return s.NPen
	}
	if s.Model == ModelConstant {
		return s.MMPenMax
	}
	if q > 40 {
		q = 40
	}
	if q < 0 {
		q = 0
	}
	return s.MMPenMin + (s.MMPenMax-s.MMPenMin)*q/40
}

func (s *Scheme) ReadGapOpen() int   { return s.RdGapConst + s.RdGapLinear }
func (s *Scheme) ReadGapExtend() int { return s.RdGapLinear }
func (s *Scheme) RefGapOpen() int    { return s.RfGapConst + s.RfGapLinear }
func (s *Scheme) RefGapExtend() int  { return s.RfGapLinear }
func (s *Scheme) GapBar() int        { return s.Bar }
