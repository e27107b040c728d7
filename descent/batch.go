package descent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchRoot is one search root of a batch read.
type BatchRoot struct {
	Conf  Config
	Off5p int
	L2R   bool
	Fw    bool
	Pri   float32
}

// BatchRead is one read of a batch, with its roots.
type BatchRead struct {
	Seq   []byte
	Qual  []byte
	Roots []BatchRoot
}

// BatchResult holds one read's alignments and search metrics.
type BatchResult struct {
	Alignments []Alignment
	Metrics    Metrics
}

// RunBatch searches every read on a bounded worker pool, one Driver per
// worker invocation so no mutable state is shared; the indices are only
// read. Results are positionally aligned with reads. The context is
// honored between reads: a single search always runs to completion.
func RunBatch(ctx context.Context, sc Scoring, fwIdx, bwIdx Index, reads []BatchRead, workers int) ([]BatchResult, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]BatchResult, len(reads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range reads {
		i := i
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			rd := &reads[i]
			dr := NewDriver()
			if err := dr.InitRead(rd.Seq, rd.Qual); err != nil {
				return err
			}
			for _, r := range rd.Roots {
				if err := dr.AddRoot(r.Conf, r.Off5p, r.L2R, r.Fw, r.Pri); err != nil {
					return err
				}
			}
			var met Metrics
			dr.Go(sc, fwIdx, bwIdx, &met)
			results[i] = BatchResult{
				Alignments: append([]Alignment(nil), dr.Sink().Alignments()...),
				Metrics:    met,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
