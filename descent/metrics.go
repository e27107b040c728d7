package descent

// Metrics counts the work done by one search.
type Metrics struct {
	BwOps    uint64 // total Burrows-Wheeler operations
	BwOpsBi  uint64 // bidirectional (4-way) steps
	BwOps1   uint64 // single-row steps
	Descents uint64 // descents initialized
	Bounces  uint64 // direction flips at read extremities
	Recalcs  uint64 // outgoing-edge recalculations
	HeapMax  int    // frontier high-water mark
}

func (m *Metrics) Reset() { *m = Metrics{} }

func (m *Metrics) noteHeap(n int) {
	if n > m.HeapMax {
		m.HeapMax = n
	}
}
