package descent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosFlagsSingleClaim(t *testing.T) {
	var p pos
	p.reset()
	assert.False(t, p.inited())

	for c := 0; c < 4; c++ {
		assert.True(t, p.flags.mmAvail(c))
		p.flags.claimMM(c)
		assert.False(t, p.flags.mmAvail(c))
	}
	assert.False(t, p.flags.exhausted())
	for c := 0; c < 4; c++ {
		assert.True(t, p.flags.rdgAvail(c))
		p.flags.claimRdg(c)
		assert.False(t, p.flags.rdgAvail(c))
	}
	assert.False(t, p.flags.exhausted())
	assert.True(t, p.flags.rfgAvail())
	p.flags.claimRfg()
	assert.False(t, p.flags.rfgAvail())
	assert.True(t, p.flags.exhausted())

	p.reset()
	assert.True(t, p.flags.mmAvail(0))
	assert.False(t, p.flags.exhausted())
}

func TestFactoryWatermarkRollback(t *testing.T) {
	var f factory[pos]
	a := f.alloc()
	b := f.alloc()
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, 2, f.size())

	f.at(a).c = 2
	mark := f.size()
	c := f.alloc()
	f.at(c).c = 3
	f.resize(mark)
	assert.Equal(t, 2, f.size())
	// Ids below the watermark keep their contents.
	assert.Equal(t, 2, f.at(a).c)

	// Re-allocation reuses the id with fresh contents.
	d := f.alloc()
	assert.Equal(t, c, d)
	assert.Equal(t, 0, f.at(d).c)
}
