package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelOffsetScalesLinearly(t *testing.T) {
	assert.Equal(t, int32(0), levelOffset(0))
	assert.Equal(t, int32(int16Max), levelOffset(1.0))
	assert.Equal(t, int32(-int16Max), levelOffset(-1.0))
}

func TestUpdateLevelsConverges(t *testing.T) {
	d := newTestDecoder(t, ModeMono)
	for i := range d.iline {
		d.iline[i] = -10000
	}

	var prev int32
	for i := 0; i < 1000; i++ {
		d.updateLevels()
		assert.LessOrEqual(t, d.syncLevel, prev+1)
		prev = d.syncLevel
	}

	// The integer division truncates toward zero, so the filter settles
	// 99 counts (under 1%) short of the -10000 input.
	assert.Equal(t, int32(-9901), d.syncLevel)
}

func TestUpdateLevelsDerivesBlackWhiteFromSync(t *testing.T) {
	d := newTestDecoder(t, ModeMono)
	for i := range d.iline {
		d.iline[i] = 0
	}
	d.updateLevels()

	assert.Equal(t, d.syncLevel+levelOffset(0.30), d.blankLevel)
	assert.Equal(t, d.syncLevel+levelOffset(0.30), d.blackLevel)
	assert.Equal(t, d.syncLevel+levelOffset(1.00), d.whiteLevel)
	assert.Less(t, d.blackLevel, d.whiteLevel)
}

func TestUpdateLevelsColourUsesBurstPedestalOffset(t *testing.T) {
	d := newTestDecoder(t, ModeColour)
	for i := range d.iline {
		d.iline[i] = 0
	}
	d.updateLevels()

	assert.Equal(t, d.syncLevel+levelOffset(0.3525), d.blackLevel)
	assert.NotEqual(t, d.blankLevel, d.blackLevel)
}
