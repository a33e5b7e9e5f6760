package decoder

// int16Max mirrors C's INT16_MAX, used throughout spec.md §4.3-§4.6 as the
// unit for level offsets expressed as fractions of full scale.
const int16Max = 32767

// levelOffset computes frac*INT16_MAX the way apollo-tv.c's C integer
// assignment does: as a double-precision product truncated toward zero on
// assignment to an int. frac is always a parameter here (never a literal
// folded at compile time) so this conversion happens at run time, matching
// the original's truncating cast rather than triggering a Go
// constant-overflow/truncation error.
func levelOffset(frac float64) int32 {
	return int32(float64(int16Max) * frac)
}

// updateLevels recomputes the running sync/blank/black/white reference
// levels from the current line's sync-tip region (spec.md §4.3). The
// sync-tip mean is low-pass filtered into syncLevel with a ~100-line time
// constant; blank/black/white are then derived as fixed offsets above it.
func (d *Decoder) updateLevels() {
	hsyncWidth := d.cfg.HsyncWidth

	sum := int32(d.iline[1])
	for x := 2; x < hsyncWidth-1; x++ {
		sum += int32(d.iline[x])
	}
	syncTip := sum / int32(hsyncWidth-2)

	d.syncLevel = (d.syncLevel*99 + syncTip) / 100
	d.blankLevel = d.syncLevel + levelOffset(0.30)

	if d.cfg.Mode == ModeColour {
		// The 0.3525 offset compensates for the DC shift introduced by
		// the colour-burst pedestal.
		d.blackLevel = d.syncLevel + levelOffset(0.3525)
	} else {
		d.blackLevel = d.syncLevel + levelOffset(0.30)
	}

	d.whiteLevel = d.syncLevel + levelOffset(1.00)
}
