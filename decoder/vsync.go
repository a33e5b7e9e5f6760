package decoder

// updateVsync examines the current line's sync region(s) for the long
// low pulses that make up a vertical-sync equalizing sequence, shifting a
// decision bit into the vsync shift register per half-line (colour) or
// per line (mono), and matches the result against the known pulse
// patterns of the Apollo USB TV format (spec.md §4.4). On a match it
// resets the line counter and arms vsyncCount to suppress repeat matches
// for the next Lines*10 lines (ten frames).
func (d *Decoder) updateVsync() {
	vsyncWidth := d.cfg.VsyncWidth
	width := d.cfg.Width

	d.vsync <<= 1
	if d.lineMean(0, vsyncWidth)-d.blankLevel < levelOffset(-0.15) {
		d.vsync |= 1
	}

	aline := 0

	if d.cfg.Mode == ModeColour {
		mid := width / 2
		d.vsync <<= 1
		if d.lineMean(mid, mid+vsyncWidth)-d.blankLevel < levelOffset(-0.15) {
			d.vsync |= 1
		}

		d.vsync &= 0xFFFF
		switch d.vsync {
		case 252:
			aline = 7
		case 126:
			aline = 269
		}
	} else {
		d.vsync &= 0x3FF
		if d.vsync == 510 {
			aline = 9
		}
	}

	// Rate-limit acceptance: a match is only honoured once vsyncCount has
	// counted down to zero, so after a line reset no further match is
	// honoured for Lines*10 lines (spec.md §3, §4.4). Note: the
	// original apollo-tv.c computes this countdown but never gates on it;
	// spec.md's data model and §4.4 both describe it as a suppression
	// mechanism, so that is the behaviour implemented here -- see
	// DESIGN.md.
	if aline != 0 && d.vsyncCount == 0 {
		d.line = aline
		d.vsyncCount = d.cfg.Lines * 10
		d.vsyncRelocks++
	}

	if d.vsyncCount > 0 {
		d.vsyncCount--
	}
}

// lineMean returns the mean of iline[start:end] as an int32, matching
// apollo-tv.c's integer-accumulated sum-then-divide (not a rounded mean).
func (d *Decoder) lineMean(start, end int) int32 {
	var sum int32
	for x := start; x < end; x++ {
		sum += int32(d.iline[x])
	}
	return sum / int32(end-start)
}
