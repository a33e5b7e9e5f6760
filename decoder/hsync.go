package decoder

// readLine drains samples from d.in into d.iline, applying the pending
// hsyncOffset as a phase correction (spec.md §4.2). It returns true once
// exactly cfg.Width samples have accumulated in iline (at which point
// ilineLen has been reset to 0 and the line is ready for processLine), or
// false if d.in ran out first ("need more input").
func (d *Decoder) readLine() bool {
	for d.ilineLen < d.cfg.Width {
		switch {
		case d.hsyncOffset < 0:
			// Insert an empty sample at the start of the line: delay it
			// by one sample without consuming any input.
			d.ilineLen++
			d.hsyncOffset++

		case d.ilineLen > 0 && d.hsyncOffset > 0:
			// Discard a sample from the start of the line.
			d.ilineLen--
			d.hsyncOffset--

		default:
			if len(d.in) == 0 {
				return false
			}
			d.iline[d.ilineLen] = d.in[0]
			d.in = d.in[1:]
			d.ilineLen++
		}
	}

	d.ilineLen = 0
	return true
}

// findHsync scans the just-filled iline for the deepest sync tip using a
// running sum over the most recent hsync_width samples, and updates
// hsyncOffset by a single step (+1/-1/0) toward re-centring it (spec.md
// §4.2). This is a single-step tracking controller: each line corrects at
// most one sample of phase, trading slow pull-in for heavy noise
// rejection.
func (d *Decoder) findHsync() {
	width := d.cfg.Width
	hsyncWidth := d.cfg.HsyncWidth

	mx := 0
	ref := d.hsync

	for x := 0; x < width; x++ {
		d.hsync -= int32(d.hsyncwin[d.hsyncwinX])
		d.hsyncwin[d.hsyncwinX] = d.iline[x]
		d.hsync += int32(d.hsyncwin[d.hsyncwinX])

		d.hsyncwinX++
		if d.hsyncwinX == hsyncWidth {
			d.hsyncwinX = 0
		}

		if d.hsync < ref {
			mx = x
			ref = d.hsync
		}
	}

	delta := mx - hsyncWidth
	if delta < -width/2 {
		delta += width
	}
	if delta >= width/2 {
		delta -= width
	}

	switch {
	case delta < 0:
		d.hsyncOffset--
	case delta > 0:
		d.hsyncOffset++
	}
}
