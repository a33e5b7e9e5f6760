package decoder

// activeLine computes the active-output line index for the current line
// number, or a value outside [0, ActiveLines) if the current line falls
// within vertical blanking (spec.md §4.6). Colour mode is 2:1 interlaced:
// the first field (lines 23..262) fills even output rows, the second
// field (lines 286..525) fills odd output rows.
func (d *Decoder) activeLine() int {
	if d.cfg.Mode == ModeColour {
		if d.line < 265 {
			return (d.line - 23) * 2
		}
		return (d.line-286)*2 + 1
	}
	return d.line - 9
}

// rasterize maps the active-region samples of iline into the framebuffer
// row aline, linearly scaling between blackLevel and whiteLevel into an
// 8-bit intensity (spec.md §4.6). In mono mode the pixel is written as
// 0x00RRGGBB with R=G=B=v. In colour mode only the byte belonging to the
// current FSC channel is overwritten, leaving the other two channels from
// prior fields untouched.
func (d *Decoder) rasterize(aline int) {
	if aline < 0 || aline >= d.cfg.ActiveLines {
		return
	}

	left := d.cfg.ActiveLeft
	width := d.cfg.ActiveWidth
	levelRange := int32(d.whiteLevel - d.blackLevel)
	row := aline * width

	for x := 0; x < width; x++ {
		v := (int32(d.iline[left+x]) - d.blackLevel) * 255 / levelRange
		switch {
		case v > 0xFF:
			v = 0xFF
		case v < 0:
			v = 0
		}

		if d.cfg.Mode == ModeColour {
			c := d.framebuffer[row+x]
			shift := uint(d.fsc * 8)
			c &^= 0xFF << shift
			c |= uint32(v) << shift
			d.framebuffer[row+x] = c
		} else {
			d.framebuffer[row+x] = uint32(v)<<16 | uint32(v)<<8 | uint32(v)
		}
	}
}

// processLine runs the full per-line pipeline (spec.md §4.2-§4.7) over
// the iline buffer just filled by readLine, and reports whether a field
// or frame boundary was crossed.
func (d *Decoder) processLine() Status {
	d.findHsync()
	d.updateLevels()
	d.updateVsync()

	if d.cfg.Mode == ModeColour {
		d.updateFSC()
	}

	d.rasterize(d.activeLine())

	d.line++

	if d.line > d.cfg.Lines {
		d.line = 1
		d.frame++
		return StatusFrameReady
	}

	if d.cfg.Mode == ModeColour && d.line == 264 {
		return StatusFieldReady
	}

	return StatusContinue
}
