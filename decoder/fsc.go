package decoder

// updateFSC advances and, where appropriate, re-synchronises the
// field-sequential colour phase (spec.md §4.5, colour mode only). Channel
// byte offset is fsc*8: fsc=0 is blue (bits 0-7), fsc=1 is green (bits
// 8-15), fsc=2 is red (bits 16-23) -- per the byte-offset table and the
// worked colour-overlay example, which take precedence over the section's
// own prose mislabelling fsc=1 as the red field.
//
// At the start of each field (line 1 or line 264) fsc advances mod 3;
// reaching 1 (green) clears fscHold so that the next white reference
// burst, if any, is allowed to force a resync.
//
// At lines 18 and 281 -- the FSC reference-burst position within each
// field -- a burst above the black/white midpoint forces fsc to 1 (green)
// and sets fscHold, guaranteeing at most one resync per frame.
func (d *Decoder) updateFSC() {
	if d.line == 1 || d.line == 264 {
		d.fsc = (d.fsc + 1) % 3
		if d.fsc == 1 {
			d.fscHold = false
		}
	}

	if !d.fscHold && (d.line == 18 || d.line == 281) {
		burst := d.lineMean(d.cfg.FSCLeft, d.cfg.FSCLeft+d.cfg.FSCWidth)
		if burst > (d.whiteLevel+d.blackLevel)/2 {
			d.fsc = 1
			d.fscHold = true
		}
	}
}
