package decoder

import (
	"testing"

	"pgregory.net/rapid"
)

// TestPropertyDimensionalConsistency checks that every derived Config
// dimension is internally consistent regardless of sample rate: the active
// region fits within the line, and the framebuffer holds exactly
// ActiveWidth*ActiveLines pixels.
func TestPropertyDimensionalConsistency(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sr := rapid.IntRange(212_000, 20_000_000).Draw(rt, "sampleRate")
		mode := ModeMono
		if rapid.Bool().Draw(rt, "colour") {
			mode = ModeColour
		}

		c, err := NewConfig(sr, mode)
		if err != nil {
			return
		}

		if c.ActiveWidth > c.Width {
			rt.Fatalf("active width %d exceeds line width %d", c.ActiveWidth, c.Width)
		}
		if c.ActiveLeft+c.ActiveWidth > c.Width+1 {
			rt.Fatalf("active region %d..%d overruns line width %d", c.ActiveLeft, c.ActiveLeft+c.ActiveWidth, c.Width)
		}
		if c.FramebufferLen() != c.ActiveWidth*c.ActiveLines {
			rt.Fatalf("framebuffer length mismatch")
		}
	})
}

// TestPropertyReadLineConservesSampleCount checks that readLine never
// fabricates or loses real samples: total real samples consumed across
// any sequence of Submits equals total real samples fed in, modulo what
// remains buffered.
func TestPropertyReadLineConservesSampleCount(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := newTestDecoderRapid(rt, ModeMono)

		total := rapid.IntRange(0, d.cfg.Width*3).Draw(rt, "total")
		in := make([]int16, total)
		for i := range in {
			in[i] = int16(i)
		}
		d.in = in

		consumed := 0
		for d.readLine() {
			consumed += d.cfg.Width
		}
		remaining := len(d.in)

		if consumed+remaining > total {
			rt.Fatalf("consumed(%d)+remaining(%d) exceeds total(%d) without offset drift", consumed, remaining, total)
		}
	})
}

// TestPropertyWrapPhaseIsBounded checks wrapPhase always returns a value in
// [-pi, pi) for arbitrary finite input, matching spec.md §4.1's wraparound
// requirement.
func TestPropertyWrapPhaseIsBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := rapid.Float64Range(-100, 100).Draw(rt, "x")
		w := wrapPhase(x)
		if w < -3.1415926536 || w >= 3.1415926536 {
			rt.Fatalf("wrapPhase(%v) = %v out of range", x, w)
		}
	})
}

// TestPropertyRasterizeClampsToByteRange checks that rasterize never
// writes a channel value outside [0,255] regardless of how far out of
// [blackLevel, whiteLevel] the input sample falls.
func TestPropertyRasterizeClampsToByteRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := newTestDecoderRapid(rt, ModeMono)
		d.blackLevel = int32(rapid.IntRange(-20000, 20000).Draw(rt, "black"))
		d.whiteLevel = d.blackLevel + int32(rapid.IntRange(1, 20000).Draw(rt, "range"))

		sample := int16(rapid.IntRange(-32768, 32767).Draw(rt, "sample"))
		for x := 0; x < d.cfg.ActiveWidth; x++ {
			d.iline[d.cfg.ActiveLeft+x] = sample
		}
		d.rasterize(0)

		// An unclamped channel value would spill into bits 24 and up.
		px := d.framebuffer[0]
		if px>>24 != 0 {
			rt.Fatalf("pixel %#x has a channel value outside the byte range", px)
		}
	})
}

// TestPropertyMonoChannelsAlwaysEqual checks spec.md §4.6's mono
// requirement that R=G=B for every rasterized pixel.
func TestPropertyMonoChannelsAlwaysEqual(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := newTestDecoderRapid(rt, ModeMono)
		d.blackLevel = 0
		d.whiteLevel = 1000

		sample := int16(rapid.IntRange(-2000, 3000).Draw(rt, "sample"))
		for x := 0; x < d.cfg.ActiveWidth; x++ {
			d.iline[d.cfg.ActiveLeft+x] = sample
		}
		d.rasterize(0)

		px := d.framebuffer[0]
		r := (px >> 16) & 0xFF
		g := (px >> 8) & 0xFF
		b := px & 0xFF
		if r != g || g != b {
			rt.Fatalf("mono pixel channels diverged: r=%d g=%d b=%d", r, g, b)
		}
	})
}

// TestPropertyColourRasterizeIsolatesChannel checks spec.md §4.6's colour
// requirement that rasterizing a pixel only ever touches the byte
// belonging to the current FSC channel.
func TestPropertyColourRasterizeIsolatesChannel(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := newTestDecoderRapid(rt, ModeColour)
		d.blackLevel = 0
		d.whiteLevel = 1000
		d.fsc = rapid.IntRange(0, 2).Draw(rt, "fsc")

		seed := uint32(rapid.IntRange(0, 0xFFFFFF).Draw(rt, "seed"))
		d.framebuffer[0] = seed

		sample := int16(rapid.IntRange(-2000, 3000).Draw(rt, "sample"))
		for x := 0; x < d.cfg.ActiveWidth; x++ {
			d.iline[d.cfg.ActiveLeft+x] = sample
		}
		d.rasterize(0)

		for ch := 0; ch < 3; ch++ {
			if ch == d.fsc {
				continue
			}
			shift := uint(ch * 8)
			before := (seed >> shift) & 0xFF
			after := (d.framebuffer[0] >> shift) & 0xFF
			if before != after {
				rt.Fatalf("rasterize touched untouched channel %d: before=%d after=%d", ch, before, after)
			}
		}
	})
}

func newTestDecoderRapid(rt *rapid.T, mode Mode) *Decoder {
	cfg, err := NewConfig(1_000_000, mode)
	if err != nil {
		rt.Fatalf("NewConfig: %v", err)
	}
	d, err := New(cfg)
	if err != nil {
		rt.Fatalf("New: %v", err)
	}
	return d
}
