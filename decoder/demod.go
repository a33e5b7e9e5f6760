package decoder

import (
	"math"

	"hz.tools/rf"
	"hz.tools/sdr"
)

// Demodulator converts a block of complex IQ samples into a scalar FM
// baseband signal, one signed 16-bit sample per input sample, using
// differential phase (spec.md §4.1). Its previous-phase state persists
// across calls so a caller may demodulate a live stream in arbitrarily
// sized chunks.
type Demodulator struct {
	sampleRate float64
	deviation  rf.Hz
	prevPhase  float64
}

// NewDemodulator creates a Demodulator for the given sample rate and FM
// deviation. prevPhase starts at zero, matching apollo-tv.c's static `fm`.
func NewDemodulator(sampleRate int, deviation rf.Hz) *Demodulator {
	return &Demodulator{
		sampleRate: float64(sampleRate),
		deviation:  deviation,
	}
}

// wrapPhase adjusts x by +/-2*pi so that it lies in [-pi, pi), matching
// apollo-tv.c's d2 wrap of the phase difference.
func wrapPhase(x float64) float64 {
	for x < -math.Pi {
		x += 2 * math.Pi
	}
	for x >= math.Pi {
		x -= 2 * math.Pi
	}
	return x
}

// Demodulate fills out with the FM-demodulated scalar signal for in. out
// must have length >= len(in); only out[:len(in)] is written.
//
// Per sample, theta = atan2(I, Q) -- note the unusual argument order
// (real, imag) rather than the conventional atan2(imag, real). This
// matches apollo-tv.c's atan2(buf[i*2], buf[i*2+1]) exactly and must be
// preserved: swapping the arguments changes the sign and phase reference
// of every decoded line.
func (d *Demodulator) Demodulate(in sdr.SamplesC64, out []int16) {
	scale := (d.sampleRate / (2 * math.Pi * float64(d.deviation))) * math.MaxInt16

	for i, s := range in {
		theta := math.Atan2(float64(real(s)), float64(imag(s)))

		diff := wrapPhase(d.prevPhase - theta)
		out[i] = int16(math.Round(diff * scale))

		d.prevPhase = theta
	}
}
