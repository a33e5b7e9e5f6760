// Package decoder implements the Apollo Unified S-Band TV signal chain:
// FM demodulation, horizontal-sync timing recovery, vertical-sync
// detection, field-sequential colour identification and active-region
// rasterization into a framebuffer.
package decoder

import (
	"fmt"
	"math"

	"hz.tools/rf"
)

// Mode selects which of the two Apollo USB TV transmission formats a
// Decoder is configured for.
type Mode int

const (
	// ModeMono is the 320 line, 10 fps progressive monochrome "slow-scan" format.
	ModeMono Mode = iota
	// ModeColour is the 525 line, ~29.97 field/s interlaced field-sequential
	// colour "standard" format.
	ModeColour
)

func (m Mode) String() string {
	if m == ModeColour {
		return "colour"
	}
	return "mono"
}

// ParseMode maps a CLI mode name ("mono", "colour"/"color") to a Mode.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "mono":
		return ModeMono, nil
	case "colour", "color":
		return ModeColour, nil
	default:
		return 0, fmt.Errorf("decoder: unrecognised mode %q", name)
	}
}

// DefaultDeviation is the FM deviation used by the Apollo USB downlink,
// matching the original apollo-tv command's default (125 KHz).
const DefaultDeviation rf.Hz = 125_000

// minColourSampleRate is the lowest sample rate NewConfig considers for
// colour mode: at 212 kHz the 4.7 µs hsync window is about one sample
// wide. NewConfig also rejects any rate, in either mode, whose hsync window
// is under three samples; spec.md §9 leaves this undefined, so we reject
// it here.
const minColourSampleRate = 212_000

// Config holds the decoder's immutable, mode-derived configuration. It is
// fixed at construction time; buffers sized from it are allocated once and
// reused for the lifetime of the Decoder.
type Config struct {
	SampleRate int
	Mode       Mode
	Deviation  rf.Hz

	Lines       int
	ActiveLines int

	FrameRateNum int
	FrameRateDen int

	Width int // full line length, in samples

	HsyncWidth int
	VsyncWidth int

	ActiveLeft  int
	ActiveWidth int

	FSCLeft  int // colour only
	FSCWidth int // colour only
}

// round mirrors C's round(): nearest integer, halves away from zero.
func round(x float64) int { return int(math.Round(x)) }

func ceil(x float64) int { return int(math.Ceil(x)) }

// NewConfig derives a full decoder Config from a sample rate and mode,
// rounding spec.md §6's microsecond constants to the nearest sample (the
// active width rounds up) the way apollo-tv.c's _usbtv_init does.
func NewConfig(sampleRate int, mode Mode) (Config, error) {
	if sampleRate <= 0 {
		return Config{}, fmt.Errorf("decoder: invalid sample rate %d", sampleRate)
	}

	c := Config{
		SampleRate: sampleRate,
		Mode:       mode,
		Deviation:  DefaultDeviation,
	}

	sr := float64(sampleRate)

	switch mode {
	case ModeColour:
		if sampleRate < minColourSampleRate {
			return Config{}, fmt.Errorf("decoder: sample rate %d too low to resolve colour hsync width (need >= %d)", sampleRate, minColourSampleRate)
		}

		c.Lines = 525
		c.ActiveLines = 480
		c.FrameRateNum = 30000
		c.FrameRateDen = 1001

		c.HsyncWidth = round(sr * 0.00000470)
		c.VsyncWidth = round(sr * 0.00002710)

		c.ActiveLeft = round(sr * 0.00000920)
		c.ActiveWidth = ceil(sr * 0.00005290)

		c.FSCLeft = round(sr * 0.00001470)
		c.FSCWidth = round(sr * 0.00002000)

	case ModeMono:
		c.Lines = 320
		c.ActiveLines = 312
		c.FrameRateNum = 10
		c.FrameRateDen = 1

		c.HsyncWidth = round(sr * 0.00002000)
		c.VsyncWidth = round(sr * 0.00026750)

		c.ActiveLeft = round(sr * 0.00002500)
		c.ActiveWidth = ceil(sr * 0.00028250)

	default:
		return Config{}, fmt.Errorf("decoder: unknown mode %v", mode)
	}

	c.Width = round(sr / float64(c.Lines) / (float64(c.FrameRateNum) / float64(c.FrameRateDen)))

	// updateLevels averages HsyncWidth-2 sync-tip samples.
	if c.HsyncWidth < 3 {
		return Config{}, fmt.Errorf("decoder: sample rate %d too low to resolve hsync width", sampleRate)
	}
	if c.ActiveWidth > c.Width {
		c.ActiveWidth = c.Width
	}

	return c, nil
}

// FramebufferLen is the number of ARGB pixels the decoder's framebuffer holds.
func (c Config) FramebufferLen() int { return c.ActiveWidth * c.ActiveLines }

// FrameRate returns the configured frame rate as a floating point value,
// for logging and presenter frame-pacing (spec.md §6).
func (c Config) FrameRate() float64 {
	return float64(c.FrameRateNum) / float64(c.FrameRateDen)
}

// FrameIntervalMillis is the presenter's target pacing interval, halved in
// colour mode because frames are signalled once per field (spec.md §6).
func (c Config) FrameIntervalMillis() float64 {
	ms := 1000 * float64(c.FrameRateDen) / float64(c.FrameRateNum)
	if c.Mode == ModeColour {
		ms /= 2
	}
	return ms
}
