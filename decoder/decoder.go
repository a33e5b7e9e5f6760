package decoder

import (
	"fmt"

	"hz.tools/sdr"
)

// Status reports what happened after a Decoder finished processing one
// line of demodulated samples.
type Status int

const (
	// StatusContinue means the line was processed but no frame or field
	// boundary was reached.
	StatusContinue Status = iota
	// StatusFieldReady means a colour field completed (line 264, spec.md
	// §4.7) -- the framebuffer holds a fresh field's worth of data and may
	// be presented at ~60 fields/s.
	StatusFieldReady
	// StatusFrameReady means a full frame completed; the frame counter has
	// been incremented and the line counter reset to 1.
	StatusFrameReady
)

// Decoder holds all mutable state for one Apollo USB TV decode session.
// Buffers are allocated once at construction (New) and reused for the
// lifetime of the Decoder; a Decoder is single-owner and must only be
// driven by one goroutine.
type Decoder struct {
	cfg   Config
	demod *Demodulator

	frame int
	line  int

	iline    []int16
	ilineLen int

	hsync       int32
	hsyncwin    []int16
	hsyncwinX   int
	hsyncOffset int

	syncLevel  int32
	blankLevel int32
	blackLevel int32
	whiteLevel int32

	vsync        uint32
	vsyncCount   int
	vsyncRelocks int

	fsc     int
	fscHold bool

	framebuffer []uint32

	demodScratch []int16 // reused across Submit calls to avoid per-block allocation

	// in is the portion of the demodulated scratch buffer not yet
	// consumed into iline by readLine, mirroring apollo-tv.c's in/in_len.
	in []int16
}

// New allocates a Decoder for the given configuration. Buffers (iline,
// hsyncwin, framebuffer) are sized once from cfg and never reallocated.
func New(cfg Config) (*Decoder, error) {
	if cfg.Width <= 0 || cfg.HsyncWidth <= 0 {
		return nil, fmt.Errorf("decoder: invalid configuration %+v", cfg)
	}

	d := &Decoder{
		cfg:      cfg,
		demod:    NewDemodulator(cfg.SampleRate, cfg.Deviation),
		frame:    1,
		line:     1,
		iline:    make([]int16, cfg.Width),
		hsyncwin: make([]int16, cfg.HsyncWidth),

		framebuffer: make([]uint32, cfg.FramebufferLen()),
	}

	return d, nil
}

// Frame returns the current frame number.
func (d *Decoder) Frame() int { return d.frame }

// Line returns the current 1-based line number within the frame.
func (d *Decoder) Line() int { return d.line }

// Config returns the decoder's (immutable) configuration.
func (d *Decoder) Config() Config { return d.cfg }

// Framebuffer returns the decoder's internal ARGB framebuffer. The slice
// is owned by the Decoder and is overwritten in place on subsequent
// lines; callers that need a stable snapshot (e.g. a presenter) must copy
// it before the next call to Submit.
func (d *Decoder) Framebuffer() []uint32 { return d.framebuffer }

// HsyncOffset exposes the current timing-recovery correction, for metrics
// and tests.
func (d *Decoder) HsyncOffset() int { return d.hsyncOffset }

// SyncLevel exposes the tracked sync-tip level, for metrics and tests.
func (d *Decoder) SyncLevel() int32 { return d.syncLevel }

// VsyncRelocks returns the number of times a vsync pattern match has
// forced the line counter to re-lock, for metrics.
func (d *Decoder) VsyncRelocks() int { return d.vsyncRelocks }

// Submit demodulates one block of complex IQ samples and drains every
// complete line it produces, returning the sequence of Status values
// observed (one per completed line). Submit never blocks; if the block
// ends mid-line the partial line is retained in Decoder state until the
// next Submit call, mirroring apollo-tv.c's _usbtv_read returning 2
// ("need more input") back to its caller's read loop.
func (d *Decoder) Submit(block sdr.SamplesC64) []Status {
	if cap(d.demodScratch) < len(block) {
		d.demodScratch = make([]int16, len(block))
	}
	scratch := d.demodScratch[:len(block)]
	d.demod.Demodulate(block, scratch)

	d.in = scratch

	var statuses []Status
	for d.readLine() {
		statuses = append(statuses, d.processLine())
	}
	return statuses
}
