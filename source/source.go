// Package source provides the IQ sample sources the decoder pipeline can
// run against: a recorded raw-sample file, and a live RTL-SDR dongle.
package source

import (
	"hz.tools/sdr"
)

// Source is the capability every IQ producer in this package implements.
// It mirrors hz.tools/sdr.Reader's Read/SampleRate/Close contract so a
// decoder loop can treat a recorded file and a live dongle identically.
type Source interface {
	// Read fills buf with complex IQ samples, returning the number
	// actually read. It returns io.EOF once no more samples will ever be
	// available (file sources at end of file; live sources never).
	Read(buf sdr.SamplesC64) (int, error)

	// SampleRate is the configured IQ sample rate in Hz.
	SampleRate() uint

	// Close releases the underlying file handle or hardware device.
	Close() error
}
