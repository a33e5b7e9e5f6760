package source

import (
	"fmt"
	"sync"

	rtl "github.com/jpoirier/gortlsdr"
	"hz.tools/sdr"
)

// rtlBufCount and rtlBufLen mirror apollo-tv.c's sdr_rtlsdr.c ring sizing
// (BUF_COUNT=4, BUF_LEN=16384 raw bytes == 8192 IQ samples per buffer),
// per spec.md §5's "suggested: 16384 samples, 4 buffers".
const (
	rtlBufCount = 4
	rtlBufLen   = 16384
)

// RTLSDRSource drives an RTL-SDR dongle via github.com/jpoirier/gortlsdr,
// asynchronously receiving raw 8-bit IQ buffers on a librtlsdr worker
// goroutine and handing them to the decoder loop through a bounded ring
// (ring.go), replacing apollo-tv.c's per-slot-mutex producer/consumer
// handoff.
type RTLSDRSource struct {
	dev        *rtl.Context
	sampleRate uint

	ring *ring

	wg          sync.WaitGroup
	leftoverBuf sdr.SamplesC64
	leftoverOff int
}

// OpenRTLSDR opens device index, tunes it to frequencyHz at sampleRateHz
// with the given PPM frequency correction, and starts the asynchronous
// receive loop. A gainTenthsDB of 0 leaves the tuner in AGC mode
// (sdr_rtlsdr.c's default); any other value switches to manual gain, the
// way the teacher's rtl_tv/sdr/rtlsdr.go does for a requested gain.
func OpenRTLSDR(index int, sampleRateHz, frequencyHz int, ppm int, gainTenthsDB int) (*RTLSDRSource, error) {
	dev, err := rtl.Open(index)
	if err != nil {
		return nil, fmt.Errorf("source: open rtl-sdr #%d: %w", index, err)
	}

	if err := dev.SetSampleRate(sampleRateHz); err != nil {
		dev.Close()
		return nil, fmt.Errorf("source: set sample rate: %w", err)
	}
	if gainTenthsDB != 0 {
		if err := dev.SetTunerGainMode(true); err != nil {
			dev.Close()
			return nil, fmt.Errorf("source: enable manual gain: %w", err)
		}
		if err := dev.SetTunerGain(gainTenthsDB); err != nil {
			dev.Close()
			return nil, fmt.Errorf("source: set tuner gain: %w", err)
		}
	} else if err := dev.SetTunerGainMode(false); err != nil {
		dev.Close()
		return nil, fmt.Errorf("source: enable agc: %w", err)
	}
	if err := dev.SetCenterFreq(frequencyHz); err != nil {
		dev.Close()
		return nil, fmt.Errorf("source: set center frequency: %w", err)
	}
	if err := dev.SetFreqCorrection(ppm); err != nil && ppm != 0 {
		dev.Close()
		return nil, fmt.Errorf("source: set frequency correction: %w", err)
	}
	if err := dev.ResetBuffer(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("source: reset buffer: %w", err)
	}

	s := &RTLSDRSource{
		dev:        dev,
		sampleRate: uint(sampleRateHz),
		ring:       newRing(rtlBufCount, rtlBufLen/2),
	}

	s.wg.Add(1)
	go s.receiveLoop()

	return s, nil
}

// receiveLoop runs rtlsdr's blocking async read dispatch on its own
// goroutine until CancelAsync is called from Close, mirroring
// sdr_rtlsdr.c's _rx_thread.
func (s *RTLSDRSource) receiveLoop() {
	defer s.wg.Done()
	_ = s.dev.ReadAsync(s.onSamples, nil, rtlBufCount, rtlBufLen)
}

// onSamples is invoked on the librtlsdr callback goroutine for each
// completed raw buffer. It must not block: a full ring publishes an
// overflow rather than waiting for the consumer.
func (s *RTLSDRSource) onSamples(raw []byte) {
	buf := s.ring.acquire()
	if buf == nil {
		s.ring.dropNoBuffer()
		return
	}

	n := len(raw) / 2
	if n > len(buf) {
		n = len(buf)
	}
	for i := 0; i < n; i++ {
		iv := int32(raw[i*2]) - 128
		qv := int32(raw[i*2+1]) - 128
		buf[i] = complex(float32(iv), float32(qv))
	}

	s.ring.publish(buf[:n])
}

func (s *RTLSDRSource) SampleRate() uint { return s.sampleRate }

// Read drains the next available filled buffer from the ring into out,
// blocking until one arrives. It never returns io.EOF: a live source has
// no natural end of stream.
func (s *RTLSDRSource) Read(out sdr.SamplesC64) (int, error) {
	if s.leftoverOff >= len(s.leftoverBuf) {
		if s.leftoverBuf != nil {
			s.ring.release(s.leftoverBuf[:cap(s.leftoverBuf)])
		}
		s.leftoverBuf = <-s.ring.filled
		s.leftoverOff = 0
	}

	n := copy(out, s.leftoverBuf[s.leftoverOff:])
	s.leftoverOff += n
	return n, nil
}

// Overflow returns the number of receive buffers dropped because the
// decoder fell behind, for metrics.
func (s *RTLSDRSource) Overflow() uint64 { return s.ring.Overflow() }

// Close cancels the async receive, joins the producer goroutine, and
// closes the device, in that order -- the same idempotent teardown
// sequence as sdr_rtlsdr.c's _sdr_close.
func (s *RTLSDRSource) Close() error {
	if s.dev == nil {
		return nil
	}
	if err := s.dev.CancelAsync(); err != nil {
		return fmt.Errorf("source: cancel async: %w", err)
	}
	s.wg.Wait()
	dev := s.dev
	s.dev = nil
	if err := dev.Close(); err != nil {
		return fmt.Errorf("source: close device: %w", err)
	}
	return nil
}
