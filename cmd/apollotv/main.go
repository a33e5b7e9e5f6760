// Command apollotv decodes an Apollo Unified S-Band TV signal, either
// from a recorded raw IQ file or live from an RTL-SDR dongle, and
// presents the decoded frames with ffplay.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"apollotv/config"
	"apollotv/decoder"
	"apollotv/metrics"
	"apollotv/source"
	"apollotv/video"

	"hz.tools/sdr"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		logger.Fatal("parse arguments", "err", err)
	}

	sessionID := uuid.New().String()
	logger = logger.With("session", sessionID)

	if cfg.ReceiverType != "" {
		logger.Info("receiver type flag accepted for compatibility, ignored", "type", cfg.ReceiverType)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("decode session failed", "err", err)
	}
}

func run(cfg config.Config, logger *log.Logger) error {
	if cfg.MetricsListen != "" {
		server, errCh := metrics.Serve(cfg.MetricsListen)
		logger.Info("metrics server listening", "addr", cfg.MetricsListen)
		defer func() {
			if err := metrics.Shutdown(server); err != nil {
				logger.Warn("metrics server shutdown", "err", err)
			}
		}()
		go func() {
			if err := <-errCh; err != nil {
				logger.Warn("metrics server stopped", "err", err)
			}
		}()
	}

	src, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	dcfg, err := decoder.NewConfig(int(src.SampleRate()), cfg.Mode)
	if err != nil {
		return fmt.Errorf("apollotv: configure decoder: %w", err)
	}

	logger.Info("video parameters",
		"active_width", dcfg.ActiveWidth, "active_lines", dcfg.ActiveLines,
		"fps", dcfg.FrameRate(), "line_width", dcfg.Width, "lines", dcfg.Lines)
	logger.Info("sample rate", "hz", dcfg.SampleRate)

	dec, err := decoder.New(dcfg)
	if err != nil {
		return fmt.Errorf("apollotv: new decoder: %w", err)
	}

	presenter, err := video.NewPresenter(dcfg, cfg.Fullscreen, logger)
	if err != nil {
		return fmt.Errorf("apollotv: start presenter: %w", err)
	}
	defer presenter.Stop()

	met := metrics.NewDecoder(cfg.Mode.String())

	block := make(sdr.SamplesC64, 8192)
	var lastOverflow uint64
	var lastRelocks int

	for {
		n, err := src.Read(block)
		if err != nil {
			logger.Info("source exhausted", "err", err)
			return nil
		}

		for _, status := range dec.Submit(block[:n]) {
			met.ObserveLine(dec.HsyncOffset(), dec.SyncLevel())

			switch status {
			case decoder.StatusFrameReady:
				met.ObserveFrame()
				if err := presenter.Present(dec.Framebuffer()); err != nil {
					return fmt.Errorf("apollotv: present frame: %w", err)
				}
			case decoder.StatusFieldReady:
				met.ObserveField()
				if err := presenter.Present(dec.Framebuffer()); err != nil {
					return fmt.Errorf("apollotv: present field: %w", err)
				}
			}
		}

		if relocks := dec.VsyncRelocks(); relocks > lastRelocks {
			for i := 0; i < relocks-lastRelocks; i++ {
				met.ObserveVsyncRelock()
			}
			lastRelocks = relocks
		}

		if overflower, ok := src.(interface{ Overflow() uint64 }); ok {
			if o := overflower.Overflow(); o > lastOverflow {
				dropped := o - lastOverflow
				logger.Warn("source buffer overflow, samples dropped", "dropped_buffers", dropped, "total_overflow", o)
				met.ObserveSourceOverflow(dropped)
				lastOverflow = o
			}
		}
	}
}

func openSource(cfg config.Config, logger *log.Logger) (source.Source, error) {
	if cfg.InputFile != "" {
		logger.Info("opening file source", "path", cfg.InputFile, "sample_rate", cfg.SampleRate)
		return source.OpenFile(cfg.InputFile, uint(cfg.SampleRate))
	}

	if cfg.Frequency == 0 {
		return nil, fmt.Errorf("apollotv: --frequency is required for the live RTL-SDR source")
	}

	logger.Info("opening rtl-sdr source",
		"device", cfg.DeviceIndex, "frequency_hz", cfg.Frequency,
		"sample_rate", cfg.SampleRate, "ppm", cfg.PPM, "gain", cfg.Gain)
	return source.OpenRTLSDR(cfg.DeviceIndex, cfg.SampleRate, cfg.Frequency, cfg.PPM, cfg.Gain)
}
