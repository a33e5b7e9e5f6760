// Package video presents a decoded framebuffer by piping it to an
// external ffplay process, the same external-player handoff the teacher
// project uses for its NTSC output.
package video

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"

	"apollotv/decoder"
)

// Presenter pipes a decoder's BGRA framebuffer to ffplay as a raw video
// stream. The framebuffer's native byte layout (offset 0=blue, 8=green,
// 16=red, 24=alpha, written little-endian) is exactly ffmpeg's "bgra"
// pixel format, so no pixel conversion is needed between decoder and
// player.
type Presenter struct {
	pipe io.WriteCloser
	cmd  *exec.Cmd
	log  *log.Logger

	width, height int
	scratch       []byte

	lastFrame time.Time
	interval  time.Duration
}

// NewPresenter launches ffplay sized and paced for cfg, and returns a
// Presenter ready to receive framebuffers. fullscreen starts the ffplay
// window fullscreen (spec.md §6 "fullscreen toggle"), the same -fs flag
// apollo-tv's SDL main loop uses for SDL_SetWindowFullscreen.
func NewPresenter(cfg decoder.Config, fullscreen bool, logger *log.Logger) (*Presenter, error) {
	ffplayPath, err := exec.LookPath("ffplay")
	if err != nil {
		return nil, fmt.Errorf("video: ffplay not found in PATH: %w", err)
	}

	width, height := cfg.ActiveWidth, cfg.ActiveLines

	args := []string{
		"-f", "rawvideo",
		"-pixel_format", "bgra",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%f", cfg.FrameRate()),
		"-i", "-",
		"-window_title", "Apollo USB TV",
		"-fflags", "nobuffer",
		"-flags", "low_delay",
	}
	if fullscreen {
		args = append(args, "-fs")
	}

	cmd := exec.Command(ffplayPath, args...)
	pipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("video: stdin pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("video: start ffplay: %w", err)
	}

	logger.Info("ffplay started", "width", width, "height", height, "fps", cfg.FrameRate(), "fullscreen", fullscreen)

	return &Presenter{
		pipe:     pipe,
		cmd:      cmd,
		log:      logger,
		width:    width,
		height:   height,
		scratch:  make([]byte, width*height*4),
		interval: time.Duration(cfg.FrameIntervalMillis() * float64(time.Millisecond)),
	}, nil
}

// Present writes one framebuffer to ffplay's stdin, pacing output so
// writes are at least Config.FrameIntervalMillis apart: one frame period
// in mono, one field period (half a frame) in colour.
func (p *Presenter) Present(framebuffer []uint32) error {
	if len(framebuffer) != p.width*p.height {
		return fmt.Errorf("video: framebuffer has %d pixels, want %d", len(framebuffer), p.width*p.height)
	}

	for i, px := range framebuffer {
		binary.LittleEndian.PutUint32(p.scratch[i*4:], px)
	}

	if wait := p.interval - time.Since(p.lastFrame); wait > 0 {
		time.Sleep(wait)
	}
	p.lastFrame = time.Now()

	if _, err := p.pipe.Write(p.scratch); err != nil {
		return fmt.Errorf("video: write frame: %w", err)
	}
	return nil
}

// Stop closes ffplay's stdin and terminates the process, matching the
// teacher's FFplay.Stop shutdown order.
func (p *Presenter) Stop() {
	p.pipe.Close()
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.log.Info("ffplay stopped")
}
