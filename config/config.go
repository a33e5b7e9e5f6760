// Package config parses the apollotv command line and an optional YAML
// tuning profile, in the style doismellburning-samoyed's atest.go builds
// its pflag command surface.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"apollotv/decoder"
)

// Profile is an optional on-disk tuning file. Any field left zero-valued
// does not override the corresponding CLI flag or its default.
type Profile struct {
	SampleRate int    `yaml:"sample_rate"`
	Frequency  int    `yaml:"frequency_hz"`
	PPM        int    `yaml:"ppm"`
	Gain       int    `yaml:"gain"`
	Mode       string `yaml:"mode"`
}

// Config holds the fully resolved settings for one apollotv run: CLI
// flags with any matching Profile fields applied first, CLI flags always
// winning on conflict.
type Config struct {
	Mode       decoder.Mode
	SampleRate int
	Frequency  int
	PPM        int
	Gain       int

	DeviceIndex int
	InputFile   string // empty selects the live RTL-SDR source

	Fullscreen bool

	// MetricsListen is the address the Prometheus metrics HTTP server
	// binds to; empty disables it.
	MetricsListen string

	// ReceiverType is accepted for command-line compatibility with the
	// original apollo-tv tool's -t/--type flag but is otherwise unused:
	// this decoder auto-detects nothing from it and always follows Mode.
	ReceiverType string

	modeFromProfile string
}

// Parse parses os.Args[1:] (and, if present, the file named by
// --profile) into a Config.
func Parse(args []string) (Config, error) {
	flags := pflag.NewFlagSet("apollotv", pflag.ContinueOnError)

	mode := flags.StringP("mode", "m", "colour", "Decode mode: mono or colour.")
	device := flags.IntP("device", "d", 0, "RTL-SDR device index to use for the live source.")
	sampleRate := flags.IntP("samplerate", "s", 2_400_000, "IQ sample rate, in Hz.")
	frequency := flags.IntP("frequency", "f", 0, "Tuner center frequency, in Hz. Required for the live source.")
	ppm := flags.IntP("ppm", "p", 0, "Tuner frequency correction, in parts per million.")
	gain := flags.Int("gain", 0, "Tuner gain in tenths of a dB; 0 leaves AGC enabled.")
	receiverType := flags.StringP("type", "t", "", "Accepted for compatibility with apollo-tv's -t/--type; logged and otherwise unused.")
	fullscreen := flags.BoolP("fullscreen", "F", false, "Start the presenter window fullscreen.")
	profilePath := flags.String("profile", "", "Optional YAML file of tuning defaults; CLI flags always override it.")
	metricsListen := flags.String("metrics-listen", ":9090", "Address to serve Prometheus metrics on; empty disables it.")

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]... [FILE]\n", "apollotv")
		fmt.Fprintf(os.Stderr, "Decode an Apollo Unified S-Band TV signal from FILE, or a live RTL-SDR device if FILE is omitted.\n\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		SampleRate:    *sampleRate,
		Frequency:     *frequency,
		PPM:           *ppm,
		Gain:          *gain,
		DeviceIndex:   *device,
		Fullscreen:    *fullscreen,
		ReceiverType:  *receiverType,
		MetricsListen: *metricsListen,
	}

	if *profilePath != "" {
		profile, err := loadProfile(*profilePath)
		if err != nil {
			return Config{}, err
		}
		applyProfileDefaults(&cfg, profile, flags)
	}

	modeName := *mode
	if !flags.Changed("mode") && cfg.modeFromProfile != "" {
		modeName = cfg.modeFromProfile
	}
	parsedMode, err := decoder.ParseMode(modeName)
	if err != nil {
		return Config{}, err
	}
	cfg.Mode = parsedMode

	if rest := flags.Args(); len(rest) > 0 {
		cfg.InputFile = rest[0]
	}

	return cfg, nil
}

func loadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("config: read profile %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("config: parse profile %s: %w", path, err)
	}
	return p, nil
}

func applyProfileDefaults(cfg *Config, p Profile, flags *pflag.FlagSet) {
	if p.SampleRate != 0 && !flags.Changed("samplerate") {
		cfg.SampleRate = p.SampleRate
	}
	if p.Frequency != 0 && !flags.Changed("frequency") {
		cfg.Frequency = p.Frequency
	}
	if p.PPM != 0 && !flags.Changed("ppm") {
		cfg.PPM = p.PPM
	}
	if p.Gain != 0 && !flags.Changed("gain") {
		cfg.Gain = p.Gain
	}
	if p.Mode != "" && !flags.Changed("mode") {
		cfg.modeFromProfile = p.Mode
	}
}
