// Package config loads the receiver's YAML configuration, grounded on
// the teacher repo's config.go: a root Config struct nesting one
// struct per component, loaded in one LoadConfig/Load call, with
// defaults filled in after unmarshaling and a Validate pass at the
// end. Section/field names here track the components in SPEC_FULL.md's
// component table instead of the teacher's radio/web-dashboard
// concerns.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root receiver configuration.
type Config struct {
	Pool    PoolConfig     `yaml:"pool"`
	Session SessionConfig  `yaml:"session"`
	Slots   []SlotConfig   `yaml:"slots"`
	Logging LoggingConfig  `yaml:"logging"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Audio   AudioOutConfig `yaml:"audio"`
}

// PoolConfig sizes the packet/frame object pools (component A).
type PoolConfig struct {
	PacketBufSize  int `yaml:"packet_buf_size"` // bytes per pooled packet buffer (default 2048)
	FrameBufLen    int `yaml:"frame_buf_len"`   // samples per pooled frame buffer (default 4096)
	InitialPackets int `yaml:"initial_packets"` // packets to preallocate (default 64)
	InitialFrames  int `yaml:"initial_frames"`  // frames to preallocate (default 16)
}

// SessionConfig holds the default DSP-chain parameters applied to
// every session a slot creates (component G).
type SessionConfig struct {
	SourceQueueCapacity int     `yaml:"source_queue_capacity"` // packets (default 64)
	RepairQueueCapacity int     `yaml:"repair_queue_capacity"` // packets (default 64)
	TargetLatencyPkts   int     `yaml:"target_latency_packets"`
	SamplesPerPacket    uint32  `yaml:"samples_per_packet"`
	MaxSeqGap           uint16  `yaml:"max_seq_gap"`
	PLCHistoryLen       int     `yaml:"plc_history_len"`
	PLCHorizonFrames    int     `yaml:"plc_horizon_frames"`
	ResamplerKp         float64 `yaml:"resampler_kp"`
	ResamplerKi         float64 `yaml:"resampler_ki"`
	ResamplerMinPPM     float64 `yaml:"resampler_min_ppm"`
	ResamplerMaxPPM     float64 `yaml:"resampler_max_ppm"`
	NoPlaybackTimeoutMs int64   `yaml:"no_playback_timeout_ms"`
	SilenceTimeoutMs    int64   `yaml:"silence_timeout_ms"`
	GapTimeoutMs        int64   `yaml:"gap_timeout_ms"`
	LatencyWinLen       int     `yaml:"latency_window_len"`
}

// SlotConfig describes one receiver slot's endpoint bindings
// (component I).
type SlotConfig struct {
	Name         string `yaml:"name"`
	SourceAddr   string `yaml:"source_addr"` // e.g. "0.0.0.0:10001"
	RepairAddr   string `yaml:"repair_addr,omitempty"`
	ControlAddr  string `yaml:"control_addr,omitempty"`
	FECScheme    string `yaml:"fec_scheme"` // "none", "rs8m", "ldpc_staircase"
	AllowDynamic bool   `yaml:"allow_dynamic_sessions"`
}

// LoggingConfig controls the stdlib logger prefix/flags this repo's
// components use, mirroring the teacher's logging.level/format knobs.
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// MetricsConfig controls the Prometheus registry (component N).
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // e.g. ":9100"
}

// AudioOutConfig describes the output format the mixer produces.
type AudioOutConfig struct {
	SampleRate  uint32 `yaml:"sample_rate"`
	NumChannels int    `yaml:"num_channels"`
}

// Load reads and parses a YAML config file, then fills in defaults
// for anything left zero-valued, mirroring the teacher's LoadConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Pool.PacketBufSize == 0 {
		c.Pool.PacketBufSize = 2048
	}
	if c.Pool.FrameBufLen == 0 {
		c.Pool.FrameBufLen = 4096
	}
	if c.Pool.InitialPackets == 0 {
		c.Pool.InitialPackets = 64
	}
	if c.Pool.InitialFrames == 0 {
		c.Pool.InitialFrames = 16
	}

	if c.Session.SourceQueueCapacity == 0 {
		c.Session.SourceQueueCapacity = 64
	}
	if c.Session.RepairQueueCapacity == 0 {
		c.Session.RepairQueueCapacity = 64
	}
	if c.Session.TargetLatencyPkts == 0 {
		c.Session.TargetLatencyPkts = 8
	}
	if c.Session.SamplesPerPacket == 0 {
		c.Session.SamplesPerPacket = 160
	}
	if c.Session.MaxSeqGap == 0 {
		c.Session.MaxSeqGap = 100
	}
	if c.Session.PLCHistoryLen == 0 {
		c.Session.PLCHistoryLen = 480
	}
	if c.Session.PLCHorizonFrames == 0 {
		c.Session.PLCHorizonFrames = 5
	}
	if c.Session.ResamplerMaxPPM == 0 {
		c.Session.ResamplerMaxPPM = 1000
	}
	if c.Session.ResamplerMinPPM == 0 {
		c.Session.ResamplerMinPPM = -1000
	}
	if c.Session.NoPlaybackTimeoutMs == 0 {
		c.Session.NoPlaybackTimeoutMs = 10_000
	}
	if c.Session.SilenceTimeoutMs == 0 {
		c.Session.SilenceTimeoutMs = 5_000
	}
	if c.Session.GapTimeoutMs == 0 {
		c.Session.GapTimeoutMs = 5_000
	}
	if c.Session.LatencyWinLen == 0 {
		c.Session.LatencyWinLen = 100
	}

	for i := range c.Slots {
		if c.Slots[i].FECScheme == "" {
			c.Slots[i].FECScheme = "none"
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9100"
	}

	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 44100
	}
	if c.Audio.NumChannels == 0 {
		c.Audio.NumChannels = 2
	}
}

// Validate checks the configuration for required fields and sane
// ranges, mirroring the teacher's Config.Validate.
func (c *Config) Validate() error {
	if len(c.Slots) == 0 {
		return fmt.Errorf("at least one slot must be configured")
	}
	for i, s := range c.Slots {
		if s.SourceAddr == "" {
			return fmt.Errorf("slots[%d].source_addr is required", i)
		}
		switch s.FECScheme {
		case "none", "rs8m", "ldpc_staircase":
		default:
			return fmt.Errorf("slots[%d].fec_scheme %q is not one of none/rs8m/ldpc_staircase", i, s.FECScheme)
		}
	}
	if c.Audio.NumChannels < 1 {
		return fmt.Errorf("audio.num_channels must be at least 1")
	}
	if c.Audio.SampleRate < 8000 {
		return fmt.Errorf("audio.sample_rate must be at least 8000")
	}
	return nil
}
