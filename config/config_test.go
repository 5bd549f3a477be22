package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "receiver.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeTempConfig(t, `
slots:
  - name: main
    source_addr: "0.0.0.0:10001"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pool.PacketBufSize != 2048 {
		t.Errorf("PacketBufSize = %d, want 2048", cfg.Pool.PacketBufSize)
	}
	if cfg.Session.TargetLatencyPkts != 8 {
		t.Errorf("TargetLatencyPkts = %d, want 8", cfg.Session.TargetLatencyPkts)
	}
	if cfg.Slots[0].FECScheme != "none" {
		t.Errorf("FECScheme = %q, want none", cfg.Slots[0].FECScheme)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Audio.NumChannels != 2 {
		t.Errorf("Audio defaults = %+v, want 44100/2", cfg.Audio)
	}
}

func TestLoadRespectsExplicitValues(t *testing.T) {
	path := writeTempConfig(t, `
slots:
  - name: main
    source_addr: "0.0.0.0:10001"
    fec_scheme: rs8m
audio:
  sample_rate: 48000
  num_channels: 1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Slots[0].FECScheme != "rs8m" {
		t.Errorf("FECScheme = %q, want rs8m", cfg.Slots[0].FECScheme)
	}
	if cfg.Audio.SampleRate != 48000 || cfg.Audio.NumChannels != 1 {
		t.Errorf("Audio = %+v, want 48000/1", cfg.Audio)
	}
}

func TestLoadRejectsNoSlots(t *testing.T) {
	path := writeTempConfig(t, "slots: []\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty slots list")
	}
}

func TestLoadRejectsMissingSourceAddr(t *testing.T) {
	path := writeTempConfig(t, `
slots:
  - name: main
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing source_addr")
	}
}

func TestLoadRejectsUnknownFECScheme(t *testing.T) {
	path := writeTempConfig(t, `
slots:
  - name: main
    source_addr: "0.0.0.0:10001"
    fec_scheme: bogus
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown fec_scheme")
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load("/nonexistent/receiver.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
