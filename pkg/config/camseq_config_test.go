package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestParseCamSeqConfig_Defaults 测试空配置填充默认值
func TestParseCamSeqConfig_Defaults(t *testing.T) {
	cfg, err := ParseCamSeqConfig([]byte("{}"))
	if err != nil {
		t.Fatalf("Failed to parse empty config: %v", err)
	}

	if cfg.Timebase.TPS != 60 {
		t.Errorf("Expected default TPS=60, got %d", cfg.Timebase.TPS)
	}
	if cfg.Timebase.AuthoredFPS != 30 {
		t.Errorf("Expected default AuthoredFPS=30, got %d", cfg.Timebase.AuthoredFPS)
	}
	if cfg.Handoff.CountdownFrames != 5 || cfg.Handoff.BlendFrames != 15 {
		t.Errorf("Unexpected handoff defaults: %+v", cfg.Handoff)
	}
	if cfg.CachePolicy != CachePolicyRoom {
		t.Errorf("Expected default cache policy %q, got %q", CachePolicyRoom, cfg.CachePolicy)
	}
	if cfg.SequenceDir != "data/sequences" {
		t.Errorf("Expected default sequence dir, got %q", cfg.SequenceDir)
	}
}

// TestParseCamSeqConfig_Full 测试完整配置解析
func TestParseCamSeqConfig_Full(t *testing.T) {
	data := `
timebase:
  tps: 120
  authoredFps: 30
handoff:
  countdownFrames: 8
  blendFrames: 20
loop:
  idMin: 100
  idMax: 110
  cockpitIds: [7, 9]
cachePolicy: process
debug:
  strictIntegrity: true
sequenceDir: rooms/seq
sequences:
  1: door_open.yaml
  7: cockpit.bin
`
	cfg, err := ParseCamSeqConfig([]byte(data))
	if err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}

	if cfg.Timebase.TPS != 120 {
		t.Errorf("Expected TPS=120, got %d", cfg.Timebase.TPS)
	}
	if !cfg.Debug.StrictIntegrity {
		t.Error("Expected strictIntegrity=true")
	}
	if cfg.CachePolicy != CachePolicyProcess {
		t.Errorf("Expected cache policy process, got %q", cfg.CachePolicy)
	}
	if got := cfg.Sequences[7]; got != "cockpit.bin" {
		t.Errorf("Expected sequence 7 -> cockpit.bin, got %q", got)
	}

	ids := cfg.SequenceIDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 7 {
		t.Errorf("Expected sorted ids [1 7], got %v", ids)
	}
}

// TestParseCamSeqConfig_Invalid 测试非法配置
func TestParseCamSeqConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"bad policy", "cachePolicy: forever", "cachePolicy"},
		{"tps lower than authored", "timebase: {tps: 15, authoredFps: 30}", "tps"},
		{"inverted loop range", "loop: {idMin: 10, idMax: 5}", "inverted"},
		{"empty file", "sequences: {3: \"\"}", "empty file"},
		{"bad yaml", "timebase: [", "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCamSeqConfig([]byte(tt.data))
			if err == nil {
				t.Fatal("Expected an error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestIsLoopSequence 测试循环序列判定
func TestIsLoopSequence(t *testing.T) {
	cfg := DefaultCamSeqConfig()
	cfg.Loop = LoopConfig{IDMin: 100, IDMax: 102, CockpitIDs: []int{7}}

	tests := []struct {
		id   int
		want bool
	}{
		{99, false},
		{100, true},
		{102, true},
		{103, false},
		{7, true},
		{8, false},
	}
	for _, tt := range tests {
		if got := cfg.IsLoopSequence(tt.id); got != tt.want {
			t.Errorf("IsLoopSequence(%d): expected %v, got %v", tt.id, tt.want, got)
		}
	}

	// 未启用区间时 0 不应被视为循环序列
	if DefaultCamSeqConfig().IsLoopSequence(0) {
		t.Error("Sequence 0 should not loop when no range is configured")
	}
}

// TestLoadCamSeqConfig_FromDisk 测试从磁盘加载
func TestLoadCamSeqConfig_FromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "camseq.yaml")
	if err := os.WriteFile(path, []byte("timebase: {tps: 60, authoredFps: 30}\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadCamSeqConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TimebaseHelper().TicksPerSecond != 60 {
		t.Errorf("Expected 60 tps, got %d", cfg.TimebaseHelper().TicksPerSecond)
	}

	if _, err := LoadCamSeqConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

// TestTimebase 测试帧/tick 换算
func TestTimebase(t *testing.T) {
	tb := NewTimebase(60, 30)

	if got := tb.FramesToTicks(15); got != 30 {
		t.Errorf("Expected 15 authored frames = 30 ticks, got %d", got)
	}
	if got := tb.FramesToSeconds(30); got != 1.0 {
		t.Errorf("Expected 30 authored frames = 1s, got %v", got)
	}
	if got := tb.SecondsToTicks(0.5); got != 30 {
		t.Errorf("Expected 0.5s = 30 ticks, got %d", got)
	}
	if got := tb.TickSeconds(); got != 1.0/60.0 {
		t.Errorf("Expected tick = 1/60s, got %v", got)
	}
	if got := tb.FramesToTicks(-3); got != 0 {
		t.Errorf("Negative frames should convert to 0 ticks, got %d", got)
	}

	same := NewTimebase(30, 30)
	if got := same.FramesToTicks(15); got != 15 {
		t.Errorf("Expected identical rates to keep frame counts, got %d", got)
	}

	fallback := NewTimebase(0, 0)
	if fallback.TicksPerSecond != 60 || fallback.AuthoredFrameRate != 30 {
		t.Errorf("Expected fallback 60/30, got %+v", fallback)
	}
}
