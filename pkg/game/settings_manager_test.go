package game

import (
	"os"
	"testing"

	"github.com/quasilyte/gdata/v2"
)

// openTestGdata 在临时 HOME 下打开 gdata 存储
func openTestGdata(t *testing.T, appName string) *gdata.Manager {
	t.Helper()
	tempDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	t.Cleanup(func() { os.Setenv("HOME", originalHome) })

	gdataManager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		t.Fatalf("Failed to create gdata manager: %v", err)
	}
	return gdataManager
}

// TestDefaultSettings 测试 DefaultSettings() 返回正确的默认值
func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	if settings.PlaybackSpeed != 1.0 {
		t.Errorf("PlaybackSpeed: got %v, want 1.0", settings.PlaybackSpeed)
	}
	if !settings.ShowPath || !settings.ShowRegions {
		t.Error("Expected path and region overlays enabled by default")
	}
	if settings.Fullscreen {
		t.Error("Fullscreen: got true, want false")
	}
	if settings.LastTrigger != "" || settings.LastSequence != 0 {
		t.Errorf("Expected no last selection, got %q/%d", settings.LastTrigger, settings.LastSequence)
	}
}

// TestNewSettingsManagerNilGdata 测试 gdataManager 为 nil 时的降级场景
func TestNewSettingsManagerNilGdata(t *testing.T) {
	sm, err := NewSettingsManager(nil)
	if err != nil {
		t.Fatalf("NewSettingsManager(nil) error: %v", err)
	}
	if sm.IsPersistent() {
		t.Error("Expected degraded mode to be non-persistent")
	}
	if err := sm.Save(); err != nil {
		t.Errorf("Save() in degraded mode should return nil, got: %v", err)
	}

	sm.SetPlaybackSpeed(2)
	if err := sm.Load(); err != nil {
		t.Errorf("Load() in degraded mode should return nil, got: %v", err)
	}
	if sm.GetSettings().PlaybackSpeed != 1.0 {
		t.Errorf("After Load() in degraded mode, PlaybackSpeed: got %v, want 1.0", sm.GetSettings().PlaybackSpeed)
	}
}

// TestSettingsLoadSave 测试 Load() 和 Save() 功能
func TestSettingsLoadSave(t *testing.T) {
	gdataManager := openTestGdata(t, "test_camseq_settings")

	sm1, err := NewSettingsManager(gdataManager)
	if err != nil {
		t.Fatalf("NewSettingsManager() error: %v", err)
	}
	sm1.SetLastSelection("boss_intro", 12)
	sm1.SetPlaybackSpeed(0.5)
	sm1.SetShowPath(false)
	sm1.SetShowRegions(false)
	sm1.SetFullscreen(true)

	if err := sm1.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	sm2, err := NewSettingsManager(gdataManager)
	if err != nil {
		t.Fatalf("NewSettingsManager() error on reload: %v", err)
	}
	settings := sm2.GetSettings()

	if settings.LastTrigger != "boss_intro" || settings.LastSequence != 12 {
		t.Errorf("Loaded selection: got %q/%d, want boss_intro/12", settings.LastTrigger, settings.LastSequence)
	}
	if settings.PlaybackSpeed != 0.5 {
		t.Errorf("Loaded PlaybackSpeed: got %v, want 0.5", settings.PlaybackSpeed)
	}
	if settings.ShowPath || settings.ShowRegions {
		t.Error("Loaded overlays: got enabled, want disabled")
	}
	if !settings.Fullscreen {
		t.Error("Loaded Fullscreen: got false, want true")
	}
}

// TestSettingsLoadPartial 旧版本存档缺少字段时使用默认值
func TestSettingsLoadPartial(t *testing.T) {
	gdataManager := openTestGdata(t, "test_camseq_settings_partial")
	if err := gdataManager.SaveObjectProp(settingsObject, settingsProperty, []byte("lastSequence: 3\n")); err != nil {
		t.Fatalf("SaveObjectProp failed: %v", err)
	}

	sm, _ := NewSettingsManager(gdataManager)
	settings := sm.GetSettings()
	if settings.LastSequence != 3 {
		t.Errorf("LastSequence: got %d, want 3", settings.LastSequence)
	}
	if settings.PlaybackSpeed != 1.0 || !settings.ShowPath {
		t.Errorf("Expected defaults for missing fields, got %+v", settings)
	}
}

// TestSettingsLoadCorrupt 存档损坏时回退到默认设置
func TestSettingsLoadCorrupt(t *testing.T) {
	gdataManager := openTestGdata(t, "test_camseq_settings_corrupt")
	if err := gdataManager.SaveObjectProp(settingsObject, settingsProperty, []byte("playbackSpeed: [not, a, number]\n")); err != nil {
		t.Fatalf("SaveObjectProp failed: %v", err)
	}

	sm, err := NewSettingsManager(gdataManager)
	if err != nil {
		t.Fatalf("NewSettingsManager() should not fail on corrupt data: %v", err)
	}
	if err := sm.Load(); err == nil {
		t.Error("Expected Load() to report corrupt data")
	}
	if sm.GetSettings().PlaybackSpeed != 1.0 {
		t.Errorf("Expected default speed after corrupt load, got %v", sm.GetSettings().PlaybackSpeed)
	}
}

// TestSetPlaybackSpeedClamp 测试 SetPlaybackSpeed 范围校验
func TestSetPlaybackSpeedClamp(t *testing.T) {
	sm, _ := NewSettingsManager(nil)

	tests := []struct {
		input    float64
		expected float64
	}{
		{1.5, 1.5},   // 正常值
		{0.25, 0.25}, // 下限
		{4.0, 4.0},   // 上限
		{0.1, 0.25},  // 低于下限
		{10, 4.0},    // 高于上限
		{0, 1.0},     // 0 视为默认
		{-3, 0.25},   // 负数
	}

	for _, tt := range tests {
		sm.SetPlaybackSpeed(tt.input)
		if sm.GetSettings().PlaybackSpeed != tt.expected {
			t.Errorf("SetPlaybackSpeed(%v): got %v, want %v", tt.input, sm.GetSettings().PlaybackSpeed, tt.expected)
		}
	}
}

// TestGetSettings 测试 GetSettings() 返回同一实例
func TestGetSettings(t *testing.T) {
	sm, _ := NewSettingsManager(nil)

	settings1 := sm.GetSettings()
	settings2 := sm.GetSettings()
	if settings1 != settings2 {
		t.Error("GetSettings() should return the same instance")
	}
}
