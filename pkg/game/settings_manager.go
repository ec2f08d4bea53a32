package game

import (
	"fmt"
	"log"

	"github.com/decker502/camseq/pkg/utils"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// 播放速度范围
const (
	MinPlaybackSpeed = 0.25
	MaxPlaybackSpeed = 4.0
)

// PreviewSettings 预览工具的全局设置
type PreviewSettings struct {
	// 上次选中的触发器和序列，启动时恢复
	LastTrigger  string `yaml:"lastTrigger"`
	LastSequence int    `yaml:"lastSequence"`

	// PlaybackSpeed 每帧推进的 tick 倍率（0.25 ~ 4）
	PlaybackSpeed float64 `yaml:"playbackSpeed"`

	// 叠加显示
	ShowPath    bool `yaml:"showPath"`    // 显示当前序列的镜头路径
	ShowRegions bool `yaml:"showRegions"` // 显示区域包围盒

	// 显示设置
	Fullscreen bool `yaml:"fullscreen"` // 启动时是否全屏
}

// DefaultSettings 返回默认设置
func DefaultSettings() *PreviewSettings {
	return &PreviewSettings{
		PlaybackSpeed: 1.0,
		ShowPath:      true,
		ShowRegions:   true,
		Fullscreen:    false,
	}
}

// SettingsManager 设置管理器
// 负责预览设置的加载、保存和内存管理
type SettingsManager struct {
	gdataManager *gdata.Manager   // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings     *PreviewSettings // 当前设置
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "preview"
)

// NewSettingsManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
//
// 返回：
//   - *SettingsManager: 设置管理器实例
//   - error: 保留给调用方统一处理，加载失败不会返回错误
func NewSettingsManager(gdataManager *gdata.Manager) (*SettingsManager, error) {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
	}

	if err := sm.Load(); err != nil {
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}

	return sm, nil
}

// OpenSettingsManager 打开 appName 对应的 gdata 存储并创建设置管理器。
// gdata 不可用时降级为仅内存设置。
func OpenSettingsManager(appName string) *SettingsManager {
	if err := utils.EnsureStorageDir(); err != nil {
		log.Printf("[SettingsManager] Warning: storage directory unavailable: %v", err)
	}
	gdataManager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[SettingsManager] Warning: gdata unavailable: %v (settings will not persist)", err)
		gdataManager = nil
	}
	sm, _ := NewSettingsManager(gdataManager)
	return sm
}

// Load 从 gdata 加载设置
//
// 如果 gdataManager 为 nil 或文件不存在，使用默认设置
func (sm *SettingsManager) Load() error {
	if sm.gdataManager == nil {
		sm.settings = DefaultSettings()
		return nil
	}

	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// 缺失字段保留默认值
	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	loaded.PlaybackSpeed = clampSpeed(loaded.PlaybackSpeed)

	sm.settings = loaded
	log.Printf("[SettingsManager] Settings loaded successfully")
	return nil
}

// Save 保存设置到 gdata
//
// 如果 gdataManager 为 nil，返回 nil（降级模式，不报错）
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsManager] Settings saved successfully")
	return nil
}

// GetSettings 获取当前设置
func (sm *SettingsManager) GetSettings() *PreviewSettings {
	return sm.settings
}

// IsPersistent 设置是否能持久化
func (sm *SettingsManager) IsPersistent() bool {
	return sm.gdataManager != nil
}

// SetLastSelection 记录上次选中的触发器
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetLastSelection(trigger string, sequenceID int) {
	sm.settings.LastTrigger = trigger
	sm.settings.LastSequence = sequenceID
}

// SetPlaybackSpeed 设置播放速度
//
// 速度会被限制在 MinPlaybackSpeed ~ MaxPlaybackSpeed 范围内
func (sm *SettingsManager) SetPlaybackSpeed(speed float64) {
	sm.settings.PlaybackSpeed = clampSpeed(speed)
}

// SetShowPath 设置是否显示镜头路径
func (sm *SettingsManager) SetShowPath(show bool) {
	sm.settings.ShowPath = show
}

// SetShowRegions 设置是否显示区域
func (sm *SettingsManager) SetShowRegions(show bool) {
	sm.settings.ShowRegions = show
}

// SetFullscreen 设置全屏模式
func (sm *SettingsManager) SetFullscreen(enabled bool) {
	sm.settings.Fullscreen = enabled
}

// clampSpeed 将速度限制在合法范围内，0 视为默认速度
func clampSpeed(speed float64) float64 {
	if speed == 0 {
		return 1.0
	}
	if speed < MinPlaybackSpeed {
		return MinPlaybackSpeed
	}
	if speed > MaxPlaybackSpeed {
		return MaxPlaybackSpeed
	}
	return speed
}
