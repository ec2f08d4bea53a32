package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/decker502/camseq/pkg/embedded"
	"gopkg.in/yaml.v3"
)

// 序列缓存策略
const (
	// CachePolicyProcess 进程生命周期内永不淘汰（旧行为，跨房间可能读到过期数据）
	CachePolicyProcess = "process"
	// CachePolicyRoom 房间切换时清空缓存
	CachePolicyRoom = "room"
)

// CamSeqConfig 镜头序列引擎配置
type CamSeqConfig struct {
	Timebase    TimebaseConfig `yaml:"timebase"`
	Handoff     HandoffConfig  `yaml:"handoff"`
	Loop        LoopConfig     `yaml:"loop"`
	CachePolicy string         `yaml:"cachePolicy"` // "process" 或 "room"，默认 "room"
	Debug       DebugConfig    `yaml:"debug"`

	// Sequences 序列 ID -> 文件名（相对 SequenceDir）
	Sequences   map[int]string `yaml:"sequences"`
	SequenceDir string         `yaml:"sequenceDir"` // 默认 "data/sequences"
}

// TimebaseConfig 时间基准配置
type TimebaseConfig struct {
	TPS         int `yaml:"tps"`         // 游戏逻辑 TPS，默认 60
	AuthoredFPS int `yaml:"authoredFps"` // 关键帧数据的制作帧率，默认 30
}

// HandoffConfig 镜头交接配置（单位：制作帧）
type HandoffConfig struct {
	CountdownFrames int `yaml:"countdownFrames"` // SetActive(false) 后的交接倒计时，默认 5
	BlendFrames     int `yaml:"blendFrames"`     // 交接时的过渡混合时长，默认 15
}

// LoopConfig 循环序列判定规则
type LoopConfig struct {
	IDMin      int   `yaml:"idMin"`      // 循环序列 ID 区间下界（含）
	IDMax      int   `yaml:"idMax"`      // 循环序列 ID 区间上界（含），0 表示未启用
	CockpitIDs []int `yaml:"cockpitIds"` // 座舱循环序列 ID 集合
}

// DebugConfig 调试选项
type DebugConfig struct {
	// StrictIntegrity 数据完整性断言失败时直接 panic（非发布构建）
	StrictIntegrity bool `yaml:"strictIntegrity"`
}

// DefaultCamSeqConfig 返回默认配置
func DefaultCamSeqConfig() *CamSeqConfig {
	cfg := &CamSeqConfig{}
	applyCamSeqDefaults(cfg)
	return cfg
}

// LoadCamSeqConfig 从嵌入资源或磁盘加载配置
// 路径以 "data/" 开头且嵌入资源已初始化时优先读取嵌入资源
func LoadCamSeqConfig(path string) (*CamSeqConfig, error) {
	var data []byte
	var err error
	if embedded.IsInitialized() && embedded.Exists(path) {
		data, err = embedded.ReadFile(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read camseq config %s: %w", path, err)
	}

	cfg, err := ParseCamSeqConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid camseq config in %s: %w", path, err)
	}
	return cfg, nil
}

// ParseCamSeqConfig 解析 YAML 配置内容，填充默认值并校验
func ParseCamSeqConfig(data []byte) (*CamSeqConfig, error) {
	var cfg CamSeqConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyCamSeqDefaults(&cfg)

	if err := validateCamSeqConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyCamSeqDefaults 为缺失的可选字段设置默认值
func applyCamSeqDefaults(cfg *CamSeqConfig) {
	if cfg.Timebase.TPS == 0 {
		cfg.Timebase.TPS = 60
	}
	if cfg.Timebase.AuthoredFPS == 0 {
		cfg.Timebase.AuthoredFPS = 30
	}
	if cfg.Handoff.CountdownFrames == 0 {
		cfg.Handoff.CountdownFrames = 5
	}
	if cfg.Handoff.BlendFrames == 0 {
		cfg.Handoff.BlendFrames = 15
	}
	if cfg.CachePolicy == "" {
		cfg.CachePolicy = CachePolicyRoom
	}
	if cfg.SequenceDir == "" {
		cfg.SequenceDir = "data/sequences"
	}
	if cfg.Sequences == nil {
		cfg.Sequences = make(map[int]string)
	}
}

// validateCamSeqConfig 校验配置合法性
func validateCamSeqConfig(cfg *CamSeqConfig) error {
	if cfg.Timebase.TPS < 0 || cfg.Timebase.AuthoredFPS < 0 {
		return fmt.Errorf("timebase must be positive (tps=%d, authoredFps=%d)", cfg.Timebase.TPS, cfg.Timebase.AuthoredFPS)
	}
	if cfg.Timebase.TPS < cfg.Timebase.AuthoredFPS {
		return fmt.Errorf("tps (%d) must not be lower than authoredFps (%d)", cfg.Timebase.TPS, cfg.Timebase.AuthoredFPS)
	}
	if cfg.Handoff.CountdownFrames < 0 || cfg.Handoff.BlendFrames < 0 {
		return fmt.Errorf("handoff frames must not be negative")
	}
	if cfg.CachePolicy != CachePolicyProcess && cfg.CachePolicy != CachePolicyRoom {
		return fmt.Errorf("unknown cachePolicy %q (expected %q or %q)", cfg.CachePolicy, CachePolicyProcess, CachePolicyRoom)
	}
	if cfg.Loop.IDMax != 0 && cfg.Loop.IDMax < cfg.Loop.IDMin {
		return fmt.Errorf("loop id range is inverted (%d > %d)", cfg.Loop.IDMin, cfg.Loop.IDMax)
	}
	for id, file := range cfg.Sequences {
		if file == "" {
			return fmt.Errorf("sequence %d has an empty file name", id)
		}
	}
	return nil
}

// TimebaseHelper 返回时间基准换算器
func (c *CamSeqConfig) TimebaseHelper() Timebase {
	return NewTimebase(c.Timebase.TPS, c.Timebase.AuthoredFPS)
}

// IsLoopSequence 判断序列是否为循环序列（ID 区间或座舱循环集合）
func (c *CamSeqConfig) IsLoopSequence(id int) bool {
	if c.Loop.IDMax != 0 && id >= c.Loop.IDMin && id <= c.Loop.IDMax {
		return true
	}
	for _, cid := range c.Loop.CockpitIDs {
		if cid == id {
			return true
		}
	}
	return false
}

// SequenceIDs 返回已配置的序列 ID（升序）
func (c *CamSeqConfig) SequenceIDs() []int {
	ids := make([]int, 0, len(c.Sequences))
	for id := range c.Sequences {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
