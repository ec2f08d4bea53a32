package config

import (
	"fmt"
	"os"

	"github.com/decker502/camseq/pkg/embedded"
	"gopkg.in/yaml.v3"
)

// PreviewSceneConfig 预览场景配置
// 定义区域、可被关键帧引用的实体、过场触发器和玩家起点
type PreviewSceneConfig struct {
	Name    string            `yaml:"name"`    // 场景名称
	Player  PlayerConfig      `yaml:"player"`  // 玩家起点和移动速度
	Camera  SceneCameraConfig `yaml:"camera"`  // 游戏镜头初始状态
	Room    string            `yaml:"room"`    // 初始房间（区域名），用于缓存淘汰
	Preload []int             `yaml:"preload"` // 启动时预加载的序列 ID

	Regions  []RegionConfig  `yaml:"regions"`
	Entities []EntityConfig  `yaml:"entities"`
	Triggers []TriggerConfig `yaml:"triggers"`
}

// PlayerConfig 玩家配置
type PlayerConfig struct {
	Position [3]float64 `yaml:"position,flow"`
	Speed    float64    `yaml:"speed"` // 单位/秒，默认 20
}

// SceneCameraConfig 游戏镜头配置
type SceneCameraConfig struct {
	Position     [3]float64 `yaml:"position,flow"`
	Target       [3]float64 `yaml:"target,flow"`
	Fov          float64    `yaml:"fov"`               // 完整视角（度），默认 60
	FollowOffset [3]float64 `yaml:"followOffset,flow"` // 相对玩家的跟随偏移
}

// RegionConfig 一个区域（房间）的包围盒
type RegionConfig struct {
	Name string     `yaml:"name"`
	Tag  int32      `yaml:"tag"`
	Min  [3]float64 `yaml:"min,flow"`
	Max  [3]float64 `yaml:"max,flow"`
}

// RefConfig 制作数据中的实体引用 (kind, id)
type RefConfig struct {
	Kind uint16 `yaml:"kind"`
	ID   uint16 `yaml:"id"`
}

// OrbitConfig 实体绕圈运动参数
type OrbitConfig struct {
	Center       [3]float64 `yaml:"center,flow"`
	Radius       float64    `yaml:"radius"`
	AngularSpeed float64    `yaml:"angularSpeed"` // 弧度/秒
	Angle        float64    `yaml:"angle"`        // 初始角度（弧度）
}

// EntityConfig 可被关键帧引用的场景实体
type EntityConfig struct {
	Name     string       `yaml:"name"`
	Ref      RefConfig    `yaml:"ref"`
	Position [3]float64   `yaml:"position,flow"`
	Forward  [3]float64   `yaml:"forward,flow"` // 默认 +Z
	Orbit    *OrbitConfig `yaml:"orbit"`        // 可选：绕圈运动
}

// TriggerConfig 过场触发器
type TriggerConfig struct {
	Name             string     `yaml:"name"`
	Sequence         int        `yaml:"sequence"`
	Position         [3]float64 `yaml:"position,flow"`
	Radius           float64    `yaml:"radius"` // 0 表示只能手动激活
	DelayFrames      int        `yaml:"delayFrames"`
	BlockInput       bool       `yaml:"blockInput"`
	Handoff          bool       `yaml:"handoff"`
	Loop             bool       `yaml:"loop"`
	Form             string     `yaml:"form"` // "any"、"alt"、"biped"
	EndMessage       uint32     `yaml:"endMessage"`
	EndMessageParam  int32      `yaml:"endMessageParam"`
	EndMessageTarget RefConfig  `yaml:"endMessageTarget"`
}

// LoadPreviewSceneConfig 从嵌入资源或磁盘加载预览场景
func LoadPreviewSceneConfig(path string) (*PreviewSceneConfig, error) {
	var data []byte
	var err error
	if embedded.IsInitialized() && embedded.Exists(path) {
		data, err = embedded.ReadFile(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preview scene %s: %w", path, err)
	}

	cfg, err := ParsePreviewSceneConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid preview scene in %s: %w", path, err)
	}
	return cfg, nil
}

// ParsePreviewSceneConfig 解析 YAML 场景配置，填充默认值并校验
func ParsePreviewSceneConfig(data []byte) (*PreviewSceneConfig, error) {
	var cfg PreviewSceneConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applySceneDefaults(&cfg)

	if err := validateSceneConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applySceneDefaults 为缺失的可选字段设置默认值
func applySceneDefaults(cfg *PreviewSceneConfig) {
	if cfg.Name == "" {
		cfg.Name = "untitled"
	}
	if cfg.Player.Speed == 0 {
		cfg.Player.Speed = 20
	}
	if cfg.Camera.Fov == 0 {
		cfg.Camera.Fov = 60
	}
	if cfg.Camera.FollowOffset == ([3]float64{}) {
		cfg.Camera.FollowOffset = [3]float64{0, 20, -40}
	}
	for i := range cfg.Entities {
		if cfg.Entities[i].Forward == ([3]float64{}) {
			cfg.Entities[i].Forward = [3]float64{0, 0, 1}
		}
	}
	for i := range cfg.Triggers {
		if cfg.Triggers[i].Form == "" {
			cfg.Triggers[i].Form = "any"
		}
	}
}

// validateSceneConfig 校验场景配置的完整性和合法性
func validateSceneConfig(cfg *PreviewSceneConfig) error {
	regionNames := make(map[string]bool, len(cfg.Regions))
	regionTags := make(map[int32]bool, len(cfg.Regions))
	for i, r := range cfg.Regions {
		if r.Name == "" {
			return fmt.Errorf("region %d: name is required", i)
		}
		if r.Tag <= 0 {
			return fmt.Errorf("region %q: tag must be positive, got %d", r.Name, r.Tag)
		}
		if regionNames[r.Name] || regionTags[r.Tag] {
			return fmt.Errorf("region %q: duplicate name or tag %d", r.Name, r.Tag)
		}
		for axis := 0; axis < 3; axis++ {
			if r.Min[axis] > r.Max[axis] {
				return fmt.Errorf("region %q: min exceeds max on axis %d", r.Name, axis)
			}
		}
		regionNames[r.Name] = true
		regionTags[r.Tag] = true
	}
	if cfg.Room != "" && !regionNames[cfg.Room] {
		return fmt.Errorf("initial room %q is not a region", cfg.Room)
	}

	refs := make(map[RefConfig]string, len(cfg.Entities))
	for i, e := range cfg.Entities {
		if e.Ref.Kind == 0 {
			return fmt.Errorf("entity %d (%s): ref kind must be non-zero", i, e.Name)
		}
		if prev, dup := refs[e.Ref]; dup {
			return fmt.Errorf("entity %q: ref %d:%d already used by %q", e.Name, e.Ref.Kind, e.Ref.ID, prev)
		}
		refs[e.Ref] = e.Name
		if e.Orbit != nil && e.Orbit.Radius < 0 {
			return fmt.Errorf("entity %q: orbit radius must not be negative", e.Name)
		}
	}

	names := make(map[string]bool, len(cfg.Triggers))
	for i, t := range cfg.Triggers {
		if t.Name == "" {
			return fmt.Errorf("trigger %d: name is required", i)
		}
		if names[t.Name] {
			return fmt.Errorf("trigger %q: duplicate name", t.Name)
		}
		names[t.Name] = true
		if t.Radius < 0 || t.DelayFrames < 0 {
			return fmt.Errorf("trigger %q: radius and delayFrames must not be negative", t.Name)
		}
	}
	return nil
}
