package sequence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/decker502/camseq/internal/camfile"
	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/vecmath"
)

// countingSource 记录每个 ID 的加载次数
type countingSource struct {
	mu    sync.Mutex
	loads map[int]int
	total atomic.Int32
	fail  map[int]bool
}

func newCountingSource() *countingSource {
	return &countingSource{loads: make(map[int]int), fail: make(map[int]bool)}
}

func (s *countingSource) Load(id int) (*camfile.File, error) {
	s.total.Add(1)
	s.mu.Lock()
	s.loads[id]++
	fail := s.fail[id]
	s.mu.Unlock()
	if fail {
		return nil, errors.New("broken file")
	}
	return &camfile.File{
		Version: 1,
		Keyframes: []camfile.Record{
			{Position: [3]float64{float64(id), 0, 0}, Fov: 30, HoldTime: 30, MoveTime: 60},
			{Position: [3]float64{float64(id), 0, 10}, Fov: 30, HoldTime: 15},
		},
	}, nil
}

func (s *countingSource) count(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads[id]
}

// TestFromFile 测试制作帧到秒的换算和默认值
func TestFromFile(t *testing.T) {
	f := &camfile.File{
		Version: 7,
		Keyframes: []camfile.Record{
			{
				Position:       [3]float64{1, 2, 3},
				ToTarget:       [3]float64{0, 0, 5},
				Fov:            30,
				HoldTime:       15,
				MoveTime:       60,
				FadeInTime:     30,
				FadeInType:     1,
				PositionEntity: camfile.EntityRef{Type: 2, ID: 4},
				NodeName:       "rmA",
				MessageID:      9,
			},
			{Easing: 0.5},
		},
	}
	tb := config.NewTimebase(60, 30)

	def := FromFile(12, f, tb, true)

	if def.ID != 12 || def.Version != 7 || !def.Loop {
		t.Errorf("Expected id=12 version=7 loop=true, got id=%d version=%d loop=%v", def.ID, def.Version, def.Loop)
	}
	if def.Len() != 2 {
		t.Fatalf("Expected 2 keyframes, got %d", def.Len())
	}

	k := def.Keyframe(0)
	if k.HoldTime != 0.5 || k.MoveTime != 2 || k.FadeInTime != 1 {
		t.Errorf("Expected hold=0.5 move=2 fadeIn=1, got hold=%v move=%v fadeIn=%v", k.HoldTime, k.MoveTime, k.FadeInTime)
	}
	if k.Position != (vecmath.Vec3{1, 2, 3}) {
		t.Errorf("Expected position (1,2,3), got %v", k.Position)
	}
	if k.Easing != 1 {
		t.Errorf("Expected zero easing to default to 1, got %v", k.Easing)
	}
	if k.FadeInType != FadeBlack {
		t.Errorf("Expected FadeBlack, got %v", k.FadeInType)
	}
	if k.PositionEntity != (EntityRef{Kind: 2, ID: 4}) || !k.TargetEntity.IsZero() {
		t.Errorf("Unexpected entity refs: pos=%v target=%v", k.PositionEntity, k.TargetEntity)
	}
	if def.Keyframe(1).Easing != 0.5 {
		t.Errorf("Expected easing 0.5, got %v", def.Keyframe(1).Easing)
	}
	if def.Duration() != 2.5 {
		t.Errorf("Expected duration 2.5, got %v", def.Duration())
	}
}

// TestNewDefinition_Copies 测试定义不受外部切片修改影响
func TestNewDefinition_Copies(t *testing.T) {
	kfs := []Keyframe{{Fov: 30}, {Fov: 40}}
	def := NewDefinition(1, 0, false, kfs)
	kfs[0].Fov = 99

	if def.Keyframe(0).Fov != 30 {
		t.Errorf("Expected definition to keep fov 30, got %v", def.Keyframe(0).Fov)
	}
}

// TestCatalog_CachesDefinitions 测试同一 ID 只加载一次
func TestCatalog_CachesDefinitions(t *testing.T) {
	src := newCountingSource()
	cat := NewCatalog(src, config.DefaultCamSeqConfig())

	a, err := cat.Get(5)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	b, err := cat.Get(5)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if a != b {
		t.Error("Expected the same cached definition")
	}
	if src.count(5) != 1 {
		t.Errorf("Expected 1 load, got %d", src.count(5))
	}
}

// TestCatalog_LoopFromConfig 测试循环标记来自配置
func TestCatalog_LoopFromConfig(t *testing.T) {
	cfg := config.DefaultCamSeqConfig()
	cfg.Loop.IDMin = 100
	cfg.Loop.IDMax = 110
	cfg.Loop.CockpitIDs = []int{7}
	cat := NewCatalog(newCountingSource(), cfg)

	tests := []struct {
		id   int
		loop bool
	}{
		{5, false},
		{7, true},
		{100, true},
		{111, false},
	}
	for _, tt := range tests {
		def, err := cat.Get(tt.id)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", tt.id, err)
		}
		if def.Loop != tt.loop {
			t.Errorf("Sequence %d: expected loop=%v, got %v", tt.id, tt.loop, def.Loop)
		}
	}
}

// TestCatalog_PreloadDeduplicates 测试并发预加载时重复 ID 只加载一次
func TestCatalog_PreloadDeduplicates(t *testing.T) {
	src := newCountingSource()
	cat := NewCatalog(src, config.DefaultCamSeqConfig())

	ids := []int{1, 2, 3, 1, 2, 3, 1, 2, 3, 4}
	if err := cat.Preload(context.Background(), ids); err != nil {
		t.Fatalf("Preload failed: %v", err)
	}

	for _, id := range []int{1, 2, 3, 4} {
		if src.count(id) != 1 {
			t.Errorf("Sequence %d: expected 1 load, got %d", id, src.count(id))
		}
		if !cat.Cached(id) {
			t.Errorf("Sequence %d not cached", id)
		}
	}
	if cat.Len() != 4 {
		t.Errorf("Expected 4 cached sequences, got %d", cat.Len())
	}
}

// TestCatalog_PreloadError 测试预加载失败返回错误且不缓存
func TestCatalog_PreloadError(t *testing.T) {
	src := newCountingSource()
	src.fail[3] = true
	cat := NewCatalog(src, config.DefaultCamSeqConfig())

	if err := cat.Preload(context.Background(), []int{1, 2, 3}); err == nil {
		t.Error("Expected preload error")
	}
	if cat.Cached(3) {
		t.Error("Failed sequence should not be cached")
	}
}

// TestCatalog_EvictionPolicy 测试 room/process 两种淘汰策略
func TestCatalog_EvictionPolicy(t *testing.T) {
	tests := []struct {
		policy     string
		wantCached bool
		wantLoads  int
	}{
		{config.CachePolicyRoom, false, 2},
		{config.CachePolicyProcess, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			cfg := config.DefaultCamSeqConfig()
			cfg.CachePolicy = tt.policy
			src := newCountingSource()
			cat := NewCatalog(src, cfg)

			first, _ := cat.Get(8)
			cat.OnRoomChanged()

			if cat.Cached(8) != tt.wantCached {
				t.Errorf("Expected cached=%v after room change, got %v", tt.wantCached, cat.Cached(8))
			}
			if _, err := cat.Get(8); err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if src.count(8) != tt.wantLoads {
				t.Errorf("Expected %d loads, got %d", tt.wantLoads, src.count(8))
			}
			// 已取出的定义仍然可用
			if first.Len() != 2 {
				t.Errorf("Expected evicted definition to stay intact, got %d keyframes", first.Len())
			}
		})
	}
}

// TestFSSource 测试从文件系统按表读取二进制和 YAML 序列
func TestFSSource(t *testing.T) {
	bin, err := camfile.Encode(&camfile.File{
		Version:   2,
		Keyframes: []camfile.Record{{Fov: 30, HoldTime: 30}},
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	fsys := fstest.MapFS{
		"door.bin":        {Data: bin},
		"intro/boss.yaml": {Data: []byte("version: 3\nkeyframes:\n  - fov: 25\n    holdTime: 60\n  - fov: 30\n")},
		"broken.bin":      {Data: []byte{1, 2, 3}},
	}
	src := NewFSSource(fsys, map[int]string{
		1: "door.bin",
		2: "intro/boss.yaml",
		3: "broken.bin",
		4: "missing.bin",
	})

	f, err := src.Load(1)
	if err != nil {
		t.Fatalf("Load(1) failed: %v", err)
	}
	if f.Version != 2 || len(f.Keyframes) != 1 {
		t.Errorf("Unexpected binary file: %+v", f)
	}

	f, err = src.Load(2)
	if err != nil {
		t.Fatalf("Load(2) failed: %v", err)
	}
	if f.Version != 3 || len(f.Keyframes) != 2 {
		t.Errorf("Unexpected YAML file: %+v", f)
	}

	if _, err := src.Load(3); !errors.Is(err, camfile.ErrBadHeader) {
		t.Errorf("Expected ErrBadHeader, got %v", err)
	}
	if _, err := src.Load(4); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := src.Load(99); !errors.Is(err, ErrUnknownSequence) {
		t.Errorf("Expected ErrUnknownSequence, got %v", err)
	}

	if name, ok := src.FileName(2); !ok || name != "intro/boss.yaml" {
		t.Errorf("Expected intro/boss.yaml, got %q", name)
	}
}

// TestNewConfiguredSource_Disk 未初始化嵌入资源时从磁盘读取序列目录
func TestNewConfiguredSource_Disk(t *testing.T) {
	dir := t.TempDir()
	src := "keyframes:\n  - {position: [1, 2, 3], toTarget: [0, 0, 1], fov: 30, holdTime: 15}\n"
	if err := os.WriteFile(filepath.Join(dir, "door.yaml"), []byte(src), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg := config.DefaultCamSeqConfig()
	cfg.SequenceDir = dir
	cfg.Sequences = map[int]string{4: "door.yaml"}

	source, err := NewConfiguredSource(cfg)
	if err != nil {
		t.Fatalf("NewConfiguredSource failed: %v", err)
	}
	def, err := NewCatalog(source, cfg).Get(4)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if def.Len() != 1 || def.Keyframe(0).HoldTime != 0.5 {
		t.Errorf("Expected one keyframe holding 0.5s, got %d keyframes", def.Len())
	}

	cfg.SequenceDir = filepath.Join(dir, "missing")
	if _, err := NewConfiguredSource(cfg); err == nil {
		t.Error("Expected error for missing sequence dir")
	}
}
