package scenes

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/decker502/camseq/pkg/components"
	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/entities"
	"github.com/decker502/camseq/pkg/game"
	"github.com/decker502/camseq/pkg/sequence"
	"github.com/decker502/camseq/pkg/systems"
	"github.com/decker502/camseq/pkg/utils"
	"github.com/decker502/camseq/pkg/vecmath"
)

const (
	// pathSampleTicks 路径叠加层最多采样的 tick 数
	pathSampleTicks = 60 * 60

	// tapRadius 点选触发器的最小命中半径（像素）
	tapRadius = 14.0
)

// PreviewScene 过场镜头预览场景。
// 按场景配置放置区域、实体和触发器，玩家可以走进触发范围或用按键手动激活过场，
// 俯视图显示镜头位置、朝向、视角和序列路径。
type PreviewScene struct {
	entityManager *ecs.EntityManager
	gameState     *game.GameState
	settings      *game.SettingsManager
	camCfg        *config.CamSeqConfig
	sceneCfg      *config.PreviewSceneConfig
	timebase      config.Timebase

	catalog       *sequence.Catalog
	arbiter       *systems.Arbiter
	entityTable   *systems.EntityTable
	cameraSystem  *systems.CameraSystem
	motionSystem  *systems.MotionSystem
	triggerSystem *systems.CutsceneTriggerSystem

	player      ecs.EntityID
	playerSpeed float64
	playerPrev  vecmath.Vec3
	room        components.NodeTag

	triggerNames []string
	selected     int
	paused       bool
	tickBudget   float64
	ticks        int

	// 序列 ID -> 采样路径（缓存，房间切换时清空）
	paths map[int][]systems.PathSample

	view viewTransform
	drag *utils.DragManager
}

// NewPreviewScene 创建预览场景并构建所有实体和触发器
func NewPreviewScene(sceneCfg *config.PreviewSceneConfig, camCfg *config.CamSeqConfig, catalog *sequence.Catalog, gs *game.GameState) (*PreviewScene, error) {
	if camCfg == nil {
		camCfg = config.DefaultCamSeqConfig()
	}
	if gs == nil {
		gs = game.NewGameState(nil)
	}

	s := &PreviewScene{
		entityManager: ecs.NewEntityManager(),
		gameState:     gs,
		settings:      gs.GetSettingsManager(),
		camCfg:        camCfg,
		sceneCfg:      sceneCfg,
		timebase:      camCfg.TimebaseHelper(),
		catalog:       catalog,
		arbiter:       systems.NewArbiter(),
		playerSpeed:   sceneCfg.Player.Speed,
		paths:         make(map[int][]systems.PathSample),
		drag:          utils.NewDragManager(0),
	}

	s.spawnRegions()
	s.spawnEntities()
	s.player = entities.NewPlayerEntity(s.entityManager, sceneCfg.Player)
	s.spawnTriggers()

	s.entityTable = systems.NewEntityTable(s.entityManager)
	s.motionSystem = systems.NewMotionSystem(s.entityManager, s.entityTable)

	initial := components.NewCameraState(vecmath.Vec3(sceneCfg.Camera.Position), vecmath.Vec3(sceneCfg.Camera.Target), sceneCfg.Camera.Fov)
	s.cameraSystem = systems.NewCameraSystem(s.entityManager, s.arbiter, initial)
	s.cameraSystem.Follow(s.player, vecmath.Vec3(sceneCfg.Camera.FollowOffset))

	hooks := systems.Hooks{
		Messages: gs,
		Fades:    gs,
		Entities: s.entityTable,
		Nodes:    s.entityTable,
		Player:   gs,
		HUD:      gs,
		Camera:   s.cameraSystem,
	}

	if len(sceneCfg.Preload) > 0 {
		if err := catalog.Preload(context.Background(), sceneCfg.Preload); err != nil {
			return nil, fmt.Errorf("failed to preload sequences: %w", err)
		}
	}

	s.triggerSystem = systems.NewCutsceneTriggerSystem(s.entityManager, catalog, s.arbiter, hooks, camCfg)
	if err := s.triggerSystem.Build(); err != nil {
		return nil, fmt.Errorf("failed to build triggers: %w", err)
	}
	s.triggerSystem.SetPlayer(s.player)

	if sceneCfg.Room != "" {
		s.room, _ = s.entityTable.ResolveNode(sceneCfg.Room)
	} else {
		s.room = s.entityTable.NodeAt(vecmath.Vec3(sceneCfg.Player.Position))
	}
	if tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, s.player); ok {
		tr.Node = s.room
		s.playerPrev = tr.Position
	}
	s.cameraSystem.RefreshCamera()

	// 恢复上次选中的触发器
	if last := s.settings.GetSettings().LastTrigger; last != "" {
		for i, name := range s.triggerNames {
			if name == last {
				s.selected = i
			}
		}
	}

	s.view = newViewTransform(sceneCfg)
	log.Printf("[PreviewScene] Scene %q ready: %d regions, %d entities, %d triggers",
		sceneCfg.Name, len(sceneCfg.Regions), len(sceneCfg.Entities), len(sceneCfg.Triggers))
	return s, nil
}

func (s *PreviewScene) spawnRegions() {
	for _, r := range s.sceneCfg.Regions {
		entities.NewNodeRegionEntity(s.entityManager, r)
	}
}

func (s *PreviewScene) spawnEntities() {
	for _, e := range s.sceneCfg.Entities {
		entities.NewRefEntity(s.entityManager, e)
	}
}

func (s *PreviewScene) spawnTriggers() {
	for _, t := range s.sceneCfg.Triggers {
		entities.NewCutsceneTriggerEntity(s.entityManager, t)
		s.triggerNames = append(s.triggerNames, t.Name)
	}
}

// Update 读取输入并按播放速度推进若干个逻辑 tick
func (s *PreviewScene) Update(deltaTime float64) {
	s.applyInput(s.readInput(), deltaTime)
	if s.paused {
		return
	}

	s.tickBudget += s.settings.GetSettings().PlaybackSpeed
	for s.tickBudget >= 1 {
		s.tickBudget--
		s.Step()
	}
}

// Step 推进一个逻辑 tick
func (s *PreviewScene) Step() {
	dt := s.timebase.TickSeconds()
	s.motionSystem.Update(dt)
	s.triggerSystem.Update()
	s.cameraSystem.Update(dt)
	s.trackRoom()
	s.gameState.Advance()
	s.ticks++
}

// trackRoom 玩家进入新区域时取消过场并按缓存策略淘汰序列
func (s *PreviewScene) trackRoom() {
	tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, s.player)
	if !ok {
		return
	}
	tr.Node = s.entityTable.UpdateNode(tr.Node, s.playerPrev, tr.Position)
	s.playerPrev = tr.Position
	if tr.Node == s.room || tr.Node == components.NoNode {
		return
	}
	log.Printf("[PreviewScene] Player moved from node %d to %d", s.room, tr.Node)
	s.room = tr.Node
	s.triggerSystem.CancelAll()
	s.catalog.OnRoomChanged()
	s.paths = make(map[int][]systems.PathSample)
}

// movePlayer 在没有过场屏蔽输入时移动玩家
func (s *PreviewScene) movePlayer(dir vecmath.Vec3, dt float64) {
	if dir == vecmath.Zero || s.triggerSystem.BlockInput() {
		return
	}
	tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, s.player)
	if !ok {
		return
	}
	step := dir.Normalize().Scale(s.playerSpeed * dt)
	tr.Position = tr.Position.Add(step)
	tr.Forward = dir.Normalize()
}

// SelectedController 当前选中的触发器控制器
func (s *PreviewScene) SelectedController() (*systems.ActivationController, string, bool) {
	if len(s.triggerNames) == 0 {
		return nil, "", false
	}
	name := s.triggerNames[s.selected]
	c, ok := s.triggerSystem.ControllerByName(name)
	return c, name, ok
}

func (s *PreviewScene) selectNext(delta int) {
	n := len(s.triggerNames)
	if n == 0 {
		return
	}
	s.selected = ((s.selected+delta)%n + n) % n
	if c, name, ok := s.SelectedController(); ok {
		s.settings.SetLastSelection(name, c.Engine().SequenceID())
	}
}

// triggerAt 返回屏幕坐标附近最近的触发器下标
func (s *PreviewScene) triggerAt(x, y float64) (int, bool) {
	best, bestDist := -1, math.Inf(1)
	for i, t := range s.sceneCfg.Triggers {
		tx, ty := s.view.toScreen(vecmath.Vec3(t.Position))
		d := math.Hypot(float64(tx)-x, float64(ty)-y)
		if d > math.Max(tapRadius, t.Radius*s.view.scale) {
			continue
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}

// tapAt 点选触发器：第一次点击选中，再次点击已选中的触发器则激活
func (s *PreviewScene) tapAt(x, y float64) {
	i, ok := s.triggerAt(x, y)
	if !ok {
		return
	}
	if i == s.selected {
		s.activateSelected()
		return
	}
	s.selectNext(i - s.selected)
}

// PathFor 返回序列的采样路径，按需计算并缓存
func (s *PreviewScene) PathFor(def *sequence.Definition) []systems.PathSample {
	if p, ok := s.paths[def.ID]; ok {
		return p
	}
	hooks := systems.Hooks{Entities: s.entityTable, Nodes: s.entityTable}
	samples, err := systems.SamplePath(def, hooks, s.timebase, *s.cameraSystem.LiveCamera(), pathSampleTicks)
	if err != nil {
		log.Printf("[PreviewScene] Warning: failed to sample sequence %d: %v", def.ID, err)
	}
	s.paths[def.ID] = samples
	return samples
}

// SaveOnExit 实现 game.Saveable：退出时保存预览设置
func (s *PreviewScene) SaveOnExit() bool {
	if err := s.settings.Save(); err != nil {
		log.Printf("[PreviewScene] Warning: failed to save settings: %v", err)
		return false
	}
	return true
}

// Camera 当前镜头状态
func (s *PreviewScene) Camera() components.CameraState {
	return *s.cameraSystem.LiveCamera()
}

// Triggers 触发器系统
func (s *PreviewScene) Triggers() *systems.CutsceneTriggerSystem {
	return s.triggerSystem
}

// Player 玩家实体
func (s *PreviewScene) Player() ecs.EntityID {
	return s.player
}

// Room 玩家当前所在区域
func (s *PreviewScene) Room() components.NodeTag {
	return s.room
}

// Ticks 已推进的逻辑 tick 数
func (s *PreviewScene) Ticks() int {
	return s.ticks
}

// IsPaused 是否暂停
func (s *PreviewScene) IsPaused() bool {
	return s.paused
}
