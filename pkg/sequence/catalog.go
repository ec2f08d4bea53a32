package sequence

import (
	"context"
	"log"
	"strconv"
	"sync"

	"github.com/decker502/camseq/pkg/config"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// preloadConcurrency 预加载时的最大并发数
const preloadConcurrency = 4

// Catalog 按序列 ID 懒加载并缓存 Definition。
//
// 缓存淘汰策略由配置 cachePolicy 决定：
//   - process: 进程生命周期内不淘汰
//   - room: OnRoomChanged 时清空，避免跨房间读到过期数据
//
// Get 可以被多个 goroutine 并发调用（Preload），同一 ID 只会加载一次。
type Catalog struct {
	source   Source
	timebase config.Timebase
	policy   string
	isLoop   func(id int) bool

	mu    sync.RWMutex
	cache map[int]*Definition
	group singleflight.Group
}

// NewCatalog 创建序列目录
func NewCatalog(source Source, cfg *config.CamSeqConfig) *Catalog {
	if cfg == nil {
		cfg = config.DefaultCamSeqConfig()
	}
	return &Catalog{
		source:   source,
		timebase: cfg.TimebaseHelper(),
		policy:   cfg.CachePolicy,
		isLoop:   cfg.IsLoopSequence,
		cache:    make(map[int]*Definition),
	}
}

// Get 返回序列定义，首次访问时从 Source 加载
func (c *Catalog) Get(id int) (*Definition, error) {
	c.mu.RLock()
	def, ok := c.cache[id]
	c.mu.RUnlock()
	if ok {
		return def, nil
	}

	v, err, _ := c.group.Do(strconv.Itoa(id), func() (interface{}, error) {
		c.mu.RLock()
		cached, ok := c.cache[id]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		f, err := c.source.Load(id)
		if err != nil {
			return nil, err
		}
		loaded := FromFile(id, f, c.timebase, c.isLoop(id))

		c.mu.Lock()
		c.cache[id] = loaded
		c.mu.Unlock()

		log.Printf("[SequenceCatalog] Loaded sequence %d: %d keyframes, %.2fs, loop=%v",
			id, loaded.Len(), loaded.Duration(), loaded.Loop)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Definition), nil
}

// Preload 并发预加载一组序列，任一失败即返回第一个错误
func (c *Catalog) Preload(ctx context.Context, ids []int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadConcurrency)

	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := c.Get(id)
			return err
		})
	}
	return g.Wait()
}

// OnRoomChanged 房间切换通知；room 策略下清空缓存
func (c *Catalog) OnRoomChanged() {
	if c.policy != config.CachePolicyRoom {
		return
	}
	n := c.Purge()
	if n > 0 {
		log.Printf("[SequenceCatalog] Room changed, evicted %d cached sequences", n)
	}
}

// Purge 清空缓存，返回被清除的条目数。
// 已经取出的 Definition 不受影响（不可变），正在播放的序列可以继续使用。
func (c *Catalog) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.cache)
	c.cache = make(map[int]*Definition)
	return n
}

// Cached 判断序列是否已在缓存中
func (c *Catalog) Cached(id int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.cache[id]
	return ok
}

// Len 返回缓存条目数
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
