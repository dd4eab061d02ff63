package api

import (
	"context"
	"encoding/json"
	"time"

	"dex-market-core/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store 缓存后端，保存的是不可变的原始响应字节
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache 按 endpoint + 序列化参数 缓存只读调用的结果
// 同一个 key 的并发未命中请求会合并为一次网络调用
type Cache struct {
	store  Store
	group  singleflight.Group
	logger *zap.Logger
}

// NewCache 创建响应缓存
func NewCache(store Store, logger *zap.Logger) *Cache {
	return &Cache{
		store:  store,
		logger: logger.With(zap.String("component", "cache")),
	}
}

// Key 生成缓存键; encoding/json 对 map 按键排序，保证同参数同键
func Key(endpoint string, params map[string]any) (string, error) {
	if params == nil {
		return endpoint + "{}", nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return "", model.InvalidArgument("cache.Key", "params not serializable: %v", err)
	}
	return endpoint + string(b), nil
}

// Call TTL 内命中直接返回; 未命中或过期时调用 fn 并以 now+ttl 过期存储，失败结果不缓存
func (c *Cache) Call(ctx context.Context, fn CallerFunc, endpoint string, params map[string]any, ttl time.Duration) (json.RawMessage, error) {
	key, err := Key(endpoint, params)
	if err != nil {
		return nil, err
	}

	value, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache read failed, falling through", zap.String("key", key), zap.Error(err))
	} else if ok {
		return value, nil
	}

	// 合并后的调用脱离任一调用方的取消，超时由底层客户端控制
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		raw, err := fn(detached, endpoint, params)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(detached, key, raw, ttl); err != nil {
			c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
		return raw, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("Joined in-flight request", zap.String("key", key))
		}
		return res.Val.(json.RawMessage), nil
	}
}

// CachedCaller 把 Caller 包装为带缓存的 Caller
type CachedCaller struct {
	next     Caller
	cache    *Cache
	ttl      time.Duration
	override map[string]time.Duration
}

// NewCachedCaller 创建带缓存的调用者，ttl 为默认过期时间
func NewCachedCaller(next Caller, cache *Cache, ttl time.Duration) *CachedCaller {
	return &CachedCaller{next: next, cache: cache, ttl: ttl, override: make(map[string]time.Duration)}
}

// WithEndpointTTL 为某个 endpoint 单独设置过期时间
func (c *CachedCaller) WithEndpointTTL(endpoint string, ttl time.Duration) *CachedCaller {
	c.override[endpoint] = ttl
	return c
}

func (c *CachedCaller) Call(ctx context.Context, endpoint string, params map[string]any) (json.RawMessage, error) {
	ttl := c.ttl
	if t, ok := c.override[endpoint]; ok {
		ttl = t
	}
	return c.cache.Call(ctx, c.next.Call, endpoint, params, ttl)
}
