package watch

import (
	"context"
	"sync"
	"time"

	"dex-market-core/internal/model"

	"go.uber.org/zap"
)

// 视图轮询间隔范围
const (
	MinInterval = 30 * time.Second
	MaxInterval = 300 * time.Second
)

// OverviewSource 提供某个交易对的总览
type OverviewSource interface {
	Overview(ctx context.Context, pair model.Pair, tradeLimit int) (model.Overview, error)
}

// Publisher 推送结果给界面
type Publisher interface {
	Publish(topic, kind string, v any)
}

// TopicFunc 计算交易对的推送主题
type TopicFunc func(pair model.Pair) string

// Poller 周期刷新当前关注的交易对
// 每次切换交易对都会递增 generation，旧 generation 发起的请求返回后直接丢弃;
// 同一 generation 内按发起顺序编号，晚于已采纳结果发起的请求才会被采纳
type Poller struct {
	source     OverviewSource
	pub        Publisher
	topic      TopicFunc
	interval   time.Duration
	tradeLimit int
	logger     *zap.Logger

	trigger chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	pair    model.Pair
	gen     uint64
	seq     uint64 // 已发起的刷新数
	applied uint64 // 已采纳的刷新编号
	latest  model.Overview
	have    bool
}

// NewPoller 创建轮询器，interval 必须在 30s 到 300s 之间
func NewPoller(source OverviewSource, pub Publisher, topic TopicFunc, interval time.Duration, logger *zap.Logger) (*Poller, error) {
	if interval < MinInterval || interval > MaxInterval {
		return nil, model.InvalidArgument("NewPoller", "interval %s outside %s-%s", interval, MinInterval, MaxInterval)
	}
	return &Poller{
		source:     source,
		pub:        pub,
		topic:      topic,
		interval:   interval,
		tradeLimit: 50,
		logger:     logger.With(zap.String("component", "poller")),
		trigger:    make(chan struct{}, 1),
	}, nil
}

// Watch 切换关注的交易对并立即触发一次刷新，返回新的 generation
func (p *Poller) Watch(pair model.Pair) uint64 {
	p.mu.Lock()
	p.pair = pair
	p.gen++
	p.have = false
	gen := p.gen
	p.mu.Unlock()

	select {
	case p.trigger <- struct{}{}:
	default:
	}
	p.logger.Info("Watching market", zap.String("market", pair.String()), zap.Uint64("generation", gen))
	return gen
}

// Latest 最近一次被采纳的总览
func (p *Poller) Latest() (model.Overview, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.have
}

// Run 轮询循环，ctx 取消时等待进行中的刷新结束后返回
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poller stopped")
			return
		case <-ticker.C:
		case <-p.trigger:
		}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.Refresh(ctx)
		}()
	}
}

// Refresh 拉取一次总览; 返回结果是否被采纳 (未关注交易对或已过期时为 false)
func (p *Poller) Refresh(ctx context.Context) bool {
	p.mu.Lock()
	pair, gen := p.pair, p.gen
	p.seq++
	seq := p.seq
	p.mu.Unlock()
	if pair.IsZero() {
		return false
	}

	overview, err := p.source.Overview(ctx, pair, p.tradeLimit)
	if ctx.Err() != nil {
		return false
	}

	p.mu.Lock()
	if gen != p.gen || seq < p.applied {
		p.mu.Unlock()
		p.logger.Debug("Dropping stale response",
			zap.String("market", pair.String()),
			zap.Uint64("generation", gen),
			zap.Uint64("seq", seq))
		return false
	}
	p.applied = seq
	p.latest = overview
	p.have = true
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("Overview refresh incomplete", zap.String("market", pair.String()), zap.Error(err))
	}
	if p.pub != nil {
		p.pub.Publish(p.topic(pair), "overview", overview)
	}
	return true
}
