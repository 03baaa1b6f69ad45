// Package gateway 外部数据网关：统一封装天气、搜索、抓取、翻译数据源，
// 负责缓存、并发去重、按数据源限流以及故障隔离。
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/trip_radar/internal/logger"
	"github.com/iWorld-y/trip_radar/internal/metrics"
	"github.com/iWorld-y/trip_radar/internal/model"
	"github.com/iWorld-y/trip_radar/internal/upstream"
)

// Status 数据源响应状态
type Status string

const (
	StatusOK          Status = "ok"
	StatusUnavailable Status = "unavailable"
	StatusRateLimited Status = "rate_limited"
)

// Response 统一响应结构，Payload 为数据源特定类型
type Response struct {
	Provider  ProviderID `json:"provider"`
	Status    Status     `json:"status"`
	Payload   any        `json:"payload,omitempty"`
	Cached    bool       `json:"cached"`
	Shared    bool       `json:"shared"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Backend 具体数据源实现
type Backend interface {
	Fetch(ctx context.Context, q Query) (any, error)
}

// BackendFunc 函数适配为 Backend
type BackendFunc func(ctx context.Context, q Query) (any, error)

// Fetch implements Backend
func (f BackendFunc) Fetch(ctx context.Context, q Query) (any, error) { return f(ctx, q) }

// Limits 单个数据源的限流与超时
type Limits struct {
	RPM     int
	Burst   int
	Timeout time.Duration
}

// Config 网关配置
type Config struct {
	TTL          time.Duration
	MaxEntries   int64
	RetryBackoff time.Duration
	Metrics      *metrics.Metrics
}

func (c *Config) applyDefaults() {
	if c.TTL <= 0 {
		c.TTL = 30 * time.Minute
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = 10000
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
}

type provider struct {
	id      ProviderID
	backend Backend
	limiter *rate.Limiter
	timeout time.Duration
	// down 非空表示数据源永久不可用（如缺少凭证）
	down string
}

// flight 同一缓存键上正在进行的上游调用，按等待者计数。
// 最后一个等待者离开时取消调用。
type flight struct {
	ctx    context.Context
	cancel context.CancelFunc
	refs   int
}

// Gateway 外部数据网关，可被多个引擎并发使用
type Gateway struct {
	cfg       Config
	cache     *ristretto.Cache
	group     singleflight.Group
	providers map[ProviderID]*provider

	mu      sync.Mutex
	flights map[string]*flight
	closed  bool

	// calls 进行中的 Fetch 与上游调用，Close 等待其全部结束
	calls sync.WaitGroup
}

// New 创建网关
func New(cfg Config) (*Gateway, error) {
	cfg.applyDefaults()
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        cfg.MaxEntries * 10,
		MaxCost:            cfg.MaxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway cache failed: %w", err)
	}
	return &Gateway{
		cfg:       cfg,
		cache:     cache,
		providers: make(map[ProviderID]*provider),
		flights:   make(map[string]*flight),
	}, nil
}

// Register 注册数据源，须在并发使用之前完成
func (g *Gateway) Register(id ProviderID, b Backend, l Limits) {
	if l.Timeout <= 0 {
		l.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if l.RPM > 0 {
		limit = rate.Limit(float64(l.RPM) / 60.0)
	}
	burst := l.Burst
	if burst <= 0 {
		burst = 1
	}
	g.providers[id] = &provider{
		id:      id,
		backend: b,
		limiter: rate.NewLimiter(limit, burst),
		timeout: l.Timeout,
	}
}

// RegisterUnavailable 注册一个永久不可用的数据源，调用方会得到 Unavailable 而不是启动失败
func (g *Gateway) RegisterUnavailable(id ProviderID, reason string) {
	g.providers[id] = &provider{id: id, down: reason}
}

// Close 取消所有进行中的上游调用，等待其结束后释放缓存。可重复调用。
func (g *Gateway) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	for _, f := range g.flights {
		f.cancel()
	}
	g.mu.Unlock()

	g.calls.Wait()
	g.cache.Close()
}

// acquire 登记一个进行中的调用，网关已关闭时返回 false
func (g *Gateway) acquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.calls.Add(1)
	return true
}

// Fetch 从数据源获取数据。顺序：缓存 -> 并发去重 -> 限流 -> 上游调用（最多重试一次）。
// 失败时返回的 Response 仍带有 Status。
func (g *Gateway) Fetch(ctx context.Context, id ProviderID, q Query) (*Response, error) {
	p, ok := g.providers[id]
	if !ok {
		return &Response{Provider: id, Status: StatusUnavailable}, fmt.Errorf("%s: %w", id, model.ErrUnknownProvider)
	}
	if p.down != "" {
		g.cfg.Metrics.GatewayOutcome(string(id), metrics.OutcomeUnavailable)
		return &Response{Provider: id, Status: StatusUnavailable}, fmt.Errorf("%s: %w: %s", id, model.ErrUnavailable, p.down)
	}

	if !g.acquire() {
		return &Response{Provider: id, Status: StatusUnavailable}, fmt.Errorf("%s: %w: gateway closed", id, model.ErrUnavailable)
	}
	defer g.calls.Done()

	key := q.Key(id)
	if v, ok := g.cache.Get(key); ok {
		g.cfg.Metrics.GatewayOutcome(string(id), metrics.OutcomeCacheHit)
		return &Response{Provider: id, Status: StatusOK, Payload: v, Cached: true, FetchedAt: time.Now()}, nil
	}

	f := g.join(ctx, key)
	ch := g.group.DoChan(key, func() (any, error) {
		return g.dispatch(f.ctx, p, q, key)
	})

	select {
	case res := <-ch:
		g.leave(key, f)
		if res.Err != nil {
			status, outcome := statusOf(res.Err)
			g.cfg.Metrics.GatewayOutcome(string(id), outcome)
			return &Response{Provider: id, Status: status, Shared: res.Shared}, res.Err
		}
		outcome := metrics.OutcomeOK
		if res.Shared {
			outcome = metrics.OutcomeShared
		}
		g.cfg.Metrics.GatewayOutcome(string(id), outcome)
		return &Response{Provider: id, Status: StatusOK, Payload: res.Val, Shared: res.Shared, FetchedAt: time.Now()}, nil

	case <-ctx.Done():
		g.leave(key, f)
		g.cfg.Metrics.GatewayOutcome(string(id), metrics.OutcomeTimeout)
		return &Response{Provider: id, Status: StatusUnavailable}, fmt.Errorf("%s: %w: %w", id, model.ErrTimeout, ctx.Err())
	}
}

// join 加入 key 上的调用，没有则新建。调用上下文与发起者解耦，
// 发起者超时不会中断其他等待者。
func (g *Gateway) join(ctx context.Context, key string) *flight {
	g.mu.Lock()
	defer g.mu.Unlock()
	if f, ok := g.flights[key]; ok {
		f.refs++
		return f
	}
	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f := &flight{ctx: fctx, cancel: cancel, refs: 1}
	g.flights[key] = f
	return f
}

// leave 离开调用；最后一个等待者离开时取消上游调用，并让后续请求重新发起
func (g *Gateway) leave(key string, f *flight) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f.refs--
	if f.refs > 0 {
		return
	}
	f.cancel()
	if g.flights[key] == f {
		delete(g.flights, key)
		g.group.Forget(key)
	}
}

// dispatch 单飞调用体。上游调用与发起者解耦，可能在所有等待者离开后才结束，
// 因此单独登记到 calls。
func (g *Gateway) dispatch(ctx context.Context, p *provider, q Query, key string) (any, error) {
	if !g.acquire() {
		return nil, fmt.Errorf("%s: %w: gateway closed", p.id, model.ErrUnavailable)
	}
	defer g.calls.Done()
	// 首次查缓存与进入单飞之间，上一轮调用可能已写入缓存
	if v, ok := g.cache.Get(key); ok {
		return v, nil
	}
	return g.call(ctx, p, q, key)
}

// call 执行上游调用。令牌仅在真正发出请求前获取，被取消的调用不会消耗令牌。
func (g *Gateway) call(ctx context.Context, p *provider, q Query, key string) (any, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			logger.Log.Debugf("数据源 %s 第 %d 次重试: %v", p.id, attempt, lastErr)
			if err := sleep(ctx, g.cfg.RetryBackoff); err != nil {
				return nil, fmt.Errorf("%s: %w: %w", p.id, model.ErrTimeout, err)
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", p.id, model.ErrTimeout, err)
		}
		if !p.limiter.Allow() {
			logger.Log.Warnf("数据源 %s 触发限流", p.id)
			return nil, fmt.Errorf("%s: %w", p.id, model.ErrRateLimited)
		}

		g.cfg.Metrics.UpstreamCall(string(p.id))
		actx, cancel := context.WithTimeout(ctx, p.timeout)
		val, err := p.backend.Fetch(actx, q)
		cancel()
		if err == nil {
			// 已取消的调用结果不写缓存
			if ctx.Err() == nil {
				g.cache.SetWithTTL(key, val, 1, g.cfg.TTL)
				g.cache.Wait()
			}
			return val, nil
		}

		var retry bool
		lastErr, retry = classify(ctx, p.id, err)
		if !retry {
			break
		}
	}
	logger.Log.Warnf("数据源 %s 调用失败: %v", p.id, lastErr)
	return nil, lastErr
}

// classify 将上游错误映射为错误分类，并判断是否值得重试
func classify(ctx context.Context, id ProviderID, err error) (error, bool) {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w: %w", id, model.ErrTimeout, err), false
	}
	// 推理客户端自带 429 重试
	if errors.Is(err, model.ErrReasoningUnavailable) {
		return fmt.Errorf("%s: %w", id, err), false
	}
	if upstream.IsRateLimited(err) {
		return fmt.Errorf("%s: %w: %w", id, model.ErrRateLimited, err), false
	}
	var se *upstream.StatusError
	if errors.As(err, &se) && !se.Retryable() {
		return fmt.Errorf("%s: %w: %w", id, model.ErrUnavailable, err), false
	}
	return fmt.Errorf("%s: %w: %w", id, model.ErrUnavailable, err), true
}

func statusOf(err error) (Status, string) {
	switch {
	case errors.Is(err, model.ErrRateLimited):
		return StatusRateLimited, metrics.OutcomeRateLimited
	case errors.Is(err, model.ErrTimeout):
		return StatusUnavailable, metrics.OutcomeTimeout
	default:
		return StatusUnavailable, metrics.OutcomeUnavailable
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
