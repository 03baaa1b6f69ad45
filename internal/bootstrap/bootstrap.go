// Package bootstrap 按配置组装网关、推理、引擎与编排器。
package bootstrap

import (
	"context"
	"fmt"

	"github.com/iWorld-y/trip_radar/internal/config"
	"github.com/iWorld-y/trip_radar/internal/engine"
	"github.com/iWorld-y/trip_radar/internal/gateway"
	"github.com/iWorld-y/trip_radar/internal/logger"
	"github.com/iWorld-y/trip_radar/internal/metrics"
	"github.com/iWorld-y/trip_radar/internal/model"
	"github.com/iWorld-y/trip_radar/internal/orchestrator"
	"github.com/iWorld-y/trip_radar/internal/reasoning"
	"github.com/iWorld-y/trip_radar/internal/scrape"
	"github.com/iWorld-y/trip_radar/internal/search/factory"
	"github.com/iWorld-y/trip_radar/internal/translate"
	"github.com/iWorld-y/trip_radar/internal/weather"
)

// App 组装完成的运行时组件
type App struct {
	Config       *config.Config
	Metrics      *metrics.Metrics
	Gateway      *gateway.Gateway
	Reasoner     reasoning.Invoker
	Orchestrator *orchestrator.Orchestrator
}

// New 创建应用。缺少凭证的数据源注册为不可用，不会导致启动失败。
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	m := metrics.New()
	gw, err := NewGateway(ctx, cfg, m)
	if err != nil {
		return nil, err
	}
	llm := NewReasoner(ctx, cfg.LLM, m)
	RegisterReasoner(gw, cfg, llm)

	// 引擎经网关调用推理，回复与其他数据源一样被缓存
	orc := orchestrator.New(OrchestratorConfig(cfg.Orchestrator), m,
		engine.NewRiskEngine(gw, gw),
		engine.NewCrowdEngine(gw, gw, cfg.Crowd.MaxDays),
		engine.NewPriceEngine(gw, cfg.Price.WindowDays),
		engine.NewLanguageEngine(gw, gw),
	)
	return &App{
		Config:       cfg,
		Metrics:      m,
		Gateway:      gw,
		Reasoner:     llm,
		Orchestrator: orc,
	}, nil
}

// Close 释放网关缓存
func (a *App) Close() {
	if a.Gateway != nil {
		a.Gateway.Close()
	}
}

// NewGateway 创建网关并注册四个数据源
func NewGateway(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*gateway.Gateway, error) {
	gw, err := gateway.New(gateway.Config{
		TTL:          cfg.Cache.TTL,
		MaxEntries:   cfg.Cache.MaxEntries,
		RetryBackoff: cfg.Retry.Backoff,
		Metrics:      m,
	})
	if err != nil {
		return nil, fmt.Errorf("网关初始化失败: %w", err)
	}

	limits := func(id gateway.ProviderID) gateway.Limits {
		p := cfg.Providers[string(id)]
		return gateway.Limits{RPM: p.RPM, Burst: p.Burst, Timeout: p.Timeout}
	}
	unavailable := func(id gateway.ProviderID, reason string) {
		logger.Log.Warnf("数据源 [%s] 不可用，相关分析将降级: %s", id, reason)
		gw.RegisterUnavailable(id, reason)
	}

	// 天气
	if cfg.Weather.APIKey == "" {
		unavailable(gateway.ProviderWeather, "weather api key not configured")
	} else {
		c := weather.NewClient(cfg.Weather.APIKey, cfg.Weather.BaseURL, cfg.Weather.Timeout)
		gw.Register(gateway.ProviderWeather, gateway.WeatherBackend(c), limits(gateway.ProviderWeather))
	}

	// 搜索
	if s, err := factory.NewSearcher(cfg.Search); err != nil {
		unavailable(gateway.ProviderSearch, err.Error())
	} else {
		gw.Register(gateway.ProviderSearch, gateway.SearchBackend(s), limits(gateway.ProviderSearch))
	}

	// 网页抓取无需凭证
	gw.Register(gateway.ProviderScrape,
		gateway.ScrapeBackend(scrape.NewClient(cfg.Scrape.UserAgent, cfg.Scrape.Timeout)),
		limits(gateway.ProviderScrape))

	// 翻译
	if cfg.Translate.APIKey == "" {
		unavailable(gateway.ProviderTranslate, "translate api key not configured")
	} else if c, err := translate.NewClient(ctx, cfg.Translate.APIKey, cfg.Translate.Endpoint); err != nil {
		unavailable(gateway.ProviderTranslate, err.Error())
	} else {
		gw.Register(gateway.ProviderTranslate, gateway.TranslateBackend(c), limits(gateway.ProviderTranslate))
	}
	return gw, nil
}

// RegisterReasoner 将推理调用器注册为网关数据源。
// 未配置超时时按单次调用超时的两倍，覆盖一次 429 重试。
func RegisterReasoner(gw *gateway.Gateway, cfg *config.Config, llm reasoning.Invoker) {
	p := cfg.Providers[config.ProviderReasoning]
	if p.Timeout <= 0 {
		p.Timeout = 2 * cfg.LLM.Timeout
	}
	gw.Register(gateway.ProviderReasoning, gateway.ReasoningBackend(llm),
		gateway.Limits{RPM: p.RPM, Burst: p.Burst, Timeout: p.Timeout})
}

// NewReasoner 创建推理调用器，未配置或初始化失败时返回 reasoning.Disabled
func NewReasoner(ctx context.Context, cfg config.LLMConfig, m *metrics.Metrics) reasoning.Invoker {
	if !cfg.Enabled() {
		logger.Log.Warn("未配置 LLM，推理相关内容将降级")
		return reasoning.Disabled{}
	}
	c, err := reasoning.NewClient(ctx, cfg, m)
	if err != nil {
		logger.Log.Errorf("LLM 初始化失败，推理相关内容将降级: %v", err)
		return reasoning.Disabled{}
	}
	return c
}

// OrchestratorConfig 将配置文件中的编排参数转换为编排器配置
func OrchestratorConfig(cfg config.OrchestratorConfig) orchestrator.Config {
	out := orchestrator.Config{
		Deadline:      cfg.Deadline,
		MaxConcurrent: cfg.MaxConcurrent,
		Tasks:         make(map[model.AnalysisType]orchestrator.TaskBounds, len(cfg.Tasks)),
	}
	for name, t := range cfg.Tasks {
		typ, err := model.ParseAnalysisType(name)
		if err != nil {
			logger.Log.Warnf("忽略未知的分析任务配置 [%s]", name)
			continue
		}
		out.Tasks[typ] = orchestrator.TaskBounds{Min: t.Min, Max: t.Max}
	}
	return out
}
