package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 外部数据源标识，与 gateway.ProviderID 一致
const (
	ProviderWeather   = "weather"
	ProviderSearch    = "search"
	ProviderScrape    = "scrape"
	ProviderTranslate = "translate"
	ProviderReasoning = "reasoning"
)

// Config 项目配置结构体
type Config struct {
	LLM          LLMConfig                 `yaml:"llm"`
	Search       SearchConfig              `yaml:"search"`
	Weather      WeatherConfig             `yaml:"weather"`
	Translate    TranslateConfig           `yaml:"translate"`
	Scrape       ScrapeConfig              `yaml:"scrape"`
	Providers    map[string]ProviderConfig `yaml:"providers"`
	Cache        CacheConfig               `yaml:"cache"`
	Retry        RetryConfig               `yaml:"retry"`
	Orchestrator OrchestratorConfig        `yaml:"orchestrator"`
	Price        PriceConfig               `yaml:"price"`
	Crowd        CrowdConfig               `yaml:"crowd"`
	Log          LogConfig                 `yaml:"log"`
	Server       ServerConfig              `yaml:"server"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	QPS     int           `yaml:"qps"`
	RPM     int           `yaml:"rpm"`
	Timeout time.Duration `yaml:"timeout"`
}

// Enabled 是否配置了推理服务
func (c LLMConfig) Enabled() bool {
	return c.BaseURL != "" && c.Model != ""
}

// SearchConfig 搜索相关配置
type SearchConfig struct {
	Provider string        `yaml:"provider"`
	Tavily   TavilyConfig  `yaml:"tavily"`
	SearXNG  SearXNGConfig `yaml:"searxng"`
}

// TavilyConfig Tavily 配置
type TavilyConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// SearXNGConfig SearXNG 配置
type SearXNGConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// WeatherConfig OpenWeatherMap 配置
type WeatherConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// TranslateConfig Google Translation 配置
type TranslateConfig struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
}

// ScrapeConfig 网页抓取配置
type ScrapeConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// ProviderConfig 单个外部数据源的限流与超时
type ProviderConfig struct {
	RPM     int           `yaml:"rpm"`
	Burst   int           `yaml:"burst"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig 网关缓存配置
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int64         `yaml:"max_entries"`
}

// RetryConfig 网关重试配置，最多重试一次
type RetryConfig struct {
	Backoff time.Duration `yaml:"backoff"`
}

// TaskConfig 单个分析任务的超时上下限
type TaskConfig struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// OrchestratorConfig 编排器配置
type OrchestratorConfig struct {
	Deadline      time.Duration         `yaml:"deadline"`
	MaxConcurrent int                   `yaml:"max_concurrent"`
	Tasks         map[string]TaskConfig `yaml:"tasks"`
}

// PriceConfig 价格分析配置
type PriceConfig struct {
	WindowDays int `yaml:"window_days"`
}

// CrowdConfig 人流预测配置
type CrowdConfig struct {
	MaxDays int `yaml:"max_days"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr    string        `yaml:"addr"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoadConfig 从指定路径加载配置，展开 ${ENV} 后解析并填充默认值
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse 解析 yaml 配置内容
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config failed: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回全部使用默认值的配置
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults 填充未设置的配置项
func (c *Config) ApplyDefaults() {
	if c.LLM.RPM == 0 {
		c.LLM.RPM = 60
	}
	if c.LLM.QPS == 0 {
		c.LLM.QPS = 2
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 20 * time.Second
	}
	if c.Search.Tavily.BaseURL == "" {
		c.Search.Tavily.BaseURL = "https://api.tavily.com/search"
	}
	if c.Search.SearXNG.Timeout == 0 {
		c.Search.SearXNG.Timeout = 30 * time.Second
	}
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if c.Weather.Timeout == 0 {
		c.Weather.Timeout = 10 * time.Second
	}
	if c.Scrape.Timeout == 0 {
		c.Scrape.Timeout = 15 * time.Second
	}
	if c.Scrape.UserAgent == "" {
		c.Scrape.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}

	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	defaults := map[string]ProviderConfig{
		ProviderWeather:   {RPM: 60, Burst: 5, Timeout: 10 * time.Second},
		ProviderSearch:    {RPM: 120, Burst: 30, Timeout: 15 * time.Second},
		ProviderScrape:    {RPM: 30, Burst: 5, Timeout: 15 * time.Second},
		ProviderTranslate: {RPM: 120, Burst: 10, Timeout: 10 * time.Second},
	}
	for id, d := range defaults {
		p := c.Providers[id]
		if p.RPM == 0 {
			p.RPM = d.RPM
		}
		if p.Burst == 0 {
			p.Burst = d.Burst
		}
		if p.Timeout == 0 {
			p.Timeout = d.Timeout
		}
		c.Providers[id] = p
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = 30 * time.Minute
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 10000
	}
	if c.Retry.Backoff == 0 {
		c.Retry.Backoff = 500 * time.Millisecond
	}

	if c.Orchestrator.Deadline == 0 {
		c.Orchestrator.Deadline = 60 * time.Second
	}
	if c.Orchestrator.MaxConcurrent == 0 {
		c.Orchestrator.MaxConcurrent = 4
	}
	if c.Price.WindowDays == 0 {
		c.Price.WindowDays = 3
	}
	if c.Crowd.MaxDays == 0 {
		c.Crowd.MaxDays = 7
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 90 * time.Second
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Search.Provider {
	case "", "tavily", "searxng":
	default:
		return fmt.Errorf("unknown search provider: %s", c.Search.Provider)
	}
	for id, p := range c.Providers {
		switch id {
		case ProviderWeather, ProviderSearch, ProviderScrape, ProviderTranslate, ProviderReasoning:
		default:
			return fmt.Errorf("unknown provider in config: %s", id)
		}
		if p.RPM < 0 || p.Burst < 0 || p.Timeout < 0 {
			return fmt.Errorf("provider %s: rpm, burst and timeout must be non-negative", id)
		}
	}
	if c.Orchestrator.MaxConcurrent < 0 {
		return fmt.Errorf("orchestrator.max_concurrent must be non-negative")
	}
	for name, t := range c.Orchestrator.Tasks {
		if t.Max > 0 && t.Min > t.Max {
			return fmt.Errorf("orchestrator.tasks.%s: min %s exceeds max %s", name, t.Min, t.Max)
		}
	}
	if c.Price.WindowDays < 0 || c.Crowd.MaxDays < 0 {
		return fmt.Errorf("price.window_days and crowd.max_days must be non-negative")
	}
	return nil
}
