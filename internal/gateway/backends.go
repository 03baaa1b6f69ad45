package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iWorld-y/trip_radar/internal/model"
	"github.com/iWorld-y/trip_radar/internal/reasoning"
	"github.com/iWorld-y/trip_radar/internal/scrape"
	"github.com/iWorld-y/trip_radar/internal/search"
	"github.com/iWorld-y/trip_radar/internal/weather"
)

// Forecaster 天气数据源
type Forecaster interface {
	Forecast(ctx context.Context, location string, start, end time.Time) (*weather.Forecast, error)
}

// Scraper 网页抓取数据源
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scrape.Page, error)
}

// Translator 翻译数据源
type Translator interface {
	Translate(ctx context.Context, texts []string, target string) ([]string, error)
}

// WeatherBackend 适配天气客户端
func WeatherBackend(c Forecaster) Backend {
	return BackendFunc(func(ctx context.Context, q Query) (any, error) {
		return c.Forecast(ctx, q.Location, q.Start, q.End)
	})
}

// SearchBackend 适配搜索客户端
func SearchBackend(s search.Searcher) Backend {
	return BackendFunc(func(ctx context.Context, q Query) (any, error) {
		return s.Search(ctx, &search.Request{
			Query:      q.Text,
			Topic:      q.Topic,
			MaxResults: q.MaxResults,
		})
	})
}

// ScrapeBackend 适配抓取客户端
func ScrapeBackend(c Scraper) Backend {
	return BackendFunc(func(ctx context.Context, q Query) (any, error) {
		return c.Scrape(ctx, q.URL)
	})
}

// TranslateBackend 适配翻译客户端
func TranslateBackend(c Translator) Backend {
	return BackendFunc(func(ctx context.Context, q Query) (any, error) {
		return c.Translate(ctx, q.Texts, q.TargetLang)
	})
}

// ReasoningBackend 适配推理调用器
func ReasoningBackend(inv reasoning.Invoker) Backend {
	return BackendFunc(func(ctx context.Context, q Query) (any, error) {
		if q.Prompt == nil {
			return nil, fmt.Errorf("%w: empty prompt", model.ErrReasoningUnavailable)
		}
		return inv.Invoke(ctx, *q.Prompt)
	})
}

// Weather 获取目的地在行程期间的天气
func (g *Gateway) Weather(ctx context.Context, location string, start, end time.Time) (*weather.Forecast, error) {
	resp, err := g.Fetch(ctx, ProviderWeather, Query{Location: location, Start: start, End: end})
	if err != nil {
		return nil, err
	}
	return payloadAs[*weather.Forecast](resp)
}

// Search 执行网页搜索
func (g *Gateway) Search(ctx context.Context, query string, maxResults int) (*search.Response, error) {
	resp, err := g.Fetch(ctx, ProviderSearch, Query{Text: query, MaxResults: maxResults})
	if err != nil {
		return nil, err
	}
	return payloadAs[*search.Response](resp)
}

// Scrape 抓取网页正文
func (g *Gateway) Scrape(ctx context.Context, url string) (*scrape.Page, error) {
	resp, err := g.Fetch(ctx, ProviderScrape, Query{URL: url})
	if err != nil {
		return nil, err
	}
	return payloadAs[*scrape.Page](resp)
}

// Translate 批量翻译
func (g *Gateway) Translate(ctx context.Context, texts []string, target string) ([]string, error) {
	resp, err := g.Fetch(ctx, ProviderTranslate, Query{Texts: texts, TargetLang: target})
	if err != nil {
		return nil, err
	}
	return payloadAs[[]string](resp)
}

// Invoke 经网关调用推理，实现 reasoning.Invoker。
// 任何失败都归为 ReasoningUnavailable。
func (g *Gateway) Invoke(ctx context.Context, p reasoning.Prompt) (string, error) {
	resp, err := g.Fetch(ctx, ProviderReasoning, Query{Prompt: &p})
	if err == nil {
		var text string
		if text, err = payloadAs[string](resp); err == nil {
			return text, nil
		}
	}
	if errors.Is(err, model.ErrReasoningUnavailable) {
		return "", err
	}
	return "", fmt.Errorf("%w: %v", model.ErrReasoningUnavailable, err)
}

var _ reasoning.Invoker = (*Gateway)(nil)

func payloadAs[T any](resp *Response) (T, error) {
	v, ok := resp.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: unexpected payload type %T", resp.Provider, resp.Payload)
	}
	return v, nil
}
