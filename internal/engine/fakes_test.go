package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/iWorld-y/trip_radar/internal/logger"
	"github.com/iWorld-y/trip_radar/internal/model"
	"github.com/iWorld-y/trip_radar/internal/reasoning"
	"github.com/iWorld-y/trip_radar/internal/scrape"
	"github.com/iWorld-y/trip_radar/internal/search"
	"github.com/iWorld-y/trip_radar/internal/weather"
)

func init() {
	logger.Discard()
}

var errDown = fmt.Errorf("%w: provider down", model.ErrUnavailable)

// fakeSources 可按需替换各数据源行为，未设置的数据源返回 Unavailable
type fakeSources struct {
	weather   func(location string, start, end time.Time) (*weather.Forecast, error)
	search    func(query string, n int) (*search.Response, error)
	scrape    func(url string) (*scrape.Page, error)
	translate func(texts []string, target string) ([]string, error)
}

func (f *fakeSources) Weather(ctx context.Context, location string, start, end time.Time) (*weather.Forecast, error) {
	if f.weather == nil {
		return nil, errDown
	}
	return f.weather(location, start, end)
}

func (f *fakeSources) Search(ctx context.Context, query string, n int) (*search.Response, error) {
	if f.search == nil {
		return nil, errDown
	}
	return f.search(query, n)
}

func (f *fakeSources) Scrape(ctx context.Context, url string) (*scrape.Page, error) {
	if f.scrape == nil {
		return nil, errDown
	}
	return f.scrape(url)
}

func (f *fakeSources) Translate(ctx context.Context, texts []string, target string) ([]string, error) {
	if f.translate == nil {
		return nil, errDown
	}
	return f.translate(texts, target)
}

// fakeInvoker 按角色返回预设回复，未配置的角色返回 ReasoningUnavailable
type fakeInvoker map[string]string

func (f fakeInvoker) Invoke(ctx context.Context, p reasoning.Prompt) (string, error) {
	if reply, ok := f[p.Role]; ok {
		return reply, nil
	}
	return "", fmt.Errorf("%w: no reply for %s", model.ErrReasoningUnavailable, p.Role)
}

func results(texts ...string) *search.Response {
	resp := &search.Response{}
	for _, t := range texts {
		// 摘要足够长，不触发抓取
		content := t
		for len(content) < minSnippetLength {
			content += " " + t
		}
		resp.Results = append(resp.Results, search.Result{Title: "result", URL: "https://example.com", Content: content})
	}
	return resp
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tripTask(t model.AnalysisType, dest string, start, end time.Time, interests string) model.AnalysisTask {
	return model.AnalysisTask{
		ID:   "task-1",
		Type: t,
		Request: model.TripRequest{
			Origin:       "New York",
			Destination:  dest,
			StartDate:    start,
			EndDate:      end,
			Interests:    interests,
			Intelligence: true,
		},
	}
}
