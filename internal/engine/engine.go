// Package engine 四个情报分析引擎：风险、人流、价格、语言。
// 引擎从不向外返回 error 或 panic，每次调用都产生一个终态 AnalysisResult。
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/iWorld-y/trip_radar/internal/gateway"
	"github.com/iWorld-y/trip_radar/internal/model"
	"github.com/iWorld-y/trip_radar/internal/scrape"
	"github.com/iWorld-y/trip_radar/internal/search"
	"github.com/iWorld-y/trip_radar/internal/weather"
)

// Engine 单个分析引擎
type Engine interface {
	Type() model.AnalysisType
	Analyze(ctx context.Context, task model.AnalysisTask) *model.AnalysisResult
}

// Sources 引擎可用的外部数据，由 gateway.Gateway 实现
type Sources interface {
	Weather(ctx context.Context, location string, start, end time.Time) (*weather.Forecast, error)
	Search(ctx context.Context, query string, maxResults int) (*search.Response, error)
	Scrape(ctx context.Context, url string) (*scrape.Page, error)
	Translate(ctx context.Context, texts []string, target string) ([]string, error)
}

var _ Sources = (*gateway.Gateway)(nil)

// 推理来源标识，记录在 provenance 中
const sourceReasoning = "reasoning"

// accumulator 引擎内部的结果累加器，每次 Analyze 独占一个
type accumulator struct {
	sources []string
	missing []string
	reasons []string
	kind    model.ErrorKind
}

// ok 记录一个成功的数据源
func (a *accumulator) ok(source string) {
	a.sources = append(a.sources, source)
}

// miss 记录一个缺失的子信号
func (a *accumulator) miss(signal string, err error) {
	a.missing = append(a.missing, signal)
	a.reasons = append(a.reasons, signal+": "+errString(err))
	if a.kind == model.KindNone {
		a.kind = model.KindOf(err)
	}
}

// result 有缺失则 Degraded，否则 Success
func (a *accumulator) result(p model.Payload) *model.AnalysisResult {
	if len(a.missing) == 0 {
		return model.Success(p, a.sources)
	}
	return model.Degraded(p, a.kind, strings.Join(a.reasons, "; "), a.missing, a.sources)
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// countKeywords 统计 text 中出现的关键词个数，每个关键词只计一次
func countKeywords(text string, keywords []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

// matchedKeywords 返回 text 中出现的关键词
func matchedKeywords(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}
