package model

import (
	"sort"
	"time"
)

// Status 分析结果的终态
type Status string

const (
	StatusSuccess  Status = "success"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped" // 仅用于 Manifest，表示未请求
)

// Payload 分析结果载荷，每种分析一个具体类型
type Payload interface {
	Analysis() AnalysisType
}

// AnalysisResult 单个分析的终态结果：Success / Degraded / Failed。
// 产生后不可修改。
type AnalysisResult struct {
	Type       AnalysisType  `json:"type"`
	Status     Status        `json:"status"`
	Kind       ErrorKind     `json:"kind,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Payload    Payload       `json:"payload,omitempty"`
	Missing    []string      `json:"missing,omitempty"` // 未获取到的子信号
	Sources    []string      `json:"sources,omitempty"` // 参与的外部数据源
	ProducedAt time.Time     `json:"produced_at"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Success 构造成功结果
func Success(p Payload, sources []string) *AnalysisResult {
	return &AnalysisResult{
		Type:       p.Analysis(),
		Status:     StatusSuccess,
		Payload:    p,
		Sources:    normalizeSources(sources),
		ProducedAt: time.Now(),
	}
}

// Degraded 构造部分成功结果，missing 列出缺失的子信号
func Degraded(p Payload, kind ErrorKind, reason string, missing, sources []string) *AnalysisResult {
	return &AnalysisResult{
		Type:       p.Analysis(),
		Status:     StatusDegraded,
		Kind:       kind,
		Reason:     reason,
		Payload:    p,
		Missing:    append([]string(nil), missing...),
		Sources:    normalizeSources(sources),
		ProducedAt: time.Now(),
	}
}

// Failed 构造失败结果
func Failed(t AnalysisType, kind ErrorKind, reason string) *AnalysisResult {
	return &AnalysisResult{
		Type:       t,
		Status:     StatusFailed,
		Kind:       kind,
		Reason:     reason,
		ProducedAt: time.Now(),
	}
}

// Risk 返回风险报告载荷
func (r *AnalysisResult) Risk() (*RiskReport, bool) {
	p, ok := r.Payload.(*RiskReport)
	return p, ok
}

// Crowd 返回人流预测载荷
func (r *AnalysisResult) Crowd() (*CrowdForecast, bool) {
	p, ok := r.Payload.(*CrowdForecast)
	return p, ok
}

// Price 返回价格展望载荷
func (r *AnalysisResult) Price() (*PriceOutlook, bool) {
	p, ok := r.Payload.(*PriceOutlook)
	return p, ok
}

// Language 返回语言包载荷
func (r *AnalysisResult) Language() (*LanguageKit, bool) {
	p, ok := r.Payload.(*LanguageKit)
	return p, ok
}

func normalizeSources(sources []string) []string {
	seen := make(map[string]bool, len(sources))
	var out []string
	for _, s := range sources {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
