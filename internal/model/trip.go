package model

import (
	"fmt"
	"strings"
	"time"
)

// AnalysisType 分析类型标签
type AnalysisType string

const (
	AnalysisRisk     AnalysisType = "risk"
	AnalysisCrowd    AnalysisType = "crowd"
	AnalysisPrice    AnalysisType = "price"
	AnalysisLanguage AnalysisType = "language"
)

// AllAnalyses 返回全部分析类型，顺序固定
func AllAnalyses() []AnalysisType {
	return []AnalysisType{AnalysisRisk, AnalysisCrowd, AnalysisPrice, AnalysisLanguage}
}

// ParseAnalysisType 解析分析类型，大小写不敏感
func ParseAnalysisType(s string) (AnalysisType, error) {
	t := AnalysisType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllAnalyses() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown analysis type %q", ErrInvalidRequest, s)
}

// TripRequest 行程请求，受理后不可修改
type TripRequest struct {
	Origin       string         `json:"origin"`
	Destination  string         `json:"destination"`
	StartDate    time.Time      `json:"start_date"`
	EndDate      time.Time      `json:"end_date"`
	Interests    string         `json:"interests"`
	Intelligence bool           `json:"intelligence"`
	Analyses     []AnalysisType `json:"analyses,omitempty"` // 为空表示全部
}

// Validate 校验请求
func (r TripRequest) Validate() error {
	if strings.TrimSpace(r.Origin) == "" {
		return fmt.Errorf("%w: origin is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Destination) == "" {
		return fmt.Errorf("%w: destination is required", ErrInvalidRequest)
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidRequest)
	}
	if r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidRequest,
			r.StartDate.Format(time.DateOnly), r.EndDate.Format(time.DateOnly))
	}
	for _, t := range r.Analyses {
		if _, err := ParseAnalysisType(string(t)); err != nil {
			return err
		}
	}
	return nil
}

// Requested 返回需要执行的分析类型（去重，按固定顺序）。
// 未开启 intelligence 时返回空。
func (r TripRequest) Requested() []AnalysisType {
	if !r.Intelligence {
		return nil
	}
	if len(r.Analyses) == 0 {
		return AllAnalyses()
	}
	want := make(map[AnalysisType]bool, len(r.Analyses))
	for _, t := range r.Analyses {
		want[t] = true
	}
	var out []AnalysisType
	for _, t := range AllAnalyses() {
		if want[t] {
			out = append(out, t)
		}
	}
	return out
}

// Days 返回行程覆盖的每一天（含首尾）
func (r TripRequest) Days() []time.Time {
	start := truncateDay(r.StartDate)
	end := truncateDay(r.EndDate)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DateRange 返回 "2006-01-02 to 2006-01-02" 形式的日期范围
func (r TripRequest) DateRange() string {
	return r.StartDate.Format(time.DateOnly) + " to " + r.EndDate.Format(time.DateOnly)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AnalysisTask 派发给单个引擎的任务，由引擎独占
type AnalysisTask struct {
	ID       string       `json:"id"`
	Type     AnalysisType `json:"type"`
	Request  TripRequest  `json:"request"`
	Deadline time.Time    `json:"deadline"`
}
