package model

import "time"

// ManifestEntry 报告清单条目，说明某个分析的状态及原因
type ManifestEntry struct {
	Analysis AnalysisType `json:"analysis"`
	Status   Status       `json:"status"`
	Kind     ErrorKind    `json:"kind,omitempty"`
	Reason   string       `json:"reason,omitempty"`
	Missing  []string     `json:"missing,omitempty"`
}

// IntelligenceReport 引擎唯一对外产物：最多四个分析结果 + 清单。
// 生命周期为按请求创建、返回一次、随即丢弃。
type IntelligenceReport struct {
	ID          string                           `json:"id"`
	Request     TripRequest                      `json:"request"`
	Results     map[AnalysisType]*AnalysisResult `json:"results"`
	Manifest    []ManifestEntry                  `json:"manifest"`
	StartedAt   time.Time                        `json:"started_at"`
	CompletedAt time.Time                        `json:"completed_at"`
}

// Result 按类型获取分析结果
func (r *IntelligenceReport) Result(t AnalysisType) (*AnalysisResult, bool) {
	res, ok := r.Results[t]
	return res, ok
}

// Entry 按类型获取清单条目
func (r *IntelligenceReport) Entry(t AnalysisType) (ManifestEntry, bool) {
	for _, e := range r.Manifest {
		if e.Analysis == t {
			return e, true
		}
	}
	return ManifestEntry{}, false
}

// BuildManifest 按固定顺序为全部分析类型生成清单，未请求的标记为 skipped
func BuildManifest(results map[AnalysisType]*AnalysisResult, skipReason string) []ManifestEntry {
	entries := make([]ManifestEntry, 0, len(AllAnalyses()))
	for _, t := range AllAnalyses() {
		res, ok := results[t]
		if !ok {
			entries = append(entries, ManifestEntry{Analysis: t, Status: StatusSkipped, Reason: skipReason})
			continue
		}
		entries = append(entries, ManifestEntry{
			Analysis: t,
			Status:   res.Status,
			Kind:     res.Kind,
			Reason:   res.Reason,
			Missing:  res.Missing,
		})
	}
	return entries
}
