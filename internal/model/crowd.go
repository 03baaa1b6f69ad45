package model

import "time"

// TimeSlot 一天中的时段
type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"
	SlotMidday    TimeSlot = "midday"
	SlotAfternoon TimeSlot = "afternoon"
	SlotEvening   TimeSlot = "evening"
)

// TimeSlots 按时间先后排列的时段
func TimeSlots() []TimeSlot {
	return []TimeSlot{SlotMorning, SlotMidday, SlotAfternoon, SlotEvening}
}

// Index 返回时段在一天中的顺序
func (s TimeSlot) Index() int {
	for i, t := range TimeSlots() {
		if t == s {
			return i
		}
	}
	return len(TimeSlots())
}

// DensityLevel 人流密度等级
type DensityLevel string

const (
	DensityVeryLow  DensityLevel = "very_low"
	DensityLow      DensityLevel = "low"
	DensityMedium   DensityLevel = "medium"
	DensityHigh     DensityLevel = "high"
	DensityVeryHigh DensityLevel = "very_high"
)

// DensityLevelOf 将 0-100 的密度分数映射为等级
func DensityLevelOf(score float64) DensityLevel {
	switch {
	case score >= 80:
		return DensityVeryHigh
	case score >= 60:
		return DensityHigh
	case score >= 40:
		return DensityMedium
	case score >= 20:
		return DensityLow
	default:
		return DensityVeryLow
	}
}

// SlotEstimate 某景点在某天某时段的密度估计
type SlotEstimate struct {
	Attraction string       `json:"attraction"`
	Date       time.Time    `json:"date"`
	Slot       TimeSlot     `json:"slot"`
	Score      float64      `json:"score"`
	Level      DensityLevel `json:"level"`
	Confidence float64      `json:"confidence"`
}

// Before 报告 e 是否在时间上早于 o
func (e SlotEstimate) Before(o SlotEstimate) bool {
	if !e.Date.Equal(o.Date) {
		return e.Date.Before(o.Date)
	}
	return e.Slot.Index() < o.Slot.Index()
}

// AttractionForecast 单个景点的预测，Slots 按密度升序排列，同分按时间先后
type AttractionForecast struct {
	Name        string         `json:"name"`
	Indoor      bool           `json:"indoor"`
	Slots       []SlotEstimate `json:"slots"`
	Recommended SlotEstimate   `json:"recommended"`
	Avoid       SlotEstimate   `json:"avoid"`
}

// CrowdForecast 人流密度预测
type CrowdForecast struct {
	Destination  string               `json:"destination"`
	Attractions  []AttractionForecast `json:"attractions"`
	Alternatives []string             `json:"alternatives,omitempty"`
	Tips         []string             `json:"tips,omitempty"`
	Confidence   float64              `json:"confidence"`
}

// Analysis implements Payload
func (*CrowdForecast) Analysis() AnalysisType { return AnalysisCrowd }

// Entries 展开为 (景点, 时段, 等级, 置信度) 序列，保持每个景点内的排名顺序
func (f *CrowdForecast) Entries() []SlotEstimate {
	var out []SlotEstimate
	for _, a := range f.Attractions {
		out = append(out, a.Slots...)
	}
	return out
}
