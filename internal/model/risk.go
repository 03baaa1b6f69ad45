package model

// RiskLevel 风险等级
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Rank 返回等级的序数，用于取最大值
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return 0
	}
}

// MaxRiskLevel 返回最严重的等级，空输入返回 LOW
func MaxRiskLevel(levels ...RiskLevel) RiskLevel {
	max := RiskLow
	for _, l := range levels {
		if l.Rank() > max.Rank() {
			max = l
		}
	}
	return max
}

// RiskCategory 风险子类别
type RiskCategory string

const (
	RiskWeather RiskCategory = "weather"
	RiskSafety  RiskCategory = "safety"
	RiskHealth  RiskCategory = "health"
)

// RiskCategories 固定顺序的子类别
func RiskCategories() []RiskCategory {
	return []RiskCategory{RiskWeather, RiskSafety, RiskHealth}
}

// CategoryScore 单个类别的评分
type CategoryScore struct {
	Category       RiskCategory `json:"category"`
	Level          RiskLevel    `json:"level,omitempty"`
	Available      bool         `json:"available"`
	Signals        []string     `json:"signals,omitempty"`
	Message        string       `json:"message"`
	Recommendation string       `json:"recommendation,omitempty"`
}

// RiskReport 风险评估报告
type RiskReport struct {
	Destination       string          `json:"destination"`
	Overall           RiskLevel       `json:"overall"`
	Categories        []CategoryScore `json:"categories"`
	Mitigation        []string        `json:"mitigation,omitempty"`
	EmergencyContacts []string        `json:"emergency_contacts,omitempty"`
	Summary           string          `json:"summary,omitempty"`
}

// Analysis implements Payload
func (*RiskReport) Analysis() AnalysisType { return AnalysisRisk }

// Category 按类别查找评分
func (r *RiskReport) Category(c RiskCategory) (CategoryScore, bool) {
	for _, s := range r.Categories {
		if s.Category == c {
			return s, true
		}
	}
	return CategoryScore{}, false
}
