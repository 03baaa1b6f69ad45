package weather

import (
	"fmt"
	"strings"
)

// Kind 按 OpenWeatherMap condition id 划分的天气大类
type Kind string

const (
	KindThunderstorm Kind = "thunderstorm" // 2xx
	KindRain         Kind = "rain"         // 3xx, 5xx
	KindSnow         Kind = "snow"         // 6xx
	KindAtmosphere   Kind = "atmosphere"   // 7xx
	KindClear        Kind = "clear"        // 800
	KindClouds       Kind = "clouds"       // 80x
	KindUnknown      Kind = "unknown"
)

// StormWindSpeed 风暴级风速 (m/s, 蒲福 10 级)
const StormWindSpeed = 24.5

// GaleWindSpeed 大风风速 (m/s, 蒲福 8 级)
const GaleWindSpeed = 17.2

// KindOf 将 condition id 映射为天气大类
func KindOf(id int) Kind {
	switch {
	case id >= 200 && id < 300:
		return KindThunderstorm
	case id >= 300 && id < 600:
		return KindRain
	case id >= 600 && id < 700:
		return KindSnow
	case id >= 700 && id < 800:
		return KindAtmosphere
	case id == 800:
		return KindClear
	case id > 800 && id < 900:
		return KindClouds
	default:
		return KindUnknown
	}
}

// severity 用于同一天多个时段取最严重
func severity(d DayCondition) int {
	switch d.Kind() {
	case KindThunderstorm:
		return 5
	case KindAtmosphere:
		if d.ConditionID == 781 || d.ConditionID == 771 {
			return 6
		}
		return 2
	case KindSnow:
		return 4
	case KindRain:
		return 3
	case KindClouds:
		return 1
	default:
		return 0
	}
}

func worse(a, b DayCondition) bool {
	return severity(a) > severity(b)
}

var namedStorms = []string{"typhoon", "hurricane", "tornado", "cyclone", "squall"}

// alertsFor 从每日预报中提取恶劣天气警报
func alertsFor(days []DayCondition) []string {
	var alerts []string
	for _, d := range days {
		date := d.Date.Format("2006-01-02")
		desc := strings.ToLower(d.Description)
		switch {
		case d.ConditionID == 781 || d.ConditionID == 771 || containsAny(desc, namedStorms):
			alerts = append(alerts, fmt.Sprintf("%s: severe storm (%s)", date, d.Description))
		case d.WindSpeed >= StormWindSpeed:
			alerts = append(alerts, fmt.Sprintf("%s: storm-force winds %.1f m/s", date, d.WindSpeed))
		}
	}
	return alerts
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
