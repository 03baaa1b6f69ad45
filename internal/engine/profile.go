package engine

import (
	"strings"
	"time"
	"unicode"
)

// Profile 目的地基础信息
type Profile struct {
	Country      string
	Language     string
	LanguageCode string
	Emergency    []string
	Southern     bool // 南半球，季节相反
}

type profileEntry struct {
	keywords []string
	profile  Profile
}

var profiles = []profileEntry{
	{[]string{"tokyo", "osaka", "kyoto", "sapporo", "japan"}, Profile{
		Country: "Japan", Language: "Japanese", LanguageCode: "ja",
		Emergency: []string{"Police: 110", "Fire/Ambulance: 119"},
	}},
	{[]string{"seoul", "busan", "korea"}, Profile{
		Country: "South Korea", Language: "Korean", LanguageCode: "ko",
		Emergency: []string{"Police: 112", "Fire/Ambulance: 119"},
	}},
	{[]string{"beijing", "shanghai", "guangzhou", "chengdu", "china"}, Profile{
		Country: "China", Language: "Chinese", LanguageCode: "zh",
		Emergency: []string{"Police: 110", "Ambulance: 120", "Fire: 119"},
	}},
	{[]string{"bangkok", "phuket", "chiang mai", "thailand"}, Profile{
		Country: "Thailand", Language: "Thai", LanguageCode: "th",
		Emergency: []string{"Tourist Police: 1155", "Police: 191", "Ambulance: 1669"},
	}},
	{[]string{"paris", "nice", "lyon", "france"}, Profile{
		Country: "France", Language: "French", LanguageCode: "fr",
		Emergency: []string{"EU Emergency: 112", "Police: 17", "Ambulance: 15"},
	}},
	{[]string{"madrid", "barcelona", "seville", "spain"}, Profile{
		Country: "Spain", Language: "Spanish", LanguageCode: "es",
		Emergency: []string{"EU Emergency: 112"},
	}},
	{[]string{"berlin", "munich", "hamburg", "germany"}, Profile{
		Country: "Germany", Language: "German", LanguageCode: "de",
		Emergency: []string{"EU Emergency: 112", "Police: 110"},
	}},
	{[]string{"rome", "milan", "venice", "florence", "italy"}, Profile{
		Country: "Italy", Language: "Italian", LanguageCode: "it",
		Emergency: []string{"EU Emergency: 112"},
	}},
	{[]string{"lisbon", "porto", "portugal"}, Profile{
		Country: "Portugal", Language: "Portuguese", LanguageCode: "pt",
		Emergency: []string{"EU Emergency: 112"},
	}},
	{[]string{"rio de janeiro", "sao paulo", "são paulo", "brazil"}, Profile{
		Country: "Brazil", Language: "Portuguese", LanguageCode: "pt",
		Emergency: []string{"Police: 190", "Ambulance: 192", "Fire: 193"}, Southern: true,
	}},
	{[]string{"mexico city", "cancun", "mexico"}, Profile{
		Country: "Mexico", Language: "Spanish", LanguageCode: "es",
		Emergency: []string{"Emergency: 911"},
	}},
	{[]string{"buenos aires", "argentina"}, Profile{
		Country: "Argentina", Language: "Spanish", LanguageCode: "es",
		Emergency: []string{"Emergency: 911", "Ambulance: 107"}, Southern: true,
	}},
	{[]string{"dubai", "abu dhabi", "uae", "united arab emirates"}, Profile{
		Country: "United Arab Emirates", Language: "Arabic", LanguageCode: "ar",
		Emergency: []string{"Police: 999", "Ambulance: 998"},
	}},
	{[]string{"cairo", "egypt"}, Profile{
		Country: "Egypt", Language: "Arabic", LanguageCode: "ar",
		Emergency: []string{"Tourist Police: 126", "Police: 122", "Ambulance: 123"},
	}},
	{[]string{"delhi", "new delhi", "mumbai", "india"}, Profile{
		Country: "India", Language: "Hindi", LanguageCode: "hi",
		Emergency: []string{"Emergency: 112"},
	}},
	{[]string{"sydney", "melbourne", "australia"}, Profile{
		Country: "Australia", Language: "English", LanguageCode: "en",
		Emergency: []string{"Emergency: 000"}, Southern: true,
	}},
	{[]string{"auckland", "new zealand"}, Profile{
		Country: "New Zealand", Language: "English", LanguageCode: "en",
		Emergency: []string{"Emergency: 111"}, Southern: true,
	}},
	{[]string{"cape town", "johannesburg", "south africa"}, Profile{
		Country: "South Africa", Language: "English", LanguageCode: "en",
		Emergency: []string{"Police: 10111", "Ambulance: 10177"}, Southern: true,
	}},
	{[]string{"london", "edinburgh", "england", "united kingdom", "uk"}, Profile{
		Country: "United Kingdom", Language: "English", LanguageCode: "en",
		Emergency: []string{"Emergency: 999", "Emergency: 112"},
	}},
	{[]string{"new york", "los angeles", "san francisco", "chicago", "usa", "united states"}, Profile{
		Country: "United States", Language: "English", LanguageCode: "en",
		Emergency: []string{"Emergency: 911"},
	}},
}

// defaultEmergency 未知目的地的紧急电话提示
var defaultEmergency = []string{"112 works from most mobile phones worldwide", "Save your embassy's phone number before departure"}

// LookupProfile 按目的地名称查找基础信息，按整词匹配
func LookupProfile(destination string) (Profile, bool) {
	norm := " " + strings.Join(strings.FieldsFunc(strings.ToLower(destination), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ") + " "
	for _, e := range profiles {
		for _, kw := range e.keywords {
			if strings.Contains(norm, " "+kw+" ") {
				return e.profile, true
			}
		}
	}
	return Profile{}, false
}

// EmergencyContacts 返回紧急联系方式，未知目的地返回通用提示
func (p Profile) EmergencyContacts() []string {
	if len(p.Emergency) == 0 {
		return append([]string(nil), defaultEmergency...)
	}
	return append([]string(nil), p.Emergency...)
}

// Season 季节
type Season string

const (
	SeasonSummer Season = "summer"
	SeasonWinter Season = "winter"
	SeasonOther  Season = "shoulder"
)

// SeasonOf 按半球判断某天的季节
func (p Profile) SeasonOf(t time.Time) Season {
	m := t.Month()
	summer := m >= time.June && m <= time.August
	winter := m == time.December || m <= time.February
	if p.Southern {
		summer, winter = winter, summer
	}
	switch {
	case summer:
		return SeasonSummer
	case winter:
		return SeasonWinter
	default:
		return SeasonOther
	}
}
