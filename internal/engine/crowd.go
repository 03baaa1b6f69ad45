package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/trip_radar/internal/gateway"
	"github.com/iWorld-y/trip_radar/internal/logger"
	"github.com/iWorld-y/trip_radar/internal/model"
	"github.com/iWorld-y/trip_radar/internal/reasoning"
	"github.com/iWorld-y/trip_radar/internal/weather"
)

const (
	baseDensity     = 60.0
	baseConfidence  = 0.8
	maxAttractions  = 5
	eventResultsMax = 8
)

// slotHours 每个时段的代表小时
var slotHours = map[model.TimeSlot]int{
	model.SlotMorning:   8,
	model.SlotMidday:    12,
	model.SlotAfternoon: 15,
	model.SlotEvening:   20,
}

var eventKeywords = []string{"festival", "concert", "event", "celebration", "conference", "exhibition"}

type attraction struct {
	Name   string `json:"name"`
	Indoor bool   `json:"indoor"`
}

// catalogue 按兴趣关键词给出的默认景点，%s 为目的地
var catalogue = []struct {
	keywords []string
	places   []attraction
}{
	{[]string{"museum", "art", "history", "culture"}, []attraction{{"%s National Museum", true}, {"%s Art Gallery", true}}},
	{[]string{"temple", "shrine", "church", "architecture"}, []attraction{{"%s Historic Temple District", false}}},
	{[]string{"food", "cuisine", "dining", "market"}, []attraction{{"%s Central Food Market", true}}},
	{[]string{"nature", "park", "hiking", "garden", "outdoor"}, []attraction{{"%s City Park", false}, {"%s Botanical Garden", false}}},
	{[]string{"shopping", "fashion"}, []attraction{{"%s Main Shopping District", true}}},
	{[]string{"nightlife", "music", "bar"}, []attraction{{"%s Entertainment District", false}}},
	{[]string{"beach", "sea", "coast"}, []attraction{{"%s Beach", false}}},
	{[]string{"family", "kids", "aquarium", "zoo"}, []attraction{{"%s Aquarium", true}, {"%s Zoo", false}}},
}

var defaultAttractions = []attraction{{"%s Old Town", false}, {"%s City Museum", true}, {"%s Observation Deck", true}}

// CrowdEngine 人流密度预测引擎
type CrowdEngine struct {
	src     Sources
	llm     reasoning.Invoker
	maxDays int
}

// NewCrowdEngine 创建人流预测引擎，maxDays 限制预测天数
func NewCrowdEngine(src Sources, llm reasoning.Invoker, maxDays int) *CrowdEngine {
	if maxDays <= 0 {
		maxDays = 7
	}
	return &CrowdEngine{src: src, llm: llm, maxDays: maxDays}
}

// Type implements Engine
func (e *CrowdEngine) Type() model.AnalysisType { return model.AnalysisCrowd }

type attractionReply struct {
	Attractions  []attraction `json:"attractions"`
	Alternatives []string     `json:"alternatives"`
	Tips         []string     `json:"tips"`
}

// Analyze implements Engine
func (e *CrowdEngine) Analyze(ctx context.Context, task model.AnalysisTask) *model.AnalysisResult {
	req := task.Request
	profile, _ := LookupProfile(req.Destination)
	days := req.Days()
	if len(days) > e.maxDays {
		days = days[:e.maxDays]
	}

	var g errgroup.Group
	var forecast *weather.Forecast
	var events *eventSignal
	var reply attractionReply
	var weatherErr, eventErr, llmErr error
	g.Go(func() error {
		forecast, weatherErr = e.src.Weather(ctx, req.Destination, req.StartDate, req.EndDate)
		return nil
	})
	g.Go(func() error {
		q := fmt.Sprintf("%s events festivals %s", req.Destination, req.DateRange())
		resp, err := e.src.Search(ctx, q, eventResultsMax)
		if err != nil {
			eventErr = err
			return nil
		}
		events = newEventSignal(strings.Join(resp.Texts(), "\n"), days)
		return nil
	})
	g.Go(func() error {
		llmErr = reasoning.InvokeJSON(ctx, e.llm, reasoning.Prompt{
			Role: "Crowd Density Analyst",
			Goal: "Pick the attractions a traveler is most likely to visit",
			Task: fmt.Sprintf(`List up to %d popular attractions in %s matching the interests, whether each is indoor,
up to 3 less crowded alternative attractions, and 2 crowd-avoidance tips.
Return JSON: {"attractions":[{"name":"...","indoor":true}],"alternatives":["..."],"tips":["..."]}`, maxAttractions, req.Destination),
			Context: "Interests: " + req.Interests,
		}, &reply)
		return nil
	})
	_ = g.Wait()

	var acc accumulator
	confidence := baseConfidence
	if weatherErr != nil {
		logger.Log.Warnf("人流预测 [%s] 天气获取失败: %v", req.Destination, weatherErr)
		acc.miss(string(gateway.ProviderWeather), weatherErr)
		confidence -= 0.1
		forecast = nil
	} else {
		acc.ok(string(gateway.ProviderWeather))
	}
	if eventErr != nil {
		logger.Log.Warnf("人流预测 [%s] 活动搜索失败: %v", req.Destination, eventErr)
		acc.miss("events", eventErr)
		confidence -= 0.2
		events = nil
	} else {
		acc.ok(string(gateway.ProviderSearch))
	}

	attractions := fallbackAttractions(req.Destination, req.Interests)
	alternatives := fallbackAlternatives(req.Destination, attractions)
	tips := []string{"Arrive at opening time to beat tour groups", "Weekdays are usually quieter than weekends"}
	if llmErr == nil && len(reply.Attractions) > 0 {
		acc.ok(sourceReasoning)
		attractions = reply.Attractions
		if len(attractions) > maxAttractions {
			attractions = attractions[:maxAttractions]
		}
		if len(reply.Alternatives) > 0 {
			alternatives = reply.Alternatives
		}
		if len(reply.Tips) > 0 {
			tips = reply.Tips
		}
	} else {
		if llmErr == nil {
			llmErr = fmt.Errorf("%w: no attractions returned", model.ErrReasoningUnavailable)
		}
		logger.Log.Warnf("人流预测 [%s] 景点推理失败，使用默认景点: %v", req.Destination, llmErr)
		acc.miss(sourceReasoning, llmErr)
	}

	confidence = math.Round(confidence*100) / 100
	out := &model.CrowdForecast{
		Destination:  req.Destination,
		Alternatives: alternatives,
		Confidence:   confidence,
	}
	var total float64
	var count int
	for _, a := range attractions {
		af := forecastAttraction(a, days, profile, forecast, events, confidence)
		for _, s := range af.Slots {
			total += s.Score
			count++
		}
		out.Attractions = append(out.Attractions, af)
	}
	if count > 0 {
		switch avg := total / float64(count); {
		case avg > 70:
			tips = append(tips, "High crowd density expected - consider booking tickets in advance")
		case avg < 30:
			tips = append(tips, "Low crowd density expected - great time for a peaceful visit")
		}
	}
	out.Tips = tips
	return acc.result(out)
}

// forecastAttraction 计算单个景点所有 (日期, 时段) 的密度并排序
func forecastAttraction(a attraction, days []time.Time, p Profile, f *weather.Forecast, ev *eventSignal, confidence float64) model.AttractionForecast {
	af := model.AttractionForecast{Name: a.Name, Indoor: a.Indoor}
	for _, day := range days {
		wf := 1.0
		if f != nil {
			if cond, ok := f.On(day); ok {
				wf = weatherFactor(cond.Kind(), a.Indoor)
			}
		}
		for _, slot := range model.TimeSlots() {
			score := baseDensity *
				timeFactor(slotHours[slot]) *
				dayFactor(day) *
				seasonFactor(p.SeasonOf(day)) *
				wf *
				ev.factor(a.Name, day)
			score = math.Round(math.Max(0, math.Min(100, score))*10) / 10
			af.Slots = append(af.Slots, model.SlotEstimate{
				Attraction: a.Name,
				Date:       day,
				Slot:       slot,
				Score:      score,
				Level:      model.DensityLevelOf(score),
				Confidence: confidence,
			})
		}
	}
	rankSlots(af.Slots)
	if len(af.Slots) > 0 {
		af.Recommended = af.Slots[0]
		af.Avoid = af.Slots[len(af.Slots)-1]
	}
	return af
}

// rankSlots 按密度升序，同分时较早的时段在前
func rankSlots(slots []model.SlotEstimate) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Score != slots[j].Score {
			return slots[i].Score < slots[j].Score
		}
		return slots[i].Before(slots[j])
	})
}

func timeFactor(hour int) float64 {
	switch {
	case (hour >= 9 && hour <= 11) || (hour >= 14 && hour <= 16) || (hour >= 19 && hour <= 21):
		return 1.3
	case (hour >= 6 && hour <= 8) || hour >= 22:
		return 0.6
	default:
		return 1.0
	}
}

func dayFactor(day time.Time) float64 {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return 1.4
	default:
		return 0.8
	}
}

func seasonFactor(s Season) float64 {
	switch s {
	case SeasonSummer:
		return 1.2
	case SeasonWinter:
		return 1.1
	default:
		return 1.0
	}
}

// weatherFactor 恶劣天气减少户外人流、增加室内人流
func weatherFactor(k weather.Kind, indoor bool) float64 {
	if indoor {
		switch k {
		case weather.KindThunderstorm:
			return 1.3
		case weather.KindRain, weather.KindSnow:
			return 1.2
		case weather.KindClear:
			return 0.9
		default:
			return 1.0
		}
	}
	switch k {
	case weather.KindThunderstorm:
		return 0.3
	case weather.KindRain:
		return 0.7
	case weather.KindSnow:
		return 0.5
	case weather.KindClear:
		return 1.2
	default:
		return 1.0
	}
}

// eventSignal 从活动搜索结果中提取的信号
type eventSignal struct {
	text string
	base float64
	days map[string]bool // 被提及的日期
}

func newEventSignal(text string, days []time.Time) *eventSignal {
	ev := &eventSignal{text: strings.ToLower(text), base: 1.0, days: make(map[string]bool)}
	switch n := countKeywords(text, eventKeywords); {
	case n > 3:
		ev.base = 1.5
	case n > 1:
		ev.base = 1.2
	}
	for _, d := range days {
		for _, layout := range []string{"2006-01-02", "January 2", "Jan 2", "2 January"} {
			if strings.Contains(ev.text, strings.ToLower(d.Format(layout))) {
				ev.days[d.Format(time.DateOnly)] = true
				break
			}
		}
	}
	return ev
}

// factor 活动修正系数；nil 表示活动信号缺失，不做修正
func (ev *eventSignal) factor(name string, day time.Time) float64 {
	if ev == nil {
		return 1.0
	}
	f := ev.base
	if ev.days[day.Format(time.DateOnly)] {
		f *= 1.25
	}
	if name != "" && strings.Contains(ev.text, strings.ToLower(name)) {
		f *= 1.2
	}
	return f
}

func fallbackAttractions(dest, interests string) []attraction {
	var out []attraction
	seen := make(map[string]bool)
	add := func(places []attraction) {
		for _, p := range places {
			name := fmt.Sprintf(p.Name, dest)
			if seen[name] || len(out) >= maxAttractions {
				continue
			}
			seen[name] = true
			out = append(out, attraction{Name: name, Indoor: p.Indoor})
		}
	}
	lower := strings.ToLower(interests)
	for _, c := range catalogue {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				add(c.places)
				break
			}
		}
	}
	if len(out) == 0 {
		add(defaultAttractions)
	}
	return out
}

func fallbackAlternatives(dest string, chosen []attraction) []string {
	picked := make(map[string]bool, len(chosen))
	for _, a := range chosen {
		picked[a.Name] = true
	}
	var out []string
	for _, p := range defaultAttractions {
		name := fmt.Sprintf(p.Name, dest)
		if !picked[name] {
			out = append(out, name)
		}
	}
	return out
}
