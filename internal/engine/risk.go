package engine

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/trip_radar/internal/gateway"
	"github.com/iWorld-y/trip_radar/internal/logger"
	"github.com/iWorld-y/trip_radar/internal/model"
	"github.com/iWorld-y/trip_radar/internal/reasoning"
	"github.com/iWorld-y/trip_radar/internal/search"
	"github.com/iWorld-y/trip_radar/internal/weather"
)

var (
	safetyKeywords = []string{"warning", "advisory", "danger", "unsafe", "avoid", "caution"}
	healthKeywords = []string{"vaccination", "required", "mandatory", "outbreak", "disease", "health warning"}

	// 单独出现即判定为 HIGH 的短语
	safetySevere = []string{"do not travel", "reconsider travel", "level 4", "armed conflict", "terrorist attack", "civil unrest", "martial law"}
	healthSevere = []string{"epidemic", "ebola", "cholera outbreak", "public health emergency", "level 3 travel health notice"}
)

const (
	riskSearchResults = 5
	// 摘要短于该长度时抓取原文补充
	minSnippetLength = 200
	maxEnrichPages   = 2
)

// RiskEngine 风险评估引擎：天气、治安、卫生三类信号
type RiskEngine struct {
	src Sources
	llm reasoning.Invoker
}

// NewRiskEngine 创建风险评估引擎
func NewRiskEngine(src Sources, llm reasoning.Invoker) *RiskEngine {
	return &RiskEngine{src: src, llm: llm}
}

// Type implements Engine
func (e *RiskEngine) Type() model.AnalysisType { return model.AnalysisRisk }

// Analyze implements Engine
func (e *RiskEngine) Analyze(ctx context.Context, task model.AnalysisTask) *model.AnalysisResult {
	req := task.Request
	profile, _ := LookupProfile(req.Destination)

	var g errgroup.Group
	var weatherCat, safetyCat, healthCat model.CategoryScore
	var weatherErr, safetyErr, healthErr error
	// 子任务互不取消，各自记录错误
	g.Go(func() error {
		f, err := e.src.Weather(ctx, req.Destination, req.StartDate, req.EndDate)
		if err != nil {
			weatherErr = err
			return nil
		}
		weatherCat = scoreWeather(f)
		return nil
	})
	g.Go(func() error {
		q := fmt.Sprintf("%s safety travel advisory %d", req.Destination, req.StartDate.Year())
		text, err := e.gather(ctx, q)
		if err != nil {
			safetyErr = err
			return nil
		}
		safetyCat = scoreSafety(text)
		return nil
	})
	g.Go(func() error {
		q := fmt.Sprintf("%s health advisory travel vaccination requirements %d", req.Destination, req.StartDate.Year())
		text, err := e.gather(ctx, q)
		if err != nil {
			healthErr = err
			return nil
		}
		healthCat = scoreHealth(text)
		return nil
	})
	_ = g.Wait()

	var acc accumulator
	report := &model.RiskReport{
		Destination:       req.Destination,
		EmergencyContacts: profile.EmergencyContacts(),
	}
	for _, c := range []struct {
		cat    model.RiskCategory
		score  model.CategoryScore
		err    error
		source gateway.ProviderID
	}{
		{model.RiskWeather, weatherCat, weatherErr, gateway.ProviderWeather},
		{model.RiskSafety, safetyCat, safetyErr, gateway.ProviderSearch},
		{model.RiskHealth, healthCat, healthErr, gateway.ProviderSearch},
	} {
		if c.err != nil {
			logger.Log.Warnf("风险评估 [%s] %s 数据获取失败: %v", req.Destination, c.cat, c.err)
			acc.miss(string(c.cat), c.err)
			report.Categories = append(report.Categories, model.CategoryScore{
				Category: c.cat,
				Message:  string(c.cat) + " data unavailable",
			})
			continue
		}
		acc.ok(string(c.source))
		c.score.Category = c.cat
		c.score.Available = true
		report.Categories = append(report.Categories, c.score)
	}

	if weatherErr != nil && safetyErr != nil && healthErr != nil {
		return model.Failed(model.AnalysisRisk, model.KindAllSourcesFailed,
			fmt.Sprintf("%s: %s", model.ErrAllSourcesFailed, strings.Join(acc.reasons, "; ")))
	}

	report.Overall = overallRisk(report.Categories)
	e.mitigate(ctx, req, report, &acc)
	return acc.result(report)
}

// gather 搜索并在摘要过短时抓取原文补充，返回拼接后的文本
func (e *RiskEngine) gather(ctx context.Context, query string) (string, error) {
	resp, err := e.src.Search(ctx, query, riskSearchResults)
	if err != nil {
		return "", err
	}
	return enrich(ctx, e.src, resp), nil
}

func enrich(ctx context.Context, src Sources, resp *search.Response) string {
	var sb strings.Builder
	enriched := 0
	for _, r := range resp.Results {
		content := r.Text()
		if len(r.Content) < minSnippetLength && r.URL != "" && enriched < maxEnrichPages {
			enriched++
			if page, err := src.Scrape(ctx, r.URL); err == nil && len(page.Text) > len(content) {
				content = r.Title + "\n" + page.Text
			} else if err != nil {
				logger.Log.Debugf("抓取 %s 失败: %v", r.URL, err)
			}
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// overallRisk 可用类别中的最高等级
func overallRisk(cats []model.CategoryScore) model.RiskLevel {
	var levels []model.RiskLevel
	for _, c := range cats {
		if c.Available {
			levels = append(levels, c.Level)
		}
	}
	return model.MaxRiskLevel(levels...)
}

func scoreWeather(f *weather.Forecast) model.CategoryScore {
	worst, ok := f.Worst()
	if !ok {
		return model.CategoryScore{
			Level:          model.RiskLow,
			Message:        "No forecast data for the trip window",
			Recommendation: "Check weather forecasts closer to departure",
		}
	}

	s := model.CategoryScore{Level: model.RiskLow}
	switch worst.Kind() {
	case weather.KindThunderstorm:
		s.Level = model.RiskHigh
		s.Message = "Thunderstorm conditions forecast: " + worst.Description
		s.Recommendation = "Consider postponing travel or prepare for severe weather"
	case weather.KindSnow:
		s.Level = model.RiskMedium
		s.Message = "Snow conditions forecast: " + worst.Description
		s.Recommendation = "Check road conditions and pack warm clothing"
	case weather.KindRain:
		s.Message = "Rainy conditions forecast: " + worst.Description
		s.Recommendation = "Pack rain gear and waterproof items"
	default:
		s.Message = "Mostly fair conditions: " + worst.Description
		s.Recommendation = "Good weather for travel"
	}
	s.Signals = append(s.Signals, fmt.Sprintf("worst day %s: %s (id %d)",
		worst.Date.Format("2006-01-02"), worst.Description, worst.ConditionID))

	var maxWind float64
	for _, d := range f.Days {
		maxWind = max(maxWind, d.WindSpeed)
	}
	switch {
	case maxWind >= weather.StormWindSpeed:
		s.Level = model.MaxRiskLevel(s.Level, model.RiskHigh)
		s.Signals = append(s.Signals, fmt.Sprintf("storm-force wind %.1f m/s", maxWind))
	case maxWind >= weather.GaleWindSpeed:
		s.Level = model.MaxRiskLevel(s.Level, model.RiskMedium)
		s.Signals = append(s.Signals, fmt.Sprintf("gale-force wind %.1f m/s", maxWind))
	}

	if len(f.Alerts) > 0 {
		s.Level = model.RiskHigh
		s.Message = "Severe weather alert: " + strings.Join(f.Alerts, "; ")
		s.Recommendation = "Monitor official storm warnings and keep travel plans flexible"
		s.Signals = append(s.Signals, f.Alerts...)
	}
	if !f.InRange {
		s.Signals = append(s.Signals, "trip is beyond the forecast horizon; nearest forecast used")
	}
	return s
}

func scoreSafety(text string) model.CategoryScore {
	if severe := matchedKeywords(text, safetySevere); len(severe) > 0 {
		return model.CategoryScore{
			Level:          model.RiskHigh,
			Signals:        severe,
			Message:        "High-severity safety advisory detected",
			Recommendation: "Review official travel advisories and consider alternative destinations",
		}
	}
	matched := matchedKeywords(text, safetyKeywords)
	s := model.CategoryScore{Signals: matched}
	switch n := len(matched); {
	case n > 3:
		s.Level = model.RiskHigh
		s.Message = "Multiple safety concerns detected in recent reports"
		s.Recommendation = "Review travel advisories and consider alternative destinations"
	case n > 1:
		s.Level = model.RiskMedium
		s.Message = "Some safety concerns detected"
		s.Recommendation = "Stay informed about local conditions and follow safety guidelines"
	default:
		s.Level = model.RiskLow
		s.Message = "No major safety concerns detected"
		s.Recommendation = "Standard travel precautions recommended"
	}
	return s
}

func scoreHealth(text string) model.CategoryScore {
	if severe := matchedKeywords(text, healthSevere); len(severe) > 0 {
		return model.CategoryScore{
			Level:          model.RiskHigh,
			Signals:        severe,
			Message:        "Serious health advisory detected",
			Recommendation: "Consult a travel health clinic before departure",
		}
	}
	matched := matchedKeywords(text, healthKeywords)
	s := model.CategoryScore{Signals: matched}
	if len(matched) > 2 {
		s.Level = model.RiskMedium
		s.Message = "Health requirements or advisories detected"
		s.Recommendation = "Check vaccination requirements and health advisories"
	} else {
		s.Level = model.RiskLow
		s.Message = "No major health concerns detected"
		s.Recommendation = "Standard health precautions recommended"
	}
	return s
}

type mitigationReply struct {
	Summary    string   `json:"summary"`
	Mitigation []string `json:"mitigation"`
}

// mitigate 通过推理生成缓解建议，失败时退回规则建议
func (e *RiskEngine) mitigate(ctx context.Context, req model.TripRequest, report *model.RiskReport, acc *accumulator) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Destination: %s\nDates: %s\nOverall risk: %s\n", req.Destination, req.DateRange(), report.Overall)
	for _, c := range report.Categories {
		if !c.Available {
			fmt.Fprintf(&sb, "- %s: unavailable\n", c.Category)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s, %s (signals: %s)\n", c.Category, c.Level, c.Message, strings.Join(c.Signals, ", "))
	}

	var reply mitigationReply
	err := reasoning.InvokeJSON(ctx, e.llm, reasoning.Prompt{
		Role: "Travel Risk Assessment Specialist",
		Goal: "Give travelers concrete, proportionate safety advice",
		Task: `Based on the scored risk categories, write a one-paragraph summary and 3-5 mitigation steps.
Return JSON: {"summary": "...", "mitigation": ["...", "..."]}`,
		Context: sb.String(),
	}, &reply)
	if err == nil && len(reply.Mitigation) > 0 {
		acc.ok(sourceReasoning)
		report.Summary = reply.Summary
		report.Mitigation = reply.Mitigation
		return
	}
	if err == nil {
		err = fmt.Errorf("%w: empty mitigation", model.ErrReasoningUnavailable)
	}
	logger.Log.Warnf("风险缓解建议生成失败，使用规则建议: %v", err)
	acc.miss(sourceReasoning, err)
	report.Mitigation = ruleMitigation(report)
	report.Summary = fmt.Sprintf("Overall risk for %s is %s.", req.Destination, report.Overall)
}

func ruleMitigation(report *model.RiskReport) []string {
	var out []string
	for _, c := range report.Categories {
		if c.Available && c.Level != model.RiskLow && c.Recommendation != "" {
			out = append(out, c.Recommendation)
		}
	}
	out = append(out,
		"Register with your embassy and keep copies of travel documents",
		"Purchase travel insurance that covers medical evacuation",
	)
	return out
}
