package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/iWorld-y/trip_radar/internal/gateway"
	"github.com/iWorld-y/trip_radar/internal/logger"
	"github.com/iWorld-y/trip_radar/internal/model"
)

const (
	minPrice           = 10.0
	maxPrice           = 10000.0
	priceSearchResults = 5
	priceSearchLimit   = 4
	maxAlternatives    = 3
)

// 必须带货币标记，避免把日期、门牌号当作价格
var priceRe = regexp.MustCompile(`(?i)(?:\$|usd\s?)\s?((?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?)|((?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?)\s?(?:usd|dollars)`)

// leadTimes 各类别建议的提前预订天数区间 [latest, earliest]
var leadTimes = map[model.PriceCategory][2]int{
	model.PriceFlight:   {21, 60},
	model.PriceHotel:    {7, 30},
	model.PriceActivity: {1, 14},
}

// PriceEngine 价格优化引擎
type PriceEngine struct {
	src        Sources
	windowDays int
	now        func() time.Time
}

// NewPriceEngine 创建价格引擎，windowDays 为请求日期前后的比较窗口
func NewPriceEngine(src Sources, windowDays int) *PriceEngine {
	if windowDays <= 0 {
		windowDays = 3
	}
	return &PriceEngine{src: src, windowDays: windowDays, now: time.Now}
}

// Type implements Engine
func (e *PriceEngine) Type() model.AnalysisType { return model.AnalysisPrice }

// Analyze implements Engine
func (e *PriceEngine) Analyze(ctx context.Context, task model.AnalysisTask) *model.AnalysisResult {
	req := task.Request
	outlook := &model.PriceOutlook{
		Origin:      req.Origin,
		Destination: req.Destination,
		WindowDays:  e.windowDays,
	}

	var acc accumulator
	for _, cat := range model.PriceCategories() {
		co, err := e.category(ctx, req, cat)
		if err != nil {
			logger.Log.Warnf("价格分析 [%s] %s 不可用: %v", req.Destination, cat, err)
			acc.miss(string(cat), err)
		} else {
			acc.ok(string(gateway.ProviderSearch))
		}
		outlook.Categories = append(outlook.Categories, co)
	}

	if len(acc.missing) == len(model.PriceCategories()) {
		return model.Failed(model.AnalysisPrice, model.KindAllSourcesFailed,
			fmt.Sprintf("%s: %s", model.ErrAllSourcesFailed, strings.Join(acc.reasons, "; ")))
	}
	return acc.result(outlook)
}

// category 搜索窗口内每个日期的价格并生成单个类别的展望。
// 返回 error 时 CategoryOutlook 仍带有不可用说明。
func (e *PriceEngine) category(ctx context.Context, req model.TripRequest, cat model.PriceCategory) (model.CategoryOutlook, error) {
	start := dateOf(req.StartDate)
	co := model.CategoryOutlook{
		Category: cat,
		Trend:    model.TrendUnknown,
		Window:   e.bookingWindow(cat, start),
	}

	var (
		mu       sync.Mutex
		obs      []model.DatePrice
		lastErr  error
		failures int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(priceSearchLimit)
	for offset := -e.windowDays; offset <= e.windowDays; offset++ {
		day := start.AddDate(0, 0, offset)
		g.Go(func() error {
			resp, err := e.src.Search(gctx, priceQuery(cat, req, day), priceSearchResults)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				lastErr = err
				return nil
			}
			if prices := extractPrices(strings.Join(resp.Texts(), "\n")); len(prices) > 0 {
				obs = append(obs, model.DatePrice{Date: day, Price: median(prices)})
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(obs) == 0 {
		if lastErr != nil {
			co.Reason = fmt.Sprintf("price search unavailable (%d failed lookups)", failures)
			return co, lastErr
		}
		co.Reason = "no price signals found"
		return co, fmt.Errorf("%w: no %s price signals found", model.ErrUnavailable, cat)
	}

	sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
	co.Available = true
	co.Currency = "USD"
	co.Observations = obs
	if failures > 0 {
		co.Notes = append(co.Notes, fmt.Sprintf("%d of %d date lookups failed", failures, 2*e.windowDays+1))
	}
	co.Notes = append(co.Notes, "Prices are extracted from web search results and are indicative only")

	sorted := make([]float64, len(obs))
	for i, o := range obs {
		sorted[i] = o.Price
	}
	sort.Float64s(sorted)
	co.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	co.Low = sorted[0]
	co.High = sorted[len(sorted)-1]

	requested, ok := priceOn(obs, start)
	if !ok {
		co.Advice = model.AdviceNoData
		co.Notes = append(co.Notes, "No price found for the requested date")
		return co, nil
	}
	co.RequestedPrice = requested
	co.Trend = trendOf(requested, sorted)

	if requested > co.Median {
		cheapest := lowest(obs)
		co.Advice = model.AdviceShiftDates
		co.SuggestedDate = &cheapest.Date
	} else {
		co.Advice = model.AdviceBookNow
	}
	co.Alternatives = alternatives(obs, requested)
	return co, nil
}

func priceQuery(cat model.PriceCategory, req model.TripRequest, day time.Time) string {
	date := day.Format(time.DateOnly)
	switch cat {
	case model.PriceFlight:
		return fmt.Sprintf("flights from %s to %s %s price", req.Origin, req.Destination, date)
	case model.PriceHotel:
		return fmt.Sprintf("hotels in %s %s price per night", req.Destination, date)
	default:
		return fmt.Sprintf("%s tours activities tickets price %s", req.Destination, date)
	}
}

// extractPrices 从文本中提取带货币标记、位于合理区间内的价格
func extractPrices(text string) []float64 {
	var out []float64
	for _, m := range priceRe.FindAllStringSubmatch(text, -1) {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil || v < minPrice || v > maxPrice {
			continue
		}
		out = append(out, v)
	}
	return out
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// trendOf 请求日期价格相对窗口四分位的位置，少于 3 个观测时未知
func trendOf(price float64, sorted []float64) model.PriceTrend {
	if len(sorted) < 3 {
		return model.TrendUnknown
	}
	q25 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q75 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	switch {
	case price < q25:
		return model.TrendBelow
	case price > q75:
		return model.TrendAbove
	default:
		return model.TrendWithin
	}
}

func priceOn(obs []model.DatePrice, day time.Time) (float64, bool) {
	for _, o := range obs {
		if o.Date.Equal(day) {
			return o.Price, true
		}
	}
	return 0, false
}

// lowest 最低价日期，同价取较早
func lowest(obs []model.DatePrice) model.DatePrice {
	best := obs[0]
	for _, o := range obs[1:] {
		if o.Price < best.Price || (o.Price == best.Price && o.Date.Before(best.Date)) {
			best = o
		}
	}
	return best
}

// alternatives 比请求日期便宜的日期，按价格升序取前几个
func alternatives(obs []model.DatePrice, requested float64) []model.DatePrice {
	var out []model.DatePrice
	for _, o := range obs {
		if o.Price < requested {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Date.Before(out[j].Date)
	})
	if len(out) > maxAlternatives {
		out = out[:maxAlternatives]
	}
	return out
}

// bookingWindow 按提前天数给出预订时间窗，已过去的部分截到今天
func (e *PriceEngine) bookingWindow(cat model.PriceCategory, start time.Time) model.BookingWindow {
	lead := leadTimes[cat]
	today := dateOf(e.now())
	w := model.BookingWindow{
		Earliest: start.AddDate(0, 0, -lead[1]),
		Latest:   start.AddDate(0, 0, -lead[0]),
	}
	switch {
	case w.Latest.Before(today):
		w.Earliest, w.Latest = today, today
		w.Note = "Recommended booking window has passed; book as soon as possible"
	case w.Earliest.Before(today):
		w.Earliest = today
		w.Note = fmt.Sprintf("Book before %s", w.Latest.Format(time.DateOnly))
	default:
		w.Note = fmt.Sprintf("Book between %s and %s", w.Earliest.Format(time.DateOnly), w.Latest.Format(time.DateOnly))
	}
	return w
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
