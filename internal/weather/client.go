// Package weather OpenWeatherMap 预报客户端
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/iWorld-y/trip_radar/internal/upstream"
)

// DefaultBaseURL OpenWeatherMap 接口地址
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Client OpenWeatherMap 客户端
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient 创建天气客户端
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// DayCondition 某一天最严重的天气状况
type DayCondition struct {
	Date        time.Time `json:"date"`
	ConditionID int       `json:"condition_id"`
	Main        string    `json:"main"`
	Description string    `json:"description"`
	TempMin     float64   `json:"temp_min"`
	TempMax     float64   `json:"temp_max"`
	WindSpeed   float64   `json:"wind_speed"` // m/s
}

// Kind 天气大类
func (d DayCondition) Kind() Kind {
	return KindOf(d.ConditionID)
}

// Forecast 行程期间的天气
type Forecast struct {
	Location string         `json:"location"`
	Country  string         `json:"country"`
	Days     []DayCondition `json:"days"`
	Alerts   []string       `json:"alerts,omitempty"`
	// InRange 为 false 表示行程超出预报范围，Days 为最近可得的预报
	InRange bool `json:"in_range"`
}

// Worst 返回整个行程中最严重的一天
func (f *Forecast) Worst() (DayCondition, bool) {
	if f == nil || len(f.Days) == 0 {
		return DayCondition{}, false
	}
	worst := f.Days[0]
	for _, d := range f.Days[1:] {
		if worse(d, worst) {
			worst = d
		}
	}
	return worst, true
}

// On 返回指定日期的天气，超出范围时返回最严重的一天
func (f *Forecast) On(day time.Time) (DayCondition, bool) {
	if f == nil {
		return DayCondition{}, false
	}
	y, m, d := day.Date()
	for _, c := range f.Days {
		cy, cm, cd := c.Date.Date()
		if cy == y && cm == m && cd == d {
			return c, true
		}
	}
	return f.Worst()
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
		Weather []struct {
			ID          int    `json:"id"`
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	} `json:"list"`
	City struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

// Forecast 获取 location 在 [start, end] 期间的每日天气
func (c *Client) Forecast(ctx context.Context, location string, start, end time.Time) (*Forecast, error) {
	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if err := upstream.CheckResponse("openweathermap", res); err != nil {
		return nil, err
	}

	var fr forecastResponse
	if err := json.NewDecoder(res.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}
	if len(fr.List) == 0 {
		return nil, fmt.Errorf("openweathermap returned no forecast for %q", location)
	}

	loc := time.FixedZone(fr.City.Country, fr.City.Timezone)
	byDay := make(map[string]*DayCondition)
	for _, item := range fr.List {
		if len(item.Weather) == 0 {
			continue
		}
		at := time.Unix(item.Dt, 0).In(loc)
		day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
		key := day.Format(time.DateOnly)
		cond := DayCondition{
			Date:        day,
			ConditionID: item.Weather[0].ID,
			Main:        item.Weather[0].Main,
			Description: item.Weather[0].Description,
			TempMin:     item.Main.TempMin,
			TempMax:     item.Main.TempMax,
			WindSpeed:   item.Wind.Speed,
		}
		cur, ok := byDay[key]
		if !ok {
			byDay[key] = &cond
			continue
		}
		cur.TempMin = min(cur.TempMin, cond.TempMin)
		cur.TempMax = max(cur.TempMax, cond.TempMax)
		cur.WindSpeed = max(cur.WindSpeed, cond.WindSpeed)
		if worse(cond, *cur) {
			cur.ConditionID, cur.Main, cur.Description = cond.ConditionID, cond.Main, cond.Description
		}
	}

	all := make([]DayCondition, 0, len(byDay))
	for _, d := range byDay {
		all = append(all, *d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date.Before(all[j].Date) })

	f := &Forecast{Location: fr.City.Name, Country: fr.City.Country}
	from := dateOnly(start)
	to := dateOnly(end)
	for _, d := range all {
		if !d.Date.Before(from) && !d.Date.After(to) {
			f.Days = append(f.Days, d)
		}
	}
	f.InRange = len(f.Days) > 0
	if !f.InRange {
		f.Days = all
	}
	f.Alerts = alertsFor(f.Days)
	return f, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
