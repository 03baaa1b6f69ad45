package model

import "time"

// PriceCategory 价格类别
type PriceCategory string

const (
	PriceFlight   PriceCategory = "flight"
	PriceHotel    PriceCategory = "hotel"
	PriceActivity PriceCategory = "activity"
)

// PriceCategories 固定顺序的价格类别
func PriceCategories() []PriceCategory {
	return []PriceCategory{PriceFlight, PriceHotel, PriceActivity}
}

// PriceTrend 请求日期价格相对窗口分布的位置
type PriceTrend string

const (
	TrendBelow   PriceTrend = "below"
	TrendWithin  PriceTrend = "within"
	TrendAbove   PriceTrend = "above"
	TrendUnknown PriceTrend = "unknown"
)

// BookingAdvice 预订时机建议
type BookingAdvice string

const (
	AdviceBookNow    BookingAdvice = "book_now"
	AdviceShiftDates BookingAdvice = "shift_dates"
	AdviceNoData     BookingAdvice = "insufficient_data"
)

// DatePrice 某个日期的价格观测
type DatePrice struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// BookingWindow 建议的预订时间窗
type BookingWindow struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
	Note     string    `json:"note,omitempty"`
}

// CategoryOutlook 单个类别的价格展望，各类别互相独立
type CategoryOutlook struct {
	Category       PriceCategory `json:"category"`
	Available      bool          `json:"available"`
	Reason         string        `json:"reason,omitempty"`
	Currency       string        `json:"currency,omitempty"`
	RequestedPrice float64       `json:"requested_price,omitempty"`
	Median         float64       `json:"median,omitempty"`
	Low            float64       `json:"low,omitempty"`
	High           float64       `json:"high,omitempty"`
	Trend          PriceTrend    `json:"trend"`
	Advice         BookingAdvice `json:"advice,omitempty"`
	SuggestedDate  *time.Time    `json:"suggested_date,omitempty"`
	Window         BookingWindow `json:"booking_window"`
	Alternatives   []DatePrice   `json:"alternatives,omitempty"`
	Observations   []DatePrice   `json:"observations,omitempty"`
	Notes          []string      `json:"notes,omitempty"`
}

// PriceOutlook 价格优化展望
type PriceOutlook struct {
	Origin      string            `json:"origin"`
	Destination string            `json:"destination"`
	WindowDays  int               `json:"window_days"`
	Categories  []CategoryOutlook `json:"categories"`
}

// Analysis implements Payload
func (*PriceOutlook) Analysis() AnalysisType { return AnalysisPrice }

// Category 按类别查找展望
func (p *PriceOutlook) Category(c PriceCategory) (CategoryOutlook, bool) {
	for _, o := range p.Categories {
		if o.Category == c {
			return o, true
		}
	}
	return CategoryOutlook{}, false
}
