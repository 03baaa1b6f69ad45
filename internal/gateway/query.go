package gateway

import (
	"strconv"
	"strings"
	"time"

	"github.com/iWorld-y/trip_radar/internal/reasoning"
)

// ProviderID 外部数据源标识
type ProviderID string

const (
	ProviderWeather   ProviderID = "weather"
	ProviderSearch    ProviderID = "search"
	ProviderScrape    ProviderID = "scrape"
	ProviderTranslate ProviderID = "translate"
	// ProviderReasoning 推理回复，经网关缓存后 TTL 内同一提示得到同一回复
	ProviderReasoning ProviderID = "reasoning"
)

// Providers 全部数据源
func Providers() []ProviderID {
	return []ProviderID{ProviderWeather, ProviderSearch, ProviderScrape, ProviderTranslate, ProviderReasoning}
}

// Query 统一查询结构，各数据源只读取自己关心的字段：
// weather: Location + Start/End; search: Text + MaxResults + Topic;
// scrape: URL; translate: Texts + TargetLang; reasoning: Prompt
type Query struct {
	Text       string
	Texts      []string
	URL        string
	Location   string
	Start      time.Time
	End        time.Time
	TargetLang string
	MaxResults int
	Topic      string
	Prompt     *reasoning.Prompt
}

// Key 返回 (provider, 规范化查询) 缓存键。
// 文本类字段忽略大小写与多余空白；待翻译文本保留大小写。
func (q Query) Key(id ProviderID) string {
	var b strings.Builder
	b.WriteString(string(id))
	field := func(name, v string) {
		if v == "" {
			return
		}
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(v)
	}
	field("q", fold(q.Text))
	if len(q.Texts) > 0 {
		texts := make([]string, len(q.Texts))
		for i, t := range q.Texts {
			texts[i] = collapse(t)
		}
		field("texts", strings.Join(texts, "\x1f"))
	}
	field("url", strings.TrimSpace(q.URL))
	field("loc", fold(q.Location))
	if !q.Start.IsZero() {
		field("start", q.Start.Format(time.DateOnly))
	}
	if !q.End.IsZero() {
		field("end", q.End.Format(time.DateOnly))
	}
	field("lang", fold(q.TargetLang))
	if q.MaxResults > 0 {
		field("n", strconv.Itoa(q.MaxResults))
	}
	field("topic", fold(q.Topic))
	if q.Prompt != nil {
		field("role", fold(q.Prompt.Role))
		field("prompt", strings.Join([]string{collapse(q.Prompt.Goal), collapse(q.Prompt.Task), collapse(q.Prompt.Context)}, "\x1f"))
	}
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func fold(s string) string {
	return strings.ToLower(collapse(s))
}
