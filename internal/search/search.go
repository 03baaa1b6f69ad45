package search

import "context"

// Searcher 网页搜索接口，由 tavily 与 searxng 实现
type Searcher interface {
	Search(ctx context.Context, req *Request) (*Response, error)
}

// Request 搜索请求
type Request struct {
	Query      string
	Topic      string // "news" 或 "general"，为空时为 general
	MaxResults int
}

// Response 搜索响应
type Response struct {
	Results []Result
}

// Result 单条搜索结果
type Result struct {
	Title   string
	URL     string
	Content string
	Score   float64
}

// Text 返回结果的可分析文本
func (r Result) Text() string {
	return r.Title + "\n" + r.Content
}

// Texts 返回所有结果的可分析文本
func (r *Response) Texts() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res.Text())
	}
	return out
}
