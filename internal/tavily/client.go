package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/iWorld-y/trip_radar/internal/search"
	"github.com/iWorld-y/trip_radar/internal/upstream"
)

const (
	// DefaultBaseURL Tavily 搜索接口地址
	DefaultBaseURL = "https://api.tavily.com/search"

	defaultMaxResults = 5
)

// Client Tavily API 客户端
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient 创建 Tavily 客户端，baseURL 为空时使用官方地址。
// 超时由网关按数据源控制。
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, client: http.DefaultClient}
}

var _ search.Searcher = (*Client)(nil)

// SearchRequest Tavily 请求体，只携带旅行情报用到的参数
type SearchRequest struct {
	Query      string `json:"query"`
	Topic      string `json:"topic"` // general 或 news
	MaxResults int    `json:"max_results"`
}

// SearchResponse Tavily 响应
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchResult Tavily 单条结果
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Search implements search.Searcher
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	body := SearchRequest{Query: req.Query, Topic: req.Topic, MaxResults: req.MaxResults}
	if body.Topic != "news" {
		body.Topic = "general"
	}
	if body.MaxResults <= 0 {
		body.MaxResults = defaultMaxResults
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("tavily: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tavily: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tavily: %w", err)
	}
	defer res.Body.Close()
	if err := upstream.CheckResponse("tavily", res); err != nil {
		return nil, err
	}

	var out SearchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}
	results := make([]search.Result, 0, len(out.Results))
	for _, r := range out.Results {
		if len(results) >= body.MaxResults {
			break
		}
		results = append(results, search.Result{Title: r.Title, URL: r.URL, Content: r.Content, Score: r.Score})
	}
	return &search.Response{Results: results}, nil
}
