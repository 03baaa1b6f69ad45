// Package scrape 网页正文抓取
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/iWorld-y/trip_radar/internal/upstream"
)

// maxTextLength 正文截断长度
const maxTextLength = 8000

// Page 抓取结果
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Text    string `json:"text"`
}

// Client 网页抓取客户端
type Client struct {
	userAgent string
	client    *http.Client
}

// NewClient 创建抓取客户端
func NewClient(userAgent string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

// Scrape 抓取页面并用 readability 提取正文
func (c *Client) Scrape(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if err := upstream.CheckResponse("scrape", res); err != nil {
		return nil, err
	}

	article, err := readability.FromReader(res.Body, u)
	if err != nil {
		return nil, fmt.Errorf("readability parse failed: %w", err)
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	if len(text) > maxTextLength {
		text = text[:maxTextLength]
	}
	return &Page{
		URL:     u.String(),
		Title:   article.Title,
		Excerpt: article.Excerpt,
		Text:    text,
	}, nil
}
