// Package translate Google Cloud Translation v2 客户端
package translate

import (
	"context"
	"errors"
	"fmt"
	"html"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	translatev2 "google.golang.org/api/translate/v2"

	"github.com/iWorld-y/trip_radar/internal/upstream"
)

// maxBatch v2 接口单次最多 128 段文本
const maxBatch = 128

// Client 翻译客户端
type Client struct {
	svc *translatev2.Service
}

// NewClient 创建翻译客户端，endpoint 为空时使用官方地址
func NewClient(ctx context.Context, apiKey, endpoint string) (*Client, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := translatev2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create translate service failed: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Translate 批量翻译为目标语言，返回结果与输入一一对应
func (c *Client) Translate(ctx context.Context, texts []string, target string) ([]string, error) {
	out := make([]string, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))
		resp, err := c.svc.Translations.List(texts[start:end], target).
			Format("text").
			Source("en").
			Context(ctx).
			Do()
		if err != nil {
			return nil, wrapError(err)
		}
		if len(resp.Translations) != end-start {
			return nil, fmt.Errorf("translate returned %d results for %d texts", len(resp.Translations), end-start)
		}
		for _, tr := range resp.Translations {
			out = append(out, html.UnescapeString(tr.TranslatedText))
		}
	}
	return out, nil
}

// wrapError 将 googleapi 错误转换为 upstream.StatusError，保留 429 语义
func wrapError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &upstream.StatusError{Provider: "google-translate", Code: gerr.Code, Body: gerr.Message}
	}
	return fmt.Errorf("translate request failed: %w", err)
}
