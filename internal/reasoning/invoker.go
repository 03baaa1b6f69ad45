// Package reasoning 推理调用器：将 (角色, 目标, 任务, 上下文) 发送给大模型并返回文本
package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/trip_radar/internal/config"
	"github.com/iWorld-y/trip_radar/internal/logger"
	"github.com/iWorld-y/trip_radar/internal/metrics"
	dm "github.com/iWorld-y/trip_radar/internal/model"
)

// Prompt 推理请求
type Prompt struct {
	Role    string
	Goal    string
	Task    string
	Context string
}

// Invoker 推理能力，失败返回包装了 ErrReasoningUnavailable 的错误
type Invoker interface {
	Invoke(ctx context.Context, p Prompt) (string, error)
}

// Client 基于 eino ChatModel 的推理客户端
type Client struct {
	chatModel  model.BaseChatModel
	limiter    *rate.Limiter
	retryDelay time.Duration
	metrics    *metrics.Metrics
}

// NewClient 根据配置创建 OpenAI 兼容的推理客户端
func NewClient(ctx context.Context, cfg config.LLMConfig, m *metrics.Metrics) (*Client, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	limit := rate.Limit(float64(cfg.RPM) / 60.0)
	burst := cfg.QPS
	if burst <= 0 {
		burst = 1
	}
	return NewClientWithModel(chatModel, rate.NewLimiter(limit, burst), m), nil
}

// NewClientWithModel 使用已有的 ChatModel 创建客户端
func NewClientWithModel(cm model.BaseChatModel, limiter *rate.Limiter, m *metrics.Metrics) *Client {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Client{
		chatModel:  cm,
		limiter:    limiter,
		retryDelay: 2 * time.Second,
		metrics:    m,
	}
}

// Invoke 调用模型，最多在 429 时重试一次
func (c *Client) Invoke(ctx context.Context, p Prompt) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt(p)},
		{Role: schema.User, Content: userPrompt(p)},
	}

	var lastErr error
	for i := 0; i < 2; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			c.metrics.ReasoningCall("timeout")
			return "", fmt.Errorf("%w: %w", dm.ErrReasoningUnavailable, err)
		}

		resp, err := c.chatModel.Generate(ctx, messages)
		if err == nil {
			c.metrics.ReasoningCall("ok")
			return resp.Content, nil
		}
		lastErr = err
		if !isTooManyRequests(err) || i > 0 {
			break
		}
		logger.Log.Warnf("推理服务限流，%s 后重试", c.retryDelay)
		select {
		case <-ctx.Done():
			c.metrics.ReasoningCall("timeout")
			return "", fmt.Errorf("%w: %w", dm.ErrReasoningUnavailable, ctx.Err())
		case <-time.After(c.retryDelay):
		}
	}
	c.metrics.ReasoningCall("error")
	return "", fmt.Errorf("%w: %w", dm.ErrReasoningUnavailable, lastErr)
}

func isTooManyRequests(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

func systemPrompt(p Prompt) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Role: %s\n", p.Role)
	if p.Goal != "" {
		fmt.Fprintf(&sb, "Goal: %s\n", p.Goal)
	}
	return sb.String()
}

func userPrompt(p Prompt) string {
	var sb strings.Builder
	sb.WriteString(p.Task)
	if p.Context != "" {
		sb.WriteString("\n\nContext:\n")
		sb.WriteString(p.Context)
	}
	return sb.String()
}

// InvokeJSON 调用模型并将结果解析为 JSON，自动去掉 markdown 代码块标记
func InvokeJSON(ctx context.Context, inv Invoker, p Prompt, out any) error {
	p.Task += "\n\n请务必严格按照 JSON 格式返回，不要包含任何 markdown 标记。"
	text, err := inv.Invoke(ctx, p)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(CleanJSON(text)), out); err != nil {
		return fmt.Errorf("%w: json unmarshal: %w", dm.ErrReasoningUnavailable, err)
	}
	return nil
}

// CleanJSON 去掉模型输出中的 ```json 围栏
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Disabled 未配置大模型时使用，所有调用都返回 ErrReasoningUnavailable
type Disabled struct{}

// Invoke implements Invoker
func (Disabled) Invoke(context.Context, Prompt) (string, error) {
	return "", fmt.Errorf("%w: llm not configured", dm.ErrReasoningUnavailable)
}
