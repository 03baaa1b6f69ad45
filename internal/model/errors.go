package model

import (
	"context"
	"errors"
)

// 错误分类
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrRateLimited          = errors.New("rate limited")
	ErrUnavailable          = errors.New("provider unavailable")
	ErrTimeout              = errors.New("timeout")
	ErrReasoningUnavailable = errors.New("reasoning unavailable")
	ErrAllSourcesFailed     = errors.New("all sources failed")
	ErrUnknownProvider      = errors.New("unknown provider")
)

// ErrorKind 可序列化的错误类型标签，记录在 Degraded/Failed 结果上
type ErrorKind string

const (
	KindNone                 ErrorKind = ""
	KindInvalidRequest       ErrorKind = "invalid_request"
	KindRateLimited          ErrorKind = "rate_limited"
	KindUnavailable          ErrorKind = "unavailable"
	KindTimeout              ErrorKind = "timeout"
	KindReasoningUnavailable ErrorKind = "reasoning_unavailable"
	KindAllSourcesFailed     ErrorKind = "all_sources_failed"
	KindInternal             ErrorKind = "internal"
)

// KindOf 将错误映射为 ErrorKind
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTimeout
	case errors.Is(err, ErrReasoningUnavailable):
		return KindReasoningUnavailable
	case errors.Is(err, ErrAllSourcesFailed):
		return KindAllSourcesFailed
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrUnknownProvider):
		return KindUnavailable
	default:
		return KindInternal
	}
}
