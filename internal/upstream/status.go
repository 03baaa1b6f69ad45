// Package upstream 提供外部数据源客户端共用的 HTTP 状态错误
package upstream

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodySnippet 错误信息里保留的响应体长度
const maxBodySnippet = 512

// StatusError 外部接口返回非 2xx 状态
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.Code, e.Body)
}

// RateLimited 是否为 429
func (e *StatusError) RateLimited() bool {
	return e.Code == http.StatusTooManyRequests
}

// Retryable 服务端错误可重试，4xx（除 429）不可重试
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusRequestTimeout
}

// CheckResponse 非 2xx 时读取部分响应体并返回 *StatusError
func CheckResponse(provider string, res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, maxBodySnippet))
	return &StatusError{Provider: provider, Code: res.StatusCode, Body: string(body)}
}

// IsRateLimited 判断 err 链中是否有 429
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.RateLimited()
}
