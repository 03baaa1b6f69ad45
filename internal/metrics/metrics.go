// Package metrics 编排器与网关的 prometheus 指标。
// 所有方法对 nil *Metrics 安全，未启用指标时直接传 nil。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trip_radar"

// 任务状态迁移
const (
	StateDispatched = "dispatched"
	StateSucceeded  = "succeeded"
	StateDegraded   = "degraded"
	StateFailed     = "failed"
	StateTimedOut   = "timed_out"
)

// 网关请求结果
const (
	OutcomeCacheHit    = "cache_hit"
	OutcomeShared      = "shared"
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeRateLimited = "rate_limited"
	OutcomeTimeout     = "timeout"
)

// Metrics 指标集合，使用独立 Registry
type Metrics struct {
	registry *prometheus.Registry

	taskTransitions *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
	reports         prometheus.Counter
	gatewayRequests *prometheus.CounterVec
	upstreamCalls   *prometheus.CounterVec
	reasoningCalls  *prometheus.CounterVec
}

// New 创建并注册全部指标
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		taskTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_transitions_total",
				Help:      "Analysis task state transitions",
			},
			[]string{"analysis", "state"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "task_duration_seconds",
				Help:      "Time from dispatch to terminal state per analysis",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
			},
			[]string{"analysis", "status"},
		),
		reports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Intelligence reports produced",
		}),
		gatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_requests_total",
				Help:      "Gateway fetches by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		upstreamCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_upstream_calls_total",
				Help:      "Calls actually dispatched to an upstream provider",
			},
			[]string{"provider"},
		),
		reasoningCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reasoning_calls_total",
				Help:      "Reasoning invocations by status",
			},
			[]string{"status"},
		),
	}
	m.registry.MustRegister(
		m.taskTransitions,
		m.taskDuration,
		m.reports,
		m.gatewayRequests,
		m.upstreamCalls,
		m.reasoningCalls,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry 返回底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TaskTransition 记录一次任务状态迁移
func (m *Metrics) TaskTransition(analysis, state string) {
	if m == nil {
		return
	}
	m.taskTransitions.WithLabelValues(analysis, state).Inc()
}

// ObserveTask 记录任务耗时
func (m *Metrics) ObserveTask(analysis, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.taskDuration.WithLabelValues(analysis, status).Observe(d.Seconds())
}

// ReportProduced 报告计数
func (m *Metrics) ReportProduced() {
	if m == nil {
		return
	}
	m.reports.Inc()
}

// GatewayOutcome 记录一次网关请求结果
func (m *Metrics) GatewayOutcome(provider, outcome string) {
	if m == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(provider, outcome).Inc()
}

// UpstreamCall 记录一次真实的上游调用
func (m *Metrics) UpstreamCall(provider string) {
	if m == nil {
		return
	}
	m.upstreamCalls.WithLabelValues(provider).Inc()
}

// ReasoningCall 记录推理调用
func (m *Metrics) ReasoningCall(status string) {
	if m == nil {
		return
	}
	m.reasoningCalls.WithLabelValues(status).Inc()
}

// TaskTransitions 读取迁移计数，测试与诊断使用
func (m *Metrics) TaskTransitions(analysis, state string) prometheus.Counter {
	return m.taskTransitions.WithLabelValues(analysis, state)
}

// UpstreamCalls 读取上游调用计数
func (m *Metrics) UpstreamCalls(provider string) prometheus.Counter {
	return m.upstreamCalls.WithLabelValues(provider)
}

// GatewayRequests 读取网关请求计数
func (m *Metrics) GatewayRequests(provider, outcome string) prometheus.Counter {
	return m.gatewayRequests.WithLabelValues(provider, outcome)
}
