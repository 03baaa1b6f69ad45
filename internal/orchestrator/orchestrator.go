// Package orchestrator 情报编排：并发调度四个分析引擎，按任务限时，
// 容忍任意子集失败，并汇总为一份报告和能力清单。
package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/iWorld-y/trip_radar/internal/engine"
	"github.com/iWorld-y/trip_radar/internal/logger"
	"github.com/iWorld-y/trip_radar/internal/metrics"
	"github.com/iWorld-y/trip_radar/internal/model"
)

const (
	DefaultDeadline      = 60 * time.Second
	DefaultMaxConcurrent = 4

	reasonDisabled     = "intelligence disabled"
	reasonNotRequested = "not requested"
)

// TaskBounds 单个分析任务的超时上下限，零值表示不限制
type TaskBounds struct {
	Min time.Duration
	Max time.Duration
}

// Config 编排器配置
type Config struct {
	Deadline      time.Duration
	MaxConcurrent int
	Tasks         map[model.AnalysisType]TaskBounds
}

// Orchestrator 情报编排器，可被多个请求并发使用
type Orchestrator struct {
	cfg     Config
	engines map[model.AnalysisType]engine.Engine
	metrics *metrics.Metrics
}

// New 创建编排器，engines 按 Type() 建立查找表
func New(cfg Config, m *metrics.Metrics, engines ...engine.Engine) *Orchestrator {
	if cfg.Deadline <= 0 {
		cfg.Deadline = DefaultDeadline
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	o := &Orchestrator{
		cfg:     cfg,
		engines: make(map[model.AnalysisType]engine.Engine, len(engines)),
		metrics: m,
	}
	for _, e := range engines {
		o.engines[e.Type()] = e
	}
	return o
}

type taskResult struct {
	task   model.AnalysisTask
	result *model.AnalysisResult
}

// ProduceReport 生成情报报告。只有请求非法时返回错误，
// 其余情况总是返回报告，截止时仍未完成的任务记为 Failed(timeout)。
// deadline <= 0 时使用配置的默认截止时间。
func (o *Orchestrator) ProduceReport(ctx context.Context, req model.TripRequest, deadline time.Duration) (*model.IntelligenceReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if deadline <= 0 {
		deadline = o.cfg.Deadline
	}

	report := &model.IntelligenceReport{
		ID:        uuid.NewString(),
		Request:   req,
		Results:   make(map[model.AnalysisType]*model.AnalysisResult),
		StartedAt: time.Now(),
	}
	log := logger.Log.WithFields(logrus.Fields{"report": report.ID, "destination": req.Destination})

	requested := req.Requested()
	if len(requested) == 0 {
		log.Info("未开启情报分析，跳过全部任务")
		report.Manifest = model.BuildManifest(report.Results, reasonDisabled)
		report.CompletedAt = time.Now()
		o.metrics.ReportProduced()
		return report, nil
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()
	cutoff, _ := ctx.Deadline()

	sem := semaphore.NewWeighted(int64(o.cfg.MaxConcurrent))
	done := make(chan taskResult, len(requested))
	for _, t := range requested {
		t := t
		task := model.AnalysisTask{
			ID:       uuid.NewString(),
			Type:     t,
			Request:  req,
			Deadline: cutoff,
		}
		timeout := o.taskTimeout(t, len(requested), deadline)
		go func() {
			if err := sem.Acquire(ctx, 1); err != nil {
				// 截止前没拿到并发名额
				res := model.Failed(t, model.KindTimeout, fmt.Sprintf("%s: deadline of %s exceeded before dispatch", model.ErrTimeout, deadline))
				res.Elapsed = time.Since(report.StartedAt)
				o.record(log, task, res)
				done <- taskResult{task: task, result: res}
				return
			}
			defer sem.Release(1)
			done <- taskResult{task: task, result: o.run(ctx, task, timeout, log)}
		}()
	}

	// 每条路径都受 ctx 约束，截止后所有任务都会很快给出终态
	for range requested {
		r := <-done
		report.Results[r.task.Type] = r.result
	}

	report.Manifest = model.BuildManifest(report.Results, reasonNotRequested)
	report.CompletedAt = time.Now()
	o.metrics.ReportProduced()
	log.WithField("elapsed", report.CompletedAt.Sub(report.StartedAt).Round(time.Millisecond)).Info("情报报告生成完成")
	return report, nil
}

// run 在独立超时内执行单个引擎。引擎未按时返回时直接记为超时，
// 引擎 goroutine 随上下文取消自行退出。
func (o *Orchestrator) run(ctx context.Context, task model.AnalysisTask, timeout time.Duration, log *logrus.Entry) *model.AnalysisResult {
	start := time.Now()
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if d, ok := tctx.Deadline(); ok {
		task.Deadline = d
	}

	log.WithFields(logrus.Fields{"analysis": task.Type, "task": task.ID, "timeout": timeout}).Debug("任务已派发")
	o.metrics.TaskTransition(string(task.Type), metrics.StateDispatched)

	out := make(chan *model.AnalysisResult, 1)
	go func() {
		out <- o.analyze(tctx, task)
	}()

	var res *model.AnalysisResult
	select {
	case res = <-out:
	case <-tctx.Done():
		res = model.Failed(task.Type, model.KindTimeout, fmt.Sprintf("%s: task exceeded %s", model.ErrTimeout, timeout))
	}
	res.Elapsed = time.Since(start)
	o.record(log, task, res)
	return res
}

// analyze 调用引擎，panic 转为 Failed(internal)
func (o *Orchestrator) analyze(ctx context.Context, task model.AnalysisTask) (res *model.AnalysisResult) {
	e, ok := o.engines[task.Type]
	if !ok {
		return model.Failed(task.Type, model.KindInternal, "no engine registered for "+string(task.Type))
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("分析任务 [%s] panic: %v\n%s", task.Type, r, debug.Stack())
			res = model.Failed(task.Type, model.KindInternal, fmt.Sprintf("engine panic: %v", r))
		}
	}()
	res = e.Analyze(ctx, task)
	if res == nil {
		return model.Failed(task.Type, model.KindInternal, "engine returned no result")
	}
	return res
}

// record 输出终态日志与指标
func (o *Orchestrator) record(log *logrus.Entry, task model.AnalysisTask, res *model.AnalysisResult) {
	state := stateOf(res)
	entry := log.WithFields(logrus.Fields{
		"analysis": task.Type,
		"task":     task.ID,
		"state":    state,
		"elapsed":  res.Elapsed.Round(time.Millisecond),
	})
	switch res.Status {
	case model.StatusSuccess:
		entry.Info("分析任务完成")
	case model.StatusDegraded:
		entry.WithField("missing", res.Missing).Warnf("分析任务降级完成: %s", res.Reason)
	default:
		entry.Errorf("分析任务失败: %s", res.Reason)
	}
	o.metrics.TaskTransition(string(task.Type), state)
	o.metrics.ObserveTask(string(task.Type), string(res.Status), res.Elapsed)
}

func stateOf(res *model.AnalysisResult) string {
	switch {
	case res.Status == model.StatusSuccess:
		return metrics.StateSucceeded
	case res.Status == model.StatusDegraded:
		return metrics.StateDegraded
	case res.Kind == model.KindTimeout:
		return metrics.StateTimedOut
	default:
		return metrics.StateFailed
	}
}

// taskTimeout 将总时限按并发批次平分，再按任务上下限修正，且不超过总时限
func (o *Orchestrator) taskTimeout(t model.AnalysisType, n int, deadline time.Duration) time.Duration {
	waves := (n + o.cfg.MaxConcurrent - 1) / o.cfg.MaxConcurrent
	timeout := deadline / time.Duration(max(waves, 1))
	if b, ok := o.cfg.Tasks[t]; ok {
		if b.Min > 0 && timeout < b.Min {
			timeout = b.Min
		}
		if b.Max > 0 && timeout > b.Max {
			timeout = b.Max
		}
	}
	return min(timeout, deadline)
}
