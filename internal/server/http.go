// Package server 情报服务的 HTTP 边界
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/trip_radar/internal/config"
	"github.com/iWorld-y/trip_radar/internal/metrics"
	"github.com/iWorld-y/trip_radar/internal/model"
	"github.com/iWorld-y/trip_radar/internal/render"
)

const (
	operationIntelligence = "/trip_radar.v1.Intelligence/ProduceReport"

	reasonInvalidRequest = "INVALID_REQUEST"
	reasonInternal       = "INTERNAL"
)

// Producer 生成情报报告，由 orchestrator.Orchestrator 实现
type Producer interface {
	ProduceReport(ctx context.Context, req model.TripRequest, deadline time.Duration) (*model.IntelligenceReport, error)
}

// IntelligenceRequest 接口请求体，日期格式为 YYYY-MM-DD
type IntelligenceRequest struct {
	Origin       string   `json:"origin"`
	Destination  string   `json:"destination"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Interests    string   `json:"interests"`
	Intelligence *bool    `json:"intelligence,omitempty"` // 缺省为 true
	Analyses     []string `json:"analyses,omitempty"`
	Deadline     string   `json:"deadline,omitempty"` // 如 "30s"
}

// TripRequest 转换为行程请求，返回可选的截止时间
func (r *IntelligenceRequest) TripRequest() (model.TripRequest, time.Duration, error) {
	req := model.TripRequest{
		Origin:       strings.TrimSpace(r.Origin),
		Destination:  strings.TrimSpace(r.Destination),
		Interests:    r.Interests,
		Intelligence: r.Intelligence == nil || *r.Intelligence,
	}
	var err error
	if req.StartDate, err = time.Parse(time.DateOnly, r.StartDate); err != nil {
		return req, 0, errors.BadRequest(reasonInvalidRequest, "start_date must be YYYY-MM-DD")
	}
	if req.EndDate, err = time.Parse(time.DateOnly, r.EndDate); err != nil {
		return req, 0, errors.BadRequest(reasonInvalidRequest, "end_date must be YYYY-MM-DD")
	}
	for _, a := range r.Analyses {
		t, err := model.ParseAnalysisType(a)
		if err != nil {
			return req, 0, errors.BadRequest(reasonInvalidRequest, err.Error())
		}
		req.Analyses = append(req.Analyses, t)
	}
	var deadline time.Duration
	if r.Deadline != "" {
		if deadline, err = time.ParseDuration(r.Deadline); err != nil || deadline <= 0 {
			return req, 0, errors.BadRequest(reasonInvalidRequest, "deadline must be a positive duration")
		}
	}
	return req, deadline, nil
}

type handler struct {
	producer Producer
	log      *log.Helper
}

// NewHTTPServer 创建 HTTP 服务：情报接口、健康检查与 /metrics
func NewHTTPServer(c config.ServerConfig, p Producer, m *metrics.Metrics, logger log.Logger) *khttp.Server {
	var opts = []khttp.ServerOption{
		khttp.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Addr != "" {
		opts = append(opts, khttp.Address(c.Addr))
	}
	if c.Timeout > 0 {
		opts = append(opts, khttp.Timeout(c.Timeout))
	}

	srv := khttp.NewServer(opts...)
	h := &handler{producer: p, log: log.NewHelper(logger)}
	r := srv.Route("/api/v1")
	r.POST("/intelligence", h.intelligence)
	r.GET("/health", h.health)
	srv.Handle("/metrics", m.Handler())
	return srv
}

func (h *handler) intelligence(ctx khttp.Context) error {
	var in IntelligenceRequest
	if err := ctx.Bind(&in); err != nil {
		return errors.BadRequest(reasonInvalidRequest, err.Error())
	}
	khttp.SetOperation(ctx, operationIntelligence)
	next := ctx.Middleware(func(c context.Context, req any) (any, error) {
		return h.produce(c, req.(*IntelligenceRequest))
	})
	out, err := next(ctx, &in)
	if err != nil {
		return err
	}
	report := out.(*model.IntelligenceReport)

	if ctx.Query().Get("format") == "html" {
		w := ctx.Response()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		return render.HTML(w, report)
	}
	return ctx.Result(http.StatusOK, report)
}

func (h *handler) produce(ctx context.Context, in *IntelligenceRequest) (*model.IntelligenceReport, error) {
	req, deadline, err := in.TripRequest()
	if err != nil {
		return nil, err
	}
	report, err := h.producer.ProduceReport(ctx, req, deadline)
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return nil, errors.BadRequest(reasonInvalidRequest, err.Error())
	case err != nil:
		h.log.WithContext(ctx).Errorf("produce report failed: %v", err)
		return nil, errors.InternalServer(reasonInternal, "failed to produce report")
	}
	h.log.WithContext(ctx).Infof("report %s produced for %s", report.ID, req.Destination)
	return report, nil
}

func (h *handler) health(ctx khttp.Context) error {
	return ctx.Result(http.StatusOK, map[string]string{"status": "ok"})
}
