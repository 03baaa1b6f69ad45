package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/trip_radar/internal/bootstrap"
	"github.com/iWorld-y/trip_radar/internal/config"
	"github.com/iWorld-y/trip_radar/internal/logger"
	"github.com/iWorld-y/trip_radar/internal/model"
	"github.com/iWorld-y/trip_radar/internal/render"
)

type planOptions struct {
	origin         string
	destination    string
	start          string
	end            string
	interests      string
	analyses       []string
	noIntelligence bool
	deadline       time.Duration
	htmlPath       string
	asJSON         bool
}

func planCmd() *cobra.Command {
	var opts planOptions
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "生成一次行程的情报报告",
		Example: `  trip_radar plan --from "New York" --to Tokyo --start 2025-06-01 --end 2025-06-07 --interests "food, temples"
  trip_radar plan --from Paris --to Rome --start 2025-09-10 --end 2025-09-12 --analyses risk,price --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return fmt.Errorf("无法加载配置文件: %w", err)
			}
			if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
				return fmt.Errorf("无法初始化日志: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runPlan(ctx, cmd, cfg, req, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.origin, "from", "", "出发地")
	f.StringVar(&opts.destination, "to", "", "目的地")
	f.StringVar(&opts.start, "start", "", "出发日期 (YYYY-MM-DD)")
	f.StringVar(&opts.end, "end", "", "返回日期 (YYYY-MM-DD)")
	f.StringVar(&opts.interests, "interests", "", "兴趣，自由文本")
	f.StringSliceVar(&opts.analyses, "analyses", nil, "只运行指定分析 (risk,crowd,price,language)")
	f.BoolVar(&opts.noIntelligence, "no-intelligence", false, "关闭情报分析")
	f.DurationVar(&opts.deadline, "deadline", 0, "整体截止时间，默认使用配置")
	f.StringVar(&opts.htmlPath, "html", "", "同时输出 HTML 报告到该路径")
	f.BoolVar(&opts.asJSON, "json", false, "以 JSON 输出报告")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// request 将命令行参数转换为行程请求
func (o planOptions) request() (model.TripRequest, error) {
	req := model.TripRequest{
		Origin:       strings.TrimSpace(o.origin),
		Destination:  strings.TrimSpace(o.destination),
		Interests:    o.interests,
		Intelligence: !o.noIntelligence,
	}
	var err error
	if req.StartDate, err = time.Parse(time.DateOnly, o.start); err != nil {
		return req, fmt.Errorf("%w: invalid start date %q", model.ErrInvalidRequest, o.start)
	}
	if req.EndDate, err = time.Parse(time.DateOnly, o.end); err != nil {
		return req, fmt.Errorf("%w: invalid end date %q", model.ErrInvalidRequest, o.end)
	}
	for _, a := range o.analyses {
		t, err := model.ParseAnalysisType(a)
		if err != nil {
			return req, err
		}
		req.Analyses = append(req.Analyses, t)
	}
	return req, req.Validate()
}

func runPlan(ctx context.Context, cmd *cobra.Command, cfg *config.Config, req model.TripRequest, opts planOptions) error {
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Log.Infof("正在分析行程 %s -> %s (%s)...", req.Origin, req.Destination, req.DateRange())
	report, err := app.Orchestrator.ProduceReport(ctx, req, opts.deadline)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else if err := render.Text(out, report); err != nil {
		return err
	}

	if opts.htmlPath != "" {
		if err := render.WriteHTMLFile(opts.htmlPath, report); err != nil {
			return fmt.Errorf("生成 HTML 失败: %w", err)
		}
		logger.Log.Infof("✅ 旅行情报报告已生成: %s", opts.htmlPath)
	}
	return nil
}
