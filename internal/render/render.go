// Package render 将情报报告渲染为控制台文本或 HTML 页面
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iWorld-y/trip_radar/internal/model"
)

var titles = map[model.AnalysisType]string{
	model.AnalysisRisk:     "风险评估",
	model.AnalysisCrowd:    "人流预测",
	model.AnalysisPrice:    "价格优化",
	model.AnalysisLanguage: "语言助手",
}

// section 报告中的一节，按清单顺序排列，负载只有一个非空
type section struct {
	Title    string
	Entry    model.ManifestEntry
	Risk     *model.RiskReport
	Crowd    *model.CrowdForecast
	Price    *model.PriceOutlook
	Language *model.LanguageKit
}

// Available 是否有可展示的内容
func (s section) Available() bool {
	return s.Risk != nil || s.Crowd != nil || s.Price != nil || s.Language != nil
}

type view struct {
	Report   *model.IntelligenceReport
	Date     string
	Elapsed  time.Duration
	Sections []section
}

func newView(r *model.IntelligenceReport) view {
	v := view{
		Report:  r,
		Date:    r.Request.DateRange(),
		Elapsed: r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond),
	}
	for _, e := range r.Manifest {
		s := section{Title: titles[e.Analysis], Entry: e}
		if res, ok := r.Result(e.Analysis); ok {
			s.Risk, _ = res.Risk()
			s.Crowd, _ = res.Crowd()
			s.Price, _ = res.Price()
			s.Language, _ = res.Language()
		}
		v.Sections = append(v.Sections, s)
	}
	return v
}

// WriteHTMLFile 渲染 HTML 并写入文件，目录不存在时自动创建
func WriteHTMLFile(path string, r *model.IntelligenceReport) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir failed: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return HTML(f, r)
}

// Text 输出控制台可读的报告
func Text(w io.Writer, r *model.IntelligenceReport) error {
	v := newView(r)
	var sb strings.Builder
	fmt.Fprintf(&sb, "📡 旅行情报 %s -> %s (%s)\n", r.Request.Origin, r.Request.Destination, v.Date)
	fmt.Fprintf(&sb, "报告 %s，耗时 %s\n", r.ID, v.Elapsed)

	for _, s := range v.Sections {
		fmt.Fprintf(&sb, "\n== %s [%s] ==\n", s.Title, s.Entry.Status)
		if s.Entry.Reason != "" {
			fmt.Fprintf(&sb, "  原因: %s\n", s.Entry.Reason)
		}
		switch {
		case s.Risk != nil:
			textRisk(&sb, s.Risk)
		case s.Crowd != nil:
			textCrowd(&sb, s.Crowd)
		case s.Price != nil:
			textPrice(&sb, s.Price)
		case s.Language != nil:
			textLanguage(&sb, s.Language)
		default:
			sb.WriteString("  (unavailable)\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func textRisk(sb *strings.Builder, r *model.RiskReport) {
	fmt.Fprintf(sb, "  总体风险: %s\n", r.Overall)
	for _, c := range r.Categories {
		if !c.Available {
			fmt.Fprintf(sb, "  - %-8s unavailable\n", c.Category)
			continue
		}
		fmt.Fprintf(sb, "  - %-8s %-6s %s\n", c.Category, c.Level, c.Message)
	}
	for _, m := range r.Mitigation {
		fmt.Fprintf(sb, "  * %s\n", m)
	}
	fmt.Fprintf(sb, "  紧急电话: %s\n", strings.Join(r.EmergencyContacts, ", "))
}

func textCrowd(sb *strings.Builder, f *model.CrowdForecast) {
	fmt.Fprintf(sb, "  置信度: %.0f%%\n", f.Confidence*100)
	for _, a := range f.Attractions {
		fmt.Fprintf(sb, "  - %s: 推荐 %s %s (%s), 避开 %s %s (%s)\n", a.Name,
			a.Recommended.Date.Format(time.DateOnly), a.Recommended.Slot, a.Recommended.Level,
			a.Avoid.Date.Format(time.DateOnly), a.Avoid.Slot, a.Avoid.Level)
	}
	for _, t := range f.Tips {
		fmt.Fprintf(sb, "  * %s\n", t)
	}
}

func textPrice(sb *strings.Builder, p *model.PriceOutlook) {
	for _, c := range p.Categories {
		if !c.Available {
			fmt.Fprintf(sb, "  - %-8s unavailable: %s\n", c.Category, c.Reason)
			continue
		}
		fmt.Fprintf(sb, "  - %-8s median $%.0f, trend %s, advice %s", c.Category, c.Median, c.Trend, c.Advice)
		if c.SuggestedDate != nil {
			fmt.Fprintf(sb, " -> %s", c.SuggestedDate.Format(time.DateOnly))
		}
		sb.WriteString("\n")
		fmt.Fprintf(sb, "    %s\n", c.Window.Note)
	}
}

func textLanguage(sb *strings.Builder, k *model.LanguageKit) {
	fmt.Fprintf(sb, "  语言: %s (%s)\n", k.Language, k.LanguageCode)
	if k.Notice != "" {
		fmt.Fprintf(sb, "  注意: %s\n", k.Notice)
	}
	for _, p := range k.Phrases {
		if p.TranslationAvailable {
			fmt.Fprintf(sb, "  - [%s] %s => %s\n", p.Category, p.Source, p.Translation)
		} else {
			fmt.Fprintf(sb, "  - [%s] %s\n", p.Category, p.Source)
		}
	}
	for _, n := range k.CulturalNotes {
		fmt.Fprintf(sb, "  * %s\n", n)
	}
}
