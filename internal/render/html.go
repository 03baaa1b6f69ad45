package render

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/iWorld-y/trip_radar/internal/model"
)

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format(time.DateOnly) },
	"usd":  func(v float64) string { return fmt.Sprintf("$%.0f", v) },
	"pct":  func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
}

var reportTpl = template.Must(template.New("report").Funcs(funcs).Parse(htmlTpl))

// HTML 渲染报告页面
func HTML(w io.Writer, r *model.IntelligenceReport) error {
	return reportTpl.Execute(w, newView(r))
}

const htmlTpl = `
<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>旅行情报雷达 | {{.Report.Request.Destination}}</title>
    <style>
        :root {
            --primary-color: #2563eb;
            --bg-color: #f8fafc;
            --card-bg: #ffffff;
            --text-main: #1e293b;
            --text-secondary: #64748b;
            --border-color: #e2e8f0;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            background-color: var(--bg-color);
            color: var(--text-main);
            line-height: 1.6;
            margin: 0;
            padding: 20px;
        }
        .container { max-width: 900px; margin: 0 auto; }
        header { text-align: center; margin-bottom: 40px; padding: 20px 0; }
        h1 { font-size: 2.2rem; margin: 0 0 10px 0; }
        .date-info { color: var(--text-secondary); }
        .card {
            background: var(--card-bg);
            border-radius: 12px;
            padding: 24px;
            margin-bottom: 30px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.05);
            border: 1px solid var(--border-color);
        }
        .card-header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            margin-bottom: 16px;
            border-bottom: 1px solid #f1f5f9;
            padding-bottom: 12px;
        }
        .card-title { font-size: 1.5rem; font-weight: 800; color: #0f172a; }
        .status { padding: 4px 12px; border-radius: 20px; font-weight: bold; }
        .status-success { background: #dcfce7; color: #166534; }
        .status-degraded { background: #fef9c3; color: #854d0e; }
        .status-failed { background: #fee2e2; color: #991b1b; }
        .status-skipped { background: #f1f5f9; color: #64748b; }
        .reason { color: var(--text-secondary); font-size: 0.9rem; margin-bottom: 12px; }
        .unavailable { color: #94a3b8; font-style: italic; }
        table { width: 100%; border-collapse: collapse; font-size: 0.95rem; }
        th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #f1f5f9; }
        .level-HIGH { color: #b91c1c; font-weight: bold; }
        .level-MEDIUM { color: #b45309; font-weight: bold; }
        .level-LOW { color: #15803d; }
        ul { padding-left: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>📡 旅行情报雷达</h1>
            <div class="date-info">{{.Report.Request.Origin}} → {{.Report.Request.Destination}} • {{.Date}} • 生成耗时 {{.Elapsed}}</div>
        </header>

        {{range .Sections}}
        <div class="card">
            <div class="card-header">
                <div class="card-title">{{.Title}}</div>
                <div class="status status-{{.Entry.Status}}">{{.Entry.Status}}</div>
            </div>
            {{if .Entry.Reason}}<div class="reason">{{.Entry.Reason}}</div>{{end}}

            {{with .Risk}}
            <p>总体风险：<span class="level-{{.Overall}}">{{.Overall}}</span></p>
            <table>
                <tr><th>类别</th><th>等级</th><th>说明</th></tr>
                {{range .Categories}}
                <tr>
                    <td>{{.Category}}</td>
                    {{if .Available}}
                    <td class="level-{{.Level}}">{{.Level}}</td><td>{{.Message}}</td>
                    {{else}}
                    <td class="unavailable" colspan="2">unavailable</td>
                    {{end}}
                </tr>
                {{end}}
            </table>
            {{if .Summary}}<p>{{.Summary}}</p>{{end}}
            <ul>{{range .Mitigation}}<li>{{.}}</li>{{end}}</ul>
            <p>🚨 {{range $i, $c := .EmergencyContacts}}{{if $i}} • {{end}}{{$c}}{{end}}</p>
            {{end}}

            {{with .Crowd}}
            <p>置信度 {{pct .Confidence}}</p>
            <table>
                <tr><th>景点</th><th>推荐时段</th><th>避开时段</th></tr>
                {{range .Attractions}}
                <tr>
                    <td>{{.Name}}{{if .Indoor}} 🏠{{end}}</td>
                    <td>{{date .Recommended.Date}} {{.Recommended.Slot}} ({{.Recommended.Level}})</td>
                    <td>{{date .Avoid.Date}} {{.Avoid.Slot}} ({{.Avoid.Level}})</td>
                </tr>
                {{end}}
            </table>
            {{if .Alternatives}}<p>人少的替代去处：{{range $i, $a := .Alternatives}}{{if $i}}、{{end}}{{$a}}{{end}}</p>{{end}}
            <ul>{{range .Tips}}<li>{{.}}</li>{{end}}</ul>
            {{end}}

            {{with .Price}}
            <table>
                <tr><th>类别</th><th>中位价</th><th>趋势</th><th>建议</th><th>预订窗口</th></tr>
                {{range .Categories}}
                <tr>
                    <td>{{.Category}}</td>
                    {{if .Available}}
                    <td>{{usd .Median}}</td>
                    <td>{{.Trend}}</td>
                    <td>{{.Advice}}{{with .SuggestedDate}} → {{date .}}{{end}}</td>
                    <td>{{.Window.Note}}</td>
                    {{else}}
                    <td class="unavailable" colspan="4">unavailable: {{.Reason}}</td>
                    {{end}}
                </tr>
                {{end}}
            </table>
            {{end}}

            {{with .Language}}
            <p>当地语言：{{.Language}} ({{.LanguageCode}})</p>
            {{if .Notice}}<p class="unavailable">{{.Notice}}</p>{{end}}
            <table>
                <tr><th>场景</th><th>短语</th><th>译文</th><th>发音</th></tr>
                {{range .Phrases}}
                <tr>
                    <td>{{.Category}}</td>
                    <td>{{.Source}}</td>
                    <td>{{if .TranslationAvailable}}{{.Translation}}{{else}}<span class="unavailable">未翻译</span>{{end}}</td>
                    <td>{{.Pronunciation}}</td>
                </tr>
                {{end}}
            </table>
            <ul>{{range .CulturalNotes}}<li>{{.}}</li>{{end}}</ul>
            {{end}}

            {{if not .Available}}<p class="unavailable">unavailable</p>{{end}}
        </div>
        {{end}}
    </div>
</body>
</html>
`
