package mdadapter

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	_ "embed"

	"github.com/jgivc/celty/internal/entity"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const (
	reportTitle = "celty report"
	timeLayout  = "2006-01-02 15:04:05"

	statusAdded   = "added"
	statusSkipped = "already submitted"
	emptyCell     = "-"
)

var (
	//go:embed templates/report.md
	reportMarkdownContent string

	//go:embed templates/report.html
	reportPageContent string
)

type counts struct {
	Added   int
	Skipped int
	Failed  int
}

type pageContext struct {
	Title   string
	Content template.HTML
}

type reportRenderer struct {
	md   goldmark.Markdown
	mdT  *texttemplate.Template
	page *template.Template
}

func NewReportRenderer() (*reportRenderer, error) {
	mdT, err := texttemplate.New("report").Funcs(texttemplate.FuncMap{
		"time":   formatTime,
		"cell":   escapeCell,
		"series": seriesName,
		"status": status,
		"counts": countSubmissions,
	}).Parse(reportMarkdownContent)
	if err != nil {
		return nil, fmt.Errorf("cannot parse report template: %w", err)
	}

	page, err := template.New("page").Parse(reportPageContent)
	if err != nil {
		return nil, fmt.Errorf("cannot parse page template: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	return &reportRenderer{
		md:   md,
		mdT:  mdT,
		page: page,
	}, nil
}

func (r *reportRenderer) Markdown(report *entity.Report) ([]byte, error) {
	buf := bytes.Buffer{}

	if err := r.mdT.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("cannot execute template: %w", err)
	}

	return buf.Bytes(), nil
}

// HTML renders the markdown report as a standalone page.
func (r *reportRenderer) HTML(report *entity.Report) ([]byte, error) {
	src, err := r.Markdown(report)
	if err != nil {
		return nil, err
	}

	var content bytes.Buffer
	if err := r.md.Convert(src, &content); err != nil {
		return nil, fmt.Errorf("cannot convert markdown: %w", err)
	}

	buf := bytes.Buffer{}
	if err := r.page.Execute(&buf, &pageContext{Title: reportTitle, Content: template.HTML(content.String())}); err != nil {
		return nil, fmt.Errorf("cannot build page: %w", err)
	}

	return buf.Bytes(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return emptyCell
	}

	return t.Format(timeLayout)
}

func escapeCell(s string) string {
	if s == "" {
		return emptyCell
	}

	s = strings.ReplaceAll(s, "|", `\|`)

	return strings.ReplaceAll(s, "\n", " ")
}

func seriesName(sub *entity.Submission) string {
	return sub.Resolution.SeriesName()
}

func status(sub *entity.Submission) string {
	switch {
	case sub.Skipped:
		return statusSkipped
	case sub.Failed():
		return "failed: " + sub.Err.Error()
	}

	return statusAdded + " (" + sub.GID + ")"
}

func countSubmissions(report *entity.Report) counts {
	added, skipped, failed := report.Count()

	return counts{Added: added, Skipped: skipped, Failed: failed}
}
