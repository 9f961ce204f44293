package export

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { max-width: 52rem; margin: 2rem auto; padding: 0 1rem; font-family: system-ui, sans-serif; line-height: 1.55; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: .3rem .6rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`

var htmlTmpl = template.Must(template.New("report").Parse(htmlPage))

// WriteReport writes the generated report verbatim to
// <dir>/analysis_report_<ts>.md.
func WriteReport(dir, report, ts string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("analysis_report_%s.md", ts))
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// RenderMarkdown converts markdown to an HTML fragment.
func RenderMarkdown(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint: gosec
}

// WriteReportHTML renders the report as a standalone page next to the
// markdown file: <dir>/analysis_report_<ts>.html.
func WriteReportHTML(dir, report, ts string) (string, error) {
	body, err := RenderMarkdown(report)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = htmlTmpl.Execute(&buf, map[string]any{
		"Title": "GitHub Stars Analysis " + ts,
		"Body":  body,
	})
	if err != nil {
		return "", fmt.Errorf("rendering report page: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("analysis_report_%s.html", ts))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing HTML report: %w", err)
	}
	return path, nil
}
