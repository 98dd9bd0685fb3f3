// Package report renders explanation lists as markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"insightminer/domain/dataset"
	"insightminer/domain/insight"
)

// Report is one rendered explain result.
type Report struct {
	Title       string
	Source      string
	GeneratedAt time.Time
	View        insight.CurrentSpace
	Response    insight.ExplainResponse
}

// Markdown renders the report as a markdown document
func (r Report) Markdown() string {
	var b strings.Builder
	title := r.Title
	if title == "" {
		title = "Explanations"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if r.Source != "" {
		fmt.Fprintf(&b, "Source: `%s`  \n", r.Source)
	}
	if !r.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated: %s  \n", r.GeneratedAt.Format(time.RFC3339))
	}
	if len(r.View.Dimensions)+len(r.View.Measures) > 0 {
		fmt.Fprintf(&b, "View: %s by %s\n", joinOrDash(r.View.Measures), joinOrDash(r.View.Dimensions))
	}
	b.WriteString("\n")

	spaces := r.Response.Explanations
	if len(spaces) == 0 {
		b.WriteString("_No explanation passed the significance threshold._\n")
		return b.String()
	}

	b.WriteString("| # | Strategy | Score | Dimensions | Measures | Detail |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for i, s := range spaces {
		fmt.Fprintf(&b, "| %d | %s | %.4f | %s | %s | %s |\n",
			i+1, s.Type.Title(), s.Score,
			cell(strings.Join(s.Dimensions(), ", ")),
			cell(measureList(s.Measures())),
			cell(detail(s)))
	}

	for i, s := range spaces {
		fmt.Fprintf(&b, "\n## %d. %s\n\n", i+1, s.Type.Title())
		b.WriteString(sentence(s))
		b.WriteString("\n")
		if len(s.Predicates) > 0 {
			b.WriteString("\nSelection:\n\n")
			for _, p := range s.Predicates {
				fmt.Fprintf(&b, "- `%s`\n", p.String())
			}
		}
		if i < len(r.Response.VisualizableSpaces) {
			vs := r.Response.VisualizableSpaces[i]
			fmt.Fprintf(&b, "\nChart: %s, position %s", vs.Schema.GeomType, strings.Join(vs.Schema.Position, " x "))
			if len(vs.Schema.Color) > 0 {
				fmt.Fprintf(&b, ", color %s", strings.Join(vs.Schema.Color, ", "))
			}
			if len(vs.Schema.Facets) > 0 {
				fmt.Fprintf(&b, ", facets %s", strings.Join(vs.Schema.Facets, ", "))
			}
			fmt.Fprintf(&b, " (%d rows)\n", len(vs.DataView))
		}
	}

	if len(r.Response.FieldSemanticTypes) > 0 {
		b.WriteString("\n## Fields\n\n| Field | Type |\n|---|---|\n")
		for _, ft := range r.Response.FieldSemanticTypes {
			fmt.Fprintf(&b, "| %s | %s |\n", cell(ft.Key), ft.Type)
		}
	}
	return b.String()
}

// sentence describes a space in one line
func sentence(s insight.Space) string {
	ext := strings.Join(s.ExtendDimensions, ", ")
	switch s.Type {
	case insight.ChildrenMajorFactor:
		return fmt.Sprintf("Breaking the view down by **%s**, the group **%s** follows the overall distribution most closely.", ext, childKey(s))
	case insight.ChildrenOutlier:
		return fmt.Sprintf("Breaking the view down by **%s**, the group **%s** deviates most from the overall distribution.", ext, childKey(s))
	case insight.SelectionDimensionDistribution:
		return fmt.Sprintf("The selection changes how the measures distribute over **%s**.", ext)
	case insight.SelectionMeasureDistribution:
		return fmt.Sprintf("Within the selection, **%s** distributes differently from the measures in view.", measureList(s.ExtendMeasures))
	}
	return ""
}

func detail(s insight.Space) string {
	d := s.Description
	switch s.Type {
	case insight.ChildrenMajorFactor, insight.ChildrenOutlier:
		return fmt.Sprintf("%s = %s, raw %.4f", strings.Join(s.ExtendDimensions, ", "), childKey(s), d.RawScore)
	case insight.SelectionMeasureDistribution:
		var parts []string
		if d.Op != "" {
			parts = append(parts, "op "+d.Op)
		}
		if d.MaxDivergence != nil {
			parts = append(parts, fmt.Sprintf("max %.4f", *d.MaxDivergence))
		}
		if d.MinDivergence != nil {
			parts = append(parts, fmt.Sprintf("min %.4f", *d.MinDivergence))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprintf("raw %.4f", d.RawScore)
}

func childKey(s insight.Space) string {
	if s.Description.ChildKey == nil {
		return "-"
	}
	return s.Description.ChildKey.Text()
}

func measureList(ms []dataset.MeasureRef) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = m.String()
	}
	return strings.Join(parts, ", ")
}

func joinOrDash(keys []string) string {
	if len(keys) == 0 {
		return "-"
	}
	return strings.Join(keys, ", ")
}

// cell escapes pipes for table cells
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// HTML converts the markdown rendering to an HTML fragment
func (r Report) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.ToHTML([]byte(r.Markdown()), p, renderer)
}

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; color: #1f2933; }
table { border-collapse: collapse; }
th, td { border: 1px solid #cbd2d9; padding: .25rem .5rem; text-align: left; }
code { background: #f0f4f8; padding: 0 .2rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// WritePage writes the report as a standalone HTML page
func (r Report) WritePage(w io.Writer) error {
	title := r.Title
	if title == "" {
		title = "Explanations"
	}
	var buf bytes.Buffer
	if err := page.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(r.HTML())}); err != nil {
		return fmt.Errorf("render report page: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
