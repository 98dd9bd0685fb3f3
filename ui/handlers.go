package ui

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"insightminer/domain/core"
	"insightminer/internal/report"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>insightminer</title></head>
<body>
<h1>Sessions</h1>
{{if .}}<table>
<tr><th>Session</th><th>Source</th><th>Rows</th><th>Dimensions</th><th>Measures</th><th>State</th></tr>
{{range .}}<tr>
<td><a href="/sessions/{{.ID}}/report">{{.ID}}</a></td>
<td>{{.Source}}</td><td>{{.Rows}}</td><td>{{.Dimensions}}</td><td>{{.Measures}}</td><td>{{.State}}</td>
</tr>
{{end}}</table>{{else}}<p>No sessions.</p>{{end}}
</body>
</html>
`))

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, indexTemplate, a.service.Sessions())
}

// handleReport renders the last surfaced explanation list of a session
func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s, err := a.service.Session(id)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	resp, at, ok := s.Last()
	if !ok {
		http.Error(w, "session has no explanations yet", http.StatusNotFound)
		return
	}

	info := s.Info()
	rep := report.Report{
		Title:       "Explanations for " + info.Source,
		Source:      info.Source,
		GeneratedAt: at,
		Response:    resp,
	}
	var buf bytes.Buffer
	if err := rep.WritePage(&buf); err != nil {
		a.logger.Error("report for session %s: %v", id, err)
		http.Error(w, "report rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// renderTemplate renders to a buffer first so errors never produce partial pages
func (a *App) renderTemplate(w http.ResponseWriter, t *template.Template, data interface{}) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		a.logger.Error("template %s: %v", t.Name(), err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
