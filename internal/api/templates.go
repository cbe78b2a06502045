package api

import (
	"embed"
	"html/template"
	"strconv"
	"time"

	"github.com/lox/migrationforecast/internal/models"
)

//go:embed templates/*
var templateFS embed.FS

// newTemplates creates and parses the HTML templates with custom functions.
func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"selected": func(a, b string) bool { return a == b },
		"itoa":     strconv.Itoa,
		"ago": func(t time.Time) string {
			d := time.Since(t).Round(time.Minute)
			if d < time.Minute {
				return "just now"
			}
			return d.String() + " ago"
		},
		"outcome": func(p models.PredictionLog) string {
			if p.Error.Valid {
				return "error: " + p.Error.String
			}
			return strconv.FormatInt(p.InflowPred.Int64, 10) + " in / " + strconv.FormatInt(p.OutflowPred.Int64, 10) + " out"
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}
