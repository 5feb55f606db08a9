// Package web holds the server-rendered pages.
package web

import (
	"embed"
	"html/template"
	"time"

	"github.com/isdelr/murmur/internal/forms"
	"github.com/isdelr/murmur/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// HomePage is the data rendered by the home template.
type HomePage struct {
	User      *models.User
	Posts     []models.PostWithAuthor
	Errors    forms.Errors
	CSRFToken string
}

var funcs = template.FuncMap{
	"timestamp": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04")
	},
}

// Templates parses the embedded templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}
