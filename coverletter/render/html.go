package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var letterTemplate = template.Must(
	template.New("letter.html.tmpl").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/letter.html.tmpl"),
)

type htmlView struct {
	Title        string
	PageWidthIn  float64
	PageHeightIn float64
	MarginIn     float64
	Doc          Document
}

// HTML renders the document into a standalone page sized to geo.
func HTML(doc Document, geo Geometry) (string, error) {
	title := doc.Title
	if title == "" {
		title = "Cover Letter"
	}
	view := htmlView{
		Title:        title,
		PageWidthIn:  geo.inches(geo.Width),
		PageHeightIn: geo.inches(geo.Height),
		MarginIn:     geo.inches(geo.Margin),
		Doc:          doc,
	}
	var buf bytes.Buffer
	if err := letterTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("execute letter template: %w", err)
	}
	return buf.String(), nil
}
