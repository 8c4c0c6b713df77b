package pages

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"

	sm "sa.service/models"
)

//go:embed templates/*.html templates/partials/*.html
var Files embed.FS

// Renderer executes the embedded page templates.
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	templates, err := template.New("pages").Funcs(template.FuncMap{
		"dataURL": dataURL,
	}).ParseFS(Files, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing page templates: %w", err)
	}

	return &Renderer{templates: templates}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data sm.PageData) error {
	if r.templates.Lookup(name) == nil {
		return fmt.Errorf("no page named %s", name)
	}
	return r.templates.ExecuteTemplate(w, name, data)
}

// dataURL inlines an image, html/template would otherwise refuse a data: url in src.
func dataURL(mimeType string, img []byte) template.URL {
	return template.URL("data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img))
}
