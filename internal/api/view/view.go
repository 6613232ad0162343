// Package view renders the server-side HTML pages.
package view

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin/render"
	"github.com/martijn/userbase/internal/api/form"
	"github.com/martijn/userbase/internal/core/domain"
	"github.com/martijn/userbase/internal/flash"
)

//go:embed templates/*.html
var templates embed.FS

// Page names accepted by Renderer.
const (
	PageIndex = "users/index"
	PageShow  = "users/show"
	PageNew   = "users/new"
	PageEdit  = "users/edit"
	PageError = "error"
)

var pageFiles = map[string]string{
	PageIndex: "templates/index.html",
	PageShow:  "templates/show.html",
	PageNew:   "templates/new.html",
	PageEdit:  "templates/edit.html",
	PageError: "templates/error.html",
}

// Page is the data every template receives.
type Page struct {
	Title  string
	Flash  *flash.Message
	Fields []form.Field

	Users []*domain.User
	User  *domain.User

	// Form state
	Action    string
	Method    string
	Submit    string
	Values    domain.UserFields
	Submitted map[string]string
	Errors    []string

	// Error page
	Message string
}

// Input is the value to place in a field's input: what the user submitted
// when re-rendering a rejected form, otherwise the stored value.
func (p Page) Input(f form.Field) string {
	if raw, ok := p.Submitted[f.Name]; ok {
		return raw
	}
	return f.InputValue(p.Values)
}

func (p Page) Checked(f form.Field) bool {
	if raw, ok := p.Submitted[f.Name]; ok {
		return raw == "1"
	}
	return f.Checked(p.Values)
}

// Renderer is a gin HTMLRender holding one template set per page, each
// wrapped in the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageFiles))}
	for name, file := range pageFiles {
		t, err := template.New(name).ParseFS(templates, "templates/layout.html", "templates/form.html", file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Instance implements render.HTMLRender.
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		panic(fmt.Sprintf("view: unknown page %q", name))
	}
	return render.HTML{Template: t, Name: "layout", Data: data}
}
