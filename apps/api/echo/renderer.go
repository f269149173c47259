package echoapi

import (
	"html/template"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	appfs "github.com/trezcool/shule/fs"
)

// renderer serves the embedded page templates. Pages are rendered by file name
// (eg. "login.gohtml"); shared blocks live in layout.gohtml.
type renderer struct {
	templates *template.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer() (*renderer, error) {
	t, err := template.New("web").Funcs(templateFuncs).ParseFS(appfs.FS, "templates/web/*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "parsing web templates")
	}
	return &renderer{templates: t}, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return errors.Wrapf(r.templates.ExecuteTemplate(w, name, data), "rendering %s", name)
}

var templateFuncs = template.FuncMap{
	// fieldClass decorates a form control with the error state class.
	// errs may be absent from the render data; tolerate nil.
	"fieldClass": func(errs interface{}, field string) string {
		if m, ok := errs.(map[string]string); ok {
			if _, ok = m[field]; ok {
				return "form-control is-invalid"
			}
		}
		return "form-control"
	},
	"title": strings.Title,
}
