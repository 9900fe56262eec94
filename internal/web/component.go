package web

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("pages").ParseFS(templateFS, "templates/*.html"))

// page renders one of the embedded templates as a templ component.
func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, data)
	})
}

type ComponentResponse struct {
	Code      int
	Component templ.Component
}

// ComponentHandler renders the component returned by the wrapped function.
type ComponentHandler struct {
	logger *zap.Logger
	handle func(*http.Request) *ComponentResponse
}

func (ch ComponentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := ch.handle(r)

	var buf bytes.Buffer
	if err := resp.Component.Render(r.Context(), &buf); err != nil {
		ch.logger.Error("rendering component", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	code := resp.Code
	if code == 0 {
		code = http.StatusOK
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		ch.logger.Debug("writing page", zap.Error(err))
	}
}
