package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrPageRender reports a page template that failed to execute.
var ErrPageRender = errors.New("page template rendering failed")

// DefaultPageLang is used when PageData.Lang is empty.
const DefaultPageLang = "en"

// PageData fills the page template.
type PageData struct {
	Title string
	Lang  string
	CSS   string
	Body  string // rendered HTML, inserted as is
}

// pageView is what the template sees. CSS and Body are trusted content.
type pageView struct {
	Title string
	Lang  string
	CSS   template.CSS
	Body  template.HTML
}

// Page wraps rendered fragments into a standalone HTML document.
type Page struct {
	tmpl *template.Template
}

// NewPage parses a page template. The template receives .Title, .Lang, .CSS
// and .Body.
func NewPage(tmplContent string) (*Page, error) {
	tmpl, err := template.New("page").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &Page{tmpl: tmpl}, nil
}

// Wrap renders the template around data.Body.
func (p *Page) Wrap(ctx context.Context, data PageData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lang := data.Lang
	if lang == "" {
		lang = DefaultPageLang
	}
	view := pageView{
		Title: data.Title,
		Lang:  lang,
		CSS:   template.CSS(sanitizeCSS(data.CSS)), // #nosec G203 -- CSS comes from our assets or the user's own directory
		Body:  template.HTML(data.Body),            // #nosec G203 -- Body is the pipeline's own output
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return buf.String(), nil
}

// sanitizeCSS escapes sequences that could close the <style> block early.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
