package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageIndex  = "index.html"
	pageResult = "result.html"
)

// Renderer renders the embedded HTML pages. Every page is executed through the
// shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	pages := make(map[string]*template.Template)
	for _, page := range []string{pageIndex, pageResult} {
		t, err := template.New(page).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		pages[page] = t
	}
	return &Renderer{pages: pages}, nil
}

// Render implements echo.Renderer
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

type pageData struct {
	LogoURL string
	Accept  string
	Markup  string
	Error   string
	Flashes []string
	Result  *resultView
}

type resultView struct {
	FileName     string
	Original     tableView
	Adjusted     tableView
	DownloadURL  string
	DownloadName string
}

type columnView struct {
	Name    string
	Numeric bool
}

type tableView struct {
	Columns []columnView
	Rows    []catalog.Row
}

func (v tableView) Len() int {
	return len(v.Rows)
}

func newTableView(t *catalog.Table) tableView {
	v := tableView{
		Columns: make([]columnView, len(t.Columns)),
		Rows:    t.Rows,
	}
	for i, c := range t.Columns {
		v.Columns[i] = columnView{Name: c.Name, Numeric: c.Type == catalog.ColumnNumber}
	}
	return v
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
